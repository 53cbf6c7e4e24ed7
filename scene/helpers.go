package scene

import (
	"github.com/aukilabs/vectorspace/store"
	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	AxesLength    = 1.2
	AxisLabelSpan = 1.3
	GridSize      = 2.0
)

// DefaultBackground is the background color of a new scene.
var DefaultBackground = colorful.Color{R: 0x1a / 255.0, G: 0x1a / 255.0, B: 0x2e / 255.0}

var (
	axisColors = [3]colorful.Color{
		{R: 1, G: 0x44 / 255.0, B: 0x44 / 255.0},
		{R: 0x44 / 255.0, G: 1, B: 0x44 / 255.0},
		{R: 0x44 / 255.0, G: 0x44 / 255.0, B: 1},
	}

	gridCenterColor = colorful.Color{R: 0x44 / 255.0, G: 0x44 / 255.0, B: 0x44 / 255.0}
	gridColor       = colorful.Color{R: 0x33 / 255.0, G: 0x33 / 255.0, B: 0x33 / 255.0}
)

// HelperConfig configures the axes and the grid.
type HelperConfig struct {
	ShowAxes      bool
	ShowGrid      bool
	AxisLabels    [3]string
	GridDivisions int
}

// DefaultHelperConfig returns the helpers of a new view.
func DefaultHelperConfig() HelperConfig {
	return HelperConfig{
		ShowAxes:      true,
		ShowGrid:      true,
		AxisLabels:    [3]string{"X", "Y", "Z"},
		GridDivisions: 10,
	}
}

// HelperConfigFromStore reads the helpers configuration from store values.
// Missing axis labels and a zero number of grid divisions are defaulted.
func HelperConfigFromStore(g store.Getter) HelperConfig {
	c := HelperConfig{
		ShowAxes:      store.Bool(g, store.KeyShowAxes),
		ShowGrid:      store.Bool(g, store.KeyShowGrid),
		AxisLabels:    DefaultHelperConfig().AxisLabels,
		GridDivisions: store.Int(g, store.KeyGridDivisions),
	}

	if labels, ok := store.AsStringMap(g.Get(store.KeyAxisLabels)); ok {
		for i, axis := range []string{"x", "y", "z"} {
			if l, ok := labels[axis]; ok {
				c.AxisLabels[i] = l
			}
		}
	}

	if c.GridDivisions <= 0 {
		c.GridDivisions = DefaultHelperConfig().GridDivisions
	}
	return c
}

// AxisLabel is a text sprite placed at the end of an axis.
type AxisLabel struct {
	Text     string
	Position r3.Vec
	Material *Material
}

// Axes draws the x, y and z axes from the origin in red, green and blue.
type Axes struct {
	Length   float64
	Geometry Handle
	Material *Material
	Labels   [3]AxisLabel
}

func newAxes(res *Resources, labels [3]string) *Axes {
	a := &Axes{
		Length:   AxesLength,
		Geometry: res.Alloc(KindGeometry),
		Material: NewMaterial(res, colorful.Color{R: 1, G: 1, B: 1}),
	}
	a.Material.InstanceColors = true

	for i, text := range labels {
		var pos r3.Vec
		switch i {
		case 0:
			pos.X = AxisLabelSpan
		case 1:
			pos.Y = AxisLabelSpan
		case 2:
			pos.Z = AxisLabelSpan
		}

		a.Labels[i] = AxisLabel{
			Text:     text,
			Position: pos,
			Material: NewMaterial(res, axisColors[i]),
		}
	}
	return a
}

// AxisColor returns the color of the axis i: 0 for x, 1 for y, 2 for z.
func AxisColor(i int) colorful.Color {
	return axisColors[i%3]
}

func (a *Axes) Intersect(r Ray, hits []Hit) []Hit {
	return hits
}

func (a *Axes) Dispose(res *Resources) error {
	handles := []Handle{a.Geometry, a.Material.Handle}
	for _, l := range a.Labels {
		handles = append(handles, l.Material.Handle)
	}
	return disposeAll(res, handles...)
}

// Grid is a square grid on the XZ plane, centered on the origin.
type Grid struct {
	Size        float64
	Divisions   int
	CenterColor colorful.Color
	Color       colorful.Color
	Geometry    Handle
	Material    *Material
}

func newGrid(res *Resources, divisions int) *Grid {
	return &Grid{
		Size:        GridSize,
		Divisions:   divisions,
		CenterColor: gridCenterColor,
		Color:       gridColor,
		Geometry:    res.Alloc(KindGeometry),
		Material:    NewMaterial(res, gridColor),
	}
}

// Lines returns the segments of the grid.
func (g *Grid) Lines() [][2]r3.Vec {
	half := g.Size / 2
	step := g.Size / float64(g.Divisions)

	lines := make([][2]r3.Vec, 0, 2*(g.Divisions+1))
	for i := 0; i <= g.Divisions; i++ {
		k := -half + float64(i)*step
		lines = append(lines,
			[2]r3.Vec{{X: -half, Z: k}, {X: half, Z: k}},
			[2]r3.Vec{{X: k, Z: -half}, {X: k, Z: half}},
		)
	}
	return lines
}

func (g *Grid) Intersect(r Ray, hits []Hit) []Hit {
	return hits
}

func (g *Grid) Dispose(res *Resources) error {
	return disposeAll(res, g.Geometry, g.Material.Handle)
}

// LightKind is the kind of a light.
type LightKind string

const (
	AmbientLight     LightKind = "ambient"
	DirectionalLight LightKind = "directional"
)

// Light lights the scene. Lights do not own any resource.
type Light struct {
	Kind      LightKind
	Color     colorful.Color
	Intensity float64
	Position  r3.Vec
}

// DefaultLights returns the lights of a scene.
func DefaultLights() []Light {
	white := colorful.Color{R: 1, G: 1, B: 1}
	return []Light{
		{Kind: AmbientLight, Color: white, Intensity: 0.6},
		{Kind: DirectionalLight, Color: white, Intensity: 0.8, Position: r3.Vec{X: 5, Y: 10, Z: 7}},
	}
}
