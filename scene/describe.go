package scene

import (
	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/spatial/r3"
)

// Description is the serializable form of a scene sent to hosts.
type Description struct {
	Version     uint64             `json:"version"`
	Background  string             `json:"background"`
	Meshes      []MeshDescription  `json:"meshes,omitempty"`
	Batches     []BatchDescription `json:"batches,omitempty"`
	Connections []LinesDescription `json:"connections,omitempty"`
	Axes        *AxesDescription   `json:"axes,omitempty"`
	Grid        *GridDescription   `json:"grid,omitempty"`
	Lights      []LightDescription `json:"lights"`
}

type MeshDescription struct {
	Shape      string     `json:"shape"`
	Color      string     `json:"color"`
	Position   [3]float64 `json:"position"`
	Scale      float64    `json:"scale"`
	PointIndex int        `json:"point_index"`
	PointID    string     `json:"point_id"`
}

type BatchDescription struct {
	Shape        string       `json:"shape"`
	Positions    [][3]float64 `json:"positions"`
	Scales       []float64    `json:"scales"`
	Colors       []string     `json:"colors"`
	PointIndices []int        `json:"point_indices"`
	PointIDs     []string     `json:"point_ids"`
}

type LinesDescription struct {
	Color    string          `json:"color"`
	Opacity  float64         `json:"opacity"`
	Segments [][2][3]float64 `json:"segments"`
}

type AxesDescription struct {
	Length float64            `json:"length"`
	Labels []LabelDescription `json:"labels"`
}

type LabelDescription struct {
	Text     string     `json:"text"`
	Position [3]float64 `json:"position"`
	Color    string     `json:"color"`
}

type GridDescription struct {
	Size        float64 `json:"size"`
	Divisions   int     `json:"divisions"`
	CenterColor string  `json:"center_color"`
	Color       string  `json:"color"`
}

type LightDescription struct {
	Kind      LightKind  `json:"kind"`
	Color     string     `json:"color"`
	Intensity float64    `json:"intensity"`
	Position  [3]float64 `json:"position"`
}

// Describe returns the description of the scene.
func (s *Scene) Describe() Description {
	d := Description{
		Version:    s.Version,
		Background: hexColor(s.Background),
	}

	for _, o := range s.Points.Children {
		switch obj := o.(type) {
		case *Mesh:
			d.Meshes = append(d.Meshes, MeshDescription{
				Shape:      obj.Geometry.Shape.String(),
				Color:      hexColor(obj.Material.Color),
				Position:   array(obj.Position),
				Scale:      obj.Scale,
				PointIndex: obj.PointIndex,
				PointID:    obj.PointID,
			})

		case *InstancedMesh:
			batch := BatchDescription{
				Shape:        obj.Geometry.Shape.String(),
				Positions:    make([][3]float64, len(obj.Instances)),
				Scales:       make([]float64, len(obj.Instances)),
				Colors:       make([]string, len(obj.Instances)),
				PointIndices: obj.PointIndices,
				PointIDs:     obj.PointIDs,
			}
			for i, inst := range obj.Instances {
				batch.Positions[i] = array(inst.Position)
				batch.Scales[i] = inst.Scale
				batch.Colors[i] = hexColor(inst.Color)
			}
			d.Batches = append(d.Batches, batch)
		}
	}

	for _, o := range s.Connections.Children {
		if l, ok := o.(*LineSegments); ok {
			lines := LinesDescription{
				Color:    hexColor(l.Material.Color),
				Opacity:  l.Material.Opacity,
				Segments: make([][2][3]float64, len(l.Segments)),
			}
			for i, seg := range l.Segments {
				lines.Segments[i] = [2][3]float64{array(seg[0]), array(seg[1])}
			}
			d.Connections = append(d.Connections, lines)
		}
	}

	if s.Axes != nil {
		axes := &AxesDescription{Length: s.Axes.Length}
		for _, l := range s.Axes.Labels {
			axes.Labels = append(axes.Labels, LabelDescription{
				Text:     l.Text,
				Position: array(l.Position),
				Color:    hexColor(l.Material.Color),
			})
		}
		d.Axes = axes
	}

	if s.Grid != nil {
		d.Grid = &GridDescription{
			Size:        s.Grid.Size,
			Divisions:   s.Grid.Divisions,
			CenterColor: hexColor(s.Grid.CenterColor),
			Color:       hexColor(s.Grid.Color),
		}
	}

	for _, l := range s.Lights {
		d.Lights = append(d.Lights, LightDescription{
			Kind:      l.Kind,
			Color:     hexColor(l.Color),
			Intensity: l.Intensity,
			Position:  array(l.Position),
		})
	}
	return d
}

func hexColor(c colorful.Color) string {
	return c.Clamped().Hex()
}

func array(v r3.Vec) [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}
