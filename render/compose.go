package render

import (
	"math"
	"slices"

	"github.com/aukilabs/vectorspace/encoding"
	"github.com/aukilabs/vectorspace/scene"
	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/spatial/r3"
)

// picture is a frame projected on the drawing surface.
type picture struct {
	Width      float64
	Height     float64
	Background colorful.Color
	Lines      []line
	Marks      []mark
	Labels     []label
}

type line struct {
	X1, Y1, X2, Y2 float64
	Color          colorful.Color
	Opacity        float64
}

// mark is a point drawn as the outline of its shape.
type mark struct {
	X, Y   float64
	Radius float64
	Depth  float64
	Color  colorful.Color
	Shape  encoding.Shape
}

type label struct {
	X, Y  float64
	Text  string
	Color colorful.Color
}

// compose projects a frame. Marks are ordered back to front.
func compose(f Frame) picture {
	p := picture{
		Width:      f.Width,
		Height:     f.Height,
		Background: scene.DefaultBackground,
	}
	if f.Scene == nil {
		return p
	}
	p.Background = f.Scene.Background

	if g := f.Scene.Grid; g != nil {
		for _, s := range g.Lines() {
			c := g.Color
			if (s[0].X == 0 && s[1].X == 0) || (s[0].Z == 0 && s[1].Z == 0) {
				c = g.CenterColor
			}
			p.addLine(f, s[0], s[1], c, 1)
		}
	}

	if a := f.Scene.Axes; a != nil {
		for i, l := range a.Labels {
			end := r3.Scale(a.Length/scene.AxisLabelSpan, l.Position)
			p.addLine(f, r3.Vec{}, end, scene.AxisColor(i), 1)
		}
	}

	for _, o := range f.Scene.Connections.Children {
		if segments, ok := o.(*scene.LineSegments); ok {
			for _, s := range segments.Segments {
				p.addLine(f, s[0], s[1], segments.Material.Color, segments.Material.Opacity)
			}
		}
	}

	for _, o := range f.Scene.Points.Children {
		switch m := o.(type) {
		case *scene.Mesh:
			p.addMark(f, m.Position, m.Scale, m.Material.Color, m.Geometry.Shape)

		case *scene.InstancedMesh:
			for _, inst := range m.Instances {
				c := inst.Color
				if !m.Material.InstanceColors {
					c = m.Material.Color
				}
				p.addMark(f, inst.Position, inst.Scale, c, m.Geometry.Shape)
			}
		}
	}
	slices.SortStableFunc(p.Marks, func(a, b mark) int {
		switch {
		case a.Depth > b.Depth:
			return -1
		case a.Depth < b.Depth:
			return 1
		default:
			return 0
		}
	})

	if a := f.Scene.Axes; a != nil {
		for _, l := range a.Labels {
			if x, y, _, ok := f.Camera.Project(l.Position, f.Width, f.Height); ok {
				p.Labels = append(p.Labels, label{X: x, Y: y, Text: l.Text, Color: l.Material.Color})
			}
		}
	}
	return p
}

// Segments crossing the near plane are skipped.
func (p *picture) addLine(f Frame, from, to r3.Vec, c colorful.Color, opacity float64) {
	x1, y1, _, ok1 := f.Camera.Project(from, f.Width, f.Height)
	x2, y2, _, ok2 := f.Camera.Project(to, f.Width, f.Height)
	if !ok1 || !ok2 {
		return
	}
	p.Lines = append(p.Lines, line{X1: x1, Y1: y1, X2: x2, Y2: y2, Color: c, Opacity: opacity})
}

func (p *picture) addMark(f Frame, pos r3.Vec, scale float64, c colorful.Color, shape encoding.Shape) {
	x, y, depth, ok := f.Camera.Project(pos, f.Width, f.Height)
	if !ok {
		return
	}
	p.Marks = append(p.Marks, mark{
		X:      x,
		Y:      y,
		Radius: math.Max(scale*f.Camera.ProjectedScale(depth, f.Height), 0.5),
		Depth:  depth,
		Color:  c,
		Shape:  shape,
	})
}

// outline returns the polygon a mark is drawn as. Spheres are drawn as
// circles and have no polygon.
func (m mark) outline() (xs, ys []float64) {
	r := m.Radius
	var pts [][2]float64

	switch m.Shape {
	case encoding.Cube, encoding.Cylinder:
		pts = [][2]float64{{-0.5, -0.5}, {0.5, -0.5}, {0.5, 0.5}, {-0.5, 0.5}}
	case encoding.Cone:
		pts = [][2]float64{{0, -0.7}, {0.7, 0.7}, {-0.7, 0.7}}
	case encoding.Tetrahedron:
		pts = [][2]float64{{0, -1}, {math.Sqrt(3) / 2, 0.5}, {-math.Sqrt(3) / 2, 0.5}}
	case encoding.Octahedron:
		pts = [][2]float64{{0, -1}, {1, 0}, {0, 1}, {-1, 0}}
	default:
		return nil, nil
	}

	xs = make([]float64, len(pts))
	ys = make([]float64, len(pts))
	for i, pt := range pts {
		xs[i] = m.X + pt[0]*r
		ys[i] = m.Y + pt[1]*r
	}
	return xs, ys
}
