// Package scene materializes points and connections as drawable objects and
// keeps track of the resources they own.
package scene

import (
	"time"

	"github.com/aukilabs/vectorspace/connection"
	"github.com/aukilabs/vectorspace/encoding"
	"github.com/aukilabs/vectorspace/models"
	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/spatial/r3"
)

// Scene is the drawable state of a view.
type Scene struct {
	Background colorful.Color

	// The pickable point objects.
	Points Group

	// The connection lines.
	Connections Group

	// Axes and grid, nil when hidden.
	Axes *Axes
	Grid *Grid

	Lights []Light

	// Incremented on every change.
	Version uint64
}

// Builder builds the objects of a scene. Every rebuild disposes the objects
// it previously built before building new ones.
type Builder struct {
	Scene     *Scene
	Resources *Resources

	// The strategy used by the last points rebuild.
	Strategy Strategy
}

// NewBuilder creates a builder with an empty scene.
func NewBuilder() *Builder {
	return &Builder{
		Scene: &Scene{
			Background:  DefaultBackground,
			Points:      Group{Name: "points"},
			Connections: Group{Name: "connections"},
			Lights:      DefaultLights(),
		},
		Resources: &Resources{},
		Strategy:  Individual{},
	}
}

// RebuildPoints replaces the point objects. Disposal errors are returned
// before anything is built.
func (b *Builder) RebuildPoints(points []models.Point, c encoding.Config, instancing bool) error {
	defer b.touch()

	if err := b.Scene.Points.Dispose(b.Resources); err != nil {
		return err
	}
	if len(points) == 0 {
		return nil
	}

	start := time.Now()
	b.Strategy = SelectStrategy(instancing, len(points))
	b.Scene.Points.Add(b.Strategy.Build(b.Resources, points, c.Prepare(points))...)
	instrumentRebuild("points", b.Strategy.Name(), start)
	return nil
}

// RebuildConnections replaces the connection lines.
func (b *Builder) RebuildConnections(points []models.Point, c connection.Config) error {
	defer b.touch()

	if err := b.Scene.Connections.Dispose(b.Resources); err != nil {
		return err
	}

	start := time.Now()
	edges := connection.Build(points, c)
	if len(edges) == 0 {
		return nil
	}

	segments := make([][2]r3.Vec, len(edges))
	for i, e := range edges {
		segments[i] = [2]r3.Vec{points[e.From].Position, points[e.To].Position}
	}

	material := NewMaterial(b.Resources, c.Style.Color)
	material.Opacity = c.Style.Opacity

	b.Scene.Connections.Add(&LineSegments{
		Geometry: b.Resources.Alloc(KindGeometry),
		Material: material,
		Segments: segments,
	})
	instrumentRebuild("connections", "lines", start)
	return nil
}

// RebuildHelpers replaces the axes and the grid.
func (b *Builder) RebuildHelpers(c HelperConfig) error {
	defer b.touch()

	if err := b.disposeHelpers(); err != nil {
		return err
	}

	if c.ShowAxes {
		b.Scene.Axes = newAxes(b.Resources, c.AxisLabels)
	}
	if c.ShowGrid {
		divisions := c.GridDivisions
		if divisions <= 0 {
			divisions = DefaultHelperConfig().GridDivisions
		}
		b.Scene.Grid = newGrid(b.Resources, divisions)
	}
	return nil
}

// SetBackground changes the background color.
func (b *Builder) SetBackground(c colorful.Color) {
	if b.Scene.Background == c {
		return
	}
	b.Scene.Background = c
	b.touch()
}

// Dispose releases every object of the scene.
func (b *Builder) Dispose() error {
	defer b.touch()

	if err := b.Scene.Points.Dispose(b.Resources); err != nil {
		return err
	}
	if err := b.Scene.Connections.Dispose(b.Resources); err != nil {
		return err
	}
	return b.disposeHelpers()
}

func (b *Builder) disposeHelpers() error {
	if a := b.Scene.Axes; a != nil {
		b.Scene.Axes = nil
		if err := a.Dispose(b.Resources); err != nil {
			return err
		}
	}

	if g := b.Scene.Grid; g != nil {
		b.Scene.Grid = nil
		if err := g.Dispose(b.Resources); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) touch() {
	b.Scene.Version++
}
