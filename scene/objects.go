package scene

import (
	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/spatial/r3"
)

// Material is the surface of an object, allocated from a resource pool.
type Material struct {
	Handle  Handle
	Color   colorful.Color
	Opacity float64

	// Whether the color of each instance is used instead of Color.
	InstanceColors bool
}

// NewMaterial allocates an opaque material.
func NewMaterial(res *Resources, c colorful.Color) *Material {
	return &Material{
		Handle:  res.Alloc(KindMaterial),
		Color:   c,
		Opacity: 1,
	}
}

// Hit is the intersection of a ray with an object.
type Hit struct {
	Distance float64
	Object   Object

	// The instance slot hit within an instanced mesh, -1 for other objects.
	Instance int
}

// Object is an element of the scene graph.
type Object interface {
	// Appends the intersections of the ray with the object, and with its
	// children for groups.
	Intersect(r Ray, hits []Hit) []Hit

	// Releases the resources owned by the object.
	Dispose(res *Resources) error
}

// Mesh is a single point drawn as a scaled shape.
type Mesh struct {
	Geometry *Geometry
	Material *Material
	Position r3.Vec
	Scale    float64

	PointIndex int
	PointID    string
}

func (m *Mesh) Intersect(r Ray, hits []Hit) []Hit {
	if t, ok := intersectScaled(r, m.Geometry, m.Position, m.Scale); ok {
		hits = append(hits, Hit{Distance: t, Object: m, Instance: -1})
	}
	return hits
}

func (m *Mesh) Dispose(res *Resources) error {
	return disposeAll(res, m.Geometry.Handle, m.Material.Handle)
}

// Instance is a slot of an instanced mesh.
type Instance struct {
	Position r3.Vec
	Scale    float64
	Color    colorful.Color
}

// InstancedMesh draws many points sharing a shape. Slot i of Instances
// represents the point PointIndices[i] whose id is PointIDs[i].
type InstancedMesh struct {
	Geometry  *Geometry
	Material  *Material
	Instances []Instance

	PointIndices []int
	PointIDs     []string
}

func (m *InstancedMesh) Intersect(r Ray, hits []Hit) []Hit {
	for i, inst := range m.Instances {
		if t, ok := intersectScaled(r, m.Geometry, inst.Position, inst.Scale); ok {
			hits = append(hits, Hit{Distance: t, Object: m, Instance: i})
		}
	}
	return hits
}

func (m *InstancedMesh) Dispose(res *Resources) error {
	return disposeAll(res, m.Geometry.Handle, m.Material.Handle)
}

// LineSegments draws independent segments with a shared material.
type LineSegments struct {
	Geometry Handle
	Material *Material
	Segments [][2]r3.Vec
}

// Intersect does nothing, lines are not pickable.
func (l *LineSegments) Intersect(r Ray, hits []Hit) []Hit {
	return hits
}

func (l *LineSegments) Dispose(res *Resources) error {
	return disposeAll(res, l.Geometry, l.Material.Handle)
}

// Group is a container of objects.
type Group struct {
	Name     string
	Children []Object
}

func (g *Group) Add(objects ...Object) {
	g.Children = append(g.Children, objects...)
}

func (g *Group) Intersect(r Ray, hits []Hit) []Hit {
	for _, c := range g.Children {
		hits = c.Intersect(r, hits)
	}
	return hits
}

// Dispose disposes every child and empties the group. Every child is
// removed even when one fails to dispose, the first error is returned.
func (g *Group) Dispose(res *Resources) error {
	var err error
	for _, c := range g.Children {
		if cerr := c.Dispose(res); cerr != nil && err == nil {
			err = cerr
		}
	}
	g.Children = nil
	return err
}

// Len returns the number of children.
func (g *Group) Len() int {
	return len(g.Children)
}

func intersectScaled(r Ray, g *Geometry, position r3.Vec, scale float64) (float64, bool) {
	if scale == 0 {
		return 0, false
	}

	local := Ray{
		Origin:    r3.Scale(1/scale, r3.Sub(r.Origin, position)),
		Direction: r3.Scale(1/scale, r.Direction),
	}
	return g.Intersect(local)
}

// disposeAll disposes every handle and returns the first error.
func disposeAll(res *Resources, handles ...Handle) error {
	var err error
	for _, h := range handles {
		if herr := res.Dispose(h); herr != nil && err == nil {
			err = herr
		}
	}
	return err
}
