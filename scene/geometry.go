package scene

import (
	"math"

	"github.com/aukilabs/vectorspace/encoding"
	"gonum.org/v1/gonum/spatial/r3"
)

// RadialSegments is the number of sides of the faceted cones and cylinders.
const RadialSegments = 16

// Geometry is a unit shape, in local space, allocated from a resource pool.
type Geometry struct {
	Handle Handle
	Shape  encoding.Shape

	// Radius of the sphere bounding the shape.
	Radius float64

	sphere bool
	planes []plane
}

// plane is the half space dot(Normal, x) <= Offset.
type plane struct {
	Normal r3.Vec
	Offset float64
}

// The construction routine of every shape.
var shapeGeometries = [...]func() Geometry{
	encoding.Sphere:      sphereGeometry,
	encoding.Cube:        boxGeometry,
	encoding.Cone:        coneGeometry,
	encoding.Tetrahedron: tetrahedronGeometry,
	encoding.Octahedron:  octahedronGeometry,
	encoding.Cylinder:    cylinderGeometry,
}

// NewGeometry allocates the geometry of a shape. Unknown shapes are spheres.
func NewGeometry(res *Resources, shape encoding.Shape) *Geometry {
	if shape < 0 || int(shape) >= len(shapeGeometries) {
		shape = encoding.Sphere
	}

	g := shapeGeometries[shape]()
	g.Shape = shape
	g.Handle = res.Alloc(KindGeometry)
	return &g
}

// Intersect returns the smallest parameter t >= 0 at which the ray enters
// the shape. The direction does not need to be normalized. Rays starting
// inside the shape do not intersect it.
func (g *Geometry) Intersect(r Ray) (float64, bool) {
	if g.sphere {
		return intersectSphere(r, g.Radius)
	}
	return intersectConvex(r, g.planes)
}

func intersectSphere(r Ray, radius float64) (float64, bool) {
	a := r3.Dot(r.Direction, r.Direction)
	if a == 0 {
		return 0, false
	}

	b := 2 * r3.Dot(r.Origin, r.Direction)
	c := r3.Dot(r.Origin, r.Origin) - radius*radius

	disc := b*b - 4*a*c
	if disc < 0 {
		return 0, false
	}

	t := (-b - math.Sqrt(disc)) / (2 * a)
	if t < 0 {
		return 0, false
	}
	return t, true
}

// intersectConvex clips the ray against every face plane of a convex shape.
func intersectConvex(r Ray, planes []plane) (float64, bool) {
	enter := math.Inf(-1)
	exit := math.Inf(1)

	for _, p := range planes {
		denom := r3.Dot(p.Normal, r.Direction)
		dist := p.Offset - r3.Dot(p.Normal, r.Origin)

		if denom == 0 {
			if dist < 0 {
				return 0, false
			}
			continue
		}

		t := dist / denom
		if denom < 0 {
			enter = math.Max(enter, t)
		} else {
			exit = math.Min(exit, t)
		}

		if enter > exit {
			return 0, false
		}
	}

	if enter < 0 || math.IsInf(enter, -1) {
		return 0, false
	}
	return enter, true
}

// convexGeometry builds the face planes of a convex shape containing the
// origin from its triangles.
func convexGeometry(triangles [][3]r3.Vec) Geometry {
	g := Geometry{
		planes: make([]plane, 0, len(triangles)),
	}

	for _, tri := range triangles {
		n := r3.Cross(r3.Sub(tri[1], tri[0]), r3.Sub(tri[2], tri[0]))
		if r3.Norm(n) == 0 {
			continue
		}
		n = r3.Unit(n)

		offset := r3.Dot(n, tri[0])
		if offset < 0 {
			n = r3.Scale(-1, n)
			offset = -offset
		}
		g.planes = append(g.planes, plane{Normal: n, Offset: offset})

		for _, v := range tri {
			g.Radius = math.Max(g.Radius, r3.Norm(v))
		}
	}
	return g
}

func sphereGeometry() Geometry {
	return Geometry{
		Radius: 1,
		sphere: true,
	}
}

func boxGeometry() Geometry {
	const h = 0.5
	g := Geometry{
		Radius: math.Sqrt(3 * h * h),
	}

	for _, n := range []r3.Vec{{X: 1}, {X: -1}, {Y: 1}, {Y: -1}, {Z: 1}, {Z: -1}} {
		g.planes = append(g.planes, plane{Normal: n, Offset: h})
	}
	return g
}

func coneGeometry() Geometry {
	const (
		radius = 0.7
		height = 1.4
	)

	apex := r3.Vec{Y: height / 2}
	base := ring(radius, -height/2)

	triangles := make([][3]r3.Vec, 0, 2*RadialSegments)
	for i := range base {
		next := base[(i+1)%len(base)]
		triangles = append(triangles,
			[3]r3.Vec{apex, base[i], next},
			[3]r3.Vec{r3.Vec{Y: -height / 2}, base[i], next},
		)
	}
	return convexGeometry(triangles)
}

func cylinderGeometry() Geometry {
	const (
		radius = 0.5
		height = 1.0
	)

	top := ring(radius, height/2)
	bottom := ring(radius, -height/2)

	triangles := make([][3]r3.Vec, 0, 4*RadialSegments)
	for i := range top {
		j := (i + 1) % len(top)
		triangles = append(triangles,
			[3]r3.Vec{top[i], bottom[i], bottom[j]},
			[3]r3.Vec{top[i], bottom[j], top[j]},
			[3]r3.Vec{r3.Vec{Y: height / 2}, top[i], top[j]},
			[3]r3.Vec{r3.Vec{Y: -height / 2}, bottom[i], bottom[j]},
		)
	}
	return convexGeometry(triangles)
}

func tetrahedronGeometry() Geometry {
	s := 1 / math.Sqrt(3)
	v := []r3.Vec{
		{X: s, Y: s, Z: s},
		{X: -s, Y: -s, Z: s},
		{X: -s, Y: s, Z: -s},
		{X: s, Y: -s, Z: -s},
	}

	return convexGeometry([][3]r3.Vec{
		{v[2], v[1], v[0]},
		{v[0], v[3], v[2]},
		{v[1], v[3], v[0]},
		{v[2], v[3], v[1]},
	})
}

func octahedronGeometry() Geometry {
	v := []r3.Vec{
		{X: 1}, {X: -1},
		{Y: 1}, {Y: -1},
		{Z: 1}, {Z: -1},
	}

	return convexGeometry([][3]r3.Vec{
		{v[0], v[2], v[4]}, {v[0], v[4], v[3]},
		{v[0], v[3], v[5]}, {v[0], v[5], v[2]},
		{v[1], v[2], v[5]}, {v[1], v[5], v[3]},
		{v[1], v[3], v[4]}, {v[1], v[4], v[2]},
	})
}

// ring returns the vertices of a horizontal circle approximated by
// RadialSegments sides.
func ring(radius, y float64) []r3.Vec {
	vertices := make([]r3.Vec, RadialSegments)
	for i := range vertices {
		theta := float64(i) / RadialSegments * 2 * math.Pi
		vertices[i] = r3.Vec{
			X: radius * math.Sin(theta),
			Y: y,
			Z: radius * math.Cos(theta),
		}
	}
	return vertices
}
