package encoding

import "fmt"

// Shape is the base geometry a point is drawn with.
type Shape int

const (
	Sphere Shape = iota
	Cube
	Cone
	Tetrahedron
	Octahedron
	Cylinder
)

var shapeNames = [...]string{
	Sphere:      "sphere",
	Cube:        "cube",
	Cone:        "cone",
	Tetrahedron: "tetrahedron",
	Octahedron:  "octahedron",
	Cylinder:    "cylinder",
}

// Shapes returns every known shape, in the order used by hash based
// assignment.
func Shapes() []Shape {
	return []Shape{Sphere, Cube, Cone, Tetrahedron, Octahedron, Cylinder}
}

// ParseShape returns the shape with the given name.
func ParseShape(name string) (Shape, bool) {
	for i, n := range shapeNames {
		if n == name {
			return Shape(i), true
		}
	}
	return Sphere, false
}

func (s Shape) String() string {
	if s < 0 || int(s) >= len(shapeNames) {
		return fmt.Sprintf("unknown(%d)", int(s))
	}
	return shapeNames[s]
}

// MarshalText encodes the shape as its name.
func (s Shape) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a shape name. Unknown names decode to a sphere.
func (s *Shape) UnmarshalText(b []byte) error {
	*s, _ = ParseShape(string(b))
	return nil
}
