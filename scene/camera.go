package scene

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Ray is a half line starting at Origin.
type Ray struct {
	Origin    r3.Vec
	Direction r3.Vec
}

// At returns the point of the ray at the parameter t.
func (r Ray) At(t float64) r3.Vec {
	return r3.Add(r.Origin, r3.Scale(t, r.Direction))
}

// Camera is a perspective camera looking at a target.
type Camera struct {
	Position r3.Vec
	Target   r3.Vec
	Up       r3.Vec

	// Vertical field of view, in degrees.
	Fov    float64
	Near   float64
	Far    float64
	Aspect float64
}

// DefaultCamera returns the camera of a new view.
func DefaultCamera() Camera {
	return Camera{
		Position: r3.Vec{X: 2, Y: 2, Z: 2},
		Up:       r3.Vec{Y: 1},
		Fov:      60,
		Near:     0.01,
		Far:      1000,
		Aspect:   800.0 / 600.0,
	}
}

// SetViewport updates the aspect ratio from the size of the drawing
// surface.
func (c *Camera) SetViewport(width, height float64) {
	if width > 0 && height > 0 {
		c.Aspect = width / height
	}
}

// Basis returns the camera right, up and forward unit vectors.
func (c Camera) Basis() (right, up, forward r3.Vec) {
	forward = r3.Sub(c.Target, c.Position)
	if r3.Norm(forward) == 0 {
		forward = r3.Vec{Z: -1}
	}
	forward = r3.Unit(forward)

	worldUp := c.Up
	if r3.Norm(worldUp) == 0 {
		worldUp = r3.Vec{Y: 1}
	}

	right = r3.Cross(forward, worldUp)
	if r3.Norm(right) < 1e-12 {
		right = r3.Cross(forward, r3.Vec{Z: 1})
		if r3.Norm(right) < 1e-12 {
			right = r3.Vec{X: 1}
		}
	}
	right = r3.Unit(right)
	up = r3.Cross(right, forward)
	return right, up, forward
}

// Ray returns the ray starting at the camera position and going through the
// given normalized device coordinates.
func (c Camera) Ray(ndcX, ndcY float64) Ray {
	right, up, forward := c.Basis()
	tan := math.Tan(c.Fov * math.Pi / 360)

	dir := forward
	dir = r3.Add(dir, r3.Scale(ndcX*tan*c.Aspect, right))
	dir = r3.Add(dir, r3.Scale(ndcY*tan, up))

	return Ray{
		Origin:    c.Position,
		Direction: r3.Unit(dir),
	}
}

// Project returns the screen coordinates of a point on a width x height
// surface and its depth along the view direction. The last value is false
// when the point is outside of the near and far planes.
func (c Camera) Project(p r3.Vec, width, height float64) (x, y, depth float64, ok bool) {
	right, up, forward := c.Basis()
	d := r3.Sub(p, c.Position)

	depth = r3.Dot(d, forward)
	if depth < c.Near || depth > c.Far {
		return 0, 0, depth, false
	}

	tan := math.Tan(c.Fov * math.Pi / 360)
	ndcX := r3.Dot(d, right) / (depth * tan * c.Aspect)
	ndcY := r3.Dot(d, up) / (depth * tan)

	x = (ndcX + 1) / 2 * width
	y = (1 - ndcY) / 2 * height
	return x, y, depth, true
}

// ProjectedScale returns the number of pixels covered by a length of 1 at
// the given depth on a surface of the given height.
func (c Camera) ProjectedScale(depth, height float64) float64 {
	tan := math.Tan(c.Fov * math.Pi / 360)
	if depth <= 0 {
		return 0
	}
	return height / (2 * depth * tan)
}
