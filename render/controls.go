package render

import (
	"math"

	"github.com/aukilabs/vectorspace/scene"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	// DampingFactor is the fraction of the remaining motion applied on each
	// update.
	DampingFactor = 0.05

	minPolarAngle = 1e-6
	moveEpsilon   = 1e-6
)

// Controls orbits a camera around its target. Rotation, zoom and pan
// requests are accumulated and applied with damping by Update.
type Controls struct {
	RotateSpeed float64
	ZoomSpeed   float64
	PanSpeed    float64
	MinDistance float64
	MaxDistance float64

	// Set to 0 to apply motions at once.
	DampingFactor float64

	position r3.Vec
	target   r3.Vec
	fov      float64
	height   float64

	deltaTheta float64
	deltaPhi   float64
	scale      float64
	panOffset  r3.Vec

	lastPosition r3.Vec
	lastTarget   r3.Vec
	listeners    []func()
}

// NewControls creates controls for the given camera.
func NewControls(camera scene.Camera) *Controls {
	return &Controls{
		RotateSpeed:   1,
		ZoomSpeed:     1,
		PanSpeed:      1,
		MaxDistance:   math.Inf(1),
		DampingFactor: DampingFactor,
		position:      camera.Position,
		target:        camera.Target,
		lastPosition:  camera.Position,
		lastTarget:    camera.Target,
		fov:           camera.Fov,
		height:        600,
		scale:         1,
	}
}

func (c *Controls) Position() r3.Vec {
	return c.position
}

func (c *Controls) Target() r3.Vec {
	return c.target
}

// SetPosition moves the camera without emitting a change.
func (c *Controls) SetPosition(v r3.Vec) {
	c.position = v
	c.lastPosition = v
}

// SetTarget moves the orbit center without emitting a change.
func (c *Controls) SetTarget(v r3.Vec) {
	c.target = v
	c.lastTarget = v
}

// SetViewport sets the height in pixels used to convert pointer motions.
func (c *Controls) SetViewport(width, height float64) {
	if height > 0 {
		c.height = height
	}
}

// Stop discards the motions that are not applied yet.
func (c *Controls) Stop() {
	c.deltaTheta = 0
	c.deltaPhi = 0
	c.scale = 1
	c.panOffset = r3.Vec{}
}

// Rotate orbits by a pointer motion in pixels.
func (c *Controls) Rotate(dx, dy float64) {
	c.deltaTheta -= 2 * math.Pi * dx / c.height * c.RotateSpeed
	c.deltaPhi -= 2 * math.Pi * dy / c.height * c.RotateSpeed
}

// Zoom dollies toward the target for negative deltas and away from it for
// positive ones.
func (c *Controls) Zoom(delta float64) {
	s := math.Pow(0.95, c.ZoomSpeed)
	switch {
	case delta < 0:
		c.scale *= s
	case delta > 0:
		c.scale /= s
	}
}

// Pan moves the target in the screen plane by a pointer motion in pixels.
func (c *Controls) Pan(dx, dy float64) {
	cam := c.camera()
	right, up, _ := cam.Basis()

	distance := r3.Norm(r3.Sub(c.position, c.target)) * math.Tan(c.fov*math.Pi/360)
	left := r3.Scale(-2*dx*distance/c.height*c.PanSpeed, right)
	above := r3.Scale(2*dy*distance/c.height*c.PanSpeed, up)

	c.panOffset = r3.Add(c.panOffset, r3.Add(left, above))
}

// Update applies the pending motions. It returns true and notifies the
// change listeners when the camera moved.
func (c *Controls) Update() bool {
	offset := r3.Sub(c.position, c.target)
	radius := r3.Norm(offset)
	theta := math.Atan2(offset.X, offset.Z)
	phi := 0.0
	if radius > 0 {
		phi = math.Acos(clamp(offset.Y/radius, -1, 1))
	}

	damping := c.DampingFactor
	if damping <= 0 || damping > 1 {
		damping = 1
	}

	theta += c.deltaTheta * damping
	phi += c.deltaPhi * damping
	phi = clamp(phi, minPolarAngle, math.Pi-minPolarAngle)

	radius = clamp(radius*c.scale, c.MinDistance, c.MaxDistance)
	c.target = r3.Add(c.target, r3.Scale(damping, c.panOffset))

	sinPhi := math.Sin(phi)
	c.position = r3.Add(c.target, r3.Vec{
		X: radius * sinPhi * math.Sin(theta),
		Y: radius * math.Cos(phi),
		Z: radius * sinPhi * math.Cos(theta),
	})

	c.deltaTheta *= 1 - damping
	c.deltaPhi *= 1 - damping
	c.panOffset = r3.Scale(1-damping, c.panOffset)
	c.scale = 1

	moved := r3.Norm2(r3.Sub(c.position, c.lastPosition)) > moveEpsilon ||
		r3.Norm2(r3.Sub(c.target, c.lastTarget)) > moveEpsilon
	if !moved {
		return false
	}

	c.lastPosition = c.position
	c.lastTarget = c.target
	for _, h := range append([]func(){}, c.listeners...) {
		h()
	}
	return true
}

// OnChange registers a function called when an update moved the camera.
func (c *Controls) OnChange(h func()) {
	c.listeners = append(c.listeners, h)
}

// Apply copies the controlled position and target to a camera.
func (c *Controls) Apply(cam *scene.Camera) {
	cam.Position = c.position
	cam.Target = c.target
}

// Close removes the change listeners.
func (c *Controls) Close() {
	c.listeners = nil
	c.Stop()
}

func (c *Controls) camera() scene.Camera {
	cam := scene.DefaultCamera()
	c.Apply(&cam)
	return cam
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
