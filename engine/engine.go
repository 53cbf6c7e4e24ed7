// Package engine runs the view of a widget: it keeps the scene in sync with
// the view store and routes pointer events to the picker, the interaction
// machine and the camera controls.
package engine

import (
	"io"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/vectorspace/connection"
	"github.com/aukilabs/vectorspace/encoding"
	"github.com/aukilabs/vectorspace/interaction"
	"github.com/aukilabs/vectorspace/models"
	"github.com/aukilabs/vectorspace/picking"
	"github.com/aukilabs/vectorspace/render"
	"github.com/aukilabs/vectorspace/scene"
	"github.com/aukilabs/vectorspace/store"
)

const (
	ErrTypeClosed        = "engine_closed"
	ErrTypeUnknownFormat = "engine_unknown_format"
)

var (
	// Keys whose change rebuilds the connection lines.
	connectionKeys = []string{
		store.KeyShowConnections,
		store.KeyKNeighbors,
		store.KeyDistanceThreshold,
		store.KeyReferencePoint,
		store.KeyDistanceMetric,
		store.KeyConnectionColor,
		store.KeyConnectionOpacity,
	}

	// Keys whose change rebuilds the point objects.
	encodingKeys = []string{
		store.KeyColorField,
		store.KeyColorScale,
		store.KeyColorDomain,
		store.KeySizeField,
		store.KeySizeRange,
		store.KeyShapeField,
		store.KeyShapeMap,
		store.KeyUseInstancing,
	}

	helperKeys = []string{
		store.KeyShowAxes,
		store.KeyShowGrid,
		store.KeyAxisLabels,
		store.KeyGridDivisions,
	}
)

// Config is the configuration of an engine.
type Config struct {
	// The view store. Its origin tags the changes made by the engine.
	Store *store.Memory

	// The renderer called on every frame. Frames are not rendered when nil.
	Renderer render.Renderer

	// Called when the tooltip changes.
	Tooltip func(interaction.Tooltip)

	DisableTooltip bool
}

// Engine is the state of a view. It must be used from a single goroutine.
type Engine struct {
	Store    *store.Memory
	Builder  *scene.Builder
	Camera   *scene.Camera
	Controls *render.Controls
	Picker   *picking.Picker
	Machine  *interaction.Machine
	Loop     *render.Loop

	points  []models.Point
	cancels []func()
	err     error
	closed  bool
}

// New creates an engine and builds the scene from the current store values.
func New(c Config) (*Engine, error) {
	if c.Store == nil {
		c.Store = &store.Memory{}
	}

	camera := scene.DefaultCamera()
	e := &Engine{
		Store:   c.Store,
		Builder: scene.NewBuilder(),
		Camera:  &camera,
	}

	e.Controls = render.NewControls(camera)
	e.Picker = &picking.Picker{
		Objects: &e.Builder.Scene.Points,
		Camera:  e.Camera,
	}
	e.Machine = &interaction.Machine{
		Store:          e.Store,
		Origin:         e.Store.Origin,
		Picker:         e.Picker,
		Points:         e.Points,
		View:           e.Controls,
		Tooltip:        c.Tooltip,
		DisableTooltip: c.DisableTooltip,
	}
	e.Loop = &render.Loop{
		Scene:    e.Builder.Scene,
		Camera:   e.Camera,
		Controls: e.Controls,
		Renderer: c.Renderer,
	}

	e.Controls.OnChange(func() {
		e.fail(e.Machine.CameraChanged())
	})
	e.Machine.Bind()
	e.observe()

	if err := e.Refresh(); err != nil {
		e.Close()
		return nil, err
	}
	return e, nil
}

// Points returns the points shown by the view.
func (e *Engine) Points() []models.Point {
	return e.points
}

// Scene returns the drawable state of the view.
func (e *Engine) Scene() *scene.Scene {
	return e.Builder.Scene
}

// Err returns the first error that happened while reacting to a store
// change.
func (e *Engine) Err() error {
	return e.err
}

// Refresh rebuilds the whole view from the store values.
func (e *Engine) Refresh() error {
	e.points = models.ParsePoints(e.Store.Get(store.KeyPoints))

	e.applyViewport(store.Change{})
	e.applyBackground(store.Change{})
	e.Controls.SetPosition(store.Vec3(e.Store, store.KeyCameraPosition))
	e.Controls.SetTarget(store.Vec3(e.Store, store.KeyCameraTarget))
	e.Controls.Apply(e.Camera)

	if err := e.Builder.RebuildHelpers(scene.HelperConfigFromStore(e.Store)); err != nil {
		return err
	}
	if err := e.rebuildPoints(); err != nil {
		return err
	}
	return e.rebuildConnections()
}

// Frame advances the camera controls and renders a frame.
func (e *Engine) Frame() error {
	if e.closed {
		return nil
	}
	if err := e.Loop.Tick(); err != nil {
		return err
	}
	return e.err
}

func (e *Engine) PointerMove(x, y float64) error {
	return e.Machine.PointerMove(x, y)
}

func (e *Engine) PointerLeave() error {
	return e.Machine.PointerLeave()
}

func (e *Engine) Click(x, y float64) error {
	return e.Machine.Click(x, y)
}

// Rotate orbits the camera by a pointer motion in pixels.
func (e *Engine) Rotate(dx, dy float64) {
	e.Controls.Rotate(dx, dy)
}

// Pan moves the camera in the screen plane by a pointer motion in pixels.
func (e *Engine) Pan(dx, dy float64) {
	e.Controls.Pan(dx, dy)
}

// Zoom dollies the camera, toward the target for negative deltas.
func (e *Engine) Zoom(delta float64) {
	e.Controls.Zoom(delta)
}

// Snapshot encodes the current view in the given format: png or svg.
func (e *Engine) Snapshot(w io.Writer, format string) error {
	s, err := Snapshotter(format)
	if err != nil {
		return err
	}
	return e.Loop.Snapshot(w, s)
}

// Snapshotter returns the snapshot renderer of a format.
func Snapshotter(format string) (render.Snapshotter, error) {
	switch format {
	case "", "png":
		return render.Raster{}, nil
	case "svg":
		return render.SVG{}, nil
	default:
		return nil, errors.New("unknown snapshot format").
			WithType(ErrTypeUnknownFormat).
			WithTag("format", format)
	}
}

// Close stops observing the store and releases the scene resources.
func (e *Engine) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true

	for _, cancel := range e.cancels {
		cancel()
	}
	e.cancels = nil

	e.Machine.Close()
	e.Loop.Close()

	if err := e.Builder.Dispose(); err != nil {
		return errors.New("disposing scene failed").Wrap(err)
	}
	return nil
}

func (e *Engine) observe() {
	on := func(keys []string, h store.Handler) {
		for _, k := range keys {
			e.cancels = append(e.cancels, e.Store.Observe(k, h))
		}
	}

	on([]string{store.KeyPoints}, e.handlePoints)
	on(connectionKeys, func(store.Change) { e.fail(e.rebuildConnections()) })
	on(encodingKeys, func(store.Change) { e.fail(e.rebuildPoints()) })
	on(helperKeys, func(store.Change) {
		e.fail(e.Builder.RebuildHelpers(scene.HelperConfigFromStore(e.Store)))
	})
	on([]string{store.KeyBackground}, e.applyBackground)
	on([]string{store.KeyWidth, store.KeyHeight}, e.applyViewport)

	// Registered after the machine so the controls already hold the value.
	on([]string{store.KeyCameraPosition, store.KeyCameraTarget}, func(store.Change) {
		e.Controls.Apply(e.Camera)
	})
}

func (e *Engine) handlePoints(c store.Change) {
	e.points = models.ParsePoints(c.Value)
	if err := e.rebuildPoints(); err != nil {
		e.fail(err)
		return
	}
	e.fail(e.rebuildConnections())
}

func (e *Engine) rebuildPoints() error {
	return e.Builder.RebuildPoints(
		e.points,
		encoding.ConfigFromStore(e.Store),
		store.Bool(e.Store, store.KeyUseInstancing),
	)
}

func (e *Engine) rebuildConnections() error {
	return e.Builder.RebuildConnections(e.points, connection.ConfigFromStore(e.Store))
}

func (e *Engine) applyBackground(store.Change) {
	c, ok := encoding.ParseColor(e.Store.Get(store.KeyBackground))
	if !ok {
		c = scene.DefaultBackground
	}
	e.Builder.SetBackground(c)
}

func (e *Engine) applyViewport(store.Change) {
	width := store.Float(e.Store, store.KeyWidth)
	height := store.Float(e.Store, store.KeyHeight)
	if width <= 0 || height <= 0 {
		return
	}

	e.Loop.SetViewport(width, height)
	e.Picker.SetViewport(width, height)
}

func (e *Engine) fail(err error) {
	if err != nil && e.err == nil {
		e.err = err
	}
}
