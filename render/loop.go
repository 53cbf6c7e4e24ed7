// Package render draws the scene of a view: on every frame tick for the
// connected host, or once as a PNG or SVG snapshot.
package render

import (
	"io"

	"github.com/aukilabs/vectorspace/scene"
)

// Frame is the state drawn by a renderer.
type Frame struct {
	Number uint64
	Scene  *scene.Scene
	Camera scene.Camera
	Width  float64
	Height float64
}

// Renderer draws frames.
type Renderer interface {
	Render(Frame) error
}

// Snapshotter encodes a frame as an image.
type Snapshotter interface {
	// The image format, png or svg.
	Format() string

	Snapshot(w io.Writer, f Frame) error
}

// Loop advances the view controls and renders a frame on every tick. It
// must not be used concurrently.
type Loop struct {
	Scene    *scene.Scene
	Camera   *scene.Camera
	Controls *Controls
	Renderer Renderer

	// Stops the frame ticks, called on close.
	Unsubscribe func()

	width  float64
	height float64
	frames uint64
	closed bool
}

// SetViewport resizes the drawing surface.
func (l *Loop) SetViewport(width, height float64) {
	if width <= 0 || height <= 0 {
		return
	}

	l.width = width
	l.height = height
	l.Camera.SetViewport(width, height)
	if l.Controls != nil {
		l.Controls.SetViewport(width, height)
	}
}

// Tick renders the next frame.
func (l *Loop) Tick() error {
	if l.closed {
		return nil
	}

	if l.Controls != nil {
		l.Controls.Update()
		l.Controls.Apply(l.Camera)
	}

	l.frames++
	if l.Renderer == nil {
		return nil
	}
	return l.Renderer.Render(l.Frame())
}

// Frame returns the current state of the view.
func (l *Loop) Frame() Frame {
	width, height := l.width, l.height
	if width <= 0 || height <= 0 {
		width, height = 800, 600
	}

	return Frame{
		Number: l.frames,
		Scene:  l.Scene,
		Camera: *l.Camera,
		Width:  width,
		Height: height,
	}
}

// Snapshot encodes the current frame.
func (l *Loop) Snapshot(w io.Writer, s Snapshotter) error {
	return s.Snapshot(w, l.Frame())
}

// Frames returns the number of rendered frames.
func (l *Loop) Frames() uint64 {
	return l.frames
}

// Close stops the loop. It does not dispose the scene.
func (l *Loop) Close() {
	if l.closed {
		return
	}
	l.closed = true

	if l.Unsubscribe != nil {
		l.Unsubscribe()
	}
	if l.Controls != nil {
		l.Controls.Close()
	}
}
