package render

import (
	"github.com/aukilabs/vectorspace/scene"
	"gonum.org/v1/gonum/spatial/r3"
)

// Stream is the renderer of a remote host: it sends the scene description
// when the scene changed and the camera when it moved.
type Stream struct {
	Scene  func(scene.Description) error
	Camera func(position, target r3.Vec) error

	// Prevents scene descriptions from being sent.
	DisableScene bool

	sceneSent  bool
	version    uint64
	cameraSent bool
	position   r3.Vec
	target     r3.Vec
}

func (s *Stream) Render(f Frame) error {
	if !s.DisableScene && s.Scene != nil && (!s.sceneSent || f.Scene.Version != s.version) {
		if err := s.Scene(f.Scene.Describe()); err != nil {
			return err
		}
		s.sceneSent = true
		s.version = f.Scene.Version
	}

	if s.Camera == nil {
		return nil
	}
	if s.cameraSent && f.Camera.Position == s.position && f.Camera.Target == s.target {
		return nil
	}
	if err := s.Camera(f.Camera.Position, f.Camera.Target); err != nil {
		return err
	}
	s.cameraSent = true
	s.position = f.Camera.Position
	s.target = f.Camera.Target
	return nil
}

// Reset makes the next frame send everything again.
func (s *Stream) Reset() {
	s.sceneSent = false
	s.cameraSent = false
}
