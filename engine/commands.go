package engine

import (
	"fmt"
	"slices"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/vectorspace/models"
	"github.com/aukilabs/vectorspace/store"
	"github.com/segmentio/encoding/json"
	"gonum.org/v1/gonum/spatial/r3"
)

const ErrTypeUnknownCommand = "engine_unknown_command"

// The offset between the camera and the points it focuses on.
const focusDistance = 1.5

var (
	defaultCameraPosition = r3.Vec{X: 2, Y: 2, Z: 2}
	defaultCameraTarget   = r3.Vec{}
)

// ResetCamera moves the camera back to its initial position.
func (e *Engine) ResetCamera() error {
	return e.moveCamera(defaultCameraPosition, defaultCameraTarget)
}

// FocusOn points the camera at the centroid of the points with the given
// ids. It does nothing when no point matches.
func (e *Engine) FocusOn(ids []string) error {
	var centroid r3.Vec
	var n float64

	for _, p := range e.points {
		if slices.Contains(ids, p.ID) {
			centroid = r3.Add(centroid, p.Position)
			n++
		}
	}
	if n == 0 {
		return nil
	}

	centroid = r3.Scale(1/n, centroid)
	position := r3.Add(centroid, r3.Vec{X: focusDistance, Y: focusDistance, Z: focusDistance})
	return e.moveCamera(position, centroid)
}

// Select replaces the selected points.
func (e *Engine) Select(ids []string) error {
	return e.Machine.Select(ids)
}

func (e *Engine) ClearSelection() error {
	return e.Machine.Select(nil)
}

// ToJSON returns the JSON encoded records of the points.
func (e *Engine) ToJSON() ([]byte, error) {
	b, err := json.Marshal(models.Records(e.points))
	if err != nil {
		return nil, errors.New("encoding points failed").Wrap(err)
	}
	return b, nil
}

// SetPCAAxisLabels names the axes after principal components and their
// explained variance ratio. It does nothing with less than 3 variances.
func (e *Engine) SetPCAAxisLabels(variances []float64) error {
	labels, ok := PCAAxisLabels(variances)
	if !ok {
		return nil
	}

	e.Store.Set(store.KeyAxisLabels, labels)
	return e.Store.Commit()
}

// PCAAxisLabels returns the axis labels of a PCA projection, like
// "PC1 (42.0%)".
func PCAAxisLabels(variances []float64) (map[string]any, bool) {
	if len(variances) < 3 {
		return nil, false
	}

	labels := make(map[string]any, 3)
	for i, axis := range []string{"x", "y", "z"} {
		labels[axis] = fmt.Sprintf("PC%d (%.1f%%)", i+1, variances[i]*100)
	}
	return labels, true
}

// Command runs a widget command by name and returns its result.
func (e *Engine) Command(name string, ids []string, variances []float64) (any, error) {
	switch name {
	case "reset_camera":
		return nil, e.ResetCamera()

	case "focus_on":
		return nil, e.FocusOn(ids)

	case "select":
		return nil, e.Select(ids)

	case "clear_selection":
		return nil, e.ClearSelection()

	case "to_json":
		b, err := e.ToJSON()
		if err != nil {
			return nil, err
		}
		return json.RawMessage(b), nil

	case "pca_axis_labels":
		return nil, e.SetPCAAxisLabels(variances)

	default:
		return nil, errors.New("unknown command").
			WithType(ErrTypeUnknownCommand).
			WithTag("command", name)
	}
}

// Camera moves are written to the store like user camera changes.
func (e *Engine) moveCamera(position, target r3.Vec) error {
	e.Controls.Stop()
	e.Controls.SetPosition(position)
	e.Controls.SetTarget(target)
	e.Controls.Apply(e.Camera)
	return e.Machine.CameraChanged()
}
