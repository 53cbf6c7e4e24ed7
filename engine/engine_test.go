package engine

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/vectorspace/interaction"
	"github.com/aukilabs/vectorspace/render"
	"github.com/aukilabs/vectorspace/scene"
	"github.com/aukilabs/vectorspace/store"
	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

type env struct {
	engine   *Engine
	store    *store.Memory
	commits  [][]store.Change
	frames   []render.Frame
	tooltips []interaction.Tooltip
}

func (e *env) Render(f render.Frame) error {
	e.frames = append(e.frames, f)
	return nil
}

func (e *env) committed(key string) []any {
	var values []any
	for _, changes := range e.commits {
		for _, c := range changes {
			if c.Key == key {
				values = append(values, c.Value)
			}
		}
	}
	return values
}

func newEnv(t *testing.T, values map[string]any) *env {
	e := &env{}
	e.store = &store.Memory{
		Origin: "participant-1",
		Flusher: func(changes []store.Change) error {
			e.commits = append(e.commits, changes)
			return nil
		},
	}
	for k, v := range values {
		e.store.Apply(store.Change{Key: k, Value: v})
	}

	engine, err := New(Config{
		Store:    e.store,
		Renderer: e,
		Tooltip: func(t interaction.Tooltip) {
			e.tooltips = append(e.tooltips, t)
		},
	})
	require.NoError(t, err)
	t.Cleanup(func() { engine.Close() })

	e.engine = engine
	return e
}

func records(n int) []any {
	points := make([]any, n)
	for i := range points {
		points[i] = map[string]any{
			"id": fmt.Sprintf("p%d", i),
			"x":  float64(i%10) * 0.1,
			"y":  float64(i/10) * 0.1,
			"z":  0.0,
		}
	}
	return points
}

func origin() []any {
	return []any{map[string]any{"id": "a", "label": "Alpha", "size": 0.2}}
}

func TestNew(t *testing.T) {
	t.Run("empty store", func(t *testing.T) {
		e := newEnv(t, nil)
		s := e.engine.Scene()

		require.Empty(t, e.engine.Points())
		require.Zero(t, s.Points.Len())
		require.Zero(t, s.Connections.Len())
		require.NotNil(t, s.Axes)
		require.NotNil(t, s.Grid)
		require.Equal(t, scene.DefaultBackground, s.Background)
		require.Equal(t, 7, e.engine.Builder.Resources.Live())
		require.Empty(t, e.commits)
	})

	t.Run("initial values", func(t *testing.T) {
		e := newEnv(t, map[string]any{
			store.KeyPoints:          records(5),
			store.KeyShowAxes:        false,
			store.KeyBackground:      "#ffffff",
			store.KeyCameraPosition:  []any{0.0, 0.0, 5.0},
			store.KeyShowConnections: true,
			store.KeyKNeighbors:      1.0,
			store.KeyWidth:           400.0,
			store.KeyHeight:          400.0,
		})
		s := e.engine.Scene()

		require.Len(t, e.engine.Points(), 5)
		require.Equal(t, 5, s.Points.Len())
		require.Equal(t, 1, s.Connections.Len())
		require.Nil(t, s.Axes)
		require.Equal(t, "#ffffff", s.Background.Hex())
		require.Equal(t, r3.Vec{Z: 5}, e.engine.Camera.Position)
		require.Equal(t, 1.0, e.engine.Camera.Aspect)
		require.Equal(t, 400.0, e.engine.Picker.Width)
	})
}

func TestEngineObservers(t *testing.T) {
	t.Run("points", func(t *testing.T) {
		e := newEnv(t, nil)

		e.store.Apply(store.Change{Key: store.KeyPoints, Value: records(20)})
		require.Equal(t, 20, e.engine.Scene().Points.Len())
		require.IsType(t, scene.Individual{}, e.engine.Builder.Strategy)

		e.store.Apply(store.Change{Key: store.KeyPoints, Value: records(150)})
		require.Equal(t, 1, e.engine.Scene().Points.Len())
		require.IsType(t, scene.Instanced{}, e.engine.Builder.Strategy)

		e.store.Apply(store.Change{Key: store.KeyPoints, Value: []any{}})
		require.Zero(t, e.engine.Scene().Points.Len())
		require.Equal(t, 7, e.engine.Builder.Resources.Live())
		require.NoError(t, e.engine.Err())
	})

	t.Run("encoding", func(t *testing.T) {
		e := newEnv(t, map[string]any{store.KeyPoints: records(3)})

		e.store.Apply(store.Change{Key: store.KeyShapeField, Value: "id"})
		live := e.engine.Builder.Resources.Live()
		for i := 0; i < 5; i++ {
			e.store.Apply(store.Change{Key: store.KeyColorField, Value: "x"})
		}
		require.Equal(t, live, e.engine.Builder.Resources.Live())

		mesh := e.engine.Scene().Points.Children[2].(*scene.Mesh)
		require.Equal(t, scene.Individual{}.Name(), e.engine.Builder.Strategy.Name())
		require.NotEqual(t, "#6366f1", mesh.Material.Color.Hex())
	})

	t.Run("instancing disabled", func(t *testing.T) {
		e := newEnv(t, map[string]any{store.KeyPoints: records(150)})

		e.store.Apply(store.Change{Key: store.KeyUseInstancing, Value: false})
		require.Equal(t, 150, e.engine.Scene().Points.Len())
	})

	t.Run("connections", func(t *testing.T) {
		e := newEnv(t, map[string]any{store.KeyPoints: records(10)})
		require.Zero(t, e.engine.Scene().Connections.Len())

		e.store.Apply(
			store.Change{Key: store.KeyShowConnections, Value: true},
			store.Change{Key: store.KeyKNeighbors, Value: 2.0},
		)
		require.Equal(t, 1, e.engine.Scene().Connections.Len())

		e.store.Apply(store.Change{Key: store.KeyConnectionOpacity, Value: 0.9})
		lines := e.engine.Scene().Connections.Children[0].(*scene.LineSegments)
		require.Equal(t, 0.9, lines.Material.Opacity)
	})

	t.Run("helpers", func(t *testing.T) {
		e := newEnv(t, nil)

		e.store.Apply(store.Change{Key: store.KeyAxisLabels, Value: map[string]any{"x": "Age"}})
		require.Equal(t, "Age", e.engine.Scene().Axes.Labels[0].Text)
		require.Equal(t, "Y", e.engine.Scene().Axes.Labels[1].Text)

		e.store.Apply(store.Change{Key: store.KeyShowGrid, Value: false})
		require.Nil(t, e.engine.Scene().Grid)
		require.Equal(t, 5, e.engine.Builder.Resources.Live())
	})

	t.Run("background", func(t *testing.T) {
		e := newEnv(t, nil)
		version := e.engine.Scene().Version

		e.store.Apply(store.Change{Key: store.KeyBackground, Value: "#000000"})
		require.Equal(t, "#000000", e.engine.Scene().Background.Hex())
		require.Greater(t, e.engine.Scene().Version, version)

		e.store.Apply(store.Change{Key: store.KeyBackground, Value: "nope"})
		require.Equal(t, scene.DefaultBackground, e.engine.Scene().Background)
	})

	t.Run("viewport", func(t *testing.T) {
		e := newEnv(t, nil)

		e.store.Apply(store.Change{Key: store.KeyWidth, Value: 1200.0})
		require.Equal(t, 2.0, e.engine.Camera.Aspect)
		require.Equal(t, 1200.0, e.engine.Picker.Width)

		e.store.Apply(store.Change{Key: store.KeyHeight, Value: 0.0})
		require.Equal(t, 2.0, e.engine.Camera.Aspect)
	})

	t.Run("disposal error", func(t *testing.T) {
		e := newEnv(t, map[string]any{store.KeyPoints: origin()})

		mesh := e.engine.Scene().Points.Children[0].(*scene.Mesh)
		require.NoError(t, e.engine.Builder.Resources.Dispose(mesh.Material.Handle))

		e.store.Apply(store.Change{Key: store.KeyPoints, Value: records(2)})
		require.True(t, errors.IsType(e.engine.Err(), scene.ErrTypeDoubleDispose))
		require.Error(t, e.engine.Frame())
	})
}

func TestEngineInteraction(t *testing.T) {
	t.Run("hover", func(t *testing.T) {
		e := newEnv(t, map[string]any{store.KeyPoints: origin()})

		require.NoError(t, e.engine.PointerMove(400, 300))
		hovered := e.committed(store.KeyHoveredPoint)
		require.Len(t, hovered, 1)
		require.Equal(t, "a", hovered[0].(map[string]any)["id"])
		require.Len(t, e.tooltips, 1)
		require.Equal(t, "Alpha", e.tooltips[0].Label)

		require.NoError(t, e.engine.PointerLeave())
		require.Equal(t, []any{hovered[0], nil}, e.committed(store.KeyHoveredPoint))
	})

	t.Run("tooltip disabled", func(t *testing.T) {
		e := &env{}
		s := &store.Memory{}
		s.Apply(store.Change{Key: store.KeyPoints, Value: origin()})

		engine, err := New(Config{
			Store:          s,
			DisableTooltip: true,
			Tooltip: func(t interaction.Tooltip) {
				e.tooltips = append(e.tooltips, t)
			},
		})
		require.NoError(t, err)
		defer engine.Close()

		require.NoError(t, engine.PointerMove(400, 300))
		require.Empty(t, e.tooltips)
	})

	t.Run("click", func(t *testing.T) {
		e := newEnv(t, map[string]any{store.KeyPoints: origin()})

		require.NoError(t, e.engine.Click(400, 300))
		require.NoError(t, e.engine.Click(10, 10))
		require.Equal(t, []any{[]string{"a"}, []string{}}, e.committed(store.KeySelectedPoints))
	})

	t.Run("camera controls", func(t *testing.T) {
		e := newEnv(t, nil)

		e.engine.Rotate(100, 0)
		for i := 0; i < 10; i++ {
			require.NoError(t, e.engine.Frame())
		}
		require.Len(t, e.frames, 10)

		positions := e.committed(store.KeyCameraPosition)
		require.NotEmpty(t, positions)
		require.Equal(t, store.VecValue(e.engine.Camera.Position), positions[len(positions)-1])
		require.Len(t, e.committed(store.KeyCameraTarget), len(positions))
	})

	t.Run("zoom and pan", func(t *testing.T) {
		e := newEnv(t, nil)
		distance := r3.Norm(e.engine.Camera.Position)

		e.engine.Zoom(-1)
		require.NoError(t, e.engine.Frame())
		require.Less(t, r3.Norm(e.engine.Camera.Position), distance)

		e.engine.Pan(50, 0)
		require.NoError(t, e.engine.Frame())
		require.NotEqual(t, r3.Vec{}, e.engine.Camera.Target)
	})

	t.Run("external camera", func(t *testing.T) {
		e := newEnv(t, nil)

		e.store.Apply(
			store.Change{Key: store.KeyCameraPosition, Value: []any{0.0, 0.0, 3.0}, Origin: "participant-2"},
			store.Change{Key: store.KeyCameraTarget, Value: []any{0.0, 0.0, 1.0}},
		)
		require.NoError(t, e.engine.Frame())
		require.InDelta(t, 3, e.engine.Camera.Position.Z, 1e-9)
		require.Equal(t, r3.Vec{Z: 1}, e.engine.Camera.Target)
		require.Empty(t, e.commits)
	})

	t.Run("external camera moves picking before the next frame", func(t *testing.T) {
		e := newEnv(t, map[string]any{store.KeyPoints: origin()})

		e.store.Apply(store.Change{Key: store.KeyCameraTarget, Value: []any{10.0, 0.0, 0.0}})
		require.Equal(t, r3.Vec{X: 10}, e.engine.Camera.Target)

		_, ok := e.engine.Picker.Pick(400, 300)
		require.False(t, ok)
		require.Empty(t, e.frames)
		require.Empty(t, e.commits)
	})
}

func TestEngineCommands(t *testing.T) {
	t.Run("reset camera", func(t *testing.T) {
		e := newEnv(t, map[string]any{store.KeyCameraPosition: []any{9.0, 9.0, 9.0}})

		_, err := e.engine.Command("reset_camera", nil, nil)
		require.NoError(t, err)
		require.Equal(t, r3.Vec{X: 2, Y: 2, Z: 2}, e.engine.Camera.Position)
		require.Equal(t, []any{[]float64{2, 2, 2}}, e.committed(store.KeyCameraPosition))
		require.Equal(t, []any{[]float64{0, 0, 0}}, e.committed(store.KeyCameraTarget))
	})

	t.Run("focus on", func(t *testing.T) {
		e := newEnv(t, map[string]any{store.KeyPoints: records(3)})

		_, err := e.engine.Command("focus_on", []string{"p0", "p2", "ted"}, nil)
		require.NoError(t, err)
		require.InDelta(t, 0.1, e.engine.Camera.Target.X, 1e-9)
		require.InDelta(t, 1.6, e.engine.Camera.Position.X, 1e-9)
		require.InDelta(t, 1.5, e.engine.Camera.Position.Y, 1e-9)

		require.NoError(t, e.engine.FocusOn([]string{"ted"}))
		require.Len(t, e.commits, 1)
	})

	t.Run("selection", func(t *testing.T) {
		e := newEnv(t, nil)

		_, err := e.engine.Command("select", []string{"a", "b"}, nil)
		require.NoError(t, err)
		require.Equal(t, []string{"a", "b"}, e.engine.Machine.Selection())

		_, err = e.engine.Command("clear_selection", nil, nil)
		require.NoError(t, err)
		require.Empty(t, e.engine.Machine.Selection())
	})

	t.Run("to json", func(t *testing.T) {
		e := newEnv(t, map[string]any{store.KeyPoints: origin()})

		res, err := e.engine.Command("to_json", nil, nil)
		require.NoError(t, err)

		var points []map[string]any
		require.NoError(t, json.Unmarshal(res.(json.RawMessage), &points))
		require.Equal(t, []map[string]any{{"id": "a", "label": "Alpha", "size": 0.2}}, points)
	})

	t.Run("pca axis labels", func(t *testing.T) {
		e := newEnv(t, nil)

		_, err := e.engine.Command("pca_axis_labels", nil, []float64{0.42, 0.3051, 0.1})
		require.NoError(t, err)

		labels := e.engine.Scene().Axes.Labels
		require.Equal(t, "PC1 (42.0%)", labels[0].Text)
		require.Equal(t, "PC2 (30.5%)", labels[1].Text)
		require.Equal(t, "PC3 (10.0%)", labels[2].Text)
		require.Len(t, e.committed(store.KeyAxisLabels), 1)

		require.NoError(t, e.engine.SetPCAAxisLabels([]float64{0.5}))
		require.Len(t, e.committed(store.KeyAxisLabels), 1)
	})

	t.Run("unknown", func(t *testing.T) {
		e := newEnv(t, nil)

		_, err := e.engine.Command("self_destruct", nil, nil)
		require.True(t, errors.IsType(err, ErrTypeUnknownCommand))
	})
}

func TestEngineSnapshot(t *testing.T) {
	e := newEnv(t, map[string]any{store.KeyPoints: origin()})

	var buf bytes.Buffer
	require.NoError(t, e.engine.Snapshot(&buf, "png"))
	require.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")))

	buf.Reset()
	require.NoError(t, e.engine.Snapshot(&buf, "svg"))
	require.True(t, strings.Contains(buf.String(), "<svg"))

	err := e.engine.Snapshot(&buf, "bmp")
	require.True(t, errors.IsType(err, ErrTypeUnknownFormat))
}

func TestEngineClose(t *testing.T) {
	e := newEnv(t, map[string]any{store.KeyPoints: records(5)})
	version := e.engine.Scene().Version

	require.NoError(t, e.engine.Close())
	require.Zero(t, e.engine.Builder.Resources.Live())
	require.NoError(t, e.engine.Close())

	after := e.engine.Scene().Version
	require.Greater(t, after, version)

	e.store.Apply(store.Change{Key: store.KeyPoints, Value: records(2)})
	require.Equal(t, after, e.engine.Scene().Version)
	require.NoError(t, e.engine.Frame())
	require.Empty(t, e.frames)
}
