package source

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/vectorspace/models"
	"github.com/stretchr/testify/require"
)

var _ Target = (*models.Session)(nil)

func ids(points []models.Point) []string {
	res := make([]string, len(points))
	for i, p := range points {
		res[i] = p.ID
	}
	return res
}

func TestDecode(t *testing.T) {
	t.Run("json array", func(t *testing.T) {
		points, err := Decode([]byte(`[{"id":"a","x":1},{"y":2}]`), ".json")
		require.NoError(t, err)
		require.Equal(t, []string{"a", "point_1"}, ids(points))
		require.Equal(t, 1.0, points[0].Position.X)
		require.Equal(t, 2.0, points[1].Position.Y)
	})

	t.Run("json object", func(t *testing.T) {
		points, err := Decode([]byte(`{"points":[{"id":"a"}]}`), ".JSON")
		require.NoError(t, err)
		require.Equal(t, []string{"a"}, ids(points))
	})

	t.Run("yaml", func(t *testing.T) {
		doc := "points:\n  - id: a\n    x: 1\n    z: 3\n    cluster: blue\n  - id: b\n"
		points, err := Decode([]byte(doc), ".yaml")
		require.NoError(t, err)
		require.Equal(t, []string{"a", "b"}, ids(points))
		require.Equal(t, 3.0, points[0].Position.Z)

		v, ok := points[0].Field("cluster")
		require.True(t, ok)
		require.Equal(t, "blue", v)
	})

	t.Run("yml array", func(t *testing.T) {
		points, err := Decode([]byte("- id: a\n- id: b\n"), ".yml")
		require.NoError(t, err)
		require.Len(t, points, 2)
	})

	t.Run("unknown format", func(t *testing.T) {
		_, err := Decode([]byte(`[]`), ".csv")
		require.True(t, errors.IsType(err, ErrTypeUnknownFormat))
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := Decode([]byte(`[{`), ".json")
		require.True(t, errors.IsType(err, ErrTypeDecode))
	})

	t.Run("not a list", func(t *testing.T) {
		_, err := Decode([]byte(`{"points":42}`), ".json")
		require.True(t, errors.IsType(err, ErrTypeDecode))
	})
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "points.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"id":"a"}]`), 0o644))

	points, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, []string{"a"}, ids(points))

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}

type testTarget struct {
	mutex  sync.Mutex
	points [][]models.Point
}

func (t *testTarget) SetPoints(points []models.Point) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	t.points = append(t.points, points)
}

func (t *testTarget) last() []models.Point {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if len(t.points) == 0 {
		return nil
	}
	return t.points[len(t.points)-1]
}

func TestWatcher(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "points.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"id":"a"}]`), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	target := &testTarget{}
	reloads := make(chan error, 16)
	w := &Watcher{
		Path:     path,
		Target:   target,
		Debounce: time.Millisecond * 20,
		OnReload: func(err error) {
			reloads <- err
		},
	}

	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx)
	}()

	// The watcher may not be registered yet, rewrite until a reload happens.
	require.Eventually(t, func() bool {
		os.WriteFile(path, []byte(`[{"id":"a"},{"id":"b"}]`), 0o644)
		select {
		case err := <-reloads:
			return err == nil
		case <-time.After(time.Millisecond * 100):
			return false
		}
	}, time.Second*5, time.Millisecond*10)
	require.Equal(t, []string{"a", "b"}, ids(target.last()))

	cancel()
	require.NoError(t, <-done)
}

func TestWatcherMissingDirectory(t *testing.T) {
	w := &Watcher{
		Path:   filepath.Join(t.TempDir(), "missing", "points.json"),
		Target: &testTarget{},
	}
	require.Error(t, w.Run(context.Background()))
}
