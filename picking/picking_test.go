package picking

import (
	"fmt"
	"testing"

	"github.com/aukilabs/vectorspace/encoding"
	"github.com/aukilabs/vectorspace/models"
	"github.com/aukilabs/vectorspace/scene"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func gridPoints(cols, rows int) []models.Point {
	var points []models.Point
	for i := 0; i < cols*rows; i++ {
		points = append(points, models.ParsePoint(map[string]any{
			"id":   fmt.Sprintf("p%d", i),
			"x":    (float64(i%cols) - float64(cols-1)/2) * 0.25,
			"y":    (float64(i/cols) - float64(rows-1)/2) * 0.25,
			"z":    0.0,
			"size": 0.05,
		}, i))
	}
	return points
}

func newPicker(t *testing.T, points []models.Point, instancing bool) *Picker {
	b := scene.NewBuilder()
	require.NoError(t, b.RebuildPoints(points, encoding.DefaultConfig(), instancing))

	camera := scene.DefaultCamera()
	return &Picker{
		Objects: &b.Scene.Points,
		Camera:  &camera,
		Width:   800,
		Height:  600,
	}
}

func TestNDC(t *testing.T) {
	x, y := NDC(0, 0, 800, 600)
	require.Equal(t, -1.0, x)
	require.Equal(t, 1.0, y)

	x, y = NDC(400, 300, 800, 600)
	require.Equal(t, 0.0, x)
	require.Equal(t, 0.0, y)

	x, y = NDC(800, 600, 800, 600)
	require.Equal(t, 1.0, x)
	require.Equal(t, -1.0, y)
}

func TestPickerPick(t *testing.T) {
	for _, instancing := range []bool{false, true} {
		t.Run(fmt.Sprintf("instancing %v", instancing), func(t *testing.T) {
			points := gridPoints(15, 10)
			p := newPicker(t, points, instancing)

			var picked int
			for i, pt := range points {
				x, y, _, ok := p.Camera.Project(pt.Position, p.Width, p.Height)
				if !ok || x < 0 || x > p.Width || y < 0 || y > p.Height {
					continue
				}

				id, ok := p.Pick(x, y)
				require.True(t, ok, "point %d", i)
				require.Equal(t, Identity{Index: i, ID: pt.ID}, id)
				picked++
			}
			require.NotZero(t, picked)
		})
	}
}

func TestPickerPickNearest(t *testing.T) {
	points := []models.Point{
		models.ParsePoint(map[string]any{"id": "behind", "size": 0.1}, 0),
		models.ParsePoint(map[string]any{"id": "front", "x": 1.0, "y": 1.0, "z": 1.0, "size": 0.1}, 1),
	}
	p := newPicker(t, points, false)

	id, ok := p.Pick(400, 300)
	require.True(t, ok)
	require.Equal(t, Identity{Index: 1, ID: "front"}, id)
}

func TestPickerMiss(t *testing.T) {
	t.Run("between points", func(t *testing.T) {
		p := newPicker(t, gridPoints(15, 10), true)

		x, y, _, ok := p.Camera.Project(r3.Vec{X: 0.125}, p.Width, p.Height)
		require.True(t, ok)

		_, ok = p.Pick(x, y)
		require.False(t, ok)
	})

	t.Run("empty scene", func(t *testing.T) {
		p := newPicker(t, nil, true)
		_, ok := p.Pick(400, 300)
		require.False(t, ok)
	})

	t.Run("no viewport", func(t *testing.T) {
		p := newPicker(t, gridPoints(2, 2), false)
		p.SetViewport(0, 0)
		_, ok := p.Pick(400, 300)
		require.False(t, ok)
	})

	t.Run("zero value", func(t *testing.T) {
		var p Picker
		_, ok := p.Pick(1, 2)
		require.False(t, ok)
	})
}

func TestResolve(t *testing.T) {
	batch := &scene.InstancedMesh{
		PointIndices: []int{4, 9},
		PointIDs:     []string{"a", "b"},
	}

	id, ok := Resolve(scene.Hit{Object: batch, Instance: 1})
	require.True(t, ok)
	require.Equal(t, Identity{Index: 9, ID: "b"}, id)

	_, ok = Resolve(scene.Hit{Object: batch, Instance: 2})
	require.False(t, ok)

	id, ok = Resolve(scene.Hit{Object: &scene.Mesh{PointIndex: 3, PointID: "c"}, Instance: -1})
	require.True(t, ok)
	require.Equal(t, Identity{Index: 3, ID: "c"}, id)

	_, ok = Resolve(scene.Hit{Object: &scene.LineSegments{}})
	require.False(t, ok)
}
