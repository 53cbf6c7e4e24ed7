package models

import (
	"testing"

	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestParsePoint(t *testing.T) {
	t.Run("all fields", func(t *testing.T) {
		record := map[string]any{
			"id":       "a",
			"x":        1.0,
			"y":        2.0,
			"z":        3.0,
			"color":    "#ff0000",
			"size":     0.5,
			"shape":    "cube",
			"score":    0.9,
			"label":    "Ted",
			"category": "fruit",
		}

		p := ParsePoint(record, 3)
		require.Equal(t, "a", p.ID)
		require.Equal(t, r3.Vec{X: 1, Y: 2, Z: 3}, p.Position)
		require.Equal(t, "#ff0000", p.Color)
		require.Equal(t, 0.5, *p.Size)
		require.Equal(t, "cube", p.Shape)
		require.Equal(t, 0.9, *p.Score)
		require.Equal(t, "Ted", p.Label)

		v, ok := p.Field("category")
		require.True(t, ok)
		require.Equal(t, "fruit", v)

		_, ok = p.Field("ted")
		require.False(t, ok)
	})

	t.Run("missing fields default", func(t *testing.T) {
		p := ParsePoint(map[string]any{"y": "high"}, 4)
		require.Equal(t, "point_4", p.ID)
		require.Equal(t, r3.Vec{}, p.Position)
		require.Nil(t, p.Size)
		require.Nil(t, p.Score)
		require.Empty(t, p.Color)
	})

	t.Run("falsy ids are synthesized", func(t *testing.T) {
		require.Equal(t, "point_1", ParsePoint(map[string]any{"id": ""}, 1).ID)
		require.Equal(t, "point_1", ParsePoint(map[string]any{"id": 0.0}, 1).ID)
		require.Equal(t, "point_1", ParsePoint(map[string]any{"id": nil}, 1).ID)
		require.Equal(t, "0", ParsePoint(map[string]any{"id": "0"}, 1).ID)
		require.Equal(t, "12", ParsePoint(map[string]any{"id": 12.0}, 1).ID)
	})

	t.Run("vector provides coordinates", func(t *testing.T) {
		p := ParsePoint(map[string]any{"vector": []any{0.1, 0.2, 0.3, 0.4}}, 0)
		require.Equal(t, r3.Vec{X: 0.1, Y: 0.2, Z: 0.3}, p.Position)
		require.Len(t, p.Vector, 4)

		p = ParsePoint(map[string]any{"x": 5.0, "vector": []any{0.1, 0.2, 0.3}}, 0)
		require.Equal(t, r3.Vec{X: 5}, p.Position)
	})

	t.Run("record is not modified", func(t *testing.T) {
		record := map[string]any{"x": 1.0}
		ParsePoint(record, 0)
		require.Equal(t, map[string]any{"x": 1.0}, record)
	})
}

func TestParsePoints(t *testing.T) {
	var value any
	err := json.Unmarshal([]byte(`[
		{"id": "a", "x": 1},
		42,
		{"x": 2}
	]`), &value)
	require.NoError(t, err)

	points := ParsePoints(value)
	require.Len(t, points, 2)
	require.Equal(t, "a", points[0].ID)
	require.Equal(t, "point_2", points[1].ID)

	require.Nil(t, ParsePoints("ted"))
	require.Len(t, ParsePoints([]map[string]any{{"id": "b"}}), 1)

	same := []Point{NewPoint("c", 0, 0, 0)}
	require.Equal(t, same, ParsePoints(same))
}

func TestFieldString(t *testing.T) {
	require.Equal(t, "null", FieldString(nil))
	require.Equal(t, "fruit", FieldString("fruit"))
	require.Equal(t, "true", FieldString(true))
	require.Equal(t, "3", FieldString(3.0))
	require.Equal(t, "3.25", FieldString(3.25))
	require.Equal(t, "7", FieldString(7))
	require.Equal(t, `{"a":1}`, FieldString(map[string]any{"a": 1}))
}

func TestPointsFromArrays(t *testing.T) {
	points := PointsFromArrays([][]float64{
		{1, 2},
		{3, 4, 5},
		{6},
	}, ArrayOptions{
		IDs:      []string{"a", "b"},
		Colors:   []string{"#ff0000"},
		Sizes:    []float64{0.1, 0.2},
		Labels:   []string{"A"},
		Metadata: []map[string]any{nil, {"category": "fruit", "label": "override"}},
	})

	require.Len(t, points, 2)
	require.Equal(t, "a", points[0].ID)
	require.Equal(t, r3.Vec{X: 1, Y: 2}, points[0].Position)
	require.Equal(t, "#ff0000", points[0].Color)
	require.Equal(t, "A", points[0].Label)

	require.Equal(t, "b", points[1].ID)
	require.Equal(t, r3.Vec{X: 3, Y: 4, Z: 5}, points[1].Position)
	require.Equal(t, 0.2, *points[1].Size)
	require.Equal(t, "override", points[1].Label)
	require.Empty(t, points[1].Color)
}

func TestPointsFromQdrant(t *testing.T) {
	var response map[string]any
	err := json.Unmarshal([]byte(`{
		"result": [
			{"id": 1, "score": 0.8, "vector": [0.1, 0.2, 0.3, 0.4], "payload": {"category": "a"}},
			{"id": "two", "payload": {"x": 1, "y": 2, "z": 3, "label": "Two"}},
			{"id": 3, "vector": [0.5]}
		]
	}`), &response)
	require.NoError(t, err)

	points := PointsFromQdrant(response)
	require.Len(t, points, 3)

	require.Equal(t, "1", points[0].ID)
	require.Equal(t, 0.8, *points[0].Score)
	require.Equal(t, r3.Vec{X: 0.1, Y: 0.2, Z: 0.3}, points[0].Position)
	category, _ := points[0].Field("category")
	require.Equal(t, "a", category)

	require.Equal(t, "two", points[1].ID)
	require.Equal(t, r3.Vec{X: 1, Y: 2, Z: 3}, points[1].Position)
	require.Equal(t, "Two", points[1].Label)

	require.Equal(t, r3.Vec{X: 0.5}, points[2].Position)

	t.Run("points key", func(t *testing.T) {
		points := PointsFromQdrant(map[string]any{
			"points": []any{map[string]any{"id": "p"}},
		})
		require.Len(t, points, 1)
		require.Equal(t, "p", points[0].ID)
	})
}
