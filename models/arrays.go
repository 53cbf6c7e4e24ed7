package models

import (
	"fmt"

	"github.com/aukilabs/vectorspace/store"
)

// ArrayOptions holds the optional per point attributes of PointsFromArrays.
type ArrayOptions struct {
	IDs      []string
	Colors   []string
	Sizes    []float64
	Labels   []string
	Metadata []map[string]any
}

// PointsFromArrays creates points from rows of 2 or 3 coordinates. Rows with
// less than 2 coordinates are skipped. Metadata is merged last and can
// override the other fields.
func PointsFromArrays(positions [][]float64, opts ArrayOptions) []Point {
	points := make([]Point, 0, len(positions))

	for i, pos := range positions {
		if len(pos) < 2 {
			continue
		}

		id := fmt.Sprintf("point_%d", i)
		if i < len(opts.IDs) {
			id = opts.IDs[i]
		}

		record := map[string]any{
			"id": id,
			"x":  pos[0],
			"y":  pos[1],
			"z":  0.0,
		}
		if len(pos) > 2 {
			record["z"] = pos[2]
		}
		if i < len(opts.Colors) {
			record["color"] = opts.Colors[i]
		}
		if i < len(opts.Sizes) {
			record["size"] = opts.Sizes[i]
		}
		if i < len(opts.Labels) {
			record["label"] = opts.Labels[i]
		}
		if i < len(opts.Metadata) {
			for k, v := range opts.Metadata[i] {
				record[k] = v
			}
		}

		points = append(points, ParsePoint(record, i))
	}

	return points
}

// PointsFromQdrant converts a Qdrant search or scroll response. Coordinates
// come from the first vector components, or from the payload when the result
// has no vector. The payload is merged into the record.
func PointsFromQdrant(response map[string]any) []Point {
	results, ok := response["result"].([]any)
	if !ok || len(results) == 0 {
		results, _ = response["points"].([]any)
	}

	points := make([]Point, 0, len(results))
	for i, r := range results {
		result, ok := r.(map[string]any)
		if !ok {
			continue
		}

		record := map[string]any{"id": ""}
		if id, ok := result["id"]; ok {
			record["id"] = FieldString(id)
		}
		if score, ok := result["score"]; ok {
			record["score"] = score
		}

		payload, _ := result["payload"].(map[string]any)
		vector, _ := store.AsFloats(result["vector"])

		if len(vector) != 0 {
			record["x"] = component(vector, 0)
			record["y"] = component(vector, 1)
			record["z"] = component(vector, 2)
			record["vector"] = vector
		} else {
			record["x"] = payloadFloat(payload, "x")
			record["y"] = payloadFloat(payload, "y")
			record["z"] = payloadFloat(payload, "z")
		}

		for k, v := range payload {
			record[k] = v
		}

		points = append(points, ParsePoint(record, i))
	}

	return points
}

func component(v []float64, i int) float64 {
	if i < len(v) {
		return v[i]
	}
	return 0
}

func payloadFloat(payload map[string]any, key string) float64 {
	f, _ := store.AsFloat(payload[key])
	return f
}
