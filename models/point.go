package models

import (
	"fmt"
	"strconv"

	"github.com/aukilabs/vectorspace/store"
	"github.com/segmentio/encoding/json"
	"gonum.org/v1/gonum/spatial/r3"
)

// Point is a renderable record. The record it was parsed from is kept
// untouched.
type Point struct {
	ID       string
	Position r3.Vec
	Vector   []float64
	Color    string
	Size     *float64
	Shape    string
	Score    *float64
	Label    string

	// The original record.
	Record map[string]any
}

// ParsePoint normalizes a point record. Absent or empty ids are synthesized
// from the point index. Missing or malformed coordinates default to 0, the
// first vector components are used when no coordinate is given.
func ParsePoint(record map[string]any, index int) Point {
	p := Point{
		ID:     pointID(record["id"], index),
		Record: record,
		Label:  stringField(record, "label"),
		Color:  stringField(record, "color"),
		Shape:  stringField(record, "shape"),
	}

	if v, ok := store.AsFloats(record["vector"]); ok {
		p.Vector = v
	}

	x, _ := store.AsFloat(record["x"])
	y, _ := store.AsFloat(record["y"])
	z, _ := store.AsFloat(record["z"])
	p.Position = r3.Vec{X: x, Y: y, Z: z}

	_, setX := record["x"]
	_, setY := record["y"]
	_, setZ := record["z"]
	if !setX && !setY && !setZ && len(p.Vector) >= 2 {
		p.Position.X = p.Vector[0]
		p.Position.Y = p.Vector[1]
		if len(p.Vector) > 2 {
			p.Position.Z = p.Vector[2]
		}
	}

	if size, ok := store.AsFloat(record["size"]); ok {
		p.Size = &size
	}
	if score, ok := store.AsFloat(record["score"]); ok {
		p.Score = &score
	}
	return p
}

// ParsePoints parses the value of the points store key. Entries that are not
// objects are skipped but still consume an index.
func ParsePoints(v any) []Point {
	switch records := v.(type) {
	case []Point:
		return records

	case []map[string]any:
		points := make([]Point, len(records))
		for i, r := range records {
			points[i] = ParsePoint(r, i)
		}
		return points

	case []any:
		points := make([]Point, 0, len(records))
		for i, r := range records {
			if record, ok := r.(map[string]any); ok {
				points = append(points, ParsePoint(record, i))
			}
		}
		return points

	default:
		return nil
	}
}

// NewPoint creates a point and its record.
func NewPoint(id string, x, y, z float64) Point {
	return ParsePoint(map[string]any{
		"id": id,
		"x":  x,
		"y":  y,
		"z":  z,
	}, 0)
}

// Field returns the value of a record field.
func (p Point) Field(name string) (any, bool) {
	v, ok := p.Record[name]
	return v, ok
}

// Records returns the records of the given points, ready to be stored.
func Records(points []Point) []any {
	records := make([]any, len(points))
	for i, p := range points {
		records[i] = p.Record
	}
	return records
}

// FieldString formats a field value the way it is displayed and hashed.
// Integral numbers have no decimals, objects are JSON encoded.
func FieldString(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"

	case string:
		return t

	case bool:
		return strconv.FormatBool(t)

	case json.Number:
		return string(t)
	}

	if f, ok := store.AsFloat(v); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}

	if b, err := json.Marshal(v); err == nil {
		return string(b)
	}
	return fmt.Sprint(v)
}

// Ids that are null, empty, false or zero are replaced.
func pointID(v any, index int) string {
	switch t := v.(type) {
	case nil:
	case string:
		if t != "" {
			return t
		}
	case bool:
		if t {
			return "true"
		}
	default:
		if f, ok := store.AsFloat(v); !ok || f != 0 {
			return FieldString(v)
		}
	}
	return fmt.Sprintf("point_%d", index)
}

func stringField(record map[string]any, name string) string {
	s, _ := record[name].(string)
	return s
}
