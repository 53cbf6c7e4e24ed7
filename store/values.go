package store

import (
	"math"
	"strconv"

	"github.com/segmentio/encoding/json"
	"gonum.org/v1/gonum/spatial/r3"
)

// Values reach the store either from Go code or decoded from JSON, the
// conversions below accept both shapes.

// AsFloat converts a numeric value to a float64. NaN and infinite values
// are rejected.
func AsFloat(v any) (float64, bool) {
	var f float64

	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case json.Number:
		parsed, err := strconv.ParseFloat(string(n), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func AsString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func AsBool(v any) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
}

func AsStringSlice(v any) ([]string, bool) {
	switch s := v.(type) {
	case []string:
		return s, true

	case []any:
		res := make([]string, 0, len(s))
		for _, e := range s {
			str, ok := e.(string)
			if !ok {
				return nil, false
			}
			res = append(res, str)
		}
		return res, true

	default:
		return nil, false
	}
}

// AsFloats converts a numeric array. Any non numeric element fails the
// conversion.
func AsFloats(v any) ([]float64, bool) {
	switch s := v.(type) {
	case []float64:
		return s, true

	case [3]float64:
		return s[:], true

	case [2]float64:
		return s[:], true

	case []any:
		res := make([]float64, len(s))
		for i, e := range s {
			f, ok := AsFloat(e)
			if !ok {
				return nil, false
			}
			res[i] = f
		}
		return res, true

	default:
		return nil, false
	}
}

// AsVec3 converts a 3 elements numeric array.
func AsVec3(v any) (r3.Vec, bool) {
	if vec, ok := v.(r3.Vec); ok {
		return vec, true
	}

	f, ok := AsFloats(v)
	if !ok || len(f) != 3 {
		return r3.Vec{}, false
	}
	return r3.Vec{X: f[0], Y: f[1], Z: f[2]}, true
}

// AsRange converts a 2 elements numeric array.
func AsRange(v any) ([2]float64, bool) {
	f, ok := AsFloats(v)
	if !ok || len(f) != 2 {
		return [2]float64{}, false
	}
	return [2]float64{f[0], f[1]}, true
}

// AsStringMap converts an object whose values are strings. Non string values
// are skipped.
func AsStringMap(v any) (map[string]string, bool) {
	switch m := v.(type) {
	case map[string]string:
		return m, true

	case map[string]any:
		res := make(map[string]string, len(m))
		for k, e := range m {
			if s, ok := e.(string); ok {
				res[k] = s
			}
		}
		return res, true

	default:
		return nil, false
	}
}

// String returns the string value of a key, or its default when the stored
// value is not a string.
func String(g Getter, key string) string {
	if s, ok := AsString(g.Get(key)); ok {
		return s
	}
	s, _ := AsString(Default(key))
	return s
}

func Bool(g Getter, key string) bool {
	if b, ok := AsBool(g.Get(key)); ok {
		return b
	}
	b, _ := AsBool(Default(key))
	return b
}

func Float(g Getter, key string) float64 {
	if f, ok := AsFloat(g.Get(key)); ok {
		return f
	}
	f, _ := AsFloat(Default(key))
	return f
}

// Int returns the truncated numeric value of a key.
func Int(g Getter, key string) int {
	return int(Float(g, key))
}

// OptionalFloat returns the numeric value of a key. The second value is
// false when the key is unset or null.
func OptionalFloat(g Getter, key string) (float64, bool) {
	return AsFloat(g.Get(key))
}

// OptionalRange returns the [min, max] value of a key, false when unset.
func OptionalRange(g Getter, key string) ([2]float64, bool) {
	return AsRange(g.Get(key))
}

func Range(g Getter, key string) [2]float64 {
	if r, ok := AsRange(g.Get(key)); ok {
		return r
	}
	r, _ := AsRange(Default(key))
	return r
}

func Vec3(g Getter, key string) r3.Vec {
	if v, ok := AsVec3(g.Get(key)); ok {
		return v
	}
	v, _ := AsVec3(Default(key))
	return v
}

func StringSlice(g Getter, key string) []string {
	if s, ok := AsStringSlice(g.Get(key)); ok {
		return s
	}
	s, _ := AsStringSlice(Default(key))
	return s
}

func StringMap(g Getter, key string) map[string]string {
	if m, ok := AsStringMap(g.Get(key)); ok {
		return m
	}
	m, _ := AsStringMap(Default(key))
	return m
}

// VecValue returns the value stored for a vector.
func VecValue(v r3.Vec) []float64 {
	return []float64{v.X, v.Y, v.Z}
}
