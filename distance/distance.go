// Package distance provides the distance functions used to rank point
// neighbors. Every metric is minimized: a smaller value means closer points.
package distance

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Func computes the distance between two points.
type Func func(a, b r3.Vec) float64

// Metric represents a distance metric.
type Metric int

const (
	MetricEuclidean Metric = iota
	MetricCosine
	MetricManhattan
	MetricDotProduct
)

func (m Metric) String() string {
	switch m {
	case MetricEuclidean:
		return "euclidean"
	case MetricCosine:
		return "cosine"
	case MetricManhattan:
		return "manhattan"
	case MetricDotProduct:
		return "dot_product"
	default:
		return fmt.Sprintf("unknown(%d)", m)
	}
}

// Func returns the function that implements the metric. Unknown metrics
// resolve to the euclidean distance.
func (m Metric) Func() Func {
	switch m {
	case MetricCosine:
		return Cosine
	case MetricManhattan:
		return Manhattan
	case MetricDotProduct:
		return DotProduct
	default:
		return Euclidean
	}
}

// ParseMetric returns the metric with the given name. The second value
// reports whether the name is known.
func ParseMetric(name string) (Metric, bool) {
	switch name {
	case "euclidean":
		return MetricEuclidean, true
	case "cosine":
		return MetricCosine, true
	case "manhattan":
		return MetricManhattan, true
	case "dot_product":
		return MetricDotProduct, true
	default:
		return MetricEuclidean, false
	}
}

// ByName returns the distance function with the given name, falling back to
// euclidean for unknown names.
func ByName(name string) Func {
	m, _ := ParseMetric(name)
	return m.Func()
}

// Euclidean returns the cartesian distance between a and b.
func Euclidean(a, b r3.Vec) float64 {
	return r3.Norm(r3.Sub(a, b))
}

// Cosine returns 1 minus the cosine similarity of a and b. It returns 1 when
// either vector has a zero magnitude.
func Cosine(a, b r3.Vec) float64 {
	magA := r3.Norm(a)
	magB := r3.Norm(b)
	if magA == 0 || magB == 0 {
		return 1
	}
	return 1 - r3.Dot(a, b)/(magA*magB)
}

// Manhattan returns the sum of the absolute coordinate differences.
func Manhattan(a, b r3.Vec) float64 {
	return math.Abs(a.X-b.X) + math.Abs(a.Y-b.Y) + math.Abs(a.Z-b.Z)
}

// DotProduct returns the negated dot product so that more similar points get
// a smaller distance.
func DotProduct(a, b r3.Vec) float64 {
	return -r3.Dot(a, b)
}
