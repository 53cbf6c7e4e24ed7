// Package connection computes the proximity edges drawn between points.
package connection

import (
	"math"
	"slices"

	"github.com/aukilabs/vectorspace/distance"
	"github.com/aukilabs/vectorspace/encoding"
	"github.com/aukilabs/vectorspace/models"
	"github.com/aukilabs/vectorspace/store"
	"github.com/lucasb-eyer/go-colorful"
)

// Edge connects two points, referenced by their index in the point set.
type Edge struct {
	From     int
	To       int
	Distance float64
}

// Style is the style shared by every edge.
type Style struct {
	Color   colorful.Color
	Opacity float64
}

// DefaultStyle returns the style used when nothing is configured.
func DefaultStyle() Style {
	return Style{
		Color:   colorful.Color{R: 1, G: 1, B: 1},
		Opacity: 0.3,
	}
}

// Config is the connection configuration.
type Config struct {
	// Whether connections are drawn.
	Show bool

	// The number of neighbors connected to a point.
	K int

	// When set in reference mode, every point closer or equal to the
	// threshold is connected to the reference.
	Threshold *float64

	// The id of the point connections are anchored at. Empty means every
	// point is connected to its K nearest neighbors.
	Reference string

	Metric distance.Metric
	Style  Style
}

// ConfigFromStore reads the connection configuration from store values.
func ConfigFromStore(g store.Getter) Config {
	metric, _ := distance.ParseMetric(store.String(g, store.KeyDistanceMetric))

	c := Config{
		Show:      store.Bool(g, store.KeyShowConnections),
		K:         store.Int(g, store.KeyKNeighbors),
		Reference: store.String(g, store.KeyReferencePoint),
		Metric:    metric,
		Style:     DefaultStyle(),
	}

	if t, ok := store.OptionalFloat(g, store.KeyDistanceThreshold); ok {
		c.Threshold = &t
	}
	if color, ok := encoding.ParseColor(g.Get(store.KeyConnectionColor)); ok {
		c.Style.Color = color
	}
	// A zero opacity falls back to the default like any unset value.
	if opacity, ok := store.OptionalFloat(g, store.KeyConnectionOpacity); ok && opacity != 0 {
		c.Style.Opacity = opacity
	}
	return c
}

// Build returns the edges to draw between the given points.
func Build(points []models.Point, c Config) []Edge {
	if !c.Show || len(points) < 2 {
		return nil
	}

	dist := c.Metric.Func()
	if c.Reference != "" {
		return buildReference(points, c, dist)
	}
	if c.K > 0 {
		return buildNearest(points, c.K, dist)
	}
	return nil
}

func buildReference(points []models.Point, c Config, dist distance.Func) []Edge {
	ref := slices.IndexFunc(points, func(p models.Point) bool {
		return p.ID == c.Reference
	})
	if ref == -1 {
		return nil
	}

	var neighbors []neighbor
	switch {
	case c.Threshold != nil:
		for i, p := range points {
			if i == ref {
				continue
			}
			if d := dist(points[ref].Position, p.Position); d <= *c.Threshold {
				neighbors = append(neighbors, neighbor{Index: i, Distance: d})
			}
		}
		slices.SortFunc(neighbors, compareNeighbors(ref))

	case c.K > 0:
		neighbors = nearest(points, ref, c.K, dist, newNeighborQueue(ref, c.K))

	default:
		return nil
	}

	edges := make([]Edge, len(neighbors))
	for i, n := range neighbors {
		edges[i] = Edge{From: ref, To: n.Index, Distance: n.Distance}
	}
	return edges
}

// buildNearest connects every point to its k nearest neighbors. A pair is
// emitted once, from the smaller index, and only when the larger index is
// among the k nearest of the smaller one.
func buildNearest(points []models.Point, k int, dist distance.Func) []Edge {
	var edges []Edge
	queue := newNeighborQueue(0, k)

	for i := range points {
		for _, n := range nearest(points, i, k, dist, queue) {
			if i < n.Index {
				edges = append(edges, Edge{From: i, To: n.Index, Distance: n.Distance})
			}
		}
	}
	return edges
}

func nearest(points []models.Point, i, k int, dist distance.Func, queue *neighborQueue) []neighbor {
	queue.Reset()
	queue.origin = i
	queue.capacity = k

	for j, p := range points {
		if j == i {
			continue
		}

		d := dist(points[i].Position, p.Position)
		if math.IsInf(d, 1) {
			continue
		}
		queue.Push(neighbor{Index: j, Distance: d})
	}
	return queue.Sorted()
}
