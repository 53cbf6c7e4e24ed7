// Package picking resolves screen coordinates to the point drawn beneath
// them.
package picking

import (
	"github.com/aukilabs/vectorspace/scene"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var pickCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "picking_count_total",
	Help: "The number of picking passes.",
}, []string{"result"})

// Identity identifies a point of the rendered point set.
type Identity struct {
	Index int
	ID    string
}

// NDC converts a position on a width x height surface to normalized device
// coordinates.
func NDC(x, y, width, height float64) (float64, float64) {
	return (x/width)*2 - 1, -(y/height)*2 + 1
}

// Picker casts rays from a camera against the point objects of a scene.
type Picker struct {
	// The objects to pick from, usually the points group of a scene.
	Objects scene.Object

	// The camera rays are cast from.
	Camera *scene.Camera

	Width  float64
	Height float64
}

// SetViewport updates the size of the picking surface.
func (p *Picker) SetViewport(width, height float64) {
	p.Width = width
	p.Height = height
}

// Pick returns the identity of the nearest point beneath the given surface
// position. The second value is false when nothing is hit.
func (p *Picker) Pick(x, y float64) (Identity, bool) {
	hit, ok := p.Intersect(x, y)
	if !ok {
		pickCount.WithLabelValues("miss").Inc()
		return Identity{}, false
	}

	id, ok := Resolve(hit)
	if !ok {
		pickCount.WithLabelValues("miss").Inc()
		return Identity{}, false
	}

	pickCount.WithLabelValues("hit").Inc()
	return id, true
}

// Intersect returns the nearest intersection beneath the given surface
// position.
func (p *Picker) Intersect(x, y float64) (scene.Hit, bool) {
	if p.Objects == nil || p.Camera == nil || p.Width <= 0 || p.Height <= 0 {
		return scene.Hit{}, false
	}

	ndcX, ndcY := NDC(x, y, p.Width, p.Height)
	hits := p.Objects.Intersect(p.Camera.Ray(ndcX, ndcY), nil)
	if len(hits) == 0 {
		return scene.Hit{}, false
	}

	nearest := hits[0]
	for _, h := range hits[1:] {
		if h.Distance < nearest.Distance {
			nearest = h
		}
	}
	return nearest, true
}

// Resolve returns the identity of the point represented by a hit. Instanced
// hits are resolved with the instance slot, individual hits with the mesh
// tag.
func Resolve(h scene.Hit) (Identity, bool) {
	switch obj := h.Object.(type) {
	case *scene.InstancedMesh:
		if h.Instance < 0 || h.Instance >= len(obj.PointIDs) || h.Instance >= len(obj.PointIndices) {
			return Identity{}, false
		}
		return Identity{
			Index: obj.PointIndices[h.Instance],
			ID:    obj.PointIDs[h.Instance],
		}, true

	case *scene.Mesh:
		return Identity{
			Index: obj.PointIndex,
			ID:    obj.PointID,
		}, true

	default:
		return Identity{}, false
	}
}
