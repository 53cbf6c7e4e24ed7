package scene

import (
	"sync"

	"github.com/aukilabs/go-tooling/pkg/errors"
)

const (
	// ErrTypeDoubleDispose is the type of the error returned when a resource
	// that is not alive is disposed.
	ErrTypeDoubleDispose = "scene_double_dispose"
)

// Kind is the kind of a drawing resource.
type Kind int

const (
	KindGeometry Kind = iota
	KindMaterial
)

func (k Kind) String() string {
	switch k {
	case KindGeometry:
		return "geometry"
	case KindMaterial:
		return "material"
	default:
		return "unknown"
	}
}

// Handle references a resource allocated from a pool.
type Handle struct {
	ID   uint64
	Kind Kind
}

// Resources tracks the drawing resources allocated by a scene. Every
// allocated resource must be disposed exactly once.
type Resources struct {
	mutex  sync.Mutex
	nextID uint64
	live   map[uint64]Kind
}

// Alloc allocates a resource of the given kind.
func (r *Resources) Alloc(kind Kind) Handle {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.live == nil {
		r.live = make(map[uint64]Kind)
	}

	r.nextID++
	r.live[r.nextID] = kind
	instrumentLiveResources(kind, 1)
	return Handle{ID: r.nextID, Kind: kind}
}

// Dispose releases a resource. It returns an error typed
// ErrTypeDoubleDispose when the resource was already disposed or was not
// allocated by this pool.
func (r *Resources) Dispose(h Handle) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	kind, ok := r.live[h.ID]
	if !ok || kind != h.Kind {
		return errors.New("resource is not alive").
			WithType(ErrTypeDoubleDispose).
			WithTag("id", h.ID).
			WithTag("kind", h.Kind)
	}

	delete(r.live, h.ID)
	instrumentLiveResources(kind, -1)
	return nil
}

// Live returns the number of resources that are not disposed.
func (r *Resources) Live() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return len(r.live)
}

// LiveKind returns the number of resources of the given kind that are not
// disposed.
func (r *Resources) LiveKind(kind Kind) int {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	var n int
	for _, k := range r.live {
		if k == kind {
			n++
		}
	}
	return n
}
