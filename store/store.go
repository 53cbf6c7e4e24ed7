// Package store implements the reactive key/value state shared between a
// widget host and its views.
package store

import (
	"sort"
	"sync"
)

// Origin tags who performed a change.
type Origin string

// OriginHost is the origin of changes pushed by the host.
const OriginHost Origin = "host"

// Change is a store key update.
type Change struct {
	Key    string
	Value  any
	Origin Origin
}

// Handler is called synchronously when an observed key changes.
type Handler func(Change)

// Store is the reactive state a view reads its configuration from and writes
// its interaction state to.
type Store interface {
	// Returns the value of the key, or its default when never set.
	Get(key string) any

	// Sets a value and notifies the key observers. The change stays pending
	// until Commit is called.
	Set(key string, value any)

	// Registers a handler called on every change of the given key.
	Observe(key string, h Handler) (cancel func())

	// Flushes pending changes to the host.
	Commit() error
}

// Getter is the read side of a store.
type Getter interface {
	Get(key string) any
}

// Flusher receives the changes flushed by a commit.
type Flusher func([]Change) error

// Memory is an in-memory store. The zero value is ready to use.
type Memory struct {
	// The origin attached to changes made with Set.
	Origin Origin

	// The function called with pending changes on Commit.
	Flusher Flusher

	mutex       sync.RWMutex
	values      map[string]any
	pending     []Change
	observerIDs uint32
	observers   map[string][]observer
}

type observer struct {
	id      uint32
	handler Handler
}

func (m *Memory) Get(key string) any {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	if v, ok := m.values[key]; ok {
		return v
	}
	return Default(key)
}

func (m *Memory) Set(key string, value any) {
	change := Change{
		Key:    key,
		Value:  value,
		Origin: m.Origin,
	}

	m.mutex.Lock()
	m.set(change)
	m.addPending(change)
	handlers := m.handlers(key)
	m.mutex.Unlock()

	for _, h := range handlers {
		h(change)
	}
}

// Apply sets values changed elsewhere and notifies observers. Applied
// changes are not flushed by Commit. Changes without an origin are tagged as
// host changes.
func (m *Memory) Apply(changes ...Change) {
	for _, c := range changes {
		if c.Origin == "" {
			c.Origin = OriginHost
		}

		m.mutex.Lock()
		m.set(c)
		handlers := m.handlers(c.Key)
		m.mutex.Unlock()

		for _, h := range handlers {
			h(c)
		}
	}
}

func (m *Memory) Observe(key string, h Handler) (cancel func()) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.observers == nil {
		m.observers = make(map[string][]observer)
	}

	m.observerIDs++
	id := m.observerIDs
	m.observers[key] = append(m.observers[key], observer{
		id:      id,
		handler: h,
	})

	return func() {
		m.mutex.Lock()
		defer m.mutex.Unlock()

		observers := m.observers[key]
		for i, o := range observers {
			if o.id == id {
				m.observers[key] = append(observers[:i:i], observers[i+1:]...)
				break
			}
		}
		if len(m.observers[key]) == 0 {
			delete(m.observers, key)
		}
	}
}

func (m *Memory) Commit() error {
	m.mutex.Lock()
	pending := m.pending
	m.pending = nil
	m.mutex.Unlock()

	if len(pending) == 0 || m.Flusher == nil {
		return nil
	}
	return m.Flusher(pending)
}

// Pending returns the changes that the next commit flushes.
func (m *Memory) Pending() []Change {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	return append([]Change(nil), m.pending...)
}

// Values returns a copy of the values that were explicitly set.
func (m *Memory) Values() map[string]any {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	values := make(map[string]any, len(m.values))
	for k, v := range m.values {
		values[k] = v
	}
	return values
}

func (m *Memory) set(c Change) {
	if m.values == nil {
		m.values = make(map[string]any)
	}
	m.values[c.Key] = c.Value
}

// Pending changes are coalesced by key: the latest value wins and keeps the
// position of the first write.
func (m *Memory) addPending(c Change) {
	for i, p := range m.pending {
		if p.Key == c.Key {
			m.pending[i] = c
			return
		}
	}
	m.pending = append(m.pending, c)
}

func (m *Memory) handlers(key string) []Handler {
	observers := m.observers[key]
	handlers := make([]Handler, len(observers))
	for i, o := range observers {
		handlers[i] = o.handler
	}
	return handlers
}

// ChangesFrom returns the changes setting the given values, ordered by key.
func ChangesFrom(values map[string]any, origin Origin) []Change {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	changes := make([]Change, len(keys))
	for i, k := range keys {
		changes[i] = Change{
			Key:    k,
			Value:  values[k],
			Origin: origin,
		}
	}
	return changes
}
