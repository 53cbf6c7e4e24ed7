package snapshot

import (
	"sync"
	"time"
)

// State throttles the snapshots rendered in a session.
type State struct {
	mutex sync.Mutex
	last  time.Time
	count int
}

// Allow reports whether a snapshot can be rendered at the given time and
// records it when it does.
func (s *State) Allow(now time.Time, minInterval time.Duration) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.count != 0 && now.Sub(s.last) < minInterval {
		return false
	}

	s.last = now
	s.count++
	return true
}

// Count returns the number of snapshots rendered.
func (s *State) Count() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return s.count
}
