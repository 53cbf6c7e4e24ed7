package models

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/vectorspace/protocol"
	"github.com/aukilabs/vectorspace/store"
	"github.com/google/uuid"
)

// Session represents a widget instance. It holds the store values shared by
// the participants (views) connected to it.
type Session struct {
	ID          uint32
	SessionUUID string

	// Persistent sessions are kept when their last participant leaves.
	Persistent bool

	participantIDs   SequentialIDGenerator
	participantMutex sync.RWMutex
	participants     map[uint32]*Participant

	stateMutex sync.RWMutex
	state      map[string]any

	moduleStates map[string]any
	moduleMutex  sync.RWMutex

	startFrameOnce  sync.Once
	closeFrameChan  chan struct{}
	frameTicker     *time.Ticker
	frameHandlerIDs SequentialIDGenerator
	frameHandlers   map[uint32]func()
	frameMutex      sync.RWMutex

	closeOnce sync.Once
}

func NewSession(id uint32, frameDuration time.Duration) *Session {
	return &Session{
		ID:             id,
		SessionUUID:    uuid.New().String(),
		closeFrameChan: make(chan struct{}, 1),
		frameTicker:    time.NewTicker(frameDuration),
		participants:   make(map[uint32]*Participant),
		state:          make(map[string]any),
		moduleStates:   make(map[string]any),
		frameHandlers:  make(map[uint32]func()),
	}
}

func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.frameTicker.Stop()
		s.closeFrameChan <- struct{}{}
	})
}

func (s *Session) NewParticipantID() uint32 {
	return s.participantIDs.New()
}

func (s *Session) AddParticipant(p *Participant) {
	s.participantMutex.Lock()
	defer s.participantMutex.Unlock()

	s.participants[p.ID] = p
	instrumentParticipantGauge(1)
}

func (s *Session) RemoveParticipant(p *Participant) {
	s.participantMutex.Lock()
	defer s.participantMutex.Unlock()

	if _, ok := s.participants[p.ID]; !ok {
		return
	}
	delete(s.participants, p.ID)
	instrumentParticipantGauge(-1)
}

// GetParticipants returns the session participants ordered by id.
func (s *Session) GetParticipants() []*Participant {
	s.participantMutex.RLock()
	defer s.participantMutex.RUnlock()

	participants := make([]*Participant, 0, len(s.participants))
	for _, p := range s.participants {
		participants = append(participants, p)
	}

	sort.Slice(participants, func(i, j int) bool {
		return participants[i].ID < participants[j].ID
	})
	return participants
}

func (s *Session) ParticipantCount() int {
	s.participantMutex.RLock()
	defer s.participantMutex.RUnlock()

	return len(s.participants)
}

// State returns a copy of the store values shared by the participants.
func (s *Session) State() map[string]any {
	s.stateMutex.RLock()
	defer s.stateMutex.RUnlock()

	state := make(map[string]any, len(s.state))
	for k, v := range s.state {
		state[k] = v
	}
	return state
}

// Get returns a shared store value, or its default when never set.
func (s *Session) Get(key string) any {
	s.stateMutex.RLock()
	defer s.stateMutex.RUnlock()

	if v, ok := s.state[key]; ok {
		return v
	}
	return store.Default(key)
}

// ApplyChanges records changes made by the sender and replicates them to the
// other participants. The sender is nil when a change comes from the server
// itself, in which case every participant receives it.
func (s *Session) ApplyChanges(sender *Participant, changes []store.Change) {
	if len(changes) == 0 {
		return
	}

	s.stateMutex.Lock()
	for _, c := range changes {
		s.state[c.Key] = c.Value
	}
	s.stateMutex.Unlock()

	origin := store.OriginHost
	if sender != nil {
		origin = sender.Origin()
	}

	commit := PeerCommit{
		Origin:  string(origin),
		Changes: make([]protocol.Change, len(changes)),
	}
	for i, c := range changes {
		commit.Changes[i] = protocol.Change{
			Key:   c.Key,
			Value: c.Value,
		}
	}

	msg, err := protocol.MsgFrom(protocol.MsgTypePeerCommit, 0, commit)
	if err != nil {
		logs.WithTag("session_id", s.ID).Debug(err)
		return
	}

	for _, p := range s.GetParticipants() {
		if p == sender || p.Deliver == nil {
			continue
		}
		p.Deliver(msg)
	}
}

// SetPoints replaces the points shown by every participant.
func (s *Session) SetPoints(points []Point) {
	s.ApplyChanges(nil, []store.Change{{
		Key:   store.KeyPoints,
		Value: Records(points),
	}})
}

// Broadcast sends a message to every participant but the sender.
func (s *Session) Broadcast(sender *Participant, t protocol.MsgType, data any) {
	msg, err := protocol.MsgFrom(t, 0, data)
	if err != nil {
		logs.WithTag("message", t).Debug(err)
		return
	}

	for _, p := range s.GetParticipants() {
		if p == sender {
			continue
		}
		p.Responder.SendMsg(msg)
	}
}

func (s *Session) SetModuleState(moduleName string, state any) {
	s.moduleMutex.Lock()
	defer s.moduleMutex.Unlock()

	s.moduleStates[moduleName] = state
}

func (s *Session) ModuleState(moduleName string) (any, bool) {
	s.moduleMutex.RLock()
	defer s.moduleMutex.RUnlock()

	state, ok := s.moduleStates[moduleName]
	return state, ok
}

func (s *Session) HandleFrame(h func()) (cancel func()) {
	s.frameMutex.Lock()
	defer s.frameMutex.Unlock()

	id := s.frameHandlerIDs.New()
	s.frameHandlers[id] = h

	return func() {
		s.frameMutex.Lock()
		defer s.frameMutex.Unlock()

		if _, ok := s.frameHandlers[id]; !ok {
			return
		}
		delete(s.frameHandlers, id)
		s.frameHandlerIDs.Reuse(id)
	}
}

func (s *Session) StartDispatchFrames() {
	s.startFrameOnce.Do(func() {
		for {
			select {
			case <-s.closeFrameChan:
				return

			case <-s.frameTicker.C:
				s.frameMutex.RLock()
				for _, h := range s.frameHandlers {
					h()
				}
				s.frameMutex.RUnlock()
			}
		}
	})
}

// PeerCommit is the payload of changes replicated from another participant.
type PeerCommit struct {
	Origin  string            `json:"origin"`
	Changes []protocol.Change `json:"changes"`
}

// SessionStore contains the sessions of the server.
type SessionStore struct {
	// The id identifying the server in global session ids.
	ServerID string

	initOnce sync.Once
	mutex    sync.RWMutex
	sessions map[string]*Session
	ids      SequentialIDGenerator
}

func (s *SessionStore) init() {
	s.sessions = map[string]*Session{}

	if s.ServerID == "" {
		s.ServerID = "ted"
	}
}

func (s *SessionStore) NewID() uint32 {
	return s.ids.New()
}

func (s *SessionStore) Add(session *Session) {
	s.initOnce.Do(s.init)
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.sessions[s.globalSessionID(session.ID)] = session

	instrumentIncreaseSessionGauge()
	instrumentCountSession()
}

func (s *SessionStore) Remove(session *Session) {
	s.initOnce.Do(s.init)
	s.mutex.Lock()
	defer s.mutex.Unlock()

	id := s.globalSessionID(session.ID)
	if _, ok := s.sessions[id]; !ok {
		return
	}

	delete(s.sessions, id)
	session.Close()

	s.ids.Reuse(session.ID)

	instrumentDecreaseSessionGauge()
}

func (s *SessionStore) GetByGlobalID(v string) (*Session, bool) {
	s.initOnce.Do(s.init)

	s.mutex.RLock()
	defer s.mutex.RUnlock()

	session, ok := s.sessions[v]
	return session, ok
}

// List returns the global ids of the sessions, sorted.
func (s *SessionStore) List() []string {
	s.initOnce.Do(s.init)

	s.mutex.RLock()
	defer s.mutex.RUnlock()

	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (s *SessionStore) GlobalSessionID(sessionID uint32) string {
	s.initOnce.Do(s.init)
	return s.globalSessionID(sessionID)
}

func (s *SessionStore) globalSessionID(sessionID uint32) string {
	return fmt.Sprintf("%sx%x", s.ServerID, sessionID)
}
