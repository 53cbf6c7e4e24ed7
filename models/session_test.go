package models

import (
	"sync"
	"testing"
	"time"

	"github.com/aukilabs/vectorspace/protocol"
	"github.com/aukilabs/vectorspace/store"
	"github.com/stretchr/testify/require"
)

func TestSessionNewParticipantID(t *testing.T) {
	session := NewSession(42, time.Second)
	require.NotZero(t, session.NewParticipantID())
}

func TestSessionAddParticipant(t *testing.T) {
	participant := &Participant{ID: 777}
	session := NewSession(42, time.Second)

	session.AddParticipant(participant)
	require.Len(t, session.participants, 1)
	require.Equal(t, participant, session.participants[777])
}

func TestSessionRemoveParticipant(t *testing.T) {
	participant := &Participant{ID: 777}
	session := NewSession(42, time.Second)

	session.AddParticipant(participant)
	require.Len(t, session.participants, 1)

	session.RemoveParticipant(participant)
	require.Empty(t, session.participants)
	require.Zero(t, session.ParticipantCount())
}

func TestSessionGetParticipants(t *testing.T) {
	session := NewSession(42, time.Second)

	for _, id := range []uint32{3, 1, 2} {
		session.AddParticipant(&Participant{ID: id})
	}

	participants := session.GetParticipants()
	require.Len(t, participants, 3)
	for i, p := range participants {
		require.Equal(t, uint32(i+1), p.ID)
	}
}

func TestSessionGet(t *testing.T) {
	session := NewSession(42, time.Second)
	require.Equal(t, "#1a1a2e", session.Get(store.KeyBackground))

	session.ApplyChanges(nil, []store.Change{{Key: store.KeyBackground, Value: "#000000"}})
	require.Equal(t, "#000000", session.Get(store.KeyBackground))
	require.Equal(t, map[string]any{store.KeyBackground: "#000000"}, session.State())
}

func TestSessionApplyChanges(t *testing.T) {
	t.Run("changes are delivered to other participants", func(t *testing.T) {
		var deliveredA, deliveredB []protocol.Msg

		participantA := &Participant{
			ID:      1,
			Deliver: func(msg protocol.Msg) { deliveredA = append(deliveredA, msg) },
		}
		participantB := &Participant{
			ID:      2,
			Deliver: func(msg protocol.Msg) { deliveredB = append(deliveredB, msg) },
		}

		session := NewSession(42, time.Second)
		session.AddParticipant(participantA)
		session.AddParticipant(participantB)

		session.ApplyChanges(participantA, []store.Change{{
			Key:   store.KeySelectedPoints,
			Value: []string{"a"},
		}})
		require.Empty(t, deliveredA)
		require.Len(t, deliveredB, 1)
		require.Equal(t, protocol.MsgTypePeerCommit, deliveredB[0].Type)

		var commit PeerCommit
		require.NoError(t, deliveredB[0].DataTo(&commit))
		require.Equal(t, "participant-1", commit.Origin)
		require.Len(t, commit.Changes, 1)
		require.Equal(t, store.KeySelectedPoints, commit.Changes[0].Key)
		require.Equal(t, []any{"a"}, commit.Changes[0].Value)
	})

	t.Run("server changes are delivered to every participant", func(t *testing.T) {
		var delivered []protocol.Msg

		session := NewSession(42, time.Second)
		for i := 1; i <= 3; i++ {
			session.AddParticipant(&Participant{
				ID:      uint32(i),
				Deliver: func(msg protocol.Msg) { delivered = append(delivered, msg) },
			})
		}

		session.SetPoints([]Point{NewPoint("a", 1, 2, 3)})
		require.Len(t, delivered, 3)

		var commit PeerCommit
		require.NoError(t, delivered[0].DataTo(&commit))
		require.Equal(t, string(store.OriginHost), commit.Origin)

		records, ok := session.Get(store.KeyPoints).([]any)
		require.True(t, ok)
		require.Len(t, records, 1)
	})

	t.Run("empty changes are ignored", func(t *testing.T) {
		session := NewSession(42, time.Second)
		session.AddParticipant(&Participant{
			ID:      1,
			Deliver: func(protocol.Msg) { t.Fatal("unexpected delivery") },
		})
		session.ApplyChanges(nil, nil)
	})
}

func TestSessionModuleState(t *testing.T) {
	t.Run("module state is found", func(t *testing.T) {
		s := NewSession(42, time.Second)

		stateA := 42
		s.SetModuleState("testModule", stateA)

		stateB, ok := s.ModuleState("testModule")
		require.True(t, ok)
		require.Equal(t, stateA, stateB)
	})

	t.Run("module state is not found", func(t *testing.T) {
		s := NewSession(42, time.Second)

		state, ok := s.ModuleState("testModule")
		require.False(t, ok)
		require.Nil(t, state)
	})
}

func TestSessionBroadcast(t *testing.T) {
	t.Run("msg from participant A is broadcasted to participant B", func(t *testing.T) {
		var sendACalled bool
		participantA := &Participant{
			ID: 1,
			Responder: testResponseSender{
				sendMsg: func(_ protocol.Msg) {
					sendACalled = true
				},
			},
		}

		var received protocol.Msg
		participantB := &Participant{
			ID: 2,
			Responder: testResponseSender{
				sendMsg: func(msg protocol.Msg) {
					received = msg
				},
			},
		}

		session := NewSession(42, time.Second)
		session.AddParticipant(participantA)
		session.AddParticipant(participantB)

		session.Broadcast(participantA, protocol.MsgTypeEvent, protocol.Event{Name: "click"})
		require.False(t, sendACalled)
		require.Equal(t, protocol.MsgTypeEvent, received.Type)
	})
}

func TestSessionStoreNewID(t *testing.T) {
	sessions := SessionStore{}
	require.NotZero(t, sessions.NewID())
}

func TestSessionStoreAdd(t *testing.T) {
	var sessions SessionStore

	session := NewSession(42, time.Second)
	sessions.Add(session)
	require.Equal(t, session, sessions.sessions[sessions.GlobalSessionID(session.ID)])
	require.Equal(t, []string{"tedx2a"}, sessions.List())
}

func TestSessionStoreRemove(t *testing.T) {
	t.Run("session is successfully removed", func(t *testing.T) {
		var sessions SessionStore

		session := NewSession(42, time.Second)
		sessions.Add(session)
		require.Len(t, sessions.sessions, 1)

		sessions.Remove(session)
		require.Empty(t, sessions.sessions)

		// Removing twice does not close the session twice.
		sessions.Remove(session)
	})

	t.Run("session id is reused", func(t *testing.T) {
		var sessions SessionStore

		sessionID := sessions.NewID()
		session := NewSession(sessionID, time.Second)
		sessions.Add(session)
		require.Len(t, sessions.sessions, 1)

		sessions.Remove(session)
		require.Empty(t, sessions.sessions)

		nextSessionID := sessions.NewID()
		require.Equal(t, sessionID, nextSessionID)
	})
}

func TestSessionStoreGetByGlobalID(t *testing.T) {
	sessions := SessionStore{ServerID: "vs"}

	t.Run("session is retrieved", func(t *testing.T) {
		session := NewSession(42, time.Second)
		sessions.Add(session)

		res, ok := sessions.GetByGlobalID("vsx2a")
		require.True(t, ok)
		require.Equal(t, session, res)
	})

	t.Run("session is not retrieved", func(t *testing.T) {
		res, ok := sessions.GetByGlobalID(sessions.GlobalSessionID(84))
		require.False(t, ok)
		require.Nil(t, res)
	})
}

func TestSessionHandleFrame(t *testing.T) {
	session := NewSession(42, time.Millisecond*5)

	cancel := session.HandleFrame(func() {})
	require.Len(t, session.frameHandlers, 1)
	defer cancel()

	cancel()
	require.Empty(t, session.frameHandlers)
}

func TestSessionStartDispatchFrame(t *testing.T) {
	session := NewSession(42, time.Millisecond*5)

	var wg sync.WaitGroup
	var once sync.Once
	wg.Add(1)

	go session.StartDispatchFrames()

	session.HandleFrame(func() {
		once.Do(wg.Done)
	})

	wg.Wait()
	session.Close()
}

type testResponseSender struct {
	sendMsg func(protocol.Msg)
}

func (r testResponseSender) Send(t protocol.MsgType, requestID uint32, data any) {
	msg, err := protocol.MsgFrom(t, requestID, data)
	if err != nil {
		panic(err)
	}
	r.sendMsg(msg)
}

func (r testResponseSender) SendMsg(msg protocol.Msg) {
	r.sendMsg(msg)
}
