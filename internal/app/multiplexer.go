package app

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/dkeye/TalkNet/internal/core"
	"github.com/dkeye/TalkNet/internal/domain"
	"github.com/rs/zerolog/log"
)

var ErrUnknownSession = errors.New("unknown session")

// sessionEntry is the per-connection handler entry: allocated on connect,
// released on disconnect.
type sessionEntry struct {
	Conn   core.SignalConnection
	Cancel func()
	Client string
	state  atomic.Int32
}

// Multiplexer maps connection identifiers to their transport endpoint.
type Multiplexer struct {
	mu       sync.RWMutex
	sessions map[domain.ParticipantID]*sessionEntry
}

func NewMultiplexer() *Multiplexer {
	return &Multiplexer{
		sessions: make(map[domain.ParticipantID]*sessionEntry),
	}
}

// Attach registers a live connection and returns its fresh identifier.
// cancel is invoked by Cancel to tear the connection down.
func (m *Multiplexer) Attach(conn core.SignalConnection, cancel func(), client string) domain.ParticipantID {
	e := &sessionEntry{Conn: conn, Cancel: cancel, Client: client}

	m.mu.Lock()
	id := domain.NewParticipantID()
	for {
		if _, taken := m.sessions[id]; !taken {
			break
		}
		id = domain.NewParticipantID()
	}
	m.sessions[id] = e
	m.mu.Unlock()

	log.Info().Str("module", "app.mux").Str("sid", string(id)).Str("client", client).Msg("attached session")
	return id
}

// Detach releases the entry. Reports whether it was still attached.
func (m *Multiplexer) Detach(id domain.ParticipantID) bool {
	m.mu.Lock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if ok {
		log.Info().Str("module", "app.mux").Str("sid", string(id)).Msg("detached session")
	}
	return ok
}

func (m *Multiplexer) entry(id domain.ParticipantID) (*sessionEntry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.sessions[id]
	return e, ok
}

func (m *Multiplexer) Conn(id domain.ParticipantID) (core.SignalConnection, bool) {
	e, ok := m.entry(id)
	if !ok {
		return nil, false
	}
	return e.Conn, true
}

func (m *Multiplexer) State(id domain.ParticipantID) (core.SessionState, bool) {
	e, ok := m.entry(id)
	if !ok {
		return core.StateUnregistered, false
	}
	return core.SessionState(e.state.Load()), true
}

// Transition moves the session from one state to another, failing if it
// is not currently in from.
func (m *Multiplexer) Transition(id domain.ParticipantID, from, to core.SessionState) bool {
	e, ok := m.entry(id)
	if !ok {
		return false
	}
	return e.state.CompareAndSwap(int32(from), int32(to))
}

// Send enqueues f on the connection of id without blocking.
func (m *Multiplexer) Send(id domain.ParticipantID, f core.Frame) error {
	e, ok := m.entry(id)
	if !ok {
		return ErrUnknownSession
	}
	return e.Conn.TrySend(f)
}

func (m *Multiplexer) Cancel(id domain.ParticipantID) bool {
	e, ok := m.entry(id)
	if !ok {
		return false
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	log.Info().Str("module", "app.mux").Str("sid", string(id)).Msg("canceled session")
	return true
}

func (m *Multiplexer) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
