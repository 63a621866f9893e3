package app

import (
	"errors"
	"slices"
	"strings"
	"sync"

	"github.com/dkeye/TalkNet/internal/core"
	"github.com/dkeye/TalkNet/internal/domain"
	"github.com/dkeye/TalkNet/internal/metrics"
	"github.com/rs/zerolog/log"
)

var (
	ErrDuplicateJoin = errors.New("participant already joined")
	ErrNotFound      = errors.New("participant not found")
)

// View is a membership view captured inside a room's critical section.
// Others never contains Self and is ordered by join sequence.
type View struct {
	Room   domain.RoomName
	Self   domain.Participant
	Others []domain.Participant
}

func (v View) OtherIDs() []domain.ParticipantID {
	out := make([]domain.ParticipantID, 0, len(v.Others))
	for _, p := range v.Others {
		out = append(out, p.ID)
	}
	return out
}

// PublishFunc runs inside the room critical section with the
// post-mutation view. It must only enqueue, never block on I/O.
type PublishFunc func(View)

// StatusPublishFunc is PublishFunc for status updates, with the applied delta.
type StatusPublishFunc func(View, domain.StatusPatch)

type roomState struct {
	name    domain.RoomName
	mu      sync.Mutex
	members map[domain.ParticipantID]*domain.Participant
	nextSeq uint64
	// closed is set once the room is emptied and unlinked from the table.
	closed bool
}

func (rs *roomState) othersLocked(self domain.ParticipantID) []domain.Participant {
	out := make([]domain.Participant, 0, len(rs.members))
	for id, p := range rs.members {
		if id == self {
			continue
		}
		out = append(out, *p)
	}
	slices.SortFunc(out, func(a, b domain.Participant) int {
		switch {
		case a.Seq < b.Seq:
			return -1
		case a.Seq > b.Seq:
			return 1
		}
		return 0
	})
	return out
}

// Registry is the authoritative in-memory room membership.
// Room mutations are serialized per room; mu only guards the room table
// and the participant index and is never held while waiting on a room.
// Lock order: roomState.mu before Registry.mu.
type Registry struct {
	mu    sync.Mutex
	rooms map[domain.RoomName]*roomState
	// index maps a participant to its room. A nil value marks a join in flight.
	index map[domain.ParticipantID]*roomState
}

func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[domain.RoomName]*roomState),
		index: make(map[domain.ParticipantID]*roomState),
	}
}

func (r *Registry) claim(id domain.ParticipantID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.index[id]; ok {
		return false
	}
	r.index[id] = nil
	return true
}

func (r *Registry) acquire(name domain.RoomName) *roomState {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rs, ok := r.rooms[name]; ok {
		return rs
	}
	rs := &roomState{
		name:    name,
		members: make(map[domain.ParticipantID]*domain.Participant),
	}
	r.rooms[name] = rs
	metrics.Rooms.Inc()
	log.Info().Str("module", "app.registry").Str("room", string(name)).Msg("room created")
	return rs
}

func (r *Registry) roomFor(id domain.ParticipantID) *roomState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.index[id]
}

func (r *Registry) lookupRoom(name domain.RoomName) *roomState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rooms[name]
}

// Join inserts id into the room, creating it if absent. The returned view
// holds the snapshot of every other member at the moment of insertion.
func (r *Registry) Join(name domain.RoomName, id domain.ParticipantID, displayName string, publish PublishFunc) (View, error) {
	if !r.claim(id) {
		return View{}, ErrDuplicateJoin
	}
	for {
		rs := r.acquire(name)
		rs.mu.Lock()
		if rs.closed {
			// Lost a race with the last leave; the table now holds a fresh room or none.
			rs.mu.Unlock()
			continue
		}
		rs.nextSeq++
		p := &domain.Participant{ID: id, Name: displayName, Seq: rs.nextSeq}
		view := View{Room: name, Self: *p, Others: rs.othersLocked(id)}
		rs.members[id] = p

		r.mu.Lock()
		r.index[id] = rs
		r.mu.Unlock()

		if publish != nil {
			publish(view)
		}
		rs.mu.Unlock()

		metrics.Participants.Inc()
		log.Info().Str("module", "app.registry").Str("sid", string(id)).Str("room", string(name)).
			Uint64("seq", p.Seq).Int("others", len(view.Others)).Msg("joined")
		return view, nil
	}
}

// Leave removes id from its room and deletes the room once empty.
// A second call for the same id returns ErrNotFound.
func (r *Registry) Leave(id domain.ParticipantID, publish PublishFunc) (View, error) {
	rs := r.roomFor(id)
	if rs == nil {
		return View{}, ErrNotFound
	}
	rs.mu.Lock()
	defer rs.mu.Unlock()
	p, ok := rs.members[id]
	if !ok {
		return View{}, ErrNotFound
	}
	delete(rs.members, id)
	view := View{Room: rs.name, Self: *p, Others: rs.othersLocked("")}

	r.mu.Lock()
	delete(r.index, id)
	if len(rs.members) == 0 {
		rs.closed = true
		if r.rooms[rs.name] == rs {
			delete(r.rooms, rs.name)
		}
	}
	r.mu.Unlock()

	if publish != nil {
		publish(view)
	}

	metrics.Participants.Dec()
	log.Info().Str("module", "app.registry").Str("sid", string(id)).Str("room", string(rs.name)).
		Int("remaining", len(view.Others)).Msg("left")
	if rs.closed {
		metrics.Rooms.Dec()
		log.Info().Str("module", "app.registry").Str("room", string(rs.name)).Msg("room removed")
	}
	return view, nil
}

// UpdateStatus applies the present fields of patch. publish only runs when
// the applied delta is non-empty.
func (r *Registry) UpdateStatus(id domain.ParticipantID, patch domain.StatusPatch, publish StatusPublishFunc) (View, domain.StatusPatch, error) {
	rs := r.roomFor(id)
	if rs == nil {
		return View{}, domain.StatusPatch{}, ErrNotFound
	}
	rs.mu.Lock()
	defer rs.mu.Unlock()
	p, ok := rs.members[id]
	if !ok {
		return View{}, domain.StatusPatch{}, ErrNotFound
	}
	delta := p.Status.Apply(patch)
	view := View{Room: rs.name, Self: *p, Others: rs.othersLocked(id)}
	if !delta.Empty() && publish != nil {
		publish(view, delta)
	}
	log.Debug().Str("module", "app.registry").Str("sid", string(id)).Str("room", string(rs.name)).
		Bool("muted", p.Status.Muted).Bool("video_off", p.Status.VideoOff).Msg("status updated")
	return view, delta, nil
}

// View returns the current view of id's room, with publish run under the room lock.
func (r *Registry) View(id domain.ParticipantID, publish PublishFunc) (View, bool) {
	rs := r.roomFor(id)
	if rs == nil {
		return View{}, false
	}
	rs.mu.Lock()
	defer rs.mu.Unlock()
	p, ok := rs.members[id]
	if !ok {
		return View{}, false
	}
	view := View{Room: rs.name, Self: *p, Others: rs.othersLocked(id)}
	if publish != nil {
		publish(view)
	}
	return view, true
}

func (r *Registry) RoomOf(id domain.ParticipantID) (domain.RoomName, bool) {
	rs := r.roomFor(id)
	if rs == nil {
		return "", false
	}
	return rs.name, true
}

func (r *Registry) Lookup(id domain.ParticipantID) (domain.Participant, bool) {
	rs := r.roomFor(id)
	if rs == nil {
		return domain.Participant{}, false
	}
	rs.mu.Lock()
	defer rs.mu.Unlock()
	p, ok := rs.members[id]
	if !ok {
		return domain.Participant{}, false
	}
	return *p, true
}

func (r *Registry) Members(name domain.RoomName) []domain.Participant {
	rs := r.lookupRoom(name)
	if rs == nil {
		return nil
	}
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return rs.othersLocked("")
}

func (r *Registry) HasRoom(name domain.RoomName) bool {
	return r.lookupRoom(name) != nil
}

func (r *Registry) Rooms() []core.RoomInfo {
	r.mu.Lock()
	rooms := make([]*roomState, 0, len(r.rooms))
	for _, rs := range r.rooms {
		rooms = append(rooms, rs)
	}
	r.mu.Unlock()

	out := make([]core.RoomInfo, 0, len(rooms))
	for _, rs := range rooms {
		rs.mu.Lock()
		n := len(rs.members)
		rs.mu.Unlock()
		if n == 0 {
			continue
		}
		out = append(out, core.RoomInfo{Name: rs.name, MemberCount: n})
	}
	slices.SortFunc(out, func(a, b core.RoomInfo) int {
		return strings.Compare(string(a.Name), string(b.Name))
	})
	return out
}
