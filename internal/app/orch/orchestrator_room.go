package orch

import (
	"errors"
	"fmt"

	"github.com/dkeye/TalkNet/internal/app"
	"github.com/dkeye/TalkNet/internal/core"
	"github.com/dkeye/TalkNet/internal/domain"
	"github.com/dkeye/TalkNet/internal/metrics"
	"github.com/rs/zerolog/log"
)

var (
	ErrInvalidJoin  = errors.New("invalid join request")
	ErrSessionEnded = errors.New("session already left")
)

// HandleJoin registers id in the room. The snapshot reaches the joiner
// before any member hears about the arrival.
func (o *Orchestrator) HandleJoin(id domain.ParticipantID, rawRoom, rawName string) (app.View, error) {
	roomName, err := domain.NewRoomName(rawRoom)
	if err != nil {
		metrics.Joins.WithLabelValues("invalid").Inc()
		return app.View{}, fmt.Errorf("%w: %w", ErrInvalidJoin, err)
	}
	name, err := domain.NormalizeDisplayName(rawName, o.MaxNameLen)
	if err != nil {
		metrics.Joins.WithLabelValues("invalid").Inc()
		return app.View{}, fmt.Errorf("%w: %w", ErrInvalidJoin, err)
	}

	state, ok := o.Sessions.State(id)
	if !ok {
		return app.View{}, app.ErrUnknownSession
	}
	switch state {
	case core.StateJoined:
		metrics.Joins.WithLabelValues("duplicate").Inc()
		return app.View{}, app.ErrDuplicateJoin
	case core.StateLeft:
		metrics.Joins.WithLabelValues("ended").Inc()
		return app.View{}, ErrSessionEnded
	}

	var res core.PublishResult
	view, err := o.Registry.Join(roomName, id, name, func(v app.View) {
		res.Merge(o.sendSnapshot(v))
		res.Merge(o.Presence.Joined(v))
	})
	if err != nil {
		if errors.Is(err, app.ErrDuplicateJoin) {
			metrics.Joins.WithLabelValues("duplicate").Inc()
		}
		return app.View{}, err
	}
	o.Sessions.Transition(id, core.StateUnregistered, core.StateJoined)
	metrics.Joins.WithLabelValues("ok").Inc()
	log.Info().Str("module", "orch").Str("sid", string(id)).Str("room", string(roomName)).Str("name", name).Msg("join")

	o.applyPolicy(roomName, res.Dropped)
	return view, nil
}

// sendSnapshot runs inside the Join critical section.
func (o *Orchestrator) sendSnapshot(v app.View) core.PublishResult {
	members := make([]core.MemberDTO, 0, len(v.Others))
	for _, p := range v.Others {
		// The joiner initiates toward every existing member.
		members = append(members, core.NewMemberDTO(p, false))
	}
	frame, err := core.Encode(core.JoinedEvent{
		Type:    core.EventJoined,
		ID:      v.Self.ID,
		Room:    v.Room,
		Seq:     v.Self.Seq,
		Members: members,
	})
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Msg("encode snapshot")
		return core.PublishResult{}
	}
	switch err := o.Sessions.Send(v.Self.ID, frame); {
	case err == nil:
		return core.PublishResult{SendTo: 1}
	case errors.Is(err, core.ErrBackpressure):
		return core.PublishResult{Dropped: []domain.ParticipantID{v.Self.ID}}
	default:
		return core.PublishResult{}
	}
}

// HandleLeave is an explicit leave. The session becomes Left for good.
func (o *Orchestrator) HandleLeave(id domain.ParticipantID) error {
	if state, ok := o.Sessions.State(id); !ok || state != core.StateJoined {
		return ErrNotInRoom
	}
	o.cleanupMembership(id, "leave")
	o.Sessions.Transition(id, core.StateJoined, core.StateLeft)
	return nil
}

// HandleDisconnect runs once the transport is gone. It shares cleanup with
// HandleLeave; whichever runs second is a no-op.
func (o *Orchestrator) HandleDisconnect(id domain.ParticipantID) {
	o.cleanupMembership(id, "disconnect")
	if o.Sessions.Detach(id) {
		metrics.Connections.Dec()
	}
}

func (o *Orchestrator) cleanupMembership(id domain.ParticipantID, cause string) bool {
	var res core.PublishResult
	view, err := o.Registry.Leave(id, func(v app.View) {
		res = o.Presence.Left(v)
	})
	if err != nil {
		if errors.Is(err, app.ErrNotFound) {
			log.Debug().Str("module", "orch").Str("sid", string(id)).Str("cause", cause).Msg("nothing to clean up")
		}
		return false
	}
	metrics.Leaves.WithLabelValues(cause).Inc()
	log.Info().Str("module", "orch").Str("sid", string(id)).Str("room", string(view.Room)).Str("cause", cause).Msg("removed from room")
	o.applyPolicy(view.Room, res.Dropped)
	return true
}

// HandleStatusUpdate broadcasts only what actually changed.
func (o *Orchestrator) HandleStatusUpdate(id domain.ParticipantID, patch domain.StatusPatch) error {
	if patch.Empty() {
		return nil
	}
	var res core.PublishResult
	view, _, err := o.Registry.UpdateStatus(id, patch, func(v app.View, delta domain.StatusPatch) {
		res = o.Presence.Status(v, delta)
	})
	if errors.Is(err, app.ErrNotFound) {
		return ErrNotInRoom
	}
	if err != nil {
		return err
	}
	o.applyPolicy(view.Room, res.Dropped)
	return nil
}
