package app

import (
	"errors"

	"github.com/dkeye/TalkNet/internal/core"
	"github.com/dkeye/TalkNet/internal/domain"
	"github.com/dkeye/TalkNet/internal/metrics"
	"github.com/rs/zerolog/log"
)

// Broadcaster emits presence notifications to the members of a view.
// Its methods are called from Registry publish hooks, so they only enqueue.
type Broadcaster struct {
	Sessions *Multiplexer
}

func NewBroadcaster(sessions *Multiplexer) *Broadcaster {
	return &Broadcaster{Sessions: sessions}
}

// Joined tells every other member about v.Self. Existing members are the
// polite side toward the newcomer.
func (b *Broadcaster) Joined(v View) core.PublishResult {
	ev := core.PeerJoinedEvent{
		Type:      core.EventPeerJoined,
		MemberDTO: core.NewMemberDTO(v.Self, true),
	}
	return b.fanout(core.EventPeerJoined, v.OtherIDs(), ev)
}

// Left tells the remaining members that v.Self is gone.
func (b *Broadcaster) Left(v View) core.PublishResult {
	ev := core.PeerLeftEvent{Type: core.EventPeerLeft, ID: v.Self.ID}
	return b.fanout(core.EventPeerLeft, v.OtherIDs(), ev)
}

// Status relays only the applied delta.
func (b *Broadcaster) Status(v View, delta domain.StatusPatch) core.PublishResult {
	ev := core.PeerStatusEvent{
		Type:     core.EventPeerStatus,
		ID:       v.Self.ID,
		Muted:    delta.Muted,
		VideoOff: delta.VideoOff,
	}
	return b.fanout(core.EventPeerStatus, v.OtherIDs(), ev)
}

// Chat goes to the whole room, sender included.
func (b *Broadcaster) Chat(v View, message string) core.PublishResult {
	ev := core.ChatEvent{
		Type:    core.EventChat,
		Sender:  v.Self.ID,
		Name:    v.Self.Name,
		Message: message,
	}
	targets := append([]domain.ParticipantID{v.Self.ID}, v.OtherIDs()...)
	return b.fanout(core.EventChat, targets, ev)
}

func (b *Broadcaster) fanout(event string, targets []domain.ParticipantID, v any) core.PublishResult {
	res := core.PublishResult{}
	if len(targets) == 0 {
		return res
	}
	frame, err := core.Encode(v)
	if err != nil {
		log.Error().Err(err).Str("module", "app.presence").Str("event", event).Msg("encode")
		return res
	}
	for _, id := range targets {
		switch err := b.Sessions.Send(id, frame); {
		case err == nil:
			res.SendTo++
		case errors.Is(err, ErrUnknownSession), errors.Is(err, core.ErrConnClosed):
			// The member's connection is already tearing down; its own cleanup will follow.
		default:
			res.Dropped = append(res.Dropped, id)
		}
	}
	metrics.Broadcasts.WithLabelValues(event).Add(float64(res.SendTo))
	log.Debug().Str("module", "app.presence").Str("event", event).Int("sent_to", res.SendTo).
		Int("dropped", len(res.Dropped)).Msg("broadcast result")
	return res
}
