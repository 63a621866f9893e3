package app

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dkeye/TalkNet/internal/core"
	"github.com/dkeye/TalkNet/internal/domain"
	"github.com/dkeye/TalkNet/internal/metrics"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	ErrNotInRoom   = errors.New("not in room")
	ErrInvalidKind = errors.New("invalid negotiation kind")
)

// Relay forwards negotiation payloads between two members of the same room.
// It never mutates the Registry and never looks inside a payload.
type Relay struct {
	Registry *Registry
	Sessions *Multiplexer
}

func NewRelay(reg *Registry, sessions *Multiplexer) *Relay {
	return &Relay{Registry: reg, Sessions: sessions}
}

// Forward delivers payload to target stamped with sender. A target that is
// gone, in another room, or the sender itself is dropped without error.
func (r *Relay) Forward(sender, target domain.ParticipantID, kind core.NegotiationKind, payload json.RawMessage) (core.PublishResult, error) {
	res := core.PublishResult{}
	if !kind.Valid() {
		return res, fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}
	room, ok := r.Registry.RoomOf(sender)
	if !ok {
		return res, ErrNotInRoom
	}

	logger := log.With().Str("module", "app.relay").Str("sid", string(sender)).
		Str("target", string(target)).Str("kind", string(kind)).Logger()

	if target == sender {
		r.drop(&logger, "self")
		return res, nil
	}
	if targetRoom, ok := r.Registry.RoomOf(target); !ok || targetRoom != room {
		r.drop(&logger, "absent")
		return res, nil
	}

	frame, err := core.Encode(core.NegotiationEvent{Type: kind, Sender: sender, Payload: payload})
	if err != nil {
		return res, fmt.Errorf("encode %s: %w", kind, err)
	}
	switch err := r.Sessions.Send(target, frame); {
	case err == nil:
		res.SendTo++
		metrics.Relayed.WithLabelValues(string(kind)).Inc()
		logger.Debug().Msg("relayed")
	case errors.Is(err, ErrUnknownSession), errors.Is(err, core.ErrConnClosed):
		r.drop(&logger, "closed")
	default:
		res.Dropped = append(res.Dropped, target)
		r.drop(&logger, "backpressure")
	}
	return res, nil
}

func (r *Relay) drop(logger *zerolog.Logger, reason string) {
	metrics.RelayDropped.WithLabelValues(reason).Inc()
	logger.Debug().Str("reason", reason).Msg("relay dropped")
}
