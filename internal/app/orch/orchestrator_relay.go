package orch

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/dkeye/TalkNet/internal/app"
	"github.com/dkeye/TalkNet/internal/core"
	"github.com/dkeye/TalkNet/internal/domain"
)

var ErrNotInRoom = app.ErrNotInRoom

// HandleNegotiation relays an offer, answer or candidate to target.
func (o *Orchestrator) HandleNegotiation(id, target domain.ParticipantID, kind core.NegotiationKind, payload json.RawMessage) error {
	res, err := o.Relay.Forward(id, target, kind, payload)
	if err != nil {
		return err
	}
	if len(res.Dropped) > 0 {
		room, _ := o.Registry.RoomOf(id)
		o.applyPolicy(room, res.Dropped)
	}
	return nil
}

// HandleChat broadcasts a trimmed chat line to the whole room. Blank lines are dropped.
func (o *Orchestrator) HandleChat(id domain.ParticipantID, message string) error {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil
	}
	var res core.PublishResult
	view, ok := o.Registry.View(id, func(v app.View) {
		res = o.Presence.Chat(v, message)
	})
	if !ok {
		return ErrNotInRoom
	}
	o.applyPolicy(view.Room, res.Dropped)
	return nil
}

func IsStale(err error) bool {
	return errors.Is(err, ErrNotInRoom) || errors.Is(err, app.ErrUnknownSession)
}
