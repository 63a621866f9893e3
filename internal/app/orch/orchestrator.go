package orch

import (
	"github.com/dkeye/TalkNet/internal/app"
	"github.com/dkeye/TalkNet/internal/core"
	"github.com/dkeye/TalkNet/internal/domain"
	"github.com/dkeye/TalkNet/internal/metrics"
	"github.com/rs/zerolog/log"
)

// Orchestrator sequences Registry mutations with presence and relay side
// effects so clients observe them in server causal order.
type Orchestrator struct {
	Registry *app.Registry
	Sessions *app.Multiplexer
	Presence *app.Broadcaster
	Relay    *app.Relay
	Policy   app.Policy

	// MaxNameLen bounds display names; zero means domain.MaxDisplayNameLen.
	MaxNameLen int
}

func New(reg *app.Registry, sessions *app.Multiplexer, policy app.Policy) *Orchestrator {
	return &Orchestrator{
		Registry: reg,
		Sessions: sessions,
		Presence: app.NewBroadcaster(sessions),
		Relay:    app.NewRelay(reg, sessions),
		Policy:   policy,
	}
}

// Connect allocates the handler entry of a new connection.
func (o *Orchestrator) Connect(conn core.SignalConnection, cancel func(), client string) domain.ParticipantID {
	id := o.Sessions.Attach(conn, cancel, client)
	metrics.Connections.Inc()
	return id
}

func (o *Orchestrator) Rooms() []core.RoomInfo {
	return o.Registry.Rooms()
}

// applyPolicy runs outside every room lock: kicking closes the connection,
// and the kicked reader performs its own disconnect cleanup.
func (o *Orchestrator) applyPolicy(room domain.RoomName, dropped []domain.ParticipantID) {
	if o.Policy == nil {
		return
	}
	for _, id := range dropped {
		switch o.Policy.OnBackPressure(room, id) {
		case app.KickMember:
			if o.Sessions.Cancel(id) {
				metrics.Kicks.Inc()
				log.Warn().Str("module", "orch").Str("sid", string(id)).Str("room", string(room)).Msg("kicked slow member")
			}
		case app.NoAction:
		}
	}
}
