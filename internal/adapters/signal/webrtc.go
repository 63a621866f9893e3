package signal

import (
	"github.com/dkeye/TalkNet/internal/app/orch"
	"github.com/dkeye/TalkNet/internal/core"
	"github.com/dkeye/TalkNet/internal/domain"
	"github.com/rs/zerolog/log"
)

// handleNegotiation forwards offers, answers and candidates untouched.
// Only the routing field is read; a client-supplied sender is never decoded.
func (ctl *SignalWSController) handleNegotiation(
	sid domain.ParticipantID,
	conn *WsSignalConn,
	kind core.NegotiationKind,
	data []byte,
) {
	p, err := decode[relayPayload](data)
	if err == nil {
		err = p.validate()
	}
	if err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Str("kind", string(kind)).Msg("bad negotiation payload")
		ctl.sendError(conn, "bad_payload")
		return
	}

	if err := ctl.Orch.HandleNegotiation(sid, p.Target, kind, p.Payload); err != nil {
		if orch.IsStale(err) {
			log.Debug().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("negotiation ignored")
			return
		}
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("negotiation rejected")
	}
}
