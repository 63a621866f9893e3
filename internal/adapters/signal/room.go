package signal

import (
	"errors"

	"github.com/dkeye/TalkNet/internal/app"
	"github.com/dkeye/TalkNet/internal/app/orch"
	"github.com/dkeye/TalkNet/internal/core"
	"github.com/dkeye/TalkNet/internal/domain"
	"github.com/rs/zerolog/log"
)

func joinErrorReason(err error) string {
	switch {
	case errors.Is(err, orch.ErrInvalidJoin):
		return "invalid_request"
	case errors.Is(err, app.ErrDuplicateJoin):
		return "duplicate_join"
	case errors.Is(err, orch.ErrSessionEnded):
		return "session_ended"
	default:
		return "internal"
	}
}

func (ctl *SignalWSController) handleJoin(
	sid domain.ParticipantID,
	conn *WsSignalConn,
	data []byte,
) {
	p, err := decode[joinPayload](data)
	if err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("bad join payload")
		ctl.sendJSON(conn, core.ReasonEvent{Type: core.EventJoinError, Reason: "bad_payload"})
		return
	}

	// On success the orchestrator has already queued the snapshot.
	if _, err := ctl.Orch.HandleJoin(sid, p.Room, p.Name); err != nil {
		reason := joinErrorReason(err)
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Str("room", p.Room).Str("reason", reason).Msg("join rejected")
		ctl.sendJSON(conn, core.ReasonEvent{Type: core.EventJoinError, Reason: reason})
	}
}

// handleLeave acknowledges the leave and closes the connection once the
// acknowledgement is flushed. A new connection gets a new identity.
func (ctl *SignalWSController) handleLeave(
	sid domain.ParticipantID,
	conn *WsSignalConn,
) {
	if err := ctl.Orch.HandleLeave(sid); err != nil {
		log.Debug().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("leave ignored")
		return
	}
	log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("leave")
	ctl.sendJSON(conn, core.BareEvent{Type: core.EventLeft})
	conn.CloseGracefully()
}
