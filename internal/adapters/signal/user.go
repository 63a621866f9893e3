package signal

import (
	"github.com/dkeye/TalkNet/internal/domain"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) handleStatus(
	sid domain.ParticipantID,
	conn *WsSignalConn,
	data []byte,
) {
	p, err := decode[statusPayload](data)
	if err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("bad status payload")
		ctl.sendError(conn, "bad_payload")
		return
	}
	if err := ctl.Orch.HandleStatusUpdate(sid, p.patch()); err != nil {
		log.Debug().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("status update ignored")
	}
}

func (ctl *SignalWSController) handleChat(
	sid domain.ParticipantID,
	conn *WsSignalConn,
	data []byte,
) {
	p, err := decode[chatPayload](data)
	if err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("bad chat payload")
		ctl.sendError(conn, "bad_payload")
		return
	}
	if err := ctl.Orch.HandleChat(sid, p.Message); err != nil {
		log.Debug().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("chat ignored")
	}
}
