package signal

import "github.com/dkeye/TalkNet/internal/core"

func (ctl *SignalWSController) handlePing(
	conn *WsSignalConn,
) {
	ctl.sendJSON(conn, core.BareEvent{Type: core.EventPong})
}
