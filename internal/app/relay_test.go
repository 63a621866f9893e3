package app

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/dkeye/TalkNet/internal/core"
	"github.com/dkeye/TalkNet/internal/core/mock"
	"github.com/dkeye/TalkNet/internal/domain"
	"go.uber.org/mock/gomock"
)

type relayFixture struct {
	reg      *Registry
	sessions *Multiplexer
	relay    *Relay
}

func newRelayFixture() *relayFixture {
	reg := NewRegistry()
	sessions := NewMultiplexer()
	return &relayFixture{reg: reg, sessions: sessions, relay: NewRelay(reg, sessions)}
}

func TestRelayStampsSender(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := newRelayFixture()
	a := f.sessions.Attach(mock.NewMockSignalConnection(ctrl), nil, "")
	bConn := mock.NewMockSignalConnection(ctrl)
	b := f.sessions.Attach(bConn, nil, "")
	_, _ = f.reg.Join("demo", a, "Alice", nil)
	_, _ = f.reg.Join("demo", b, "Bob", nil)

	var got core.Frame
	bConn.EXPECT().TrySend(gomock.Any()).DoAndReturn(func(fr core.Frame) error {
		got = fr
		return nil
	})

	payload := json.RawMessage(`{"sdp":"v=0","type":"offer"}`)
	res, err := f.relay.Forward(a, b, core.KindOffer, payload)
	if err != nil {
		t.Fatal(err)
	}
	if res.SendTo != 1 {
		t.Errorf("expected one delivery, got %+v", res)
	}

	var ev core.NegotiationEvent
	if err := json.Unmarshal(got, &ev); err != nil {
		t.Fatal(err)
	}
	if ev.Type != core.KindOffer || ev.Sender != a {
		t.Errorf("unexpected event header: %+v", ev)
	}
	if string(ev.Payload) != string(payload) {
		t.Errorf("payload altered: %s", ev.Payload)
	}
}

func TestRelayDropsSilently(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := newRelayFixture()
	a := f.sessions.Attach(mock.NewMockSignalConnection(ctrl), nil, "")
	// No TrySend expectations: any delivery fails the test.
	c := f.sessions.Attach(mock.NewMockSignalConnection(ctrl), nil, "")
	_, _ = f.reg.Join("demo", a, "Alice", nil)
	_, _ = f.reg.Join("elsewhere", c, "Carol", nil)

	cases := map[string]struct {
		target domain.ParticipantID
	}{
		"self":         {target: a},
		"other room":   {target: c},
		"never joined": {target: "ghost"},
	}
	for name, tc := range cases {
		tc := tc
		t.Run(name, func(t *testing.T) {
			res, err := f.relay.Forward(a, tc.target, core.KindCandidate, json.RawMessage(`{}`))
			if err != nil {
				t.Errorf("expected silent drop, got %v", err)
			}
			if res.SendTo != 0 || len(res.Dropped) != 0 {
				t.Errorf("unexpected result: %+v", res)
			}
		})
	}
}

func TestRelayRequiresRoomAndKind(t *testing.T) {
	f := newRelayFixture()
	if _, err := f.relay.Forward("a", "b", core.KindAnswer, nil); !errors.Is(err, ErrNotInRoom) {
		t.Errorf("expected ErrNotInRoom, got %v", err)
	}
	if _, err := f.relay.Forward("a", "b", core.NegotiationKind("renegotiate"), nil); !errors.Is(err, ErrInvalidKind) {
		t.Errorf("expected ErrInvalidKind, got %v", err)
	}
}

func TestRelayReportsSlowTarget(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := newRelayFixture()
	a := f.sessions.Attach(mock.NewMockSignalConnection(ctrl), nil, "")
	bConn := mock.NewMockSignalConnection(ctrl)
	b := f.sessions.Attach(bConn, nil, "")
	_, _ = f.reg.Join("demo", a, "Alice", nil)
	_, _ = f.reg.Join("demo", b, "Bob", nil)

	bConn.EXPECT().TrySend(gomock.Any()).Return(core.ErrBackpressure)

	res, err := f.relay.Forward(a, b, core.KindAnswer, json.RawMessage(`{}`))
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Dropped) != 1 || res.Dropped[0] != b {
		t.Errorf("expected b reported as dropped, got %+v", res)
	}
}
