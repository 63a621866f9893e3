package app

import (
	"encoding/json"
	"testing"

	"github.com/dkeye/TalkNet/internal/core"
	"github.com/dkeye/TalkNet/internal/core/mock"
	"github.com/dkeye/TalkNet/internal/domain"
	"go.uber.org/mock/gomock"
)

func decodeFrame(t *testing.T, f core.Frame) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(f, &m); err != nil {
		t.Fatalf("bad frame %q: %v", f, err)
	}
	return m
}

func TestBroadcasterJoinedSkipsSelf(t *testing.T) {
	ctrl := gomock.NewController(t)
	sessions := NewMultiplexer()
	self := mock.NewMockSignalConnection(ctrl)
	other := mock.NewMockSignalConnection(ctrl)
	selfID := sessions.Attach(self, nil, "")
	otherID := sessions.Attach(other, nil, "")

	var got core.Frame
	other.EXPECT().TrySend(gomock.Any()).DoAndReturn(func(f core.Frame) error {
		got = f
		return nil
	})

	b := NewBroadcaster(sessions)
	res := b.Joined(View{
		Room:   "demo",
		Self:   domain.Participant{ID: selfID, Name: "Bob", Seq: 2},
		Others: []domain.Participant{{ID: otherID, Name: "Alice", Seq: 1}},
	})
	if res.SendTo != 1 || len(res.Dropped) != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}

	ev := decodeFrame(t, got)
	if ev["type"] != core.EventPeerJoined || ev["id"] != string(selfID) || ev["displayName"] != "Bob" {
		t.Errorf("unexpected peer-joined frame: %v", ev)
	}
	if ev["polite"] != true {
		t.Error("existing members must be the polite side")
	}
}

func TestBroadcasterStatusCarriesOnlyDelta(t *testing.T) {
	ctrl := gomock.NewController(t)
	sessions := NewMultiplexer()
	other := mock.NewMockSignalConnection(ctrl)
	otherID := sessions.Attach(other, nil, "")

	var got core.Frame
	other.EXPECT().TrySend(gomock.Any()).DoAndReturn(func(f core.Frame) error {
		got = f
		return nil
	})

	muted := true
	b := NewBroadcaster(sessions)
	b.Status(View{
		Room:   "demo",
		Self:   domain.Participant{ID: "a"},
		Others: []domain.Participant{{ID: otherID}},
	}, domain.StatusPatch{Muted: &muted})

	ev := decodeFrame(t, got)
	if ev["type"] != core.EventPeerStatus || ev["id"] != "a" || ev["muted"] != true {
		t.Errorf("unexpected peer-status frame: %v", ev)
	}
	if _, ok := ev["videoOff"]; ok {
		t.Error("unchanged field must be omitted")
	}
}

func TestBroadcasterReportsBackpressure(t *testing.T) {
	ctrl := gomock.NewController(t)
	sessions := NewMultiplexer()
	slow := mock.NewMockSignalConnection(ctrl)
	closing := mock.NewMockSignalConnection(ctrl)
	slowID := sessions.Attach(slow, nil, "")
	closingID := sessions.Attach(closing, nil, "")

	slow.EXPECT().TrySend(gomock.Any()).Return(core.ErrBackpressure)
	closing.EXPECT().TrySend(gomock.Any()).Return(core.ErrConnClosed)

	b := NewBroadcaster(sessions)
	res := b.Left(View{
		Room:   "demo",
		Self:   domain.Participant{ID: "gone"},
		Others: []domain.Participant{{ID: slowID}, {ID: closingID}, {ID: "detached"}},
	})
	if res.SendTo != 0 {
		t.Errorf("expected no deliveries, got %d", res.SendTo)
	}
	if len(res.Dropped) != 1 || res.Dropped[0] != slowID {
		t.Errorf("only the slow member should be reported, got %v", res.Dropped)
	}
}

func TestBroadcasterChatIncludesSender(t *testing.T) {
	ctrl := gomock.NewController(t)
	sessions := NewMultiplexer()
	self := mock.NewMockSignalConnection(ctrl)
	other := mock.NewMockSignalConnection(ctrl)
	selfID := sessions.Attach(self, nil, "")
	otherID := sessions.Attach(other, nil, "")

	self.EXPECT().TrySend(gomock.Any()).Return(nil)
	other.EXPECT().TrySend(gomock.Any()).Return(nil)

	b := NewBroadcaster(sessions)
	res := b.Chat(View{
		Room:   "demo",
		Self:   domain.Participant{ID: selfID, Name: "Alice"},
		Others: []domain.Participant{{ID: otherID}},
	}, "hello")
	if res.SendTo != 2 {
		t.Errorf("expected 2 deliveries, got %d", res.SendTo)
	}
}
