package core

import (
	"encoding/json"

	"github.com/dkeye/TalkNet/internal/domain"
)

// Event names on the signaling socket.
const (
	EventJoin         = "join"
	EventJoined       = "joined"
	EventJoinError    = "join-error"
	EventPeerJoined   = "peer-joined"
	EventStatusUpdate = "status-update"
	EventPeerStatus   = "peer-status"
	EventLeave        = "leave"
	EventLeft         = "left"
	EventPeerLeft     = "peer-left"
	EventChat         = "chat"
	EventPing         = "ping"
	EventPong         = "pong"
	EventError        = "error"
)

// NegotiationKind names an opaque media negotiation payload.
// Kinds differ only in the event name used to deliver them.
type NegotiationKind string

const (
	KindOffer     NegotiationKind = "offer"
	KindAnswer    NegotiationKind = "answer"
	KindCandidate NegotiationKind = "candidate"
)

func (k NegotiationKind) Valid() bool {
	switch k {
	case KindOffer, KindAnswer, KindCandidate:
		return true
	}
	return false
}

type JoinedEvent struct {
	Type    string               `json:"type"`
	ID      domain.ParticipantID `json:"id"`
	Room    domain.RoomName      `json:"roomName"`
	Seq     uint64               `json:"seq"`
	Members []MemberDTO          `json:"members"`
}

type PeerJoinedEvent struct {
	Type string `json:"type"`
	MemberDTO
}

type PeerLeftEvent struct {
	Type string               `json:"type"`
	ID   domain.ParticipantID `json:"id"`
}

type PeerStatusEvent struct {
	Type     string               `json:"type"`
	ID       domain.ParticipantID `json:"id"`
	Muted    *bool                `json:"muted,omitempty"`
	VideoOff *bool                `json:"videoOff,omitempty"`
}

// NegotiationEvent carries a relayed payload. Sender is always stamped by the server.
type NegotiationEvent struct {
	Type    NegotiationKind      `json:"type"`
	Sender  domain.ParticipantID `json:"sender"`
	Payload json.RawMessage      `json:"payload"`
}

type ChatEvent struct {
	Type    string               `json:"type"`
	Sender  domain.ParticipantID `json:"sender"`
	Name    string               `json:"displayName"`
	Message string               `json:"message"`
}

type ReasonEvent struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

type BareEvent struct {
	Type string `json:"type"`
}

func Encode(v any) (Frame, error) {
	return json.Marshal(v)
}
