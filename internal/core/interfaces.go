package core

import "github.com/dkeye/TalkNet/internal/domain"

// PublishResult reports delivery stats/backpressure to orchestrator.
type PublishResult struct {
	SendTo  int
	Dropped []domain.ParticipantID
}

func (r *PublishResult) Merge(other PublishResult) {
	r.SendTo += other.SendTo
	r.Dropped = append(r.Dropped, other.Dropped...)
}

// MemberDTO is a read-only view for APIs (no transport fields).
// Polite tells the receiver its role toward this peer when offers collide.
type MemberDTO struct {
	ID       domain.ParticipantID `json:"id"`
	Name     string               `json:"displayName"`
	Muted    bool                 `json:"muted"`
	VideoOff bool                 `json:"videoOff"`
	Seq      uint64               `json:"seq"`
	Polite   bool                 `json:"polite"`
}

func NewMemberDTO(p domain.Participant, polite bool) MemberDTO {
	return MemberDTO{
		ID:       p.ID,
		Name:     p.Name,
		Muted:    p.Status.Muted,
		VideoOff: p.Status.VideoOff,
		Seq:      p.Seq,
		Polite:   polite,
	}
}

type RoomInfo struct {
	Name        domain.RoomName `json:"name"`
	MemberCount int             `json:"count"`
}
