package app

import "github.com/dkeye/TalkNet/internal/domain"

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	KickMember
)

// Policy decides what to do with a member whose send queue is full.
type Policy interface {
	OnBackPressure(room domain.RoomName, id domain.ParticipantID) BackpressureAction
}

// SimplePolicy kicks every slow member.
type SimplePolicy struct{}

func (SimplePolicy) OnBackPressure(domain.RoomName, domain.ParticipantID) BackpressureAction {
	return KickMember
}
