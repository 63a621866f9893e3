package domain

// Status is the media state a participant advertises to its room.
type Status struct {
	Muted    bool `json:"muted"`
	VideoOff bool `json:"videoOff"`
}

// StatusPatch is a partial status update. Nil fields are left untouched.
type StatusPatch struct {
	Muted    *bool `json:"muted,omitempty"`
	VideoOff *bool `json:"videoOff,omitempty"`
}

func (p StatusPatch) Empty() bool {
	return p.Muted == nil && p.VideoOff == nil
}

// Apply merges p into s and returns only the fields whose value changed.
func (s *Status) Apply(p StatusPatch) StatusPatch {
	var delta StatusPatch
	if p.Muted != nil && *p.Muted != s.Muted {
		s.Muted = *p.Muted
		v := s.Muted
		delta.Muted = &v
	}
	if p.VideoOff != nil && *p.VideoOff != s.VideoOff {
		s.VideoOff = *p.VideoOff
		v := s.VideoOff
		delta.VideoOff = &v
	}
	return delta
}

// Participant represents a connection's membership meta for a room.
// No transport or lifecycle logic here.
type Participant struct {
	ID     ParticipantID
	Name   string
	Status Status
	// Seq is the join order inside the room, starting at 1.
	Seq uint64
}
