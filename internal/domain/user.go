// Package domain contains entity without logic, just meta-data
package domain

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

const MaxDisplayNameLen = 36

var (
	ErrDisplayNameTooLong = errors.New("display name too long")
	ErrDisplayNameEmpty   = errors.New("display name empty")
)

// ParticipantID is the connection identifier. One live connection, one id.
type ParticipantID string

func NewParticipantID() ParticipantID {
	return ParticipantID(uuid.NewString())
}

// NormalizeDisplayName trims the user supplied name and checks its bounds.
// maxLen <= 0 falls back to MaxDisplayNameLen.
func NormalizeDisplayName(raw string, maxLen int) (string, error) {
	if maxLen <= 0 {
		maxLen = MaxDisplayNameLen
	}
	name := strings.TrimSpace(raw)
	if len(name) == 0 {
		return "", ErrDisplayNameEmpty
	}
	if len(name) > maxLen {
		return "", ErrDisplayNameTooLong
	}
	return name, nil
}
