package domain

import (
	"errors"
	"strings"
)

var ErrRoomNameEmpty = errors.New("room name empty")

// RoomName is case-sensitive; "Demo" and "demo" are different rooms.
type RoomName string

func NewRoomName(raw string) (RoomName, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", ErrRoomNameEmpty
	}
	return RoomName(name), nil
}
