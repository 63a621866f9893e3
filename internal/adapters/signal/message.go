package signal

import (
	"encoding/json"
	"errors"

	"github.com/dkeye/TalkNet/internal/domain"
)

var errMissingField = errors.New("missing field")

// envelope is the discriminator every inbound frame carries.
type envelope struct {
	Type string `json:"type"`
}

type joinPayload struct {
	Room string `json:"roomName"`
	Name string `json:"displayName"`
}

// relayPayload deliberately has no sender field: the server stamps it.
type relayPayload struct {
	Target  domain.ParticipantID `json:"target"`
	Payload json.RawMessage      `json:"payload"`
}

func (p relayPayload) validate() error {
	if p.Target == "" || len(p.Payload) == 0 {
		return errMissingField
	}
	return nil
}

type statusPayload struct {
	Muted    *bool `json:"muted"`
	VideoOff *bool `json:"videoOff"`
}

func (p statusPayload) patch() domain.StatusPatch {
	return domain.StatusPatch{Muted: p.Muted, VideoOff: p.VideoOff}
}

type chatPayload struct {
	Message string `json:"message"`
}

func decode[T any](data []byte) (T, error) {
	var v T
	err := json.Unmarshal(data, &v)
	return v, err
}
