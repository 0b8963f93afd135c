package events

import (
	"encoding/json"
	"fmt"

	"schnicken/internal/domain"
)

// Envelope is the wire form of an event between instances.
type Envelope struct {
	Type    domain.EventType `json:"type"`
	Origin  string           `json:"origin"`
	Payload json.RawMessage  `json:"payload"`
}

func Encode(origin string, e domain.Event) ([]byte, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", e.Type(), err)
	}
	return json.Marshal(Envelope{Type: e.Type(), Origin: origin, Payload: payload})
}

// Decode turns an envelope back into the concrete event.
func Decode(data []byte) (string, domain.Event, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return "", nil, fmt.Errorf("unmarshal envelope: %w", err)
	}

	var (
		e   domain.Event
		err error
	)
	switch env.Type {
	case domain.EventGameCreated:
		var v domain.GameCreated
		err = json.Unmarshal(env.Payload, &v)
		e = v
	case domain.EventWagerSet:
		var v domain.WagerSet
		err = json.Unmarshal(env.Payload, &v)
		e = v
	case domain.EventSubmissionRecorded:
		var v domain.SubmissionRecorded
		err = json.Unmarshal(env.Payload, &v)
		e = v
	case domain.EventGameStatusChanged:
		var v domain.GameStatusChanged
		err = json.Unmarshal(env.Payload, &v)
		e = v
	default:
		return env.Origin, nil, fmt.Errorf("unknown event type %q", env.Type)
	}
	if err != nil {
		return env.Origin, nil, fmt.Errorf("unmarshal %s: %w", env.Type, err)
	}
	if e.Snapshot() == nil {
		return env.Origin, nil, fmt.Errorf("%s without game", env.Type)
	}
	return env.Origin, e, nil
}
