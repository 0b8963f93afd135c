package ws

import (
	"encoding/json"
	"time"

	"schnicken/internal/domain"
	"schnicken/internal/game"
)

// Envelope wraps every message in both directions.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// client → server
type SubmitPayload struct {
	GameID string       `json:"game_id"`
	Round  domain.Round `json:"round"`
	Value  int          `json:"value"`
}

type WagerPayload struct {
	GameID string `json:"game_id"`
	Value  int    `json:"value"`
}

// server → client
type GamePayload struct {
	Game *domain.Game `json:"game"`
	At   time.Time    `json:"at"`
}

type WagerSetPayload struct {
	Game  *domain.Game `json:"game"`
	Wager int          `json:"wager"`
	At    time.Time    `json:"at"`
}

// SubmissionPayload tells a player that somebody answered. Value is only
// present for the own number or once the round is complete.
type SubmissionPayload struct {
	Game          *domain.Game `json:"game"`
	PlayerID      string       `json:"player_id"`
	Round         domain.Round `json:"round"`
	Value         *int         `json:"value,omitempty"`
	RoundComplete bool         `json:"round_complete"`
	At            time.Time    `json:"at"`
}

type StatusPayload struct {
	Game    *domain.Game         `json:"game"`
	From    domain.GameStatus    `json:"from"`
	To      domain.GameStatus    `json:"to"`
	Numbers []game.VisibleNumber `json:"numbers"`
	At      time.Time            `json:"at"`
}

type ErrorPayload struct {
	Message string `json:"message"`
	Status  int    `json:"status,omitempty"`
}

func encode(msgType string, payload any) ([]byte, error) {
	env := Envelope{Type: msgType}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		env.Payload = raw
	}
	return json.Marshal(env)
}

// eventMessage renders e as the given player should see it. ok is false for
// events that player must not get.
func eventMessage(e domain.Event, playerID string) ([]byte, bool, error) {
	switch ev := e.(type) {
	case domain.GameCreated:
		b, err := encode(MsgGameCreated, GamePayload{Game: ev.Game, At: ev.At})
		return b, true, err
	case domain.WagerSet:
		b, err := encode(MsgWagerSet, WagerSetPayload{Game: ev.Game, Wager: ev.Wager, At: ev.At})
		return b, true, err
	case domain.SubmissionRecorded:
		p := SubmissionPayload{
			Game:          ev.Game,
			PlayerID:      ev.Submission.PlayerID,
			Round:         ev.Submission.Round,
			RoundComplete: ev.RoundComplete,
			At:            ev.At,
		}
		if ev.RoundComplete || ev.Submission.PlayerID == playerID {
			v := ev.Submission.Value
			p.Value = &v
		}
		b, err := encode(MsgSubmissionRecorded, p)
		return b, true, err
	case domain.GameStatusChanged:
		b, err := encode(MsgGameStatusChanged, StatusPayload{
			Game:    ev.Game,
			From:    ev.From,
			To:      ev.To,
			Numbers: game.RevealNumbers(ev.Game, ev.Submissions, playerID),
			At:      ev.At,
		})
		return b, true, err
	}
	return nil, false, nil
}
