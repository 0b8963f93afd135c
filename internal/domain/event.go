package domain

import "time"

// EventType identifies a game event on the feed.
type EventType string

const (
	EventGameCreated        EventType = "game_created"
	EventWagerSet           EventType = "wager_set"
	EventSubmissionRecorded EventType = "submission_recorded"
	EventGameStatusChanged  EventType = "game_status_changed"
)

// Event is something that happened to one game. Every event carries the game
// as it looked right after the change.
type Event interface {
	Type() EventType
	GameID() string
	Snapshot() *Game
	OccurredAt() time.Time
}

type GameCreated struct {
	Game *Game     `json:"game"`
	At   time.Time `json:"at"`
}

func (e GameCreated) Type() EventType       { return EventGameCreated }
func (e GameCreated) GameID() string        { return e.Game.ID }
func (e GameCreated) Snapshot() *Game       { return e.Game }
func (e GameCreated) OccurredAt() time.Time { return e.At }

type WagerSet struct {
	Game     *Game     `json:"game"`
	PlayerID string    `json:"player_id"`
	Wager    int       `json:"wager"`
	At       time.Time `json:"at"`
}

func (e WagerSet) Type() EventType       { return EventWagerSet }
func (e WagerSet) GameID() string        { return e.Game.ID }
func (e WagerSet) Snapshot() *Game       { return e.Game }
func (e WagerSet) OccurredAt() time.Time { return e.At }

// SubmissionRecorded is published after a number was stored. RoundComplete is
// true when it was the second number of the round.
type SubmissionRecorded struct {
	Game          *Game      `json:"game"`
	Submission    Submission `json:"submission"`
	RoundComplete bool       `json:"round_complete"`
	At            time.Time  `json:"at"`
}

func (e SubmissionRecorded) Type() EventType       { return EventSubmissionRecorded }
func (e SubmissionRecorded) GameID() string        { return e.Game.ID }
func (e SubmissionRecorded) Snapshot() *Game       { return e.Game }
func (e SubmissionRecorded) OccurredAt() time.Time { return e.At }

// GameStatusChanged is published once per resolved round. Submissions holds
// every number of the game at that moment.
type GameStatusChanged struct {
	Game        *Game        `json:"game"`
	From        GameStatus   `json:"from"`
	To          GameStatus   `json:"to"`
	Submissions []Submission `json:"submissions"`
	At          time.Time    `json:"at"`
}

func (e GameStatusChanged) Type() EventType       { return EventGameStatusChanged }
func (e GameStatusChanged) GameID() string        { return e.Game.ID }
func (e GameStatusChanged) Snapshot() *Game       { return e.Game }
func (e GameStatusChanged) OccurredAt() time.Time { return e.At }
