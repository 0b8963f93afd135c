package domain

import "time"

// GameStatus - состояние шника
type GameStatus string

const (
	GameStatusOpen     GameStatus = "open"
	GameStatusRound2   GameStatus = "round2"
	GameStatusFinished GameStatus = "finished"
)

func (s GameStatus) Valid() bool {
	switch s {
	case GameStatusOpen, GameStatusRound2, GameStatusFinished:
		return true
	}
	return false
}

// GameResult - итог шника. Задаётся только вместе со статусом finished.
type GameResult string

const (
	GameResultSchnickerWins      GameResult = "schnicker_wins"
	GameResultAngeschnickterWins GameResult = "angeschnickter_wins"
	GameResultTie                GameResult = "tie"
)

func (r GameResult) Valid() bool {
	switch r {
	case GameResultSchnickerWins, GameResultAngeschnickterWins, GameResultTie:
		return true
	}
	return false
}

// Round - номер раунда (1 или 2)
type Round int

const (
	Round1 Round = 1
	Round2 Round = 2
)

func (r Round) Valid() bool {
	return r == Round1 || r == Round2
}

// Role of a player inside one game.
type Role string

const (
	RoleSchnicker      Role = "schnicker"
	RoleAngeschnickter Role = "angeschnickter"
)

// Game - один шник (вызов на задание)
type Game struct {
	ID               string      `db:"id" json:"id"`
	SchnickerID      string      `db:"schnicker_id" json:"schnicker_id"`
	AngeschnickterID string      `db:"angeschnickter_id" json:"angeschnickter_id"`
	Task             string      `db:"task" json:"task"`
	Wager            *int        `db:"wager" json:"wager"`
	Status           GameStatus  `db:"status" json:"status"`
	Result           *GameResult `db:"result" json:"result"`
	CreatedAt        time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time   `db:"updated_at" json:"updated_at"`
}

// Players returns schnicker and angeschnickter ids in that order.
func (g *Game) Players() [2]string {
	return [2]string{g.SchnickerID, g.AngeschnickterID}
}

// RoleOf returns the role of playerID, or false if the player is not part of the game.
func (g *Game) RoleOf(playerID string) (Role, bool) {
	switch playerID {
	case g.SchnickerID:
		return RoleSchnicker, true
	case g.AngeschnickterID:
		return RoleAngeschnickter, true
	}
	return "", false
}

// Opponent returns the other participant.
func (g *Game) Opponent(playerID string) string {
	if playerID == g.SchnickerID {
		return g.AngeschnickterID
	}
	return g.SchnickerID
}

func (g *Game) IsFinished() bool {
	return g.Status == GameStatusFinished
}

// ActiveRound is the round a player may currently submit for, 0 when finished.
func (g *Game) ActiveRound() Round {
	switch g.Status {
	case GameStatusOpen:
		return Round1
	case GameStatusRound2:
		return Round2
	}
	return 0
}

// Clone returns a deep copy so callers can mutate pointers safely.
func (g *Game) Clone() *Game {
	c := *g
	if g.Wager != nil {
		w := *g.Wager
		c.Wager = &w
	}
	if g.Result != nil {
		r := *g.Result
		c.Result = &r
	}
	return &c
}

// Submission - загаданное число игрока в раунде
type Submission struct {
	GameID    string    `db:"game_id" json:"game_id"`
	PlayerID  string    `db:"player_id" json:"player_id"`
	Round     Round     `db:"round" json:"round"`
	Value     int       `db:"value" json:"value"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// SubmissionsForRound filters subs down to one round, keeping order.
func SubmissionsForRound(subs []Submission, round Round) []Submission {
	var out []Submission
	for _, s := range subs {
		if s.Round == round {
			out = append(out, s)
		}
	}
	return out
}
