package repository

import (
	"context"
	"errors"
	"time"

	"schnicken/internal/domain"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("already exists")
)

// Store is the persistence used by the services. Implemented by
// PostgresStore and sqlite.Store.
type Store interface {
	CreatePlayer(ctx context.Context, p *domain.Player) error
	GetPlayer(ctx context.Context, id string) (*domain.Player, error)
	GetPlayerByTgID(ctx context.Context, tgID int64) (*domain.Player, error)
	ListPlayers(ctx context.Context) ([]*domain.Player, error)

	CreateGame(ctx context.Context, g *domain.Game) error
	GetGame(ctx context.Context, id string) (*domain.Game, error)
	// ListActiveGamesByPlayer returns every unfinished game of playerID,
	// newest first. Not paged: an open game must never drop out of the list.
	ListActiveGamesByPlayer(ctx context.Context, playerID string) ([]*domain.Game, error)
	ListFinishedGamesByPlayer(ctx context.Context, playerID string, page Page) ([]*domain.Game, error)
	// ListGames pages through all games of the group, newest first.
	ListGames(ctx context.Context, page Page) ([]*domain.Game, error)
	ListFinishedGames(ctx context.Context) ([]*domain.Game, error)
	// ListSubmissions returns submissions of the given games ordered by
	// creation time. No ids means no submissions.
	ListSubmissions(ctx context.Context, gameIDs ...string) ([]domain.Submission, error)

	// UpdateGame runs fn while holding an exclusive lock on the game.
	// Anything fn writes through tx is committed only if fn returns nil.
	UpdateGame(ctx context.Context, gameID string, fn func(tx GameTx) error) error

	Ping(ctx context.Context) error
	Close() error
}

// GameTx is one locked game inside UpdateGame.
type GameTx interface {
	// Game is the locked row as read at the start of the transaction.
	Game() *domain.Game
	Submissions(ctx context.Context) ([]domain.Submission, error)
	// InsertSubmission returns ErrDuplicate if the player already
	// submitted for that round.
	InsertSubmission(ctx context.Context, s *domain.Submission) error
	SaveGame(ctx context.Context, g *domain.Game) error
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Page selects games older than the cursor game (BeforeAt, BeforeID),
// newest first. An empty BeforeID starts at the newest game.
type Page struct {
	Limit    int
	BeforeAt time.Time
	BeforeID string
}

// Size is Limit clamped to [1, MaxPageSize], DefaultPageSize when unset.
func (p Page) Size() int {
	switch {
	case p.Limit <= 0:
		return DefaultPageSize
	case p.Limit > MaxPageSize:
		return MaxPageSize
	}
	return p.Limit
}
