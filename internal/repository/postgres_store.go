package repository

import (
	"context"

	"schnicken/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore is the Store backed by a pgx pool.
type PostgresStore struct {
	db      *pgxpool.Pool
	players *PlayerRepository
	games   *GameRepository
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{
		db:      db,
		players: NewPlayerRepository(db),
		games:   NewGameRepository(db),
	}
}

func (s *PostgresStore) CreatePlayer(ctx context.Context, p *domain.Player) error {
	return s.players.Create(ctx, p)
}

func (s *PostgresStore) GetPlayer(ctx context.Context, id string) (*domain.Player, error) {
	return s.players.GetByID(ctx, id)
}

func (s *PostgresStore) GetPlayerByTgID(ctx context.Context, tgID int64) (*domain.Player, error) {
	return s.players.GetByTgID(ctx, tgID)
}

func (s *PostgresStore) ListPlayers(ctx context.Context) ([]*domain.Player, error) {
	return s.players.List(ctx)
}

func (s *PostgresStore) CreateGame(ctx context.Context, g *domain.Game) error {
	return s.games.Create(ctx, g)
}

func (s *PostgresStore) GetGame(ctx context.Context, id string) (*domain.Game, error) {
	return s.games.GetByID(ctx, id)
}

func (s *PostgresStore) ListActiveGamesByPlayer(ctx context.Context, playerID string) ([]*domain.Game, error) {
	return s.games.GetActiveByPlayer(ctx, playerID)
}

func (s *PostgresStore) ListFinishedGamesByPlayer(ctx context.Context, playerID string, page Page) ([]*domain.Game, error) {
	return s.games.GetFinishedByPlayer(ctx, playerID, page)
}

func (s *PostgresStore) ListGames(ctx context.Context, page Page) ([]*domain.Game, error) {
	return s.games.GetPage(ctx, page)
}

func (s *PostgresStore) ListFinishedGames(ctx context.Context) ([]*domain.Game, error) {
	return s.games.GetFinished(ctx)
}

func (s *PostgresStore) ListSubmissions(ctx context.Context, gameIDs ...string) ([]domain.Submission, error) {
	return s.games.Submissions(ctx, gameIDs)
}

func (s *PostgresStore) UpdateGame(ctx context.Context, gameID string, fn func(tx GameTx) error) error {
	return s.games.Update(ctx, gameID, fn)
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func (s *PostgresStore) Close() error {
	s.db.Close()
	return nil
}
