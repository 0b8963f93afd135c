package repository

import (
	"context"
	"errors"
	"fmt"

	"schnicken/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// 23505 unique_violation
const pgUniqueViolation = "23505"

type PlayerRepository struct {
	db *pgxpool.Pool
}

func NewPlayerRepository(db *pgxpool.Pool) *PlayerRepository {
	return &PlayerRepository{db: db}
}

const playerColumns = `id, tg_id, name, avatar_url, created_at`

func (r *PlayerRepository) Create(ctx context.Context, p *domain.Player) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO players (id, tg_id, name, avatar_url)
		 VALUES ($1, $2, $3, $4)
		 RETURNING created_at`,
		p.ID,
		p.TgID,
		p.Name,
		p.AvatarURL,
	).Scan(&p.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create player: %w", err)
	}
	return nil
}

func (r *PlayerRepository) GetByID(ctx context.Context, id string) (*domain.Player, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+playerColumns+` FROM players WHERE id = $1`, id)
	return scanPlayer(row)
}

func (r *PlayerRepository) GetByTgID(ctx context.Context, tgID int64) (*domain.Player, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+playerColumns+` FROM players WHERE tg_id = $1`, tgID)
	return scanPlayer(row)
}

func (r *PlayerRepository) List(ctx context.Context) ([]*domain.Player, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+playerColumns+` FROM players ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	defer rows.Close()

	var res []*domain.Player
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, rows.Err()
}

func scanPlayer(row pgx.Row) (*domain.Player, error) {
	var p domain.Player
	if err := row.Scan(&p.ID, &p.TgID, &p.Name, &p.AvatarURL, &p.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan player: %w", err)
	}
	return &p, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
