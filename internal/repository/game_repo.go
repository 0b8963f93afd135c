package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"schnicken/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type GameRepository struct {
	db *pgxpool.Pool
}

func NewGameRepository(db *pgxpool.Pool) *GameRepository {
	return &GameRepository{db: db}
}

const gameColumns = `id, schnicker_id, angeschnickter_id, task, wager, status, result, created_at, updated_at`

func (r *GameRepository) Create(ctx context.Context, g *domain.Game) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO games (id, schnicker_id, angeschnickter_id, task, wager, status, result)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING created_at, updated_at`,
		g.ID,
		g.SchnickerID,
		g.AngeschnickterID,
		g.Task,
		g.Wager,
		g.Status,
		g.Result,
	).Scan(&g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create game: %w", err)
	}
	return nil
}

func (r *GameRepository) GetByID(ctx context.Context, id string) (*domain.Game, error) {
	row := r.db.QueryRow(ctx, `SELECT `+gameColumns+` FROM games WHERE id = $1`, id)
	return scanGame(row)
}

func (r *GameRepository) GetActiveByPlayer(ctx context.Context, playerID string) ([]*domain.Game, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+gameColumns+`
		 FROM games
		 WHERE (schnicker_id = $1 OR angeschnickter_id = $1) AND status <> $2
		 ORDER BY created_at DESC, id DESC`,
		playerID, domain.GameStatusFinished,
	)
	if err != nil {
		return nil, fmt.Errorf("list active games: %w", err)
	}
	return collectGames(rows)
}

func (r *GameRepository) GetFinishedByPlayer(ctx context.Context, playerID string, page Page) ([]*domain.Game, error) {
	return r.getPage(ctx,
		`(schnicker_id = $1 OR angeschnickter_id = $1) AND status = $2`,
		[]any{playerID, domain.GameStatusFinished},
		page,
	)
}

func (r *GameRepository) GetPage(ctx context.Context, page Page) ([]*domain.Game, error) {
	return r.getPage(ctx, "", nil, page)
}

// getPage appends the cursor condition and the limit to where. where uses
// $1..$len(args).
func (r *GameRepository) getPage(ctx context.Context, where string, args []any, page Page) ([]*domain.Game, error) {
	var conds []string
	if where != "" {
		conds = append(conds, where)
	}
	if page.BeforeID != "" {
		n := len(args)
		conds = append(conds, fmt.Sprintf(`(created_at < $%d OR (created_at = $%d AND id < $%d))`, n+1, n+1, n+2))
		args = append(args, page.BeforeAt, page.BeforeID)
	}

	q := `SELECT ` + gameColumns + ` FROM games`
	if len(conds) > 0 {
		q += ` WHERE ` + strings.Join(conds, ` AND `)
	}
	q += fmt.Sprintf(` ORDER BY created_at DESC, id DESC LIMIT $%d`, len(args)+1)
	args = append(args, page.Size())

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list games page: %w", err)
	}
	return collectGames(rows)
}

func (r *GameRepository) GetFinished(ctx context.Context) ([]*domain.Game, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+gameColumns+` FROM games WHERE status = $1 ORDER BY created_at, id`,
		domain.GameStatusFinished,
	)
	if err != nil {
		return nil, fmt.Errorf("list finished games: %w", err)
	}
	return collectGames(rows)
}

func (r *GameRepository) Submissions(ctx context.Context, gameIDs []string) ([]domain.Submission, error) {
	if len(gameIDs) == 0 {
		return nil, nil
	}
	rows, err := r.db.Query(ctx,
		`SELECT game_id, player_id, round, value, created_at
		 FROM submissions
		 WHERE game_id = ANY($1)
		 ORDER BY created_at, round`,
		gameIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	return collectSubmissions(rows)
}

// Update locks the game row with SELECT ... FOR UPDATE and runs fn inside
// the same transaction.
func (r *GameRepository) Update(ctx context.Context, gameID string, fn func(tx GameTx) error) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	g, err := scanGame(tx.QueryRow(ctx,
		`SELECT `+gameColumns+` FROM games WHERE id = $1 FOR UPDATE`, gameID))
	if err != nil {
		return err
	}

	if err := fn(&pgGameTx{tx: tx, game: g}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

type pgGameTx struct {
	tx   pgx.Tx
	game *domain.Game
}

func (t *pgGameTx) Game() *domain.Game {
	return t.game
}

func (t *pgGameTx) Submissions(ctx context.Context) ([]domain.Submission, error) {
	rows, err := t.tx.Query(ctx,
		`SELECT game_id, player_id, round, value, created_at
		 FROM submissions
		 WHERE game_id = $1
		 ORDER BY created_at, round`,
		t.game.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	return collectSubmissions(rows)
}

func (t *pgGameTx) InsertSubmission(ctx context.Context, s *domain.Submission) error {
	err := t.tx.QueryRow(ctx,
		`INSERT INTO submissions (game_id, player_id, round, value)
		 VALUES ($1, $2, $3, $4)
		 RETURNING created_at`,
		s.GameID, s.PlayerID, s.Round, s.Value,
	).Scan(&s.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

func (t *pgGameTx) SaveGame(ctx context.Context, g *domain.Game) error {
	err := t.tx.QueryRow(ctx,
		`UPDATE games
		 SET wager = $2, status = $3, result = $4, updated_at = NOW()
		 WHERE id = $1
		 RETURNING updated_at`,
		g.ID, g.Wager, g.Status, g.Result,
	).Scan(&g.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save game: %w", err)
	}
	t.game = g
	return nil
}

func scanGame(row pgx.Row) (*domain.Game, error) {
	var g domain.Game
	if err := row.Scan(
		&g.ID,
		&g.SchnickerID,
		&g.AngeschnickterID,
		&g.Task,
		&g.Wager,
		&g.Status,
		&g.Result,
		&g.CreatedAt,
		&g.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan game: %w", err)
	}
	return &g, nil
}

func collectGames(rows pgx.Rows) ([]*domain.Game, error) {
	defer rows.Close()
	var res []*domain.Game
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, g)
	}
	return res, rows.Err()
}

func collectSubmissions(rows pgx.Rows) ([]domain.Submission, error) {
	defer rows.Close()
	var res []domain.Submission
	for rows.Next() {
		var s domain.Submission
		if err := rows.Scan(&s.GameID, &s.PlayerID, &s.Round, &s.Value, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		res = append(res, s)
	}
	return res, rows.Err()
}
