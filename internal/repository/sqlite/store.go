// Package sqlite is a single-file Store for local runs and tests.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"schnicken/internal/domain"
	"schnicken/internal/repository"
	"schnicken/internal/repository/sqlite/migrations"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// Store persists players, games and submissions in SQLite.
type Store struct {
	db  *sql.DB
	now func() time.Time

	// один писатель: UpdateGame держит его на всю транзакцию
	writeMu sync.Mutex
}

var _ repository.Store = (*Store)(nil)

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(v int64) time.Time {
	return time.UnixMilli(v).UTC()
}

// Open opens the database at path and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := "file:" + filepath.Clean(path) +
		"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(context.Background(), db, migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) CreatePlayer(ctx context.Context, p *domain.Player) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO players (id, tg_id, name, avatar_url, created_at) VALUES (?, ?, ?, ?, ?)`,
		p.ID, nullInt64(p.TgID), p.Name, nullString(p.AvatarURL), toMillis(p.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("create player: %w", err)
	}
	return nil
}

const playerColumns = `id, tg_id, name, avatar_url, created_at`

func (s *Store) GetPlayer(ctx context.Context, id string) (*domain.Player, error) {
	return scanPlayer(s.db.QueryRowContext(ctx, `SELECT `+playerColumns+` FROM players WHERE id = ?`, id))
}

func (s *Store) GetPlayerByTgID(ctx context.Context, tgID int64) (*domain.Player, error) {
	return scanPlayer(s.db.QueryRowContext(ctx, `SELECT `+playerColumns+` FROM players WHERE tg_id = ?`, tgID))
}

func (s *Store) ListPlayers(ctx context.Context) ([]*domain.Player, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+playerColumns+` FROM players ORDER BY name, id`)
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

func (s *Store) CreateGame(ctx context.Context, g *domain.Game) error {
	now := s.now().UTC()
	if g.CreatedAt.IsZero() {
		g.CreatedAt = now
	}
	g.UpdatedAt = g.CreatedAt
	if g.Status == "" {
		g.Status = domain.GameStatusOpen
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO games (id, schnicker_id, angeschnickter_id, task, wager, status, result, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.SchnickerID, g.AngeschnickterID, g.Task,
		nullInt(g.Wager), string(g.Status), nullResult(g.Result),
		toMillis(g.CreatedAt), toMillis(g.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("create game: %w", err)
	}
	return nil
}

const gameColumns = `id, schnicker_id, angeschnickter_id, task, wager, status, result, created_at, updated_at`

func (s *Store) GetGame(ctx context.Context, id string) (*domain.Game, error) {
	return scanGame(s.db.QueryRowContext(ctx, `SELECT `+gameColumns+` FROM games WHERE id = ?`, id))
}

func (s *Store) ListActiveGamesByPlayer(ctx context.Context, playerID string) ([]*domain.Game, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+gameColumns+` FROM games
		 WHERE (schnicker_id = ? OR angeschnickter_id = ?) AND status <> ?
		 ORDER BY created_at DESC, id DESC`,
		playerID, playerID, string(domain.GameStatusFinished),
	)
	if err != nil {
		return nil, fmt.Errorf("list active games: %w", err)
	}
	return collectGames(rows)
}

func (s *Store) ListFinishedGamesByPlayer(ctx context.Context, playerID string, page repository.Page) ([]*domain.Game, error) {
	return s.listPage(ctx,
		`(schnicker_id = ? OR angeschnickter_id = ?) AND status = ?`,
		[]any{playerID, playerID, string(domain.GameStatusFinished)},
		page,
	)
}

func (s *Store) ListGames(ctx context.Context, page repository.Page) ([]*domain.Game, error) {
	return s.listPage(ctx, "", nil, page)
}

func (s *Store) listPage(ctx context.Context, where string, args []any, page repository.Page) ([]*domain.Game, error) {
	var conds []string
	if where != "" {
		conds = append(conds, where)
	}
	if page.BeforeID != "" {
		at := toMillis(page.BeforeAt)
		conds = append(conds, `(created_at < ? OR (created_at = ? AND id < ?))`)
		args = append(args, at, at, page.BeforeID)
	}

	q := `SELECT ` + gameColumns + ` FROM games`
	if len(conds) > 0 {
		q += ` WHERE ` + strings.Join(conds, ` AND `)
	}
	q += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, page.Size())

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list games page: %w", err)
	}
	return collectGames(rows)
}

func (s *Store) ListFinishedGames(ctx context.Context) ([]*domain.Game, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+gameColumns+` FROM games WHERE status = ? ORDER BY created_at, id`,
		string(domain.GameStatusFinished),
	)
	if err != nil {
		return nil, fmt.Errorf("list finished games: %w", err)
	}
	return collectGames(rows)
}

// submissionBatch stays well below SQLITE_MAX_VARIABLE_NUMBER.
const submissionBatch = 500

func (s *Store) ListSubmissions(ctx context.Context, gameIDs ...string) ([]domain.Submission, error) {
	if len(gameIDs) == 0 {
		return nil, nil
	}
	var res []domain.Submission
	for start := 0; start < len(gameIDs); start += submissionBatch {
		end := min(start+submissionBatch, len(gameIDs))
		batch, err := s.listSubmissions(ctx, gameIDs[start:end])
		if err != nil {
			return nil, err
		}
		res = append(res, batch...)
	}
	if len(gameIDs) > submissionBatch {
		sort.SliceStable(res, func(i, j int) bool {
			if !res[i].CreatedAt.Equal(res[j].CreatedAt) {
				return res[i].CreatedAt.Before(res[j].CreatedAt)
			}
			return res[i].Round < res[j].Round
		})
	}
	return res, nil
}

func (s *Store) listSubmissions(ctx context.Context, gameIDs []string) ([]domain.Submission, error) {
	args := make([]any, len(gameIDs))
	for i, id := range gameIDs {
		args[i] = id
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(gameIDs)), ",")
	rows, err := s.db.QueryContext(ctx,
		`SELECT game_id, player_id, round, value, created_at
		 FROM submissions
		 WHERE game_id IN (`+placeholders+`)
		 ORDER BY created_at, round, rowid`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	return collectSubmissions(rows)
}

// UpdateGame serializes writers on writeMu and runs fn in one transaction.
// fn must only touch the store through tx.
func (s *Store) UpdateGame(ctx context.Context, gameID string, fn func(tx repository.GameTx) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	g, err := scanGame(tx.QueryRowContext(ctx, `SELECT `+gameColumns+` FROM games WHERE id = ?`, gameID))
	if err != nil {
		return err
	}

	if err := fn(&gameTx{tx: tx, game: g, now: s.now}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

type gameTx struct {
	tx   *sql.Tx
	game *domain.Game
	now  func() time.Time
}

func (t *gameTx) Game() *domain.Game {
	return t.game
}

func (t *gameTx) Submissions(ctx context.Context) ([]domain.Submission, error) {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT game_id, player_id, round, value, created_at
		 FROM submissions WHERE game_id = ?
		 ORDER BY created_at, round, rowid`,
		t.game.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	return collectSubmissions(rows)
}

func (t *gameTx) InsertSubmission(ctx context.Context, sub *domain.Submission) error {
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = t.now().UTC()
	}
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO submissions (game_id, player_id, round, value, created_at) VALUES (?, ?, ?, ?, ?)`,
		sub.GameID, sub.PlayerID, int(sub.Round), sub.Value, toMillis(sub.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

func (t *gameTx) SaveGame(ctx context.Context, g *domain.Game) error {
	g.UpdatedAt = t.now().UTC()
	res, err := t.tx.ExecContext(ctx,
		`UPDATE games SET wager = ?, status = ?, result = ?, updated_at = ? WHERE id = ?`,
		nullInt(g.Wager), string(g.Status), nullResult(g.Result), toMillis(g.UpdatedAt), g.ID,
	)
	if err != nil {
		return fmt.Errorf("save game: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return repository.ErrNotFound
	}
	t.game = g
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPlayer(row scanner) (*domain.Player, error) {
	var (
		p         domain.Player
		tgID      sql.NullInt64
		avatarURL sql.NullString
		createdAt int64
	)
	if err := row.Scan(&p.ID, &tgID, &p.Name, &avatarURL, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan player: %w", err)
	}
	if tgID.Valid {
		v := tgID.Int64
		p.TgID = &v
	}
	if avatarURL.Valid {
		v := avatarURL.String
		p.AvatarURL = &v
	}
	p.CreatedAt = fromMillis(createdAt)
	return &p, nil
}

func scanGame(row scanner) (*domain.Game, error) {
	var (
		g       domain.Game
		wager   sql.NullInt64
		status  string
		result  sql.NullString
		created int64
		updated int64
	)
	if err := row.Scan(&g.ID, &g.SchnickerID, &g.AngeschnickterID, &g.Task, &wager, &status, &result, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan game: %w", err)
	}
	if wager.Valid {
		v := int(wager.Int64)
		g.Wager = &v
	}
	g.Status = domain.GameStatus(status)
	if result.Valid {
		r := domain.GameResult(result.String)
		g.Result = &r
	}
	g.CreatedAt = fromMillis(created)
	g.UpdatedAt = fromMillis(updated)
	return &g, nil
}

func collectGames(rows *sql.Rows) ([]*domain.Game, error) {
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

func collectSubmissions(rows *sql.Rows) ([]domain.Submission, error) {
	defer rows.Close()
	var res []domain.Submission
	for rows.Next() {
		var (
			s       domain.Submission
			round   int
			created int64
		)
		if err := rows.Scan(&s.GameID, &s.PlayerID, &round, &s.Value, &created); err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		s.Round = domain.Round(round)
		s.CreatedAt = fromMillis(created)
		res = append(res, s)
	}
	return res, rows.Err()
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func nullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}

func nullResult(r *domain.GameResult) sql.NullString {
	if r == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(*r), Valid: true}
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
