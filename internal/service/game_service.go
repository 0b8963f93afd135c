package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"schnicken/internal/domain"
	"schnicken/internal/game"
	"schnicken/internal/logger"
	"schnicken/internal/repository"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("schnicken/service")

// Publisher receives every event after the change is committed.
type Publisher interface {
	Publish(ctx context.Context, e domain.Event)
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, domain.Event) {}

// GameLimits holds input limits configuration
type GameLimits struct {
	MaxWager      int
	MaxTaskLength int
}

// GameService runs the Schnick flow: create, set the wager, collect numbers
// and resolve rounds. Every change of a game happens under the store's game
// lock, so a round is resolved exactly once.
type GameService struct {
	store  repository.Store
	pub    Publisher
	limits GameLimits
	now    func() time.Time
	newID  func() string
}

func NewGameService(store repository.Store, pub Publisher, limits GameLimits) *GameService {
	if pub == nil {
		pub = nopPublisher{}
	}
	return &GameService{
		store:  store,
		pub:    pub,
		limits: limits,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

func (s *GameService) Limits() GameLimits {
	return s.limits
}

// CreateGame challenges angeschnickterID with task. wager may be nil and set
// later by the angeschnickt player.
func (s *GameService) CreateGame(ctx context.Context, schnickerID, angeschnickterID, task string, wager *int) (*domain.Game, error) {
	ctx, span := tracer.Start(ctx, "GameService.CreateGame",
		trace.WithAttributes(attribute.String("schnicker_id", schnickerID), attribute.String("angeschnickter_id", angeschnickterID)))
	defer span.End()

	task = strings.TrimSpace(task)
	switch {
	case task == "":
		return nil, invalidInput("task is required")
	case s.limits.MaxTaskLength > 0 && utf8.RuneCountInString(task) > s.limits.MaxTaskLength:
		return nil, invalidInput("task longer than %d characters", s.limits.MaxTaskLength)
	case schnickerID == angeschnickterID:
		return nil, invalidInput("you cannot schnick yourself")
	}
	if wager != nil {
		if err := game.CheckWagerValue(*wager, s.limits.MaxWager); err != nil {
			return nil, err
		}
	}
	for _, id := range []string{schnickerID, angeschnickterID} {
		if _, err := s.store.GetPlayer(ctx, id); err != nil {
			return nil, notFound(err, "player %s", id)
		}
	}

	g := &domain.Game{
		ID:               s.newID(),
		SchnickerID:      schnickerID,
		AngeschnickterID: angeschnickterID,
		Task:             task,
		Wager:            wager,
		Status:           domain.GameStatusOpen,
		CreatedAt:        s.now().UTC(),
	}
	if err := s.store.CreateGame(ctx, g); err != nil {
		return nil, fail(span, fmt.Errorf("create game: %w", err))
	}
	GamesCreated.Inc()
	logger.WithContext(ctx).Info("game created", "game_id", g.ID, "schnicker_id", schnickerID, "angeschnickter_id", angeschnickterID)

	at := s.now().UTC()
	s.pub.Publish(ctx, domain.GameCreated{Game: g.Clone(), At: at})
	if wager != nil {
		s.pub.Publish(ctx, domain.WagerSet{Game: g.Clone(), PlayerID: schnickerID, Wager: *wager, At: at})
	}
	return g, nil
}

// SetWager records the Bock-Wert. Only the angeschnickt player may set it,
// once, before round 1 starts.
func (s *GameService) SetWager(ctx context.Context, gameID, playerID string, wager int) (*domain.Game, error) {
	ctx, span := tracer.Start(ctx, "GameService.SetWager",
		trace.WithAttributes(attribute.String("game_id", gameID), attribute.Int("wager", wager)))
	defer span.End()

	var updated *domain.Game
	err := s.store.UpdateGame(ctx, gameID, func(tx repository.GameTx) error {
		g := tx.Game()
		if _, ok := g.RoleOf(playerID); !ok {
			return ErrNotParticipant
		}
		if err := game.ValidateWager(g, playerID, wager, s.limits.MaxWager); err != nil {
			return err
		}
		next := g.Clone()
		next.Wager = &wager
		if err := tx.SaveGame(ctx, next); err != nil {
			return err
		}
		updated = next
		return nil
	})
	if err != nil {
		return nil, fail(span, notFound(err, "game %s", gameID))
	}

	logger.WithContext(ctx).Info("wager set", "game_id", gameID, "player_id", playerID, "wager", wager)
	s.pub.Publish(ctx, domain.WagerSet{Game: updated.Clone(), PlayerID: playerID, Wager: wager, At: s.now().UTC()})
	return updated, nil
}

// SubmitResult is what happened to one accepted number.
type SubmitResult struct {
	Game       *domain.Game      `json:"game"`
	Submission domain.Submission `json:"submission"`
	Range      game.Range        `json:"range"`
	Resolved   bool              `json:"resolved"`
	Outcome    *game.Outcome     `json:"outcome,omitempty"`
	// every number of the game after this one
	Submissions []domain.Submission `json:"-"`
}

// SubmitNumber stores a number and resolves the round when it was the
// second one. Rejected numbers leave the game untouched.
func (s *GameService) SubmitNumber(ctx context.Context, gameID, playerID string, round domain.Round, value int) (*SubmitResult, error) {
	ctx, span := tracer.Start(ctx, "GameService.SubmitNumber",
		trace.WithAttributes(
			attribute.String("game_id", gameID),
			attribute.String("player_id", playerID),
			attribute.Int("round", int(round)),
		))
	defer span.End()

	var (
		res  SubmitResult
		from domain.GameStatus
	)
	err := s.store.UpdateGame(ctx, gameID, func(tx repository.GameTx) error {
		g := tx.Game()
		if _, ok := g.RoleOf(playerID); !ok {
			return ErrNotParticipant
		}
		from = g.Status

		subs, err := tx.Submissions(ctx)
		if err != nil {
			return err
		}
		r, err := game.ValidateSubmission(g, playerID, round, value, subs)
		if err != nil {
			return err
		}

		sub := domain.Submission{GameID: g.ID, PlayerID: playerID, Round: round, Value: value, CreatedAt: s.now().UTC()}
		if err := tx.InsertSubmission(ctx, &sub); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return &game.Error{Kind: game.KindDuplicate, Message: "already answered this round"}
			}
			return err
		}
		subs = append(subs, sub)

		res = SubmitResult{Game: g, Submission: sub, Range: r, Submissions: subs}

		current := domain.SubmissionsForRound(subs, round)
		if len(current) < 2 {
			return nil
		}
		outcome, err := game.Resolve(round, current)
		if err != nil {
			return err
		}
		next := g.Clone()
		outcome.Apply(next)
		if err := tx.SaveGame(ctx, next); err != nil {
			return err
		}
		res.Game = next
		res.Resolved = true
		res.Outcome = &outcome
		return nil
	})
	if err != nil {
		SubmissionsRejected.WithLabelValues(rejectReason(err)).Inc()
		return nil, fail(span, notFound(err, "game %s", gameID))
	}

	SubmissionsAccepted.WithLabelValues(roundLabel(int(round))).Inc()
	log := logger.WithContext(ctx)
	log.Info("number submitted", "game_id", gameID, "player_id", playerID, "round", round)

	at := s.now().UTC()
	s.pub.Publish(ctx, domain.SubmissionRecorded{
		Game:          res.Game.Clone(),
		Submission:    res.Submission,
		RoundComplete: res.Resolved,
		At:            at,
	})
	if res.Resolved {
		span.SetAttributes(attribute.String("status", string(res.Game.Status)))
		if res.Outcome.Finished() {
			GamesFinished.WithLabelValues(string(*res.Outcome.Result)).Inc()
			log.Info("game finished", "game_id", gameID, "result", *res.Outcome.Result)
		}
		s.pub.Publish(ctx, domain.GameStatusChanged{
			Game:        res.Game.Clone(),
			From:        from,
			To:          res.Game.Status,
			Submissions: append([]domain.Submission(nil), res.Submissions...),
			At:          at,
		})
	}
	return &res, nil
}

// Range is the interval the players pick from in round.
func (s *GameService) Range(ctx context.Context, gameID, playerID string, round domain.Round) (game.Range, error) {
	if !round.Valid() {
		return game.Range{}, invalidInput("round must be 1 or 2")
	}
	g, subs, err := s.load(ctx, gameID, playerID)
	if err != nil {
		return game.Range{}, err
	}
	if round == domain.Round1 && g.Wager == nil {
		return game.Range{}, &game.Error{Kind: game.KindInvalidState, Message: "round 1 needs a wager, wait until it is set"}
	}
	if round == domain.Round2 && len(domain.SubmissionsForRound(subs, domain.Round1)) < 2 {
		return game.Range{}, &game.Error{Kind: game.KindInvalidState, Message: "round 2 has not started yet"}
	}
	return game.ComputeRange(g, round, subs)
}

// GameView is one game as seen by one viewer.
type GameView struct {
	Game           *domain.Game         `json:"game"`
	Schnicker      *domain.Player       `json:"schnicker"`
	Angeschnickter *domain.Player       `json:"angeschnickter"`
	Role           domain.Role          `json:"role"`
	Numbers        []game.VisibleNumber `json:"numbers"`
	Range          *game.Range          `json:"range,omitempty"`
	NextStep       string               `json:"next_step"`
	ResultText     string               `json:"result_text,omitempty"`
}

// GetGame returns the game as viewerID may see it. Opponent numbers of an
// unfinished round stay hidden.
func (s *GameService) GetGame(ctx context.Context, gameID, viewerID string) (*GameView, error) {
	g, subs, err := s.load(ctx, gameID, viewerID)
	if err != nil {
		return nil, err
	}
	players := newPlayerCache(s.store)
	return s.view(ctx, players, g, subs, viewerID)
}

// ListOptions pages finished games. Before is the id of the last game of
// the previous page.
type ListOptions struct {
	Limit  int
	Before string
}

// GameList splits a player's games like the start page does. Active holds
// every unfinished game, Finished one page of finished ones.
type GameList struct {
	Active     []*GameView `json:"active"`
	Finished   []*GameView `json:"finished"`
	NextBefore string      `json:"next_before,omitempty"`
}

// ListGames returns all active games of playerID and one page of finished
// games, newest first.
func (s *GameService) ListGames(ctx context.Context, playerID string, opts ListOptions) (*GameList, error) {
	page, err := s.page(ctx, opts)
	if err != nil {
		return nil, err
	}
	active, err := s.store.ListActiveGamesByPlayer(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("list active games: %w", err)
	}
	finished, err := s.store.ListFinishedGamesByPlayer(ctx, playerID, page)
	if err != nil {
		return nil, fmt.Errorf("list finished games: %w", err)
	}

	views, err := s.views(ctx, append(active, finished...), playerID)
	if err != nil {
		return nil, err
	}
	return &GameList{
		Active:     views[:len(active)],
		Finished:   views[len(active):],
		NextBefore: nextCursor(finished, page),
	}, nil
}

// GameHistory is one page of the group's games.
type GameHistory struct {
	Games      []*GameView `json:"games"`
	NextBefore string      `json:"next_before,omitempty"`
}

// History pages through all games of the group, newest first. Numbers of
// unfinished rounds stay hidden unless they are viewerID's own.
func (s *GameService) History(ctx context.Context, viewerID string, opts ListOptions) (*GameHistory, error) {
	page, err := s.page(ctx, opts)
	if err != nil {
		return nil, err
	}
	games, err := s.store.ListGames(ctx, page)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	views, err := s.views(ctx, games, viewerID)
	if err != nil {
		return nil, err
	}
	return &GameHistory{Games: views, NextBefore: nextCursor(games, page)}, nil
}

func (s *GameService) page(ctx context.Context, opts ListOptions) (repository.Page, error) {
	page := repository.Page{Limit: opts.Limit}
	if opts.Limit < 0 {
		return page, invalidInput("limit must not be negative")
	}
	if opts.Before == "" {
		return page, nil
	}
	g, err := s.store.GetGame(ctx, opts.Before)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return page, invalidInput("unknown game %s in before", opts.Before)
		}
		return page, fmt.Errorf("load cursor game: %w", err)
	}
	page.BeforeAt, page.BeforeID = g.CreatedAt, g.ID
	return page, nil
}

// nextCursor is empty when games is the last page.
func nextCursor(games []*domain.Game, page repository.Page) string {
	if len(games) < page.Size() {
		return ""
	}
	return games[len(games)-1].ID
}

// views loads the submissions of games in one query and renders them for viewerID.
func (s *GameService) views(ctx context.Context, games []*domain.Game, viewerID string) ([]*GameView, error) {
	ids := make([]string, len(games))
	for i, g := range games {
		ids[i] = g.ID
	}
	subs, err := s.store.ListSubmissions(ctx, ids...)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	byGame := make(map[string][]domain.Submission)
	for _, sub := range subs {
		byGame[sub.GameID] = append(byGame[sub.GameID], sub)
	}

	players := newPlayerCache(s.store)
	out := make([]*GameView, 0, len(games))
	for _, g := range games {
		v, err := s.view(ctx, players, g, byGame[g.ID], viewerID)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (s *GameService) load(ctx context.Context, gameID, playerID string) (*domain.Game, []domain.Submission, error) {
	g, err := s.store.GetGame(ctx, gameID)
	if err != nil {
		return nil, nil, notFound(err, "game %s", gameID)
	}
	if _, ok := g.RoleOf(playerID); !ok {
		return nil, nil, ErrNotParticipant
	}
	subs, err := s.store.ListSubmissions(ctx, gameID)
	if err != nil {
		return nil, nil, fmt.Errorf("list submissions: %w", err)
	}
	return g, subs, nil
}

func (s *GameService) view(ctx context.Context, players *playerCache, g *domain.Game, subs []domain.Submission, viewerID string) (*GameView, error) {
	schnicker, err := players.get(ctx, g.SchnickerID)
	if err != nil {
		return nil, err
	}
	angeschnickter, err := players.get(ctx, g.AngeschnickterID)
	if err != nil {
		return nil, err
	}

	role, _ := g.RoleOf(viewerID)
	v := &GameView{
		Game:           g,
		Schnicker:      schnicker,
		Angeschnickter: angeschnickter,
		Role:           role,
		Numbers:        game.RevealNumbers(g, subs, viewerID),
		NextStep:       game.NextStep(g, subs, viewerID),
	}
	if round := g.ActiveRound(); round != 0 {
		if r, err := game.ComputeRange(g, round, subs); err == nil {
			v.Range = &r
		}
	}
	if g.IsFinished() {
		v.ResultText = game.ResultText(g, schnicker.Name, angeschnickter.Name)
	}
	return v, nil
}

// playerCache avoids loading the same player for every game of a list.
type playerCache struct {
	store repository.Store
	byID  map[string]*domain.Player
}

func newPlayerCache(store repository.Store) *playerCache {
	return &playerCache{store: store, byID: make(map[string]*domain.Player)}
}

func (c *playerCache) get(ctx context.Context, id string) (*domain.Player, error) {
	if p, ok := c.byID[id]; ok {
		return p, nil
	}
	p, err := c.store.GetPlayer(ctx, id)
	if err != nil {
		return nil, notFound(err, "player %s", id)
	}
	c.byID[id] = p
	return p, nil
}

// notFound maps the storage sentinel to ErrNotFound and leaves other errors alone.
func notFound(err error, format string, args ...any) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrNotFound)
	}
	return err
}

func rejectReason(err error) string {
	var gerr *game.Error
	switch {
	case errors.As(err, &gerr):
		return string(gerr.Kind)
	case errors.Is(err, ErrNotParticipant):
		return "not_participant"
	case errors.Is(err, ErrNotFound), errors.Is(err, repository.ErrNotFound):
		return "not_found"
	}
	return "internal"
}

// fail marks the span as failed for unexpected errors. Rule violations are
// normal outcomes and keep the span ok.
func fail(span trace.Span, err error) error {
	if r := rejectReason(err); r == "internal" || r == string(game.KindPrecondition) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
