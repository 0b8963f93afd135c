package integration

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"schnicken/internal/db"
	"schnicken/internal/domain"
	"schnicken/internal/repository"
	"schnicken/internal/service"
)

// runs only if DATABASE_URL is set
func openPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := db.Connect(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = repository.Migrate(ctx, pool)
	require.NoError(t, err)
	// second run is a no-op
	applied, err := repository.Migrate(ctx, pool)
	require.NoError(t, err)
	require.Empty(t, applied)
	return pool
}

func newPlayer(t *testing.T, store repository.Store, name string) *domain.Player {
	t.Helper()
	tg := int64(uuid.New().ID())
	p := &domain.Player{ID: uuid.NewString(), TgID: &tg, Name: name}
	require.NoError(t, store.CreatePlayer(context.Background(), p))
	return p
}

func TestPostgresStoreGameLifecycle(t *testing.T) {
	store := repository.NewPostgresStore(openPostgres(t))
	ctx := context.Background()

	s := newPlayer(t, store, "Schorsch")
	a := newPlayer(t, store, "Anni")

	got, err := store.GetPlayerByTgID(ctx, *s.TgID)
	require.NoError(t, err)
	require.Equal(t, s.ID, got.ID)

	dup := &domain.Player{ID: uuid.NewString(), TgID: s.TgID, Name: "Copy"}
	require.ErrorIs(t, store.CreatePlayer(ctx, dup), repository.ErrDuplicate)

	wager := 5
	g := &domain.Game{
		ID:               uuid.NewString(),
		SchnickerID:      s.ID,
		AngeschnickterID: a.ID,
		Task:             "Kopfstand",
		Wager:            &wager,
		Status:           domain.GameStatusOpen,
		CreatedAt:        time.Now().UTC(),
	}
	require.NoError(t, store.CreateGame(ctx, g))

	err = store.UpdateGame(ctx, g.ID, func(tx repository.GameTx) error {
		sub := domain.Submission{GameID: g.ID, PlayerID: s.ID, Round: domain.Round1, Value: 3, CreatedAt: time.Now().UTC()}
		if err := tx.InsertSubmission(ctx, &sub); err != nil {
			return err
		}
		return tx.InsertSubmission(ctx, &sub)
	})
	require.ErrorIs(t, err, repository.ErrDuplicate)

	subs, err := store.ListSubmissions(ctx, g.ID)
	require.NoError(t, err)
	require.Empty(t, subs, "failed transaction must not leave rows")

	_, err = store.GetGame(ctx, uuid.NewString())
	require.ErrorIs(t, err, repository.ErrNotFound)

	active, err := store.ListActiveGamesByPlayer(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, active, 1)

	finished, err := store.ListFinishedGamesByPlayer(ctx, a.ID, repository.Page{})
	require.NoError(t, err)
	require.Empty(t, finished)

	page, err := store.ListGames(ctx, repository.Page{Limit: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)

	older, err := store.ListGames(ctx, repository.Page{Limit: repository.MaxPageSize, BeforeAt: page[0].CreatedAt, BeforeID: page[0].ID})
	require.NoError(t, err)
	for _, og := range older {
		require.NotEqual(t, page[0].ID, og.ID, "cursor game must not repeat")
	}
}

func TestPostgresConcurrentRoundResolvesOnce(t *testing.T) {
	store := repository.NewPostgresStore(openPostgres(t))
	ctx := context.Background()

	pub := &mockPublisher{}
	pub.On("Publish", mock.Anything, mock.Anything).Return()
	games := service.NewGameService(store, pub, service.GameLimits{MaxWager: 100, MaxTaskLength: 200})

	s := newPlayer(t, store, "Schorsch")
	a := newPlayer(t, store, "Anni")
	wager := 4
	g, err := games.CreateGame(ctx, s.ID, a.ID, "Singen", &wager)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]*service.SubmitResult, 2)
	errs := make([]error, 2)
	for i, p := range []*domain.Player{s, a} {
		wg.Add(1)
		go func(i int, p *domain.Player) {
			defer wg.Done()
			results[i], errs[i] = games.SubmitNumber(ctx, g.ID, p.ID, domain.Round1, 2)
		}(i, p)
	}
	wg.Wait()

	resolved := 0
	for i := range results {
		require.NoError(t, errs[i])
		if results[i].Resolved {
			resolved++
		}
	}
	require.Equal(t, 1, resolved)

	view, err := games.GetGame(ctx, g.ID, s.ID)
	require.NoError(t, err)
	require.Equal(t, domain.GameStatusFinished, view.Game.Status)
	require.Equal(t, domain.GameResultSchnickerWins, *view.Game.Result)

	changes := 0
	for _, e := range pub.events() {
		if e.Type() == domain.EventGameStatusChanged {
			changes++
		}
	}
	require.Equal(t, 1, changes)
}

type mockPublisher struct {
	mock.Mock
	mu sync.Mutex
}

func (m *mockPublisher) Publish(ctx context.Context, e domain.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Called(ctx, e)
}

func (m *mockPublisher) events() []domain.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Event
	for _, c := range m.Calls {
		out = append(out, c.Arguments.Get(1).(domain.Event))
	}
	return out
}
