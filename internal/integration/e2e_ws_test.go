package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"schnicken/internal/domain"
	"schnicken/internal/events"
	httpserver "schnicken/internal/http"
	"schnicken/internal/http/handlers"
	"schnicken/internal/notify"
	"schnicken/internal/repository/sqlite"
	"schnicken/internal/service"
	"schnicken/internal/ws"
)

type chatLog struct {
	mu    sync.Mutex
	texts []string
}

func (c *chatLog) Send(_ context.Context, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.texts = append(c.texts, text)
	return nil
}

func (c *chatLog) all() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return strings.Join(c.texts, "\n---\n")
}

type e2e struct {
	srv      *httptest.Server
	tokens   *service.TokenIssuer
	notifier *notify.Notifier
	chat     *chatLog
	s, a     *domain.Player
}

func newE2E(t *testing.T) *e2e {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := sqlite.Open(filepath.Join(t.TempDir(), "e2e.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	tokens, err := service.NewTokenIssuer("test-secret", time.Hour)
	require.NoError(t, err)

	dispatcher := events.NewDispatcher()
	players := service.NewPlayerService(store, "bot-token", false)
	games := service.NewGameService(store, dispatcher, service.GameLimits{MaxWager: 100, MaxTaskLength: 200})
	hub := ws.NewHub(games)
	chat := &chatLog{}
	notifier := notify.NewNotifier(chat, store, "https://schnicken.example")
	t.Cleanup(notifier.Close)
	dispatcher.Subscribe("ws", hub.HandleEvent)
	dispatcher.Subscribe("notify", notifier.Handle)

	r := gin.New()
	httpserver.RegisterRoutes(r, httpserver.Deps{
		Handler: handlers.NewHandler(players, games, service.NewStatsService(store), tokens),
		Health:  handlers.NewHealthHandler(store, nil, "test"),
		Hub:     hub,
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	ctx := context.Background()
	s, err := players.Register(ctx, "Schorsch", nil, nil)
	require.NoError(t, err)
	a, err := players.Register(ctx, "Anni", nil, nil)
	require.NoError(t, err)

	return &e2e{srv: srv, tokens: tokens, notifier: notifier, chat: chat, s: s, a: a}
}

func (e *e2e) token(t *testing.T, p *domain.Player) string {
	tok, err := e.tokens.Generate(p.ID)
	require.NoError(t, err)
	return tok
}

func (e *e2e) dial(t *testing.T, p *domain.Player) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(e.srv.URL, "http") + "/ws?token=" + e.token(t, p)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.Equal(t, ws.MsgReady, next(t, conn).Type)
	return conn
}

func (e *e2e) post(t *testing.T, p *domain.Player, path string, body any) *http.Response {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, e.srv.URL+path, bytes.NewReader(b))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.token(t, p))
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = res.Body.Close() })
	return res
}

func next(t *testing.T, conn *websocket.Conn) ws.Envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	var env ws.Envelope
	require.NoError(t, conn.ReadJSON(&env))
	return env
}

func nextOf(t *testing.T, conn *websocket.Conn, msgType string) ws.Envelope {
	t.Helper()
	for {
		env := next(t, conn)
		if env.Type == msgType {
			return env
		}
	}
}

func submit(t *testing.T, conn *websocket.Conn, gameID string, round, value int) {
	t.Helper()
	payload, err := json.Marshal(ws.SubmitPayload{GameID: gameID, Round: domain.Round(round), Value: value})
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(ws.Envelope{Type: ws.MsgSubmit, Payload: payload}))
}

// Schnick with wager 5: round 1 4 vs 3, round 2 range [1, 3], both pick 2.
func TestE2E_Eigentor(t *testing.T) {
	e := newE2E(t)
	sConn := e.dial(t, e.s)
	aConn := e.dial(t, e.a)

	res := e.post(t, e.s, "/api/v1/games", gin.H{"angeschnickter_id": e.a.ID, "task": "Tanzen"})
	require.Equal(t, http.StatusCreated, res.StatusCode)
	var g domain.Game
	require.NoError(t, json.NewDecoder(res.Body).Decode(&g))

	require.Equal(t, ws.MsgGameCreated, next(t, aConn).Type)

	payload, _ := json.Marshal(ws.WagerPayload{GameID: g.ID, Value: 5})
	require.NoError(t, aConn.WriteJSON(ws.Envelope{Type: ws.MsgWager, Payload: payload}))
	nextOf(t, sConn, ws.MsgWagerSet)

	submit(t, sConn, g.ID, 1, 4)
	env := nextOf(t, aConn, ws.MsgSubmissionRecorded)
	var sub ws.SubmissionPayload
	require.NoError(t, json.Unmarshal(env.Payload, &sub))
	require.Equal(t, e.s.ID, sub.PlayerID)
	require.Nil(t, sub.Value, "opponent number must stay hidden")

	// out of range for round 1
	submit(t, aConn, g.ID, 1, 6)
	env = nextOf(t, aConn, ws.MsgError)
	require.Contains(t, string(env.Payload), "Wähle eine Zahl zwischen 1 und 5")

	submit(t, aConn, g.ID, 1, 3)
	env = nextOf(t, sConn, ws.MsgGameStatusChanged)
	var st ws.StatusPayload
	require.NoError(t, json.Unmarshal(env.Payload, &st))
	require.Equal(t, domain.GameStatusRound2, st.To)

	// round 2 is capped at min(4, 3) = 3
	submit(t, sConn, g.ID, 2, 4)
	env = nextOf(t, sConn, ws.MsgError)
	require.Contains(t, string(env.Payload), "Wähle eine Zahl zwischen 1 und 3")

	submit(t, sConn, g.ID, 2, 2)
	submit(t, aConn, g.ID, 2, 2)

	for {
		env = nextOf(t, aConn, ws.MsgGameStatusChanged)
		require.NoError(t, json.Unmarshal(env.Payload, &st))
		if st.To == domain.GameStatusFinished {
			break
		}
	}
	require.NotNil(t, st.Game.Result)
	require.Equal(t, domain.GameResultAngeschnickterWins, *st.Game.Result)
	require.Len(t, st.Numbers, 4)

	// finished games reject everything
	res = e.post(t, e.a, "/api/v1/games/"+g.ID+"/rounds/2/numbers", gin.H{"value": 1})
	require.Equal(t, http.StatusConflict, res.StatusCode)

	e.notifier.Wait()
	chat := e.chat.all()
	require.Contains(t, chat, "Schorsch")
	require.Contains(t, chat, "Anni")
	require.Contains(t, chat, "https://schnicken.example")
}
