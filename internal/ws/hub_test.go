package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"schnicken/internal/domain"
	"schnicken/internal/game"
	"schnicken/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

type tokens map[string]string

func (t tokens) Parse(token string) (string, error) {
	if id, ok := t[token]; ok {
		return id, nil
	}
	return "", service.ErrUnauthorized
}

type fakeActions struct {
	mu      sync.Mutex
	submits []SubmitPayload
	err     error
}

func (f *fakeActions) SubmitNumber(_ context.Context, gameID, _ string, round domain.Round, value int) (*service.SubmitResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submits = append(f.submits, SubmitPayload{GameID: gameID, Round: round, Value: value})
	if f.err != nil {
		return nil, f.err
	}
	return &service.SubmitResult{}, nil
}

func (f *fakeActions) SetWager(context.Context, string, string, int) (*domain.Game, error) {
	return nil, service.ErrNotParticipant
}

func newServer(t *testing.T, actions Actions) (*Hub, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	hub := NewHub(actions)
	r := gin.New()
	r.GET("/ws", HandleWS(hub, tokens{"tok-s": "s", "tok-a": "a"}, nil))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	env := read(t, conn)
	require.Equal(t, MsgReady, env.Type)
	return conn
}

func read(t *testing.T, conn *websocket.Conn) Envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	var env Envelope
	require.NoError(t, conn.ReadJSON(&env))
	return env
}

func waitConnected(t *testing.T, hub *Hub, playerID string) {
	t.Helper()
	require.Eventually(t, func() bool { return hub.Connected(playerID) > 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestRejectsMissingToken(t *testing.T) {
	_, srv := newServer(t, &fakeActions{})
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=nope"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	require.Equal(t, 401, resp.StatusCode)
}

func TestPingPong(t *testing.T) {
	_, srv := newServer(t, &fakeActions{})
	conn := dial(t, srv, "tok-s")

	require.NoError(t, conn.WriteJSON(Envelope{Type: MsgPing}))
	require.Equal(t, MsgPong, read(t, conn).Type)
}

func TestSubmissionValueHiddenFromOpponent(t *testing.T) {
	hub, srv := newServer(t, &fakeActions{})
	sConn := dial(t, srv, "tok-s")
	aConn := dial(t, srv, "tok-a")
	waitConnected(t, hub, "s")
	waitConnected(t, hub, "a")

	wager := 5
	g := &domain.Game{ID: "g1", SchnickerID: "s", AngeschnickterID: "a", Wager: &wager, Status: domain.GameStatusOpen}
	hub.HandleEvent(context.Background(), domain.SubmissionRecorded{
		Game:       g,
		Submission: domain.Submission{GameID: "g1", PlayerID: "s", Round: domain.Round1, Value: 3},
	})

	var own, other SubmissionPayload
	env := read(t, sConn)
	require.Equal(t, MsgSubmissionRecorded, env.Type)
	require.NoError(t, json.Unmarshal(env.Payload, &own))
	require.NotNil(t, own.Value)
	require.Equal(t, 3, *own.Value)

	env = read(t, aConn)
	require.Equal(t, MsgSubmissionRecorded, env.Type)
	require.NoError(t, json.Unmarshal(env.Payload, &other))
	require.Nil(t, other.Value)
	require.Equal(t, "s", other.PlayerID)
}

func TestStatusChangeRevealsNumbers(t *testing.T) {
	hub, srv := newServer(t, &fakeActions{})
	aConn := dial(t, srv, "tok-a")
	waitConnected(t, hub, "a")

	wager := 5
	g := &domain.Game{ID: "g1", SchnickerID: "s", AngeschnickterID: "a", Wager: &wager, Status: domain.GameStatusRound2}
	hub.HandleEvent(context.Background(), domain.GameStatusChanged{
		Game: g,
		From: domain.GameStatusOpen,
		To:   domain.GameStatusRound2,
		Submissions: []domain.Submission{
			{GameID: "g1", PlayerID: "s", Round: domain.Round1, Value: 2},
			{GameID: "g1", PlayerID: "a", Round: domain.Round1, Value: 4},
		},
	})

	env := read(t, aConn)
	require.Equal(t, MsgGameStatusChanged, env.Type)
	var p StatusPayload
	require.NoError(t, json.Unmarshal(env.Payload, &p))
	require.Equal(t, domain.GameStatusRound2, p.To)
	require.Len(t, p.Numbers, 2)
	for _, n := range p.Numbers {
		require.NotNil(t, n.Value)
	}
}

func TestEventsOnlyReachParticipants(t *testing.T) {
	hub, srv := newServer(t, &fakeActions{})
	aConn := dial(t, srv, "tok-a")
	waitConnected(t, hub, "a")

	hub.HandleEvent(context.Background(), domain.GameCreated{Game: &domain.Game{ID: "g2", SchnickerID: "s", AngeschnickterID: "x"}})
	hub.HandleEvent(context.Background(), domain.GameCreated{Game: &domain.Game{ID: "g3", SchnickerID: "s", AngeschnickterID: "a"}})

	env := read(t, aConn)
	require.Equal(t, MsgGameCreated, env.Type)
	var p GamePayload
	require.NoError(t, json.Unmarshal(env.Payload, &p))
	require.Equal(t, "g3", p.Game.ID)
}

func TestSubmitErrorsAreReported(t *testing.T) {
	r := game.Range{Min: 1, Max: 3}
	actions := &fakeActions{err: &game.Error{Kind: game.KindOutOfRange, Message: "out", Range: &r}}
	_, srv := newServer(t, actions)
	conn := dial(t, srv, "tok-s")

	payload, _ := json.Marshal(SubmitPayload{GameID: "g1", Round: domain.Round2, Value: 9})
	require.NoError(t, conn.WriteJSON(Envelope{Type: MsgSubmit, Payload: payload}))

	env := read(t, conn)
	require.Equal(t, MsgError, env.Type)
	var p ErrorPayload
	require.NoError(t, json.Unmarshal(env.Payload, &p))
	require.Equal(t, 422, p.Status)
	require.Equal(t, "Wähle eine Zahl zwischen 1 und 3", p.Message)

	actions.mu.Lock()
	defer actions.mu.Unlock()
	require.Equal(t, []SubmitPayload{{GameID: "g1", Round: domain.Round2, Value: 9}}, actions.submits)
}

func TestWagerAndUnknownMessages(t *testing.T) {
	_, srv := newServer(t, &fakeActions{})
	conn := dial(t, srv, "tok-a")

	payload, _ := json.Marshal(WagerPayload{GameID: "g1", Value: 4})
	require.NoError(t, conn.WriteJSON(Envelope{Type: MsgWager, Payload: payload}))
	env := read(t, conn)
	require.Equal(t, MsgError, env.Type)
	require.Contains(t, string(env.Payload), "403")

	require.NoError(t, conn.WriteJSON(Envelope{Type: "dance"}))
	env = read(t, conn)
	require.Equal(t, MsgError, env.Type)
	require.Contains(t, string(env.Payload), "unknown message type")
}

func TestUnregisterOnClose(t *testing.T) {
	hub, srv := newServer(t, &fakeActions{})
	conn := dial(t, srv, "tok-s")
	waitConnected(t, hub, "s")

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.Connected("s") == 0 }, 2*time.Second, 10*time.Millisecond)
}
