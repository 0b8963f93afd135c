package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"schnicken/internal/config"
	"schnicken/internal/domain"
	"schnicken/internal/logger"
	"schnicken/internal/repository"
	"schnicken/internal/service"
	"schnicken/internal/storage"
	"schnicken/internal/ws"

	"github.com/gorilla/websocket"
)

// Plays one Schnick against a running server: round 1 unequal, round 2
// equal, so the game ends with an Eigentor.
func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("invalid config", "error", err)
	}
	logger.Init(cfg.LogLevel, cfg.LogJSON)

	ctx := context.Background()
	store, err := storage.Open(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to open storage", "error", err)
	}
	defer store.Close()

	players := service.NewPlayerService(store, cfg.BotToken, cfg.DevMode)
	tokens, err := service.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		logger.Fatal("failed to init jwt", "error", err)
	}

	// prepare players
	tgA, tgB := int64(3001), int64(3002)
	pA := findOrCreate(ctx, players, store, "Smoke A", tgA)
	pB := findOrCreate(ctx, players, store, "Smoke B", tgB)
	tokenA, _ := tokens.Generate(pA)
	tokenB, _ := tokens.Generate(pB)

	// use 127.0.0.1 to prefer IPv4 (avoid resolving to [::1])
	base := "http://127.0.0.1:" + cfg.AppPort
	connA := dial(cfg.AppPort, tokenA)
	defer connA.Close()
	connB := dial(cfg.AppPort, tokenB)
	defer connB.Close()

	var g struct {
		ID string `json:"id"`
	}
	call(http.MethodPost, base+"/api/v1/games", tokenA, map[string]any{
		"angeschnickter_id": pB,
		"task":              "Smoke test",
		"wager":             6,
	}, &g)
	logger.Info("game created", "game_id", g.ID)

	submit := func(conn *websocket.Conn, round, value int) {
		payload, _ := json.Marshal(ws.SubmitPayload{GameID: g.ID, Round: domain.Round(round), Value: value})
		if err := conn.WriteJSON(ws.Envelope{Type: ws.MsgSubmit, Payload: payload}); err != nil {
			logger.Fatal("write", "error", err)
		}
	}
	submit(connA, 1, 5)
	submit(connB, 1, 2)
	waitFor(connA, ws.MsgGameStatusChanged)
	submit(connA, 2, 1)
	submit(connB, 2, 1)

	env := waitForFinished(connB)
	logger.Info("smoke test finished", "payload", string(env.Payload))
}

func findOrCreate(ctx context.Context, players *service.PlayerService, store repository.Store, name string, tgID int64) string {
	if p, err := store.GetPlayerByTgID(ctx, tgID); err == nil {
		return p.ID
	}
	p, err := players.Register(ctx, name, &tgID, nil)
	if err != nil {
		logger.Fatal("create player", "name", name, "error", err)
	}
	return p.ID
}

func dial(port, token string) *websocket.Conn {
	url := fmt.Sprintf("ws://127.0.0.1:%s/ws?token=%s", port, token)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		logger.Fatal("dial", "error", err)
	}
	waitFor(conn, ws.MsgReady)
	return conn
}

func call(method, url, token string, body, out any) {
	b, _ := json.Marshal(body)
	req, err := http.NewRequest(method, url, bytes.NewReader(b))
	if err != nil {
		logger.Fatal("request", "error", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	client := &http.Client{Timeout: 5 * time.Second}
	res, err := client.Do(req)
	if err != nil {
		logger.Fatal("request", "url", url, "error", err)
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		logger.Fatal("unexpected status", "url", url, "status", res.StatusCode)
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		logger.Fatal("decode", "error", err)
	}
}

func read(conn *websocket.Conn) ws.Envelope {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var env ws.Envelope
	if err := conn.ReadJSON(&env); err != nil {
		logger.Fatal("read", "error", err)
	}
	if env.Type == ws.MsgError {
		logger.Fatal("server error", "payload", string(env.Payload))
	}
	return env
}

func waitFor(conn *websocket.Conn, msgType string) ws.Envelope {
	for {
		env := read(conn)
		logger.Debug("ws message", "type", env.Type)
		if env.Type == msgType {
			return env
		}
	}
}

func waitForFinished(conn *websocket.Conn) ws.Envelope {
	for {
		env := waitFor(conn, ws.MsgGameStatusChanged)
		var p ws.StatusPayload
		if err := json.Unmarshal(env.Payload, &p); err == nil && p.To == domain.GameStatusFinished {
			return env
		}
	}
}
