package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"schnicken/internal/config"
	"schnicken/internal/logger"
	"schnicken/internal/repository"
	"schnicken/internal/service"
	"schnicken/internal/storage"
)

// Creates (or finds) a player by Telegram id and prints a token for it.
func main() {
	tgID := flag.Int64("tg", 1234567890, "telegram user id")
	name := flag.String("name", "Tester", "display name")
	flag.Parse()

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

	// try to find existing player
	p, err := store.GetPlayerByTgID(ctx, *tgID)
	switch {
	case err == nil:
		logger.Info("player already exists", "player_id", p.ID)
	case errors.Is(err, repository.ErrNotFound):
		p, err = players.Register(ctx, *name, tgID, nil)
		if err != nil {
			logger.Fatal("create player failed", "error", err)
		}
		logger.Info("player created", "player_id", p.ID)
	default:
		logger.Fatal("lookup failed", "error", err)
	}

	tokens, err := service.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		logger.Fatal("failed to init jwt", "error", err)
	}
	token, err := tokens.Generate(p.ID)
	if err != nil {
		logger.Fatal("failed to generate token", "error", err)
	}
	fmt.Fprintf(os.Stdout, "player_id=%s\ntoken=%s\n", p.ID, token)
}
