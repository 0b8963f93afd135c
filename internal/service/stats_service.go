package service

import (
	"context"
	"fmt"

	"schnicken/internal/game"
	"schnicken/internal/repository"
)

type StatsService struct {
	store repository.Store
}

func NewStatsService(store repository.Store) *StatsService {
	return &StatsService{store: store}
}

// Leaderboard aggregates every finished game.
func (s *StatsService) Leaderboard(ctx context.Context) (game.Stats, error) {
	ctx, span := tracer.Start(ctx, "StatsService.Leaderboard")
	defer span.End()

	games, err := s.store.ListFinishedGames(ctx)
	if err != nil {
		return game.Stats{}, fail(span, fmt.Errorf("list finished games: %w", err))
	}
	ids := make([]string, len(games))
	for i, g := range games {
		ids[i] = g.ID
	}
	subs, err := s.store.ListSubmissions(ctx, ids...)
	if err != nil {
		return game.Stats{}, fail(span, fmt.Errorf("list submissions: %w", err))
	}
	players, err := s.store.ListPlayers(ctx)
	if err != nil {
		return game.Stats{}, fail(span, fmt.Errorf("list players: %w", err))
	}
	return game.ComputeStats(games, subs, players), nil
}
