package game

import (
	"sort"

	"schnicken/internal/domain"
)

// PlayerStats - статистика игрока по завершённым шникам
type PlayerStats struct {
	PlayerID       string  `json:"player_id"`
	Name           string  `json:"name"`
	AvatarURL      *string `json:"avatar_url,omitempty"`
	Games          int     `json:"games"`
	Wins           int     `json:"wins"`
	Losses         int     `json:"losses"`
	Ties           int     `json:"ties"`
	FavoriteNumber *int    `json:"favorite_number"`
}

type Stats struct {
	Players       []PlayerStats             `json:"players"`
	MVPPlayerID   string                    `json:"mvp_player_id,omitempty"`
	FinishedGames int                       `json:"finished_games"`
	Results       map[domain.GameResult]int `json:"results"`
}

// ComputeStats aggregates finished games. Games that are not finished are
// skipped, and so are submissions of games not in the list. Every player in
// players is listed even without games.
//
// Ties: the favourite number is the lowest of the most frequent values; the
// MVP is the player with most wins, lowest id first. Nobody is MVP without a win.
func ComputeStats(games []*domain.Game, subs []domain.Submission, players []*domain.Player) Stats {
	byID := make(map[string]*PlayerStats)
	freq := make(map[string]map[int]int)

	ensure := func(id string) *PlayerStats {
		ps, ok := byID[id]
		if !ok {
			ps = &PlayerStats{PlayerID: id}
			byID[id] = ps
		}
		return ps
	}

	for _, p := range players {
		ps := ensure(p.ID)
		ps.Name = p.Name
		ps.AvatarURL = p.AvatarURL
	}

	stats := Stats{Results: make(map[domain.GameResult]int)}
	counted := make(map[string]bool)

	for _, g := range games {
		if g == nil || !g.IsFinished() || g.Result == nil || counted[g.ID] {
			continue
		}
		counted[g.ID] = true
		stats.FinishedGames++
		stats.Results[*g.Result]++

		s := ensure(g.SchnickerID)
		a := ensure(g.AngeschnickterID)
		s.Games++
		a.Games++

		switch *g.Result {
		case domain.GameResultSchnickerWins:
			s.Wins++
			a.Losses++
		case domain.GameResultAngeschnickterWins:
			a.Wins++
			s.Losses++
		case domain.GameResultTie:
			s.Ties++
			a.Ties++
		}
	}

	for _, sub := range subs {
		if !counted[sub.GameID] {
			continue
		}
		ensure(sub.PlayerID)
		if freq[sub.PlayerID] == nil {
			freq[sub.PlayerID] = make(map[int]int)
		}
		freq[sub.PlayerID][sub.Value]++
	}

	for id, ps := range byID {
		ps.FavoriteNumber = favorite(freq[id])
	}

	list := make([]PlayerStats, 0, len(byID))
	for _, ps := range byID {
		list = append(list, *ps)
	}
	sort.Slice(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if a.Wins != b.Wins {
			return a.Wins > b.Wins
		}
		if a.Ties != b.Ties {
			return a.Ties > b.Ties
		}
		if a.Losses != b.Losses {
			return a.Losses < b.Losses
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.PlayerID < b.PlayerID
	})
	stats.Players = list
	stats.MVPPlayerID = mvp(list)

	return stats
}

func favorite(counts map[int]int) *int {
	best, bestCount := 0, 0
	for v, c := range counts {
		if c > bestCount || (c == bestCount && v < best) {
			best, bestCount = v, c
		}
	}
	if bestCount == 0 {
		return nil
	}
	return &best
}

func mvp(list []PlayerStats) string {
	var id string
	most := 0
	for _, ps := range list {
		if ps.Wins > most || (ps.Wins == most && most > 0 && ps.PlayerID < id) {
			id, most = ps.PlayerID, ps.Wins
		}
	}
	return id
}
