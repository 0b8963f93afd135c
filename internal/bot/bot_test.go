package bot

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"schnicken/internal/game"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type fakeAPI struct {
	mu   sync.Mutex
	sent []tgbotapi.MessageConfig
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, m)
	}
	return tgbotapi.Message{}, nil
}

func (f *fakeAPI) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return make(chan tgbotapi.Update)
}

func (f *fakeAPI) StopReceivingUpdates() {}

type fakeStats struct {
	stats game.Stats
	err   error
}

func (f fakeStats) Leaderboard(context.Context) (game.Stats, error) {
	return f.stats, f.err
}

func command(text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		MessageID: 1,
		Text:      text,
		Chat:      &tgbotapi.Chat{ID: 42},
		Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(strings.Fields(text)[0])}},
	}
}

func TestSendPostsToGroupChat(t *testing.T) {
	api := &fakeAPI{}
	b := newBot(api, -100, fakeStats{}, "")
	if err := b.Send(context.Background(), "Hallo"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(api.sent) != 1 || api.sent[0].ChatID != -100 || api.sent[0].Text != "Hallo" {
		t.Fatalf("sent = %+v", api.sent)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := b.Send(ctx, "x"); err == nil {
		t.Fatal("cancelled send should fail")
	}
}

func TestCommands(t *testing.T) {
	fav := 2
	st := game.Stats{
		FinishedGames: 3,
		MVPPlayerID:   "p1",
		Players: []game.PlayerStats{
			{PlayerID: "p1", Name: "Anna <3", Wins: 2, Losses: 1, FavoriteNumber: &fav},
			{PlayerID: "p2", Name: "Ben", Wins: 1, Losses: 2},
		},
	}
	cases := []struct {
		cmd   string
		stats fakeStats
		want  string
	}{
		{"/stats", fakeStats{stats: st}, "1. Anna &lt;3: 2 S / 1 N / 0 U, Lieblingszahl 2"},
		{"/mvp", fakeStats{stats: st}, "MVP: <b>Anna &lt;3</b> mit 2 Siegen"},
		{"/mvp", fakeStats{}, "Noch kein MVP."},
		{"/stats", fakeStats{}, "Noch keine beendeten Schnicks."},
		{"/stats", fakeStats{err: errors.New("db down")}, "Fehler: db down"},
		{"/help", fakeStats{}, "/stats - Rangliste"},
		{"/dance", fakeStats{}, "Unbekannter Befehl"},
	}
	for _, tc := range cases {
		api := &fakeAPI{}
		b := newBot(api, 42, tc.stats, "")
		b.handleCommand(command(tc.cmd))
		if len(api.sent) != 1 || !strings.Contains(api.sent[0].Text, tc.want) {
			t.Fatalf("%s: sent = %+v, want %q", tc.cmd, api.sent, tc.want)
		}
	}
}
