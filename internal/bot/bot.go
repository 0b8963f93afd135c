package bot

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"sync"
	"time"

	"schnicken/internal/game"
	"schnicken/internal/logger"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Leaderboard is the stats source for /stats and /mvp.
type Leaderboard interface {
	Leaderboard(ctx context.Context) (game.Stats, error)
}

// api is the part of tgbotapi.BotAPI the bot uses.
type api interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Bot posts game notifications into the group chat and answers a few
// commands there.
type Bot struct {
	api    api
	chatID int64
	stats  Leaderboard
	appURL string
	stopCh chan struct{}
	wg     sync.WaitGroup
	log    *slog.Logger
}

// New creates a bot for the group chat chatID
func New(token string, chatID int64, stats Leaderboard, appURL string) (*Bot, error) {
	botAPI, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	b := newBot(botAPI, chatID, stats, appURL)
	b.log.Info("bot authorized", "username", botAPI.Self.UserName)
	return b, nil
}

func newBot(a api, chatID int64, stats Leaderboard, appURL string) *Bot {
	return &Bot{
		api:    a,
		chatID: chatID,
		stats:  stats,
		appURL: appURL,
		stopCh: make(chan struct{}),
		log:    logger.With("component", "bot"),
	}
}

// Send posts text to the group chat. It implements notify.Sender.
func (b *Bot) Send(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(b.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.DisableWebPagePreview = true
	_, err := b.api.Send(msg)
	return err
}

// Start starts listening for commands
func (b *Bot) Start() {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	b.log.Info("starting bot update loop")

	for {
		select {
		case <-b.stopCh:
			b.log.Info("stopping bot update loop")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil || !update.Message.IsCommand() {
				continue
			}

			b.wg.Add(1)
			go func(msg *tgbotapi.Message) {
				defer b.wg.Done()
				b.handleCommand(msg)
			}(update.Message)
		}
	}
}

// Stop gracefully stops the bot
func (b *Bot) Stop() {
	b.log.Info("stopping bot...")
	close(b.stopCh)
	b.api.StopReceivingUpdates()

	// Wait for pending handlers with timeout
	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		b.log.Info("bot stopped gracefully")
	case <-time.After(10 * time.Second):
		b.log.Warn("bot shutdown timeout, some handlers may not have completed")
	}
}

func (b *Bot) handleCommand(msg *tgbotapi.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var response string
	switch msg.Command() {
	case "start", "help":
		response = b.helpMessage()
	case "stats":
		response = b.handleStats(ctx)
	case "mvp":
		response = b.handleMVP(ctx)
	default:
		response = "❌ Unbekannter Befehl. /help zeigt alle Befehle."
	}

	reply := tgbotapi.NewMessage(msg.Chat.ID, response)
	reply.ParseMode = tgbotapi.ModeHTML
	reply.ReplyToMessageID = msg.MessageID

	if _, err := b.api.Send(reply); err != nil {
		b.log.Error("error sending message", "error", err)
	}
}

func (b *Bot) helpMessage() string {
	text := `<b>🎮 Schnicken</b>

/stats - Rangliste
/mvp - Wer gewinnt am meisten?`
	if b.appURL != "" {
		text += "\n\n📱 " + html.EscapeString(b.appURL)
	}
	return text
}

func (b *Bot) handleStats(ctx context.Context) string {
	st, err := b.stats.Leaderboard(ctx)
	if err != nil {
		return fmt.Sprintf("❌ Fehler: %v", html.EscapeString(err.Error()))
	}
	if st.FinishedGames == 0 {
		return "Noch keine beendeten Schnicks."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "<b>📊 Rangliste</b> (%d Spiele)\n\n", st.FinishedGames)
	for i, ps := range st.Players {
		if i == 10 {
			break
		}
		fav := "-"
		if ps.FavoriteNumber != nil {
			fav = fmt.Sprint(*ps.FavoriteNumber)
		}
		fmt.Fprintf(&sb, "%d. %s: %d S / %d N / %d U, Lieblingszahl %s\n",
			i+1, html.EscapeString(ps.Name), ps.Wins, ps.Losses, ps.Ties, fav)
	}
	return sb.String()
}

func (b *Bot) handleMVP(ctx context.Context) string {
	st, err := b.stats.Leaderboard(ctx)
	if err != nil {
		return fmt.Sprintf("❌ Fehler: %v", html.EscapeString(err.Error()))
	}
	for _, ps := range st.Players {
		if ps.PlayerID == st.MVPPlayerID {
			return fmt.Sprintf("🏆 MVP: <b>%s</b> mit %d Siegen", html.EscapeString(ps.Name), ps.Wins)
		}
	}
	return "Noch kein MVP."
}
