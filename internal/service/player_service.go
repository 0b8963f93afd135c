package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"schnicken/internal/domain"
	"schnicken/internal/logger"
	"schnicken/internal/repository"

	"github.com/google/uuid"
)

const maxInitDataLen = 4096

// PlayerService registers players and logs them in through Telegram.
type PlayerService struct {
	store    repository.Store
	botToken string
	devMode  bool
	maxAge   time.Duration
	now      func() time.Time
}

func NewPlayerService(store repository.Store, botToken string, devMode bool) *PlayerService {
	return &PlayerService{
		store:    store,
		botToken: botToken,
		devMode:  devMode,
		maxAge:   time.Hour,
		now:      time.Now,
	}
}

// Register creates a player. tgID and avatarURL are optional.
func (s *PlayerService) Register(ctx context.Context, name string, tgID *int64, avatarURL *string) (*domain.Player, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalidInput("name is required")
	}
	if utf8.RuneCountInString(name) > 64 {
		return nil, invalidInput("name longer than 64 characters")
	}
	p := &domain.Player{
		ID:        uuid.NewString(),
		TgID:      tgID,
		Name:      name,
		AvatarURL: avatarURL,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.CreatePlayer(ctx, p); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("player: %w", ErrAlreadyExists)
		}
		return nil, err
	}
	logger.WithContext(ctx).Info("player registered", "player_id", p.ID)
	return p, nil
}

// LoginTelegram checks init data and returns the matching player, creating
// one on first login. In dev mode the signature is not checked.
func (s *PlayerService) LoginTelegram(ctx context.Context, initData string) (*domain.Player, error) {
	if len(initData) > maxInitDataLen {
		return nil, invalidInput("init_data too long")
	}

	var values url.Values
	if s.devMode {
		v, err := url.ParseQuery(initData)
		if err != nil {
			return nil, invalidInput("init_data is not a query string")
		}
		values = v
	} else {
		v, ok := ValidateTelegramInitData(initData, s.botToken, s.maxAge, s.now())
		if !ok {
			return nil, fmt.Errorf("%w: invalid or stale telegram data", ErrUnauthorized)
		}
		values = v
	}

	tgUser, err := ParseTelegramUser(values)
	if err != nil {
		if !s.devMode {
			return nil, invalidInput("%v", err)
		}
		// DEV MODE: тестовый пользователь
		tgUser = &TelegramUser{ID: 12345, Username: "testuser12345", FirstName: "Test"}
	}

	p, err := s.store.GetPlayerByTgID(ctx, tgUser.ID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	var avatar *string
	if tgUser.PhotoURL != "" {
		avatar = &tgUser.PhotoURL
	}
	id := tgUser.ID
	p, err = s.Register(ctx, tgUser.DisplayName(), &id, avatar)
	if errors.Is(err, ErrAlreadyExists) {
		// параллельный первый вход
		return s.store.GetPlayerByTgID(ctx, tgUser.ID)
	}
	return p, err
}

func (s *PlayerService) Get(ctx context.Context, id string) (*domain.Player, error) {
	p, err := s.store.GetPlayer(ctx, id)
	if err != nil {
		return nil, notFound(err, "player %s", id)
	}
	return p, nil
}

func (s *PlayerService) List(ctx context.Context) ([]*domain.Player, error) {
	players, err := s.store.ListPlayers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	if players == nil {
		players = []*domain.Player{}
	}
	return players, nil
}
