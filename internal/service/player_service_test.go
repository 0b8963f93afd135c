package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"schnicken/internal/repository/sqlite"

	"github.com/stretchr/testify/require"
)

func newPlayerService(t *testing.T, devMode bool) *PlayerService {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "players.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return NewPlayerService(store, "test-bot-token", devMode)
}

func TestRegister(t *testing.T) {
	svc := newPlayerService(t, false)
	ctx := context.Background()

	_, err := svc.Register(ctx, "  ", nil, nil)
	require.ErrorIs(t, err, ErrInvalidInput)

	tg := int64(99)
	p, err := svc.Register(ctx, " Lena ", &tg, nil)
	require.NoError(t, err)
	require.Equal(t, "Lena", p.Name)
	require.NotEmpty(t, p.ID)

	_, err = svc.Register(ctx, "Lena 2", &tg, nil)
	require.ErrorIs(t, err, ErrAlreadyExists)

	got, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, p.ID, got.ID)

	_, err = svc.Get(ctx, "nobody")
	require.ErrorIs(t, err, ErrNotFound)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func TestLoginTelegramSigned(t *testing.T) {
	svc := newPlayerService(t, false)
	ctx := context.Background()
	initData := buildInitData(t, "test-bot-token", testFields(time.Now()))

	first, err := svc.LoginTelegram(ctx, initData)
	require.NoError(t, err)
	require.Equal(t, "Fritz", first.Name)
	require.NotNil(t, first.AvatarURL)

	again, err := svc.LoginTelegram(ctx, initData)
	require.NoError(t, err)
	require.Equal(t, first.ID, again.ID)

	_, err = svc.LoginTelegram(ctx, initData+"&x=1")
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestLoginTelegramDevMode(t *testing.T) {
	svc := newPlayerService(t, true)
	ctx := context.Background()

	p, err := svc.LoginTelegram(ctx, `user={"id":777,"first_name":"Dev"}`)
	require.NoError(t, err)
	require.Equal(t, "Dev", p.Name)
	require.Equal(t, int64(777), *p.TgID)

	fallback, err := svc.LoginTelegram(ctx, "")
	require.NoError(t, err)
	require.Equal(t, int64(12345), *fallback.TgID)
}
