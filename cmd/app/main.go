package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"schnicken/internal/bot"
	"schnicken/internal/config"
	"schnicken/internal/events"
	httpServer "schnicken/internal/http"
	"schnicken/internal/http/handlers"
	"schnicken/internal/http/middleware"
	"schnicken/internal/logger"
	"schnicken/internal/notify"
	"schnicken/internal/service"
	"schnicken/internal/storage"
	"schnicken/internal/telemetry"
	"schnicken/internal/ws"

	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("invalid config", "error", err)
	}
	logger.Init(cfg.LogLevel, cfg.LogJSON)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.OTelEndpoint, cfg.OTelServiceName, cfg.Version)
	if err != nil {
		logger.Fatal("failed to set up tracing", "error", err)
	}

	store, err := storage.Open(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to open storage", "driver", cfg.StorageDriver, "error", err)
	}
	defer store.Close()

	tokens, err := service.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		logger.Fatal("failed to init jwt", "error", err)
	}

	// local: events of this instance; remote: events relayed from others
	local := events.NewDispatcher()
	remote := events.NewDispatcher()
	var publisher service.Publisher = local
	var limiter middleware.Limiter = middleware.NewMemoryLimiter()
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := redisClient.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			// keep the server available without redis
			logger.Warn("redis unavailable, running single-instance", "addr", cfg.RedisAddr, "error", err)
			_ = redisClient.Close()
			redisClient = nil
		}
	}
	if redisClient != nil {
		defer redisClient.Close()
		bridge := events.NewRedisBridge(redisClient, cfg.RedisChannel, local)
		bridge.RelayTo(remote)
		publisher = bridge
		limiter = middleware.NewRedisLimiter(redisClient)
		go func() {
			if err := bridge.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("redis bridge stopped", "error", err)
			}
		}()
	}

	players := service.NewPlayerService(store, cfg.BotToken, cfg.DevMode)
	games := service.NewGameService(store, publisher, service.GameLimits{
		MaxWager:      cfg.MaxWager,
		MaxTaskLength: cfg.MaxTaskLength,
	})
	stats := service.NewStatsService(store)

	hub := ws.NewHub(games)
	local.Subscribe("ws", hub.HandleEvent)
	remote.Subscribe("ws", hub.HandleEvent)

	var tgBot *bot.Bot
	sender, err := newSender(cfg, stats, &tgBot)
	if err != nil {
		logger.Fatal("failed to init notifications", "driver", cfg.NotifyDriver, "error", err)
	}
	var notifier *notify.Notifier
	if sender != nil {
		notifier = notify.NewNotifier(sender, store, cfg.AppURL)
		local.Subscribe("notify", notifier.Handle)
	}
	if tgBot != nil {
		go tgBot.Start()
	}

	if !cfg.DevMode {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	var redisPing handlers.Pinger
	if redisClient != nil {
		redisPing = handlers.PingFunc(func(ctx context.Context) error { return redisClient.Ping(ctx).Err() })
	}
	httpServer.RegisterRoutes(r, httpServer.Deps{
		Handler:        handlers.NewHandler(players, games, stats, tokens),
		Health:         handlers.NewHealthHandler(store, redisPing, cfg.Version),
		Hub:            hub,
		AllowedOrigins: cfg.AllowedOrigins,
		ServiceName:    cfg.OTelServiceName,
		Limits: httpServer.Limits{
			Limiter:      limiter,
			APIRate:      cfg.RateLimit,
			APIWindow:    cfg.RateWindow,
			SubmitRate:   cfg.SubmitRateLimit,
			SubmitWindow: cfg.SubmitRateWindow,
		},
	})

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server started", "port", cfg.AppPort, "storage", cfg.StorageDriver, "notify", cfg.NotifyDriver)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}
	// сначала отправить очередь, бот может быть отправителем
	if notifier != nil {
		notifier.Close()
	}
	if tgBot != nil {
		tgBot.Stop()
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warn("tracer shutdown", "error", err)
	}

	logger.Info("server exited")
}

// newSender picks the notification channel. The telegram bot also answers
// commands, so it is handed back through tgBot.
func newSender(cfg *config.Config, stats *service.StatsService, tgBot **bot.Bot) (notify.Sender, error) {
	switch cfg.NotifyDriver {
	case "none":
		return nil, nil
	case "whapi":
		return notify.NewWhapiSender(cfg.WhapiURL, cfg.WhapiToken, cfg.WhapiChannel, cfg.WhapiTo), nil
	case "telegram":
		b, err := bot.New(cfg.BotToken, cfg.TelegramChatID, stats, cfg.AppURL)
		if err != nil {
			return nil, err
		}
		*tgBot = b
		return b, nil
	default:
		return notify.LogSender{}, nil
	}
}
