package http

import (
	"time"

	"schnicken/internal/http/handlers"
	"schnicken/internal/http/middleware"
	"schnicken/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Limits are the request limits of the API. A nil Limiter disables them.
type Limits struct {
	Limiter      middleware.Limiter
	APIRate      int
	APIWindow    time.Duration
	SubmitRate   int
	SubmitWindow time.Duration
}

// Deps is everything the router needs.
type Deps struct {
	Handler        *handlers.Handler
	Health         *handlers.HealthHandler
	Hub            *ws.Hub
	AllowedOrigins []string
	ServiceName    string
	Limits         Limits
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	r.Use(middleware.CORS(d.AllowedOrigins))
	r.Use(middleware.Tracing(d.ServiceName))
	r.Use(middleware.Metrics())

	// Health checks (no rate limiting)
	r.GET("/health", d.Health.Health)
	r.GET("/healthz", d.Health.Liveness)
	r.GET("/readyz", d.Health.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 routes
	v1 := r.Group("/api/v1")
	v1.Use(middleware.RateLimit(d.Limits.Limiter, d.Limits.APIRate, d.Limits.APIWindow))
	registerAPIRoutes(v1, d)

	// Legacy /api routes
	api := r.Group("/api")
	api.Use(middleware.RateLimit(d.Limits.Limiter, d.Limits.APIRate, d.Limits.APIWindow))
	api.GET("/health", d.Health.Health)
	registerAPIRoutes(api, d)

	// WebSocket event feed
	r.GET("/ws", ws.HandleWS(d.Hub, d.Handler.Tokens, d.AllowedOrigins))
}

func registerAPIRoutes(api *gin.RouterGroup, d Deps) {
	h := d.Handler
	auth := middleware.JWT(h.Tokens)

	api.POST("/auth", h.Auth)
	api.GET("/leaderboard", h.GetLeaderboard)

	api.GET("/me", auth, h.Me)
	api.GET("/players", auth, h.ListPlayers)

	// Number rate limiter (per player, not per IP)
	submitRL := middleware.PlayerRateLimit(d.Limits.Limiter, "submit", d.Limits.SubmitRate, d.Limits.SubmitWindow)

	games := api.Group("/games", auth)
	{
		games.POST("", h.CreateGame)
		games.GET("", h.ListGames)
		games.GET("/history", h.History)
		games.GET("/:id", h.GetGame)
		games.PUT("/:id/wager", h.SetWager)
		games.GET("/:id/rounds/:round/range", h.Range)
		games.POST("/:id/rounds/:round/numbers", submitRL, h.SubmitNumber)
	}
}
