package handlers

import (
	"schnicken/internal/http/middleware"
	"schnicken/internal/logger"
	"schnicken/internal/service"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	Players *service.PlayerService
	Games   *service.GameService
	Stats   *service.StatsService
	Tokens  *service.TokenIssuer
}

func NewHandler(players *service.PlayerService, games *service.GameService, stats *service.StatsService, tokens *service.TokenIssuer) *Handler {
	return &Handler{
		Players: players,
		Games:   games,
		Stats:   stats,
		Tokens:  tokens,
	}
}

// getPlayerID извлекает player_id из контекста Gin
func getPlayerID(c *gin.Context) (string, bool) {
	return middleware.PlayerID(c)
}

// respondError writes the status and player-facing text for err. Server
// errors are logged with the request's trace.
func respondError(c *gin.Context, err error) {
	status, msg := service.Describe(err)
	if status >= 500 {
		logger.WithContext(c.Request.Context()).Error("request failed",
			"method", c.Request.Method, "path", c.FullPath(), "error", err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}
