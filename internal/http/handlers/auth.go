package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type AuthRequest struct {
	InitData string `json:"init_data"`
}

// Auth logs a player in with Telegram WebApp init data and returns a token.
func (h *Handler) Auth(c *gin.Context) {
	var req AuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}

	player, err := h.Players.LoginTelegram(c.Request.Context(), req.InitData)
	if err != nil {
		respondError(c, err)
		return
	}

	token, err := h.Tokens.Generate(player.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token generation failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":  token,
		"player": player,
	})
}
