package handlers

import (
	"net/http"
	"strconv"

	"schnicken/internal/domain"
	"schnicken/internal/service"

	"github.com/gin-gonic/gin"
)

type CreateGameRequest struct {
	AngeschnickterID string `json:"angeschnickter_id" binding:"required"`
	Task             string `json:"task" binding:"required"`
	Wager            *int   `json:"wager"`
}

type WagerRequest struct {
	Wager int `json:"wager"`
}

type NumberRequest struct {
	Value int `json:"value"`
}

// CreateGame: the caller schnicks somebody
func (h *Handler) CreateGame(c *gin.Context) {
	playerID, ok := getPlayerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "player not found"})
		return
	}

	var req CreateGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	g, err := h.Games.CreateGame(c.Request.Context(), playerID, req.AngeschnickterID, req.Task, req.Wager)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, g)
}

func (h *Handler) ListGames(c *gin.Context) {
	playerID, ok := getPlayerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "player not found"})
		return
	}

	opts, ok := listOptions(c)
	if !ok {
		return
	}

	list, err := h.Games.ListGames(c.Request.Context(), playerID, opts)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// History: all games of the group, newest first
func (h *Handler) History(c *gin.Context) {
	playerID, ok := getPlayerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "player not found"})
		return
	}
	opts, ok := listOptions(c)
	if !ok {
		return
	}

	hist, err := h.Games.History(c.Request.Context(), playerID, opts)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, hist)
}

func (h *Handler) GetGame(c *gin.Context) {
	playerID, ok := getPlayerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "player not found"})
		return
	}

	view, err := h.Games.GetGame(c.Request.Context(), c.Param("id"), playerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) SetWager(c *gin.Context) {
	playerID, ok := getPlayerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "player not found"})
		return
	}

	var req WagerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	g, err := h.Games.SetWager(c.Request.Context(), c.Param("id"), playerID, req.Wager)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

func (h *Handler) Range(c *gin.Context) {
	playerID, ok := getPlayerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "player not found"})
		return
	}
	round, ok := roundParam(c)
	if !ok {
		return
	}

	r, err := h.Games.Range(c.Request.Context(), c.Param("id"), playerID, round)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// SubmitNumber takes the caller's number for a round. The response tells
// whether the round was resolved by it.
func (h *Handler) SubmitNumber(c *gin.Context) {
	playerID, ok := getPlayerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "player not found"})
		return
	}
	round, ok := roundParam(c)
	if !ok {
		return
	}

	var req NumberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	res, err := h.Games.SubmitNumber(c.Request.Context(), c.Param("id"), playerID, round, req.Value)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// listOptions reads ?limit=&before= of the paged game lists.
func listOptions(c *gin.Context) (service.ListOptions, bool) {
	opts := service.ListOptions{Before: c.Query("before")}
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive number"})
			return opts, false
		}
		opts.Limit = n
	}
	return opts, true
}

func roundParam(c *gin.Context) (domain.Round, bool) {
	n, err := strconv.Atoi(c.Param("round"))
	if err != nil || !domain.Round(n).Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "round must be 1 or 2"})
		return 0, false
	}
	return domain.Round(n), true
}
