package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const playerIDKey = "player_id"

// TokenParser turns a bearer token into a player id.
type TokenParser interface {
	Parse(token string) (string, error)
}

// JWT requires "Authorization: Bearer <token>" and stores the player id in
// the gin context.
func JWT(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		playerID, err := tokens.Parse(strings.TrimSpace(token))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(playerIDKey, playerID)
		c.Next()
	}
}

// PlayerID returns the id stored by JWT.
func PlayerID(c *gin.Context) (string, bool) {
	v, ok := c.Get(playerIDKey)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}
