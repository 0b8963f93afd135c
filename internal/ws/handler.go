package ws

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// TokenParser turns a JWT into a player id.
type TokenParser interface {
	Parse(token string) (string, error)
}

// HandleWS upgrades an authenticated request. The token comes from the
// query because browsers cannot set headers on WebSocket requests. An empty
// allowedOrigins list accepts any origin.
func HandleWS(hub *Hub, tokens TokenParser, allowedOrigins []string) gin.HandlerFunc {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 || slices.Contains(allowedOrigins, "*") {
				return true
			}
			return slices.Contains(allowedOrigins, r.Header.Get("Origin"))
		},
	}

	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "token required"})
			return
		}

		playerID, err := tokens.Parse(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			hub.log.Warn("ws upgrade error", "error", err)
			return
		}

		client := NewClient(playerID, conn, hub)
		go client.Run()
	}
}
