package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

type staticTokens map[string]string

func (s staticTokens) Parse(token string) (string, error) {
	if id, ok := s[token]; ok {
		return id, nil
	}
	return "", errors.New("bad token")
}

func TestJWT(t *testing.T) {
	r := gin.New()
	r.GET("/me", JWT(staticTokens{"good": "p1"}), func(c *gin.Context) {
		id, _ := PlayerID(c)
		c.String(http.StatusOK, id)
	})

	cases := []struct {
		header string
		code   int
	}{
		{"", http.StatusUnauthorized},
		{"Token good", http.StatusUnauthorized},
		{"Bearer ", http.StatusUnauthorized},
		{"Bearer bad", http.StatusUnauthorized},
		{"Bearer good", http.StatusOK},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		w := do(r, req)
		if w.Code != tc.code {
			t.Fatalf("%q: got %d, want %d", tc.header, w.Code, tc.code)
		}
		if tc.code == http.StatusOK && w.Body.String() != "p1" {
			t.Fatalf("player id = %q", w.Body.String())
		}
	}
}
