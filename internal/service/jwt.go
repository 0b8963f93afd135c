package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// PlayerClaims is the token payload.
type PlayerClaims struct {
	PlayerID string `json:"player_id"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and checks player tokens with one HS256 secret.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret string, ttl time.Duration) (*TokenIssuer, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is empty")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

func (t *TokenIssuer) Generate(playerID string) (string, error) {
	now := t.now()
	claims := PlayerClaims{
		PlayerID: playerID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   playerID,
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Parse returns the player id of a valid token.
func (t *TokenIssuer) Parse(tokenString string) (string, error) {
	var claims PlayerClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.now))
	if err != nil || !token.Valid {
		return "", ErrUnauthorized
	}
	if claims.PlayerID == "" {
		return "", errors.New("player_id not found")
	}
	return claims.PlayerID, nil
}
