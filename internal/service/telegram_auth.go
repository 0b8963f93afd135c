package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// TelegramUser is the "user" object of Telegram WebApp init data.
type TelegramUser struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	PhotoURL  string `json:"photo_url"`
}

// DisplayName is first and last name, falling back to the username.
func (u TelegramUser) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		name = u.Username
	}
	if name == "" {
		name = "Spieler " + strconv.FormatInt(u.ID, 10)
	}
	return name
}

// ValidateTelegramInitData verifies Telegram WebApp init_data HMAC and checks
// that the auth_date is recent (within maxAge) to mitigate replay attacks.
func ValidateTelegramInitData(initData, botToken string, maxAge time.Duration, now time.Time) (url.Values, bool) {
	values, err := url.ParseQuery(initData)
	if err != nil {
		return nil, false
	}

	hash := values.Get("hash")
	if hash == "" {
		return nil, false
	}
	values.Del("hash")

	var dataCheck []string
	for k, v := range values {
		dataCheck = append(dataCheck, k+"="+strings.Join(v, ""))
	}
	sort.Strings(dataCheck)
	dataString := strings.Join(dataCheck, "\n")

	// secret_key = HMAC_SHA256("WebAppData", bot_token)
	sk := hmac.New(sha256.New, []byte("WebAppData"))
	sk.Write([]byte(botToken))
	h := hmac.New(sha256.New, sk.Sum(nil))
	h.Write([]byte(dataString))

	provided, err := hex.DecodeString(hash)
	if err != nil {
		return nil, false
	}
	if !hmac.Equal(h.Sum(nil), provided) {
		return nil, false
	}

	authDate, err := strconv.ParseInt(values.Get("auth_date"), 10, 64)
	if err != nil {
		return nil, false
	}
	// allow small clock skew
	age := now.Unix() - authDate
	if age > int64(maxAge.Seconds()) || age < -300 {
		return nil, false
	}

	return values, true
}

// ParseTelegramUser reads the "user" field of init data without checking
// the signature.
func ParseTelegramUser(values url.Values) (*TelegramUser, error) {
	raw := values.Get("user")
	if raw == "" {
		return nil, errors.New("user not found")
	}
	var u TelegramUser
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return nil, err
	}
	if u.ID == 0 {
		return nil, errors.New("user id missing")
	}
	return &u, nil
}
