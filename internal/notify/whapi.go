package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// WhapiSender posts text messages to a WhatsApp chat through the WHAPI REST API.
type WhapiSender struct {
	baseURL string
	token   string
	channel string
	to      string
	client  *http.Client
}

func NewWhapiSender(baseURL, token, channel, to string) *WhapiSender {
	return &WhapiSender{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		channel: channel,
		to:      to,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type whapiMessage struct {
	To   string `json:"to"`
	Body string `json:"body"`
}

func (s *WhapiSender) Send(ctx context.Context, text string) error {
	body, err := json.Marshal(whapiMessage{To: s.to, Body: text})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/messages/text", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token)
	if s.channel != "" {
		req.Header.Set("X-Channel", s.channel)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("whapi request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("whapi: status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
