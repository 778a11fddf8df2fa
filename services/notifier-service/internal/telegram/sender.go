package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Sender delivers a rendered confirmation to a chat.
type Sender interface {
	Send(ctx context.Context, chatID string, text string) error
	ProviderID() string
}

// BotAPISender posts sendMessage to the Telegram Bot API. The chat id is
// the requester id from the booking event (Telegram user ids double as
// private chat ids).
type BotAPISender struct {
	token   string
	baseURL string
	http    *http.Client
}

const defaultBaseURL = "https://api.telegram.org"

func NewBotAPISender(token string, baseURL string) *BotAPISender {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &BotAPISender{
		token:   strings.TrimSpace(token),
		baseURL: baseURL,
		http: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

func (s *BotAPISender) ProviderID() string {
	return "telegram-bot-api"
}

func (s *BotAPISender) Send(ctx context.Context, chatID string, text string) error {
	if s.token == "" {
		return errors.New("telegram bot token not configured")
	}
	payload := map[string]string{
		"chat_id": chatID,
		"text":    text,
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	url := fmt.Sprintf("%s/bot%s/sendMessage", s.baseURL, s.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("telegram sendMessage returned %d", resp.StatusCode)
	}
	return nil
}

// NoopSender is used when no bot token is configured.
type NoopSender struct{}

func NewNoopSender() *NoopSender {
	return &NoopSender{}
}

func (s *NoopSender) ProviderID() string {
	return "telegram-noop"
}

func (s *NoopSender) Send(_ context.Context, _ string, _ string) error {
	return nil
}
