package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

type Telegram struct {
	Token  string
	ChatID string
	Client *http.Client

	base string // overridden in tests
}

func NewTelegram(token, chatID string) *Telegram {
	if token == "" || chatID == "" {
		return nil
	}
	return &Telegram{
		Token:  token,
		ChatID: chatID,
		Client: &http.Client{Timeout: 10 * time.Second},
		base:   "https://api.telegram.org",
	}
}

type telegramPayload struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

func (t *Telegram) Send(ctx context.Context, title, text string) error {
	if t == nil || t.Token == "" || t.ChatID == "" {
		return errors.New("telegram disabled")
	}
	body, _ := json.Marshal(telegramPayload{
		ChatID:    t.ChatID,
		Text:      "*" + title + "*\n" + text,
		ParseMode: "Markdown",
	})
	url := fmt.Sprintf("%s/bot%s/sendMessage", t.base, t.Token)
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return errors.New("telegram non-2xx")
	}
	return nil
}
