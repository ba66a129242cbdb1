// Package lineapi реализует клиент LINE Messaging API и проверку подписи вебхуков.
package lineapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/kokoroai/counselor-backend/internal/config"
)

const defaultAPIURL = "https://api.line.me"

// Client - клиент LINE Messaging API.
type Client struct {
	channelSecret string
	accessToken   string
	apiURL        string
	httpClient    *http.Client
}

// NewClient создаёт новый клиент LINE.
func NewClient(cfg config.Line) *Client {
	return &Client{
		channelSecret: cfg.LineChannelSecret,
		accessToken:   cfg.LineChannelAccessToken,
		apiURL:        defaultAPIURL,
		httpClient:    &http.Client{Timeout: 10 * time.Second},
	}
}

// pushRequest представляет запрос на отправку сообщения пользователю.
type pushRequest struct {
	To       string        `json:"to"`
	Messages []TextMessage `json:"messages"`
}

// TextMessage представляет текстовое сообщение LINE.
type TextMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// PushText отправляет текстовое сообщение пользователю LINE.
func (c *Client) PushText(ctx context.Context, lineUserID, text string) error {
	body := pushRequest{
		To:       lineUserID,
		Messages: []TextMessage{{Type: "text", Text: text}},
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/v2/bot/message/push", &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.New("line push failed: " + resp.Status)
	}
	return nil
}
