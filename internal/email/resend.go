// Package email реализует отправку писем через Resend API.
package email

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/kokoroai/counselor-backend/internal/config"
)

// Sender описывает отправку одного письма.
type Sender interface {
	// Send отправляет письмо с HTML-содержимым.
	Send(ctx context.Context, to, subject, html string) error
}

// Resend - клиент Resend API.
type Resend struct {
	apiKey     string
	from       string
	apiURL     string
	httpClient *http.Client
}

// NewResend создаёт новый клиент Resend.
func NewResend(cfg config.Resend) *Resend {
	return &Resend{
		apiKey:     cfg.ResendAPIKey,
		from:       cfg.ResendFrom,
		apiURL:     "https://api.resend.com",
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// Send отправляет письмо с HTML-содержимым.
func (c *Resend) Send(ctx context.Context, to, subject, html string) error {
	if c.apiKey == "" {
		return errors.New("resend api key is not configured")
	}

	body := sendRequest{
		From:    c.from,
		To:      []string{to},
		Subject: subject,
		HTML:    html,
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/emails", &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.New("resend request failed: " + resp.Status)
	}
	return nil
}
