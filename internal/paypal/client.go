package paypal

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/kokoroai/counselor-backend/internal/config"
)

// Client - клиент REST API PayPal с кэшированием OAuth-токена.
type Client struct {
	clientID     string
	clientSecret string
	webhookID    string
	apiURL       string
	httpClient   *http.Client

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// NewClient создаёт новый клиент PayPal.
func NewClient(cfg config.PayPal) *Client {
	return &Client{
		clientID:     cfg.PayPalClientID,
		clientSecret: cfg.PayPalClientSecret,
		webhookID:    cfg.PayPalWebhookID,
		apiURL:       strings.TrimRight(cfg.PayPalAPIURL, "/"),
		httpClient:   &http.Client{Timeout: 15 * time.Second},
	}
}

// getAccessToken возвращает действующий OAuth-токен, запрашивая новый при истечении.
func (c *Client) getAccessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiry) {
		return c.accessToken, nil
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.apiURL+"/v1/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	auth := base64.StdEncoding.EncodeToString([]byte(c.clientID + ":" + c.clientSecret))
	req.Header.Set("Authorization", "Basic "+auth)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errors.New("paypal token request failed: " + resp.Status)
	}

	var token tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return "", err
	}
	c.accessToken = token.AccessToken
	// минута запаса до фактического истечения
	c.tokenExpiry = time.Now().Add(time.Duration(token.ExpiresIn-60) * time.Second)
	return c.accessToken, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	token, err := c.getAccessToken(ctx)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.apiURL+path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// CreateOrder создаёт заказ на оплату подписки в JPY.
func (c *Client) CreateOrder(ctx context.Context, value, customID string) (*Order, error) {
	reqBody := CreateOrderRequest{
		Intent: "CAPTURE",
		PurchaseUnits: []PurchaseUnit{{
			Amount:   Amount{CurrencyCode: "JPY", Value: value},
			CustomID: customID,
		}},
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/v2/checkout/orders", reqBody)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, errors.New("paypal create order failed: " + resp.Status)
	}

	var order Order
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return nil, err
	}
	return &order, nil
}

// CaptureOrder списывает средства по подтверждённому заказу.
func (c *Client) CaptureOrder(ctx context.Context, orderID string) (*CaptureResponse, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/v2/checkout/orders/"+orderID+"/capture", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, errors.New("paypal capture failed: " + resp.Status)
	}

	var capture CaptureResponse
	if err := json.NewDecoder(resp.Body).Decode(&capture); err != nil {
		return nil, err
	}
	return &capture, nil
}

// VerifyWebhookSignature проверяет подпись события вебхука через API PayPal.
// Возвращает true, если PayPal подтвердил подлинность события.
func (c *Client) VerifyWebhookSignature(ctx context.Context, headers WebhookHeaders, rawEvent []byte) (bool, error) {
	reqBody := verifyWebhookRequest{
		AuthAlgo:         headers.AuthAlgo,
		CertURL:          headers.CertURL,
		TransmissionID:   headers.TransmissionID,
		TransmissionSig:  headers.TransmissionSig,
		TransmissionTime: headers.TransmissionTime,
		WebhookID:        c.webhookID,
		WebhookEvent:     json.RawMessage(rawEvent),
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/v1/notifications/verify-webhook-signature", reqBody)
	if err != nil {
		return false, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, errors.New("paypal verify webhook failed: " + resp.Status)
	}

	var result verifyWebhookResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return false, err
	}
	return result.VerificationStatus == "SUCCESS", nil
}

// GetOrder возвращает заказ по идентификатору.
func (c *Client) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/v2/checkout/orders/"+orderID, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.New("paypal get order failed: " + resp.Status)
	}

	var order Order
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return nil, err
	}
	return &order, nil
}
