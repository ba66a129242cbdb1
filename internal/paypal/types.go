// Package paypal реализует клиент платёжного API PayPal.
package paypal

import "encoding/json"

// tokenResponse представляет ответ на запрос OAuth-токена.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// Amount представляет денежную сумму заказа.
type Amount struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

// PurchaseUnit представляет позицию заказа.
// CustomID хранит пару "uid:plan" для связи платежа с пользователем.
type PurchaseUnit struct {
	Amount   Amount `json:"amount"`
	CustomID string `json:"custom_id,omitempty"`
}

// CreateOrderRequest представляет запрос на создание заказа.
type CreateOrderRequest struct {
	Intent        string         `json:"intent"`
	PurchaseUnits []PurchaseUnit `json:"purchase_units"`
}

// Order представляет заказ PayPal.
type Order struct {
	ID            string         `json:"id"`
	Status        string         `json:"status"`
	PurchaseUnits []PurchaseUnit `json:"purchase_units,omitempty"`
}

// Capture представляет факт списания средств.
type Capture struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Amount Amount `json:"amount"`
}

// CapturePurchaseUnit представляет позицию заказа в ответе на списание.
type CapturePurchaseUnit struct {
	Payments struct {
		Captures []Capture `json:"captures"`
	} `json:"payments"`
	CustomID string `json:"custom_id"`
}

// CaptureResponse представляет результат списания средств по заказу.
type CaptureResponse struct {
	ID            string                `json:"id"`
	Status        string                `json:"status"`
	PurchaseUnits []CapturePurchaseUnit `json:"purchase_units"`
}

// WebhookCapture представляет списание внутри ресурса события вебхука.
type WebhookCapture struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	CustomID string `json:"custom_id"`
}

// WebhookResource представляет ресурс события вебхука.
// CustomID приходит либо в captures, либо в purchase_units в зависимости от типа события.
type WebhookResource struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	CustomID string `json:"custom_id"`
	Payments struct {
		Captures []WebhookCapture `json:"captures"`
	} `json:"payments"`
	PurchaseUnits []PurchaseUnit `json:"purchase_units"`
}

// WebhookEvent представляет событие вебхука PayPal.
type WebhookEvent struct {
	ID        string          `json:"id"`
	EventType string          `json:"event_type"`
	Resource  WebhookResource `json:"resource"`
}

// WebhookHeaders содержит заголовки подписи вебхука PayPal.
type WebhookHeaders struct {
	AuthAlgo         string
	CertURL          string
	TransmissionID   string
	TransmissionSig  string
	TransmissionTime string
}

// verifyWebhookRequest представляет запрос проверки подписи вебхука.
type verifyWebhookRequest struct {
	AuthAlgo         string          `json:"auth_algo"`
	CertURL          string          `json:"cert_url"`
	TransmissionID   string          `json:"transmission_id"`
	TransmissionSig  string          `json:"transmission_sig"`
	TransmissionTime string          `json:"transmission_time"`
	WebhookID        string          `json:"webhook_id"`
	WebhookEvent     json.RawMessage `json:"webhook_event"`
}

// verifyWebhookResponse представляет результат проверки подписи вебхука.
type verifyWebhookResponse struct {
	VerificationStatus string `json:"verification_status"`
}
