package webhook

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/kokoroai/counselor-backend/internal/paypal"
)

type VerifierMock struct {
	mock.Mock
}

func (m *VerifierMock) VerifyWebhookSignature(ctx context.Context, headers paypal.WebhookHeaders, rawEvent []byte) (bool, error) {
	args := m.Called(ctx, headers, rawEvent)
	return args.Bool(0), args.Error(1)
}

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) HandleCaptureCompleted(ctx context.Context, event *paypal.WebhookEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func newHandler(verifierMock *VerifierMock, serviceMock *ServiceMock) *Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(logger, verifierMock, serviceMock)
}

const captureEvent = `{
	"id": "WH-1",
	"event_type": "PAYMENT.CAPTURE.COMPLETED",
	"resource": {
		"id": "CAP-1",
		"status": "COMPLETED",
		"payments": {"captures": [{"id": "CAP-1", "custom_id": "uid-1:premium"}]}
	}
}`

func TestWebhookHandler_CaptureCompletedActivatesSubscription(t *testing.T) {
	verifierMock := new(VerifierMock)
	verifierMock.On("VerifyWebhookSignature", mock.Anything, mock.Anything, mock.Anything).
		Return(true, nil)
	serviceMock := new(ServiceMock)
	serviceMock.On("HandleCaptureCompleted", mock.Anything, mock.MatchedBy(func(e *paypal.WebhookEvent) bool {
		return e.EventType == "PAYMENT.CAPTURE.COMPLETED" &&
			e.Resource.Payments.Captures[0].CustomID == "uid-1:premium"
	})).Return(nil)
	handler := newHandler(verifierMock, serviceMock)

	req := httptest.NewRequest(http.MethodPost, "/payment/webhook", strings.NewReader(captureEvent))
	req.Header.Set("Paypal-Transmission-Id", "t-1")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	serviceMock.AssertExpectations(t)
}

func TestWebhookHandler_SignatureHeadersForwarded(t *testing.T) {
	verifierMock := new(VerifierMock)
	verifierMock.On("VerifyWebhookSignature", mock.Anything, paypal.WebhookHeaders{
		AuthAlgo:         "SHA256withRSA",
		CertURL:          "https://api.paypal.com/cert",
		TransmissionID:   "t-1",
		TransmissionSig:  "sig",
		TransmissionTime: "2026-01-01T00:00:00Z",
	}, mock.Anything).Return(true, nil)
	serviceMock := new(ServiceMock)
	serviceMock.On("HandleCaptureCompleted", mock.Anything, mock.Anything).Return(nil)
	handler := newHandler(verifierMock, serviceMock)

	req := httptest.NewRequest(http.MethodPost, "/payment/webhook", strings.NewReader(captureEvent))
	req.Header.Set("Paypal-Auth-Algo", "SHA256withRSA")
	req.Header.Set("Paypal-Cert-Url", "https://api.paypal.com/cert")
	req.Header.Set("Paypal-Transmission-Id", "t-1")
	req.Header.Set("Paypal-Transmission-Sig", "sig")
	req.Header.Set("Paypal-Transmission-Time", "2026-01-01T00:00:00Z")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	verifierMock.AssertExpectations(t)
}

func TestWebhookHandler_InvalidSignature(t *testing.T) {
	verifierMock := new(VerifierMock)
	verifierMock.On("VerifyWebhookSignature", mock.Anything, mock.Anything, mock.Anything).
		Return(false, nil)
	serviceMock := new(ServiceMock)
	handler := newHandler(verifierMock, serviceMock)

	req := httptest.NewRequest(http.MethodPost, "/payment/webhook", strings.NewReader(captureEvent))
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	serviceMock.AssertNotCalled(t, "HandleCaptureCompleted", mock.Anything, mock.Anything)
}

func TestWebhookHandler_VerificationUnavailable(t *testing.T) {
	verifierMock := new(VerifierMock)
	verifierMock.On("VerifyWebhookSignature", mock.Anything, mock.Anything, mock.Anything).
		Return(false, assert.AnError)
	serviceMock := new(ServiceMock)
	handler := newHandler(verifierMock, serviceMock)

	req := httptest.NewRequest(http.MethodPost, "/payment/webhook", strings.NewReader(captureEvent))
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestWebhookHandler_OtherEventIgnored(t *testing.T) {
	verifierMock := new(VerifierMock)
	verifierMock.On("VerifyWebhookSignature", mock.Anything, mock.Anything, mock.Anything).
		Return(true, nil)
	serviceMock := new(ServiceMock)
	handler := newHandler(verifierMock, serviceMock)

	body := `{"id":"WH-2","event_type":"CHECKOUT.ORDER.APPROVED","resource":{"id":"ORD-1"}}`
	req := httptest.NewRequest(http.MethodPost, "/payment/webhook", strings.NewReader(body))
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	serviceMock.AssertNotCalled(t, "HandleCaptureCompleted", mock.Anything, mock.Anything)
}

func TestWebhookHandler_ServiceFailureReturns500(t *testing.T) {
	verifierMock := new(VerifierMock)
	verifierMock.On("VerifyWebhookSignature", mock.Anything, mock.Anything, mock.Anything).
		Return(true, nil)
	serviceMock := new(ServiceMock)
	serviceMock.On("HandleCaptureCompleted", mock.Anything, mock.Anything).Return(assert.AnError)
	handler := newHandler(verifierMock, serviceMock)

	req := httptest.NewRequest(http.MethodPost, "/payment/webhook", strings.NewReader(captureEvent))
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
