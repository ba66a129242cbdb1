package notifyexpiry

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type ServiceMock struct{ mock.Mock }

func (m *ServiceMock) TriggerExpiryScan(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func newHandler(serviceMock *ServiceMock) *Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(logger, serviceMock)
}

func TestNotifyExpiryHandler(t *testing.T) {
	serviceMock := new(ServiceMock)
	serviceMock.On("TriggerExpiryScan", mock.Anything).Return(3, nil)
	handler := newHandler(serviceMock)

	req := httptest.NewRequest(http.MethodPost, "/admin/notifications/expiry", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"published":3`)
	serviceMock.AssertExpectations(t)
}

func TestNotifyExpiryHandler_ScanFailure(t *testing.T) {
	serviceMock := new(ServiceMock)
	serviceMock.On("TriggerExpiryScan", mock.Anything).Return(0, assert.AnError)
	handler := newHandler(serviceMock)

	req := httptest.NewRequest(http.MethodPost, "/admin/notifications/expiry", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
