package middlewarectx

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/kokoroai/counselor-backend/internal/models"
)

type ValidatorMock struct {
	mock.Mock
}

func (m *ValidatorMock) ValidateToken(ctx context.Context, token string) (*models.User, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestJWTMiddleware(t *testing.T) {
	tests := []struct {
		name           string
		authHeader     string
		setupMock      func(*ValidatorMock)
		expectedStatus int
		expectNext     bool
	}{
		{
			name:       "валидный токен",
			authHeader: "Bearer good-token",
			setupMock: func(m *ValidatorMock) {
				m.On("ValidateToken", mock.Anything, "good-token").
					Return(&models.User{UID: "uid-1", Username: "alice", Role: "user"}, nil)
			},
			expectedStatus: http.StatusOK,
			expectNext:     true,
		},
		{
			name:           "нет заголовка",
			authHeader:     "",
			setupMock:      func(_ *ValidatorMock) {},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "не Bearer схема",
			authHeader:     "Basic abc",
			setupMock:      func(_ *ValidatorMock) {},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:       "просроченный токен",
			authHeader: "Bearer stale-token",
			setupMock: func(m *ValidatorMock) {
				m.On("ValidateToken", mock.Anything, "stale-token").
					Return(nil, errors.New("token is expired"))
			},
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			validatorMock := new(ValidatorMock)
			tt.setupMock(validatorMock)

			var nextCalled bool
			var gotUID string
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				nextCalled = true
				gotUID, _ = UserUIDFromContext(r.Context())
			})

			handler := JWTMiddleware(validatorMock, discardLogger())(next)

			req := httptest.NewRequest(http.MethodGet, "/counselors", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectNext, nextCalled)
			if tt.expectNext {
				assert.Equal(t, "uid-1", gotUID)
			}
			validatorMock.AssertExpectations(t)
		})
	}
}

func TestAdminOnlyMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := AdminOnlyMiddleware(discardLogger())(next)

	t.Run("роль admin проходит", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin/metrics", nil)
		req = req.WithContext(context.WithValue(req.Context(), Role, "admin"))
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("обычная роль получает 403", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin/metrics", nil)
		req = req.WithContext(context.WithValue(req.Context(), Role, "user"))
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("без роли получает 403", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin/metrics", nil)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}
