package email

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kokoroai/counselor-backend/internal/config"
)

func TestSend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/emails", r.URL.Path)
		assert.Equal(t, "Bearer re_key", r.Header.Get("Authorization"))

		var req sendRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "noreply@kokoroai.jp", req.From)
		assert.Equal(t, []string{"taro@example.com"}, req.To)
		assert.Equal(t, "無料期間終了のお知らせ", req.Subject)
		assert.Contains(t, req.HTML, "まもなく")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewResend(config.Resend{ResendAPIKey: "re_key", ResendFrom: "noreply@kokoroai.jp"})
	client.apiURL = srv.URL

	err := client.Send(context.Background(), "taro@example.com", "無料期間終了のお知らせ", "<p>まもなく無料期間が終了します</p>")
	require.NoError(t, err)
}

func TestSend_NoKey(t *testing.T) {
	client := NewResend(config.Resend{})

	err := client.Send(context.Background(), "a@b.c", "s", "h")
	assert.Error(t, err)
}

func TestSend_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	client := NewResend(config.Resend{ResendAPIKey: "re_key", ResendFrom: "noreply@kokoroai.jp"})
	client.apiURL = srv.URL

	err := client.Send(context.Background(), "a@b.c", "s", "h")
	assert.Error(t, err)
}
