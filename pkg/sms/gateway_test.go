package sms

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"rentals/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGateway(t *testing.T, handler http.HandlerFunc) *Gateway {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	g, err := NewGateway(Config{
		BaseURL:   srv.URL,
		AccountID: "acc-1",
		Token:     "tok",
		Sender:    "RENTALS",
		Timeout:   time.Second,
	}, logger.Discard())
	require.NoError(t, err)
	return g
}

func TestNewGateway_RequiresCredentials(t *testing.T) {
	_, err := NewGateway(Config{BaseURL: "http://x"}, logger.Discard())
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestSendMessage(t *testing.T) {
	var got messageRequest
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/accounts/acc-1/messages", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	})

	require.NoError(t, g.SendMessage(context.Background(), "+919876543210", "hello"))
	assert.Equal(t, messageRequest{To: "+919876543210", From: "RENTALS", Body: "hello"}, got)
}

func TestSendMessage_ErrorClassification(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		permanent bool
	}{
		{"bad request", http.StatusBadRequest, true},
		{"throttled", http.StatusTooManyRequests, false},
		{"server error", http.StatusBadGateway, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"message":"nope"}`))
			})

			err := g.SendMessage(context.Background(), "+919876543210", "hello")
			require.Error(t, err)
			assert.Equal(t, tt.permanent, IsPermanent(err))

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, "nope", apiErr.Message)
		})
	}
}

func TestCheckVerification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   Verdict
	}{
		{"approved", http.StatusOK, `{"status":"approved"}`, Approved},
		{"pending", http.StatusOK, `{"status":"pending"}`, Pending},
		{"canceled", http.StatusOK, `{"status":"canceled"}`, Denied},
		{"no verification", http.StatusNotFound, `{"message":"not found"}`, Denied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/v1/accounts/acc-1/verification-checks", r.URL.Path)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			verdict, err := g.CheckVerification(context.Background(), "+919876543210", "123456")
			require.NoError(t, err)
			assert.Equal(t, tt.want, verdict)
		})
	}
}

func TestCheckVerification_TransportFailure(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := g.CheckVerification(context.Background(), "+919876543210", "123456")
	require.Error(t, err)
	assert.False(t, IsPermanent(err))
}

func TestStartVerification(t *testing.T) {
	var got verificationRequest
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/accounts/acc-1/verifications", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	})

	require.NoError(t, g.StartVerification(context.Background(), "+919876543210"))
	assert.Equal(t, "sms", got.Channel)
}
