package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/codehive-dev/codehive/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFireSkipsWhenEventNotSubscribed(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	f := New()
	cfg := &domain.WebhookConfig{URL: srv.URL, Events: []string{"chat"}}
	f.Fire(context.Background(), cfg, "file_change", "HIVE-ABCDEF", 1000, nil)

	assert.False(t, called)
}

func TestFireDeliversWithStandardFields(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	f := New()
	var outcomes []string
	f.OnDeliver(func(event, outcome string) { outcomes = append(outcomes, event+":"+outcome) })

	cfg := &domain.WebhookConfig{URL: srv.URL, Events: []string{"all"}}
	f.Fire(context.Background(), cfg, "chat", "HIVE-ABCDEF", 1000, map[string]any{"author": "Alice"})

	assert.Equal(t, "chat", got["event"])
	assert.Equal(t, "HIVE-ABCDEF", got["room"])
	assert.Equal(t, "Alice", got["author"])
	assert.Equal(t, []string{"chat:ok"}, outcomes)
}

func TestFireReportsErrorOnNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := New()
	var outcome string
	f.OnDeliver(func(event, o string) { outcome = o })

	cfg := &domain.WebhookConfig{URL: srv.URL, Events: []string{"all"}}
	f.Fire(context.Background(), cfg, "leave", "HIVE-ABCDEF", 1000, nil)

	assert.Equal(t, "error", outcome)
}

func TestFireNilConfigNoop(t *testing.T) {
	f := New()
	f.Fire(context.Background(), nil, "chat", "HIVE-ABCDEF", 1000, nil)
}
