package clients

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travelplanner/internal/config"
)

func newTestGemini(t *testing.T, handler http.HandlerFunc) *GeminiClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewGeminiClient(config.AIConfig{
		GeminiAPIKey: "test-key",
		Model:        "gemini-1.5-pro",
		Endpoint:     srv.URL,
		Timeout:      5 * time.Second,
	}, NewCircuitBreaker("gemini-test-"+t.Name()))
}

func TestGeminiGenerate(t *testing.T) {
	t.Parallel()
	client := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/gemini-1.5-pro:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))

		var req geminiRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "plan a trip", req.Contents[0].Parts[0].Text)

		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"[{\"id\":\"a\"}]"}]}}]}`))
	})

	text, err := client.Generate(context.Background(), "plan a trip")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"a"}]`, text)
}

func TestGeminiEmptyCandidates(t *testing.T) {
	t.Parallel()
	client := newTestGemini(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	})

	text, err := client.Generate(context.Background(), "x")
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestGeminiErrorStatus(t *testing.T) {
	t.Parallel()
	client := newTestGemini(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"API key not valid"}}`))
	})

	_, err := client.Generate(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key not valid")
}

func TestGeminiBreakerOpensAfterThreeFailures(t *testing.T) {
	t.Parallel()
	calls := 0
	client := newTestGemini(t, func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{}`))
	})

	for i := 0; i < 3; i++ {
		_, err := client.Generate(context.Background(), "x")
		require.Error(t, err)
	}
	_, err := client.Generate(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit open")
	assert.Equal(t, 3, calls)
}

func TestGeminiNotConfigured(t *testing.T) {
	t.Parallel()
	client := NewGeminiClient(config.AIConfig{}, nil)
	assert.False(t, client.Configured())
	_, err := client.Generate(context.Background(), "x")
	assert.True(t, errors.Is(err, ErrNotConfigured))
}
