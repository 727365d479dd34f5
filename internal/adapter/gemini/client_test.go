package gemini

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testAPIKey   = "gm-test-key"
	testModel    = "gemini-test"
	testForecast = "Temperature: 28-32°C\nHumidity: 55%\nWind: 10 km/h\nRainfall: 15 mm"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// generateResponse builds a minimal generateContent reply carrying text parts.
func generateResponse(parts ...string) map[string]any {
	ps := make([]map[string]any, 0, len(parts))
	for _, p := range parts {
		ps = append(ps, map[string]any{"text": p})
	}
	return map[string]any{
		"candidates": []map[string]any{{
			"content": map[string]any{"role": "model", "parts": ps},
		}},
	}
}

func testClient(t *testing.T, handler http.HandlerFunc, timeout time.Duration) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(context.Background(), testAPIKey, testModel, timeout, discardLogger(), WithBaseURL(srv.URL))
	require.NoError(t, err)
	return c
}

func TestNewClient_RequiresKey(t *testing.T) {
	_, err := NewClient(context.Background(), "", testModel, time.Second, discardLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key")
}

func TestNewClient_DefaultModel(t *testing.T) {
	c, err := NewClient(context.Background(), testAPIKey, "", time.Second, discardLogger())
	require.NoError(t, err)
	assert.Equal(t, defaultModel, c.model)
}

func TestFetchForecast_Success(t *testing.T) {
	var prompt string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.True(t, strings.HasSuffix(r.URL.Path, "models/"+testModel+":generateContent"), r.URL.Path)

		var body struct {
			Contents []struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"contents"`
		}
		if assert.NoError(t, json.NewDecoder(r.Body).Decode(&body)) && len(body.Contents) > 0 && len(body.Contents[0].Parts) > 0 {
			prompt = body.Contents[0].Parts[0].Text
		}

		w.Header().Set("Content-Type", "application/json")
		assert.NoError(t, json.NewEncoder(w).Encode(generateResponse(testForecast)))
	}, 5*time.Second)

	text, err := c.FetchForecast(context.Background(), "Pune", "2026-10-18")

	require.NoError(t, err)
	assert.Equal(t, testForecast, text)
	assert.Contains(t, prompt, "Provide a weather forecast for Pune on 2026-10-18 with farming insights.")
	assert.Contains(t, prompt, "Soil Moisture:")
}

func TestFetchForecast_EmptyAnswer(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		assert.NoError(t, json.NewEncoder(w).Encode(generateResponse("  \n")))
	}, 5*time.Second)

	_, err := c.FetchForecast(context.Background(), "Pune", "2026-10-18")

	require.ErrorIs(t, err, errEmptyAnswer)
}

func TestFetchForecast_APIError(t *testing.T) {
	var calls atomic.Int32
	c := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"API key not valid","status":"INVALID_ARGUMENT"}}`))
	}, 5*time.Second)

	_, err := c.FetchForecast(context.Background(), "Pune", "2026-10-18")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "gemini generate content")
	assert.GreaterOrEqual(t, calls.Load(), int32(1))
}

func TestFetchForecast_Timeout(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
		w.WriteHeader(http.StatusOK)
	}, 50*time.Millisecond)

	start := time.Now()
	_, err := c.FetchForecast(context.Background(), "Pune", "2026-10-18")

	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}
