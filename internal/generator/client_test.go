package generator

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LouisCorbet/BlogSeed/internal/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, func()) {
	t.Helper()
	srv := httptest.NewServer(handler)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	c := NewClient(config.MistralConfig{
		BaseURL: srv.URL,
		APIKey:  "test-key",
		Timeout: time.Second,
	}, logger)
	return c, srv.Close
}

func completion(content string) string {
	b, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]string{"content": content}},
		},
	})
	return string(b)
}

func TestChat_SendsAuthAndMessages(t *testing.T) {
	var got chatRequest
	c, done := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(completion("réponse")))
	})
	defer done()

	out, err := c.Chat(context.Background(), "mistral-large-latest", "sys", "user", 0.7)

	require.NoError(t, err)
	assert.Equal(t, "réponse", out)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.InDelta(t, 0.7, got.Temperature, 1e-9)
	assert.Nil(t, got.ResponseFormat)
}

func TestChatJSON_RequestsJSONMode(t *testing.T) {
	var got chatRequest
	c, done := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(completion(`{"title": "ok"}`)))
	})
	defer done()

	var out struct {
		Title string `json:"title"`
	}
	require.NoError(t, c.ChatJSON(context.Background(), "m", "sys", "user", 0.5, &out))

	assert.Equal(t, "ok", out.Title)
	require.NotNil(t, got.ResponseFormat)
	assert.Equal(t, "json_object", got.ResponseFormat.Type)
}

func TestChatJSON_SalvagesWrappedObject(t *testing.T) {
	c, done := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(completion("Voici le résultat :\n```json\n{\"title\": \"ok\"}\n```")))
	})
	defer done()

	var out struct {
		Title string `json:"title"`
	}
	require.NoError(t, c.ChatJSON(context.Background(), "m", "sys", "user", 0.5, &out))
	assert.Equal(t, "ok", out.Title)
}

func TestChatJSON_NoObjectAtAll(t *testing.T) {
	c, done := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(completion("désolé, aucune idée")))
	})
	defer done()

	var out map[string]any
	assert.Error(t, c.ChatJSON(context.Background(), "m", "sys", "user", 0.5, &out))
}

func TestChat_UpstreamError(t *testing.T) {
	c, done := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	})
	defer done()

	_, err := c.Chat(context.Background(), "m", "sys", "user", 0.7)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestChat_EmptyChoices(t *testing.T) {
	c, done := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices": []}`))
	})
	defer done()

	_, err := c.Chat(context.Background(), "m", "sys", "user", 0.7)
	assert.Error(t, err)
}
