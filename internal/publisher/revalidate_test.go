package publisher

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

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestRevalidate_SendsPathsAndKey(t *testing.T) {
	var gotKey string
	var gotPaths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-cron-key")
		var body struct {
			Paths []string `json:"paths"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		gotPaths = body.Paths
	}))
	defer srv.Close()

	r := NewRevalidator(config.RevalidateConfig{URL: srv.URL, Key: "k", Timeout: time.Second}, testLogger())

	err := r.Revalidate(context.Background(), []string{"/", "/articles/x"})

	require.NoError(t, err)
	assert.Equal(t, "k", gotKey)
	assert.Equal(t, []string{"/", "/articles/x"}, gotPaths)
}

func TestRevalidate_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	r := NewRevalidator(config.RevalidateConfig{URL: srv.URL, Key: "k", Timeout: time.Second}, testLogger())

	assert.Error(t, r.Revalidate(context.Background(), []string{"/"}))
}

func TestRevalidate_NoURLIsNoOp(t *testing.T) {
	r := NewRevalidator(config.RevalidateConfig{Timeout: time.Second}, testLogger())

	assert.NoError(t, r.Revalidate(context.Background(), []string{"/"}))
}
