// Package publisher notifies a downstream rendering layer that logical paths
// must be revalidated after a publish. Pure notification: failures are the
// receiver's problem, never the publish cycle's.
package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/LouisCorbet/BlogSeed/internal/config"
)

type Revalidator struct {
	httpClient *http.Client
	url        string
	key        string
	logger     *slog.Logger
}

func NewRevalidator(cfg config.RevalidateConfig, logger *slog.Logger) *Revalidator {
	return &Revalidator{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		url:        cfg.URL,
		key:        cfg.Key,
		logger:     logger.With("component", "revalidator"),
	}
}

type revalidateRequest struct {
	Paths []string `json:"paths"`
}

// Revalidate posts the path list with the shared cron key. A missing target
// URL turns the call into a no-op so deployments without a cache layer need
// no extra configuration.
func (r *Revalidator) Revalidate(ctx context.Context, paths []string) error {
	if r.url == "" {
		return nil
	}

	body, err := json.Marshal(revalidateRequest{Paths: paths})
	if err != nil {
		return fmt.Errorf("marshal revalidation: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-cron-key", r.key)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	r.logger.Debug("revalidation sent", "paths", paths)
	return nil
}
