package imagegen

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/LouisCorbet/BlogSeed/internal/config"
)

// secondary is the simpler synchronous tier: the prompt travels in the URL
// and the response body is the image itself.
type secondary struct {
	httpClient *http.Client
	baseURL    string
	size       int
	logger     *slog.Logger
}

func newSecondary(cfg config.SecondaryImageConfig, size int, logger *slog.Logger) *secondary {
	return &secondary{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.BaseURL,
		size:       size,
		logger:     logger,
	}
}

func (s *secondary) Name() string { return "secondary" }

func (s *secondary) Generate(ctx context.Context, prompt string) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/prompt/%s?width=%d&height=%d",
		s.baseURL, url.PathEscape(prompt), s.size, s.size)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty image response")
	}
	return raw, nil
}
