package imagegen

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/LouisCorbet/BlogSeed/internal/config"
)

// primary speaks a submit-then-poll generation protocol: one POST creates a
// job, then the job status is polled at a fixed interval up to a bounded
// number of attempts. The polling loop is plain synchronous iteration over
// the job states pending → {succeeded, failed}; running out of attempts
// counts as a provider failure.
type primary struct {
	httpClient   *http.Client
	baseURL      string
	apiKey       string
	pollInterval time.Duration
	maxPolls     int
	logger       *slog.Logger
}

func newPrimary(cfg config.PrimaryImageConfig, logger *slog.Logger) *primary {
	return &primary{
		httpClient:   &http.Client{Timeout: cfg.Timeout},
		baseURL:      cfg.BaseURL,
		apiKey:       cfg.APIKey,
		pollInterval: cfg.PollInterval,
		maxPolls:     cfg.MaxPolls,
		logger:       logger,
	}
}

func (p *primary) Name() string { return "primary" }

type jobSubmission struct {
	ID string `json:"id"`
}

type jobStatus struct {
	Status   string `json:"status"`
	ImageB64 string `json:"image_b64"`
	URL      string `json:"url"`
}

func (p *primary) Generate(ctx context.Context, prompt string) ([]byte, error) {
	id, err := p.submit(ctx, prompt)
	if err != nil {
		return nil, err
	}

	for attempt := 1; attempt <= p.maxPolls; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(p.pollInterval):
		}

		st, err := p.poll(ctx, id)
		if err != nil {
			return nil, err
		}
		switch st.Status {
		case "succeeded", "done":
			return p.extract(ctx, st)
		case "failed", "error":
			return nil, fmt.Errorf("generation job %s failed", id)
		default:
			p.logger.Debug("image job pending", "id", id, "attempt", attempt)
		}
	}
	return nil, fmt.Errorf("generation job %s: polling budget exhausted after %d attempts", id, p.maxPolls)
}

func (p *primary) submit(ctx context.Context, prompt string) (string, error) {
	body, _ := json.Marshal(map[string]string{"prompt": prompt, "aspect_ratio": "1:1"})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/generations", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("submit job: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return "", fmt.Errorf("submit job: unexpected status %d", resp.StatusCode)
	}

	var sub jobSubmission
	if err := json.NewDecoder(resp.Body).Decode(&sub); err != nil {
		return "", fmt.Errorf("decode submission: %w", err)
	}
	if sub.ID == "" {
		return "", fmt.Errorf("submission returned no job id")
	}
	return sub.ID, nil
}

func (p *primary) poll(ctx context.Context, id string) (*jobStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/v1/generations/"+id, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("poll job: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("poll job: unexpected status %d", resp.StatusCode)
	}

	var st jobStatus
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return nil, fmt.Errorf("decode status: %w", err)
	}
	return &st, nil
}

// extract resolves a finished job to raw bytes: inline base64 when present,
// otherwise a follow-up fetch of the result URL.
func (p *primary) extract(ctx context.Context, st *jobStatus) ([]byte, error) {
	if st.ImageB64 != "" {
		raw, err := base64.StdEncoding.DecodeString(st.ImageB64)
		if err != nil {
			return nil, fmt.Errorf("decode inline image: %w", err)
		}
		return raw, nil
	}
	if st.URL == "" {
		return nil, fmt.Errorf("finished job carried neither data nor url")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, st.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch result: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch result: unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
