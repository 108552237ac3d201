// Package generator drives the three-stage article synthesis: one outline
// request, one drafting request per section under a bounded worker pool, and
// a purely mechanical assembly of the results.
package generator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/LouisCorbet/BlogSeed/internal/config"
	"github.com/LouisCorbet/BlogSeed/internal/domain"
)

// ErrIncompleteOutline marks an outline response missing required fields.
// It is fatal for the cycle: nothing is persisted.
var ErrIncompleteOutline = errors.New("incomplete outline")

// TextClient is the completion surface the pipeline needs.
type TextClient interface {
	Chat(ctx context.Context, model, system, user string, temperature float64) (string, error)
	ChatJSON(ctx context.Context, model, system, user string, temperature float64, out any) error
}

// Section is one outline entry. The last one is conventionally "faq".
type Section struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Goal       string   `json:"goal"`
	Components []string `json:"components"`
}

type outline struct {
	Topic       string    `json:"topic"`
	Title       string    `json:"title"`
	Catchphrase string    `json:"catchphrase"`
	ImageAlt    string    `json:"imageAlt"`
	ImagePrompt string    `json:"imagePrompt"`
	ChapoHTML   string    `json:"chapoHtml"`
	MainKeyword string    `json:"mainKeyword"`
	Outline     []Section `json:"outline"`
}

// Request is one generation order.
type Request struct {
	Brief        string
	Model        string
	RecentTitles []string
}

type Pipeline struct {
	client         TextClient
	concurrency    int
	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	logger         *slog.Logger
}

func NewPipeline(client TextClient, cfg config.MistralConfig, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		client:         client,
		concurrency:    cfg.Concurrency,
		maxAttempts:    cfg.Retry.MaxAttempts,
		initialBackoff: cfg.Retry.InitialBackoff,
		maxBackoff:     cfg.Retry.MaxBackoff,
		logger:         logger.With("component", "generator"),
	}
}

// Generate produces a complete draft. A failed outline or an exhausted
// section aborts the whole run; no partial draft is ever returned.
func (p *Pipeline) Generate(ctx context.Context, req Request) (domain.Draft, error) {
	model := req.Model
	if model == "" {
		model = "mistral-large-latest"
	}

	ol, err := p.requestOutline(ctx, model, req)
	if err != nil {
		return domain.Draft{}, err
	}

	p.logger.Info("outline ready",
		"title", ol.Title,
		"sections", len(ol.Outline),
	)

	htmlByID, err := p.draftSections(ctx, model, ol.MainKeyword, ol.Outline)
	if err != nil {
		return domain.Draft{}, err
	}

	return domain.Draft{
		Title:       ol.Title,
		Catchphrase: ol.Catchphrase,
		ImageAlt:    ol.ImageAlt,
		ImagePrompt: ol.ImagePrompt,
		HTML:        assemble(ol.ChapoHTML, ol.Outline, htmlByID),
		Sections:    len(ol.Outline),
	}, nil
}

func (p *Pipeline) requestOutline(ctx context.Context, model string, req Request) (*outline, error) {
	user := strings.TrimSpace(req.Brief)
	if len(req.RecentTitles) > 0 {
		var sb strings.Builder
		for _, t := range req.RecentTitles {
			sb.WriteString("- ")
			sb.WriteString(t)
			sb.WriteString("\n")
		}
		user += "\n\nL'article doit être original et différent des précédents. Titres déjà publiés :\n" + sb.String()
	}

	var ol outline
	if err := p.client.ChatJSON(ctx, model, systemOutline, user, 0.5, &ol); err != nil {
		return nil, fmt.Errorf("outline request: %w", err)
	}
	ol.sanitize()

	if ol.Title == "" || ol.Catchphrase == "" || ol.ChapoHTML == "" || len(ol.Outline) == 0 {
		return nil, ErrIncompleteOutline
	}
	return &ol, nil
}

func (o *outline) sanitize() {
	o.Topic = strings.TrimSpace(o.Topic)
	o.Title = strings.TrimSpace(o.Title)
	o.Catchphrase = strings.TrimSpace(o.Catchphrase)
	o.ImageAlt = strings.TrimSpace(o.ImageAlt)
	o.ImagePrompt = strings.TrimSpace(o.ImagePrompt)
	o.ChapoHTML = strings.TrimSpace(o.ChapoHTML)
	o.MainKeyword = strings.TrimSpace(o.MainKeyword)
	for i := range o.Outline {
		s := &o.Outline[i]
		s.ID = strings.TrimSpace(s.ID)
		if s.ID == "" {
			s.ID = fmt.Sprintf("s-%d", i+1)
		}
		s.Title = strings.TrimSpace(s.Title)
		s.Goal = strings.TrimSpace(s.Goal)
	}
}

// draftSections runs one request per section on a fixed worker pool. The
// first exhausted section cancels the rest and fails the run.
func (p *Pipeline) draftSections(ctx context.Context, model, keyword string, sections []Section) (map[string]string, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan Section, len(sections))
	for _, sec := range sections {
		jobs <- sec
	}
	close(jobs)

	results := make(map[string]string, len(sections))
	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)

	workers := p.concurrency
	if workers > len(sections) {
		workers = len(sections)
	}
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for sec := range jobs {
				html, err := p.draftOne(ctx, model, keyword, sec)
				if err != nil {
					errOnce.Do(func() {
						firstErr = fmt.Errorf("section %s: %w", sec.ID, err)
						cancel()
					})
					return
				}
				mu.Lock()
				results[sec.ID] = html
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return results, nil
}

func (p *Pipeline) draftOne(ctx context.Context, model, keyword string, sec Section) (string, error) {
	payload, _ := json.MarshalIndent(map[string]any{
		"id":                  sec.ID,
		"title":               sec.Title,
		"goal":                sec.Goal,
		"mainKeyword":         keyword,
		"suggestedComponents": sec.Components,
	}, "", "  ")
	user := "Génère la section suivante (HTML uniquement) :\n" + string(payload)

	var lastErr error
	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		raw, err := p.client.Chat(ctx, model, systemSection, user, 0.7)
		if err == nil {
			p.logger.Debug("section drafted", "id", sec.ID, "attempt", attempt)
			return normalizeSection(raw, sec.ID, sec.Title), nil
		}
		lastErr = err

		if attempt == p.maxAttempts {
			break
		}
		backoff := p.initialBackoff * time.Duration(attempt)
		if backoff > p.maxBackoff {
			backoff = p.maxBackoff
		}
		p.logger.Warn("section draft failed, retrying",
			"id", sec.ID,
			"attempt", attempt,
			"backoff", backoff,
			"error", err,
		)
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(backoff):
		}
	}
	return "", fmt.Errorf("after %d attempts: %w", p.maxAttempts, lastErr)
}
