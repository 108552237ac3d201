// Package service runs one end-to-end auto-publish cycle: draft generation,
// cover image acquisition, content store commit, downstream revalidation.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/LouisCorbet/BlogSeed/internal/domain"
	"github.com/LouisCorbet/BlogSeed/internal/generator"
	"github.com/LouisCorbet/BlogSeed/internal/status"
	"github.com/LouisCorbet/BlogSeed/internal/storage/files"
)

// recentTitleWindow bounds the do-not-repeat hint handed to the outline.
const recentTitleWindow = 20

type PublishService struct {
	generator Generator
	images    ImageSource
	store     ContentStore
	settings  SettingsReader
	notifier  Notifier
	reporter  *status.Reporter
	logger    *slog.Logger
}

func NewPublishService(
	gen Generator,
	images ImageSource,
	store ContentStore,
	settings SettingsReader,
	notifier Notifier,
	reporter *status.Reporter,
	logger *slog.Logger,
) *PublishService {
	return &PublishService{
		generator: gen,
		images:    images,
		store:     store,
		settings:  settings,
		notifier:  notifier,
		reporter:  reporter,
		logger:    logger.With("component", "publish"),
	}
}

// Publish runs one cycle to completion. Any failure before the store commit
// aborts with no persisted side effects; the reporter records the terminal
// state either way. Callers are responsible for not overlapping cycles.
func (s *PublishService) Publish(ctx context.Context) (*domain.PublishStats, error) {
	startTime := time.Now()
	s.reporter.Set(status.StepInit, "")

	cfg := s.settings.Read().AutoPublish

	s.reporter.Set(status.StepAI, "")
	draft, err := s.generator.Generate(ctx, generator.Request{
		Brief:        cfg.Prompt,
		Model:        cfg.Model,
		RecentTitles: s.recentTitles(),
	})
	if err != nil {
		return nil, s.fail(fmt.Errorf("generate article: %w", err))
	}

	s.logger.Info("draft generated", "title", draft.Title, "sections", draft.Sections)

	s.reporter.Set(status.StepImage, draft.ImagePrompt)
	img, err := s.images.Acquire(ctx, draft.ImagePrompt)
	if err != nil {
		return nil, s.fail(fmt.Errorf("acquire image: %w", err))
	}
	if img.Fallback {
		s.reporter.Set(status.StepImageFallback, img.Provider)
	}

	s.reporter.Set(status.StepHTML, draft.Title)
	item, err := s.store.Save(files.SaveRequest{
		Title:        draft.Title,
		AuthorName:   cfg.Author,
		HTML:         draft.HTML,
		Image:        img.Full,
		Thumb:        img.Thumb,
		AssetAltText: draft.ImageAlt,
		Tagline:      draft.Catchphrase,
	})
	if err != nil {
		return nil, s.fail(fmt.Errorf("save article: %w", err))
	}
	s.reporter.Set(status.StepIndex, item.Slug)

	s.reporter.Set(status.StepRevalidate, item.Slug)
	paths := []string{"/", "/articles", "/articles/" + item.Slug}
	if err := s.notifier.Revalidate(ctx, paths); err != nil {
		// Notification only; the article is already live.
		s.logger.Warn("revalidation failed", "error", err)
	}

	stats := &domain.PublishStats{
		Slug:          item.Slug,
		Title:         item.Title,
		ImageFallback: img.Fallback,
		Sections:      draft.Sections,
		Duration:      time.Since(startTime),
	}

	s.reporter.Set(status.StepDone, item.Slug)
	s.logger.Info("publish cycle completed",
		"slug", stats.Slug,
		"image_fallback", stats.ImageFallback,
		"duration", stats.Duration,
	)

	return stats, nil
}

func (s *PublishService) fail(err error) error {
	s.reporter.Set(status.StepError, err.Error())
	s.logger.Error("publish cycle failed", "error", err)
	return err
}

// recentTitles returns the latest published titles, newest first.
func (s *PublishService) recentTitles() []string {
	items := s.store.ReadIndex()
	sort.Slice(items, func(i, j int) bool {
		return items[i].PublishedAt.After(items[j].PublishedAt)
	})
	if len(items) > recentTitleWindow {
		items = items[:recentTitleWindow]
	}
	titles := make([]string, 0, len(items))
	for _, it := range items {
		titles = append(titles, it.Title)
	}
	return titles
}
