package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"github.com/LouisCorbet/BlogSeed/internal/domain"
	"github.com/LouisCorbet/BlogSeed/internal/generator"
	"github.com/LouisCorbet/BlogSeed/internal/imagegen"
	"github.com/LouisCorbet/BlogSeed/internal/service/mocks"
	"github.com/LouisCorbet/BlogSeed/internal/settings"
	"github.com/LouisCorbet/BlogSeed/internal/status"
	"github.com/LouisCorbet/BlogSeed/internal/storage/files"
)

type PublishServiceTestSuite struct {
	suite.Suite
	ctrl *gomock.Controller

	generator *mocks.MockGenerator
	images    *mocks.MockImageSource
	store     *mocks.MockContentStore
	settings  *mocks.MockSettingsReader
	notifier  *mocks.MockNotifier

	reporter *status.Reporter
	service  *PublishService
	logger   *slog.Logger
}

func (s *PublishServiceTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())

	s.generator = mocks.NewMockGenerator(s.ctrl)
	s.images = mocks.NewMockImageSource(s.ctrl)
	s.store = mocks.NewMockContentStore(s.ctrl)
	s.settings = mocks.NewMockSettingsReader(s.ctrl)
	s.notifier = mocks.NewMockNotifier(s.ctrl)

	s.reporter = status.NewReporter()
	s.logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	s.service = NewPublishService(
		s.generator,
		s.images,
		s.store,
		s.settings,
		s.notifier,
		s.reporter,
		s.logger,
	)
}

func (s *PublishServiceTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestPublishServiceTestSuite(t *testing.T) {
	suite.Run(t, new(PublishServiceTestSuite))
}

func (s *PublishServiceTestSuite) siteSettings() settings.SiteSettings {
	return settings.SiteSettings{
		Name: "Test",
		URL:  "https://test.example",
		AutoPublish: settings.AutoPublish{
			Enabled: true,
			Prompt:  "Écris un article sur le jardinage.",
			Model:   "mistral-large-latest",
			Author:  "Rédaction",
		},
	}
}

func (s *PublishServiceTestSuite) TestPublish_Success() {
	ctx := context.Background()

	s.settings.EXPECT().Read().Return(s.siteSettings())
	s.store.EXPECT().ReadIndex().Return([]domain.Article{
		{Title: "Ancien article"},
	})

	draft := domain.Draft{
		Title:       "Tailler ses rosiers",
		Catchphrase: "Le bon geste au bon moment.",
		ImageAlt:    "Des rosiers taillés",
		ImagePrompt: "pruned rose bushes, golden hour",
		HTML:        "<p>chapo</p>",
		Sections:    4,
	}
	s.generator.EXPECT().Generate(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, req generator.Request) (domain.Draft, error) {
			s.Equal("Écris un article sur le jardinage.", req.Brief)
			s.Equal([]string{"Ancien article"}, req.RecentTitles)
			return draft, nil
		},
	)

	s.images.EXPECT().Acquire(ctx, draft.ImagePrompt).Return(imagegen.Result{
		Full:     []byte{0xFF, 0xD8},
		Thumb:    []byte{0xFF, 0xD8},
		Provider: "primary",
	}, nil)

	s.store.EXPECT().Save(gomock.Any()).DoAndReturn(
		func(req files.SaveRequest) (domain.Article, error) {
			s.Equal(draft.Title, req.Title)
			s.Equal("Rédaction", req.AuthorName)
			s.Equal(draft.Catchphrase, req.Tagline)
			s.NotEmpty(req.Image)
			return domain.Article{ID: "a1", Slug: "tailler-ses-rosiers", Title: req.Title}, nil
		},
	)

	s.notifier.EXPECT().Revalidate(ctx, []string{"/", "/articles", "/articles/tailler-ses-rosiers"}).Return(nil)

	stats, err := s.service.Publish(ctx)

	s.NoError(err)
	s.Equal("tailler-ses-rosiers", stats.Slug)
	s.False(stats.ImageFallback)
	s.Equal(4, stats.Sections)

	snap := s.reporter.Snapshot()
	s.Equal(status.StepDone, snap.Step)
	s.False(snap.Running)
}

func (s *PublishServiceTestSuite) TestPublish_GeneratorError() {
	ctx := context.Background()

	s.settings.EXPECT().Read().Return(s.siteSettings())
	s.store.EXPECT().ReadIndex().Return(nil)
	s.generator.EXPECT().Generate(ctx, gomock.Any()).Return(domain.Draft{}, generator.ErrIncompleteOutline)

	stats, err := s.service.Publish(ctx)

	s.Error(err)
	s.Nil(stats)
	s.ErrorIs(err, generator.ErrIncompleteOutline)

	snap := s.reporter.Snapshot()
	s.Equal(status.StepError, snap.Step)
	s.False(snap.Running)
	s.Contains(snap.Detail, "generate article")
}

func (s *PublishServiceTestSuite) TestPublish_ImageFallbackIsNotFatal() {
	ctx := context.Background()

	s.settings.EXPECT().Read().Return(s.siteSettings())
	s.store.EXPECT().ReadIndex().Return(nil)
	s.generator.EXPECT().Generate(ctx, gomock.Any()).Return(domain.Draft{
		Title:       "Un titre",
		Catchphrase: "Une accroche",
		ImagePrompt: "prompt",
		HTML:        "<p>corps</p>",
		Sections:    3,
	}, nil)
	s.images.EXPECT().Acquire(ctx, "prompt").Return(imagegen.Result{
		Full:     []byte{0xFF, 0xD8},
		Thumb:    []byte{0xFF, 0xD8},
		Provider: "placeholder",
		Fallback: true,
	}, nil)
	s.store.EXPECT().Save(gomock.Any()).Return(domain.Article{ID: "a2", Slug: "un-titre", Title: "Un titre"}, nil)
	s.notifier.EXPECT().Revalidate(ctx, gomock.Any()).Return(nil)

	stats, err := s.service.Publish(ctx)

	s.NoError(err)
	s.True(stats.ImageFallback)
	s.Equal(status.StepDone, s.reporter.Snapshot().Step)
}

func (s *PublishServiceTestSuite) TestPublish_SaveError() {
	ctx := context.Background()

	s.settings.EXPECT().Read().Return(s.siteSettings())
	s.store.EXPECT().ReadIndex().Return(nil)
	s.generator.EXPECT().Generate(ctx, gomock.Any()).Return(domain.Draft{
		Title:       "Un titre",
		Catchphrase: "Une accroche",
		ImagePrompt: "prompt",
		HTML:        "<p>corps</p>",
	}, nil)
	s.images.EXPECT().Acquire(ctx, "prompt").Return(imagegen.Result{
		Full:  []byte{0xFF, 0xD8},
		Thumb: []byte{0xFF, 0xD8},
	}, nil)
	s.store.EXPECT().Save(gomock.Any()).Return(domain.Article{}, errors.New("disk full"))

	stats, err := s.service.Publish(ctx)

	s.Error(err)
	s.Nil(stats)
	s.Contains(err.Error(), "save article")
	s.Equal(status.StepError, s.reporter.Snapshot().Step)
}

func (s *PublishServiceTestSuite) TestPublish_RevalidationFailureIsNotFatal() {
	ctx := context.Background()

	s.settings.EXPECT().Read().Return(s.siteSettings())
	s.store.EXPECT().ReadIndex().Return(nil)
	s.generator.EXPECT().Generate(ctx, gomock.Any()).Return(domain.Draft{
		Title:       "Un titre",
		Catchphrase: "Une accroche",
		ImagePrompt: "prompt",
		HTML:        "<p>corps</p>",
	}, nil)
	s.images.EXPECT().Acquire(ctx, "prompt").Return(imagegen.Result{
		Full:  []byte{0xFF, 0xD8},
		Thumb: []byte{0xFF, 0xD8},
	}, nil)
	s.store.EXPECT().Save(gomock.Any()).Return(domain.Article{ID: "a3", Slug: "un-titre", Title: "Un titre"}, nil)
	s.notifier.EXPECT().Revalidate(ctx, gomock.Any()).Return(errors.New("downstream unreachable"))

	stats, err := s.service.Publish(ctx)

	s.NoError(err)
	s.Equal("un-titre", stats.Slug)
	s.Equal(status.StepDone, s.reporter.Snapshot().Step)
}
