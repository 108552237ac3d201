package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"github.com/LouisCorbet/BlogSeed/internal/domain"
	"github.com/LouisCorbet/BlogSeed/internal/generator"
	"github.com/LouisCorbet/BlogSeed/internal/imagegen"
	"github.com/LouisCorbet/BlogSeed/internal/settings"
	"github.com/LouisCorbet/BlogSeed/internal/storage/files"
)

type Generator interface {
	Generate(ctx context.Context, req generator.Request) (domain.Draft, error)
}

type ImageSource interface {
	Acquire(ctx context.Context, prompt string) (imagegen.Result, error)
}

type ContentStore interface {
	ReadIndex() []domain.Article
	Save(req files.SaveRequest) (domain.Article, error)
}

type SettingsReader interface {
	Read() settings.SiteSettings
}

type Notifier interface {
	Revalidate(ctx context.Context, paths []string) error
}
