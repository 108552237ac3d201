// Package imagegen obtains a square cover image for an article from a chain
// of providers of decreasing quality and increasing reliability, ending in a
// locally synthesized placeholder that cannot fail.
package imagegen

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"log/slog"

	"github.com/disintegration/imaging"

	"github.com/LouisCorbet/BlogSeed/internal/config"
)

// Neutral gray used for the placeholder tier.
var placeholderColor = color.NRGBA{R: 0xE5, G: 0xE7, B: 0xEB, A: 0xFF}

// Provider produces raw image bytes for a visual prompt.
type Provider interface {
	Name() string
	Generate(ctx context.Context, prompt string) ([]byte, error)
}

// Result carries the processed cover image and its thumbnail. Fallback is
// true when the primary provider did not deliver.
type Result struct {
	Full     []byte
	Thumb    []byte
	Provider string
	Fallback bool
}

type Chain struct {
	providers []Provider
	size      int
	thumbSize int
	quality   int
	logger    *slog.Logger
}

func NewChain(cfg config.ImageConfig, logger *slog.Logger) *Chain {
	logger = logger.With("component", "imagegen")
	var providers []Provider
	if cfg.Primary.BaseURL != "" {
		providers = append(providers, newPrimary(cfg.Primary, logger))
	}
	if cfg.Secondary.BaseURL != "" {
		providers = append(providers, newSecondary(cfg.Secondary, cfg.Size, logger))
	}
	return &Chain{
		providers: providers,
		size:      cfg.Size,
		thumbSize: cfg.ThumbSize,
		quality:   cfg.Quality,
		logger:    logger,
	}
}

// Acquire walks the provider chain and post-processes whatever bytes came
// out. Provider failures only move the chain forward; the sole error path
// left is the re-encoding of delivered bytes.
func (c *Chain) Acquire(ctx context.Context, prompt string) (Result, error) {
	var img image.Image
	res := Result{Provider: "placeholder", Fallback: true}

	for i, p := range c.providers {
		raw, err := p.Generate(ctx, prompt)
		if err != nil {
			c.logger.Warn("image provider failed, falling through",
				"provider", p.Name(),
				"error", err,
			)
			continue
		}
		decoded, err := imaging.Decode(bytes.NewReader(raw))
		if err != nil {
			return Result{}, fmt.Errorf("decode %s image: %w", p.Name(), err)
		}
		img = decoded
		res.Provider = p.Name()
		res.Fallback = i > 0
		break
	}

	if img == nil {
		img = imaging.New(c.size, c.size, placeholderColor)
	}

	full, thumb, err := c.process(img)
	if err != nil {
		return Result{}, err
	}
	res.Full = full
	res.Thumb = thumb
	return res, nil
}

// Process re-encodes arbitrary image bytes to the storage format: a square
// center-crop at target size plus its thumbnail, both JPEG at the configured
// quality. Also used for interactive uploads.
func (c *Chain) Process(raw []byte) (full, thumb []byte, err error) {
	img, err := imaging.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, nil, fmt.Errorf("decode image: %w", err)
	}
	return c.process(img)
}

func (c *Chain) process(img image.Image) (full, thumb []byte, err error) {
	full, err = c.encode(imaging.Fill(img, c.size, c.size, imaging.Center, imaging.Lanczos))
	if err != nil {
		return nil, nil, fmt.Errorf("encode image: %w", err)
	}
	thumb, err = c.encode(imaging.Fill(img, c.thumbSize, c.thumbSize, imaging.Center, imaging.Lanczos))
	if err != nil {
		return nil, nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return full, thumb, nil
}

func (c *Chain) encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(c.quality)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
