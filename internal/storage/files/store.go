// Package files is the sole writer of the on-disk content state: the JSON
// index, one HTML fragment per article and the article's image assets. Every
// file becomes visible atomically (sibling tmp + rename); the index is always
// written last so it never points at a missing file.
package files

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"

	"github.com/LouisCorbet/BlogSeed/internal/domain"
)

type Store struct {
	dataDir string
	logger  *slog.Logger

	// Serializes the read-modify-write of the index. Cross-record
	// transactions are out of scope; last writer wins.
	mu sync.Mutex
}

func New(dataDir string, logger *slog.Logger) *Store {
	return &Store{
		dataDir: dataDir,
		logger:  logger.With("component", "store"),
	}
}

func (s *Store) indexPath() string { return filepath.Join(s.dataDir, "articles", "index.json") }

func (s *Store) htmlPath(sl string) string {
	return filepath.Join(s.dataDir, "articles", "html", sl+".html")
}

func (s *Store) imagePath(sl string) string { return filepath.Join(s.dataDir, "images", sl+".jpg") }

func (s *Store) thumbPath(sl string) string {
	return filepath.Join(s.dataDir, "images", sl+"-thumb.jpg")
}

// ImageDir is where the asset route serves from.
func (s *Store) ImageDir() string { return filepath.Join(s.dataDir, "images") }

// ReadIndex returns all index entries. A missing or corrupt index file is
// treated as an empty index, never as an error; the next successful write
// repairs it.
func (s *Store) ReadIndex() []domain.Article {
	raw, err := os.ReadFile(s.indexPath())
	if err != nil {
		return nil
	}
	var items []domain.Article
	if err := json.Unmarshal(raw, &items); err != nil {
		s.logger.Warn("index file unreadable, treating as empty", "error", err)
		return nil
	}
	return items
}

// Get looks an article up by id.
func (s *Store) Get(id string) (domain.Article, bool) {
	for _, a := range s.ReadIndex() {
		if a.ID == id {
			return a, true
		}
	}
	return domain.Article{}, false
}

// GetBySlug looks an article up by slug.
func (s *Store) GetBySlug(sl string) (domain.Article, bool) {
	for _, a := range s.ReadIndex() {
		if a.Slug == sl {
			return a, true
		}
	}
	return domain.Article{}, false
}

// ReadContent returns the stored HTML fragment for a slug.
func (s *Store) ReadContent(sl string) (string, error) {
	raw, err := os.ReadFile(s.htmlPath(sl))
	if err != nil {
		return "", fmt.Errorf("read content %s: %w", sl, err)
	}
	return string(raw), nil
}

// SaveRequest describes one create or edit. An empty ID means create. Image
// and Thumb travel together; both empty leaves the current asset untouched.
type SaveRequest struct {
	ID           string
	Title        string
	AuthorName   string
	HTML         string
	Image        []byte
	Thumb        []byte
	AssetAltText string
	Tagline      string
	PublishedAt  *time.Time
}

// Save writes one logical record: content file and asset files first, index
// entry last. On a slug change the files under the old slug are removed only
// after the new ones are live.
func (s *Store) Save(req SaveRequest) (domain.Article, error) {
	if req.Title == "" {
		return domain.Article{}, errors.New("title is required")
	}
	if len(req.Image) > 0 != (len(req.Thumb) > 0) {
		return domain.Article{}, errors.New("image and thumbnail must be written together")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.ReadIndex()

	var item domain.Article
	var old *domain.Article
	if req.ID == "" {
		item = domain.Article{
			ID:          uuid.NewString(),
			Slug:        s.uniqueSlug(items, req.Title, ""),
			PublishedAt: time.Now(),
		}
	} else {
		for i := range items {
			if items[i].ID == req.ID {
				prev := items[i]
				old = &prev
				break
			}
		}
		if old == nil {
			return domain.Article{}, fmt.Errorf("unknown article %s", req.ID)
		}
		item = *old
		// Slug follows the title: it only regenerates when the title changed.
		if req.Title != old.Title {
			item.Slug = s.uniqueSlug(items, req.Title, old.ID)
		}
	}

	item.Title = req.Title
	item.AuthorName = req.AuthorName
	item.AssetAltText = req.AssetAltText
	item.Tagline = req.Tagline
	if req.PublishedAt != nil {
		item.PublishedAt = *req.PublishedAt
	}

	slugChanged := old != nil && old.Slug != item.Slug

	if err := writeFileAtomic(s.htmlPath(item.Slug), []byte(req.HTML)); err != nil {
		return domain.Article{}, fmt.Errorf("write content: %w", err)
	}

	switch {
	case len(req.Image) > 0:
		if err := writeFileAtomic(s.imagePath(item.Slug), req.Image); err != nil {
			return domain.Article{}, fmt.Errorf("write image: %w", err)
		}
		if err := writeFileAtomic(s.thumbPath(item.Slug), req.Thumb); err != nil {
			return domain.Article{}, fmt.Errorf("write thumbnail: %w", err)
		}
		item.AssetPath = "images/" + item.Slug + ".jpg"
	case slugChanged && old.AssetPath != "":
		// Carry the existing asset over to the new slug. Rename keeps the
		// file visible at every instant.
		if err := os.Rename(s.imagePath(old.Slug), s.imagePath(item.Slug)); err != nil {
			return domain.Article{}, fmt.Errorf("move image: %w", err)
		}
		if err := os.Rename(s.thumbPath(old.Slug), s.thumbPath(item.Slug)); err != nil {
			s.logger.Warn("thumbnail move failed", "slug", item.Slug, "error", err)
		}
		item.AssetPath = "images/" + item.Slug + ".jpg"
	}

	replaced := false
	for i := range items {
		if items[i].ID == item.ID {
			items[i] = item
			replaced = true
			break
		}
	}
	if !replaced {
		items = append(items, item)
	}

	if err := s.writeIndex(items); err != nil {
		return domain.Article{}, err
	}

	if slugChanged {
		s.discard(s.htmlPath(old.Slug))
		if len(req.Image) > 0 && old.AssetPath != "" {
			s.discard(s.imagePath(old.Slug))
			s.discard(s.thumbPath(old.Slug))
		}
	}

	return item, nil
}

// Remove deletes the content file, the asset files and the index row of one
// article. File deletion is advisory cleanup: a missing file is not an error.
// Removing an unknown id is a no-op.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.ReadIndex()
	kept := items[:0]
	var removed *domain.Article
	for i := range items {
		if items[i].ID == id {
			rm := items[i]
			removed = &rm
			continue
		}
		kept = append(kept, items[i])
	}
	if removed == nil {
		return nil
	}

	s.discard(s.htmlPath(removed.Slug))
	if removed.AssetPath != "" {
		s.discard(s.imagePath(removed.Slug))
		s.discard(s.thumbPath(removed.Slug))
	}

	return s.writeIndex(kept)
}

func (s *Store) writeIndex(items []domain.Article) error {
	if items == nil {
		items = []domain.Article{}
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal index: %w", err)
	}
	if err := writeFileAtomic(s.indexPath(), data); err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	return nil
}

// uniqueSlug derives a URL-safe slug from the title and keeps appending a
// numeric suffix until it collides with no live entry other than selfID.
func (s *Store) uniqueSlug(items []domain.Article, title, selfID string) string {
	base := slug.Make(title)
	if base == "" {
		base = "article"
	}
	taken := make(map[string]struct{}, len(items))
	for _, a := range items {
		if a.ID != selfID {
			taken[a.Slug] = struct{}{}
		}
	}
	candidate := base
	for n := 2; ; n++ {
		if _, ok := taken[candidate]; !ok {
			return candidate
		}
		candidate = fmt.Sprintf("%s-%d", base, n)
	}
}

// discard removes a file and deliberately drops the error: deletion here is
// advisory cleanup, not part of the record's consistency.
func (s *Store) discard(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.logger.Warn("cleanup failed", "path", path, "error", err)
	}
}

func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
