package files

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type StoreTestSuite struct {
	suite.Suite
	dir   string
	store *Store
}

func (s *StoreTestSuite) SetupTest() {
	s.dir = s.T().TempDir()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	s.store = New(s.dir, logger)
}

func TestStoreTestSuite(t *testing.T) {
	suite.Run(t, new(StoreTestSuite))
}

func (s *StoreTestSuite) TestReadIndex_Missing() {
	s.Nil(s.store.ReadIndex())
}

func (s *StoreTestSuite) TestReadIndex_Corrupt() {
	p := filepath.Join(s.dir, "articles", "index.json")
	s.Require().NoError(os.MkdirAll(filepath.Dir(p), 0o755))
	s.Require().NoError(os.WriteFile(p, []byte("{broken"), 0o644))

	s.Nil(s.store.ReadIndex())
}

func (s *StoreTestSuite) TestSave_Create() {
	item, err := s.store.Save(SaveRequest{
		Title:        "Les bases du compost",
		AuthorName:   "Rédaction",
		HTML:         "<p>corps</p>",
		Image:        []byte("jpeg-bytes"),
		Thumb:        []byte("thumb-bytes"),
		AssetAltText: "Un tas de compost",
		Tagline:      "Tout se transforme.",
	})

	s.Require().NoError(err)
	s.NotEmpty(item.ID)
	s.Equal("les-bases-du-compost", item.Slug)
	s.Equal("images/les-bases-du-compost.jpg", item.AssetPath)
	s.WithinDuration(time.Now(), item.PublishedAt, time.Minute)

	idx := s.store.ReadIndex()
	s.Require().Len(idx, 1)
	s.Equal(item.ID, idx[0].ID)

	html, err := s.store.ReadContent(item.Slug)
	s.Require().NoError(err)
	s.Equal("<p>corps</p>", html)

	s.FileExists(filepath.Join(s.dir, "images", "les-bases-du-compost.jpg"))
	s.FileExists(filepath.Join(s.dir, "images", "les-bases-du-compost-thumb.jpg"))
}

func (s *StoreTestSuite) TestSave_RequiresTitle() {
	_, err := s.store.Save(SaveRequest{AuthorName: "Rédaction"})
	s.Error(err)
}

func (s *StoreTestSuite) TestSave_ImageWithoutThumbRejected() {
	_, err := s.store.Save(SaveRequest{Title: "Titre", Image: []byte("x")})
	s.Error(err)
}

func (s *StoreTestSuite) TestSave_SlugCollision() {
	first, err := s.store.Save(SaveRequest{Title: "Même titre", HTML: "<p>a</p>"})
	s.Require().NoError(err)
	second, err := s.store.Save(SaveRequest{Title: "Même titre", HTML: "<p>b</p>"})
	s.Require().NoError(err)
	third, err := s.store.Save(SaveRequest{Title: "Même titre", HTML: "<p>c</p>"})
	s.Require().NoError(err)

	s.Equal("meme-titre", first.Slug)
	s.Equal("meme-titre-2", second.Slug)
	s.Equal("meme-titre-3", third.Slug)
}

func (s *StoreTestSuite) TestSave_EditKeepsSlugWhenTitleUnchanged() {
	item, err := s.store.Save(SaveRequest{Title: "Un titre", HTML: "<p>v1</p>"})
	s.Require().NoError(err)

	updated, err := s.store.Save(SaveRequest{
		ID:      item.ID,
		Title:   "Un titre",
		HTML:    "<p>v2</p>",
		Tagline: "nouvelle accroche",
	})
	s.Require().NoError(err)

	s.Equal(item.Slug, updated.Slug)
	s.Equal(item.PublishedAt.Unix(), updated.PublishedAt.Unix())
	s.Equal("nouvelle accroche", updated.Tagline)

	html, err := s.store.ReadContent(item.Slug)
	s.Require().NoError(err)
	s.Equal("<p>v2</p>", html)
}

func (s *StoreTestSuite) TestSave_EditTitleChangeMovesAssets() {
	item, err := s.store.Save(SaveRequest{
		Title: "Ancien titre",
		HTML:  "<p>corps</p>",
		Image: []byte("jpeg"),
		Thumb: []byte("thumb"),
	})
	s.Require().NoError(err)

	updated, err := s.store.Save(SaveRequest{
		ID:    item.ID,
		Title: "Nouveau titre",
		HTML:  "<p>corps</p>",
	})
	s.Require().NoError(err)

	s.Equal("nouveau-titre", updated.Slug)
	s.Equal("images/nouveau-titre.jpg", updated.AssetPath)

	s.FileExists(filepath.Join(s.dir, "images", "nouveau-titre.jpg"))
	s.NoFileExists(filepath.Join(s.dir, "images", "ancien-titre.jpg"))
	s.NoFileExists(filepath.Join(s.dir, "articles", "html", "ancien-titre.html"))

	idx := s.store.ReadIndex()
	s.Require().Len(idx, 1)
	s.Equal("nouveau-titre", idx[0].Slug)
}

func (s *StoreTestSuite) TestSave_UnknownIDRejected() {
	_, err := s.store.Save(SaveRequest{ID: "missing", Title: "Titre"})
	s.Error(err)
}

func (s *StoreTestSuite) TestSave_PublishedAtOverride() {
	at := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	item, err := s.store.Save(SaveRequest{Title: "Daté", HTML: "<p>x</p>", PublishedAt: &at})
	s.Require().NoError(err)
	s.True(item.PublishedAt.Equal(at))
}

func (s *StoreTestSuite) TestRemove() {
	item, err := s.store.Save(SaveRequest{
		Title: "À supprimer",
		HTML:  "<p>x</p>",
		Image: []byte("jpeg"),
		Thumb: []byte("thumb"),
	})
	s.Require().NoError(err)

	s.Require().NoError(s.store.Remove(item.ID))

	s.Empty(s.store.ReadIndex())
	s.NoFileExists(filepath.Join(s.dir, "images", item.Slug+".jpg"))
	s.NoFileExists(filepath.Join(s.dir, "articles", "html", item.Slug+".html"))
}

func (s *StoreTestSuite) TestRemove_UnknownIsNoOp() {
	item, err := s.store.Save(SaveRequest{Title: "Reste", HTML: "<p>x</p>"})
	s.Require().NoError(err)

	s.NoError(s.store.Remove("nope"))
	s.Len(s.store.ReadIndex(), 1)
	s.Equal(item.ID, s.store.ReadIndex()[0].ID)
}

func (s *StoreTestSuite) TestGetAndGetBySlug() {
	item, err := s.store.Save(SaveRequest{Title: "Retrouvable", HTML: "<p>x</p>"})
	s.Require().NoError(err)

	byID, ok := s.store.Get(item.ID)
	s.True(ok)
	s.Equal(item.Slug, byID.Slug)

	bySlug, ok := s.store.GetBySlug(item.Slug)
	s.True(ok)
	s.Equal(item.ID, bySlug.ID)

	_, ok = s.store.Get("missing")
	s.False(ok)
}
