// Package server exposes the HTTP surface: article CRUD, site settings,
// auto-publish status and trigger, the revalidation webhook and the image
// asset route.
package server

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/LouisCorbet/BlogSeed/internal/domain"
	"github.com/LouisCorbet/BlogSeed/internal/scheduler"
	"github.com/LouisCorbet/BlogSeed/internal/settings"
	"github.com/LouisCorbet/BlogSeed/internal/status"
	"github.com/LouisCorbet/BlogSeed/internal/storage/files"
)

// maxUploadBytes caps interactive image uploads.
const maxUploadBytes = 8 << 20

// Trigger starts one publish cycle outside the schedule.
type Trigger interface {
	TriggerNow() error
}

// ImageProcessor re-encodes an uploaded image to the storage format.
type ImageProcessor interface {
	Process(raw []byte) (full, thumb []byte, err error)
}

type Config struct {
	AdminUser string
	AdminPass string
	CronKey   string
	PublicDir string
}

type Server struct {
	store     *files.Store
	settings  *settings.File
	reporter  *status.Reporter
	trigger   Trigger
	images    ImageProcessor
	cronKey   string
	publicDir string
	imageDir  string
	logger    *slog.Logger
	engine    *gin.Engine
}

func New(
	cfg Config,
	store *files.Store,
	settingsFile *settings.File,
	reporter *status.Reporter,
	trigger Trigger,
	images ImageProcessor,
	logger *slog.Logger,
) *Server {
	s := &Server{
		store:     store,
		settings:  settingsFile,
		reporter:  reporter,
		trigger:   trigger,
		images:    images,
		cronKey:   cfg.CronKey,
		publicDir: cfg.PublicDir,
		imageDir:  store.ImageDir(),
		logger:    logger.With("component", "server"),
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/api/articles", s.listArticles)
	r.GET("/api/articles/:id", s.getArticle)
	r.GET("/api/autopublish-status", s.autoPublishStatus)
	r.POST("/api/revalidate", s.revalidate)
	r.GET("/images/*filepath", s.serveImage)

	guard := newAuthGuard(cfg.AdminUser, cfg.AdminPass)
	admin := r.Group("/", guard.middleware())
	admin.POST("/api/articles", s.saveArticle)
	admin.DELETE("/api/articles/:id", s.deleteArticle)
	admin.GET("/api/settings", s.getSettings)
	admin.PUT("/api/settings", s.putSettings)
	admin.POST("/api/autopublish/run", s.runNow)

	s.engine = r
	return s
}

func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) listArticles(c *gin.Context) {
	items := s.store.ReadIndex()
	if items == nil {
		items = []domain.Article{}
	}
	c.JSON(http.StatusOK, items)
}

func (s *Server) getArticle(c *gin.Context) {
	item, ok := s.store.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	html, err := s.store.ReadContent(item.Slug)
	if err != nil {
		s.logger.Warn("content file missing", "slug", item.Slug, "error", err)
	}
	c.JSON(http.StatusOK, gin.H{"article": item, "html": html})
}

type articlePayload struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Author       string `json:"author"`
	HTML         string `json:"html"`
	Tagline      string `json:"tagline"`
	AssetAltText string `json:"assetAltText"`
	PublishedAt  string `json:"publishedAt"`
}

// saveArticle accepts multipart form data (the upload path) or a plain JSON
// body (metadata-only edits).
func (s *Server) saveArticle(c *gin.Context) {
	if strings.HasPrefix(c.ContentType(), "application/json") {
		s.saveArticleJSON(c)
		return
	}
	title := strings.TrimSpace(c.PostForm("title"))
	author := strings.TrimSpace(c.PostForm("author"))
	if title == "" || author == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title and author are required"})
		return
	}

	req := files.SaveRequest{
		ID:           strings.TrimSpace(c.PostForm("id")),
		Title:        title,
		AuthorName:   author,
		HTML:         c.PostForm("html"),
		Tagline:      strings.TrimSpace(c.PostForm("tagline")),
		AssetAltText: strings.TrimSpace(c.PostForm("assetAltText")),
	}

	if d := strings.TrimSpace(c.PostForm("publishedAt")); d != "" {
		t, err := time.Parse(time.RFC3339, d)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "publishedAt must be RFC 3339"})
			return
		}
		req.PublishedAt = &t
	}

	if fh, err := c.FormFile("image"); err == nil {
		if fh.Size > maxUploadBytes {
			c.JSON(http.StatusBadRequest, gin.H{"error": "image exceeds upload limit"})
			return
		}
		f, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable image upload"})
			return
		}
		raw, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable image upload"})
			return
		}
		full, thumb, err := s.images.Process(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported image format"})
			return
		}
		req.Image = full
		req.Thumb = thumb
	}

	item, err := s.store.Save(req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, item)
}

func (s *Server) saveArticleJSON(c *gin.Context) {
	var payload articlePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid article payload"})
		return
	}
	if strings.TrimSpace(payload.Title) == "" || strings.TrimSpace(payload.Author) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title and author are required"})
		return
	}

	req := files.SaveRequest{
		ID:           strings.TrimSpace(payload.ID),
		Title:        strings.TrimSpace(payload.Title),
		AuthorName:   strings.TrimSpace(payload.Author),
		HTML:         payload.HTML,
		Tagline:      strings.TrimSpace(payload.Tagline),
		AssetAltText: strings.TrimSpace(payload.AssetAltText),
	}
	if d := strings.TrimSpace(payload.PublishedAt); d != "" {
		t, err := time.Parse(time.RFC3339, d)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "publishedAt must be RFC 3339"})
			return
		}
		req.PublishedAt = &t
	}

	item, err := s.store.Save(req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, item)
}

func (s *Server) deleteArticle(c *gin.Context) {
	if err := s.store.Remove(c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) getSettings(c *gin.Context) {
	c.JSON(http.StatusOK, s.settings.Read())
}

func (s *Server) putSettings(c *gin.Context) {
	var next settings.SiteSettings
	if err := c.ShouldBindJSON(&next); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid settings payload"})
		return
	}
	if err := s.settings.Write(next); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, s.settings.Read())
}

func (s *Server) autoPublishStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.reporter.Snapshot())
}

func (s *Server) runNow(c *gin.Context) {
	if err := s.trigger.TriggerNow(); err != nil {
		if errors.Is(err, scheduler.ErrCycleInFlight) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"ok": true})
}

type revalidatePayload struct {
	Paths  []string `json:"paths"`
	Tags   []string `json:"tags"`
	Layout bool     `json:"layout"`
}

// revalidate is the receiving end of the notification contract: downstream
// renderers post here with the shared cron key. There is no cache of our
// own; the request is acknowledged and logged.
func (s *Server) revalidate(c *gin.Context) {
	key := c.GetHeader("x-cron-key")
	if s.cronKey == "" || key != s.cronKey {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var payload revalidatePayload
	_ = c.ShouldBindJSON(&payload)

	s.logger.Info("revalidation requested", "paths", payload.Paths, "tags", payload.Tags)
	c.JSON(http.StatusOK, gin.H{
		"ok":     true,
		"paths":  payload.Paths,
		"tags":   payload.Tags,
		"layout": payload.Layout,
	})
}

func fileExists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}
