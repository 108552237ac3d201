package server

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

// serveImage maps a requested name onto the data images directory, then the
// legacy public directory. Traversal attempts answer 404, same as a missing
// file.
func (s *Server) serveImage(c *gin.Context) {
	name := strings.TrimPrefix(c.Param("filepath"), "/")

	for _, base := range []string{s.imageDir, filepath.Join(s.publicDir, "images")} {
		fp, ok := safeJoin(base, name)
		if !ok {
			c.String(http.StatusNotFound, "not found")
			return
		}
		if fileExists(fp) {
			c.Header("Cache-Control", "public, max-age=0, must-revalidate")
			c.Header("Content-Type", contentTypeFor(fp))
			c.File(fp)
			return
		}
	}
	c.String(http.StatusNotFound, "not found")
}

// safeJoin joins name under base and refuses any result escaping base.
func safeJoin(base, name string) (string, bool) {
	p := filepath.Join(base, filepath.FromSlash(name))
	if p != base && !strings.HasPrefix(p, base+string(filepath.Separator)) {
		return "", false
	}
	return p, true
}

func contentTypeFor(p string) string {
	switch strings.ToLower(filepath.Ext(p)) {
	case ".webp":
		return "image/webp"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	default:
		return "application/octet-stream"
	}
}
