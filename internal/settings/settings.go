// Package settings reads and writes the site.json settings file: global site
// identity plus the auto-publish configuration.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// BrandAsset selects one of the branding images. A typed variant instead of a
// string-keyed field lookup.
type BrandAsset int

const (
	HeaderLogo BrandAsset = iota
	HomeLogo
	Favicon
)

// Branding holds the site's image assets, one explicit field per kind.
type Branding struct {
	HeaderLogo string `json:"headerLogo,omitempty"`
	HomeLogo   string `json:"homeLogo,omitempty"`
	Favicon    string `json:"favicon,omitempty"`
}

// Asset returns the path configured for the given kind.
func (b Branding) Asset(kind BrandAsset) string {
	switch kind {
	case HeaderLogo:
		return b.HeaderLogo
	case HomeLogo:
		return b.HomeLogo
	default:
		return b.Favicon
	}
}

// AutoPublish is the autonomous publishing configuration.
type AutoPublish struct {
	Enabled  bool     `json:"enabled"`
	Prompt   string   `json:"prompt,omitempty"`
	Model    string   `json:"model,omitempty"`
	Author   string   `json:"author,omitempty"`
	Schedule Schedule `json:"schedule"`
}

// SiteSettings is the full content of site.json.
type SiteSettings struct {
	Name          string      `json:"name"`
	URL           string      `json:"url"`
	Tagline       string      `json:"tagline,omitempty"`
	ContactEmail  string      `json:"contactEmail,omitempty"`
	DefaultOG     string      `json:"defaultOg"`
	LocaleDefault string      `json:"localeDefault,omitempty"`
	TitleTemplate string      `json:"titleTemplate,omitempty"`
	Theme         string      `json:"theme,omitempty"`
	About         string      `json:"about,omitempty"`
	SubTitle      string      `json:"subTitle,omitempty"`
	Branding      Branding    `json:"branding"`
	AutoPublish   AutoPublish `json:"autoPublish"`
}

// Defaults are the settings used when site.json is missing or unreadable.
// Site name and URL come from the deployment config.
type Defaults struct {
	SiteName string
	SiteURL  string
	Locale   string
}

func (d Defaults) settings() SiteSettings {
	name := d.SiteName
	if name == "" {
		name = "BlogSeed"
	}
	url := d.SiteURL
	if url == "" {
		url = "https://blogseed.com"
	}
	locale := d.Locale
	if locale == "" {
		locale = "fr_FR"
	}
	return SiteSettings{
		Name:          name,
		URL:           url,
		Tagline:       "Guides, articles et inspirations.",
		DefaultOG:     "/og-default.png",
		LocaleDefault: locale,
		TitleTemplate: "%s — " + name,
		Theme:         "light",
		Branding: Branding{
			HeaderLogo: "/images/header-logo.png",
			HomeLogo:   "/images/home-logo.png",
			Favicon:    "/favicon.ico",
		},
		AutoPublish: AutoPublish{
			Enabled: false,
			Prompt:  "Écris un article utile et intemporel sur le sujet de ton choix.",
			Model:   "mistral-large-latest",
			Author:  "Rédaction auto",
		},
	}
}

// File persists SiteSettings as JSON under the data directory.
type File struct {
	path     string
	defaults Defaults
	mu       sync.Mutex
}

func NewFile(dataDir string, defaults Defaults) *File {
	return &File{
		path:     filepath.Join(dataDir, "site.json"),
		defaults: defaults,
	}
}

// Read returns the stored settings merged over the defaults. A missing or
// corrupt file yields the defaults, never an error.
func (f *File) Read() SiteSettings {
	s := f.defaults.settings()
	raw, err := os.ReadFile(f.path)
	if err != nil {
		return s
	}
	if err := json.Unmarshal(raw, &s); err != nil {
		return f.defaults.settings()
	}
	return s
}

// Write validates and atomically replaces site.json. The auto-publish
// schedule is normalized on the way in; malformed slot values are clamped,
// not rejected.
func (f *File) Write(next SiteSettings) error {
	if strings.TrimSpace(next.Name) == "" {
		return errors.New("site name is required")
	}
	if !strings.HasPrefix(next.URL, "http") {
		return errors.New("site url must be absolute")
	}
	if !strings.HasPrefix(next.DefaultOG, "/") {
		return errors.New("defaultOg must start with /")
	}
	next.AutoPublish.Schedule = next.AutoPublish.Schedule.Normalized()

	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	data, err := json.MarshalIndent(next, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replace settings: %w", err)
	}
	return nil
}
