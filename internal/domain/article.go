package domain

import "time"

// Article is one row of the content index. The JSON form is what lands in
// articles/index.json and what the API returns.
type Article struct {
	ID           string    `json:"id"`
	Slug         string    `json:"slug"`
	Title        string    `json:"title"`
	AuthorName   string    `json:"authorName"`
	PublishedAt  time.Time `json:"publishedAt"`
	AssetPath    string    `json:"assetPath,omitempty"`
	AssetAltText string    `json:"assetAltText,omitempty"`
	Tagline      string    `json:"tagline,omitempty"`
}
