package domain

import "time"

// PublishStats summarizes one completed auto-publish cycle.
type PublishStats struct {
	Slug          string
	Title         string
	ImageFallback bool
	Sections      int
	Duration      time.Duration
}

// Draft is the fully generated article content before it is persisted.
type Draft struct {
	Title       string
	Catchphrase string
	ImageAlt    string
	ImagePrompt string
	HTML        string
	Sections    int
}
