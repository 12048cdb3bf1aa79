package domain

import "time"

// Site describes one analysis run: the source URLs and the consolidated
// analysis text the articles are planned against.
type Site struct {
	ID        int64
	Name      string
	URLs      []string
	Analysis  string
	Model     string
	CreatedAt time.Time
}

// PageContent pairs a fetched URL with its cleaned text. Groups of these are
// assembled into one analysis prompt and are never persisted.
type PageContent struct {
	URL  string
	Text string
}
