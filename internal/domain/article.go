package domain

import "time"

// ArticleStatus enumerates the generation lifecycle of an article stub.
type ArticleStatus string

const (
	// StatusDraft marks an outline stub that has no generated body yet.
	StatusDraft ArticleStatus = "draft"
	// StatusGenerated marks an article whose body has been produced by a model.
	// Generated is terminal: an article never moves back to draft.
	StatusGenerated ArticleStatus = "generated"
)

// Article is a core entity: one planned column article for a site.
type Article struct {
	ID          int64
	SiteID      int64
	Title       string
	SEOKeywords string
	Summary     string
	Content     string
	Model       string
	Status      ArticleStatus
	PublishDate *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// OutlineRecord is a parsed {title, keywords, summary} triple awaiting
// validation before becoming a persisted article stub.
type OutlineRecord struct {
	Title    string
	Keywords string
	Summary  string
}

// Valid reports whether all required fields are populated. Records failing
// this predicate are discarded, never stored as partial rows.
func (r OutlineRecord) Valid() bool {
	return r.Title != "" && r.Keywords != "" && r.Summary != ""
}
