package ports

import (
	"context"

	"articleforge/internal/domain"
)

// TextGenerator produces completion text from one of the configured AI backends.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt, modelKey string) (string, error)
}

// Crawler discovers in-scope page URLs below a base URL.
type Crawler interface {
	Crawl(ctx context.Context, baseURL string) (urls []string, totalFound int, err error)
}

// PageFetcher retrieves one page and reduces it to cleaned, sanitized text.
type PageFetcher interface {
	FetchCleanText(ctx context.Context, url string) (string, error)
}

// SiteRepository persists analysis runs.
type SiteRepository interface {
	SaveSite(ctx context.Context, site domain.Site) (int64, error)
	SiteByID(ctx context.Context, id int64) (domain.Site, error)
	UpdateAnalysis(ctx context.Context, id int64, analysis string) error
}

// ArticleRepository persists article stubs and generated bodies.
type ArticleRepository interface {
	InsertDraft(ctx context.Context, article domain.Article) (int64, error)
	ArticleByID(ctx context.Context, id int64) (domain.Article, error)
	ArticlesBySite(ctx context.Context, siteID int64) ([]domain.Article, error)
	DraftsBySite(ctx context.Context, siteID int64) ([]domain.Article, error)
	GeneratedBySite(ctx context.Context, siteID int64) ([]domain.Article, error)
	TitlesBySite(ctx context.Context, siteID int64) ([]string, error)
	CountBySite(ctx context.Context, siteID int64) (int, error)
	MarkGenerated(ctx context.Context, id int64, content string) error
	UpdatePublishDate(ctx context.Context, id int64, publishDate string) error
}

// UsageLogRepository appends and lists AI-call audit records.
type UsageLogRepository interface {
	Append(ctx context.Context, entry domain.UsageLogEntry) error
	List(ctx context.Context, siteID *int64, limit, offset int) ([]domain.UsageLogEntry, error)
	Stats(ctx context.Context, siteID *int64) ([]domain.UsageStat, error)
}

// ReferenceURLRepository stores the crawled URL list chosen for a site.
type ReferenceURLRepository interface {
	SaveReferenceURLs(ctx context.Context, siteID int64, urls []string) error
	ReferenceURLs(ctx context.Context, siteID int64) ([]string, error)
}
