package storage

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"articleforge/internal/domain"
	"articleforge/internal/ports"
)

// ArticleRepo persists article stubs and generated bodies.
type ArticleRepo struct {
	db *sqlx.DB
}

var _ ports.ArticleRepository = (*ArticleRepo)(nil)

// NewArticleRepo wires a database handle.
func NewArticleRepo(db *sqlx.DB) *ArticleRepo {
	return &ArticleRepo{db: db}
}

type articleRow struct {
	ID          int64      `db:"id"`
	SiteID      int64      `db:"site_id"`
	Title       string     `db:"title"`
	SEOKeywords string     `db:"seo_keywords"`
	Summary     string     `db:"summary"`
	Content     string     `db:"content"`
	Model       string     `db:"model"`
	Status      string     `db:"status"`
	PublishDate *time.Time `db:"publish_date"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
}

func (r articleRow) toDomain() domain.Article {
	return domain.Article{
		ID:          r.ID,
		SiteID:      r.SiteID,
		Title:       r.Title,
		SEOKeywords: r.SEOKeywords,
		Summary:     r.Summary,
		Content:     r.Content,
		Model:       r.Model,
		Status:      domain.ArticleStatus(r.Status),
		PublishDate: r.PublishDate,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

var articleColumns = []string{
	"id", "site_id", "title", "seo_keywords", "summary", "content",
	"model", "status", "publish_date", "created_at", "updated_at",
}

// InsertDraft stores a new outline-derived stub and returns its id.
func (r *ArticleRepo) InsertDraft(ctx context.Context, article domain.Article) (int64, error) {
	query, args, err := psql.Insert("articles").
		Columns("site_id", "title", "seo_keywords", "summary", "model", "status").
		Values(article.SiteID, article.Title, article.SEOKeywords, article.Summary,
			article.Model, string(domain.StatusDraft)).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build insert article: %w", err)
	}

	var id int64
	if err := r.db.QueryRowxContext(ctx, query, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert article: %w", err)
	}
	return id, nil
}

// ArticleByID loads one article.
func (r *ArticleRepo) ArticleByID(ctx context.Context, id int64) (domain.Article, error) {
	query, args, err := psql.Select(articleColumns...).
		From("articles").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return domain.Article{}, fmt.Errorf("build select article: %w", err)
	}

	var row articleRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		return domain.Article{}, fmt.Errorf("select article %d: %w", id, err)
	}
	return row.toDomain(), nil
}

// ArticlesBySite lists every article of a site in id order.
func (r *ArticleRepo) ArticlesBySite(ctx context.Context, siteID int64) ([]domain.Article, error) {
	return r.listBySite(ctx, siteID, nil)
}

// DraftsBySite lists the not-yet-generated articles of a site in id order.
func (r *ArticleRepo) DraftsBySite(ctx context.Context, siteID int64) ([]domain.Article, error) {
	status := string(domain.StatusDraft)
	return r.listBySite(ctx, siteID, &status)
}

// GeneratedBySite lists the generated articles of a site in id order.
func (r *ArticleRepo) GeneratedBySite(ctx context.Context, siteID int64) ([]domain.Article, error) {
	status := string(domain.StatusGenerated)
	return r.listBySite(ctx, siteID, &status)
}

func (r *ArticleRepo) listBySite(ctx context.Context, siteID int64, status *string) ([]domain.Article, error) {
	builder := psql.Select(articleColumns...).
		From("articles").
		Where(sq.Eq{"site_id": siteID}).
		OrderBy("id")
	if status != nil {
		builder = builder.Where(sq.Eq{"status": *status})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list articles: %w", err)
	}

	var rows []articleRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list articles for site %d: %w", siteID, err)
	}

	articles := make([]domain.Article, 0, len(rows))
	for _, row := range rows {
		articles = append(articles, row.toDomain())
	}
	return articles, nil
}

// TitlesBySite returns the titles of every article of a site.
func (r *ArticleRepo) TitlesBySite(ctx context.Context, siteID int64) ([]string, error) {
	query, args, err := psql.Select("title").
		From("articles").
		Where(sq.Eq{"site_id": siteID}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list titles: %w", err)
	}

	var titles []string
	if err := r.db.SelectContext(ctx, &titles, query, args...); err != nil {
		return nil, fmt.Errorf("list titles for site %d: %w", siteID, err)
	}
	return titles, nil
}

// CountBySite returns how many articles a site has.
func (r *ArticleRepo) CountBySite(ctx context.Context, siteID int64) (int, error) {
	query, args, err := psql.Select("COUNT(*)").
		From("articles").
		Where(sq.Eq{"site_id": siteID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count articles: %w", err)
	}

	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count articles for site %d: %w", siteID, err)
	}
	return count, nil
}

// MarkGenerated stores the generated body and flips the status. Regenerating
// an already generated article simply overwrites the content.
func (r *ArticleRepo) MarkGenerated(ctx context.Context, id int64, content string) error {
	query, args, err := psql.Update("articles").
		Set("content", content).
		Set("status", string(domain.StatusGenerated)).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build mark generated: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("mark article %d generated: %w", id, err)
	}
	return nil
}

// UpdatePublishDate sets the planned publish date (YYYY-MM-DD).
func (r *ArticleRepo) UpdatePublishDate(ctx context.Context, id int64, publishDate string) error {
	query, args, err := psql.Update("articles").
		Set("publish_date", publishDate).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update publish date: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update publish date for article %d: %w", id, err)
	}
	return nil
}
