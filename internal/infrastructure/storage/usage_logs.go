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

// UsageLogRepo appends and lists AI-call audit records.
type UsageLogRepo struct {
	db *sqlx.DB
}

var _ ports.UsageLogRepository = (*UsageLogRepo)(nil)

// NewUsageLogRepo wires a database handle.
func NewUsageLogRepo(db *sqlx.DB) *UsageLogRepo {
	return &UsageLogRepo{db: db}
}

type usageLogRow struct {
	ID              int64     `db:"id"`
	SiteID          *int64    `db:"site_id"`
	ArticleID       *int64    `db:"article_id"`
	Model           string    `db:"model"`
	Kind            string    `db:"kind"`
	Prompt          string    `db:"prompt"`
	Response        string    `db:"response"`
	TokensEstimated int       `db:"tokens_estimated"`
	ElapsedMS       int64     `db:"elapsed_ms"`
	CreatedAt       time.Time `db:"created_at"`
}

func (r usageLogRow) toDomain() domain.UsageLogEntry {
	return domain.UsageLogEntry{
		ID:              r.ID,
		SiteID:          r.SiteID,
		ArticleID:       r.ArticleID,
		Model:           r.Model,
		Kind:            domain.UsageKind(r.Kind),
		Prompt:          r.Prompt,
		Response:        r.Response,
		TokensEstimated: r.TokensEstimated,
		Elapsed:         time.Duration(r.ElapsedMS) * time.Millisecond,
		CreatedAt:       r.CreatedAt,
	}
}

// Append inserts one audit record.
func (r *UsageLogRepo) Append(ctx context.Context, entry domain.UsageLogEntry) error {
	query, args, err := psql.Insert("usage_logs").
		Columns("site_id", "article_id", "model", "kind", "prompt", "response",
			"tokens_estimated", "elapsed_ms").
		Values(entry.SiteID, entry.ArticleID, entry.Model, string(entry.Kind),
			entry.Prompt, entry.Response, entry.TokensEstimated,
			entry.Elapsed.Milliseconds()).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert usage log: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert usage log: %w", err)
	}
	return nil
}

// List returns records newest first, optionally filtered by site.
func (r *UsageLogRepo) List(ctx context.Context, siteID *int64, limit, offset int) ([]domain.UsageLogEntry, error) {
	builder := psql.Select("id", "site_id", "article_id", "model", "kind", "prompt",
		"response", "tokens_estimated", "elapsed_ms", "created_at").
		From("usage_logs").
		OrderBy("id DESC")
	if siteID != nil {
		builder = builder.Where(sq.Eq{"site_id": *siteID})
	}
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}
	if offset > 0 {
		builder = builder.Offset(uint64(offset))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list usage logs: %w", err)
	}

	var rows []usageLogRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list usage logs: %w", err)
	}

	entries := make([]domain.UsageLogEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, row.toDomain())
	}
	return entries, nil
}

// Stats aggregates calls per model and kind, optionally filtered by site.
func (r *UsageLogRepo) Stats(ctx context.Context, siteID *int64) ([]domain.UsageStat, error) {
	builder := psql.Select("model", "kind", "COUNT(*) AS calls",
		"COALESCE(SUM(tokens_estimated), 0) AS total_tokens",
		"COALESCE(AVG(elapsed_ms), 0) AS avg_elapsed_ms").
		From("usage_logs").
		GroupBy("model", "kind").
		OrderBy("model", "kind")
	if siteID != nil {
		builder = builder.Where(sq.Eq{"site_id": *siteID})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build usage stats: %w", err)
	}

	var rows []struct {
		Model        string  `db:"model"`
		Kind         string  `db:"kind"`
		Calls        int     `db:"calls"`
		TotalTokens  int     `db:"total_tokens"`
		AvgElapsedMS float64 `db:"avg_elapsed_ms"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("usage stats: %w", err)
	}

	stats := make([]domain.UsageStat, 0, len(rows))
	for _, row := range rows {
		stats = append(stats, domain.UsageStat{
			Model:       row.Model,
			Kind:        domain.UsageKind(row.Kind),
			Calls:       row.Calls,
			TotalTokens: row.TotalTokens,
			AvgElapsed:  time.Duration(row.AvgElapsedMS * float64(time.Millisecond)),
		})
	}
	return stats, nil
}
