package storage

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"articleforge/internal/ports"
)

// ReferenceURLRepo stores the crawled URL list chosen for a site.
type ReferenceURLRepo struct {
	db *sqlx.DB
}

var _ ports.ReferenceURLRepository = (*ReferenceURLRepo)(nil)

// NewReferenceURLRepo wires a database handle.
func NewReferenceURLRepo(db *sqlx.DB) *ReferenceURLRepo {
	return &ReferenceURLRepo{db: db}
}

// SaveReferenceURLs replaces the stored list for a site, keeping order.
func (r *ReferenceURLRepo) SaveReferenceURLs(ctx context.Context, siteID int64, urls []string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	deleteQuery, deleteArgs, err := psql.Delete("reference_urls").
		Where(sq.Eq{"site_id": siteID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete reference urls: %w", err)
	}
	if _, err := tx.ExecContext(ctx, deleteQuery, deleteArgs...); err != nil {
		return fmt.Errorf("delete reference urls for site %d: %w", siteID, err)
	}

	if len(urls) > 0 {
		builder := psql.Insert("reference_urls").Columns("site_id", "url", "position")
		for i, u := range urls {
			builder = builder.Values(siteID, u, i)
		}
		insertQuery, insertArgs, err := builder.ToSql()
		if err != nil {
			return fmt.Errorf("build insert reference urls: %w", err)
		}
		if _, err := tx.ExecContext(ctx, insertQuery, insertArgs...); err != nil {
			return fmt.Errorf("insert reference urls for site %d: %w", siteID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reference urls: %w", err)
	}
	return nil
}

// ReferenceURLs returns the stored list in its original order.
func (r *ReferenceURLRepo) ReferenceURLs(ctx context.Context, siteID int64) ([]string, error) {
	query, args, err := psql.Select("url").
		From("reference_urls").
		Where(sq.Eq{"site_id": siteID}).
		OrderBy("position").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select reference urls: %w", err)
	}

	var urls []string
	if err := r.db.SelectContext(ctx, &urls, query, args...); err != nil {
		return nil, fmt.Errorf("select reference urls for site %d: %w", siteID, err)
	}
	return urls, nil
}
