package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"articleforge/internal/domain"
	"articleforge/internal/ports"
)

// SiteRepo persists analysis runs.
type SiteRepo struct {
	db *sqlx.DB
}

var _ ports.SiteRepository = (*SiteRepo)(nil)

// NewSiteRepo wires a database handle.
func NewSiteRepo(db *sqlx.DB) *SiteRepo {
	return &SiteRepo{db: db}
}

type siteRow struct {
	ID        int64     `db:"id"`
	Name      string    `db:"name"`
	URLs      []byte    `db:"urls"`
	Analysis  string    `db:"analysis"`
	Model     string    `db:"model"`
	CreatedAt time.Time `db:"created_at"`
}

func (r siteRow) toDomain() (domain.Site, error) {
	var urls []string
	if len(r.URLs) > 0 {
		if err := json.Unmarshal(r.URLs, &urls); err != nil {
			return domain.Site{}, fmt.Errorf("decode site urls: %w", err)
		}
	}
	return domain.Site{
		ID:        r.ID,
		Name:      r.Name,
		URLs:      urls,
		Analysis:  r.Analysis,
		Model:     r.Model,
		CreatedAt: r.CreatedAt,
	}, nil
}

// SaveSite inserts a new site row and returns its id.
func (r *SiteRepo) SaveSite(ctx context.Context, site domain.Site) (int64, error) {
	urls, err := json.Marshal(site.URLs)
	if err != nil {
		return 0, fmt.Errorf("encode site urls: %w", err)
	}

	query, args, err := psql.Insert("sites").
		Columns("name", "urls", "analysis", "model").
		Values(site.Name, urls, site.Analysis, site.Model).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build insert site: %w", err)
	}

	var id int64
	if err := r.db.QueryRowxContext(ctx, query, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert site: %w", err)
	}
	return id, nil
}

// SiteByID loads one site.
func (r *SiteRepo) SiteByID(ctx context.Context, id int64) (domain.Site, error) {
	query, args, err := psql.Select("id", "name", "urls", "analysis", "model", "created_at").
		From("sites").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return domain.Site{}, fmt.Errorf("build select site: %w", err)
	}

	var row siteRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		return domain.Site{}, fmt.Errorf("select site %d: %w", id, err)
	}
	return row.toDomain()
}

// UpdateAnalysis replaces the consolidated analysis text of a site.
func (r *SiteRepo) UpdateAnalysis(ctx context.Context, id int64, analysis string) error {
	query, args, err := psql.Update("sites").
		Set("analysis", analysis).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update analysis: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update analysis for site %d: %w", id, err)
	}
	return nil
}
