package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"articleforge/internal/domain"
	"articleforge/internal/outline"
	"articleforge/internal/prompts"
)

// CreateOutline asks the AI for a full batch of article stubs and stores the
// fully-populated ones as drafts.
func (p *Pipeline) CreateOutline(ctx context.Context, siteID int64, model string) ([]domain.Article, error) {
	site, err := p.sites.SiteByID(ctx, siteID)
	if err != nil {
		return nil, fmt.Errorf("load site %d: %w", siteID, err)
	}
	if strings.TrimSpace(site.Analysis) == "" {
		return nil, fmt.Errorf("site %d has no analysis yet", siteID)
	}

	count := p.generation.OutlineCount
	if count <= 0 {
		count = 100
	}

	prompt := prompts.Outline(site.Analysis, count)
	response, elapsed, err := p.generate(ctx, prompt, model)
	if err != nil {
		return nil, fmt.Errorf("create outline: %w", err)
	}

	p.recordUsage(ctx, domain.UsageLogEntry{
		SiteID:          &siteID,
		Model:           model,
		Kind:            domain.UsageOutline,
		Prompt:          prompt,
		Response:        response,
		TokensEstimated: domain.EstimateTokens(prompt + response),
		Elapsed:         elapsed,
	})

	return p.insertRecords(ctx, siteID, model, outline.Parse(response), nil)
}

// AddOutline requests count additional stubs beyond the existing ones and
// inserts only those whose titles do not collide with existing articles.
func (p *Pipeline) AddOutline(ctx context.Context, siteID int64, model string, count int) ([]domain.Article, error) {
	site, err := p.sites.SiteByID(ctx, siteID)
	if err != nil {
		return nil, fmt.Errorf("load site %d: %w", siteID, err)
	}

	if count <= 0 {
		count = p.generation.AdditionalCount
	}
	if count <= 0 {
		count = 10
	}

	existingCount, err := p.articles.CountBySite(ctx, siteID)
	if err != nil {
		return nil, fmt.Errorf("count articles for site %d: %w", siteID, err)
	}
	titles, err := p.articles.TitlesBySite(ctx, siteID)
	if err != nil {
		return nil, fmt.Errorf("load titles for site %d: %w", siteID, err)
	}

	existingTitles := make(map[string]struct{}, len(titles))
	for _, title := range titles {
		existingTitles[normalizeTitle(title)] = struct{}{}
	}

	prompt := prompts.AdditionalOutline(site.Analysis, existingCount, count)
	response, elapsed, err := p.generate(ctx, prompt, model)
	if err != nil {
		return nil, fmt.Errorf("add outline: %w", err)
	}

	p.recordUsage(ctx, domain.UsageLogEntry{
		SiteID:          &siteID,
		Model:           model,
		Kind:            domain.UsageAdditionalOutline,
		Prompt:          prompt,
		Response:        response,
		TokensEstimated: domain.EstimateTokens(prompt + response),
		Elapsed:         elapsed,
	})

	return p.insertRecords(ctx, siteID, model, outline.Parse(response), existingTitles)
}

// insertRecords stores valid outline records as drafts, skipping records with
// missing fields and titles already present in existingTitles.
func (p *Pipeline) insertRecords(ctx context.Context, siteID int64, model string, records []domain.OutlineRecord, existingTitles map[string]struct{}) ([]domain.Article, error) {
	var inserted []domain.Article
	for _, record := range records {
		if !record.Valid() {
			p.logger.Debug("skip incomplete outline record", "title", record.Title)
			continue
		}
		if existingTitles != nil {
			key := normalizeTitle(record.Title)
			if _, ok := existingTitles[key]; ok {
				p.logger.Debug("skip duplicate outline title", "title", record.Title)
				continue
			}
			existingTitles[key] = struct{}{}
		}

		article := domain.Article{
			SiteID:      siteID,
			Title:       record.Title,
			SEOKeywords: record.Keywords,
			Summary:     record.Summary,
			Model:       model,
			Status:      domain.StatusDraft,
		}
		id, err := p.articles.InsertDraft(ctx, article)
		if err != nil {
			return inserted, fmt.Errorf("insert draft %q: %w", record.Title, err)
		}
		article.ID = id
		inserted = append(inserted, article)
	}
	return inserted, nil
}

// GenerateArticle produces the body for one stub and marks it generated.
// Regenerating an already generated article overwrites its content only.
func (p *Pipeline) GenerateArticle(ctx context.Context, articleID int64, model string) (domain.Article, error) {
	article, err := p.articles.ArticleByID(ctx, articleID)
	if err != nil {
		return domain.Article{}, fmt.Errorf("load article %d: %w", articleID, err)
	}
	if model == "" {
		model = article.Model
	}

	prompt := prompts.Article(article)
	content, elapsed, err := p.generate(ctx, prompt, model)
	if err != nil {
		return domain.Article{}, fmt.Errorf("generate article %d: %w", articleID, err)
	}
	if strings.TrimSpace(content) == "" {
		return domain.Article{}, fmt.Errorf("generate article %d: empty content", articleID)
	}

	if err := p.articles.MarkGenerated(ctx, articleID, content); err != nil {
		return domain.Article{}, fmt.Errorf("persist article %d: %w", articleID, err)
	}

	p.recordUsage(ctx, domain.UsageLogEntry{
		SiteID:          &article.SiteID,
		ArticleID:       &articleID,
		Model:           model,
		Kind:            domain.UsageArticleGeneration,
		Prompt:          prompt,
		Response:        content,
		TokensEstimated: domain.EstimateTokens(prompt + content),
		Elapsed:         elapsed,
	})

	article.Content = content
	article.Status = domain.StatusGenerated
	article.Model = model
	return article, nil
}

// BatchResult summarizes one GenerateAllArticles run.
type BatchResult struct {
	Generated int
	Failed    int
	FailedIDs []int64
}

// GenerateAllArticles generates every remaining draft of a site in id order,
// pacing the AI calls with a short delay. Individual failures are skipped;
// an HTML error page from the provider aborts the batch, since every further
// call would hit the same dead gateway.
func (p *Pipeline) GenerateAllArticles(ctx context.Context, siteID int64, model string) (BatchResult, error) {
	drafts, err := p.articles.DraftsBySite(ctx, siteID)
	if err != nil {
		return BatchResult{}, fmt.Errorf("load drafts for site %d: %w", siteID, err)
	}

	var result BatchResult
	for i, draft := range drafts {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if i > 0 {
			if err := p.pace(ctx); err != nil {
				return result, err
			}
		}

		if _, err := p.GenerateArticle(ctx, draft.ID, model); err != nil {
			result.Failed++
			result.FailedIDs = append(result.FailedIDs, draft.ID)
			if isHTMLErrorPage(err) {
				p.logger.Error("aborting batch on gateway error page", "article", draft.ID, "error", err)
				return result, fmt.Errorf("generate article %d: %w", draft.ID, err)
			}
			p.logger.Error("article generation failed", "article", draft.ID, "error", err)
			continue
		}
		result.Generated++
	}

	return result, nil
}

// pace sleeps for the configured batch delay, honoring cancellation.
func (p *Pipeline) pace(ctx context.Context) error {
	delay := p.generation.BatchDelay
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// isHTMLErrorPage matches provider errors whose body was an HTML page rather
// than an API payload.
func isHTMLErrorPage(err error) bool {
	var pageErr interface{ HTMLErrorPage() bool }
	return errors.As(err, &pageErr) && pageErr.HTMLErrorPage()
}

func normalizeTitle(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}
