// Package usecase orchestrates crawling, analysis and article generation.
package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"articleforge/internal/config"
	"articleforge/internal/domain"
	"articleforge/internal/ports"
	"articleforge/internal/prompts"
)

const (
	// Placeholder and marker texts that must not reach the integration step.
	noContentAnalysis = "このグループのURLからは有効なコンテンツを取得できませんでした。"
	groupErrorMarker  = "エラーが発生しました"
	noContentMarker   = "有効なコンテンツを取得できませんでした"
	minPageTextLength = 100
)

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Crawler       ports.Crawler
	Fetcher       ports.PageFetcher
	Generator     ports.TextGenerator
	Sites         ports.SiteRepository
	Articles      ports.ArticleRepository
	UsageLogs     ports.UsageLogRepository
	ReferenceURLs ports.ReferenceURLRepository
	Generation    config.GenerationConfig
	Logger        *slog.Logger
}

// Pipeline implements the acquisition-to-generation workflow.
type Pipeline struct {
	crawler       ports.Crawler
	fetcher       ports.PageFetcher
	generator     ports.TextGenerator
	sites         ports.SiteRepository
	articles      ports.ArticleRepository
	usageLogs     ports.UsageLogRepository
	referenceURLs ports.ReferenceURLRepository
	generation    config.GenerationConfig
	logger        *slog.Logger
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		crawler:       deps.Crawler,
		fetcher:       deps.Fetcher,
		generator:     deps.Generator,
		sites:         deps.Sites,
		articles:      deps.Articles,
		usageLogs:     deps.UsageLogs,
		referenceURLs: deps.ReferenceURLs,
		generation:    deps.Generation,
		logger:        logger,
	}
}

// CrawlURLs discovers in-scope page URLs below baseURL.
func (p *Pipeline) CrawlURLs(ctx context.Context, baseURL string) ([]string, int, error) {
	return p.crawler.Crawl(ctx, baseURL)
}

// AnalysisResult reports a finished analysis run.
type AnalysisResult struct {
	SiteID   int64
	Analysis string
}

// Analyze fetches the pages, analyzes them and persists the resulting site.
// A URL set that fits in one group gets a single analysis call; larger sets
// are analyzed per group and then integrated.
func (p *Pipeline) Analyze(ctx context.Context, urls []string, model string) (AnalysisResult, error) {
	if len(urls) == 0 {
		return AnalysisResult{}, fmt.Errorf("no urls to analyze")
	}

	groupSize := p.generation.GroupSize
	if groupSize <= 0 {
		groupSize = 10
	}
	totalGroups := (len(urls) + groupSize - 1) / groupSize

	var (
		result AnalysisResult
		err    error
	)
	if totalGroups == 1 {
		result, err = p.analyzeSingle(ctx, urls, model)
	} else {
		var analyses []string
		for i := 0; i < totalGroups; i++ {
			if err := ctx.Err(); err != nil {
				return AnalysisResult{}, err
			}

			start := i * groupSize
			end := start + groupSize
			if end > len(urls) {
				end = len(urls)
			}

			analysis, groupErr := p.AnalyzeGroup(ctx, urls[start:end], model, i+1, totalGroups)
			if groupErr != nil {
				p.logger.Error("group analysis failed", "group", i+1, "error", groupErr)
				analysis = fmt.Sprintf("このグループの分析中に%s：%v", groupErrorMarker, groupErr)
			}
			analyses = append(analyses, analysis)
		}

		result, err = p.Integrate(ctx, analyses, model, len(urls), urls[0])
	}
	if err != nil {
		return AnalysisResult{}, err
	}

	if p.referenceURLs != nil {
		if err := p.referenceURLs.SaveReferenceURLs(ctx, result.SiteID, urls); err != nil {
			p.logger.Error("save reference urls failed", "site", result.SiteID, "error", err)
		}
	}

	return result, nil
}

// analyzeSingle handles the one-group case with a single analysis call and no
// integration step.
func (p *Pipeline) analyzeSingle(ctx context.Context, urls []string, model string) (AnalysisResult, error) {
	contents, err := p.collectContents(ctx, urls)
	if err != nil {
		return AnalysisResult{}, err
	}

	name := siteNameOf(urls[0])
	if len(contents) == 0 {
		analysis := basicAnalysis(name, urls[0])
		siteID, err := p.sites.SaveSite(ctx, domain.Site{
			Name:     name,
			URLs:     urls,
			Analysis: analysis,
			Model:    model,
		})
		if err != nil {
			return AnalysisResult{}, fmt.Errorf("save site: %w", err)
		}
		return AnalysisResult{SiteID: siteID, Analysis: analysis}, nil
	}

	prompt := prompts.Analysis(contents)
	analysis, elapsed, err := p.generate(ctx, prompt, model)
	if err != nil {
		return AnalysisResult{}, fmt.Errorf("analyze site: %w", err)
	}

	siteID, err := p.sites.SaveSite(ctx, domain.Site{
		Name:     name,
		URLs:     urls,
		Analysis: analysis,
		Model:    model,
	})
	if err != nil {
		return AnalysisResult{}, fmt.Errorf("save site: %w", err)
	}

	p.recordUsage(ctx, domain.UsageLogEntry{
		SiteID:          &siteID,
		Model:           model,
		Kind:            domain.UsageSiteAnalysis,
		Prompt:          prompt,
		Response:        analysis,
		TokensEstimated: domain.EstimateTokens(prompt + analysis),
		Elapsed:         elapsed,
	})

	return AnalysisResult{SiteID: siteID, Analysis: analysis}, nil
}

// AnalyzeGroup fetches and analyzes one group of URLs. A group with no usable
// page text succeeds with a fixed placeholder analysis instead of failing the
// whole run.
func (p *Pipeline) AnalyzeGroup(ctx context.Context, urls []string, model string, groupIndex, totalGroups int) (string, error) {
	contents, err := p.collectContents(ctx, urls)
	if err != nil {
		return "", err
	}
	if len(contents) == 0 {
		return noContentAnalysis, nil
	}

	prompt := prompts.GroupAnalysis(contents, groupIndex, totalGroups)
	analysis, elapsed, err := p.generate(ctx, prompt, model)
	if err != nil {
		return "", fmt.Errorf("analyze group %d/%d: %w", groupIndex, totalGroups, err)
	}

	p.recordUsage(ctx, domain.UsageLogEntry{
		Model:           model,
		Kind:            domain.UsageGroupAnalysis,
		Prompt:          prompt,
		Response:        analysis,
		TokensEstimated: domain.EstimateTokens(prompt + analysis),
		Elapsed:         elapsed,
	})

	return analysis, nil
}

// Integrate consolidates the group analyses into one site-wide analysis and
// persists the site. Group analyses that are empty or carry an error or
// no-content marker are dropped first; if nothing survives, a basic manual
// placeholder is stored without an AI call.
func (p *Pipeline) Integrate(ctx context.Context, analyses []string, model string, totalURLs int, baseURL string) (AnalysisResult, error) {
	var valid []string
	for _, analysis := range analyses {
		trimmed := strings.TrimSpace(analysis)
		if trimmed == "" ||
			strings.Contains(trimmed, groupErrorMarker) ||
			strings.Contains(trimmed, noContentMarker) {
			continue
		}
		valid = append(valid, analysis)
	}

	name := siteNameOf(baseURL)

	if len(valid) == 0 {
		analysis := basicAnalysis(name, baseURL)
		siteID, err := p.sites.SaveSite(ctx, domain.Site{
			Name:     name,
			URLs:     []string{baseURL},
			Analysis: analysis,
			Model:    model,
		})
		if err != nil {
			return AnalysisResult{}, fmt.Errorf("save site: %w", err)
		}
		return AnalysisResult{SiteID: siteID, Analysis: analysis}, nil
	}

	prompt := prompts.Integration(valid, totalURLs)
	analysis, elapsed, err := p.generate(ctx, prompt, model)
	if err != nil {
		return AnalysisResult{}, fmt.Errorf("integrate analyses: %w", err)
	}

	siteID, err := p.sites.SaveSite(ctx, domain.Site{
		Name:     name,
		URLs:     []string{baseURL},
		Analysis: analysis,
		Model:    model,
	})
	if err != nil {
		return AnalysisResult{}, fmt.Errorf("save site: %w", err)
	}

	p.recordUsage(ctx, domain.UsageLogEntry{
		SiteID:          &siteID,
		Model:           model,
		Kind:            domain.UsageIntegration,
		Prompt:          prompt,
		Response:        analysis,
		TokensEstimated: domain.EstimateTokens(prompt + analysis),
		Elapsed:         elapsed,
	})

	return AnalysisResult{SiteID: siteID, Analysis: analysis}, nil
}

// collectContents fetches and sanitizes each URL, keeping only pages with
// enough text and truncating each to the configured prompt limit. Fetch
// failures only shrink the result.
func (p *Pipeline) collectContents(ctx context.Context, urls []string) ([]domain.PageContent, error) {
	textLimit := p.generation.PageTextLimit
	if textLimit <= 0 {
		textLimit = 3000
	}

	var contents []domain.PageContent
	for _, pageURL := range urls {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		text, err := p.fetcher.FetchCleanText(ctx, pageURL)
		if err != nil {
			p.logger.Warn("page fetch failed", "url", pageURL, "error", err)
			continue
		}
		if len([]rune(text)) < minPageTextLength {
			p.logger.Debug("page text too short", "url", pageURL)
			continue
		}

		contents = append(contents, domain.PageContent{
			URL:  pageURL,
			Text: truncateRunes(text, textLimit),
		})
	}

	return contents, nil
}

// generate times one gateway call.
func (p *Pipeline) generate(ctx context.Context, prompt, model string) (string, time.Duration, error) {
	start := time.Now()
	text, err := p.generator.GenerateText(ctx, prompt, model)
	return text, time.Since(start), err
}

// recordUsage appends an audit record. Audit failures never fail the
// operation that produced them.
func (p *Pipeline) recordUsage(ctx context.Context, entry domain.UsageLogEntry) {
	if p.usageLogs == nil {
		return
	}
	if err := p.usageLogs.Append(ctx, entry); err != nil {
		p.logger.Error("usage log append failed", "kind", entry.Kind, "error", err)
	}
}

func basicAnalysis(name, baseURL string) string {
	var b strings.Builder
	b.WriteString("# サイト分析結果\n\n")
	fmt.Fprintf(&b, "**サイト名**: %s\n", name)
	fmt.Fprintf(&b, "**URL**: %s\n\n", baseURL)
	b.WriteString("**注意**: このサイトの詳細な分析は、コンテンツの取得に問題があったため実行できませんでした。\n")
	b.WriteString("手動でサイトの特徴を確認して記事作成を進めてください。\n")
	return b.String()
}

func siteNameOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return u.Host
}

func truncateRunes(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
