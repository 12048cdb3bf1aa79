package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"articleforge/internal/config"
	"articleforge/internal/domain"
)

type generatorCall struct {
	Prompt string
	Model  string
}

// fakeGenerator replays scripted responses; respond can be set for
// per-prompt behavior.
type fakeGenerator struct {
	respond func(prompt, model string) (string, error)
	calls   []generatorCall
}

func (g *fakeGenerator) GenerateText(_ context.Context, prompt, model string) (string, error) {
	g.calls = append(g.calls, generatorCall{Prompt: prompt, Model: model})
	if g.respond == nil {
		return "分析結果テキスト", nil
	}
	return g.respond(prompt, model)
}

type fakeFetcher struct {
	pages map[string]string
}

func (f *fakeFetcher) FetchCleanText(_ context.Context, url string) (string, error) {
	text, ok := f.pages[url]
	if !ok {
		return "", fmt.Errorf("fetch %s: not found", url)
	}
	return text, nil
}

type fakeSiteRepo struct {
	sites  map[int64]domain.Site
	nextID int64
}

func newFakeSiteRepo() *fakeSiteRepo {
	return &fakeSiteRepo{sites: map[int64]domain.Site{}, nextID: 1}
}

func (r *fakeSiteRepo) SaveSite(_ context.Context, site domain.Site) (int64, error) {
	site.ID = r.nextID
	r.nextID++
	r.sites[site.ID] = site
	return site.ID, nil
}

func (r *fakeSiteRepo) SiteByID(_ context.Context, id int64) (domain.Site, error) {
	site, ok := r.sites[id]
	if !ok {
		return domain.Site{}, fmt.Errorf("site %d not found", id)
	}
	return site, nil
}

func (r *fakeSiteRepo) UpdateAnalysis(_ context.Context, id int64, analysis string) error {
	site, ok := r.sites[id]
	if !ok {
		return fmt.Errorf("site %d not found", id)
	}
	site.Analysis = analysis
	r.sites[id] = site
	return nil
}

type fakeArticleRepo struct {
	articles map[int64]domain.Article
	order    []int64
	nextID   int64
}

func newFakeArticleRepo() *fakeArticleRepo {
	return &fakeArticleRepo{articles: map[int64]domain.Article{}, nextID: 1}
}

func (r *fakeArticleRepo) InsertDraft(_ context.Context, article domain.Article) (int64, error) {
	article.ID = r.nextID
	article.Status = domain.StatusDraft
	r.nextID++
	r.articles[article.ID] = article
	r.order = append(r.order, article.ID)
	return article.ID, nil
}

func (r *fakeArticleRepo) ArticleByID(_ context.Context, id int64) (domain.Article, error) {
	article, ok := r.articles[id]
	if !ok {
		return domain.Article{}, fmt.Errorf("article %d not found", id)
	}
	return article, nil
}

func (r *fakeArticleRepo) listBySite(siteID int64, status *domain.ArticleStatus) []domain.Article {
	var out []domain.Article
	for _, id := range r.order {
		article := r.articles[id]
		if article.SiteID != siteID {
			continue
		}
		if status != nil && article.Status != *status {
			continue
		}
		out = append(out, article)
	}
	return out
}

func (r *fakeArticleRepo) ArticlesBySite(_ context.Context, siteID int64) ([]domain.Article, error) {
	return r.listBySite(siteID, nil), nil
}

func (r *fakeArticleRepo) DraftsBySite(_ context.Context, siteID int64) ([]domain.Article, error) {
	status := domain.StatusDraft
	return r.listBySite(siteID, &status), nil
}

func (r *fakeArticleRepo) GeneratedBySite(_ context.Context, siteID int64) ([]domain.Article, error) {
	status := domain.StatusGenerated
	return r.listBySite(siteID, &status), nil
}

func (r *fakeArticleRepo) TitlesBySite(_ context.Context, siteID int64) ([]string, error) {
	var titles []string
	for _, article := range r.listBySite(siteID, nil) {
		titles = append(titles, article.Title)
	}
	return titles, nil
}

func (r *fakeArticleRepo) CountBySite(_ context.Context, siteID int64) (int, error) {
	return len(r.listBySite(siteID, nil)), nil
}

func (r *fakeArticleRepo) MarkGenerated(_ context.Context, id int64, content string) error {
	article, ok := r.articles[id]
	if !ok {
		return fmt.Errorf("article %d not found", id)
	}
	article.Content = content
	article.Status = domain.StatusGenerated
	r.articles[id] = article
	return nil
}

func (r *fakeArticleRepo) UpdatePublishDate(_ context.Context, id int64, publishDate string) error {
	article, ok := r.articles[id]
	if !ok {
		return fmt.Errorf("article %d not found", id)
	}
	t, err := time.Parse("2006-01-02", publishDate)
	if err != nil {
		return err
	}
	article.PublishDate = &t
	r.articles[id] = article
	return nil
}

type fakeUsageRepo struct {
	entries []domain.UsageLogEntry
	failErr error
}

func (r *fakeUsageRepo) Append(_ context.Context, entry domain.UsageLogEntry) error {
	if r.failErr != nil {
		return r.failErr
	}
	r.entries = append(r.entries, entry)
	return nil
}

func (r *fakeUsageRepo) List(_ context.Context, _ *int64, _, _ int) ([]domain.UsageLogEntry, error) {
	return r.entries, nil
}

func (r *fakeUsageRepo) Stats(_ context.Context, _ *int64) ([]domain.UsageStat, error) {
	return nil, nil
}

type fakeRefRepo struct {
	saved map[int64][]string
}

func (r *fakeRefRepo) SaveReferenceURLs(_ context.Context, siteID int64, urls []string) error {
	if r.saved == nil {
		r.saved = map[int64][]string{}
	}
	r.saved[siteID] = urls
	return nil
}

func (r *fakeRefRepo) ReferenceURLs(_ context.Context, siteID int64) ([]string, error) {
	return r.saved[siteID], nil
}

type htmlPageError struct{}

func (htmlPageError) Error() string { return "status 502: gateway error page" }

func (htmlPageError) HTMLErrorPage() bool { return true }

func testDeps(gen *fakeGenerator, fetcher *fakeFetcher) (PipelineDeps, *fakeSiteRepo, *fakeArticleRepo, *fakeUsageRepo, *fakeRefRepo) {
	sites := newFakeSiteRepo()
	articles := newFakeArticleRepo()
	usage := &fakeUsageRepo{}
	refs := &fakeRefRepo{}
	deps := PipelineDeps{
		Fetcher:       fetcher,
		Generator:     gen,
		Sites:         sites,
		Articles:      articles,
		UsageLogs:     usage,
		ReferenceURLs: refs,
		Generation: config.GenerationConfig{
			OutlineCount:    100,
			AdditionalCount: 10,
			BatchDelay:      time.Millisecond,
			PageTextLimit:   3000,
			GroupSize:       10,
		},
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	return deps, sites, articles, usage, refs
}

func longPage(seed string) string {
	return strings.Repeat(seed+"の運勢についての解説。", 20)
}

func TestAnalyzeGroupsAndIntegrates(t *testing.T) {
	t.Parallel()

	pages := map[string]string{}
	var urls []string
	for i := 0; i < 15; i++ {
		u := fmt.Sprintf("https://uranai.example/page-%d", i)
		urls = append(urls, u)
		pages[u] = longPage(fmt.Sprintf("星座%d", i))
	}

	gen := &fakeGenerator{respond: func(prompt, _ string) (string, error) {
		if strings.Contains(prompt, "これらを統合して") {
			return "統合された分析", nil
		}
		return "グループの分析", nil
	}}
	deps, sites, _, usage, refs := testDeps(gen, &fakeFetcher{pages: pages})
	p := NewPipeline(deps)

	result, err := p.Analyze(context.Background(), urls, "gpt-4o")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if result.Analysis != "統合された分析" {
		t.Errorf("analysis = %q", result.Analysis)
	}

	// 15 urls with group size 10 means 2 group calls plus 1 integration.
	if len(gen.calls) != 3 {
		t.Fatalf("got %d generator calls, want 3", len(gen.calls))
	}
	if !strings.Contains(gen.calls[0].Prompt, "全2グループ中の1番目") {
		t.Errorf("group 1 prompt missing index statement")
	}
	if !strings.Contains(gen.calls[1].Prompt, "全2グループ中の2番目") {
		t.Errorf("group 2 prompt missing index statement")
	}
	if !strings.Contains(gen.calls[2].Prompt, "合計15個のURL") {
		t.Errorf("integration prompt missing total url count")
	}

	site := sites.sites[result.SiteID]
	if site.Name != "uranai.example" {
		t.Errorf("site name = %q", site.Name)
	}
	if site.Analysis != "統合された分析" {
		t.Errorf("site analysis = %q", site.Analysis)
	}

	if got := refs.saved[result.SiteID]; len(got) != 15 {
		t.Errorf("saved %d reference urls, want 15", len(got))
	}

	kinds := map[domain.UsageKind]int{}
	for _, entry := range usage.entries {
		kinds[entry.Kind]++
	}
	if kinds[domain.UsageGroupAnalysis] != 2 || kinds[domain.UsageIntegration] != 1 {
		t.Errorf("usage kinds = %v", kinds)
	}
}

func TestAnalyzeSingleGroupSkipsIntegration(t *testing.T) {
	t.Parallel()

	pages := map[string]string{
		"https://uranai.example/a": longPage("星占い"),
		"https://uranai.example/b": longPage("タロット"),
		"https://uranai.example/c": longPage("手相"),
	}
	gen := &fakeGenerator{respond: func(string, string) (string, error) {
		return "feature analysis text", nil
	}}
	deps, sites, _, usage, _ := testDeps(gen, &fakeFetcher{pages: pages})
	p := NewPipeline(deps)

	urls := []string{
		"https://uranai.example/a",
		"https://uranai.example/b",
		"https://uranai.example/c",
	}
	result, err := p.Analyze(context.Background(), urls, "gpt-4o")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if result.Analysis != "feature analysis text" {
		t.Errorf("analysis = %q", result.Analysis)
	}

	// Three URLs fit in one group, so exactly one AI call and no integration.
	if len(gen.calls) != 1 {
		t.Fatalf("got %d generator calls, want 1", len(gen.calls))
	}
	if len(usage.entries) != 1 || usage.entries[0].Kind != domain.UsageSiteAnalysis {
		t.Errorf("usage entries = %+v", usage.entries)
	}
	if got := sites.sites[result.SiteID].URLs; len(got) != 3 {
		t.Errorf("site urls = %v", got)
	}
}

func TestAnalyzeGroupSkipsUnusablePages(t *testing.T) {
	t.Parallel()

	pages := map[string]string{
		"https://uranai.example/ok":    longPage("タロット"),
		"https://uranai.example/short": "短い",
	}
	gen := &fakeGenerator{}
	deps, _, _, _, _ := testDeps(gen, &fakeFetcher{pages: pages})
	p := NewPipeline(deps)

	urls := []string{
		"https://uranai.example/ok",
		"https://uranai.example/short",
		"https://uranai.example/missing",
	}
	if _, err := p.AnalyzeGroup(context.Background(), urls, "gpt-4o", 1, 1); err != nil {
		t.Fatalf("AnalyzeGroup: %v", err)
	}

	if len(gen.calls) != 1 {
		t.Fatalf("got %d generator calls, want 1", len(gen.calls))
	}
	prompt := gen.calls[0].Prompt
	if !strings.Contains(prompt, "https://uranai.example/ok") {
		t.Error("usable page missing from prompt")
	}
	if strings.Contains(prompt, "/short") || strings.Contains(prompt, "/missing") {
		t.Error("unusable pages leaked into prompt")
	}
}

func TestAnalyzeGroupWithNoUsableContent(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{}
	deps, _, _, _, _ := testDeps(gen, &fakeFetcher{pages: map[string]string{}})
	p := NewPipeline(deps)

	analysis, err := p.AnalyzeGroup(context.Background(), []string{"https://uranai.example/gone"}, "gpt-4o", 1, 1)
	if err != nil {
		t.Fatalf("AnalyzeGroup: %v", err)
	}
	if !strings.Contains(analysis, "有効なコンテンツを取得できませんでした") {
		t.Errorf("analysis = %q", analysis)
	}
	if len(gen.calls) != 0 {
		t.Errorf("generator called %d times for an empty group", len(gen.calls))
	}
}

func TestIntegrateFiltersMarkedAnalyses(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{respond: func(string, string) (string, error) { return "統合", nil }}
	deps, _, _, _, _ := testDeps(gen, &fakeFetcher{})
	p := NewPipeline(deps)

	analyses := []string{
		"有効な分析A",
		"",
		"このグループの分析中にエラーが発生しました：timeout",
		"このグループのURLからは有効なコンテンツを取得できませんでした。",
		"有効な分析B",
	}
	if _, err := p.Integrate(context.Background(), analyses, "gpt-4o", 42, "https://uranai.example/"); err != nil {
		t.Fatalf("Integrate: %v", err)
	}

	prompt := gen.calls[0].Prompt
	posA := strings.Index(prompt, "有効な分析A")
	posB := strings.Index(prompt, "有効な分析B")
	if posA < 0 || posB < 0 || posA > posB {
		t.Errorf("valid analyses missing or reordered: A=%d B=%d", posA, posB)
	}
	if strings.Contains(prompt, "timeout") {
		t.Error("error-marked analysis leaked into integration prompt")
	}
}

func TestIntegrateWithoutValidAnalysesStoresPlaceholder(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{}
	deps, sites, _, _, _ := testDeps(gen, &fakeFetcher{})
	p := NewPipeline(deps)

	result, err := p.Integrate(context.Background(), []string{"", "  "}, "gpt-4o", 3, "https://uranai.example/")
	if err != nil {
		t.Fatalf("Integrate: %v", err)
	}
	if len(gen.calls) != 0 {
		t.Errorf("generator called %d times without valid analyses", len(gen.calls))
	}
	if !strings.Contains(sites.sites[result.SiteID].Analysis, "手動でサイトの特徴を確認") {
		t.Errorf("placeholder analysis not stored: %q", sites.sites[result.SiteID].Analysis)
	}
}
