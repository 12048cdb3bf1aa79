// Package crawl discovers page URLs below a base URL with a bounded
// breadth-first traversal.
package crawl

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"articleforge/internal/config"
	"articleforge/internal/ports"
)

// skippedExtensions filters links to binary and office documents that carry
// no crawlable text.
var skippedExtensions = regexp.MustCompile(`(?i)\.(jpg|jpeg|png|gif|pdf|zip|doc|docx|xls|xlsx)$`)

// Crawler walks pages breadth-first, keeping only URLs under the base URL's
// own subtree (scheme + host + base path), deduplicated in discovery order.
type Crawler struct {
	client     *http.Client
	logger     *slog.Logger
	userAgent  string
	maxURLs    int
	maxPending int
}

var _ ports.Crawler = (*Crawler)(nil)

// New wires an HTTP client; the fetch timeout comes from configuration.
func New(client *http.Client, cfg config.CrawlerConfig, logger *slog.Logger) *Crawler {
	if client == nil {
		timeout := cfg.FetchTimeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	if logger == nil {
		logger = slog.Default()
	}

	maxURLs := cfg.MaxURLs
	if maxURLs <= 0 {
		maxURLs = 100
	}
	maxPending := cfg.MaxPending
	if maxPending <= 0 {
		maxPending = 50
	}

	return &Crawler{
		client:     client,
		logger:     logger,
		userAgent:  cfg.UserAgent,
		maxURLs:    maxURLs,
		maxPending: maxPending,
	}
}

// Crawl runs the traversal from baseURL. A structurally invalid base URL is a
// terminal error; individual page-fetch failures only reduce yield.
func (c *Crawler) Crawl(ctx context.Context, baseURL string) ([]string, int, error) {
	base, err := url.Parse(baseURL)
	if err != nil || base.Host == "" {
		return nil, 0, fmt.Errorf("invalid base url %q", baseURL)
	}

	scopePrefix := scopePrefixOf(base)

	var (
		found    []string
		foundSet = map[string]struct{}{}
		visited  = map[string]struct{}{}
		frontier = []string{baseURL}
	)

	for len(frontier) > 0 && len(found) < c.maxURLs {
		if err := ctx.Err(); err != nil {
			return found, len(found), err
		}

		current := frontier[0]
		frontier = frontier[1:]

		if _, ok := visited[current]; ok {
			continue
		}
		visited[current] = struct{}{}

		rawHTML, err := c.fetch(ctx, current)
		if err != nil {
			c.logger.Debug("skip page", "url", current, "error", err)
			continue
		}

		for _, link := range extractLinks(rawHTML, current, scopePrefix) {
			if _, ok := foundSet[link]; ok {
				continue
			}
			if _, ok := visited[link]; ok {
				continue
			}

			foundSet[link] = struct{}{}
			found = append(found, link)
			if len(found) >= c.maxURLs {
				break
			}

			if len(frontier) < c.maxPending {
				frontier = append(frontier, link)
			}
		}
	}

	return found, len(found), nil
}

func (c *Crawler) fetch(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("page returned %s", resp.Status)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	return string(raw), nil
}

// extractLinks returns every in-scope anchor target of the page, resolved to
// absolute form, fragment-stripped and deduplicated within the page.
func extractLinks(rawHTML, pageURL, scopePrefix string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil
	}

	page, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}

	var (
		links []string
		seen  = map[string]struct{}{}
	)

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || href == "#" {
			return
		}

		ref, err := url.Parse(href)
		if err != nil {
			return
		}

		// Covers the protocol-relative, root-relative and document-relative
		// cases against the page's own scheme, host and path.
		absolute := page.ResolveReference(ref)
		absolute.Fragment = ""

		link := absolute.String()
		if !strings.HasPrefix(link, scopePrefix) {
			return
		}
		if skippedExtensions.MatchString(absolute.Path) {
			return
		}
		if _, ok := seen[link]; ok {
			return
		}

		seen[link] = struct{}{}
		links = append(links, link)
	})

	return links
}

// scopePrefixOf derives scheme + host + base path. A base URL of
// https://example.com/blog scopes the crawl to /blog/...; a bare host scopes
// it to the whole site.
func scopePrefixOf(base *url.URL) string {
	path := strings.TrimSuffix(base.Path, "/")
	return base.Scheme + "://" + base.Host + path + "/"
}
