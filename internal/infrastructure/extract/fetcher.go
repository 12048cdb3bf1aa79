package extract

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"articleforge/internal/ports"
	"articleforge/internal/textutil"
)

// Fetcher downloads one page and reduces it to cleaned, sanitized text.
type Fetcher struct {
	client    *http.Client
	userAgent string
}

var _ ports.PageFetcher = (*Fetcher)(nil)

// NewFetcher wires an HTTP client; timeout defaults to 30 seconds.
func NewFetcher(client *http.Client, timeout time.Duration, userAgent string) *Fetcher {
	if client == nil {
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &Fetcher{client: client, userAgent: userAgent}
}

// FetchCleanText retrieves the page and runs it through extraction and
// sanitization. Non-200 responses and transport failures are errors; the
// caller decides whether to skip or abort.
func (f *Fetcher) FetchCleanText(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch %s: unexpected status %s", pageURL, resp.Status)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", pageURL, err)
	}

	return textutil.CleanWebText(Extract(string(raw))), nil
}
