package harvest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	readability "github.com/go-shiori/go-readability"
	"go.uber.org/zap"
)

// maxBodySize caps article downloads to keep untrusted pages from
// exhausting memory.
const maxBodySize = 10 * 1024 * 1024

// Fetcher downloads article pages and extracts their readable text.
type Fetcher struct {
	Client *http.Client
	Cache  *Cache
	Logger *zap.Logger
}

// NewFetcher returns a Fetcher with a 30 second timeout. cache may be
// nil, in which case every call hits the network.
func NewFetcher(cache *Cache, logger *zap.Logger) *Fetcher {
	return &Fetcher{
		Client: &http.Client{Timeout: 30 * time.Second},
		Cache:  cache,
		Logger: logger,
	}
}

// FetchText returns the readable text of the article at rawURL,
// consulting the cache first.
func (f *Fetcher) FetchText(ctx context.Context, rawURL string) (string, error) {
	if f.Cache != nil {
		if text, ok, err := f.Cache.GetArticle(rawURL); err != nil {
			f.Logger.Warn("article cache read failed", zap.String("url", rawURL), zap.Error(err))
		} else if ok {
			f.Logger.Debug("article cache hit", zap.String("url", rawURL))
			return text, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}
	// Some article hosts reject clients without a browser User-Agent.
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch %s: status %d", rawURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", rawURL, err)
	}
	if int64(len(body)) >= int64(maxBodySize) {
		return "", fmt.Errorf("fetch %s: body exceeds %d bytes", rawURL, maxBodySize)
	}

	parsedURL, _ := url.Parse(rawURL)
	article, err := readability.FromReader(bytes.NewReader(body), parsedURL)
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", rawURL, err)
	}

	if f.Cache != nil {
		if err := f.Cache.PutArticle(rawURL, article.TextContent); err != nil {
			f.Logger.Warn("article cache write failed", zap.String("url", rawURL), zap.Error(err))
		}
	}
	return article.TextContent, nil
}
