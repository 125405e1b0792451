package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"phillyrising/domain"
)

// HTTPFetcher retrieves RSS/Atom documents over HTTP. It replays the
// feed's cached ETag/Last-Modified validators so unchanged sources cost
// a 304 instead of a full parse.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
}

func NewHTTPFetcher() *HTTPFetcher {
	return &HTTPFetcher{
		client:    &http.Client{Timeout: 20 * time.Second},
		userAgent: "phillyrising/1.0 (+feed ingestion)",
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, fd domain.Feed) (domain.FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fd.URL, nil)
	if err != nil {
		return domain.FetchResult{}, err
	}
	req.Header.Set("User-Agent", f.userAgent)
	if fd.ETag != "" {
		req.Header.Set("If-None-Match", fd.ETag)
	}
	if fd.LastModified != "" {
		req.Header.Set("If-Modified-Since", fd.LastModified)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return domain.FetchResult{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified {
		return domain.FetchResult{NotModified: true}, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return domain.FetchResult{}, fmt.Errorf("fetch %s: %s", fd.URL, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.FetchResult{}, err
	}
	items, err := Parse(body)
	if err != nil {
		return domain.FetchResult{}, fmt.Errorf("parse %s: %w", fd.URL, err)
	}
	return domain.FetchResult{
		Items:        items,
		ETag:         resp.Header.Get("ETag"),
		LastModified: resp.Header.Get("Last-Modified"),
	}, nil
}
