package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"MatchSync/internal/config"
	"MatchSync/internal/interfaces"
	"MatchSync/internal/utils/httpclient"
)

// maxBodyBytes caps a listing page.
const maxBodyBytes = 10 << 20

// HTTPFetcher GETs pages with a plain HTTP client.
type HTTPFetcher struct {
	client *http.Client
	logger *logrus.Logger
}

// NewHTTPFetcher builds a fetcher from a sport's source settings.
func NewHTTPFetcher(cfg config.SportConfig, logger *logrus.Logger) *HTTPFetcher {
	return &HTTPFetcher{client: httpclient.NewHTTPClient(cfg, logger), logger: logger}
}

// NewHTTPFetcherWithClient uses client as is.
func NewHTTPFetcherWithClient(client *http.Client, logger *logrus.Logger) *HTTPFetcher {
	return &HTTPFetcher{client: client, logger: logger}
}

// Fetch returns the page body. Transport errors and non-2xx responses wrap ErrFetch.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request for %s: %v", interfaces.ErrFetch, url, err)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	// 1. request
	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: get %s: %v", interfaces.ErrFetch, url, err)
	}
	defer resp.Body.Close()

	// 2. status
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// drain a little so the connection can be reused
		_, _ = io.CopyN(io.Discard, resp.Body, 4<<10)
		return nil, fmt.Errorf("%w: get %s: status %d", interfaces.ErrFetch, url, resp.StatusCode)
	}

	// 3. bounded body
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", interfaces.ErrFetch, url, err)
	}
	if len(body) > maxBodyBytes {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", interfaces.ErrFetch, url, maxBodyBytes)
	}

	f.logger.WithFields(logrus.Fields{
		"url":          url,
		"status":       resp.StatusCode,
		"bytes":        len(body),
		"elapsed_ms":   time.Since(start).Milliseconds(),
		"content_type": resp.Header.Get("Content-Type"),
	}).Debug("fetched page")
	return body, nil
}
