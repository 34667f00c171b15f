package fetcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/sirupsen/logrus"

	"MatchSync/internal/config"
	"MatchSync/internal/interfaces"
	"MatchSync/internal/utils/httpclient"
)

// chromeMu serializes Chrome usage so only one headless instance runs at a time.
var chromeMu sync.Mutex

// BrowserFetcher renders pages in headless Chrome, for sources that build their match list
// client-side.
type BrowserFetcher struct {
	userAgent string
	proxy     string
	timeout   time.Duration
	logger    *logrus.Logger
}

func NewBrowserFetcher(cfg config.SportConfig, logger *logrus.Logger) *BrowserFetcher {
	f := &BrowserFetcher{
		userAgent: cfg.UserAgent,
		proxy:     cfg.Proxy,
		timeout:   time.Duration(cfg.Timeout) * time.Second,
		logger:    logger,
	}
	if f.userAgent == "" {
		f.userAgent = httpclient.DefaultUserAgent
	}
	if f.timeout <= 0 {
		f.timeout = 30 * time.Second
	}
	return f
}

func (f *BrowserFetcher) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.UserAgent(f.userAgent),
	)
	if f.proxy != "" {
		opts = append(opts, chromedp.ProxyServer(f.proxy))
	}
	return opts
}

// Fetch navigates to url, waits for the body and returns the rendered HTML.
func (f *BrowserFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	chromeMu.Lock()
	defer chromeMu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	// 1. headless chrome
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, f.allocatorOptions()...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(format string, v ...interface{}) {
		f.logger.Debugf("chromedp: "+format, v...)
	}))
	defer cancelBrowser()

	// 2. navigate and read the rendered document
	start := time.Now()
	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: render %s: %v", interfaces.ErrFetch, url, err)
	}

	f.logger.WithFields(logrus.Fields{
		"url":        url,
		"bytes":      len(html),
		"elapsed_ms": time.Since(start).Milliseconds(),
	}).Debug("rendered page")
	return []byte(html), nil
}
