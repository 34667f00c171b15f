package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"

	"MatchSync/internal/config"
	"MatchSync/internal/interfaces"
	"MatchSync/internal/model"
)

func TestHTTPFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			_, _ = w.Write([]byte("<html>ok</html>"))
		case "/badgzip":
			w.Header().Set("Content-Encoding", "gzip")
			_, _ = w.Write([]byte("<html>plain</html>"))
		case "/huge":
			_, _ = w.Write([]byte(strings.Repeat("x", maxBodyBytes+10)))
		default:
			http.Error(w, "gone", http.StatusNotFound)
		}
	}))
	defer srv.Close()

	logger, _ := test.NewNullLogger()
	f := NewHTTPFetcher(config.SportConfig{Timeout: 5}, logger)
	ctx := context.Background()

	body, err := f.Fetch(ctx, srv.URL+"/ok")
	if err != nil || string(body) != "<html>ok</html>" {
		t.Fatalf("expected body, got %q %v", body, err)
	}

	tests := []struct {
		name string
		url  string
	}{
		{"non-2xx", srv.URL + "/missing"},
		{"too large", srv.URL + "/huge"},
		{"corrupt gzip", srv.URL + "/badgzip"},
		{"unreachable", "http://127.0.0.1:1/"},
		{"bad url", "://nope"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.Fetch(ctx, tt.url); !errors.Is(err, interfaces.ErrFetch) {
				t.Fatalf("expected ErrFetch, got %v", err)
			}
		})
	}
}

func TestHTTPFetcherHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	logger, _ := test.NewNullLogger()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewHTTPFetcher(config.SportConfig{}, logger).Fetch(ctx, srv.URL); !errors.Is(err, interfaces.ErrFetch) {
		t.Fatalf("expected ErrFetch on cancelled context, got %v", err)
	}
}

func TestNewSelectsFetchMode(t *testing.T) {
	logger, _ := test.NewNullLogger()

	if _, ok := New(config.SportConfig{FetchMode: config.FetchModeHTTP}, logger).(*HTTPFetcher); !ok {
		t.Fatalf("expected HTTP fetcher")
	}
	b, ok := New(config.SportConfig{FetchMode: config.FetchModeBrowser, Proxy: "http://proxy:3128"}, logger).(*BrowserFetcher)
	if !ok {
		t.Fatalf("expected browser fetcher")
	}
	if b.timeout.Seconds() != 30 || b.userAgent == "" {
		t.Fatalf("expected browser defaults, got %+v", b)
	}
	direct := NewBrowserFetcher(config.SportConfig{}, logger)
	if len(b.allocatorOptions()) != len(direct.allocatorOptions())+1 {
		t.Fatalf("expected proxy allocator option")
	}
}

func TestForSports(t *testing.T) {
	logger, _ := test.NewNullLogger()
	cfg := &config.Config{Sports: map[string]config.SportConfig{
		"football": {FetchMode: config.FetchModeHTTP},
		"generic":  {FetchMode: config.FetchModeBrowser},
	}}

	got := ForSports(cfg, []model.Sport{model.SportFootball, model.SportGeneric, model.SportTennis}, logger)
	if _, ok := got[model.SportFootball].(*HTTPFetcher); !ok {
		t.Fatalf("expected HTTP fetcher for football")
	}
	if _, ok := got[model.SportGeneric].(*BrowserFetcher); !ok {
		t.Fatalf("expected browser fetcher for generic")
	}
	if _, ok := got[model.SportTennis]; ok {
		t.Fatalf("unconfigured sport must use the default fetcher")
	}
	if got[""] == nil {
		t.Fatalf("expected a default fetcher")
	}
}
