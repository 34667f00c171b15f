package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"MatchSync/internal/adapter"
	"MatchSync/internal/adapter/sports"
	"MatchSync/internal/config"
	"MatchSync/internal/interfaces"
	"MatchSync/internal/model"
	"MatchSync/internal/repository"
)

const footballBase = "https://example.com/futbol/"

// stubFetcher serves a fixed page.
type stubFetcher struct {
	mu    sync.Mutex
	body  string
	err   error
	calls int
	urls  []string
}

func (f *stubFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.urls = append(f.urls, url)
	if f.err != nil {
		return nil, f.err
	}
	return []byte(f.body), nil
}

func (f *stubFetcher) set(body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.body = body
}

type footballMatch struct {
	home, away string
	goalsA     int
	goalsB     int
	halfTime   string // optional third score element
	hour       string
	link       string
	wrapsNext  bool // the element encloses the next one, which makes it malformed
}

func footballPage(matches ...footballMatch) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	open := 0
	for _, m := range matches {
		fmt.Fprintf(&b, `<div class="partido"><h2>La Liga</h2>`)
		fmt.Fprintf(&b, `<span class="equipo">%s</span><span class="equipo">%s</span>`, m.home, m.away)
		fmt.Fprintf(&b, `<span class="goles">%d</span><span class="goles">%d</span>`, m.goalsA, m.goalsB)
		if m.halfTime != "" {
			fmt.Fprintf(&b, `<span class="goles">%s</span>`, m.halfTime)
		}
		fmt.Fprintf(&b, `<span class="hora">%s</span>`, m.hour)
		if m.link != "" {
			fmt.Fprintf(&b, `<a href="%s">ver</a>`, m.link)
		}
		open++
		if m.wrapsNext {
			continue
		}
		b.WriteString(strings.Repeat("</div>", open))
		open = 0
	}
	b.WriteString(strings.Repeat("</div>", open))
	b.WriteString("</body></html>")
	return b.String()
}

func fiveMatches() []footballMatch {
	out := make([]footballMatch, 5)
	for i := range out {
		out[i] = footballMatch{
			home:   fmt.Sprintf("Home %d", i),
			away:   fmt.Sprintf("Away %d", i),
			goalsA: i,
			goalsB: 1,
			hour:   fmt.Sprintf("2024-05-0%d 20:00", i+1),
			link:   fmt.Sprintf("/match/%d", i),
		}
	}
	return out
}

func newRegistry(t *testing.T, fallback string) (*adapter.PipelineRegistry, *test.Hook) {
	t.Helper()
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	cfg := &config.Config{
		Sports: map[string]config.SportConfig{
			"football":   {BaseURL: footballBase},
			"tennis":     {BaseURL: "https://example.com/tenis/"},
			"basketball": {BaseURL: "https://example.com/baloncesto/"},
			"generic":    {},
		},
		FallbackSport: fallback,
	}
	reg, err := adapter.NewPipelineRegistry(cfg, sports.Builtin(), logger)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	return reg, hook
}

type ingestFixture struct {
	svc     *IngestService
	store   *repository.MemoryMatchStore
	runs    *repository.MemoryRunRepository
	fetcher *stubFetcher
	cache   *recordingCache
	hook    *test.Hook
	regHook *test.Hook
}

func newIngestFixture(t *testing.T, fallback string, wrap func(interfaces.MatchStore) interfaces.MatchStore) *ingestFixture {
	t.Helper()
	reg, regHook := newRegistry(t, fallback)
	logger, hook := test.NewNullLogger()

	f := &ingestFixture{
		store:   repository.NewMemoryMatchStore(nil),
		runs:    repository.NewMemoryRunRepository(),
		fetcher: &stubFetcher{},
		cache:   &recordingCache{},
		hook:    hook,
		regHook: regHook,
	}
	var store interfaces.MatchStore = f.store
	if wrap != nil {
		store = wrap(store)
	}
	f.svc = NewIngestService(IngestDeps{
		Registry: reg,
		Fetchers: map[model.Sport]interfaces.Fetcher{"": f.fetcher},
		Store:    store,
		Runs:     f.runs,
		Cache:    f.cache,
		Logger:   logger,
	})
	return f
}

func (f *ingestFixture) list(t *testing.T, sport model.Sport) []model.MatchRecord {
	t.Helper()
	records, err := f.store.List(context.Background(), sport, model.MatchFilter{Limit: model.MaxQueryLimit})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	return records
}

// recordingCache counts invalidations and serves what it was given.
type recordingCache struct {
	mu          sync.Mutex
	pages       map[string][]model.MatchRecord
	invalidated map[model.Sport]int
	gets, hits  int
}

func cacheKey(sport model.Sport, f model.MatchFilter) string {
	return fmt.Sprintf("%s|%s|%s|%d", sport, f.Participant, f.Competition, f.Limit)
}

func (c *recordingCache) GetMatches(ctx context.Context, sport model.Sport, filter model.MatchFilter) ([]model.MatchRecord, string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	records, ok := c.pages[cacheKey(sport, filter)]
	if ok {
		c.hits++
	}
	return records, "v", ok
}

func (c *recordingCache) SetMatches(ctx context.Context, sport model.Sport, filter model.MatchFilter, version string, records []model.MatchRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pages == nil {
		c.pages = make(map[string][]model.MatchRecord)
	}
	c.pages[cacheKey(sport, filter)] = records
}

func (c *recordingCache) Invalidate(ctx context.Context, sport model.Sport) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.invalidated == nil {
		c.invalidated = make(map[model.Sport]int)
	}
	c.invalidated[sport]++
	for k := range c.pages {
		if strings.HasPrefix(k, string(sport)+"|") {
			delete(c.pages, k)
		}
	}
	return nil
}

func (c *recordingCache) invalidations(sport model.Sport) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.invalidated[sport]
}

var errCommitRefused = errors.New("connection reset by peer")

// failingCommitStore stages writes normally and refuses every commit.
type failingCommitStore struct {
	interfaces.MatchStore
}

func (s failingCommitStore) Begin(ctx context.Context, sport model.Sport) (interfaces.MatchTx, error) {
	tx, err := s.MatchStore.Begin(ctx, sport)
	if err != nil {
		return nil, err
	}
	return failingCommitTx{MatchTx: tx}, nil
}

type failingCommitTx struct {
	interfaces.MatchTx
}

func (t failingCommitTx) Commit() error {
	_ = t.MatchTx.Rollback()
	return errCommitRefused
}

// slowCommitStore blocks every commit until the batch context is done.
type slowCommitStore struct {
	interfaces.MatchStore
}

func (s slowCommitStore) Begin(ctx context.Context, sport model.Sport) (interfaces.MatchTx, error) {
	tx, err := s.MatchStore.Begin(ctx, sport)
	if err != nil {
		return nil, err
	}
	return slowCommitTx{MatchTx: tx, ctx: ctx}, nil
}

type slowCommitTx struct {
	interfaces.MatchTx
	ctx context.Context
}

func (t slowCommitTx) Commit() error {
	<-t.ctx.Done()
	return t.MatchTx.Commit()
}
