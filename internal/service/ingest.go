package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"MatchSync/internal/adapter"
	"MatchSync/internal/interfaces"
	"MatchSync/internal/metrics"
	"MatchSync/internal/model"
	"MatchSync/internal/scrape"
)

const (
	defaultCommitTimeout = 10 * time.Second
	messageNoMatches     = "no matches found"
)

// IngestDeps groups the collaborators of IngestService. Cache and Metrics may be nil.
type IngestDeps struct {
	Registry      *adapter.PipelineRegistry
	Fetchers      map[model.Sport]interfaces.Fetcher
	Store         interfaces.MatchStore
	Runs          interfaces.RunRepository
	Cache         interfaces.QueryCache
	Metrics       *metrics.Recorder
	CommitTimeout time.Duration
	Logger        *logrus.Logger
}

// IngestService runs the scrape pipeline: fetch, extract, normalize, reconcile, commit.
type IngestService struct {
	registry      *adapter.PipelineRegistry
	fetchers      map[model.Sport]interfaces.Fetcher
	store         interfaces.MatchStore
	runs          interfaces.RunRepository
	cache         interfaces.QueryCache
	metrics       *metrics.Recorder
	extractor     *scrape.Extractor
	reconciler    *Reconciler
	commitTimeout time.Duration
	logger        *logrus.Logger
	now           func() time.Time
}

func NewIngestService(deps IngestDeps) *IngestService {
	timeout := deps.CommitTimeout
	if timeout <= 0 {
		timeout = defaultCommitTimeout
	}
	return &IngestService{
		registry:      deps.Registry,
		fetchers:      deps.Fetchers,
		store:         deps.Store,
		runs:          deps.Runs,
		cache:         deps.Cache,
		metrics:       deps.Metrics,
		extractor:     scrape.NewExtractor(deps.Logger),
		reconciler:    NewReconciler(deps.Logger),
		commitTimeout: timeout,
		logger:        deps.Logger,
		now:           time.Now,
	}
}

// Ingest scrapes the sport's configured source.
func (s *IngestService) Ingest(ctx context.Context, sport model.Sport) model.IngestResult {
	return s.run(ctx, sport, "")
}

// IngestURL scrapes url with the sport's pipeline. Relative links resolve against the sport's base
// url, or url itself when none is configured.
func (s *IngestService) IngestURL(ctx context.Context, sport model.Sport, url string) model.IngestResult {
	return s.run(ctx, sport, url)
}

// run never returns an error: every failure is reported on the result.
func (s *IngestService) run(ctx context.Context, sport model.Sport, url string) model.IngestResult {
	started := s.now()
	res := model.IngestResult{RunID: uuid.NewString(), Sport: sport}
	log := s.logger.WithFields(logrus.Fields{"sport": sport, "run_id": res.RunID})

	// 1. Resolve the pipeline
	p, err := s.registry.Resolve(sport)
	if err != nil {
		log.WithError(err).Warn("ingest rejected")
		return fail(res, model.ReasonUnsupportedSport, err)
	}
	res.Sport = p.Sport

	base := p.BaseURL
	if url == "" {
		url = p.BaseURL
	} else if base == "" {
		base = url
	}
	log = log.WithField("url", url)

	defer func() {
		s.metrics.RecordIngest(res, s.now().Sub(started))
		s.saveRun(ctx, res, sport, url, started, log)
	}()

	if url == "" {
		res = fail(res, model.ReasonFetch, fmt.Errorf("%w: no source url configured for %s", interfaces.ErrFetch, p.Sport))
		log.Error(res.Message)
		return res
	}

	// 2. Fetch the page
	body, err := s.fetcherFor(p.Sport).Fetch(ctx, url)
	if err != nil {
		res = fail(res, model.ReasonFetch, err)
		log.WithError(err).Error("fetch failed")
		return res
	}

	// 3. Extract the raw elements
	doc, err := scrape.ParseDocument(body)
	if err != nil {
		res = fail(res, model.ReasonParse, err)
		log.WithError(err).Error("parse failed")
		return res
	}
	raws, skipped := scrape.Collect(s.extractor.Extract(doc, p.Selectors))
	res.Skipped = skipped

	if len(raws) == 0 && skipped == 0 {
		res.Status = model.StatusSuccess
		res.Message = messageNoMatches
		log.Warn(messageNoMatches)
		return res
	}
	res.Found = true

	// 4. Normalize
	now := s.now()
	records := make([]model.MatchRecord, 0, len(raws))
	for _, raw := range raws {
		records = append(records, p.Normalize(raw, p.Sport, base, now))
	}

	// 5. Reconcile and commit under the bounded timeout
	commitCtx, cancel := context.WithTimeout(ctx, s.commitTimeout)
	batch, err := s.reconciler.ReconcileBatch(commitCtx, s.store, p.Sport, records, p.KeyFields)
	cancel()
	if err != nil {
		res = fail(res, model.ReasonStoreCommit, err)
		log.WithError(err).Error("batch rolled back")
		return res
	}

	res.Status = model.StatusSuccess
	res.Inserted = batch.Inserted
	res.Updated = batch.Updated
	res.Unchanged = batch.Unchanged
	res.ProcessedCount = batch.Processed()
	res.Message = fmt.Sprintf("%d matches processed", res.ProcessedCount)

	// 6. Drop cached query pages when data changed
	if res.ProcessedCount > 0 && s.cache != nil {
		if err := s.cache.Invalidate(ctx, p.Sport); err != nil {
			log.WithError(err).Warn("cache invalidation failed")
		}
	}

	log.WithFields(logrus.Fields{
		"inserted":  res.Inserted,
		"updated":   res.Updated,
		"unchanged": res.Unchanged,
		"skipped":   res.Skipped,
	}).Info("ingest finished")
	return res
}

func (s *IngestService) fetcherFor(sport model.Sport) interfaces.Fetcher {
	if f, ok := s.fetchers[sport]; ok {
		return f
	}
	return s.fetchers[""]
}

func fail(res model.IngestResult, reason string, err error) model.IngestResult {
	res.Status = model.StatusError
	res.Reason = reason
	res.Message = err.Error()
	res.ProcessedCount = 0
	res.Inserted, res.Updated, res.Unchanged = 0, 0, 0
	return res
}

// runDetails is stored in the details JSON column of an ingestion run.
type runDetails struct {
	Found     bool   `json:"found"`
	RunSport  string `json:"sport"`
	Requested string `json:"requested,omitempty"`
}

func (s *IngestService) saveRun(ctx context.Context, res model.IngestResult, requested model.Sport, url string, started time.Time, log logrus.FieldLogger) {
	if s.runs == nil {
		return
	}
	d := runDetails{Found: res.Found, RunSport: string(res.Sport)}
	if requested != res.Sport {
		d.Requested = string(requested)
	}
	details, err := json.Marshal(d)
	if err != nil {
		log.WithError(err).Warn("encode run details")
	}
	run := &model.IngestionRun{
		ID:         res.RunID,
		Sport:      string(res.Sport),
		SourceURL:  url,
		Status:     res.Status,
		Reason:     res.Reason,
		Processed:  res.ProcessedCount,
		Inserted:   res.Inserted,
		Updated:    res.Updated,
		Unchanged:  res.Unchanged,
		Skipped:    res.Skipped,
		Message:    res.Message,
		Details:    datatypes.JSON(details),
		StartedAt:  started.UTC(),
		FinishedAt: s.now().UTC(),
	}
	// the run record is written even if the caller already gave up
	if err := s.runs.SaveRun(context.WithoutCancel(ctx), run); err != nil {
		log.WithError(err).Warn("save ingestion run")
	}
}
