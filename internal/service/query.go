package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"MatchSync/internal/adapter"
	"MatchSync/internal/interfaces"
	"MatchSync/internal/model"
)

// QueryService reads stored matches. Queries never fall back to another sport's table.
type QueryService struct {
	registry *adapter.PipelineRegistry
	store    interfaces.MatchStore
	runs     interfaces.RunRepository
	cache    interfaces.QueryCache
	logger   *logrus.Logger
}

func NewQueryService(registry *adapter.PipelineRegistry, store interfaces.MatchStore, runs interfaces.RunRepository, cache interfaces.QueryCache, logger *logrus.Logger) *QueryService {
	return &QueryService{
		registry: registry,
		store:    store,
		runs:     runs,
		cache:    cache,
		logger:   logger,
	}
}

func (s *QueryService) checkSport(sport model.Sport) error {
	if _, ok := s.registry.Lookup(sport); !ok {
		return fmt.Errorf("%w: %q", interfaces.ErrUnsupportedSport, sport)
	}
	return nil
}

// Query lists a sport's matches newest first. Cached pages are served when present.
func (s *QueryService) Query(ctx context.Context, sport model.Sport, filter model.MatchFilter) ([]model.MatchRecord, error) {
	if err := s.checkSport(sport); err != nil {
		return nil, err
	}
	filter.Limit = filter.EffectiveLimit()

	// 1. cached page; the version is captured before the store read
	var version string
	if s.cache != nil {
		records, ver, ok := s.cache.GetMatches(ctx, sport, filter)
		if ok {
			s.logger.WithField("sport", sport).Debug("matches served from cache")
			return records, nil
		}
		version = ver
	}

	// 2. store
	records, err := s.store.List(ctx, sport, filter)
	if err != nil {
		return nil, fmt.Errorf("list %s matches: %w", sport, err)
	}
	if records == nil {
		records = []model.MatchRecord{}
	}
	// 3. fill the cache under the version seen in step 1
	if s.cache != nil {
		s.cache.SetMatches(ctx, sport, filter, version, records)
	}
	return records, nil
}

// Get returns one match by its store id.
func (s *QueryService) Get(ctx context.Context, sport model.Sport, id uint64) (model.MatchRecord, error) {
	if err := s.checkSport(sport); err != nil {
		return model.MatchRecord{}, err
	}
	return s.store.Get(ctx, sport, id)
}

// Runs lists recent ingestion runs.
func (s *QueryService) Runs(ctx context.Context, filter model.RunFilter) ([]model.IngestionRun, error) {
	if s.runs == nil {
		return []model.IngestionRun{}, nil
	}
	runs, err := s.runs.ListRuns(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	if runs == nil {
		runs = []model.IngestionRun{}
	}
	return runs, nil
}
