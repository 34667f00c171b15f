package adapter

import (
	"fmt"
	"slices"

	"github.com/sirupsen/logrus"

	"MatchSync/internal/config"
	"MatchSync/internal/interfaces"
	"MatchSync/internal/model"
)

// PipelineRegistry resolves a sport identifier to its pipeline. It is built once at startup and
// read-only afterwards.
type PipelineRegistry struct {
	logger    *logrus.Logger
	pipelines map[model.Sport]*Pipeline
	fallback  model.Sport
}

// NewPipelineRegistry builds a pipeline for every factory. A factory error or an invalid sport
// identifier aborts startup.
func NewPipelineRegistry(cfg *config.Config, factories Factories, logger *logrus.Logger) (*PipelineRegistry, error) {
	r := &PipelineRegistry{
		logger:    logger,
		pipelines: make(map[model.Sport]*Pipeline, len(factories)),
		fallback:  model.ParseSport(cfg.FallbackSport),
	}

	// 1. one pipeline per factory
	for _, sport := range factories.Sports() {
		if !sport.ValidIdentifier() {
			return nil, fmt.Errorf("invalid sport identifier %q", sport)
		}
		sportCfg, ok := cfg.Sport(string(sport))
		if !ok {
			logger.WithField("sport", sport).Warn("no source configured, pipeline only usable with explicit urls")
		}
		p, err := factories[sport](sportCfg)
		if err != nil {
			return nil, fmt.Errorf("build %s pipeline: %w", sport, err)
		}
		if p.Sport != sport {
			return nil, fmt.Errorf("factory for %s built a %s pipeline", sport, p.Sport)
		}
		r.pipelines[sport] = p
	}

	// 2. the fallback must be one of them
	if r.fallback != "" {
		if _, ok := r.pipelines[r.fallback]; !ok {
			return nil, fmt.Errorf("fallback sport %q has no pipeline", r.fallback)
		}
	}

	logger.WithFields(logrus.Fields{
		"sports":   factories.Sports(),
		"fallback": r.fallback,
	}).Info("sport pipelines ready")
	return r, nil
}

// Resolve returns the pipeline for sport. Unknown sports fail with ErrUnsupportedSport unless a
// fallback sport is configured, in which case the substitution is logged.
func (r *PipelineRegistry) Resolve(sport model.Sport) (*Pipeline, error) {
	if p, ok := r.pipelines[sport]; ok {
		return p, nil
	}
	if r.fallback == "" {
		return nil, fmt.Errorf("%w: %q", interfaces.ErrUnsupportedSport, sport)
	}
	r.logger.WithFields(logrus.Fields{
		"requested": sport,
		"fallback":  r.fallback,
	}).Warn("unknown sport, scraping with fallback pipeline")
	return r.pipelines[r.fallback], nil
}

// Lookup returns the pipeline registered for exactly sport, without fallback.
func (r *PipelineRegistry) Lookup(sport model.Sport) (*Pipeline, bool) {
	p, ok := r.pipelines[sport]
	return p, ok
}

// Sports lists the registered sports.
func (r *PipelineRegistry) Sports() []model.Sport {
	sports := make([]model.Sport, 0, len(r.pipelines))
	for s := range r.pipelines {
		sports = append(sports, s)
	}
	slices.Sort(sports)
	return sports
}

// KeyFields returns the natural key fields of every registered sport.
func (r *PipelineRegistry) KeyFields() map[model.Sport][]string {
	out := make(map[model.Sport][]string, len(r.pipelines))
	for s, p := range r.pipelines {
		out[s] = p.KeyFields
	}
	return out
}
