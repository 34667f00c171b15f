package adapter

import (
	"fmt"
	"slices"

	"MatchSync/internal/config"
	"MatchSync/internal/model"
	"MatchSync/internal/scrape"
)

// Pipeline bundles everything needed to turn one sport's listing page into records.
type Pipeline struct {
	Sport     model.Sport
	BaseURL   string
	Selectors *scrape.Selectors
	Normalize scrape.NormalizeFunc
	KeyFields []string
}

// Factory builds a sport's pipeline from its source settings.
type Factory func(cfg config.SportConfig) (*Pipeline, error)

// Factories is the closed set of sports known to a registry.
type Factories map[model.Sport]Factory

// Sports lists the factory keys in sorted order.
func (f Factories) Sports() []model.Sport {
	sports := make([]model.Sport, 0, len(f))
	for s := range f {
		sports = append(sports, s)
	}
	slices.Sort(sports)
	return sports
}

// Build is the common factory body: defaults merged with configured overrides, compiled once.
func Build(sport model.Sport, defaults scrape.SelectorConfig, normalize scrape.NormalizeFunc, cfg config.SportConfig) (*Pipeline, error) {
	sel, err := MergeSelectors(defaults, cfg.Selectors).Compile()
	if err != nil {
		return nil, fmt.Errorf("%s selectors: %w", sport, err)
	}
	return &Pipeline{
		Sport:     sport,
		BaseURL:   cfg.BaseURL,
		Selectors: sel,
		Normalize: normalize,
		KeyFields: model.DefaultKeyFields,
	}, nil
}

// MergeSelectors overlays the non-empty overrides on defaults.
func MergeSelectors(defaults scrape.SelectorConfig, o config.SelectorsConfig) scrape.SelectorConfig {
	pick := func(override, def string) string {
		if override != "" {
			return override
		}
		return def
	}
	return scrape.SelectorConfig{
		Container:    pick(o.Container, defaults.Container),
		Competition:  pick(o.Competition, defaults.Competition),
		Participants: pick(o.Participants, defaults.Participants),
		Metrics:      pick(o.Metrics, defaults.Metrics),
		Time:         pick(o.Time, defaults.Time),
		Link:         pick(o.Link, defaults.Link),
		LinkAttr:     pick(o.LinkAttr, defaults.LinkAttr),
	}
}
