// Package generic is the catch-all pipeline for sources outside the built-in sports. Its
// selectors follow a neutral class naming and are normally overridden in config.
package generic

import (
	"MatchSync/internal/adapter"
	"MatchSync/internal/config"
	"MatchSync/internal/model"
	"MatchSync/internal/scrape"
)

var Selectors = scrape.SelectorConfig{
	Container:    ".match",
	Competition:  ".competition, h2",
	Participants: ".participant",
	Metrics:      ".score",
	Time:         ".time",
	Link:         "a",
}

func New(cfg config.SportConfig) (*adapter.Pipeline, error) {
	return adapter.Build(model.SportGeneric, Selectors, scrape.Normalize, cfg)
}
