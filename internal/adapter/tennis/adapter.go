package tennis

import (
	"MatchSync/internal/adapter"
	"MatchSync/internal/config"
	"MatchSync/internal/model"
	"MatchSync/internal/scrape"
)

// Selectors for div.partido-tenis listings: two span.jugador and their span.sets.
var Selectors = scrape.SelectorConfig{
	Container:    "div.partido-tenis",
	Competition:  "h2",
	Participants: "span.jugador",
	Metrics:      "span.sets",
	Time:         "span.hora",
	Link:         "a",
}

// New builds the tennis pipeline. Metrics are sets won; records carry a combined score.
func New(cfg config.SportConfig) (*adapter.Pipeline, error) {
	return adapter.Build(model.SportTennis, Selectors, scrape.NormalizeTennis, cfg)
}
