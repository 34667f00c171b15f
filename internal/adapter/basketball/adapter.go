package basketball

import (
	"MatchSync/internal/adapter"
	"MatchSync/internal/config"
	"MatchSync/internal/model"
	"MatchSync/internal/scrape"
)

var Selectors = scrape.SelectorConfig{
	Container:    "div.partido-baloncesto",
	Competition:  "h2",
	Participants: "span.equipo",
	Metrics:      "span.puntos",
	Time:         "span.hora",
	Link:         "a",
}

// New builds the basketball pipeline: home/away teams and points.
func New(cfg config.SportConfig) (*adapter.Pipeline, error) {
	return adapter.Build(model.SportBasketball, Selectors, scrape.Normalize, cfg)
}
