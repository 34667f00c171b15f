package football

import (
	"MatchSync/internal/adapter"
	"MatchSync/internal/config"
	"MatchSync/internal/model"
	"MatchSync/internal/scrape"
)

// Selectors match listings of the form
//
//	<div class="partido"><h2>Liga</h2><span class="equipo">..</span><span class="goles">..</span>
//	<span class="hora">..</span><a href="..">..</a></div>
var Selectors = scrape.SelectorConfig{
	Container:    "div.partido",
	Competition:  "h2",
	Participants: "span.equipo",
	Metrics:      "span.goles",
	Time:         "span.hora",
	Link:         "a",
}

// New builds the football pipeline: home/away teams and goals.
func New(cfg config.SportConfig) (*adapter.Pipeline, error) {
	return adapter.Build(model.SportFootball, Selectors, scrape.Normalize, cfg)
}
