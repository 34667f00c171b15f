// Package fetcher retrieves listing pages over plain HTTP or through headless Chrome.
package fetcher

import (
	"github.com/sirupsen/logrus"

	"MatchSync/internal/config"
	"MatchSync/internal/interfaces"
	"MatchSync/internal/model"
)

// New picks the fetcher matching cfg.FetchMode.
func New(cfg config.SportConfig, logger *logrus.Logger) interfaces.Fetcher {
	if cfg.FetchMode == config.FetchModeBrowser {
		return NewBrowserFetcher(cfg, logger)
	}
	return NewHTTPFetcher(cfg, logger)
}

// ForSports builds one fetcher per configured sport. The "" entry serves sports without settings.
func ForSports(cfg *config.Config, sports []model.Sport, logger *logrus.Logger) map[model.Sport]interfaces.Fetcher {
	out := map[model.Sport]interfaces.Fetcher{"": NewHTTPFetcher(config.SportConfig{}, logger)}
	for _, sport := range sports {
		if sc, ok := cfg.Sport(string(sport)); ok {
			out[sport] = New(sc, logger)
		}
	}
	return out
}
