// Package sports lists the built-in sport pipelines.
package sports

import (
	"MatchSync/internal/adapter"
	"MatchSync/internal/adapter/basketball"
	"MatchSync/internal/adapter/football"
	"MatchSync/internal/adapter/generic"
	"MatchSync/internal/adapter/tennis"
	"MatchSync/internal/model"
)

// Builtin returns a fresh factory set for every shipped sport.
func Builtin() adapter.Factories {
	return adapter.Factories{
		model.SportFootball:   football.New,
		model.SportTennis:     tennis.New,
		model.SportBasketball: basketball.New,
		model.SportGeneric:    generic.New,
	}
}
