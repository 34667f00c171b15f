package sports

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"

	"MatchSync/internal/config"
	"MatchSync/internal/model"
	"MatchSync/internal/scrape"
)

const (
	footballPage = `<html><body>
<div class="partido"><h2>La Liga</h2>
  <span class="equipo">Real Madrid</span><span class="equipo">Barcelona</span>
  <span class="goles">2</span><span class="goles">1</span>
  <span class="hora">21:00</span><a href="/partido/1">ver</a></div>
</body></html>`

	tennisPage = `<html><body>
<div class="partido-tenis"><h2>Roland Garros</h2>
  <span class="jugador">Alcaraz</span><span class="jugador">Sinner</span>
  <span class="sets">3</span><span class="sets">2</span>
  <span class="hora">15:30</span><a href="https://tenis.example.org/m/7">ver</a></div>
</body></html>`

	basketballPage = `<html><body>
<div class="partido-baloncesto"><h2>ACB</h2>
  <span class="equipo">Unicaja</span><span class="equipo">Baskonia</span>
  <span class="puntos">88</span><span class="puntos">79</span>
  <span class="hora">19:45</span></div>
</body></html>`

	genericPage = `<ul><li class="match"><span class="competition">Cup</span>
  <b class="participant">Reds</b><b class="participant">Blues</b>
  <i class="score">4</i><i class="score">4</i><em class="time">Sun</em></li></ul>`
)

func TestBuiltinPipelinesExtractOriginalMarkup(t *testing.T) {
	tests := []struct {
		sport model.Sport
		page  string
		want  model.MatchRecord
	}{
		{model.SportFootball, footballPage, model.MatchRecord{Competition: "La Liga", ParticipantA: "Real Madrid", ParticipantB: "Barcelona", MetricA: 2, MetricB: 1, ScheduledTime: "21:00"}},
		{model.SportTennis, tennisPage, model.MatchRecord{Competition: "Roland Garros", ParticipantA: "Alcaraz", ParticipantB: "Sinner", MetricA: 3, MetricB: 2, ScheduledTime: "15:30", CombinedScore: "5"}},
		{model.SportBasketball, basketballPage, model.MatchRecord{Competition: "ACB", ParticipantA: "Unicaja", ParticipantB: "Baskonia", MetricA: 88, MetricB: 79, ScheduledTime: "19:45"}},
		{model.SportGeneric, genericPage, model.MatchRecord{Competition: "Cup", ParticipantA: "Reds", ParticipantB: "Blues", MetricA: 4, MetricB: 4, ScheduledTime: "Sun"}},
	}

	logger, _ := test.NewNullLogger()
	extractor := scrape.NewExtractor(logger)
	factories := Builtin()

	for _, tt := range tests {
		t.Run(string(tt.sport), func(t *testing.T) {
			p, err := factories[tt.sport](config.SportConfig{BaseURL: "https://example.com/" + string(tt.sport) + "/"})
			if err != nil {
				t.Fatalf("build: %v", err)
			}
			doc, err := scrape.ParseDocument([]byte(tt.page))
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			raws, skipped := scrape.Collect(extractor.Extract(doc, p.Selectors))
			if len(raws) != 1 || skipped != 0 {
				t.Fatalf("expected one element, got %d (skipped %d)", len(raws), skipped)
			}

			got := p.Normalize(raws[0], p.Sport, p.BaseURL, time.Now())
			if got.Sport != tt.sport || got.Competition != tt.want.Competition ||
				got.ParticipantA != tt.want.ParticipantA || got.ParticipantB != tt.want.ParticipantB ||
				got.MetricA != tt.want.MetricA || got.MetricB != tt.want.MetricB ||
				got.ScheduledTime != tt.want.ScheduledTime || got.CombinedScore != tt.want.CombinedScore {
				t.Fatalf("unexpected record %+v", got)
			}
		})
	}
}

func TestFootballDetailURLResolvedAgainstBase(t *testing.T) {
	p, err := Builtin()[model.SportFootball](config.SportConfig{BaseURL: "https://example.com/futbol/"})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	logger, _ := test.NewNullLogger()
	doc, _ := scrape.ParseDocument([]byte(footballPage))
	raws, _ := scrape.Collect(scrape.NewExtractor(logger).Extract(doc, p.Selectors))

	rec := p.Normalize(raws[0], p.Sport, p.BaseURL, time.Now())
	if rec.DetailURL == nil || *rec.DetailURL != "https://example.com/futbol/partido/1" {
		t.Fatalf("unexpected detail url %v", rec.DetailURL)
	}
}
