package scrape

import (
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

// SelectorConfig names the CSS selectors used to pull match fields out of a listing page.
// Every selector except Container is resolved relative to a container element.
type SelectorConfig struct {
	Container    string // one element per match
	Competition  string // tournament / league title
	Participants string // up to two elements, home then away
	Metrics      string // up to two elements, same order as Participants
	Time         string // scheduled time text
	Link         string // optional detail link
	LinkAttr     string // attribute holding the link, "href" when empty
}

// Selectors is a compiled SelectorConfig. A nil matcher means the field is not configured.
type Selectors struct {
	container    goquery.Matcher
	competition  goquery.Matcher
	participants goquery.Matcher
	metrics      goquery.Matcher
	time         goquery.Matcher
	link         goquery.Matcher
	linkAttr     string
}

// Compile validates every selector up front so that a typo fails at startup rather than as an
// empty scrape.
func (c SelectorConfig) Compile() (*Selectors, error) {
	if c.Container == "" {
		return nil, fmt.Errorf("container selector is required")
	}
	s := &Selectors{linkAttr: c.LinkAttr}
	if s.linkAttr == "" {
		s.linkAttr = "href"
	}

	fields := []struct {
		name string
		expr string
		dst  *goquery.Matcher
	}{
		{"container", c.Container, &s.container},
		{"competition", c.Competition, &s.competition},
		{"participants", c.Participants, &s.participants},
		{"metrics", c.Metrics, &s.metrics},
		{"time", c.Time, &s.time},
		{"link", c.Link, &s.link},
	}
	for _, f := range fields {
		if f.expr == "" {
			continue
		}
		m, err := cascadia.Compile(f.expr)
		if err != nil {
			return nil, fmt.Errorf("compile %s selector %q: %w", f.name, f.expr, err)
		}
		*f.dst = m
	}
	return s, nil
}

// MustCompile is Compile for built-in selector sets.
func (c SelectorConfig) MustCompile() *Selectors {
	s, err := c.Compile()
	if err != nil {
		panic(err)
	}
	return s
}
