package scrape

import (
	"bytes"
	"errors"
	"fmt"
	"iter"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"MatchSync/internal/model"
)

// ErrUnexpectedStructure marks a match element whose shape the selectors cannot map.
var ErrUnexpectedStructure = errors.New("unexpected element structure")

// ElementError is reported for a match element that was skipped.
type ElementError struct {
	Index int // position among the container matches
	Err   error
}

func (e *ElementError) Error() string {
	return fmt.Sprintf("match element %d: %v", e.Index, e.Err)
}

func (e *ElementError) Unwrap() error { return e.Err }

// Extractor turns listing pages into raw field maps.
type Extractor struct {
	logger logrus.FieldLogger
}

func NewExtractor(logger logrus.FieldLogger) *Extractor {
	return &Extractor{logger: logger}
}

// ParseDocument parses raw page bytes.
func ParseDocument(body []byte) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return doc, nil
}

// Extract yields the fields of every container element in document order. A failing element is
// logged and yielded as (nil, *ElementError); iteration then moves on to its siblings. The
// sequence can be ranged over more than once as long as doc is not modified.
func (e *Extractor) Extract(doc *goquery.Document, sel *Selectors) iter.Seq2[model.RawMatchFields, error] {
	return func(yield func(model.RawMatchFields, error) bool) {
		containers := doc.FindMatcher(sel.container)
		for i := range containers.Length() {
			raw, err := e.element(containers.Eq(i), sel)
			if err != nil {
				elemErr := &ElementError{Index: i, Err: err}
				e.logger.WithFields(logrus.Fields{"index": i, "error": err}).Warn("skipping malformed match element")
				if !yield(nil, elemErr) {
					return
				}
				continue
			}
			if !yield(raw, nil) {
				return
			}
		}
	}
}

// Collect drains an extraction, returning the good elements and the number skipped.
func Collect(seq iter.Seq2[model.RawMatchFields, error]) ([]model.RawMatchFields, int) {
	var (
		out     []model.RawMatchFields
		skipped int
	)
	for raw, err := range seq {
		if err != nil {
			skipped++
			continue
		}
		out = append(out, raw)
	}
	return out, skipped
}

func (e *Extractor) element(s *goquery.Selection, sel *Selectors) (raw model.RawMatchFields, err error) {
	defer func() {
		if r := recover(); r != nil {
			raw, err = nil, fmt.Errorf("recovered: %v", r)
		}
	}()

	// 1. a container inside a container cannot be told apart from its parent's fields
	if s.FindMatcher(sel.container).Length() > 0 {
		return nil, fmt.Errorf("%w: nested match container", ErrUnexpectedStructure)
	}

	// 2. fields; a missing one stays absent
	raw = model.RawMatchFields{}
	if v, ok := firstText(s, sel.competition); ok {
		raw[model.FieldCompetition] = v
	}
	e.pair(s, sel.participants, raw, model.FieldParticipantA, model.FieldParticipantB)
	e.pair(s, sel.metrics, raw, model.FieldMetricA, model.FieldMetricB)
	if v, ok := firstText(s, sel.time); ok {
		raw[model.FieldScheduledTime] = v
	}
	if sel.link != nil {
		if href, ok := s.FindMatcher(sel.link).First().Attr(sel.linkAttr); ok {
			raw[model.FieldDetailURL] = href
		}
	}
	return raw, nil
}

func firstText(s *goquery.Selection, m goquery.Matcher) (string, bool) {
	if m == nil {
		return "", false
	}
	found := s.FindMatcher(m)
	if found.Length() == 0 {
		return "", false
	}
	return found.First().Text(), true
}

// pair maps the first two matches onto fields a and b. Positions with no match stay absent and
// any surplus is ignored.
func (e *Extractor) pair(s *goquery.Selection, m goquery.Matcher, raw model.RawMatchFields, a, b string) {
	if m == nil {
		return
	}
	found := s.FindMatcher(m)
	if n := found.Length(); n > 2 {
		e.logger.WithFields(logrus.Fields{"field": a, "matched": n}).Debug("ignoring surplus elements")
		found = found.Slice(0, 2)
	}
	fields := [2]string{a, b}
	found.Each(func(i int, item *goquery.Selection) {
		raw[fields[i]] = item.Text()
	})
}
