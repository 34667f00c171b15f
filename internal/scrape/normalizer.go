package scrape

import (
	"strconv"
	"strings"
	"time"

	"MatchSync/internal/model"
)

// NormalizeFunc converts raw fields into a record for sport. now is used for the missing-time
// fallback. It never fails: every malformed or absent field has a documented default.
type NormalizeFunc func(raw model.RawMatchFields, sport model.Sport, baseURL string, now time.Time) model.MatchRecord

// Normalize is the default NormalizeFunc.
func Normalize(raw model.RawMatchFields, sport model.Sport, baseURL string, now time.Time) model.MatchRecord {
	rec := model.MatchRecord{
		Sport:         sport,
		Competition:   textOr(raw, model.FieldCompetition, model.UnknownCompetition),
		ParticipantA:  textOr(raw, model.FieldParticipantA, model.UnknownParticipant),
		ParticipantB:  textOr(raw, model.FieldParticipantB, model.UnknownParticipant),
		MetricA:       ParseMetric(raw[model.FieldMetricA]),
		MetricB:       ParseMetric(raw[model.FieldMetricB]),
		ScheduledTime: textOr(raw, model.FieldScheduledTime, now.Format(model.ScheduledTimeLayout)),
	}
	if href, ok := raw.Get(model.FieldDetailURL); ok {
		if href = strings.TrimSpace(href); href != "" {
			resolved := ResolveURL(baseURL, href)
			rec.DetailURL = &resolved
		}
	}
	return rec
}

// NormalizeTennis adds the tennis combined score: the sum of both raw scores when both are plain
// integers (absent counts as 0), otherwise the raw strings joined by a hyphen.
func NormalizeTennis(raw model.RawMatchFields, sport model.Sport, baseURL string, now time.Time) model.MatchRecord {
	rec := Normalize(raw, sport, baseURL, now)
	rec.CombinedScore = CombinedScore(strings.TrimSpace(raw[model.FieldMetricA]), strings.TrimSpace(raw[model.FieldMetricB]))
	return rec
}

// CombinedScore implements the tennis display score.
func CombinedScore(a, b string) string {
	na, errA := strconv.Atoi(orZero(a))
	nb, errB := strconv.Atoi(orZero(b))
	if errA == nil && errB == nil {
		return strconv.Itoa(na + nb)
	}
	return a + "-" + b
}

func orZero(s string) string {
	if s == "" {
		return "0"
	}
	return s
}

// ParseMetric reads a base-10 integer, falling back to 0.
func ParseMetric(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

// absoluteSchemes are the scheme prefixes that make a detail link absolute. Anything else with a
// colon, such as "match:42" or "localhost:8080/x", is a relative path.
var absoluteSchemes = []string{"http:", "https:", "ftp:", "mailto:", "tel:"}

// ResolveURL makes ref absolute against base. A ref with a recognized scheme is returned as is;
// a protocol-relative ref ("//host/path") takes the scheme of base.
func ResolveURL(base, ref string) string {
	if hasScheme(ref) || base == "" {
		return ref
	}
	if strings.HasPrefix(ref, "//") && !strings.HasPrefix(ref, "///") {
		if i := strings.Index(base, "://"); i > 0 {
			return base[:i+1] + ref
		}
		return ref
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(ref, "/")
}

func hasScheme(s string) bool {
	lower := strings.ToLower(s)
	for _, scheme := range absoluteSchemes {
		if strings.HasPrefix(lower, scheme) {
			return true
		}
	}
	return false
}

func textOr(raw model.RawMatchFields, field, fallback string) string {
	if v := strings.TrimSpace(raw[field]); v != "" {
		return v
	}
	return fallback
}
