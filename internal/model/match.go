package model

import (
	"strings"
	"time"
)

// RawMatchFields holds the strings extracted from one match element. A missing key means the
// selector did not match.
type RawMatchFields map[string]string

// Field names. They double as column names of the match tables.
const (
	FieldCompetition   = "competition"
	FieldParticipantA  = "participant_a"
	FieldParticipantB  = "participant_b"
	FieldMetricA       = "metric_a"
	FieldMetricB       = "metric_b"
	FieldScheduledTime = "scheduled_time"
	FieldDetailURL     = "detail_url"
)

// Fallback values used by normalization
const (
	UnknownParticipant  = "Unknown"
	UnknownCompetition  = "Unknown Tournament"
	ScheduledTimeLayout = "2006-01-02 15:04"
)

// DefaultKeyFields is the natural key shared by all built-in sports.
var DefaultKeyFields = []string{FieldCompetition, FieldParticipantA, FieldParticipantB, FieldScheduledTime}

// Get returns the value for field and whether it was extracted.
func (r RawMatchFields) Get(field string) (string, bool) {
	v, ok := r[field]
	return v, ok
}

// MatchRecord is the canonical, normalized match. It is a value: the store owns persistence.
type MatchRecord struct {
	ID            uint64    `json:"id"`
	Sport         Sport     `json:"sport"`
	Competition   string    `json:"competition"`
	ParticipantA  string    `json:"participant_a"`
	ParticipantB  string    `json:"participant_b"`
	MetricA       int       `json:"metric_a"`
	MetricB       int       `json:"metric_b"`
	CombinedScore string    `json:"combined_score,omitempty"` // display only
	ScheduledTime string    `json:"scheduled_time"`
	DetailURL     *string   `json:"detail_url"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// FieldValue returns the string form of a key-capable field.
func (m MatchRecord) FieldValue(field string) (string, bool) {
	switch field {
	case FieldCompetition:
		return m.Competition, true
	case FieldParticipantA:
		return m.ParticipantA, true
	case FieldParticipantB:
		return m.ParticipantB, true
	case FieldScheduledTime:
		return m.ScheduledTime, true
	}
	return "", false
}

// Key builds the natural key of m over fields. Unknown field names are ignored.
func (m MatchRecord) Key(fields []string) NaturalKey {
	key := NaturalKey{Fields: make([]string, 0, len(fields)), Values: make([]string, 0, len(fields))}
	for _, f := range fields {
		v, ok := m.FieldValue(f)
		if !ok {
			continue
		}
		key.Fields = append(key.Fields, f)
		key.Values = append(key.Values, v)
	}
	return key
}

// MutableEqual compares only the fields reconciliation may change.
func (m MatchRecord) MutableEqual(o MatchRecord) bool {
	return m.MetricA == o.MetricA && m.MetricB == o.MetricB && equalURL(m.DetailURL, o.DetailURL)
}

// WithMutable returns m carrying the mutable fields of src.
func (m MatchRecord) WithMutable(src MatchRecord) MatchRecord {
	m.MetricA = src.MetricA
	m.MetricB = src.MetricB
	m.CombinedScore = src.CombinedScore
	m.DetailURL = cloneURL(src.DetailURL)
	return m
}

func equalURL(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func cloneURL(u *string) *string {
	if u == nil {
		return nil
	}
	v := *u
	return &v
}

// NaturalKey is the identity of a match across runs. Fields and Values are parallel.
type NaturalKey struct {
	Fields []string
	Values []string
}

// String is an unambiguous encoding usable as a map key.
func (k NaturalKey) String() string {
	var b strings.Builder
	for i, v := range k.Values {
		if i > 0 {
			b.WriteByte('\x1f')
		}
		b.WriteString(k.Fields[i])
		b.WriteByte('=')
		b.WriteString(v)
	}
	return b.String()
}

// Outcome of reconciling one record
type Outcome int

const (
	Unchanged Outcome = iota
	Inserted
	Updated
)

func (o Outcome) String() string {
	switch o {
	case Inserted:
		return "inserted"
	case Updated:
		return "updated"
	default:
		return "unchanged"
	}
}

// MatchFilter narrows a query over one sport's matches.
type MatchFilter struct {
	Participant string // case-insensitive substring of either participant
	Competition string // case-insensitive substring
	Limit       int
}

const (
	DefaultQueryLimit = 50
	MaxQueryLimit     = 500
)

// EffectiveLimit applies the default and the cap.
func (f MatchFilter) EffectiveLimit() int {
	switch {
	case f.Limit <= 0:
		return DefaultQueryLimit
	case f.Limit > MaxQueryLimit:
		return MaxQueryLimit
	}
	return f.Limit
}

// IngestResult is what every ingestion run reports, successful or not.
type IngestResult struct {
	RunID          string `json:"run_id"`
	Sport          Sport  `json:"sport"`
	Status         string `json:"status"`
	ProcessedCount int    `json:"processed_count"`
	Inserted       int    `json:"inserted"`
	Updated        int    `json:"updated"`
	Unchanged      int    `json:"unchanged"`
	Skipped        int    `json:"skipped"`
	Found          bool   `json:"found"`
	Message        string `json:"message"`
	Reason         string `json:"reason,omitempty"`
}

// Succeeded reports whether the run committed.
func (r IngestResult) Succeeded() bool { return r.Status == StatusSuccess }
