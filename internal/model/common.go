package model

import "strings"

// Sport identifies a scraping pipeline and its match table.
type Sport string

const (
	SportFootball   Sport = "football"
	SportTennis     Sport = "tennis"
	SportBasketball Sport = "basketball"
	SportGeneric    Sport = "generic"
)

// ParseSport lower-cases and trims s. It does not check registration; the pipeline registry does.
func ParseSport(s string) Sport {
	return Sport(strings.ToLower(strings.TrimSpace(s)))
}

func (s Sport) String() string { return string(s) }

// TableName is the per-sport match table.
func (s Sport) TableName() string { return string(s) + "_matches" }

// ValidIdentifier reports whether s is safe to use as part of a table name.
func (s Sport) ValidIdentifier() bool {
	if s == "" || len(s) > 32 {
		return false
	}
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '_' {
			return false
		}
	}
	return true
}

// Run status values
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Failure reasons reported on an IngestResult
const (
	ReasonFetch            = "fetch_error"
	ReasonParse            = "parse_error"
	ReasonStoreCommit      = "store_commit_error"
	ReasonUnsupportedSport = "unsupported_sport"
)
