package interfaces

import (
	"context"

	"MatchSync/internal/model"
)

// Fetcher retrieves a source page. Retries and rate limits are its own business.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error) // raw document or an error wrapping ErrFetch
}

// MatchStore is the persistence boundary for match records.
type MatchStore interface {
	// Begin opens a reconciliation batch.
	Begin(ctx context.Context, sport model.Sport) (MatchTx, error)
	// List returns matches newest first.
	List(ctx context.Context, sport model.Sport, filter model.MatchFilter) ([]model.MatchRecord, error)
	// Get returns ErrNotFound when id is absent.
	Get(ctx context.Context, sport model.Sport, id uint64) (model.MatchRecord, error)
}

// MatchTx is one atomic reconciliation batch over a single sport's table. Nothing it writes is
// visible to other batches before Commit.
type MatchTx interface {
	// FindByKey sees the batch's own pending writes. ErrNotFound when absent.
	FindByKey(ctx context.Context, key model.NaturalKey) (model.MatchRecord, error)
	// Insert returns ErrDuplicateKey when the key already exists.
	Insert(ctx context.Context, record model.MatchRecord) (model.MatchRecord, error)
	// Update writes the mutable fields of the row identified by record.ID.
	Update(ctx context.Context, record model.MatchRecord) error
	Commit() error
	Rollback() error
}

// RunRepository keeps the ingestion run history.
type RunRepository interface {
	SaveRun(ctx context.Context, run *model.IngestionRun) error
	ListRuns(ctx context.Context, filter model.RunFilter) ([]model.IngestionRun, error)
}

// QueryCache caches query results per sport. Implementations must tolerate concurrent use.
type QueryCache interface {
	// GetMatches returns the cached page, or on a miss the cache version to pass to SetMatches.
	GetMatches(ctx context.Context, sport model.Sport, filter model.MatchFilter) (records []model.MatchRecord, version string, hit bool)
	// SetMatches stores a page read after GetMatches returned version.
	SetMatches(ctx context.Context, sport model.Sport, filter model.MatchFilter, version string, records []model.MatchRecord)
	Invalidate(ctx context.Context, sport model.Sport) error
}
