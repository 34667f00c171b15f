package repository

import (
	"context"
	"slices"
	"sync"

	"gorm.io/gorm"

	"MatchSync/internal/interfaces"
	"MatchSync/internal/model"
)

const (
	defaultRunLimit = 20
	maxRunLimit     = 200
)

type runRepository struct {
	db *gorm.DB
}

// NewRunRepository stores ingestion runs in postgres.
func NewRunRepository(db *gorm.DB) interfaces.RunRepository {
	return &runRepository{db: db}
}

func (r *runRepository) SaveRun(ctx context.Context, run *model.IngestionRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

func (r *runRepository) ListRuns(ctx context.Context, filter model.RunFilter) ([]model.IngestionRun, error) {
	db := r.db.WithContext(ctx).Model(&model.IngestionRun{})
	if filter.Sport != "" {
		db = db.Where("sport = ?", filter.Sport)
	}
	var runs []model.IngestionRun
	if err := db.Order("started_at DESC").Limit(runLimit(filter.Limit)).Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}

// MemoryRunRepository is the in-process RunRepository.
type MemoryRunRepository struct {
	mu   sync.RWMutex
	runs []model.IngestionRun
}

func NewMemoryRunRepository() *MemoryRunRepository {
	return &MemoryRunRepository{}
}

func (r *MemoryRunRepository) SaveRun(ctx context.Context, run *model.IngestionRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, *run)
	return nil
}

func (r *MemoryRunRepository) ListRuns(ctx context.Context, filter model.RunFilter) ([]model.IngestionRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.IngestionRun, 0, len(r.runs))
	for i := len(r.runs) - 1; i >= 0; i-- {
		if filter.Sport != "" && r.runs[i].Sport != filter.Sport {
			continue
		}
		out = append(out, r.runs[i])
	}
	slices.SortStableFunc(out, func(a, b model.IngestionRun) int {
		return b.StartedAt.Compare(a.StartedAt)
	})
	if limit := runLimit(filter.Limit); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func runLimit(limit int) int {
	if limit <= 0 {
		return defaultRunLimit
	}
	if limit > maxRunLimit {
		return maxRunLimit
	}
	return limit
}
