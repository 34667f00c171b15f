package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"MatchSync/internal/interfaces"
	"MatchSync/internal/model"
)

// BatchResult counts the outcomes of one committed batch.
type BatchResult struct {
	Inserted  int
	Updated   int
	Unchanged int
}

// Processed is the number of records that caused a write.
func (b BatchResult) Processed() int { return b.Inserted + b.Updated }

func (b *BatchResult) add(o model.Outcome) {
	switch o {
	case model.Inserted:
		b.Inserted++
	case model.Updated:
		b.Updated++
	default:
		b.Unchanged++
	}
}

// Reconciler merges normalized records into a store by natural key.
type Reconciler struct {
	logger logrus.FieldLogger
}

func NewReconciler(logger logrus.FieldLogger) *Reconciler {
	return &Reconciler{logger: logger}
}

// Reconcile decides and stages the write for one record inside tx.
// Only metric_a, metric_b and detail_url are compared; the key fields are the identity.
func (r *Reconciler) Reconcile(ctx context.Context, tx interfaces.MatchTx, record model.MatchRecord, keyFields []string) (model.Outcome, error) {
	key := record.Key(keyFields)

	// 1. look up by natural key; a new key is inserted, a concurrent duplicate falls through
	existing, err := tx.FindByKey(ctx, key)
	switch {
	case err == nil:
	case errors.Is(err, interfaces.ErrNotFound):
		if _, err := tx.Insert(ctx, record); err == nil {
			return model.Inserted, nil
		} else if !errors.Is(err, interfaces.ErrDuplicateKey) {
			return model.Unchanged, fmt.Errorf("insert %s: %w", key, err)
		}
		// another batch committed the same key after our lookup
		r.logger.WithField("key", key.String()).Info("natural key taken concurrently, re-reading")
		existing, err = tx.FindByKey(ctx, key)
		if err != nil {
			return model.Unchanged, fmt.Errorf("re-read %s after duplicate insert: %w", key, err)
		}
	default:
		return model.Unchanged, fmt.Errorf("lookup %s: %w", key, err)
	}

	// 2. diff the mutable fields
	if existing.MutableEqual(record) {
		return model.Unchanged, nil
	}
	if err := tx.Update(ctx, existing.WithMutable(record)); err != nil {
		return model.Unchanged, fmt.Errorf("update %s: %w", key, err)
	}
	return model.Updated, nil
}

// ReconcileBatch applies records to sport's table as one atomic batch. On any error the batch is
// rolled back, nothing is persisted and the error wraps ErrStoreCommit.
func (r *Reconciler) ReconcileBatch(ctx context.Context, store interfaces.MatchStore, sport model.Sport, records []model.MatchRecord, keyFields []string) (BatchResult, error) {
	// 1. open the batch
	tx, err := store.Begin(ctx, sport)
	if err != nil {
		return BatchResult{}, fmt.Errorf("%w: %v", interfaces.ErrStoreCommit, err)
	}

	// 2. stage every record; the first error abandons the batch
	var res BatchResult
	for _, rec := range records {
		outcome, err := r.Reconcile(ctx, tx, rec, keyFields)
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				r.logger.WithError(rbErr).WithField("sport", sport).Error("rollback failed")
			}
			return BatchResult{}, fmt.Errorf("%w: %v", interfaces.ErrStoreCommit, err)
		}
		res.add(outcome)
	}

	// 3. all or nothing
	if err := tx.Commit(); err != nil {
		_ = tx.Rollback() // releases staged writes; no-op once the store finished the tx
		return BatchResult{}, fmt.Errorf("%w: %v", interfaces.ErrStoreCommit, err)
	}
	return res, nil
}
