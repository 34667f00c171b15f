package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"MatchSync/internal/interfaces"
	"MatchSync/internal/model"
)

const insertSavepoint = "match_insert"

type matchRepository struct {
	db *gorm.DB
}

// NewMatchRepository returns the postgres-backed MatchStore. Tables are created by Migrate.
func NewMatchRepository(db *gorm.DB) interfaces.MatchStore {
	return &matchRepository{db: db}
}

// Begin opens a database transaction scoped to sport's table.
func (r *matchRepository) Begin(ctx context.Context, sport model.Sport) (interfaces.MatchTx, error) {
	if !sport.ValidIdentifier() {
		return nil, fmt.Errorf("%w: %q", interfaces.ErrUnsupportedSport, sport)
	}
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("begin transaction: %w", tx.Error)
	}
	return &matchTx{tx: tx, sport: sport, table: sport.TableName()}, nil
}

// List filters one sport's matches, newest first.
func (r *matchRepository) List(ctx context.Context, sport model.Sport, filter model.MatchFilter) ([]model.MatchRecord, error) {
	if !sport.ValidIdentifier() {
		return nil, fmt.Errorf("%w: %q", interfaces.ErrUnsupportedSport, sport)
	}
	db := r.db.WithContext(ctx).Table(sport.TableName())

	if filter.Participant != "" {
		like := containsPattern(filter.Participant)
		db = db.Where("(participant_a ILIKE ? OR participant_b ILIKE ?)", like, like)
	}
	if filter.Competition != "" {
		db = db.Where("competition ILIKE ?", containsPattern(filter.Competition))
	}

	var rows []model.MatchRow
	if err := db.
		Order("created_at DESC").
		Order("id DESC").
		Limit(filter.EffectiveLimit()).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list %s: %w", sport.TableName(), err)
	}

	records := make([]model.MatchRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.ToRecord(sport))
	}
	return records, nil
}

// Get loads a single match by surrogate id.
func (r *matchRepository) Get(ctx context.Context, sport model.Sport, id uint64) (model.MatchRecord, error) {
	if !sport.ValidIdentifier() {
		return model.MatchRecord{}, fmt.Errorf("%w: %q", interfaces.ErrUnsupportedSport, sport)
	}
	var row model.MatchRow
	err := r.db.WithContext(ctx).Table(sport.TableName()).Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.MatchRecord{}, fmt.Errorf("%s match %d: %w", sport, id, interfaces.ErrNotFound)
	}
	if err != nil {
		return model.MatchRecord{}, fmt.Errorf("get %s match %d: %w", sport, id, err)
	}
	return row.ToRecord(sport), nil
}

type matchTx struct {
	tx    *gorm.DB
	sport model.Sport
	table string
	done  bool
}

func (t *matchTx) FindByKey(ctx context.Context, key model.NaturalKey) (model.MatchRecord, error) {
	db := t.tx.WithContext(ctx).Table(t.table)
	for i, field := range key.Fields {
		db = db.Where(clause.Eq{Column: clause.Column{Name: field}, Value: key.Values[i]})
	}

	var row model.MatchRow
	err := db.Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.MatchRecord{}, interfaces.ErrNotFound
	}
	if err != nil {
		return model.MatchRecord{}, fmt.Errorf("find %s by key: %w", t.table, err)
	}
	return row.ToRecord(t.sport), nil
}

// Insert runs inside a savepoint so that a key conflict leaves the transaction usable.
func (t *matchTx) Insert(ctx context.Context, record model.MatchRecord) (model.MatchRecord, error) {
	row := model.MatchRowFromRecord(record)
	now := time.Now().UTC()
	row.ID = 0
	row.CreatedAt = now
	row.UpdatedAt = now

	// 1. savepoint, so a failed insert does not abort the batch
	if err := t.tx.SavePoint(insertSavepoint).Error; err != nil {
		return model.MatchRecord{}, fmt.Errorf("savepoint: %w", err)
	}
	// 2. insert; on failure return to the savepoint and classify the error
	if err := t.tx.WithContext(ctx).Table(t.table).Create(&row).Error; err != nil {
		if rbErr := t.tx.RollbackTo(insertSavepoint).Error; rbErr != nil {
			return model.MatchRecord{}, fmt.Errorf("rollback to savepoint after %v: %w", err, rbErr)
		}
		if isUniqueViolation(err, t.table) {
			return model.MatchRecord{}, fmt.Errorf("%w: %v", interfaces.ErrDuplicateKey, err)
		}
		return model.MatchRecord{}, fmt.Errorf("insert into %s: %w", t.table, err)
	}
	return row.ToRecord(t.sport), nil
}

// Update writes only the mutable columns; a nil detail url is written as NULL.
func (t *matchTx) Update(ctx context.Context, record model.MatchRecord) error {
	res := t.tx.WithContext(ctx).Table(t.table).
		Where("id = ?", record.ID).
		Updates(map[string]interface{}{
			"metric_a":       record.MetricA,
			"metric_b":       record.MetricB,
			"combined_score": record.CombinedScore,
			"detail_url":     record.DetailURL,
			"updated_at":     time.Now().UTC(),
		})
	if res.Error != nil {
		return fmt.Errorf("update %s id %d: %w", t.table, record.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("update %s id %d: %w", t.table, record.ID, interfaces.ErrNotFound)
	}
	return nil
}

func (t *matchTx) Commit() error {
	if t.done {
		return errors.New("transaction already finished")
	}
	t.done = true
	if err := t.tx.Commit().Error; err != nil {
		return fmt.Errorf("commit %s: %w", t.table, err)
	}
	return nil
}

// Rollback is a no-op after Commit.
func (t *matchTx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	if err := t.tx.Rollback().Error; err != nil {
		return fmt.Errorf("rollback %s: %w", t.table, err)
	}
	return nil
}

func isUniqueViolation(err error, table string) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLSTATE 23505") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, naturalKeyIndex(table))
}

// containsPattern builds an ILIKE pattern matching s anywhere, with LIKE metacharacters escaped.
func containsPattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}
