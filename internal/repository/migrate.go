package repository

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	"MatchSync/internal/model"
)

// Migrate creates one match table per sport, each with a unique index over that sport's natural
// key, plus the ingestion run table.
func Migrate(db *gorm.DB, keyFields map[model.Sport][]string) error {
	for sport, fields := range keyFields {
		if err := migrateSport(db, sport, fields); err != nil {
			return err
		}
	}
	if err := db.AutoMigrate(&model.IngestionRun{}); err != nil {
		return fmt.Errorf("migrate ingestion_runs: %w", err)
	}
	return nil
}

func migrateSport(db *gorm.DB, sport model.Sport, fields []string) error {
	if !sport.ValidIdentifier() {
		return fmt.Errorf("invalid sport identifier %q", sport)
	}
	if len(fields) == 0 {
		return fmt.Errorf("%s: empty natural key", sport)
	}
	for _, f := range fields {
		if _, ok := (model.MatchRecord{}).FieldValue(f); !ok {
			return fmt.Errorf("%s: %q cannot be part of a natural key", sport, f)
		}
	}

	table := sport.TableName()
	if err := db.Table(table).AutoMigrate(&model.MatchRow{}); err != nil {
		return fmt.Errorf("migrate %s: %w", table, err)
	}

	stmts := []string{
		fmt.Sprintf("CREATE UNIQUE INDEX IF NOT EXISTS %s ON %s (%s)", naturalKeyIndex(table), table, strings.Join(fields, ", ")),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_created_at ON %s (created_at DESC)", table, table),
	}
	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("index %s: %w", table, err)
		}
	}
	return nil
}

func naturalKeyIndex(table string) string {
	return "uk_" + table + "_natural_key"
}
