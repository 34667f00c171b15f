package repository

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"MatchSync/internal/interfaces"
	"MatchSync/internal/model"
)

// openTestDB connects to POSTGRES_TEST_DSN and recreates the tables the tests use.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	for _, table := range []string{model.SportFootball.TableName(), "ingestion_runs"} {
		if err := db.Exec("DROP TABLE IF EXISTS " + table).Error; err != nil {
			t.Fatalf("drop %s: %v", table, err)
		}
	}
	if err := Migrate(db, map[model.Sport][]string{model.SportFootball: model.DefaultKeyFields}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestPostgresInsertFindUpdate(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	store := NewMatchRepository(db)

	tx, err := store.Begin(ctx, model.SportFootball)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	rec := record("Liga", "A", "B", "20:00", 1, 0)
	rec.DetailURL = strPtr("https://example.com/1")
	inserted, err := tx.Insert(ctx, rec)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	// a key conflict must leave the transaction usable
	if _, err := tx.Insert(ctx, rec); !errors.Is(err, interfaces.ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}

	found, err := tx.FindByKey(ctx, rec.Key(model.DefaultKeyFields))
	if err != nil || found.ID != inserted.ID {
		t.Fatalf("find by key: %+v %v", found, err)
	}

	found.MetricA = 2
	found.DetailURL = nil
	if err := tx.Update(ctx, found); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	got, err := store.Get(ctx, model.SportFootball, inserted.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.MetricA != 2 || got.DetailURL != nil {
		t.Fatalf("expected update to persist including NULL url, got %+v", got)
	}
}

func TestPostgresStoresLongScrapedText(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	store := NewMatchRepository(db)

	rec := record(strings.Repeat("Copa ", 80), strings.Repeat("H", 300), "B", "Sabado 14 de septiembre de 2024, 20:45 hora peninsular (CEST) en directo", 2, 1)
	rec.DetailURL = strPtr("https://example.com/" + strings.Repeat("x", 1100))

	tx, err := store.Begin(ctx, model.SportFootball)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	inserted, err := tx.Insert(ctx, rec)
	if err != nil {
		_ = tx.Rollback()
		t.Fatalf("insert long values: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	got, err := store.Get(ctx, model.SportFootball, inserted.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ScheduledTime != rec.ScheduledTime || got.ParticipantA != rec.ParticipantA || *got.DetailURL != *rec.DetailURL {
		t.Fatalf("long values not stored verbatim: %+v", got)
	}
}

func TestPostgresRollbackLeavesTableUnchanged(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	store := NewMatchRepository(db)

	tx, _ := store.Begin(ctx, model.SportFootball)
	_, _ = tx.Insert(ctx, record("Liga", "A", "B", "20:00", 1, 0))
	if err := tx.Rollback(); err != nil {
		t.Fatalf("rollback: %v", err)
	}

	list, err := store.List(ctx, model.SportFootball, model.MatchFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected empty table, got %d rows", len(list))
	}
}

func TestPostgresListFilters(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	store := NewMatchRepository(db)

	tx, _ := store.Begin(ctx, model.SportFootball)
	_, _ = tx.Insert(ctx, record("Premier League", "Arsenal", "Chelsea", "1", 0, 0))
	_, _ = tx.Insert(ctx, record("La Liga", "Sevilla", "Betis", "2", 0, 0))
	_, _ = tx.Insert(ctx, record("100% Cup", "Arsenal_B", "Reading", "3", 0, 0))
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	arsenal, _ := store.List(ctx, model.SportFootball, model.MatchFilter{Participant: "arsenal"})
	if len(arsenal) != 2 {
		t.Fatalf("expected 2 arsenal matches, got %d", len(arsenal))
	}
	literal, _ := store.List(ctx, model.SportFootball, model.MatchFilter{Competition: "100%"})
	if len(literal) != 1 {
		t.Fatalf("expected %% to be matched literally, got %d", len(literal))
	}
	if _, err := store.Get(ctx, model.SportFootball, 999999); !errors.Is(err, interfaces.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPostgresRunRepository(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := NewRunRepository(db)

	run := &model.IngestionRun{ID: "00000000-0000-0000-0000-000000000001", Sport: "football", Status: model.StatusSuccess}
	if err := repo.SaveRun(ctx, run); err != nil {
		t.Fatalf("save run: %v", err)
	}
	runs, err := repo.ListRuns(ctx, model.RunFilter{Sport: "football"})
	if err != nil || len(runs) != 1 {
		t.Fatalf("list runs: %v %v", runs, err)
	}
}
