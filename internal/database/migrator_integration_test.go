//go:build integration
// +build integration

package database

import (
	"context"
	"database/sql"
	"os"
	"strings"
	"testing"

	"github.com/esolrine-stories/internal/config"
	"github.com/esolrine-stories/internal/models"
	"github.com/rs/zerolog"
)

// setupPostgresMigrator opens TEST_POSTGRES_DSN with an empty schema
func setupPostgresMigrator(t *testing.T) (*DB, *Migrator) {
	t.Helper()

	dsn := strings.TrimSpace(os.Getenv("TEST_POSTGRES_DSN"))
	if dsn == "" {
		t.Skip("skip postgres integration test: TEST_POSTGRES_DSN is empty")
	}

	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("open postgres failed: %v", err)
	}
	db := Wrap(sqlDB, zerolog.Nop())

	reset := func() {
		_, _ = db.Exec(`DROP TABLE IF EXISTS stories`)
		_, _ = db.Exec(`DROP TABLE IF EXISTS schema_migrations`)
	}
	reset()
	t.Cleanup(func() {
		reset()
		db.Close()
	})

	return db, NewMigrator(db, config.MigrationsConfig{}, zerolog.Nop())
}

func TestCreateTable_Twice(t *testing.T) {
	db, migrator := setupPostgresMigrator(t)
	ctx := context.Background()

	first, err := migrator.CreateTable(ctx)
	if err != nil {
		t.Fatalf("first CreateTable failed: %v", err)
	}
	if !first.Applied || first.To != VersionCreateTable {
		t.Errorf("Unexpected first result %+v", first)
	}

	second, err := migrator.CreateTable(ctx)
	if err != nil {
		t.Fatalf("second CreateTable failed: %v", err)
	}
	if second.Applied {
		t.Error("Second CreateTable should be a no-op")
	}

	var tables int
	if err := db.QueryRow(`SELECT COUNT(*) FROM information_schema.tables WHERE table_name = 'stories'`).Scan(&tables); err != nil {
		t.Fatalf("count tables: %v", err)
	}
	if tables != 1 {
		t.Errorf("Expected one stories table, got %d", tables)
	}
}

func TestCreateTable_AfterBilingualDoesNotDowngrade(t *testing.T) {
	_, migrator := setupPostgresMigrator(t)
	ctx := context.Background()

	if _, err := migrator.MigrateToBilingual(ctx); err != nil {
		t.Fatalf("MigrateToBilingual failed: %v", err)
	}
	result, err := migrator.CreateTable(ctx)
	if err != nil {
		t.Fatalf("CreateTable failed: %v", err)
	}
	if result.To != VersionBilingual || result.Applied {
		t.Errorf("CreateTable must not move the schema, got %+v", result)
	}
}

func TestMigrateToBilingual_MergesLinkedPair(t *testing.T) {
	db, migrator := setupPostgresMigrator(t)
	ctx := context.Background()

	if _, err := migrator.MigrateAddTranslationLink(ctx); err != nil {
		t.Fatalf("MigrateAddTranslationLink failed: %v", err)
	}

	var enID, frID, soloID int64
	mustScan := func(query string, dest *int64, args ...interface{}) {
		t.Helper()
		if err := db.QueryRow(query, args...).Scan(dest); err != nil {
			t.Fatalf("seed failed: %v", err)
		}
	}
	mustScan(`INSERT INTO stories (title, content, excerpt, language) VALUES ('Hello', '<p>Once</p>', 'A tale', 'en') RETURNING id`, &enID)
	mustScan(`INSERT INTO stories (title, content, excerpt, language, translation_id) VALUES ('Bonjour', '<p>Il était</p>', 'Un conte', 'fr', $1) RETURNING id`, &frID, enID)
	mustScan(`INSERT INTO stories (title, content, excerpt, language) VALUES ('Seul', '<p>Seul</p>', 'Seul', 'fr') RETURNING id`, &soloID)
	if _, err := db.Exec(`UPDATE stories SET translation_id = id WHERE id = $1`, soloID); err != nil {
		t.Fatalf("self link failed: %v", err)
	}

	plan, err := migrator.PlanBilingualMerge(ctx)
	if err != nil {
		t.Fatalf("PlanBilingualMerge failed: %v", err)
	}
	pairs := 0
	for _, unit := range plan {
		if p, ok := unit.(models.LinkedPair); ok {
			pairs++
			if p.FR.ID != frID || p.EN.ID != enID {
				t.Errorf("Unexpected pair %+v", p)
			}
		}
	}
	if pairs != 1 {
		t.Errorf("Expected one planned pair, got %d", pairs)
	}

	result, err := migrator.MigrateToBilingual(ctx)
	if err != nil {
		t.Fatalf("MigrateToBilingual failed: %v", err)
	}
	if result.To != VersionBilingual {
		t.Errorf("Expected version 3, got %+v", result)
	}

	var count int
	db.QueryRow(`SELECT COUNT(*) FROM stories`).Scan(&count)
	if count != 2 {
		t.Errorf("Expected merged pair plus solo row, got %d rows", count)
	}

	var titleFr, titleEn string
	if err := db.QueryRow(`SELECT title_fr, title_en FROM stories WHERE id = $1`, frID).Scan(&titleFr, &titleEn); err != nil {
		t.Fatalf("read merged row: %v", err)
	}
	if titleFr != "Bonjour" || titleEn != "Hello" {
		t.Errorf("Expected Bonjour/Hello, got %s/%s", titleFr, titleEn)
	}

	var exists bool
	db.QueryRow(`SELECT EXISTS(SELECT 1 FROM stories WHERE id = $1)`, enID).Scan(&exists)
	if exists {
		t.Error("English sibling should be deleted")
	}

	if err := db.QueryRow(`SELECT title_fr, title_en FROM stories WHERE id = $1`, soloID).Scan(&titleFr, &titleEn); err != nil {
		t.Fatalf("read solo row: %v", err)
	}
	if titleFr != "Seul" || titleEn != "Seul" {
		t.Errorf("Monolingual row should be backfilled, got %s/%s", titleFr, titleEn)
	}

	again, err := migrator.MigrateToBilingual(ctx)
	if err != nil {
		t.Fatalf("second MigrateToBilingual should be a no-op, got %v", err)
	}
	if again.Applied {
		t.Error("Second MigrateToBilingual must not apply anything")
	}

	if _, err := migrator.PlanBilingualMerge(ctx); err == nil {
		t.Error("Plan should be unavailable after the bilingual migration")
	}
}

func TestMigrateDown_FromBilingualFails(t *testing.T) {
	_, migrator := setupPostgresMigrator(t)
	ctx := context.Background()

	if _, err := migrator.Up(ctx); err != nil {
		t.Fatalf("Up failed: %v", err)
	}
	if _, err := migrator.MigrateDown(ctx); err == nil {
		t.Error("Stepping down from the bilingual generation should fail")
	}
}
