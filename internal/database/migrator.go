package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/esolrine-stories/internal/config"
	"github.com/esolrine-stories/internal/models"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/rs/zerolog"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Schema generations of the stories table
const (
	VersionCreateTable     uint = 1 // single language, flat fields
	VersionTranslationLink uint = 2 // language tag + translation_id self reference
	VersionBilingual       uint = 3 // _fr / _en columns
)

var (
	// ErrDirtySchema means a previous migration failed and the recorded
	// version must be forced before anything else runs.
	ErrDirtySchema = errors.New("schema version is dirty")

	// ErrPlanUnavailable is returned when the merge plan is requested
	// outside the translation-link generation.
	ErrPlanUnavailable = errors.New("bilingual merge plan requires schema version 2")
)

// MigrationResult reports a version transition
type MigrationResult struct {
	From    uint `json:"from_version"`
	To      uint `json:"to_version"`
	Applied bool `json:"applied"`
}

// Migrator applies the versioned stories migrations with golang-migrate.
// The current version and dirty flag live in schema_migrations.
type Migrator struct {
	db   *DB
	path string
	log  zerolog.Logger
}

// NewMigrator creates a migrator. An empty cfg.Path uses the embedded files.
func NewMigrator(db *DB, cfg config.MigrationsConfig, log zerolog.Logger) *Migrator {
	return &Migrator{
		db:   db,
		path: cfg.Path,
		log:  log.With().Str("component", "migrator").Logger(),
	}
}

// CreateTable brings the schema to at least the first generation. Calling it
// again, or after later generations, is a no-op.
func (m *Migrator) CreateTable(ctx context.Context) (*MigrationResult, error) {
	return m.upTo(ctx, VersionCreateTable)
}

// MigrateAddTranslationLink adds the language tag and translation link
func (m *Migrator) MigrateAddTranslationLink(ctx context.Context) (*MigrationResult, error) {
	return m.upTo(ctx, VersionTranslationLink)
}

// MigrateToBilingual merges linked rows into bilingual rows and drops the
// single-language columns. Pending earlier generations run first.
func (m *Migrator) MigrateToBilingual(ctx context.Context) (*MigrationResult, error) {
	return m.upTo(ctx, VersionBilingual)
}

// Up executes all pending migrations
func (m *Migrator) Up(ctx context.Context) (*MigrationResult, error) {
	m.log.Info().Str("source", m.source()).Msg("Running database migrations")

	return m.run(ctx, func(mig *migrate.Migrate) error { return mig.Up() })
}

// MigrateDown rolls back the last migration. The bilingual generation has no
// down file, so stepping back from it fails.
func (m *Migrator) MigrateDown(ctx context.Context) (*MigrationResult, error) {
	m.log.Info().Msg("Rolling back last migration")

	return m.run(ctx, func(mig *migrate.Migrate) error { return mig.Steps(-1) })
}

// Force records version as current and clears the dirty flag without running
// anything. It is the manual recovery path after a failed migration.
func (m *Migrator) Force(ctx context.Context, version int) error {
	mig, err := m.instance(ctx)
	if err != nil {
		return err
	}
	defer m.close(mig)

	if err := mig.Force(version); err != nil {
		return fmt.Errorf("failed to force version %d: %w", version, err)
	}
	m.log.Warn().Int("version", version).Msg("Schema version forced")
	return nil
}

// Version returns the recorded schema version, 0 when nothing ran yet
func (m *Migrator) Version(ctx context.Context) (uint, bool, error) {
	mig, err := m.instance(ctx)
	if err != nil {
		return 0, false, err
	}
	defer m.close(mig)

	return currentVersion(mig)
}

// PlanBilingualMerge previews how MigrateToBilingual will group the
// translation-link rows, without changing anything.
func (m *Migrator) PlanBilingualMerge(ctx context.Context) ([]models.LegacyStory, error) {
	version, dirty, err := m.Version(ctx)
	if err != nil {
		return nil, err
	}
	if dirty || version != VersionTranslationLink {
		return nil, fmt.Errorf("%w (current %d, dirty %t)", ErrPlanUnavailable, version, dirty)
	}

	rows, err := m.db.QueryContext(ctx, `
		SELECT id, title, content, excerpt, language, translation_id
		FROM stories ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to read translation-link rows: %w", err)
	}
	defer rows.Close()

	var legacy []models.LegacyRow
	for rows.Next() {
		var row models.LegacyRow
		var language sql.NullString
		var translationID sql.NullInt64
		if err := rows.Scan(&row.ID, &row.Title, &row.Content, &row.Excerpt, &language, &translationID); err != nil {
			return nil, err
		}
		row.Language = language.String
		if translationID.Valid {
			id := translationID.Int64
			row.TranslationID = &id
		}
		legacy = append(legacy, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return models.PairLegacy(legacy), nil
}

// upTo migrates forward to target. It never migrates down: a schema already
// at or past target is left alone.
func (m *Migrator) upTo(ctx context.Context, target uint) (*MigrationResult, error) {
	m.log.Info().Uint("target", target).Str("source", m.source()).Msg("Migrating schema")

	var skipped bool
	result, err := m.run(ctx, func(mig *migrate.Migrate) error {
		from, _, err := currentVersion(mig)
		if err != nil {
			return err
		}
		if from >= target {
			skipped = true
			return migrate.ErrNoChange
		}
		return mig.Migrate(target)
	})
	if err == nil && skipped {
		m.log.Info().Uint("version", result.From).Uint("target", target).Msg("Schema already at target")
	}
	return result, err
}

// run opens a migrate instance, refuses dirty schemas and reports the version
// transition performed by fn.
func (m *Migrator) run(ctx context.Context, fn func(*migrate.Migrate) error) (*MigrationResult, error) {
	mig, err := m.instance(ctx)
	if err != nil {
		return nil, err
	}
	defer m.close(mig)

	from, dirty, err := currentVersion(mig)
	if err != nil {
		return nil, err
	}
	if dirty {
		return nil, fmt.Errorf("%w: version %d", ErrDirtySchema, from)
	}

	stop := stopOnCancel(ctx, mig)
	err = fn(mig)
	stop()

	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		m.log.Error().Err(err).Uint("from", from).Msg("Migration failed")
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	to, dirty, err := currentVersion(mig)
	if err != nil {
		return nil, err
	}

	m.log.Info().
		Uint("from", from).
		Uint("version", to).
		Bool("dirty", dirty).
		Msg("Migrations completed")

	return &MigrationResult{From: from, To: to, Applied: to != from}, nil
}

func (m *Migrator) instance(ctx context.Context) (*migrate.Migrate, error) {
	// A dedicated connection: closing the driver must not close the pool.
	conn, err := m.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire migration connection: %w", err)
	}

	driver, err := postgres.WithConnection(ctx, conn, &postgres.Config{})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create migration driver: %w", err)
	}

	var mig *migrate.Migrate
	if m.path != "" {
		mig, err = migrate.NewWithDatabaseInstance(m.source(), "postgres", driver)
	} else {
		src, srcErr := iofs.New(migrationFiles, "migrations")
		if srcErr != nil {
			driver.Close()
			return nil, fmt.Errorf("failed to open embedded migrations: %w", srcErr)
		}
		mig, err = migrate.NewWithInstance("iofs", src, "postgres", driver)
	}
	if err != nil {
		driver.Close()
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}

	mig.Log = migrateLogger{log: m.log}
	return mig, nil
}

func (m *Migrator) close(mig *migrate.Migrate) {
	srcErr, dbErr := mig.Close()
	if srcErr != nil || dbErr != nil {
		m.log.Warn().AnErr("source", srcErr).AnErr("database", dbErr).Msg("Failed to close migrate instance")
	}
}

func (m *Migrator) source() string {
	if m.path != "" {
		return "file://" + m.path
	}
	return "embedded"
}

func currentVersion(mig *migrate.Migrate) (uint, bool, error) {
	version, dirty, err := mig.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to get migration version: %w", err)
	}
	return version, dirty, nil
}

// stopOnCancel asks golang-migrate to stop after the current file when ctx
// is cancelled. The returned func releases the watcher.
func stopOnCancel(ctx context.Context, mig *migrate.Migrate) func() {
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			select {
			case mig.GracefulStop <- true:
			default:
			}
		case <-done:
		}
	}()
	return func() { close(done) }
}

// migrateLogger adapts zerolog to migrate.Logger
type migrateLogger struct {
	log zerolog.Logger
}

func (l migrateLogger) Printf(format string, v ...interface{}) {
	l.log.Debug().Msg(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l migrateLogger) Verbose() bool {
	return l.log.GetLevel() <= zerolog.DebugLevel
}
