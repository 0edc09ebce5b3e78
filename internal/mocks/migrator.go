package mocks

import (
	"context"

	"github.com/esolrine-stories/internal/database"
	"github.com/esolrine-stories/internal/models"
	"github.com/esolrine-stories/internal/service"
)

// MockMigrator is a mock implementation of service.Migrator that tracks the
// schema version in memory.
type MockMigrator struct {
	Current uint
	Dirty   bool
	Units   []models.LegacyStory
	Err     error

	CreateTableCalls int
	MigrateCalls     int
	ForcedVersions   []int
}

// Verify interface compliance
var _ service.Migrator = (*MockMigrator)(nil)

func NewMockMigrator() *MockMigrator {
	return &MockMigrator{}
}

func (m *MockMigrator) CreateTable(ctx context.Context) (*database.MigrationResult, error) {
	m.CreateTableCalls++
	return m.upTo(database.VersionCreateTable)
}

func (m *MockMigrator) MigrateToBilingual(ctx context.Context) (*database.MigrationResult, error) {
	m.MigrateCalls++
	return m.upTo(database.VersionBilingual)
}

func (m *MockMigrator) Version(ctx context.Context) (uint, bool, error) {
	return m.Current, m.Dirty, m.Err
}

func (m *MockMigrator) PlanBilingualMerge(ctx context.Context) ([]models.LegacyStory, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Dirty || m.Current != database.VersionTranslationLink {
		return nil, database.ErrPlanUnavailable
	}
	return m.Units, nil
}

func (m *MockMigrator) Force(ctx context.Context, version int) error {
	if m.Err != nil {
		return m.Err
	}
	m.ForcedVersions = append(m.ForcedVersions, version)
	m.Current = uint(version)
	m.Dirty = false
	return nil
}

func (m *MockMigrator) upTo(target uint) (*database.MigrationResult, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Dirty {
		return nil, database.ErrDirtySchema
	}
	result := &database.MigrationResult{From: m.Current, To: m.Current}
	if m.Current < target {
		m.Current = target
		result.To = target
		result.Applied = true
	}
	return result, nil
}
