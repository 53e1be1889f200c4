package services

import (
	"context"
	"os"
	"testing"

	"github.com/fusecms/engine/internal/models"
	"github.com/fusecms/engine/internal/repository"
	"github.com/fusecms/engine/pkg/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

func TestMain(m *testing.M) {
	// Initialize logger for tests (required by services)
	_, err := logger.Init("error", "json")
	if err != nil {
		panic("failed to init logger: " + err.Error())
	}
	os.Exit(m.Run())
}

// Mock implementations

type mockDefinitionRepo struct {
	mock.Mock
}

func (m *mockDefinitionRepo) Create(ctx context.Context, obj *models.RelationDefinition) error {
	return m.Called(ctx, obj).Error(0)
}

func (m *mockDefinitionRepo) GetByID(ctx context.Context, id any, dest *models.RelationDefinition) error {
	args := m.Called(ctx, id)
	if d, ok := args.Get(0).(*models.RelationDefinition); ok && d != nil {
		*dest = *d
	}
	return args.Error(1)
}

func (m *mockDefinitionRepo) Update(ctx context.Context, obj *models.RelationDefinition) error {
	return m.Called(ctx, obj).Error(0)
}

func (m *mockDefinitionRepo) Delete(ctx context.Context, id any) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockDefinitionRepo) GetByName(ctx context.Context, name string, dest *models.RelationDefinition) error {
	args := m.Called(ctx, name)
	if d, ok := args.Get(0).(*models.RelationDefinition); ok && d != nil {
		*dest = *d
	}
	return args.Error(1)
}

func (m *mockDefinitionRepo) List(ctx context.Context, filter *repository.DefinitionFilter) ([]repository.DefinitionWithStats, error) {
	args := m.Called(ctx, filter)
	if v := args.Get(0); v != nil {
		return v.([]repository.DefinitionWithStats), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockDefinitionRepo) ListActiveByContentType(ctx context.Context, contentTypeID uuid.UUID) ([]models.RelationDefinition, error) {
	args := m.Called(ctx, contentTypeID)
	if v := args.Get(0); v != nil {
		return v.([]models.RelationDefinition), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockDefinitionRepo) ListActiveBySourceType(ctx context.Context, contentTypeID uuid.UUID) ([]models.RelationDefinition, error) {
	args := m.Called(ctx, contentTypeID)
	if v := args.Get(0); v != nil {
		return v.([]models.RelationDefinition), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockDefinitionRepo) FieldNameTaken(ctx context.Context, sourceTypeID uuid.UUID, fieldName string, excludeID uuid.UUID) (bool, error) {
	args := m.Called(ctx, sourceTypeID, fieldName, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *mockDefinitionRepo) Stats(ctx context.Context, definitionID uuid.UUID) (models.DefinitionStats, error) {
	args := m.Called(ctx, definitionID)
	return args.Get(0).(models.DefinitionStats), args.Error(1)
}

func (m *mockDefinitionRepo) DeleteGuarded(ctx context.Context, definitionID uuid.UUID) error {
	return m.Called(ctx, definitionID).Error(0)
}

type mockInstanceRepo struct {
	mock.Mock
}

func (m *mockInstanceRepo) ReplaceForSource(ctx context.Context, definitionID, sourceEntryID uuid.UUID, targets []repository.TargetEdit, expectedRevision *int64) (int64, error) {
	args := m.Called(ctx, definitionID, sourceEntryID, targets, expectedRevision)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockInstanceRepo) ListBySource(ctx context.Context, definitionID, sourceEntryID uuid.UUID) ([]models.RelationInstance, error) {
	args := m.Called(ctx, definitionID, sourceEntryID)
	if v := args.Get(0); v != nil {
		return v.([]models.RelationInstance), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockInstanceRepo) ListByTarget(ctx context.Context, definitionID, targetEntryID uuid.UUID) ([]models.RelationInstance, error) {
	args := m.Called(ctx, definitionID, targetEntryID)
	if v := args.Get(0); v != nil {
		return v.([]models.RelationInstance), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockInstanceRepo) ListByFilter(ctx context.Context, filter *repository.InstanceFilter) ([]models.RelationInstance, error) {
	args := m.Called(ctx, filter)
	if v := args.Get(0); v != nil {
		return v.([]models.RelationInstance), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockInstanceRepo) TargetBindings(ctx context.Context, definitionID uuid.UUID, targetIDs []uuid.UUID) (map[uuid.UUID]uuid.UUID, error) {
	args := m.Called(ctx, definitionID, targetIDs)
	if v := args.Get(0); v != nil {
		return v.(map[uuid.UUID]uuid.UUID), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockInstanceRepo) BoundTargetIDs(ctx context.Context, definitionID uuid.UUID, excludeSourceID uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, definitionID, excludeSourceID)
	if v := args.Get(0); v != nil {
		return v.([]uuid.UUID), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockInstanceRepo) CountBySource(ctx context.Context, definitionID, sourceEntryID uuid.UUID) (int64, error) {
	args := m.Called(ctx, definitionID, sourceEntryID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockInstanceRepo) CountForEntry(ctx context.Context, definitionID, entryID uuid.UUID, asSource bool) (int64, error) {
	args := m.Called(ctx, definitionID, entryID, asSource)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockInstanceRepo) Revision(ctx context.Context, definitionID, sourceEntryID uuid.UUID) (int64, error) {
	args := m.Called(ctx, definitionID, sourceEntryID)
	return args.Get(0).(int64), args.Error(1)
}

type mockEntryRepo struct {
	mock.Mock
}

func (m *mockEntryRepo) GetEntry(ctx context.Context, id uuid.UUID, dest *models.ContentEntry) error {
	args := m.Called(ctx, id)
	if e, ok := args.Get(0).(*models.ContentEntry); ok && e != nil {
		*dest = *e
	}
	return args.Error(1)
}

func (m *mockEntryRepo) ContentTypeExists(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockEntryRepo) SearchEntries(ctx context.Context, contentTypeID uuid.UUID, filter *repository.EntrySearchFilter, page, pageSize int) ([]models.ContentEntry, bool, error) {
	args := m.Called(ctx, contentTypeID, filter, page, pageSize)
	if v := args.Get(0); v != nil {
		return v.([]models.ContentEntry), args.Bool(1), args.Error(2)
	}
	return nil, args.Bool(1), args.Error(2)
}

func (m *mockEntryRepo) ExistingIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]bool, error) {
	args := m.Called(ctx, ids)
	if v := args.Get(0); v != nil {
		return v.(map[uuid.UUID]bool), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockEntryRepo) IDsOfType(ctx context.Context, contentTypeID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]bool, error) {
	args := m.Called(ctx, contentTypeID, ids)
	if v := args.Get(0); v != nil {
		return v.(map[uuid.UUID]bool), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockEntryRepo) DeleteWithCascade(ctx context.Context, entryID uuid.UUID, ops []repository.CascadeOp) error {
	return m.Called(ctx, entryID, ops).Error(0)
}
