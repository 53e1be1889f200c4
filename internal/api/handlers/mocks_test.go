package handlers

import (
	"context"

	"github.com/fusecms/engine/internal/models"
	"github.com/fusecms/engine/internal/repository"
	"github.com/fusecms/engine/internal/services"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type mockRelationService struct {
	mock.Mock
}

func (m *mockRelationService) ReplaceForSource(ctx context.Context, def *models.RelationDefinition, sourceEntryID uuid.UUID, targets []repository.TargetEdit, expectedRevision *int64) (int64, error) {
	args := m.Called(ctx, def, sourceEntryID, targets, expectedRevision)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockRelationService) CreateEdge(ctx context.Context, input *services.CreateEdgeInput) ([]models.RelationInstance, error) {
	args := m.Called(ctx, input)
	if v := args.Get(0); v != nil {
		return v.([]models.RelationInstance), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRelationService) List(ctx context.Context, filter *services.InstanceListFilter) ([]services.InstanceView, error) {
	args := m.Called(ctx, filter)
	if v := args.Get(0); v != nil {
		return v.([]services.InstanceView), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockDefinitionService struct {
	mock.Mock
}

func (m *mockDefinitionService) Create(ctx context.Context, input *services.DefinitionInput) (*models.RelationDefinition, error) {
	args := m.Called(ctx, input)
	if v := args.Get(0); v != nil {
		return v.(*models.RelationDefinition), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockDefinitionService) Update(ctx context.Context, id uuid.UUID, input *services.DefinitionInput) (*models.RelationDefinition, error) {
	args := m.Called(ctx, id, input)
	if v := args.Get(0); v != nil {
		return v.(*models.RelationDefinition), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockDefinitionService) Get(ctx context.Context, id uuid.UUID) (*repository.DefinitionWithStats, error) {
	args := m.Called(ctx, id)
	if v := args.Get(0); v != nil {
		return v.(*repository.DefinitionWithStats), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockDefinitionService) List(ctx context.Context, filter *repository.DefinitionFilter) ([]repository.DefinitionWithStats, error) {
	args := m.Called(ctx, filter)
	if v := args.Get(0); v != nil {
		return v.([]repository.DefinitionWithStats), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockDefinitionService) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type mockPickerService struct {
	mock.Mock
}

func (m *mockPickerService) Search(ctx context.Context, definitionID, sourceEntryID uuid.UUID, filter *services.CandidateFilter, page, pageSize int) (*services.CandidatePage, error) {
	args := m.Called(ctx, definitionID, sourceEntryID, filter, page, pageSize)
	if v := args.Get(0); v != nil {
		return v.(*services.CandidatePage), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockCommitService struct {
	mock.Mock
}

func (m *mockCommitService) Begin(ctx context.Context, entryID uuid.UUID) (*services.EditSession, error) {
	args := m.Called(ctx, entryID)
	if v := args.Get(0); v != nil {
		return v.(*services.EditSession), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockCommitService) CommitAll(ctx context.Context, session *services.EditSession, useRevisionGuard bool) (map[string]int64, error) {
	args := m.Called(ctx, session, useRevisionGuard)
	if v := args.Get(0); v != nil {
		return v.(map[string]int64), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockCascadeService struct {
	mock.Mock
}

func (m *mockCascadeService) DeleteEntry(ctx context.Context, entryID uuid.UUID) error {
	return m.Called(ctx, entryID).Error(0)
}
