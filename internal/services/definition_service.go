package services

import (
	"context"

	"github.com/fusecms/engine/internal/models"
	"github.com/fusecms/engine/internal/repository"
	appErr "github.com/fusecms/engine/pkg/errors"
	"github.com/fusecms/engine/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// DefinitionService owns relation definition lifecycle and validation.
type DefinitionService interface {
	Create(ctx context.Context, input *DefinitionInput) (*models.RelationDefinition, error)
	Update(ctx context.Context, id uuid.UUID, input *DefinitionInput) (*models.RelationDefinition, error)
	Get(ctx context.Context, id uuid.UUID) (*repository.DefinitionWithStats, error)
	List(ctx context.Context, filter *repository.DefinitionFilter) ([]repository.DefinitionWithStats, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// DefinitionInput carries the writable definition fields.
type DefinitionInput struct {
	Name                string
	DisplayName         string
	Description         string
	SourceContentTypeID uuid.UUID
	SourceFieldName     string
	TargetContentTypeID uuid.UUID
	TargetFieldName     string
	RelationType        models.RelationType
	IsBidirectional     bool
	IsRequired          bool
	OnSourceDelete      models.DeleteBehavior
	OnTargetDelete      models.DeleteBehavior
	MinRelations        int
	MaxRelations        *int
	SortOrder           int
	Metadata            datatypes.JSON
	IsActive            bool
}

type definitionService struct {
	defRepo   repository.DefinitionRepository
	entryRepo repository.EntryRepository
}

func NewDefinitionService(defRepo repository.DefinitionRepository, entryRepo repository.EntryRepository) DefinitionService {
	return &definitionService{defRepo: defRepo, entryRepo: entryRepo}
}

var _ DefinitionService = (*definitionService)(nil)

// validateInput accumulates every shape problem instead of stopping at the
// first so the form can render the full list.
func (s *definitionService) validateInput(ctx context.Context, input *DefinitionInput, excludeID uuid.UUID) error {
	var errs appErr.ValidationErrorList

	if !models.NameRe.MatchString(input.Name) {
		errs = append(errs, appErr.ValidationError{Field: "name", Reason: "must match ^[a-z0-9_]+$"})
	}
	if input.SourceFieldName == "" {
		errs = append(errs, appErr.ValidationError{Field: "source_field_name", Reason: "is required"})
	}
	if !input.RelationType.Valid() {
		errs = append(errs, appErr.ValidationError{Field: "relation_type", Reason: "must be one_to_one, one_to_many, or many_to_many"})
	}
	if !input.OnSourceDelete.Valid() {
		errs = append(errs, appErr.ValidationError{Field: "on_source_delete", Reason: "unknown delete behavior"})
	}
	if !input.OnTargetDelete.Valid() {
		errs = append(errs, appErr.ValidationError{Field: "on_target_delete", Reason: "unknown delete behavior"})
	}
	if input.MinRelations < 0 {
		errs = append(errs, appErr.ValidationError{Field: "min_relations", Reason: "must be >= 0"})
	}
	if input.MaxRelations != nil {
		if *input.MaxRelations < 1 {
			errs = append(errs, appErr.ValidationError{Field: "max_relations", Reason: "must be >= 1 when set"})
		} else if input.MinRelations > *input.MaxRelations {
			errs = append(errs, appErr.ValidationError{Field: "min_relations", Reason: "must not exceed max_relations"})
		}
	}

	if ok, err := s.entryRepo.ContentTypeExists(ctx, input.SourceContentTypeID); err != nil {
		return err
	} else if !ok {
		errs = append(errs, appErr.ValidationError{Field: "source_content_type_id", Reason: "content type does not exist"})
	}
	if ok, err := s.entryRepo.ContentTypeExists(ctx, input.TargetContentTypeID); err != nil {
		return err
	} else if !ok {
		errs = append(errs, appErr.ValidationError{Field: "target_content_type_id", Reason: "content type does not exist"})
	}

	if input.SourceContentTypeID == input.TargetContentTypeID && input.IsBidirectional {
		if input.TargetFieldName == "" {
			errs = append(errs, appErr.ValidationError{Field: "target_field_name", Reason: "required for bidirectional self-referential definitions"})
		} else if input.TargetFieldName == input.SourceFieldName {
			errs = append(errs, appErr.ValidationError{Field: "target_field_name", Reason: "must differ from source_field_name for self-referential definitions"})
		}
	}

	if input.SourceFieldName != "" {
		taken, err := s.defRepo.FieldNameTaken(ctx, input.SourceContentTypeID, input.SourceFieldName, excludeID)
		if err != nil {
			return err
		}
		if taken {
			errs = append(errs, appErr.ValidationError{Field: "source_field_name", Reason: "already used by another definition on this content type"})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (s *definitionService) Create(ctx context.Context, input *DefinitionInput) (*models.RelationDefinition, error) {
	if err := s.validateInput(ctx, input, uuid.Nil); err != nil {
		return nil, err
	}

	def := input.toModel()
	if err := s.defRepo.Create(ctx, def); err != nil {
		return nil, err
	}
	logger.L().Info("relation definition created",
		zap.String("definition_id", def.ID.String()),
		zap.String("name", def.Name),
		zap.String("relation_type", string(def.RelationType)),
	)
	return def, nil
}

func (s *definitionService) Update(ctx context.Context, id uuid.UUID, input *DefinitionInput) (*models.RelationDefinition, error) {
	var existing models.RelationDefinition
	if err := s.defRepo.GetByID(ctx, id, &existing); err != nil {
		return nil, err
	}
	if err := s.validateInput(ctx, input, id); err != nil {
		return nil, err
	}

	def := input.toModel()
	def.ID = existing.ID
	def.CreatedAt = existing.CreatedAt
	if err := s.defRepo.Update(ctx, def); err != nil {
		return nil, err
	}
	logger.L().Info("relation definition updated", zap.String("definition_id", id.String()), zap.String("name", def.Name))
	return def, nil
}

func (s *definitionService) Get(ctx context.Context, id uuid.UUID) (*repository.DefinitionWithStats, error) {
	var def models.RelationDefinition
	if err := s.defRepo.GetByID(ctx, id, &def); err != nil {
		return nil, err
	}
	stats, err := s.defRepo.Stats(ctx, id)
	if err != nil {
		return nil, err
	}
	return &repository.DefinitionWithStats{RelationDefinition: def, Stats: stats}, nil
}

func (s *definitionService) List(ctx context.Context, filter *repository.DefinitionFilter) ([]repository.DefinitionWithStats, error) {
	return s.defRepo.List(ctx, filter)
}

func (s *definitionService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.defRepo.DeleteGuarded(ctx, id); err != nil {
		return err
	}
	logger.L().Info("relation definition deleted", zap.String("definition_id", id.String()))
	return nil
}

func (in *DefinitionInput) toModel() *models.RelationDefinition {
	return &models.RelationDefinition{
		Name:                in.Name,
		DisplayName:         in.DisplayName,
		Description:         in.Description,
		SourceContentTypeID: in.SourceContentTypeID,
		SourceFieldName:     in.SourceFieldName,
		TargetContentTypeID: in.TargetContentTypeID,
		TargetFieldName:     in.TargetFieldName,
		RelationType:        in.RelationType,
		IsBidirectional:     in.IsBidirectional,
		IsRequired:          in.IsRequired,
		OnSourceDelete:      in.OnSourceDelete,
		OnTargetDelete:      in.OnTargetDelete,
		MinRelations:        in.MinRelations,
		MaxRelations:        in.MaxRelations,
		SortOrder:           in.SortOrder,
		Metadata:            in.Metadata,
		IsActive:            in.IsActive,
	}
}
