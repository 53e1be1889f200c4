package repository

import (
	"context"

	"github.com/fusecms/engine/internal/models"
	appErr "github.com/fusecms/engine/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefinitionFilter narrows definition listings.
type DefinitionFilter struct {
	SourceContentTypeID *uuid.UUID
	RelationType        models.RelationType
	IsActive            *bool
	Search              string // matched against name and display_name
}

// DefinitionWithStats pairs a definition with aggregate instance counts.
type DefinitionWithStats struct {
	models.RelationDefinition
	Stats models.DefinitionStats `json:"stats" gorm:"-"`
}

type DefinitionRepository interface {
	BaseRepository[models.RelationDefinition]
	GetByName(ctx context.Context, name string, dest *models.RelationDefinition) error
	List(ctx context.Context, filter *DefinitionFilter) ([]DefinitionWithStats, error)
	// ListActiveByContentType returns active definitions where the content
	// type participates on the source side, the target side, or both.
	ListActiveByContentType(ctx context.Context, contentTypeID uuid.UUID) ([]models.RelationDefinition, error)
	ListActiveBySourceType(ctx context.Context, contentTypeID uuid.UUID) ([]models.RelationDefinition, error)
	// FieldNameTaken checks source_field_name uniqueness within a source
	// content type, excluding a definition id on update.
	FieldNameTaken(ctx context.Context, sourceTypeID uuid.UUID, fieldName string, excludeID uuid.UUID) (bool, error)
	Stats(ctx context.Context, definitionID uuid.UUID) (models.DefinitionStats, error)
	// DeleteGuarded deletes the definition unless instances still reference it.
	DeleteGuarded(ctx context.Context, definitionID uuid.UUID) error
}

type definitionRepository struct {
	BaseRepository[models.RelationDefinition]
	db *gorm.DB
}

func NewDefinitionRepository(db *gorm.DB) DefinitionRepository {
	return &definitionRepository{BaseRepository: NewBaseRepository[models.RelationDefinition](db), db: db}
}

func (r *definitionRepository) GetByName(ctx context.Context, name string, dest *models.RelationDefinition) error {
	if err := r.db.WithContext(ctx).First(dest, "name = ?", name).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return appErr.New(appErr.CodeNotFound, "relation definition not found")
		}
		return appErr.Wrap(err, appErr.CodeInternal, "get definition by name failed")
	}
	return nil
}

func (r *definitionRepository) List(ctx context.Context, filter *DefinitionFilter) ([]DefinitionWithStats, error) {
	q := r.db.WithContext(ctx).Model(&models.RelationDefinition{})
	if filter != nil {
		if filter.SourceContentTypeID != nil {
			q = q.Where("source_content_type_id = ?", *filter.SourceContentTypeID)
		}
		if filter.RelationType != "" {
			q = q.Where("relation_type = ?", filter.RelationType)
		}
		if filter.IsActive != nil {
			q = q.Where("is_active = ?", *filter.IsActive)
		}
		if filter.Search != "" {
			like := "%" + filter.Search + "%"
			q = q.Where("name ILIKE ? OR display_name ILIKE ?", like, like)
		}
	}

	var defs []models.RelationDefinition
	if err := q.Order("sort_order, name").Find(&defs).Error; err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "list definitions failed")
	}

	out := make([]DefinitionWithStats, 0, len(defs))
	for _, d := range defs {
		stats, err := r.Stats(ctx, d.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, DefinitionWithStats{RelationDefinition: d, Stats: stats})
	}
	return out, nil
}

func (r *definitionRepository) ListActiveByContentType(ctx context.Context, contentTypeID uuid.UUID) ([]models.RelationDefinition, error) {
	var out []models.RelationDefinition
	err := r.db.WithContext(ctx).
		Where("is_active = true AND (source_content_type_id = ? OR target_content_type_id = ?)", contentTypeID, contentTypeID).
		Order("sort_order, name").
		Find(&out).Error
	if err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "list definitions by content type failed")
	}
	return out, nil
}

func (r *definitionRepository) ListActiveBySourceType(ctx context.Context, contentTypeID uuid.UUID) ([]models.RelationDefinition, error) {
	var out []models.RelationDefinition
	err := r.db.WithContext(ctx).
		Where("is_active = true AND source_content_type_id = ?", contentTypeID).
		Order("sort_order, name").
		Find(&out).Error
	if err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "list definitions by source type failed")
	}
	return out, nil
}

func (r *definitionRepository) FieldNameTaken(ctx context.Context, sourceTypeID uuid.UUID, fieldName string, excludeID uuid.UUID) (bool, error) {
	var count int64
	q := r.db.WithContext(ctx).Model(&models.RelationDefinition{}).
		Where("source_content_type_id = ? AND source_field_name = ?", sourceTypeID, fieldName)
	if excludeID != uuid.Nil {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, appErr.Wrap(err, appErr.CodeInternal, "check field name failed")
	}
	return count > 0, nil
}

func (r *definitionRepository) Stats(ctx context.Context, definitionID uuid.UUID) (models.DefinitionStats, error) {
	var stats models.DefinitionStats
	err := r.db.WithContext(ctx).Model(&models.RelationInstance{}).
		Select("COUNT(*) AS total_relations, COUNT(DISTINCT source_entry_id) AS unique_sources, COUNT(DISTINCT target_entry_id) AS unique_targets").
		Where("relation_definition_id = ?", definitionID).
		Scan(&stats).Error
	if err != nil {
		return stats, appErr.Wrap(err, appErr.CodeInternal, "definition stats failed")
	}
	return stats, nil
}

func (r *definitionRepository) DeleteGuarded(ctx context.Context, definitionID uuid.UUID) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.RelationInstance{}).
		Where("relation_definition_id = ?", definitionID).
		Count(&count).Error; err != nil {
		return appErr.Wrap(err, appErr.CodeInternal, "count instances failed")
	}
	if count > 0 {
		return &appErr.DefinitionInUseError{Count: count}
	}

	res := r.db.WithContext(ctx).Delete(&models.RelationDefinition{}, "id = ?", definitionID)
	if res.Error != nil {
		return appErr.Wrap(res.Error, appErr.CodeInternal, "delete definition failed")
	}
	if res.RowsAffected == 0 {
		return appErr.New(appErr.CodeNotFound, "relation definition not found")
	}
	return nil
}
