package repository

import (
	"bytes"
	"context"

	"github.com/fusecms/engine/internal/models"
	appErr "github.com/fusecms/engine/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TargetEdit is one proposed edge in a ReplaceForSource call. Slice position
// becomes the instance sort_order.
type TargetEdit struct {
	TargetID uuid.UUID
	Data     datatypes.JSON
}

// InstanceFilter narrows instance listings.
type InstanceFilter struct {
	DefinitionID  uuid.UUID
	SourceEntryID uuid.UUID
	TargetEntryID uuid.UUID
}

type InstanceRepository interface {
	// ReplaceForSource atomically replaces the edge set for one
	// (definition, source entry) pair: removed edges are deleted, added
	// edges inserted, retained edges get their sort_order and
	// relation_data refreshed. When expectedRevision is non-nil the write
	// is guarded by a compare-and-swap on the pair's revision counter.
	// Returns the revision after the write.
	//
	// Constraint validation is the caller's responsibility; every service
	// write path runs the constraint validator before reaching here.
	ReplaceForSource(ctx context.Context, definitionID, sourceEntryID uuid.UUID, targets []TargetEdit, expectedRevision *int64) (int64, error)

	ListBySource(ctx context.Context, definitionID, sourceEntryID uuid.UUID) ([]models.RelationInstance, error)
	ListByTarget(ctx context.Context, definitionID, targetEntryID uuid.UUID) ([]models.RelationInstance, error)
	ListByFilter(ctx context.Context, filter *InstanceFilter) ([]models.RelationInstance, error)

	// TargetBindings maps each of the given target entry ids to the source
	// entry currently bound to it under the definition. Targets with no
	// binding are absent from the map.
	TargetBindings(ctx context.Context, definitionID uuid.UUID, targetIDs []uuid.UUID) (map[uuid.UUID]uuid.UUID, error)
	// BoundTargetIDs returns every target id bound under the definition,
	// used to exclude taken targets from candidate search for to-one types.
	BoundTargetIDs(ctx context.Context, definitionID uuid.UUID, excludeSourceID uuid.UUID) ([]uuid.UUID, error)

	CountBySource(ctx context.Context, definitionID, sourceEntryID uuid.UUID) (int64, error)
	CountForEntry(ctx context.Context, definitionID, entryID uuid.UUID, asSource bool) (int64, error)

	Revision(ctx context.Context, definitionID, sourceEntryID uuid.UUID) (int64, error)
}

type instanceRepository struct {
	db *gorm.DB
}

func NewInstanceRepository(db *gorm.DB) InstanceRepository {
	return &instanceRepository{db: db}
}

func (r *instanceRepository) ReplaceForSource(ctx context.Context, definitionID, sourceEntryID uuid.UUID, targets []TargetEdit, expectedRevision *int64) (int64, error) {
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return 0, appErr.Wrap(tx.Error, appErr.CodeInternal, "begin transaction failed")
	}
	defer tx.Rollback()

	// Lock the revision row for the pair; create it lazily on first write.
	var rev models.RelationRevision
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("relation_definition_id = ? AND source_entry_id = ?", definitionID, sourceEntryID).
		First(&rev).Error
	if err == gorm.ErrRecordNotFound {
		rev = models.RelationRevision{RelationDefinitionID: definitionID, SourceEntryID: sourceEntryID, Revision: 0}
		if err := tx.Create(&rev).Error; err != nil {
			return 0, appErr.Wrap(err, appErr.CodeInternal, "create revision row failed")
		}
	} else if err != nil {
		return 0, appErr.Wrap(err, appErr.CodeInternal, "lock revision row failed")
	}

	if expectedRevision != nil && rev.Revision != *expectedRevision {
		return 0, appErr.New(appErr.CodeConflict, "relations changed since they were staged").
			WithMeta("expected_revision", *expectedRevision).
			WithMeta("stored_revision", rev.Revision)
	}

	var existing []models.RelationInstance
	if err := tx.Where("relation_definition_id = ? AND source_entry_id = ?", definitionID, sourceEntryID).
		Find(&existing).Error; err != nil {
		return 0, appErr.Wrap(err, appErr.CodeInternal, "load existing instances failed")
	}

	existingByTarget := make(map[uuid.UUID]*models.RelationInstance, len(existing))
	for i := range existing {
		existingByTarget[existing[i].TargetEntryID] = &existing[i]
	}
	proposed := make(map[uuid.UUID]bool, len(targets))
	for _, t := range targets {
		proposed[t.TargetID] = true
	}

	// Delete removed edges.
	removed := make([]uuid.UUID, 0)
	for target := range existingByTarget {
		if !proposed[target] {
			removed = append(removed, target)
		}
	}
	if len(removed) > 0 {
		if err := tx.Where("relation_definition_id = ? AND source_entry_id = ? AND target_entry_id IN ?",
			definitionID, sourceEntryID, removed).
			Delete(&models.RelationInstance{}).Error; err != nil {
			return 0, appErr.Wrap(err, appErr.CodeInternal, "delete removed instances failed")
		}
	}

	// Insert added edges and refresh retained ones.
	for pos, t := range targets {
		if inst, ok := existingByTarget[t.TargetID]; ok {
			if inst.SortOrder == pos && bytes.Equal(inst.RelationData, t.Data) {
				continue
			}
			err := tx.Model(&models.RelationInstance{}).
				Where("id = ?", inst.ID).
				Updates(map[string]any{"sort_order": pos, "relation_data": t.Data}).Error
			if err != nil {
				return 0, appErr.Wrap(err, appErr.CodeInternal, "update retained instance failed")
			}
			continue
		}
		inst := models.RelationInstance{
			RelationDefinitionID: definitionID,
			SourceEntryID:        sourceEntryID,
			TargetEntryID:        t.TargetID,
			RelationData:         t.Data,
			SortOrder:            pos,
		}
		if err := tx.Create(&inst).Error; err != nil {
			return 0, appErr.Wrap(err, appErr.CodeInternal, "insert instance failed")
		}
	}

	rev.Revision++
	if err := tx.Model(&models.RelationRevision{}).
		Where("relation_definition_id = ? AND source_entry_id = ?", definitionID, sourceEntryID).
		Update("revision", rev.Revision).Error; err != nil {
		return 0, appErr.Wrap(err, appErr.CodeInternal, "bump revision failed")
	}

	if err := tx.Commit().Error; err != nil {
		return 0, appErr.Wrap(err, appErr.CodeInternal, "commit transaction failed")
	}
	return rev.Revision, nil
}

func (r *instanceRepository) ListBySource(ctx context.Context, definitionID, sourceEntryID uuid.UUID) ([]models.RelationInstance, error) {
	var out []models.RelationInstance
	err := r.db.WithContext(ctx).
		Where("relation_definition_id = ? AND source_entry_id = ?", definitionID, sourceEntryID).
		Order("sort_order").
		Find(&out).Error
	if err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "list instances by source failed")
	}
	return out, nil
}

func (r *instanceRepository) ListByTarget(ctx context.Context, definitionID, targetEntryID uuid.UUID) ([]models.RelationInstance, error) {
	var out []models.RelationInstance
	err := r.db.WithContext(ctx).
		Where("relation_definition_id = ? AND target_entry_id = ?", definitionID, targetEntryID).
		Order("sort_order").
		Find(&out).Error
	if err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "list instances by target failed")
	}
	return out, nil
}

func (r *instanceRepository) ListByFilter(ctx context.Context, filter *InstanceFilter) ([]models.RelationInstance, error) {
	q := r.db.WithContext(ctx).Model(&models.RelationInstance{})
	if filter != nil {
		if filter.DefinitionID != uuid.Nil {
			q = q.Where("relation_definition_id = ?", filter.DefinitionID)
		}
		if filter.SourceEntryID != uuid.Nil {
			q = q.Where("source_entry_id = ?", filter.SourceEntryID)
		}
		if filter.TargetEntryID != uuid.Nil {
			q = q.Where("target_entry_id = ?", filter.TargetEntryID)
		}
	}
	var out []models.RelationInstance
	if err := q.Order("created_at").Find(&out).Error; err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "list instances failed")
	}
	return out, nil
}

func (r *instanceRepository) TargetBindings(ctx context.Context, definitionID uuid.UUID, targetIDs []uuid.UUID) (map[uuid.UUID]uuid.UUID, error) {
	if len(targetIDs) == 0 {
		return map[uuid.UUID]uuid.UUID{}, nil
	}
	var rows []models.RelationInstance
	err := r.db.WithContext(ctx).
		Select("source_entry_id, target_entry_id").
		Where("relation_definition_id = ? AND target_entry_id IN ?", definitionID, targetIDs).
		Find(&rows).Error
	if err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "load target bindings failed")
	}
	out := make(map[uuid.UUID]uuid.UUID, len(rows))
	for _, row := range rows {
		out[row.TargetEntryID] = row.SourceEntryID
	}
	return out, nil
}

func (r *instanceRepository) BoundTargetIDs(ctx context.Context, definitionID uuid.UUID, excludeSourceID uuid.UUID) ([]uuid.UUID, error) {
	q := r.db.WithContext(ctx).Model(&models.RelationInstance{}).
		Where("relation_definition_id = ?", definitionID)
	if excludeSourceID != uuid.Nil {
		q = q.Where("source_entry_id <> ?", excludeSourceID)
	}
	var ids []uuid.UUID
	if err := q.Pluck("target_entry_id", &ids).Error; err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "load bound targets failed")
	}
	return ids, nil
}

func (r *instanceRepository) CountBySource(ctx context.Context, definitionID, sourceEntryID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.RelationInstance{}).
		Where("relation_definition_id = ? AND source_entry_id = ?", definitionID, sourceEntryID).
		Count(&count).Error
	if err != nil {
		return 0, appErr.Wrap(err, appErr.CodeInternal, "count instances by source failed")
	}
	return count, nil
}

func (r *instanceRepository) CountForEntry(ctx context.Context, definitionID, entryID uuid.UUID, asSource bool) (int64, error) {
	col := "target_entry_id"
	if asSource {
		col = "source_entry_id"
	}
	var count int64
	err := r.db.WithContext(ctx).Model(&models.RelationInstance{}).
		Where("relation_definition_id = ? AND "+col+" = ?", definitionID, entryID).
		Count(&count).Error
	if err != nil {
		return 0, appErr.Wrap(err, appErr.CodeInternal, "count instances for entry failed")
	}
	return count, nil
}

func (r *instanceRepository) Revision(ctx context.Context, definitionID, sourceEntryID uuid.UUID) (int64, error) {
	var rev models.RelationRevision
	err := r.db.WithContext(ctx).
		Where("relation_definition_id = ? AND source_entry_id = ?", definitionID, sourceEntryID).
		First(&rev).Error
	if err == gorm.ErrRecordNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, appErr.Wrap(err, appErr.CodeInternal, "load revision failed")
	}
	return rev.Revision, nil
}
