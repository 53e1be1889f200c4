package repository

import (
	"context"

	"github.com/fusecms/engine/internal/models"
	appErr "github.com/fusecms/engine/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EntrySearchFilter narrows candidate entry search.
type EntrySearchFilter struct {
	Search     string // matched against title
	Status     string
	ExcludeIDs []uuid.UUID
}

// CascadeOp is one per-definition instance deletion applied while an entry
// is removed. AsSource selects which endpoint column matches the entry.
type CascadeOp struct {
	DefinitionID uuid.UUID
	AsSource     bool
}

// EntryRepository is the engine's view of the external entry store. Reads
// back the candidate picker and definition validation; DeleteWithCascade is
// the single write path, invoked only by the cascade resolver so instance
// cleanup and the entry row removal share one transaction.
type EntryRepository interface {
	GetEntry(ctx context.Context, id uuid.UUID, dest *models.ContentEntry) error
	ContentTypeExists(ctx context.Context, id uuid.UUID) (bool, error)
	// SearchEntries returns one page of entries of the given content type.
	// It fetches pageSize+1 rows to report hasMore without a count query.
	SearchEntries(ctx context.Context, contentTypeID uuid.UUID, filter *EntrySearchFilter, page, pageSize int) ([]models.ContentEntry, bool, error)
	// ExistingIDs reports which of the given entry ids still exist, used to
	// flag orphaned edges left behind by no_action deletions.
	ExistingIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]bool, error)
	// IDsOfType reports which of the given entry ids exist AND belong to
	// the content type; relation writes use it to hold the endpoint
	// content-type invariant.
	IDsOfType(ctx context.Context, contentTypeID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]bool, error)
	DeleteWithCascade(ctx context.Context, entryID uuid.UUID, ops []CascadeOp) error
}

type entryRepository struct {
	db *gorm.DB
}

func NewEntryRepository(db *gorm.DB) EntryRepository {
	return &entryRepository{db: db}
}

func (r *entryRepository) GetEntry(ctx context.Context, id uuid.UUID, dest *models.ContentEntry) error {
	if err := r.db.WithContext(ctx).First(dest, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return appErr.New(appErr.CodeNotFound, "entry not found")
		}
		return appErr.Wrap(err, appErr.CodeInternal, "get entry failed")
	}
	return nil
}

func (r *entryRepository) ContentTypeExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.ContentType{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, appErr.Wrap(err, appErr.CodeInternal, "check content type failed")
	}
	return count > 0, nil
}

func (r *entryRepository) SearchEntries(ctx context.Context, contentTypeID uuid.UUID, filter *EntrySearchFilter, page, pageSize int) ([]models.ContentEntry, bool, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}

	q := r.db.WithContext(ctx).Model(&models.ContentEntry{}).
		Where("content_type_id = ?", contentTypeID)
	if filter != nil {
		if filter.Search != "" {
			q = q.Where("title ILIKE ?", "%"+filter.Search+"%")
		}
		if filter.Status != "" {
			q = q.Where("status = ?", filter.Status)
		}
		if len(filter.ExcludeIDs) > 0 {
			q = q.Where("id NOT IN ?", filter.ExcludeIDs)
		}
	}

	var out []models.ContentEntry
	err := q.Order("updated_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize + 1).
		Find(&out).Error
	if err != nil {
		return nil, false, appErr.Wrap(err, appErr.CodeInternal, "search entries failed")
	}

	hasMore := len(out) > pageSize
	if hasMore {
		out = out[:pageSize]
	}
	return out, hasMore, nil
}

func (r *entryRepository) ExistingIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]bool, error) {
	out := make(map[uuid.UUID]bool, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var found []uuid.UUID
	if err := r.db.WithContext(ctx).Model(&models.ContentEntry{}).Where("id IN ?", ids).Pluck("id", &found).Error; err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "check entry ids failed")
	}
	for _, id := range found {
		out[id] = true
	}
	return out, nil
}

func (r *entryRepository) IDsOfType(ctx context.Context, contentTypeID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]bool, error) {
	out := make(map[uuid.UUID]bool, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var found []uuid.UUID
	err := r.db.WithContext(ctx).Model(&models.ContentEntry{}).
		Where("content_type_id = ? AND id IN ?", contentTypeID, ids).
		Pluck("id", &found).Error
	if err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "check entry types failed")
	}
	for _, id := range found {
		out[id] = true
	}
	return out, nil
}

// DeleteWithCascade removes the entry row and, in the same transaction, the
// instances selected by the cascade resolver. Revision rows for the entry's
// source side are dropped with it.
func (r *entryRepository) DeleteWithCascade(ctx context.Context, entryID uuid.UUID, ops []CascadeOp) error {
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return appErr.Wrap(tx.Error, appErr.CodeInternal, "begin transaction failed")
	}
	defer tx.Rollback()

	for _, op := range ops {
		col := "target_entry_id"
		if op.AsSource {
			col = "source_entry_id"
		}
		err := tx.Where("relation_definition_id = ? AND "+col+" = ?", op.DefinitionID, entryID).
			Delete(&models.RelationInstance{}).Error
		if err != nil {
			return appErr.Wrap(err, appErr.CodeInternal, "cascade delete instances failed")
		}
	}

	if err := tx.Where("source_entry_id = ?", entryID).Delete(&models.RelationRevision{}).Error; err != nil {
		return appErr.Wrap(err, appErr.CodeInternal, "delete revision rows failed")
	}

	res := tx.Delete(&models.ContentEntry{}, "id = ?", entryID)
	if res.Error != nil {
		return appErr.Wrap(res.Error, appErr.CodeInternal, "delete entry failed")
	}
	if res.RowsAffected == 0 {
		return appErr.New(appErr.CodeNotFound, "entry not found")
	}

	if err := tx.Commit().Error; err != nil {
		return appErr.Wrap(err, appErr.CodeInternal, "commit transaction failed")
	}
	return nil
}
