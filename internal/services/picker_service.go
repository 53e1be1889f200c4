package services

import (
	"context"

	"github.com/fusecms/engine/internal/models"
	"github.com/fusecms/engine/internal/repository"
	appErr "github.com/fusecms/engine/pkg/errors"
	"github.com/google/uuid"
)

// PickerService backs the dashboard's relation target picker. Read-only:
// it never mutates relation state.
type PickerService interface {
	Search(ctx context.Context, definitionID, sourceEntryID uuid.UUID, filter *CandidateFilter, page, pageSize int) (*CandidatePage, error)
}

// CandidateFilter narrows candidate search. The source entry is always
// excluded regardless of ExcludeIDs, so the picker can never offer a
// self-reference.
type CandidateFilter struct {
	Search     string
	Status     string
	ExcludeIDs []uuid.UUID
}

// CandidatePage is one page of eligible target entries. Remaining is the
// number of additional targets the source may still take under
// max_relations; nil means unbounded. SelectAllIDs is the page's entry ids
// clamped to Remaining, the set a select-all-visible action may stage
// without overrunning capacity.
type CandidatePage struct {
	Entries      []models.ContentEntry `json:"entries"`
	HasMore      bool                  `json:"has_more"`
	Remaining    *int                  `json:"remaining,omitempty"`
	SelectAllIDs []uuid.UUID           `json:"select_all_ids"`
}

type pickerService struct {
	defRepo      repository.DefinitionRepository
	instanceRepo repository.InstanceRepository
	entryRepo    repository.EntryRepository
}

func NewPickerService(defRepo repository.DefinitionRepository, instanceRepo repository.InstanceRepository, entryRepo repository.EntryRepository) PickerService {
	return &pickerService{defRepo: defRepo, instanceRepo: instanceRepo, entryRepo: entryRepo}
}

var _ PickerService = (*pickerService)(nil)

func (s *pickerService) Search(ctx context.Context, definitionID, sourceEntryID uuid.UUID, filter *CandidateFilter, page, pageSize int) (*CandidatePage, error) {
	var def models.RelationDefinition
	if err := s.defRepo.GetByID(ctx, definitionID, &def); err != nil {
		return nil, err
	}
	if !def.IsActive {
		return nil, appErr.New(appErr.CodeInvalid, "relation definition is inactive")
	}

	exclude := []uuid.UUID{sourceEntryID}
	search, status := "", ""
	if filter != nil {
		exclude = append(exclude, filter.ExcludeIDs...)
		search, status = filter.Search, filter.Status
	}

	// For to-one types a target taken by another source is not a valid
	// candidate; hide it rather than let the save fail later.
	if def.RelationType != models.RelationManyToMany {
		bound, err := s.instanceRepo.BoundTargetIDs(ctx, def.ID, sourceEntryID)
		if err != nil {
			return nil, err
		}
		exclude = append(exclude, bound...)
	}

	entries, hasMore, err := s.entryRepo.SearchEntries(ctx, def.TargetContentTypeID, &repository.EntrySearchFilter{
		Search:     search,
		Status:     status,
		ExcludeIDs: exclude,
	}, page, pageSize)
	if err != nil {
		return nil, err
	}

	pageOut := &CandidatePage{Entries: entries, HasMore: hasMore}
	if def.MaxRelations != nil {
		current, err := s.instanceRepo.CountBySource(ctx, def.ID, sourceEntryID)
		if err != nil {
			return nil, err
		}
		remaining := *def.MaxRelations - int(current)
		if remaining < 0 {
			remaining = 0
		}
		pageOut.Remaining = &remaining
	}

	ids := make([]uuid.UUID, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	pageOut.SelectAllIDs = ClampToRemaining(ids, pageOut.Remaining)
	return pageOut, nil
}

// ClampToRemaining truncates a select-all-visible id list to the remaining
// capacity instead of erroring. A nil remaining means no cap.
func ClampToRemaining(ids []uuid.UUID, remaining *int) []uuid.UUID {
	if remaining == nil || len(ids) <= *remaining {
		return ids
	}
	return ids[:*remaining]
}
