package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/fusecms/engine/internal/models"
	"github.com/fusecms/engine/internal/repository"
	appErr "github.com/fusecms/engine/pkg/errors"
	"github.com/fusecms/engine/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EditSession buffers pending relation edits for one entry. It is an
// explicit per-edit object, never process-wide state, so concurrent edit
// sessions (two dashboard tabs) cannot interfere in-process. Nothing
// touches storage until CommitAll.
type EditSession struct {
	EntryID uuid.UUID

	fields map[string]*fieldState
}

type fieldState struct {
	def models.RelationDefinition

	// snapshot is the committed target set observed at Begin (or after the
	// last successful commit); baseRevision is its revision counter.
	snapshot     []repository.TargetEdit
	baseRevision int64

	staged   []repository.TargetEdit
	isStaged bool
}

// Stage overwrites the pending target list for one relation field. It does
// not touch storage.
func (s *EditSession) Stage(fieldName string, targets []repository.TargetEdit) error {
	fs, ok := s.fields[fieldName]
	if !ok {
		return appErr.New(appErr.CodeNotFound, fmt.Sprintf("entry has no relation field %q", fieldName))
	}
	fs.staged = append([]repository.TargetEdit(nil), targets...)
	fs.isStaged = true
	return nil
}

// SetBaseRevision overrides the revision the commit's compare-and-swap
// guard expects for one field. Used when the client staged its edits
// against an older read than Begin's.
func (s *EditSession) SetBaseRevision(fieldName string, revision int64) error {
	fs, ok := s.fields[fieldName]
	if !ok {
		return appErr.New(appErr.CodeNotFound, fmt.Sprintf("entry has no relation field %q", fieldName))
	}
	fs.baseRevision = revision
	return nil
}

// Reset discards all pending edits, reverting the session to the last
// known-committed values.
func (s *EditSession) Reset() {
	for _, fs := range s.fields {
		fs.staged = nil
		fs.isStaged = false
	}
}

// Staged returns the names of fields with pending edits.
func (s *EditSession) Staged() []string {
	var out []string
	for name, fs := range s.fields {
		if fs.isStaged {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// CommitService coordinates all-or-nothing saves of multiple relation
// fields for one entry.
type CommitService interface {
	// Begin snapshots the entry's current relations per field and returns
	// a fresh edit session.
	Begin(ctx context.Context, entryID uuid.UUID) (*EditSession, error)
	// CommitAll validates every staged field first and commits nothing if
	// any fails. Writes are applied sequentially in definition sort order;
	// a mid-batch storage failure rolls already-committed fields back to
	// their snapshots in reverse order. Returns the new revision per
	// committed field.
	CommitAll(ctx context.Context, session *EditSession, useRevisionGuard bool) (map[string]int64, error)
}

type commitService struct {
	defRepo      repository.DefinitionRepository
	instanceRepo repository.InstanceRepository
	entryRepo    repository.EntryRepository
	events       EventPublisher
}

func NewCommitService(defRepo repository.DefinitionRepository, instanceRepo repository.InstanceRepository, entryRepo repository.EntryRepository, events EventPublisher) CommitService {
	return &commitService{defRepo: defRepo, instanceRepo: instanceRepo, entryRepo: entryRepo, events: events}
}

var _ CommitService = (*commitService)(nil)

func (s *commitService) Begin(ctx context.Context, entryID uuid.UUID) (*EditSession, error) {
	var entry models.ContentEntry
	if err := s.entryRepo.GetEntry(ctx, entryID, &entry); err != nil {
		return nil, err
	}

	defs, err := s.defRepo.ListActiveBySourceType(ctx, entry.ContentTypeID)
	if err != nil {
		return nil, err
	}

	session := &EditSession{EntryID: entryID, fields: make(map[string]*fieldState, len(defs))}
	for _, def := range defs {
		instances, err := s.instanceRepo.ListBySource(ctx, def.ID, entryID)
		if err != nil {
			return nil, err
		}
		rev, err := s.instanceRepo.Revision(ctx, def.ID, entryID)
		if err != nil {
			return nil, err
		}
		snapshot := make([]repository.TargetEdit, len(instances))
		for i, inst := range instances {
			snapshot[i] = repository.TargetEdit{TargetID: inst.TargetEntryID, Data: inst.RelationData}
		}
		session.fields[def.SourceFieldName] = &fieldState{def: def, snapshot: snapshot, baseRevision: rev}
	}
	return session, nil
}

func (s *commitService) CommitAll(ctx context.Context, session *EditSession, useRevisionGuard bool) (map[string]int64, error) {
	staged := s.stagedInOrder(session)
	if len(staged) == 0 {
		return map[string]int64{}, nil
	}

	// Phase 1: validate every field before any write. Violations aggregate
	// across fields so the UI can render the full list.
	var all appErr.ViolationList
	for _, fs := range staged {
		violations, err := s.validateField(ctx, session.EntryID, fs)
		if err != nil {
			return nil, err
		}
		all = append(all, violations...)
	}
	if len(all) > 0 {
		return nil, all
	}

	// Phase 2: apply sequentially. The undo order of the compensation path
	// is the reverse of the apply order.
	revisions := make(map[string]int64, len(staged))
	applied := make([]*fieldState, 0, len(staged))
	for _, fs := range staged {
		var expected *int64
		if useRevisionGuard {
			// Copy: the session's baseRevision moves after a successful
			// write and must not alias into the storage call.
			base := fs.baseRevision
			expected = &base
		}
		rev, err := s.instanceRepo.ReplaceForSource(ctx, fs.def.ID, session.EntryID, fs.staged, expected)
		if err != nil {
			s.compensate(ctx, session.EntryID, applied)
			return nil, appErr.Wrap(err, appErr.CodeUnavailable, fmt.Sprintf("commit of field %q failed; previous fields rolled back", fs.def.SourceFieldName))
		}
		revisions[fs.def.SourceFieldName] = rev
		applied = append(applied, fs)
		s.events.RelationChanged(ctx, fs.def.ID, session.EntryID, "replace", len(fs.staged), rev)
	}

	// Success: staged values become the new snapshots.
	for _, fs := range staged {
		fs.snapshot = fs.staged
		fs.baseRevision = revisions[fs.def.SourceFieldName]
		fs.staged = nil
		fs.isStaged = false
	}

	logger.L().Info("batch commit applied",
		zap.String("entry_id", session.EntryID.String()),
		zap.Int("fields", len(staged)),
	)
	return revisions, nil
}

func (s *commitService) stagedInOrder(session *EditSession) []*fieldState {
	out := make([]*fieldState, 0, len(session.fields))
	for _, fs := range session.fields {
		if fs.isStaged {
			out = append(out, fs)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].def.SortOrder != out[j].def.SortOrder {
			return out[i].def.SortOrder < out[j].def.SortOrder
		}
		return out[i].def.Name < out[j].def.Name
	})
	return out
}

func (s *commitService) validateField(ctx context.Context, entryID uuid.UUID, fs *fieldState) (appErr.ViolationList, error) {
	targetIDs := make([]uuid.UUID, len(fs.staged))
	for i, t := range fs.staged {
		targetIDs[i] = t.TargetID
	}

	ofType, err := s.entryRepo.IDsOfType(ctx, fs.def.TargetContentTypeID, targetIDs)
	if err != nil {
		return nil, err
	}
	for _, id := range targetIDs {
		if !ofType[id] {
			return nil, appErr.New(appErr.CodeInvalid,
				fmt.Sprintf("field %q: entry %s is not of the definition's target content type", fs.def.SourceFieldName, id))
		}
	}

	bindings := map[uuid.UUID]uuid.UUID{}
	if fs.def.RelationType != models.RelationManyToMany {
		bindings, err = s.instanceRepo.TargetBindings(ctx, fs.def.ID, targetIDs)
		if err != nil {
			return nil, err
		}
	}
	return ValidateRelations(&fs.def, entryID, targetIDs, bindings), nil
}

// compensate restores snapshots for fields already committed in this batch,
// newest first. Best effort: a failed restore is logged and the remaining
// restores still run.
func (s *commitService) compensate(ctx context.Context, entryID uuid.UUID, applied []*fieldState) {
	for i := len(applied) - 1; i >= 0; i-- {
		fs := applied[i]
		rev, err := s.instanceRepo.ReplaceForSource(ctx, fs.def.ID, entryID, fs.snapshot, nil)
		if err != nil {
			logger.L().Error("compensation rollback failed",
				zap.String("entry_id", entryID.String()),
				zap.String("field", fs.def.SourceFieldName),
				zap.Error(err),
			)
			continue
		}
		fs.baseRevision = rev
		s.events.RelationChanged(ctx, fs.def.ID, entryID, "rollback", len(fs.snapshot), rev)
	}
}
