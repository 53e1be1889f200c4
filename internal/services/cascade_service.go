package services

import (
	"context"

	"github.com/fusecms/engine/internal/models"
	"github.com/fusecms/engine/internal/repository"
	appErr "github.com/fusecms/engine/pkg/errors"
	"github.com/fusecms/engine/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CascadeService resolves the relation side effects of entry deletion. It
// is the only path allowed to delete entries: the entry row and the
// instance cleanup commit in one transaction.
type CascadeService interface {
	DeleteEntry(ctx context.Context, entryID uuid.UUID) error
}

type cascadeService struct {
	defRepo      repository.DefinitionRepository
	instanceRepo repository.InstanceRepository
	entryRepo    repository.EntryRepository
	events       EventPublisher
}

func NewCascadeService(defRepo repository.DefinitionRepository, instanceRepo repository.InstanceRepository, entryRepo repository.EntryRepository, events EventPublisher) CascadeService {
	return &cascadeService{defRepo: defRepo, instanceRepo: instanceRepo, entryRepo: entryRepo, events: events}
}

var _ CascadeService = (*cascadeService)(nil)

// participation is one (definition, side) pair the entry occupies. A
// self-referential definition yields two participations for the same entry.
type participation struct {
	def      models.RelationDefinition
	asSource bool
	behavior models.DeleteBehavior
}

// DeleteEntry evaluates every restrict behavior before applying any
// deletion: if one fires, the whole operation aborts with no effect, even
// for cascades owed to other definitions.
func (s *cascadeService) DeleteEntry(ctx context.Context, entryID uuid.UUID) error {
	var entry models.ContentEntry
	if err := s.entryRepo.GetEntry(ctx, entryID, &entry); err != nil {
		return err
	}

	defs, err := s.defRepo.ListActiveByContentType(ctx, entry.ContentTypeID)
	if err != nil {
		return err
	}

	var parts []participation
	for _, def := range defs {
		if def.SourceContentTypeID == entry.ContentTypeID {
			parts = append(parts, participation{def: def, asSource: true, behavior: def.OnSourceDelete})
		}
		if def.TargetContentTypeID == entry.ContentTypeID {
			parts = append(parts, participation{def: def, asSource: false, behavior: def.OnTargetDelete})
		}
	}

	// Phase 1: any restrict with live instances aborts everything.
	for _, p := range parts {
		if p.behavior != models.DeleteRestrict {
			continue
		}
		count, err := s.instanceRepo.CountForEntry(ctx, p.def.ID, entryID, p.asSource)
		if err != nil {
			return err
		}
		if count > 0 {
			return &appErr.CascadeRestrictError{DefinitionID: p.def.ID, Count: count}
		}
	}

	// Phase 2: apply cascades. set_null deletes the edge rows exactly like
	// cascade; there is no nullable endpoint column to null out. no_action
	// leaves rows dangling for reads to flag as orphaned.
	var ops []repository.CascadeOp
	var cascaded []uuid.UUID
	for _, p := range parts {
		switch p.behavior {
		case models.DeleteCascade, models.DeleteSetNull:
			ops = append(ops, repository.CascadeOp{DefinitionID: p.def.ID, AsSource: p.asSource})
			cascaded = append(cascaded, p.def.ID)
		}
	}

	if err := s.entryRepo.DeleteWithCascade(ctx, entryID, ops); err != nil {
		return err
	}

	logger.L().Info("entry deleted with cascade",
		zap.String("entry_id", entryID.String()),
		zap.Int("definitions_cascaded", len(cascaded)),
	)
	s.events.EntryCascade(ctx, entryID, cascaded)
	return nil
}
