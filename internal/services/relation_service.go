package services

import (
	"context"
	"fmt"

	"github.com/fusecms/engine/internal/models"
	"github.com/fusecms/engine/internal/repository"
	appErr "github.com/fusecms/engine/pkg/errors"
	"github.com/fusecms/engine/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// RelationService is the write gate for relation instances. Every mutation
// funnels through ReplaceForSource so the constraint validator runs before
// any storage effect.
type RelationService interface {
	ReplaceForSource(ctx context.Context, def *models.RelationDefinition, sourceEntryID uuid.UUID, targets []repository.TargetEdit, expectedRevision *int64) (int64, error)
	CreateEdge(ctx context.Context, input *CreateEdgeInput) ([]models.RelationInstance, error)
	List(ctx context.Context, filter *InstanceListFilter) ([]InstanceView, error)
}

// CreateEdgeInput is the single ad-hoc edge create used outside the batch
// coordinator.
type CreateEdgeInput struct {
	DefinitionID  uuid.UUID
	SourceEntryID uuid.UUID
	TargetEntryID uuid.UUID
	Metadata      datatypes.JSON
}

// InstanceListFilter narrows instance listings on the public API.
type InstanceListFilter struct {
	SourceEntryID uuid.UUID
	TargetEntryID uuid.UUID
	RelationName  string
}

// InstanceView is a relation instance decorated with the orphan flag for
// edges whose opposite endpoint was removed under a no_action behavior.
type InstanceView struct {
	models.RelationInstance
	Orphaned bool `json:"orphaned"`
}

type relationService struct {
	defRepo      repository.DefinitionRepository
	instanceRepo repository.InstanceRepository
	entryRepo    repository.EntryRepository
	events       EventPublisher
}

func NewRelationService(defRepo repository.DefinitionRepository, instanceRepo repository.InstanceRepository, entryRepo repository.EntryRepository, events EventPublisher) RelationService {
	return &relationService{defRepo: defRepo, instanceRepo: instanceRepo, entryRepo: entryRepo, events: events}
}

var _ RelationService = (*relationService)(nil)

// ReplaceForSource validates the proposed target set, then delegates the
// atomic diff-and-write to the instance store. A rejected edit never
// reaches storage.
func (s *relationService) ReplaceForSource(ctx context.Context, def *models.RelationDefinition, sourceEntryID uuid.UUID, targets []repository.TargetEdit, expectedRevision *int64) (int64, error) {
	var source models.ContentEntry
	if err := s.entryRepo.GetEntry(ctx, sourceEntryID, &source); err != nil {
		return 0, err
	}
	if source.ContentTypeID != def.SourceContentTypeID {
		return 0, appErr.New(appErr.CodeInvalid, fmt.Sprintf("entry %s is not of the definition's source content type", sourceEntryID))
	}

	targetIDs := make([]uuid.UUID, len(targets))
	for i, t := range targets {
		targetIDs[i] = t.TargetID
	}

	ofType, err := s.entryRepo.IDsOfType(ctx, def.TargetContentTypeID, targetIDs)
	if err != nil {
		return 0, err
	}
	for _, id := range targetIDs {
		if !ofType[id] {
			return 0, appErr.New(appErr.CodeInvalid, fmt.Sprintf("entry %s is not of the definition's target content type", id))
		}
	}

	bindings := map[uuid.UUID]uuid.UUID{}
	if def.RelationType != models.RelationManyToMany {
		bindings, err = s.instanceRepo.TargetBindings(ctx, def.ID, targetIDs)
		if err != nil {
			return 0, err
		}
	}

	if violations := ValidateRelations(def, sourceEntryID, targetIDs, bindings); len(violations) > 0 {
		return 0, violations
	}

	rev, err := s.instanceRepo.ReplaceForSource(ctx, def.ID, sourceEntryID, targets, expectedRevision)
	if err != nil {
		return 0, err
	}

	logger.L().Info("relations replaced",
		zap.String("definition_id", def.ID.String()),
		zap.String("source_entry_id", sourceEntryID.String()),
		zap.Int("targets", len(targets)),
		zap.Int64("revision", rev),
	)
	s.events.RelationChanged(ctx, def.ID, sourceEntryID, "replace", len(targets), rev)
	return rev, nil
}

// CreateEdge appends one target to the source's current set and replaces,
// so the single-edge path obeys the same constraints as batch edits.
func (s *relationService) CreateEdge(ctx context.Context, input *CreateEdgeInput) ([]models.RelationInstance, error) {
	var def models.RelationDefinition
	if err := s.defRepo.GetByID(ctx, input.DefinitionID, &def); err != nil {
		return nil, err
	}
	if !def.IsActive {
		return nil, appErr.New(appErr.CodeInvalid, "relation definition is inactive")
	}

	existing, err := s.instanceRepo.ListBySource(ctx, def.ID, input.SourceEntryID)
	if err != nil {
		return nil, err
	}

	targets := make([]repository.TargetEdit, 0, len(existing)+1)
	for _, inst := range existing {
		targets = append(targets, repository.TargetEdit{TargetID: inst.TargetEntryID, Data: inst.RelationData})
	}
	targets = append(targets, repository.TargetEdit{TargetID: input.TargetEntryID, Data: input.Metadata})

	if _, err := s.ReplaceForSource(ctx, &def, input.SourceEntryID, targets, nil); err != nil {
		return nil, err
	}
	return s.instanceRepo.ListBySource(ctx, def.ID, input.SourceEntryID)
}

func (s *relationService) List(ctx context.Context, filter *InstanceListFilter) ([]InstanceView, error) {
	repoFilter := &repository.InstanceFilter{}
	if filter != nil {
		repoFilter.SourceEntryID = filter.SourceEntryID
		repoFilter.TargetEntryID = filter.TargetEntryID
		if filter.RelationName != "" {
			var def models.RelationDefinition
			if err := s.defRepo.GetByName(ctx, filter.RelationName, &def); err != nil {
				return nil, err
			}
			repoFilter.DefinitionID = def.ID
		}
	}

	instances, err := s.instanceRepo.ListByFilter(ctx, repoFilter)
	if err != nil {
		return nil, err
	}

	// Tolerate dangling edges: flag rows whose endpoints no longer exist
	// instead of failing the read.
	ids := make([]uuid.UUID, 0, len(instances)*2)
	seen := map[uuid.UUID]bool{}
	for _, inst := range instances {
		for _, id := range []uuid.UUID{inst.SourceEntryID, inst.TargetEntryID} {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	existing, err := s.entryRepo.ExistingIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]InstanceView, len(instances))
	for i, inst := range instances {
		out[i] = InstanceView{
			RelationInstance: inst,
			Orphaned:         !existing[inst.SourceEntryID] || !existing[inst.TargetEntryID],
		}
	}
	return out, nil
}
