package tasks

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fusecms/engine/internal/models"
	"github.com/fusecms/engine/pkg/logger"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Task type names for the relation event queue.
const (
	TypeRelationChanged = "relation:changed"
	TypeEntryCascade    = "relation:entry_cascade"
)

// RelationChangedPayload describes one committed ReplaceForSource.
type RelationChangedPayload struct {
	DefinitionID  string    `json:"definition_id"`
	SourceEntryID string    `json:"source_entry_id"`
	Action        string    `json:"action"` // replace, create, rollback
	TargetCount   int       `json:"target_count"`
	Revision      int64     `json:"revision"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// EntryCascadePayload describes the cascade side effects of one entry deletion.
type EntryCascadePayload struct {
	EntryID       string    `json:"entry_id"`
	DefinitionIDs []string  `json:"definition_ids"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// NewRelationChangedTask builds the asynq task for a committed relation change.
func NewRelationChangedTask(p RelationChangedPayload) (*asynq.Task, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeRelationChanged, b), nil
}

// NewEntryCascadeTask builds the asynq task for an entry deletion cascade.
func NewEntryCascadeTask(p EntryCascadePayload) (*asynq.Task, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeEntryCascade, b), nil
}

// RelationEventHandler consumes relation events and writes audit rows.
// Audit is deliberately asynchronous: it is not part of the commit's
// atomicity guarantee.
type RelationEventHandler struct {
	db *gorm.DB
}

func NewRelationEventHandler(db *gorm.DB) *RelationEventHandler {
	return &RelationEventHandler{db: db}
}

func (h *RelationEventHandler) HandleRelationChanged(ctx context.Context, t *asynq.Task) error {
	var p RelationChangedPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		logger.L().Error("invalid relation changed payload", zap.Error(err))
		return err
	}

	defID, err := uuid.Parse(p.DefinitionID)
	if err != nil {
		logger.L().Error("invalid definition id in task", zap.Error(err))
		return err
	}
	sourceID, err := uuid.Parse(p.SourceEntryID)
	if err != nil {
		logger.L().Error("invalid source entry id in task", zap.Error(err))
		return err
	}

	detail, _ := json.Marshal(map[string]any{
		"target_count": p.TargetCount,
		"revision":     p.Revision,
		"occurred_at":  p.OccurredAt,
	})
	audit := models.RelationAudit{
		RelationDefinitionID: defID,
		SourceEntryID:        sourceID,
		Action:               p.Action,
		Detail:               datatypes.JSON(detail),
	}
	if err := h.db.WithContext(ctx).Create(&audit).Error; err != nil {
		logger.L().Error("write relation audit failed", zap.Error(err))
		return err
	}

	logger.L().Debug("relation audit written",
		zap.String("definition_id", p.DefinitionID),
		zap.String("source_entry_id", p.SourceEntryID),
		zap.String("action", p.Action),
	)
	return nil
}

func (h *RelationEventHandler) HandleEntryCascade(ctx context.Context, t *asynq.Task) error {
	var p EntryCascadePayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		logger.L().Error("invalid entry cascade payload", zap.Error(err))
		return err
	}

	entryID, err := uuid.Parse(p.EntryID)
	if err != nil {
		logger.L().Error("invalid entry id in task", zap.Error(err))
		return err
	}

	detail, _ := json.Marshal(map[string]any{
		"definition_ids": p.DefinitionIDs,
		"occurred_at":    p.OccurredAt,
	})
	audit := models.RelationAudit{
		SourceEntryID: entryID,
		Action:        "entry_cascade",
		Detail:        datatypes.JSON(detail),
	}
	if err := h.db.WithContext(ctx).Create(&audit).Error; err != nil {
		logger.L().Error("write cascade audit failed", zap.Error(err))
		return err
	}
	return nil
}
