package services

import (
	"context"
	"time"

	"github.com/fusecms/engine/internal/queue/tasks"
	"github.com/fusecms/engine/pkg/logger"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// EventPublisher emits relation change events for asynchronous consumers
// (audit trail, dashboard refresh). Publishing failures are logged and
// swallowed: events are best-effort and never abort a committed write.
type EventPublisher interface {
	RelationChanged(ctx context.Context, definitionID, sourceEntryID uuid.UUID, action string, targetCount int, revision int64)
	EntryCascade(ctx context.Context, entryID uuid.UUID, definitionIDs []uuid.UUID)
}

type asynqPublisher struct {
	client *asynq.Client
}

func NewEventPublisher(client *asynq.Client) EventPublisher {
	return &asynqPublisher{client: client}
}

func (p *asynqPublisher) RelationChanged(ctx context.Context, definitionID, sourceEntryID uuid.UUID, action string, targetCount int, revision int64) {
	task, err := tasks.NewRelationChangedTask(tasks.RelationChangedPayload{
		DefinitionID:  definitionID.String(),
		SourceEntryID: sourceEntryID.String(),
		Action:        action,
		TargetCount:   targetCount,
		Revision:      revision,
		OccurredAt:    time.Now().UTC(),
	})
	if err != nil {
		logger.L().Error("build relation changed task failed", zap.Error(err))
		return
	}
	if _, err := p.client.EnqueueContext(ctx, task); err != nil {
		logger.L().Error("enqueue relation changed task failed", zap.Error(err))
	}
}

func (p *asynqPublisher) EntryCascade(ctx context.Context, entryID uuid.UUID, definitionIDs []uuid.UUID) {
	ids := make([]string, len(definitionIDs))
	for i, id := range definitionIDs {
		ids[i] = id.String()
	}
	task, err := tasks.NewEntryCascadeTask(tasks.EntryCascadePayload{
		EntryID:       entryID.String(),
		DefinitionIDs: ids,
		OccurredAt:    time.Now().UTC(),
	})
	if err != nil {
		logger.L().Error("build entry cascade task failed", zap.Error(err))
		return
	}
	if _, err := p.client.EnqueueContext(ctx, task); err != nil {
		logger.L().Error("enqueue entry cascade task failed", zap.Error(err))
	}
}

// NopEventPublisher discards events; used in tests and when the queue is
// not configured.
type NopEventPublisher struct{}

func (NopEventPublisher) RelationChanged(context.Context, uuid.UUID, uuid.UUID, string, int, int64) {}
func (NopEventPublisher) EntryCascade(context.Context, uuid.UUID, []uuid.UUID)                      {}
