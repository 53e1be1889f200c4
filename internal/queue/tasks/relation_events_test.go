package tasks

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/fusecms/engine/pkg/logger"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	_, err := logger.Init("error", "json")
	if err != nil {
		panic("failed to init logger: " + err.Error())
	}
	os.Exit(m.Run())
}

func TestNewRelationChangedTask(t *testing.T) {
	payload := RelationChangedPayload{
		DefinitionID:  uuid.NewString(),
		SourceEntryID: uuid.NewString(),
		Action:        "replace",
		TargetCount:   3,
		Revision:      7,
		OccurredAt:    time.Now().UTC(),
	}

	task, err := NewRelationChangedTask(payload)

	require.NoError(t, err)
	require.Equal(t, TypeRelationChanged, task.Type())

	var decoded RelationChangedPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &decoded))
	require.Equal(t, payload.DefinitionID, decoded.DefinitionID)
	require.Equal(t, "replace", decoded.Action)
	require.Equal(t, int64(7), decoded.Revision)
}

func TestNewEntryCascadeTask(t *testing.T) {
	payload := EntryCascadePayload{
		EntryID:       uuid.NewString(),
		DefinitionIDs: []string{uuid.NewString(), uuid.NewString()},
		OccurredAt:    time.Now().UTC(),
	}

	task, err := NewEntryCascadeTask(payload)

	require.NoError(t, err)
	require.Equal(t, TypeEntryCascade, task.Type())

	var decoded EntryCascadePayload
	require.NoError(t, json.Unmarshal(task.Payload(), &decoded))
	require.Equal(t, payload.EntryID, decoded.EntryID)
	require.Len(t, decoded.DefinitionIDs, 2)
}

func TestHandleRelationChanged_RejectsBadPayload(t *testing.T) {
	h := NewRelationEventHandler(nil)

	err := h.HandleRelationChanged(context.Background(), asynq.NewTask(TypeRelationChanged, []byte("not json")))
	require.Error(t, err)

	// Valid JSON but an unparseable definition id also fails before any
	// storage access.
	bad, _ := json.Marshal(RelationChangedPayload{DefinitionID: "nope", SourceEntryID: uuid.NewString()})
	err = h.HandleRelationChanged(context.Background(), asynq.NewTask(TypeRelationChanged, bad))
	require.Error(t, err)
}

func TestHandleEntryCascade_RejectsBadPayload(t *testing.T) {
	h := NewRelationEventHandler(nil)

	err := h.HandleEntryCascade(context.Background(), asynq.NewTask(TypeEntryCascade, []byte("{")))
	require.Error(t, err)

	bad, _ := json.Marshal(EntryCascadePayload{EntryID: "nope"})
	err = h.HandleEntryCascade(context.Background(), asynq.NewTask(TypeEntryCascade, bad))
	require.Error(t, err)
}
