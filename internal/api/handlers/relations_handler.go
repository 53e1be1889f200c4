package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/fusecms/engine/internal/api/types"
	"github.com/fusecms/engine/internal/services"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type RelationsHandler struct {
	relations services.RelationService
}

func NewRelationsHandler(relations services.RelationService) *RelationsHandler {
	return &RelationsHandler{relations: relations}
}

func (h *RelationsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := &services.InstanceListFilter{RelationName: q.Get("relation_name")}

	if v := q.Get("source_entry_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			writeErrorStr(w, http.StatusBadRequest, "invalid source_entry_id")
			return
		}
		filter.SourceEntryID = id
	}
	if v := q.Get("target_entry_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			writeErrorStr(w, http.StatusBadRequest, "invalid target_entry_id")
			return
		}
		filter.TargetEntryID = id
	}

	items, err := h.relations.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: items, Meta: &types.Meta{Total: int64(len(items))}})
}

func (h *RelationsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req types.CreateRelationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorStr(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.RelationDefinitionID == uuid.Nil || req.SourceEntryID == uuid.Nil || req.TargetEntryID == uuid.Nil {
		writeErrorStr(w, http.StatusBadRequest, "relation_definition_id, source_entry_id, and target_entry_id are required")
		return
	}

	instances, err := h.relations.CreateEdge(r.Context(), &services.CreateEdgeInput{
		DefinitionID:  req.RelationDefinitionID,
		SourceEntryID: req.SourceEntryID,
		TargetEntryID: req.TargetEntryID,
		Metadata:      datatypes.JSON(req.Metadata),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, types.APIResponse{Success: true, Data: instances})
}
