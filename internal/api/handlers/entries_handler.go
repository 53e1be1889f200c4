package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/fusecms/engine/internal/api/types"
	"github.com/fusecms/engine/internal/repository"
	"github.com/fusecms/engine/internal/services"
)

// EntriesHandler exposes the entry-scoped relation operations: the batch
// commit of staged relation fields and cascade-aware entry deletion.
type EntriesHandler struct {
	commits services.CommitService
	cascade services.CascadeService
}

func NewEntriesHandler(commits services.CommitService, cascade services.CascadeService) *EntriesHandler {
	return &EntriesHandler{commits: commits, cascade: cascade}
}

// Commit stages every field from the request body into a fresh edit session
// and commits them atomically. The session is request-scoped: the dashboard
// holds pending state client-side and submits it in one call.
func (h *EntriesHandler) Commit(w http.ResponseWriter, r *http.Request) {
	entryID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req types.CommitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorStr(w, http.StatusBadRequest, "invalid json")
		return
	}
	if len(req.Fields) == 0 {
		writeErrorStr(w, http.StatusBadRequest, "fields is required")
		return
	}

	session, err := h.commits.Begin(r.Context(), entryID)
	if err != nil {
		writeError(w, err)
		return
	}
	for field, refs := range req.Fields {
		targets := make([]repository.TargetEdit, len(refs))
		for i, ref := range refs {
			targets[i] = repository.TargetEdit{TargetID: ref.TargetEntryID, Data: []byte(ref.RelationData)}
		}
		if err := session.Stage(field, targets); err != nil {
			writeError(w, err)
			return
		}
	}

	for field, rev := range req.BaseRevisions {
		if err := session.SetBaseRevision(field, rev); err != nil {
			writeError(w, err)
			return
		}
	}

	revisions, err := h.commits.CommitAll(r.Context(), session, len(req.BaseRevisions) > 0)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: map[string]any{"revisions": revisions}})
}

// Delete removes an entry through the cascade resolver.
func (h *EntriesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	entryID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.cascade.DeleteEntry(r.Context(), entryID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true})
}
