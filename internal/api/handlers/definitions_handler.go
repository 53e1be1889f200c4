package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/fusecms/engine/internal/api/types"
	"github.com/fusecms/engine/internal/models"
	"github.com/fusecms/engine/internal/repository"
	"github.com/fusecms/engine/internal/services"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type DefinitionsHandler struct {
	defs   services.DefinitionService
	picker services.PickerService
}

func NewDefinitionsHandler(defs services.DefinitionService, picker services.PickerService) *DefinitionsHandler {
	return &DefinitionsHandler{defs: defs, picker: picker}
}

func (h *DefinitionsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := &repository.DefinitionFilter{
		RelationType: models.RelationType(q.Get("relation_type")),
		Search:       q.Get("search"),
	}
	if v := q.Get("source_content_type_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			writeErrorStr(w, http.StatusBadRequest, "invalid source_content_type_id")
			return
		}
		filter.SourceContentTypeID = &id
	}
	if v := q.Get("is_active"); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			writeErrorStr(w, http.StatusBadRequest, "invalid is_active")
			return
		}
		filter.IsActive = &active
	}

	items, err := h.defs.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: items, Meta: &types.Meta{Total: int64(len(items))}})
}

func (h *DefinitionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req types.DefinitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorStr(w, http.StatusBadRequest, "invalid json")
		return
	}

	def, err := h.defs.Create(r.Context(), definitionInput(&req))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, types.APIResponse{Success: true, Data: def})
}

func (h *DefinitionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	def, err := h.defs.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: def})
}

func (h *DefinitionsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req types.DefinitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorStr(w, http.StatusBadRequest, "invalid json")
		return
	}

	def, err := h.defs.Update(r.Context(), id, definitionInput(&req))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: def})
}

func (h *DefinitionsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.defs.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true})
}

// Candidates serves the relation target picker for one definition.
func (h *DefinitionsHandler) Candidates(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	q := r.URL.Query()

	sourceID, err := uuid.Parse(q.Get("source_entry_id"))
	if err != nil {
		writeErrorStr(w, http.StatusBadRequest, "source_entry_id is required")
		return
	}

	filter := &services.CandidateFilter{
		Search: q.Get("q"),
		Status: q.Get("status"),
	}
	if raw := q.Get("exclude"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			exclID, err := uuid.Parse(strings.TrimSpace(part))
			if err != nil {
				writeErrorStr(w, http.StatusBadRequest, "invalid exclude id")
				return
			}
			filter.ExcludeIDs = append(filter.ExcludeIDs, exclID)
		}
	}

	page, _ := strconv.Atoi(q.Get("page"))
	size, _ := strconv.Atoi(q.Get("page_size"))

	result, err := h.picker.Search(r.Context(), id, sourceID, filter, page, size)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{
		Success: true,
		Data:    result,
		Meta:    &types.Meta{Page: page, PageSize: size, HasMore: result.HasMore},
	})
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		writeErrorStr(w, http.StatusBadRequest, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

func definitionInput(req *types.DefinitionRequest) *services.DefinitionInput {
	onSource := models.DeleteBehavior(req.OnSourceDelete)
	if req.OnSourceDelete == "" {
		onSource = models.DeleteNoAction
	}
	onTarget := models.DeleteBehavior(req.OnTargetDelete)
	if req.OnTargetDelete == "" {
		onTarget = models.DeleteNoAction
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	return &services.DefinitionInput{
		Name:                req.Name,
		DisplayName:         req.DisplayName,
		Description:         req.Description,
		SourceContentTypeID: req.SourceContentTypeID,
		SourceFieldName:     req.SourceFieldName,
		TargetContentTypeID: req.TargetContentTypeID,
		TargetFieldName:     req.TargetFieldName,
		RelationType:        models.RelationType(req.RelationType),
		IsBidirectional:     req.IsBidirectional,
		IsRequired:          req.IsRequired,
		OnSourceDelete:      onSource,
		OnTargetDelete:      onTarget,
		MinRelations:        req.MinRelations,
		MaxRelations:        req.MaxRelations,
		SortOrder:           req.SortOrder,
		Metadata:            datatypes.JSON(req.Metadata),
		IsActive:            active,
	}
}
