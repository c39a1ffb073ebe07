package handlers

import (
	"net/http"
	"strings"

	"github.com/credence-graph/credence/internal/domain"
	"github.com/credence-graph/credence/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type InferenceHandler struct {
	svc *service.InferenceService
}

func NewInferenceHandler(svc *service.InferenceService) *InferenceHandler {
	return &InferenceHandler{svc: svc}
}

// scopeFilterPrefix marks scope query parameters, e.g.
// ?scope.population=adults&scope.condition=chronic.
const scopeFilterPrefix = "scope."

func scopeFilterFromQuery(r *http.Request) domain.Scope {
	var filter domain.Scope
	for key, values := range r.URL.Query() {
		if !strings.HasPrefix(key, scopeFilterPrefix) || len(values) == 0 {
			continue
		}
		if filter == nil {
			filter = domain.Scope{}
		}
		filter[strings.TrimPrefix(key, scopeFilterPrefix)] = values[0]
	}
	return filter
}

// Infer handles GET /v1/entities/{id}/inference.
func (h *InferenceHandler) Infer(w http.ResponseWriter, r *http.Request) {
	entityID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid entity id")
		return
	}

	useCache := r.URL.Query().Get("use_cache") != "false"
	filter := scopeFilterFromQuery(r)

	result, err := h.svc.Infer(r.Context(), entityID, filter, useCache)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to compute inference")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// PurgeCache handles DELETE /v1/inference/cache, optionally scoped to one
// entity via ?entity_id=.
func (h *InferenceHandler) PurgeCache(w http.ResponseWriter, r *http.Request) {
	var entityID *uuid.UUID
	if raw := r.URL.Query().Get("entity_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid entity_id")
			return
		}
		entityID = &id
	}

	purged, err := h.svc.PurgeCache(r.Context(), entityID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to purge cache")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"purged": purged})
}
