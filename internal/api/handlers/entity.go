package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/credence-graph/credence/internal/domain"
	"github.com/credence-graph/credence/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type EntityHandler struct {
	svc *service.EntityService
}

func NewEntityHandler(svc *service.EntityService) *EntityHandler {
	return &EntityHandler{svc: svc}
}

type entityRevisionRequest struct {
	Slug           string `json:"slug"`
	Summary        string `json:"summary,omitempty"`
	CreatedBy      string `json:"created_by,omitempty"`
	CreatedByModel string `json:"created_by_model,omitempty"`
}

func (req *entityRevisionRequest) toRevision() (*domain.EntityRevision, error) {
	rev := &domain.EntityRevision{
		Slug:    req.Slug,
		Summary: req.Summary,
	}
	rev.CreatedByModel = req.CreatedByModel
	if req.CreatedBy != "" {
		createdBy, err := uuid.Parse(req.CreatedBy)
		if err != nil {
			return nil, err
		}
		rev.CreatedBy = &createdBy
	}
	return rev, nil
}

func (h *EntityHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req entityRevisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rev, err := req.toRevision()
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid created_by")
		return
	}

	record, err := h.svc.Create(r.Context(), rev)
	if err != nil {
		if errors.Is(err, service.ErrSlugRequired) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to create entity")
		return
	}

	writeJSON(w, http.StatusCreated, record)
}

func (h *EntityHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	records, err := h.svc.List(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list entities")
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *EntityHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid entity id")
		return
	}

	record, err := h.svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrEntityNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get entity")
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (h *EntityHandler) Revise(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid entity id")
		return
	}

	var req entityRevisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rev, err := req.toRevision()
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid created_by")
		return
	}
	rev.EntityID = id

	if err := h.svc.Revise(r.Context(), rev); err != nil {
		switch {
		case errors.Is(err, service.ErrSlugRequired):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrEntityNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "failed to revise entity")
		}
		return
	}
	writeJSON(w, http.StatusOK, rev)
}

func (h *EntityHandler) History(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid entity id")
		return
	}

	revs, err := h.svc.History(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list revisions")
		return
	}
	writeJSON(w, http.StatusOK, revs)
}

func (h *EntityHandler) Retire(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid entity id")
		return
	}

	if err := h.svc.Retire(r.Context(), id); err != nil {
		if errors.Is(err, service.ErrEntityNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to retire entity")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *EntityHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid entity id")
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		if errors.Is(err, service.ErrEntityNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete entity")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
