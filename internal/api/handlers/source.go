package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/credence-graph/credence/internal/domain"
	"github.com/credence-graph/credence/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type SourceHandler struct {
	svc *service.SourceService
}

func NewSourceHandler(svc *service.SourceService) *SourceHandler {
	return &SourceHandler{svc: svc}
}

type sourceRevisionRequest struct {
	Title          string   `json:"title"`
	Authors        []string `json:"authors,omitempty"`
	TrustLevel     float64  `json:"trust_level,omitempty"`
	CreatedBy      string   `json:"created_by,omitempty"`
	CreatedByModel string   `json:"created_by_model,omitempty"`
}

func (req *sourceRevisionRequest) toRevision() (*domain.SourceRevision, error) {
	rev := &domain.SourceRevision{
		Title:      req.Title,
		Authors:    req.Authors,
		TrustLevel: req.TrustLevel,
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

func (h *SourceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req sourceRevisionRequest
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
		switch {
		case errors.Is(err, service.ErrTitleRequired),
			errors.Is(err, service.ErrTrustLevelRange):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "failed to create source")
		}
		return
	}

	writeJSON(w, http.StatusCreated, record)
}

func (h *SourceHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid source id")
		return
	}

	record, err := h.svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrSourceNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get source")
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (h *SourceHandler) Revise(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid source id")
		return
	}

	var req sourceRevisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rev, err := req.toRevision()
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid created_by")
		return
	}
	rev.SourceID = id

	if err := h.svc.Revise(r.Context(), rev); err != nil {
		switch {
		case errors.Is(err, service.ErrTitleRequired),
			errors.Is(err, service.ErrTrustLevelRange):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrSourceNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "failed to revise source")
		}
		return
	}
	writeJSON(w, http.StatusOK, rev)
}

func (h *SourceHandler) History(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid source id")
		return
	}

	revs, err := h.svc.History(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list revisions")
		return
	}
	writeJSON(w, http.StatusOK, revs)
}

func (h *SourceHandler) Retire(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid source id")
		return
	}

	if err := h.svc.Retire(r.Context(), id); err != nil {
		if errors.Is(err, service.ErrSourceNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to retire source")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SourceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid source id")
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		if errors.Is(err, service.ErrSourceNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete source")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
