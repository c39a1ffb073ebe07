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

type RelationHandler struct {
	svc *service.RelationService
}

func NewRelationHandler(svc *service.RelationService) *RelationHandler {
	return &RelationHandler{svc: svc}
}

type roleRequest struct {
	EntityID string   `json:"entity_id"`
	Role     string   `json:"role"`
	Weight   float64  `json:"weight"`
	Coverage *float64 `json:"coverage,omitempty"`
}

type relationRevisionRequest struct {
	SourceID       string            `json:"source_id"`
	Kind           string            `json:"kind"`
	Direction      string            `json:"direction,omitempty"`
	Confidence     *float64          `json:"confidence,omitempty"`
	Scope          map[string]string `json:"scope,omitempty"`
	Notes          string            `json:"notes,omitempty"`
	CreatedBy      string            `json:"created_by,omitempty"`
	CreatedByModel string            `json:"created_by_model,omitempty"`
	Roles          []roleRequest     `json:"roles"`
}

func (req *relationRevisionRequest) toRevision() (*domain.RelationRevision, []domain.RoleRevision, error) {
	rev := &domain.RelationRevision{
		Kind:       domain.RelationKind(req.Kind),
		Direction:  domain.Direction(req.Direction),
		Confidence: req.Confidence,
		Scope:      req.Scope,
		Notes:      req.Notes,
	}
	rev.CreatedByModel = req.CreatedByModel

	if req.SourceID != "" {
		sourceID, err := uuid.Parse(req.SourceID)
		if err != nil {
			return nil, nil, errors.New("invalid source_id")
		}
		rev.SourceID = sourceID
	}
	if req.CreatedBy != "" {
		createdBy, err := uuid.Parse(req.CreatedBy)
		if err != nil {
			return nil, nil, errors.New("invalid created_by")
		}
		rev.CreatedBy = &createdBy
	}

	roles := make([]domain.RoleRevision, len(req.Roles))
	for i, rr := range req.Roles {
		entityID, err := uuid.Parse(rr.EntityID)
		if err != nil {
			return nil, nil, errors.New("invalid role entity_id")
		}
		roles[i] = domain.RoleRevision{
			EntityID: entityID,
			Role:     rr.Role,
			Weight:   rr.Weight,
			Coverage: rr.Coverage,
		}
	}
	return rev, roles, nil
}

func badRelationRequest(err error) bool {
	return errors.Is(err, service.ErrKindRequired) ||
		errors.Is(err, service.ErrInvalidDirection) ||
		errors.Is(err, service.ErrSourceRequired) ||
		errors.Is(err, service.ErrNoRoles) ||
		errors.Is(err, service.ErrRoleRequired) ||
		errors.Is(err, service.ErrWeightOutOfRange) ||
		errors.Is(err, service.ErrNegativeCoverage) ||
		errors.Is(err, service.ErrConfidenceRange)
}

func (h *RelationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req relationRevisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rev, roles, err := req.toRevision()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	view, err := h.svc.Create(r.Context(), rev, roles)
	if err != nil {
		switch {
		case badRelationRequest(err):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrSourceNotFound):
			writeError(w, http.StatusBadRequest, "source or role entity not found")
		default:
			writeError(w, http.StatusInternalServerError, "failed to create relation")
		}
		return
	}

	writeJSON(w, http.StatusCreated, view)
}

func (h *RelationHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid relation id")
		return
	}

	view, err := h.svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrRelationNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get relation")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *RelationHandler) Revise(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid relation id")
		return
	}

	var req relationRevisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rev, roles, err := req.toRevision()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rev.RelationID = id

	if err := h.svc.Revise(r.Context(), rev, roles); err != nil {
		switch {
		case badRelationRequest(err):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrRelationNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "failed to revise relation")
		}
		return
	}
	writeJSON(w, http.StatusOK, &domain.RelationView{RelationRevision: *rev, Roles: roles})
}

func (h *RelationHandler) ListByEntity(w http.ResponseWriter, r *http.Request) {
	entityID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid entity id")
		return
	}

	views, err := h.svc.ListByEntity(r.Context(), entityID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list relations")
		return
	}
	writeJSON(w, http.StatusOK, views)
}

type attachExtractionRequest struct {
	DocumentRef     string `json:"document_ref"`
	ExtractionModel string `json:"extraction_model"`
}

// AttachExtraction sets the document/extraction provenance on the current
// revision of a relation.
func (h *RelationHandler) AttachExtraction(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid relation id")
		return
	}

	var req attachExtractionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.DocumentRef == "" && req.ExtractionModel == "" {
		writeError(w, http.StatusBadRequest, "document_ref or extraction_model is required")
		return
	}

	view, err := h.svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrRelationNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get relation")
		return
	}

	if err := h.svc.AttachExtraction(r.Context(), view.ID, req.DocumentRef, req.ExtractionModel); err != nil {
		switch {
		case errors.Is(err, service.ErrRevisionNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrExtractionAttached):
			writeError(w, http.StatusConflict, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "failed to attach extraction")
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RelationHandler) Retire(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid relation id")
		return
	}

	if err := h.svc.Retire(r.Context(), id); err != nil {
		if errors.Is(err, service.ErrRelationNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to retire relation")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RelationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid relation id")
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		if errors.Is(err, service.ErrRelationNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete relation")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
