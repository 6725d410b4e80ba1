package assessment

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/synaptica-ai/mobility-risk/pkg/common/logger"
	"github.com/synaptica-ai/mobility-risk/pkg/common/models"
	"github.com/synaptica-ai/mobility-risk/pkg/risk"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/assessments", h.handleAssess).Methods(http.MethodPost)
	r.HandleFunc("/assessments/{id}", h.handleGetAssessment).Methods(http.MethodGet)
	r.HandleFunc("/outcomes/{outcome}/score", h.handleScoreOutcome).Methods(http.MethodPost)
	r.HandleFunc("/prescriptions", h.handlePrescribe).Methods(http.MethodPost)
	r.HandleFunc("/patients/{patient_id}/assessments", h.handleListPatientAssessments).Methods(http.MethodGet)
}

func (h *Handler) handleAssess(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeInput(w, r)
	if !ok {
		return
	}
	stored, err := h.service.Assess(r.Context(), in)
	if err != nil {
		writeError(w, err, "failed to compute assessment")
		return
	}
	writeJSON(w, http.StatusCreated, stored)
}

func (h *Handler) handleGetAssessment(w http.ResponseWriter, r *http.Request) {
	stored, err := h.service.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err, "failed to load assessment")
		return
	}
	writeJSON(w, http.StatusOK, stored)
}

func (h *Handler) handleListPatientAssessments(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.Recent(r.Context(), mux.Vars(r)["patient_id"], parseLimit(r, 50))
	if err != nil {
		writeError(w, err, "failed to list assessments")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}

func (h *Handler) handleScoreOutcome(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeInput(w, r)
	if !ok {
		return
	}
	result, err := h.service.ScoreOutcome(mux.Vars(r)["outcome"], in)
	if err != nil {
		writeError(w, err, "failed to score outcome")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handlePrescribe(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeInput(w, r)
	if !ok {
		return
	}
	rec, err := h.service.Prescribe(in)
	if err != nil {
		writeError(w, err, "failed to prescribe")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func decodeInput(w http.ResponseWriter, r *http.Request) (models.RiskAssessmentInput, bool) {
	var in models.RiskAssessmentInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{Error: "request body too large"})
			return in, false
		}
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return in, false
	}
	return in, true
}

func parseLimit(r *http.Request, fallback int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback
	}
	if v, err := strconv.Atoi(raw); err == nil && v > 0 {
		return v
	}
	return fallback
}

type errorBody struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case risk.IsValidationError(err), errors.Is(err, ErrInvalidID), errors.Is(err, ErrMissingPatientID):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	case errors.Is(err, risk.ErrUnknownOutcome), errors.Is(err, ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
	default:
		logger.Log.WithError(err).Error(fallback)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: fallback})
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
