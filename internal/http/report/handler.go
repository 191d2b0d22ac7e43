package report

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mfigueiredo/ledgerhawk/internal/report"
)

type Handler struct {
	svc *report.Service
}

func NewHandler(svc *report.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Delete("/{id}", h.resolve)
}

type reportResponse struct {
	ID            int64      `json:"id"`
	TransactionID string     `json:"transaction_id"`
	RiskLevel     string     `json:"risk_level"`
	Anomaly       string     `json:"anomaly"`
	Mitigation    string     `json:"mitigation_strategy"`
	Reasoning     string     `json:"reasoning"`
	Summary       string     `json:"summary"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     *time.Time `json:"updated_at,omitempty"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	reports, err := h.svc.List(r.Context())
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toResponseList(reports)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	rep, err := h.svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, report.ErrNotFound) {
			http.Error(w, "report not found", http.StatusNotFound)
			return
		}

		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toResponse(rep)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) resolve(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	if err := h.svc.Resolve(r.Context(), id); err != nil {
		if errors.Is(err, report.ErrNotFound) {
			http.Error(w, "report not found", http.StatusNotFound)
			return
		}

		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func toResponse(rep *report.Report) reportResponse {
	return reportResponse{
		ID:            rep.ID,
		TransactionID: rep.TransactionID,
		RiskLevel:     string(rep.Level),
		Anomaly:       rep.Anomaly,
		Mitigation:    rep.Mitigation,
		Reasoning:     rep.Reasoning,
		Summary:       rep.Summary,
		CreatedAt:     rep.CreatedAt,
		UpdatedAt:     rep.UpdatedAt,
	}
}

func toResponseList(reports []*report.Report) []reportResponse {
	responses := make([]reportResponse, 0, len(reports))
	for _, rep := range reports {
		responses = append(responses, toResponse(rep))
	}

	return responses
}
