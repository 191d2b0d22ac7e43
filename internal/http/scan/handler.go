package scan

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mfigueiredo/ledgerhawk/internal/inference"
	"github.com/mfigueiredo/ledgerhawk/internal/scan"
)

type Handler struct {
	svc *scan.Service
}

func NewHandler(svc *scan.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.run)
}

type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

func (h *Handler) run(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.RunScan(r.Context())
	if err != nil {
		writeScanError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(result); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// writeScanError maps provider failures onto statuses the caller can act
// on: 503 means fix the deployment, 429 means back off and retry, 502
// means the provider misbehaved and a retry may succeed.
func writeScanError(w http.ResponseWriter, err error) {
	var (
		status int
		resp   errorResponse
	)

	var providerErr *inference.ProviderError

	var malformedErr *inference.MalformedResponseError

	switch {
	case errors.Is(err, inference.ErrNotConfigured):
		status = http.StatusServiceUnavailable
		resp = errorResponse{Error: "inference provider is not configured", Detail: "set INFERENCE_API_KEY"}
	case errors.Is(err, inference.ErrRateLimited):
		status = http.StatusTooManyRequests
		resp = errorResponse{Error: "inference provider rate limit exceeded"}
	case errors.Is(err, inference.ErrUnauthorized):
		status = http.StatusBadGateway
		resp = errorResponse{Error: "inference provider rejected the credentials"}
	case errors.Is(err, inference.ErrEmptyResponse):
		status = http.StatusBadGateway
		resp = errorResponse{Error: "inference provider returned an empty response"}
	case errors.As(err, &providerErr):
		status = http.StatusBadGateway
		resp = errorResponse{Error: "inference provider request failed", Detail: providerErr.Error()}
	case errors.As(err, &malformedErr):
		status = http.StatusBadGateway
		resp = errorResponse{Error: "inference provider returned an unparseable response"}
	default:
		slog.Error("scan failed", "error", err)

		status = http.StatusInternalServerError
		resp = errorResponse{Error: "internal error"}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
