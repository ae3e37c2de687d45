// Package handlers provides HTTP handlers for value-at-risk operations.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/aristath/riskcalc/internal/modules/returns"
	"github.com/aristath/riskcalc/internal/modules/risk"
	"github.com/rs/zerolog"
)

// ReportSaver persists computed reports for later retrieval
type ReportSaver interface {
	Save(req risk.Request, report *risk.Report) (string, error)
}

// Handler handles value-at-risk HTTP requests
type Handler struct {
	service *risk.Service
	reports ReportSaver
	log     zerolog.Logger
}

// NewHandler creates a new risk handler. reports may be nil, in which case
// computed reports are not persisted.
func NewHandler(service *risk.Service, reports ReportSaver, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		reports: reports,
		log:     log.With().Str("handler", "risk").Logger(),
	}
}

// HandleComputeVaR handles POST /api/risk/var
func (h *Handler) HandleComputeVaR(w http.ResponseWriter, r *http.Request) {
	var req risk.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if len(req.Positions) == 0 {
		http.Error(w, "At least one position is required", http.StatusBadRequest)
		return
	}

	report, err := h.service.Compute(req)
	if err != nil {
		h.log.Error().Err(err).Str("method", string(req.Method)).Msg("VaR computation failed")
		http.Error(w, err.Error(), statusForError(err))
		return
	}

	reportID := ""
	if h.reports != nil {
		id, err := h.reports.Save(req, report)
		if err != nil {
			// Persistence is best-effort; the calculation result still goes out
			h.log.Warn().Err(err).Msg("Failed to save report")
		} else {
			reportID = id
		}
	}

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"report_id": reportID,
			"report":    report,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// statusForError maps computation failures to HTTP status codes. Caller
// mistakes are 400s, upstream data failures are 502s.
func statusForError(err error) int {
	switch {
	case errors.Is(err, risk.ErrInvalidConfidence),
		errors.Is(err, risk.ErrInvalidAmount),
		errors.Is(err, risk.ErrInvalidHorizon),
		errors.Is(err, risk.ErrEmptySeries),
		errors.Is(err, risk.ErrUnsupportedMethod),
		errors.Is(err, risk.ErrInvalidDateRange),
		errors.Is(err, returns.ErrInvalidWeight),
		errors.Is(err, returns.ErrUnknownInstrument):
		return http.StatusBadRequest
	case errors.Is(err, returns.ErrInsufficientData),
		errors.Is(err, returns.ErrMisalignedSeries):
		return http.StatusUnprocessableEntity
	case errors.Is(err, risk.ErrPriceSource):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
