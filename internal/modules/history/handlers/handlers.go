// Package handlers provides HTTP handlers for price history operations.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/aristath/riskcalc/internal/modules/history"
	"github.com/aristath/riskcalc/pkg/formulas"
	"github.com/rs/zerolog"
)

// Handler handles price history HTTP requests
type Handler struct {
	store  *history.Store
	source *history.Source
	log    zerolog.Logger
}

// NewHandler creates a new history handler. source may be nil, in which
// case refresh requests are rejected.
func NewHandler(store *history.Store, source *history.Source, log zerolog.Logger) *Handler {
	return &Handler{
		store:  store,
		source: source,
		log:    log.With().Str("handler", "history").Logger(),
	}
}

// HandleGetHistory handles GET /api/history/{symbol}
func (h *Handler) HandleGetHistory(w http.ResponseWriter, r *http.Request, symbol string) {
	limit := 252
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			http.Error(w, "Invalid limit parameter", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	series, err := h.store.CloseSeries(symbol, limit)
	if err != nil {
		h.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to load history")
		http.Error(w, "Failed to load history", http.StatusInternalServerError)
		return
	}

	if series.Len() == 0 {
		http.Error(w, "No history for symbol", http.StatusNotFound)
		return
	}

	points := make([]map[string]interface{}, series.Len())
	for i, p := range series.Points {
		points[i] = map[string]interface{}{
			"date":  p.Date.Format("2006-01-02"),
			"close": p.Close,
		}
	}

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"symbol":  symbol,
			"points":  points,
			"returns": formulas.CalculateReturns(series.Closes()),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleListSymbols handles GET /api/history
func (h *Handler) HandleListSymbols(w http.ResponseWriter, r *http.Request) {
	symbols, err := h.store.Symbols()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list symbols")
		http.Error(w, "Failed to list symbols", http.StatusInternalServerError)
		return
	}

	if symbols == nil {
		symbols = []string{}
	}

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"symbols": symbols,
			"count":   len(symbols),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleRefresh handles POST /api/history/{symbol}/refresh
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request, symbol string) {
	if h.source == nil {
		http.Error(w, "Refresh is not available", http.StatusServiceUnavailable)
		return
	}

	if err := h.source.Refresh(symbol); err != nil {
		h.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to refresh history")
		http.Error(w, "Failed to refresh history", http.StatusBadGateway)
		return
	}

	count, err := h.store.Count(symbol)
	if err != nil {
		h.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to count refreshed prices")
	}

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"symbol":       symbol,
			"observations": count,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
