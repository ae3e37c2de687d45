package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aristath/riskcalc/internal/modules/reports"
	"github.com/aristath/riskcalc/internal/modules/risk"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func setupTestHandler(t *testing.T) (*Handler, *reports.Repository) {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	log := zerolog.New(nil).Level(zerolog.Disabled)
	repo := reports.NewRepository(db, log)
	require.NoError(t, repo.Migrate())

	return NewHandler(repo, log), repo
}

func setupTestRouter(t *testing.T) (*chi.Mux, *reports.Repository) {
	t.Helper()

	handler, repo := setupTestHandler(t)
	router := chi.NewRouter()
	router.Route("/api", func(r chi.Router) {
		handler.RegisterRoutes(r)
	})
	return router, repo
}

func saveSample(t *testing.T, repo *reports.Repository) string {
	t.Helper()

	id, err := repo.Save(
		risk.Request{
			Positions:  map[string]float64{"AAPL": 1},
			Method:     risk.MethodHistorical,
			Confidence: 0.95,
			Investment: 10000,
			Horizon:    1,
		},
		&risk.Report{
			Result: &risk.Result{
				Method:     risk.MethodHistorical,
				Confidence: 0.95,
				Horizon:    1,
				Investment: 10000,
				VaRAmount:  68.235,
				VaRPercent: 0.68235,
			},
			Symbols:      []string{"AAPL"},
			Observations: 3,
		},
	)
	require.NoError(t, err)
	return id
}

func TestHandleListReports(t *testing.T) {
	router, repo := setupTestRouter(t)
	saveSample(t, repo)
	saveSample(t, repo)

	req := httptest.NewRequest(http.MethodGet, "/api/reports", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Data struct {
			Reports []reports.StoredReport `json:"reports"`
			Count   int                    `json:"count"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, 2, response.Data.Count)
	assert.Len(t, response.Data.Reports, 2)
}

func TestHandleListReportsEmpty(t *testing.T) {
	router, _ := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/reports", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Data struct {
			Reports []reports.StoredReport `json:"reports"`
			Count   int                    `json:"count"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, 0, response.Data.Count)
	assert.NotNil(t, response.Data.Reports)
}

func TestHandleListReportsInvalidLimit(t *testing.T) {
	router, _ := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/reports?limit=abc", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleGetReport(t *testing.T) {
	router, repo := setupTestRouter(t)
	id := saveSample(t, repo)

	req := httptest.NewRequest(http.MethodGet, "/api/reports/"+id, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Data reports.StoredReport `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, id, response.Data.ID)
	require.NotNil(t, response.Data.Report)
	assert.Equal(t, []string{"AAPL"}, response.Data.Report.Symbols)
}

func TestHandleGetReportNotFound(t *testing.T) {
	router, _ := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/reports/missing", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleDeleteReport(t *testing.T) {
	router, repo := setupTestRouter(t)
	id := saveSample(t, repo)

	req := httptest.NewRequest(http.MethodDelete, "/api/reports/"+id, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	_, err := repo.Get(id)
	assert.ErrorIs(t, err, reports.ErrNotFound)
}

func TestHandleDeleteReportNotFound(t *testing.T) {
	router, _ := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodDelete, "/api/reports/missing", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
