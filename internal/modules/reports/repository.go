// Package reports persists completed value-at-risk calculations so past
// results can be listed and re-inspected.
package reports

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aristath/riskcalc/internal/modules/risk"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

// ErrNotFound indicates the requested report does not exist
var ErrNotFound = errors.New("report not found")

// StoredReport is a persisted calculation with its identifying metadata
type StoredReport struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	Method     string    `json:"method"`
	Confidence float64   `json:"confidence"`
	Horizon    int       `json:"horizon"`
	Investment float64   `json:"investment"`
	VaRAmount  float64   `json:"var_amount"`
	VaRPercent float64   `json:"var_percent"`

	// Request and Report are only populated on single-report reads
	Request *risk.Request `json:"request,omitempty"`
	Report  *risk.Report  `json:"report,omitempty"`
}

// Repository handles CRUD operations for stored VaR reports
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new report repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "reports").Logger(),
	}
}

// Migrate creates the var_reports table if it does not exist
func (r *Repository) Migrate() error {
	_, err := r.db.Exec(`
		CREATE TABLE IF NOT EXISTS var_reports (
			uuid TEXT PRIMARY KEY,
			created_at INTEGER NOT NULL,
			method TEXT NOT NULL,
			confidence REAL NOT NULL,
			horizon INTEGER NOT NULL,
			investment REAL NOT NULL,
			var_amount REAL NOT NULL,
			var_percent REAL NOT NULL,
			request_blob BLOB NOT NULL,
			report_blob BLOB NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_var_reports_created ON var_reports(created_at DESC);
	`)
	if err != nil {
		return fmt.Errorf("failed to migrate var_reports: %w", err)
	}
	return nil
}

// Save stores a completed calculation and returns its new report ID.
// The full request and report are serialized as msgpack blobs; the
// scalar columns exist for cheap listing.
func (r *Repository) Save(req risk.Request, report *risk.Report) (string, error) {
	requestBlob, err := msgpack.Marshal(&req)
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	reportBlob, err := msgpack.Marshal(report)
	if err != nil {
		return "", fmt.Errorf("failed to encode report: %w", err)
	}

	id := uuid.New().String()
	_, err = r.db.Exec(`
		INSERT INTO var_reports
		(uuid, created_at, method, confidence, horizon, investment, var_amount, var_percent, request_blob, report_blob)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		id,
		time.Now().Unix(),
		string(report.Result.Method),
		report.Result.Confidence,
		report.Result.Horizon,
		report.Result.Investment,
		report.Result.VaRAmount,
		report.Result.VaRPercent,
		requestBlob,
		reportBlob,
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert report: %w", err)
	}

	r.log.Debug().Str("id", id).Str("method", string(report.Result.Method)).Msg("Report saved")

	return id, nil
}

// List returns the most recent reports, newest first, without blobs
func (r *Repository) List(limit int) ([]StoredReport, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.Query(`
		SELECT uuid, created_at, method, confidence, horizon, investment, var_amount, var_percent
		FROM var_reports
		ORDER BY created_at DESC, uuid
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	defer rows.Close()

	var reports []StoredReport
	for rows.Next() {
		var report StoredReport
		var createdAt int64

		if err := rows.Scan(
			&report.ID,
			&createdAt,
			&report.Method,
			&report.Confidence,
			&report.Horizon,
			&report.Investment,
			&report.VaRAmount,
			&report.VaRPercent,
		); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}

		report.CreatedAt = time.Unix(createdAt, 0).UTC()
		reports = append(reports, report)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reports: %w", err)
	}

	return reports, nil
}

// Get fetches one report by ID including the full request and result
func (r *Repository) Get(id string) (*StoredReport, error) {
	var report StoredReport
	var createdAt int64
	var requestBlob, reportBlob []byte

	err := r.db.QueryRow(`
		SELECT uuid, created_at, method, confidence, horizon, investment, var_amount, var_percent, request_blob, report_blob
		FROM var_reports
		WHERE uuid = ?
	`, id).Scan(
		&report.ID,
		&createdAt,
		&report.Method,
		&report.Confidence,
		&report.Horizon,
		&report.Investment,
		&report.VaRAmount,
		&report.VaRPercent,
		&requestBlob,
		&reportBlob,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query report: %w", err)
	}

	report.CreatedAt = time.Unix(createdAt, 0).UTC()

	var req risk.Request
	if err := msgpack.Unmarshal(requestBlob, &req); err != nil {
		return nil, fmt.Errorf("failed to decode request blob: %w", err)
	}
	report.Request = &req

	var full risk.Report
	if err := msgpack.Unmarshal(reportBlob, &full); err != nil {
		return nil, fmt.Errorf("failed to decode report blob: %w", err)
	}
	report.Report = &full

	return &report, nil
}

// Delete removes a report by ID
func (r *Repository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM var_reports WHERE uuid = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete report: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	return nil
}
