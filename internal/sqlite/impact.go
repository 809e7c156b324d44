package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ganot/grantflow/internal/domain/impact"
	"github.com/ganot/grantflow/internal/repository"
)

// ReportRepository implements impact.Repository for SQLite
type ReportRepository struct {
	db *DB
}

// NewReportRepository creates a new ReportRepository
func NewReportRepository(db *DB) *ReportRepository {
	return &ReportRepository{db: db}
}

const reportColumns = `
	id, client_id, grant_id, entity_id, program_id, period, due_date, status, narrative, metrics,
	submitted_at, published_at, created_at, updated_at`

// Create inserts a new impact report
func (r *ReportRepository) Create(ctx context.Context, clientID string, rep *impact.Report) error {
	metrics, err := encodeJSON(metricsOrEmpty(rep.Metrics))
	if err != nil {
		return err
	}
	query := `
		INSERT INTO impact_reports (
			id, client_id, grant_id, entity_id, program_id, period, due_date, status, narrative,
			metrics, submitted_at, published_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.ExecContext(ctx, query,
		rep.ID,
		clientID,
		rep.GrantID,
		rep.EntityID,
		rep.ProgramID,
		rep.Period,
		dateOrNil(rep.DueDate),
		rep.Status,
		rep.Narrative,
		metrics,
		rep.SubmittedAt,
		rep.PublishedAt,
		rep.CreatedAt.UTC(),
		rep.UpdatedAt.UTC(),
	)
	if err != nil {
		switch {
		case isForeignKeyViolation(err):
			return repository.ErrForeignKeyViolation
		case isUniqueViolation(err):
			return repository.ErrDuplicate
		}
		return fmt.Errorf("failed to create impact report: %w", err)
	}
	rep.ClientID = clientID
	return nil
}

// Get retrieves an impact report by ID
func (r *ReportRepository) Get(ctx context.Context, clientID, id string) (*impact.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM impact_reports WHERE id = ? AND client_id = ?`

	rep, err := scanReport(r.db.QueryRowContext(ctx, query, id, clientID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get impact report: %w", err)
	}
	return rep, nil
}

// Update writes rep if the stored status is still expectedStatus
func (r *ReportRepository) Update(ctx context.Context, clientID string, rep *impact.Report, expectedStatus impact.Status) error {
	metrics, err := encodeJSON(metricsOrEmpty(rep.Metrics))
	if err != nil {
		return err
	}
	query := `
		UPDATE impact_reports
		SET due_date = ?, status = ?, narrative = ?, metrics = ?, submitted_at = ?,
		    published_at = ?, updated_at = ?
		WHERE id = ? AND client_id = ? AND status = ?
	`
	result, err := r.db.ExecContext(ctx, query,
		dateOrNil(rep.DueDate),
		rep.Status,
		rep.Narrative,
		metrics,
		rep.SubmittedAt,
		rep.PublishedAt,
		rep.UpdatedAt.UTC(),
		rep.ID,
		clientID,
		expectedStatus,
	)
	if err != nil {
		return fmt.Errorf("failed to update impact report: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected > 0 {
		return nil
	}

	var exists bool
	checkQuery := `SELECT EXISTS(SELECT 1 FROM impact_reports WHERE id = ? AND client_id = ?)`
	if err := r.db.QueryRowContext(ctx, checkQuery, rep.ID, clientID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check impact report existence: %w", err)
	}
	if !exists {
		return repository.ErrNotFound
	}
	return repository.ErrConflict
}

// List returns reports matching opts, by due date then creation
func (r *ReportRepository) List(ctx context.Context, clientID string, opts impact.ListOptions) ([]impact.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM impact_reports WHERE client_id = ?`
	args := []any{clientID}

	if opts.GrantID != nil {
		query += " AND grant_id = ?"
		args = append(args, *opts.GrantID)
	}
	if opts.ProgramID != nil {
		query += " AND program_id = ?"
		args = append(args, *opts.ProgramID)
	}
	if len(opts.Statuses) > 0 {
		query += fmt.Sprintf(" AND status IN (%s)", placeholders(len(opts.Statuses)))
		for _, s := range opts.Statuses {
			args = append(args, s)
		}
	}
	query += " ORDER BY due_date IS NULL, due_date, created_at"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list impact reports: %w", err)
	}
	defer rows.Close()

	var reports []impact.Report
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan impact report: %w", err)
		}
		reports = append(reports, *rep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating impact report rows: %w", err)
	}
	return reports, nil
}

func scanReport(row scanner) (*impact.Report, error) {
	var rep impact.Report
	var programID, dueDate sql.NullString
	var submittedAt, publishedAt sql.NullTime
	var metrics string
	if err := row.Scan(
		&rep.ID,
		&rep.ClientID,
		&rep.GrantID,
		&rep.EntityID,
		&programID,
		&rep.Period,
		&dueDate,
		&rep.Status,
		&rep.Narrative,
		&metrics,
		&submittedAt,
		&publishedAt,
		&rep.CreatedAt,
		&rep.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if programID.Valid {
		rep.ProgramID = &programID.String
	}
	if dueDate.Valid {
		d, err := time.Parse(time.DateOnly, dueDate.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse due date %q: %w", dueDate.String, err)
		}
		rep.DueDate = &d
	}
	if submittedAt.Valid {
		rep.SubmittedAt = &submittedAt.Time
	}
	if publishedAt.Valid {
		rep.PublishedAt = &publishedAt.Time
	}
	rep.Metrics = []impact.Metric{}
	if err := decodeJSON(metrics, &rep.Metrics); err != nil {
		return nil, err
	}
	return &rep, nil
}

func dateOrNil(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.DateOnly)
}

func metricsOrEmpty(m []impact.Metric) []impact.Metric {
	if m == nil {
		return []impact.Metric{}
	}
	return m
}
