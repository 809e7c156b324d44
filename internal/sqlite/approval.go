package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ganot/grantflow/internal/domain/approval"
	"github.com/ganot/grantflow/internal/repository"
)

// ApprovalRepository implements approval.Repository for SQLite
type ApprovalRepository struct {
	db *DB
}

// NewApprovalRepository creates a new ApprovalRepository
func NewApprovalRepository(db *DB) *ApprovalRepository {
	return &ApprovalRepository{db: db}
}

const approvalColumns = `id, client_id, status, approver, notes, decided_at, created_at, updated_at`

// Create inserts a new approval
func (r *ApprovalRepository) Create(ctx context.Context, clientID string, a *approval.Approval) error {
	query := `
		INSERT INTO approvals (id, client_id, status, approver, notes, decided_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		a.ID,
		clientID,
		a.Status,
		a.Approver,
		a.Notes,
		a.DecidedAt,
		a.CreatedAt.UTC(),
		a.UpdatedAt.UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("failed to create approval: %w", err)
	}
	a.ClientID = clientID
	return nil
}

// Get retrieves an approval by ID
func (r *ApprovalRepository) Get(ctx context.Context, clientID, id string) (*approval.Approval, error) {
	query := `SELECT ` + approvalColumns + ` FROM approvals WHERE id = ? AND client_id = ?`

	a, err := scanApproval(r.db.QueryRowContext(ctx, query, id, clientID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get approval: %w", err)
	}
	return a, nil
}

// Update records a decision. Only pending approvals are written.
func (r *ApprovalRepository) Update(ctx context.Context, clientID string, a *approval.Approval) error {
	query := `
		UPDATE approvals
		SET status = ?, approver = ?, notes = ?, decided_at = ?, updated_at = ?
		WHERE id = ? AND client_id = ? AND status = 'pending'
	`
	result, err := r.db.ExecContext(ctx, query,
		a.Status,
		a.Approver,
		a.Notes,
		a.DecidedAt,
		a.UpdatedAt.UTC(),
		a.ID,
		clientID,
	)
	if err != nil {
		return fmt.Errorf("failed to update approval: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected > 0 {
		return nil
	}

	var exists bool
	checkQuery := `SELECT EXISTS(SELECT 1 FROM approvals WHERE id = ? AND client_id = ?)`
	if err := r.db.QueryRowContext(ctx, checkQuery, a.ID, clientID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check approval existence: %w", err)
	}
	if !exists {
		return repository.ErrNotFound
	}
	return repository.ErrConflict
}

// ListByIDs returns the approvals among ids that exist, in id order
func (r *ApprovalRepository) ListByIDs(ctx context.Context, clientID string, ids []string) ([]approval.Approval, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf(`SELECT %s FROM approvals WHERE client_id = ? AND id IN (%s) ORDER BY id`,
		approvalColumns, placeholders(len(ids)))
	args := []any{clientID}
	for _, id := range ids {
		args = append(args, id)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list approvals: %w", err)
	}
	defer rows.Close()

	var approvals []approval.Approval
	for rows.Next() {
		a, err := scanApproval(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan approval: %w", err)
		}
		approvals = append(approvals, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating approval rows: %w", err)
	}
	return approvals, nil
}

func scanApproval(row scanner) (*approval.Approval, error) {
	var a approval.Approval
	var decidedAt sql.NullTime
	if err := row.Scan(
		&a.ID,
		&a.ClientID,
		&a.Status,
		&a.Approver,
		&a.Notes,
		&decidedAt,
		&a.CreatedAt,
		&a.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if decidedAt.Valid {
		a.DecidedAt = &decidedAt.Time
	}
	return &a, nil
}
