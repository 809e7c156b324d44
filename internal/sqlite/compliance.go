package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ganot/grantflow/internal/domain/compliance"
	"github.com/ganot/grantflow/internal/repository"
)

// CheckRepository implements compliance.Repository for SQLite
type CheckRepository struct {
	db *DB
}

// NewCheckRepository creates a new CheckRepository
func NewCheckRepository(db *DB) *CheckRepository {
	return &CheckRepository{db: db}
}

const checkColumns = `
	id, grant_id, check_type, status, reviewed_at, reviewed_by, findings, evidence_doc_ids,
	created_at, updated_at`

// CreateBatch inserts checks in a single transaction
func (r *CheckRepository) CreateBatch(ctx context.Context, clientID string, checks []compliance.Check) error {
	if len(checks) == 0 {
		return nil
	}
	query := `
		INSERT INTO compliance_checks (
			id, client_id, grant_id, check_type, status, reviewed_at, reviewed_by,
			findings, evidence_doc_ids, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	return r.db.withTx(ctx, func(tx *sql.Tx) error {
		for _, c := range checks {
			evidence, err := encodeJSON(nonNilStrings(c.EvidenceDocIDs))
			if err != nil {
				return err
			}
			_, err = tx.ExecContext(ctx, query,
				c.ID,
				clientID,
				c.GrantID,
				c.Type,
				c.Status,
				c.ReviewedAt,
				c.ReviewedBy,
				c.Findings,
				evidence,
				c.CreatedAt.UTC(),
				c.UpdatedAt.UTC(),
			)
			if err != nil {
				switch {
				case isForeignKeyViolation(err):
					return repository.ErrForeignKeyViolation
				case isUniqueViolation(err):
					return repository.ErrDuplicate
				}
				return fmt.Errorf("failed to create compliance check: %w", err)
			}
		}
		return nil
	})
}

// Get retrieves a check by ID
func (r *CheckRepository) Get(ctx context.Context, clientID, id string) (*compliance.Check, error) {
	query := `SELECT ` + checkColumns + ` FROM compliance_checks WHERE id = ? AND client_id = ?`

	c, err := scanCheck(r.db.QueryRowContext(ctx, query, id, clientID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get compliance check: %w", err)
	}
	return c, nil
}

// Update records a review outcome on a check
func (r *CheckRepository) Update(ctx context.Context, clientID string, check *compliance.Check) error {
	evidence, err := encodeJSON(nonNilStrings(check.EvidenceDocIDs))
	if err != nil {
		return err
	}
	query := `
		UPDATE compliance_checks
		SET status = ?, reviewed_at = ?, reviewed_by = ?, findings = ?, evidence_doc_ids = ?, updated_at = ?
		WHERE id = ? AND client_id = ?
	`
	result, err := r.db.ExecContext(ctx, query,
		check.Status,
		check.ReviewedAt,
		check.ReviewedBy,
		check.Findings,
		evidence,
		check.UpdatedAt.UTC(),
		check.ID,
		clientID,
	)
	if err != nil {
		return fmt.Errorf("failed to update compliance check: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// ListByGrant returns a grant's checks in creation order
func (r *CheckRepository) ListByGrant(ctx context.Context, clientID, grantID string) ([]compliance.Check, error) {
	query := `SELECT ` + checkColumns + ` FROM compliance_checks WHERE client_id = ? AND grant_id = ? ORDER BY rowid`

	rows, err := r.db.QueryContext(ctx, query, clientID, grantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list compliance checks: %w", err)
	}
	defer rows.Close()

	var checks []compliance.Check
	for rows.Next() {
		c, err := scanCheck(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan compliance check: %w", err)
		}
		checks = append(checks, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating compliance check rows: %w", err)
	}
	return checks, nil
}

func scanCheck(row scanner) (*compliance.Check, error) {
	var c compliance.Check
	var reviewedAt sql.NullTime
	var reviewedBy sql.NullString
	var evidence string
	if err := row.Scan(
		&c.ID,
		&c.GrantID,
		&c.Type,
		&c.Status,
		&reviewedAt,
		&reviewedBy,
		&c.Findings,
		&evidence,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if reviewedAt.Valid {
		c.ReviewedAt = &reviewedAt.Time
	}
	if reviewedBy.Valid {
		c.ReviewedBy = &reviewedBy.String
	}
	if err := decodeJSON(evidence, &c.EvidenceDocIDs); err != nil {
		return nil, err
	}
	return &c, nil
}
