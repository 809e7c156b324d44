package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ganot/grantflow/internal/domain/grant"
	"github.com/ganot/grantflow/internal/repository"
	"github.com/shopspring/decimal"
)

// GrantRepository implements grant.Repository for SQLite
type GrantRepository struct {
	db *DB
}

// NewGrantRepository creates a new GrantRepository
func NewGrantRepository(db *DB) *GrantRepository {
	return &GrantRepository{db: db}
}

const grantColumns = `
	g.id, g.client_id, g.entity_id, g.program_id, g.grantee_name, g.grantee_country, g.purpose,
	g.requested_amount, g.approved_amount, g.currency, g.stage, g.compliance_status, g.docs_status,
	g.approval_ids, g.version, g.created_at, g.updated_at`

// Create inserts a new grant
func (r *GrantRepository) Create(ctx context.Context, clientID string, g *grant.Grant) error {
	approvalIDs, err := encodeJSON(nonNilStrings(g.ApprovalIDs))
	if err != nil {
		return err
	}

	query := `
		INSERT INTO grants (
			id, client_id, entity_id, program_id, grantee_name, grantee_country, purpose,
			requested_amount, approved_amount, currency, stage, compliance_status, docs_status,
			approval_ids, version, created_year, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	createdAt := g.CreatedAt.UTC()
	_, err = r.db.ExecContext(ctx, query,
		g.ID,
		clientID,
		g.EntityID,
		g.ProgramID,
		g.GranteeName,
		g.GranteeCountry,
		g.Purpose,
		g.RequestedAmount,
		nullDecimal(g.ApprovedAmount),
		g.Currency,
		g.Stage,
		g.ComplianceStatus,
		g.DocsStatus,
		approvalIDs,
		g.Version,
		createdAt.Year(),
		createdAt,
		g.UpdatedAt.UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("failed to create grant: %w", err)
	}

	g.ClientID = clientID
	return nil
}

// Get retrieves a grant by ID
func (r *GrantRepository) Get(ctx context.Context, clientID, id string) (*grant.Grant, error) {
	return getGrant(ctx, r.db, clientID, id)
}

func getGrant(ctx context.Context, q querier, clientID, id string) (*grant.Grant, error) {
	query := `SELECT ` + grantColumns + ` FROM grants g WHERE g.id = ? AND g.client_id = ?`

	g, err := scanGrant(q.QueryRowContext(ctx, query, id, clientID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get grant: %w", err)
	}
	return g, nil
}

// Update writes g with optimistic concurrency control on its stage and version
func (r *GrantRepository) Update(ctx context.Context, clientID string, g *grant.Grant, expectedStage grant.Stage, expectedVersion int64) error {
	approvalIDs, err := encodeJSON(nonNilStrings(g.ApprovalIDs))
	if err != nil {
		return err
	}

	query := `
		UPDATE grants
		SET program_id = ?, grantee_name = ?, grantee_country = ?, purpose = ?,
		    requested_amount = ?, approved_amount = ?, currency = ?, stage = ?,
		    compliance_status = ?, docs_status = ?, approval_ids = ?, version = ?, updated_at = ?
		WHERE id = ? AND client_id = ? AND stage = ? AND version = ?
	`
	result, err := r.db.ExecContext(ctx, query,
		g.ProgramID,
		g.GranteeName,
		g.GranteeCountry,
		g.Purpose,
		g.RequestedAmount,
		nullDecimal(g.ApprovedAmount),
		g.Currency,
		g.Stage,
		g.ComplianceStatus,
		g.DocsStatus,
		approvalIDs,
		g.Version,
		g.UpdatedAt.UTC(),
		g.ID,
		clientID,
		expectedStage,
		expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("failed to update grant: %w", err)
	}

	return r.checkAffected(ctx, result, clientID, g.ID)
}

func (r *GrantRepository) checkAffected(ctx context.Context, result sql.Result, clientID, id string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected > 0 {
		return nil
	}

	var exists bool
	checkQuery := `SELECT EXISTS(SELECT 1 FROM grants WHERE id = ? AND client_id = ?)`
	if err := r.db.QueryRowContext(ctx, checkQuery, id, clientID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check grant existence: %w", err)
	}
	if !exists {
		return repository.ErrNotFound
	}
	// Grant exists but moved on since it was read
	return repository.ErrConflict
}

// List returns grants matching the given options, newest first
func (r *GrantRepository) List(ctx context.Context, clientID string, opts grant.ListOptions) ([]grant.Grant, error) {
	query := `SELECT ` + grantColumns + ` FROM grants g WHERE g.client_id = ?`
	args := []any{clientID}

	if opts.EntityID != "" {
		query += " AND g.entity_id = ?"
		args = append(args, opts.EntityID)
	}
	if opts.ProgramID != nil {
		query += " AND g.program_id = ?"
		args = append(args, *opts.ProgramID)
	}
	if len(opts.Stages) > 0 {
		query += fmt.Sprintf(" AND g.stage IN (%s)", placeholders(len(opts.Stages)))
		for _, s := range opts.Stages {
			args = append(args, s)
		}
	}
	if opts.Year != 0 {
		query += " AND g.created_year = ?"
		args = append(args, opts.Year)
	}

	query += " ORDER BY g.created_at DESC, g.id"
	query, args = paginate(query, args, opts.Limit, opts.Offset)

	return queryGrants(ctx, r.db, query, args...)
}

func queryGrants(ctx context.Context, q querier, query string, args ...any) ([]grant.Grant, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list grants: %w", err)
	}
	defer rows.Close()

	var grants []grant.Grant
	for rows.Next() {
		g, err := scanGrant(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan grant: %w", err)
		}
		grants = append(grants, *g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating grant rows: %w", err)
	}
	return grants, nil
}

func scanGrant(row scanner, extra ...any) (*grant.Grant, error) {
	var g grant.Grant
	var programID sql.NullString
	var approved decimal.NullDecimal
	var approvalIDs string

	dest := []any{
		&g.ID,
		&g.ClientID,
		&g.EntityID,
		&programID,
		&g.GranteeName,
		&g.GranteeCountry,
		&g.Purpose,
		&g.RequestedAmount,
		&approved,
		&g.Currency,
		&g.Stage,
		&g.ComplianceStatus,
		&g.DocsStatus,
		&approvalIDs,
		&g.Version,
		&g.CreatedAt,
		&g.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}

	if programID.Valid {
		g.ProgramID = &programID.String
	}
	if approved.Valid {
		g.ApprovedAmount = &approved.Decimal
	}
	g.ApprovalIDs = []string{}
	if err := decodeJSON(approvalIDs, &g.ApprovalIDs); err != nil {
		return nil, err
	}
	return &g, nil
}

func nullDecimal(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func paginate(query string, args []any, limit, offset int) (string, []any) {
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	} else if offset > 0 {
		query += " LIMIT -1"
	}
	if offset > 0 {
		query += " OFFSET ?"
		args = append(args, offset)
	}
	return query, args
}
