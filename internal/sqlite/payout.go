package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ganot/grantflow/internal/domain/grant"
	"github.com/ganot/grantflow/internal/domain/payout"
	"github.com/ganot/grantflow/internal/repository"
)

// PayoutRepository implements payout.Repository for SQLite
type PayoutRepository struct {
	db *DB
}

// NewPayoutRepository creates a new PayoutRepository
func NewPayoutRepository(db *DB) *PayoutRepository {
	return &PayoutRepository{db: db}
}

const payoutColumns = `
	id, client_id, grant_id, entity_id, request_id, amount, currency, payout_date, method,
	status, linked_payment_id, submit_attempts, created_at, updated_at`

// Create validates p against the grant's payout history and inserts it, both inside one
// transaction so concurrent creates cannot both pass validation.
func (r *PayoutRepository) Create(ctx context.Context, clientID string, p *payout.Payout, validate func(history []payout.Payout) error) error {
	query := `
		INSERT INTO payouts (
			id, client_id, grant_id, entity_id, request_id, amount, currency, payout_date,
			method, status, linked_payment_id, submit_attempts, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	return r.db.withTx(ctx, func(tx *sql.Tx) error {
		if validate != nil {
			history, err := listPayouts(ctx, tx,
				`SELECT `+payoutColumns+` FROM payouts WHERE client_id = ? AND grant_id = ? ORDER BY payout_date, created_at`,
				clientID, p.GrantID)
			if err != nil {
				return err
			}
			if err := validate(history); err != nil {
				return err
			}
		}

		_, err := tx.ExecContext(ctx, query,
			p.ID,
			clientID,
			p.GrantID,
			p.EntityID,
			p.RequestID,
			p.Amount,
			p.Currency,
			payout.Day(p.PayoutDate).Format(time.DateOnly),
			p.Method,
			p.Status,
			p.LinkedPaymentID,
			p.SubmitAttempts,
			p.CreatedAt.UTC(),
			p.UpdatedAt.UTC(),
		)
		if err != nil {
			switch {
			case isUniqueViolation(err):
				return repository.ErrDuplicate
			case isForeignKeyViolation(err):
				return repository.ErrForeignKeyViolation
			}
			return fmt.Errorf("failed to create payout: %w", err)
		}
		p.ClientID = clientID
		return nil
	})
}

// Get retrieves a payout by ID
func (r *PayoutRepository) Get(ctx context.Context, clientID, id string) (*payout.Payout, error) {
	query := `SELECT ` + payoutColumns + ` FROM payouts WHERE id = ? AND client_id = ?`
	return r.getOne(ctx, query, id, clientID)
}

// GetByRequestID retrieves the payout created for a grant under requestID
func (r *PayoutRepository) GetByRequestID(ctx context.Context, clientID, grantID, requestID string) (*payout.Payout, error) {
	if requestID == "" {
		return nil, repository.ErrNotFound
	}
	query := `SELECT ` + payoutColumns + ` FROM payouts WHERE client_id = ? AND grant_id = ? AND request_id = ?`
	return r.getOne(ctx, query, clientID, grantID, requestID)
}

func (r *PayoutRepository) getOne(ctx context.Context, query string, args ...any) (*payout.Payout, error) {
	p, err := scanPayout(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get payout: %w", err)
	}
	return p, nil
}

// Update writes p's status, payment link and submit attempts if the stored status is still expectedStatus
func (r *PayoutRepository) Update(ctx context.Context, clientID string, p *payout.Payout, expectedStatus payout.Status) error {
	query := `
		UPDATE payouts
		SET status = ?, linked_payment_id = ?, submit_attempts = ?, updated_at = ?
		WHERE id = ? AND client_id = ? AND status = ?
	`
	result, err := r.db.ExecContext(ctx, query,
		p.Status,
		p.LinkedPaymentID,
		p.SubmitAttempts,
		p.UpdatedAt.UTC(),
		p.ID,
		clientID,
		expectedStatus,
	)
	if err != nil {
		return fmt.Errorf("failed to update payout: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected > 0 {
		return nil
	}

	var exists bool
	checkQuery := `SELECT EXISTS(SELECT 1 FROM payouts WHERE id = ? AND client_id = ?)`
	if err := r.db.QueryRowContext(ctx, checkQuery, p.ID, clientID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check payout existence: %w", err)
	}
	if !exists {
		return repository.ErrNotFound
	}
	return repository.ErrConflict
}

// ListByGrant returns a grant's payouts ordered by date
func (r *PayoutRepository) ListByGrant(ctx context.Context, clientID, grantID string) ([]payout.Payout, error) {
	return listPayouts(ctx, r.db,
		`SELECT `+payoutColumns+` FROM payouts WHERE client_id = ? AND grant_id = ? ORDER BY payout_date, created_at`,
		clientID, grantID)
}

// PayoutTotals implements grant.PayoutLedger
func (r *PayoutRepository) PayoutTotals(ctx context.Context, clientID, grantID string) (grant.PayoutTotals, error) {
	payouts, err := r.ListByGrant(ctx, clientID, grantID)
	if err != nil {
		return grant.PayoutTotals{}, err
	}
	var totals grant.PayoutTotals
	for _, p := range payouts {
		switch p.Status {
		case payout.StatusConfirmed:
			totals.Confirmed = totals.Confirmed.Add(p.Amount)
			totals.ConfirmedCount++
		case payout.StatusScheduled, payout.StatusSent:
			totals.InFlight = totals.InFlight.Add(p.Amount)
			totals.InFlightCount++
		}
	}
	return totals, nil
}

// ListByStatus returns all payouts of a client in status, ordered by date
func (r *PayoutRepository) ListByStatus(ctx context.Context, clientID string, status payout.Status) ([]payout.Payout, error) {
	return listPayouts(ctx, r.db,
		`SELECT `+payoutColumns+` FROM payouts WHERE client_id = ? AND status = ? ORDER BY payout_date, created_at`,
		clientID, status)
}

func listPayouts(ctx context.Context, q querier, query string, args ...any) ([]payout.Payout, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list payouts: %w", err)
	}
	defer rows.Close()

	payouts := []payout.Payout{}
	for rows.Next() {
		p, err := scanPayout(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payout: %w", err)
		}
		payouts = append(payouts, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating payout rows: %w", err)
	}
	return payouts, nil
}

func scanPayout(row scanner) (*payout.Payout, error) {
	var p payout.Payout
	var payoutDate string
	var linked sql.NullString
	if err := row.Scan(
		&p.ID,
		&p.ClientID,
		&p.GrantID,
		&p.EntityID,
		&p.RequestID,
		&p.Amount,
		&p.Currency,
		&payoutDate,
		&p.Method,
		&p.Status,
		&linked,
		&p.SubmitAttempts,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	date, err := time.Parse(time.DateOnly, payoutDate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse payout date %q: %w", payoutDate, err)
	}
	p.PayoutDate = date
	if linked.Valid {
		p.LinkedPaymentID = &linked.String
	}
	return &p, nil
}
