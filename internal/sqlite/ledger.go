package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/ganot/grantflow/internal/domain/budget"
	"github.com/ganot/grantflow/internal/domain/payout"
	"github.com/ganot/grantflow/internal/repository"
)

// LedgerReader implements budget.SnapshotReader for SQLite
type LedgerReader struct {
	db *DB
}

// NewLedgerReader creates a new LedgerReader
func NewLedgerReader(db *DB) *LedgerReader {
	return &LedgerReader{db: db}
}

// Snapshot reads the budget, grants, payouts and programs of (entity, year) inside one
// transaction, so a payout created concurrently is either fully in or fully out.
func (r *LedgerReader) Snapshot(ctx context.Context, clientID, entityID string, year int) (*budget.Snapshot, error) {
	snap := &budget.Snapshot{}
	err := r.db.withTx(ctx, func(tx *sql.Tx) error {
		b, err := getBudget(ctx, tx, clientID, entityID, year)
		switch {
		case errors.Is(err, repository.ErrNotFound):
		case err != nil:
			return err
		default:
			snap.Budget = b
		}

		snap.Grants, err = queryGrants(ctx, tx,
			`SELECT `+grantColumns+` FROM grants g WHERE g.client_id = ? AND g.entity_id = ? AND g.created_year = ? ORDER BY g.created_at, g.id`,
			clientID, entityID, year)
		if err != nil {
			return err
		}

		snap.Payouts, err = listPayouts(ctx, tx,
			`SELECT `+payoutColumns+` FROM payouts
			WHERE client_id = ? AND grant_id IN (
				SELECT id FROM grants WHERE client_id = ? AND entity_id = ? AND created_year = ?
			)
			ORDER BY payout_date, created_at`,
			clientID, clientID, entityID, year)
		if err != nil {
			return err
		}

		snap.Programs, err = listPrograms(ctx, tx, clientID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// ScheduledPayouts returns the entity's scheduled payouts ordered by date
func (r *LedgerReader) ScheduledPayouts(ctx context.Context, clientID, entityID string) ([]payout.Payout, error) {
	return listPayouts(ctx, r.db,
		`SELECT `+payoutColumns+` FROM payouts WHERE client_id = ? AND entity_id = ? AND status = ? ORDER BY payout_date, created_at`,
		clientID, entityID, payout.StatusScheduled)
}
