package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ganot/grantflow/internal/domain/budget"
	"github.com/ganot/grantflow/internal/repository"
)

// BudgetRepository implements budget.Repository for SQLite
type BudgetRepository struct {
	db *DB
}

// NewBudgetRepository creates a new BudgetRepository
func NewBudgetRepository(db *DB) *BudgetRepository {
	return &BudgetRepository{db: db}
}

const budgetColumns = `id, client_id, entity_id, year, amount, currency, created_at, updated_at`

// Upsert stores the ceiling for (entity, year). An existing row keeps its id and creation time,
// which are copied back into b.
func (r *BudgetRepository) Upsert(ctx context.Context, clientID string, b *budget.Budget) error {
	query := `
		INSERT INTO budgets (id, client_id, entity_id, year, amount, currency, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (client_id, entity_id, year) DO UPDATE SET
			amount = excluded.amount,
			currency = excluded.currency,
			updated_at = excluded.updated_at
	`
	return r.db.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, query,
			b.ID,
			clientID,
			b.EntityID,
			b.Year,
			b.Amount,
			b.Currency,
			b.CreatedAt.UTC(),
			b.UpdatedAt.UTC(),
		)
		if err != nil {
			return fmt.Errorf("failed to upsert budget: %w", err)
		}
		stored, err := getBudget(ctx, tx, clientID, b.EntityID, b.Year)
		if err != nil {
			return err
		}
		*b = *stored
		return nil
	})
}

// Get retrieves the ceiling for (entity, year)
func (r *BudgetRepository) Get(ctx context.Context, clientID, entityID string, year int) (*budget.Budget, error) {
	return getBudget(ctx, r.db, clientID, entityID, year)
}

func getBudget(ctx context.Context, q querier, clientID, entityID string, year int) (*budget.Budget, error) {
	query := `SELECT ` + budgetColumns + ` FROM budgets WHERE client_id = ? AND entity_id = ? AND year = ?`

	b, err := scanBudget(q.QueryRowContext(ctx, query, clientID, entityID, year))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get budget: %w", err)
	}
	return b, nil
}

// List returns an entity's ceilings, latest year first
func (r *BudgetRepository) List(ctx context.Context, clientID, entityID string) ([]budget.Budget, error) {
	query := `SELECT ` + budgetColumns + ` FROM budgets WHERE client_id = ? AND entity_id = ? ORDER BY year DESC`

	rows, err := r.db.QueryContext(ctx, query, clientID, entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to list budgets: %w", err)
	}
	defer rows.Close()

	var budgets []budget.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan budget: %w", err)
		}
		budgets = append(budgets, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating budget rows: %w", err)
	}
	return budgets, nil
}

func scanBudget(row scanner) (*budget.Budget, error) {
	var b budget.Budget
	if err := row.Scan(&b.ID, &b.ClientID, &b.EntityID, &b.Year, &b.Amount, &b.Currency, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}
