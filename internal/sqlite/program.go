package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ganot/grantflow/internal/domain/program"
	"github.com/ganot/grantflow/internal/repository"
)

// ProgramRepository implements program.Repository for SQLite
type ProgramRepository struct {
	db *DB
}

// NewProgramRepository creates a new ProgramRepository
func NewProgramRepository(db *DB) *ProgramRepository {
	return &ProgramRepository{db: db}
}

const programColumns = `id, client_id, name, theme, description, kpi_targets, created_at`

// Create inserts a new program
func (r *ProgramRepository) Create(ctx context.Context, clientID string, p *program.Program) error {
	targets := p.KPITargets
	if targets == nil {
		targets = []program.KPITarget{}
	}
	kpis, err := encodeJSON(targets)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO programs (id, client_id, name, theme, description, kpi_targets, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.ExecContext(ctx, query, p.ID, clientID, p.Name, p.Theme, p.Description, kpis, p.CreatedAt.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("failed to create program: %w", err)
	}
	p.ClientID = clientID
	return nil
}

// Get retrieves a program by ID
func (r *ProgramRepository) Get(ctx context.Context, clientID, id string) (*program.Program, error) {
	query := `SELECT ` + programColumns + ` FROM programs WHERE id = ? AND client_id = ?`

	p, err := scanProgram(r.db.QueryRowContext(ctx, query, id, clientID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get program: %w", err)
	}
	return p, nil
}

// List returns all programs of a client ordered by name
func (r *ProgramRepository) List(ctx context.Context, clientID string) ([]program.Program, error) {
	return listPrograms(ctx, r.db, clientID)
}

func listPrograms(ctx context.Context, q querier, clientID string) ([]program.Program, error) {
	query := `SELECT ` + programColumns + ` FROM programs WHERE client_id = ? ORDER BY name, id`

	rows, err := q.QueryContext(ctx, query, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list programs: %w", err)
	}
	defer rows.Close()

	var programs []program.Program
	for rows.Next() {
		p, err := scanProgram(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan program: %w", err)
		}
		programs = append(programs, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating program rows: %w", err)
	}
	return programs, nil
}

func scanProgram(row scanner) (*program.Program, error) {
	var p program.Program
	var kpis string
	if err := row.Scan(&p.ID, &p.ClientID, &p.Name, &p.Theme, &p.Description, &kpis, &p.CreatedAt); err != nil {
		return nil, err
	}
	if err := decodeJSON(kpis, &p.KPITargets); err != nil {
		return nil, err
	}
	return &p, nil
}
