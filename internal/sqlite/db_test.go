package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/ganot/grantflow/internal/domain/grant"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// NewTestDB creates a new in-memory SQLite database for testing
func NewTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(":memory:")
	require.NoError(t, err, "failed to create test database")

	err = db.RunMigrations()
	require.NoError(t, err, "failed to run migrations")

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// insertGrant stores a grant in stage for tests that need one to reference
func insertGrant(t *testing.T, db *DB, clientID, id string, stage grant.Stage) *grant.Grant {
	t.Helper()

	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	g := &grant.Grant{
		ID:              id,
		EntityID:        "family-foundation",
		GranteeName:     "Clean Water Trust",
		GranteeCountry:  "KE",
		Purpose:         "drill wells in rural districts",
		RequestedAmount: decimal.NewFromInt(10000),
		Currency:        "USD",
		Stage:           stage,
		DocsStatus:      grant.DocsComplete,
		ApprovalIDs:     []string{},
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if stage.HoldsApprovedAmount() {
		amount := decimal.NewFromInt(10000)
		g.ApprovedAmount = &amount
	}
	require.NoError(t, NewGrantRepository(db).Create(context.Background(), clientID, g))
	return g
}

// TestMigrations verifies that migrations run successfully
func TestMigrations(t *testing.T) {
	db := NewTestDB(t)

	tables := []string{
		"grants",
		"compliance_checks",
		"approvals",
		"programs",
		"budgets",
		"payouts",
		"impact_reports",
		"activity_log",
		"grants_fts",
		"api_keys",
	}

	for _, table := range tables {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count)
		require.NoError(t, err, "failed to query table %s", table)
		require.Equal(t, 1, count, "table %s not found", table)
	}
}

// TestMigrationsIdempotent verifies the schema can be applied to an existing database
func TestMigrationsIdempotent(t *testing.T) {
	db := NewTestDB(t)
	require.NoError(t, db.RunMigrations())
}

// TestForeignKeys verifies that foreign key constraints are enabled
func TestForeignKeys(t *testing.T) {
	db := NewTestDB(t)

	var enabled int
	err := db.QueryRow("PRAGMA foreign_keys").Scan(&enabled)
	require.NoError(t, err)
	require.Equal(t, 1, enabled, "foreign keys not enabled")
}

// TestGrantsTableConstraints verifies stage and reference constraints
func TestGrantsTableConstraints(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()

	_, err := db.ExecContext(ctx,
		`INSERT INTO grants (id, client_id, entity_id, grantee_name, requested_amount, currency, stage, created_year)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		"g1", "client1", "e1", "Grantee", "100", "USD", "INVALID", 2026)
	require.Error(t, err, "should fail with invalid stage")

	_, err = db.ExecContext(ctx,
		`INSERT INTO compliance_checks (id, client_id, grant_id, check_type, status)
		 VALUES (?, ?, ?, ?, ?)`,
		"c1", "client1", "missing", "kyc", "open")
	require.Error(t, err, "should fail with unknown grant")
}

// TestFTSIndex verifies the full-text search index is synchronized
func TestFTSIndex(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	insertGrant(t, db, "client1", "g1", grant.StageDraft)

	var count int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM grants_fts WHERE grants_fts MATCH ?`,
		"wells").Scan(&count)
	require.NoError(t, err)
	require.Equal(t, 1, count, "should find 1 grant matching 'wells'")

	_, err = db.ExecContext(ctx, `UPDATE grants SET purpose = ? WHERE id = ?`, "school meals", "g1")
	require.NoError(t, err)

	err = db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM grants_fts WHERE grants_fts MATCH ?`,
		"meals").Scan(&count)
	require.NoError(t, err)
	require.Equal(t, 1, count, "should find 1 grant matching 'meals' after update")

	err = db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM grants_fts WHERE grants_fts MATCH ?`,
		"wells").Scan(&count)
	require.NoError(t, err)
	require.Equal(t, 0, count, "should find 0 grants matching 'wells' after update")
}
