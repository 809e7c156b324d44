package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/ganot/grantflow/internal/domain/grant"
)

// SearchRepository implements grant.SearchRepository for SQLite
type SearchRepository struct {
	db *DB
}

// NewSearchRepository creates a new SearchRepository
func NewSearchRepository(db *DB) *SearchRepository {
	return &SearchRepository{db: db}
}

// Search performs a full-text search over grantee names and purposes, best match first
func (r *SearchRepository) Search(ctx context.Context, clientID, query string, opts grant.SearchOptions) ([]grant.SearchResult, error) {
	baseQuery := `
		SELECT ` + grantColumns + `,
			bm25(grants_fts) AS rank,
			snippet(grants_fts, -1, '[', ']', '...', 12) AS snippet
		FROM grants_fts
		JOIN grants g ON g.rowid = grants_fts.rowid
		WHERE g.client_id = ? AND grants_fts MATCH ?
	`
	args := []any{clientID, ftsQuery(query)}

	if len(opts.Stages) > 0 {
		baseQuery += fmt.Sprintf(" AND g.stage IN (%s)", placeholders(len(opts.Stages)))
		for _, s := range opts.Stages {
			args = append(args, s)
		}
	}

	baseQuery += " ORDER BY rank, g.id"
	baseQuery, args = paginate(baseQuery, args, opts.Limit, opts.Offset)

	rows, err := r.db.QueryContext(ctx, baseQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search grants: %w", err)
	}
	defer rows.Close()

	var results []grant.SearchResult
	for rows.Next() {
		var result grant.SearchResult
		g, err := scanGrant(rows, &result.Rank, &result.Snippet)
		if err != nil {
			return nil, fmt.Errorf("failed to scan search result: %w", err)
		}
		result.Grant = *g
		results = append(results, result)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating search results: %w", err)
	}

	return results, nil
}

// ftsQuery quotes each term so user input is never parsed as FTS5 syntax.
func ftsQuery(query string) string {
	terms := strings.Fields(query)
	for i, t := range terms {
		terms[i] = `"` + strings.ReplaceAll(t, `"`, `""`) + `"`
	}
	return strings.Join(terms, " ")
}
