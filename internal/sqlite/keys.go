package sqlite

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/ganot/grantflow/internal/repository"
)

// KeyRepository stores hashed API keys and resolves them to client IDs
type KeyRepository struct {
	db *DB
}

// NewKeyRepository creates a new KeyRepository
func NewKeyRepository(db *DB) *KeyRepository {
	return &KeyRepository{db: db}
}

// Add stores token for clientID. Only its hash is kept.
func (r *KeyRepository) Add(ctx context.Context, token, clientID, description string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO api_keys (key_hash, client_id, created_at, description) VALUES (?, ?, ?, ?)`,
		HashToken(token), clientID, time.Now().UTC(), description,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("failed to add api key: %w", err)
	}
	return nil
}

// Generate creates, stores and returns a new random token for clientID
func (r *KeyRepository) Generate(ctx context.Context, clientID, description string) (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate api key: %w", err)
	}
	token := "gf_" + hex.EncodeToString(buf)
	if err := r.Add(ctx, token, clientID, description); err != nil {
		return "", err
	}
	return token, nil
}

// ResolveClient returns the client ID owning token and records its use
func (r *KeyRepository) ResolveClient(ctx context.Context, token string) (string, error) {
	hash := HashToken(token)
	var clientID string
	err := r.db.QueryRowContext(ctx, `SELECT client_id FROM api_keys WHERE key_hash = ?`, hash).Scan(&clientID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", repository.ErrNotFound
		}
		return "", fmt.Errorf("failed to resolve api key: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, `UPDATE api_keys SET last_used = ? WHERE key_hash = ?`, time.Now().UTC(), hash); err != nil {
		return "", fmt.Errorf("failed to touch api key: %w", err)
	}
	return clientID, nil
}

// HashToken returns the stored form of an API key
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
