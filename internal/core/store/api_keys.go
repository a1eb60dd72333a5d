package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/solatis/rulekeeper/internal/types"
)

// APIKey is an issued API key. The key itself is never stored, only its HMAC.
type APIKey struct {
	ID         types.APIKeyID `json:"id" db:"api_key_id"`
	TenantID   string         `json:"tenant_id" db:"tenant_id"`
	Name       string         `json:"name" db:"name"`
	SecretID   string         `json:"secret_id" db:"secret_id"`
	CreatedAt  int64          `json:"created_at" db:"created_at"`
	LastUsedAt sql.NullInt64  `json:"-" db:"last_used_at"`
	RevokedAt  sql.NullInt64  `json:"-" db:"revoked_at"`
}

// Revoked reports whether the key has been revoked.
func (k APIKey) Revoked() bool {
	return k.RevokedAt.Valid
}

// CreateAPIKey records a key by its HMAC hash.
func (s *Store) CreateAPIKey(ctx context.Context, tenantID, name, secretID string, keyHash []byte) (types.APIKeyID, error) {
	id := types.NewAPIKeyID()
	_, err := s.queries.Exec(ctx, "insert-api-key",
		string(id), tenantID, name, secretID, keyHash, s.now().UnixMilli())
	if err != nil {
		return "", fmt.Errorf("failed to create api key: %w", err)
	}
	return id, nil
}

// ListAPIKeys returns the tenant's keys in creation order.
func (s *Store) ListAPIKeys(ctx context.Context, tenantID string) ([]APIKey, error) {
	var keys []APIKey
	if err := s.queries.Select(ctx, "list-api-keys", &keys, tenantID); err != nil {
		return nil, fmt.Errorf("failed to list api keys: %w", err)
	}
	return keys, nil
}

// RevokeAPIKey marks a key revoked. Revoking twice is an error.
func (s *Store) RevokeAPIKey(ctx context.Context, tenantID string, id types.APIKeyID) error {
	res, err := s.queries.Exec(ctx, "revoke-api-key", s.now().UnixMilli(), tenantID, string(id))
	if err != nil {
		return fmt.Errorf("failed to revoke api key: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("api key %s not found or already revoked", id)
	}
	return nil
}
