package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/solatis/rulekeeper/internal/types"
)

// StoredLedger is a persisted applied-rule log.
type StoredLedger struct {
	ID        types.LedgerID   `json:"id"`
	TenantID  string           `json:"tenant_id"`
	Log       types.AppliedLog `json:"applied_log"`
	CreatedAt time.Time        `json:"created_at"`
	ExpiresAt time.Time        `json:"expires_at"`
}

type ledgerRow struct {
	ID         string `db:"ledger_id"`
	TenantID   string `db:"tenant_id"`
	AppliedLog string `db:"applied_log"`
	CreatedAt  int64  `db:"created_at"`
	ExpiresAt  int64  `db:"expires_at"`
}

// SaveLedger persists log for ttl and returns its id.
func (s *Store) SaveLedger(ctx context.Context, tenantID string, log types.AppliedLog, ttl time.Duration) (types.LedgerID, error) {
	if ttl <= 0 {
		return "", fmt.Errorf("ledger ttl must be positive, got %v", ttl)
	}
	data, err := types.MarshalRuleSet(types.RuleSet(log))
	if err != nil {
		return "", err
	}

	id := types.NewLedgerID()
	now := s.now()
	_, err = s.queries.Exec(ctx, "insert-ledger",
		string(id), tenantID, string(data), now.UnixMilli(), now.Add(ttl).UnixMilli())
	if err != nil {
		return "", fmt.Errorf("failed to save ledger: %w", err)
	}
	return id, nil
}

// GetLedger loads an unexpired ledger. Ledgers of other tenants are not found.
func (s *Store) GetLedger(ctx context.Context, tenantID string, id types.LedgerID) (StoredLedger, error) {
	var row ledgerRow
	err := s.queries.Get(ctx, "get-ledger", &row, tenantID, string(id))
	if errors.Is(err, sql.ErrNoRows) {
		return StoredLedger{}, fmt.Errorf("%w: %s", types.ErrLedgerNotFound, id)
	}
	if err != nil {
		return StoredLedger{}, fmt.Errorf("failed to load ledger %s: %w", id, err)
	}

	if s.now().UnixMilli() >= row.ExpiresAt {
		return StoredLedger{}, fmt.Errorf("%w: %s", types.ErrLedgerExpired, id)
	}

	rs, _, err := types.ParseRuleSetJSON([]byte(row.AppliedLog))
	if err != nil {
		return StoredLedger{}, fmt.Errorf("stored ledger %s is corrupt: %w", id, err)
	}
	return StoredLedger{
		ID:        types.LedgerID(row.ID),
		TenantID:  row.TenantID,
		Log:       types.AppliedLog(rs),
		CreatedAt: time.UnixMilli(row.CreatedAt).UTC(),
		ExpiresAt: time.UnixMilli(row.ExpiresAt).UTC(),
	}, nil
}

// DeleteExpiredLedgers removes every ledger expired at now and returns how
// many were removed.
func (s *Store) DeleteExpiredLedgers(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.queries.Exec(ctx, "delete-expired-ledgers", now.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired ledgers: %w", err)
	}
	return res.RowsAffected()
}
