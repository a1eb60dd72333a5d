// Package store persists rule sets, applied-rule ledgers and API keys.
//
// All access goes through the named queries in internal/core/db so the same
// code runs on SQLite and PostgreSQL. Rule sets and ledgers are stored as
// the {"from","to"} JSON array shared with every other rulekeeper surface.
// Timestamps are stored as unix milliseconds.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/solatis/rulekeeper/internal/core/db"
	"github.com/solatis/rulekeeper/internal/rules"
	"github.com/solatis/rulekeeper/internal/types"
)

// Store wraps the named queries with typed operations.
type Store struct {
	queries *db.Queries
	now     func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides time.Now, for expiry tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates a store over loaded queries.
func New(queries *db.Queries, opts ...Option) *Store {
	s := &Store{queries: queries, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StoredRuleSet is a named, versioned rule set. The fingerprint doubles as
// the version: it changes exactly when the rules change.
type StoredRuleSet struct {
	ID          types.RuleSetID `json:"id"`
	TenantID    string          `json:"tenant_id"`
	Name        string          `json:"name"`
	Fingerprint string          `json:"fingerprint"`
	Rules       types.RuleSet   `json:"rules"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type ruleSetRow struct {
	ID          string `db:"rule_set_id"`
	TenantID    string `db:"tenant_id"`
	Name        string `db:"name"`
	Fingerprint string `db:"fingerprint"`
	RuleCount   int    `db:"rule_count"`
	Rules       string `db:"rules"`
	CreatedAt   int64  `db:"created_at"`
	UpdatedAt   int64  `db:"updated_at"`
}

func (r ruleSetRow) toStored() (StoredRuleSet, error) {
	rs, _, err := types.ParseRuleSetJSON([]byte(r.Rules))
	if err != nil {
		return StoredRuleSet{}, fmt.Errorf("stored rule set %s is corrupt: %w", r.Name, err)
	}
	return StoredRuleSet{
		ID:          types.RuleSetID(r.ID),
		TenantID:    r.TenantID,
		Name:        r.Name,
		Fingerprint: r.Fingerprint,
		Rules:       rs,
		CreatedAt:   time.UnixMilli(r.CreatedAt).UTC(),
		UpdatedAt:   time.UnixMilli(r.UpdatedAt).UTC(),
	}, nil
}

// ValidateRuleSetName rejects empty, overlong or non-UTF-8 names.
func ValidateRuleSetName(name string) error {
	n := utf8.RuneCountInString(name)
	if n == 0 || n > types.MaxRuleSetNameLength || !utf8.ValidString(name) {
		return fmt.Errorf("%w: %q", types.ErrInvalidRuleSetName, name)
	}
	return nil
}

// SaveRuleSet creates or replaces the rule set called name.
func (s *Store) SaveRuleSet(ctx context.Context, tenantID, name string, rs types.RuleSet) (StoredRuleSet, error) {
	if err := ValidateRuleSetName(name); err != nil {
		return StoredRuleSet{}, err
	}
	data, err := types.MarshalRuleSet(rs)
	if err != nil {
		return StoredRuleSet{}, err
	}

	now := s.now().UnixMilli()
	_, err = s.queries.Exec(ctx, "upsert-rule-set",
		string(types.NewRuleSetID()), tenantID, name, rules.Fingerprint(rs), len(rs), string(data), now, now)
	if err != nil {
		return StoredRuleSet{}, fmt.Errorf("failed to save rule set %s: %w", name, err)
	}

	// Re-read so the caller sees the surviving id and created_at on update.
	return s.GetRuleSet(ctx, tenantID, name)
}

// GetRuleSet loads one rule set.
func (s *Store) GetRuleSet(ctx context.Context, tenantID, name string) (StoredRuleSet, error) {
	var row ruleSetRow
	err := s.queries.Get(ctx, "get-rule-set", &row, tenantID, name)
	if errors.Is(err, sql.ErrNoRows) {
		return StoredRuleSet{}, fmt.Errorf("%w: %s", types.ErrRuleSetNotFound, name)
	}
	if err != nil {
		return StoredRuleSet{}, fmt.Errorf("failed to load rule set %s: %w", name, err)
	}
	return row.toStored()
}

// ListRuleSets returns every rule set of the tenant, ordered by name.
func (s *Store) ListRuleSets(ctx context.Context, tenantID string) ([]StoredRuleSet, error) {
	var rows []ruleSetRow
	if err := s.queries.Select(ctx, "list-rule-sets", &rows, tenantID); err != nil {
		return nil, fmt.Errorf("failed to list rule sets: %w", err)
	}

	out := make([]StoredRuleSet, 0, len(rows))
	for _, row := range rows {
		stored, err := row.toStored()
		if err != nil {
			return nil, err
		}
		out = append(out, stored)
	}
	return out, nil
}

// DeleteRuleSet removes a rule set.
func (s *Store) DeleteRuleSet(ctx context.Context, tenantID, name string) error {
	res, err := s.queries.Exec(ctx, "delete-rule-set", tenantID, name)
	if err != nil {
		return fmt.Errorf("failed to delete rule set %s: %w", name, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", types.ErrRuleSetNotFound, name)
	}
	return nil
}
