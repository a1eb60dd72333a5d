package types

import "github.com/google/uuid"

// RuleSetID represents a UUIDv7 stored rule set identifier.
type RuleSetID string

// LedgerID represents a UUIDv7 identifier for a persisted applied-rule log.
// Time-ordered IDs keep recent ledgers clustered, which matches the
// session-scoped access pattern.
type LedgerID string

// APIKeyID represents a UUIDv7 API key row identifier.
type APIKeyID string

// NewRuleSetID generates a UUIDv7 rule set identifier.
// Panics on clock regression (uuid.Must); acceptable for ID generation.
func NewRuleSetID() RuleSetID {
	return RuleSetID(uuid.Must(uuid.NewV7()).String())
}

// NewLedgerID generates a UUIDv7 ledger identifier.
func NewLedgerID() LedgerID {
	return LedgerID(uuid.Must(uuid.NewV7()).String())
}

// NewAPIKeyID generates a UUIDv7 API key identifier.
func NewAPIKeyID() APIKeyID {
	return APIKeyID(uuid.Must(uuid.NewV7()).String())
}

// ParseLedgerID validates and converts a string to LedgerID.
// Rejects malformed UUIDs before they reach the store.
func ParseLedgerID(s string) (LedgerID, error) {
	if _, err := uuid.Parse(s); err != nil {
		return "", ErrInvalidLedgerID
	}
	return LedgerID(s), nil
}
