package types

import "errors"

// Sentinel errors for rulekeeper operations.
//
// The engine and analyzer never return errors for malformed rule entries;
// those are filtered at the boundary. These errors cover malformed call
// arguments and storage lookups only.
var (
	// ErrInvalidRuleSet indicates the rule payload is not an array of rules.
	ErrInvalidRuleSet = errors.New("rule set must be an array")

	// ErrInvalidDirection indicates an unknown direction name.
	ErrInvalidDirection = errors.New("invalid direction (expected encode or decode)")

	// ErrInvalidMode indicates an unknown mode name.
	ErrInvalidMode = errors.New("invalid mode (expected substring, word or hybrid)")

	// ErrTextTooLarge indicates the request text exceeds the configured limit.
	ErrTextTooLarge = errors.New("text exceeds maximum size")

	// ErrTooManyRules indicates the rule set exceeds the configured limit.
	ErrTooManyRules = errors.New("too many rules")

	// ErrInvalidRuleSetName indicates an empty or overlong rule set name.
	ErrInvalidRuleSetName = errors.New("invalid rule set name")

	// ErrRuleSetNotFound indicates no stored rule set matches the name.
	ErrRuleSetNotFound = errors.New("rule set not found")

	// ErrInvalidLedgerID indicates a malformed ledger identifier.
	ErrInvalidLedgerID = errors.New("invalid ledger id")

	// ErrLedgerNotFound indicates no stored applied log matches the id.
	ErrLedgerNotFound = errors.New("ledger not found")

	// ErrLedgerExpired indicates the stored applied log is past its TTL.
	ErrLedgerExpired = errors.New("ledger expired")

	// ErrConflictIndexOutOfRange indicates a conflict refers to rules the
	// RuleSet does not have, usually because the RuleSet changed after analysis.
	ErrConflictIndexOutOfRange = errors.New("conflict refers to a rule index outside the rule set")
)
