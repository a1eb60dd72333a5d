// internal/types/rules.go
package types

import "unicode/utf8"

/*
 * Domain types for rule-based text transformation.
 *
 * Provides Rule, RuleSet, and AppliedLog used by internal/rules for the
 * transformation engine and by internal/conflict for static analysis. These
 * types are wire-format agnostic except for the fixed {"from","to"} JSON
 * field names shared with the persistence collaborator.
 *
 * Key types:
 *   - Rule: one pattern -> replacement substitution pair
 *   - RuleSet: ordered rules; order is the tie-break and the index base for
 *     conflict reports
 *   - AppliedLog: rules that actually altered text during one tracked encode
 *
 * A RuleSet is never auto-validated. Duplicates, overlaps and cycles are
 * detectable conditions, not rejected inputs.
 */

// Rule is a single substitution pair. Either side may be empty.
type Rule struct {
	Pattern     string `json:"from" yaml:"from"`
	Replacement string `json:"to" yaml:"to"`
}

// Key returns the side matched in the given direction: the pattern when
// encoding, the replacement when decoding.
func (r Rule) Key(dir Direction) string {
	if dir == DirectionDecode {
		return r.Replacement
	}
	return r.Pattern
}

// Target returns the side written in the given direction.
func (r Rule) Target(dir Direction) string {
	if dir == DirectionDecode {
		return r.Pattern
	}
	return r.Replacement
}

// KeyLen returns the matching key length in codepoints.
func (r Rule) KeyLen(dir Direction) int {
	return utf8.RuneCountInString(r.Key(dir))
}

// RuleSet is an ordered sequence of rules.
type RuleSet []Rule

// Clone returns an independent copy. Fixes and reorders always work on copies
// so callers keep the RuleSet their conflict indices refer to.
func (rs RuleSet) Clone() RuleSet {
	if rs == nil {
		return nil
	}
	out := make(RuleSet, len(rs))
	copy(out, rs)
	return out
}

// CountValid returns the number of rules with a non-empty matching key.
func (rs RuleSet) CountValid(dir Direction) int {
	n := 0
	for _, r := range rs {
		if r.Key(dir) != "" {
			n++
		}
	}
	return n
}

// AppliedLog records, in application order, the rules that changed the text
// during one tracked encode. It is the only state that can invert that
// specific encode and must be handed back unchanged to the matching decode.
type AppliedLog []Rule
