// internal/rules/ledger.go
package rules

import (
	"strings"

	"github.com/solatis/rulekeeper/internal/types"
)

/*
 * Applied-rule ledger.
 *
 * A tracked encode records exactly which rules altered the text, in the
 * order they fired, so the matching decode can invert that one call even if
 * the RuleSet has changed since. The engine keeps no state between the two
 * calls; the caller owns the AppliedLog.
 *
 * Encode workflow:
 *   1. Skip rules with an empty pattern (a global replace of "" would insert
 *      the replacement between every codepoint)
 *   2. Order by pattern length descending, stable, as in substring mode
 *   3. Replace globally; log the rule only if the text changed and the rule
 *      is not degenerate (pattern != replacement)
 *
 * Decode workflow: replay the log in reverse, replacing replacement ->
 * pattern, and only when the current text still contains the replacement.
 * A missing replacement means the text was edited or the log belongs to a
 * different call; that entry is skipped and the rest still apply. Entries
 * with an empty replacement cannot be located in the text and are skipped
 * the same way.
 *
 * Exact inversion holds when the text was not modified in between and the
 * applied rules do not overlap each other's patterns or replacements. It is
 * not guaranteed for chained or overlapping RuleSets; internal/conflict is
 * the tool for checking that ahead of time.
 */

// EncodeTracked applies rs in substring fashion and returns the result with
// the log of rules that fired.
func EncodeTracked(text string, rs types.RuleSet) (string, types.AppliedLog) {
	log := make(types.AppliedLog, 0)
	if text == "" || len(rs) == 0 {
		return text, log
	}

	for _, r := range orderedRules(rs, types.DirectionEncode) {
		if r.Pattern == r.Replacement {
			continue
		}
		next := strings.ReplaceAll(text, r.Pattern, r.Replacement)
		if next != text {
			log = append(log, r)
			text = next
		}
	}
	return text, log
}

// DecodeTracked replays log in reverse to undo the encode that produced it.
func DecodeTracked(text string, log types.AppliedLog) string {
	if text == "" {
		return text
	}
	for i := len(log) - 1; i >= 0; i-- {
		r := log[i]
		if r.Replacement == "" || !strings.Contains(text, r.Replacement) {
			continue
		}
		text = strings.ReplaceAll(text, r.Replacement, r.Pattern)
	}
	return text
}
