// internal/rules/index.go
package rules

import (
	"sort"

	"github.com/solatis/rulekeeper/internal/types"
)

/*
 * Rule index construction.
 *
 * Builds the lookup structures the accelerated engine matches against:
 *   1. Drop rules whose matching key is empty (pattern for encode,
 *      replacement for decode)
 *   2. Exact-match table keyed by matching key; on duplicate keys the last
 *      rule in RuleSet order wins
 *   3. Rules ordered by matching-key length in codepoints, descending
 *
 * Longest-first applies everywhere keys are replaced. The sort is stable:
 * rules with equal key length keep RuleSet order.
 *
 * Char rules (key of exactly one codepoint) are pre-split for hybrid mode.
 */

// MinWordKeyLen is the shortest matching key, in codepoints, that takes part
// in word matching. Single-codepoint keys are char rules.
const MinWordKeyLen = 2

// Index is the derived lookup structure for one RuleSet and direction.
// Treat as read-only once built; the accelerated engine shares instances
// across calls.
type Index struct {
	Direction types.Direction
	Exact     map[string]types.Rule // matching key -> rule, last definition wins
	Sorted    []types.Rule          // valid rules, key length descending, stable
	Chars     []types.Rule          // subset of Sorted with single-codepoint keys
	MaxKeyLen int                   // longest key in codepoints
}

// BuildIndex derives the lookup structure for rs in the given direction.
func BuildIndex(rs types.RuleSet, dir types.Direction) *Index {
	ix := &Index{
		Direction: dir,
		Exact:     make(map[string]types.Rule, len(rs)),
		Sorted:    make([]types.Rule, 0, len(rs)),
	}

	for _, r := range rs {
		key := r.Key(dir)
		if key == "" {
			continue
		}
		ix.Exact[key] = r
		ix.Sorted = append(ix.Sorted, r)
	}

	sortByKeyLen(ix.Sorted, dir)

	for _, r := range ix.Sorted {
		n := r.KeyLen(dir)
		if n > ix.MaxKeyLen {
			ix.MaxKeyLen = n
		}
		if n == 1 {
			ix.Chars = append(ix.Chars, r)
		}
	}

	return ix
}

// Len returns the number of valid rules in the index.
func (ix *Index) Len() int {
	return len(ix.Sorted)
}

// sortByKeyLen orders rules by matching-key length descending in place.
// Stable sort: equal-length rules keep RuleSet order.
func sortByKeyLen(rs []types.Rule, dir types.Direction) {
	sort.SliceStable(rs, func(i, j int) bool {
		return rs[i].KeyLen(dir) > rs[j].KeyLen(dir)
	})
}
