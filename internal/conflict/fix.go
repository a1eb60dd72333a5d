// internal/conflict/fix.go
package conflict

import (
	"fmt"
	"sort"

	"github.com/solatis/rulekeeper/internal/types"
)

/*
 * Autofix application.
 *
 * ApplyFix performs exactly the one fix a conflict carries and returns a new
 * RuleSet; the input is never modified. A conflict without a fix is a no-op.
 *
 * ApplyFixAll batches every fixable conflict:
 *   1. Collect delete indices from all delete fixes, dedupe, and remove them
 *      in descending index order so earlier removals cannot shift later ones
 *   2. Apply reorder fixes against the surviving rules, tracking each rule by
 *      its original index
 *   3. Return the new RuleSet plus the conflicts that were not fixed: those
 *      without a fix, and reorders whose rules were deleted in step 1
 *
 * Indices outside the RuleSet mean the conflict is stale; both functions
 * return ErrConflictIndexOutOfRange and leave the input untouched.
 */

// ApplyFix applies c's autofix to a copy of rs.
func ApplyFix(rs types.RuleSet, c Conflict) (types.RuleSet, error) {
	if c.Fix == nil {
		return rs, nil
	}
	if err := checkIndices(rs, *c.Fix); err != nil {
		return nil, err
	}

	order := identity(len(rs))
	switch c.Fix.Action {
	case FixDelete:
		order = deleteDescending(order, c.Fix.Indices)
	case FixReorder:
		order, _ = moveBefore(order, c.Fix.Indices[0], c.Fix.Indices[1])
	default:
		return rs, nil
	}
	return project(rs, order), nil
}

// ApplyFixAll applies every fixable conflict in cs and returns the new
// RuleSet together with the conflicts left unfixed.
func ApplyFixAll(rs types.RuleSet, cs []Conflict) (types.RuleSet, []Conflict, error) {
	var deletes []int
	var reorders, unfixed []Conflict

	for _, c := range cs {
		if c.Fix == nil {
			unfixed = append(unfixed, c)
			continue
		}
		if err := checkIndices(rs, *c.Fix); err != nil {
			return nil, nil, err
		}
		switch c.Fix.Action {
		case FixDelete:
			deletes = append(deletes, c.Fix.Indices...)
		case FixReorder:
			reorders = append(reorders, c)
		default:
			unfixed = append(unfixed, c)
		}
	}

	order := deleteDescending(identity(len(rs)), deletes)
	for _, c := range reorders {
		var ok bool
		order, ok = moveBefore(order, c.Fix.Indices[0], c.Fix.Indices[1])
		if !ok {
			unfixed = append(unfixed, c)
		}
	}

	if unfixed == nil {
		unfixed = []Conflict{}
	}
	return project(rs, order), unfixed, nil
}

func checkIndices(rs types.RuleSet, fix FixSpec) error {
	if fix.Action == FixReorder && len(fix.Indices) != 2 {
		return fmt.Errorf("%w: reorder needs two indices, got %d",
			types.ErrConflictIndexOutOfRange, len(fix.Indices))
	}
	for _, i := range fix.Indices {
		if i < 0 || i >= len(rs) {
			return fmt.Errorf("%w: index %d, rule set has %d rules",
				types.ErrConflictIndexOutOfRange, i, len(rs))
		}
	}
	return nil
}

// identity returns [0, 1, ..., n-1]; order[pos] is an original index.
func identity(n int) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	return order
}

// deleteDescending removes original indices from an identity order, highest
// first. Must run before any reorder so positions still equal indices.
func deleteDescending(order []int, indices []int) []int {
	sorted := append([]int(nil), indices...)
	sort.Sort(sort.Reverse(sort.IntSlice(sorted)))

	last := -1
	for _, i := range sorted {
		if i == last {
			continue
		}
		last = i
		order = append(order[:i], order[i+1:]...)
	}
	return order
}

// moveBefore moves original index from to just before original index to.
// No-op when from already precedes to. Reports false if either was deleted.
func moveBefore(order []int, from, to int) ([]int, bool) {
	fromPos, toPos := -1, -1
	for pos, i := range order {
		switch i {
		case from:
			fromPos = pos
		case to:
			toPos = pos
		}
	}
	if fromPos < 0 || toPos < 0 {
		return order, false
	}
	if fromPos < toPos {
		return order, true
	}

	out := make([]int, 0, len(order))
	for pos, i := range order {
		if pos == fromPos {
			continue
		}
		if pos == toPos {
			out = append(out, from)
		}
		out = append(out, i)
	}
	return out, true
}

// project builds the RuleSet selected by order.
func project(rs types.RuleSet, order []int) types.RuleSet {
	out := make(types.RuleSet, len(order))
	for pos, i := range order {
		out[pos] = rs[i]
	}
	return out
}
