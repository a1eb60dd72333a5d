// internal/conflict/analyze.go
package conflict

import (
	"fmt"
	"strings"

	"github.com/solatis/rulekeeper/internal/types"
)

/*
 * Conflict analysis.
 *
 * Five independent checks run over the same RuleSet and their findings are
 * concatenated in check order (not severity order):
 *
 *   1. Duplicate: a non-empty pattern defined more than once
 *   2. Overlap: one pattern is a proper substring of another
 *   3. Circular: 2-cycles and 3-cycles through pattern/replacement
 *   4. Empty: empty pattern, or empty replacement
 *   5. Ambiguous chain: one rule's output is another rule's pattern
 *
 * Empty patterns only ever produce an Empty finding. They never match in
 * the engine, so they cannot duplicate, overlap, cycle or chain.
 *
 * Overlap is pairwise. A rule that overlaps more than one other rule gets a
 * suggestion flagging the transitive case; the fixes stay pairwise and no
 * global topological reorder is attempted.
 *
 * A chain edge that is part of a reported cycle is not reported again as an
 * ambiguous chain.
 */

// Analyze runs every check over rs and returns the report.
func Analyze(rs types.RuleSet) Report {
	a := newAnalysis(rs)

	var conflicts []Conflict
	conflicts = append(conflicts, a.duplicates()...)
	conflicts = append(conflicts, a.overlaps()...)
	conflicts = append(conflicts, a.cycles()...)
	conflicts = append(conflicts, a.empties()...)
	conflicts = append(conflicts, a.chains()...)

	return NewReport(conflicts)
}

type edge struct{ from, to int }

type analysis struct {
	rs types.RuleSet
	// byPattern maps each non-empty pattern to its indices, ascending.
	byPattern map[string][]int
	// patterns lists distinct non-empty patterns in first-seen order.
	patterns []string
	// cycleEdges holds feeder -> fed pairs already reported as a cycle.
	cycleEdges map[edge]bool
}

func newAnalysis(rs types.RuleSet) *analysis {
	a := &analysis{
		rs:         rs,
		byPattern:  make(map[string][]int),
		cycleEdges: make(map[edge]bool),
	}
	for i, r := range rs {
		if r.Pattern == "" {
			continue
		}
		if _, ok := a.byPattern[r.Pattern]; !ok {
			a.patterns = append(a.patterns, r.Pattern)
		}
		a.byPattern[r.Pattern] = append(a.byPattern[r.Pattern], i)
	}
	return a
}

func (a *analysis) duplicates() []Conflict {
	var out []Conflict
	for _, p := range a.patterns {
		idx := a.byPattern[p]
		if len(idx) < 2 {
			continue
		}

		same := true
		for _, i := range idx[1:] {
			if a.rs[i].Replacement != a.rs[idx[0]].Replacement {
				same = false
				break
			}
		}

		if same {
			out = append(out, Conflict{
				Kind:        KindDuplicate,
				Severity:    SeverityWarning,
				RuleIndices: append([]int(nil), idx...),
				Message:     fmt.Sprintf("pattern %q is defined %d times with the same replacement", p, len(idx)),
				Suggestion:  "keep the first definition and delete the rest",
				Fix: &FixSpec{
					Action:      FixDelete,
					Indices:     append([]int(nil), idx[1:]...),
					Description: "delete " + describeRules(idx[1:]),
				},
			})
			continue
		}

		repls := make([]string, len(idx))
		for n, i := range idx {
			repls[n] = fmt.Sprintf("%q", a.rs[i].Replacement)
		}
		out = append(out, Conflict{
			Kind:        KindDuplicate,
			Severity:    SeverityCritical,
			RuleIndices: append([]int(nil), idx...),
			Message: fmt.Sprintf("ambiguous mapping: pattern %q maps to %s",
				p, strings.Join(repls, ", ")),
			Suggestion: "choose one replacement and delete the other definitions",
		})
	}
	return out
}

func (a *analysis) overlaps() []Conflict {
	var out []Conflict
	involved := make(map[int]int)

	for i := 0; i < len(a.rs); i++ {
		pi := a.rs[i].Pattern
		if pi == "" {
			continue
		}
		for j := i + 1; j < len(a.rs); j++ {
			pj := a.rs[j].Pattern
			if pj == "" || pi == pj {
				continue
			}

			longer, shorter := -1, -1
			switch {
			case strings.Contains(pi, pj):
				longer, shorter = i, j
			case strings.Contains(pj, pi):
				longer, shorter = j, i
			default:
				continue
			}
			involved[i]++
			involved[j]++

			out = append(out, Conflict{
				Kind:        KindOverlap,
				Severity:    SeverityWarning,
				RuleIndices: []int{i, j},
				Message: fmt.Sprintf("pattern %q contains pattern %q; which one matches depends on position and order",
					a.rs[longer].Pattern, a.rs[shorter].Pattern),
				Suggestion: "place the longer pattern before the shorter one",
				Fix: &FixSpec{
					Action:      FixReorder,
					Indices:     []int{longer, shorter},
					Description: fmt.Sprintf("move rule %d before rule %d", longer, shorter),
				},
			})
		}
	}

	for n := range out {
		var transitive []int
		for _, i := range out[n].RuleIndices {
			if involved[i] > 1 {
				transitive = append(transitive, i)
			}
		}
		if len(transitive) > 0 {
			out[n].Suggestion += fmt.Sprintf("; %s also overlap other rules, re-run analysis after fixing",
				describeRules(transitive))
		}
	}
	return out
}

func (a *analysis) cycles() []Conflict {
	var out []Conflict

	for i, r := range a.rs {
		if !feeds(r) {
			continue
		}
		for _, j := range a.byPattern[r.Replacement] {
			if j <= i || a.rs[j].Replacement != r.Pattern {
				continue
			}
			a.cycleEdges[edge{i, j}] = true
			a.cycleEdges[edge{j, i}] = true
			out = append(out, Conflict{
				Kind:        KindCircular,
				Severity:    SeverityCritical,
				RuleIndices: []int{i, j},
				Message: fmt.Sprintf("rules %d and %d swap %q and %q; the result depends on rule order",
					i, j, r.Pattern, r.Replacement),
				Suggestion: "redesign the rules so no replacement is another rule's pattern in a loop",
			})
		}
	}

	for i, r := range a.rs {
		if !feeds(r) {
			continue
		}
		for _, j := range a.byPattern[r.Replacement] {
			rj := a.rs[j]
			if j <= i || rj.Replacement == "" {
				continue
			}
			for _, k := range a.byPattern[rj.Replacement] {
				rk := a.rs[k]
				if k <= i || k == j || rk.Replacement != r.Pattern {
					continue
				}
				// Three distinct patterns; two equal patterns are a duplicate.
				if r.Pattern == rj.Pattern || rj.Pattern == rk.Pattern || r.Pattern == rk.Pattern {
					continue
				}
				a.cycleEdges[edge{i, j}] = true
				a.cycleEdges[edge{j, k}] = true
				a.cycleEdges[edge{k, i}] = true
				out = append(out, Conflict{
					Kind:        KindCircular,
					Severity:    SeverityCritical,
					RuleIndices: []int{i, j, k},
					Message: fmt.Sprintf("rules %d, %d and %d form a cycle %q -> %q -> %q -> %q",
						i, j, k, r.Pattern, rj.Pattern, rk.Pattern, r.Pattern),
					Suggestion: "redesign the rules so no replacement is another rule's pattern in a loop",
				})
			}
		}
	}
	return out
}

func (a *analysis) empties() []Conflict {
	var out []Conflict
	for i, r := range a.rs {
		switch {
		case r.Pattern == "":
			out = append(out, Conflict{
				Kind:        KindEmpty,
				Severity:    SeverityWarning,
				RuleIndices: []int{i},
				Message:     fmt.Sprintf("rule %d has an empty pattern and never matches", i),
				Suggestion:  "delete the rule",
				Fix: &FixSpec{
					Action:      FixDelete,
					Indices:     []int{i},
					Description: fmt.Sprintf("delete rule %d", i),
				},
			})
		case r.Replacement == "":
			out = append(out, Conflict{
				Kind:        KindEmpty,
				Severity:    SeverityInfo,
				RuleIndices: []int{i},
				Message:     fmt.Sprintf("rule %d deletes every %q on encode and cannot be decoded", i, r.Pattern),
				Suggestion:  "give the rule a replacement if the text must be recoverable",
			})
		}
	}
	return out
}

func (a *analysis) chains() []Conflict {
	var out []Conflict
	for i, r := range a.rs {
		if !feeds(r) {
			continue
		}
		for _, j := range a.byPattern[r.Replacement] {
			if j == i || a.cycleEdges[edge{i, j}] {
				continue
			}
			out = append(out, Conflict{
				Kind:        KindAmbiguousChain,
				Severity:    SeverityInfo,
				RuleIndices: []int{i, j},
				Message: fmt.Sprintf("rule %d writes %q, which rule %d matches; substring and hybrid modes cascade %q -> %q -> %q",
					i, r.Replacement, j, r.Pattern, r.Replacement, a.rs[j].Replacement),
				Suggestion: "confirm the cascade is intended, or use a replacement no other rule matches",
			})
		}
	}
	return out
}

// feeds reports whether r's output can be another rule's input. Degenerate
// rules (pattern == replacement) only feed their own duplicates.
func feeds(r types.Rule) bool {
	return r.Pattern != "" && r.Replacement != "" && r.Pattern != r.Replacement
}

// describeRules renders "rule 3" or "rules 3, 5".
func describeRules(idx []int) string {
	parts := make([]string, len(idx))
	for n, i := range idx {
		parts[n] = fmt.Sprint(i)
	}
	if len(idx) == 1 {
		return "rule " + parts[0]
	}
	return "rules " + strings.Join(parts, ", ")
}
