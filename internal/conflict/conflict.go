// Package conflict statically analyzes a RuleSet for conditions that break
// determinism or reversibility, and applies the mechanical fixes it can.
//
// Analysis is pure: a Report is a function of the RuleSet alone. Conflict
// indices refer to the RuleSet as it was analyzed; any structural change
// (including applying one fix) makes them stale, so callers re-analyze.
package conflict

// Kind identifies which check produced a conflict.
type Kind string

const (
	KindDuplicate      Kind = "duplicate"
	KindOverlap        Kind = "overlap"
	KindCircular       Kind = "circular"
	KindEmpty          Kind = "empty"
	KindAmbiguousChain Kind = "ambiguous_chain"
)

// Kinds lists every kind in check order.
var Kinds = []Kind{KindDuplicate, KindOverlap, KindCircular, KindEmpty, KindAmbiguousChain}

// Severity grades a conflict.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// Severities lists every severity, most severe first.
var Severities = []Severity{SeverityCritical, SeverityWarning, SeverityInfo}

// FixAction is the kind of mechanical repair a FixSpec performs.
type FixAction string

const (
	// FixDelete removes every rule in Indices.
	FixDelete FixAction = "delete"
	// FixReorder moves rule Indices[0] to just before rule Indices[1].
	FixReorder FixAction = "reorder"
)

// FixSpec describes an autofix. Indices refer to the analyzed RuleSet.
type FixSpec struct {
	Action      FixAction `json:"action"`
	Indices     []int     `json:"indices"`
	Description string    `json:"description"`
}

// Conflict is one finding of the analyzer.
type Conflict struct {
	Kind        Kind     `json:"kind"`
	Severity    Severity `json:"severity"`
	RuleIndices []int    `json:"rule_indices"`
	Message     string   `json:"message"`
	Suggestion  string   `json:"suggestion"`
	Fix         *FixSpec `json:"autofix,omitempty"`
}

// Fixable reports whether the conflict carries an autofix.
func (c Conflict) Fixable() bool {
	return c.Fix != nil
}

// Report is the result of one analysis pass.
type Report struct {
	Conflicts        []Conflict       `json:"conflicts"`
	CountsByKind     map[Kind]int     `json:"counts_by_kind"`
	CountsBySeverity map[Severity]int `json:"counts_by_severity"`
}

// NewReport tallies conflicts into a Report. Every kind and severity is
// present in the tallies, zero or not.
func NewReport(conflicts []Conflict) Report {
	if conflicts == nil {
		conflicts = []Conflict{}
	}
	r := Report{
		Conflicts:        conflicts,
		CountsByKind:     make(map[Kind]int, len(Kinds)),
		CountsBySeverity: make(map[Severity]int, len(Severities)),
	}
	for _, k := range Kinds {
		r.CountsByKind[k] = 0
	}
	for _, s := range Severities {
		r.CountsBySeverity[s] = 0
	}
	for _, c := range conflicts {
		r.CountsByKind[c.Kind]++
		r.CountsBySeverity[c.Severity]++
	}
	return r
}

// HasCritical reports whether any conflict is critical.
func (r Report) HasCritical() bool {
	return r.CountsBySeverity[SeverityCritical] > 0
}

// Fixable returns the conflicts that carry an autofix.
func (r Report) Fixable() []Conflict {
	var out []Conflict
	for _, c := range r.Conflicts {
		if c.Fixable() {
			out = append(out, c)
		}
	}
	return out
}
