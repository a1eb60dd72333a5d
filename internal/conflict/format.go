// internal/conflict/format.go
package conflict

import (
	"fmt"
	"strings"
)

// FormatReport renders r as human-readable text. Field order is fixed:
// header, severity tallies, kind tallies, then one block per conflict in
// report order.
func FormatReport(r Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Conflict report: %d conflict(s)\n", len(r.Conflicts))

	b.WriteString("Severity:")
	for _, s := range Severities {
		fmt.Fprintf(&b, " %s=%d", s, r.CountsBySeverity[s])
	}
	b.WriteString("\nKinds:")
	for _, k := range Kinds {
		fmt.Fprintf(&b, " %s=%d", k, r.CountsByKind[k])
	}
	b.WriteString("\n")

	if len(r.Conflicts) == 0 {
		b.WriteString("\nNo conflicts found.\n")
		return b.String()
	}

	for _, c := range r.Conflicts {
		fmt.Fprintf(&b, "\n[%s] %s (%s): %s\n",
			strings.ToUpper(string(c.Severity)), c.Kind, describeRules(c.RuleIndices), c.Message)
		fmt.Fprintf(&b, "  suggestion: %s\n", c.Suggestion)
		if c.Fix != nil {
			fmt.Fprintf(&b, "  autofix: %s\n", c.Fix.Description)
		} else {
			b.WriteString("  autofix: none\n")
		}
	}
	return b.String()
}
