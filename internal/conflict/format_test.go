// internal/conflict/format_test.go
package conflict

import (
	"strings"
	"testing"

	"github.com/solatis/rulekeeper/internal/types"
)

func TestFormatReport_Duplicate(t *testing.T) {
	rs := types.RuleSet{{Pattern: "a", Replacement: "x"}, {Pattern: "a", Replacement: "x"}}

	got := FormatReport(Analyze(rs))
	want := "Conflict report: 1 conflict(s)\n" +
		"Severity: critical=0 warning=1 info=0\n" +
		"Kinds: duplicate=1 overlap=0 circular=0 empty=0 ambiguous_chain=0\n" +
		"\n" +
		"[WARNING] duplicate (rules 0, 1): pattern \"a\" is defined 2 times with the same replacement\n" +
		"  suggestion: keep the first definition and delete the rest\n" +
		"  autofix: delete rule 1\n"
	if got != want {
		t.Errorf("FormatReport() =\n%s\nwant\n%s", got, want)
	}
}

func TestFormatReport_Empty(t *testing.T) {
	got := FormatReport(Analyze(nil))
	if !strings.HasPrefix(got, "Conflict report: 0 conflict(s)\n") {
		t.Errorf("FormatReport() header = %q", got)
	}
	if !strings.HasSuffix(got, "No conflicts found.\n") {
		t.Errorf("FormatReport() = %q, want trailing no-conflicts line", got)
	}
}

func TestFormatReport_NoFixAndUnicode(t *testing.T) {
	rs := types.RuleSet{{Pattern: "ä", Replacement: "ö"}, {Pattern: "ö", Replacement: "ä"}}

	got := FormatReport(Analyze(rs))
	for _, want := range []string{
		"[CRITICAL] circular (rules 0, 1):",
		`"ä"`,
		"  autofix: none\n",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("FormatReport() missing %q in:\n%s", want, got)
		}
	}
}

func TestFormatReport_SingleRuleLabel(t *testing.T) {
	rs := types.RuleSet{{Pattern: "a", Replacement: ""}}

	got := FormatReport(Analyze(rs))
	if !strings.Contains(got, "[INFO] empty (rule 0):") {
		t.Errorf("FormatReport() = %q, want singular rule label", got)
	}
}
