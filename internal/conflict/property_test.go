// internal/conflict/property_test.go
package conflict

import (
	"math/rand"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/solatis/rulekeeper/internal/types"
)

func randRuleSet(seed int64, n int) types.RuleSet {
	r := rand.New(rand.NewSource(seed))
	pick := func() string {
		b := make([]byte, r.Intn(3))
		for i := range b {
			b[i] = "abc"[r.Intn(3)]
		}
		return string(b)
	}
	rs := make(types.RuleSet, n)
	for i := range rs {
		rs[i] = types.Rule{Pattern: pick(), Replacement: pick()}
	}
	return rs
}

// Property-based test: analysis is a pure function of the rule set
func TestAnalyze_PropertyPure(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("same rule set gives same report and is not modified", prop.ForAll(
		func(seed int64, n int) bool {
			rs := randRuleSet(seed, n)
			before := rs.Clone()

			first := Analyze(rs)
			second := Analyze(rs)
			return reflect.DeepEqual(first, second) && reflect.DeepEqual(rs, before)
		},
		gen.Int64(),
		gen.IntRange(0, 10),
	))

	properties.TestingRun(t)
}

// Property-based test: tallies match the conflict list and indices are valid
func TestAnalyze_PropertyCountsAndIndices(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("counts sum to conflicts and indices are in range", prop.ForAll(
		func(seed int64, n int) bool {
			rs := randRuleSet(seed, n)
			report := Analyze(rs)

			kinds, sevs := 0, 0
			for _, k := range Kinds {
				kinds += report.CountsByKind[k]
			}
			for _, s := range Severities {
				sevs += report.CountsBySeverity[s]
			}
			if kinds != len(report.Conflicts) || sevs != len(report.Conflicts) {
				return false
			}

			for _, c := range report.Conflicts {
				for _, i := range c.RuleIndices {
					if i < 0 || i >= len(rs) {
						return false
					}
				}
			}
			return true
		},
		gen.Int64(),
		gen.IntRange(0, 10),
	))

	properties.TestingRun(t)
}

// Property-based test: fixing everything removes every fixable deletion
func TestApplyFixAll_PropertyClearsDeletions(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("no duplicate or empty-pattern warnings survive a full fix", prop.ForAll(
		func(seed int64, n int) bool {
			rs := randRuleSet(seed, n)
			before := rs.Clone()

			fixed, _, err := ApplyFixAll(rs, Analyze(rs).Conflicts)
			if err != nil || !reflect.DeepEqual(rs, before) {
				return false
			}

			for _, c := range Analyze(fixed).Conflicts {
				if c.Severity != SeverityWarning {
					continue
				}
				if c.Kind == KindDuplicate || c.Kind == KindEmpty {
					t.Logf("rules=%+v fixed=%+v left %+v", rs, fixed, c)
					return false
				}
			}
			return len(fixed) <= len(rs)
		},
		gen.Int64(),
		gen.IntRange(0, 10),
	))

	properties.TestingRun(t)
}
