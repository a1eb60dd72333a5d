// internal/rules/property_test.go
package rules

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/solatis/rulekeeper/internal/types"
)

var (
	allModes = []types.Mode{types.ModeSubstring, types.ModeWord, types.ModeHybrid}
	allDirs  = []types.Direction{types.DirectionEncode, types.DirectionDecode}
)

// randString draws up to maxLen runes from alphabet.
func randString(r *rand.Rand, alphabet string, minLen, maxLen int) string {
	n := minLen + r.Intn(maxLen-minLen+1)
	runes := []rune(alphabet)
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteRune(runes[r.Intn(len(runes))])
	}
	return b.String()
}

// randRuleSet builds a small rule set over [ab] so that rules collide often.
func randRuleSet(r *rand.Rand, n int) types.RuleSet {
	rs := make(types.RuleSet, n)
	for i := range rs {
		rs[i] = types.Rule{
			Pattern:     randString(r, "ab", 0, 3),
			Replacement: randString(r, "ab", 0, 3),
		}
	}
	return rs
}

// Property-based test: accelerated output equals baseline output
func TestTransform_PropertyAcceleratedMatchesBaseline(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("accelerated and baseline agree for every mode and direction", prop.ForAll(
		func(seed int64, ruleCount int) bool {
			r := rand.New(rand.NewSource(seed))
			rs := randRuleSet(r, ruleCount)
			text := randString(r, "ab ", 0, 24)

			acc := NewAccelerated(NewResultCache(8), 4, 0, nil)
			for _, dir := range allDirs {
				for _, mode := range allModes {
					want := Baseline{}.Transform(text, rs, dir, mode)
					if got := acc.Transform(text, rs, dir, mode); got != want {
						t.Logf("rules=%+v text=%q dir=%v mode=%v: accelerated=%q baseline=%q",
							rs, text, dir, mode, got, want)
						return false
					}
				}
			}
			return true
		},
		gen.Int64(),
		gen.IntRange(0, 12),
	))

	properties.TestingRun(t)
}

// Property-based test: caching never changes output
func TestTransform_PropertyDeterministicWithAndWithoutCache(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("same input gives same output with cache on or off", prop.ForAll(
		func(seed int64) bool {
			r := rand.New(rand.NewSource(seed))
			rs := manyRules(AcceleratedThreshold)
			rs = append(rs, randRuleSet(r, 5)...)
			text := randString(r, "ab ", 0, 16) + " w042 " + randString(r, "ab ", 0, 8)

			cached := NewEngine()
			uncached := NewEngine(WithCache(nil), WithIndexMemo(0))

			for _, mode := range allModes {
				first := cached.Transform(text, rs, types.DirectionEncode, mode)
				second := cached.Transform(text, rs, types.DirectionEncode, mode)
				plain := uncached.Transform(text, rs, types.DirectionEncode, mode)
				if first != second || first != plain {
					return false
				}
			}
			return true
		},
		gen.Int64(),
	))

	properties.TestingRun(t)
}

// Property-based test: tracked encode/decode round-trips
func TestTracked_PropertyRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	// Markers use characters that never occur in patterns or text, so applied
	// rules cannot overlap each other.
	properties.Property("decode(encode(text)) == text for marker rule sets", prop.ForAll(
		func(seed int64, ruleCount int) bool {
			r := rand.New(rand.NewSource(seed))

			seen := make(map[string]bool)
			var rs types.RuleSet
			for len(rs) < ruleCount {
				p := randString(r, "abcd", 2, 2)
				if seen[p] {
					continue
				}
				seen[p] = true
				rs = append(rs, types.Rule{Pattern: p, Replacement: fmt.Sprintf("<%d>", len(rs))})
			}
			text := randString(r, "abcd ", 0, 40)

			encoded, log := EncodeTracked(text, rs)
			if got := DecodeTracked(encoded, log); got != text {
				t.Logf("rules=%+v text=%q encoded=%q decoded=%q", rs, text, encoded, got)
				return false
			}
			return true
		},
		gen.Int64(),
		gen.IntRange(0, 16),
	))

	properties.TestingRun(t)
}

// Property-based test: mode equivalences on restricted rule sets
func TestTransform_PropertyModeEquivalence(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("single-char rules: substring == hybrid", prop.ForAll(
		func(seed int64, ruleCount int) bool {
			r := rand.New(rand.NewSource(seed))
			rs := make(types.RuleSet, ruleCount)
			for i := range rs {
				rs[i] = types.Rule{
					Pattern:     randString(r, "abc", 1, 1),
					Replacement: randString(r, "abc", 0, 3),
				}
			}
			text := randString(r, "abc ", 0, 24)

			sub := Baseline{}.Transform(text, rs, types.DirectionEncode, types.ModeSubstring)
			hyb := Baseline{}.Transform(text, rs, types.DirectionEncode, types.ModeHybrid)
			return sub == hyb
		},
		gen.Int64(),
		gen.IntRange(0, 8),
	))

	properties.Property("multi-char rules: word == hybrid", prop.ForAll(
		func(seed int64, ruleCount int) bool {
			r := rand.New(rand.NewSource(seed))
			rs := make(types.RuleSet, ruleCount)
			for i := range rs {
				rs[i] = types.Rule{
					Pattern:     randString(r, "abc", 2, 3),
					Replacement: randString(r, "abc", 2, 3),
				}
			}
			text := randString(r, "abc ", 0, 24)

			for _, dir := range allDirs {
				word := Baseline{}.Transform(text, rs, dir, types.ModeWord)
				hyb := Baseline{}.Transform(text, rs, dir, types.ModeHybrid)
				if word != hyb {
					return false
				}
			}
			return true
		},
		gen.Int64(),
		gen.IntRange(0, 8),
	))

	properties.TestingRun(t)
}
