// internal/rules/index_test.go
package rules

import (
	"testing"

	"github.com/solatis/rulekeeper/internal/types"
)

func TestBuildIndex_DropsEmptyKeys(t *testing.T) {
	rs := types.RuleSet{
		{Pattern: "", Replacement: "x"},
		{Pattern: "a", Replacement: ""},
		{Pattern: "bc", Replacement: "y"},
	}

	enc := BuildIndex(rs, types.DirectionEncode)
	if enc.Len() != 2 {
		t.Errorf("encode Len() = %d, want 2", enc.Len())
	}
	if _, ok := enc.Exact[""]; ok {
		t.Errorf("encode Exact contains empty key")
	}

	dec := BuildIndex(rs, types.DirectionDecode)
	if dec.Len() != 2 {
		t.Errorf("decode Len() = %d, want 2", dec.Len())
	}
	if _, ok := dec.Exact["x"]; !ok {
		t.Errorf("decode Exact missing replacement key x")
	}
}

func TestBuildIndex_LastDuplicateWins(t *testing.T) {
	rs := types.RuleSet{
		{Pattern: "cat", Replacement: "dog"},
		{Pattern: "cat", Replacement: "cow"},
	}

	ix := BuildIndex(rs, types.DirectionEncode)
	if got := ix.Exact["cat"].Replacement; got != "cow" {
		t.Errorf("Exact[cat].Replacement = %q, want %q", got, "cow")
	}
	// Sorted keeps both; substring mode applies them in order.
	if len(ix.Sorted) != 2 {
		t.Errorf("len(Sorted) = %d, want 2", len(ix.Sorted))
	}
}

func TestBuildIndex_SortedLongestFirstStable(t *testing.T) {
	rs := types.RuleSet{
		{Pattern: "a", Replacement: "1"},
		{Pattern: "bb", Replacement: "2"},
		{Pattern: "c", Replacement: "3"},
		{Pattern: "ddd", Replacement: "4"},
		{Pattern: "ee", Replacement: "5"},
	}

	ix := BuildIndex(rs, types.DirectionEncode)
	want := []string{"ddd", "bb", "ee", "a", "c"}
	for i, w := range want {
		if ix.Sorted[i].Pattern != w {
			t.Errorf("Sorted[%d] = %q, want %q", i, ix.Sorted[i].Pattern, w)
		}
	}

	if ix.MaxKeyLen != 3 {
		t.Errorf("MaxKeyLen = %d, want 3", ix.MaxKeyLen)
	}
	if len(ix.Chars) != 2 || ix.Chars[0].Pattern != "a" || ix.Chars[1].Pattern != "c" {
		t.Errorf("Chars = %+v, want [a c]", ix.Chars)
	}
}

func TestBuildIndex_LengthInCodepoints(t *testing.T) {
	// "é" is two bytes but one codepoint; "ab" is two codepoints.
	rs := types.RuleSet{
		{Pattern: "é", Replacement: "e"},
		{Pattern: "ab", Replacement: "x"},
	}

	ix := BuildIndex(rs, types.DirectionEncode)
	if ix.Sorted[0].Pattern != "ab" {
		t.Errorf("Sorted[0] = %q, want ab (longer in codepoints)", ix.Sorted[0].Pattern)
	}
	if len(ix.Chars) != 1 || ix.Chars[0].Pattern != "é" {
		t.Errorf("Chars = %+v, want [é]", ix.Chars)
	}
}

func TestBuildIndex_DoesNotMutateInput(t *testing.T) {
	rs := types.RuleSet{
		{Pattern: "a", Replacement: "1"},
		{Pattern: "bb", Replacement: "2"},
	}
	_ = BuildIndex(rs, types.DirectionEncode)
	if rs[0].Pattern != "a" || rs[1].Pattern != "bb" {
		t.Errorf("BuildIndex reordered its input: %+v", rs)
	}
}

func TestFingerprint(t *testing.T) {
	a := types.RuleSet{{Pattern: "a", Replacement: "b"}}
	b := types.RuleSet{{Pattern: "a", Replacement: "c"}}
	swapped := types.RuleSet{{Pattern: "ab", Replacement: ""}}
	split := types.RuleSet{{Pattern: "a", Replacement: "b"}}

	if Fingerprint(a) == Fingerprint(b) {
		t.Errorf("different rule sets share a fingerprint")
	}
	if Fingerprint(a) != Fingerprint(split) {
		t.Errorf("equal rule sets have different fingerprints")
	}
	if Fingerprint(swapped) == Fingerprint(a) {
		t.Errorf("field boundary not part of fingerprint")
	}
	if Fingerprint(nil) != Fingerprint(types.RuleSet{}) {
		t.Errorf("nil and empty rule sets differ")
	}

	// Invalid UTF-8 must not collapse onto the replacement character.
	bad1 := types.RuleSet{{Pattern: "\xff", Replacement: "x"}}
	bad2 := types.RuleSet{{Pattern: "\xfe", Replacement: "x"}}
	if Fingerprint(bad1) == Fingerprint(bad2) {
		t.Errorf("invalid UTF-8 patterns share a fingerprint")
	}
}
