// internal/conflict/fix_test.go
package conflict

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solatis/rulekeeper/internal/types"
)

func TestApplyFix_DeleteDuplicate(t *testing.T) {
	rs := types.RuleSet{{Pattern: "a", Replacement: "x"}, {Pattern: "a", Replacement: "x"}}
	c := Analyze(rs).Conflicts[0]

	fixed, err := ApplyFix(rs, c)
	require.NoError(t, err)
	assert.Equal(t, types.RuleSet{{Pattern: "a", Replacement: "x"}}, fixed)
	assert.Len(t, rs, 2, "input must not be modified")
	assert.Empty(t, Analyze(fixed).Conflicts)
}

func TestApplyFix_DeleteEmpty(t *testing.T) {
	rs := types.RuleSet{{Pattern: "", Replacement: "x"}}
	c := Analyze(rs).Conflicts[0]

	fixed, err := ApplyFix(rs, c)
	require.NoError(t, err)
	assert.Empty(t, fixed)
}

func TestApplyFix_Reorder(t *testing.T) {
	rs := types.RuleSet{
		{Pattern: "a", Replacement: "1"},
		{Pattern: "z", Replacement: "2"},
		{Pattern: "ab", Replacement: "3"},
	}
	report := Analyze(rs)
	require.Len(t, report.Conflicts, 1)
	require.Equal(t, []int{2, 0}, report.Conflicts[0].Fix.Indices)

	fixed, err := ApplyFix(rs, report.Conflicts[0])
	require.NoError(t, err)
	assert.Equal(t, types.RuleSet{
		{Pattern: "ab", Replacement: "3"},
		{Pattern: "a", Replacement: "1"},
		{Pattern: "z", Replacement: "2"},
	}, fixed)
}

func TestApplyFix_ReorderAlreadyOrdered(t *testing.T) {
	rs := types.RuleSet{{Pattern: "ab", Replacement: "x"}, {Pattern: "a", Replacement: "y"}}
	c := Analyze(rs).Conflicts[0]

	fixed, err := ApplyFix(rs, c)
	require.NoError(t, err)
	assert.Equal(t, rs, fixed)
}

func TestApplyFix_UnfixableIsNoOp(t *testing.T) {
	rs := types.RuleSet{{Pattern: "a", Replacement: "b"}, {Pattern: "b", Replacement: "a"}}
	c := Analyze(rs).Conflicts[0]
	require.False(t, c.Fixable())

	fixed, err := ApplyFix(rs, c)
	require.NoError(t, err)
	assert.Equal(t, rs, fixed)
}

func TestApplyFix_StaleIndices(t *testing.T) {
	rs := types.RuleSet{{Pattern: "a", Replacement: "x"}, {Pattern: "a", Replacement: "x"}}
	c := Analyze(rs).Conflicts[0]

	_, err := ApplyFix(rs[:1], c)
	require.ErrorIs(t, err, types.ErrConflictIndexOutOfRange)

	bad := Conflict{Fix: &FixSpec{Action: FixReorder, Indices: []int{0}}}
	_, err = ApplyFix(rs, bad)
	require.ErrorIs(t, err, types.ErrConflictIndexOutOfRange)
}

func TestApplyFixAll_DeletesThenReorders(t *testing.T) {
	rs := types.RuleSet{
		{Pattern: "", Replacement: "x"},   // 0 deleted
		{Pattern: "a", Replacement: "x"},  // 1 kept
		{Pattern: "a", Replacement: "x"},  // 2 deleted
		{Pattern: "b", Replacement: "z"},  // 3
		{Pattern: "bc", Replacement: "y"}, // 4 moved before 3
	}
	report := Analyze(rs)

	fixed, unfixed, err := ApplyFixAll(rs, report.Conflicts)
	require.NoError(t, err)
	assert.Equal(t, types.RuleSet{
		{Pattern: "a", Replacement: "x"},
		{Pattern: "bc", Replacement: "y"},
		{Pattern: "b", Replacement: "z"},
	}, fixed)
	assert.Empty(t, unfixed)
	assert.NotNil(t, unfixed)
}

func TestApplyFixAll_TransitiveOverlapsSettle(t *testing.T) {
	rs := types.RuleSet{
		{Pattern: "a", Replacement: "1"},
		{Pattern: "ab", Replacement: "2"},
		{Pattern: "abc", Replacement: "3"},
	}

	fixed, unfixed, err := ApplyFixAll(rs, Analyze(rs).Conflicts)
	require.NoError(t, err)
	assert.Empty(t, unfixed)
	assert.Equal(t, types.RuleSet{
		{Pattern: "abc", Replacement: "3"},
		{Pattern: "ab", Replacement: "2"},
		{Pattern: "a", Replacement: "1"},
	}, fixed)
}

func TestApplyFixAll_ReturnsUnfixed(t *testing.T) {
	rs := types.RuleSet{
		{Pattern: "ab", Replacement: "x"},
		{Pattern: "ab", Replacement: "x"},
		{Pattern: "a", Replacement: "y"},
		{Pattern: "q", Replacement: "r"},
		{Pattern: "r", Replacement: "q"},
	}
	report := Analyze(rs)

	fixed, unfixed, err := ApplyFixAll(rs, report.Conflicts)
	require.NoError(t, err)
	assert.Len(t, fixed, 4)

	// The cycle has no fix; the overlap of rule 1 is moot once rule 1 is gone.
	require.Len(t, unfixed, 2)
	assert.Equal(t, KindCircular, unfixed[0].Kind)
	assert.Equal(t, KindOverlap, unfixed[1].Kind)
	assert.Equal(t, []int{1, 2}, unfixed[1].RuleIndices)
}

func TestApplyFixAll_StaleIndices(t *testing.T) {
	rs := types.RuleSet{{Pattern: "", Replacement: "x"}}
	c := Analyze(rs).Conflicts[0]

	_, _, err := ApplyFixAll(types.RuleSet{}, []Conflict{c})
	require.ErrorIs(t, err, types.ErrConflictIndexOutOfRange)
}
