// internal/rules/ledger_test.go
package rules

import (
	"testing"

	"github.com/solatis/rulekeeper/internal/types"
)

func TestEncodeTracked_RoundTrip(t *testing.T) {
	rs := types.RuleSet{
		{Pattern: "hello", Replacement: "hi"},
		{Pattern: "world", Replacement: "earth"},
		{Pattern: "unused", Replacement: "never"},
	}

	encoded, log := EncodeTracked("hello world", rs)
	if encoded != "hi earth" {
		t.Fatalf("EncodeTracked() text = %q, want %q", encoded, "hi earth")
	}
	if len(log) != 2 {
		t.Fatalf("len(log) = %d, want 2 (unmatched rules are not logged)", len(log))
	}
	if log[0].Pattern != "hello" || log[1].Pattern != "world" {
		t.Errorf("log = %+v, want [hello world] in application order", log)
	}

	if got := DecodeTracked(encoded, log); got != "hello world" {
		t.Errorf("DecodeTracked() = %q, want %q", got, "hello world")
	}
}

func TestEncodeTracked_NoOps(t *testing.T) {
	tests := []struct {
		name string
		text string
		rs   types.RuleSet
		want string
	}{
		{"empty text", "", types.RuleSet{{Pattern: "a", Replacement: "b"}}, ""},
		{"empty rule set", "abc", nil, "abc"},
		{"degenerate rule", "abc", types.RuleSet{{Pattern: "a", Replacement: "a"}}, "abc"},
		{"empty pattern", "abc", types.RuleSet{{Pattern: "", Replacement: "x"}}, "abc"},
		{"no match", "abc", types.RuleSet{{Pattern: "z", Replacement: "y"}}, "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, log := EncodeTracked(tt.text, tt.rs)
			if got != tt.want {
				t.Errorf("EncodeTracked() text = %q, want %q", got, tt.want)
			}
			if log == nil {
				t.Errorf("EncodeTracked() log = nil, want empty non-nil log")
			}
			if len(log) != 0 {
				t.Errorf("EncodeTracked() log = %+v, want empty", log)
			}
		})
	}
}

func TestEncodeTracked_LongestFirst(t *testing.T) {
	rs := types.RuleSet{
		{Pattern: "a", Replacement: "1"},
		{Pattern: "abc", Replacement: "2"},
	}

	got, log := EncodeTracked("abc a", rs)
	if got != "2 1" {
		t.Errorf("EncodeTracked() text = %q, want %q", got, "2 1")
	}
	if len(log) != 2 || log[0].Pattern != "abc" || log[1].Pattern != "a" {
		t.Errorf("log = %+v, want [abc a]", log)
	}
	if back := DecodeTracked(got, log); back != "abc a" {
		t.Errorf("DecodeTracked() = %q, want %q", back, "abc a")
	}
}

func TestDecodeTracked_StaleLog(t *testing.T) {
	log := types.AppliedLog{
		{Pattern: "hello", Replacement: "hi"},
		{Pattern: "world", Replacement: "earth"},
	}

	// "earth" was edited away; the remaining entry still applies.
	if got := DecodeTracked("hi there", log); got != "hello there" {
		t.Errorf("DecodeTracked() = %q, want %q", got, "hello there")
	}

	// A log from an unrelated call leaves text untouched.
	other := types.AppliedLog{{Pattern: "x", Replacement: "yyy"}}
	if got := DecodeTracked("hi there", other); got != "hi there" {
		t.Errorf("DecodeTracked() with unrelated log = %q, want unchanged", got)
	}
}

func TestDecodeTracked_EdgeCases(t *testing.T) {
	tests := []struct {
		name string
		text string
		log  types.AppliedLog
		want string
	}{
		{"empty text", "", types.AppliedLog{{Pattern: "a", Replacement: "b"}}, ""},
		{"nil log", "abc", nil, "abc"},
		{"empty replacement skipped", "ac", types.AppliedLog{{Pattern: "b", Replacement: ""}}, "ac"},
		{"reverse order", "3", types.AppliedLog{{Pattern: "1", Replacement: "2"}, {Pattern: "2", Replacement: "3"}}, "1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DecodeTracked(tt.text, tt.log); got != tt.want {
				t.Errorf("DecodeTracked() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEncodeTracked_EmptyReplacementIsLossy(t *testing.T) {
	rs := types.RuleSet{{Pattern: "b", Replacement: ""}}

	got, log := EncodeTracked("abc", rs)
	if got != "ac" {
		t.Fatalf("EncodeTracked() text = %q, want %q", got, "ac")
	}
	if len(log) != 1 {
		t.Fatalf("len(log) = %d, want 1", len(log))
	}
	if back := DecodeTracked(got, log); back != "ac" {
		t.Errorf("DecodeTracked() = %q, want %q (deletion cannot be located)", back, "ac")
	}
}

func TestEngine_TrackedDelegates(t *testing.T) {
	e := NewEngine()
	rs := types.RuleSet{{Pattern: "cat", Replacement: "<0>"}}

	encoded, log := e.EncodeTracked("cat scat", rs)
	if encoded != "<0> s<0>" {
		t.Errorf("EncodeTracked() = %q", encoded)
	}
	if got := e.DecodeTracked(encoded, log); got != "cat scat" {
		t.Errorf("DecodeTracked() = %q, want %q", got, "cat scat")
	}
}
