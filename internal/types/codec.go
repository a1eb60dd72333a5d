package types

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Boundary validation for rule payloads.
//
// Rule payloads arrive from callers, files and the store as loosely shaped
// documents: entries may be missing fields or carry non-string values. This
// is the single step that turns such documents into a well-formed RuleSet.
// A non-array top level is a caller error (ErrInvalidRuleSet); malformed
// entries are dropped silently and only counted.

// ParseRuleSetJSON decodes a JSON array of {"from","to"} objects.
// Returns the valid rules and the number of dropped entries.
func ParseRuleSetJSON(data []byte) (RuleSet, int, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrInvalidRuleSet, err)
	}
	return RuleSetFromAny(doc)
}

// ParseRuleSetYAML decodes a YAML sequence of from/to mappings.
func ParseRuleSetYAML(data []byte) (RuleSet, int, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrInvalidRuleSet, err)
	}
	return RuleSetFromAny(doc)
}

// RuleSetFromAny validates a generic decoded document.
// Accepts []any whose elements are map[string]any (encoding/json, yaml.v3)
// or map[any]any (yaml.v3 with non-string keys elsewhere in the mapping).
func RuleSetFromAny(doc any) (RuleSet, int, error) {
	items, ok := doc.([]any)
	if !ok {
		return nil, 0, ErrInvalidRuleSet
	}

	rs := make(RuleSet, 0, len(items))
	dropped := 0
	for _, item := range items {
		rule, ok := ruleFromAny(item)
		if !ok {
			dropped++
			continue
		}
		rs = append(rs, rule)
	}
	return rs, dropped, nil
}

// ruleFromAny extracts a Rule when both from and to are present strings.
func ruleFromAny(item any) (Rule, bool) {
	var from, to any
	var hasFrom, hasTo bool

	switch m := item.(type) {
	case map[string]any:
		from, hasFrom = m["from"]
		to, hasTo = m["to"]
	case map[any]any:
		from, hasFrom = m["from"]
		to, hasTo = m["to"]
	default:
		return Rule{}, false
	}
	if !hasFrom || !hasTo {
		return Rule{}, false
	}

	pattern, ok1 := from.(string)
	replacement, ok2 := to.(string)
	if !ok1 || !ok2 {
		return Rule{}, false
	}
	return Rule{Pattern: pattern, Replacement: replacement}, true
}

// MarshalRuleSet encodes rules as the canonical JSON blob used for storage
// and fingerprinting. A nil RuleSet encodes as [] so empty sets are stable.
func MarshalRuleSet(rs RuleSet) ([]byte, error) {
	if rs == nil {
		rs = RuleSet{}
	}
	return json.Marshal(rs)
}
