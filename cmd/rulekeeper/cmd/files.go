package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/solatis/rulekeeper/internal/types"
)

// isYAML reports whether path names a YAML file.
func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	default:
		return false
	}
}

// readInput reads path, or stdin when path is "-".
func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

// loadRules reads a rule file as YAML or JSON by extension. Malformed entries
// are dropped with a warning.
func loadRules(path string) (types.RuleSet, error) {
	if path == "" {
		return nil, fmt.Errorf("--rules required")
	}
	data, err := readInput(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules: %w", err)
	}

	parse := types.ParseRuleSetJSON
	if isYAML(path) {
		parse = types.ParseRuleSetYAML
	}
	rs, dropped, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if dropped > 0 {
		logger.Warn("dropped malformed rules", "file", path, "dropped", dropped, "kept", len(rs))
	}
	return rs, nil
}

// writeRules writes rs to path in the format its extension names, or as JSON
// to w when path is empty.
func writeRules(w io.Writer, path string, rs types.RuleSet) error {
	if rs == nil {
		rs = types.RuleSet{}
	}
	var data []byte
	var err error
	if path != "" && isYAML(path) {
		data, err = yaml.Marshal(rs)
	} else {
		data, err = json.MarshalIndent(rs, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return fmt.Errorf("failed to encode rules: %w", err)
	}
	if path == "" {
		_, err = w.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// readText returns --text when set, otherwise the contents of --input
// ("-" for stdin).
func readText(text, input string) (string, error) {
	if text != "" {
		return text, nil
	}
	if input == "" {
		input = "-"
	}
	data, err := readInput(input)
	if err != nil {
		return "", fmt.Errorf("failed to read text: %w", err)
	}
	return string(data), nil
}

// writeJSON pretty-prints v to w.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
