package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/solatis/rulekeeper/internal/rules"
	"github.com/solatis/rulekeeper/internal/types"
)

var transformCmd = &cobra.Command{
	Use:   "transform",
	Short: "Apply rules to text in one direction and mode",
	RunE:  runTransform,
}

var encodeCmd = &cobra.Command{
	Use:   "encode",
	Short: "Encode text and record the applied-rule log",
	RunE:  runEncode,
}

var decodeCmd = &cobra.Command{
	Use:   "decode",
	Short: "Decode text with the applied-rule log of its encode",
	RunE:  runDecode,
}

func init() {
	rootCmd.AddCommand(transformCmd, encodeCmd, decodeCmd)

	for _, c := range []*cobra.Command{transformCmd, encodeCmd, decodeCmd} {
		c.Flags().String("text", "", "text to transform (default: read --input)")
		c.Flags().String("input", "-", "file holding the text, - for stdin")
	}
	transformCmd.Flags().String("rules", "", "rule file (.json, .yaml or .yml)")
	transformCmd.Flags().String("direction", "encode", "direction (encode, decode)")
	transformCmd.Flags().String("mode", "substring", "mode (substring, word, hybrid)")
	transformCmd.Flags().Int("chunk-size", 0, "chunk length in codepoints for large rule sets, 0 disables")

	encodeCmd.Flags().String("rules", "", "rule file (.json, .yaml or .yml)")
	encodeCmd.Flags().String("log", "", "write the applied-rule log here instead of printing a JSON envelope")

	decodeCmd.Flags().String("log", "", "applied-rule log written by encode")
	_ = decodeCmd.MarkFlagRequired("log")
}

func textFlags(cmd *cobra.Command) (string, error) {
	text, _ := cmd.Flags().GetString("text")
	input, _ := cmd.Flags().GetString("input")
	return readText(text, input)
}

func runTransform(cmd *cobra.Command, args []string) error {
	rulesPath, _ := cmd.Flags().GetString("rules")
	dirName, _ := cmd.Flags().GetString("direction")
	modeName, _ := cmd.Flags().GetString("mode")
	chunkSize, _ := cmd.Flags().GetInt("chunk-size")

	dir, err := types.ParseDirection(dirName)
	if err != nil {
		return err
	}
	mode, err := types.ParseMode(modeName)
	if err != nil {
		return err
	}
	rs, err := loadRules(rulesPath)
	if err != nil {
		return err
	}
	text, err := textFlags(cmd)
	if err != nil {
		return err
	}

	engine := rules.NewEngine(rules.WithChunkSize(chunkSize), rules.WithLogger(logger))
	logger.Debug("transform", "rules", len(rs), "accelerated", engine.UsesAccelerated(rs, dir))
	_, err = fmt.Fprint(cmd.OutOrStdout(), engine.Transform(text, rs, dir, mode))
	return err
}

// encodeEnvelope is printed by encode when no --log file is given; decode
// accepts it as its --log input too.
type encodeEnvelope struct {
	Result     string           `json:"result"`
	AppliedLog types.AppliedLog `json:"applied_log"`
}

func runEncode(cmd *cobra.Command, args []string) error {
	rulesPath, _ := cmd.Flags().GetString("rules")
	logPath, _ := cmd.Flags().GetString("log")

	rs, err := loadRules(rulesPath)
	if err != nil {
		return err
	}
	text, err := textFlags(cmd)
	if err != nil {
		return err
	}

	result, log := rules.EncodeTracked(text, rs)
	if logPath == "" {
		return writeJSON(cmd.OutOrStdout(), encodeEnvelope{Result: result, AppliedLog: log})
	}
	if err := writeRules(nil, logPath, types.RuleSet(log)); err != nil {
		return err
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), result)
	return err
}

func runDecode(cmd *cobra.Command, args []string) error {
	logPath, _ := cmd.Flags().GetString("log")

	log, err := loadLog(logPath)
	if err != nil {
		return err
	}
	text, err := textFlags(cmd)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), rules.DecodeTracked(text, log))
	return err
}

// loadLog reads an applied-rule log: a rule file, or the JSON envelope
// printed by encode.
func loadLog(path string) (types.AppliedLog, error) {
	if !isYAML(path) {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read log: %w", err)
		}
		var env struct {
			AppliedLog json.RawMessage `json:"applied_log"`
		}
		if json.Unmarshal(data, &env) == nil && env.AppliedLog != nil {
			rs, _, err := types.ParseRuleSetJSON(env.AppliedLog)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
			return types.AppliedLog(rs), nil
		}
	}
	rs, err := loadRules(path)
	if err != nil {
		return nil, err
	}
	return types.AppliedLog(rs), nil
}
