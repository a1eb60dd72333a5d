package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/solatis/rulekeeper/internal/conflict"
)

// errCriticalConflicts makes analyze exit non-zero under --fail-on-critical.
var errCriticalConflicts = errors.New("critical conflicts found")

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Report conflicts between rules",
	RunE:  runAnalyze,
}

var fixCmd = &cobra.Command{
	Use:   "fix",
	Short: "Apply conflict autofixes to a rule file",
	Long: `Applies autofixes from a fresh analysis. By default every fixable
conflict is fixed; --conflict N fixes only the Nth conflict of the report.
The fixed rules go to stdout, or back into the rule file with --write.`,
	RunE: runFix,
}

func init() {
	rootCmd.AddCommand(analyzeCmd, fixCmd)

	analyzeCmd.Flags().String("rules", "", "rule file (.json, .yaml or .yml)")
	analyzeCmd.Flags().Bool("json", false, "print the report as JSON")
	analyzeCmd.Flags().Bool("fail-on-critical", false, "exit non-zero when a critical conflict is found")

	fixCmd.Flags().String("rules", "", "rule file (.json, .yaml or .yml)")
	fixCmd.Flags().Int("conflict", -1, "fix only this conflict (index into the report)")
	fixCmd.Flags().Bool("write", false, "overwrite the rule file instead of printing")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	rulesPath, _ := cmd.Flags().GetString("rules")
	asJSON, _ := cmd.Flags().GetBool("json")
	failOnCritical, _ := cmd.Flags().GetBool("fail-on-critical")

	rs, err := loadRules(rulesPath)
	if err != nil {
		return err
	}

	report := conflict.Analyze(rs)
	logger.Debug("analysis complete", "rules", len(rs), "conflicts", len(report.Conflicts), "fixable", len(report.Fixable()))
	if asJSON {
		err = writeJSON(cmd.OutOrStdout(), report)
	} else {
		_, err = fmt.Fprint(cmd.OutOrStdout(), conflict.FormatReport(report))
	}
	if err != nil {
		return err
	}

	if failOnCritical && report.HasCritical() {
		return errCriticalConflicts
	}
	return nil
}

func runFix(cmd *cobra.Command, args []string) error {
	rulesPath, _ := cmd.Flags().GetString("rules")
	index, _ := cmd.Flags().GetInt("conflict")
	write, _ := cmd.Flags().GetBool("write")

	rs, err := loadRules(rulesPath)
	if err != nil {
		return err
	}
	report := conflict.Analyze(rs)

	var unfixed []conflict.Conflict
	if index >= 0 {
		if index >= len(report.Conflicts) {
			return fmt.Errorf("--conflict %d out of range, report has %d conflicts", index, len(report.Conflicts))
		}
		c := report.Conflicts[index]
		if rs, err = conflict.ApplyFix(rs, c); err != nil {
			return err
		}
		if !c.Fixable() {
			unfixed = append(unfixed, c)
		}
	} else {
		if len(report.Fixable()) == 0 {
			logger.Info("no conflict carries an autofix", "conflicts", len(report.Conflicts))
		}
		if rs, unfixed, err = conflict.ApplyFixAll(rs, report.Conflicts); err != nil {
			return err
		}
	}

	for _, c := range unfixed {
		logger.Warn("conflict left unfixed", "kind", string(c.Kind), "severity", string(c.Severity), "rules", c.RuleIndices)
	}

	if write {
		if rulesPath == "-" {
			return fmt.Errorf("--write needs a rule file, not stdin")
		}
		if err := writeRules(nil, rulesPath, rs); err != nil {
			return err
		}
		logger.Info("rule file updated", "file", rulesPath, "rules", len(rs), "unfixed", len(unfixed))
		return nil
	}
	return writeRules(cmd.OutOrStdout(), "", rs)
}
