package commands

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/feedclean/internal/logger"
	"github.com/jmylchreest/feedclean/pkg/cleaner/rules"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Work with rule files",
}

var rulesValidateCmd = &cobra.Command{
	Use:   "validate <file>...",
	Short: "Compile rule files and report errors",
	Long: `Load and compile each rule file, reporting every invalid rule.

Exits non-zero if any file fails.

Examples:
  feedclean rules validate rules/wechat.yaml
  feedclean rules validate rules/*.yaml rules/*.json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRulesValidate,
}

// errValidation is returned when at least one rule file is invalid.
var errValidation = errors.New("rule validation failed")

func init() {
	rulesCmd.AddCommand(rulesValidateCmd)
	rootCmd.AddCommand(rulesCmd)
}

// validateRuleFiles compiles each path, writing one status line per file
// to w. It returns the number of invalid files.
func validateRuleFiles(w io.Writer, paths []string) int {
	failed := 0
	for _, path := range paths {
		rs, err := rules.FromFile(path)
		if err == nil {
			var c *rules.Cleaner
			if c, err = rules.Compile(rs); err == nil {
				fmt.Fprintf(w, "ok    %s (%s, %d rules)\n", path, c.Name(), c.Len())
				continue
			}
		}
		failed++
		fmt.Fprintf(w, "FAIL  %s\n", path)
		for _, line := range splitErrors(err) {
			fmt.Fprintf(w, "      %s\n", line)
		}
	}
	return failed
}

// splitErrors returns one line per joined error message.
func splitErrors(err error) []string {
	return strings.Split(err.Error(), "\n")
}

func runRulesValidate(cmd *cobra.Command, args []string) error {
	initLogger()

	failed := validateRuleFiles(cmd.OutOrStdout(), args)
	logger.Debug("rules validated", "files", len(args), "failed", failed)
	if failed > 0 {
		return fmt.Errorf("%w: %d of %d files", errValidation, failed, len(args))
	}
	return nil
}
