package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/feedclean/internal/logger"
	"github.com/jmylchreest/feedclean/pkg/cleaner"
	"github.com/jmylchreest/feedclean/pkg/cleaner/junk"
	"github.com/jmylchreest/feedclean/pkg/cleaner/rules"
)

var cleanCmd = &cobra.Command{
	Use:   "clean [file|url|-]",
	Short: "Clean one HTML document",
	Long: `Clean an HTML document with a rule file and the junk cleaner.

Input is read from a file, fetched from a URL, or read from stdin when
no argument (or "-") is given.

Examples:
  feedclean clean article.html --rules rules/wechat.yaml
  curl -s https://example.com/a | feedclean clean --format markdown
  feedclean clean article.html --stats --sanitize -o clean.html`,
	Args: cobra.MaximumNArgs(1),
	RunE: runClean,
}

func init() {
	rootCmd.AddCommand(cleanCmd)

	flags := cleanCmd.Flags()
	flags.StringP("rules", "r", "", "rule file (YAML or JSON)")
	flags.Bool("no-junk", false, "skip the junk cleaner")
	flags.Bool("sanitize", false, "sanitize output with a UGC policy")
	flags.StringP("format", "f", "html", "output format: html, text, markdown")
	flags.Bool("stats", false, "print cleaning statistics to stderr")
	flags.StringP("output", "o", "", "output file (default: stdout)")
}

// cleanOptions selects the stages of a single-document clean.
type cleanOptions struct {
	Rules    *rules.Cleaner
	Junk     *junk.Config // nil disables the junk pass
	Sanitize bool
	Format   string
}

// statsCleaner is implemented by stages that report what they removed.
type statsCleaner interface {
	CleanWithStats(html string) *cleaner.Result
}

// stages returns the cleaners for opts in run order.
func (o cleanOptions) stages() ([]cleaner.Cleaner, error) {
	var stages []cleaner.Cleaner
	if o.Rules != nil {
		stages = append(stages, o.Rules)
	}
	if o.Junk != nil {
		stages = append(stages, junk.New(o.Junk))
	}
	if o.Sanitize {
		stages = append(stages, cleaner.NewSanitizer(nil))
	}

	switch o.Format {
	case "", "html":
	case "text":
		stages = append(stages, cleaner.NewText())
	case "markdown", "md":
		stages = append(stages, cleaner.NewMarkdown())
	default:
		return nil, fmt.Errorf("unsupported format: %s (want html, text or markdown)", o.Format)
	}
	return stages, nil
}

// cleanDocument runs every stage over html, collecting stats from stages
// that report them. A stage that falls back to its input adds a warning
// instead of failing the run.
func cleanDocument(html string, opts cleanOptions) (*cleaner.Result, error) {
	stages, err := opts.stages()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	result := cleaner.NewResult()
	content := html
	for _, stage := range stages {
		if sc, ok := stage.(statsCleaner); ok {
			r := sc.CleanWithStats(content)
			result.Stats.Merge(r.Stats)
			result.Warnings = append(result.Warnings, r.Warnings...)
			content = r.Content
			continue
		}
		out, err := stage.Clean(content)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", stage.Name(), err)
		}
		content = out
	}

	result.Content = content
	result.Stats.InputBytes = len(html)
	result.Stats.OutputBytes = len(content)
	result.Stats.TotalDuration = time.Since(start)
	return result, nil
}

func runClean(cmd *cobra.Command, args []string) error {
	initLogger()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	arg := ""
	if len(args) > 0 {
		arg = args[0]
	}

	rulesPath, _ := cmd.Flags().GetString("rules")
	noJunk, _ := cmd.Flags().GetBool("no-junk")
	sanitize, _ := cmd.Flags().GetBool("sanitize")
	format, _ := cmd.Flags().GetString("format")
	showStats, _ := cmd.Flags().GetBool("stats")
	outPath, _ := cmd.Flags().GetString("output")

	rs, err := loadRules(rulesPath)
	if err != nil {
		logger.Error("failed to load rules", "path", rulesPath, "error", err)
		return err
	}
	junkCfg, err := junkConfig(viper.GetViper(), noJunk)
	if err != nil {
		return err
	}

	var input string
	if isURL(arg) {
		f, err := newFetcher(viper.GetViper())
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		input, err = readInput(ctx, arg, cmd.InOrStdin(), f)
		if err != nil {
			return err
		}
	} else if input, err = readInput(ctx, arg, cmd.InOrStdin(), nil); err != nil {
		return err
	}

	result, err := cleanDocument(input, cleanOptions{
		Rules:    rs,
		Junk:     junkCfg,
		Sanitize: sanitize,
		Format:   format,
	})
	if err != nil {
		logger.Error("cleaning failed", "error", err)
		return err
	}
	for _, w := range result.Warnings {
		logger.Warn("cleaning warning", "warning", w.String())
	}

	out, closeOut, err := openOutput(outPath, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer func() { _ = closeOut() }()

	if _, err := io.WriteString(out, result.Content+"\n"); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if showStats {
		fmt.Fprint(os.Stderr, result.Stats.String())
	}
	if outPath != "" {
		logInfo("Wrote %s", outPath)
	}
	return nil
}
