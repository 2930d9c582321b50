package commands

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/feedclean/internal/logger"
	"github.com/jmylchreest/feedclean/internal/output"
	"github.com/jmylchreest/feedclean/internal/source"
	"github.com/jmylchreest/feedclean/internal/version"
	"github.com/jmylchreest/feedclean/pkg/cleaner/dom"
	"github.com/jmylchreest/feedclean/pkg/cleaner/rules"
	"github.com/jmylchreest/feedclean/pkg/feed"
	"github.com/jmylchreest/feedclean/pkg/fetcher"
)

var feedCmd = &cobra.Command{
	Use:   "feed [url|file|-]",
	Short: "Clean every item description of an RSS feed",
	Long: `Parse an RSS feed, clean each item's description and write the result.

The feed comes from a URL, a file, stdin, or a named source in the config
file (--source). Flags override the source's settings.

Examples:
  feedclean feed https://rsshub.example.com/wechat/abc -r rules/wechat.yaml
  feedclean feed --source wechat-daily --format rss -o daily.xml
  feedclean feed feed.xml --limit 5 --format jsonl
  feedclean feed https://example.com/rss --detail-selector "#js_content"`,
	Args: cobra.MaximumNArgs(1),
	RunE: runFeed,
}

func init() {
	rootCmd.AddCommand(feedCmd)

	flags := feedCmd.Flags()
	flags.StringP("source", "s", "", "named source from the config file")
	flags.StringP("rules", "r", "", "rule file (YAML or JSON)")
	flags.IntP("limit", "n", 0, "max items to keep (0=all)")
	flags.IntP("concurrency", "c", 4, "items cleaned concurrently")
	flags.StringP("format", "f", "json", "output format: json, jsonl, yaml, rss")
	flags.String("detail-selector", "", "fetch each item's link and use this element as the description")
	flags.Bool("no-junk", false, "skip the junk cleaner")
	flags.Bool("sanitize", false, "sanitize descriptions with a UGC policy")
	flags.Duration("timeout", 30*time.Second, "request timeout")
	flags.String("max-body-size", "10MB", "max response body size (e.g., 512KB, 10MB)")
	flags.String("user-agent", "", "User-Agent header (default: feedclean/<version>)")
	flags.StringP("output", "o", "", "output file (default: stdout)")

	_ = viper.BindPFlag("concurrency", flags.Lookup("concurrency"))
	_ = viper.BindPFlag("timeout", flags.Lookup("timeout"))
	_ = viper.BindPFlag("max_body_size", flags.Lookup("max-body-size"))
	_ = viper.BindPFlag("user_agent", flags.Lookup("user-agent"))
}

// feedJob is the resolved input of one feed run.
type feedJob struct {
	input  string
	rules  *rules.Cleaner
	limit  int
	detail dom.Selector
}

// resolveFeedJob merges the --source entry with explicit flags.
func resolveFeedJob(cmd *cobra.Command, args []string) (*feedJob, error) {
	job := &feedJob{}
	if len(args) > 0 {
		job.input = args[0]
	}

	if name, _ := cmd.Flags().GetString("source"); name != "" {
		if job.input != "" {
			return nil, errors.New("--source and an input argument are mutually exclusive")
		}
		reg, err := source.FromViper(viper.GetViper())
		if err != nil {
			return nil, err
		}
		src, err := reg.Get(name)
		if err != nil {
			return nil, fmt.Errorf("%w (configured: %v)", err, reg.Names())
		}
		logger.Debug("using source", "name", src.Name, "url", src.URL, "rules", src.RuleFile)
		job.input = src.URL
		job.rules = src.Cleaner
		job.limit = src.Limit
		job.detail = src.Detail
	}

	flags := cmd.Flags()
	if flags.Changed("rules") {
		path, _ := flags.GetString("rules")
		rs, err := loadRules(path)
		if err != nil {
			return nil, err
		}
		job.rules = rs
	}
	if flags.Changed("limit") {
		job.limit, _ = flags.GetInt("limit")
	}
	if flags.Changed("detail-selector") {
		css, _ := flags.GetString("detail-selector")
		sel, err := dom.CompileSelector(css)
		if err != nil {
			return nil, err
		}
		job.detail = sel
	}
	return job, nil
}

func runFeed(cmd *cobra.Command, args []string) error {
	initLogger()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	job, err := resolveFeedJob(cmd, args)
	if err != nil {
		logger.Error("invalid feed input", "error", err)
		return err
	}

	formatStr, _ := cmd.Flags().GetString("format")
	format, err := output.ParseFormat(formatStr)
	if err != nil {
		return err
	}
	noJunk, _ := cmd.Flags().GetBool("no-junk")
	sanitize, _ := cmd.Flags().GetBool("sanitize")
	outPath, _ := cmd.Flags().GetString("output")

	junkCfg, err := junkConfig(viper.GetViper(), noJunk)
	if err != nil {
		return err
	}

	f, err := newFetcher(viper.GetViper())
	if err != nil {
		logger.Error("invalid fetch settings", "error", err)
		return err
	}
	defer func() { _ = f.Close() }()

	start := time.Now()
	feedXML, err := readInput(ctx, job.input, cmd.InOrStdin(), f)
	if err != nil {
		logger.Error("failed to read feed", "input", job.input, "error", err)
		return err
	}
	logger.Debug("feed read", "input", job.input, "bytes", len(feedXML), "duration", time.Since(start))

	p := feed.NewPipeline(job.rules,
		feed.WithLimit(job.limit),
		feed.WithConcurrency(viper.GetInt("concurrency")),
		feed.WithJunkConfig(junkCfg),
		feed.WithSanitize(sanitize),
		feed.WithDetailFetch(f, job.detail, fetcher.Options{}),
	)
	logger.Debug("pipeline configured", "stages", p.Name(), "limit", job.limit)

	result, err := p.Run(ctx, feedXML)
	if err != nil {
		logger.Error("feed processing failed", "error", err)
		return err
	}

	out, closeOut, err := openOutput(outPath, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer func() { _ = closeOut() }()

	writer, err := output.NewWriter(out, format, output.WithGenerator("feedclean "+version.String()))
	if err != nil {
		return err
	}
	if err := writer.WriteFeed(result); err != nil {
		logger.Error("failed to write output", "error", err)
		return err
	}
	if err := writer.Close(); err != nil {
		return err
	}

	logInfo("Cleaned %d items from %q in %s", len(result.Items), result.Title, time.Since(start).Round(time.Millisecond))
	if f.Len() > 0 {
		logger.Debug("pages fetched", "count", f.Len())
	}
	return nil
}
