package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"

	"github.com/jmylchreest/feedclean/internal/logger"
	"github.com/jmylchreest/feedclean/internal/version"
	"github.com/jmylchreest/feedclean/pkg/cleaner/junk"
	"github.com/jmylchreest/feedclean/pkg/cleaner/rules"
	"github.com/jmylchreest/feedclean/pkg/fetcher"
)

// isURL reports whether arg should be fetched rather than read from disk.
func isURL(arg string) bool {
	return strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "https://")
}

// readInput returns the content named by arg: "-" or "" reads stdin, an
// http(s) URL is fetched with f, anything else is a local file.
func readInput(ctx context.Context, arg string, stdin io.Reader, f fetcher.Fetcher) (string, error) {
	switch {
	case arg == "" || arg == "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	case isURL(arg):
		if f == nil {
			return "", fmt.Errorf("cannot fetch %s: no fetcher configured", arg)
		}
		content, err := f.Fetch(ctx, arg, fetcher.Options{})
		if err != nil {
			return "", fmt.Errorf("failed to fetch %s: %w", arg, err)
		}
		return string(content.Body), nil
	default:
		data, err := os.ReadFile(arg) //#nosec G304 -- CLI tool reads user-specified input file
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", arg, err)
		}
		return string(data), nil
	}
}

// openOutput returns the destination for -o, or stdout when path is empty.
// The returned func closes the file.
func openOutput(path string, stdout io.Writer) (io.Writer, func() error, error) {
	if path == "" {
		return stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path) //#nosec G304 -- CLI tool writes to user-specified output file
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, f.Close, nil
}

// loadRules compiles a rule file. An empty path yields a nil cleaner.
func loadRules(path string) (*rules.Cleaner, error) {
	if path == "" {
		return nil, nil
	}
	logger.Debug("loading rules", "path", path)
	rs, err := rules.FromFile(path)
	if err != nil {
		return nil, err
	}
	c, err := rules.Compile(rs)
	if err != nil {
		return nil, err
	}
	logger.Debug("rules loaded", "name", rs.Name, "rules", c.Len())
	return c, nil
}

// junkConfig returns the default junk config merged with the "junk" key of
// the config file, or nil when disabled.
func junkConfig(v *viper.Viper, disabled bool) (*junk.Config, error) {
	if disabled {
		return nil, nil
	}
	var extra junk.Config
	if err := v.UnmarshalKey("junk", &extra); err != nil {
		return nil, fmt.Errorf("invalid junk config: %w", err)
	}
	return junk.DefaultConfig().Merge(&extra), nil
}

// parseSize parses a human byte size such as "10MB". Empty or "0" means 0.
func parseSize(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "0" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	return int(n), nil
}

// newFetcher builds the caching static fetcher from config.
func newFetcher(v *viper.Viper) (*fetcher.Cache, error) {
	maxBody, err := parseSize(v.GetString("max_body_size"))
	if err != nil {
		return nil, err
	}
	userAgent := v.GetString("user_agent")
	if userAgent == "" {
		userAgent = version.UserAgent()
	}
	timeout := v.GetDuration("timeout")
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	logger.Debug("fetcher configured",
		"timeout", timeout,
		"max_body_size", humanize.Bytes(uint64(maxBody)),
		"user_agent", userAgent)

	return fetcher.NewCache(fetcher.NewStatic(fetcher.StaticConfig{
		UserAgent:   userAgent,
		Timeout:     timeout,
		MaxBodySize: maxBody,
	})), nil
}
