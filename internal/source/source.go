// Package source manages the named feed sources configured for the CLI.
// Each source binds a feed URL to a rule set; rule files are compiled once
// when the registry is built and shared by every run.
package source

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/jmylchreest/feedclean/internal/logger"
	"github.com/jmylchreest/feedclean/pkg/cleaner/dom"
	"github.com/jmylchreest/feedclean/pkg/cleaner/rules"
)

// ErrUnknownSource is returned by Registry.Get for an unconfigured name.
var ErrUnknownSource = errors.New("unknown source")

var validate = validator.New()

// Config is the configuration of one source as read from the config file.
type Config struct {
	URL            string `mapstructure:"url" yaml:"url" validate:"required,url"`
	Rules          string `mapstructure:"rules" yaml:"rules,omitempty"`
	Limit          int    `mapstructure:"limit" yaml:"limit,omitempty" validate:"gte=0"`
	DetailSelector string `mapstructure:"detail_selector" yaml:"detail_selector,omitempty"`
}

// Source is a configured, ready-to-run feed source.
type Source struct {
	Name     string
	URL      string
	Limit    int
	RuleFile string

	// Cleaner is nil when the source has no rule file.
	Cleaner *rules.Cleaner

	// Detail is the zero Selector when detail fetching is off.
	Detail dom.Selector
}

// Registry holds sources by name.
type Registry struct {
	sources map[string]*Source
}

// FromViper builds a registry from the "sources" key. Relative rule paths
// are resolved against the directory of the config file in use.
func FromViper(v *viper.Viper) (*Registry, error) {
	var cfgs map[string]Config
	if err := v.UnmarshalKey("sources", &cfgs); err != nil {
		return nil, fmt.Errorf("failed to read sources: %w", err)
	}

	baseDir := ""
	if used := v.ConfigFileUsed(); used != "" {
		baseDir = filepath.Dir(used)
	}
	return Load(cfgs, baseDir)
}

// Load validates cfgs and compiles every referenced rule file once.
func Load(cfgs map[string]Config, baseDir string) (*Registry, error) {
	r := &Registry{sources: make(map[string]*Source, len(cfgs))}
	compiled := make(map[string]*rules.Cleaner)

	names := make([]string, 0, len(cfgs))
	for name := range cfgs {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		cfg := cfgs[name]
		if err := validate.Struct(cfg); err != nil {
			return nil, fmt.Errorf("source %q: %w", name, err)
		}

		src := &Source{
			Name:  name,
			URL:   cfg.URL,
			Limit: cfg.Limit,
		}

		if cfg.Rules != "" {
			path := cfg.Rules
			if !filepath.IsAbs(path) && baseDir != "" {
				path = filepath.Join(baseDir, path)
			}
			c, ok := compiled[path]
			if !ok {
				rs, err := rules.FromFile(path)
				if err != nil {
					return nil, fmt.Errorf("source %q: %w", name, err)
				}
				if c, err = rules.Compile(rs); err != nil {
					return nil, fmt.Errorf("source %q: %w", name, err)
				}
				compiled[path] = c
			}
			src.RuleFile = path
			src.Cleaner = c
		}

		if cfg.DetailSelector != "" {
			sel, err := dom.CompileSelector(cfg.DetailSelector)
			if err != nil {
				return nil, fmt.Errorf("source %q: detail selector: %w", name, err)
			}
			src.Detail = sel
		}

		r.sources[name] = src
	}

	logger.Debug("sources loaded", "count", len(r.sources), "rule_files", len(compiled))
	return r, nil
}

// Get returns the named source.
func (r *Registry) Get(name string) (*Source, error) {
	src, ok := r.sources[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSource, name)
	}
	return src, nil
}

// Names returns the configured source names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.sources))
	for name := range r.sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of sources.
func (r *Registry) Len() int {
	return len(r.sources)
}
