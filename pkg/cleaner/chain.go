package cleaner

import (
	"fmt"
	"strings"
)

// ChainCleaner applies multiple cleaners in sequence.
type ChainCleaner struct {
	cleaners []Cleaner
}

// NewChain creates a cleaner that applies cleaners in the order provided.
// Nil entries are skipped so optional stages can be passed through directly.
//
// Example:
//
//	chain := cleaner.NewChain(
//	    ruleCleaner,
//	    junk.New(junk.DefaultConfig()),
//	)
func NewChain(cleaners ...Cleaner) *ChainCleaner {
	kept := make([]Cleaner, 0, len(cleaners))
	for _, c := range cleaners {
		if c != nil {
			kept = append(kept, c)
		}
	}
	return &ChainCleaner{
		cleaners: kept,
	}
}

// Clean applies all cleaners in sequence, stopping at the first error.
func (c *ChainCleaner) Clean(content string) (string, error) {
	var err error
	for _, cl := range c.cleaners {
		content, err = cl.Clean(content)
		if err != nil {
			return "", fmt.Errorf("%s: %w", cl.Name(), err)
		}
	}
	return content, nil
}

// Len returns the number of stages.
func (c *ChainCleaner) Len() int {
	return len(c.cleaners)
}

// Name returns the names of all chained cleaners.
func (c *ChainCleaner) Name() string {
	names := make([]string, len(c.cleaners))
	for i, cl := range c.cleaners {
		names[i] = cl.Name()
	}
	return "chain(" + strings.Join(names, "->") + ")"
}
