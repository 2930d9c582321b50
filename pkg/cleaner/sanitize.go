package cleaner

import (
	"github.com/microcosm-cc/bluemonday"
)

// SanitizeCleaner runs a bluemonday policy over the fragment. It is meant as
// the last stage of a chain, after structural cleaning.
type SanitizeCleaner struct {
	policy *bluemonday.Policy
}

// NewSanitizer creates a sanitizer. A nil policy selects bluemonday's UGC
// policy, which keeps links, images and formatting but drops active content.
func NewSanitizer(policy *bluemonday.Policy) *SanitizeCleaner {
	if policy == nil {
		policy = bluemonday.UGCPolicy()
	}
	return &SanitizeCleaner{policy: policy}
}

// Clean sanitizes html. It never fails.
func (c *SanitizeCleaner) Clean(html string) (string, error) {
	return c.policy.Sanitize(html), nil
}

// Name returns the cleaner type.
func (c *SanitizeCleaner) Name() string {
	return "sanitize"
}
