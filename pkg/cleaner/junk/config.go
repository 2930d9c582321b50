// Package junk provides a fixed, rule-independent pass that strips noise
// common to syndicated article HTML: tracking pixels, hidden elements, empty
// containers, embedded scripts and frames, and platform widgets.
package junk

// DefaultWidgetMarker is the class substring WeChat uses for non-editable
// embedded widgets (mini-program cards, vote boxes).
const DefaultWidgetMarker = "js_uneditable"

// Config toggles each pass of the junk cleaner.
type Config struct {
	// StripTrackingPixels removes 1x1 images.
	StripTrackingPixels bool `json:"strip_tracking_pixels" yaml:"strip_tracking_pixels" mapstructure:"strip_tracking_pixels"`

	// StripHiddenElements removes elements hidden by an inline
	// display:none or visibility:hidden declaration.
	StripHiddenElements bool `json:"strip_hidden_elements" yaml:"strip_hidden_elements" mapstructure:"strip_hidden_elements"`

	// StripEmptyElements removes p and div elements with no element
	// children and no visible text.
	StripEmptyElements bool `json:"strip_empty_elements" yaml:"strip_empty_elements" mapstructure:"strip_empty_elements"`

	// StripEmbeds removes iframe, script and style elements.
	StripEmbeds bool `json:"strip_embeds" yaml:"strip_embeds" mapstructure:"strip_embeds"`

	// WidgetMarkers are class substrings identifying platform widgets.
	// An empty list disables the pass.
	WidgetMarkers []string `json:"widget_markers,omitempty" yaml:"widget_markers,omitempty" mapstructure:"widget_markers"`
}

// DefaultConfig enables every pass with the default widget marker.
func DefaultConfig() *Config {
	return &Config{
		StripTrackingPixels: true,
		StripHiddenElements: true,
		StripEmptyElements:  true,
		StripEmbeds:         true,
		WidgetMarkers:       []string{DefaultWidgetMarker},
	}
}

// Merge merges another config into this one.
// Enabled passes in other win; widget markers are appended without duplicates.
func (c *Config) Merge(other *Config) *Config {
	if other == nil {
		return c
	}

	merged := *c
	if other.StripTrackingPixels {
		merged.StripTrackingPixels = true
	}
	if other.StripHiddenElements {
		merged.StripHiddenElements = true
	}
	if other.StripEmptyElements {
		merged.StripEmptyElements = true
	}
	if other.StripEmbeds {
		merged.StripEmbeds = true
	}

	seen := make(map[string]bool, len(c.WidgetMarkers)+len(other.WidgetMarkers))
	merged.WidgetMarkers = make([]string, 0, len(c.WidgetMarkers)+len(other.WidgetMarkers))
	for _, list := range [][]string{c.WidgetMarkers, other.WidgetMarkers} {
		for _, m := range list {
			if m == "" || seen[m] {
				continue
			}
			seen[m] = true
			merged.WidgetMarkers = append(merged.WidgetMarkers, m)
		}
	}
	return &merged
}
