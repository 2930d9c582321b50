package junk

import (
	"strings"
	"time"

	"github.com/jmylchreest/feedclean/pkg/cleaner"
	"github.com/jmylchreest/feedclean/pkg/cleaner/dom"
)

var (
	imgSelector    = dom.MustCompileSelector("img")
	styleSelector  = dom.MustCompileSelector("[style]")
	emptySelector  = dom.MustCompileSelector("p, div")
	embedSelector  = dom.MustCompileSelector("iframe, script, style")
	classSelector  = dom.MustCompileSelector("[class]")
	defaultCleaner = New(nil)
)

// CleanCommonIssues runs every pass with the default configuration. It never
// fails: input that cannot be parsed is returned unchanged.
func CleanCommonIssues(html string) string {
	out, _ := defaultCleaner.Clean(html)
	return out
}

// Cleaner removes common junk from HTML fragments.
// It implements the cleaner.Cleaner interface.
type Cleaner struct {
	config *Config
}

// New creates a new Cleaner with the given configuration.
// If config is nil, DefaultConfig() is used.
func New(config *Config) *Cleaner {
	if config == nil {
		config = DefaultConfig()
	}
	return &Cleaner{config: config}
}

// Name returns the cleaner name for logging.
func (c *Cleaner) Name() string {
	return "junk"
}

// Clean removes junk from html. Parse failures return the input unchanged
// with a nil error.
func (c *Cleaner) Clean(html string) (string, error) {
	return c.CleanWithStats(html).Content, nil
}

// CleanWithStats performs cleaning and returns detailed stats.
func (c *Cleaner) CleanWithStats(html string) *cleaner.Result {
	startTime := time.Now()
	result := cleaner.NewResult()
	result.Stats.InputBytes = len(html)

	parseStart := time.Now()
	doc, err := dom.Parse(html)
	result.Stats.ParseDuration = time.Since(parseStart)
	if err != nil {
		// Graceful degradation: return original content with warning
		result.Content = html
		result.Error = err
		result.AddWarning("parse", "HTML parse failed, returning original", err.Error())
		result.Stats.OutputBytes = len(html)
		result.Stats.TotalDuration = time.Since(startTime)
		return result
	}

	transformStart := time.Now()
	c.transform(doc, result.Stats)
	result.Stats.TransformDuration = time.Since(transformStart)

	outputStart := time.Now()
	output, err := doc.SerializeBody()
	result.Stats.OutputDuration = time.Since(outputStart)
	if err != nil {
		result.Content = html
		result.Error = err
		result.AddWarning("output", "Output generation failed, returning original", err.Error())
		result.Stats.OutputBytes = len(html)
	} else {
		result.Content = output
		result.Stats.OutputBytes = len(output)
	}

	result.Stats.TotalDuration = time.Since(startTime)
	return result
}

// transform applies the enabled passes. Empty elements go last so that
// containers emptied by the other passes are caught in the same call.
func (c *Cleaner) transform(doc *dom.Document, stats *cleaner.Stats) {
	if c.config.StripEmbeds {
		removeAll(doc.Select(embedSelector), "embeds", stats)
	}
	if len(c.config.WidgetMarkers) > 0 {
		removeAll(doc.Select(classSelector).Filter(c.isWidget), "widgets", stats)
	}
	if c.config.StripHiddenElements {
		removeAll(doc.Select(styleSelector).Filter(isHidden), "hidden", stats)
	}
	if c.config.StripTrackingPixels {
		removeAll(doc.Select(imgSelector).Filter(isTrackingPixel), "tracking_pixels", stats)
	}
	if c.config.StripEmptyElements {
		removeEmpty(doc, stats)
	}
}

func removeAll(nodes dom.NodeSet, pass string, stats *cleaner.Stats) {
	if nodes.Len() == 0 {
		return
	}
	stats.RecordMatch(pass, nodes.Len())
	nodes.Each(func(n dom.Node) {
		stats.RecordRemoval(n.Tag())
		n.Remove()
	})
}

// removeEmpty removes p and div elements with no child nodes at all.
// Whitespace, &nbsp; and comments count as content. Elements are visited
// deepest first, so a container whose children were all removed goes too.
func removeEmpty(doc *dom.Document, stats *cleaner.Stats) {
	nodes := doc.Select(emptySelector).Nodes()
	removed := 0
	for i := len(nodes) - 1; i >= 0; i-- {
		n := nodes[i]
		if n.HasChildNodes() {
			continue
		}
		stats.RecordRemoval(n.Tag())
		n.Remove()
		removed++
	}
	if removed > 0 {
		stats.RecordMatch("empty", removed)
	}
}

func (c *Cleaner) isWidget(n dom.Node) bool {
	class, _ := n.Attr("class")
	for _, marker := range c.config.WidgetMarkers {
		if marker != "" && strings.Contains(class, marker) {
			return true
		}
	}
	return false
}

func isHidden(n dom.Node) bool {
	style, _ := n.Attr("style")
	decls := parseStyle(style)
	return decls["display"] == "none" || decls["visibility"] == "hidden"
}

func isTrackingPixel(n dom.Node) bool {
	var decls map[string]string
	dimension := func(name string) string {
		if v, ok := n.Attr(name); ok {
			return v
		}
		if decls == nil {
			style, _ := n.Attr("style")
			decls = parseStyle(style)
		}
		return decls[name]
	}
	return isOnePixel(dimension("width")) && isOnePixel(dimension("height"))
}

func isOnePixel(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "1" || v == "1px"
}

// parseStyle splits an inline style attribute into lower-cased declarations.
// Later declarations win; !important is dropped.
func parseStyle(style string) map[string]string {
	decls := make(map[string]string)
	for _, decl := range strings.Split(style, ";") {
		prop, value, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		prop = strings.ToLower(strings.TrimSpace(prop))
		value = strings.ToLower(strings.TrimSpace(value))
		value = strings.TrimSpace(strings.TrimSuffix(value, "!important"))
		if prop != "" {
			decls[prop] = value
		}
	}
	return decls
}
