package feed

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jmylchreest/feedclean/internal/logger"
	"github.com/jmylchreest/feedclean/pkg/cleaner"
	"github.com/jmylchreest/feedclean/pkg/cleaner/dom"
	"github.com/jmylchreest/feedclean/pkg/cleaner/junk"
	"github.com/jmylchreest/feedclean/pkg/cleaner/rules"
	"github.com/jmylchreest/feedclean/pkg/fetcher"
)

// Pipeline parses a feed and cleans each item's description with a rule
// set followed by the junk cleaner. A Pipeline is safe for concurrent use.
type Pipeline struct {
	rules       *rules.Cleaner
	limit       int
	concurrency int
	junk        *junk.Config
	sanitize    bool
	detail      *detailFetch

	chain cleaner.Cleaner
}

type detailFetch struct {
	fetcher  fetcher.Fetcher
	selector dom.Selector
	opts     fetcher.Options
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLimit caps the number of items kept, in feed order. Zero or a
// negative value means no limit.
func WithLimit(n int) Option {
	return func(p *Pipeline) {
		p.limit = n
	}
}

// WithConcurrency sets how many items are processed at once.
func WithConcurrency(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// WithJunkConfig replaces the junk cleaner configuration. Nil disables the
// junk pass.
func WithJunkConfig(cfg *junk.Config) Option {
	return func(p *Pipeline) {
		p.junk = cfg
	}
}

// WithSanitize appends a bluemonday UGC sanitization stage.
func WithSanitize(enabled bool) Option {
	return func(p *Pipeline) {
		p.sanitize = enabled
	}
}

// WithDetailFetch replaces each item's description with the inner HTML of
// the first element matching sel on the item's linked page. Items whose
// page cannot be fetched or has no match keep their feed description.
// Wrap f in fetcher.NewCache to fetch each URL at most once.
func WithDetailFetch(f fetcher.Fetcher, sel dom.Selector, opts fetcher.Options) Option {
	return func(p *Pipeline) {
		if f == nil || sel.String() == "" {
			p.detail = nil
			return
		}
		p.detail = &detailFetch{fetcher: f, selector: sel, opts: opts}
	}
}

// NewPipeline creates a pipeline around a compiled rule set. rs may be nil,
// in which case only the junk (and optional sanitize) stages run.
func NewPipeline(rs *rules.Cleaner, opts ...Option) *Pipeline {
	p := &Pipeline{
		rules:       rs,
		concurrency: runtime.NumCPU(),
		junk:        junk.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(p)
	}

	var stages []cleaner.Cleaner
	if p.rules != nil {
		stages = append(stages, p.rules)
	}
	if p.junk != nil {
		stages = append(stages, junk.New(p.junk))
	}
	if p.sanitize {
		stages = append(stages, cleaner.NewSanitizer(nil))
	}
	p.chain = cleaner.NewChain(stages...)
	return p
}

// Name describes the cleaning stages.
func (p *Pipeline) Name() string {
	return p.chain.Name()
}

// Run parses feedXML and returns the feed with cleaned item descriptions.
// Only a feed parse failure or cancellation of ctx is an error; an item
// that fails to clean keeps its original description.
func (p *Pipeline) Run(ctx context.Context, feedXML string) (*Feed, error) {
	start := time.Now()

	f, err := Parse(feedXML)
	if err != nil {
		return nil, err
	}
	total := len(f.Items)
	if p.limit > 0 && total > p.limit {
		f.Items = f.Items[:p.limit]
	}
	logger.Debug("feed parsed", "title", f.Title, "items", total, "kept", len(f.Items))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i := range f.Items {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			p.processItem(ctx, &f.Items[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("feed processing cancelled: %w", err)
	}

	logger.DebugContext(ctx, "feed cleaned", "items", len(f.Items), "duration", time.Since(start))
	return f, nil
}

// processItem enriches and cleans one item in place.
func (p *Pipeline) processItem(ctx context.Context, item *Item) {
	if p.detail != nil && item.Link != "" {
		if html, ok := p.fetchDetail(ctx, item.Link); ok {
			item.Description = html
		}
	}

	if strings.TrimSpace(item.Description) == "" {
		item.Description = ""
		return
	}

	cleaned, err := p.chain.Clean(item.Description)
	if err != nil {
		logger.WarnContext(ctx, "cleaning failed, keeping original description",
			"link", item.Link,
			"cleaner", p.chain.Name(),
			"error", err)
		return
	}
	item.Description = cleaned
}

func (p *Pipeline) fetchDetail(ctx context.Context, link string) (string, bool) {
	content, err := p.detail.fetcher.Fetch(ctx, link, p.detail.opts)
	if err != nil {
		logger.WarnContext(ctx, "detail fetch failed, keeping feed description", "link", link, "error", err)
		return "", false
	}

	doc, err := dom.Parse(content.Body)
	if err != nil {
		logger.WarnContext(ctx, "detail page parse failed", "link", link, "error", err)
		return "", false
	}
	nodes := doc.Select(p.detail.selector)
	if nodes.Len() == 0 {
		logger.Debug("detail selector matched nothing", "link", link, "selector", p.detail.selector.String())
		return "", false
	}
	html, ok := nodes.Nodes()[0].InnerHTML()
	if !ok || strings.TrimSpace(html) == "" {
		return "", false
	}
	return html, true
}

// ExtractAndClean parses feedXML, keeps at most limit items and cleans
// each description with rs followed by the default junk cleaner.
func ExtractAndClean(feedXML string, rs *rules.Cleaner, limit int) ([]Item, error) {
	f, err := NewPipeline(rs, WithLimit(limit)).Run(context.Background(), feedXML)
	if err != nil {
		return nil, err
	}
	return f.Items, nil
}
