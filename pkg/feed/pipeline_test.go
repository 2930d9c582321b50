package feed

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/jmylchreest/feedclean/pkg/cleaner/dom"
	"github.com/jmylchreest/feedclean/pkg/cleaner/junk"
	"github.com/jmylchreest/feedclean/pkg/cleaner/rules"
	"github.com/jmylchreest/feedclean/pkg/fetcher"
)

const wechatFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>公众号</title>
  <link>https://mp.example.com/</link>
  <description>articles</description>
  <item>
    <title>One</title>
    <link>https://mp.example.com/1</link>
    <category>tech</category>
    <description><![CDATA[<div><p>正文</p><img width="1" height="1" src="t.gif"><section><span leaf="">本内容为作者独立观点，不代表平台立场</span></section><section>推荐阅读</section></div>]]></description>
  </item>
  <item>
    <title>Two</title>
    <link>https://mp.example.com/2</link>
    <description></description>
  </item>
  <item>
    <title>Three</title>
    <link>https://mp.example.com/3</link>
    <description><![CDATA[<p>third</p>]]></description>
  </item>
</channel>
</rss>`

func wechatRules(t *testing.T) *rules.Cleaner {
	t.Helper()
	return rules.MustCompile(&rules.RuleSet{
		Name: "wechat",
		Rules: []rules.Rule{{
			Selector:  "span[leaf]",
			Action:    rules.ActionRemoveParentAfter,
			TextMatch: &rules.TextMatch{Mode: rules.MatchStartsWith, Value: "本内容为作者独立观点"},
		}},
	})
}

func TestExtractAndClean(t *testing.T) {
	items, err := ExtractAndClean(wechatFeed, wechatRules(t), 0)
	if err != nil {
		t.Fatalf("ExtractAndClean() error = %v", err)
	}

	want := []Item{
		{
			Title:       "One",
			Link:        "https://mp.example.com/1",
			Category:    "tech",
			Categories:  []string{"tech"},
			Description: "<div><p>正文</p></div>",
		},
		{Title: "Two", Link: "https://mp.example.com/2"},
		{Title: "Three", Link: "https://mp.example.com/3", Description: "<p>third</p>"},
	}
	if diff := cmp.Diff(want, items); diff != "" {
		t.Errorf("ExtractAndClean() mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractAndClean_Limit(t *testing.T) {
	tests := []struct {
		limit int
		want  []string
	}{
		{limit: 0, want: []string{"One", "Two", "Three"}},
		{limit: -1, want: []string{"One", "Two", "Three"}},
		{limit: 2, want: []string{"One", "Two"}},
		{limit: 10, want: []string{"One", "Two", "Three"}},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("limit=%d", tt.limit), func(t *testing.T) {
			items, err := ExtractAndClean(wechatFeed, nil, tt.limit)
			if err != nil {
				t.Fatal(err)
			}
			var titles []string
			for _, it := range items {
				titles = append(titles, it.Title)
			}
			if diff := cmp.Diff(tt.want, titles); diff != "" {
				t.Errorf("titles mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExtractAndClean_ParseError(t *testing.T) {
	_, err := ExtractAndClean(`<rss><channel><item>`, nil, 0)
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %v", err)
	}
}

type recordingCleaner struct {
	calls atomic.Int32
	fail  bool
}

func (c *recordingCleaner) Clean(html string) (string, error) {
	c.calls.Add(1)
	if c.fail {
		return "", errors.New("boom")
	}
	return "cleaned:" + html, nil
}

func (c *recordingCleaner) Name() string { return "recording" }

func TestPipeline_CleaningFailureKeepsOriginal(t *testing.T) {
	rec := &recordingCleaner{fail: true}
	p := NewPipeline(nil)
	p.chain = rec

	f, err := p.Run(context.Background(), wechatFeed)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(f.Items) != 3 {
		t.Fatalf("expected all items kept, got %d", len(f.Items))
	}
	if f.Items[2].Description != "<p>third</p>" {
		t.Errorf("Description = %q, want original", f.Items[2].Description)
	}
	// The empty description never reaches the cleaner.
	if got := rec.calls.Load(); got != 2 {
		t.Errorf("cleaner calls = %d, want 2", got)
	}
}

func TestPipeline_PreservesOrderUnderConcurrency(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("<rss><channel><title>many</title>")
	for i := 0; i < 60; i++ {
		fmt.Fprintf(&sb, "<item><title>%d</title><description><![CDATA[<p>item %d</p>]]></description></item>", i, i)
	}
	sb.WriteString("</channel></rss>")

	rec := &recordingCleaner{}
	p := NewPipeline(nil, WithConcurrency(8))
	p.chain = rec

	f, err := p.Run(context.Background(), sb.String())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	for i, it := range f.Items {
		if it.Title != fmt.Sprint(i) || it.Description != fmt.Sprintf("cleaned:<p>item %d</p>", i) {
			t.Fatalf("item %d out of order: %+v", i, it)
		}
	}
}

func TestPipeline_Stages(t *testing.T) {
	p := NewPipeline(wechatRules(t), WithSanitize(true))
	if p.Name() != "chain(rules:wechat->junk->sanitize)" {
		t.Errorf("Name() = %q", p.Name())
	}

	p = NewPipeline(nil, WithJunkConfig(nil))
	if p.Name() != "chain()" {
		t.Errorf("Name() = %q", p.Name())
	}
}

func TestPipeline_Sanitize(t *testing.T) {
	feedXML := `<rss><channel><item><description><![CDATA[<p><a href="https://e.com/" onclick="steal()">link</a></p>]]></description></item></channel></rss>`

	f, err := NewPipeline(nil, WithSanitize(true)).Run(context.Background(), feedXML)
	if err != nil {
		t.Fatal(err)
	}
	desc := f.Items[0].Description
	if strings.Contains(desc, "onclick") || !strings.Contains(desc, `href="https://e.com/"`) {
		t.Errorf("Description = %q", desc)
	}
}

func TestPipeline_JunkConfig(t *testing.T) {
	feedXML := `<rss><channel><item><description><![CDATA[<p>a</p><p></p><div class="mp-card">card</div>]]></description></item></channel></rss>`

	f, err := NewPipeline(nil, WithJunkConfig(&junk.Config{WidgetMarkers: []string{"mp-card"}})).Run(context.Background(), feedXML)
	if err != nil {
		t.Fatal(err)
	}
	if got := f.Items[0].Description; got != "<p>a</p><p></p>" {
		t.Errorf("Description = %q", got)
	}
}

type pageFetcher struct {
	pages map[string]string
	calls atomic.Int32
}

func (f *pageFetcher) Fetch(_ context.Context, url string, _ fetcher.Options) (fetcher.Content, error) {
	f.calls.Add(1)
	body, ok := f.pages[url]
	if !ok {
		return fetcher.Content{URL: url, StatusCode: 404}, fmt.Errorf("%w 404", fetcher.ErrHTTPStatus)
	}
	return fetcher.Content{URL: url, Body: body, StatusCode: 200}, nil
}

func (f *pageFetcher) Close() error { return nil }
func (f *pageFetcher) Type() string { return "pages" }

func TestPipeline_DetailFetch(t *testing.T) {
	pages := &pageFetcher{pages: map[string]string{
		"https://mp.example.com/1": `<html><body><nav>menu</nav><article id="js_content"><p>全文</p><script>x()</script></article></body></html>`,
		"https://mp.example.com/2": `<html><body><p>no article here</p></body></html>`,
	}}

	p := NewPipeline(nil,
		WithDetailFetch(fetcher.NewCache(pages), dom.MustCompileSelector("#js_content"), fetcher.Options{}),
		WithConcurrency(2),
	)
	f, err := p.Run(context.Background(), wechatFeed)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if got := f.Items[0].Description; got != "<p>全文</p>" {
		t.Errorf("item 0 Description = %q, want detail content", got)
	}
	if got := f.Items[1].Description; got != "" {
		t.Errorf("item 1 Description = %q, want empty", got)
	}
	if got := f.Items[2].Description; got != "<p>third</p>" {
		t.Errorf("item 2 Description = %q, want feed description on fetch failure", got)
	}
	if got := pages.calls.Load(); got != 3 {
		t.Errorf("fetches = %d, want 3", got)
	}
}

func TestPipeline_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewPipeline(nil).Run(ctx, wechatFeed)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
