package rules

import (
	"strings"
	"testing"
)

func compileRules(t *testing.T, rs ...Rule) *Cleaner {
	t.Helper()
	c, err := Compile(&RuleSet{Name: "test", Rules: rs})
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	return c
}

func mustClean(t *testing.T, c *Cleaner, html string) string {
	t.Helper()
	out, err := c.Clean(html)
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}
	return out
}

func TestClean_Actions(t *testing.T) {
	tests := []struct {
		name  string
		rules []Rule
		input string
		want  string
	}{
		{
			name:  "keep-only removes siblings",
			rules: []Rule{{Selector: "#x", Action: ActionKeepOnly}},
			input: `<div><a id="x">A<i>i</i></a><b>B</b><u>C</u></div>`,
			want:  `<div><a id="x">A<i>i</i></a></div>`,
		},
		{
			name:  "keep-only with two matches under one parent keeps both",
			rules: []Rule{{Selector: ".k", Action: ActionKeepOnly}},
			input: `<div><p class="k">1</p><p>2</p><p class="k">3</p><p>4</p></div>`,
			want:  `<div><p class="k">1</p><p class="k">3</p></div>`,
		},
		{
			name:  "keep-only with matches under different parents",
			rules: []Rule{{Selector: ".k", Action: ActionKeepOnly}},
			input: `<div><p class="k">1</p><p>2</p></div><div><p>3</p><p class="k">4</p></div>`,
			want:  `<div><p class="k">1</p></div><div><p class="k">4</p></div>`,
		},
		{
			name:  "remove drops the subtree",
			rules: []Rule{{Selector: "aside", Action: ActionRemove}},
			input: `<p>keep</p><aside><p>ad</p></aside><p>also</p>`,
			want:  `<p>keep</p><p>also</p>`,
		},
		{
			name:  "remove-after drops the marker and what follows",
			rules: []Rule{{Selector: ".m", Action: ActionRemoveAfter}},
			input: `<div><s class="m">M</s><p>P1</p><p>P2</p></div>`,
			want:  `<div></div>`,
		},
		{
			name:  "remove-after preserves preceding siblings",
			rules: []Rule{{Selector: ".m", Action: ActionRemoveAfter}},
			input: `<div><p>P0</p><s class="m">M</s><p>P1</p></div>`,
			want:  `<div><p>P0</p></div>`,
		},
		{
			name: "remove-parent-after with text filter",
			rules: []Rule{{
				Selector:  "span[leaf]",
				Action:    ActionRemoveParentAfter,
				TextMatch: &TextMatch{Mode: MatchStartsWith, Value: "本内容为作者独立观点"},
			}},
			input: `<div><section><span leaf="">本内容为作者独立观点，不代表本站立场</span></section><section>NEXT</section></div>`,
			want:  `<div></div>`,
		},
		{
			name:  "remove-parent-after at fragment root cuts from the match",
			rules: []Rule{{Selector: "hr", Action: ActionRemoveParentAfter}},
			input: `<p>body</p><hr/><p>footer</p>`,
			want:  `<p>body</p>`,
		},
		{
			name: "attr prefix is anchored",
			rules: []Rule{{
				Selector:  "section",
				Action:    ActionRemoveAfter,
				AttrMatch: &AttrMatch{Name: "class", Pattern: "^js_darkmode__"},
			}},
			input: `<section class="other_js_darkmode__49">B</section><section class="js_darkmode__49">A</section><p>tail</p>`,
			want:  `<section class="other_js_darkmode__49">B</section>`,
		},
		{
			name: "attr regex",
			rules: []Rule{{
				Selector:  "a",
				Action:    ActionRemove,
				AttrMatch: &AttrMatch{Name: "href", Pattern: `utm_[a-z]+=`},
			}},
			input: `<a href="/x?utm_source=rss">t</a><a href="/y">k</a>`,
			want:  `<a href="/y">k</a>`,
		},
		{
			name: "empty attribute never matches",
			rules: []Rule{{
				Selector:  "p",
				Action:    ActionRemove,
				AttrMatch: &AttrMatch{Name: "class", Pattern: ".*"},
			}},
			input: `<p class="">a</p><p>b</p><p class="x">c</p>`,
			want:  `<p class="">a</p><p>b</p>`,
		},
		{
			name: "text contains",
			rules: []Rule{{
				Selector:  "p",
				Action:    ActionRemove,
				TextMatch: &TextMatch{Mode: MatchContains, Value: "Sponsored"},
			}},
			input: `<p>A Sponsored post</p><p>Real</p>`,
			want:  `<p>Real</p>`,
		},
		{
			name: "text equals uses trimmed text",
			rules: []Rule{{
				Selector:  "p",
				Action:    ActionRemove,
				TextMatch: &TextMatch{Mode: MatchEquals, Value: "Share"},
			}},
			input: `<p>  Share  </p><p>Share this</p>`,
			want:  `<p>Share this</p>`,
		},
		{
			name: "text regex",
			rules: []Rule{{
				Selector:  "p",
				Action:    ActionRemove,
				TextMatch: &TextMatch{Mode: MatchRegex, Value: `^\d+ comments?$`},
			}},
			input: `<p>12 comments</p><p>1 comment</p><p>no comments here</p>`,
			want:  `<p>no comments here</p>`,
		},
		{
			name: "text and attr filters combine",
			rules: []Rule{{
				Selector:  "div",
				Action:    ActionRemove,
				TextMatch: &TextMatch{Mode: MatchStartsWith, Value: "Ad"},
				AttrMatch: &AttrMatch{Name: "data-kind", Pattern: "^promo"},
			}},
			input: `<div data-kind="promo-1">Ad one</div><div data-kind="news">Ad two</div><div data-kind="promo-2">Story</div>`,
			want:  `<div data-kind="news">Ad two</div><div data-kind="promo-2">Story</div>`,
		},
		{
			name: "later rules see earlier mutations",
			rules: []Rule{
				{Selector: ".wrap", Action: ActionKeepOnly},
				{Selector: "p", Action: ActionRemove, TextMatch: &TextMatch{Mode: MatchEquals, Value: "x"}},
			},
			input: `<div><div class="wrap"><p>x</p><p>y</p></div><p>x</p></div>`,
			want:  `<div><div class="wrap"><p>y</p></div></div>`,
		},
		{
			name:  "everything removed yields empty string",
			rules: []Rule{{Selector: "p", Action: ActionRemove}},
			input: `<p>a</p><p>b</p>`,
			want:  ``,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := compileRules(t, tt.rules...)
			if got := mustClean(t, c, tt.input); got != tt.want {
				t.Errorf("Clean() =\n%s\nwant\n%s", got, tt.want)
			}
		})
	}
}

func TestClean_EmptySelectionIsNoop(t *testing.T) {
	input := `<div><p>one</p><p>two</p></div>`
	c := compileRules(t,
		Rule{Selector: ".missing", Action: ActionRemove},
		Rule{Selector: ".missing", Action: ActionKeepOnly},
		Rule{Selector: ".missing", Action: ActionRemoveAfter},
		Rule{Selector: ".missing", Action: ActionRemoveParentAfter},
		Rule{Selector: "p", Action: ActionRemove, TextMatch: &TextMatch{Mode: MatchEquals, Value: "three"}},
	)
	if got := mustClean(t, c, input); got != input {
		t.Errorf("Clean() = %q, want unchanged %q", got, input)
	}
}

func TestClean_Idempotent(t *testing.T) {
	fixture := `<div class="post">
<section class="js_darkmode__1"><p>Intro</p></section>
<p>Body text</p>
<p class="share">Share</p>
<div><section><span leaf="">本内容为作者独立观点</span></section><section>NEXT</section></div>
<aside>related</aside>
<div class="end">end</div><p>after end</p>
</div>`

	sets := map[string][]Rule{
		"keep-only":    {{Selector: ".post", Action: ActionKeepOnly}},
		"remove":       {{Selector: "aside, .share", Action: ActionRemove}},
		"remove-after": {{Selector: ".end", Action: ActionRemoveAfter}},
		"remove-parent-after": {{
			Selector:  "span[leaf]",
			Action:    ActionRemoveParentAfter,
			TextMatch: &TextMatch{Mode: MatchStartsWith, Value: "本内容"},
		}},
		"mixed": {
			{Selector: "section", Action: ActionRemove, AttrMatch: &AttrMatch{Name: "class", Pattern: "^js_darkmode"}},
			{Selector: "p", Action: ActionRemove, TextMatch: &TextMatch{Mode: MatchRegex, Value: "^Share$"}},
			{Selector: ".end", Action: ActionRemoveAfter},
		},
	}

	for name, rs := range sets {
		t.Run(name, func(t *testing.T) {
			c := compileRules(t, rs...)
			once := mustClean(t, c, fixture)
			twice := mustClean(t, c, once)
			if once != twice {
				t.Errorf("not idempotent:\nfirst:\n%s\nsecond:\n%s", once, twice)
			}
		})
	}
}

func TestClean_Deterministic(t *testing.T) {
	c := compileRules(t, Rule{Selector: ".k", Action: ActionKeepOnly})
	input := `<div><p class="k">1</p><p>2</p></div><div><p>3</p><p class="k">4</p></div>`
	first := mustClean(t, c, input)
	for i := 0; i < 5; i++ {
		if got := mustClean(t, c, input); got != first {
			t.Fatalf("run %d: got %q, want %q", i, got, first)
		}
	}
}

func TestCleanWithStats(t *testing.T) {
	c := compileRules(t,
		Rule{Description: "strip share", Selector: ".share", Action: ActionRemove},
		Rule{Selector: ".missing", Action: ActionRemove},
		Rule{Selector: ".end", Action: ActionRemoveAfter},
	)

	input := `<p>keep</p><p class="share">s</p><p class="share">s</p><hr class="end"/><p>a</p>`
	result := c.CleanWithStats(input)

	if result.Error != nil {
		t.Fatalf("unexpected error: %v", result.Error)
	}
	if result.Content != "<p>keep</p>" {
		t.Errorf("Content = %q", result.Content)
	}
	if result.Stats.RulesApplied != 3 {
		t.Errorf("RulesApplied = %d, want 3", result.Stats.RulesApplied)
	}
	if result.Stats.RulesMatched != 2 {
		t.Errorf("RulesMatched = %d, want 2", result.Stats.RulesMatched)
	}
	if got := result.Stats.Matches["#0 strip share"]; got != 2 {
		t.Errorf("Matches[#0 strip share] = %d, want 2", got)
	}
	if got := result.Stats.Matches["#2 remove-after .end"]; got != 1 {
		t.Errorf("Matches[#2 remove-after .end] = %d, want 1", got)
	}
	if got := result.Stats.ElementsRemoved["p"]; got != 3 {
		t.Errorf("ElementsRemoved[p] = %d, want 3", got)
	}
	if got := result.Stats.ElementsRemoved["hr"]; got != 1 {
		t.Errorf("ElementsRemoved[hr] = %d, want 1", got)
	}
	if result.Stats.InputBytes != len(input) || result.Stats.OutputBytes != len(result.Content) {
		t.Errorf("byte counts = %d/%d", result.Stats.InputBytes, result.Stats.OutputBytes)
	}
	if result.HasWarnings() {
		t.Errorf("unexpected warnings: %v", result.Warnings)
	}
}

func TestCleaner_Name(t *testing.T) {
	c := compileRules(t, Rule{Selector: "p", Action: ActionRemove})
	if c.Name() != "rules:test" {
		t.Errorf("Name() = %q", c.Name())
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d", c.Len())
	}

	anon := MustCompile(&RuleSet{})
	if anon.Name() != "rules" {
		t.Errorf("Name() = %q", anon.Name())
	}
	out, err := anon.Clean("<p>x</p>")
	if err != nil || out != "<p>x</p>" {
		t.Errorf("empty rule set Clean() = %q, %v", out, err)
	}
}

func TestMustCompile_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	MustCompile(&RuleSet{Rules: []Rule{{Selector: "p:bogus-pseudo", Action: ActionRemove}}})
}

func TestClean_ConcurrentUse(t *testing.T) {
	c := compileRules(t, Rule{Selector: ".m", Action: ActionRemoveAfter})
	input := `<div><p>keep</p><s class="m">M</s><p>gone</p></div>`

	done := make(chan string, 8)
	for i := 0; i < cap(done); i++ {
		go func() {
			out, _ := c.Clean(input)
			done <- out
		}()
	}
	for i := 0; i < cap(done); i++ {
		if out := <-done; !strings.Contains(out, "keep") || strings.Contains(out, "gone") {
			t.Errorf("unexpected output %q", out)
		}
	}
}
