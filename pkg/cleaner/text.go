package cleaner

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// whitespaceRegex matches runs of whitespace.
var whitespaceRegex = regexp.MustCompile(`\s+`)

// TextCleaner extracts plain text from an HTML fragment.
type TextCleaner struct{}

// NewText creates a new plain text converter.
func NewText() *TextCleaner {
	return &TextCleaner{}
}

// Clean returns the collapsed text content of html.
func (c *TextCleaner) Clean(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}
	text := doc.Find("body").Text()
	return strings.TrimSpace(whitespaceRegex.ReplaceAllString(text, " ")), nil
}

// Name returns the cleaner type.
func (c *TextCleaner) Name() string {
	return "text"
}
