package extractors

import (
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"
)

// HTMLConverter turns HTML documents into markdown so they flow through
// the same section-aware ingestion path as native markdown.
type HTMLConverter struct {
	logger arbor.ILogger
}

// NewHTMLConverter creates an HTML to markdown converter
func NewHTMLConverter(logger arbor.ILogger) *HTMLConverter {
	return &HTMLConverter{logger: logger}
}

// Convert converts HTML to markdown and returns the document title when one
// is present. Conversion failures fall back to tag stripping rather than
// losing the document.
func (c *HTMLConverter) Convert(html, baseURL string) (markdown, title string, err error) {
	if strings.TrimSpace(html) == "" {
		return "", "", nil
	}

	title = extractTitle(html)

	converter := md.NewConverter(baseURL, true, nil)
	converted, err := converter.ConvertString(html)
	if err != nil || strings.TrimSpace(converted) == "" {
		if err != nil {
			c.logger.Warn().Err(err).Msg("HTML to markdown conversion failed, stripping tags")
		}
		return stripHTMLTags(html), title, nil
	}

	return converted, title, nil
}

// extractTitle pulls the <title> text, falling back to the first <h1>
func extractTitle(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		return title
	}
	return strings.TrimSpace(doc.Find("h1").First().Text())
}

var (
	tagPattern   = regexp.MustCompile(`<[^>]*>`)
	spacePattern = regexp.MustCompile(`\s+`)
)

func stripHTMLTags(html string) string {
	stripped := tagPattern.ReplaceAllString(html, "")
	cleaned := spacePattern.ReplaceAllString(stripped, " ")

	replacer := strings.NewReplacer(
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", "\"",
		"&#39;", "'",
		"&nbsp;", " ",
	)
	return strings.TrimSpace(replacer.Replace(cleaned))
}
