package extractors

import (
	"bytes"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"

	"github.com/ternarybob/contexo/internal/identity"
	"github.com/ternarybob/contexo/internal/models"
)

// MarkdownExtractor extracts one MARKDOWN_MODULE per file plus one
// MARKDOWN_SECTION per heading, nested via ParentID to mirror heading
// levels. Canonical ids follow the slug scheme:
//
//	README.md                      module
//	README.md#install              h1 section
//	README.md#install.docker       h2 nested under install
type MarkdownExtractor struct {
	relativePath string
	md           goldmark.Markdown
}

// NewMarkdownExtractor creates an extractor bound to a repo-relative file path
func NewMarkdownExtractor(relativePath string) *MarkdownExtractor {
	return &MarkdownExtractor{
		relativePath: relativePath,
		md:           goldmark.New(),
	}
}

type headingInfo struct {
	level     int
	text      string
	lineIndex int // 0-based index of the heading line
}

// Extract parses the markdown and returns the module artifact followed by
// section artifacts in document order. Optional YAML frontmatter is parsed
// into module metadata and removed before heading parsing.
func (e *MarkdownExtractor) Extract(source []byte) ([]*models.Artifact, error) {
	frontmatter, body := splitFrontmatter(source)

	moduleMeta := map[string]interface{}{}
	if len(frontmatter) > 0 {
		fm := map[string]interface{}{}
		if err := yaml.Unmarshal(frontmatter, &fm); err == nil && len(fm) > 0 {
			moduleMeta["frontmatter"] = fm
		}
	}

	artifacts := []*models.Artifact{{
		ID:           e.relativePath,
		Type:         models.ArtifactMarkdownModule,
		Name:         stem(e.relativePath),
		RelativePath: e.relativePath,
		Text:         string(source),
		Metadata:     moduleMeta,
	}}

	artifacts = append(artifacts, e.parseSections(body)...)
	return artifacts, nil
}

// parseSections walks the goldmark AST collecting headings, then slices each
// section's text from its heading line up to the next heading of equal or
// shallower level.
func (e *MarkdownExtractor) parseSections(source []byte) []*models.Artifact {
	headings := e.collectHeadings(source)
	if len(headings) == 0 {
		return nil
	}

	lines := strings.SplitAfter(string(source), "\n")
	deduper := identity.NewSlugDeduper()

	// heading stack entries: (level, canonicalID, slug path)
	type stackEntry struct {
		level       int
		canonicalID string
	}
	var stack []stackEntry

	var sections []*models.Artifact
	for i, h := range headings {
		slug := deduper.Next(identity.Slugify(h.text))

		// Parent is the nearest heading with a strictly lower level
		parentID := e.relativePath
		canonicalID := e.relativePath + "#" + slug
		for j := len(stack) - 1; j >= 0; j-- {
			if stack[j].level < h.level {
				parentID = stack[j].canonicalID
				parentSlug := ""
				if idx := strings.Index(parentID, "#"); idx >= 0 {
					parentSlug = parentID[idx+1:]
				}
				if parentSlug != "" {
					canonicalID = e.relativePath + "#" + parentSlug + "." + slug
				}
				break
			}
		}

		// Pop anything at same or deeper level, then push
		for len(stack) > 0 && stack[len(stack)-1].level >= h.level {
			stack = stack[:len(stack)-1]
		}
		stack = append(stack, stackEntry{level: h.level, canonicalID: canonicalID})

		// Section text runs to the next same-or-shallower heading or EOF
		endLine := len(lines)
		for j := i + 1; j < len(headings); j++ {
			if headings[j].level <= h.level {
				endLine = headings[j].lineIndex
				break
			}
		}
		sectionText := strings.TrimSpace(strings.Join(lines[h.lineIndex:min(endLine, len(lines))], ""))

		sections = append(sections, &models.Artifact{
			ID:           canonicalID,
			Type:         models.ArtifactMarkdownSection,
			Name:         h.text,
			ParentID:     parentID,
			RelativePath: e.relativePath,
			Text:         sectionText,
			StartLine:    h.lineIndex + 1,
			Metadata: map[string]interface{}{
				"level":  h.level,
				"lineno": h.lineIndex + 1,
				"slug":   slug,
			},
			Section: &models.SectionDetail{
				Level:   h.level,
				Slug:    slug,
				Heading: h.text,
			},
		})
	}

	return sections
}

// collectHeadings walks the AST in document order returning heading text,
// level, and the 0-based line index of the heading line.
func (e *MarkdownExtractor) collectHeadings(source []byte) []headingInfo {
	doc := e.md.Parser().Parse(text.NewReader(source))
	lineStarts := lineStartOffsets(source)

	var headings []headingInfo
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		heading, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}

		var buf bytes.Buffer
		for c := heading.FirstChild(); c != nil; c = c.NextSibling() {
			if t, ok := c.(*ast.Text); ok {
				buf.Write(t.Segment.Value(source))
			} else {
				buf.Write(c.Text(source))
			}
		}

		lineIndex := 0
		if heading.Lines().Len() > 0 {
			lineIndex = lineIndexForOffset(lineStarts, heading.Lines().At(0).Start)
		}

		headings = append(headings, headingInfo{
			level:     heading.Level,
			text:      strings.TrimSpace(buf.String()),
			lineIndex: lineIndex,
		})
		return ast.WalkSkipChildren, nil
	})
	return headings
}

// splitFrontmatter strips a leading "---" YAML block, returning it and the
// remaining body.
func splitFrontmatter(source []byte) (frontmatter, body []byte) {
	if !bytes.HasPrefix(source, []byte("---\n")) && !bytes.HasPrefix(source, []byte("---\r\n")) {
		return nil, source
	}
	rest := source[bytes.IndexByte(source, '\n')+1:]
	for _, delim := range []string{"\n---\n", "\n---\r\n"} {
		if idx := bytes.Index(rest, []byte(delim)); idx >= 0 {
			return rest[:idx], rest[idx+len(delim):]
		}
	}
	if idx := bytes.Index(rest, []byte("\n---")); idx >= 0 && idx+4 == len(rest) {
		return rest[:idx], nil
	}
	return nil, source
}

func lineStartOffsets(source []byte) []int {
	starts := []int{0}
	for i, b := range source {
		if b == '\n' && i+1 < len(source) {
			starts = append(starts, i+1)
		}
	}
	return starts
}

func lineIndexForOffset(starts []int, offset int) int {
	idx := sort.Search(len(starts), func(i int) bool { return starts[i] > offset })
	return idx - 1
}

func stem(relativePath string) string {
	base := relativePath
	if idx := strings.LastIndex(base, "/"); idx >= 0 {
		base = base[idx+1:]
	}
	if idx := strings.LastIndex(base, "."); idx > 0 {
		base = base[:idx]
	}
	return base
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
