package identity

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// NormalizeRepoURL canonicalizes a repository URL for identity derivation:
// trimmed, lowercased, trailing "/" and trailing ".git" stripped.
func NormalizeRepoURL(repoURL string) string {
	normalized := strings.ToLower(strings.TrimSpace(repoURL))
	normalized = strings.TrimRight(normalized, "/")
	normalized = strings.TrimSuffix(normalized, ".git")
	return normalized
}

// BuildRepoID derives the deterministic repository UUID by namespacing the
// normalized URL under the URL namespace. Same URL always yields the same id,
// across processes.
func BuildRepoID(repoURL string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(NormalizeRepoURL(repoURL))).String()
}

// BuildCanonicalID builds the deterministic canonical id for an artifact:
// relative_path for modules, relative_path#symbol_path otherwise. A symbol
// path that already carries the relative_path prefix is stripped first so ids
// never end up double-prefixed.
func BuildCanonicalID(relativePath, symbolPath string) string {
	pathClean := strings.Trim(strings.ReplaceAll(relativePath, "\\", "/"), "/")
	symbolClean := strings.TrimSpace(symbolPath)
	if symbolClean == "" {
		return pathClean
	}
	symbolClean = strings.TrimPrefix(symbolClean, pathClean+"#")
	if symbolClean == "" || symbolClean == pathClean {
		return pathClean
	}
	return pathClean + "#" + symbolClean
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify converts heading text to a canonical slug: lowercased, runs of
// non-alphanumerics collapsed to "_", trimmed. Empty input falls back to
// "section".
func Slugify(text string) string {
	slug := strings.ToLower(strings.TrimSpace(text))
	slug = slugPattern.ReplaceAllString(slug, "_")
	slug = strings.Trim(slug, "_")
	if slug == "" {
		return "section"
	}
	return slug
}

// SlugDeduper assigns numeric suffixes to duplicate slugs within one file:
// first occurrence keeps the bare slug, the second becomes slug_2, and so on.
type SlugDeduper struct {
	counts map[string]int
}

// NewSlugDeduper creates a deduper scoped to a single file
func NewSlugDeduper() *SlugDeduper {
	return &SlugDeduper{counts: make(map[string]int)}
}

// Next returns the deduplicated form of slug
func (d *SlugDeduper) Next(slug string) string {
	d.counts[slug]++
	if d.counts[slug] == 1 {
		return slug
	}
	return fmt.Sprintf("%s_%d", slug, d.counts[slug])
}

// ModuleName derives a dotted module name from a Python file path:
// "pkg/util/io.py" -> "pkg.util.io".
func ModuleName(relativePath string) string {
	name := strings.TrimSuffix(relativePath, ".py")
	return strings.ReplaceAll(name, "/", ".")
}
