package extractors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/contexo/internal/models"
)

func TestMarkdownExtractorModuleFirst(t *testing.T) {
	source := []byte("# Title\n\nbody text\n")
	artifacts, err := NewMarkdownExtractor("docs/guide.md").Extract(source)
	require.NoError(t, err)
	require.NotEmpty(t, artifacts)

	module := artifacts[0]
	assert.Equal(t, models.ArtifactMarkdownModule, module.Type)
	assert.Equal(t, "docs/guide.md", module.ID)
	assert.Equal(t, "guide", module.Name)
	assert.Equal(t, string(source), module.Text)
}

func TestMarkdownExtractorSectionNesting(t *testing.T) {
	source := []byte(`# Install

intro text

## Docker

docker steps

## Source

build steps

# Usage

usage text
`)
	artifacts, err := NewMarkdownExtractor("README.md").Extract(source)
	require.NoError(t, err)
	// module + 4 sections
	require.Len(t, artifacts, 5)

	byID := map[string]*models.Artifact{}
	for _, a := range artifacts {
		byID[a.ID] = a
	}

	install := byID["README.md#install"]
	require.NotNil(t, install)
	assert.Equal(t, models.ArtifactMarkdownSection, install.Type)
	assert.Equal(t, "README.md", install.ParentID)
	assert.Equal(t, 1, install.Section.Level)

	docker := byID["README.md#install.docker"]
	require.NotNil(t, docker)
	assert.Equal(t, "README.md#install", docker.ParentID)
	assert.Equal(t, 2, docker.Section.Level)
	assert.Contains(t, docker.Text, "docker steps")
	assert.NotContains(t, docker.Text, "build steps")

	source2 := byID["README.md#install.source"]
	require.NotNil(t, source2)
	assert.Equal(t, "README.md#install", source2.ParentID)

	usage := byID["README.md#usage"]
	require.NotNil(t, usage)
	assert.Equal(t, "README.md", usage.ParentID)

	// H1 section text spans its subsections but not the next H1
	assert.Contains(t, install.Text, "docker steps")
	assert.NotContains(t, install.Text, "usage text")
}

func TestMarkdownExtractorDuplicateHeadings(t *testing.T) {
	source := []byte("# Usage\n\nfirst\n\n# Usage\n\nsecond\n")
	artifacts, err := NewMarkdownExtractor("README.md").Extract(source)
	require.NoError(t, err)
	require.Len(t, artifacts, 3)

	assert.Equal(t, "README.md#usage", artifacts[1].ID)
	assert.Equal(t, "README.md#usage_2", artifacts[2].ID)
}

func TestMarkdownExtractorFrontmatter(t *testing.T) {
	source := []byte("---\ntitle: Guide\nversion: 2\n---\n# Intro\n\ntext\n")
	artifacts, err := NewMarkdownExtractor("guide.md").Extract(source)
	require.NoError(t, err)
	require.Len(t, artifacts, 2)

	fm, ok := artifacts[0].Metadata["frontmatter"].(map[string]interface{})
	require.True(t, ok, "frontmatter must be parsed into module metadata")
	assert.Equal(t, "Guide", fm["title"])

	// Frontmatter delimiters must not be parsed as headings
	assert.Equal(t, "guide.md#intro", artifacts[1].ID)
}

func TestMarkdownExtractorNoHeadings(t *testing.T) {
	artifacts, err := NewMarkdownExtractor("notes.md").Extract([]byte("plain text, no structure\n"))
	require.NoError(t, err)
	require.Len(t, artifacts, 1)
	assert.Equal(t, models.ArtifactMarkdownModule, artifacts[0].Type)
}
