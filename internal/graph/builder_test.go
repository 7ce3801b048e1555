package graph

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/contexo/internal/common"
	"github.com/ternarybob/contexo/internal/models"
)

func buildFromFiles(t *testing.T, files map[string]string) *RepoGraph {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}

	g, err := NewBuilder(root, "repo_test", "ing_test", common.GetLogger()).Build()
	require.NoError(t, err)
	return g
}

func relationshipsOfType(g *RepoGraph, relType models.RelationType) []*models.Relationship {
	var out []*models.Relationship
	for _, rel := range g.Relationships() {
		if rel.RelationType == relType {
			out = append(out, rel)
		}
	}
	return out
}

func TestBuilderDefines(t *testing.T) {
	g := buildFromFiles(t, map[string]string{
		"lib.py": "class C:\n    def m(self):\n        pass\n",
	})

	defines := relationshipsOfType(g, models.RelationDefines)
	require.Len(t, defines, 2)

	targetsByFrom := map[string][]string{}
	for _, rel := range defines {
		targetsByFrom[rel.FromCanonicalID] = append(targetsByFrom[rel.FromCanonicalID], rel.ToCanonicalID)
	}
	assert.Equal(t, []string{"lib.py#C"}, targetsByFrom["lib.py"])
	assert.Equal(t, []string{"lib.py#C.m"}, targetsByFrom["lib.py#C"])
}

func TestBuilderCallPrefersEnclosingScope(t *testing.T) {
	// The symbol table's last write for "go" is util.py#go; lexical
	// resolution must win over it.
	g := buildFromFiles(t, map[string]string{
		"app.py":  "def go():\n    def inner():\n        go()\n",
		"util.py": "def go():\n    pass\n",
	})

	calls := relationshipsOfType(g, models.RelationCall)
	require.Len(t, calls, 1)
	assert.Equal(t, "app.py#inner", calls[0].FromCanonicalID)
	assert.Equal(t, "app.py#go", calls[0].ToCanonicalID)
	assert.Equal(t, 1.0, calls[0].Metadata["confidence"])
}

func TestBuilderRecursiveCallNeverFallsBackToSymbolTable(t *testing.T) {
	// self.go() inside C.go resolves to the method itself; the resulting
	// self-loop is dropped rather than re-resolved against the free function.
	g := buildFromFiles(t, map[string]string{
		"c.py": "class C:\n    def go(self):\n        self.go()\n\ndef go():\n    pass\n",
	})

	assert.Empty(t, relationshipsOfType(g, models.RelationCall))
}

func TestBuilderCallFallsBackToSymbolTable(t *testing.T) {
	g := buildFromFiles(t, map[string]string{
		"app.py":  "def run():\n    helper()\n",
		"util.py": "def helper():\n    pass\n",
	})

	calls := relationshipsOfType(g, models.RelationCall)
	require.Len(t, calls, 1)
	assert.Equal(t, "app.py#run", calls[0].FromCanonicalID)
	assert.Equal(t, "util.py#helper", calls[0].ToCanonicalID)
	assert.Equal(t, 0.5, calls[0].Metadata["confidence"], "cross-file resolution is flagged lower confidence")
}

func TestBuilderUnresolvedCallsProduceNoEdge(t *testing.T) {
	g := buildFromFiles(t, map[string]string{
		"app.py": "def run():\n    json.dumps({})\n",
	})

	assert.Empty(t, relationshipsOfType(g, models.RelationCall), "external calls are dropped")
}

func TestBuilderDocumentsLinking(t *testing.T) {
	g := buildFromFiles(t, map[string]string{
		"mathlib.py": "def add(a, b):\n    return a + b\n",
		"docs.md":    "# Reference\n\n## add\n\nAdds two numbers.\n\n## Misc\n\nUnrelated notes.\n",
	})

	docs := relationshipsOfType(g, models.RelationDocuments)
	require.Len(t, docs, 1)
	assert.Equal(t, "docs.md#reference.add", docs[0].FromCanonicalID)
	assert.Equal(t, "mathlib.py#add", docs[0].ToCanonicalID)
	assert.Equal(t, "exact_name", docs[0].Metadata["match_strategy"])
	assert.Equal(t, "add", docs[0].Metadata["section_name"])
	assert.Equal(t, 1.0, docs[0].Metadata["confidence"])
}

func TestBuilderDocumentsLowercaseFallback(t *testing.T) {
	g := buildFromFiles(t, map[string]string{
		"mathlib.py": "def add(a, b):\n    return a + b\n",
		"docs.md":    "## Add\n\nAdds two numbers.\n",
	})

	docs := relationshipsOfType(g, models.RelationDocuments)
	require.Len(t, docs, 1)
	assert.Equal(t, "docs.md#add", docs[0].FromCanonicalID)
	assert.Equal(t, "mathlib.py#add", docs[0].ToCanonicalID)
	assert.Equal(t, "Add", docs[0].Metadata["section_name"], "the verbatim heading is recorded")
}

func TestBuilderSkipsDotDirectories(t *testing.T) {
	g := buildFromFiles(t, map[string]string{
		"app.py":           "def run():\n    pass\n",
		".venv/hidden.py":  "def secret():\n    pass\n",
		".github/notes.md": "# Notes\n",
	})

	assert.Nil(t, g.Get(".venv/hidden.py"))
	assert.Nil(t, g.Get(".github/notes.md"))
	assert.NotNil(t, g.Get("app.py#run"))
}
