package graph

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/contexo/internal/extractors"
	"github.com/ternarybob/contexo/internal/identity"
	"github.com/ternarybob/contexo/internal/interfaces"
	"github.com/ternarybob/contexo/internal/models"
)

// Builder turns a checked-out repository directory into a RepoGraph with
// artifacts and typed DEFINES / CALL / DOCUMENTS relationships.
type Builder struct {
	repoRoot    string
	repoID      string
	ingestionID string
	logger      arbor.ILogger
}

// NewBuilder creates a repo graph builder rooted at repoRoot
func NewBuilder(repoRoot, repoID, ingestionID string, logger arbor.ILogger) *Builder {
	return &Builder{
		repoRoot:    repoRoot,
		repoID:      repoID,
		ingestionID: ingestionID,
		logger:      logger,
	}
}

// Build walks the repository, extracts artifacts per file, assigns canonical
// identities, and derives relationships. Per-file failures are logged and
// skipped; they never fail the build.
func (b *Builder) Build() (*RepoGraph, error) {
	graph := NewRepoGraph(b.repoID, b.ingestionID)

	files, err := b.walkRepo()
	if err != nil {
		return nil, err
	}

	for _, relativePath := range files {
		extractor := b.selectExtractor(relativePath)
		if extractor == nil {
			continue
		}

		source, err := os.ReadFile(filepath.Join(b.repoRoot, filepath.FromSlash(relativePath)))
		if err != nil {
			b.logger.Warn().Err(err).Str("file", relativePath).Msg("Skipping unreadable file")
			continue
		}

		artifacts, err := extractor.Extract(source)
		if err != nil {
			b.logger.Warn().Err(err).Str("file", relativePath).Msg("Skipping file that failed extraction")
			continue
		}

		for _, artifact := range artifacts {
			artifact.RelativePath = relativePath
			artifact.ID = identity.BuildCanonicalID(relativePath, artifact.ID)
			graph.AddArtifact(artifact)
		}
	}

	symbols := BuildSymbolTable(graph)
	b.attachDefines(graph)
	b.resolveCalls(graph, symbols)
	b.linkDocuments(graph, symbols)

	b.logger.Info().
		Str("repo_id", b.repoID).
		Int("artifacts", graph.Len()).
		Int("relationships", len(graph.Relationships())).
		Msg("Repo graph built")

	return graph, nil
}

// walkRepo returns repo-relative forward-slash paths of all candidate files
// in lexical order. Paths with any dot-prefixed component are skipped.
func (b *Builder) walkRepo() ([]string, error) {
	var files []string
	err := filepath.WalkDir(b.repoRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(b.repoRoot, path)
		if relErr != nil || rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)
		for _, part := range strings.Split(rel, "/") {
			if strings.HasPrefix(part, ".") {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(rel)) {
		case ".py", ".md":
			files = append(files, rel)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

func (b *Builder) selectExtractor(relativePath string) interfaces.Extractor {
	switch strings.ToLower(filepath.Ext(relativePath)) {
	case ".py":
		return extractors.NewPythonExtractor(relativePath)
	case ".md":
		return extractors.NewMarkdownExtractor(relativePath)
	}
	return nil
}

// attachDefines emits parent --DEFINES--> child for every definition artifact
// whose parent resolves within the graph.
func (b *Builder) attachDefines(g *RepoGraph) {
	for _, artifact := range g.All() {
		if !artifact.Type.IsDefinition() {
			continue
		}
		if artifact.ParentID == "" {
			continue
		}
		parent := g.Get(artifact.ParentID)
		if parent == nil {
			continue
		}
		_ = g.AddRelationship(&models.Relationship{
			FromCanonicalID: parent.ID,
			ToCanonicalID:   artifact.ID,
			RelationType:    models.RelationDefines,
			Metadata:        map[string]interface{}{},
		})
	}
}

// resolveCalls resolves each CALL artifact against local lexical scope first
// (confidence 1.0), then the global symbol table (confidence 0.5). Misses are
// external calls and produce no edge.
func (b *Builder) resolveCalls(g *RepoGraph, symbols *SymbolTable) {
	for _, call := range g.All() {
		if call.Type != models.ArtifactCall {
			continue
		}
		if call.Name == "" || call.Name == "<unknown>" {
			continue
		}
		if call.ParentID == "" {
			continue
		}
		caller := g.Get(call.ParentID)
		if caller == nil {
			continue
		}

		targetID, confidence := b.resolveInScope(g, call)
		if targetID == "" {
			if resolved := symbols.Lookup(call.Name); resolved != "" {
				targetID, confidence = resolved, 0.5
			}
		}
		if targetID == "" {
			continue
		}
		target := g.Get(targetID)
		if target == nil {
			continue
		}

		_ = g.AddRelationship(&models.Relationship{
			FromCanonicalID: caller.ID,
			ToCanonicalID:   target.ID,
			RelationType:    models.RelationCall,
			Metadata:        map[string]interface{}{"confidence": confidence},
		})
	}
}

// resolveInScope walks the call's ancestor chain looking for a definition
// whose name matches the callee. A hit is a local lexical resolution.
func (b *Builder) resolveInScope(g *RepoGraph, call *models.Artifact) (string, float64) {
	current := call.ParentID
	for current != "" {
		ancestor := g.Get(current)
		if ancestor == nil {
			return "", 0
		}
		if ancestor.Name == call.Name {
			return ancestor.ID, 1.0
		}
		current = ancestor.ParentID
	}
	return "", 0
}

// linkDocuments matches each markdown section heading against the symbol
// table (verbatim, then lowercased and trimmed) and emits
// section --DOCUMENTS--> symbol edges. Rebuild-safe: no LLM, no fuzzy match.
func (b *Builder) linkDocuments(g *RepoGraph, symbols *SymbolTable) {
	documentable := map[models.ArtifactType]bool{
		models.ArtifactClass:    true,
		models.ArtifactFunction: true,
		models.ArtifactMethod:   true,
		models.ArtifactModule:   true,
	}

	for _, section := range g.All() {
		if section.Type != models.ArtifactMarkdownSection {
			continue
		}
		heading := section.Name
		if heading == "" {
			continue
		}

		targetID := symbols.Lookup(heading)
		if targetID == "" {
			targetID = symbols.Lookup(strings.ToLower(strings.TrimSpace(heading)))
		}
		if targetID == "" {
			continue
		}
		target := g.Get(targetID)
		if target == nil || !documentable[target.Type] || target.ID == section.ID {
			continue
		}

		_ = g.AddRelationship(&models.Relationship{
			FromCanonicalID: section.ID,
			ToCanonicalID:   target.ID,
			RelationType:    models.RelationDocuments,
			Metadata: map[string]interface{}{
				"match_strategy": "exact_name",
				"section_name":   heading,
				"confidence":     1.0,
			},
		})
	}
}
