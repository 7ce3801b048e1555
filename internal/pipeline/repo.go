package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/contexo/internal/common"
	"github.com/ternarybob/contexo/internal/graph"
	"github.com/ternarybob/contexo/internal/models"
)

// persistedArtifactTypes are the artifact types that become DocumentNodes.
// CALL and IMPORT artifacts only contribute edges, never nodes.
var persistedArtifactTypes = map[models.ArtifactType]bool{
	models.ArtifactModule:          true,
	models.ArtifactClass:           true,
	models.ArtifactFunction:        true,
	models.ArtifactMethod:          true,
	models.ArtifactMarkdownModule:  true,
	models.ArtifactMarkdownSection: true,
}

// IngestRepo builds the repository graph from a checked-out directory and
// persists it. The delete of the repo's old nodes and the insert of the new
// nodes and relationships run in a single transaction, then each node is
// chunked and embedded. Re-ingesting a repo_id is a full replacement.
func (p *Pipeline) IngestRepo(ctx context.Context, ingestionID, repoID, repoName, rootDir string) error {
	builder := graph.NewBuilder(rootDir, repoID, ingestionID, p.logger)
	repoGraph, err := builder.Build()
	if err != nil {
		return fmt.Errorf("failed to build repo graph: %w", err)
	}

	canonicalToDocID := make(map[string]string)
	var nodes []*models.DocumentNode
	for _, artifact := range repoGraph.All() {
		if !persistedArtifactTypes[artifact.Type] {
			continue
		}
		documentID := common.NewDocumentID()
		canonicalToDocID[artifact.ID] = documentID
		nodes = append(nodes, &models.DocumentNode{
			DocumentID:   documentID,
			RepoID:       repoID,
			CanonicalID:  artifact.ID,
			RelativePath: artifact.RelativePath,
			SymbolPath:   artifact.SymbolPath(),
			DocType:      docTypeFor(artifact.Type),
			Title:        artifact.Name,
			Source:       artifact.RelativePath,
			Text:         artifact.Text,
			IngestionID:  ingestionID,
		})
	}
	if len(nodes) == 0 {
		return fmt.Errorf("repository %s produced no document nodes", repoName)
	}

	var rels []*models.DocumentRelationship
	for _, rel := range repoGraph.Relationships() {
		fromDocID, okFrom := canonicalToDocID[rel.FromCanonicalID]
		toDocID, okTo := canonicalToDocID[rel.ToCanonicalID]
		if !okFrom || !okTo {
			p.logger.Warn().
				Str("from", rel.FromCanonicalID).
				Str("to", rel.ToCanonicalID).
				Str("type", string(rel.RelationType)).
				Msg("Skipping relationship with unpersisted endpoint")
			continue
		}
		rels = append(rels, &models.DocumentRelationship{
			FromDocumentID: fromDocID,
			ToDocumentID:   toDocID,
			RelationType:   rel.RelationType,
			Metadata:       rel.Metadata,
		})
	}
	if err := p.nodes.ReplaceRepoGraph(ctx, repoID, nodes, rels); err != nil {
		return fmt.Errorf("failed to persist repo graph: %w", err)
	}

	// Chunk and embed every node with text, tagged with its canonical id so
	// retrieval can walk back from chunk hits into the graph.
	embeddedNodes := 0
	for _, artifact := range repoGraph.All() {
		if !persistedArtifactTypes[artifact.Type] {
			continue
		}
		if strings.TrimSpace(artifact.Text) == "" {
			continue
		}
		documentID := canonicalToDocID[artifact.ID]

		chunks := p.chunkText(artifact.Text, provenance{
			sourceType:   models.SourceTypeCode,
			docType:      docTypeFor(artifact.Type),
			relativePath: artifact.RelativePath,
			canonicalID:  artifact.ID,
		})
		for i := range chunks {
			chunks[i].Metadata["repo_id"] = repoID
			chunks[i].Metadata["source_metadata"] = map[string]interface{}{
				"canonical_id": artifact.ID,
			}
		}

		if err := p.embedAndPersist(ctx, chunks, ingestionID, documentID); err != nil {
			return fmt.Errorf("failed to embed node %s: %w", artifact.ID, err)
		}
		embeddedNodes++
	}

	// The cached query-time graph is stale after a replacement
	p.graphCache.Invalidate(repoID)

	p.logger.Info().
		Str("repo_id", repoID).
		Str("repo_name", repoName).
		Str("ingestion_id", ingestionID).
		Int("nodes", len(nodes)).
		Int("relationships", len(rels)).
		Int("embedded_nodes", embeddedNodes).
		Msg("Repository ingestion complete")

	return nil
}
