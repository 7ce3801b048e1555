package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/contexo/internal/chunkers"
	"github.com/ternarybob/contexo/internal/common"
	"github.com/ternarybob/contexo/internal/extractors"
	"github.com/ternarybob/contexo/internal/graph"
	"github.com/ternarybob/contexo/internal/interfaces"
	"github.com/ternarybob/contexo/internal/models"
)

// Pipeline runs validate -> chunk -> embed -> persist with provenance carried
// end to end. The DocumentNode commit always precedes chunk persistence so
// vector rows never reference a node that does not exist yet.
type Pipeline struct {
	chunker    chunkers.Chunker
	embedder   interfaces.EmbeddingService
	nodes      interfaces.NodeStorage
	vectors    interfaces.VectorStorage
	graphCache *graph.Cache
	logger     arbor.ILogger
}

var _ interfaces.IngestService = (*Pipeline)(nil)

// NewPipeline creates the ingestion pipeline. A nil chunker means the
// length-tiered selector picks the strategy per text.
func NewPipeline(
	embedder interfaces.EmbeddingService,
	nodes interfaces.NodeStorage,
	vectors interfaces.VectorStorage,
	graphCache *graph.Cache,
	logger arbor.ILogger,
) *Pipeline {
	return &Pipeline{
		embedder:   embedder,
		nodes:      nodes,
		vectors:    vectors,
		graphCache: graphCache,
		logger:     logger,
	}
}

// WithChunker pins an explicit chunker, bypassing length-tiered selection
func (p *Pipeline) WithChunker(c chunkers.Chunker) *Pipeline {
	p.chunker = c
	return p
}

// IngestText runs the raw-text path: one DocumentNode, then chunk, embed,
// and persist against it.
func (p *Pipeline) IngestText(ctx context.Context, ingestionID, sourceType, text string, sourceMetadata map[string]interface{}) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("text cannot be empty")
	}

	relativePath := metadataString(sourceMetadata, "filename", "uploaded_file")
	canonicalID := fmt.Sprintf("%s_document_%s", sourceType, ingestionID)

	node := &models.DocumentNode{
		DocumentID:   common.NewDocumentID(),
		RepoID:       ingestionID,
		CanonicalID:  canonicalID,
		RelativePath: relativePath,
		DocType:      sourceType,
		Title:        fmt.Sprintf("%s_document_%s", sourceType, shortID(ingestionID)),
		Source:       models.IngestionSourceTag(models.SourceTypeFile, ingestionID),
		Text:         text,
		IngestionID:  ingestionID,
	}
	if err := p.nodes.UpsertNode(ctx, node); err != nil {
		return fmt.Errorf("failed to create document node: %w", err)
	}

	chunks := p.chunkText(text, provenance{
		sourceType:   sourceType,
		docType:      sourceType,
		relativePath: relativePath,
		canonicalID:  canonicalID,
	})

	return p.embedAndPersist(ctx, chunks, ingestionID, node.DocumentID)
}

// IngestChunks runs the pre-chunked path used for PDF uploads: one
// DocumentNode, embed and persist the chunks that arrived ready.
func (p *Pipeline) IngestChunks(ctx context.Context, ingestionID, sourceType string, chunks []models.Chunk, sourceMetadata map[string]interface{}) error {
	if len(chunks) == 0 {
		return fmt.Errorf("no chunks to ingest")
	}

	relativePath := metadataString(sourceMetadata, "filename", "uploaded_file")
	canonicalID := fmt.Sprintf("%s_document_%s", sourceType, ingestionID)

	title := metadataString(chunks[0].Metadata, "filename", "untitled")

	node := &models.DocumentNode{
		DocumentID:   common.NewDocumentID(),
		RepoID:       ingestionID,
		CanonicalID:  canonicalID,
		RelativePath: relativePath,
		DocType:      models.DocTypeDocument,
		Title:        title,
		Source:       models.IngestionSourceTag(models.SourceTypeFile, ingestionID),
		IngestionID:  ingestionID,
	}
	if err := p.nodes.UpsertNode(ctx, node); err != nil {
		return fmt.Errorf("failed to create document node: %w", err)
	}

	// Pre-built chunks bypass chunkText; fill any provenance they are missing
	for i := range chunks {
		if chunks[i].Metadata == nil {
			chunks[i].Metadata = make(map[string]interface{})
		}
		setDefault(chunks[i].Metadata, "source_type", models.SourceTypeFile)
		setDefault(chunks[i].Metadata, "doc_type", models.DocTypeDocument)
		setDefault(chunks[i].Metadata, "provider", p.embedder.Provider())
		setDefault(chunks[i].Metadata, "relative_path", relativePath)
		setDefault(chunks[i].Metadata, "canonical_id", canonicalID)
		setDefault(chunks[i].Metadata, "chunk_strategy", "unknown")
	}

	return p.embedAndPersist(ctx, chunks, ingestionID, node.DocumentID)
}

// IngestSectioned runs the sectioned path for markdown-bearing uploads: one
// DocumentNode per extracted artifact, DEFINES relationships between parent
// and child nodes, and one embedded chunk per artifact with text.
func (p *Pipeline) IngestSectioned(ctx context.Context, ingestionID, sourceType, relativePath string, text string, sourceMetadata map[string]interface{}) error {
	extractor := extractors.NewMarkdownExtractor(relativePath)
	artifacts, err := extractor.Extract([]byte(text))
	if err != nil {
		return fmt.Errorf("failed to extract sections from %s: %w", relativePath, err)
	}
	if len(artifacts) == 0 {
		return fmt.Errorf("no sections extracted from %s", relativePath)
	}

	// One node per artifact, committed before relationships and vectors
	canonicalToDocID := make(map[string]string, len(artifacts))
	nodes := make([]*models.DocumentNode, 0, len(artifacts))
	for _, artifact := range artifacts {
		documentID := common.NewDocumentID()
		canonicalToDocID[artifact.ID] = documentID
		nodes = append(nodes, &models.DocumentNode{
			DocumentID:   documentID,
			RepoID:       ingestionID,
			CanonicalID:  artifact.ID,
			RelativePath: relativePath,
			SymbolPath:   artifact.SymbolPath(),
			DocType:      docTypeFor(artifact.Type),
			Title:        artifact.Name,
			Source:       models.IngestionSourceTag(models.SourceTypeFile, ingestionID),
			Text:         artifact.Text,
			IngestionID:  ingestionID,
		})
	}
	if err := p.nodes.UpsertNodes(ctx, nodes); err != nil {
		return fmt.Errorf("failed to create section nodes: %w", err)
	}

	// DEFINES edges mirror the heading hierarchy
	var rels []*models.DocumentRelationship
	for _, artifact := range artifacts {
		if artifact.ParentID == "" {
			continue
		}
		fromDocID, okFrom := canonicalToDocID[artifact.ParentID]
		toDocID, okTo := canonicalToDocID[artifact.ID]
		if !okFrom || !okTo {
			p.logger.Warn().
				Str("from", artifact.ParentID).
				Str("to", artifact.ID).
				Msg("Skipping relationship with missing endpoint")
			continue
		}
		rels = append(rels, &models.DocumentRelationship{
			FromDocumentID: fromDocID,
			ToDocumentID:   toDocID,
			RelationType:   models.RelationDefines,
			Metadata:       map[string]interface{}{"artifact_type": string(artifact.Type)},
		})
	}
	if err := p.nodes.InsertRelationships(ctx, rels); err != nil {
		return fmt.Errorf("failed to persist section relationships: %w", err)
	}

	// One chunk per artifact with text, each against its own node
	embedded := 0
	for _, artifact := range artifacts {
		artifactText := strings.TrimSpace(artifact.Text)
		if artifactText == "" {
			continue
		}
		chunk := models.Chunk{
			ChunkID: common.NewChunkID(),
			Content: artifactText,
			Metadata: map[string]interface{}{
				"source_type":   models.SourceTypeFile,
				"doc_type":      docTypeFor(artifact.Type),
				"canonical_id":  artifact.ID,
				"relative_path": relativePath,
				"artifact_type": string(artifact.Type),
				"provider":      p.embedder.Provider(),
			},
		}
		if err := p.embedAndPersist(ctx, []models.Chunk{chunk}, ingestionID, canonicalToDocID[artifact.ID]); err != nil {
			return err
		}
		embedded++
	}
	if embedded == 0 {
		p.logger.Warn().
			Str("ingestion_id", ingestionID).
			Str("file", relativePath).
			Msg("No text content found in any section")
	}

	p.logger.Info().
		Str("ingestion_id", ingestionID).
		Int("nodes", len(nodes)).
		Int("relationships", len(rels)).
		Int("embedded", embedded).
		Msg("Sectioned ingestion complete")

	return nil
}

// provenance carries the per-document fields stamped into chunk metadata
type provenance struct {
	sourceType   string
	docType      string
	relativePath string
	canonicalID  string
}

// chunkText splits text with the pinned or length-selected chunker and stamps
// provenance metadata on every chunk.
func (p *Pipeline) chunkText(text string, prov provenance) []models.Chunk {
	chunker := p.chunker
	var params models.ChunkerParams
	if chunker == nil {
		chunker, params = chunkers.Select(text)
	}

	chunks := chunker.Chunk(text, params)

	for i := range chunks {
		if chunks[i].Metadata == nil {
			chunks[i].Metadata = make(map[string]interface{})
		}
		chunks[i].Metadata["chunk_strategy"] = chunker.Strategy()
		chunks[i].Metadata["chunker_name"] = chunker.Name()
		chunks[i].Metadata["chunker_params"] = map[string]interface{}{
			"chunk_size": params.ChunkSize,
			"overlap":    params.Overlap,
		}
		chunks[i].Metadata["source_type"] = prov.sourceType
		chunks[i].Metadata["provider"] = p.embedder.Provider()
		chunks[i].Metadata["doc_type"] = prov.docType
		chunks[i].Metadata["relative_path"] = prov.relativePath
		chunks[i].Metadata["canonical_id"] = prov.canonicalID
	}

	p.logger.Debug().
		Str("strategy", chunker.Strategy()).
		Int("chunks", len(chunks)).
		Int("text_len", len(text)).
		Msg("Text chunked")

	return chunks
}

// embedAndPersist embeds chunks and writes vector records against a document.
// A count mismatch between chunks and embeddings fails the ingestion.
func (p *Pipeline) embedAndPersist(ctx context.Context, chunks []models.Chunk, ingestionID, documentID string) error {
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Content
	}

	start := time.Now()
	embeddings, err := p.embedder.GenerateEmbeddings(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed chunks: %w", err)
	}
	if len(embeddings) != len(chunks) {
		return fmt.Errorf("embedder mismatch: %d chunks, %d embeddings", len(chunks), len(embeddings))
	}

	records := make([]models.VectorRecord, len(chunks))
	for i, chunk := range chunks {
		records[i] = models.VectorRecord{
			Vector: embeddings[i],
			Metadata: models.VectorMetadata{
				IngestionID:    ingestionID,
				ChunkID:        chunk.ChunkID,
				ChunkIndex:     i,
				ChunkStrategy:  metadataString(chunk.Metadata, "chunk_strategy", "unknown"),
				ChunkText:      chunk.Content,
				SourceMetadata: chunk.Metadata,
				Provider:       metadataString(chunk.Metadata, "provider", p.embedder.Provider()),
				DocumentID:     documentID,
			},
		}
	}

	if err := p.vectors.Add(ctx, records); err != nil {
		return fmt.Errorf("failed to persist vectors: %w", err)
	}

	p.logger.Debug().
		Str("document_id", documentID).
		Int("chunks", len(chunks)).
		Dur("duration", time.Since(start)).
		Msg("Chunks embedded and persisted")

	return nil
}

// docTypeFor maps artifact types to the doc_type stored on nodes and chunks
func docTypeFor(t models.ArtifactType) string {
	switch t {
	case models.ArtifactMarkdownModule, models.ArtifactMarkdownSection:
		return models.DocTypeMarkdown
	default:
		return models.DocTypeCode
	}
}

func metadataString(metadata map[string]interface{}, key, fallback string) string {
	if metadata != nil {
		if v, ok := metadata[key].(string); ok && v != "" {
			return v
		}
	}
	return fallback
}

func setDefault(metadata map[string]interface{}, key string, value interface{}) {
	if _, ok := metadata[key]; !ok {
		metadata[key] = value
	}
}

// shortID truncates an id for human-readable titles
func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
