package models

// VectorMetadata is the typed metadata column stored alongside each vector
type VectorMetadata struct {
	IngestionID    string                 `json:"ingestion_id"`
	ChunkID        string                 `json:"chunk_id"`
	ChunkIndex     int                    `json:"chunk_index"`
	ChunkStrategy  string                 `json:"chunk_strategy"`
	ChunkText      string                 `json:"chunk_text"`
	SourceMetadata map[string]interface{} `json:"source_metadata,omitempty"`
	Provider       string                 `json:"provider"`
	DocumentID     string                 `json:"document_id,omitempty"`
}

// VectorRecord is one embedding plus its metadata, the unit of vector-store writes
type VectorRecord struct {
	Vector   []float32      `json:"vector"`
	Metadata VectorMetadata `json:"metadata"`
}

// VectorSearchResult is one similarity hit with full metadata so callers can
// recover document_id and canonical_id.
type VectorSearchResult struct {
	ChunkID    string                 `json:"chunk_id"`
	Text       string                 `json:"text"`
	DocumentID string                 `json:"document_id,omitempty"`
	Score      float64                `json:"score"`
	Metadata   map[string]interface{} `json:"metadata"`
}
