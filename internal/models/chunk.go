package models

// Chunk is one piece of text produced by a chunker, carrying the provenance
// metadata the retrieval side reads back (chunk_strategy, chunker_name,
// chunker_params, source_type, provider, doc_type, relative_path,
// canonical_id).
type Chunk struct {
	ChunkID  string                 `json:"chunk_id"`
	Content  string                 `json:"content"`
	Metadata map[string]interface{} `json:"metadata"`
}

// ChunkerParams are the knobs shared by all chunking strategies
type ChunkerParams struct {
	ChunkSize int `json:"chunk_size"`
	Overlap   int `json:"overlap"`
}
