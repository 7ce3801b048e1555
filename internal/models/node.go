package models

import (
	"time"
)

// Doc type values stored on DocumentNode and chunk provenance
const (
	DocTypeCode     = "code"
	DocTypeMarkdown = "markdown"
	DocTypeDocument = "document"
)

// DocumentNode is the persisted row representing an artifact for retrieval.
// document_id is an internal surrogate; (repo_id, canonical_id) is the
// globally unique canonical identity.
type DocumentNode struct {
	DocumentID   string    `json:"document_id"`
	RepoID       string    `json:"repo_id"`
	CanonicalID  string    `json:"canonical_id"`
	RelativePath string    `json:"relative_path"`
	SymbolPath   string    `json:"symbol_path,omitempty"`
	DocType      string    `json:"doc_type"`
	Title        string    `json:"title"`
	Summary      string    `json:"summary,omitempty"`
	Source       string    `json:"source,omitempty"`
	Text         string    `json:"text,omitempty"`
	IngestionID  string    `json:"ingestion_id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// DocumentRelationship is a persisted edge between two DocumentNodes.
// Deleted by FK cascade when either endpoint node is removed.
type DocumentRelationship struct {
	ID             int64                  `json:"id"`
	FromDocumentID string                 `json:"from_document_id"`
	ToDocumentID   string                 `json:"to_document_id"`
	RelationType   RelationType           `json:"relation_type"`
	Metadata       map[string]interface{} `json:"relationship_metadata,omitempty"`
	CreatedAt      time.Time              `json:"created_at"`
}

// RepoInfo summarizes a completely ingested repository for listings
type RepoInfo struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	DisplayName string    `json:"display_name"`
	Status      string    `json:"status"`
	IngestionID string    `json:"ingestion_id"`
	IngestedAt  time.Time `json:"ingested_at"`
	FileCount   int       `json:"file_count"`
	NodeCount   int       `json:"node_count"`
}

// GraphNodeSummary is the wire shape returned by the graph node lookup API
type GraphNodeSummary struct {
	DocumentID   string `json:"document_id"`
	CanonicalID  string `json:"canonical_id"`
	RelativePath string `json:"relative_path"`
	Title        string `json:"title"`
	DocType      string `json:"doc_type"`
}

// GraphEdgeSummary is the wire shape of one outgoing edge in the graph export
type GraphEdgeSummary struct {
	ToCanonicalID string       `json:"to_canonical_id"`
	RelationType  RelationType `json:"relation_type"`
}

// GraphExport is the full adjacency export for one repository, the payload
// the query-time CodebaseGraph is rebuilt from.
type GraphExport struct {
	Nodes         []GraphNodeSummary            `json:"nodes"`
	Relationships map[string][]GraphEdgeSummary `json:"relationships"`
	TotalNodes    int                           `json:"total_nodes"`
}
