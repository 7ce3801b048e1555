package models

// RelationType identifies the class of an edge in the artifact graph
type RelationType string

const (
	RelationDefines   RelationType = "DEFINES"
	RelationCall      RelationType = "CALL"
	RelationDocuments RelationType = "DOCUMENTS"
	RelationImport    RelationType = "IMPORT"
)

// Relationship is a typed edge between two canonical ids within a repo graph.
// No self-loops; (from, to, type) is unique.
type Relationship struct {
	FromCanonicalID string                 `json:"from_canonical_id"`
	ToCanonicalID   string                 `json:"to_canonical_id"`
	RelationType    RelationType           `json:"relation_type"`
	Metadata        map[string]interface{} `json:"metadata,omitempty"`
}
