package models

// ExpansionEdge records the single relationship that justified adding a
// document to a plan's expanded set.
type ExpansionEdge struct {
	SourceDocumentID string       `json:"source_document_id"`
	RelationType     RelationType `json:"relation_type"`
}

// PlanConstraints make a RetrievalPlan self-describing: how deep expansion
// was allowed to go and over which relation types.
type PlanConstraints struct {
	MaxDepth             int            `json:"max_depth"`
	AllowedRelationTypes []RelationType `json:"allowed_relation_types,omitempty"`
	AllowBidirectional   bool           `json:"allow_bidirectional,omitempty"`
}

// AllowsRelation reports whether the constraints permit the given relation type.
// An empty allow-list permits everything.
func (c PlanConstraints) AllowsRelation(rt RelationType) bool {
	if len(c.AllowedRelationTypes) == 0 {
		return true
	}
	for _, allowed := range c.AllowedRelationTypes {
		if allowed == rt {
			return true
		}
	}
	return false
}

// RetrievalPlan is an immutable description of which documents are in scope
// for a query and why. Expansion never mutates a plan; it returns a new one.
// Invariants: expanded is disjoint from seeds, and every expanded document
// has exactly one ExpansionEdge.
type RetrievalPlan struct {
	SeedDocumentIDs     []string                 `json:"seed_document_ids"`
	ExpandedDocumentIDs []string                 `json:"expanded_document_ids"`
	ExpansionMetadata   map[string]ExpansionEdge `json:"expansion_metadata,omitempty"`
	Constraints         PlanConstraints          `json:"constraints"`
}

// NewRetrievalPlan builds a plan from ordered seed document ids, dropping
// duplicates while preserving first-seen order.
func NewRetrievalPlan(seedDocumentIDs []string, constraints PlanConstraints) RetrievalPlan {
	seen := make(map[string]bool, len(seedDocumentIDs))
	seeds := make([]string, 0, len(seedDocumentIDs))
	for _, id := range seedDocumentIDs {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		seeds = append(seeds, id)
	}
	return RetrievalPlan{
		SeedDocumentIDs: seeds,
		Constraints:     constraints,
	}
}

// HasDocument reports whether the document is in the plan's seed or expanded set
func (p RetrievalPlan) HasDocument(documentID string) bool {
	for _, id := range p.SeedDocumentIDs {
		if id == documentID {
			return true
		}
	}
	for _, id := range p.ExpandedDocumentIDs {
		if id == documentID {
			return true
		}
	}
	return false
}

// AllowedDocuments returns seeds followed by expanded documents, in the
// plan's stable order. Plan execution iterates exactly this list.
func (p RetrievalPlan) AllowedDocuments() []string {
	out := make([]string, 0, len(p.SeedDocumentIDs)+len(p.ExpandedDocumentIDs))
	out = append(out, p.SeedDocumentIDs...)
	out = append(out, p.ExpandedDocumentIDs...)
	return out
}

// WithExpansion returns a new plan whose expanded set is extended with the
// given documents. Documents already present as seeds or expansions are
// skipped, keeping the disjointness invariant.
func (p RetrievalPlan) WithExpansion(documentIDs []string, metadata map[string]ExpansionEdge) RetrievalPlan {
	next := RetrievalPlan{
		SeedDocumentIDs:     append([]string(nil), p.SeedDocumentIDs...),
		ExpandedDocumentIDs: append([]string(nil), p.ExpandedDocumentIDs...),
		ExpansionMetadata:   make(map[string]ExpansionEdge, len(p.ExpansionMetadata)+len(metadata)),
		Constraints:         p.Constraints,
	}
	for id, edge := range p.ExpansionMetadata {
		next.ExpansionMetadata[id] = edge
	}
	for _, id := range documentIDs {
		if id == "" || next.HasDocument(id) {
			continue
		}
		next.ExpandedDocumentIDs = append(next.ExpandedDocumentIDs, id)
		if edge, ok := metadata[id]; ok {
			next.ExpansionMetadata[id] = edge
		}
	}
	return next
}

// PlanSummary is the wire shape of a plan in RAG responses
type PlanSummary struct {
	SeedCanonicalIDs     []string `json:"seed_canonical_ids"`
	ExpandedCanonicalIDs []string `json:"expanded_canonical_ids"`
	SeedDocs             int      `json:"seed_docs"`
	ExpandedDocs         int      `json:"expanded_docs"`
	TotalDocs            int      `json:"total_docs"`
}
