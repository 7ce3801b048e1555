package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewRetrievalPlanDedupesSeeds(t *testing.T) {
	plan := NewRetrievalPlan([]string{"doc_a", "doc_b", "doc_a", "", "doc_c"}, PlanConstraints{MaxDepth: 1})

	assert.Equal(t, []string{"doc_a", "doc_b", "doc_c"}, plan.SeedDocumentIDs)
	assert.Empty(t, plan.ExpandedDocumentIDs)
	assert.Equal(t, 1, plan.Constraints.MaxDepth)
}

func TestWithExpansionKeepsSetsDisjoint(t *testing.T) {
	plan := NewRetrievalPlan([]string{"doc_a", "doc_b"}, PlanConstraints{MaxDepth: 1})

	expanded := plan.WithExpansion(
		[]string{"doc_a", "doc_c", "doc_c", "doc_d"},
		map[string]ExpansionEdge{
			"doc_c": {SourceDocumentID: "doc_a", RelationType: RelationCall},
			"doc_d": {SourceDocumentID: "doc_b", RelationType: RelationDefines},
		},
	)

	// Original plan untouched
	assert.Empty(t, plan.ExpandedDocumentIDs)

	assert.Equal(t, []string{"doc_a", "doc_b"}, expanded.SeedDocumentIDs)
	assert.Equal(t, []string{"doc_c", "doc_d"}, expanded.ExpandedDocumentIDs)
	assert.Equal(t, "doc_a", expanded.ExpansionMetadata["doc_c"].SourceDocumentID)
	assert.Equal(t, RelationDefines, expanded.ExpansionMetadata["doc_d"].RelationType)
}

func TestWithExpansionSkipsAlreadyExpanded(t *testing.T) {
	plan := NewRetrievalPlan([]string{"doc_a"}, PlanConstraints{MaxDepth: 2}).
		WithExpansion([]string{"doc_b"}, nil)

	again := plan.WithExpansion([]string{"doc_b", "doc_c"}, nil)
	assert.Equal(t, []string{"doc_b", "doc_c"}, again.ExpandedDocumentIDs)
}

func TestAllowedDocumentsOrder(t *testing.T) {
	plan := NewRetrievalPlan([]string{"doc_a", "doc_b"}, PlanConstraints{}).
		WithExpansion([]string{"doc_c"}, nil)

	assert.Equal(t, []string{"doc_a", "doc_b", "doc_c"}, plan.AllowedDocuments())
	assert.True(t, plan.HasDocument("doc_c"))
	assert.False(t, plan.HasDocument("doc_z"))
}

func TestPlanConstraintsAllowsRelation(t *testing.T) {
	open := PlanConstraints{}
	assert.True(t, open.AllowsRelation(RelationCall), "empty allow-list permits everything")

	restricted := PlanConstraints{AllowedRelationTypes: []RelationType{RelationDefines}}
	assert.True(t, restricted.AllowsRelation(RelationDefines))
	assert.False(t, restricted.AllowsRelation(RelationCall))
}
