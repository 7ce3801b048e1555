package retrieval

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ternarybob/contexo/internal/models"
)

func TestExpandRetrievalPlanDepthBound(t *testing.T) {
	// doc_a -> doc_b -> doc_c -> doc_d, all DEFINES
	edges := map[string][]OutgoingRelationship{
		"doc_a": {{TargetDocumentID: "doc_b", RelationType: models.RelationDefines}},
		"doc_b": {{TargetDocumentID: "doc_c", RelationType: models.RelationDefines}},
		"doc_c": {{TargetDocumentID: "doc_d", RelationType: models.RelationDefines}},
	}
	listOutgoing := func(id string) []OutgoingRelationship { return edges[id] }

	plan := models.NewRetrievalPlan([]string{"doc_a"}, models.PlanConstraints{})

	depth1 := ExpandRetrievalPlan(plan, listOutgoing, models.PlanConstraints{MaxDepth: 1})
	assert.Equal(t, []string{"doc_b"}, depth1.ExpandedDocumentIDs)

	depth3 := ExpandRetrievalPlan(plan, listOutgoing, models.PlanConstraints{MaxDepth: 3})
	assert.Equal(t, []string{"doc_b", "doc_c", "doc_d"}, depth3.ExpandedDocumentIDs)

	// Input plan untouched
	assert.Empty(t, plan.ExpandedDocumentIDs)
}

func TestExpandRetrievalPlanDeterministicOrder(t *testing.T) {
	edges := map[string][]OutgoingRelationship{
		"doc_a": {
			{TargetDocumentID: "doc_z", RelationType: models.RelationDefines},
			{TargetDocumentID: "doc_b", RelationType: models.RelationDefines},
			{TargetDocumentID: "doc_m", RelationType: models.RelationDefines},
		},
	}
	listOutgoing := func(id string) []OutgoingRelationship { return edges[id] }

	plan := models.NewRetrievalPlan([]string{"doc_a"}, models.PlanConstraints{})
	expanded := ExpandRetrievalPlan(plan, listOutgoing, models.PlanConstraints{MaxDepth: 1})

	assert.Equal(t, []string{"doc_b", "doc_m", "doc_z"}, expanded.ExpandedDocumentIDs,
		"edges must be visited in target id order")
}

func TestExpandRetrievalPlanRelationFilter(t *testing.T) {
	edges := map[string][]OutgoingRelationship{
		"doc_a": {
			{TargetDocumentID: "doc_b", RelationType: models.RelationDefines},
			{TargetDocumentID: "doc_c", RelationType: models.RelationCall},
		},
	}
	listOutgoing := func(id string) []OutgoingRelationship { return edges[id] }

	plan := models.NewRetrievalPlan([]string{"doc_a"}, models.PlanConstraints{})
	expanded := ExpandRetrievalPlan(plan, listOutgoing, models.PlanConstraints{
		MaxDepth:             1,
		AllowedRelationTypes: []models.RelationType{models.RelationDefines},
	})

	assert.Equal(t, []string{"doc_b"}, expanded.ExpandedDocumentIDs)
	edge := expanded.ExpansionMetadata["doc_b"]
	assert.Equal(t, "doc_a", edge.SourceDocumentID)
	assert.Equal(t, models.RelationDefines, edge.RelationType)
}

func TestExpandRetrievalPlanNeverRevisitsSeeds(t *testing.T) {
	edges := map[string][]OutgoingRelationship{
		"doc_a": {
			{TargetDocumentID: "doc_b", RelationType: models.RelationDefines},
			{TargetDocumentID: "doc_a", RelationType: models.RelationDefines},
		},
		"doc_b": {{TargetDocumentID: "doc_a", RelationType: models.RelationDefines}},
	}
	listOutgoing := func(id string) []OutgoingRelationship { return edges[id] }

	plan := models.NewRetrievalPlan([]string{"doc_a"}, models.PlanConstraints{})
	expanded := ExpandRetrievalPlan(plan, listOutgoing, models.PlanConstraints{MaxDepth: 5})

	assert.Equal(t, []string{"doc_b"}, expanded.ExpandedDocumentIDs)
}
