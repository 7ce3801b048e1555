package retrieval

import (
	"sort"

	"github.com/ternarybob/contexo/internal/models"
)

// OutgoingRelationship is one edge returned by the relationship callback
// during plan expansion.
type OutgoingRelationship struct {
	TargetDocumentID string
	RelationType     models.RelationType
}

// ListOutgoingFunc fetches outgoing relationships for a document. Errors are
// treated as "no relationships": expansion is best-effort and never fails
// the query.
type ListOutgoingFunc func(documentID string) []OutgoingRelationship

// ExpandRetrievalPlan grows a plan by DFS over document relationships, up to
// the constraints' max depth. Outgoing edges are sorted by target document id
// before traversal so exploration order is deterministic; documents already
// in the plan are never revisited. The input plan is not mutated.
func ExpandRetrievalPlan(plan models.RetrievalPlan, listOutgoing ListOutgoingFunc, constraints models.PlanConstraints) models.RetrievalPlan {
	visited := make(map[string]bool)
	for _, id := range plan.SeedDocumentIDs {
		visited[id] = true
	}
	for _, id := range plan.ExpandedDocumentIDs {
		visited[id] = true
	}

	var newExpanded []string
	metadata := make(map[string]models.ExpansionEdge)

	var traverse func(documentID string, depth int)
	traverse = func(documentID string, depth int) {
		if depth >= constraints.MaxDepth {
			return
		}

		outgoing := listOutgoing(documentID)
		sort.Slice(outgoing, func(i, j int) bool {
			return outgoing[i].TargetDocumentID < outgoing[j].TargetDocumentID
		})

		for _, rel := range outgoing {
			if !constraints.AllowsRelation(rel.RelationType) {
				continue
			}
			target := rel.TargetDocumentID
			if target == "" || visited[target] {
				continue
			}
			visited[target] = true
			newExpanded = append(newExpanded, target)
			metadata[target] = models.ExpansionEdge{
				SourceDocumentID: documentID,
				RelationType:     rel.RelationType,
			}
			traverse(target, depth+1)
		}
	}

	for _, seed := range plan.SeedDocumentIDs {
		traverse(seed, 0)
	}

	next := plan.WithExpansion(newExpanded, metadata)
	next.Constraints = constraints
	return next
}
