package graph

import (
	"strings"

	"github.com/ternarybob/contexo/internal/models"
)

// TraversalStrategy is a first-class traversal: one relation type, one
// direction, one depth bound. The selector returns partially-applied
// strategies; Run supplies the graph and start node.
type TraversalStrategy struct {
	Name      string
	Relation  models.RelationType
	Direction Direction
	Depth     int
}

// Run executes the strategy against a graph from the given start canonical id
func (s TraversalStrategy) Run(g *CodebaseGraph, startCanonicalID string) []*Node {
	return g.BFS(startCanonicalID, []models.RelationType{s.Relation}, s.Direction, s.Depth)
}

var (
	strategyDefinesForward = TraversalStrategy{Name: "defines_forward", Relation: models.RelationDefines, Direction: DirectionForward, Depth: 1}
	strategyCallReverse    = TraversalStrategy{Name: "call_reverse", Relation: models.RelationCall, Direction: DirectionReverse, Depth: 1}
	strategyCallForward    = TraversalStrategy{Name: "call_forward", Relation: models.RelationCall, Direction: DirectionForward, Depth: 1}
	// The builder persists DEFINES, CALL, and DOCUMENTS edges only, so
	// import_reverse traverses an empty relation against stored graphs.
	strategyImportReverse = TraversalStrategy{Name: "import_reverse", Relation: models.RelationImport, Direction: DirectionReverse, Depth: 1}
)

var definesTokens = map[string]bool{
	"method": true, "methods": true,
	"function": true, "functions": true,
	"class": true, "classes": true,
	"in": true,
}

// SelectStrategies classifies query intent into traversal strategies.
// First match wins; a query with no recognized intent gets the default
// DEFINES-forward plus CALL-forward pair.
func SelectStrategies(query string) []TraversalStrategy {
	lowered := strings.ToLower(query)
	tokens := strings.Fields(lowered)

	for _, tok := range tokens {
		trimmed := strings.Trim(tok, ".,!?;:'\"()")
		if definesTokens[trimmed] {
			return []TraversalStrategy{strategyDefinesForward}
		}
	}

	if strings.Contains(lowered, "callers") ||
		strings.Contains(lowered, "called by") ||
		strings.Contains(lowered, "who calls") {
		return []TraversalStrategy{strategyCallReverse}
	}

	for _, tok := range tokens {
		trimmed := strings.Trim(tok, ".,!?;:'\"()")
		if trimmed == "calls" || trimmed == "call" {
			return []TraversalStrategy{strategyCallForward}
		}
	}

	if strings.Contains(lowered, "import") {
		return []TraversalStrategy{strategyImportReverse}
	}

	return []TraversalStrategy{strategyDefinesForward, strategyCallForward}
}

// ExecuteStrategies runs each strategy from the start node, concatenating
// results and deduplicating by canonical id while preserving first-seen order.
func ExecuteStrategies(g *CodebaseGraph, startCanonicalID string, strategies []TraversalStrategy) []*Node {
	seen := map[string]bool{}
	var out []*Node
	for _, s := range strategies {
		for _, node := range s.Run(g, startCanonicalID) {
			if seen[node.CanonicalID] {
				continue
			}
			seen[node.CanonicalID] = true
			out = append(out, node)
		}
	}
	return out
}

// PickStartCanonicalID chooses the traversal start from the seed canonical
// ids: the longest id, as a proxy for the most specific symbol.
func PickStartCanonicalID(seedCanonicalIDs []string) string {
	best := ""
	for _, cid := range seedCanonicalIDs {
		if len(cid) > len(best) {
			best = cid
		}
	}
	return best
}
