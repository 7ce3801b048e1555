package graph

import (
	"sort"

	"github.com/ternarybob/contexo/internal/models"
)

// Direction selects which edge set a traversal follows
type Direction string

const (
	DirectionForward Direction = "forward"
	DirectionReverse Direction = "reverse"
)

// Node is one entry in the query-time traversal graph, keyed by canonical id.
// Out and In hold neighbor canonical ids per relation type.
type Node struct {
	CanonicalID  string
	DocumentID   string
	RelativePath string
	Title        string
	DocType      string
	Out          map[models.RelationType][]string
	In           map[models.RelationType][]string
}

func newNode(canonicalID string) *Node {
	return &Node{
		CanonicalID: canonicalID,
		Out:         make(map[models.RelationType][]string),
		In:          make(map[models.RelationType][]string),
	}
}

// CodebaseGraph is the in-memory adjacency-list graph used at query time.
// It is rebuilt from the persisted graph export and cached per repo.
type CodebaseGraph struct {
	nodes map[string]*Node
}

// NewCodebaseGraph creates an empty graph
func NewCodebaseGraph() *CodebaseGraph {
	return &CodebaseGraph{nodes: make(map[string]*Node)}
}

// BuildCodebaseGraph materializes a graph from a persisted export
func BuildCodebaseGraph(export *models.GraphExport) *CodebaseGraph {
	g := NewCodebaseGraph()
	for _, n := range export.Nodes {
		node := g.ensure(n.CanonicalID)
		node.DocumentID = n.DocumentID
		node.RelativePath = n.RelativePath
		node.Title = n.Title
		node.DocType = n.DocType
	}
	for from, edges := range export.Relationships {
		for _, edge := range edges {
			g.AddEdge(from, edge.ToCanonicalID, edge.RelationType)
		}
	}
	return g
}

func (g *CodebaseGraph) ensure(canonicalID string) *Node {
	node, ok := g.nodes[canonicalID]
	if !ok {
		node = newNode(canonicalID)
		g.nodes[canonicalID] = node
	}
	return node
}

// AddEdge records a typed edge in both adjacency directions
func (g *CodebaseGraph) AddEdge(from, to string, rt models.RelationType) {
	fromNode := g.ensure(from)
	toNode := g.ensure(to)
	fromNode.Out[rt] = append(fromNode.Out[rt], to)
	toNode.In[rt] = append(toNode.In[rt], from)
}

// Get returns the node for a canonical id, or nil
func (g *CodebaseGraph) Get(canonicalID string) *Node {
	return g.nodes[canonicalID]
}

// Len returns the node count
func (g *CodebaseGraph) Len() int {
	return len(g.nodes)
}

// BFS walks from start following edges of the allowed relation types in the
// given direction, up to maxDepth hops. Nodes are emitted in discovery order,
// excluding start, never revisited. Neighbor lists are sorted before
// expansion so exploration is deterministic across equivalent graphs.
func (g *CodebaseGraph) BFS(start string, allowed []models.RelationType, direction Direction, maxDepth int) []*Node {
	startNode := g.nodes[start]
	if startNode == nil || maxDepth < 1 {
		return nil
	}

	allowedSet := map[models.RelationType]bool{}
	for _, rt := range allowed {
		allowedSet[rt] = true
	}

	type queued struct {
		id    string
		depth int
	}

	visited := map[string]bool{start: true}
	queue := []queued{{id: start, depth: 0}}
	var result []*Node

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.depth >= maxDepth {
			continue
		}
		node := g.nodes[cur.id]
		if node == nil {
			continue
		}

		for _, neighbor := range g.neighbors(node, allowedSet, direction) {
			if visited[neighbor] {
				continue
			}
			visited[neighbor] = true
			if next := g.nodes[neighbor]; next != nil {
				result = append(result, next)
				queue = append(queue, queued{id: neighbor, depth: cur.depth + 1})
			}
		}
	}

	return result
}

// neighbors collects the allowed-typed neighbor ids of a node, deduplicated
// and sorted for deterministic exploration.
func (g *CodebaseGraph) neighbors(node *Node, allowed map[models.RelationType]bool, direction Direction) []string {
	edges := node.Out
	if direction == DirectionReverse {
		edges = node.In
	}

	seen := map[string]bool{}
	var out []string
	for rt, targets := range edges {
		if len(allowed) > 0 && !allowed[rt] {
			continue
		}
		for _, t := range targets {
			if !seen[t] {
				seen[t] = true
				out = append(out, t)
			}
		}
	}
	sort.Strings(out)
	return out
}
