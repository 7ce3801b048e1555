package graph

import (
	"fmt"

	"github.com/ternarybob/contexo/internal/models"
)

// RepoGraph is the in-memory artifact graph built for one repository
// ingestion. Artifacts are keyed by canonical id and kept in insertion order
// so downstream passes (symbol table, persistence) are deterministic.
type RepoGraph struct {
	RepoID      string
	IngestionID string

	order       []*models.Artifact
	byCanonical map[string]*models.Artifact
	relSeen     map[string]bool
	rels        []*models.Relationship
}

// NewRepoGraph creates an empty repo graph
func NewRepoGraph(repoID, ingestionID string) *RepoGraph {
	return &RepoGraph{
		RepoID:      repoID,
		IngestionID: ingestionID,
		byCanonical: make(map[string]*models.Artifact),
		relSeen:     make(map[string]bool),
	}
}

// AddArtifact registers an artifact under its canonical id. The first
// artifact for a canonical id wins; later duplicates are ignored.
func (g *RepoGraph) AddArtifact(a *models.Artifact) {
	if a == nil || a.ID == "" {
		return
	}
	if _, exists := g.byCanonical[a.ID]; exists {
		return
	}
	g.byCanonical[a.ID] = a
	g.order = append(g.order, a)
}

// Get returns the artifact with the given canonical id, or nil
func (g *RepoGraph) Get(canonicalID string) *models.Artifact {
	return g.byCanonical[canonicalID]
}

// All returns artifacts in insertion order
func (g *RepoGraph) All() []*models.Artifact {
	return g.order
}

// AddRelationship appends an edge, rejecting self-loops, dangling endpoints,
// and duplicate (from, to, type) triples.
func (g *RepoGraph) AddRelationship(rel *models.Relationship) error {
	if rel.FromCanonicalID == rel.ToCanonicalID {
		return fmt.Errorf("self-loop rejected: %s", rel.FromCanonicalID)
	}
	if g.Get(rel.FromCanonicalID) == nil {
		return fmt.Errorf("unknown from endpoint: %s", rel.FromCanonicalID)
	}
	if g.Get(rel.ToCanonicalID) == nil {
		return fmt.Errorf("unknown to endpoint: %s", rel.ToCanonicalID)
	}
	key := rel.FromCanonicalID + "\x00" + rel.ToCanonicalID + "\x00" + string(rel.RelationType)
	if g.relSeen[key] {
		return nil
	}
	g.relSeen[key] = true
	g.rels = append(g.rels, rel)
	return nil
}

// Relationships returns edges in insertion order
func (g *RepoGraph) Relationships() []*models.Relationship {
	return g.rels
}

// Len returns the artifact count
func (g *RepoGraph) Len() int {
	return len(g.order)
}
