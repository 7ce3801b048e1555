package handlers

import (
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/contexo/internal/interfaces"
	"github.com/ternarybob/contexo/internal/models"
)

// GraphHandler serves repository listings and the persisted document graph
type GraphHandler struct {
	nodes  interfaces.NodeStorage
	logger arbor.ILogger
}

// NewGraphHandler creates the graph handler
func NewGraphHandler(nodes interfaces.NodeStorage, logger arbor.ILogger) *GraphHandler {
	return &GraphHandler{
		nodes:  nodes,
		logger: logger,
	}
}

// ReposHandler handles GET /v1/repos
func (h *GraphHandler) ReposHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	repos, err := h.nodes.ListRepos(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list repositories")
		WriteError(w, http.StatusInternalServerError, ErrCodeInternal, "failed to list repositories")
		return
	}
	if repos == nil {
		repos = []*models.RepoInfo{}
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"repos": repos,
		"total": len(repos),
	})
}

// NodesHandler handles GET /v1/graph/repos/{repo_id}/nodes?canonical_ids=a,b,c
func (h *GraphHandler) NodesHandler(w http.ResponseWriter, r *http.Request, repoID string) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	var canonicalIDs []string
	for _, raw := range strings.Split(r.URL.Query().Get("canonical_ids"), ",") {
		if id := strings.TrimSpace(raw); id != "" {
			canonicalIDs = append(canonicalIDs, id)
		}
	}
	if len(canonicalIDs) == 0 {
		WriteError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "canonical_ids query parameter is required")
		return
	}

	nodes, err := h.nodes.GetNodesByCanonicalIDs(r.Context(), repoID, canonicalIDs)
	if err != nil {
		h.logger.Error().Err(err).Str("repo_id", repoID).Msg("Failed to look up graph nodes")
		WriteError(w, http.StatusInternalServerError, ErrCodeInternal, "failed to look up graph nodes")
		return
	}

	summaries := make([]models.GraphNodeSummary, 0, len(nodes))
	for _, node := range nodes {
		summaries = append(summaries, models.GraphNodeSummary{
			DocumentID:   node.DocumentID,
			CanonicalID:  node.CanonicalID,
			RelativePath: node.RelativePath,
			Title:        node.Title,
			DocType:      node.DocType,
		})
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"nodes": summaries,
		"total": len(summaries),
	})
}

// ExportHandler handles GET /v1/graph/repos/{repo_id}
func (h *GraphHandler) ExportHandler(w http.ResponseWriter, r *http.Request, repoID string) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	export, err := h.nodes.ExportGraph(r.Context(), repoID)
	if err != nil {
		h.logger.Error().Err(err).Str("repo_id", repoID).Msg("Failed to export graph")
		WriteError(w, http.StatusInternalServerError, ErrCodeInternal, "failed to export graph")
		return
	}
	if export.TotalNodes == 0 {
		WriteError(w, http.StatusNotFound, ErrCodeNotFound, "repository not found")
		return
	}

	WriteJSON(w, http.StatusOK, export)
}

// RelationshipsHandler handles GET /v1/graph/docs/{document_id}/relationships
func (h *GraphHandler) RelationshipsHandler(w http.ResponseWriter, r *http.Request, documentID string) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	rels, err := h.nodes.GetRelationshipsFrom(r.Context(), documentID)
	if err != nil {
		h.logger.Error().Err(err).Str("document_id", documentID).Msg("Failed to list relationships")
		WriteError(w, http.StatusInternalServerError, ErrCodeInternal, "failed to list relationships")
		return
	}

	type relationshipSummary struct {
		TargetDocumentID string              `json:"target_document_id"`
		RelationType     models.RelationType `json:"relation_type"`
	}
	summaries := make([]relationshipSummary, 0, len(rels))
	for _, rel := range rels {
		summaries = append(summaries, relationshipSummary{
			TargetDocumentID: rel.ToDocumentID,
			RelationType:     rel.RelationType,
		})
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"document_id":   documentID,
		"relationships": summaries,
		"total":         len(summaries),
	})
}
