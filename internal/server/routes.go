package server

import (
	"net/http"
	"strings"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// API routes - Ingestion
	mux.HandleFunc("/v1/ingest/file", s.app.IngestHandler.IngestFileHandler)  // POST - upload a document
	mux.HandleFunc("/v1/ingest/", s.app.IngestHandler.StatusHandler)          // GET /{id} - ingestion status
	mux.HandleFunc("/v1/ingest-repo", s.app.IngestHandler.IngestRepoHandler)  // POST - ingest a repository
	mux.HandleFunc("/v1/ingest-repo/", s.app.IngestHandler.StatusHandler)     // GET /{id} - ingestion status

	// API routes - Repositories and graph
	mux.HandleFunc("/v1/repos", s.app.GraphHandler.ReposHandler) // GET - list ingested repos
	mux.HandleFunc("/v1/graph/repos/", s.handleGraphRepoRoutes)  // GET /{repo_id} and /{repo_id}/nodes
	mux.HandleFunc("/v1/graph/docs/", s.handleGraphDocRoutes)    // GET /{document_id}/relationships

	// API routes - Summaries
	mux.HandleFunc("/v1/summary", s.app.SummaryHandler.ApplyHandler) // POST - apply external summary

	// API routes - Retrieval
	mux.HandleFunc("/v1/rag", s.app.RAGHandler.QueryHandler)              // POST - hybrid vector + graph
	mux.HandleFunc("/v1/rag/simple", s.app.RAGHandler.SimpleQueryHandler) // POST - documents only

	// API routes - Vector store
	mux.HandleFunc("/v1/vectors/batch", s.app.VectorsHandler.BatchHandler)
	mux.HandleFunc("/v1/vectors/search", s.app.VectorsHandler.SearchHandler)
	mux.HandleFunc("/v1/vectors/search-by-doc", s.app.VectorsHandler.SearchByDocHandler)
	mux.HandleFunc("/v1/vectors/by-ingestion/", s.app.VectorsHandler.DeleteByIngestionHandler) // DELETE /{id}

	// API routes - System
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)
	mux.HandleFunc("/api/status", s.app.StatusHandler.GetStatusHandler)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/v1/", s.app.APIHandler.NotFoundHandler)
	mux.HandleFunc("/api/", s.app.APIHandler.NotFoundHandler)
	mux.HandleFunc("/", s.app.APIHandler.NotFoundHandler)

	return mux
}

// handleGraphRepoRoutes routes /v1/graph/repos/{repo_id} and
// /v1/graph/repos/{repo_id}/nodes
func (s *Server) handleGraphRepoRoutes(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/graph/repos/")
	if rest == "" {
		s.app.APIHandler.NotFoundHandler(w, r)
		return
	}

	if repoID, ok := strings.CutSuffix(rest, "/nodes"); ok {
		s.app.GraphHandler.NodesHandler(w, r, repoID)
		return
	}
	if strings.Contains(rest, "/") {
		s.app.APIHandler.NotFoundHandler(w, r)
		return
	}
	s.app.GraphHandler.ExportHandler(w, r, rest)
}

// handleGraphDocRoutes routes /v1/graph/docs/{document_id}/relationships
func (s *Server) handleGraphDocRoutes(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/graph/docs/")
	documentID, ok := strings.CutSuffix(rest, "/relationships")
	if !ok || documentID == "" || strings.Contains(documentID, "/") {
		s.app.APIHandler.NotFoundHandler(w, r)
		return
	}
	s.app.GraphHandler.RelationshipsHandler(w, r, documentID)
}
