package models

// RAGRequest is the body of POST /v1/rag and /v1/rag/simple
type RAGRequest struct {
	Query    string `json:"query" validate:"required"`
	RepoID   string `json:"repo_id,omitempty"`
	TopK     int    `json:"top_k,omitempty" validate:"omitempty,min=1,max=100"`
	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`
}

// RAGResponse is the body returned by POST /v1/rag
type RAGResponse struct {
	Answer        string       `json:"answer"`
	Sources       []string     `json:"sources"`
	RepoID        string       `json:"repo_id,omitempty"`
	RetrievalPlan *PlanSummary `json:"retrieval_plan,omitempty"`
}

// VectorBatchRequest is the body of POST /v1/vectors/batch
type VectorBatchRequest struct {
	Records []VectorRecord `json:"records" validate:"required,min=1,dive"`
}

// VectorBatchResponse acknowledges a batch insert
type VectorBatchResponse struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// VectorSearchRequest is the body of POST /v1/vectors/search
type VectorSearchRequest struct {
	QueryVector    []float32              `json:"query_vector" validate:"required,min=1"`
	K              int                    `json:"k,omitempty" validate:"omitempty,min=1,max=1000"`
	MetadataFilter map[string]interface{} `json:"metadata_filter,omitempty"`
}

// SearchByDocRequest is the body of POST /v1/vectors/search-by-doc
type SearchByDocRequest struct {
	DocumentID string `json:"document_id" validate:"required"`
	K          int    `json:"k,omitempty" validate:"omitempty,min=1,max=1000"`
}

// VectorSearchResponse wraps similarity or by-document results
type VectorSearchResponse struct {
	Results []VectorSearchResult `json:"results"`
}

// SummaryRequest is the body of POST /v1/summary
type SummaryRequest struct {
	IngestionID string `json:"ingestion_id" validate:"required"`
	Summary     string `json:"summary" validate:"required"`
}

// IngestAcceptedResponse is the 202 body for both ingest endpoints
type IngestAcceptedResponse struct {
	IngestionID string          `json:"ingestion_id"`
	Status      IngestionStatus `json:"status"`
}

// IngestStatusResponse is the body of GET /v1/ingest/{id}
type IngestStatusResponse struct {
	IngestionID string          `json:"ingestion_id"`
	Status      IngestionStatus `json:"status"`
	Error       string          `json:"error,omitempty"`
}
