package handlers

import (
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/contexo/internal/interfaces"
	"github.com/ternarybob/contexo/internal/models"
)

// VectorsHandler exposes the vector store directly for external writers and
// diagnostic searches.
type VectorsHandler struct {
	vectors interfaces.VectorStorage
	logger  arbor.ILogger
}

// NewVectorsHandler creates the vectors handler
func NewVectorsHandler(vectors interfaces.VectorStorage, logger arbor.ILogger) *VectorsHandler {
	return &VectorsHandler{
		vectors: vectors,
		logger:  logger,
	}
}

// BatchHandler handles POST /v1/vectors/batch
func (h *VectorsHandler) BatchHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var req models.VectorBatchRequest
	if !DecodeAndValidate(w, r, &req) {
		return
	}

	for i, record := range req.Records {
		if len(record.Vector) == 0 {
			WriteError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "record vectors must not be empty")
			return
		}
		if i > 0 && len(record.Vector) != len(req.Records[0].Vector) {
			WriteError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "record vectors must share one dimension")
			return
		}
	}

	if err := h.vectors.Add(r.Context(), req.Records); err != nil {
		h.logger.Error().Err(err).Int("count", len(req.Records)).Msg("Vector batch insert failed")
		WriteError(w, http.StatusInternalServerError, ErrCodeInternal, "vector batch insert failed")
		return
	}

	WriteJSON(w, http.StatusOK, models.VectorBatchResponse{
		Status: "ok",
		Count:  len(req.Records),
	})
}

// SearchHandler handles POST /v1/vectors/search
func (h *VectorsHandler) SearchHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var req models.VectorSearchRequest
	if !DecodeAndValidate(w, r, &req) {
		return
	}
	k := req.K
	if k <= 0 {
		k = 10
	}

	results, err := h.vectors.SimilaritySearch(r.Context(), req.QueryVector, k, req.MetadataFilter)
	if err != nil {
		h.logger.Error().Err(err).Msg("Vector similarity search failed")
		WriteError(w, http.StatusInternalServerError, ErrCodeInternal, "vector search failed")
		return
	}
	if results == nil {
		results = []models.VectorSearchResult{}
	}

	WriteJSON(w, http.StatusOK, models.VectorSearchResponse{Results: results})
}

// SearchByDocHandler handles POST /v1/vectors/search-by-doc
func (h *VectorsHandler) SearchByDocHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var req models.SearchByDocRequest
	if !DecodeAndValidate(w, r, &req) {
		return
	}
	k := req.K
	if k <= 0 {
		k = 10
	}

	results, err := h.vectors.SearchByDocument(r.Context(), req.DocumentID, k)
	if err != nil {
		h.logger.Error().Err(err).Str("document_id", req.DocumentID).Msg("Document chunk fetch failed")
		WriteError(w, http.StatusInternalServerError, ErrCodeInternal, "document chunk fetch failed")
		return
	}
	if results == nil {
		results = []models.VectorSearchResult{}
	}

	WriteJSON(w, http.StatusOK, models.VectorSearchResponse{Results: results})
}

// DeleteByIngestionHandler handles DELETE /v1/vectors/by-ingestion/{id}
func (h *VectorsHandler) DeleteByIngestionHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "DELETE") {
		return
	}

	ingestionID := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
	if ingestionID == "" {
		WriteError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "ingestion ID is required")
		return
	}

	if err := h.vectors.DeleteByIngestionID(r.Context(), ingestionID); err != nil {
		h.logger.Error().Err(err).Str("ingestion_id", ingestionID).Msg("Vector purge failed")
		WriteError(w, http.StatusInternalServerError, ErrCodeInternal, "vector purge failed")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"status":       "deleted",
		"ingestion_id": ingestionID,
	})
}
