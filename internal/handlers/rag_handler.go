package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/contexo/internal/interfaces"
	"github.com/ternarybob/contexo/internal/models"
)

// RAGHandler serves the question-answering endpoints
type RAGHandler struct {
	hybrid interfaces.RAGService
	simple interfaces.SimpleRAGService
	logger arbor.ILogger
}

// NewRAGHandler creates the RAG handler
func NewRAGHandler(hybrid interfaces.RAGService, simple interfaces.SimpleRAGService, logger arbor.ILogger) *RAGHandler {
	return &RAGHandler{
		hybrid: hybrid,
		simple: simple,
		logger: logger,
	}
}

// QueryHandler handles POST /v1/rag with hybrid vector + graph retrieval
func (h *RAGHandler) QueryHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var req models.RAGRequest
	if !DecodeAndValidate(w, r, &req) {
		return
	}

	resp, err := h.hybrid.Answer(r.Context(), &req)
	if err != nil {
		h.logger.Error().Err(err).Str("query", req.Query).Msg("Hybrid RAG query failed")
		WriteErrorDetails(w, http.StatusInternalServerError, ErrCodeInternal,
			"retrieval failed", err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, resp)
}

// SimpleQueryHandler handles POST /v1/rag/simple over uploaded documents only
func (h *RAGHandler) SimpleQueryHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var req models.RAGRequest
	if !DecodeAndValidate(w, r, &req) {
		return
	}

	resp, err := h.simple.Answer(r.Context(), &req)
	if err != nil {
		h.logger.Error().Err(err).Str("query", req.Query).Msg("Simple RAG query failed")
		WriteErrorDetails(w, http.StatusInternalServerError, ErrCodeInternal,
			"retrieval failed", err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, resp)
}
