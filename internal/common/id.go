package common

import (
	"github.com/google/uuid"
)

// NewDocumentID generates a unique document ID with the "doc_" prefix
// Format: doc_<uuid>
func NewDocumentID() string {
	return "doc_" + uuid.New().String()
}

// NewIngestionID generates a unique ingestion request ID with the "ing_" prefix
// Format: ing_<uuid>
func NewIngestionID() string {
	return "ing_" + uuid.New().String()
}

// NewChunkID generates a unique chunk ID
func NewChunkID() string {
	return uuid.New().String()
}
