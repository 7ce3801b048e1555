package handlers

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequireMethod(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/v1/rag", nil)

	assert.False(t, RequireMethod(w, r, "POST"))
	assert.Equal(t, 405, w.Code)

	var envelope ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, ErrCodeInvalidRequest, envelope.ErrorCode)
	assert.Contains(t, envelope.Message, "method GET not allowed")
}

func TestWriteErrorEnvelope(t *testing.T) {
	w := httptest.NewRecorder()
	require.NoError(t, WriteErrorDetails(w, 404, ErrCodeNotFound, "ingestion ID not found", "ing_x"))

	assert.Equal(t, 404, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var envelope ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, ErrCodeNotFound, envelope.ErrorCode)
	assert.Equal(t, "ingestion ID not found", envelope.Message)
	assert.Equal(t, "ing_x", envelope.Details)
}

func TestDecodeAndValidate(t *testing.T) {
	type payload struct {
		Query string `json:"query" validate:"required"`
		TopK  int    `json:"top_k" validate:"omitempty,min=1"`
	}

	tests := []struct {
		name string
		body string
		ok   bool
	}{
		{name: "Valid body", body: `{"query":"how does auth work","top_k":5}`, ok: true},
		{name: "Malformed JSON", body: `{"query":`, ok: false},
		{name: "Missing required field", body: `{"top_k":5}`, ok: false},
		{name: "Constraint violated", body: `{"query":"x","top_k":0}`, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest("POST", "/v1/rag", strings.NewReader(tt.body))

			var dst payload
			got := DecodeAndValidate(w, r, &dst)
			assert.Equal(t, tt.ok, got)
			if !tt.ok {
				assert.Equal(t, 400, w.Code)
				var envelope ErrorResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
				assert.Equal(t, ErrCodeInvalidRequest, envelope.ErrorCode)
			}
		})
	}
}

func TestValidIngestionID(t *testing.T) {
	assert.True(t, validIngestionID("ing_6ba7b810-9dad-11d1-80b4-00c04fd430c8"))
	assert.False(t, validIngestionID("6ba7b810-9dad-11d1-80b4-00c04fd430c8"), "prefix required")
	assert.False(t, validIngestionID("ing_not-a-uuid"))
	assert.False(t, validIngestionID(""))
}

func TestDecodeText(t *testing.T) {
	assert.Equal(t, "héllo", decodeText([]byte("héllo")))

	// Invalid UTF-8 decodes byte-for-byte as Latin-1
	assert.Equal(t, "caf\u00e9", decodeText([]byte{'c', 'a', 'f', 0xe9}))
}

func TestRepoNameFromSource(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		expected string
	}{
		{name: "Git URL", source: "https://github.com/acme/widgets.git", expected: "widgets"},
		{name: "Trailing slash", source: "https://github.com/acme/widgets/", expected: "widgets"},
		{name: "Local path", source: "/srv/repos/widgets", expected: "widgets"},
		{name: "Windows path", source: "C:\\repos\\widgets", expected: "widgets"},
		{name: "Degenerate", source: "/", expected: "repository"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, repoNameFromSource(tt.source))
		})
	}
}
