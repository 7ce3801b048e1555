package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// Error codes shared by every endpoint's error envelope
const (
	ErrCodeInvalidRequest = "INVALID_REQUEST"
	ErrCodeNotFound       = "NOT_FOUND"
	ErrCodeInternal       = "INTERNAL_ERROR"
)

// ErrorResponse is the envelope every failing endpoint returns
type ErrorResponse struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
	Details   string `json:"details,omitempty"`
}

var validate = validator.New()

// RequireMethod validates that the HTTP request uses the specified method.
// Returns true if the method matches, false otherwise (and writes error response).
func RequireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		WriteJSON(w, http.StatusMethodNotAllowed, ErrorResponse{
			ErrorCode: ErrCodeInvalidRequest,
			Message:   fmt.Sprintf("method %s not allowed", r.Method),
		})
		return false
	}
	return true
}

// WriteJSON writes a JSON response with the specified status code and data.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// WriteError writes the standard error envelope
func WriteError(w http.ResponseWriter, statusCode int, errorCode, message string) error {
	return WriteJSON(w, statusCode, ErrorResponse{
		ErrorCode: errorCode,
		Message:   message,
	})
}

// WriteErrorDetails writes the error envelope with a details field
func WriteErrorDetails(w http.ResponseWriter, statusCode int, errorCode, message, details string) error {
	return WriteJSON(w, statusCode, ErrorResponse{
		ErrorCode: errorCode,
		Message:   message,
		Details:   details,
	})
}

// DecodeAndValidate decodes the JSON body into dst and runs struct validation.
// Returns false after writing a 400 envelope when either step fails.
func DecodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		WriteErrorDetails(w, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid JSON body", err.Error())
		return false
	}
	if err := validate.Struct(dst); err != nil {
		WriteErrorDetails(w, http.StatusBadRequest, ErrCodeInvalidRequest, "request validation failed", err.Error())
		return false
	}
	return true
}
