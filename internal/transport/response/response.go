package response

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string `json:"error"`
	// Fallback tells clients to narrate with local speech synthesis.
	Fallback bool `json:"fallback,omitempty"`
}

// WriteJSON writes v as JSON with the given status code
func WriteJSON(w http.ResponseWriter, statusCode int, v interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(v)
}

// WriteError writes an error response
func WriteError(w http.ResponseWriter, statusCode int, message string) error {
	return WriteJSON(w, statusCode, ErrorResponse{Error: message})
}

// WriteBadRequest writes a 400 Bad Request error
func WriteBadRequest(w http.ResponseWriter, message string) error {
	return WriteError(w, http.StatusBadRequest, message)
}

// WriteInternalError writes a 500 Internal Server Error
func WriteInternalError(w http.ResponseWriter, message string) error {
	return WriteError(w, http.StatusInternalServerError, message)
}

// WriteMethodNotAllowed writes a 405 Method Not Allowed error
func WriteMethodNotAllowed(w http.ResponseWriter) error {
	return WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
}

// WriteTooManyRequests writes a 429 Too Many Requests error
func WriteTooManyRequests(w http.ResponseWriter) error {
	return WriteError(w, http.StatusTooManyRequests, "Too many requests. Please try again later.")
}

// WriteBinary writes raw bytes with an explicit length
func WriteBinary(w http.ResponseWriter, contentType string, data []byte) error {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, err := w.Write(data)
	return err
}

// WriteAttachment writes data as a file download
func WriteAttachment(w http.ResponseWriter, contentType, filename string, data []byte) error {
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	return WriteBinary(w, contentType, data)
}
