package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()

	err := WriteJSON(w, http.StatusOK, map[string]string{"text": "hello"})
	if err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	if w.Header().Get("Content-Type") != "application/json" {
		t.Errorf("Expected Content-Type application/json, got %s", w.Header().Get("Content-Type"))
	}

	var result map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if result["text"] != "hello" {
		t.Errorf("Expected text 'hello', got '%s'", result["text"])
	}
}

func TestWriteErrors(t *testing.T) {
	tests := []struct {
		name    string
		write   func(w http.ResponseWriter) error
		status  int
		message string
	}{
		{"bad request", func(w http.ResponseWriter) error { return WriteBadRequest(w, "invalid input") }, http.StatusBadRequest, "invalid input"},
		{"internal", func(w http.ResponseWriter) error { return WriteInternalError(w, "Failed to simplify text") }, http.StatusInternalServerError, "Failed to simplify text"},
		{"method", WriteMethodNotAllowed, http.StatusMethodNotAllowed, "Method not allowed"},
		{"rate limit", WriteTooManyRequests, http.StatusTooManyRequests, "Too many requests. Please try again later."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			if err := tt.write(w); err != nil {
				t.Fatalf("write failed: %v", err)
			}

			if w.Code != tt.status {
				t.Errorf("Expected status %d, got %d", tt.status, w.Code)
			}

			var result ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if result.Error != tt.message {
				t.Errorf("Expected error '%s', got '%s'", tt.message, result.Error)
			}
			if result.Fallback {
				t.Error("Expected fallback to be omitted")
			}
		})
	}
}

func TestWriteAttachment(t *testing.T) {
	w := httptest.NewRecorder()

	if err := WriteAttachment(w, "application/pdf", "simplified-content-english.pdf", []byte("%PDF-1.3")); err != nil {
		t.Fatalf("WriteAttachment failed: %v", err)
	}

	if got := w.Header().Get("Content-Disposition"); got != `attachment; filename="simplified-content-english.pdf"` {
		t.Errorf("Unexpected Content-Disposition %s", got)
	}
	if got := w.Header().Get("Content-Length"); got != "8" {
		t.Errorf("Expected Content-Length 8, got %s", got)
	}
	if w.Body.String() != "%PDF-1.3" {
		t.Errorf("Unexpected body %q", w.Body.String())
	}
}
