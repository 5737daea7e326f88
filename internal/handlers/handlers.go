package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pep299/clarify/internal/content"
	"github.com/pep299/clarify/internal/document"
	"github.com/pep299/clarify/internal/export"
	"github.com/pep299/clarify/internal/guard"
	"github.com/pep299/clarify/internal/llm"
	"github.com/pep299/clarify/internal/pipeline"
	"github.com/pep299/clarify/internal/speech"
	"github.com/pep299/clarify/internal/transport/response"
)

type simplifyRequest struct {
	Text string `json:"text"`
}

type translateRequest struct {
	Content        *content.SimplifiedContent `json:"content"`
	TargetLanguage string                     `json:"targetLanguage"`
}

type explainTermsRequest struct {
	Content      *content.SimplifiedContent `json:"content"`
	OriginalText string                     `json:"originalText"`
	Language     string                     `json:"language"`
}

type ttsRequest struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

type exportRequest struct {
	Content  *content.SimplifiedContent `json:"content"`
	KeyTerms []content.KeyTerm          `json:"keyTerms"`
	Language string                     `json:"language"`
	Format   string                     `json:"format"`
}

type exportPayload struct {
	Filename string `json:"filename"`
	MIME     string `json:"mime"`
	Data     []byte `json:"data"`
}

type processResponse struct {
	*pipeline.Result
	Display *content.SimplifiedContent `json:"display"`
	Export  *exportPayload             `json:"export,omitempty"`
}

// decodeJSON reads the request body into v. It answers the request itself
// and returns false on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			response.WriteError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return false
		}
		response.WriteBadRequest(w, "Invalid request body")
		return false
	}
	return true
}

// writeFailure maps validation errors to 400 and hides everything else
// behind the operation's generic message.
func (s *Server) writeFailure(w http.ResponseWriter, r *http.Request, err error, generic string) {
	var verr *guard.ValidationError
	if errors.As(err, &verr) {
		response.WriteBadRequest(w, verr.Message)
		return
	}
	s.logger.Error(r.Context(), "%s %s: %v", r.Method, r.URL.Path, err)
	response.WriteInternalError(w, generic)
}

// simplifyHandler turns raw text into simplified content
func (s *Server) simplifyHandler(w http.ResponseWriter, r *http.Request) {
	var req simplifyRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	simplified, err := s.assistant.Simplify(r.Context(), req.Text)
	if err != nil {
		s.writeFailure(w, r, err, "Failed to simplify text")
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]interface{}{"simplified": simplified})
}

// translateHandler translates simplified content
func (s *Server) translateHandler(w http.ResponseWriter, r *http.Request) {
	var req translateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	translated, err := s.assistant.Translate(r.Context(), req.Content, req.TargetLanguage)
	if err != nil {
		s.writeFailure(w, r, err, "Failed to translate content")
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]interface{}{"translated": translated})
}

// explainTermsHandler defines the hardest terms in simplified content
func (s *Server) explainTermsHandler(w http.ResponseWriter, r *http.Request) {
	var req explainTermsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	terms, err := s.assistant.ExplainTerms(r.Context(), req.Content, req.OriginalText, req.Language)
	if err != nil {
		s.writeFailure(w, r, err, "Failed to explain key terms")
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]interface{}{"terms": terms})
}

// ttsHandler returns MP3 narration. Provider errors pass through with their
// status so clients can fall back to local speech.
func (s *Server) ttsHandler(w http.ResponseWriter, r *http.Request) {
	if s.speaker == nil {
		response.WriteJSON(w, http.StatusServiceUnavailable, response.ErrorResponse{
			Error:    "Text-to-speech is not configured",
			Fallback: true,
		})
		return
	}

	var req ttsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	audio, err := s.speaker.Speak(r.Context(), req.Text, req.Language)
	if err != nil {
		var apiErr *llm.APIError
		if errors.As(err, &apiErr) {
			s.logger.Warn(r.Context(), "Speech provider error %d: %s", apiErr.StatusCode, apiErr.Body)
			response.WriteJSON(w, apiErr.StatusCode, response.ErrorResponse{
				Error:    apiErr.Body,
				Fallback: speech.NeedsBrowserFallback(err),
			})
			return
		}
		s.writeFailure(w, r, err, "Failed to generate speech")
		return
	}

	response.WriteBinary(w, audio.ContentType, audio.Data)
}

// readUpload pulls the "file" part out of a multipart request
func readUpload(r *http.Request) (*document.Upload, error) {
	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()

	if header.Size > document.MaxFileSize {
		return &document.Upload{Name: header.Filename, MIME: partType(header), Size: header.Size}, nil
	}

	data, err := io.ReadAll(io.LimitReader(file, document.MaxFileSize+1))
	if err != nil {
		return nil, err
	}
	return &document.Upload{
		Name: header.Filename,
		MIME: partType(header),
		Size: header.Size,
		Data: data,
	}, nil
}

func partType(header *multipart.FileHeader) string {
	mt := header.Header.Get("Content-Type")
	if i := strings.Index(mt, ";"); i >= 0 {
		mt = mt[:i]
	}
	return strings.TrimSpace(mt)
}

// parseForm parses multipart or urlencoded bodies
func parseForm(w http.ResponseWriter, r *http.Request) bool {
	err := r.ParseMultipartForm(document.MaxFileSize)
	if errors.Is(err, http.ErrNotMultipart) {
		err = r.ParseForm()
	}
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			response.WriteBadRequest(w, "File size exceeds 10MB limit")
			return false
		}
		response.WriteBadRequest(w, "Invalid form data")
		return false
	}
	return true
}

// parseFileHandler extracts text from an uploaded PDF or DOCX
func (s *Server) parseFileHandler(w http.ResponseWriter, r *http.Request) {
	if !parseForm(w, r) {
		return
	}

	upload, err := readUpload(r)
	if err != nil {
		s.writeFailure(w, r, err, "Failed to parse file")
		return
	}

	text, err := document.Extract(r.Context(), upload)
	if err != nil {
		s.writeFailure(w, r, err, "Failed to parse file")
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]interface{}{"text": text})
}

// exportHandler renders content as a PDF or DOCX download
func (s *Server) exportHandler(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.Format == "" {
		req.Format = string(export.FormatPDF)
	}
	format, err := export.ParseFormat(req.Format)
	if err != nil {
		response.WriteBadRequest(w, "Unsupported export format")
		return
	}
	if err := guard.ValidateContent(req.Content); err != nil {
		s.writeFailure(w, r, err, "Failed to export content")
		return
	}

	doc := export.Document{Content: *req.Content, KeyTerms: req.KeyTerms, Language: req.Language}
	data, err := s.exporter.Render(format, doc)
	if err != nil {
		s.writeFailure(w, r, err, "Failed to export content")
		return
	}

	response.WriteAttachment(w, format.MIME(), doc.Filename(format), data)
}

// processHandler runs the whole pipeline on text or an uploaded file
func (s *Server) processHandler(w http.ResponseWriter, r *http.Request) {
	if !parseForm(w, r) {
		return
	}

	upload, err := readUpload(r)
	if err != nil {
		s.writeFailure(w, r, err, "Failed to process content")
		return
	}

	opts := pipeline.Options{Language: r.FormValue("language")}
	if v := r.FormValue("explainTerms"); v != "" {
		explain, err := strconv.ParseBool(v)
		if err != nil {
			response.WriteBadRequest(w, "explainTerms must be true or false")
			return
		}
		opts.ExplainTerms = explain
	}
	if v := r.FormValue("format"); v != "" {
		format, err := export.ParseFormat(v)
		if err != nil {
			response.WriteBadRequest(w, "Unsupported export format")
			return
		}
		opts.Format = format
	}

	result, err := s.pipeline.Run(r.Context(), pipeline.Input{Text: r.FormValue("text"), Upload: upload}, opts)
	if err != nil {
		s.writeFailure(w, r, err, "Failed to process content")
		return
	}

	out := processResponse{Result: result, Display: result.Display()}
	if result.Export != nil {
		out.Export = &exportPayload{
			Filename: result.Export.Filename,
			MIME:     result.Export.MIME,
			Data:     result.Export.Data,
		}
	}
	response.WriteJSON(w, http.StatusOK, out)
}

// languagesHandler lists translation and narration languages
func (s *Server) languagesHandler(w http.ResponseWriter, r *http.Request) {
	response.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"languages":       content.Languages(),
		"speechLanguages": content.SpeechLanguages(),
		"speechAvailable": s.speaker != nil,
	})
}

// healthHandler provides health check endpoint
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	response.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Unix(),
		"version":   s.version,
	})
}

// cacheStatsHandler reports cache statistics
func (s *Server) cacheStatsHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := s.cache.GetStats(r.Context())
	if err != nil {
		s.writeFailure(w, r, err, "Failed to read cache stats")
		return
	}
	response.WriteJSON(w, http.StatusOK, stats)
}
