package api

import (
	"net/http"

	"github.com/bookqr/book-qr/apperr"
	"github.com/bookqr/book-qr/session"
)

type prompt struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

// requestConfirmer accepts only the prompts the user already acknowledged by
// title and remembers the first one it declined, so the UI can ask about that
// prompt and retry. Each prompt is shown to the user on its own round trip.
type requestConfirmer struct {
	confirmed []string
	declined  *prompt
}

func (c *requestConfirmer) Confirm(title, message string) bool {
	for _, t := range c.confirmed {
		if t == title {
			return true
		}
	}
	if c.declined == nil {
		c.declined = &prompt{Title: title, Message: message}
	}
	return false
}

func writeGenerateError(w http.ResponseWriter, err error, c *requestConfirmer) {
	if apperr.IsKind(err, apperr.KindCanceled) && c.declined != nil {
		writeJSON(w, http.StatusConflict, errorResponse{
			Error:  err.Error(),
			Kind:   string(apperr.KindCanceled),
			Prompt: c.declined,
		})
		return
	}
	writeAppError(w, err)
}

type openDocumentRequest struct {
	Path string `json:"path"`
}

func (s *Server) handleOpenDocument(w http.ResponseWriter, r *http.Request) {
	var req openDocumentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeAppError(w, err)
		return
	}
	if req.Path == "" {
		writeError(w, http.StatusBadRequest, "path is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	info, err := s.Session.OpenDocument(req.Path)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

type generatePDFRequest struct {
	session.PDFRequest
	Confirmed []string `json:"confirmed"`
}

func (s *Server) handleGeneratePDF(w http.ResponseWriter, r *http.Request) {
	var req generatePDFRequest
	if err := decodeJSON(r, &req); err != nil {
		writeAppError(w, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := &requestConfirmer{confirmed: req.Confirmed}
	res, err := s.Session.GenerateFromPDF(req.PDFRequest, c)
	if err != nil {
		writeGenerateError(w, err, c)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type generateTextRequest struct {
	Text      string   `json:"text"`
	Confirmed []string `json:"confirmed"`
}

func (s *Server) handleGenerateText(w http.ResponseWriter, r *http.Request) {
	var req generateTextRequest
	if err := decodeJSON(r, &req); err != nil {
		writeAppError(w, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := &requestConfirmer{confirmed: req.Confirmed}
	res, err := s.Session.GenerateFromText(req.Text, c)
	if err != nil {
		writeGenerateError(w, err, c)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
