package api

import (
	"encoding/json"
	"log/slog"
	"mime"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/bookqr/book-qr/apperr"
	"github.com/bookqr/book-qr/session"
)

// Server holds the dependencies for all HTTP handlers. Every handler that
// touches the session holds mu for the whole action, so user actions run one
// at a time.
type Server struct {
	Session *session.Session
	Log     *slog.Logger
	Version string

	mu sync.Mutex
}

// NewRouter returns a fully configured chi router with all preview routes.
func NewRouter(s *Server) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(requestLogger(s.Log))

	// Preview UI
	r.Get("/", s.handlePage)
	r.Get("/status", s.handleStatus)

	// Document
	r.Post("/document", s.handleOpenDocument)
	r.Post("/reset", s.handleReset)

	// Generation
	r.Post("/generate/pdf", s.handleGeneratePDF)
	r.Post("/generate/text", s.handleGenerateText)

	// Artifacts
	r.Get("/qr/{workflow}", s.handleQRImage)
	r.Get("/qr/{workflow}/data", s.handleQRData)
	r.Post("/qr/{workflow}/save", s.handleSave)
	r.Delete("/qr/{workflow}", s.handleClear)

	return r
}

// --- helpers ----------------------------------------------------------------

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

type errorResponse struct {
	Error  string  `json:"error"`
	Kind   string  `json:"kind,omitempty"`
	Prompt *prompt `json:"prompt,omitempty"`
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeAppError reports err with the status its kind maps to.
func writeAppError(w http.ResponseWriter, err error) {
	writeJSON(w, apperr.StatusCode(err), errorResponse{
		Error: err.Error(),
		Kind:  string(apperr.KindOf(err)),
	})
}

// requireJSON rejects requests without a JSON content type so that
// cross-origin pages cannot drive the server with simple form posts. Actions
// without a body check it too.
func requireJSON(r *http.Request) error {
	if mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); mt != "application/json" {
		return apperr.Validation("content type must be application/json")
	}
	return nil
}

func decodeJSON(r *http.Request, v interface{}) error {
	if err := requireJSON(r); err != nil {
		return err
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperr.Validation("invalid request body")
	}
	return nil
}

// --- middleware --------------------------------------------------------------

func requestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log.Debug("http request", "method", r.Method, "path", r.URL.Path, "remote", r.RemoteAddr)
			next.ServeHTTP(w, r)
		})
	}
}
