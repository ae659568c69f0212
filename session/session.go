// Package session holds the state of one interactive user: the loaded
// document and the current artifact of each workflow. Every user action is a
// method that runs to completion and either replaces state wholesale or
// leaves it untouched.
package session

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/bookqr/book-qr/apperr"
	"github.com/bookqr/book-qr/compose"
	"github.com/bookqr/book-qr/document"
	"github.com/bookqr/book-qr/qr"
)

// Workflow identifies one of the two independent QR workflows.
type Workflow string

const (
	WorkflowPDF  Workflow = "pdf"
	WorkflowText Workflow = "text"
)

// ParseWorkflow validates a workflow name.
func ParseWorkflow(s string) (Workflow, error) {
	switch Workflow(s) {
	case WorkflowPDF, WorkflowText:
		return Workflow(s), nil
	}
	return "", apperr.Validation("Unknown workflow %q", s)
}

// Confirmer asks the user a yes/no question. Returning false aborts the
// action that asked.
type Confirmer interface {
	Confirm(title, message string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(title, message string) bool

// Confirm implements Confirmer.
func (f ConfirmFunc) Confirm(title, message string) bool {
	return f(title, message)
}

// AlwaysConfirm accepts every prompt.
var AlwaysConfirm Confirmer = ConfirmFunc(func(string, string) bool { return true })

// A nil Confirmer declines.
func confirmed(c Confirmer, title, message string) bool {
	return c != nil && c.Confirm(title, message)
}

type pdfState struct {
	path     string
	doc      document.Source
	text     string
	artifact *qr.Artifact
}

type textState struct {
	artifact *qr.Artifact
}

// Session is the explicit state of one user. It is not safe for concurrent
// use; callers serialize actions.
type Session struct {
	open      document.Opener
	encoder   *qr.Encoder
	outputDir string
	log       *slog.Logger

	pdf  pdfState
	text textState
}

// Options configures a Session.
type Options struct {
	Opener    document.Opener
	Encoder   *qr.Encoder
	OutputDir string
	Log       *slog.Logger
}

// New creates an empty session.
func New(opts Options) *Session {
	if opts.Opener == nil {
		opts.Opener = document.Open
	}
	if opts.Encoder == nil {
		opts.Encoder = qr.NewEncoder(qr.DefaultModulePixels)
	}
	if opts.Log == nil {
		opts.Log = slog.Default()
	}
	return &Session{
		open:      opts.Opener,
		encoder:   opts.Encoder,
		outputDir: opts.OutputDir,
		log:       opts.Log,
	}
}

// DocumentInfo describes the loaded document.
type DocumentInfo struct {
	Path       string `json:"path"`
	Name       string `json:"name"`
	TotalPages int    `json:"total_pages"`
}

// OpenDocument loads the PDF at path, replacing any loaded document. An empty
// path means the user canceled the file picker and changes nothing. On
// failure the session is left with no document.
func (s *Session) OpenDocument(path string) (*DocumentInfo, error) {
	if path == "" {
		return nil, nil
	}

	doc, err := s.open(path)
	if err != nil {
		s.closeDocument()
		s.log.Warn("failed to load PDF", "path", path, "error", err)
		if apperr.KindOf(err) == "" {
			err = apperr.Wrap(apperr.KindDocumentOpen, "Failed to load PDF", err)
		}
		return nil, err
	}

	s.closeDocument()
	s.pdf.path = path
	s.pdf.doc = doc

	info := s.Document()
	s.log.Info("PDF loaded", "path", path, "total_pages", info.TotalPages)
	return info, nil
}

// Document returns the loaded document, or nil.
func (s *Session) Document() *DocumentInfo {
	if s.pdf.doc == nil {
		return nil
	}
	return &DocumentInfo{
		Path:       s.pdf.path,
		Name:       filepath.Base(s.pdf.path),
		TotalPages: s.pdf.doc.NumPages(),
	}
}

// TotalPages returns the page count of the loaded document, or 0.
func (s *Session) TotalPages() int {
	if s.pdf.doc == nil {
		return 0
	}
	return s.pdf.doc.NumPages()
}

func (s *Session) closeDocument() {
	if s.pdf.doc != nil {
		if err := s.pdf.doc.Close(); err != nil {
			s.log.Debug("close document", "path", s.pdf.path, "error", err)
		}
	}
	s.pdf.doc = nil
	s.pdf.path = ""
}

// Artifact returns the current artifact of w, or nil.
func (s *Session) Artifact(w Workflow) *qr.Artifact {
	switch w {
	case WorkflowPDF:
		return s.pdf.artifact
	case WorkflowText:
		return s.text.artifact
	}
	return nil
}

// ExtractedText returns the text extracted by the last successful PDF
// generation.
func (s *Session) ExtractedText() string {
	return s.pdf.text
}

// Save writes the current artifact of w to path. An empty path means the
// user canceled the save dialog and returns "" with no error. Relative paths
// are resolved against the configured output directory.
func (s *Session) Save(w Workflow, path string) (string, error) {
	a := s.Artifact(w)
	if a == nil {
		return "", apperr.Validation("Please generate a QR code first")
	}
	if path == "" {
		return "", nil
	}
	if !filepath.IsAbs(path) && s.outputDir != "" {
		path = filepath.Join(s.outputDir, path)
	}

	saved, err := a.Save(path)
	if err != nil {
		s.log.Error("failed to save QR code", "workflow", w, "path", path, "error", err)
		return "", err
	}
	s.log.Info("QR code saved", "workflow", w, "path", saved)
	return saved, nil
}

// ClearPDF resets the PDF workflow: the document is closed and the extracted
// text and artifact are dropped.
func (s *Session) ClearPDF() {
	s.closeDocument()
	s.pdf = pdfState{}
}

// ClearText drops the free-form workflow's artifact.
func (s *Session) ClearText() {
	s.text = textState{}
}

// Reset clears both workflows.
func (s *Session) Reset() {
	s.ClearPDF()
	s.ClearText()
	s.log.Debug("session reset")
}

// Close releases the loaded document.
func (s *Session) Close() error {
	s.closeDocument()
	return nil
}

// Result reports a successful generation.
type Result struct {
	Workflow   Workflow `json:"workflow"`
	Pages      string   `json:"pages,omitempty"`
	Characters int      `json:"characters"`
	Version    int      `json:"version"`
	Profile    string   `json:"error_correction"`
	Link       string   `json:"link,omitempty"`
	Content    string   `json:"content"`
}

// encode applies the size policy to payload and renders it. Nothing is
// modified here; callers store the artifact on success.
func (s *Session) encode(payload string, profile qr.Profile, confirm Confirmer) (*qr.Artifact, error) {
	if compose.ExceedsSoftLimit(payload) {
		msg := fmt.Sprintf("The text is very large (%d characters).\n"+
			"QR codes work best with smaller amounts of text and this one may be difficult to scan.\n\n"+
			"Do you want to continue anyway?", compose.Length(payload))
		if !confirmed(confirm, "Large Text Warning", msg) {
			return nil, apperr.Canceled("Generation canceled: text exceeds the recommended size")
		}
	}

	a, err := s.encoder.Encode(payload, profile)
	if err != nil {
		s.log.Error("QR encoding failed", "characters", compose.Length(payload), "profile", profile.String(), "error", err)
		return nil, err
	}
	return a, nil
}
