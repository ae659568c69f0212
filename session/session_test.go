package session

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bookqr/book-qr/apperr"
	"github.com/bookqr/book-qr/document"
	"github.com/bookqr/book-qr/qr"
)

type fakeDoc struct {
	pages  []string
	calls  int
	closed bool
}

func (d *fakeDoc) NumPages() int { return len(d.pages) }

func (d *fakeDoc) PageText(index int) (string, error) {
	d.calls++
	return d.pages[index], nil
}

func (d *fakeDoc) Close() error {
	d.closed = true
	return nil
}

// scripted answers prompts in order and records them.
type scripted struct {
	answers []bool
	asked   []string
}

func (s *scripted) Confirm(title, message string) bool {
	s.asked = append(s.asked, title)
	if len(s.asked) > len(s.answers) {
		return false
	}
	return s.answers[len(s.asked)-1]
}

func newTestSession(t *testing.T, docs map[string]*fakeDoc) *Session {
	t.Helper()
	return New(Options{
		Opener: func(path string) (document.Source, error) {
			d, ok := docs[path]
			if !ok {
				return nil, apperr.Wrap(apperr.KindDocumentOpen, "Failed to load PDF", fmt.Errorf("open %s: no such file", path))
			}
			return d, nil
		},
		Encoder:   qr.NewEncoder(2),
		OutputDir: t.TempDir(),
		Log:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func twentyPages() *fakeDoc {
	d := &fakeDoc{}
	for i := 1; i <= 20; i++ {
		d.pages = append(d.pages, fmt.Sprintf("Page %d\nline\t two  ", i))
	}
	return d
}

func TestGenerateFromPDFRange(t *testing.T) {
	doc := twentyPages()
	s := newTestSession(t, map[string]*fakeDoc{"book.pdf": doc})

	info, err := s.OpenDocument("book.pdf")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if info.TotalPages != 20 || info.Name != "book.pdf" {
		t.Fatalf("unexpected info %+v", info)
	}

	res, err := s.GenerateFromPDF(PDFRequest{Pages: "10-15"}, nil)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if doc.calls != 6 {
		t.Fatalf("expected 6 pages read, got %d", doc.calls)
	}

	var parts []string
	for i := 10; i <= 15; i++ {
		parts = append(parts, fmt.Sprintf("Page %d line two", i))
	}
	want := strings.Join(parts, " ")
	if res.Content != want {
		t.Fatalf("expected content %q, got %q", want, res.Content)
	}
	if s.ExtractedText() != want {
		t.Fatalf("expected extracted text to be kept")
	}
	if res.Pages != "Pages 10-15" || res.Profile != "low" {
		t.Fatalf("unexpected result %+v", res)
	}
	a := s.Artifact(WorkflowPDF)
	if a == nil || a.Profile != qr.Capacity || a.Content != want {
		t.Fatalf("unexpected artifact %+v", a)
	}
	if s.Artifact(WorkflowText) != nil {
		t.Fatal("text workflow must be untouched")
	}
}

func TestGenerateFromPDFOutOfRange(t *testing.T) {
	doc := twentyPages()
	s := newTestSession(t, map[string]*fakeDoc{"book.pdf": doc})
	if _, err := s.OpenDocument("book.pdf"); err != nil {
		t.Fatal(err)
	}

	_, err := s.GenerateFromPDF(PDFRequest{Pages: "25"}, AlwaysConfirm)
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if doc.calls != 0 {
		t.Fatalf("expected no extraction, got %d page reads", doc.calls)
	}
	if s.Artifact(WorkflowPDF) != nil {
		t.Fatal("no artifact expected")
	}
}

func TestGenerateFromPDFWithoutDocument(t *testing.T) {
	s := newTestSession(t, nil)
	_, err := s.GenerateFromPDF(PDFRequest{Pages: "1"}, AlwaysConfirm)
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestGenerateFromPDFWithLink(t *testing.T) {
	s := newTestSession(t, map[string]*fakeDoc{"a.pdf": {pages: []string{"Chapter  one"}}})
	if _, err := s.OpenDocument("a.pdf"); err != nil {
		t.Fatal(err)
	}

	c := &scripted{}
	res, err := s.GenerateFromPDF(PDFRequest{Pages: "1", Link: "https://drive.google.com/file/d/x"}, c)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(c.asked) != 0 {
		t.Fatalf("recognized link should not prompt, got %v", c.asked)
	}
	if res.Content != "Chapter one\n\n---\nGoogle Drive Link: https://drive.google.com/file/d/x" {
		t.Fatalf("unexpected content %q", res.Content)
	}
}

func TestGenerateFromPDFLinkNeedsConfirmation(t *testing.T) {
	s := newTestSession(t, map[string]*fakeDoc{"a.pdf": {pages: []string{"text"}}})
	if _, err := s.OpenDocument("a.pdf"); err != nil {
		t.Fatal(err)
	}

	declined := &scripted{answers: []bool{false}}
	_, err := s.GenerateFromPDF(PDFRequest{Pages: "1", Link: "https://example.com"}, declined)
	if !apperr.IsKind(err, apperr.KindCanceled) {
		t.Fatalf("expected canceled, got %v", err)
	}
	if s.Artifact(WorkflowPDF) != nil {
		t.Fatal("declined prompt must not produce an artifact")
	}

	accepted := &scripted{answers: []bool{true}}
	if _, err := s.GenerateFromPDF(PDFRequest{Pages: "1", Link: "https://example.com"}, accepted); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(accepted.asked) != 1 || accepted.asked[0] != "Unrecognized Link" {
		t.Fatalf("unexpected prompts %v", accepted.asked)
	}

	_, err = s.GenerateFromPDF(PDFRequest{Pages: "1", Link: "ftp://x.com"}, AlwaysConfirm)
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestGenerateFromPDFEmptyKeepsArtifact(t *testing.T) {
	s := newTestSession(t, map[string]*fakeDoc{"a.pdf": {pages: []string{"hello", " \n ", ""}}})
	if _, err := s.OpenDocument("a.pdf"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GenerateFromPDF(PDFRequest{Pages: "1"}, nil); err != nil {
		t.Fatal(err)
	}
	prev := s.Artifact(WorkflowPDF)

	_, err := s.GenerateFromPDF(PDFRequest{Pages: "2-3"}, nil)
	if !apperr.IsKind(err, apperr.KindEmptyResult) {
		t.Fatalf("expected empty result, got %v", err)
	}
	if s.Artifact(WorkflowPDF) != prev {
		t.Fatal("prior artifact must be kept")
	}
}

func TestSoftLimitConfirmation(t *testing.T) {
	long := strings.Repeat("word ", 500) // 2499 characters once normalized
	s := newTestSession(t, map[string]*fakeDoc{"a.pdf": {pages: []string{long}}})
	if _, err := s.OpenDocument("a.pdf"); err != nil {
		t.Fatal(err)
	}

	declined := &scripted{answers: []bool{false}}
	_, err := s.GenerateFromPDF(PDFRequest{Pages: "1"}, declined)
	if !apperr.IsKind(err, apperr.KindCanceled) {
		t.Fatalf("expected canceled, got %v", err)
	}
	if len(declined.asked) != 1 || declined.asked[0] != "Large Text Warning" {
		t.Fatalf("unexpected prompts %v", declined.asked)
	}
	if s.Artifact(WorkflowPDF) != nil || s.ExtractedText() != "" {
		t.Fatal("declining must leave no side effects")
	}

	res, err := s.GenerateFromPDF(PDFRequest{Pages: "1"}, &scripted{answers: []bool{true}})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if res.Characters != 2499 {
		t.Fatalf("expected 2499 characters, got %d", res.Characters)
	}
}

func TestBeyondCapacityIsEncodingFailure(t *testing.T) {
	s := newTestSession(t, nil)
	if _, err := s.GenerateFromText("short", nil); err != nil {
		t.Fatal(err)
	}
	prev := s.Artifact(WorkflowText)

	_, err := s.GenerateFromText(strings.Repeat("x", 3500), AlwaysConfirm)
	if !apperr.IsKind(err, apperr.KindEncoding) {
		t.Fatalf("expected encoding error, got %v", err)
	}
	if s.Artifact(WorkflowText) != prev {
		t.Fatal("failed encoding must not replace the artifact")
	}
}

func TestGenerateFromText(t *testing.T) {
	s := newTestSession(t, nil)

	res, err := s.GenerateFromText("  example.com ", nil)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if res.Content != "https://example.com" || res.Profile != "high" {
		t.Fatalf("unexpected result %+v", res)
	}
	if a := s.Artifact(WorkflowText); a == nil || a.Profile != qr.Robust {
		t.Fatalf("unexpected artifact %+v", a)
	}
	if s.Artifact(WorkflowPDF) != nil {
		t.Fatal("pdf workflow must be untouched")
	}

	for _, in := range []string{"", "   ", "Enter a URL or text to encode"} {
		if _, err := s.GenerateFromText(in, nil); !apperr.IsKind(err, apperr.KindValidation) {
			t.Fatalf("input %q: expected validation error, got %v", in, err)
		}
	}
}

func TestOpenDocumentFailureResetsState(t *testing.T) {
	doc := twentyPages()
	s := newTestSession(t, map[string]*fakeDoc{"book.pdf": doc})
	if _, err := s.OpenDocument("book.pdf"); err != nil {
		t.Fatal(err)
	}

	_, err := s.OpenDocument("broken.pdf")
	if !apperr.IsKind(err, apperr.KindDocumentOpen) {
		t.Fatalf("expected document open error, got %v", err)
	}
	if s.Document() != nil || s.TotalPages() != 0 {
		t.Fatal("expected no document after a failed open")
	}
	if !doc.closed {
		t.Fatal("previous document should be closed")
	}

	// A canceled picker changes nothing.
	if _, err := s.OpenDocument("book.pdf"); err != nil {
		t.Fatal(err)
	}
	info, err := s.OpenDocument("")
	if info != nil || err != nil {
		t.Fatalf("expected no-op, got %v %v", info, err)
	}
	if s.TotalPages() != 20 {
		t.Fatal("document should still be loaded")
	}
}

func TestOpenDocumentWrapsPlainErrors(t *testing.T) {
	s := New(Options{
		Opener: func(string) (document.Source, error) { return nil, errors.New("permission denied") },
		Log:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	_, err := s.OpenDocument("x.pdf")
	if !apperr.IsKind(err, apperr.KindDocumentOpen) {
		t.Fatalf("expected document open error, got %v", err)
	}
}

func TestSave(t *testing.T) {
	s := newTestSession(t, nil)

	if _, err := s.Save(WorkflowText, "out.png"); !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("expected validation error without artifact, got %v", err)
	}

	if _, err := s.GenerateFromText("https://example.com", nil); err != nil {
		t.Fatal(err)
	}

	saved, err := s.Save(WorkflowText, "")
	if saved != "" || err != nil {
		t.Fatalf("expected canceled save to be a no-op, got %q %v", saved, err)
	}

	saved, err = s.Save(WorkflowText, "link")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if filepath.Base(saved) != "link.png" {
		t.Fatalf("unexpected path %s", saved)
	}
	if _, err := os.Stat(saved); err != nil {
		t.Fatalf("expected file: %v", err)
	}

	_, err = s.Save(WorkflowText, filepath.Join(t.TempDir(), "nope", "x.png"))
	if !apperr.IsKind(err, apperr.KindSave) {
		t.Fatalf("expected save error, got %v", err)
	}
	if s.Artifact(WorkflowText) == nil {
		t.Fatal("artifact must survive a failed save")
	}
}

func TestClearAndReset(t *testing.T) {
	doc := &fakeDoc{pages: []string{"hello"}}
	s := newTestSession(t, map[string]*fakeDoc{"a.pdf": doc})
	if _, err := s.OpenDocument("a.pdf"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GenerateFromPDF(PDFRequest{Pages: "1"}, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GenerateFromText("hello world", nil); err != nil {
		t.Fatal(err)
	}

	s.ClearPDF()
	if s.Document() != nil || s.Artifact(WorkflowPDF) != nil || s.ExtractedText() != "" {
		t.Fatal("pdf workflow should be cleared")
	}
	if !doc.closed {
		t.Fatal("document should be closed on clear")
	}
	if s.Artifact(WorkflowText) == nil {
		t.Fatal("text workflow must be independent")
	}

	s.Reset()
	if s.Artifact(WorkflowText) != nil {
		t.Fatal("reset should clear the text workflow")
	}
}

func TestParseWorkflow(t *testing.T) {
	if w, err := ParseWorkflow("pdf"); err != nil || w != WorkflowPDF {
		t.Fatalf("unexpected %v %v", w, err)
	}
	if _, err := ParseWorkflow("video"); !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
