package session

import (
	"fmt"

	"github.com/bookqr/book-qr/apperr"
	"github.com/bookqr/book-qr/compose"
	"github.com/bookqr/book-qr/document"
	"github.com/bookqr/book-qr/pages"
	"github.com/bookqr/book-qr/qr"
)

// PDFRequest selects pages of the loaded document and an optional link.
type PDFRequest struct {
	Pages string `json:"pages"`
	Link  string `json:"link"`
}

// GenerateFromPDF extracts the requested pages, appends the optional link
// and encodes the result with the capacity profile. On any failure, or when
// the user declines a prompt, the previous artifact is kept.
func (s *Session) GenerateFromPDF(req PDFRequest, confirm Confirmer) (*Result, error) {
	if s.pdf.doc == nil {
		return nil, apperr.Validation("Please select a PDF file first")
	}

	rng, err := pages.Parse(req.Pages, s.pdf.doc.NumPages())
	if err != nil {
		return nil, err
	}

	link, err := compose.ValidateLink(req.Link)
	if err != nil {
		return nil, err
	}
	if link.NeedsConfirmation {
		msg := fmt.Sprintf("The link %s does not look like a Google Drive or Google Docs link.\n\nDo you want to use it anyway?", link.URL)
		if !confirmed(confirm, "Unrecognized Link", msg) {
			return nil, apperr.Canceled("Generation canceled: link not confirmed")
		}
	}

	text, err := document.ExtractText(s.pdf.doc, rng.Pages())
	if err != nil {
		return nil, err
	}
	if text == "" {
		s.log.Warn("no text extracted", "pages", rng.Label())
		return nil, apperr.EmptyResult("No text could be extracted from the specified page(s).\n" +
			"The page(s) might be empty or contain only images.")
	}

	payload := compose.WithLink(text, link)
	a, err := s.encode(payload, qr.Capacity, confirm)
	if err != nil {
		return nil, err
	}

	s.pdf.text = text
	s.pdf.artifact = a

	res := &Result{
		Workflow:   WorkflowPDF,
		Pages:      rng.Label(),
		Characters: compose.Length(payload),
		Version:    a.Version,
		Profile:    a.Profile.String(),
		Link:       link.URL,
		Content:    payload,
	}
	s.log.Info("QR code generated", "workflow", res.Workflow, "pages", res.Pages, "characters", res.Characters, "version", res.Version)
	return res, nil
}

// GenerateFromText normalizes free-form input and encodes it with the
// robust profile.
func (s *Session) GenerateFromText(raw string, confirm Confirmer) (*Result, error) {
	payload := compose.NormalizeURL(raw)
	if payload == "" {
		return nil, apperr.Validation("Please enter a URL or text")
	}

	a, err := s.encode(payload, qr.Robust, confirm)
	if err != nil {
		return nil, err
	}

	s.text.artifact = a

	res := &Result{
		Workflow:   WorkflowText,
		Characters: compose.Length(payload),
		Version:    a.Version,
		Profile:    a.Profile.String(),
		Content:    payload,
	}
	s.log.Info("QR code generated", "workflow", res.Workflow, "characters", res.Characters, "version", res.Version)
	return res, nil
}
