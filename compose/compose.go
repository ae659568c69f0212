// Package compose builds the payload handed to the QR encoder: auxiliary
// link validation and appending for PDF text, and URL normalization for
// free-form input.
package compose

import (
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/bookqr/book-qr/apperr"
)

// SoftLimit is the payload length, in characters, above which the user is
// asked to confirm before encoding.
const SoftLimit = 2000

// LinkLabel separates extracted text from an appended link.
const LinkLabel = "\n\n---\nGoogle Drive Link: "

// Placeholder is the hint shown in an untouched free-form input. It counts
// as no input.
const Placeholder = "Enter a URL or text to encode"

var cloudHosts = map[string]bool{
	"drive.google.com":  true,
	"docs.google.com":   true,
	"sheets.google.com": true,
	"slides.google.com": true,
}

// Link is a validated auxiliary link. NeedsConfirmation is set when the link
// does not point at a recognized cloud-document host.
type Link struct {
	URL               string
	NeedsConfirmation bool
}

// Present reports whether a link was supplied.
func (l Link) Present() bool {
	return l.URL != ""
}

// ValidateLink checks an optional auxiliary link. Empty input is valid and
// yields a zero Link.
func ValidateLink(raw string) (Link, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Link{}, nil
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		return Link{}, apperr.Validation("Invalid link. It must start with http:// or https://")
	}
	return Link{URL: raw, NeedsConfirmation: !isCloudLink(raw)}, nil
}

func isCloudLink(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return cloudHosts[strings.ToLower(u.Hostname())]
}

// WithLink appends link to text using the fixed label. Without a link the
// text is returned verbatim.
func WithLink(text string, link Link) string {
	if !link.Present() {
		return text
	}
	return text + LinkLabel + link.URL
}

// NormalizeURL trims free-form input and prepends https:// when it looks
// like a bare domain. Anything else passes through unchanged.
func NormalizeURL(raw string) string {
	s := strings.TrimSpace(raw)
	if s == Placeholder {
		return ""
	}
	if s == "" || hasScheme(s) {
		return s
	}
	if strings.Contains(s, ".") && !strings.Contains(s, " ") {
		return "https://" + s
	}
	return s
}

func hasScheme(s string) bool {
	for _, p := range []string{"http://", "https://", "ftp://"} {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// Length returns the payload length in characters.
func Length(payload string) int {
	return utf8.RuneCountInString(payload)
}

// ExceedsSoftLimit reports whether payload needs confirmation before
// encoding.
func ExceedsSoftLimit(payload string) bool {
	return Length(payload) > SoftLimit
}
