package document

import (
	"fmt"
	"strings"

	"github.com/bookqr/book-qr/apperr"
)

// ExtractText pulls the text of the given 1-indexed pages from src, joins the
// non-empty ones with a blank line and collapses all whitespace. An empty
// result is not an error.
func ExtractText(src Source, pageNumbers []int) (string, error) {
	texts := make([]string, 0, len(pageNumbers))
	for _, n := range pageNumbers {
		text, err := src.PageText(n - 1)
		if err != nil {
			return "", apperr.Wrap(apperr.KindExtraction, fmt.Sprintf("Failed to extract text from page %d", n), err)
		}
		if text != "" {
			texts = append(texts, text)
		}
	}
	return Normalize(strings.Join(texts, "\n\n")), nil
}

// Normalize collapses every run of whitespace to a single space and trims
// the ends.
func Normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
