// Package document opens PDF files and extracts normalized text from
// selected pages.
package document

import (
	"fmt"
	"os"

	"github.com/ledongthuc/pdf"

	"github.com/bookqr/book-qr/apperr"
)

// Source is an opened document: a known page count and per-page text by
// 0-based index.
type Source interface {
	NumPages() int
	PageText(index int) (string, error)
	Close() error
}

// Opener opens the document at path.
type Opener func(path string) (Source, error)

// PDF is a Source backed by github.com/ledongthuc/pdf. The underlying file
// stays open until Close.
type PDF struct {
	file   *os.File
	reader *pdf.Reader
	fonts  map[string]*pdf.Font
}

// openReader is pdf.Open; tests replace it.
var openReader = pdf.Open

// Open opens the PDF at path. Malformed files that make the reader panic are
// reported as open failures.
func Open(path string) (src Source, err error) {
	var f *os.File
	defer func() {
		if r := recover(); r != nil {
			if f != nil {
				f.Close()
			}
			src = nil
			err = apperr.Wrap(apperr.KindDocumentOpen, "Failed to load PDF", fmt.Errorf("malformed PDF: %v", r))
		}
	}()

	f, r, err := openReader(path)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindDocumentOpen, "Failed to load PDF", err)
	}
	if r.NumPage() <= 0 {
		f.Close()
		return nil, apperr.Wrap(apperr.KindDocumentOpen, "Failed to load PDF", fmt.Errorf("%s has no pages", path))
	}

	return &PDF{
		file:   f,
		reader: r,
		fonts:  make(map[string]*pdf.Font),
	}, nil
}

// NumPages returns the total page count.
func (d *PDF) NumPages() int {
	return d.reader.NumPage()
}

// PageText returns the plain text of the page at the 0-based index. Pages
// without a content stream yield "".
func (d *PDF) PageText(index int) (text string, err error) {
	if index < 0 || index >= d.NumPages() {
		return "", fmt.Errorf("page index %d out of range (document has %d pages)", index, d.NumPages())
	}

	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("decode page %d: %v", index+1, r)
		}
	}()

	p := d.reader.Page(index + 1)
	if p.V.IsNull() {
		return "", nil
	}

	// Fonts are shared across pages; cache them for the document's lifetime.
	for _, name := range p.Fonts() {
		if _, ok := d.fonts[name]; !ok {
			f := p.Font(name)
			d.fonts[name] = &f
		}
	}

	return p.GetPlainText(d.fonts)
}

// Close releases the underlying file.
func (d *PDF) Close() error {
	if d.file == nil {
		return nil
	}
	err := d.file.Close()
	d.file = nil
	return err
}
