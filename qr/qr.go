// Package qr renders composed payloads as QR code images using go-qrcode.
package qr

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/skip2/go-qrcode"

	"github.com/bookqr/book-qr/apperr"
)

// DefaultModulePixels is the edge length of one QR module in the rendered
// image.
const DefaultModulePixels = 10

// Profile selects the error-correction level for a workflow.
type Profile int

const (
	// Capacity favors payload size; used for text extracted from PDFs.
	Capacity Profile = iota
	// Robust favors scan reliability; used for free-form URLs and text.
	Robust
)

func (p Profile) level() qrcode.RecoveryLevel {
	if p == Robust {
		return qrcode.Highest
	}
	return qrcode.Low
}

// String names the error-correction level.
func (p Profile) String() string {
	if p == Robust {
		return "high"
	}
	return "low"
}

// Encoder turns payloads into artifacts. The symbol version is always the
// smallest that fits and the quiet border is always kept.
type Encoder struct {
	ModulePixels int
}

// NewEncoder returns an Encoder rendering modulePixels pixels per module.
func NewEncoder(modulePixels int) *Encoder {
	if modulePixels <= 0 {
		modulePixels = DefaultModulePixels
	}
	return &Encoder{ModulePixels: modulePixels}
}

// Artifact is a rendered QR code held in memory.
type Artifact struct {
	Content string
	Profile Profile
	Version int
	code    *qrcode.QRCode
	png     []byte
}

// Encode renders content with the given profile. Payloads beyond the
// symbol capacity fail here with the encoder's own message.
func (e *Encoder) Encode(content string, profile Profile) (*Artifact, error) {
	code, err := qrcode.New(content, profile.level())
	if err != nil {
		return nil, apperr.Wrap(apperr.KindEncoding, "Failed to generate QR code", err)
	}
	code.DisableBorder = false

	// A negative size asks go-qrcode for a fixed number of pixels per module.
	data, err := code.PNG(-e.ModulePixels)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindEncoding, "Failed to generate QR code", err)
	}

	return &Artifact{
		Content: content,
		Profile: profile,
		Version: code.VersionNumber,
		code:    code,
		png:     data,
	}, nil
}

// PNG returns the encoded image bytes.
func (a *Artifact) PNG() []byte {
	return a.png
}

// Image decodes the rendered raster.
func (a *Artifact) Image() (image.Image, error) {
	return png.Decode(bytes.NewReader(a.png))
}

// Terminal renders the symbol with half-height block characters for
// previews on a terminal.
func (a *Artifact) Terminal() string {
	return a.code.ToSmallString(false)
}

// Save writes the image to path, adding a .png extension when path has none.
// Existing files are overwritten. The artifact is unaffected by failures.
func (a *Artifact) Save(path string) (string, error) {
	if filepath.Ext(path) == "" {
		path += ".png"
	}
	if err := os.WriteFile(path, a.png, 0o644); err != nil {
		return "", apperr.Wrap(apperr.KindSave, "Failed to save QR code", err)
	}
	return path, nil
}

// Describe summarizes the artifact for logs and reports.
func (a *Artifact) Describe() string {
	return fmt.Sprintf("version %d, %s error correction", a.Version, a.Profile)
}
