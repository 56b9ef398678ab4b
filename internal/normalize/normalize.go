// Package normalize converts uploaded resume files into base64-encoded
// images that a vision model can read. PDFs are rendered page by page
// and only the first page is kept; PNG and JPEG uploads pass through
// unchanged apart from the encoding.
package normalize

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"path/filepath"
	"strings"
)

const jpegQuality = 90

var (
	// ErrUnsupportedType means the upload's extension is not one we accept.
	ErrUnsupportedType = errors.New("unsupported file type")
	// ErrNoPages means a PDF parsed cleanly but contained zero pages.
	ErrNoPages = errors.New("pdf contains no pages")
)

// EncodedImage is a resume page ready to be embedded in a vision prompt.
type EncodedImage struct {
	MIME   string
	Base64 string
}

// Supported reports whether the upload's extension is one we accept.
// It mirrors the checks Normalize performs, so callers can reject bad
// uploads before queueing any work.
func Supported(fileName string) bool {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".pdf", ".png", ".jpg", ".jpeg":
		return true
	}
	return false
}

// IsPDF reports whether the upload looks like a PDF by extension.
func IsPDF(fileName string) bool {
	return strings.ToLower(filepath.Ext(fileName)) == ".pdf"
}

// PageRenderer rasterizes the first page of a PDF document.
type PageRenderer interface {
	FirstPage(data []byte) (image.Image, error)
}

type Normalizer struct {
	renderer PageRenderer
}

func New(renderer PageRenderer) *Normalizer {
	return &Normalizer{renderer: renderer}
}

// Normalize turns an uploaded file into an image the vision model accepts.
// The extension of fileName decides the handling; anything other than
// .pdf, .png, .jpg or .jpeg is rejected with ErrUnsupportedType.
func (n *Normalizer) Normalize(data []byte, fileName string) (EncodedImage, error) {
	switch ext := strings.ToLower(filepath.Ext(fileName)); ext {
	case ".png":
		return EncodedImage{MIME: "image/png", Base64: base64.StdEncoding.EncodeToString(data)}, nil
	case ".jpg", ".jpeg":
		return EncodedImage{MIME: "image/jpeg", Base64: base64.StdEncoding.EncodeToString(data)}, nil
	case ".pdf":
		return n.renderPDF(data)
	default:
		return EncodedImage{}, fmt.Errorf("%w: %q", ErrUnsupportedType, ext)
	}
}

func (n *Normalizer) renderPDF(data []byte) (EncodedImage, error) {
	page, err := n.renderer.FirstPage(data)
	if err != nil {
		if errors.Is(err, ErrNoPages) {
			return EncodedImage{}, err
		}
		return EncodedImage{}, fmt.Errorf("convert pdf: %w", err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, page, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return EncodedImage{}, fmt.Errorf("encode page: %w", err)
	}
	return EncodedImage{MIME: "image/jpeg", Base64: base64.StdEncoding.EncodeToString(buf.Bytes())}, nil
}
