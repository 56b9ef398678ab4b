package normalize

import (
	"fmt"
	"image"

	"github.com/gen2brain/go-fitz"
)

// FitzRenderer rasterizes PDFs with MuPDF via go-fitz.
type FitzRenderer struct{}

var _ PageRenderer = FitzRenderer{}

func (FitzRenderer) FirstPage(data []byte) (image.Image, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer doc.Close()

	if doc.NumPage() == 0 {
		return nil, ErrNoPages
	}
	img, err := doc.Image(0)
	if err != nil {
		return nil, fmt.Errorf("render page: %w", err)
	}
	return img, nil
}
