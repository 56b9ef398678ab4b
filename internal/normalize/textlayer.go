package normalize

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// TextLayer reads the embedded text of the first PDF page, if any.
// A scanned PDF typically yields an empty string here, which callers
// treat as "no text layer, fall back to vision extraction".
func TextLayer(data []byte) (text string, err error) {
	// The reader panics on some malformed xref tables.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf text layer: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("pdf text layer: %w", err)
	}
	if reader.NumPage() == 0 {
		return "", ErrNoPages
	}

	page := reader.Page(1)
	if page.V.IsNull() {
		return "", nil
	}
	content, err := page.GetPlainText(nil)
	if err != nil {
		return "", fmt.Errorf("pdf text layer: %w", err)
	}
	return strings.TrimSpace(content), nil
}
