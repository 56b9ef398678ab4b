package extractions

import "errors"

var ErrNotFound = errors.New("not found")

const (
	ErrorCodeValidation      = "VALIDATION_ERROR"
	ErrorCodeConversion      = "CONVERSION_ERROR"
	ErrorCodeConversionEmpty = "CONVERSION_EMPTY"
	ErrorCodeExtraction      = "EXTRACTION_ERROR"
	ErrorCodeLLMTimeout      = "LLM_TIMEOUT"
	ErrorCodeStorage         = "STORAGE_ERROR"
	ErrorCodeInternal        = "INTERNAL_ERROR"
)

// Extraction methods recorded on completed jobs.
const (
	MethodVision    = "vision"
	MethodTextLayer = "text_layer"
)

// FieldIssue describes a single invalid request field.
type FieldIssue struct {
	Field string `json:"field"`
	Issue string `json:"issue"`
}

// ValidationError rejects an upload before any work is queued.
type ValidationError struct {
	Message string
	Details []FieldIssue
}

func (e *ValidationError) Error() string { return e.Message }
