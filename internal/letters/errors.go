package letters

import "errors"

var (
	ErrNotFound = errors.New("not found")
	ErrNotReady = errors.New("letter not ready")
)

const (
	ErrorCodeValidation = "VALIDATION_ERROR"
	ErrorCodeGeneration = "GENERATION_ERROR"
	ErrorCodeLLMTimeout = "LLM_TIMEOUT"
	ErrorCodeStorage    = "STORAGE_ERROR"
	ErrorCodeInternal   = "INTERNAL_ERROR"
)

// MissingFieldsMessage is shown when the resume or the job description is
// blank after trimming. The wording is part of the public contract.
const MissingFieldsMessage = "Please provide both your resume and the job description."

// FieldIssue describes a single invalid request field.
type FieldIssue struct {
	Field string `json:"field"`
	Issue string `json:"issue"`
}

// ValidationError rejects a request before any model call is made.
type ValidationError struct {
	Message string
	Details []FieldIssue
}

func (e *ValidationError) Error() string { return e.Message }
