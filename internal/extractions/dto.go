package extractions

import "time"

// ExtractionResponse is the outward-facing representation of an extraction
// job. The uploaded bytes are never echoed back; only the recovered text is.
type ExtractionResponse struct {
	ExtractionID string     `json:"extractionId"`
	Status       string     `json:"status"`
	FileName     string     `json:"fileName"`
	Text         string     `json:"text,omitempty"`
	Method       string     `json:"method,omitempty"`
	Error        *errorBody `json:"error,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
}

type errorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

func toResponse(rec Extraction) ExtractionResponse {
	resp := ExtractionResponse{
		ExtractionID: rec.ID,
		Status:       rec.Status,
		FileName:     rec.FileName,
		CreatedAt:    rec.CreatedAt,
		CompletedAt:  rec.CompletedAt,
	}
	switch rec.Status {
	case StatusExtracted:
		resp.Text = rec.Text
		resp.Method = rec.Method
	case StatusFailed:
		resp.Error = &errorBody{
			Code:      rec.ErrorCode,
			Message:   rec.ErrorMessage,
			Retryable: rec.Retryable,
		}
	}
	return resp
}
