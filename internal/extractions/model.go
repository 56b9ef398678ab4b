package extractions

import "time"

// Extraction represents a resume file extraction job. The uploaded bytes
// are processed in memory and never persisted; only the recovered text is.
type Extraction struct {
	ID           string     `json:"id"`
	Status       string     `json:"status"`
	FileName     string     `json:"fileName"`
	Method       string     `json:"method,omitempty"`
	Text         string     `json:"text,omitempty"`
	ErrorCode    string     `json:"errorCode,omitempty"`
	ErrorMessage string     `json:"errorMessage,omitempty"`
	Retryable    bool       `json:"retryable,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	StartedAt    *time.Time `json:"startedAt,omitempty"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}
