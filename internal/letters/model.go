package letters

import "time"

// Letter represents a cover letter generation job.
type Letter struct {
	ID               string     `json:"id"`
	Status           string     `json:"status"`
	ResumeText       string     `json:"resumeText"`
	JobDescription   string     `json:"jobDescription"`
	Industry         string     `json:"industry"`
	Tone             string     `json:"tone"`
	Theme            string     `json:"theme,omitempty"`
	Template         string     `json:"template,omitempty"`
	Model            string     `json:"model,omitempty"`
	Content          string     `json:"letter,omitempty"`
	PromptTokens     int        `json:"promptTokens,omitempty"`
	CompletionTokens int        `json:"completionTokens,omitempty"`
	ErrorCode        string     `json:"errorCode,omitempty"`
	ErrorMessage     string     `json:"errorMessage,omitempty"`
	Retryable        bool       `json:"retryable,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	StartedAt        *time.Time `json:"startedAt,omitempty"`
	CompletedAt      *time.Time `json:"completedAt,omitempty"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}
