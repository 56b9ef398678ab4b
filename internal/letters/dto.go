package letters

import (
	"time"

	"coverletter-backend/letter"
)

type createLetterRequest struct {
	ResumeText     string `json:"resumeText"`
	JobDescription string `json:"jobDescription"`
	Industry       string `json:"industry"`
	Tone           string `json:"tone"`
	Theme          string `json:"theme"`
	Template       string `json:"template"`
}

type downloadRequest struct {
	Letter string `json:"letter"`
}

type usageBody struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`
}

type errorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

// LetterResponse is the outward-facing representation of a letter job.
// The resume and job description are deliberately not echoed back.
type LetterResponse struct {
	ID          string     `json:"id"`
	Status      string     `json:"status"`
	Industry    string     `json:"industry,omitempty"`
	Tone        string     `json:"tone,omitempty"`
	Theme       string     `json:"theme,omitempty"`
	Template    string     `json:"template,omitempty"`
	Model       string     `json:"model,omitempty"`
	Letter      string     `json:"letter,omitempty"`
	Formatted   string     `json:"formatted,omitempty"`
	Usage       *usageBody `json:"usage,omitempty"`
	Error       *errorBody `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

func toResponse(rec Letter) LetterResponse {
	resp := LetterResponse{
		ID:          rec.ID,
		Status:      rec.Status,
		Industry:    rec.Industry,
		Tone:        rec.Tone,
		Theme:       rec.Theme,
		Template:    rec.Template,
		CreatedAt:   rec.CreatedAt,
		CompletedAt: rec.CompletedAt,
	}
	switch rec.Status {
	case StatusReady:
		resp.Model = rec.Model
		resp.Letter = rec.Content
		if rec.Template != "" {
			resp.Formatted = letter.Render(rec.Content, rec.Template)
		}
		if rec.PromptTokens > 0 || rec.CompletionTokens > 0 {
			resp.Usage = &usageBody{
				PromptTokens:     rec.PromptTokens,
				CompletionTokens: rec.CompletionTokens,
			}
		}
	case StatusFailed:
		resp.Error = &errorBody{
			Code:      rec.ErrorCode,
			Message:   rec.ErrorMessage,
			Retryable: rec.Retryable,
		}
	}
	return resp
}
