package llm

import (
	"context"
	"errors"
)

// Sampling parameters are fixed for every upstream call; only the model
// differs between text generation and vision extraction.
const (
	Temperature float32 = 0.5
	TopP        float32 = 1
	MaxTokens           = 1024
)

// Message roles understood by the completion endpoint.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// Image is an inline image attachment sent as a data URL.
type Image struct {
	MIME   string
	Base64 string
}

// Message is one role-tagged chat message. A message with a non-nil Image
// is sent as a mixed text/image_url content array.
type Message struct {
	Role  string
	Text  string
	Image *Image
}

// Request names the model and carries the ordered messages for one call.
type Request struct {
	Model    string
	Messages []Message
}

// Usage reports upstream token accounting for a completed call.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Completion is the successful result of a chat completion call.
type Completion struct {
	Text  string
	Usage Usage
}

// Client abstracts the chat completion provider so callers can be tested
// against a fake without network access.
type Client interface {
	Complete(ctx context.Context, req Request) (Completion, error)
}

// ErrNotConfigured is returned by the placeholder client when no API key
// was provided.
var ErrNotConfigured = errors.New("llm client not configured")

// Unconfigured is the stand-in client used when no provider credentials
// are present; every call fails with ErrNotConfigured.
type Unconfigured struct{}

// Complete returns ErrNotConfigured.
func (Unconfigured) Complete(ctx context.Context, req Request) (Completion, error) {
	_ = ctx
	_ = req
	return Completion{}, ErrNotConfigured
}
