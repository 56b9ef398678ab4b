package groq

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"coverletter-backend/internal/llm"
)

const (
	defaultBaseURL = "https://api.groq.com/openai/v1"
	defaultTimeout = 120 * time.Second
)

// Client implements llm.Client against the Groq chat completions API,
// which speaks the OpenAI wire protocol.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs a Groq client. baseURL and timeout fall back to
// defaults when zero-valued.
func NewClient(apiKey, baseURL string, timeout time.Duration) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("GROQ_API_KEY is required")
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// chatMessage content is either a plain string or a []contentPart array
// when an image rides along.
type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float32       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	TopP        float32       `json:"top_p"`
	Stop        []string      `json:"stop"`
	Stream      bool          `json:"stream"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage,omitempty"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Complete issues one non-streaming chat completion call with the fixed
// sampling parameters. It never retries.
func (c *Client) Complete(ctx context.Context, req llm.Request) (llm.Completion, error) {
	if strings.TrimSpace(req.Model) == "" {
		return llm.Completion{}, fmt.Errorf("groq: model is required")
	}
	if len(req.Messages) == 0 {
		return llm.Completion{}, fmt.Errorf("groq: messages are required")
	}

	messages := make([]chatMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, toWireMessage(m))
	}
	payload, err := json.Marshal(chatRequest{
		Model:       req.Model,
		Messages:    messages,
		Temperature: llm.Temperature,
		MaxTokens:   llm.MaxTokens,
		TopP:        llm.TopP,
		Stop:        nil,
		Stream:      false,
	})
	if err != nil {
		return llm.Completion{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return llm.Completion{}, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return llm.Completion{}, fmt.Errorf("groq request timeout: %w", err)
		}
		return llm.Completion{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return llm.Completion{}, err
	}

	var parsed chatResponse
	if resp.StatusCode != http.StatusOK {
		if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error != nil {
			return llm.Completion{}, fmt.Errorf("groq error: %s (%s)", parsed.Error.Message, parsed.Error.Type)
		}
		return llm.Completion{}, fmt.Errorf("groq http %d: %s", resp.StatusCode, truncateBody(body))
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return llm.Completion{}, fmt.Errorf("groq response parse: %w", err)
	}
	if parsed.Error != nil {
		return llm.Completion{}, fmt.Errorf("groq error: %s (%s)", parsed.Error.Message, parsed.Error.Type)
	}
	if len(parsed.Choices) == 0 {
		return llm.Completion{}, fmt.Errorf("groq response missing choices")
	}

	content := parsed.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return llm.Completion{}, fmt.Errorf("groq response empty content")
	}

	completion := llm.Completion{Text: content}
	if parsed.Usage != nil {
		completion.Usage = llm.Usage{
			PromptTokens:     parsed.Usage.PromptTokens,
			CompletionTokens: parsed.Usage.CompletionTokens,
			TotalTokens:      parsed.Usage.TotalTokens,
		}
	}
	return completion, nil
}

func toWireMessage(m llm.Message) chatMessage {
	if m.Image == nil {
		return chatMessage{Role: m.Role, Content: m.Text}
	}
	parts := []contentPart{
		{Type: "text", Text: m.Text},
		{Type: "image_url", ImageURL: &imageURL{URL: dataURL(*m.Image)}},
	}
	return chatMessage{Role: m.Role, Content: parts}
}

func dataURL(img llm.Image) string {
	mime := img.MIME
	if mime == "" {
		mime = "image/jpeg"
	}
	return "data:" + mime + ";base64," + img.Base64
}

func truncateBody(body []byte) string {
	const maxLen = 200
	trimmed := strings.TrimSpace(string(body))
	if len(trimmed) > maxLen {
		return trimmed[:maxLen]
	}
	return trimmed
}

var _ llm.Client = (*Client)(nil)
