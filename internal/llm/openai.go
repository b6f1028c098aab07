package llm

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"docqa/internal/domain"
)

// captionPrompt is the fixed instruction sent with every image. It asks for a
// general description and, for charts and graphs, the data and trends shown.
const captionPrompt = "Describe this image in detail. If it's a chart or graph, explain the data and trends shown."

// Client wraps the OpenAI chat API for answer generation and image
// captioning. The same vision-capable model serves both.
type Client struct {
	client    *openai.Client
	model     string
	maxTokens int
}

type Config struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("missing API key")
	}
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		clientConfig.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	model := cfg.Model
	if model == "" {
		model = openai.GPT4o
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	return &Client{
		client:    openai.NewClientWithConfig(clientConfig),
		model:     model,
		maxTokens: maxTokens,
	}, nil
}

// Generate produces an answer for the given chat transcript. Failures are
// returned as *domain.GenerationError with the quota condition distinguished.
func (c *Client) Generate(ctx context.Context, messages []domain.Message) (string, error) {
	chatMessages := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		chatMessages[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     c.model,
		Messages:  chatMessages,
		MaxTokens: c.maxTokens,
	})
	if err != nil {
		return "", Classify(err)
	}
	if len(resp.Choices) == 0 {
		return "", &domain.GenerationError{Kind: domain.GenerationOther, Err: errors.New("empty completion response")}
	}
	return resp.Choices[0].Message.Content, nil
}

// Caption describes one JPEG-encoded image. The caller decides how to recover
// from a failure; a single bad image should not fail a whole ingestion.
func (c *Client) Caption(ctx context.Context, jpegData []byte) (string, error) {
	dataURI := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(jpegData)
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		Messages: []openai.ChatCompletionMessage{{
			Role: openai.ChatMessageRoleUser,
			MultiContent: []openai.ChatMessagePart{
				{Type: openai.ChatMessagePartTypeText, Text: captionPrompt},
				{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{URL: dataURI}},
			},
		}},
	})
	if err != nil {
		return "", Classify(err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty caption response")
	}
	return resp.Choices[0].Message.Content, nil
}
