package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const defaultOllamaURL = "http://localhost:11434"

// OpenAI implements Client for OpenAI and for OpenAI-compatible local
// servers (Ollama, LM Studio).
type OpenAI struct {
	client *openai.Client
	model  string
	name   string
}

// NewOpenAI creates a new OpenAI provider.
func NewOpenAI(model string) (*OpenAI, error) {
	key := os.Getenv("OPENAI_API_KEY")
	if key == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable is not set")
	}
	return newOpenAI("openai", key, os.Getenv("GLEAN_OPENAI_BASE_URL"), model,
		&http.Client{Timeout: 120 * time.Second}), nil
}

// NewOllama creates a provider for an Ollama or LM Studio server.
// No API key is required by default.
func NewOllama(model string) (*OpenAI, error) {
	// Optional API key for servers that require it (e.g., LM Studio)
	key := os.Getenv("GLEAN_OLLAMA_API_KEY")
	return newOpenAI("ollama", key, ollamaBaseURL(os.Getenv("OLLAMA_HOST")), model,
		&http.Client{Timeout: 300 * time.Second}), nil
}

// ollamaBaseURL normalizes OLLAMA_HOST to the OpenAI-compatible /v1 root.
func ollamaBaseURL(host string) string {
	if host == "" {
		host = defaultOllamaURL
	}
	if !strings.Contains(host, "://") {
		host = "http://" + host
	}
	host = strings.TrimRight(host, "/")
	host = strings.TrimSuffix(host, "/v1/chat/completions")
	host = strings.TrimSuffix(host, "/v1")
	return host + "/v1"
}

func newOpenAI(name, key, baseURL, model string, hc *http.Client) *OpenAI {
	cfg := openai.DefaultConfig(key)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	cfg.HTTPClient = hc
	return &OpenAI{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		name:   name,
	}
}

func (o *OpenAI) Name() string { return o.name }

func (o *OpenAI) Complete(ctx context.Context, req Request) (Response, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.SystemMessages)+1)
	for _, s := range req.SystemMessages {
		if s == "" {
			continue
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: s})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.Prompt})

	chatReq := openai.ChatCompletionRequest{
		Model:       modelFor(req, o.model),
		Messages:    messages,
		Temperature: float32(req.Temperature),
	}
	// Local servers still expect the older max_tokens field.
	if o.name == "openai" {
		chatReq.MaxCompletionTokens = maxTokens(req)
	} else {
		chatReq.MaxTokens = maxTokens(req)
	}

	resp, err := o.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return Response{}, o.classify(err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return Response{}, fmt.Errorf("%s: %w", o.name, ErrEmptyResponse)
	}

	return Response{
		Content:    resp.Choices[0].Message.Content,
		TokensUsed: resp.Usage.TotalTokens,
	}, nil
}

func (o *OpenAI) classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return classifyStatus(o.name, apiErr.HTTPStatusCode, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return classifyStatus(o.name, reqErr.HTTPStatusCode, err)
	}
	return fmt.Errorf("%s: %w", o.name, err)
}
