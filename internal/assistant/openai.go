package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/noah-isme/lms-api/internal/dto"
)

const defaultOpenAIModel = openai.GPT4oMini

// OpenAI answers questions through the chat completions API. BaseURL allows any
// OpenAI-compatible endpoint.
type OpenAI struct {
	client    *openai.Client
	model     string
	maxTokens int
	timeout   time.Duration
}

// NewOpenAI constructs an OpenAI-backed provider.
func NewOpenAI(cfg Config) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}
	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultOpenAIModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	return &OpenAI{client: openai.NewClientWithConfig(config), model: model, maxTokens: maxTokens, timeout: cfg.Timeout}, nil
}

// Name implements Provider.
func (p *OpenAI) Name() string { return ProviderOpenAI }

// Answer implements Provider.
func (p *OpenAI) Answer(ctx context.Context, question string, lesson dto.LessonContext) (string, error) {
	ctx, cancel := withTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:               p.model,
		MaxCompletionTokens: p.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt(question, lesson)},
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyAnswer
	}
	answer := strings.TrimSpace(resp.Choices[0].Message.Content)
	if answer == "" {
		return "", ErrEmptyAnswer
	}
	return answer, nil
}
