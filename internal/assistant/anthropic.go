package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/noah-isme/lms-api/internal/dto"
)

const defaultAnthropicModel = "claude-haiku-4-5-20251001"

// Anthropic answers questions through the Messages API.
type Anthropic struct {
	client    *anthropic.Client
	model     string
	maxTokens int
	timeout   time.Duration
}

// NewAnthropic constructs an Anthropic-backed provider.
func NewAnthropic(cfg Config) (*Anthropic, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	client := anthropic.NewClient(opts...)
	model := cfg.Model
	if model == "" {
		model = defaultAnthropicModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	return &Anthropic{client: &client, model: model, maxTokens: maxTokens, timeout: cfg.Timeout}, nil
}

// Name implements Provider.
func (p *Anthropic) Name() string { return ProviderAnthropic }

// Answer implements Provider.
func (p *Anthropic) Answer(ctx context.Context, question string, lesson dto.LessonContext) (string, error) {
	ctx, cancel := withTimeout(ctx, p.timeout)
	defer cancel()

	msg, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: int64(p.maxTokens),
		System:    []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt(question, lesson))),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic messages: %w", err)
	}

	var parts []string
	for _, block := range msg.Content {
		if block.Type == "text" && block.Text != "" {
			parts = append(parts, block.Text)
		}
	}
	if len(parts) == 0 {
		return "", ErrEmptyAnswer
	}
	return strings.Join(parts, "\n"), nil
}
