// Package assistant adapts hosted LLM APIs to the lesson Q&A assistant.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/noah-isme/lms-api/internal/dto"
)

const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"

	defaultMaxTokens = 1024
)

// ErrEmptyAnswer is returned when a provider responds without any text.
var ErrEmptyAnswer = errors.New("assistant returned no text")

// Provider answers a student's question grounded on a lesson.
type Provider interface {
	Answer(ctx context.Context, question string, lesson dto.LessonContext) (string, error)
	Name() string
}

// Config selects and configures a provider.
type Config struct {
	Provider  string
	APIKey    string
	Model     string
	BaseURL   string
	MaxTokens int
	Timeout   time.Duration
}

// New builds the configured provider. An empty API key yields (nil, nil) so the
// assistant can be disabled without failing startup.
func New(cfg Config) (Provider, error) {
	if cfg.APIKey == "" {
		return nil, nil
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	switch strings.ToLower(cfg.Provider) {
	case "", ProviderAnthropic:
		return NewAnthropic(cfg)
	case ProviderOpenAI:
		return NewOpenAI(cfg)
	default:
		return nil, fmt.Errorf("unknown assistant provider %q", cfg.Provider)
	}
}

const systemPrompt = "You are a teaching assistant for an online course. Answer the student's question " +
	"using the lesson context provided. Be concise and accurate. If the context does not " +
	"cover the question, say so and give a short general explanation."

func userPrompt(question string, lesson dto.LessonContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Course: %s\n", lesson.CourseTitle)
	fmt.Fprintf(&b, "Lesson: %s\n", lesson.LessonTitle)
	fmt.Fprintf(&b, "Lesson content:\n%s\n\n", lesson.LessonContent)
	fmt.Fprintf(&b, "Question: %s", question)
	return b.String()
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
