package assistant

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lms-api/internal/dto"
)

var lesson = dto.LessonContext{CourseTitle: "Go", LessonTitle: "Channels", LessonContent: "Channels connect goroutines."}

func TestNewWithoutKeyDisablesAssistant(t *testing.T) {
	p, err := New(Config{Provider: ProviderAnthropic})
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestNewUnknownProvider(t *testing.T) {
	_, err := New(Config{Provider: "bard", APIKey: "k"})
	assert.Error(t, err)
}

func TestUserPromptIncludesContext(t *testing.T) {
	prompt := userPrompt("What is a channel?", lesson)
	assert.Contains(t, prompt, "Course: Go")
	assert.Contains(t, prompt, "Lesson: Channels")
	assert.Contains(t, prompt, "Channels connect goroutines.")
	assert.Contains(t, prompt, "Question: What is a channel?")
}

func TestAnthropicAnswer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(body), "Channels connect goroutines.")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":          "msg_test",
			"type":        "message",
			"role":        "assistant",
			"content":     []map[string]any{{"type": "text", "text": "A typed conduit."}},
			"model":       "claude-haiku-4-5-20251001",
			"stop_reason": "end_turn",
			"usage":       map[string]any{"input_tokens": 10, "output_tokens": 5},
		})
	}))
	defer server.Close()

	p, err := New(Config{Provider: ProviderAnthropic, APIKey: "test-key", BaseURL: server.URL})
	require.NoError(t, err)
	answer, err := p.Answer(context.Background(), "What is a channel?", lesson)
	require.NoError(t, err)
	assert.Equal(t, "A typed conduit.", answer)
	assert.Equal(t, ProviderAnthropic, p.Name())
}

func TestAnthropicAnswerServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"type":  "error",
			"error": map[string]any{"type": "api_error", "message": "boom"},
		})
	}))
	defer server.Close()

	p, err := NewAnthropic(Config{APIKey: "test-key", BaseURL: server.URL})
	require.NoError(t, err)
	_, err = p.Answer(context.Background(), "q", lesson)
	assert.Error(t, err)
}

func TestOpenAIAnswer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-test",
			"object":  "chat.completion",
			"model":   "gpt-4o-mini",
			"choices": []map[string]any{{"index": 0, "message": map[string]any{"role": "assistant", "content": " Use make(chan T). "}, "finish_reason": "stop"}},
			"usage":   map[string]any{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
		})
	}))
	defer server.Close()

	p, err := New(Config{Provider: ProviderOpenAI, APIKey: "test-key", BaseURL: server.URL})
	require.NoError(t, err)
	answer, err := p.Answer(context.Background(), "How do I create one?", lesson)
	require.NoError(t, err)
	assert.Equal(t, "Use make(chan T).", answer)
}

func TestOpenAIAnswerNoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "x", "choices": []any{}})
	}))
	defer server.Close()

	p, err := NewOpenAI(Config{APIKey: "test-key", BaseURL: server.URL})
	require.NoError(t, err)
	_, err = p.Answer(context.Background(), "q", lesson)
	assert.ErrorIs(t, err, ErrEmptyAnswer)
}
