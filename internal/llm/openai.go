package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/voiceline/callrelay/internal/metrics"
	"github.com/voiceline/callrelay/internal/prompts"
	"github.com/voiceline/callrelay/internal/session"
)

// ErrEmptyCompletion is returned when the API answers successfully but with
// no usable assistant text.
var ErrEmptyCompletion = errors.New("empty completion")

// OpenAIClient issues chat completions through the OpenAI API.
type OpenAIClient struct {
	client    openai.Client
	model     string
	maxTokens int64
	timeout   time.Duration
}

// NewOpenAIClient creates an OpenAI chat client. baseURL overrides the API
// endpoint when non-empty (compatible gateways, tests).
func NewOpenAIClient(apiKey, baseURL, model string, maxTokens int, timeout time.Duration) *OpenAIClient {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAIClient{
		client:    openai.NewClient(opts...),
		model:     model,
		maxTokens: int64(maxTokens),
		timeout:   timeout,
	}
}

// ChatTurn sends the full history as conversation context and returns the
// single next assistant utterance.
func (c *OpenAIClient) ChatTurn(ctx context.Context, history []session.Message) (string, error) {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(history))
	for _, m := range history {
		switch m.Role {
		case session.RoleSystem:
			msgs = append(msgs, openai.SystemMessage(m.Text))
		case session.RoleAssistant:
			msgs = append(msgs, openai.AssistantMessage(m.Text))
		default:
			msgs = append(msgs, openai.UserMessage(m.Text))
		}
	}
	return c.complete(ctx, "llm", msgs)
}

// Summarize runs a one-shot completion over the summarization instruction
// plus the raw transcript.
func (c *OpenAIClient) Summarize(ctx context.Context, transcript string) (string, error) {
	return c.complete(ctx, "summarize", []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(prompts.SummaryInstruction),
		openai.UserMessage(transcript),
	})
}

func (c *OpenAIClient) complete(ctx context.Context, stage string, msgs []openai.ChatCompletionMessageParamUnion) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:               openai.ChatModel(c.model),
		Messages:            msgs,
		MaxCompletionTokens: openai.Int(c.maxTokens),
		Temperature:         openai.Float(0.7),
	})
	metrics.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.Errors.WithLabelValues(stage, "http").Inc()
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		metrics.Errors.WithLabelValues(stage, "payload").Inc()
		return "", ErrEmptyCompletion
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		metrics.Errors.WithLabelValues(stage, "payload").Inc()
		return "", ErrEmptyCompletion
	}
	return text, nil
}
