package llm

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

// ReplyGenerator produces the assistant's reply for turns the phase machine
// has no script for.
type ReplyGenerator interface {
	Reply(ctx context.Context, contextSummary, utterance string) string
}

const fallbackReply = "I can help you find and schedule a meeting. How long should it be? You can say something like '1 hour' or '30 minutes'."

// StaticReplier always answers with the scripted prompt. It is the zero-cost
// path when no model is configured.
type StaticReplier struct{}

func (StaticReplier) Reply(_ context.Context, _, _ string) string { return fallbackReply }

const replySystemPrompt = `You are a warm, concise meeting scheduling assistant.
Answer in at most two sentences and always steer the conversation back to
scheduling: you need a meeting duration, then day and time preferences.
Never invent calendar contents or availability.`

type OpenAIReplier struct {
	client *openai.Client
	model  string
	logger *slog.Logger
}

func NewOpenAIReplier(cfg Config, logger *slog.Logger) *OpenAIReplier {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAIReplier{client: openai.NewClientWithConfig(clientConfig), model: model, logger: logger}
}

func (r *OpenAIReplier) Reply(ctx context.Context, contextSummary, utterance string) string {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       r.model,
		Temperature: 0.7,
		MaxTokens:   200,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: replySystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: "Context: " + contextSummary + "\nUser: " + utterance},
		},
	})
	if err != nil {
		r.logger.Warn("llm reply failed, using scripted prompt", "err", err)
		return fallbackReply
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return fallbackReply
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content)
}
