package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/meetwise-labs/meetwise/services/assistant-service/internal/nlp"
)

// Extractor pulls scheduling details out of one user utterance.
type Extractor interface {
	Extract(ctx context.Context, utterance string, contextSummary string, now time.Time) nlp.Extracted
}

// RuleExtractor is the no-LLM path: the regex parser alone.
type RuleExtractor struct{}

func (RuleExtractor) Extract(_ context.Context, utterance, _ string, now time.Time) nlp.Extracted {
	return nlp.Parse(utterance, now)
}

// OpenAIExtractor asks a chat model for a structured extraction and falls
// back to the rule-based parser when the model is unreachable or returns
// garbage. Rule-based results for duration and target date win over the
// model's; the model fills the gaps the regexes cannot see.
type OpenAIExtractor struct {
	client *openai.Client
	model  string
	logger *slog.Logger
}

type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

func NewOpenAIExtractor(cfg Config, logger *slog.Logger) *OpenAIExtractor {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAIExtractor{
		client: openai.NewClientWithConfig(clientConfig),
		model:  model,
		logger: logger,
	}
}

const extractSystemPrompt = `You extract meeting scheduling details from one user message.
Return only a JSON object with this exact shape:
{
  "duration_minutes": 0,
  "days": ["monday"],
  "times": ["morning"],
  "constraints": ["not_early", "not_late", "not_on:friday"],
  "target_date": "YYYY-MM-DD or empty string",
  "intent": "schedule|select_slot|alternatives|unknown"
}
Use 0 or empty lists for anything the message does not state.
days are lowercase weekday names. times are morning, afternoon or evening.
"quick chat" means 15 minutes, "sync" means 30 minutes.`

type extractPayload struct {
	DurationMinutes int      `json:"duration_minutes"`
	Days            []string `json:"days"`
	Times           []string `json:"times"`
	Constraints     []string `json:"constraints"`
	TargetDate      string   `json:"target_date"`
	Intent          string   `json:"intent"`
}

func (e *OpenAIExtractor) Extract(ctx context.Context, utterance, contextSummary string, now time.Time) nlp.Extracted {
	ruled := nlp.Parse(utterance, now)

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       e.model,
		Temperature: 0,
		MaxTokens:   300,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: extractSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf("Context: %s\nToday: %s\nMessage: %s",
				contextSummary, now.Format("Monday 2006-01-02"), utterance)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		e.logger.Warn("llm extraction failed, using rule-based parse", "err", err)
		return ruled
	}
	if len(resp.Choices) == 0 {
		return ruled
	}

	payload, err := parsePayload(resp.Choices[0].Message.Content)
	if err != nil {
		e.logger.Warn("llm extraction unparseable, using rule-based parse", "err", err)
		return ruled
	}
	return mergeExtractions(ruled, payload, now)
}

func parsePayload(content string) (extractPayload, error) {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```") {
		re := regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)\\s*```")
		if m := re.FindStringSubmatch(content); len(m) > 1 {
			content = m[1]
		}
	}
	var payload extractPayload
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return extractPayload{}, err
	}
	return payload, nil
}

func mergeExtractions(ruled nlp.Extracted, payload extractPayload, now time.Time) nlp.Extracted {
	out := ruled
	if out.DurationMinutes == 0 && payload.DurationMinutes > 0 {
		out.DurationMinutes = payload.DurationMinutes
	}
	for _, d := range payload.Days {
		d = strings.ToLower(strings.TrimSpace(d))
		if validWeekday(d) && !containsString(out.Days, d) {
			out.Days = append(out.Days, d)
		}
	}
	for _, t := range payload.Times {
		t = strings.ToLower(strings.TrimSpace(t))
		if (t == "morning" || t == "afternoon" || t == "evening") && !containsString(out.Times, t) {
			out.Times = append(out.Times, t)
		}
	}
	for _, c := range payload.Constraints {
		c = strings.ToLower(strings.TrimSpace(c))
		if validConstraint(c) && !containsString(out.Constraints, c) {
			out.Constraints = append(out.Constraints, c)
		}
	}
	if out.TargetDate == nil && payload.TargetDate != "" {
		if target, err := time.ParseInLocation("2006-01-02", payload.TargetDate, now.Location()); err == nil {
			out.TargetDate = &target
		}
	}
	if out.Intent == nlp.IntentUnknown {
		switch nlp.Intent(payload.Intent) {
		case nlp.IntentSchedule, nlp.IntentSelectSlot, nlp.IntentAlternatives:
			out.Intent = nlp.Intent(payload.Intent)
		}
	}
	return out
}

func validWeekday(s string) bool {
	switch s {
	case "monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday":
		return true
	}
	return false
}

func validConstraint(s string) bool {
	if s == "not_early" || s == "not_late" {
		return true
	}
	return strings.HasPrefix(s, "not_on:") && validWeekday(strings.TrimPrefix(s, "not_on:"))
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
