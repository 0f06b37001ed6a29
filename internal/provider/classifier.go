package provider

import (
	"context"
	"log/slog"

	"github.com/threadflow/threadflow/pkg/chat"
	"github.com/threadflow/threadflow/pkg/threadflow/template"
)

const classifierSystem = "You are an AI assistant that analyzes user messages and returns structured JSON responses."

const classifierPrompt = `You are an AI assistant that analyzes user messages in a project management context.

User message: "${message}"

Context: ${context}

Analyze the message and determine:
1. Intent: one of query_status, update_task, general_question, deadline_inquiry, team_interaction
2. Entities mentioned: task names, dates, people, or anything else
3. Required action, if any
4. Confidence level from 0.0 to 1.0
5. Response type: informational, actionable, or conversational

Respond with a JSON object:
{
  "intent": "query_status",
  "entities": {"tasks": [], "dates": [], "people": [], "other": []},
  "action": "check overdue tasks",
  "confidence": 0.8,
  "response_type": "informational"
}

Only return the JSON object, no additional text.`

// Classification calls run cool and short: the output is JSON, not prose.
const (
	classifierMaxTokens   = 300
	classifierTemperature = 0.3
)

// Classifier analyzes user input with a completion model. It
// implements chat.Classifier and degrades instead of failing: a model
// error or unparseable output yields the default classification and a
// nil error.
type Classifier struct {
	completer chat.Completer
	logger    *slog.Logger
}

// NewClassifier builds a classifier over any completer. A nil logger
// falls back to slog.Default().
func NewClassifier(completer chat.Completer, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{completer: completer, logger: logger}
}

// Classify implements chat.Classifier.
func (c *Classifier) Classify(ctx context.Context, text string, extra map[string]any) (chat.Classification, error) {
	prompt := template.Expand(classifierPrompt, map[string]any{
		"message": text,
		"context": template.JSON(extra),
	})

	temp := classifierTemperature
	content, err := c.completer.Complete(ctx, chat.CompletionRequest{
		System:      classifierSystem,
		Prompt:      prompt,
		MaxTokens:   classifierMaxTokens,
		Temperature: &temp,
	})
	if err != nil {
		c.logger.Warn("classification call failed, using default", "error", err)
		fallback := chat.DefaultClassification()
		fallback.Confidence = 0
		return fallback, nil
	}

	raw, err := chat.ParseAs[map[string]any](content)
	if err != nil {
		c.logger.Warn("classification output is not valid JSON, using default", "error", err)
		return chat.DefaultClassification(), nil
	}
	cls, err := chat.DecodeClassification(raw)
	if err != nil {
		c.logger.Warn("classification output has unexpected shape, using default", "error", err)
		return chat.DefaultClassification(), nil
	}
	return cls.Normalize(), nil
}
