package provider

import (
	"context"
	"log/slog"
	"strings"

	"github.com/threadflow/threadflow/pkg/chat"
	"github.com/threadflow/threadflow/pkg/threadflow/template"
)

const deciderSystem = "You are an AI assistant that decides which agent should handle the user's request."

const deciderPrompt = `You are a supervisor that routes user requests to the right specialist.

The "tasks" specialist handles:
- Project progress and deadline tracking
- Overdue work, task assignments, and team member workloads
- Anything about the task board

The "sheets" specialist handles:
- Questions about uploaded spreadsheets, CSV exports, or tabular data files
- Statistics and summaries computed from those files

Answer "general" when the request fits neither specialist.

Respond with a JSON object: {"next_agent": "tasks"} or {"next_agent": "sheets"} or {"next_agent": "general"}

Only return the JSON object, no additional text.

User request: "${question}"`

const (
	deciderMaxTokens   = 50
	deciderTemperature = 0.0
)

// Decider picks the next agent for a question. It implements
// chat.RouteDecider; the result is whatever shape the model produced,
// which callers normalize before routing on it.
type Decider struct {
	completer chat.Completer
	logger    *slog.Logger
}

// NewDecider builds a route decider over any completer. A nil logger
// falls back to slog.Default().
func NewDecider(completer chat.Completer, logger *slog.Logger) *Decider {
	if logger == nil {
		logger = slog.Default()
	}
	return &Decider{completer: completer, logger: logger}
}

// DecideRoute implements chat.RouteDecider. The returned value is a
// map when the model produced JSON, or the raw trimmed text when it
// answered with a bare label.
func (d *Decider) DecideRoute(ctx context.Context, question string) (any, error) {
	prompt := template.Expand(deciderPrompt, map[string]any{"question": question})

	temp := deciderTemperature
	content, err := d.completer.Complete(ctx, chat.CompletionRequest{
		System:      deciderSystem,
		Prompt:      prompt,
		MaxTokens:   deciderMaxTokens,
		Temperature: &temp,
	})
	if err != nil {
		return nil, err
	}

	if parsed, err := chat.ParseAs[map[string]any](content); err == nil {
		return parsed, nil
	}
	// Some models skip the JSON and answer with the label itself.
	return strings.TrimSpace(content), nil
}
