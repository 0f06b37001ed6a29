package provider

import (
	"context"
	"log/slog"
	"strings"

	"github.com/threadflow/threadflow/pkg/chat"
	"github.com/threadflow/threadflow/pkg/threadflow/template"
)

const responderSystem = "You are a helpful project management assistant."

const responderPrompt = `You are a helpful assistant for a project management workspace.

User message: "${message}"
Detected intent: ${intent}
Extracted entities: ${entities}

Available context data:
${context}

Based on the intent and the context data, generate a helpful response.

Guidelines:
- Be friendly and professional
- When asked about tasks or deadlines, use the exact names and figures from the context data
- If the context is insufficient to answer, ask a clarifying question
- Keep the response concise but informative

Generate only the response message, no additional text.`

// FallbackReply is returned when the model cannot produce a response.
// Generation problems degrade to this text instead of propagating.
const FallbackReply = "I'm sorry, I ran into a problem while handling your request. Please try again later."

// Responder writes user-facing replies with a completion model. It
// implements chat.Responder and never returns an error: generation
// failures degrade to FallbackReply.
type Responder struct {
	completer chat.Completer
	logger    *slog.Logger
}

// NewResponder builds a responder over any completer. A nil logger
// falls back to slog.Default().
func NewResponder(completer chat.Completer, logger *slog.Logger) *Responder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Responder{completer: completer, logger: logger}
}

// Respond implements chat.Responder.
func (r *Responder) Respond(ctx context.Context, req chat.RespondRequest) (string, error) {
	prompt := template.Expand(responderPrompt, map[string]any{
		"message":  req.Input,
		"intent":   req.Classification.Intent,
		"entities": template.JSON(req.Classification.Entities),
		"context":  template.JSON(req.Context),
	})

	content, err := r.completer.Complete(ctx, chat.CompletionRequest{
		System: responderSystem,
		Prompt: prompt,
	})
	if err != nil {
		r.logger.Warn("response generation failed, using fallback", "error", err)
		return FallbackReply, nil
	}
	if strings.TrimSpace(content) == "" {
		r.logger.Warn("response generation returned empty text, using fallback")
		return FallbackReply, nil
	}
	return content, nil
}
