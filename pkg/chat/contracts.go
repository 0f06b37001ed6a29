package chat

import "context"

// CompletionRequest is one text-generation call.
type CompletionRequest struct {
	// System steers the model's behavior for this call.
	System string

	// Prompt is the user-facing content to complete.
	Prompt string

	// MaxTokens caps the response length; zero uses the provider
	// default.
	MaxTokens int

	// Temperature sets sampling randomness; nil uses the provider
	// default.
	Temperature *float64
}

// Completer generates free text from a prompt. It is the lowest-level
// model contract; Classifier and Responder are built on top of it.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// Classifier analyzes user input into a structured Classification.
// Implementations degrade rather than fail: when the model or parsing
// breaks they return DefaultClassification() and a nil error unless
// the failure is one the caller must see.
type Classifier interface {
	Classify(ctx context.Context, text string, extra map[string]any) (Classification, error)
}

// RespondRequest carries everything a Responder needs to write the
// user-facing reply.
type RespondRequest struct {
	// Input is the user text being answered.
	Input string

	// Classification is the normalized analysis of Input.
	Classification Classification

	// Context is the working data gathered for this run, rendered
	// into the prompt as JSON.
	Context map[string]any
}

// Responder generates the user-facing reply for an analyzed input.
type Responder interface {
	Respond(ctx context.Context, req RespondRequest) (string, error)
}

// Notifier delivers a message to an outward channel (webhook, Slack).
// Delivery failures are reported as errors; callers decide whether
// they are fatal.
type Notifier interface {
	Notify(ctx context.Context, channel, text string) error
}

// RouteDecider picks which nested agent should handle a question.
// The result is loosely typed because it comes from a model; callers
// normalize it before routing on it.
type RouteDecider interface {
	DecideRoute(ctx context.Context, question string) (any, error)
}
