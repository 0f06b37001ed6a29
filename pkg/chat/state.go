package chat

import (
	"github.com/threadflow/threadflow/pkg/threadflow"
)

// State is the conversation state threaded through agent graphs. It is
// passed by value; methods that change it return a new State and leave
// the receiver untouched, so a node can never mutate what an earlier
// node observed.
//
// OutputText is written by exactly one node per run: the response
// generator on the happy path, or the error node after a fault.
type State struct {
	// Messages is the transcript so far, oldest first.
	Messages []Message `json:"messages"`

	// InputText is the raw text being handled this run.
	InputText string `json:"input_text"`

	// Classification is the analysis of InputText, nil until the
	// analyze node has run.
	Classification *Classification `json:"classification,omitempty"`

	// WorkingData holds scratch values gathered for response
	// generation (task lists, summaries, file stats).
	WorkingData map[string]any `json:"working_data,omitempty"`

	// OutputText is the response to hand back to the caller.
	OutputText string `json:"output_text,omitempty"`

	// SideEffect records the outcome of any outward action taken
	// during the run, such as "notification_sent".
	SideEffect string `json:"side_effect,omitempty"`

	// Extra carries caller-supplied context that survives the run
	// unchanged (channel IDs, user metadata).
	Extra map[string]any `json:"extra,omitempty"`

	// Failure is the fault recorded by the node that failed, nil on
	// a clean run.
	Failure *threadflow.Fault `json:"failure,omitempty"`
}

// NewState builds the state for a fresh run: the input recorded both
// as InputText and as a user message appended to the transcript.
func NewState(input string, extra map[string]any) State {
	return State{
		Messages:  []Message{UserMessage(input)},
		InputText: input,
		Extra:     extra,
	}
}

// Fault implements threadflow.State.
func (s State) Fault() *threadflow.Fault { return s.Failure }

// WithFault implements threadflow.State.
func (s State) WithFault(f *threadflow.Fault) State {
	s.Failure = f
	return s
}

// AppendUser returns a copy of the state with a user message added to
// the transcript and InputText updated for the new run.
func (s State) AppendUser(text string) State {
	s.Messages = appendMessage(s.Messages, UserMessage(text))
	s.InputText = text
	return s
}

// AppendAssistant returns a copy of the state with an assistant
// message added to the transcript.
func (s State) AppendAssistant(text string) State {
	s.Messages = appendMessage(s.Messages, AssistantMessage(text))
	return s
}

// WithWorkingValue returns a copy of the state with key set in
// WorkingData. The original map is not touched.
func (s State) WithWorkingValue(key string, value any) State {
	wd := make(map[string]any, len(s.WorkingData)+1)
	for k, v := range s.WorkingData {
		wd[k] = v
	}
	wd[key] = value
	s.WorkingData = wd
	return s
}

// LastUserMessage returns the content of the most recent user message,
// or the empty string when the transcript has none. Nodes use it as
// the input source when InputText is empty.
func (s State) LastUserMessage() string {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == RoleUser {
			return s.Messages[i].Content
		}
	}
	return ""
}

// TrimHistory returns a copy of the state keeping only the last max
// messages. A non-positive max clears the transcript.
func (s State) TrimHistory(max int) State {
	if max <= 0 {
		s.Messages = nil
		return s
	}
	if len(s.Messages) <= max {
		return s
	}
	trimmed := make([]Message, max)
	copy(trimmed, s.Messages[len(s.Messages)-max:])
	s.Messages = trimmed
	return s
}

// appendMessage appends onto a fresh backing array so states sharing
// history never observe each other's appends.
func appendMessage(msgs []Message, m Message) []Message {
	out := make([]Message, len(msgs), len(msgs)+1)
	copy(out, msgs)
	return append(out, m)
}
