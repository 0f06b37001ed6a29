package chat

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Intents a classifier may assign to user input.
const (
	IntentQueryStatus     = "query_status"
	IntentUpdateTask      = "update_task"
	IntentGeneralQuestion = "general_question"
	IntentDeadlineInquiry = "deadline_inquiry"
	IntentTeamInteraction = "team_interaction"
)

// Response types describing what kind of reply the input calls for.
const (
	ResponseInformational  = "informational"
	ResponseActionable     = "actionable"
	ResponseConversational = "conversational"
)

// Entities are the names a classifier extracted from user input,
// grouped by kind. All groups may be empty.
type Entities struct {
	Tasks  []string `json:"tasks,omitempty" mapstructure:"tasks"`
	Dates  []string `json:"dates,omitempty" mapstructure:"dates"`
	People []string `json:"people,omitempty" mapstructure:"people"`
	Other  []string `json:"other,omitempty" mapstructure:"other"`
}

// Classification is the structured analysis of one piece of user
// input: what the user wants, what they named, and what kind of
// response is appropriate.
type Classification struct {
	Intent       string   `json:"intent" mapstructure:"intent"`
	Confidence   float64  `json:"confidence" mapstructure:"confidence"`
	Entities     Entities `json:"entities" mapstructure:"entities"`
	Action       string   `json:"action,omitempty" mapstructure:"action"`
	ResponseType string   `json:"response_type" mapstructure:"response_type"`
}

// DefaultClassification is the fallback used when analysis fails: a
// low-confidence general question answered conversationally.
func DefaultClassification() Classification {
	return Classification{
		Intent:       IntentGeneralQuestion,
		Confidence:   0.5,
		Action:       "provide general response",
		ResponseType: ResponseConversational,
	}
}

// NeedsData reports whether the intent requires board data to answer.
func (c Classification) NeedsData() bool {
	switch c.Intent {
	case IntentQueryStatus, IntentDeadlineInquiry, IntentUpdateTask:
		return true
	}
	return false
}

// IsActionable reports whether the response should trigger an outward
// action after being generated.
func (c Classification) IsActionable() bool {
	return c.ResponseType == ResponseActionable
}

// Normalize replaces values outside the known vocabularies with safe
// defaults and clamps confidence into [0, 1]. Model output goes
// through this before anything routes on it.
func (c Classification) Normalize() Classification {
	switch c.Intent {
	case IntentQueryStatus, IntentUpdateTask, IntentGeneralQuestion,
		IntentDeadlineInquiry, IntentTeamInteraction:
	default:
		c.Intent = IntentGeneralQuestion
	}
	switch c.ResponseType {
	case ResponseInformational, ResponseActionable, ResponseConversational:
	default:
		c.ResponseType = ResponseConversational
	}
	if c.Confidence < 0 {
		c.Confidence = 0
	}
	if c.Confidence > 1 {
		c.Confidence = 1
	}
	return c
}

// DecodeClassification converts a loosely typed map, as recovered from
// model JSON, into a Classification. Decoding is weakly typed so a
// confidence of "0.8" or an intent of any scalar still lands; the
// result is not normalized.
func DecodeClassification(raw map[string]any) (Classification, error) {
	var c Classification
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &c,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return Classification{}, fmt.Errorf("building classification decoder: %w", err)
	}
	if err := dec.Decode(raw); err != nil {
		return Classification{}, fmt.Errorf("decoding classification: %w", err)
	}
	return c, nil
}
