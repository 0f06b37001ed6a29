package chat

import (
	"encoding/json"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	tferrors "github.com/threadflow/threadflow/pkg/threadflow/errors"
)

// ParseAs recovers a value of type T from model output that should be
// JSON but often is not quite: wrapped in prose or code fences, using
// single quotes, missing commas. Parsing is attempted in order of
// increasing tolerance:
//
//  1. unmarshal the trimmed content directly
//  2. repair the content with jsonrepair and unmarshal again
//  3. unwrap schema-shaped {"type": ..., "value": ...} fields, a
//     common model confusion between a schema and an instance
//
// Failure after all three returns a *errors.JSONParseError carrying
// the original content.
func ParseAs[T any](content string) (T, error) {
	var out T
	trimmed := strings.TrimSpace(content)

	if err := json.Unmarshal([]byte(trimmed), &out); err == nil {
		return out, nil
	}

	repaired, err := jsonrepair.JSONRepair(trimmed)
	if err != nil {
		var zero T
		return zero, &tferrors.JSONParseError{Input: content, Message: "content is not repairable JSON: " + err.Error()}
	}
	// Fresh targets for each retry: a failed unmarshal can leave
	// fields from the attempt partially written.
	var fromRepair T
	if err := json.Unmarshal([]byte(repaired), &fromRepair); err == nil {
		return fromRepair, nil
	}

	unwrapped, ok := unwrapSchemaValues(repaired)
	if ok {
		var zero T
		if err := json.Unmarshal([]byte(unwrapped), &zero); err == nil {
			return zero, nil
		}
	}

	var zero T
	return zero, &tferrors.JSONParseError{Input: content, Message: "repaired JSON does not match target shape"}
}

// unwrapSchemaValues rewrites {"field": {"type": "string", "value": "x"}}
// into {"field": "x"} recursively. Reports false when the content is
// not valid JSON or re-marshaling fails.
func unwrapSchemaValues(content string) (string, bool) {
	var data any
	if err := json.Unmarshal([]byte(content), &data); err != nil {
		return "", false
	}
	out, err := json.Marshal(unwrapValue(data))
	if err != nil {
		return "", false
	}
	return string(out), true
}

func unwrapValue(data any) any {
	switch v := data.(type) {
	case map[string]any:
		if value, ok := v["value"]; ok {
			if _, hasType := v["type"]; hasType && len(v) == 2 {
				return unwrapValue(value)
			}
		}
		out := make(map[string]any, len(v))
		for k, val := range v {
			out[k] = unwrapValue(val)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, val := range v {
			out[i] = unwrapValue(val)
		}
		return out
	default:
		return data
	}
}
