package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/threadflow/threadflow/pkg/chat"
	tferrors "github.com/threadflow/threadflow/pkg/threadflow/errors"
)

// fakeCompleter records the last request and plays back a scripted
// reply.
type fakeCompleter struct {
	reply string
	err   error
	last  chat.CompletionRequest
	calls int
}

func (f *fakeCompleter) Complete(_ context.Context, req chat.CompletionRequest) (string, error) {
	f.calls++
	f.last = req
	return f.reply, f.err
}

func completionBody(content string) string {
	resp := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	}
	body, _ := json.Marshal(resp)
	return string(body)
}

func fastRetry(attempts int) tferrors.RetryConfig {
	return tferrors.NewRetryConfig(
		tferrors.WithMaxAttempts(attempts),
		tferrors.WithInitialBackoff(time.Millisecond),
		tferrors.WithJitter(0),
	)
}

func TestClientComplete(t *testing.T) {
	ctx := context.Background()

	t.Run("sends system and user messages with auth header", func(t *testing.T) {
		var got completionRequest
		var auth string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)
			require.Equal(t, "/chat/completions", r.URL.Path)
			auth = r.Header.Get("Authorization")
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			fmt.Fprint(w, completionBody("  hello there  "))
		}))
		defer srv.Close()

		client := NewClient("secret", WithBaseURL(srv.URL), WithModel("test-model"))
		text, err := client.Complete(ctx, chat.CompletionRequest{
			System: "be brief",
			Prompt: "say hello",
		})

		require.NoError(t, err)
		assert.Equal(t, "hello there", text, "content is trimmed")
		assert.Equal(t, "Bearer secret", auth)
		assert.Equal(t, "test-model", got.Model)
		require.Len(t, got.Messages, 2)
		assert.Equal(t, chatMessage{Role: "system", Content: "be brief"}, got.Messages[0])
		assert.Equal(t, chatMessage{Role: "user", Content: "say hello"}, got.Messages[1])
		assert.Equal(t, DefaultMaxTokens, got.MaxTokens)
		assert.InDelta(t, DefaultTemperature, got.Temperature, 0.001)
	})

	t.Run("request knobs override client defaults", func(t *testing.T) {
		var got completionRequest
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			fmt.Fprint(w, completionBody("ok"))
		}))
		defer srv.Close()

		temp := 0.2
		client := NewClient("k", WithBaseURL(srv.URL))
		_, err := client.Complete(ctx, chat.CompletionRequest{
			Prompt:      "q",
			MaxTokens:   77,
			Temperature: &temp,
		})

		require.NoError(t, err)
		assert.Equal(t, 77, got.MaxTokens)
		assert.InDelta(t, 0.2, got.Temperature, 0.001)
		require.Len(t, got.Messages, 1, "no system message when System is empty")
		assert.Equal(t, "user", got.Messages[0].Role)
	})

	t.Run("retries transient server errors", func(t *testing.T) {
		calls := 0
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			if calls == 1 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			fmt.Fprint(w, completionBody("recovered"))
		}))
		defer srv.Close()

		client := NewClient("k", WithBaseURL(srv.URL), WithRetry(fastRetry(3)))
		text, err := client.Complete(ctx, chat.CompletionRequest{Prompt: "q"})

		require.NoError(t, err)
		assert.Equal(t, "recovered", text)
		assert.Equal(t, 2, calls)
	})

	t.Run("permanent status fails without retry", func(t *testing.T) {
		calls := 0
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer srv.Close()

		client := NewClient("bad-key", WithBaseURL(srv.URL), WithRetry(fastRetry(3)))
		_, err := client.Complete(ctx, chat.CompletionRequest{Prompt: "q"})

		require.Error(t, err)
		var httpErr *tferrors.HTTPError
		require.ErrorAs(t, err, &httpErr)
		assert.Equal(t, http.StatusUnauthorized, httpErr.StatusCode)
		assert.Equal(t, 1, calls)
	})

	t.Run("API error payload surfaces as error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"error": {"message": "model overloaded"}}`)
		}))
		defer srv.Close()

		client := NewClient("k", WithBaseURL(srv.URL), WithRetry(tferrors.NoRetry))
		_, err := client.Complete(ctx, chat.CompletionRequest{Prompt: "q"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "model overloaded")
	})

	t.Run("empty choices is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"choices": []}`)
		}))
		defer srv.Close()

		client := NewClient("k", WithBaseURL(srv.URL), WithRetry(tferrors.NoRetry))
		_, err := client.Complete(ctx, chat.CompletionRequest{Prompt: "q"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "no choices")
	})
}

func TestClassifier(t *testing.T) {
	ctx := context.Background()

	t.Run("decodes and normalizes model JSON", func(t *testing.T) {
		fc := &fakeCompleter{reply: `{
			"intent": "query_status",
			"entities": {"tasks": ["Launch video"], "dates": [], "people": [], "other": []},
			"action": "check status",
			"confidence": 0.9,
			"response_type": "informational"
		}`}
		classifier := NewClassifier(fc, nil)

		cls, err := classifier.Classify(ctx, "how is the launch video going?", nil)

		require.NoError(t, err)
		assert.Equal(t, chat.IntentQueryStatus, cls.Intent)
		assert.Equal(t, []string{"Launch video"}, cls.Entities.Tasks)
		assert.InDelta(t, 0.9, cls.Confidence, 0.001)
		assert.Contains(t, fc.last.Prompt, "how is the launch video going?")
		assert.Equal(t, classifierMaxTokens, fc.last.MaxTokens)
	})

	t.Run("tolerates sloppy JSON", func(t *testing.T) {
		fc := &fakeCompleter{reply: "```json\n{'intent': 'deadline_inquiry', 'confidence': '0.7', 'response_type': 'informational'}\n```"}
		classifier := NewClassifier(fc, nil)

		cls, err := classifier.Classify(ctx, "what is due?", nil)

		require.NoError(t, err)
		assert.Equal(t, chat.IntentDeadlineInquiry, cls.Intent)
		assert.InDelta(t, 0.7, cls.Confidence, 0.001)
	})

	t.Run("unknown vocabulary is normalized", func(t *testing.T) {
		fc := &fakeCompleter{reply: `{"intent": "make_coffee", "confidence": 3.0, "response_type": "loud"}`}
		classifier := NewClassifier(fc, nil)

		cls, err := classifier.Classify(ctx, "brew one", nil)

		require.NoError(t, err)
		assert.Equal(t, chat.IntentGeneralQuestion, cls.Intent)
		assert.Equal(t, chat.ResponseConversational, cls.ResponseType)
		assert.InDelta(t, 1.0, cls.Confidence, 0.001, "confidence clamps to 1")
	})

	t.Run("model failure degrades to zero-confidence default", func(t *testing.T) {
		fc := &fakeCompleter{err: errors.New("connection refused")}
		classifier := NewClassifier(fc, nil)

		cls, err := classifier.Classify(ctx, "anything", nil)

		require.NoError(t, err, "classification never fails the caller")
		assert.Equal(t, chat.IntentGeneralQuestion, cls.Intent)
		assert.Zero(t, cls.Confidence)
	})

	t.Run("unparseable output degrades to default", func(t *testing.T) {
		fc := &fakeCompleter{reply: "I cannot classify that, sorry!"}
		classifier := NewClassifier(fc, nil)

		cls, err := classifier.Classify(ctx, "anything", nil)

		require.NoError(t, err)
		assert.Equal(t, chat.DefaultClassification(), cls)
	})
}

func TestResponder(t *testing.T) {
	ctx := context.Background()

	t.Run("renders context into the prompt", func(t *testing.T) {
		fc := &fakeCompleter{reply: "You have 2 overdue tasks."}
		responder := NewResponder(fc, nil)

		text, err := responder.Respond(ctx, chat.RespondRequest{
			Input:          "what is overdue?",
			Classification: chat.Classification{Intent: chat.IntentQueryStatus},
			Context:        map[string]any{"summary": map[string]any{"overdue": 2}},
		})

		require.NoError(t, err)
		assert.Equal(t, "You have 2 overdue tasks.", text)
		assert.Contains(t, fc.last.Prompt, "what is overdue?")
		assert.Contains(t, fc.last.Prompt, chat.IntentQueryStatus)
		assert.Contains(t, fc.last.Prompt, `"overdue": 2`)
	})

	t.Run("model failure degrades to fallback reply", func(t *testing.T) {
		fc := &fakeCompleter{err: errors.New("boom")}
		responder := NewResponder(fc, nil)

		text, err := responder.Respond(ctx, chat.RespondRequest{Input: "hi"})

		require.NoError(t, err)
		assert.Equal(t, FallbackReply, text)
	})

	t.Run("blank output degrades to fallback reply", func(t *testing.T) {
		fc := &fakeCompleter{reply: "   \n"}
		responder := NewResponder(fc, nil)

		text, err := responder.Respond(ctx, chat.RespondRequest{Input: "hi"})

		require.NoError(t, err)
		assert.Equal(t, FallbackReply, text)
	})
}

func TestDecider(t *testing.T) {
	ctx := context.Background()

	t.Run("JSON answer comes back as a map", func(t *testing.T) {
		fc := &fakeCompleter{reply: `{"next_agent": "tasks"}`}
		decider := NewDecider(fc, nil)

		result, err := decider.DecideRoute(ctx, "which tasks are late?")

		require.NoError(t, err)
		m, ok := result.(map[string]any)
		require.True(t, ok, "JSON output decodes to a map, got %T", result)
		assert.Equal(t, "tasks", m["next_agent"])
		assert.Contains(t, fc.last.Prompt, "which tasks are late?")
	})

	t.Run("bare label comes back as a string", func(t *testing.T) {
		fc := &fakeCompleter{reply: "general\n"}
		decider := NewDecider(fc, nil)

		result, err := decider.DecideRoute(ctx, "tell me a joke")

		require.NoError(t, err)
		assert.Equal(t, "general", result)
	})

	t.Run("model failure propagates", func(t *testing.T) {
		fc := &fakeCompleter{err: errors.New("timeout")}
		decider := NewDecider(fc, nil)

		_, err := decider.DecideRoute(ctx, "anything")

		require.Error(t, err)
	})
}

func TestClientOptions(t *testing.T) {
	t.Run("base URL trailing slash is trimmed", func(t *testing.T) {
		var path string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path = r.URL.Path
			fmt.Fprint(w, completionBody("ok"))
		}))
		defer srv.Close()

		client := NewClient("k", WithBaseURL(srv.URL+"/"))
		_, err := client.Complete(context.Background(), chat.CompletionRequest{Prompt: "q"})

		require.NoError(t, err)
		assert.False(t, strings.Contains(path, "//"), "path %q has a double slash", path)
	})

	t.Run("empty options keep defaults", func(t *testing.T) {
		client := NewClient("k", WithBaseURL(""), WithModel(""), WithMaxTokens(0))
		assert.Equal(t, DefaultBaseURL, client.baseURL)
		assert.Equal(t, DefaultModel, client.model)
		assert.Equal(t, DefaultMaxTokens, client.maxTokens)
	})
}
