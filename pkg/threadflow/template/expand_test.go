package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpand(t *testing.T) {
	vars := map[string]any{
		"name":       "World",
		"greeting":   "Hello",
		"confidence": 0.85,
		"enabled":    true,
		"my_var":     "value",
		"var1":       "one",
		"_private":   "secret",
	}

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"single placeholder", "Hello ${name}", "Hello World"},
		{"two placeholders", "${greeting} ${name}!", "Hello World!"},
		{"placeholder at start", "${greeting}, friend", "Hello, friend"},
		{"placeholder at end", "say ${greeting}", "say Hello"},
		{"adjacent placeholders", "${greeting}${name}", "HelloWorld"},
		{"repeated placeholder", "${name} and ${name}", "World and World"},
		{"float value", "confidence: ${confidence}", "confidence: 0.85"},
		{"bool value", "enabled: ${enabled}", "enabled: true"},
		{"underscore in name", "${my_var}", "value"},
		{"digit in name", "${var1}", "one"},
		{"leading underscore", "${_private}", "secret"},
		{"no placeholders", "plain text", "plain text"},
		{"empty input", "", ""},
		{"unknown kept", "Hello ${missing}", "Hello ${missing}"},
		{"bare dollar untouched", "$name costs $100", "$name costs $100"},
		{"empty braces untouched", "${}", "${}"},
		{"name starting with digit untouched", "${1abc}", "${1abc}"},
		{"multiline", "a: ${greeting}\nb: ${name}", "a: Hello\nb: World"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Expand(tt.input, vars))
		})
	}

	t.Run("nil vars keeps placeholders", func(t *testing.T) {
		assert.Equal(t, "Hello ${name}", Expand("Hello ${name}", nil))
	})

	t.Run("no recursive expansion", func(t *testing.T) {
		// A value that itself looks like a placeholder stays literal.
		out := Expand("${outer}", map[string]any{"outer": "${inner}", "inner": "value"})
		assert.Equal(t, "${inner}", out)
	})
}

func TestExpander_MissingPolicies(t *testing.T) {
	t.Run("default keeps placeholder", func(t *testing.T) {
		out, err := New().Expand("Hello ${missing}", nil)
		require.NoError(t, err)
		assert.Equal(t, "Hello ${missing}", out)
	})

	t.Run("DropMissing removes placeholder", func(t *testing.T) {
		out, err := New(DropMissing()).Expand("Hello ${missing}!", nil)
		require.NoError(t, err)
		assert.Equal(t, "Hello !", out)
	})

	t.Run("FailOnMissing wraps ErrUndefined", func(t *testing.T) {
		out, err := New(FailOnMissing()).Expand("Hello ${missing}", nil)
		require.ErrorIs(t, err, ErrUndefined)
		assert.Contains(t, err.Error(), "missing")
		assert.Equal(t, "Hello ${missing}", out)
	})

	t.Run("FailOnMissing names each variable once", func(t *testing.T) {
		_, err := New(FailOnMissing()).Expand("${a} ${b} ${a}", nil)
		require.ErrorIs(t, err, ErrUndefined)
		assert.Equal(t, "undefined variable: a\nundefined variable: b", err.Error())
	})

	t.Run("FailOnMissing with partial vars", func(t *testing.T) {
		out, err := New(FailOnMissing()).Expand("${found} ${missing}", map[string]any{"found": "yes"})
		require.ErrorIs(t, err, ErrUndefined)
		assert.Contains(t, err.Error(), "missing")
		assert.NotContains(t, err.Error(), "found")
		assert.Equal(t, "yes ${missing}", out)
	})

	t.Run("KeepMissing restores the default", func(t *testing.T) {
		out, err := New(FailOnMissing(), KeepMissing()).Expand("${missing}", nil)
		require.NoError(t, err)
		assert.Equal(t, "${missing}", out)
	})
}

func TestMustExpand(t *testing.T) {
	t.Run("returns expansion", func(t *testing.T) {
		out := New().MustExpand("Hello ${name}", map[string]any{"name": "World"})
		assert.Equal(t, "Hello World", out)
	})

	t.Run("panics under FailOnMissing", func(t *testing.T) {
		exp := New(FailOnMissing())
		assert.Panics(t, func() {
			exp.MustExpand("${missing}", nil)
		})
	})
}

func TestJSON(t *testing.T) {
	t.Run("renders indented object", func(t *testing.T) {
		out := JSON(map[string]any{"intent": "query_status"})
		assert.Equal(t, "{\n  \"intent\": \"query_status\"\n}", out)
	})

	t.Run("renders slice", func(t *testing.T) {
		out := JSON([]string{"a", "b"})
		assert.Equal(t, "[\n  \"a\",\n  \"b\"\n]", out)
	})

	t.Run("falls back for unmarshalable values", func(t *testing.T) {
		out := JSON(func() {})
		assert.NotEmpty(t, out)
	})

	t.Run("embeds in template", func(t *testing.T) {
		out := Expand("Entities:\n${entities}", map[string]any{
			"entities": JSON(map[string]any{"person": "Dana"}),
		})
		assert.Equal(t, "Entities:\n{\n  \"person\": \"Dana\"\n}", out)
	})
}

func TestExpand_PromptScenarios(t *testing.T) {
	t.Run("classification prompt", func(t *testing.T) {
		vars := map[string]any{
			"message": "what tasks are overdue?",
		}
		prompt := Expand("Classify the user message.\n\nMessage: ${message}\n\nReturn JSON.", vars)
		assert.Contains(t, prompt, "Message: what tasks are overdue?")
	})

	t.Run("response prompt with board data", func(t *testing.T) {
		vars := map[string]any{
			"message": "status update please",
			"intent":  "query_status",
			"data":    JSON(map[string]any{"total_tasks": 12}),
		}
		prompt := Expand("User: ${message}\nIntent: ${intent}\nData:\n${data}", vars)
		assert.Contains(t, prompt, "Intent: query_status")
		assert.Contains(t, prompt, "\"total_tasks\": 12")
	})

	t.Run("webhook payload", func(t *testing.T) {
		vars := map[string]any{
			"channel": "#project-updates",
			"count":   3,
		}
		text := Expand("${count} tasks need attention in ${channel}", vars)
		assert.Equal(t, "3 tasks need attention in #project-updates", text)
	})
}
