/*
Package template provides ${var} placeholder expansion for strings.

Agents use it to assemble LLM prompts from static templates and
runtime values without fmt.Sprintf positional noise:

	const respondTemplate = `You are a helpful project assistant.

	User message: ${message}
	Detected intent: ${intent}
	Board data:
	${data}

	Answer concisely.`

	prompt := template.Expand(respondTemplate, map[string]any{
	    "message": state.InputText,
	    "intent":  state.Classification.Intent,
	    "data":    template.JSON(state.WorkingData),
	})

Unknown placeholders stay in the output by default. A strict Expander
turns them into errors instead, which catches prompt template drift:

	exp := template.New(template.FailOnMissing())
	_, err := exp.Expand(respondTemplate, vars)
	// err wraps ErrUndefined and names the unfilled variables.

Expander is safe for concurrent use after construction. The package-level
Expand uses a shared default expander.
*/
package template
