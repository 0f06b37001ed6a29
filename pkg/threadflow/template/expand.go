package template

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// varPattern matches a ${name} placeholder. Names start with a letter or
// underscore and continue with letters, digits, or underscores.
var varPattern = regexp.MustCompile(`\$\{([A-Za-z_]\w*)\}`)

// ErrUndefined reports a placeholder with no entry in the variable map.
// Errors produced under FailOnMissing wrap it.
var ErrUndefined = errors.New("undefined variable")

// missingFunc resolves a placeholder whose name is absent from the
// variable map.
type missingFunc func(name string) (string, error)

func keepMissing(name string) (string, error) {
	return "${" + name + "}", nil
}

// An Expander substitutes ${name} placeholders from a variable map.
// Safe for concurrent use after construction.
type Expander struct {
	missing missingFunc
}

// New builds an Expander. Without options, unknown placeholders are
// left in the output untouched.
func New(opts ...Option) *Expander {
	e := &Expander{missing: keepMissing}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Expand substitutes every ${name} in s with vars[name], formatted via
// %v. Unknown names follow the expander's missing policy; under
// FailOnMissing the returned error names each unknown variable once,
// and the partially expanded string is still returned.
func (e *Expander) Expand(s string, vars map[string]any) (string, error) {
	matches := varPattern.FindAllStringSubmatchIndex(s, -1)
	if len(matches) == 0 {
		return s, nil
	}

	var (
		b        strings.Builder
		errs     []error
		reported map[string]bool
		last     int
	)
	b.Grow(len(s))

	for _, m := range matches {
		b.WriteString(s[last:m[0]])
		last = m[1]

		name := s[m[2]:m[3]]
		if v, ok := vars[name]; ok {
			fmt.Fprintf(&b, "%v", v)
			continue
		}
		repl, err := e.missing(name)
		b.WriteString(repl)
		if err != nil && !reported[name] {
			if reported == nil {
				reported = make(map[string]bool)
			}
			reported[name] = true
			errs = append(errs, err)
		}
	}
	b.WriteString(s[last:])

	return b.String(), errors.Join(errs...)
}

// MustExpand is Expand that panics on error. Meant for static prompt
// templates whose variables are always supplied.
func (e *Expander) MustExpand(s string, vars map[string]any) string {
	out, err := e.Expand(s, vars)
	if err != nil {
		panic(fmt.Sprintf("template: %v", err))
	}
	return out
}

var defaultExpander = New()

// Expand substitutes ${name} placeholders in s using the default
// expander, which keeps unknown placeholders as-is and never fails.
//
// Example:
//
//	prompt := template.Expand("User asked: ${message}", map[string]any{"message": text})
func Expand(s string, vars map[string]any) string {
	out, _ := defaultExpander.Expand(s, vars)
	return out
}

// JSON renders a value as indented JSON for embedding in a prompt.
// Falls back to fmt formatting when the value cannot be marshaled.
//
// Example:
//
//	prompt := template.Expand("Entities:\n${entities}", map[string]any{
//	    "entities": template.JSON(classification.Entities),
//	})
func JSON(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
