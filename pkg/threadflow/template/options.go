package template

import "fmt"

// Option configures an Expander.
type Option func(*Expander)

// KeepMissing leaves unknown placeholders in the output untouched.
// This is the default.
func KeepMissing() Option {
	return func(e *Expander) {
		e.missing = keepMissing
	}
}

// DropMissing replaces unknown placeholders with the empty string.
func DropMissing() Option {
	return func(e *Expander) {
		e.missing = func(string) (string, error) {
			return "", nil
		}
	}
}

// FailOnMissing makes Expand report unknown placeholders as errors
// wrapping ErrUndefined.
func FailOnMissing() Option {
	return func(e *Expander) {
		e.missing = func(name string) (string, error) {
			return "${" + name + "}", fmt.Errorf("%w: %s", ErrUndefined, name)
		}
	}
}
