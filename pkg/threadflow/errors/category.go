// Package errors classifies failures from external collaborators (board
// API, model provider, webhooks) and retries the ones worth retrying.
//
// Callers wrap outbound calls with Do, which retries transient failures
// with exponential backoff and returns a CategorizedError when attempts
// run out. Categorize maps raw errors onto three outcomes: transient
// (retry), permanent (give up), and escalatable (the request itself needs
// to change before it can succeed).
package errors

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// A Category is the verdict on a failure.
type Category int

const (
	// CategoryTransient means a retry will likely succeed, as with rate
	// limits and upstream hiccups.
	CategoryTransient Category = iota

	// CategoryPermanent means retrying is pointless, as with bad
	// credentials or a cancelled caller.
	CategoryPermanent

	// CategoryEscalatable means the request must change before it can
	// succeed, as with malformed model output.
	CategoryEscalatable
)

var categoryNames = [...]string{"transient", "permanent", "escalatable"}

func (c Category) String() string {
	if c < 0 || int(c) >= len(categoryNames) {
		return "unknown"
	}
	return categoryNames[c]
}

// CategorizedError carries the verdict alongside the failure itself and
// the retry effort already spent on it.
type CategorizedError struct {
	Err      error
	Category Category
	Retries  int    // attempts made before giving up
	Context  string // what was being attempted, e.g. "board query"
}

func (e *CategorizedError) Error() string {
	msg := e.Err.Error()
	if e.Context != "" {
		msg = e.Context + ": " + msg
	}
	if e.Retries > 0 {
		return fmt.Sprintf("%s (%s, %d attempts)", msg, e.Category, e.Retries)
	}
	return fmt.Sprintf("%s (%s)", msg, e.Category)
}

func (e *CategorizedError) Unwrap() error { return e.Err }

// NewCategorized wraps err with an explicit verdict, overriding whatever
// Categorize would decide.
func NewCategorized(err error, category Category, context string) *CategorizedError {
	return &CategorizedError{Err: err, Category: category, Context: context}
}

// Transient marks err as worth retrying.
func Transient(err error, context string) *CategorizedError {
	return NewCategorized(err, CategoryTransient, context)
}

// Permanent marks err as not worth retrying.
func Permanent(err error, context string) *CategorizedError {
	return NewCategorized(err, CategoryPermanent, context)
}

// Escalatable marks err as needing a changed request.
func Escalatable(err error, context string) *CategorizedError {
	return NewCategorized(err, CategoryEscalatable, context)
}

// Categorize decides how err should be handled. An error that already
// carries a verdict keeps it; anything unrecognized is permanent so that
// nothing retries blindly.
func Categorize(err error) Category {
	if err == nil {
		return CategoryPermanent
	}

	var (
		catErr     *CategorizedError
		httpErr    *HTTPError
		jsonErr    *JSONParseError
		valErr     *ValidationError
		timeoutErr *TimeoutError
		netErr     net.Error
	)
	switch {
	case errors.As(err, &catErr):
		return catErr.Category

	case errors.As(err, &httpErr):
		return httpCategory(httpErr.StatusCode)

	case errors.As(err, &jsonErr), errors.As(err, &valErr):
		// Repeating the same request reproduces the same bad output.
		return CategoryEscalatable

	case errors.As(err, &timeoutErr):
		return CategoryTransient

	case errors.Is(err, context.DeadlineExceeded):
		// A per-attempt deadline can pass on retry.
		return CategoryTransient

	case errors.Is(err, context.Canceled):
		return CategoryPermanent

	case errors.As(err, &netErr) && netErr.Timeout():
		return CategoryTransient
	}

	return CategoryPermanent
}

// httpCategory maps a status code to a verdict. Rate limits and server
// failures tend to clear on their own; a rejected request body will be
// rejected again as written; other client errors are final.
func httpCategory(status int) Category {
	switch {
	case status == 429 || status >= 500:
		return CategoryTransient
	case status == 400:
		return CategoryEscalatable
	default:
		return CategoryPermanent
	}
}

// IsRetryable reports whether the error should be retried.
func IsRetryable(err error) bool {
	return Categorize(err) == CategoryTransient
}

// IsEscalatable reports whether the request needs adjusting before it
// can succeed.
func IsEscalatable(err error) bool {
	return Categorize(err) == CategoryEscalatable
}
