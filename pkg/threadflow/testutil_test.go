package threadflow

import (
	"context"
)

// Test state types used across tests

// Counter is a minimal state for linear execution tests.
type Counter struct {
	Value   int    `json:"value"`
	Failure *Fault `json:"error,omitempty"`
}

func (c Counter) Fault() *Fault              { return c.Failure }
func (c Counter) WithFault(f *Fault) Counter { c.Failure = f; return c }

// Convo is a richer state for routing, fault, and checkpoint scenarios.
type Convo struct {
	Initial  string   `json:"initial,omitempty"`
	Output   string   `json:"output,omitempty"`
	Progress []string `json:"progress,omitempty"`
	Done     bool     `json:"done,omitempty"`
	GoLeft   bool     `json:"go_left,omitempty"`
	Count    int      `json:"count,omitempty"`
	Failure  *Fault   `json:"error,omitempty"`
}

func (s Convo) Fault() *Fault            { return s.Failure }
func (s Convo) WithFault(f *Fault) Convo { s.Failure = f; return s }

// Helper node functions

// increment is a node that increments the counter.
func increment(ctx Context, s Counter) (Counter, error) {
	s.Value++
	return s, nil
}

// passthrough returns the state unchanged.
func passthrough[S State[S]](ctx Context, s S) (S, error) {
	return s, nil
}

// makeTrackingNode creates a node that records its execution.
func makeTrackingNode(name string, tracker *[]string) NodeFunc[Convo] {
	return func(ctx Context, s Convo) (Convo, error) {
		*tracker = append(*tracker, name)
		s.Progress = append(s.Progress, name)
		return s, nil
	}
}

// makeFailingNode creates a node that returns the given error.
func makeFailingNode(err error) NodeFunc[Convo] {
	return func(ctx Context, s Convo) (Convo, error) {
		return s, err
	}
}

// makePanicNode creates a node that panics with the given value.
func makePanicNode(value any) NodeFunc[Convo] {
	return func(ctx Context, s Convo) (Convo, error) {
		panic(value)
	}
}

// leftRight routes on the GoLeft flag with both labels declared.
func leftRight() Router[Convo] {
	return Router[Convo]{
		Decide: func(ctx Context, s Convo) string {
			if s.GoLeft {
				return "left"
			}
			return "right"
		},
		Labels: []string{"left", "right"},
	}
}

// testCtx creates a simple test context.
func testCtx() Context {
	return NewContext(context.Background())
}
