package threadflow

import "time"

// RunHooks carries optional callbacks fired by the executor during a
// run. Nil callbacks are skipped. Hooks run synchronously on the
// executing goroutine; keep them fast.
//
// Hooks exist for instrumentation that lives outside the engine's own
// logging and OTel metrics, such as feeding Prometheus collectors at
// the application boundary.
type RunHooks struct {
	// OnNodeStart fires before a node executes.
	OnNodeStart func(nodeID string)

	// OnNodeEnd fires after a node executes. err is nil on success.
	OnNodeEnd func(nodeID string, duration time.Duration, err error)

	// OnFault fires when the executor routes a faulted state to the
	// error node.
	OnFault func(nodeID string, fault *Fault)

	// OnRunEnd fires once per run with the last executed node.
	OnRunEnd func(lastNode string, duration time.Duration, err error)
}

func (h RunHooks) nodeStart(nodeID string) {
	if h.OnNodeStart != nil {
		h.OnNodeStart(nodeID)
	}
}

func (h RunHooks) nodeEnd(nodeID string, d time.Duration, err error) {
	if h.OnNodeEnd != nil {
		h.OnNodeEnd(nodeID, d, err)
	}
}

func (h RunHooks) fault(nodeID string, fault *Fault) {
	if h.OnFault != nil {
		h.OnFault(nodeID, fault)
	}
}

func (h RunHooks) runEnd(lastNode string, d time.Duration, err error) {
	if h.OnRunEnd != nil {
		h.OnRunEnd(lastNode, d, err)
	}
}
