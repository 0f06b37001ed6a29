// Package registry provides a generic concurrent map guarded by a
// sync.RWMutex, with atomic lazy initialization through GetOrCreate.
//
// The engine keys per-thread run locks on it; applications can index
// agents by routing label the same way:
//
//	agents := registry.New[string, *taskboard.Agent]()
//	agents.Put("tasks", boardAgent)
//
//	if agent, ok := agents.Get("tasks"); ok {
//	    reply, err := agent.Handle(ctx, threadID, message, nil)
//	    // ...
//	}
//
// GetOrCreate calls its build function at most once per key, so it
// works as a lock table:
//
//	locks := registry.New[string, *sync.Mutex]()
//	lock := locks.GetOrCreate(threadID, func() *sync.Mutex {
//	    return &sync.Mutex{}
//	})
//
// Snapshot returns a copy of the entries for iteration; the registry
// may keep changing underneath without affecting the copy.
package registry
