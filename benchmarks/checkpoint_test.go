package benchmarks

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/threadflow/threadflow/pkg/threadflow"
	"github.com/threadflow/threadflow/pkg/threadflow/checkpoint"
)

// LargeState approximates a real conversation state for serialization
// and persistence benchmarks.
type LargeState struct {
	ID       string
	Values   []int
	Metadata map[string]string
	Nested   struct {
		A string
		B int
		C []string
	}
	Failure *threadflow.Fault `json:"failure,omitempty"`
}

func (s LargeState) Fault() *threadflow.Fault { return s.Failure }

func (s LargeState) WithFault(f *threadflow.Fault) LargeState { s.Failure = f; return s }

// BenchmarkMemoryStore_Save measures in-memory checkpoint save.
func BenchmarkMemoryStore_Save(b *testing.B) {
	store := checkpoint.NewMemoryStore()
	defer store.Close()
	ctx := context.Background()
	data := checkpointData(b)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = store.Save(ctx, "thread-1", data)
	}
}

// BenchmarkMemoryStore_Load measures in-memory checkpoint load.
func BenchmarkMemoryStore_Load(b *testing.B) {
	store := checkpoint.NewMemoryStore()
	defer store.Close()
	ctx := context.Background()
	if err := store.Save(ctx, "thread-1", checkpointData(b)); err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = store.Load(ctx, "thread-1")
	}
}

// BenchmarkSQLiteStore_Save measures SQLite checkpoint save.
func BenchmarkSQLiteStore_Save(b *testing.B) {
	store := newSQLiteStore(b)
	ctx := context.Background()
	data := checkpointData(b)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = store.Save(ctx, "thread-"+nodeID(i%100), data)
	}
}

// BenchmarkSQLiteStore_Load measures SQLite checkpoint load.
func BenchmarkSQLiteStore_Load(b *testing.B) {
	store := newSQLiteStore(b)
	ctx := context.Background()
	if err := store.Save(ctx, "thread-1", checkpointData(b)); err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = store.Load(ctx, "thread-1")
	}
}

// BenchmarkRedisStore_Save measures Redis checkpoint save against an
// in-process server.
func BenchmarkRedisStore_Save(b *testing.B) {
	mr := miniredis.RunT(b)
	store := checkpoint.NewRedisStore(mr.Addr(), "", 0)
	defer store.Close()
	ctx := context.Background()
	data := checkpointData(b)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = store.Save(ctx, "thread-1", data)
	}
}

// BenchmarkRedisStore_Load measures Redis checkpoint load against an
// in-process server.
func BenchmarkRedisStore_Load(b *testing.B) {
	mr := miniredis.RunT(b)
	store := checkpoint.NewRedisStore(mr.Addr(), "", 0)
	defer store.Close()
	ctx := context.Background()
	if err := store.Save(ctx, "thread-1", checkpointData(b)); err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = store.Load(ctx, "thread-1")
	}
}

// BenchmarkRun_WithCheckpointing measures execution with the final
// state saved after each run.
func BenchmarkRun_WithCheckpointing(b *testing.B) {
	store := checkpoint.NewMemoryStore()
	defer store.Close()
	compiled := mustCompileLarge(buildLinearGraphLarge(5))
	ctx := threadflow.NewContext(context.Background())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = compiled.Run(ctx, createLargeState(),
			threadflow.WithCheckpointStore(store),
			threadflow.WithCheckpointThreadID("bench-thread"),
		)
	}
}

// BenchmarkRun_WithoutCheckpointing baseline without persistence.
func BenchmarkRun_WithoutCheckpointing(b *testing.B) {
	compiled := mustCompileLarge(buildLinearGraphLarge(5))
	ctx := threadflow.NewContext(context.Background())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = compiled.Run(ctx, createLargeState())
	}
}

// BenchmarkRunThread measures seeded multi-turn execution: each
// iteration loads the previous turn's state and saves its own.
func BenchmarkRunThread(b *testing.B) {
	store := checkpoint.NewMemoryStore()
	defer store.Close()
	compiled := mustCompileLarge(buildLinearGraphLarge(5))
	ctx := threadflow.NewContext(context.Background())
	seed := func(prev, incoming LargeState) LargeState {
		incoming.Values = prev.Values
		return incoming
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = compiled.RunThread(ctx, store, "bench-thread", createLargeState(), seed)
	}
}

// BenchmarkJSONMarshal measures state serialization overhead.
func BenchmarkJSONMarshal(b *testing.B) {
	state := createLargeState()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = json.Marshal(state)
	}
}

// BenchmarkJSONUnmarshal measures state deserialization overhead.
func BenchmarkJSONUnmarshal(b *testing.B) {
	state := createLargeState()
	data, err := json.Marshal(state)
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		var s LargeState
		_ = json.Unmarshal(data, &s)
	}
}

// Helper functions

func createLargeState() LargeState {
	return LargeState{
		ID:     "test-id",
		Values: []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
		Metadata: map[string]string{
			"key1": "value1",
			"key2": "value2",
			"key3": "value3",
		},
		Nested: struct {
			A string
			B int
			C []string
		}{
			A: "nested-a",
			B: 42,
			C: []string{"c1", "c2", "c3"},
		},
	}
}

func checkpointData(b *testing.B) []byte {
	b.Helper()
	state, err := json.Marshal(createLargeState())
	if err != nil {
		b.Fatal(err)
	}
	data, err := checkpoint.New("thread-1", "run-1", 1, "done", state).Marshal()
	if err != nil {
		b.Fatal(err)
	}
	return data
}

func newSQLiteStore(b *testing.B) *checkpoint.SQLiteStore {
	b.Helper()
	store, err := checkpoint.NewSQLiteStore(filepath.Join(b.TempDir(), "bench.db"))
	if err != nil {
		b.Fatal(err)
	}
	b.Cleanup(func() { store.Close() })
	return store
}

func noopNodeLarge(ctx threadflow.Context, s LargeState) (LargeState, error) {
	return s, nil
}

func buildLinearGraphLarge(n int) *threadflow.Graph[LargeState] {
	graph := threadflow.NewGraph[LargeState]()
	for i := 0; i < n; i++ {
		graph.AddNode(nodeID(i), noopNodeLarge)
	}
	for i := 0; i < n-1; i++ {
		graph.AddEdge(nodeID(i), nodeID(i+1))
	}
	graph.AddEdge(nodeID(n-1), threadflow.END)
	graph.SetEntry(nodeID(0))
	return graph
}

func mustCompileLarge(g *threadflow.Graph[LargeState]) *threadflow.CompiledGraph[LargeState] {
	compiled, err := g.Compile()
	if err != nil {
		panic(err)
	}
	return compiled
}
