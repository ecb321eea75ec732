// Package scratch implements the caller-slot scratch allocators of spec §5:
// per-query scratch (used-triangle sets, candidate-index buffers, box
// scratch) that the original keeps in global ring buffers indexed by a
// thread-local caller slot. Go has no thread-local storage, so the "caller
// slot" becomes an explicit *Scope the caller threads through one query
// (spec §9's "query-scope guard that restores the top-of-stack on drop").
// Scopes are recycled through a sync.Pool instead of being pinned to a
// fixed MAX_PHYS_THREADS array, since goroutines are cheap and unbounded in
// Go where the original had a fixed OS-thread pool.
package scratch

import "sync"

// Scope is one query's worth of scratch state: a used-triangle dedup set
// and a bump-allocated index buffer. The fast path never touches the heap
// beyond what Acquire's pool already reserved; Buffer still grows via
// append if a query needs more than the pool's current capacity, matching
// the spec's "buffer overflow falls back to heap allocation" rule.
type Scope struct {
	used   map[int]bool
	buf    []int
	boxBuf []int // secondary bump region for candidate-node lists
	mark   int
	boxMk  int
}

var pool = sync.Pool{
	New: func() any {
		return &Scope{
			used: make(map[int]bool, 128),
			buf:  make([]int, 0, 256),
		}
	},
}

// Acquire returns a clean Scope for one query. Callers must call Release
// when the query completes.
func Acquire() *Scope {
	s := pool.Get().(*Scope)
	clear(s.used)
	s.buf = s.buf[:0]
	s.boxBuf = s.boxBuf[:0]
	s.mark = 0
	s.boxMk = 0
	return s
}

// Release returns the Scope to the pool.
func Release(s *Scope) {
	pool.Put(s)
}

// MarkUsed returns true the first time triIndex is seen in this scope,
// implementing the BVH's mark_used_triangle dedup (spec §4.1 "tri-to-node
// map... used by mark_used_triangle to deduplicate work during a query").
func (s *Scope) MarkUsed(triIndex int) bool {
	if s.used[triIndex] {
		return false
	}
	s.used[triIndex] = true
	return true
}

// Append adds indices to the scope's bump-allocated candidate buffer.
func (s *Scope) Append(indices ...int) {
	s.buf = append(s.buf, indices...)
}

// Indices returns the candidate buffer accumulated so far.
func (s *Scope) Indices() []int {
	return s.buf
}

// Checkpoint records the current bump-allocator position so a nested call
// can roll back to it on return, per spec §9's scope-guard.
func (s *Scope) Checkpoint() int {
	return len(s.buf)
}

// Restore truncates the bump buffer back to a prior checkpoint.
func (s *Scope) Restore(mark int) {
	s.buf = s.buf[:mark]
}
