package aterm

import (
	"sync"
	"sync/atomic"
)

// The construction/collection barrier implements the busy-forbidden
// protocol: every registered thread owns a busy flag it raises while
// holding the shared grant; the collector raises the global forbidden
// flag and then waits for every busy flag to drop. A thread that
// observes forbidden after raising busy backs off and parks until the
// exclusive section ends. Shared acquisition is reentrant per thread
// through a plain depth counter, which is touched only by the owning
// goroutine.

// threadFlags is the per-thread side of the protocol, embedded in
// ThreadPool.
type threadFlags struct {
	busy  atomic.Bool
	depth int
}

type sharedBarrier struct {
	// mu serializes exclusive holders and guards the thread registry.
	// It is held for the whole exclusive section, so registration and
	// deregistration cannot race with a collection.
	mu sync.Mutex

	forbidden atomic.Bool

	// waitMu and waitCond park shared acquirers while forbidden is set.
	waitMu   sync.Mutex
	waitCond *sync.Cond
}

func newSharedBarrier() *sharedBarrier {
	b := &sharedBarrier{}
	b.waitCond = sync.NewCond(&b.waitMu)
	return b
}

// lockShared acquires the shared grant for the given thread. Blocks only
// while the collector is pending or running.
func (b *sharedBarrier) lockShared(f *threadFlags) {
	if f.depth > 0 {
		f.depth++
		return
	}
	for {
		f.busy.Store(true)
		if !b.forbidden.Load() {
			f.depth = 1
			return
		}
		f.busy.Store(false)
		b.waitMu.Lock()
		for b.forbidden.Load() {
			b.waitCond.Wait()
		}
		b.waitMu.Unlock()
	}
}

// unlockShared releases one level of the shared grant.
func (b *sharedBarrier) unlockShared(f *threadFlags) {
	if f.depth <= 0 {
		panic("aterm: shared grant released without being held")
	}
	f.depth--
	if f.depth == 0 {
		f.busy.Store(false)
	}
}

// heldShared reports whether the calling thread currently holds the
// shared grant. Only meaningful on the owning goroutine.
func (f *threadFlags) heldShared() bool { return f.depth > 0 }

// endExclusive reopens the pool to shared acquirers.
func (b *sharedBarrier) endExclusive() {
	b.forbidden.Store(false)
	b.waitMu.Lock()
	b.waitCond.Broadcast()
	b.waitMu.Unlock()
	b.mu.Unlock()
}
