package aterm

import (
	"fmt"
	"sync"

	"fortio.org/safecast"

	"aterm/internal/trace"
)

// ThreadPool is a thread's view of the global pool: it owns the
// thread's protection registry and the thread side of the barrier.
// A ThreadPool must only be used by the goroutine that called Register.
type ThreadPool struct {
	g     *globalPool
	flags threadFlags
	index int

	// protMu guards the three protection sets. The owning thread takes
	// it for slot traffic; the collector takes it per thread while
	// marking under the exclusive grant.
	protMu    sync.Mutex
	termRoots protSet[*node]
	symRoots  protSet[*symbolRecord]
	contRoots protSet[Markable]

	// scratch collects child nodes for table lookups without
	// allocating per construction.
	scratch []*node

	gcCountdown int64
	closed      bool
}

// Intern returns an owned handle to the canonical symbol for
// (name, arity), allocating it on first use. The empty name is
// permitted; identical names with different arities are distinct
// symbols.
func (tp *ThreadPool) Intern(name string, arity uint32) (Symbol, error) {
	if tp.closed {
		return Symbol{}, ErrUnregisteredThread
	}
	g := tp.g
	g.barrier.lockShared(&tp.flags)
	g.tableMu.Lock()
	rec, inserted := g.symbols.intern(name, arity)
	g.tableMu.Unlock()
	tp.protMu.Lock()
	slot := tp.symRoots.protect(rec)
	tp.protMu.Unlock()
	g.barrier.unlockShared(&tp.flags)

	if inserted && g.tracer.Enabled() {
		g.tracer.Emit(trace.Event{
			Scope:  trace.ScopeTable,
			Kind:   trace.KindPoint,
			Name:   "intern",
			Detail: fmt.Sprintf("%q/%d", name, arity),
		})
	}
	return Symbol{ref: SymbolRef{rec: rec}, tp: tp, slot: slot}, nil
}

// MakeConstant returns the canonical term for an arity-zero symbol.
func (tp *ThreadPool) MakeConstant(sym SymbolRef) (Term, error) {
	if !sym.IsValid() {
		panic("aterm: MakeConstant with an invalid symbol")
	}
	if sym.Arity() != 0 {
		return Term{}, fmt.Errorf("%w: constant %s has arity %d", ErrArityMismatch, sym, sym.Arity())
	}
	return tp.MakeApplication(sym)
}

// MakeApplication returns the canonical term sym(args...). The argument
// count must match the symbol's arity and every argument must be a
// valid canonical term.
func (tp *ThreadPool) MakeApplication(sym SymbolRef, args ...TermRef) (Term, error) {
	if tp.closed {
		return Term{}, ErrUnregisteredThread
	}
	if !sym.IsValid() {
		panic("aterm: MakeApplication with an invalid symbol")
	}
	count, err := safecast.Conv[uint32](len(args))
	if err != nil || count != sym.Arity() {
		return Term{}, fmt.Errorf("%w: symbol %s expects %d arguments, got %d",
			ErrArityMismatch, sym, sym.Arity(), len(args))
	}
	tp.scratch = tp.scratch[:0]
	for _, arg := range args {
		if arg.n == nil {
			panic("aterm: MakeApplication with an invalid argument term")
		}
		tp.scratch = append(tp.scratch, arg.n)
	}

	g := tp.g
	g.barrier.lockShared(&tp.flags)
	g.tableMu.Lock()
	n, inserted, err := g.terms.lookupOrInsertApplication(sym.rec, tp.scratch)
	g.tableMu.Unlock()
	if err != nil {
		g.barrier.unlockShared(&tp.flags)
		return Term{}, err
	}
	t := tp.protectNode(n)
	g.barrier.unlockShared(&tp.flags)

	if inserted {
		tp.maybeCollect()
	}
	return t, nil
}

// MakeNumeric returns the canonical numeric leaf for value. All uint64
// values are distinct nodes.
func (tp *ThreadPool) MakeNumeric(value uint64) (Term, error) {
	if tp.closed {
		return Term{}, ErrUnregisteredThread
	}
	g := tp.g
	g.barrier.lockShared(&tp.flags)
	g.tableMu.Lock()
	n, inserted, err := g.terms.lookupOrInsertNumeric(g.numSym, value)
	g.tableMu.Unlock()
	if err != nil {
		g.barrier.unlockShared(&tp.flags)
		return Term{}, err
	}
	t := tp.protectNode(n)
	g.barrier.unlockShared(&tp.flags)

	if inserted {
		tp.maybeCollect()
	}
	return t, nil
}

// Protect converts a borrowed handle into an owned one, reserving a
// fresh registry slot. The borrow must be valid at the time of the
// call. O(1) amortized.
func (tp *ThreadPool) Protect(t TermRef) Term {
	if tp.closed {
		panic("aterm: Protect on a closed ThreadPool")
	}
	if t.n == nil {
		panic("aterm: Protect of an invalid term")
	}
	tp.g.barrier.lockShared(&tp.flags)
	owned := tp.protectNode(t.n)
	tp.g.barrier.unlockShared(&tp.flags)
	return owned
}

// ProtectSymbol converts a borrowed symbol handle into an owned one.
func (tp *ThreadPool) ProtectSymbol(s SymbolRef) Symbol {
	if tp.closed {
		panic("aterm: ProtectSymbol on a closed ThreadPool")
	}
	if s.rec == nil {
		panic("aterm: ProtectSymbol of an invalid symbol")
	}
	tp.g.barrier.lockShared(&tp.flags)
	tp.protMu.Lock()
	slot := tp.symRoots.protect(s.rec)
	tp.protMu.Unlock()
	tp.g.barrier.unlockShared(&tp.flags)
	return Symbol{ref: s, tp: tp, slot: slot}
}

// CollectNow runs a full stop-the-world collection. Safe to call at any
// quiescent point; live handles keep their addresses.
func (tp *ThreadPool) CollectNow() {
	if tp.flags.heldShared() {
		panic("aterm: CollectNow while holding the shared grant")
	}
	tp.g.collect()
	tp.gcCountdown = tp.g.currentInterval()
}

// Close deregisters the thread. Every root in its protection registry
// disappears; terms protected only by this thread become collectable.
// Further construction on the handle (Intern, MakeConstant,
// MakeApplication, MakeNumeric, Parse) fails with ErrUnregisteredThread;
// Protect, ProtectSymbol and new containers panic.
func (tp *ThreadPool) Close() {
	if tp.closed {
		return
	}
	g := tp.g
	g.barrier.mu.Lock()
	for i, other := range g.threads {
		if other == tp {
			g.threads = append(g.threads[:i], g.threads[i+1:]...)
			break
		}
	}
	g.barrier.mu.Unlock()
	g.threadCount.Add(-1)
	tp.closed = true

	g.tracer.Emit(trace.Event{
		Scope:  trace.ScopeThread,
		Kind:   trace.KindPoint,
		Name:   "deregister",
		Detail: fmt.Sprintf("thread %d, %d roots", tp.index, tp.termRoots.size()),
	})
}

// protectNode reserves a term root. Caller holds the shared grant.
func (tp *ThreadPool) protectNode(n *node) Term {
	tp.protMu.Lock()
	slot := tp.termRoots.protect(n)
	tp.protMu.Unlock()
	return Term{ref: TermRef{n: n}, tp: tp, slot: slot}
}

// unprotectTerm releases a term root. Takes the shared grant so roots
// never disappear mid-collection.
func (tp *ThreadPool) unprotectTerm(slot uint32) {
	tp.g.barrier.lockShared(&tp.flags)
	tp.protMu.Lock()
	tp.termRoots.unprotect(slot)
	tp.protMu.Unlock()
	tp.g.barrier.unlockShared(&tp.flags)
}

func (tp *ThreadPool) unprotectSymbol(slot uint32) {
	tp.g.barrier.lockShared(&tp.flags)
	tp.protMu.Lock()
	tp.symRoots.unprotect(slot)
	tp.protMu.Unlock()
	tp.g.barrier.unlockShared(&tp.flags)
}

// protectContainer reserves a slot for a bulk container.
func (tp *ThreadPool) protectContainer(c Markable) uint32 {
	if tp.closed {
		panic("aterm: container protection on a closed ThreadPool")
	}
	tp.g.barrier.lockShared(&tp.flags)
	tp.protMu.Lock()
	slot := tp.contRoots.protect(c)
	tp.protMu.Unlock()
	tp.g.barrier.unlockShared(&tp.flags)
	return slot
}

func (tp *ThreadPool) unprotectContainer(slot uint32) {
	tp.g.barrier.lockShared(&tp.flags)
	tp.protMu.Lock()
	tp.contRoots.unprotect(slot)
	tp.protMu.Unlock()
	tp.g.barrier.unlockShared(&tp.flags)
}

// maybeCollect decrements the automatic-collection countdown and runs a
// cycle when it reaches zero. Skipped while the thread still holds the
// shared grant reentrantly.
func (tp *ThreadPool) maybeCollect() {
	tp.gcCountdown--
	if tp.gcCountdown > 0 {
		return
	}
	if !tp.g.gcEnabled.Load() || tp.flags.heldShared() {
		tp.gcCountdown = tp.g.currentInterval()
		return
	}
	tp.g.collect()
	tp.gcCountdown = tp.g.currentInterval()
}
