package aterm

import (
	"fmt"
	"runtime"
	"time"

	"aterm/internal/observ"
	"aterm/internal/trace"
)

// collect runs one stop-the-world mark-and-sweep cycle:
//
//  1. Raise the forbidden flag and wait for every shared grant to drain.
//  2. Mark every node reachable from any thread's term roots, container
//     roots and symbol roots, plus the reserved numeric symbol.
//  3. Sweep the term table, then sweep symbols referenced by nothing.
//  4. Reopen the pool to shared acquirers.
//
// Mark bits live only inside this critical section; the sweep clears
// them on every survivor. Collection cannot fail: any invariant break
// here is unrecoverable and panics.
func (g *globalPool) collect() {
	start := time.Now()

	g.barrier.mu.Lock()
	g.barrier.forbidden.Store(true)
	for _, tp := range g.threads {
		for tp.flags.busy.Load() {
			runtime.Gosched()
		}
	}

	g.tracer.Emit(trace.Event{
		Scope:  trace.ScopeCollect,
		Kind:   trace.KindBegin,
		Name:   "collect",
		Detail: fmt.Sprintf("%d terms, %d threads", g.terms.len(), len(g.threads)),
	})

	marker := &Marker{stack: make([]*node, 0, 256)}
	for _, tp := range g.threads {
		tp.protMu.Lock()
		tp.termRoots.each(func(n *node) { marker.markNode(n) })
		tp.contRoots.each(func(c Markable) { c.Mark(marker) })
		tp.symRoots.each(func(rec *symbolRecord) { rec.marked = true })
		tp.protMu.Unlock()
	}
	g.numSym.marked = true

	// All shared grants are drained, but size probes take only the
	// table latch, so the sweep holds it too.
	g.tableMu.Lock()
	reclaimed := g.terms.sweep()
	symbolsReclaimed := g.symbols.sweep()
	live := g.terms.len()
	capacity := g.terms.capacity()
	g.updateInterval()
	g.tableMu.Unlock()

	dur := time.Since(start)
	g.gcLog.Record(observ.Cycle{
		Start:            start,
		Dur:              dur,
		Live:             live,
		Reclaimed:        reclaimed,
		SymbolsReclaimed: symbolsReclaimed,
		Capacity:         capacity,
	})
	g.tracer.Emit(trace.Event{
		Scope:  trace.ScopeCollect,
		Kind:   trace.KindEnd,
		Name:   "collect",
		Detail: fmt.Sprintf("reclaimed %d terms, %d symbols in %s", reclaimed, symbolsReclaimed, dur),
	})

	g.barrier.endExclusive()
}
