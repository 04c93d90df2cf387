// Package aterm implements a process-wide, thread-safe repository of
// first-order terms under maximal structural sharing (hash-consing).
//
// A term is a numeric leaf, a constant, or an application f(t1, ..., tn)
// of a function symbol to canonical subterms. The pool stores at most one
// node per structural equivalence class, so structural equality is a
// pointer comparison.
//
// # Usage
//
// Every goroutine that constructs or inspects terms registers first:
//
//	tp := aterm.Register()
//	defer tp.Close()
//
//	f, _ := tp.Intern("f", 2)
//	a, _ := tp.Intern("a", 0)
//	b, _ := tp.Intern("b", 0)
//
//	ca, _ := tp.MakeConstant(a.Ref())
//	cb, _ := tp.MakeConstant(b.Ref())
//	t, _ := tp.MakeApplication(f.Ref(), ca.Borrow(), cb.Borrow())
//	defer t.Drop()
//
// # Handles
//
// Term is an owned handle: it occupies a slot in the thread's protection
// registry and keeps its node alive across garbage collections until
// Drop is called. TermRef is a borrowed handle: it is registry-free and
// valid only while some owned handle or protected container covers the
// same node. ProtectedList holds any number of borrowed handles behind a
// single registry slot.
//
// # Garbage collection
//
// Unreachable nodes are reclaimed by a stop-the-world mark-and-sweep
// collector. Collection runs automatically after enough fresh insertions
// (see Config) or explicitly via (*ThreadPool).CollectNow. Construction
// and collection are coordinated by a busy-forbidden reader/writer
// barrier: constructors hold a shared grant, the collector drains all
// shared grants and runs exclusively.
package aterm
