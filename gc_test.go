package aterm_test

import (
	"fmt"
	"testing"

	"aterm"
)

func TestCollectReclaimsDroppedTerms(t *testing.T) {
	mustReset(t)
	tp := aterm.Register()
	defer tp.Close()

	f := mustIntern(t, tp, "f", 2)
	a := mustIntern(t, tp, "a", 0)
	b := mustIntern(t, tp, "b", 0)
	ca, _ := tp.MakeConstant(a.Ref())
	cb, _ := tp.MakeConstant(b.Ref())
	top, err := tp.MakeApplication(f.Ref(), ca.Borrow(), cb.Borrow())
	if err != nil {
		t.Fatalf("MakeApplication failed: %v", err)
	}
	if got := aterm.PoolSize(); got != 3 {
		t.Fatalf("PoolSize = %d, want 3", got)
	}

	top.Drop()
	ca.Drop()
	cb.Drop()
	f.Drop()
	a.Drop()
	b.Drop()

	tp.CollectNow()
	if got := aterm.PoolSize(); got != 0 {
		t.Errorf("PoolSize after collect = %d, want 0", got)
	}
	// Only the reserved numeric symbol survives.
	if got := aterm.SymbolCount(); got != 1 {
		t.Errorf("SymbolCount after collect = %d, want 1", got)
	}
}

func TestCollectKeepsRootedTerms(t *testing.T) {
	mustReset(t)
	tp := aterm.Register()
	defer tp.Close()

	f := mustIntern(t, tp, "f", 2)
	defer f.Drop()
	a := mustIntern(t, tp, "a", 0)
	ca, _ := tp.MakeConstant(a.Ref())
	a.Drop()
	n, _ := tp.MakeNumeric(7)
	top, err := tp.MakeApplication(f.Ref(), ca.Borrow(), n.Borrow())
	if err != nil {
		t.Fatalf("MakeApplication failed: %v", err)
	}
	defer top.Drop()

	// Only the application stays rooted; its children must survive
	// through child liveness.
	before := top.Borrow()
	arg0 := top.Argument(0)
	arg1 := top.Argument(1)
	ca.Drop()
	n.Drop()

	tp.CollectNow()

	if top.Borrow() != before {
		t.Fatalf("live handle changed address across collection")
	}
	if top.Symbol() != f.Ref() {
		t.Errorf("Symbol changed across collection")
	}
	if top.Argument(0) != arg0 || top.Argument(1) != arg1 {
		t.Errorf("arguments changed across collection")
	}
	if got := top.Argument(1).NumericValue(); got != 7 {
		t.Errorf("numeric child = %d, want 7", got)
	}
	if got := aterm.PoolSize(); got != 3 {
		t.Errorf("PoolSize = %d, want 3", got)
	}
}

func TestCollectEmptyRegistryFreesEverything(t *testing.T) {
	mustReset(t)
	tp := aterm.Register()
	defer tp.Close()

	for i := 0; i < 100; i++ {
		sym := mustIntern(t, tp, fmt.Sprintf("c%d", i), 0)
		c, err := tp.MakeConstant(sym.Ref())
		if err != nil {
			t.Fatalf("MakeConstant failed: %v", err)
		}
		c.Drop()
		sym.Drop()
	}
	if got := aterm.PoolSize(); got != 100 {
		t.Fatalf("PoolSize = %d, want 100", got)
	}

	tp.CollectNow()
	if got := aterm.PoolSize(); got != 0 {
		t.Errorf("PoolSize after collect with empty registry = %d, want 0", got)
	}
}

func TestBulkProtection(t *testing.T) {
	mustReset(t)
	tp := aterm.Register()
	defer tp.Close()

	g := mustIntern(t, tp, "g", 1)
	defer g.Drop()

	list := tp.NewProtectedList()
	defer list.Drop()

	want := make([]aterm.TermRef, 0, 1000)
	for i := 0; i < 1000; i++ {
		n, err := tp.MakeNumeric(uint64(i))
		if err != nil {
			t.Fatalf("MakeNumeric failed: %v", err)
		}
		app, err := tp.MakeApplication(g.Ref(), n.Borrow())
		if err != nil {
			t.Fatalf("MakeApplication failed: %v", err)
		}
		list.Push(app.Borrow())
		want = append(want, app.Borrow())
		// Drop the individual owned handles; the list is the only root.
		app.Drop()
		n.Drop()
	}

	tp.CollectNow()

	if got := aterm.PoolSize(); got < 1000 {
		t.Errorf("PoolSize after collect = %d, want >= 1000", got)
	}
	if got := list.Len(); got != 1000 {
		t.Fatalf("list length = %d, want 1000", got)
	}
	for i, ref := range want {
		held := list.Get(i)
		if held != ref {
			t.Fatalf("element %d changed address across collection", i)
		}
		if got := held.Argument(0).NumericValue(); got != uint64(i) {
			t.Fatalf("element %d = g(%d), want g(%d)", i, got, i)
		}
	}
}

func TestAutomaticCollection(t *testing.T) {
	mustReset(t)
	tp := aterm.Register()
	defer tp.Close()

	// Construct plenty of unrooted garbage; the insertion countdown
	// must fire at least one automatic collection.
	for i := 0; i < 5000; i++ {
		n, err := tp.MakeNumeric(uint64(i))
		if err != nil {
			t.Fatalf("MakeNumeric failed: %v", err)
		}
		n.Drop()
	}
	stats := aterm.Stats()
	if stats.Collections == 0 {
		t.Fatalf("no automatic collection after 5000 fresh insertions")
	}
	if stats.Terms >= 5000 {
		t.Errorf("automatic collection reclaimed nothing: %d live terms", stats.Terms)
	}
}

func TestAutomaticCollectionDisabled(t *testing.T) {
	mustReset(t)
	aterm.EnableAutomaticGC(false)
	tp := aterm.Register()
	defer tp.Close()

	for i := 0; i < 5000; i++ {
		n, err := tp.MakeNumeric(uint64(i))
		if err != nil {
			t.Fatalf("MakeNumeric failed: %v", err)
		}
		n.Drop()
	}
	if got := aterm.Stats().Collections; got != 0 {
		t.Errorf("automatic collection ran %d times while disabled", got)
	}
	if got := aterm.PoolSize(); got != 5000 {
		t.Errorf("PoolSize = %d, want 5000 with collection disabled", got)
	}
}

func TestCollectionIsStablePerProperty(t *testing.T) {
	mustReset(t)
	tp := aterm.Register()
	defer tp.Close()

	// Nested term with sharing: f(g(a), g(a)).
	a := mustIntern(t, tp, "a", 0)
	defer a.Drop()
	g := mustIntern(t, tp, "g", 1)
	defer g.Drop()
	f := mustIntern(t, tp, "f", 2)
	defer f.Drop()

	ca, _ := tp.MakeConstant(a.Ref())
	defer ca.Drop()
	ga, _ := tp.MakeApplication(g.Ref(), ca.Borrow())
	defer ga.Drop()
	top, err := tp.MakeApplication(f.Ref(), ga.Borrow(), ga.Borrow())
	if err != nil {
		t.Fatalf("MakeApplication failed: %v", err)
	}
	defer top.Drop()

	if top.Argument(0) != top.Argument(1) {
		t.Fatalf("shared children have distinct addresses")
	}

	// Repeated collections leave live structure untouched.
	for i := 0; i < 3; i++ {
		tp.CollectNow()
		if top.Argument(0) != ga.Borrow() || top.Argument(1) != ga.Borrow() {
			t.Fatalf("collection %d disturbed shared children", i)
		}
	}
}
