package aterm_test

import (
	"testing"

	"aterm"
)

func TestProtectAndBorrow(t *testing.T) {
	mustReset(t)
	tp := aterm.Register()
	defer tp.Close()

	n, err := tp.MakeNumeric(11)
	if err != nil {
		t.Fatalf("MakeNumeric failed: %v", err)
	}

	// A second owned handle from a borrow keeps the node alive after
	// the first is dropped.
	second := tp.Protect(n.Borrow())
	ref := n.Borrow()
	n.Drop()

	tp.CollectNow()
	if second.Borrow() != ref {
		t.Fatalf("second owner's address changed after dropping the first")
	}
	if got := second.NumericValue(); got != 11 {
		t.Errorf("NumericValue = %d, want 11", got)
	}

	second.Drop()
	tp.CollectNow()
	if got := aterm.PoolSize(); got != 0 {
		t.Errorf("PoolSize = %d, want 0 after dropping all owners", got)
	}
}

func TestDoubleDropPanics(t *testing.T) {
	mustReset(t)
	tp := aterm.Register()
	defer tp.Close()

	n, err := tp.MakeNumeric(1)
	if err != nil {
		t.Fatalf("MakeNumeric failed: %v", err)
	}
	n.Drop()

	defer func() {
		if recover() == nil {
			t.Errorf("second Drop did not panic")
		}
	}()
	n.Drop()
}

func TestProtectSymbolKeepsSymbolAlive(t *testing.T) {
	mustReset(t)
	tp := aterm.Register()
	defer tp.Close()

	sym := mustIntern(t, tp, "lonely", 0)
	second := tp.ProtectSymbol(sym.Ref())
	sym.Drop()

	tp.CollectNow()
	if got := second.Name(); got != "lonely" {
		t.Errorf("protected symbol name = %q, want lonely", got)
	}
	// Reserved numeric symbol + lonely.
	if got := aterm.SymbolCount(); got != 2 {
		t.Errorf("SymbolCount = %d, want 2", got)
	}

	second.Drop()
	tp.CollectNow()
	if got := aterm.SymbolCount(); got != 1 {
		t.Errorf("SymbolCount after drop = %d, want 1", got)
	}
}

func TestProtectedListClear(t *testing.T) {
	mustReset(t)
	tp := aterm.Register()
	defer tp.Close()

	list := tp.NewProtectedList()
	defer list.Drop()

	n, _ := tp.MakeNumeric(3)
	list.Push(n.Borrow())
	n.Drop()

	if !list.ContainsTerm(list.Get(0)) {
		t.Errorf("ContainsTerm does not find a pushed term")
	}

	list.Clear()
	if got := list.Len(); got != 0 {
		t.Errorf("Len after Clear = %d, want 0", got)
	}
	tp.CollectNow()
	if got := aterm.PoolSize(); got != 0 {
		t.Errorf("PoolSize = %d, want 0 after clearing the only root", got)
	}
}

func TestRepeatedProtectDropKeepsValues(t *testing.T) {
	mustReset(t)
	tp := aterm.Register()
	defer tp.Close()

	// Protect and drop repeatedly; the terms must stay correct
	// throughout. Slot reuse itself is checked by the internal
	// TestProtSetSlotReuse.
	for round := 0; round < 1000; round++ {
		n, err := tp.MakeNumeric(uint64(round % 10))
		if err != nil {
			t.Fatalf("round %d: MakeNumeric failed: %v", round, err)
		}
		if got := n.NumericValue(); got != uint64(round%10) {
			t.Fatalf("round %d: NumericValue = %d", round, got)
		}
		n.Drop()
	}
}
