package aterm

import "iter"

type termKind uint8

const (
	kindApplication termKind = iota
	kindNumeric
)

// node is the canonical storage form of a term. Nodes live in the global
// term table; their address is stable while reachable, so structural
// equality is pointer equality.
type node struct {
	kind   termKind
	sym    *symbolRecord // head symbol; the reserved numeric symbol for leaves
	args   []*node       // nil for numerics and constants
	value  uint64        // numeric payload, zero otherwise
	hash   uint64        // cached table hash
	marked bool          // set only inside the collector's critical section
}

// TermRef is a borrowed handle to a canonical term. It is registry-free
// and valid only while some owned handle or protected container keeps
// the node reachable. The zero value is invalid.
//
// TermRef is comparable; two refs are equal exactly when the terms are
// structurally equal.
type TermRef struct {
	n *node
}

// IsValid reports whether the handle refers to a term.
func (t TermRef) IsValid() bool { return t.n != nil }

// IsNumeric reports whether the term is a numeric leaf.
func (t TermRef) IsNumeric() bool { return t.n.kind == kindNumeric }

// NumericValue returns the numeric payload. Panics when the term is an
// application; check IsNumeric first.
func (t TermRef) NumericValue() uint64 {
	if t.n.kind != kindNumeric {
		panic("aterm: NumericValue on an application term")
	}
	return t.n.value
}

// Symbol returns the head symbol. Numeric leaves report the reserved
// numeric symbol.
func (t TermRef) Symbol() SymbolRef { return SymbolRef{rec: t.n.sym} }

// Arity returns the number of arguments: the head symbol's arity for
// applications, zero for numerics.
func (t TermRef) Arity() int {
	if t.n.kind == kindNumeric {
		return 0
	}
	return len(t.n.args)
}

// Argument returns the i-th child. Panics when i is out of range.
func (t TermRef) Argument(i int) TermRef {
	if t.n.kind == kindNumeric || i < 0 || i >= len(t.n.args) {
		panic("aterm: argument index out of range")
	}
	return TermRef{n: t.n.args[i]}
}

// Arguments iterates over the children as borrowed handles, anchored by
// whatever anchors t.
func (t TermRef) Arguments() iter.Seq[TermRef] {
	return func(yield func(TermRef) bool) {
		if t.n.kind == kindNumeric {
			return
		}
		for _, arg := range t.n.args {
			if !yield(TermRef{n: arg}) {
				return
			}
		}
	}
}

// Term is an owned handle: it occupies one slot in the owning thread's
// protection registry and keeps its node (and everything below it)
// reachable until Drop is called.
type Term struct {
	ref  TermRef
	tp   *ThreadPool
	slot uint32
}

// Borrow returns a borrowed handle anchored by this owned handle.
func (t *Term) Borrow() TermRef { return t.ref }

// IsNumeric reports whether the term is a numeric leaf.
func (t *Term) IsNumeric() bool { return t.ref.IsNumeric() }

// NumericValue returns the numeric payload of a numeric leaf.
func (t *Term) NumericValue() uint64 { return t.ref.NumericValue() }

// Symbol returns the head symbol.
func (t *Term) Symbol() SymbolRef { return t.ref.Symbol() }

// Argument returns the i-th child as a borrow anchored by this handle.
func (t *Term) Argument(i int) TermRef { return t.ref.Argument(i) }

// String renders the term in the textual format accepted by Parse.
func (t *Term) String() string { return t.ref.String() }

// Drop releases the protection slot. The handle and every borrow
// anchored only by it must not be used afterwards; dropping twice panics.
func (t *Term) Drop() {
	if t.ref.n == nil {
		panic("aterm: Term dropped twice")
	}
	t.tp.unprotectTerm(t.slot)
	t.ref.n = nil
}
