package aterm

import (
	"strconv"
	"strings"
)

// symbolRecord is the canonical interned form of a function symbol.
// Records live in the global symbol table; their address is stable for
// the symbol's lifetime, so symbol equality is pointer equality.
type symbolRecord struct {
	name   string
	arity  uint32
	id     uint64
	marked bool
}

// SymbolRef is a borrowed handle to an interned function symbol. It is
// registry-free and valid while the symbol is reachable from any root or
// any live term.
type SymbolRef struct {
	rec *symbolRecord
}

// IsValid reports whether the handle refers to an interned symbol.
func (s SymbolRef) IsValid() bool { return s.rec != nil }

// Name returns the symbol's name. The returned string stays valid for
// the symbol's lifetime.
func (s SymbolRef) Name() string { return s.rec.name }

// Arity returns the number of arguments the symbol takes.
func (s SymbolRef) Arity() uint32 { return s.rec.arity }

// String renders the symbol name, quoting it when it is not a plain
// identifier.
func (s SymbolRef) String() string {
	if !s.IsValid() {
		return "<invalid>"
	}
	if isPlainName(s.rec.name) {
		return s.rec.name
	}
	return strconv.Quote(s.rec.name)
}

// Symbol is an owned handle to an interned symbol. It occupies one slot
// in the owning thread's symbol protection set and keeps the symbol
// alive across collections until Drop is called.
type Symbol struct {
	ref  SymbolRef
	tp   *ThreadPool
	slot uint32
}

// Ref borrows the symbol. The borrow is valid while this handle (or any
// other root covering the symbol) is live.
func (s *Symbol) Ref() SymbolRef { return s.ref }

// Name returns the symbol's name.
func (s *Symbol) Name() string { return s.ref.Name() }

// Arity returns the symbol's arity.
func (s *Symbol) Arity() uint32 { return s.ref.Arity() }

// Drop releases the protection slot. The handle must not be used
// afterwards; dropping twice panics.
func (s *Symbol) Drop() {
	if s.ref.rec == nil {
		panic("aterm: Symbol dropped twice")
	}
	s.tp.unprotectSymbol(s.slot)
	s.ref.rec = nil
}

type symbolKey struct {
	name  string
	arity uint32
}

// symbolTable interns (name, arity) pairs to canonical records. Access
// is serialized by the pool's table latch; the collector sweeps it under
// the exclusive grant.
type symbolTable struct {
	byKey  map[symbolKey]*symbolRecord
	nextID uint64
}

func newSymbolTable() symbolTable {
	return symbolTable{
		byKey:  make(map[symbolKey]*symbolRecord, 64),
		nextID: 1,
	}
}

// intern returns the canonical record for (name, arity), allocating one
// on first use. The name is copied into stable storage so the caller's
// buffer may be reused. Reports whether a new record was inserted.
func (st *symbolTable) intern(name string, arity uint32) (*symbolRecord, bool) {
	key := symbolKey{name: name, arity: arity}
	if rec, ok := st.byKey[key]; ok {
		return rec, false
	}
	rec := &symbolRecord{
		name:  strings.Clone(name),
		arity: arity,
		id:    st.nextID,
	}
	st.nextID++
	st.byKey[symbolKey{name: rec.name, arity: arity}] = rec
	return rec, true
}

// sweep removes every unmarked record and clears the mark bits of the
// survivors. Returns the number of reclaimed symbols.
func (st *symbolTable) sweep() int {
	reclaimed := 0
	for key, rec := range st.byKey {
		if rec.marked {
			rec.marked = false
			continue
		}
		delete(st.byKey, key)
		reclaimed++
	}
	return reclaimed
}

func (st *symbolTable) len() int { return len(st.byKey) }

// isPlainName reports whether a symbol name can be printed without quotes.
func isPlainName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
