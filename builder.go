package aterm

import (
	"fmt"
	"sync"
)

// TermBuilder assembles a term bottom-up on an explicit stack. The
// builder occupies a single container slot, so every intermediate
// result stays reachable without per-node registry traffic. Useful for
// post-order consumers such as deserializers.
type TermBuilder struct {
	tp   *ThreadPool
	slot uint32

	mu    sync.Mutex
	stack []TermRef
}

// NewTermBuilder allocates a builder rooted in this thread's container
// protection set.
func (tp *ThreadPool) NewTermBuilder() *TermBuilder {
	b := &TermBuilder{tp: tp}
	b.slot = tp.protectContainer(b)
	return b
}

// Push places an existing term on the stack. The term must be valid at
// the time of the call; afterwards the builder keeps it reachable.
func (b *TermBuilder) Push(t TermRef) {
	if t.n == nil {
		panic("aterm: push of an invalid term")
	}
	b.mu.Lock()
	b.stack = append(b.stack, t)
	b.mu.Unlock()
}

// PushNumeric constructs a numeric leaf on the stack.
func (b *TermBuilder) PushNumeric(value uint64) error {
	t, err := b.tp.MakeNumeric(value)
	if err != nil {
		return err
	}
	b.Push(t.Borrow())
	t.Drop()
	return nil
}

// PushConstant constructs a constant on the stack.
func (b *TermBuilder) PushConstant(sym SymbolRef) error {
	t, err := b.tp.MakeConstant(sym)
	if err != nil {
		return err
	}
	b.Push(t.Borrow())
	t.Drop()
	return nil
}

// Apply pops the symbol's arity worth of arguments (top of stack is the
// last argument) and pushes the application.
func (b *TermBuilder) Apply(sym SymbolRef) error {
	n := int(sym.Arity())
	b.mu.Lock()
	if len(b.stack) < n {
		b.mu.Unlock()
		return fmt.Errorf("%w: symbol %s expects %d arguments, stack holds %d",
			ErrArityMismatch, sym, n, len(b.stack))
	}
	args := make([]TermRef, n)
	copy(args, b.stack[len(b.stack)-n:])
	b.mu.Unlock()

	t, err := b.tp.MakeApplication(sym, args...)
	if err != nil {
		return err
	}
	b.mu.Lock()
	b.stack = append(b.stack[:len(b.stack)-n], t.Borrow())
	b.mu.Unlock()
	t.Drop()
	return nil
}

// Depth returns the number of stacked terms.
func (b *TermBuilder) Depth() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.stack)
}

// Peek returns the i-th stacked term counted from the bottom, anchored
// by the builder.
func (b *TermBuilder) Peek(i int) TermRef {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stack[i]
}

// Finish converts the single remaining stack entry into an owned handle
// and releases the builder. The builder must not be used afterwards.
func (b *TermBuilder) Finish() (Term, error) {
	b.mu.Lock()
	if len(b.stack) != 1 {
		depth := len(b.stack)
		b.mu.Unlock()
		return Term{}, fmt.Errorf("term builder finished with %d stacked terms, want 1", depth)
	}
	top := b.stack[0]
	b.mu.Unlock()

	t := b.tp.Protect(top)
	b.Drop()
	return t, nil
}

// Mark implements Markable.
func (b *TermBuilder) Mark(m *Marker) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, t := range b.stack {
		m.Mark(t)
	}
}

// ContainsTerm implements Markable.
func (b *TermBuilder) ContainsTerm(t TermRef) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, held := range b.stack {
		if held == t {
			return true
		}
	}
	return false
}

// Len implements Markable.
func (b *TermBuilder) Len() int { return b.Depth() }

// Drop releases the container slot. Dropping twice panics.
func (b *TermBuilder) Drop() {
	if b.tp == nil {
		panic("aterm: TermBuilder dropped twice")
	}
	b.tp.unprotectContainer(b.slot)
	b.tp = nil
	b.stack = nil
}
