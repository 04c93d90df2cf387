package aterm

import (
	"fmt"
	"sync"

	"fortio.org/safecast"
)

// protSet is a growable slot vector with a free-list. Each occupied slot
// is one root for the collector; the zero value of T marks a free slot.
// A thread mutates only its own sets (under the owning ThreadPool's
// protMu), and the collector reads them under the exclusive grant.
type protSet[T comparable] struct {
	slots []T
	free  []uint32
	live  int
}

func newProtSet[T comparable](capacity uint) protSet[T] {
	return protSet[T]{slots: make([]T, 0, capacity)}
}

// protect reserves a slot for v and returns its index.
func (p *protSet[T]) protect(v T) uint32 {
	p.live++
	if n := len(p.free); n > 0 {
		slot := p.free[n-1]
		p.free = p.free[:n-1]
		p.slots[slot] = v
		return slot
	}
	slot, err := safecast.Conv[uint32](len(p.slots))
	if err != nil {
		panic(fmt.Errorf("protection set overflow: %w", err))
	}
	p.slots = append(p.slots, v)
	return slot
}

// unprotect clears a slot and recycles its index.
func (p *protSet[T]) unprotect(slot uint32) {
	var zero T
	if int(slot) >= len(p.slots) || p.slots[slot] == zero {
		panic("aterm: unprotect of a free protection slot")
	}
	p.slots[slot] = zero
	p.free = append(p.free, slot)
	p.live--
}

// each visits every occupied slot.
func (p *protSet[T]) each(f func(T)) {
	var zero T
	for _, v := range p.slots {
		if v != zero {
			f(v)
		}
	}
}

func (p *protSet[T]) size() int { return p.live }

// contains reports whether some occupied slot holds v. Used by runtime
// checks and tests only; linear.
func (p *protSet[T]) contains(v T) bool {
	for _, s := range p.slots {
		if s == v {
			return true
		}
	}
	return false
}

// Marker records reachable nodes during a collection. Mark callbacks
// receive it to report every term a container keeps alive. Allocation
// and term construction are forbidden inside a mark callback.
type Marker struct {
	stack []*node
}

// Mark flags the given term and everything below it as reachable.
func (m *Marker) Mark(t TermRef) {
	if t.n == nil {
		return
	}
	m.markNode(t.n)
}

// markNode walks the node graph with an explicit stack so arbitrarily
// deep terms cannot overflow the goroutine stack.
func (m *Marker) markNode(root *node) {
	m.stack = append(m.stack[:0], root)
	for len(m.stack) > 0 {
		n := m.stack[len(m.stack)-1]
		m.stack = m.stack[:len(m.stack)-1]
		if n.marked {
			continue
		}
		n.marked = true
		n.sym.marked = true
		for _, arg := range n.args {
			if !arg.marked {
				m.stack = append(m.stack, arg)
			}
		}
	}
}

// Markable is implemented by bulk-protected containers. A container
// occupies a single registry slot; during collection the pool invokes
// Mark so the container can report every term it holds.
type Markable interface {
	// Mark reports every contained term to the marker.
	Mark(m *Marker)
	// ContainsTerm reports whether the container covers the given term.
	// Used for runtime checks.
	ContainsTerm(t TermRef) bool
	// Len returns the number of contained terms.
	Len() int
}

// ProtectedList is a growable sequence of borrowed handles behind a
// single protection slot. Elements stay reachable until the list is
// dropped; individual owned handles for them can be released. The list
// is safe for concurrent reads, but writes are serialized internally so
// the collector's mark callback never observes a torn slice.
type ProtectedList struct {
	tp   *ThreadPool
	slot uint32

	mu    sync.Mutex
	terms []TermRef
}

// NewProtectedList allocates a bulk container rooted in this thread's
// container protection set.
func (tp *ThreadPool) NewProtectedList() *ProtectedList {
	l := &ProtectedList{tp: tp}
	l.slot = tp.protectContainer(l)
	return l
}

// Push appends a term. The term must be valid (anchored) at the time of
// the call; afterwards the list itself keeps it reachable.
func (l *ProtectedList) Push(t TermRef) {
	if t.n == nil {
		panic("aterm: push of an invalid term")
	}
	l.mu.Lock()
	l.terms = append(l.terms, t)
	l.mu.Unlock()
}

// Get returns the i-th element, anchored by the list.
func (l *ProtectedList) Get(i int) TermRef {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.terms[i]
}

// Len returns the number of stored terms.
func (l *ProtectedList) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.terms)
}

// Clear removes all elements but keeps the registry slot.
func (l *ProtectedList) Clear() {
	l.mu.Lock()
	l.terms = l.terms[:0]
	l.mu.Unlock()
}

// Mark implements Markable.
func (l *ProtectedList) Mark(m *Marker) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, t := range l.terms {
		m.Mark(t)
	}
}

// ContainsTerm implements Markable.
func (l *ProtectedList) ContainsTerm(t TermRef) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, held := range l.terms {
		if held == t {
			return true
		}
	}
	return false
}

// Drop releases the registry slot. Elements anchored only by the list
// become unreachable. Dropping twice panics.
func (l *ProtectedList) Drop() {
	if l.tp == nil {
		panic("aterm: ProtectedList dropped twice")
	}
	l.tp.unprotectContainer(l.slot)
	l.tp = nil
	l.terms = nil
}
