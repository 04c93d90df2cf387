// Package stream persists term DAGs in a compact, schema-versioned
// binary format. Terms are written as a symbol table followed by a
// post-order node list, so sharing in the pool is preserved on the wire
// and restored exactly on read. The format consumes only the pool's
// public interface; decoding reconstructs terms via interning.
package stream

import (
	"errors"
	"fmt"
	"io"

	"fortio.org/safecast"
	"github.com/vmihailenco/msgpack/v5"

	"aterm"
)

// SchemaVersion is incremented when the payload format changes.
const SchemaVersion uint16 = 1

const magic = "ATRM"

// ErrFormat indicates a stream that is not a valid term payload.
var ErrFormat = errors.New("malformed term stream")

type symbolEntry struct {
	Name  string
	Arity uint32
}

// nodeEntry describes one node. Args index earlier entries of the node
// list; Sym indexes the symbol table. Numeric leaves carry Value.
type nodeEntry struct {
	Numeric bool
	Value   uint64
	Sym     uint32
	Args    []uint32
}

type payload struct {
	Magic   string
	Schema  uint16
	Symbols []symbolEntry
	Nodes   []nodeEntry
	Root    uint32
}

// Write encodes the term rooted at t. Shared subterms are written once.
func Write(w io.Writer, t aterm.TermRef) error {
	if !t.IsValid() {
		return fmt.Errorf("write term stream: invalid term")
	}
	p := payload{Magic: magic, Schema: SchemaVersion}
	symIdx := make(map[aterm.SymbolRef]uint32)
	nodeIdx := make(map[aterm.TermRef]uint32)

	type frame struct {
		t     aterm.TermRef
		child int
	}
	stack := []frame{{t: t}}
	for len(stack) > 0 {
		f := &stack[len(stack)-1]
		if _, done := nodeIdx[f.t]; done && f.child == 0 {
			stack = stack[:len(stack)-1]
			continue
		}
		if !f.t.IsNumeric() && f.child < f.t.Arity() {
			child := f.t.Argument(f.child)
			f.child++
			if _, done := nodeIdx[child]; !done {
				stack = append(stack, frame{t: child})
			}
			continue
		}

		idx, err := safecast.Conv[uint32](len(p.Nodes))
		if err != nil {
			return fmt.Errorf("write term stream: node count overflow: %w", err)
		}
		entry := nodeEntry{}
		if f.t.IsNumeric() {
			entry.Numeric = true
			entry.Value = f.t.NumericValue()
		} else {
			entry.Sym = internSymbolEntry(&p, symIdx, f.t.Symbol())
			for i := 0; i < f.t.Arity(); i++ {
				entry.Args = append(entry.Args, nodeIdx[f.t.Argument(i)])
			}
		}
		p.Nodes = append(p.Nodes, entry)
		nodeIdx[f.t] = idx
		stack = stack[:len(stack)-1]
	}
	p.Root = nodeIdx[t]

	if err := msgpack.NewEncoder(w).Encode(&p); err != nil {
		return fmt.Errorf("write term stream: %w", err)
	}
	return nil
}

func internSymbolEntry(p *payload, symIdx map[aterm.SymbolRef]uint32, sym aterm.SymbolRef) uint32 {
	if idx, ok := symIdx[sym]; ok {
		return idx
	}
	idx := uint32(len(p.Symbols))
	p.Symbols = append(p.Symbols, symbolEntry{Name: sym.Name(), Arity: sym.Arity()})
	symIdx[sym] = idx
	return idx
}

// Read decodes one term, interning symbols and constructing nodes in
// post-order. The result is an owned handle rooted on tp's thread.
func Read(r io.Reader, tp *aterm.ThreadPool) (aterm.Term, error) {
	var p payload
	if err := msgpack.NewDecoder(r).Decode(&p); err != nil {
		return aterm.Term{}, fmt.Errorf("read term stream: %w", err)
	}
	if p.Magic != magic {
		return aterm.Term{}, fmt.Errorf("%w: bad magic %q", ErrFormat, p.Magic)
	}
	if p.Schema != SchemaVersion {
		return aterm.Term{}, fmt.Errorf("%w: schema %d, want %d", ErrFormat, p.Schema, SchemaVersion)
	}
	if len(p.Nodes) == 0 || int(p.Root) >= len(p.Nodes) {
		return aterm.Term{}, fmt.Errorf("%w: root %d out of range", ErrFormat, p.Root)
	}

	symbols := make([]aterm.Symbol, 0, len(p.Symbols))
	defer func() {
		for i := range symbols {
			symbols[i].Drop()
		}
	}()
	for _, entry := range p.Symbols {
		sym, err := tp.Intern(entry.Name, entry.Arity)
		if err != nil {
			return aterm.Term{}, fmt.Errorf("read term stream: %w", err)
		}
		symbols = append(symbols, sym)
	}

	nodes := tp.NewProtectedList()
	defer nodes.Drop()

	args := make([]aterm.TermRef, 0, 8)
	for i, entry := range p.Nodes {
		var (
			t   aterm.Term
			err error
		)
		if entry.Numeric {
			t, err = tp.MakeNumeric(entry.Value)
		} else {
			if int(entry.Sym) >= len(symbols) {
				return aterm.Term{}, fmt.Errorf("%w: node %d references symbol %d", ErrFormat, i, entry.Sym)
			}
			args = args[:0]
			for _, argIdx := range entry.Args {
				if int(argIdx) >= i {
					return aterm.Term{}, fmt.Errorf("%w: node %d references later node %d", ErrFormat, i, argIdx)
				}
				args = append(args, nodes.Get(int(argIdx)))
			}
			t, err = tp.MakeApplication(symbols[entry.Sym].Ref(), args...)
		}
		if err != nil {
			return aterm.Term{}, fmt.Errorf("read term stream: node %d: %w", i, err)
		}
		nodes.Push(t.Borrow())
		t.Drop()
	}

	return tp.Protect(nodes.Get(int(p.Root))), nil
}
