package aterm

import (
	"fmt"
	"math/rand/v2"

	"fortio.org/safecast"
)

// SymbolSpec names a function symbol available to RandomTerm.
type SymbolSpec struct {
	Name  string
	Arity uint32
}

// RandomTerm builds a pseudo-random term. It seeds a pool of subterms
// with the given constants, then performs the requested number of
// constructions, each applying a random symbol to random previously
// built subterms. Sharing arises naturally because subterms are reused.
// The result is the last constructed term, returned as an owned handle.
func RandomTerm(tp *ThreadPool, rng *rand.Rand, symbols []SymbolSpec, constants []string, iterations int) (Term, error) {
	if len(constants) == 0 {
		return Term{}, fmt.Errorf("random term needs at least one constant")
	}
	if len(symbols) == 0 || iterations <= 0 {
		return Term{}, fmt.Errorf("random term needs symbols and a positive iteration count")
	}

	subterms := tp.NewProtectedList()
	defer subterms.Drop()

	for _, name := range constants {
		sym, err := tp.Intern(name, 0)
		if err != nil {
			return Term{}, err
		}
		c, err := tp.MakeConstant(sym.Ref())
		sym.Drop()
		if err != nil {
			return Term{}, err
		}
		subterms.Push(c.Borrow())
		c.Drop()
	}

	var last TermRef
	args := make([]TermRef, 0, 8)
	for i := 0; i < iterations; i++ {
		spec := symbols[rng.IntN(len(symbols))]
		arity, err := safecast.Conv[int](spec.Arity)
		if err != nil {
			return Term{}, fmt.Errorf("symbol %q arity overflow: %w", spec.Name, err)
		}
		args = args[:0]
		for range arity {
			args = append(args, subterms.Get(rng.IntN(subterms.Len())))
		}
		sym, err := tp.Intern(spec.Name, spec.Arity)
		if err != nil {
			return Term{}, err
		}
		t, err := tp.MakeApplication(sym.Ref(), args...)
		sym.Drop()
		if err != nil {
			return Term{}, err
		}
		subterms.Push(t.Borrow())
		last = t.Borrow()
		t.Drop()
	}
	return tp.Protect(last), nil
}
