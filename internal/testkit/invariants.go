package testkit

import (
	"fmt"

	"aterm"
)

// CheckCanonical rebuilds each term bottom-up through the public
// construction surface and verifies that every rebuild lands on the
// same address. This exercises the canonicalization invariant: address
// equality iff structural equality.
func CheckCanonical(tp *aterm.ThreadPool, terms []aterm.TermRef) error {
	for i, t := range terms {
		rebuilt, err := rebuild(tp, t)
		if err != nil {
			return fmt.Errorf("term %d: rebuild failed: %w", i, err)
		}
		same := rebuilt.Borrow() == t
		rebuilt.Drop()
		if !same {
			return fmt.Errorf("term %d: rebuild of %s produced a different address", i, t)
		}
	}
	return nil
}

func rebuild(tp *aterm.ThreadPool, t aterm.TermRef) (aterm.Term, error) {
	if t.IsNumeric() {
		return tp.MakeNumeric(t.NumericValue())
	}
	args := make([]aterm.TermRef, 0, t.Arity())
	owned := make([]aterm.Term, 0, t.Arity())
	defer func() {
		for i := range owned {
			owned[i].Drop()
		}
	}()
	for i := 0; i < t.Arity(); i++ {
		child, err := rebuild(tp, t.Argument(i))
		if err != nil {
			return aterm.Term{}, err
		}
		owned = append(owned, child)
		args = append(args, child.Borrow())
	}
	sym, err := tp.Intern(t.Symbol().Name(), t.Symbol().Arity())
	if err != nil {
		return aterm.Term{}, err
	}
	defer sym.Drop()
	return tp.MakeApplication(sym.Ref(), args...)
}

// CheckPrintParse verifies that parsing a term's textual form returns
// the term's own address.
func CheckPrintParse(tp *aterm.ThreadPool, t aterm.TermRef) error {
	text := t.String()
	parsed, err := tp.Parse(text)
	if err != nil {
		return fmt.Errorf("reparse of %q: %w", text, err)
	}
	same := parsed.Borrow() == t
	parsed.Drop()
	if !same {
		return fmt.Errorf("reparse of %q produced a different address", text)
	}
	return nil
}

// CheckShape verifies structural accessors agree with each other: the
// arity reported by the head symbol matches the argument count, and
// every argument is a valid canonical term.
func CheckShape(t aterm.TermRef) error {
	if t.IsNumeric() {
		if t.Arity() != 0 {
			return fmt.Errorf("numeric term %s reports arity %d", t, t.Arity())
		}
		return nil
	}
	if got, want := t.Arity(), int(t.Symbol().Arity()); got != want {
		return fmt.Errorf("term %s: argument count %d disagrees with symbol arity %d", t, got, want)
	}
	for i := 0; i < t.Arity(); i++ {
		arg := t.Argument(i)
		if !arg.IsValid() {
			return fmt.Errorf("term %s: argument %d is invalid", t, i)
		}
		if err := CheckShape(arg); err != nil {
			return err
		}
	}
	return nil
}
