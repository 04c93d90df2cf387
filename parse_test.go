package aterm_test

import (
	"errors"
	"testing"

	"aterm"
	"aterm/internal/testkit"
)

func TestParseBasic(t *testing.T) {
	mustReset(t)
	tp := aterm.Register()
	defer tp.Close()

	parsed, err := tp.Parse("f(g(a),b)")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	defer parsed.Drop()

	if got := parsed.Symbol().Name(); got != "f" {
		t.Errorf("head symbol = %q, want f", got)
	}
	if got := parsed.Argument(0).Symbol().Name(); got != "g" {
		t.Errorf("argument 0 head = %q, want g", got)
	}
	if got := parsed.Argument(1).Symbol().Name(); got != "b" {
		t.Errorf("argument 1 head = %q, want b", got)
	}
	if got := parsed.String(); got != "f(g(a),b)" {
		t.Errorf("String = %q, want f(g(a),b)", got)
	}
}

func TestParseMatchesConstruction(t *testing.T) {
	mustReset(t)
	tp := aterm.Register()
	defer tp.Close()

	f := mustIntern(t, tp, "f", 2)
	defer f.Drop()
	a := mustIntern(t, tp, "a", 0)
	defer a.Drop()

	ca, _ := tp.MakeConstant(a.Ref())
	defer ca.Drop()
	n, _ := tp.MakeNumeric(42)
	defer n.Drop()
	built, err := tp.MakeApplication(f.Ref(), ca.Borrow(), n.Borrow())
	if err != nil {
		t.Fatalf("MakeApplication failed: %v", err)
	}
	defer built.Drop()

	parsed, err := tp.Parse("f(a, 42)")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	defer parsed.Drop()

	if parsed.Borrow() != built.Borrow() {
		t.Errorf("parsed term and constructed term have different addresses")
	}
}

func TestParsePrintRoundTrip(t *testing.T) {
	mustReset(t)
	tp := aterm.Register()
	defer tp.Close()

	inputs := []string{
		"a",
		"42",
		"18446744073709551615",
		"f(a,b)",
		"f(g(a),f(a,b))",
		`"strange name"(a)`,
		`""`,
		`"42"`,
		"deep(deep(deep(deep(0))))",
	}
	for _, input := range inputs {
		parsed, err := tp.Parse(input)
		if err != nil {
			t.Errorf("Parse(%q) failed: %v", input, err)
			continue
		}
		if err := testkit.CheckPrintParse(tp, parsed.Borrow()); err != nil {
			t.Errorf("round trip of %q: %v", input, err)
		}
		if err := testkit.CheckShape(parsed.Borrow()); err != nil {
			t.Errorf("shape of %q: %v", input, err)
		}
		parsed.Drop()
	}
}

func TestParseWhitespaceInsensitive(t *testing.T) {
	mustReset(t)
	tp := aterm.Register()
	defer tp.Close()

	t1, err := tp.Parse("f(a,b)")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	defer t1.Drop()
	t2, err := tp.Parse("  f( a ,\n\tb )  ")
	if err != nil {
		t.Fatalf("Parse with whitespace failed: %v", err)
	}
	defer t2.Drop()

	if t1.Borrow() != t2.Borrow() {
		t.Errorf("whitespace changed the parsed term's address")
	}
}

func TestParseErrors(t *testing.T) {
	mustReset(t)
	tp := aterm.Register()
	defer tp.Close()

	inputs := []string{
		"",
		"f(",
		"f(a",
		"f(a,)",
		"f(a))",
		"(a)",
		",",
		`"unterminated`,
		"99999999999999999999999",
		"f(a) trailing",
	}
	for _, input := range inputs {
		if _, err := tp.Parse(input); !errors.Is(err, aterm.ErrParse) {
			t.Errorf("Parse(%q): err = %v, want ErrParse", input, err)
		}
	}
}

func TestCanonicalRebuild(t *testing.T) {
	mustReset(t)
	tp := aterm.Register()
	defer tp.Close()

	terms := []string{"a", "f(a,b)", "f(g(a),g(a))", "h(1,2,3)"}
	refs := make([]aterm.TermRef, 0, len(terms))
	owned := make([]aterm.Term, 0, len(terms))
	defer func() {
		for i := range owned {
			owned[i].Drop()
		}
	}()
	for _, text := range terms {
		parsed, err := tp.Parse(text)
		if err != nil {
			t.Fatalf("Parse(%q) failed: %v", text, err)
		}
		owned = append(owned, parsed)
		refs = append(refs, parsed.Borrow())
	}
	if err := testkit.CheckCanonical(tp, refs); err != nil {
		t.Errorf("canonicalization check: %v", err)
	}
}
