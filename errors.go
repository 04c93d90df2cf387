package aterm

import "errors"

var (
	// ErrArityMismatch indicates that MakeApplication received a child
	// count that disagrees with the symbol's arity.
	ErrArityMismatch = errors.New("arity mismatch")

	// ErrUnregisteredThread indicates a term operation on a ThreadPool
	// that was already closed. Recoverable by registering again.
	ErrUnregisteredThread = errors.New("thread is not registered with the term pool")

	// ErrOutOfMemory indicates that the term table cannot grow further.
	// The pool stays consistent; no partial insertion is left behind.
	ErrOutOfMemory = errors.New("term pool out of memory")

	// ErrParse indicates malformed textual term input.
	ErrParse = errors.New("term parse error")
)
