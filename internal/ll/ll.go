// Package ll implements the intrusive linked lists used by the kernel.
//
// Elements embed a Links value and expose it through the Linker constraint,
// so adding and removing never allocates. A node is a member of at most one
// list at a time.
package ll

import "errors"

var (
	// ErrLinked is the panic value when a node that is already a member of a
	// list is added again.
	ErrLinked = errors.New("ll: node already linked")
	// ErrForeign is the panic value when a node is removed from a list that
	// does not own it.
	ErrForeign = errors.New("ll: node owned by another list")
	// ErrUnlinkFailed is the panic value when a checked list finds that a
	// node's neighbours do not point back at it.
	ErrUnlinkFailed = errors.New("ll: unlink consistency check failed")
)

// Links holds the intrusive next/prev references of a list element.
type Links[T any] struct {
	next, prev T
	owner      any
}

// Next returns the following element, or the zero value.
func (l *Links[T]) Next() T { return l.next }

// Prev returns the preceding element, or the zero value.
func (l *Links[T]) Prev() T { return l.prev }

// Linked reports whether the element is a member of a list.
func (l *Links[T]) Linked() bool { return l.owner != nil }

// Linker is satisfied by list element types, typically pointers to structs
// embedding a Links value.
type Linker[T any] interface {
	comparable
	Links() *Links[T]
}

// ClearNode resets the element's links to the detached state.
func ClearNode[T Linker[T]](e T) {
	var zero T
	l := e.Links()
	l.next, l.prev, l.owner = zero, zero, nil
}

func checkUnlink[T Linker[T]](e T, checked bool) {
	if !checked {
		return
	}
	l := e.Links()
	var zero T
	if l.next != zero && l.next.Links().prev != e {
		panic(ErrUnlinkFailed)
	}
	if l.prev != zero && l.prev.Links().next != e {
		panic(ErrUnlinkFailed)
	}
}
