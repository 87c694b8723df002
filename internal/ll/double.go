package ll

import "iter"

// DoubleList is a linear doubly-linked list with head and tail.
// The zero value is an empty list.
type DoubleList[T Linker[T]] struct {
	head, tail T
	n          int

	// Checked enables neighbour verification on Remove.
	Checked bool
}

// Head returns the first element, or the zero value when empty.
func (d *DoubleList[T]) Head() T { return d.head }

// Tail returns the last element, or the zero value when empty.
func (d *DoubleList[T]) Tail() T { return d.tail }

// Len returns the number of elements.
func (d *DoubleList[T]) Len() int { return d.n }

// Empty reports whether the list has no elements.
func (d *DoubleList[T]) Empty() bool { return d.n == 0 }

// Contains reports whether e is a member of d.
func (d *DoubleList[T]) Contains(e T) bool { return e.Links().owner == any(d) }

// Add appends e at the tail.
func (d *DoubleList[T]) Add(e T) {
	l := e.Links()
	if l.owner != nil {
		panic(ErrLinked)
	}
	var zero T
	l.next = zero
	l.prev = d.tail
	if d.tail != zero {
		d.tail.Links().next = e
	} else {
		d.head = e
	}
	d.tail = e
	l.owner = d
	d.n++
}

// Remove detaches e. It reports false when e was not linked.
func (d *DoubleList[T]) Remove(e T) bool {
	l := e.Links()
	if l.owner == nil {
		return false
	}
	if l.owner != any(d) {
		panic(ErrForeign)
	}
	checkUnlink(e, d.Checked)

	var zero T
	if l.prev != zero {
		l.prev.Links().next = l.next
	} else {
		d.head = l.next
	}
	if l.next != zero {
		l.next.Links().prev = l.prev
	} else {
		d.tail = l.prev
	}
	d.n--
	ClearNode(e)
	return true
}

// PopHead detaches and returns the head. ok is false when the list is empty.
func (d *DoubleList[T]) PopHead() (e T, ok bool) {
	if d.n == 0 {
		return e, false
	}
	e = d.head
	d.Remove(e)
	return e, true
}

// All iterates from head to tail. The list must not be modified during
// iteration.
func (d *DoubleList[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		var zero T
		for e := d.head; e != zero; e = e.Links().next {
			if !yield(e) {
				return
			}
		}
	}
}
