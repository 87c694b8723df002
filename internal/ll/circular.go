package ll

import "iter"

// CircularList is a doubly-linked ring where the tail links back to the head.
// Pivoting moves the head/tail window around the ring in constant time.
type CircularList[T Linker[T]] struct {
	head, tail T
	n          int

	// Checked enables neighbour verification on Remove.
	Checked bool
}

// Head returns the first element, or the zero value when empty.
func (c *CircularList[T]) Head() T { return c.head }

// Tail returns the last element, or the zero value when empty.
func (c *CircularList[T]) Tail() T { return c.tail }

// Len returns the number of elements.
func (c *CircularList[T]) Len() int { return c.n }

// Empty reports whether the ring has no elements.
func (c *CircularList[T]) Empty() bool { return c.n == 0 }

// Contains reports whether e is a member of c.
func (c *CircularList[T]) Contains(e T) bool { return e.Links().owner == any(c) }

// Add inserts e at the tail of the ring.
func (c *CircularList[T]) Add(e T) {
	l := e.Links()
	if l.owner != nil {
		panic(ErrLinked)
	}
	l.owner = c
	c.n++
	if c.n == 1 {
		l.next, l.prev = e, e
		c.head, c.tail = e, e
		return
	}
	l.prev = c.tail
	l.next = c.head
	c.tail.Links().next = e
	c.head.Links().prev = e
	c.tail = e
}

// InsertBefore splices e into the ring immediately before ref. If ref was
// the head, e becomes the new head.
func (c *CircularList[T]) InsertBefore(e, ref T) {
	l := e.Links()
	if l.owner != nil {
		panic(ErrLinked)
	}
	r := ref.Links()
	if r.owner != any(c) {
		panic(ErrForeign)
	}
	l.owner = c
	l.next = ref
	l.prev = r.prev
	r.prev.Links().next = e
	r.prev = e
	if ref == c.head {
		c.head = e
	}
	c.n++
}

// Remove detaches e. It reports false when e was not linked.
func (c *CircularList[T]) Remove(e T) bool {
	l := e.Links()
	if l.owner == nil {
		return false
	}
	if l.owner != any(c) {
		panic(ErrForeign)
	}
	checkUnlink(e, c.Checked)

	var zero T
	c.n--
	if c.n == 0 {
		c.head, c.tail = zero, zero
		ClearNode(e)
		return true
	}
	l.prev.Links().next = l.next
	l.next.Links().prev = l.prev
	if e == c.head {
		c.head = l.next
	}
	if e == c.tail {
		c.tail = l.prev
	}
	ClearNode(e)
	return true
}

// PivotForward advances the window by one: the old head becomes the tail.
func (c *CircularList[T]) PivotForward() {
	if c.n == 0 {
		return
	}
	c.head = c.head.Links().next
	c.tail = c.tail.Links().next
}

// PivotBackward moves the window back by one: the old tail becomes the head.
func (c *CircularList[T]) PivotBackward() {
	if c.n == 0 {
		return
	}
	c.head = c.head.Links().prev
	c.tail = c.tail.Links().prev
}

// All iterates once around the ring starting at the head. The ring must not
// be modified during iteration.
func (c *CircularList[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		e := c.head
		for i := 0; i < c.n; i++ {
			if !yield(e) {
				return
			}
			e = e.Links().next
		}
	}
}
