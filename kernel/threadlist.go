package kernel

import (
	"iter"

	"tickos/internal/ll"
)

// ThreadList is a circular list of threads. Ready lists carry their priority
// and keep the scheduler's priority bitmap in sync.
type ThreadList struct {
	list   ll.CircularList[*Thread]
	prio   Priority
	bitmap *uint64
}

func (l *ThreadList) init(k *Kernel, prio Priority, bitmap *uint64) {
	l.list = ll.CircularList[*Thread]{Checked: k.cfg.SafeUnlink}
	l.prio = prio
	l.bitmap = bitmap
}

// Add appends t.
func (l *ThreadList) Add(t *Thread) {
	l.list.Add(t)
	l.mark()
}

// AddPriority inserts t ahead of the first thread with a lower current
// priority, keeping the list sorted most urgent first and FIFO among equals.
func (l *ThreadList) AddPriority(t *Thread) {
	for e := range l.list.All() {
		if e.curPrio < t.curPrio {
			l.list.InsertBefore(t, e)
			l.mark()
			return
		}
	}
	l.Add(t)
}

// Remove detaches t.
func (l *ThreadList) Remove(t *Thread) {
	l.list.Remove(t)
	if l.bitmap != nil && l.list.Empty() {
		*l.bitmap &^= 1 << l.prio
	}
}

func (l *ThreadList) mark() {
	if l.bitmap != nil {
		*l.bitmap |= 1 << l.prio
	}
}

// Head returns the first thread, or nil.
func (l *ThreadList) Head() *Thread { return l.list.Head() }

// Len returns the number of threads.
func (l *ThreadList) Len() int { return l.list.Len() }

// Empty reports whether the list has no threads.
func (l *ThreadList) Empty() bool { return l.list.Empty() }

// Priority returns the priority the list serves.
func (l *ThreadList) Priority() Priority { return l.prio }

// Threads iterates from head to tail.
func (l *ThreadList) Threads() iter.Seq[*Thread] { return l.list.All() }

func (l *ThreadList) pivot() { l.list.PivotForward() }
