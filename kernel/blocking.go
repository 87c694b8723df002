package kernel

// blockingObject is the base of every object a thread can wait on. It owns
// the list of waiting threads.
type blockingObject struct {
	k       *Kernel
	cookie  uint8
	waiters ThreadList
}

func (b *blockingObject) initBlocking(k *Kernel) {
	if b.cookie == cookieInit && b.k != nil && !b.waiters.Empty() {
		k.Panic(PanicAssertFailed)
	}
	b.k = k
	b.waiters.init(k, 0, nil)
	b.cookie = cookieInit
}

func (b *blockingObject) check() {
	if b.cookie != cookieInit || b.k == nil {
		panic(errUninitialized)
	}
}

// block moves t from its current list to the tail of the wait list.
func (b *blockingObject) block(t *Thread) {
	cs := b.k.enterCritical()
	t.current.Remove(t)
	b.waiters.Add(t)
	t.current = &b.waiters
	t.state = ThreadBlocked
	cs.exit()
}

// blockPriority is block with the wait list kept in priority order.
func (b *blockingObject) blockPriority(t *Thread) {
	cs := b.k.enterCritical()
	t.current.Remove(t)
	b.waiters.AddPriority(t)
	t.current = &b.waiters
	t.state = ThreadBlocked
	cs.exit()
}

// unblock returns t to the ready list of its current priority.
func (b *blockingObject) unblock(t *Thread) {
	cs := b.k.enterCritical()
	b.waiters.Remove(t)
	t.current = t.owner
	t.state = ThreadReady
	t.owner.Add(t)
	cs.exit()
}

func (b *blockingObject) waitingOn(t *Thread) bool {
	return t.state == ThreadBlocked && t.current == &b.waiters
}

// Waiters returns the number of threads blocked on the object.
func (b *blockingObject) Waiters() int { return b.waiters.Len() }

// preempts reports whether waking t should run the scheduler.
func (b *blockingObject) preempts(t *Thread) bool {
	cur := b.k.sched.current
	return cur == nil || t.curPrio >= cur.curPrio
}
