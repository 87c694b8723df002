package kernel

const maxRecursion = 255

// Mutex is a recursive mutual-exclusion lock with single-level priority
// inheritance: while a more urgent thread waits, the owner runs at the
// waiter's priority.
type Mutex struct {
	blockingObject
	ready   bool
	owner   *Thread
	recurse uint8
	maxPrio Priority
}

// Init resets the mutex to unowned.
func (m *Mutex) Init(k *Kernel) {
	m.initBlocking(k)
	m.ready = true
	m.owner = nil
	m.recurse = 0
	m.maxPrio = 0
}

// Claim takes the mutex, blocking until it is available.
func (m *Mutex) Claim() {
	m.claim(0)
}

// ClaimTimeout takes the mutex, waiting at most ticks ticks. Zero waits
// forever. It reports whether the mutex was taken.
func (m *Mutex) ClaimTimeout(ticks uint32) bool {
	return m.claim(ticks)
}

// TryClaim takes the mutex only if that does not require blocking.
func (m *Mutex) TryClaim() bool {
	m.check()
	k := m.k
	cur := k.sched.current
	prev := k.sched.lock()
	defer k.sched.unlock(prev)
	return m.take(cur)
}

func (m *Mutex) take(cur *Thread) bool {
	if m.ready {
		m.ready = false
		m.recurse = 0
		m.maxPrio = cur.basePrio
		m.owner = cur
		return true
	}
	if m.owner == cur {
		if m.recurse == maxRecursion {
			m.k.Panic(PanicMutexRecursionLimit)
		}
		m.recurse++
		return true
	}
	return false
}

func (m *Mutex) claim(ticks uint32) bool {
	m.check()
	k := m.k
	cur := k.sched.current
	k.assert(cur != nil && cur != &k.idle, PanicAssertFailed)

	prev := k.sched.lock()
	if m.take(cur) {
		k.sched.unlock(prev)
		return true
	}
	k.assert(prev, PanicAssertFailed)

	if ticks > 0 {
		cur.expired = false
		cur.waiting = m
		cur.timer.start(false, ticks, threadTimedOut, cur)
	}
	m.blockPriority(cur)

	if m.maxPrio <= cur.basePrio {
		m.maxPrio = cur.basePrio
		// Waiters below maxPrio form the tail of the sorted wait list;
		// raising them in place keeps it sorted.
		for t := range m.waiters.Threads() {
			if t.curPrio < m.maxPrio {
				t.setPriority(t.basePrio, m.maxPrio)
			}
		}
		m.owner.InheritPriority(m.maxPrio)
	}
	k.Yield()
	k.sched.unlock(prev)

	if ticks > 0 {
		cur.timer.Stop()
		cur.waiting = nil
		return !cur.expired
	}
	return true
}

func (m *Mutex) timedOut(t *Thread) {
	k := m.k
	cs := k.enterCritical()
	defer cs.exit()
	if m.cookie != cookieInit || !m.waitingOn(t) {
		return
	}
	t.expired = true
	m.unblock(t)
	if m.preempts(t) {
		k.Yield()
	}
}

// Release gives up one level of ownership. The final release restores the
// owner's base priority and hands the mutex to the most urgent waiter.
// Releasing a mutex the caller does not own panics the kernel.
func (m *Mutex) Release() {
	m.check()
	k := m.k
	cur := k.sched.current

	prev := k.sched.lock()
	if m.ready || cur != m.owner {
		k.Panic(PanicMutexNotOwner)
	}
	if m.recurse > 0 {
		m.recurse--
		k.sched.unlock(prev)
		return
	}
	if cur.curPrio != cur.basePrio {
		cur.SetPriority(cur.basePrio)
	}

	cs := k.enterCritical()
	if next := m.waiters.Head(); next != nil {
		m.unblock(next)
		m.owner = next
		m.recurse = 0
		if m.preempts(next) {
			k.Yield()
		}
	} else {
		m.ready = true
		m.owner = nil
		m.maxPrio = 0
	}
	cs.exit()

	k.sched.unlock(prev)
}

// Destroy invalidates the mutex. Destroying it with waiters panics the
// kernel.
func (m *Mutex) Destroy() {
	m.check()
	if !m.waiters.Empty() {
		m.k.Panic(PanicActiveMutexDescoped)
	}
	m.cookie = cookieInvalid
}

// Owner returns the owning thread, or nil when free.
func (m *Mutex) Owner() *Thread { return m.owner }

// Claimed reports whether the mutex is owned.
func (m *Mutex) Claimed() bool { return !m.ready }

// Recursion returns the number of nested claims beyond the first.
func (m *Mutex) Recursion() uint8 { return m.recurse }
