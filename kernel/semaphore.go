package kernel

const (
	semPost uint16 = iota + 1
	semPend
	semTryPend
	semTimeout
)

// Semaphore is a counting semaphore bounded by a maximum.
//
// Requests are queued as transactions and applied by whichever context
// holds the semaphore's processing lock, with the scheduler locked. An
// interrupt that finds the lock held applies its request directly under
// the critical section.
type Semaphore struct {
	blockingObject
	queue TransactionQueue
	count uint16
	max   uint16
	busy  bool
}

// Init sets the initial count and the maximum. initial is clamped to max,
// and a zero max is treated as one.
func (s *Semaphore) Init(k *Kernel, initial, max uint16) {
	s.initBlocking(k)
	if max == 0 {
		max = 1
	}
	if initial > max {
		initial = max
	}
	s.count, s.max = initial, max
	s.busy = false
	s.queue.Init(&k.pool)
}

// Post wakes the most urgent waiter or, with none, increments the count.
// It returns false, changing nothing, if the count is already at its
// maximum.
func (s *Semaphore) Post() bool {
	s.check()
	ok, _ := s.request(semPost, nil)
	return ok
}

// Pend takes the semaphore, blocking until it is posted.
func (s *Semaphore) Pend() {
	s.PendTimeout(0)
}

// PendTimeout takes the semaphore, waiting at most ticks ticks. Zero waits
// forever. It reports whether the semaphore was taken.
func (s *Semaphore) PendTimeout(ticks uint32) bool {
	s.check()
	k := s.k
	t := k.sched.current
	k.assert(t != nil && t != &k.idle && k.sched.enabled, PanicAssertFailed)

	t.expired = false
	if ticks > 0 {
		t.waiting = s
		t.timer.start(false, ticks, threadTimedOut, t)
	}
	_, own := s.request(semPend, t)
	k.assert(own, PanicAssertFailed)
	if ticks > 0 {
		t.timer.Stop()
		t.waiting = nil
	}
	return !t.expired
}

// TryPend takes the semaphore only if the count is non-zero.
func (s *Semaphore) TryPend() bool {
	s.check()
	ok, _ := s.request(semTryPend, nil)
	return ok
}

// Count returns the current count.
func (s *Semaphore) Count() uint16 {
	cs := s.k.enterCritical()
	defer cs.exit()
	return s.count
}

// Max returns the maximum count.
func (s *Semaphore) Max() uint16 { return s.max }

// Destroy invalidates the semaphore. Destroying it with waiters panics the
// kernel.
func (s *Semaphore) Destroy() {
	s.check()
	if !s.waiters.Empty() {
		s.k.Panic(PanicActiveSemaphoreDescoped)
	}
	s.cookie = cookieInvalid
}

func (s *Semaphore) timedOut(t *Thread) {
	if s.cookie == cookieInit {
		s.request(semTimeout, t)
	}
}

// request queues a transaction and, if the processing lock is free, takes
// it and drains the queue. own reports whether this call did the draining;
// ok is then the result of this call's own transaction.
//
// A request made while the lock is held can only come from an interrupt
// that preempted the holder between two transactions. It is applied in
// place, inside the critical section, so its result is exact and the
// holder's queue cannot grow behind it.
func (s *Semaphore) request(code uint16, t *Thread) (ok, own bool) {
	k := s.k
	cs := k.enterCritical()
	if s.busy {
		tx := Transaction{code: code, data: t}
		ok = s.apply(&tx)
		cs.exit()
		return ok, false
	}
	mine := s.queue.Enqueue(code, t)
	s.busy = true
	cs.exit()

	prev := k.sched.lock()
	for {
		cs := k.enterCritical()
		tx := s.queue.Dequeue()
		if tx == nil {
			s.busy = false
			cs.exit()
			break
		}
		cs.exit()

		r := s.apply(tx)
		if tx == mine {
			ok = r
		}
		s.queue.Finish(tx)
	}
	k.sched.unlock(prev)
	return ok, true
}

func (s *Semaphore) apply(tx *Transaction) bool {
	cs := s.k.enterCritical()
	defer cs.exit()

	switch tx.Code() {
	case semPost:
		if t := s.waiters.Head(); t != nil {
			s.unblock(t)
			if s.preempts(t) {
				s.k.Yield()
			}
			return true
		}
		if s.count >= s.max {
			return false
		}
		s.count++
		return true

	case semPend:
		if s.count > 0 {
			s.count--
			return true
		}
		s.blockPriority(tx.Data().(*Thread))
		s.k.Yield()
		return false

	case semTryPend:
		if s.count > 0 {
			s.count--
			return true
		}
		return false

	case semTimeout:
		t := tx.Data().(*Thread)
		if !s.waitingOn(t) {
			return false
		}
		t.expired = true
		s.unblock(t)
		if s.preempts(t) {
			s.k.Yield()
		}
		return true
	}
	return false
}
