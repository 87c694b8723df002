package kernel

import "math/bits"

// Scheduler selects the next thread to run: the head of the most urgent
// non-empty ready list, rotating that list so equal priorities share the CPU.
type Scheduler struct {
	k       *Kernel
	ready   [MaxPriorities]ThreadList
	bitmap  uint64
	stop    ThreadList
	enabled bool
	queued  bool
	current *Thread
	next    *Thread
}

func (s *Scheduler) init(k *Kernel) {
	s.k = k
	for i := range k.cfg.Priorities {
		s.ready[i].init(k, Priority(i), &s.bitmap)
	}
	s.stop.init(k, 0, nil)
	s.enabled = true
}

// Add links t into the ready list for its current priority.
func (s *Scheduler) Add(t *Thread) {
	cs := s.k.enterCritical()
	t.owner.Add(t)
	cs.exit()
}

// Remove unlinks t from its ready list.
func (s *Scheduler) Remove(t *Thread) {
	cs := s.k.enterCritical()
	t.owner.Remove(t)
	cs.exit()
}

// Schedule picks the next thread. The caller switches to it.
func (s *Scheduler) Schedule() {
	if s.bitmap == 0 {
		s.next = &s.k.idle
		return
	}
	l := &s.ready[bits.Len64(s.bitmap)-1]
	s.next = l.Head()
	l.pivot()
}

// SetScheduler enables or disables scheduling. Re-enabling honours a
// request latched while disabled.
func (s *Scheduler) SetScheduler(enable bool) {
	cs := s.k.enterCritical()
	s.enabled = enable
	yield := enable && s.queued
	if yield {
		s.queued = false
	}
	cs.exit()
	if yield {
		s.k.Yield()
	}
}

// QueueScheduler latches a reschedule request.
func (s *Scheduler) QueueScheduler() {
	cs := s.k.enterCritical()
	s.queued = true
	cs.exit()
}

// IsEnabled reports whether scheduling is enabled.
func (s *Scheduler) IsEnabled() bool { return s.enabled }

// CurrentThread returns the running thread.
func (s *Scheduler) CurrentThread() *Thread { return s.current }

// NextThread returns the thread chosen by the last Schedule.
func (s *Scheduler) NextThread() *Thread { return s.next }

// ThreadList returns the ready list for prio.
func (s *Scheduler) ThreadList(prio Priority) *ThreadList { return &s.ready[prio] }

// StopList returns the list of stopped threads.
func (s *Scheduler) StopList() *ThreadList { return &s.stop }

// lock disables scheduling and returns the previous state for unlock, so
// that nested users do not re-enable early.
func (s *Scheduler) lock() bool {
	cs := s.k.enterCritical()
	prev := s.enabled
	s.enabled = false
	cs.exit()
	return prev
}

func (s *Scheduler) unlock(prev bool) {
	if prev {
		s.SetScheduler(true)
	}
}
