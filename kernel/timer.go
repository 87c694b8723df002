package kernel

import "tickos/internal/ll"

// MaxTimerTicks is the longest interval a timer accepts.
const MaxTimerTicks = 0x7FFFFFFF

const (
	cookieInvalid uint8 = 0x3C
	cookieInit    uint8 = 0xC3
)

// TimerCallback runs in interrupt context when a timer expires. owner is the
// thread that started the timer.
type TimerCallback func(owner *Thread)

type timerFlags uint8

const (
	timerOneShot timerFlags = 1 << iota
	timerActive
	timerExpired
)

// Timer is a one-shot or repeating software timer counted in ticks.
type Timer struct {
	links ll.Links[*Timer]

	k        *Kernel
	cookie   uint8
	flags    timerFlags
	interval uint32
	left     uint32
	pass     uint64
	cb       TimerCallback
	owner    *Thread
}

// Links exposes the timer's list node.
func (t *Timer) Links() *ll.Links[*Timer] { return &t.links }

// Init resets t. An active timer is stopped first.
func (t *Timer) Init(k *Kernel) {
	if t.cookie == cookieInit && t.links.Linked() {
		t.k.timers.Remove(t)
	}
	*t = Timer{k: k, cookie: cookieInit}
}

// Start arms the timer with the running thread as owner. An active timer is
// restarted with the new configuration.
func (t *Timer) Start(repeat bool, interval uint32, cb TimerCallback) {
	t.check()
	t.start(repeat, interval, cb, t.k.sched.current)
}

func (t *Timer) start(repeat bool, interval uint32, cb TimerCallback, owner *Thread) {
	t.k.timers.Remove(t)
	t.cb = cb
	t.owner = owner
	t.SetInterval(interval)
	if repeat {
		t.flags &^= timerOneShot
	} else {
		t.flags |= timerOneShot
	}
	t.k.timers.Add(t)
}

// Restart re-arms the timer with its current configuration.
func (t *Timer) Restart() {
	t.check()
	t.k.timers.Remove(t)
	t.k.timers.Add(t)
}

// Stop disarms the timer. Stopping an inactive timer has no effect.
func (t *Timer) Stop() {
	if t.k == nil {
		return
	}
	t.k.timers.Remove(t)
}

// SetInterval sets the interval in ticks, clamped to 1..MaxTimerTicks. It
// takes effect on the next start or rearm.
func (t *Timer) SetInterval(ticks uint32) {
	switch {
	case ticks == 0:
		ticks = 1
	case ticks > MaxTimerTicks:
		ticks = MaxTimerTicks
	}
	t.interval = ticks
}

// Interval returns the interval in ticks.
func (t *Timer) Interval() uint32 { return t.interval }

// SetCallback replaces the expiry callback.
func (t *Timer) SetCallback(cb TimerCallback) { t.cb = cb }

// SetOwner sets the thread passed to the callback.
func (t *Timer) SetOwner(owner *Thread) { t.owner = owner }

// SetOneShot selects one-shot (true) or repeating (false) operation.
func (t *Timer) SetOneShot(v bool) {
	if v {
		t.flags |= timerOneShot
	} else {
		t.flags &^= timerOneShot
	}
}

// Active reports whether the timer is counting down.
func (t *Timer) Active() bool { return t.flags&timerActive != 0 }

// Expired reports whether a one-shot timer has fired since it was last
// started.
func (t *Timer) Expired() bool { return t.flags&timerExpired != 0 }

// Remaining returns the ticks left before expiry.
func (t *Timer) Remaining() uint32 { return t.left }

func (t *Timer) check() {
	if t.cookie != cookieInit || t.k == nil {
		panic(errUninitialized)
	}
}
