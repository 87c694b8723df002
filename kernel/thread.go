package kernel

import "tickos/internal/ll"

// ThreadID identifies a thread within one kernel. IDs are allocated
// monotonically and wrap; IdleThreadID is never handed out.
type ThreadID uint8

// IdleThreadID is the ID of the idle pseudo-thread.
const IdleThreadID ThreadID = 255

// Priority is a thread priority. Larger values are more urgent.
type Priority uint8

// ThreadEntry is a thread's body. Returning from it exits the thread.
type ThreadEntry func(arg any)

// ThreadState is the scheduling state of a thread.
type ThreadState uint8

const (
	ThreadStopped ThreadState = iota
	ThreadReady
	ThreadBlocked
	ThreadExited
)

func (s ThreadState) String() string {
	switch s {
	case ThreadStopped:
		return "stopped"
	case ThreadReady:
		return "ready"
	case ThreadBlocked:
		return "blocked"
	case ThreadExited:
		return "exited"
	default:
		return "unknown"
	}
}

// timedWaiter is an object a thread can block on with a timeout.
type timedWaiter interface {
	timedOut(t *Thread)
}

// Thread is a kernel thread. The zero value is ready for Init.
type Thread struct {
	links ll.Links[*Thread]

	k        *Kernel
	id       ThreadID
	name     string
	stack    []Word
	stackTop int

	basePrio Priority
	curPrio  Priority
	state    ThreadState
	owner    *ThreadList
	current  *ThreadList

	entry ThreadEntry
	arg   any

	timer   Timer
	expired bool
	waiting timedWaiter
	quantum uint16
	sleep   Semaphore

	ctx any
}

// Links exposes the thread's list node.
func (t *Thread) Links() *ll.Links[*Thread] { return &t.links }

// Init prepares t to run entry(arg) at prio on stack. The thread starts
// stopped. A stopped or exited thread may be initialised again.
func (t *Thread) Init(k *Kernel, stack []Word, prio Priority, entry ThreadEntry, arg any) {
	k.assert(k.state != StateUninitialized, PanicUninitializedObject)
	k.assert(int(prio) < k.cfg.Priorities, PanicAssertFailed)
	k.assert(t != &k.idle && entry != nil && len(stack) > 0, PanicAssertFailed)

	cs := k.enterCritical()
	if t.k != nil {
		k.assert(t.state == ThreadStopped || t.state == ThreadExited, PanicAssertFailed)
		if t.links.Linked() {
			t.current.Remove(t)
		}
		t.timer.Stop()
	}
	old := t.ctx

	*t = Thread{
		k:        k,
		id:       k.allocID(),
		stack:    stack,
		basePrio: prio,
		curPrio:  prio,
		state:    ThreadStopped,
		owner:    &k.sched.ready[prio],
		current:  &k.sched.stop,
		entry:    entry,
		arg:      arg,
		quantum:  k.cfg.Quantum,
		ctx:      old,
	}
	for i := range stack {
		stack[i] = StackFill
	}
	t.timer.Init(k)
	k.sched.stop.Add(t)
	cs.exit()

	if t.ctx != nil {
		k.port.ReleaseContext(t)
		t.ctx = nil
	}
	k.port.InitStack(t)
	if k.onCreate != nil {
		k.onCreate(t)
	}
	k.log.Debug().Int("thread", int(t.id)).Int("prio", int(prio)).Log("thread init")
}

// NewThread allocates a stack of stackWords words and a thread, and
// initialises it.
func (k *Kernel) NewThread(stackWords int, prio Priority, entry ThreadEntry, arg any) *Thread {
	t := new(Thread)
	t.Init(k, make([]Word, stackWords), prio, entry, arg)
	return t
}

// Start makes a stopped thread ready. If the kernel is running and t is at
// least as urgent as the running thread, the caller yields.
func (t *Thread) Start() {
	k := t.kernel()
	cs := k.enterCritical()
	if t.state != ThreadStopped {
		cs.exit()
		return
	}
	k.sched.stop.Remove(t)
	t.current = t.owner
	t.state = ThreadReady
	k.sched.Add(t)
	yield := k.running() && t.curPrio >= k.sched.current.curPrio
	cs.exit()

	k.log.Debug().Int("thread", int(t.id)).Str("name", t.name).Log("thread start")
	if yield {
		k.Yield()
	}
}

// Stop moves t to the stop list. Stopping a stopped or exited thread has no
// effect.
func (t *Thread) Stop() {
	k := t.kernel()
	k.assert(t != &k.idle, PanicAssertFailed)

	cs := k.enterCritical()
	if t.state == ThreadStopped || t.state == ThreadExited {
		cs.exit()
		return
	}
	t.current.Remove(t)
	t.current = &k.sched.stop
	t.state = ThreadStopped
	k.sched.stop.Add(t)
	self := t == k.sched.current
	cs.exit()

	t.timer.Stop()
	k.log.Debug().Int("thread", int(t.id)).Log("thread stop")
	if self {
		k.Yield()
	}
}

// Exit terminates t. A thread exiting itself does not return.
func (t *Thread) Exit() {
	k := t.kernel()
	k.assert(t != &k.idle, PanicAssertFailed)

	cs := k.enterCritical()
	if t.state == ThreadExited {
		cs.exit()
		return
	}
	t.current.Remove(t)
	t.current = nil
	t.state = ThreadExited
	t.basePrio, t.curPrio = 0, 0
	t.owner = &k.sched.ready[0]
	self := t == k.sched.current
	cs.exit()

	t.timer.Stop()
	if k.onExit != nil {
		k.onExit(t)
	}
	k.log.Debug().Int("thread", int(t.id)).Log("thread exit")
	k.port.ReleaseContext(t)
	t.ctx = nil
	if self {
		k.Yield()
	}
}

// Destroy retires a thread that is not runnable. Destroying a ready or
// blocked thread panics the kernel.
func (t *Thread) Destroy() {
	k := t.kernel()
	cs := k.enterCritical()
	switch t.state {
	case ThreadExited:
		cs.exit()
		return
	case ThreadStopped:
		t.current.Remove(t)
		t.current = nil
		t.state = ThreadExited
	default:
		cs.exit()
		k.Panic(PanicRunningThreadDescoped)
	}
	cs.exit()
	t.timer.Stop()
	k.port.ReleaseContext(t)
	t.ctx = nil
}

// SetPriority changes both base and current priority. If t is running, or
// becomes more urgent than the running thread, the scheduler runs.
func (t *Thread) SetPriority(prio Priority) {
	k := t.kernel()
	k.assert(int(prio) < k.cfg.Priorities && t != &k.idle, PanicAssertFailed)

	cs := k.enterCritical()
	t.reprioritize(prio, prio)
	resched := t.state == ThreadReady && k.running() &&
		(t == k.sched.current || prio > k.sched.current.curPrio)
	cs.exit()

	if resched {
		k.Yield()
	}
}

// InheritPriority raises (or restores) the current priority of t without
// touching its base priority.
func (t *Thread) InheritPriority(prio Priority) {
	k := t.kernel()
	cs := k.enterCritical()
	t.reprioritize(t.basePrio, prio)
	cs.exit()
}

// reprioritize moves a Ready thread to the ready list of its new current
// priority and re-sorts a Blocked one within its wait list.
func (t *Thread) reprioritize(base, cur Priority) {
	switch t.state {
	case ThreadReady:
		t.k.sched.Remove(t)
		t.setPriority(base, cur)
		t.current = t.owner
		t.k.sched.Add(t)
	case ThreadBlocked:
		t.current.Remove(t)
		t.setPriority(base, cur)
		t.current.AddPriority(t)
	default:
		t.setPriority(base, cur)
	}
}

func (t *Thread) setPriority(base, cur Priority) {
	t.basePrio = base
	t.curPrio = cur
	t.owner = &t.k.sched.ready[cur]
}

// Sleep blocks the running thread for ticks ticks.
func (k *Kernel) Sleep(ticks uint32) {
	t := k.sched.current
	k.assert(t != nil && t != &k.idle, PanicAssertFailed)
	t.sleep.Init(k, 0, 1)
	t.timer.start(false, ticks, wakeSleeper, t)
	t.sleep.Pend()
}

// USleep blocks the running thread for at least us microseconds.
func (k *Kernel) USleep(us uint32) {
	k.Sleep(k.MicrosecondsToTicks(us))
}

func wakeSleeper(t *Thread) { t.sleep.Post() }

func threadTimedOut(t *Thread) {
	if w := t.waiting; w != nil {
		w.timedOut(t)
	}
}

// StackSlack returns the number of stack words never written, found by
// bisecting for the boundary of the fill pattern.
func (t *Thread) StackSlack() int {
	s := t.stack
	if len(s) == 0 {
		return 0
	}
	if s[0] != StackFill {
		return 0
	}
	bottom, top := 0, len(s)-1
	if s[top] == StackFill {
		return len(s)
	}
	for top-bottom > 1 {
		mid := (top + bottom + 1) / 2
		if s[mid] != StackFill {
			top = mid
		} else {
			bottom = mid
		}
	}
	return top
}

func (k *Kernel) checkStack(t *Thread) {
	if k.cfg.StackGuardThreshold <= 0 {
		return
	}
	if t.StackSlack() <= k.cfg.StackGuardThreshold {
		k.Panic(PanicStackSlackViolated)
	}
}

func (t *Thread) kernel() *Kernel {
	if t.k == nil {
		panic(errUninitialized)
	}
	return t.k
}

// ID returns the thread ID.
func (t *Thread) ID() ThreadID { return t.id }

// Name returns the thread name.
func (t *Thread) Name() string { return t.name }

// SetName sets the thread name.
func (t *Thread) SetName(name string) { t.name = name }

// Priority returns the base priority.
func (t *Thread) Priority() Priority { return t.basePrio }

// CurPriority returns the current, possibly inherited, priority.
func (t *Thread) CurPriority() Priority { return t.curPrio }

// State returns the scheduling state.
func (t *Thread) State() ThreadState { return t.state }

// Timer returns the thread's own timer, used for sleeps and timeouts.
func (t *Thread) Timer() *Timer { return &t.timer }

// Expired reports whether the last timed wait ended by timeout.
func (t *Thread) Expired() bool { return t.expired }

// SetExpired sets the timeout flag.
func (t *Thread) SetExpired(v bool) { t.expired = v }

// Quantum returns the round-robin time slice in ticks.
func (t *Thread) Quantum() uint16 { return t.quantum }

// SetQuantum sets the round-robin time slice in ticks. Zero disables slicing
// for this thread.
func (t *Thread) SetQuantum(ticks uint16) { t.quantum = ticks }

// Stack returns the thread's stack region.
func (t *Thread) Stack() []Word { return t.stack }

// StackTop returns the saved top-of-stack index.
func (t *Thread) StackTop() int { return t.stackTop }

// SetStackTop records the saved top-of-stack index.
func (t *Thread) SetStackTop(i int) { t.stackTop = i }

// PortContext returns the port's execution context for t.
func (t *Thread) PortContext() any { return t.ctx }

// SetPortContext stores the port's execution context for t.
func (t *Thread) SetPortContext(ctx any) { t.ctx = ctx }

// Kernel returns the kernel t belongs to.
func (t *Thread) Kernel() *Kernel { return t.k }
