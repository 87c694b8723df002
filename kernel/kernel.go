// Package kernel implements a preemptive, priority-based real-time kernel:
// threads, a round-robin scheduler with a priority bitmap, tick-driven
// timers, and blocking primitives (mutex with priority inheritance,
// counting semaphore) built on intrusive lists.
//
// The kernel is CPU-agnostic. Context switching, interrupt masking and the
// tick source are provided by a Port and a TickTimer.
package kernel

import (
	"sync/atomic"

	"github.com/joeycumines/logiface"
)

// State is the lifecycle state of a kernel.
type State uint8

const (
	StateUninitialized State = iota
	StateInitialized
	StateStarted
	StatePanicked
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitialized:
		return "initialized"
	case StateStarted:
		return "started"
	case StatePanicked:
		return "panicked"
	default:
		return "unknown"
	}
}

const idleStackWords = 64

// Kernel is one kernel instance. All kernel state lives here; there are no
// package-level globals.
type Kernel struct {
	cfg   Config
	port  Port
	timer TickTimer
	log   *logiface.Logger[logiface.Event]

	state     State
	started   atomic.Bool
	panicked  atomic.Bool
	lastPanic atomic.Pointer[PanicInfo]
	ticks     atomic.Uint64

	sched   Scheduler
	timers  TimerList
	quantum quantum
	pool    TransactionPool

	idle      Thread
	idleStack [idleStackWords]Word
	idleFunc  func()

	nextID ThreadID

	csDepth int
	csPrev  bool

	panicHandler func(PanicInfo)
	onCreate     func(*Thread)
	onExit       func(*Thread)
	onSwitch     func(from, to *Thread)

	profClock ProfileClock
}

// New binds a kernel to a port and tick timer. timer may be nil, in which
// case timers never expire. Init must be called before any other operation.
func New(p Port, timer TickTimer, cfg Config) *Kernel {
	k := &Kernel{
		cfg:   cfg.withDefaults(),
		port:  p,
		timer: timer,
	}
	k.log = k.cfg.Logger
	p.Bind(k)
	return k
}

// Init constructs the scheduler, timer list, transaction pool and idle
// thread. Calling it more than once has no effect.
func (k *Kernel) Init() {
	if k.state != StateUninitialized {
		return
	}
	k.sched.init(k)
	k.timers.init(k)
	k.pool.Init(k, k.cfg.TransactionPoolSize)
	k.quantum.init(k)
	k.initIdle()
	if k.timer != nil {
		k.timer.Configure(k.cfg.TickHz, k.tickISR)
	}
	k.state = StateInitialized

	k.log.Info().
		Int("priorities", k.cfg.Priorities).
		Int("tick_hz", k.cfg.TickHz).
		Int("quantum", int(k.cfg.Quantum)).
		Log("kernel initialised")
}

// Start selects the first thread and hands the CPU to the port. It returns
// only after the port halts.
func (k *Kernel) Start() {
	k.assert(k.state == StateInitialized, PanicAssertFailed)

	cs := k.enterCritical()
	k.state = StateStarted
	k.started.Store(true)
	k.sched.Schedule()
	k.quantum.add(k.sched.next)
	cs.exit()

	k.log.Info().Str("first", k.sched.next.Name()).Log("kernel started")

	if k.timer != nil {
		k.timer.Start()
	}
	k.port.StartThreads()
	if k.timer != nil {
		k.timer.Stop()
	}
}

// State returns the lifecycle state.
func (k *Kernel) State() State {
	if k.panicked.Load() {
		return StatePanicked
	}
	return k.state
}

// IsStarted reports whether Start has been called.
func (k *Kernel) IsStarted() bool { return k.started.Load() }

// IsPanicked reports whether the kernel has panicked. Safe to call from any
// goroutine.
func (k *Kernel) IsPanicked() bool { return k.panicked.Load() }

// Config returns the effective configuration.
func (k *Kernel) Config() Config { return k.cfg }

// Logger returns the kernel logger, which may be nil.
func (k *Kernel) Logger() *logiface.Logger[logiface.Event] { return k.log }

// Ticks returns the number of ticks processed since Start.
func (k *Kernel) Ticks() uint64 { return k.ticks.Load() }

// Scheduler returns the kernel scheduler.
func (k *Kernel) Scheduler() *Scheduler { return &k.sched }

// TimerScheduler returns the list of active timers.
func (k *Kernel) TimerScheduler() *TimerList { return &k.timers }

// TransactionPool returns the pool shared by the kernel's transaction queues.
func (k *Kernel) TransactionPool() *TransactionPool { return &k.pool }

// CurrentThread returns the running thread.
func (k *Kernel) CurrentThread() *Thread { return k.sched.current }

// IdleThread returns the idle pseudo-thread.
func (k *Kernel) IdleThread() *Thread { return &k.idle }

// SetIdleFunc installs fn to run on every idle loop iteration, before the
// CPU waits for an interrupt.
func (k *Kernel) SetIdleFunc(fn func()) { k.idleFunc = fn }

// SetThreadCreateCallout installs fn to run when a thread is initialised.
func (k *Kernel) SetThreadCreateCallout(fn func(*Thread)) { k.onCreate = fn }

// SetThreadExitCallout installs fn to run when a thread exits.
func (k *Kernel) SetThreadExitCallout(fn func(*Thread)) { k.onExit = fn }

// SetContextSwitchCallout installs fn to run before every context switch.
func (k *Kernel) SetContextSwitchCallout(fn func(from, to *Thread)) { k.onSwitch = fn }

// Yield runs the scheduler and switches to the chosen thread if it differs
// from the running one. With the scheduler disabled the request is latched
// and honoured when it is re-enabled.
func (k *Kernel) Yield() {
	cs := k.enterCritical()
	defer cs.exit()

	if !k.sched.enabled {
		k.sched.queued = true
		return
	}
	if k.state != StateStarted {
		return
	}
	k.sched.Schedule()
	if k.sched.next != k.sched.current {
		k.quantum.remove()
		k.quantum.add(k.sched.next)
		k.contextSwitch()
		return
	}
	k.quantum.update(k.sched.current)
}

func (k *Kernel) contextSwitch() {
	from, to := k.sched.current, k.sched.next
	if from != nil && from != &k.idle {
		k.checkStack(from)
	}
	if k.onSwitch != nil {
		k.onSwitch(from, to)
	}
	k.log.Trace().
		Int("from", threadIDOrNone(from)).
		Int("to", int(to.id)).
		Log("context switch")
	k.port.TriggerSwitch()
}

func threadIDOrNone(t *Thread) int {
	if t == nil {
		return -1
	}
	return int(t.id)
}

// SwitchContext is called by the port when it performs a pended switch. It
// makes the scheduler's next thread current and returns both ends.
func (k *Kernel) SwitchContext() (from, to *Thread) {
	from, to = k.sched.current, k.sched.next
	k.sched.current = to
	return from, to
}

// ThreadMain is the body every thread context runs. It calls the thread's
// entry function and exits the thread when it returns.
func (k *Kernel) ThreadMain(t *Thread) {
	defer k.recoverFault()
	t.entry(t.arg)
	t.Exit()
}

func (k *Kernel) tickISR() {
	defer k.recoverFault()
	k.ticks.Add(1)
	k.timers.Process()
}

func (k *Kernel) initIdle() {
	t := &k.idle
	t.k = k
	t.id = IdleThreadID
	t.name = "IDLE"
	t.stack = k.idleStack[:]
	for i := range t.stack {
		t.stack[i] = StackFill
	}
	t.state = ThreadReady
	t.entry = k.idleLoop
	t.timer.Init(k)
	k.port.InitStack(t)
}

func (k *Kernel) idleLoop(any) {
	for {
		if k.idleFunc != nil {
			k.idleFunc()
		}
		k.port.WaitForInterrupt()
	}
}

func (k *Kernel) allocID() ThreadID {
	id := k.nextID
	k.nextID++
	if k.nextID == IdleThreadID {
		k.nextID = 0
	}
	return id
}

func (k *Kernel) running() bool {
	return k.state == StateStarted && k.sched.current != nil
}

// critical is a nestable interrupt-mask guard.
//
//	cs := k.enterCritical()
//	defer cs.exit()
type critical struct{ k *Kernel }

func (k *Kernel) enterCritical() critical {
	prev := k.port.DisableInterrupts()
	if k.csDepth == 0 {
		k.csPrev = prev
	}
	k.csDepth++
	return critical{k}
}

func (c critical) exit() {
	k := c.k
	k.csDepth--
	if k.csDepth == 0 {
		k.port.RestoreInterrupts(k.csPrev)
	}
}
