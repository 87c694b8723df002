// Package port provides the CPU port the kernel runs on.
//
// Host simulates a single-core CPU with goroutines: every kernel thread owns
// a goroutine, and exactly one of them holds the CPU at a time. A context
// switch hands the CPU to the next goroutine and parks the current one.
// Interrupts are delivered on the goroutine holding the CPU, only while they
// are unmasked, the way a tick interrupt preempts whatever code is running.
package port

import (
	"errors"
	"runtime"
	"sync"

	"tickos/kernel"
)

var (
	// ErrHalted is reported by Err after the kernel halted the CPU, and is
	// the panic value of a Halt issued before StartThreads.
	ErrHalted = errors.New("port: halted")
	// ErrTickLimit is reported by Err when a VirtualTimer ran out of ticks.
	ErrTickLimit = errors.New("port: virtual tick limit reached")
)

// frameWords is the size of the initial exception frame laid out on a new
// thread's stack: eight hardware-stacked and eight software-saved registers.
const frameWords = 16

// xPSR with the Thumb bit set, as found in the initial frame.
const initialPSR kernel.Word = 0x01000000

type context struct {
	t      *kernel.Thread
	resume chan struct{}
	kill   chan struct{}
	killed bool
}

// tickSource delivers tick interrupts to a Host.
type tickSource interface {
	// poll reports whether a tick is pending, without blocking.
	poll() bool
	// wait blocks until a tick is pending. It reports false if the host
	// halted or the source is exhausted.
	wait(halted <-chan struct{}) bool
}

// Host is a kernel.Port backed by goroutines.
type Host struct {
	k *kernel.Kernel

	cur     *context
	masked  bool
	inISR   bool
	pending bool
	started bool

	src     tickSource
	isr     func()
	ticking bool

	halted   chan struct{}
	haltOnce sync.Once
	mu       sync.Mutex
	err      error
}

var _ kernel.Port = (*Host)(nil)

// NewHost returns a host port with interrupts masked until StartThreads.
func NewHost() *Host {
	return &Host{masked: true, halted: make(chan struct{})}
}

// Bind implements kernel.Port.
func (h *Host) Bind(k *kernel.Kernel) { h.k = k }

// InitStack lays out an initial frame on t's stack and creates the goroutine
// that will run it.
func (h *Host) InitStack(t *kernel.Thread) {
	s := t.Stack()
	top := max(len(s)-frameWords, 0)
	for i := top; i < len(s); i++ {
		s[i] = 0
	}
	if len(s) > 0 {
		s[len(s)-1] = initialPSR
		if len(s) > 1 {
			s[len(s)-2] = kernel.Word(t.ID())
		}
	}
	t.SetStackTop(top)

	c := &context{
		t:      t,
		resume: make(chan struct{}),
		kill:   make(chan struct{}),
	}
	t.SetPortContext(c)
	go h.run(c)
}

func (h *Host) run(c *context) {
	select {
	case <-c.resume:
	case <-c.kill:
		return
	case <-h.halted:
		return
	}
	h.k.ThreadMain(c.t)
	// ThreadMain returns only if the exiting thread could not switch away.
	h.k.Panic(kernel.PanicAssertFailed)
}

// StartThreads switches to the first thread and blocks until the host halts.
func (h *Host) StartThreads() {
	h.started = true
	h.masked = false
	h.takeSwitch()
	<-h.halted
}

// TriggerSwitch pends a context switch. It is taken immediately when
// interrupts are unmasked outside an interrupt handler, otherwise on unmask
// or at handler exit.
func (h *Host) TriggerSwitch() {
	h.pending = true
	if h.started && !h.masked && !h.inISR {
		h.takeSwitch()
	}
}

// DisableInterrupts implements kernel.Port.
func (h *Host) DisableInterrupts() bool {
	prev := !h.masked
	h.masked = true
	return prev
}

// RestoreInterrupts implements kernel.Port. Unmasking delivers at most one
// pending tick and then a pended switch.
func (h *Host) RestoreInterrupts(enabled bool) {
	if !enabled {
		return
	}
	h.masked = false
	if h.inISR || !h.started {
		return
	}
	if h.ticking && h.src != nil && h.src.poll() {
		h.interrupt()
	}
	if h.pending {
		h.takeSwitch()
	}
}

// WaitForInterrupt parks the idle thread until the next tick, runs the tick
// handler and takes any switch it requested.
func (h *Host) WaitForInterrupt() {
	if !h.ticking || h.src == nil {
		<-h.halted
		runtime.Goexit()
	}
	if !h.src.wait(h.halted) {
		runtime.Goexit()
	}
	h.interrupt()
	if h.pending && !h.masked {
		h.takeSwitch()
	}
}

// ReleaseContext ends the goroutine of an exited thread once it no longer
// holds the CPU.
func (h *Host) ReleaseContext(t *kernel.Thread) {
	c, _ := t.PortContext().(*context)
	if c == nil || c.killed {
		return
	}
	c.killed = true
	close(c.kill)
}

// Halt stops the host and ends the calling goroutine. Before StartThreads
// it panics with ErrHalted instead.
func (h *Host) Halt() {
	h.stop(ErrHalted)
	if !h.started {
		panic(ErrHalted)
	}
	runtime.Goexit()
}

// Shutdown stops the host from outside the kernel. StartThreads returns and
// every thread goroutine exits at its next switch.
func (h *Host) Shutdown() {
	h.stop(nil)
}

// PowerOff stops the host from a kernel thread. It does not return; no
// thread runs after it.
func (h *Host) PowerOff() {
	h.stop(nil)
	runtime.Goexit()
}

// Done is closed once the host has halted.
func (h *Host) Done() <-chan struct{} { return h.halted }

// Err reports why the host halted: nil after Shutdown, ErrHalted after a
// kernel halt, ErrTickLimit when virtual time ran out.
func (h *Host) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

func (h *Host) stop(err error) {
	h.haltOnce.Do(func() {
		h.mu.Lock()
		h.err = err
		h.mu.Unlock()
		close(h.halted)
	})
}

func (h *Host) interrupt() {
	if h.isr == nil {
		return
	}
	h.inISR = true
	h.isr()
	h.inISR = false
}

func (h *Host) takeSwitch() {
	select {
	case <-h.halted:
		runtime.Goexit()
	default:
	}
	h.pending = false
	_, to := h.k.SwitchContext()
	next, _ := to.PortContext().(*context)
	from := h.cur
	if next == nil || next == from {
		return
	}
	h.cur = next
	select {
	case next.resume <- struct{}{}:
	case <-h.halted:
		runtime.Goexit()
	}
	if from == nil {
		return
	}
	select {
	case <-from.resume:
	case <-from.kill:
		runtime.Goexit()
	case <-h.halted:
		runtime.Goexit()
	}
}
