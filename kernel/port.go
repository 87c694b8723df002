package kernel

// Word is one machine word of a thread stack.
type Word uint32

// StackFill is the pattern a thread stack is initialised with. Words that
// still hold it have never been touched.
const StackFill Word = 0xFFFFFFFF

// Port is the CPU-specific layer the kernel runs on.
//
// A port provides exactly one running context at a time. Interrupts are
// masked between DisableInterrupts and the matching RestoreInterrupts; a
// switch requested with TriggerSwitch is pended until interrupts are
// unmasked and no interrupt handler is active.
type Port interface {
	// Bind is called once by New.
	Bind(k *Kernel)
	// InitStack lays out the initial frame of t so that the first switch to
	// it enters Kernel.ThreadMain.
	InitStack(t *Thread)
	// StartThreads switches to the kernel's next thread. It returns only
	// once the port has halted.
	StartThreads()
	// TriggerSwitch requests a context switch to the scheduler's next thread.
	TriggerSwitch()
	// DisableInterrupts masks interrupts and reports whether they were
	// enabled before the call.
	DisableInterrupts() bool
	// RestoreInterrupts unmasks interrupts if enabled is true.
	RestoreInterrupts(enabled bool)
	// WaitForInterrupt parks the idle thread until an interrupt is taken.
	WaitForInterrupt()
	// ReleaseContext frees the execution context of an exited thread.
	ReleaseContext(t *Thread)
	// Halt stops the CPU. It does not return.
	Halt()
}

// TickTimer is the hardware timer driving the kernel tick.
type TickTimer interface {
	// Configure sets the tick rate and the handler invoked in interrupt
	// context on every tick.
	Configure(hz int, isr func())
	Start()
	Stop()
}
