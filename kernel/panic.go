package kernel

import (
	"errors"
	"fmt"

	"tickos/internal/ll"
)

// PanicCause identifies why the kernel panicked.
type PanicCause uint16

const (
	PanicAssertFailed PanicCause = iota + 1
	PanicListUnlinkFailed
	PanicStackSlackViolated
	PanicRunningThreadDescoped
	PanicActiveMutexDescoped
	PanicActiveSemaphoreDescoped
	PanicTransactionPoolExhausted
	PanicMutexRecursionLimit
	PanicMutexNotOwner
	PanicUninitializedObject
	PanicThreadFault
)

func (c PanicCause) String() string {
	switch c {
	case PanicAssertFailed:
		return "assert failed"
	case PanicListUnlinkFailed:
		return "list unlink failed"
	case PanicStackSlackViolated:
		return "stack slack violated"
	case PanicRunningThreadDescoped:
		return "running thread descoped"
	case PanicActiveMutexDescoped:
		return "active mutex descoped"
	case PanicActiveSemaphoreDescoped:
		return "active semaphore descoped"
	case PanicTransactionPoolExhausted:
		return "transaction pool exhausted"
	case PanicMutexRecursionLimit:
		return "mutex recursion limit"
	case PanicMutexNotOwner:
		return "mutex released by non-owner"
	case PanicUninitializedObject:
		return "uninitialized object"
	case PanicThreadFault:
		return "thread fault"
	default:
		return fmt.Sprintf("panic cause %d", uint16(c))
	}
}

// PanicInfo describes a kernel panic.
type PanicInfo struct {
	Cause    PanicCause
	ThreadID ThreadID
	Thread   string
	// Value is the recovered Go panic value for PanicThreadFault and list
	// faults, nil otherwise.
	Value any
	Stack []byte
}

var errUninitialized = errors.New("kernel: object used before Init")

// SetPanicHandler installs fn to run once, on the first panic, before the
// port halts. It must not block.
func (k *Kernel) SetPanicHandler(fn func(PanicInfo)) { k.panicHandler = fn }

// LastPanic returns the recorded panic, if any.
func (k *Kernel) LastPanic() (PanicInfo, bool) {
	p := k.lastPanic.Load()
	if p == nil {
		return PanicInfo{}, false
	}
	return *p, true
}

// Panic stops the kernel. It never returns.
func (k *Kernel) Panic(cause PanicCause) {
	k.fail(cause, nil)
}

func (k *Kernel) fail(cause PanicCause, value any) {
	if !k.panicked.CompareAndSwap(false, true) {
		k.port.Halt()
		panic("kernel: port halt returned")
	}
	info := PanicInfo{Cause: cause, Value: value, Stack: captureStack()}
	if t := k.sched.current; t != nil {
		info.ThreadID = t.id
		info.Thread = t.name
	}
	k.lastPanic.Store(&info)

	b := k.log.Crit().
		Str("cause", cause.String()).
		Int("thread", int(info.ThreadID))
	if value != nil {
		b = b.Any("value", value)
	}
	b.Log("kernel panic")

	if k.panicHandler != nil {
		k.panicHandler(info)
	}
	k.port.Halt()
	panic("kernel: port halt returned")
}

func (k *Kernel) assert(ok bool, cause PanicCause) {
	if !ok {
		k.Panic(cause)
	}
}

func (k *Kernel) recoverFault() {
	r := recover()
	if r == nil {
		return
	}
	cause := PanicThreadFault
	if err, ok := r.(error); ok {
		switch {
		case errors.Is(err, ll.ErrUnlinkFailed), errors.Is(err, ll.ErrLinked), errors.Is(err, ll.ErrForeign):
			cause = PanicListUnlinkFailed
		case errors.Is(err, errUninitialized):
			cause = PanicUninitializedObject
		}
	}
	k.fail(cause, r)
}
