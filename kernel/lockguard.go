package kernel

// LockGuard claims a mutex for the duration of a scope.
//
//	g := kernel.NewLockGuard(&m)
//	defer g.Release()
type LockGuard struct {
	m        *Mutex
	acquired bool
}

// NewLockGuard claims m, blocking until it is available.
func NewLockGuard(m *Mutex) *LockGuard {
	m.Claim()
	return &LockGuard{m: m, acquired: true}
}

// NewLockGuardTimeout claims m, waiting at most ticks ticks. Check Acquired
// before touching the protected state.
func NewLockGuardTimeout(m *Mutex, ticks uint32) *LockGuard {
	return &LockGuard{m: m, acquired: m.ClaimTimeout(ticks)}
}

// Acquired reports whether the guard holds the mutex.
func (g *LockGuard) Acquired() bool { return g.acquired }

// Release releases the mutex if the guard still holds it.
func (g *LockGuard) Release() {
	if !g.acquired {
		return
	}
	g.acquired = false
	g.m.Release()
}
