//go:build !tinygo

package hal

import "time"

// hostTime converts wall-clock time into ticks. It is pumped by the host
// runner; elapsed time is accumulated so that a slow runner still delivers
// the right number of ticks.
type hostTime struct {
	hz     int
	period time.Duration
	ch     chan uint64
	seq    uint64

	last time.Time
	acc  time.Duration
	now  func() time.Time
}

func newHostTime(hz int) *hostTime {
	if hz <= 0 {
		hz = DefaultHz
	}
	return &hostTime{
		hz:     hz,
		period: time.Second / time.Duration(hz),
		ch:     make(chan uint64, 1024),
		now:    time.Now,
	}
}

func (t *hostTime) Ticks() <-chan uint64 { return t.ch }
func (t *hostTime) Hz() int              { return t.hz }

// step delivers the ticks elapsed since the previous call, and one tick on
// the first call. It returns the number delivered.
func (t *hostTime) step() uint64 {
	now := t.now()
	if t.last.IsZero() {
		t.last = now
		t.acc = 0
		t.stepN(1)
		return 1
	}
	t.acc += now.Sub(t.last)
	t.last = now
	n := uint64(t.acc / t.period)
	if n == 0 {
		return 0
	}
	t.acc %= t.period
	t.stepN(n)
	return n
}

func (t *hostTime) stepN(n uint64) {
	for range n {
		t.seq++
		select {
		case t.ch <- t.seq:
		default:
		}
	}
}
