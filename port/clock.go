package port

import (
	"time"

	"tickos/kernel"
)

// MicroClock is a profile clock counting wall-clock microseconds since it
// was created.
type MicroClock struct {
	start time.Time
	now   func() time.Time
}

var _ kernel.ProfileClock = (*MicroClock)(nil)

// NewMicroClock returns a clock starting at zero.
func NewMicroClock() *MicroClock {
	return newMicroClock(time.Now)
}

func newMicroClock(now func() time.Time) *MicroClock {
	return &MicroClock{start: now(), now: now}
}

func (c *MicroClock) micros() uint64 {
	return uint64(c.now().Sub(c.start) / time.Microsecond)
}

// Read implements kernel.ProfileClock.
func (c *MicroClock) Read() uint16 { return uint16(c.micros()) }

// Epoch implements kernel.ProfileClock.
func (c *MicroClock) Epoch() uint32 { return uint32(c.micros() >> 16) }

// Overflow implements kernel.ProfileClock.
func (c *MicroClock) Overflow() uint32 { return 1 << 16 }
