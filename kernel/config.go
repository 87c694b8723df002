package kernel

import (
	"time"

	"github.com/joeycumines/logiface"
)

// MaxPriorities is the number of priority levels the ready bitmap can track.
const MaxPriorities = 64

// Config configures a kernel instance.
type Config struct {
	// Priorities is the number of priority levels, 1..MaxPriorities.
	Priorities int
	// TransactionPoolSize is the number of transactions shared by all
	// transaction queues of the kernel.
	TransactionPoolSize int
	// TickHz is the tick rate. Timer intervals are expressed in ticks.
	TickHz int
	// Quantum is the default round-robin time slice in ticks. Zero disables
	// time slicing among threads of equal priority.
	Quantum uint16
	// StackGuardThreshold panics the kernel when a thread is switched out
	// with this many or fewer untouched stack words. Zero disables the check.
	StackGuardThreshold int
	// SafeUnlink verifies list neighbours on every unlink.
	SafeUnlink bool
	// Logger receives kernel events. May be nil.
	Logger *logiface.Logger[logiface.Event]
}

// DefaultConfig returns the configuration used when fields are left zero.
func DefaultConfig() Config {
	return Config{
		Priorities:          8,
		TransactionPoolSize: 8,
		TickHz:              1000,
		Quantum:             4,
		SafeUnlink:          true,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Priorities <= 0 {
		c.Priorities = d.Priorities
	}
	if c.Priorities > MaxPriorities {
		c.Priorities = MaxPriorities
	}
	if c.TransactionPoolSize <= 0 {
		c.TransactionPoolSize = d.TransactionPoolSize
	}
	if c.TickHz <= 0 {
		c.TickHz = d.TickHz
	}
	return c
}

// DurationToTicks converts d to ticks at hz, rounding up.
func DurationToTicks(d time.Duration, hz int) uint32 {
	if d <= 0 {
		return 0
	}
	n := (uint64(d)*uint64(hz) + uint64(time.Second) - 1) / uint64(time.Second)
	if n > MaxTimerTicks {
		n = MaxTimerTicks
	}
	return uint32(n)
}

// MillisecondsToTicks converts ms to ticks at the kernel's tick rate.
func (k *Kernel) MillisecondsToTicks(ms uint32) uint32 {
	return DurationToTicks(time.Duration(ms)*time.Millisecond, k.cfg.TickHz)
}

// MicrosecondsToTicks converts us to ticks at the kernel's tick rate.
func (k *Kernel) MicrosecondsToTicks(us uint32) uint32 {
	return DurationToTicks(time.Duration(us)*time.Microsecond, k.cfg.TickHz)
}

// SecondsToTicks converts s to ticks at the kernel's tick rate.
func (k *Kernel) SecondsToTicks(s uint32) uint32 {
	return DurationToTicks(time.Duration(s)*time.Second, k.cfg.TickHz)
}
