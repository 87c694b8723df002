package port

import "tickos/kernel"

// VirtualTimer is a tick source in virtual time: one tick elapses each time
// the idle thread waits for an interrupt. Runs are fully deterministic.
// Unless SetBusyTicks is used, threads that never block never let time pass.
type VirtualTimer struct {
	h     *Host
	hz    int
	max   uint64
	ticks uint64
	every int
	polls int
}

var _ kernel.TickTimer = (*VirtualTimer)(nil)

// NewVirtualTimer attaches a virtual tick source to h. When maxTicks is
// non-zero the host halts with ErrTickLimit after that many ticks.
func (h *Host) NewVirtualTimer(maxTicks uint64) *VirtualTimer {
	v := &VirtualTimer{h: h, max: maxTicks}
	h.src = v
	return v
}

// Configure implements kernel.TickTimer.
func (v *VirtualTimer) Configure(hz int, isr func()) {
	v.hz = hz
	v.h.isr = isr
}

// Start implements kernel.TickTimer.
func (v *VirtualTimer) Start() { v.h.ticking = true }

// Stop implements kernel.TickTimer.
func (v *VirtualTimer) Stop() { v.h.ticking = false }

// Ticks returns the number of virtual ticks delivered.
func (v *VirtualTimer) Ticks() uint64 { return v.ticks }

// SetBusyTicks makes a tick elapse on every n-th interrupt unmask as well,
// so that threads running without blocking are charged time. Zero turns it
// off.
func (v *VirtualTimer) SetBusyTicks(n int) {
	v.every = n
	v.polls = 0
}

func (v *VirtualTimer) poll() bool {
	if v.every <= 0 {
		return false
	}
	v.polls++
	if v.polls < v.every {
		return false
	}
	v.polls = 0
	return v.wait(nil)
}

func (v *VirtualTimer) wait(<-chan struct{}) bool {
	if v.max > 0 && v.ticks >= v.max {
		v.h.stop(ErrTickLimit)
		return false
	}
	v.ticks++
	return true
}

// ChannelTimer delivers one tick per value received from a channel, such as
// the time base of a hal.HAL. Pending ticks are taken whenever interrupts
// are unmasked.
type ChannelTimer struct {
	h      *Host
	hz     int
	ch     <-chan uint64
	closed bool
	last   uint64
}

var _ kernel.TickTimer = (*ChannelTimer)(nil)

// NewChannelTimer attaches ticks as the tick source of h.
func (h *Host) NewChannelTimer(ticks <-chan uint64) *ChannelTimer {
	c := &ChannelTimer{h: h, ch: ticks}
	h.src = c
	return c
}

// Configure implements kernel.TickTimer.
func (c *ChannelTimer) Configure(hz int, isr func()) {
	c.hz = hz
	c.h.isr = isr
}

// Start implements kernel.TickTimer.
func (c *ChannelTimer) Start() { c.h.ticking = true }

// Stop implements kernel.TickTimer.
func (c *ChannelTimer) Stop() { c.h.ticking = false }

// Last returns the most recent value received from the channel.
func (c *ChannelTimer) Last() uint64 { return c.last }

func (c *ChannelTimer) poll() bool {
	if c.closed {
		return false
	}
	select {
	case v, ok := <-c.ch:
		return c.take(v, ok)
	default:
		return false
	}
}

func (c *ChannelTimer) wait(halted <-chan struct{}) bool {
	if c.closed {
		<-halted
		return false
	}
	select {
	case v, ok := <-c.ch:
		if !c.take(v, ok) {
			<-halted
			return false
		}
		return true
	case <-halted:
		return false
	}
}

func (c *ChannelTimer) take(v uint64, ok bool) bool {
	if !ok {
		c.closed = true
		return false
	}
	c.last = v
	return true
}
