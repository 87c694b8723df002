package kernel

// ProfileClock is a free-running counter for code profiling. Read returns
// the position within the current epoch, which advances every Overflow
// counts.
type ProfileClock interface {
	Read() uint16
	Epoch() uint32
	Overflow() uint32
}

// tickClock profiles in kernel ticks.
type tickClock struct {
	k *Kernel
}

func (c tickClock) Read() uint16     { return uint16(c.k.Ticks()) }
func (c tickClock) Epoch() uint32    { return uint32(c.k.Ticks() >> 16) }
func (c tickClock) Overflow() uint32 { return 1 << 16 }

// SetProfileClock replaces the clock used by profile timers. nil restores
// the tick clock.
func (k *Kernel) SetProfileClock(c ProfileClock) {
	if c == nil {
		c = tickClock{k}
	}
	k.profClock = c
}

// ProfileClock returns the clock used by profile timers.
func (k *Kernel) ProfileClock() ProfileClock {
	if k.profClock == nil {
		return tickClock{k}
	}
	return k.profClock
}

// ProfileTimer measures repeated intervals of code in profile clock counts
// and keeps their running average.
type ProfileTimer struct {
	k          *Kernel
	cumulative uint64
	current    uint32
	iterations uint32
	epoch      uint32
	initial    uint16
	active     bool
}

// Init resets the timer.
func (p *ProfileTimer) Init(k *Kernel) {
	p.k = k
	p.cumulative = 0
	p.current = 0
	p.iterations = 0
	p.active = false
}

// Start begins an iteration. It is a no-op while one is in progress.
func (p *ProfileTimer) Start() {
	if p.active {
		return
	}
	c := p.k.ProfileClock()
	cs := p.k.enterCritical()
	p.current = 0
	p.epoch = c.Epoch()
	p.initial = c.Read()
	cs.exit()
	p.active = true
}

// Stop ends the iteration in progress and adds it to the average.
func (p *ProfileTimer) Stop() {
	if !p.active {
		return
	}
	c := p.k.ProfileClock()
	cs := p.k.enterCritical()
	now, epoch := c.Read(), c.Epoch()
	p.current = p.elapsed(c.Overflow(), now, epoch)
	p.cumulative += uint64(p.current)
	p.iterations++
	cs.exit()
	p.active = false
}

// Average returns the mean length of the completed iterations, or zero.
func (p *ProfileTimer) Average() uint32 {
	if p.iterations == 0 {
		return 0
	}
	return uint32(p.cumulative / uint64(p.iterations))
}

// Current returns the length of the iteration in progress so far, or of the
// last completed one.
func (p *ProfileTimer) Current() uint32 {
	if !p.active {
		return p.current
	}
	c := p.k.ProfileClock()
	cs := p.k.enterCritical()
	now, epoch := c.Read(), c.Epoch()
	cs.exit()
	return p.elapsed(c.Overflow(), now, epoch)
}

// Iterations returns the number of completed iterations.
func (p *ProfileTimer) Iterations() uint32 { return p.iterations }

// Active reports whether an iteration is in progress.
func (p *ProfileTimer) Active() bool { return p.active }

// elapsed counts from the start of the iteration to now. A counter below its
// starting value with no epoch change is an overflow the epoch has not yet
// caught up with.
func (p *ProfileTimer) elapsed(overflow uint32, now uint16, epoch uint32) uint32 {
	wraps := epoch - p.epoch
	switch {
	case wraps > 1:
		return (wraps-1)*overflow + (overflow - uint32(p.initial)) + uint32(now)
	case wraps == 1 || now < p.initial:
		return (overflow - uint32(p.initial)) + uint32(now)
	default:
		return uint32(now - p.initial)
	}
}
