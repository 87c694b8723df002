package kernel_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"tickos/kernel"
	"tickos/port"
)

// fakeClock wraps every 100 counts.
type fakeClock struct {
	pos   uint16
	epoch uint32
}

func (c *fakeClock) Read() uint16     { return c.pos }
func (c *fakeClock) Epoch() uint32    { return c.epoch }
func (c *fakeClock) Overflow() uint32 { return 100 }

func TestProfileTimerAverages(t *testing.T) {
	h := port.NewHost()
	k := kernel.New(h, h.NewVirtualTimer(0), kernel.Config{})
	k.Init()
	c := &fakeClock{pos: 10}
	k.SetProfileClock(c)

	var p kernel.ProfileTimer
	p.Init(k)
	require.Zero(t, p.Average())

	p.Start()
	c.pos = 40
	require.Equal(t, uint32(30), p.Current())
	p.Stop()
	require.False(t, p.Active())
	require.Equal(t, uint32(30), p.Current())

	// one wrap, seen by the epoch
	p.Start()
	c.pos, c.epoch = 20, 1
	p.Stop()
	require.Equal(t, uint32(80), p.Current())

	// wrap not yet reflected in the epoch
	p.Start()
	c.pos = 10
	p.Stop()
	require.Equal(t, uint32(90), p.Current())

	// several wraps
	p.Start()
	c.pos, c.epoch = 30, 4
	p.Stop()
	require.Equal(t, uint32(2*100+90+30), p.Current())

	require.Equal(t, uint32(4), p.Iterations())
	require.Equal(t, uint32((30+80+90+320)/4), p.Average())
}

func TestProfileTimerStartStopIdempotent(t *testing.T) {
	h := port.NewHost()
	k := kernel.New(h, h.NewVirtualTimer(0), kernel.Config{})
	k.Init()
	c := &fakeClock{}
	k.SetProfileClock(c)

	var p kernel.ProfileTimer
	p.Init(k)
	p.Stop()
	require.Zero(t, p.Iterations())

	p.Start()
	c.pos = 5
	p.Start()
	c.pos = 8
	p.Stop()
	require.Equal(t, uint32(8), p.Current())
	require.Equal(t, uint32(1), p.Iterations())
}

func TestProfileTimerCountsTicksByDefault(t *testing.T) {
	x := newHarness(t, kernel.Config{})
	var got uint32
	x.run(1, func(k *kernel.Kernel) {
		var p kernel.ProfileTimer
		p.Init(k)
		p.Start()
		k.Sleep(25)
		p.Stop()
		got = p.Average()
	})
	x.requireClean()
	require.Equal(t, uint32(25), got)
}
