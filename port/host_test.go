package port_test

import (
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tickos/kernel"
	"tickos/port"
)

func TestInitStackLaysOutFrame(t *testing.T) {
	h := port.NewHost()
	k := kernel.New(h, h.NewVirtualTimer(0), kernel.Config{})
	k.Init()
	defer h.Shutdown()

	var th kernel.Thread
	th.Init(k, make([]kernel.Word, 64), 1, func(any) {}, nil)
	s := th.Stack()
	require.Equal(t, 48, th.StackTop())
	require.Equal(t, kernel.Word(0x01000000), s[63])
	require.Equal(t, kernel.Word(th.ID()), s[62])
	require.Equal(t, kernel.StackFill, s[47])
	require.Equal(t, 48, th.StackSlack())
}

func TestHaltBeforeStartPanics(t *testing.T) {
	h := port.NewHost()
	require.PanicsWithValue(t, port.ErrHalted, h.Halt)
	require.ErrorIs(t, h.Err(), port.ErrHalted)
	select {
	case <-h.Done():
	default:
		t.Fatal("host not halted")
	}
}

func TestShutdownStopsRunningKernel(t *testing.T) {
	h := port.NewHost()
	vt := h.NewVirtualTimer(0)
	k := kernel.New(h, vt, kernel.Config{})
	k.Init()
	th := k.NewThread(256, 1, func(any) {
		for {
			k.Sleep(1)
		}
	}, nil)
	th.Start()

	go func() {
		for k.Ticks() < 100 {
			runtime.Gosched()
		}
		h.Shutdown()
	}()
	k.Start()
	require.NoError(t, h.Err())
	require.GreaterOrEqual(t, k.Ticks(), uint64(100))
}

func TestChannelTimerDeliversTicks(t *testing.T) {
	h := port.NewHost()
	ch := make(chan uint64)
	k := kernel.New(h, h.NewChannelTimer(ch), kernel.Config{})
	k.Init()

	var slept uint64
	th := k.NewThread(256, 1, func(any) {
		start := k.Ticks()
		k.Sleep(3)
		slept = k.Ticks() - start
		h.PowerOff()
	}, nil)
	th.Start()

	go func() {
		for i := uint64(1); ; i++ {
			select {
			case ch <- i:
			case <-h.Done():
				return
			}
		}
	}()
	k.Start()
	require.NoError(t, h.Err())
	require.GreaterOrEqual(t, slept, uint64(3))
}

func TestChannelTimerClosedSourceIdles(t *testing.T) {
	h := port.NewHost()
	ch := make(chan uint64)
	k := kernel.New(h, h.NewChannelTimer(ch), kernel.Config{})
	k.Init()
	th := k.NewThread(256, 1, func(any) { k.Sleep(1000) }, nil)
	th.Start()

	go func() {
		for i := range uint64(5) {
			ch <- i
		}
		close(ch)
		assert.Eventually(t, func() bool { return k.Ticks() == 5 }, time.Second, time.Millisecond)
		h.Shutdown()
	}()
	k.Start()
	require.NoError(t, h.Err())
	require.Equal(t, uint64(5), k.Ticks())
}
