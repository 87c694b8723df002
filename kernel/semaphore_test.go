package kernel_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"tickos/kernel"
)

func TestSemaphoreCountSaturates(t *testing.T) {
	x := newHarness(t, kernel.Config{})
	var results []bool
	var count uint16
	x.run(1, func(k *kernel.Kernel) {
		var s kernel.Semaphore
		s.Init(k, 0, 10)
		for range 11 {
			results = append(results, s.Post())
		}
		count = s.Count()
	})
	x.requireClean()
	require.Len(t, results, 11)
	for i, ok := range results[:10] {
		require.True(t, ok, "post %d", i)
	}
	require.False(t, results[10])
	require.Equal(t, uint16(10), count)
}

func TestSemaphorePostWakesWaiter(t *testing.T) {
	x := newHarness(t, kernel.Config{})
	var first, second int
	x.run(1, func(k *kernel.Kernel) {
		counter := 0
		pendLoop := func(arg any) {
			s := arg.(*kernel.Semaphore)
			for {
				s.Pend()
				counter++
			}
		}

		var s1 kernel.Semaphore
		s1.Init(k, 0, 1)
		var th kernel.Thread
		th.Init(k, stack(), 7, pendLoop, &s1)
		th.Start()
		for range 10 {
			s1.Post()
		}
		first = counter
		th.Exit()

		var s2 kernel.Semaphore
		s2.Init(k, 10, 10)
		counter = 0
		th.Init(k, stack(), 7, pendLoop, &s2)
		th.Start()
		th.Exit()
		second = counter
	})
	x.requireClean()
	require.Equal(t, 10, first)
	require.Equal(t, 10, second)
}

func TestSemaphoreTimedPend(t *testing.T) {
	x := newHarness(t, kernel.Config{})
	var timedOut, taken bool
	var waited uint64
	x.run(1, func(k *kernel.Kernel) {
		postLater := func(arg any) {
			k.Sleep(20)
			arg.(*kernel.Semaphore).Post()
		}

		var s1 kernel.Semaphore
		s1.Init(k, 0, 1)
		var th kernel.Thread
		th.Init(k, stack(), 7, postLater, &s1)
		th.Start()

		start := k.Ticks()
		timedOut = !s1.PendTimeout(10)
		waited = k.Ticks() - start
		k.Sleep(20)

		var s2 kernel.Semaphore
		s2.Init(k, 0, 1)
		th.Init(k, stack(), 7, postLater, &s2)
		th.Start()
		taken = s2.PendTimeout(30)
	})
	x.requireClean()
	require.True(t, timedOut)
	require.Equal(t, uint64(10), waited)
	require.True(t, taken)
}

func TestSemaphoreWakesMostUrgentWaiter(t *testing.T) {
	x := newHarness(t, kernel.Config{})
	var order []string
	x.run(1, func(k *kernel.Kernel) {
		var s kernel.Semaphore
		s.Init(k, 0, 3)
		waiter := func(arg any) {
			s.Pend()
			order = append(order, arg.(string))
		}
		var lo, mid, hi kernel.Thread
		lo.Init(k, stack(), 2, waiter, "lo")
		hi.Init(k, stack(), 4, waiter, "hi")
		mid.Init(k, stack(), 3, waiter, "mid")
		lo.Start()
		hi.Start()
		mid.Start()
		for range 3 {
			s.Post()
		}
	})
	x.requireClean()
	require.Equal(t, []string{"hi", "mid", "lo"}, order)
}

func TestSemaphoreTryPend(t *testing.T) {
	x := newHarness(t, kernel.Config{})
	var got []bool
	x.run(1, func(k *kernel.Kernel) {
		var s kernel.Semaphore
		s.Init(k, 1, 1)
		got = append(got, s.TryPend(), s.TryPend())
	})
	x.requireClean()
	require.Equal(t, []bool{true, false}, got)
}

func TestSemaphoreDestroyWithWaitersPanics(t *testing.T) {
	x := newHarness(t, kernel.Config{})
	x.run(1, func(k *kernel.Kernel) {
		var s kernel.Semaphore
		s.Init(k, 0, 1)
		var th kernel.Thread
		th.Init(k, stack(), 2, func(any) { s.Pend() }, nil)
		th.Start()
		s.Destroy()
	})
	x.requirePanic(kernel.PanicActiveSemaphoreDescoped)
}

func TestSemaphoreUseBeforeInitPanics(t *testing.T) {
	x := newHarness(t, kernel.Config{})
	x.run(1, func(k *kernel.Kernel) {
		var s kernel.Semaphore
		s.Post()
	})
	x.requirePanic(kernel.PanicUninitializedObject)
}

func TestSemaphoreTryPendFromInterruptWhileDraining(t *testing.T) {
	x := newHarness(t, kernel.Config{})
	x.vt.SetBusyTicks(5)
	var calls, taken int
	var count uint16
	x.run(1, func(k *kernel.Kernel) {
		var s kernel.Semaphore
		s.Init(k, 0, 5)
		var tm kernel.Timer
		tm.Init(k)
		tm.Start(true, 1, func(*kernel.Thread) {
			calls++
			if s.TryPend() {
				taken++
			}
		})
		for k.Ticks() < 100 {
			s.PendTimeout(3)
		}
		tm.Stop()
		count = s.Count()
	})
	x.requireClean()
	require.Positive(t, calls)
	require.Zero(t, taken)
	require.Zero(t, count)
}

func TestSemaphorePostFromInterruptWhileDraining(t *testing.T) {
	x := newHarness(t, kernel.Config{})
	x.vt.SetBusyTicks(3)
	var posted, taken int
	var count uint16
	x.run(1, func(k *kernel.Kernel) {
		var s kernel.Semaphore
		s.Init(k, 0, 1)
		var tm kernel.Timer
		tm.Init(k)
		tm.Start(true, 1, func(*kernel.Thread) {
			if s.Post() {
				posted++
			}
		})
		for k.Ticks() < 200 {
			if s.PendTimeout(3) {
				taken++
			}
		}
		tm.Stop()
		count = s.Count()
	})
	x.requireClean()
	require.Positive(t, taken)
	require.LessOrEqual(t, count, uint16(1))
	require.Equal(t, posted, taken+int(count))
}

func TestSemaphoreTimeoutWhileDraining(t *testing.T) {
	x := newHarness(t, kernel.Config{})
	x.vt.SetBusyTicks(3)
	var got []bool
	var waited uint64
	var count uint16
	var waiters int
	x.run(1, func(k *kernel.Kernel) {
		var s kernel.Semaphore
		s.Init(k, 0, 1)
		start := k.Ticks()
		for range 20 {
			got = append(got, s.PendTimeout(2))
		}
		waited = k.Ticks() - start
		count = s.Count()
		waiters = s.Waiters()
	})
	x.requireClean()
	require.Len(t, got, 20)
	require.NotContains(t, got, true)
	require.GreaterOrEqual(t, waited, uint64(40))
	require.Zero(t, count)
	require.Zero(t, waiters)
}

func TestSemaphoreWaiterResortedOnPriorityChange(t *testing.T) {
	x := newHarness(t, kernel.Config{})
	var order []string
	x.run(1, func(k *kernel.Kernel) {
		var s kernel.Semaphore
		s.Init(k, 0, 2)
		waiter := func(arg any) {
			s.Pend()
			order = append(order, arg.(string))
		}
		var lo, mid kernel.Thread
		lo.Init(k, stack(), 2, waiter, "lo")
		mid.Init(k, stack(), 3, waiter, "mid")
		lo.Start()
		mid.Start()

		lo.SetPriority(5)
		s.Post()
		s.Post()
	})
	x.requireClean()
	require.Equal(t, []string{"lo", "mid"}, order)
}

func TestSemaphoreWaiterResortedOnInheritance(t *testing.T) {
	x := newHarness(t, kernel.Config{})
	var order []string
	x.run(1, func(k *kernel.Kernel) {
		var s kernel.Semaphore
		s.Init(k, 0, 3)
		waiter := func(arg any) {
			s.Pend()
			order = append(order, arg.(string))
		}
		var a, b, c kernel.Thread
		a.Init(k, stack(), 4, waiter, "a")
		b.Init(k, stack(), 3, waiter, "b")
		c.Init(k, stack(), 2, waiter, "c")
		a.Start()
		b.Start()
		c.Start()

		c.InheritPriority(6)
		a.InheritPriority(2)
		for range 3 {
			s.Post()
		}
	})
	x.requireClean()
	require.Equal(t, []string{"c", "b", "a"}, order)
}
