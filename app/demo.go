package app

import (
	"tickos/hal"
	"tickos/internal/klog"
	"tickos/kernel"
)

const stackWords = 256

const (
	prioMonitor  kernel.Priority = 1
	prioBlink    kernel.Priority = 1
	prioProducer kernel.Priority = 2
	prioLow      kernel.Priority = 2
	prioConsumer kernel.Priority = 3
	prioHigh     kernel.Priority = 5
)

// demo owns the demo threads and the objects they share.
type demo struct {
	k   *kernel.Kernel
	led hal.LED
	log *klog.Logger

	items  kernel.Semaphore
	shared kernel.Mutex

	blinks    uint64
	produced  uint64
	consumed  uint64
	timeouts  uint64
	inherited uint64
	contended uint64
}

func newDemo(k *kernel.Kernel, led hal.LED, log *klog.Logger) *demo {
	d := &demo{k: k, led: led, log: log}
	d.items.Init(k, 0, 16)
	d.shared.Init(k)
	return d
}

func (d *demo) spawn() {
	d.thread("blink", prioBlink, d.blink)
	d.thread("producer", prioProducer, d.producer)
	d.thread("consumer", prioConsumer, d.consumer)
	d.thread("lo", prioLow, d.low)
	d.thread("hi", prioHigh, d.high)
}

func (d *demo) thread(name string, prio kernel.Priority, entry kernel.ThreadEntry) *kernel.Thread {
	t := d.k.NewThread(stackWords, prio, entry, nil)
	t.SetName(name)
	t.Start()
	return t
}

func (d *demo) blink(any) {
	half := d.k.MillisecondsToTicks(250)
	for {
		if d.led != nil {
			d.led.High()
		}
		d.k.Sleep(half)
		if d.led != nil {
			d.led.Low()
		}
		d.k.Sleep(half)
		d.blinks++
	}
}

// producer posts an item every 100ms and pauses for a second after every
// 20 items, which makes the consumer time out.
func (d *demo) producer(any) {
	every := d.k.MillisecondsToTicks(100)
	pause := d.k.MillisecondsToTicks(1000)
	for {
		if !d.items.Post() {
			d.log.Warning().Log("item queue full")
		}
		d.produced++
		if d.produced%20 == 0 {
			d.k.Sleep(pause)
		} else {
			d.k.Sleep(every)
		}
	}
}

func (d *demo) consumer(any) {
	wait := d.k.MillisecondsToTicks(300)
	for {
		if d.items.PendTimeout(wait) {
			d.consumed++
			if d.consumed%50 == 0 {
				d.log.Info().Uint64("consumed", d.consumed).Log("consumer progress")
			}
			continue
		}
		d.timeouts++
		d.log.Debug().Uint64("timeouts", d.timeouts).Log("consumer timed out")
	}
}

// low holds the shared mutex across a sleep, so that high blocks on it and
// lends low its priority.
func (d *demo) low(any) {
	hold := d.k.MillisecondsToTicks(40)
	rest := d.k.MillisecondsToTicks(60)
	self := d.k.CurrentThread()
	for {
		g := kernel.NewLockGuard(&d.shared)
		d.k.Sleep(hold)
		if self.CurPriority() > self.Priority() {
			d.inherited++
			d.log.Debug().
				Int("base", int(self.Priority())).
				Int("effective", int(self.CurPriority())).
				Log("priority inherited")
		}
		g.Release()
		d.k.Sleep(rest)
	}
}

func (d *demo) high(any) {
	period := d.k.MillisecondsToTicks(70)
	wait := d.k.MillisecondsToTicks(100)
	for {
		d.k.Sleep(period)
		if !d.shared.ClaimTimeout(wait) {
			d.contended++
			d.log.Debug().Uint64("contended", d.contended).Log("mutex claim timed out")
			continue
		}
		d.shared.Release()
	}
}
