// Package app is the tickos demo firmware: it boots the kernel on a HAL and
// runs a handful of threads that exercise sleeping, semaphores, mutex
// priority inheritance and time slicing, with the monitor on the display.
package app

import (
	"errors"
	"fmt"

	"github.com/joeycumines/logiface"

	"tickos/app/monitor"
	"tickos/hal"
	"tickos/internal/buildinfo"
	"tickos/internal/klog"
	"tickos/kernel"
	"tickos/port"
)

// ErrKernelPanic is returned by the step function once the kernel panicked.
var ErrKernelPanic = errors.New("kernel panic")

// Config selects the demo's runtime options.
type Config struct {
	// LogLevel filters kernel and demo logs.
	LogLevel logiface.Level
	// Quantum is the round-robin slice in ticks (0 = no time slicing).
	Quantum uint16
	// TraceRate caps the monitor's per-thread switch logs per second
	// (0 = unlimited).
	TraceRate int
	// MonitorMs is the monitor refresh period.
	MonitorMs uint32
}

// DefaultConfig returns the configuration used by New and Run.
func DefaultConfig() Config {
	return Config{
		LogLevel:  logiface.LevelInformational,
		Quantum:   kernel.DefaultConfig().Quantum,
		TraceRate: 5,
		MonitorMs: 500,
	}
}

type system struct {
	h    hal.HAL
	log  *klog.Logger
	host *port.Host
	k    *kernel.Kernel
	mon  *monitor.Monitor
	demo *demo
}

// New boots the OS with the default config and returns its step function.
func New(h hal.HAL) func() error {
	return NewWithConfig(h, DefaultConfig())
}

// NewWithConfig boots the OS on h and returns a step function for the host
// runner. The kernel runs on its own goroutines; step reports its fate.
func NewWithConfig(h hal.HAL, cfg Config) func() error {
	s := newSystem(h, cfg)
	go s.k.Start()
	return s.step
}

// Run boots the OS and blocks forever (TinyGo/native entrypoint).
func Run(h hal.HAL) {
	RunWithConfig(h, DefaultConfig())
}

// RunWithConfig is Run with an explicit config.
func RunWithConfig(h hal.HAL, cfg Config) {
	s := newSystem(h, cfg)
	s.k.Start()
	select {}
}

func newSystem(h hal.HAL, cfg Config) *system {
	log := klog.New(h.Logger(), cfg.LogLevel)

	host := port.NewHost()
	var ticks <-chan uint64
	kcfg := kernel.DefaultConfig()
	if t := h.Time(); t != nil {
		ticks = t.Ticks()
		kcfg.TickHz = t.Hz()
	}
	kcfg.Quantum = cfg.Quantum
	kcfg.Logger = log

	k := kernel.New(host, host.NewChannelTimer(ticks), kcfg)
	k.Init()
	k.SetProfileClock(port.NewMicroClock())
	s := &system{h: h, log: log, host: host, k: k}
	installPanicHandler(h, k)

	s.mon = monitor.New(k, h.Display(), log, klog.NewLimiter(cfg.TraceRate))
	s.mon.Install()
	if cfg.MonitorMs > 0 {
		s.mon.SetInterval(k.MillisecondsToTicks(cfg.MonitorMs))
	}

	s.demo = newDemo(k, h.LED(), log)
	s.demo.spawn()
	mon := k.NewThread(stackWords, prioMonitor, s.mon.Run, nil)
	mon.SetName("monitor")
	mon.Start()

	log.Info().
		Str("build", buildinfo.String()).
		Int("hz", kcfg.TickHz).
		Int("quantum", int(kcfg.Quantum)).
		Log("tickos boot")
	return s
}

func (s *system) step() error {
	select {
	case <-s.host.Done():
	default:
		return nil
	}
	if info, ok := s.k.LastPanic(); ok {
		return fmt.Errorf("%w: %v in thread %d", ErrKernelPanic, info.Cause, info.ThreadID)
	}
	if err := s.host.Err(); err != nil {
		return fmt.Errorf("kernel stopped: %w", err)
	}
	return errors.New("kernel stopped")
}
