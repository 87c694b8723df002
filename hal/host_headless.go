//go:build !tinygo

package hal

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"
)

// HeadlessConfig controls the no-window host runner.
type HeadlessConfig struct {
	Enabled bool
	// Hz is the tick rate of the time base.
	Hz int
	// Ticks stops the runner after that many ticks (0 = run until ctx ends).
	Ticks uint64
	// Out receives log lines; nil means stdout.
	Out io.Writer
}

// RunHeadless runs the OS without opening a window. newApp is called once
// with the HAL and returns a step function polled on every tick; a step
// error ends the run.
func RunHeadless(ctx context.Context, newApp func(HAL) func() error, cfg HeadlessConfig) error {
	if cfg.Hz <= 0 {
		cfg.Hz = DefaultHz
	}
	d := time.Second / time.Duration(cfg.Hz)
	if d <= 0 {
		return fmt.Errorf("invalid headless hz: %d", cfg.Hz)
	}
	out := cfg.Out
	if out == nil {
		out = os.Stdout
	}

	h := newHost(out, cfg.Hz)
	step := newApp(h)

	t := time.NewTicker(d)
	defer t.Stop()

	var ticks uint64
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			ticks += h.t.step()
			if step != nil {
				if err := step(); err != nil {
					return err
				}
			}
			if cfg.Ticks > 0 && ticks >= cfg.Ticks {
				return nil
			}
		}
	}
}
