//go:build !tinygo

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"tickos/app"
	"tickos/hal"
	"tickos/internal/klog"
)

func main() {
	var cfg hal.HeadlessConfig
	acfg := app.DefaultConfig()
	var level string
	var quantum uint
	flag.BoolVar(&cfg.Enabled, "headless", false, "Run without a window.")
	flag.IntVar(&cfg.Hz, "hz", hal.DefaultHz, "Kernel tick rate.")
	flag.Uint64Var(&cfg.Ticks, "ticks", 0, "Stop after N ticks in headless mode (0 = run forever).")
	flag.StringVar(&level, "log-level", "info", "Log level: off, crit, err, warning, notice, info, debug, trace.")
	flag.UintVar(&quantum, "quantum", uint(acfg.Quantum), "Round-robin time slice in ticks (0 = off).")
	flag.IntVar(&acfg.TraceRate, "trace-rate", acfg.TraceRate, "Per-thread switch logs per second at debug level (0 = unlimited).")
	flag.Parse()

	lvl, err := klog.ParseLevel(level)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	acfg.LogLevel = lvl
	acfg.Quantum = uint16(min(quantum, 0xFFFF))
	newApp := func(h hal.HAL) func() error { return app.NewWithConfig(h, acfg) }

	if cfg.Enabled {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		if err := hal.RunHeadless(ctx, newApp, cfg); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	if err := hal.RunWindow(newApp, cfg.Hz); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
