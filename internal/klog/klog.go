// Package klog builds the structured kernel logger.
//
// Events are encoded as JSON lines by stumpy and written to a line sink, the
// HAL console on the device or stdout on the host.
package klog

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/joeycumines/go-catrate"
	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// Logger is the logger type handed to the kernel.
type Logger = logiface.Logger[logiface.Event]

// LineSink receives one encoded event per call, without the trailing newline.
// hal.Logger satisfies it.
type LineSink interface {
	WriteLineBytes(b []byte)
}

// New returns a logger writing JSON lines to sink at level and above.
// Events carry no timestamp: kernel time is logged as ticks where it matters.
func New(sink LineSink, level logiface.Level) *Logger {
	return NewWriter(&lineWriter{sink: sink}, level)
}

// NewWriter is New for a plain writer.
func NewWriter(w io.Writer, level logiface.Level) *Logger {
	return stumpy.L.New(
		stumpy.L.WithStumpy(
			stumpy.WithWriter(w),
			stumpy.WithTimeField(``),
		),
		stumpy.L.WithLevel(level),
	).Logger()
}

type lineWriter struct {
	sink LineSink
}

func (w *lineWriter) Write(p []byte) (int, error) {
	n := len(p)
	for line := range bytes.SplitSeq(bytes.TrimRight(p, "\n"), []byte{'\n'}) {
		w.sink.WriteLineBytes(line)
	}
	return n, nil
}

// ParseLevel accepts the short syslog keywords ("info", "debug", "trace", ...)
// plus "off".
func ParseLevel(s string) (logiface.Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "off", "none", "disabled":
		return logiface.LevelDisabled, nil
	case "warn":
		return logiface.LevelWarning, nil
	case "error":
		return logiface.LevelError, nil
	}
	for l := logiface.LevelEmergency; l <= logiface.LevelTrace; l++ {
		if l.String() == s {
			return l, nil
		}
	}
	return logiface.LevelDisabled, fmt.Errorf("klog: unknown level %q", s)
}

// Limiter throttles high-rate event categories, such as per-thread switch
// traces. A nil Limiter allows everything.
type Limiter struct {
	l *catrate.Limiter
}

// NewLimiter allows perSecond events per category each second and ten times
// that per minute.
func NewLimiter(perSecond int) *Limiter {
	if perSecond <= 0 {
		return nil
	}
	return &Limiter{l: catrate.NewLimiter(map[time.Duration]int{
		time.Second: perSecond,
		time.Minute: perSecond * 10,
	})}
}

// Allow registers an event in category and reports whether it may be logged.
func (x *Limiter) Allow(category any) bool {
	if x == nil {
		return true
	}
	_, ok := x.l.Allow(category)
	return ok
}
