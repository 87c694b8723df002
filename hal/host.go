//go:build !tinygo

package hal

import (
	"io"
	"os"
	"sync"
)

// DefaultHz is the host tick rate.
const DefaultHz = 1000

type hostHAL struct {
	logger *hostLogger
	led    *hostLED
	fb     *hostFramebuffer
	t      *hostTime
}

// New returns a host HAL logging to stdout with a 320x320 framebuffer and a
// DefaultHz time base.
func New() HAL {
	return newHost(os.Stdout, DefaultHz)
}

func newHost(w io.Writer, hz int) *hostHAL {
	return &hostHAL{
		logger: &hostLogger{w: w},
		led:    &hostLED{},
		fb:     newHostFramebuffer(320, 320),
		t:      newHostTime(hz),
	}
}

func (h *hostHAL) Logger() Logger   { return h.logger }
func (h *hostHAL) LED() LED         { return h.led }
func (h *hostHAL) Display() Display { return hostDisplay{fb: h.fb} }
func (h *hostHAL) Time() Time       { return h.t }

type hostDisplay struct {
	fb *hostFramebuffer
}

func (d hostDisplay) Framebuffer() Framebuffer { return d.fb }

type hostLogger struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *hostLogger) WriteLineString(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	io.WriteString(l.w, s)
	l.w.Write([]byte{'\n'})
}

func (l *hostLogger) WriteLineBytes(b []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.w.Write(b)
	l.w.Write([]byte{'\n'})
}

// hostLED records the pin level; the window draws it as a status dot.
type hostLED struct {
	mu      sync.Mutex
	on      bool
	toggles uint64
}

func (l *hostLED) High() { l.set(true) }
func (l *hostLED) Low()  { l.set(false) }

func (l *hostLED) set(on bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.on != on {
		l.toggles++
	}
	l.on = on
}

func (l *hostLED) state() (on bool, toggles uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.on, l.toggles
}
