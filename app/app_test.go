package app

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/joeycumines/logiface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tickos/hal"
	"tickos/kernel"
)

type testHAL struct {
	log testLog
	led testLED
	fb  *testFB
	t   testTime
}

func newTestHAL() *testHAL {
	return &testHAL{
		fb: newTestFB(160, 120),
		t:  testTime{ch: make(chan uint64), hz: 1000},
	}
}

func (h *testHAL) Logger() hal.Logger   { return &h.log }
func (h *testHAL) LED() hal.LED         { return &h.led }
func (h *testHAL) Display() hal.Display { return h }
func (h *testHAL) Time() hal.Time       { return h.t }

func (h *testHAL) Framebuffer() hal.Framebuffer { return h.fb }

type testLog struct {
	mu    sync.Mutex
	lines []string
}

func (l *testLog) WriteLineString(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, s)
}

func (l *testLog) WriteLineBytes(b []byte) { l.WriteLineString(string(b)) }

func (l *testLog) contains(sub string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, line := range l.lines {
		if strings.Contains(line, sub) {
			return true
		}
	}
	return false
}

type testLED struct {
	mu      sync.Mutex
	toggles int
}

func (l *testLED) High() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.toggles++
}

func (l *testLED) Low() {}

func (l *testLED) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.toggles
}

type testFB struct {
	w, h     int
	buf      []byte
	presents int
}

func newTestFB(w, h int) *testFB { return &testFB{w: w, h: h, buf: make([]byte, w*h*2)} }

func (f *testFB) Width() int              { return f.w }
func (f *testFB) Height() int             { return f.h }
func (f *testFB) Format() hal.PixelFormat { return hal.PixelFormatRGB565 }
func (f *testFB) StrideBytes() int        { return f.w * 2 }
func (f *testFB) Buffer() []byte          { return f.buf }
func (f *testFB) Present() error          { f.presents++; return nil }

func (f *testFB) ClearRGB(r, g, b uint8) {
	p := hal.RGB565(r, g, b)
	for i := 0; i < len(f.buf); i += 2 {
		f.buf[i], f.buf[i+1] = byte(p), byte(p>>8)
	}
}

type testTime struct {
	ch chan uint64
	hz int
}

func (t testTime) Ticks() <-chan uint64 { return t.ch }
func (t testTime) Hz() int              { return t.hz }

// feed delivers ticks until the host halts.
func feed(s *system, ch chan<- uint64) {
	for i := uint64(1); ; i++ {
		select {
		case ch <- i:
		case <-s.host.Done():
			return
		}
	}
}

func TestSystemRunsDemo(t *testing.T) {
	h := newTestHAL()
	cfg := DefaultConfig()
	cfg.LogLevel = logiface.LevelDebug
	s := newSystem(h, cfg)
	require.NoError(t, s.step())

	go feed(s, h.t.ch)
	go s.k.Start()

	require.Eventually(t, func() bool {
		return h.led.count() >= 3 && h.log.contains(`"priority inherited"`)
	}, 10*time.Second, time.Millisecond)

	require.NoError(t, s.step())
	s.host.Shutdown()
	<-s.host.Done()

	err := s.step()
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrKernelPanic)
	assert.True(t, h.log.contains(`"tickos boot"`))
}

func TestSystemKernelPanic(t *testing.T) {
	h := newTestHAL()
	s := newSystem(h, DefaultConfig())
	th := s.k.NewThread(stackWords, 7, func(any) { panic("boom") }, nil)
	th.SetName("faulty")
	th.Start()

	go feed(s, h.t.ch)
	go s.k.Start()
	<-s.host.Done()

	err := s.step()
	require.ErrorIs(t, err, ErrKernelPanic)
	assert.True(t, h.log.contains("tickos panic: thread fault"))
	assert.True(t, h.log.contains("faulty"))
	assert.True(t, h.log.contains("value: boom"))

	info, ok := s.k.LastPanic()
	require.True(t, ok)
	assert.Equal(t, kernel.PanicThreadFault, info.Cause)
	assert.Positive(t, h.fb.presents)
	white := hal.RGB565(255, 255, 255)
	assert.Equal(t, byte(white), h.fb.buf[len(h.fb.buf)-2])
}

func TestPanicLines(t *testing.T) {
	lines := panicLines(kernel.PanicInfo{Cause: kernel.PanicMutexNotOwner, ThreadID: 3})
	assert.Equal(t, []string{
		"tickos panic: mutex released by non-owner",
		"thread: 3 (-)",
		"stack: unavailable",
	}, lines)
}

func TestTakeRunes(t *testing.T) {
	p, r := takeRunes("héllo", 2)
	assert.Equal(t, "hé", p)
	assert.Equal(t, "llo", r)
	p, r = takeRunes("ab", 5)
	assert.Equal(t, "ab", p)
	assert.Empty(t, r)
}
