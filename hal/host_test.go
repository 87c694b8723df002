//go:build !tinygo

package hal

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"
)

func TestRGB565(t *testing.T) {
	for _, c := range [][3]uint8{{255, 0, 0}, {0, 255, 0}, {0, 0, 255}, {255, 255, 255}, {0, 0, 0}} {
		r, g, b := rgb888From565(RGB565(c[0], c[1], c[2]))
		if r != c[0] || g != c[1] || b != c[2] {
			t.Fatalf("rgb888From565(RGB565(%v)) = %d,%d,%d", c, r, g, b)
		}
	}
	if got := RGB565(255, 0, 0); got != 0xF800 {
		t.Fatalf("RGB565(red) = %#x, want 0xf800", got)
	}
}

func TestHostTimeStep(t *testing.T) {
	ht := newHostTime(1000)
	now := time.Unix(100, 0)
	ht.now = func() time.Time { return now }

	if n := ht.step(); n != 1 {
		t.Fatalf("first step() = %d, want 1", n)
	}
	now = now.Add(2500 * time.Microsecond)
	if n := ht.step(); n != 2 {
		t.Fatalf("step() after 2.5ms = %d, want 2", n)
	}
	now = now.Add(600 * time.Microsecond)
	if n := ht.step(); n != 1 {
		t.Fatalf("step() after 0.6ms more = %d, want 1", n)
	}
	for want := uint64(1); want <= 4; want++ {
		if got := <-ht.Ticks(); got != want {
			t.Fatalf("tick = %d, want %d", got, want)
		}
	}
	if ht.Hz() != 1000 {
		t.Fatalf("Hz() = %d, want 1000", ht.Hz())
	}
}

func TestHostTimeDropsWhenFull(t *testing.T) {
	ht := newHostTime(0)
	ht.stepN(2000)
	if len(ht.ch) != cap(ht.ch) {
		t.Fatalf("len(ch) = %d, want %d", len(ht.ch), cap(ht.ch))
	}
	if ht.seq != 2000 {
		t.Fatalf("seq = %d, want 2000", ht.seq)
	}
	if ht.Hz() != DefaultHz {
		t.Fatalf("Hz() = %d, want %d", ht.Hz(), DefaultHz)
	}
}

func TestHostFramebufferPresent(t *testing.T) {
	fb := newHostFramebuffer(4, 2)
	dst := make([]byte, 4*2*4)
	fb.ClearRGB(255, 0, 0)

	if n := fb.snapshotRGBA(dst, 0); n != 0 || dst[0] != 0 {
		t.Fatalf("before Present: frames=%d r=%d, want 0 0", n, dst[0])
	}
	if err := fb.Present(); err != nil {
		t.Fatal(err)
	}
	if n := fb.snapshotRGBA(dst, 0); n != 1 || dst[0] != 255 || dst[1] != 0 || dst[3] != 255 {
		t.Fatalf("after Present: frames=%d px=%v", n, dst[:4])
	}

	fb.ClearRGB(0, 0, 255)
	dst[0] = 7
	if n := fb.snapshotRGBA(dst, 1); n != 1 || dst[0] != 7 {
		t.Fatalf("unchanged frame was converted again: frames=%d r=%d", n, dst[0])
	}
}

func TestHostLoggerLines(t *testing.T) {
	var buf bytes.Buffer
	h := newHost(&buf, 100)
	h.Logger().WriteLineString("a")
	h.Logger().WriteLineBytes([]byte("b"))
	if got := buf.String(); got != "a\nb\n" {
		t.Fatalf("log = %q, want %q", got, "a\nb\n")
	}
}

func TestHostLED(t *testing.T) {
	h := newHost(&bytes.Buffer{}, 100)
	h.LED().High()
	h.LED().High()
	h.LED().Low()
	on, toggles := h.led.state()
	if on || toggles != 2 {
		t.Fatalf("state() = %v, %d, want false, 2", on, toggles)
	}
}

func TestRunHeadlessStopsAfterTicks(t *testing.T) {
	var steps int
	var hz int
	err := RunHeadless(context.Background(), func(h HAL) func() error {
		hz = h.Time().Hz()
		return func() error {
			steps++
			return nil
		}
	}, HeadlessConfig{Hz: 1000, Ticks: 5, Out: &bytes.Buffer{}})
	if err != nil {
		t.Fatalf("RunHeadless() = %v, want nil", err)
	}
	if steps == 0 {
		t.Fatal("step was never called")
	}
	if hz != 1000 {
		t.Fatalf("Hz() = %d, want 1000", hz)
	}
}

func TestRunHeadlessStepError(t *testing.T) {
	boom := errors.New("boom")
	err := RunHeadless(context.Background(), func(HAL) func() error {
		return func() error { return boom }
	}, HeadlessConfig{Hz: 1000, Out: &bytes.Buffer{}})
	if !errors.Is(err, boom) {
		t.Fatalf("RunHeadless() = %v, want %v", err, boom)
	}
}

func TestRunHeadlessCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := RunHeadless(ctx, func(HAL) func() error { return nil }, HeadlessConfig{Out: &bytes.Buffer{}})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("RunHeadless() = %v, want context.Canceled", err)
	}
}
