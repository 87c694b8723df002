package app

import (
	"fmt"
	"image/color"
	"strings"
	"unicode/utf8"

	"tickos/app/monitor"
	"tickos/hal"
	"tickos/kernel"

	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/proggy"
)

const (
	panicFontHeight = 10
	panicFontOffset = 6
)

// installPanicHandler reports kernel panics on the console and paints them
// on the display. The kernel halts once the handler returns.
func installPanicHandler(h hal.HAL, k *kernel.Kernel) {
	k.SetPanicHandler(func(info kernel.PanicInfo) {
		lines := panicLines(info)
		if l := h.Logger(); l != nil {
			for _, line := range lines {
				l.WriteLineString(line)
			}
		}
		if disp := h.Display(); disp != nil {
			if fb := disp.Framebuffer(); fb != nil {
				drawPanic(fb, lines)
			}
		}
	})
}

func panicLines(info kernel.PanicInfo) []string {
	name := info.Thread
	if name == "" {
		name = "-"
	}
	lines := []string{
		"tickos panic: " + info.Cause.String(),
		fmt.Sprintf("thread: %d (%s)", info.ThreadID, name),
	}
	if info.Value != nil {
		lines = append(lines, fmt.Sprintf("value: %v", info.Value))
	}
	if len(info.Stack) == 0 {
		return append(lines, "stack: unavailable")
	}
	lines = append(lines, "stack:")
	for line := range strings.SplitSeq(string(info.Stack), "\n") {
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func drawPanic(fb hal.Framebuffer, lines []string) {
	font := &proggy.TinySZ8pt7b
	_, outbox := tinyfont.LineWidth(font, "0")
	fontWidth := int16(outbox)
	if fontWidth <= 0 {
		return
	}

	fb.ClearRGB(255, 255, 255)
	d := monitor.NewDisplay(fb)
	fg := color.RGBA{A: 255}
	cols := max(int16(fb.Width())/fontWidth, 1)
	maxY := int16(fb.Height())

	y := int16(0)
	for _, line := range lines {
		for line != "" && y+panicFontHeight <= maxY {
			chunk, rest := takeRunes(line, cols)
			x := int16(0)
			for _, r := range chunk {
				tinyfont.DrawChar(d, font, x, y+panicFontOffset, r, fg)
				x += fontWidth
			}
			y += panicFontHeight
			line = strings.TrimLeft(rest, " \t")
		}
	}
	_ = d.Display()
}

func takeRunes(s string, n int16) (prefix, rest string) {
	if n <= 0 {
		return "", s
	}
	i := 0
	for count := int16(0); i < len(s) && count < n; count++ {
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
	}
	return s[:i], s[i:]
}
