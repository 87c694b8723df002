//go:build !tinygo && cgo

package hal

import (
	"fmt"
	"os"

	"tickos/internal/buildinfo"

	"github.com/hajimehoshi/ebiten/v2"
)

const ledSize = 8

// RunWindow opens a desktop window showing the framebuffer and the LED, and
// blocks until it closes or a step fails.
func RunWindow(newApp func(HAL) func() error, hz int) error {
	h := newHost(os.Stdout, hz)
	step := newApp(h)

	g := &hostGame{h: h, step: step}
	ebiten.SetWindowTitle(fmt.Sprintf("tickos (%s)", buildinfo.Short()))
	ebiten.SetWindowSize(h.fb.width*2, h.fb.height*2)
	ebiten.SetTPS(60)
	return ebiten.RunGame(g)
}

type hostGame struct {
	h     *hostHAL
	step  func() error
	pix   []byte
	img   *ebiten.Image
	frame uint64
}

func (g *hostGame) Update() error {
	g.h.t.step()
	if g.step != nil {
		return g.step()
	}
	return nil
}

func (g *hostGame) Draw(screen *ebiten.Image) {
	fb := g.h.fb
	if g.img == nil {
		g.pix = make([]byte, fb.width*fb.height*4)
		g.img = ebiten.NewImage(fb.width, fb.height)
	}
	g.frame = fb.snapshotRGBA(g.pix, g.frame)
	g.drawLED()
	g.img.WritePixels(g.pix)
	screen.DrawImage(g.img, nil)
}

func (g *hostGame) drawLED() {
	on, _ := g.h.led.state()
	var c byte = 0x30
	if on {
		c = 0xFF
	}
	w := g.h.fb.width
	for y := 2; y < 2+ledSize; y++ {
		for x := w - 2 - ledSize; x < w-2; x++ {
			j := (y*w + x) * 4
			g.pix[j], g.pix[j+1], g.pix[j+2], g.pix[j+3] = 0, c, 0, 0xFF
		}
	}
}

func (g *hostGame) Layout(int, int) (int, int) {
	return g.h.fb.width, g.h.fb.height
}
