//go:build !tinygo

package hal

import "sync"

// hostFramebuffer is double buffered: drawing goes to back, Present copies
// it to front, and the window reads front.
type hostFramebuffer struct {
	width  int
	height int
	stride int
	back   []byte

	mu     sync.Mutex
	front  []byte
	frames uint64
}

func newHostFramebuffer(width, height int) *hostFramebuffer {
	stride := width * 2
	return &hostFramebuffer{
		width:  width,
		height: height,
		stride: stride,
		back:   make([]byte, stride*height),
		front:  make([]byte, stride*height),
	}
}

func (f *hostFramebuffer) Width() int          { return f.width }
func (f *hostFramebuffer) Height() int         { return f.height }
func (f *hostFramebuffer) Format() PixelFormat { return PixelFormatRGB565 }
func (f *hostFramebuffer) StrideBytes() int    { return f.stride }
func (f *hostFramebuffer) Buffer() []byte      { return f.back }

func (f *hostFramebuffer) ClearRGB(r, g, b uint8) {
	p := RGB565(r, g, b)
	lo, hi := byte(p), byte(p>>8)
	for i := 0; i+1 < len(f.back); i += 2 {
		f.back[i] = lo
		f.back[i+1] = hi
	}
}

func (f *hostFramebuffer) Present() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copy(f.front, f.back)
	f.frames++
	return nil
}

// snapshotRGBA converts the presented frame into dst, which must hold
// width*height*4 bytes, unless it is still frame number since. It returns
// the number of frames presented so far.
func (f *hostFramebuffer) snapshotRGBA(dst []byte, since uint64) uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.frames == since && since != 0 {
		return since
	}
	for i := 0; i+1 < len(f.front) && i*2+3 < len(dst); i += 2 {
		r, g, b := rgb888From565(uint16(f.front[i]) | uint16(f.front[i+1])<<8)
		j := i * 2
		dst[j], dst[j+1], dst[j+2], dst[j+3] = r, g, b, 0xFF
	}
	return f.frames
}
