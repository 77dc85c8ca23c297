package cmd

import (
	"github.com/bnema/xnested/internal/nested"
	"github.com/bnema/xnested/internal/ui"
)

// inputDevice is a nested input device the session owns.
type inputDevice interface {
	nested.Device
	Close() error
}

type nopCloser struct{ nested.Device }

func (nopCloser) Close() error { return nil }

// countingDevice forwards to dev and counts the events it sees.
type countingDevice struct {
	dev    nested.Device
	events int
}

func (d *countingDevice) PostMotion(x, y int) {
	d.events++
	d.dev.PostMotion(x, y)
}

func (d *countingDevice) PostKey(keycode uint8, down bool) {
	d.events++
	d.dev.PostKey(keycode, down)
}

func (d *countingDevice) PostButton(button uint8, down bool) {
	d.events++
	d.dev.PostButton(button, down)
}

// screen is what a session drives; *nested.Client satisfies it.
type screen interface {
	Ready() <-chan struct{}
	CheckEvents()
	SetDevice(dev nested.Device)
	FrameBuffer() []byte
	Stride() int
	BitsPerPixel() int
	ColorMasks() (red, green, blue uint32)
	ImageByteOrder() uint8
	UpdateScreen(x1, y1, x2, y2 int)
	UsingShm() bool
	Title(extra string) string
	Closed() bool
	Close()
}

// session implements ui.Session over a nested screen.
type session struct {
	screen        screen
	dev           inputDevice
	counter       *countingDevice
	pattern       *pattern
	width, height int
	frames        int
}

func newSession(s screen, dev inputDevice, width, height int) *session {
	r, g, b := s.ColorMasks()
	sess := &session{
		screen:  s,
		dev:     dev,
		counter: &countingDevice{dev: dev},
		width:   width,
		height:  height,
		pattern: &pattern{
			width:  width,
			height: height,
			stride: s.Stride(),
			bpp:    s.BitsPerPixel(),
			masks:  [3]uint32{r, g, b},
			order:  byteOrder(s.ImageByteOrder()),
		},
	}
	s.SetDevice(sess.counter)
	return sess
}

func (s *session) status() ui.Status {
	return ui.Status{
		Title:  s.screen.Title(""),
		Width:  s.width,
		Height: s.height,
		Shm:    s.screen.UsingShm(),
		Events: s.counter.events,
		Frames: s.frames,
		Closed: s.screen.Closed(),
	}
}

func (s *session) Ready() <-chan struct{} { return s.screen.Ready() }

func (s *session) Pump() ui.Status {
	s.screen.CheckEvents()
	return s.status()
}

func (s *session) Frame() ui.Status {
	if s.screen.Closed() {
		return s.status()
	}
	s.pattern.paint(s.screen.FrameBuffer())
	s.screen.UpdateScreen(0, 0, s.width, s.height)
	s.frames++
	return s.status()
}

// Close tears down the screen and the device. It is safe to call more than
// once.
func (s *session) Close() {
	s.screen.SetDevice(nil)
	s.screen.Close()
	if s.dev != nil {
		_ = s.dev.Close()
		s.dev = nil
	}
}
