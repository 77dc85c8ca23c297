package nested

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bnema/xnested/internal/hostx"
	"github.com/bnema/xnested/internal/hostx/hostxtest"
	"github.com/bnema/xnested/internal/logger"
	"github.com/bnema/xnested/internal/shmem/shmemtest"
)

// harness wires a client to a fake host and a heap segment allocator.
type harness struct {
	srv   *hostxtest.Server
	alloc *shmemtest.Allocator
	exits []int
}

func newHarness() *harness {
	h := &harness{srv: hostxtest.NewServer(), alloc: shmemtest.New()}
	h.srv.Memory = h.alloc
	return h
}

func testParams() Params {
	return Params{
		ScreenIndex:   0,
		DisplayName:   ":0",
		NestedDisplay: "1",
		Width:         64,
		Height:        48,
		X:             10,
		Y:             20,
		Depth:         24,
		BitsPerPixel:  32,
		Input:         true,
	}
}

func (h *harness) options(conn hostx.Conn) []Option {
	return []Option{
		WithLogger(logger.Discard()),
		WithDial(func(string, string) (hostx.Conn, error) { return conn, nil }),
		WithAllocator(h.alloc),
		WithExit(func(code int) { h.exits = append(h.exits, code) }),
	}
}

func (h *harness) create(t *testing.T, p Params) *Client {
	t.Helper()
	c, err := CreateScreen(p, h.options(h.srv)...)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func (h *harness) count(request string) int {
	n := 0
	for _, r := range h.srv.Requests {
		if r == request {
			n++
		}
	}
	return n
}

// fill writes a recognisable pattern into the frame buffer.
func fill(c *Client) {
	fb := c.FrameBuffer()
	for i := range fb {
		fb[i] = byte(i*7 + 3)
	}
}

// rect returns the bytes of a rectangle of the frame buffer, 4 bytes per
// pixel.
func rect(c *Client, x1, y1, x2, y2 int) []byte {
	var out []byte
	for y := y1; y < y2; y++ {
		row := c.FrameBuffer()[y*c.Stride():]
		out = append(out, row[x1*4:x2*4]...)
	}
	return out
}

// recordingDevice logs every input event.
type recordingDevice struct {
	log *[]string
}

func (d recordingDevice) PostMotion(x, y int) {
	*d.log = append(*d.log, "motion")
}

func (d recordingDevice) PostKey(keycode uint8, down bool) {
	*d.log = append(*d.log, keyEntry("key", keycode, down))
}

func (d recordingDevice) PostButton(button uint8, down bool) {
	*d.log = append(*d.log, keyEntry("button", button, down))
}

func keyEntry(kind string, code uint8, down bool) string {
	state := "up"
	if down {
		state = "down"
	}
	return fmt.Sprintf("%s:%d:%s", kind, code, state)
}

// repaintRecorder records window repaints into the same log as the device.
type repaintRecorder struct {
	*hostxtest.Server
	log *[]string
}

func (r repaintRecorder) PutImage(drawable uint32, gc hostx.Gcontext, width, height uint16, dstX, dstY int16, depth uint8, data []byte) error {
	*r.log = append(*r.log, "expose")
	return r.Server.PutImage(drawable, gc, width, height, dstX, dstY, depth, data)
}

func (r repaintRecorder) ShmPutImage(drawable uint32, gc hostx.Gcontext, totalWidth, totalHeight, srcX, srcY, srcWidth, srcHeight uint16, dstX, dstY int16, depth uint8, seg hostx.Seg, offset uint32) {
	*r.log = append(*r.log, "expose")
	r.Server.ShmPutImage(drawable, gc, totalWidth, totalHeight, srcX, srcY, srcWidth, srcHeight, dstX, dstY, depth, seg, offset)
}
