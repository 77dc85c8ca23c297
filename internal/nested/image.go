package nested

import (
	"fmt"

	"github.com/bnema/xnested/internal/hostx"
	"github.com/bnema/xnested/internal/shmem"
)

// image is the ZPixmap image behind the window, either in a shared segment
// or in a private buffer.
type image struct {
	width, height int
	depth         uint8
	bpp           uint8
	pad           uint8
	stride        int
	data          []byte

	seg    *shmem.Segment
	shmseg hostx.Seg
}

// stride returns the bytes per scanline of width pixels.
func stride(width int, bpp, pad uint8) int {
	bits := width * int(bpp)
	p := int(pad)
	if p == 0 {
		p = 8
	}
	return (bits + p - 1) / p * p / 8
}

// createImage replaces the current image with a new one of depth. With
// shared memory a failed attach degrades this and all later images to
// private buffers.
func (c *Client) createImage(depth uint8) error {
	c.destroyImage(true)

	pf, ok := c.conn.Setup().Format(depth)
	if !ok {
		return fmt.Errorf("host X server has no pixmap format for depth %d", depth)
	}
	img := &image{
		width:  int(c.params.Width),
		height: int(c.params.Height),
		depth:  depth,
		bpp:    pf.BitsPerPixel,
		pad:    pf.ScanlinePad,
	}
	img.stride = stride(img.width, img.bpp, img.pad)

	if c.usingShm {
		if err := c.attachImageShm(img); err != nil {
			c.log.Info("Can't attach SHM segment, falling back to plain images", "err", err)
			c.usingShm = false
		} else {
			c.log.Info("SHM segment attached", "shmid", img.seg.ID, "bytes", len(img.data))
		}
	}
	if !c.usingShm {
		c.log.Info("Creating image", "width", img.width, "height", img.height, "depth", depth)
		img.data = make([]byte, img.stride*img.height)
	}
	c.img = img
	return nil
}

func (c *Client) attachImageShm(img *image) error {
	seg, err := c.alloc.Get(img.stride * img.height)
	if err != nil {
		return err
	}
	id, err := c.conn.NewID()
	if err != nil {
		c.releaseSegment(seg)
		return err
	}
	if err := c.conn.ShmAttach(hostx.Seg(id), uint32(seg.ID), false); err != nil {
		c.releaseSegment(seg)
		return err
	}
	// The host holds its own attachment now; the kernel frees the segment
	// once both sides detach, even if this process dies first.
	if err := c.alloc.Remove(seg); err != nil {
		c.log.Warn("Failed to mark shared memory segment for removal", "shmid", seg.ID, "err", err)
	}
	img.seg, img.shmseg, img.data = seg, hostx.Seg(id), seg.Data
	return nil
}

func (c *Client) releaseSegment(seg *shmem.Segment) {
	if err := c.alloc.Release(seg); err != nil {
		c.log.Warn("Failed to release shared memory segment", "shmid", seg.ID, "err", err)
	}
}

// destroyImage tears the current image down. detach is false when the
// connection is gone and the server side no longer exists.
func (c *Client) destroyImage(detach bool) {
	img := c.img
	if img == nil {
		return
	}
	c.img = nil
	if img.seg != nil {
		if detach {
			c.conn.ShmDetach(img.shmseg)
		}
		c.releaseSegment(img.seg)
	}
	img.data = nil
}

// RecreateImage rebuilds the image for depth, e.g. on server reset.
func (c *Client) RecreateImage(depth uint8) error {
	if c.closed {
		return ErrClosed
	}
	return c.createImage(depth)
}

// FrameBuffer returns the pixels the nested screen renders into. The slice
// is valid until the image is recreated or the client closed.
func (c *Client) FrameBuffer() []byte {
	if c.img == nil {
		return nil
	}
	return c.img.data
}

// Stride returns the bytes per scanline of the frame buffer.
func (c *Client) Stride() int {
	if c.img == nil {
		return 0
	}
	return c.img.stride
}

// BitsPerPixel returns the pixel size of the frame buffer.
func (c *Client) BitsPerPixel() int {
	if c.img == nil {
		return 0
	}
	return int(c.img.bpp)
}

// UpdateScreen copies the rectangle [x1,x2)x[y1,y2) of the frame buffer to
// the window and waits until the host has processed it.
func (c *Client) UpdateScreen(x1, y1, x2, y2 int) {
	if c.closed || c.img == nil {
		return
	}
	img := c.img
	x1, y1 = max(x1, 0), max(y1, 0)
	x2, y2 = min(x2, img.width), min(y2, img.height)
	if x1 >= x2 || y1 >= y2 {
		return
	}
	if img.bpp%8 != 0 {
		x1, x2 = 0, img.width
	}

	if img.seg != nil {
		c.conn.ShmPutImage(uint32(c.window), c.gc,
			uint16(img.width), uint16(img.height),
			uint16(x1), uint16(y1), uint16(x2-x1), uint16(y2-y1),
			int16(x1), int16(y1), img.depth, img.shmseg, 0)
	} else if err := c.putImage(x1, y1, x2, y2); err != nil {
		c.log.Error("Failed to update host window", "err", err)
		return
	}

	if err := c.conn.Sync(); err != nil {
		c.log.Debug("Sync after update failed", "err", err)
	}
}

// putImage sends the rectangle with core PutImage requests, in bands of
// rows that fit the host's maximum request length.
func (c *Client) putImage(x1, y1, x2, y2 int) error {
	img := c.img
	w := x2 - x1
	rowBytes := stride(w, img.bpp, img.pad)
	rows := (c.conn.Setup().MaxRequestBytes - putImageHeader) / rowBytes
	if rows < 1 {
		rows = 1
	}
	xoff := x1 * int(img.bpp) / 8
	copyBytes := w * int(img.bpp) / 8
	if img.bpp%8 != 0 {
		copyBytes = rowBytes
	}

	for y := y1; y < y2; y += rows {
		n := min(rows, y2-y)
		buf := make([]byte, rowBytes*n)
		for r := 0; r < n; r++ {
			src := img.data[(y+r)*img.stride+xoff:]
			copy(buf[r*rowBytes:r*rowBytes+copyBytes], src[:copyBytes])
		}
		if err := c.conn.PutImage(uint32(c.window), c.gc, uint16(w), uint16(n),
			int16(x1), int16(y), img.depth, buf); err != nil {
			return err
		}
	}
	return nil
}

// putImageHeader is the size of a core PutImage request without its data.
const putImageHeader = 24
