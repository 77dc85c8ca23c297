// Package nested implements the host side of a nested X screen: a window on
// the host display showing the nested framebuffer, the shared memory image
// behind it, and the pump turning host events into nested input.
package nested

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/bnema/xnested/internal/hostx"
	"github.com/bnema/xnested/internal/shmem"
)

// ErrClosed is returned by operations on a closed client.
var ErrClosed = errors.New("nested screen closed")

// Device receives input from the host window. It is owned by the caller.
type Device interface {
	PostMotion(x, y int)
	PostKey(keycode uint8, down bool)
	PostButton(button uint8, down bool)
}

// Client is one nested screen on the host display. It is not safe for
// concurrent use; the host drives it from a single goroutine.
type Client struct {
	conn   hostx.Conn
	log    *log.Logger
	alloc  shmem.Allocator
	exit   func(code int)
	params Params
	host   string

	window      hostx.Window
	gc          hostx.Gcontext
	emptyCursor hostx.Cursor
	visual      hostx.Visual

	wmProtocols    hostx.Atom
	wmDeleteWindow hostx.Atom

	usingShm bool
	img      *image
	dev      Device
	closed   bool
}

// CreateScreen connects to the host display and creates the window and
// image for one nested screen.
func CreateScreen(p Params, opts ...Option) (*Client, error) {
	if p.Width == 0 || p.Height == 0 {
		return nil, fmt.Errorf("invalid screen size %dx%d", p.Width, p.Height)
	}
	o := buildOptions(p.ScreenIndex, opts)

	conn, err := o.dial(p.DisplayName, p.XauthFile)
	if err != nil {
		if !hostx.LogError(o.log, err) {
			o.log.Error("Failed to connect to host X server", "display", p.DisplayName, "err", err)
		}
		return nil, err
	}

	c := &Client{
		conn:   conn,
		log:    o.log,
		alloc:  o.alloc,
		exit:   o.exit,
		params: p,
		host:   hostName(p.DisplayName),
	}

	if p.Depth == 0 {
		c.params.Depth = conn.Screen().RootDepth
	}
	if err := c.hostInit(); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.createWindow(); err != nil {
		c.Close()
		return nil, err
	}

	c.usingShm = !p.DisableShm && NegotiateShm(conn, c.alloc, c.log)

	if err := c.createImage(c.params.Depth); err != nil {
		c.Close()
		return nil, err
	}
	c.HideCursor()

	if err := conn.Flush(); err != nil {
		hostx.LogError(c.log, err)
		c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Client) hostInit() error {
	screen := c.conn.Screen()
	c.visual = screen.RootVisual

	pf, ok := c.conn.Setup().Format(c.params.Depth)
	if !ok {
		return fmt.Errorf("host X server has no pixmap format for depth %d", c.params.Depth)
	}
	if c.params.BitsPerPixel != 0 && pf.BitsPerPixel != c.params.BitsPerPixel {
		c.log.Warn("Host pixmap format differs from requested bits per pixel",
			"depth", c.params.Depth, "host_bpp", pf.BitsPerPixel, "bpp", c.params.BitsPerPixel)
	}

	gc, err := c.conn.NewID()
	if err != nil {
		return fmt.Errorf("failed to allocate GC id: %w", err)
	}
	c.gc = hostx.Gcontext(gc)
	c.conn.CreateGC(c.gc, uint32(screen.Root), 0, nil)

	pixel, err := c.allocNamedColor(screen.DefaultColormap, "red")
	if err != nil {
		c.log.Warn("Failed to allocate GC colour, using the visual's red mask", "err", err)
		pixel = c.visual.RedMask
	}
	c.conn.ChangeGC(c.gc, hostx.GcForeground, []uint32{pixel})

	return c.initEmptyCursor(screen.Root)
}

func (c *Client) allocNamedColor(cmap hostx.Colormap, name string) (uint32, error) {
	rgb, err := c.conn.LookupColor(cmap, name)
	if err != nil {
		return 0, err
	}
	return c.conn.AllocColor(cmap, rgb)
}

// initEmptyCursor creates a fully transparent 1x1 cursor.
func (c *Client) initEmptyCursor(root hostx.Window) error {
	ids := make([]uint32, 3)
	for i := range ids {
		id, err := c.conn.NewID()
		if err != nil {
			return fmt.Errorf("failed to allocate cursor ids: %w", err)
		}
		ids[i] = id
	}
	pxm, gc, cursor := hostx.Pixmap(ids[0]), hostx.Gcontext(ids[1]), hostx.Cursor(ids[2])

	c.conn.CreatePixmap(1, pxm, uint32(root), 1, 1)
	c.conn.CreateGC(gc, uint32(pxm), hostx.GcForeground, []uint32{0})
	c.conn.PolyFillRectangle(uint32(pxm), gc, []hostx.Rectangle{{X: 0, Y: 0, Width: 1, Height: 1}})
	c.conn.FreeGC(gc)

	c.conn.CreateCursor(cursor, pxm, pxm, hostx.RGB{}, hostx.RGB{}, 0, 0)
	c.conn.FreePixmap(pxm)
	c.emptyCursor = cursor
	return nil
}

// Close releases the image, the host resources and the connection. It is
// safe to call more than once.
func (c *Client) Close() {
	if c.closed {
		return
	}
	c.closed = true

	// A dead connection takes its server resources with it; only the local
	// segment still needs releasing.
	alive := c.conn.Err() == nil
	c.destroyImage(alive)
	if alive {
		if c.emptyCursor != 0 {
			c.conn.FreeCursor(c.emptyCursor)
		}
		if c.gc != 0 {
			c.conn.FreeGC(c.gc)
		}
		if c.window != 0 {
			c.conn.DestroyWindow(c.window)
		}
		if err := c.conn.Flush(); err != nil && !errors.Is(err, hostx.ErrLost) {
			c.log.Debug("Flush on close failed", "err", err)
		}
	}
	c.conn.Close()
	c.log.Debug("Closed nested screen")
}

// Closed reports whether the client has been torn down.
func (c *Client) Closed() bool { return c.closed }

// HideCursor sets the empty cursor on the window.
func (c *Client) HideCursor() {
	if c.closed {
		return
	}
	c.conn.ChangeWindowAttributes(c.window, hostx.CwCursor, []uint32{uint32(c.emptyCursor)})
}

// ColorMasks returns the channel masks of the host visual.
func (c *Client) ColorMasks() (red, green, blue uint32) {
	return c.visual.RedMask, c.visual.GreenMask, c.visual.BlueMask
}

// ImageByteOrder is the host's byte order for frame buffer pixels,
// hostx.LSBFirst or hostx.MSBFirst.
func (c *Client) ImageByteOrder() uint8 {
	return c.conn.Setup().ImageByteOrder
}

// ValidDepth reports whether the host screen supports depth.
func (c *Client) ValidDepth(depth uint8) bool {
	for _, d := range c.conn.Screen().Depths {
		if d == depth {
			return true
		}
	}
	return false
}

// SetDevice binds the input device; nil unbinds it.
func (c *Client) SetDevice(dev Device) {
	c.dev = dev
}

// Ready is signalled when host events are waiting or the connection failed.
// Hosts select on it and then call CheckEvents.
func (c *Client) Ready() <-chan struct{} {
	return c.conn.Ready()
}

// UsingShm reports whether the image lives in shared memory.
func (c *Client) UsingShm() bool { return c.usingShm }

// Window returns the host window id.
func (c *Client) Window() hostx.Window { return c.window }
