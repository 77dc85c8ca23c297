package nested

import (
	"fmt"
	"os"

	"github.com/bnema/xnested/internal/hostx"
)

// WM_SIZE_HINTS flags (ICCCM 4.1.2.3).
const (
	sizeHintPPosition = 1 << 2
	sizeHintPSize     = 1 << 3
	sizeHintPMinSize  = 1 << 4
	sizeHintPMaxSize  = 1 << 5

	sizeHintsFields = 18
)

const wmClass = "Xorg"

func hostName(displayName string) string {
	if displayName != "" {
		return displayName
	}
	return os.Getenv("DISPLAY")
}

func (c *Client) eventMask() uint32 {
	mask := hostx.EventMaskExposure
	if c.params.Input {
		mask |= hostx.EventMaskButtonPress | hostx.EventMaskButtonRelease |
			hostx.EventMaskPointerMotion |
			hostx.EventMaskKeyPress | hostx.EventMaskKeyRelease
	}
	return mask
}

// createWindow creates and maps the window. The window starts at 100x100
// and is resized once the hints are in place so window managers honour
// them.
func (c *Client) createWindow() error {
	id, err := c.conn.NewID()
	if err != nil {
		return fmt.Errorf("failed to allocate window id: %w", err)
	}
	c.window = hostx.Window(id)
	root := c.conn.Screen().Root

	c.conn.CreateWindow(c.window, root, 0, 0, 100, 100, c.visual.ID,
		hostx.CwEventMask, []uint32{c.eventMask()})

	c.setNormalHints()
	if c.params.Fullscreen {
		c.setFullscreenHint()
	}
	c.setDeleteProtocol()
	c.setTitle("")
	c.conn.ChangeProperty(c.window, hostx.AtomWmClass, hostx.AtomString, 8,
		[]byte(wmClass+"\x00"+wmClass+"\x00"))

	c.conn.ConfigureWindow(c.window, hostx.ConfigWindowWidth|hostx.ConfigWindowHeight,
		[]uint32{uint32(c.params.Width), uint32(c.params.Height)})
	c.conn.MapWindow(c.window)
	c.conn.ConfigureWindow(c.window, hostx.ConfigWindowX|hostx.ConfigWindowY,
		[]uint32{uint32(int32(c.params.X)), uint32(int32(c.params.Y))})
	return nil
}

// setNormalHints pins the window to the requested size.
func (c *Client) setNormalHints() {
	w, h := uint32(c.params.Width), uint32(c.params.Height)
	hints := make([]uint32, sizeHintsFields)
	hints[0] = sizeHintPPosition | sizeHintPSize | sizeHintPMinSize | sizeHintPMaxSize
	hints[1], hints[2] = uint32(int32(c.params.X)), uint32(int32(c.params.Y))
	hints[3], hints[4] = w, h
	hints[5], hints[6] = w, h
	hints[7], hints[8] = w, h
	c.conn.ChangeProperty(c.window, hostx.AtomWmNormalHints, hostx.AtomWmSizeHints, 32, hostx.Card32s(hints...))
}

func (c *Client) setFullscreenHint() {
	state, err := c.conn.InternAtom("_NET_WM_STATE", false)
	if err != nil {
		c.log.Warn("Cannot request fullscreen", "err", err)
		return
	}
	full, err := c.conn.InternAtom("_NET_WM_STATE_FULLSCREEN", false)
	if err != nil {
		c.log.Warn("Cannot request fullscreen", "err", err)
		return
	}
	c.conn.ChangeProperty(c.window, state, hostx.AtomAtom, 32, hostx.Card32s(uint32(full)))
}

// setDeleteProtocol registers WM_DELETE_WINDOW so a window manager close is
// delivered as a ClientMessage. The atoms are kept for the pump.
func (c *Client) setDeleteProtocol() {
	protocols, err := c.conn.InternAtom("WM_PROTOCOLS", false)
	if err != nil {
		c.log.Warn("Window manager close requests will be ignored", "err", err)
		return
	}
	del, err := c.conn.InternAtom("WM_DELETE_WINDOW", false)
	if err != nil {
		c.log.Warn("Window manager close requests will be ignored", "err", err)
		return
	}
	c.wmProtocols, c.wmDeleteWindow = protocols, del
	c.conn.ChangeProperty(c.window, protocols, hostx.AtomAtom, 32, hostx.Card32s(uint32(del)))
}

// Title returns the window title, optionally followed by extra text.
func (c *Client) Title(extra string) string {
	t := fmt.Sprintf("Xorg at :%s.%d nested on %s", c.params.NestedDisplay, c.params.ScreenIndex, c.host)
	if extra != "" {
		t += " " + extra
	}
	return t
}

func (c *Client) setTitle(extra string) {
	c.conn.ChangeProperty(c.window, hostx.AtomWmName, hostx.AtomString, 8, []byte(c.Title(extra)))
}

// SetTitleSuffix appends extra text to the window title, e.g. a grab hint.
func (c *Client) SetTitleSuffix(extra string) {
	if c.closed {
		return
	}
	c.setTitle(extra)
	if err := c.conn.Flush(); err != nil {
		c.log.Debug("Flush after title change failed", "err", err)
	}
}
