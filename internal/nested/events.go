package nested

import (
	"github.com/bnema/xnested/internal/hostx"
)

// CheckEvents drains the host event queue without blocking and dispatches
// every event in delivery order. A window manager close request or a lost
// connection tears the client down and ends the process through the exit
// hook; later calls do nothing.
func (c *Client) CheckEvents() {
	if c.closed {
		return
	}
	for {
		ev, err := c.conn.PollEvent()
		if err != nil {
			c.log.Warn("Host X server reported an error", "err", err)
			continue
		}
		if ev == nil {
			if err := c.conn.Err(); err != nil {
				if !hostx.LogError(c.log, err) {
					c.log.Error("Host X connection failed", "err", err)
				}
				c.Close()
				c.exit(1)
				return
			}
			break
		}

		c.dispatch(ev)
		if c.closed {
			return
		}
	}

	if err := c.conn.Flush(); err != nil {
		c.log.Debug("Flush after event batch failed", "err", err)
	}
}

func (c *Client) dispatch(ev hostx.Event) {
	switch e := ev.(type) {
	case hostx.ExposeEvent:
		c.UpdateScreen(int(e.X), int(e.Y), int(e.X)+int(e.Width), int(e.Y)+int(e.Height))
	case hostx.ClientMessageEvent:
		c.processClientMessage(e)
	case hostx.MotionEvent:
		if c.checkInputDevice() {
			c.dev.PostMotion(int(e.X), int(e.Y))
		}
	case hostx.KeyEvent:
		if c.checkInputDevice() {
			c.dev.PostKey(e.Keycode, e.Press)
		}
	case hostx.ButtonEvent:
		if c.checkInputDevice() {
			c.dev.PostButton(e.Button, e.Press)
		}
	default:
		c.log.Debug("Ignoring host event", "code", hostx.Code(ev))
	}
}

func (c *Client) processClientMessage(e hostx.ClientMessageEvent) {
	if c.wmProtocols == 0 || e.Type != c.wmProtocols || e.Format != 32 {
		return
	}
	if hostx.Atom(e.Data32[0]) != c.wmDeleteWindow {
		return
	}
	c.log.Info("Host window closed, shutting down nested screen")
	c.Close()
	c.exit(0)
}

func (c *Client) checkInputDevice() bool {
	if c.dev == nil {
		c.log.Debug("Input device is not yet initialized, ignoring input.")
		return false
	}
	return true
}
