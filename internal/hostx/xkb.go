package hostx

import (
	"errors"
	"fmt"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
)

// xgb ships no XKEYBOARD binding, so the two requests the nested keyboard
// needs are encoded here and sent through the connection's raw request path.

const (
	xkbUseExtension = 0
	xkbGetControls  = 6

	xkbMajorVersion = 1
	xkbMinorVersion = 0

	// xkbUseCoreKbd is the device spec naming the core keyboard.
	xkbUseCoreKbd = 0x100

	xkbGetControlsReplyLen = 92
)

var errXkbVersion = errors.New("XKB version 1.0 not supported")

func (x *XConn) initXkb() error {
	reply, err := xproto.QueryExtension(x.c, uint16(len(ExtXkb)), ExtXkb).Reply()
	switch {
	case err != nil:
		return err
	case !reply.Present:
		return fmt.Errorf("no extension named %s on the host", ExtXkb)
	}

	x.c.ExtLock.Lock()
	x.c.Extensions[ExtXkb] = reply.MajorOpcode
	x.c.ExtLock.Unlock()
	x.xkb = reply.MajorOpcode

	buf, err := x.xkbRequest(xkbUseExtensionRequest(x.xkb, xkbMajorVersion, xkbMinorVersion))
	if err != nil {
		return err
	}
	supported, major, minor, err := parseXkbUseExtension(buf)
	if err != nil {
		return err
	}
	if !supported {
		return fmt.Errorf("%w (host has %d.%d)", errXkbVersion, major, minor)
	}
	return nil
}

func (x *XConn) xkbRequest(req []byte) ([]byte, error) {
	cookie := x.c.NewCookie(true, true)
	x.c.NewRequest(req, cookie)
	return cookie.Reply()
}

func (x *XConn) XkbGetControls() (*XkbControls, error) {
	if !x.exts[ExtXkb] {
		return nil, fmt.Errorf("%s: %w", ExtXkb, ErrExtensionUnsupported)
	}
	buf, err := x.xkbRequest(xkbGetControlsRequest(x.xkb, xkbUseCoreKbd))
	if err != nil {
		return nil, &RequestError{Request: "XkbGetControls", Err: err}
	}
	ctrls, err := parseXkbGetControls(buf)
	if err != nil {
		return nil, &RequestError{Request: "XkbGetControls", Err: err}
	}
	return ctrls, nil
}

func xkbUseExtensionRequest(opcode byte, major, minor uint16) []byte {
	buf := make([]byte, 8)
	buf[0] = opcode
	buf[1] = xkbUseExtension
	xgb.Put16(buf[2:], uint16(len(buf)/4))
	xgb.Put16(buf[4:], major)
	xgb.Put16(buf[6:], minor)
	return buf
}

func parseXkbUseExtension(buf []byte) (supported bool, major, minor uint16, err error) {
	if len(buf) < 32 {
		return false, 0, 0, fmt.Errorf("XkbUseExtension reply of %d bytes", len(buf))
	}
	return buf[1] == 1, xgb.Get16(buf[8:]), xgb.Get16(buf[10:]), nil
}

func xkbGetControlsRequest(opcode byte, deviceSpec uint16) []byte {
	buf := make([]byte, 8)
	buf[0] = opcode
	buf[1] = xkbGetControls
	xgb.Put16(buf[2:], uint16(len(buf)/4))
	xgb.Put16(buf[4:], deviceSpec)
	return buf
}

// parseXkbGetControls reads enabledControls (offset 56) and the 256-bit
// perKeyRepeat mask (offset 60) out of a GetControls reply.
func parseXkbGetControls(buf []byte) (*XkbControls, error) {
	if len(buf) < xkbGetControlsReplyLen {
		return nil, fmt.Errorf("XkbGetControls reply of %d bytes", len(buf))
	}
	ctrls := &XkbControls{EnabledControls: xgb.Get32(buf[56:])}
	copy(ctrls.PerKeyRepeat[:], buf[60:92])
	return ctrls, nil
}
