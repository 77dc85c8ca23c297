package hostx

import (
	"fmt"
	"os"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/jezek/xgb"
	"github.com/jezek/xgb/randr"
	"github.com/jezek/xgb/shm"
	"github.com/jezek/xgb/xproto"

	"github.com/bnema/xnested/internal/logger"
)

// putImageHeader is the fixed size of a core PutImage request in bytes.
const putImageHeader = 24

// XConn is a Conn backed by github.com/jezek/xgb.
type XConn struct {
	c       *xgb.Conn
	display DisplayName
	screen  int
	setup   Setup
	root    Screen
	exts    map[string]bool
	xkb     byte

	mu      sync.Mutex
	queue   []queued
	err     error
	closing bool
	ready   chan struct{}
}

type queued struct {
	ev  xgb.Event
	err xgb.Error
}

var _ Conn = (*XConn)(nil)

// routeXgbLog sends xgb's own diagnostics to the debug log. xgb.Logger is
// read by every connection's goroutines, so it is set only once.
var routeXgbLog sync.Once

// Connect opens a connection to the host display named displayName
// (empty for $DISPLAY). A non-empty xauthFile is exported as XAUTHORITY
// before dialling.
func Connect(displayName, xauthFile string) (*XConn, error) {
	if xauthFile != "" {
		if err := os.Setenv("XAUTHORITY", xauthFile); err != nil {
			return nil, fmt.Errorf("failed to set XAUTHORITY: %w", err)
		}
	}

	dn, err := ParseDisplay(displayName)
	if err != nil {
		return nil, &ConnectionError{Kind: KindParse, Display: displayName, Err: err}
	}

	routeXgbLog.Do(func() {
		xgb.Logger = logger.Logger.StandardLog(log.StandardLogOptions{ForceLevel: log.DebugLevel})
	})

	c, err := xgb.NewConnDisplay(dn.Raw)
	if err != nil {
		return nil, &ConnectionError{Kind: KindConnect, Display: dn.Raw, Err: err}
	}
	return newXConn(c, dn)
}

func newXConn(c *xgb.Conn, dn DisplayName) (*XConn, error) {
	info := xproto.Setup(c)
	if dn.Screen >= len(info.Roots) {
		c.Close()
		return nil, &ConnectionError{Kind: KindInvalidScreen, Display: dn.Raw}
	}

	x := &XConn{
		c:       c,
		display: dn,
		screen:  dn.Screen,
		setup:   convertSetup(info),
		root:    convertScreen(&info.Roots[dn.Screen]),
		exts:    make(map[string]bool),
		ready:   make(chan struct{}, 1),
	}
	x.initExtensions()

	go x.readLoop()
	return x, nil
}

func (x *XConn) initExtensions() {
	if err := randr.Init(x.c); err == nil {
		x.exts[ExtRandr] = true
	} else {
		logger.Debug("RandR not available on host", "err", err)
	}
	if err := shm.Init(x.c); err == nil {
		x.exts[ExtShm] = true
	} else {
		logger.Debug("MIT-SHM not available on host", "err", err)
	}
	if err := x.initXkb(); err == nil {
		x.exts[ExtXkb] = true
	} else {
		logger.Debug("XKB not available on host", "err", err)
	}
}

func (x *XConn) readLoop() {
	for {
		ev, xerr := x.c.WaitForEvent()
		if ev == nil && xerr == nil {
			x.mu.Lock()
			if !x.closing && x.err == nil {
				x.err = &ConnectionError{Kind: KindLost, Display: x.display.Raw}
			}
			x.mu.Unlock()
			x.signal()
			return
		}
		x.mu.Lock()
		x.queue = append(x.queue, queued{ev: ev, err: xerr})
		x.mu.Unlock()
		x.signal()
	}
}

func (x *XConn) signal() {
	select {
	case x.ready <- struct{}{}:
	default:
	}
}

// Display returns the parsed display name the connection was opened with.
func (x *XConn) Display() DisplayName { return x.display }

func (x *XConn) ScreenNumber() int { return x.screen }
func (x *XConn) Screen() Screen    { return x.root }
func (x *XConn) Setup() Setup      { return x.setup }

func (x *XConn) NewID() (uint32, error) {
	return x.c.NewId()
}

func (x *XConn) HasExtension(name string) bool { return x.exts[name] }

func (x *XConn) PollEvent() (Event, error) {
	x.mu.Lock()
	if len(x.queue) == 0 {
		x.mu.Unlock()
		return nil, nil
	}
	q := x.queue[0]
	x.queue[0] = queued{}
	x.queue = x.queue[1:]
	x.mu.Unlock()

	if q.err != nil {
		return nil, &ProtocolError{
			Sequence: q.err.SequenceId(),
			BadID:    q.err.BadId(),
			Message:  q.err.Error(),
		}
	}
	return translateEvent(q.ev), nil
}

func (x *XConn) Ready() <-chan struct{} { return x.ready }

func (x *XConn) Err() error {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.err
}

// Flush reports the connection state. xgb writes requests from its own
// goroutine, so there is nothing buffered on this side.
func (x *XConn) Flush() error {
	return x.Err()
}

func (x *XConn) Sync() error {
	if _, err := xproto.GetInputFocus(x.c).Reply(); err != nil {
		return &RequestError{Request: "GetInputFocus", Err: err}
	}
	return x.Err()
}

// Close shuts the connection down. It is safe after the host hung up.
func (x *XConn) Close() {
	x.mu.Lock()
	if x.closing {
		x.mu.Unlock()
		return
	}
	x.closing = true
	x.mu.Unlock()
	x.c.Close()
}

func (x *XConn) fail(kind Kind, err error) error {
	ce := &ConnectionError{Kind: kind, Display: x.display.Raw, Err: err}
	x.mu.Lock()
	if x.err == nil {
		x.err = ce
	}
	x.mu.Unlock()
	x.signal()
	return ce
}

// Core requests.

func (x *XConn) CreateWindow(wid, parent Window, px, py int16, width, height uint16, visual Visualid, valueMask uint32, values []uint32) {
	xproto.CreateWindow(x.c, xproto.WindowClassCopyFromParent, xproto.Window(wid), xproto.Window(parent),
		px, py, width, height, 0, xproto.WindowClassInputOutput, xproto.Visualid(visual), valueMask, values)
}

func (x *XConn) DestroyWindow(w Window) {
	xproto.DestroyWindow(x.c, xproto.Window(w))
}

func (x *XConn) MapWindow(w Window) {
	xproto.MapWindow(x.c, xproto.Window(w))
}

func (x *XConn) ConfigureWindow(w Window, valueMask uint16, values []uint32) {
	xproto.ConfigureWindow(x.c, xproto.Window(w), valueMask, values)
}

func (x *XConn) ChangeWindowAttributes(w Window, valueMask uint32, values []uint32) {
	xproto.ChangeWindowAttributes(x.c, xproto.Window(w), valueMask, values)
}

func (x *XConn) ChangeProperty(w Window, property, typ Atom, format uint8, data []byte) {
	n := uint32(len(data))
	if format >= 8 {
		n /= uint32(format / 8)
	}
	xproto.ChangeProperty(x.c, xproto.PropModeReplace, xproto.Window(w),
		xproto.Atom(property), xproto.Atom(typ), format, n, data)
}

func (x *XConn) InternAtom(name string, onlyIfExists bool) (Atom, error) {
	reply, err := xproto.InternAtom(x.c, onlyIfExists, uint16(len(name)), name).Reply()
	if err != nil {
		return 0, &RequestError{Request: "InternAtom " + name, Err: err}
	}
	return Atom(reply.Atom), nil
}

func (x *XConn) CreateGC(gc Gcontext, drawable uint32, valueMask uint32, values []uint32) {
	xproto.CreateGC(x.c, xproto.Gcontext(gc), xproto.Drawable(drawable), valueMask, values)
}

func (x *XConn) ChangeGC(gc Gcontext, valueMask uint32, values []uint32) {
	xproto.ChangeGC(x.c, xproto.Gcontext(gc), valueMask, values)
}

func (x *XConn) FreeGC(gc Gcontext) {
	xproto.FreeGC(x.c, xproto.Gcontext(gc))
}

func (x *XConn) CreatePixmap(depth uint8, pid Pixmap, drawable uint32, width, height uint16) {
	xproto.CreatePixmap(x.c, depth, xproto.Pixmap(pid), xproto.Drawable(drawable), width, height)
}

func (x *XConn) FreePixmap(pid Pixmap) {
	xproto.FreePixmap(x.c, xproto.Pixmap(pid))
}

func (x *XConn) PolyFillRectangle(drawable uint32, gc Gcontext, rects []Rectangle) {
	xr := make([]xproto.Rectangle, len(rects))
	for i, r := range rects {
		xr[i] = xproto.Rectangle{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height}
	}
	xproto.PolyFillRectangle(x.c, xproto.Drawable(drawable), xproto.Gcontext(gc), xr)
}

func (x *XConn) CreateCursor(cid Cursor, source, mask Pixmap, fore, back RGB, hx, hy uint16) {
	xproto.CreateCursor(x.c, xproto.Cursor(cid), xproto.Pixmap(source), xproto.Pixmap(mask),
		fore.Red, fore.Green, fore.Blue, back.Red, back.Green, back.Blue, hx, hy)
}

func (x *XConn) FreeCursor(cid Cursor) {
	xproto.FreeCursor(x.c, xproto.Cursor(cid))
}

func (x *XConn) LookupColor(cmap Colormap, name string) (RGB, error) {
	reply, err := xproto.LookupColor(x.c, xproto.Colormap(cmap), uint16(len(name)), name).Reply()
	if err != nil {
		return RGB{}, &RequestError{Request: "LookupColor " + name, Err: err}
	}
	return RGB{Red: reply.ExactRed, Green: reply.ExactGreen, Blue: reply.ExactBlue}, nil
}

func (x *XConn) AllocColor(cmap Colormap, c RGB) (uint32, error) {
	reply, err := xproto.AllocColor(x.c, xproto.Colormap(cmap), c.Red, c.Green, c.Blue).Reply()
	if err != nil {
		return 0, &RequestError{Request: "AllocColor", Err: err}
	}
	return reply.Pixel, nil
}

func (x *XConn) PutImage(drawable uint32, gc Gcontext, width, height uint16, dstX, dstY int16, depth uint8, data []byte) error {
	size := putImageHeader + (len(data)+3)&^3
	if size > x.setup.MaxRequestBytes {
		return x.fail(KindRequestTooLong, fmt.Errorf("PutImage of %d bytes exceeds %d", size, x.setup.MaxRequestBytes))
	}
	xproto.PutImage(x.c, xproto.ImageFormatZPixmap, xproto.Drawable(drawable), xproto.Gcontext(gc),
		width, height, dstX, dstY, 0, depth, data)
	return nil
}

func (x *XConn) GetImage(drawable uint32, gx, gy int16, width, height uint16) ([]byte, error) {
	reply, err := xproto.GetImage(x.c, xproto.ImageFormatZPixmap, xproto.Drawable(drawable),
		gx, gy, width, height, 0xffffffff).Reply()
	if err != nil {
		return nil, &RequestError{Request: "GetImage", Err: err}
	}
	return reply.Data, nil
}

func (x *XConn) GrabServer()   { xproto.GrabServer(x.c) }
func (x *XConn) UngrabServer() { xproto.UngrabServer(x.c) }

// RandR.

func (x *XConn) RandrQueryVersion(major, minor uint32) (Version, error) {
	reply, err := randr.QueryVersion(x.c, major, minor).Reply()
	if err != nil {
		return Version{}, &RequestError{Request: "RRQueryVersion", Err: err}
	}
	return Version{Major: reply.MajorVersion, Minor: reply.MinorVersion}, nil
}

func (x *XConn) RandrScreenResources(root Window) (*ScreenResources, error) {
	reply, err := randr.GetScreenResources(x.c, xproto.Window(root)).Reply()
	if err != nil {
		return nil, &RequestError{Request: "RRGetScreenResources", Err: err}
	}
	res := &ScreenResources{
		Timestamp:       Timestamp(reply.Timestamp),
		ConfigTimestamp: Timestamp(reply.ConfigTimestamp),
		Crtcs:           make([]Crtc, len(reply.Crtcs)),
		Outputs:         make([]Output, len(reply.Outputs)),
		Modes:           make([]ModeInfo, len(reply.Modes)),
	}
	for i, c := range reply.Crtcs {
		res.Crtcs[i] = Crtc(c)
	}
	for i, o := range reply.Outputs {
		res.Outputs[i] = Output(o)
	}
	for i, m := range reply.Modes {
		res.Modes[i] = ModeInfo{ID: Mode(m.Id), Width: m.Width, Height: m.Height}
	}
	return res, nil
}

func (x *XConn) RandrOutputInfo(output Output, configTimestamp Timestamp) (*OutputInfo, error) {
	reply, err := randr.GetOutputInfo(x.c, randr.Output(output), xproto.Timestamp(configTimestamp)).Reply()
	if err != nil {
		return nil, &RequestError{Request: "RRGetOutputInfo", Err: err}
	}
	info := &OutputInfo{
		Name:       string(reply.Name),
		Crtc:       Crtc(reply.Crtc),
		Crtcs:      make([]Crtc, len(reply.Crtcs)),
		Modes:      make([]Mode, len(reply.Modes)),
		Connection: reply.Connection,
		MMWidth:    reply.MmWidth,
		MMHeight:   reply.MmHeight,
	}
	for i, c := range reply.Crtcs {
		info.Crtcs[i] = Crtc(c)
	}
	for i, m := range reply.Modes {
		info.Modes[i] = Mode(m)
	}
	return info, nil
}

func (x *XConn) RandrCrtcInfo(crtc Crtc, configTimestamp Timestamp) (*CrtcInfo, error) {
	reply, err := randr.GetCrtcInfo(x.c, randr.Crtc(crtc), xproto.Timestamp(configTimestamp)).Reply()
	if err != nil {
		return nil, &RequestError{Request: "RRGetCrtcInfo", Err: err}
	}
	info := &CrtcInfo{
		X:        reply.X,
		Y:        reply.Y,
		Width:    reply.Width,
		Height:   reply.Height,
		Mode:     Mode(reply.Mode),
		Rotation: reply.Rotation,
		Outputs:  make([]Output, len(reply.Outputs)),
	}
	for i, o := range reply.Outputs {
		info.Outputs[i] = Output(o)
	}
	return info, nil
}

func (x *XConn) RandrSetScreenSize(root Window, width, height uint16, mmWidth, mmHeight uint32) error {
	err := randr.SetScreenSizeChecked(x.c, xproto.Window(root), width, height, mmWidth, mmHeight).Check()
	if err != nil {
		return &RequestError{Request: "RRSetScreenSize", Err: err}
	}
	return nil
}

func (x *XConn) RandrSetCrtcConfig(crtc Crtc, ts, configTimestamp Timestamp, cx, cy int16, mode Mode, outputs []Output) error {
	outs := make([]randr.Output, len(outputs))
	for i, o := range outputs {
		outs[i] = randr.Output(o)
	}
	reply, err := randr.SetCrtcConfig(x.c, randr.Crtc(crtc), xproto.Timestamp(ts), xproto.Timestamp(configTimestamp),
		cx, cy, randr.Mode(mode), randr.RotationRotate0, outs).Reply()
	if err != nil {
		return &RequestError{Request: "RRSetCrtcConfig", Err: err}
	}
	if reply.Status != randr.SetConfigSuccess {
		return &RequestError{Request: "RRSetCrtcConfig", Err: fmt.Errorf("status %d", reply.Status)}
	}
	return nil
}

// MIT-SHM.

func (x *XConn) ShmQueryVersion() (ShmVersion, error) {
	reply, err := shm.QueryVersion(x.c).Reply()
	if err != nil {
		return ShmVersion{}, &RequestError{Request: "ShmQueryVersion", Err: err}
	}
	return ShmVersion{Major: reply.MajorVersion, Minor: reply.MinorVersion, SharedPixmaps: reply.SharedPixmaps}, nil
}

func (x *XConn) ShmAttach(seg Seg, shmid uint32, readOnly bool) error {
	if err := shm.AttachChecked(x.c, shm.Seg(seg), shmid, readOnly).Check(); err != nil {
		return &RequestError{Request: "ShmAttach", Err: err}
	}
	return nil
}

func (x *XConn) ShmDetach(seg Seg) {
	shm.Detach(x.c, shm.Seg(seg))
}

func (x *XConn) ShmPutImage(drawable uint32, gc Gcontext, totalWidth, totalHeight, srcX, srcY, srcWidth, srcHeight uint16, dstX, dstY int16, depth uint8, seg Seg, offset uint32) {
	shm.PutImage(x.c, xproto.Drawable(drawable), xproto.Gcontext(gc),
		totalWidth, totalHeight, srcX, srcY, srcWidth, srcHeight, dstX, dstY,
		depth, xproto.ImageFormatZPixmap, 0, shm.Seg(seg), offset)
}

// Keyboard.

func (x *XConn) GetKeyboardMapping(first uint8, count uint8) (*KeyboardMapping, error) {
	reply, err := xproto.GetKeyboardMapping(x.c, xproto.Keycode(first), count).Reply()
	if err != nil {
		return nil, &RequestError{Request: "GetKeyboardMapping", Err: err}
	}
	m := &KeyboardMapping{
		KeysymsPerKeycode: reply.KeysymsPerKeycode,
		Keysyms:           make([]uint32, len(reply.Keysyms)),
	}
	for i, k := range reply.Keysyms {
		m.Keysyms[i] = uint32(k)
	}
	return m, nil
}

func (x *XConn) GetModifierMapping() (*ModifierMapping, error) {
	reply, err := xproto.GetModifierMapping(x.c).Reply()
	if err != nil {
		return nil, &RequestError{Request: "GetModifierMapping", Err: err}
	}
	m := &ModifierMapping{
		KeycodesPerModifier: reply.KeycodesPerModifier,
		Keycodes:            make([]uint8, len(reply.Keycodes)),
	}
	for i, k := range reply.Keycodes {
		m.Keycodes[i] = uint8(k)
	}
	return m, nil
}

func translateEvent(ev xgb.Event) Event {
	switch e := ev.(type) {
	case xproto.ExposeEvent:
		return ExposeEvent{Window: Window(e.Window), X: e.X, Y: e.Y, Width: e.Width, Height: e.Height, Count: e.Count}
	case xproto.ClientMessageEvent:
		cm := ClientMessageEvent{Window: Window(e.Window), Type: Atom(e.Type), Format: e.Format}
		if e.Format == 32 {
			copy(cm.Data32[:], e.Data.Data32)
		}
		return cm
	case xproto.MotionNotifyEvent:
		return MotionEvent{Window: Window(e.Event), X: e.EventX, Y: e.EventY, State: e.State}
	case xproto.KeyPressEvent:
		return KeyEvent{Window: Window(e.Event), Keycode: uint8(e.Detail), State: e.State, Press: true}
	case xproto.KeyReleaseEvent:
		return KeyEvent{Window: Window(e.Event), Keycode: uint8(e.Detail), State: e.State}
	case xproto.ButtonPressEvent:
		return ButtonEvent{Window: Window(e.Event), Button: uint8(e.Detail), X: e.EventX, Y: e.EventY, State: e.State, Press: true}
	case xproto.ButtonReleaseEvent:
		return ButtonEvent{Window: Window(e.Event), Button: uint8(e.Detail), X: e.EventX, Y: e.EventY, State: e.State}
	default:
		var code uint8
		if b := ev.Bytes(); len(b) > 0 {
			code = b[0] & 0x7f
		}
		return UnknownEvent{Code: code}
	}
}

func convertSetup(info *xproto.SetupInfo) Setup {
	s := Setup{
		MinKeycode:      uint8(info.MinKeycode),
		MaxKeycode:      uint8(info.MaxKeycode),
		MaxRequestBytes: int(info.MaximumRequestLength) * 4,
		ImageByteOrder:  info.ImageByteOrder,
		PixmapFormats:   make([]PixmapFormat, len(info.PixmapFormats)),
	}
	for i, f := range info.PixmapFormats {
		s.PixmapFormats[i] = PixmapFormat{Depth: f.Depth, BitsPerPixel: f.BitsPerPixel, ScanlinePad: f.ScanlinePad}
	}
	return s
}

func convertScreen(si *xproto.ScreenInfo) Screen {
	s := Screen{
		Root:            Window(si.Root),
		DefaultColormap: Colormap(si.DefaultColormap),
		WidthPx:         si.WidthInPixels,
		HeightPx:        si.HeightInPixels,
		WidthMM:         si.WidthInMillimeters,
		HeightMM:        si.HeightInMillimeters,
		RootDepth:       si.RootDepth,
	}
	for _, d := range si.AllowedDepths {
		s.Depths = append(s.Depths, d.Depth)
		for _, v := range d.Visuals {
			if v.VisualId == si.RootVisual {
				s.RootVisual = Visual{
					ID:         Visualid(v.VisualId),
					Class:      v.Class,
					BitsPerRGB: v.BitsPerRgbValue,
					RedMask:    v.RedMask,
					GreenMask:  v.GreenMask,
					BlueMask:   v.BlueMask,
				}
			}
		}
	}
	return s
}
