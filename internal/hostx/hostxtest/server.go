// Package hostxtest is an in-memory host X server implementing hostx.Conn.
// It keeps enough state to read back window contents, count live server
// resources and script RandR topologies and event streams.
package hostxtest

import (
	"errors"
	"fmt"

	"github.com/bnema/xnested/internal/hostx"
)

// ErrBadAccess is the stock request failure used by injected errors.
var ErrBadAccess = errors.New("BadAccess")

// Memory resolves a shared memory id to its bytes.
type Memory interface {
	Bytes(id int) ([]byte, bool)
}

// Property is a window property as last set.
type Property struct {
	Type   hostx.Atom
	Format uint8
	Data   []byte
}

// Window is a server-side window with a 32 bits per pixel backing store.
type Window struct {
	ID            hostx.Window
	Parent        hostx.Window
	X, Y          int16
	Width, Height uint16
	Visual        hostx.Visualid
	EventMask     uint32
	Cursor        hostx.Cursor
	Mapped        bool
	Properties    map[hostx.Atom]Property
	Pixels        []byte
}

// OutputState is a scripted RandR output.
type OutputState struct {
	ID         hostx.Output
	Name       string
	Crtc       hostx.Crtc
	Crtcs      []hostx.Crtc
	Modes      []hostx.Mode
	Connection uint8
	MMWidth    uint32
	MMHeight   uint32
}

// CrtcState is a scripted RandR CRTC.
type CrtcState struct {
	ID      hostx.Crtc
	X, Y    int16
	Mode    hostx.Mode
	Outputs []hostx.Output
}

// ScreenSize records one RRSetScreenSize request.
type ScreenSize struct {
	Width, Height     uint16
	MMWidth, MMHeight uint32
}

type queued struct {
	ev  hostx.Event
	err error
}

// Server is the fake. Fields ending in Err inject request failures.
type Server struct {
	screen    hostx.Screen
	setup     hostx.Setup
	screenNum int
	nextID    uint32

	Extensions map[string]bool
	Memory     Memory

	Windows map[hostx.Window]*Window
	GCs     map[hostx.Gcontext]uint32
	Pixmaps map[hostx.Pixmap]bool
	Cursors map[hostx.Cursor]bool
	atoms   map[string]hostx.Atom

	ShmVersion    hostx.ShmVersion
	ShmVersionErr error
	ShmAttachErr  error
	Attached      map[hostx.Seg]uint32

	RandrVersion    hostx.Version
	RandrVersionErr error
	Outputs         []*OutputState
	Crtcs           []*CrtcState
	Modes           []hostx.ModeInfo
	SetScreenErr    error
	SetCrtcErr      error
	ScreenSizes     []ScreenSize
	GrabDepth       int

	KeyboardMapping *hostx.KeyboardMapping
	ModifierMapping *hostx.ModifierMapping
	XkbControls     *hostx.XkbControls
	ColorErr        error

	// Requests lists request names in the order they were issued.
	Requests []string
	Syncs    int
	Flushes  int
	Closed   bool

	events []queued
	err    error
	ready  chan struct{}
}

var _ hostx.Conn = (*Server)(nil)

// NewServer returns a 1920x1080 depth-24 host with RandR 1.5, MIT-SHM 1.2
// and XKB.
func NewServer() *Server {
	s := &Server{
		screen: hostx.Screen{
			Root:            1,
			DefaultColormap: 2,
			WidthPx:         1920,
			HeightPx:        1080,
			WidthMM:         508,
			HeightMM:        286,
			RootDepth:       24,
			RootVisual: hostx.Visual{
				ID: 0x21, Class: 4, BitsPerRGB: 8,
				RedMask: 0xff0000, GreenMask: 0x00ff00, BlueMask: 0x0000ff,
			},
			Depths: []uint8{1, 4, 8, 15, 16, 24, 32},
		},
		setup: hostx.Setup{
			MinKeycode:      8,
			MaxKeycode:      255,
			MaxRequestBytes: 65535 * 4,
			PixmapFormats: []hostx.PixmapFormat{
				{Depth: 1, BitsPerPixel: 1, ScanlinePad: 32},
				{Depth: 8, BitsPerPixel: 8, ScanlinePad: 32},
				{Depth: 16, BitsPerPixel: 16, ScanlinePad: 32},
				{Depth: 24, BitsPerPixel: 32, ScanlinePad: 32},
				{Depth: 32, BitsPerPixel: 32, ScanlinePad: 32},
			},
		},
		nextID: 0x00400000,
		Extensions: map[string]bool{
			hostx.ExtRandr: true,
			hostx.ExtShm:   true,
			hostx.ExtXkb:   true,
		},
		Windows:      make(map[hostx.Window]*Window),
		GCs:          make(map[hostx.Gcontext]uint32),
		Pixmaps:      make(map[hostx.Pixmap]bool),
		Cursors:      make(map[hostx.Cursor]bool),
		atoms:        make(map[string]hostx.Atom),
		ShmVersion:   hostx.ShmVersion{Major: 1, Minor: 2, SharedPixmaps: true},
		Attached:     make(map[hostx.Seg]uint32),
		RandrVersion: hostx.Version{Major: 1, Minor: 5},
		KeyboardMapping: &hostx.KeyboardMapping{
			KeysymsPerKeycode: 2,
			Keysyms:           make([]uint32, 2*(255-8+1)),
		},
		ModifierMapping: &hostx.ModifierMapping{
			KeycodesPerModifier: 2,
			Keycodes:            make([]uint8, 16),
		},
		XkbControls: &hostx.XkbControls{},
		ready:       make(chan struct{}, 1),
	}
	return s
}

// SetScreenNumber sets the screen index the connection reports.
func (s *Server) SetScreenNumber(n int) { s.screenNum = n }

// SetMaxRequestBytes sets the largest request the fake accepts.
func (s *Server) SetMaxRequestBytes(n int) { s.setup.MaxRequestBytes = n }

// SetImageByteOrder switches the advertised ZPixmap byte order.
func (s *Server) SetImageByteOrder(order uint8) { s.setup.ImageByteOrder = order }

// SetRootSize sets the root window size in pixels and millimetres.
func (s *Server) SetRootSize(w, h, mmw, mmh uint16) {
	s.screen.WidthPx, s.screen.HeightPx = w, h
	s.screen.WidthMM, s.screen.HeightMM = mmw, mmh
}

func (s *Server) record(name string) {
	s.Requests = append(s.Requests, name)
}

func (s *Server) id() uint32 {
	s.nextID++
	return s.nextID
}

// RandR topology helpers.

// AddMode registers a mode of the given size.
func (s *Server) AddMode(w, h uint16) hostx.Mode {
	m := hostx.Mode(s.id())
	s.Modes = append(s.Modes, hostx.ModeInfo{ID: m, Width: w, Height: h})
	return m
}

// AddCrtc registers an idle CRTC.
func (s *Server) AddCrtc() hostx.Crtc {
	c := &CrtcState{ID: hostx.Crtc(s.id())}
	s.Crtcs = append(s.Crtcs, c)
	return c.ID
}

// AddOutput registers a connected output able to use crtcs and modes.
func (s *Server) AddOutput(name string, crtcs []hostx.Crtc, modes []hostx.Mode) *OutputState {
	o := &OutputState{
		ID:       hostx.Output(s.id()),
		Name:     name,
		Crtcs:    crtcs,
		Modes:    modes,
		MMWidth:  300,
		MMHeight: 200,
	}
	s.Outputs = append(s.Outputs, o)
	return o
}

// Activate drives output o from crtc at x, y with mode.
func (s *Server) Activate(o *OutputState, crtc hostx.Crtc, x, y int16, mode hostx.Mode) {
	c := s.crtc(crtc)
	c.X, c.Y, c.Mode = x, y, mode
	c.Outputs = []hostx.Output{o.ID}
	o.Crtc = crtc
}

// Output returns the output named name.
func (s *Server) Output(name string) *OutputState {
	for _, o := range s.Outputs {
		if o.Name == name {
			return o
		}
	}
	return nil
}

// Crtc returns the state of a CRTC.
func (s *Server) Crtc(id hostx.Crtc) *CrtcState {
	return s.crtc(id)
}

func (s *Server) crtc(id hostx.Crtc) *CrtcState {
	for _, c := range s.Crtcs {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// Event queue.

// Push queues events for PollEvent.
func (s *Server) Push(evs ...hostx.Event) {
	for _, ev := range evs {
		s.events = append(s.events, queued{ev: ev})
	}
	s.signal()
}

// PushError queues an asynchronous protocol error.
func (s *Server) PushError(err *hostx.ProtocolError) {
	s.events = append(s.events, queued{err: err})
	s.signal()
}

// Lose marks the connection as failed with kind.
func (s *Server) Lose(kind hostx.Kind) {
	s.err = &hostx.ConnectionError{Kind: kind, Display: ":test"}
	s.signal()
}

// Pending returns the number of queued events.
func (s *Server) Pending() int { return len(s.events) }

func (s *Server) signal() {
	select {
	case s.ready <- struct{}{}:
	default:
	}
}

// Connection.

func (s *Server) ScreenNumber() int    { return s.screenNum }
func (s *Server) Screen() hostx.Screen { return s.screen }
func (s *Server) Setup() hostx.Setup   { return s.setup }

func (s *Server) NewID() (uint32, error) {
	if s.Closed {
		return 0, hostx.ErrLost
	}
	return s.id(), nil
}

func (s *Server) HasExtension(name string) bool { return s.Extensions[name] }

func (s *Server) PollEvent() (hostx.Event, error) {
	if len(s.events) == 0 {
		return nil, nil
	}
	q := s.events[0]
	s.events = s.events[1:]
	return q.ev, q.err
}

func (s *Server) Ready() <-chan struct{} { return s.ready }
func (s *Server) Err() error             { return s.err }

func (s *Server) Flush() error {
	s.Flushes++
	return s.err
}

func (s *Server) Sync() error {
	s.Syncs++
	s.record("Sync")
	return s.err
}

func (s *Server) Close() {
	s.record("Close")
	s.Closed = true
}

// Core.

func (s *Server) CreateWindow(wid, parent hostx.Window, x, y int16, width, height uint16, visual hostx.Visualid, valueMask uint32, values []uint32) {
	s.record("CreateWindow")
	w := &Window{
		ID: wid, Parent: parent, X: x, Y: y, Visual: visual,
		Properties: make(map[hostx.Atom]Property),
	}
	w.resize(width, height)
	if valueMask&hostx.CwEventMask != 0 && len(values) > 0 {
		w.EventMask = values[0]
	}
	s.Windows[wid] = w
}

func (w *Window) resize(width, height uint16) {
	pixels := make([]byte, int(width)*int(height)*4)
	for row := 0; row < int(min(height, w.Height)); row++ {
		n := int(min(width, w.Width)) * 4
		copy(pixels[row*int(width)*4:row*int(width)*4+n], w.Pixels[row*int(w.Width)*4:])
	}
	w.Width, w.Height, w.Pixels = width, height, pixels
}

func (s *Server) DestroyWindow(w hostx.Window) {
	s.record("DestroyWindow")
	delete(s.Windows, w)
}

func (s *Server) MapWindow(w hostx.Window) {
	s.record("MapWindow")
	if win := s.Windows[w]; win != nil {
		win.Mapped = true
	}
}

func (s *Server) ConfigureWindow(w hostx.Window, valueMask uint16, values []uint32) {
	s.record("ConfigureWindow")
	win := s.Windows[w]
	if win == nil {
		return
	}
	width, height := win.Width, win.Height
	i := 0
	next := func() uint32 {
		v := values[i]
		i++
		return v
	}
	if valueMask&hostx.ConfigWindowX != 0 {
		win.X = int16(int32(next()))
	}
	if valueMask&hostx.ConfigWindowY != 0 {
		win.Y = int16(int32(next()))
	}
	if valueMask&hostx.ConfigWindowWidth != 0 {
		width = uint16(next())
	}
	if valueMask&hostx.ConfigWindowHeight != 0 {
		height = uint16(next())
	}
	if width != win.Width || height != win.Height {
		win.resize(width, height)
	}
}

func (s *Server) ChangeWindowAttributes(w hostx.Window, valueMask uint32, values []uint32) {
	s.record("ChangeWindowAttributes")
	win := s.Windows[w]
	if win == nil {
		return
	}
	i := 0
	if valueMask&hostx.CwEventMask != 0 {
		win.EventMask = values[i]
		i++
	}
	if valueMask&hostx.CwCursor != 0 {
		win.Cursor = hostx.Cursor(values[i])
	}
}

func (s *Server) ChangeProperty(w hostx.Window, property, typ hostx.Atom, format uint8, data []byte) {
	s.record("ChangeProperty")
	if win := s.Windows[w]; win != nil {
		win.Properties[property] = Property{Type: typ, Format: format, Data: append([]byte(nil), data...)}
	}
}

func (s *Server) InternAtom(name string, onlyIfExists bool) (hostx.Atom, error) {
	s.record("InternAtom")
	if a, ok := s.atoms[name]; ok {
		return a, nil
	}
	if onlyIfExists {
		return 0, nil
	}
	a := hostx.Atom(0x100 + len(s.atoms))
	s.atoms[name] = a
	return a, nil
}

// Atom returns the atom interned for name, 0 if none.
func (s *Server) Atom(name string) hostx.Atom { return s.atoms[name] }

func (s *Server) CreateGC(gc hostx.Gcontext, drawable uint32, valueMask uint32, values []uint32) {
	s.record("CreateGC")
	var fg uint32
	if valueMask&hostx.GcForeground != 0 && len(values) > 0 {
		fg = values[0]
	}
	s.GCs[gc] = fg
}

func (s *Server) ChangeGC(gc hostx.Gcontext, valueMask uint32, values []uint32) {
	s.record("ChangeGC")
	if _, ok := s.GCs[gc]; ok && valueMask&hostx.GcForeground != 0 && len(values) > 0 {
		s.GCs[gc] = values[0]
	}
}

func (s *Server) FreeGC(gc hostx.Gcontext) {
	s.record("FreeGC")
	delete(s.GCs, gc)
}

func (s *Server) CreatePixmap(depth uint8, pid hostx.Pixmap, drawable uint32, width, height uint16) {
	s.record("CreatePixmap")
	s.Pixmaps[pid] = true
}

func (s *Server) FreePixmap(pid hostx.Pixmap) {
	s.record("FreePixmap")
	delete(s.Pixmaps, pid)
}

func (s *Server) PolyFillRectangle(drawable uint32, gc hostx.Gcontext, rects []hostx.Rectangle) {
	s.record("PolyFillRectangle")
	win := s.Windows[hostx.Window(drawable)]
	if win == nil {
		return
	}
	fg := s.GCs[gc]
	for _, r := range rects {
		for y := int(r.Y); y < int(r.Y)+int(r.Height); y++ {
			for x := int(r.X); x < int(r.X)+int(r.Width); x++ {
				win.set(x, y, fg)
			}
		}
	}
}

func (w *Window) set(x, y int, pixel uint32) {
	if x < 0 || y < 0 || x >= int(w.Width) || y >= int(w.Height) {
		return
	}
	off := (y*int(w.Width) + x) * 4
	w.Pixels[off] = byte(pixel)
	w.Pixels[off+1] = byte(pixel >> 8)
	w.Pixels[off+2] = byte(pixel >> 16)
	w.Pixels[off+3] = byte(pixel >> 24)
}

func (s *Server) CreateCursor(cid hostx.Cursor, source, mask hostx.Pixmap, fore, back hostx.RGB, x, y uint16) {
	s.record("CreateCursor")
	s.Cursors[cid] = true
}

func (s *Server) FreeCursor(cid hostx.Cursor) {
	s.record("FreeCursor")
	delete(s.Cursors, cid)
}

var colors = map[string]hostx.RGB{
	"red":   {Red: 0xffff},
	"black": {},
	"white": {Red: 0xffff, Green: 0xffff, Blue: 0xffff},
}

func (s *Server) LookupColor(cmap hostx.Colormap, name string) (hostx.RGB, error) {
	s.record("LookupColor")
	if s.ColorErr != nil {
		return hostx.RGB{}, &hostx.RequestError{Request: "LookupColor " + name, Err: s.ColorErr}
	}
	c, ok := colors[name]
	if !ok {
		return hostx.RGB{}, &hostx.RequestError{Request: "LookupColor " + name, Err: errors.New("BadName")}
	}
	return c, nil
}

func (s *Server) AllocColor(cmap hostx.Colormap, c hostx.RGB) (uint32, error) {
	s.record("AllocColor")
	if s.ColorErr != nil {
		return 0, &hostx.RequestError{Request: "AllocColor", Err: s.ColorErr}
	}
	v := s.screen.RootVisual
	scale := func(c uint16, mask uint32) uint32 {
		if mask == 0 {
			return 0
		}
		shift := 0
		for mask&1 == 0 {
			mask >>= 1
			shift++
		}
		return (uint32(c) * mask / 0xffff) << shift
	}
	return scale(c.Red, v.RedMask) | scale(c.Green, v.GreenMask) | scale(c.Blue, v.BlueMask), nil
}

func (s *Server) PutImage(drawable uint32, gc hostx.Gcontext, width, height uint16, dstX, dstY int16, depth uint8, data []byte) error {
	s.record("PutImage")
	if size := 24 + (len(data)+3)&^3; size > s.setup.MaxRequestBytes {
		s.err = &hostx.ConnectionError{Kind: hostx.KindRequestTooLong, Display: ":test"}
		return s.err
	}
	win := s.Windows[hostx.Window(drawable)]
	if win == nil {
		return nil
	}
	stride := int(width) * 4
	for row := 0; row < int(height); row++ {
		src := data[row*stride : (row+1)*stride]
		win.blitRow(int(dstX), int(dstY)+row, src)
	}
	return nil
}

func (w *Window) blitRow(x, y int, src []byte) {
	if y < 0 || y >= int(w.Height) {
		return
	}
	for i := 0; i+4 <= len(src); i += 4 {
		px := x + i/4
		if px < 0 || px >= int(w.Width) {
			continue
		}
		copy(w.Pixels[(y*int(w.Width)+px)*4:], src[i:i+4])
	}
}

func (s *Server) GetImage(drawable uint32, x, y int16, width, height uint16) ([]byte, error) {
	s.record("GetImage")
	win := s.Windows[hostx.Window(drawable)]
	if win == nil {
		return nil, &hostx.RequestError{Request: "GetImage", Err: errors.New("BadDrawable")}
	}
	if int(x)+int(width) > int(win.Width) || int(y)+int(height) > int(win.Height) || x < 0 || y < 0 {
		return nil, &hostx.RequestError{Request: "GetImage", Err: errors.New("BadMatch")}
	}
	out := make([]byte, 0, int(width)*int(height)*4)
	for row := int(y); row < int(y)+int(height); row++ {
		off := (row*int(win.Width) + int(x)) * 4
		out = append(out, win.Pixels[off:off+int(width)*4]...)
	}
	return out, nil
}

func (s *Server) GrabServer() {
	s.record("GrabServer")
	s.GrabDepth++
}

func (s *Server) UngrabServer() {
	s.record("UngrabServer")
	s.GrabDepth--
}

// RandR.

func (s *Server) RandrQueryVersion(major, minor uint32) (hostx.Version, error) {
	s.record("RRQueryVersion")
	if s.RandrVersionErr != nil {
		return hostx.Version{}, &hostx.RequestError{Request: "RRQueryVersion", Err: s.RandrVersionErr}
	}
	return s.RandrVersion, nil
}

func (s *Server) RandrScreenResources(root hostx.Window) (*hostx.ScreenResources, error) {
	s.record("RRGetScreenResources")
	res := &hostx.ScreenResources{Timestamp: 10, ConfigTimestamp: 20}
	for _, c := range s.Crtcs {
		res.Crtcs = append(res.Crtcs, c.ID)
	}
	for _, o := range s.Outputs {
		res.Outputs = append(res.Outputs, o.ID)
	}
	res.Modes = append(res.Modes, s.Modes...)
	return res, nil
}

func (s *Server) RandrOutputInfo(output hostx.Output, configTimestamp hostx.Timestamp) (*hostx.OutputInfo, error) {
	s.record("RRGetOutputInfo")
	for _, o := range s.Outputs {
		if o.ID == output {
			return &hostx.OutputInfo{
				Name:       o.Name,
				Crtc:       o.Crtc,
				Crtcs:      append([]hostx.Crtc(nil), o.Crtcs...),
				Modes:      append([]hostx.Mode(nil), o.Modes...),
				Connection: o.Connection,
				MMWidth:    o.MMWidth,
				MMHeight:   o.MMHeight,
			}, nil
		}
	}
	return nil, &hostx.RequestError{Request: "RRGetOutputInfo", Err: fmt.Errorf("BadOutput 0x%x", uint32(output))}
}

func (s *Server) RandrCrtcInfo(crtc hostx.Crtc, configTimestamp hostx.Timestamp) (*hostx.CrtcInfo, error) {
	s.record("RRGetCrtcInfo")
	c := s.crtc(crtc)
	if c == nil {
		return nil, &hostx.RequestError{Request: "RRGetCrtcInfo", Err: fmt.Errorf("BadCrtc 0x%x", uint32(crtc))}
	}
	info := &hostx.CrtcInfo{X: c.X, Y: c.Y, Mode: c.Mode, Outputs: append([]hostx.Output(nil), c.Outputs...)}
	for _, m := range s.Modes {
		if m.ID == c.Mode {
			info.Width, info.Height = m.Width, m.Height
		}
	}
	return info, nil
}

func (s *Server) RandrSetScreenSize(root hostx.Window, width, height uint16, mmWidth, mmHeight uint32) error {
	s.record("RRSetScreenSize")
	if s.SetScreenErr != nil {
		return &hostx.RequestError{Request: "RRSetScreenSize", Err: s.SetScreenErr}
	}
	s.ScreenSizes = append(s.ScreenSizes, ScreenSize{Width: width, Height: height, MMWidth: mmWidth, MMHeight: mmHeight})
	s.screen.WidthPx, s.screen.HeightPx = width, height
	s.screen.WidthMM, s.screen.HeightMM = uint16(mmWidth), uint16(mmHeight)
	return nil
}

func (s *Server) RandrSetCrtcConfig(crtc hostx.Crtc, ts, configTimestamp hostx.Timestamp, x, y int16, mode hostx.Mode, outputs []hostx.Output) error {
	s.record("RRSetCrtcConfig")
	if s.SetCrtcErr != nil {
		return &hostx.RequestError{Request: "RRSetCrtcConfig", Err: s.SetCrtcErr}
	}
	c := s.crtc(crtc)
	if c == nil {
		return &hostx.RequestError{Request: "RRSetCrtcConfig", Err: fmt.Errorf("BadCrtc 0x%x", uint32(crtc))}
	}
	c.X, c.Y, c.Mode = x, y, mode
	c.Outputs = append([]hostx.Output(nil), outputs...)
	for _, o := range s.Outputs {
		for _, id := range outputs {
			if o.ID == id {
				o.Crtc = crtc
			}
		}
	}
	return nil
}

// MIT-SHM.

func (s *Server) ShmQueryVersion() (hostx.ShmVersion, error) {
	s.record("ShmQueryVersion")
	if s.ShmVersionErr != nil {
		return hostx.ShmVersion{}, &hostx.RequestError{Request: "ShmQueryVersion", Err: s.ShmVersionErr}
	}
	return s.ShmVersion, nil
}

func (s *Server) ShmAttach(seg hostx.Seg, shmid uint32, readOnly bool) error {
	s.record("ShmAttach")
	if s.ShmAttachErr != nil {
		return &hostx.RequestError{Request: "ShmAttach", Err: s.ShmAttachErr}
	}
	if s.Memory != nil {
		if _, ok := s.Memory.Bytes(int(shmid)); !ok {
			return &hostx.RequestError{Request: "ShmAttach", Err: ErrBadAccess}
		}
	}
	s.Attached[seg] = shmid
	return nil
}

func (s *Server) ShmDetach(seg hostx.Seg) {
	s.record("ShmDetach")
	delete(s.Attached, seg)
}

func (s *Server) ShmPutImage(drawable uint32, gc hostx.Gcontext, totalWidth, totalHeight, srcX, srcY, srcWidth, srcHeight uint16, dstX, dstY int16, depth uint8, seg hostx.Seg, offset uint32) {
	s.record("ShmPutImage")
	shmid, ok := s.Attached[seg]
	if !ok || s.Memory == nil {
		return
	}
	data, ok := s.Memory.Bytes(int(shmid))
	if !ok {
		return
	}
	win := s.Windows[hostx.Window(drawable)]
	if win == nil {
		return
	}
	stride := int(totalWidth) * 4
	for row := 0; row < int(srcHeight); row++ {
		start := int(offset) + (int(srcY)+row)*stride + int(srcX)*4
		win.blitRow(int(dstX), int(dstY)+row, data[start:start+int(srcWidth)*4])
	}
}

// Keyboard.

func (s *Server) GetKeyboardMapping(first uint8, count uint8) (*hostx.KeyboardMapping, error) {
	s.record("GetKeyboardMapping")
	if s.KeyboardMapping == nil {
		return nil, &hostx.RequestError{Request: "GetKeyboardMapping", Err: errors.New("BadValue")}
	}
	return s.KeyboardMapping, nil
}

func (s *Server) GetModifierMapping() (*hostx.ModifierMapping, error) {
	s.record("GetModifierMapping")
	if s.ModifierMapping == nil {
		return nil, &hostx.RequestError{Request: "GetModifierMapping", Err: errors.New("BadValue")}
	}
	return s.ModifierMapping, nil
}

func (s *Server) XkbGetControls() (*hostx.XkbControls, error) {
	s.record("XkbGetControls")
	if !s.Extensions[hostx.ExtXkb] || s.XkbControls == nil {
		return nil, fmt.Errorf("%s: %w", hostx.ExtXkb, hostx.ErrExtensionUnsupported)
	}
	return s.XkbControls, nil
}
