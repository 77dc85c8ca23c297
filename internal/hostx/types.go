package hostx

import "github.com/jezek/xgb"

// X resource identifiers. They mirror the host protocol's 32-bit XIDs but
// keep callers independent of the transport package.
type (
	Window    uint32
	Gcontext  uint32
	Pixmap    uint32
	Cursor    uint32
	Atom      uint32
	Colormap  uint32
	Visualid  uint32
	Seg       uint32
	Output    uint32
	Crtc      uint32
	Mode      uint32
	Timestamp uint32
)

// Predefined atoms from the core protocol.
const (
	AtomAtom          Atom = 4
	AtomCardinal      Atom = 6
	AtomString        Atom = 31
	AtomWmName        Atom = 39
	AtomWmNormalHints Atom = 40
	AtomWmSizeHints   Atom = 41
	AtomWmClass       Atom = 67
)

// Event mask bits.
const (
	EventMaskKeyPress      uint32 = 1 << 0
	EventMaskKeyRelease    uint32 = 1 << 1
	EventMaskButtonPress   uint32 = 1 << 2
	EventMaskButtonRelease uint32 = 1 << 3
	EventMaskPointerMotion uint32 = 1 << 6
	EventMaskExposure      uint32 = 1 << 15
)

// Window attribute, configure and GC value-mask bits.
const (
	CwEventMask uint32 = 1 << 11
	CwCursor    uint32 = 1 << 14

	ConfigWindowX      uint16 = 1 << 0
	ConfigWindowY      uint16 = 1 << 1
	ConfigWindowWidth  uint16 = 1 << 2
	ConfigWindowHeight uint16 = 1 << 3

	GcForeground uint32 = 1 << 2
)

// Extension names as advertised by the host server.
const (
	ExtRandr = "RANDR"
	ExtShm   = "MIT-SHM"
	ExtXkb   = "XKEYBOARD"
)

// RandR output connection states.
const (
	ConnectionConnected    uint8 = 0
	ConnectionDisconnected uint8 = 1
	ConnectionUnknown      uint8 = 2
)

// Visual describes the colour layout of a visual.
type Visual struct {
	ID         Visualid
	Class      uint8
	BitsPerRGB uint8
	RedMask    uint32
	GreenMask  uint32
	BlueMask   uint32
}

// Screen is the part of the connection setup describing one host screen.
type Screen struct {
	Root            Window
	DefaultColormap Colormap
	WidthPx         uint16
	HeightPx        uint16
	WidthMM         uint16
	HeightMM        uint16
	RootDepth       uint8
	RootVisual      Visual
	Depths          []uint8
}

// PixmapFormat describes how pixels of one depth are laid out in images.
type PixmapFormat struct {
	Depth        uint8
	BitsPerPixel uint8
	ScanlinePad  uint8
}

// Setup is the host connection setup relevant to the nested client.
type Setup struct {
	MinKeycode uint8
	MaxKeycode uint8
	// MaxRequestBytes is the largest request the server accepts, in bytes.
	MaxRequestBytes int
	// ImageByteOrder is LSBFirst (0) or MSBFirst (1) for ZPixmap data.
	ImageByteOrder uint8
	PixmapFormats  []PixmapFormat
}

// Image byte orders of the connection setup.
const (
	LSBFirst uint8 = 0
	MSBFirst uint8 = 1
)

// Format returns the pixmap format for depth.
func (s Setup) Format(depth uint8) (PixmapFormat, bool) {
	for _, f := range s.PixmapFormats {
		if f.Depth == depth {
			return f, true
		}
	}
	return PixmapFormat{}, false
}

// Rectangle is a protocol rectangle.
type Rectangle struct {
	X, Y          int16
	Width, Height uint16
}

// RGB is a 16-bit per channel colour.
type RGB struct {
	Red, Green, Blue uint16
}

// Version is an extension version.
type Version struct {
	Major, Minor uint32
}

// AtLeast reports whether v >= major.minor.
func (v Version) AtLeast(major, minor uint32) bool {
	return v.Major > major || (v.Major == major && v.Minor >= minor)
}

// ShmVersion is the MIT-SHM version reply.
type ShmVersion struct {
	Major, Minor  uint16
	SharedPixmaps bool
}

// ModeInfo is a RandR mode.
type ModeInfo struct {
	ID            Mode
	Width, Height uint16
}

// ScreenResources is the RandR resource list of a screen.
type ScreenResources struct {
	Timestamp       Timestamp
	ConfigTimestamp Timestamp
	Crtcs           []Crtc
	Outputs         []Output
	Modes           []ModeInfo
}

// Mode looks up a mode by id.
func (r *ScreenResources) Mode(id Mode) (ModeInfo, bool) {
	for _, m := range r.Modes {
		if m.ID == id {
			return m, true
		}
	}
	return ModeInfo{}, false
}

// OutputInfo describes one RandR output.
type OutputInfo struct {
	Name       string
	Crtc       Crtc
	Crtcs      []Crtc
	Modes      []Mode
	Connection uint8
	MMWidth    uint32
	MMHeight   uint32
}

// CrtcInfo describes one RandR CRTC.
type CrtcInfo struct {
	X, Y          int16
	Width, Height uint16
	Mode          Mode
	Rotation      uint16
	Outputs       []Output
}

// KeyboardMapping is the core keyboard mapping reply.
type KeyboardMapping struct {
	KeysymsPerKeycode uint8
	Keysyms           []uint32
}

// ModifierMapping is the core modifier mapping reply.
type ModifierMapping struct {
	KeycodesPerModifier uint8
	Keycodes            []uint8
}

// XkbControls is the part of the XKB controls the nested keyboard uses.
type XkbControls struct {
	EnabledControls uint32
	PerKeyRepeat    [32]byte
}

// Card32s encodes values as format-32 property data in the connection's byte
// order.
func Card32s(values ...uint32) []byte {
	b := make([]byte, 4*len(values))
	for i, v := range values {
		xgb.Put32(b[4*i:], v)
	}
	return b
}

// ParseCard32s decodes format-32 property data.
func ParseCard32s(b []byte) []uint32 {
	values := make([]uint32, len(b)/4)
	for i := range values {
		values[i] = xgb.Get32(b[4*i:])
	}
	return values
}
