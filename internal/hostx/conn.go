// Package hostx is the nested client's view of the host X server: a
// connection interface covering the core, RandR, MIT-SHM and XKB requests the
// client issues, the connection error taxonomy, and an xgb-backed
// implementation.
package hostx

// Conn is a connection to the host display targeting one screen.
//
// Requests that return an error are checked: the error is the server's
// reply to that request. The others are sent unchecked and any protocol error
// they cause is delivered asynchronously through PollEvent.
type Conn interface {
	Connection
	Core
	Randr
	Shm
	Keyboard
}

// Connection covers the transport itself.
type Connection interface {
	// ScreenNumber is the host screen this connection targets.
	ScreenNumber() int
	Screen() Screen
	Setup() Setup
	NewID() (uint32, error)
	HasExtension(name string) bool

	// PollEvent returns the next queued event without blocking. It returns
	// (nil, nil) when the queue is empty and a *ProtocolError for an
	// asynchronous request failure.
	PollEvent() (Event, error)
	// Ready is signalled whenever events arrive or the connection is lost.
	Ready() <-chan struct{}
	// Err reports a connection-level failure, nil while healthy.
	Err() error
	// Flush sends buffered requests.
	Flush() error
	// Sync performs a round trip so every earlier request has been processed.
	Sync() error
	Close()
}

// Core is the subset of the core protocol used by the client.
type Core interface {
	CreateWindow(wid, parent Window, x, y int16, width, height uint16, visual Visualid, valueMask uint32, values []uint32)
	DestroyWindow(w Window)
	MapWindow(w Window)
	ConfigureWindow(w Window, valueMask uint16, values []uint32)
	ChangeWindowAttributes(w Window, valueMask uint32, values []uint32)
	ChangeProperty(w Window, property, typ Atom, format uint8, data []byte)
	InternAtom(name string, onlyIfExists bool) (Atom, error)

	CreateGC(gc Gcontext, drawable uint32, valueMask uint32, values []uint32)
	ChangeGC(gc Gcontext, valueMask uint32, values []uint32)
	FreeGC(gc Gcontext)
	CreatePixmap(depth uint8, pid Pixmap, drawable uint32, width, height uint16)
	FreePixmap(pid Pixmap)
	PolyFillRectangle(drawable uint32, gc Gcontext, rects []Rectangle)
	CreateCursor(cid Cursor, source, mask Pixmap, fore, back RGB, x, y uint16)
	FreeCursor(cid Cursor)

	LookupColor(cmap Colormap, name string) (RGB, error)
	AllocColor(cmap Colormap, c RGB) (uint32, error)

	// PutImage sends ZPixmap data. It fails without sending when the request
	// would exceed the server's maximum request length.
	PutImage(drawable uint32, gc Gcontext, width, height uint16, dstX, dstY int16, depth uint8, data []byte) error
	GetImage(drawable uint32, x, y int16, width, height uint16) ([]byte, error)

	GrabServer()
	UngrabServer()
}

// Randr is the subset of RandR 1.2 used to find and enable outputs.
type Randr interface {
	RandrQueryVersion(major, minor uint32) (Version, error)
	RandrScreenResources(root Window) (*ScreenResources, error)
	RandrOutputInfo(output Output, configTimestamp Timestamp) (*OutputInfo, error)
	RandrCrtcInfo(crtc Crtc, configTimestamp Timestamp) (*CrtcInfo, error)
	RandrSetScreenSize(root Window, width, height uint16, mmWidth, mmHeight uint32) error
	RandrSetCrtcConfig(crtc Crtc, ts, configTimestamp Timestamp, x, y int16, mode Mode, outputs []Output) error
}

// Shm is the MIT-SHM extension.
type Shm interface {
	ShmQueryVersion() (ShmVersion, error)
	ShmAttach(seg Seg, shmid uint32, readOnly bool) error
	ShmDetach(seg Seg)
	ShmPutImage(drawable uint32, gc Gcontext, totalWidth, totalHeight, srcX, srcY, srcWidth, srcHeight uint16, dstX, dstY int16, depth uint8, seg Seg, offset uint32)
}

// Keyboard covers the core keyboard mapping and the XKB controls.
type Keyboard interface {
	GetKeyboardMapping(first uint8, count uint8) (*KeyboardMapping, error)
	GetModifierMapping() (*ModifierMapping, error)
	XkbGetControls() (*XkbControls, error)
}
