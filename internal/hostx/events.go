package hostx

// Event is a host event. The set is closed: the adapter translates every
// host event into one of the types below, with UnknownEvent as the catch-all.
type Event interface {
	eventCode() uint8
}

// Core event codes.
const (
	KeyPress      = 2
	KeyRelease    = 3
	ButtonPress   = 4
	ButtonRelease = 5
	MotionNotify  = 6
	Expose        = 12
	ClientMessage = 33
)

// ExposeEvent reports a damaged window rectangle.
type ExposeEvent struct {
	Window        Window
	X, Y          uint16
	Width, Height uint16
	Count         uint16
}

// ClientMessageEvent carries a client message, e.g. a WM_PROTOCOLS request.
type ClientMessageEvent struct {
	Window Window
	Type   Atom
	Format uint8
	Data32 [5]uint32
}

// MotionEvent is a pointer motion inside a window.
type MotionEvent struct {
	Window Window
	X, Y   int16
	State  uint16
}

// KeyEvent is a key press or release.
type KeyEvent struct {
	Window  Window
	Keycode uint8
	State   uint16
	Press   bool
}

// ButtonEvent is a pointer button press or release.
type ButtonEvent struct {
	Window Window
	Button uint8
	X, Y   int16
	State  uint16
	Press  bool
}

// UnknownEvent is any event the client does not handle.
type UnknownEvent struct {
	Code uint8
}

func (ExposeEvent) eventCode() uint8        { return Expose }
func (ClientMessageEvent) eventCode() uint8 { return ClientMessage }
func (MotionEvent) eventCode() uint8        { return MotionNotify }

func (e KeyEvent) eventCode() uint8 {
	if e.Press {
		return KeyPress
	}
	return KeyRelease
}

func (e ButtonEvent) eventCode() uint8 {
	if e.Press {
		return ButtonPress
	}
	return ButtonRelease
}

func (e UnknownEvent) eventCode() uint8 { return e.Code }

// Code returns the event code of ev.
func Code(ev Event) uint8 {
	return ev.eventCode()
}
