// Package input provides nested.Device implementations: a kernel virtual
// mouse and keyboard fed from the host window, and a logging sink.
package input

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ThomasT75/uinput"
	"github.com/charmbracelet/log"
)

// ErrDeviceClosed is returned when operating on a closed device.
var ErrDeviceClosed = errors.New("input device is closed")

// DefaultPath is the uinput control node.
const DefaultPath = "/dev/uinput"

// evdevOffset is the distance between X keycodes and Linux evdev codes.
const evdevOffset = 8

// Mouse is the part of uinput.Mouse the device drives.
type Mouse interface {
	Move(x, y int32) error
	LeftPress() error
	LeftRelease() error
	RightPress() error
	RightRelease() error
	MiddlePress() error
	MiddleRelease() error
	Wheel(horizontal bool, delta int32) error
	Close() error
}

// Keyboard is the part of uinput.Keyboard the device drives.
type Keyboard interface {
	KeyDown(key int) error
	KeyUp(key int) error
	Close() error
}

// UinputDevice replays nested input on virtual kernel devices.
type UinputDevice struct {
	mouse    Mouse
	keyboard Keyboard
	log      *log.Logger

	mu     sync.Mutex
	closed bool
	// Track the last pointer position; uinput mice only move relatively.
	lastX, lastY int
	havePos      bool
}

// NewUinputDevice creates a virtual mouse and keyboard on path.
func NewUinputDevice(path string, l *log.Logger) (*UinputDevice, error) {
	if path == "" {
		path = DefaultPath
	}
	mouse, err := uinput.CreateMouse(path, []byte("xnested virtual mouse"))
	if err != nil {
		return nil, fmt.Errorf("failed to create virtual mouse: %w", err)
	}
	keyboard, err := uinput.CreateKeyboard(path, []byte("xnested virtual keyboard"))
	if err != nil {
		mouse.Close()
		return nil, fmt.Errorf("failed to create virtual keyboard: %w", err)
	}
	return NewDevice(mouse, keyboard, l), nil
}

// NewDevice wraps existing mouse and keyboard devices.
func NewDevice(mouse Mouse, keyboard Keyboard, l *log.Logger) *UinputDevice {
	return &UinputDevice{mouse: mouse, keyboard: keyboard, log: l}
}

// PostMotion moves the pointer to the window position x, y. The first motion
// only records the position.
func (d *UinputDevice) PostMotion(x, y int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}

	dx, dy := x-d.lastX, y-d.lastY
	first := !d.havePos
	d.lastX, d.lastY, d.havePos = x, y, true
	if first || (dx == 0 && dy == 0) {
		return
	}
	d.report("motion", d.mouse.Move(int32(dx), int32(dy)))
}

// PostKey presses or releases the key with X keycode keycode.
func (d *UinputDevice) PostKey(keycode uint8, down bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	if keycode < evdevOffset {
		d.log.Debug("Ignoring key without evdev code", "keycode", keycode)
		return
	}

	key := int(keycode) - evdevOffset
	if down {
		d.report("key press", d.keyboard.KeyDown(key))
	} else {
		d.report("key release", d.keyboard.KeyUp(key))
	}
}

// PostButton presses or releases core pointer button button. Buttons 4 to 7
// are wheel steps and only act on press.
func (d *UinputDevice) PostButton(button uint8, down bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}

	var err error
	switch button {
	case 1:
		err = press(down, d.mouse.LeftPress, d.mouse.LeftRelease)
	case 2:
		err = press(down, d.mouse.MiddlePress, d.mouse.MiddleRelease)
	case 3:
		err = press(down, d.mouse.RightPress, d.mouse.RightRelease)
	case 4, 5, 6, 7:
		if !down {
			return
		}
		horizontal, delta := wheelStep(button)
		err = d.mouse.Wheel(horizontal, delta)
	default:
		d.log.Debug("Ignoring unsupported button", "button", button)
		return
	}
	d.report("button", err)
}

func press(down bool, pressFn, releaseFn func() error) error {
	if down {
		return pressFn()
	}
	return releaseFn()
}

// wheelStep maps core buttons 4..7 (up, down, left, right) to a wheel step.
func wheelStep(button uint8) (horizontal bool, delta int32) {
	switch button {
	case 4:
		return false, 1
	case 5:
		return false, -1
	case 6:
		return true, -1
	default:
		return true, 1
	}
}

func (d *UinputDevice) report(what string, err error) {
	if err != nil {
		d.log.Warn("Failed to inject input", "event", what, "err", err)
	}
}

// Close destroys the virtual devices.
func (d *UinputDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true

	var errs []error
	if d.mouse != nil {
		errs = append(errs, d.mouse.Close())
	}
	if d.keyboard != nil {
		errs = append(errs, d.keyboard.Close())
	}
	return errors.Join(errs...)
}
