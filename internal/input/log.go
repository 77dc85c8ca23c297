package input

import "github.com/charmbracelet/log"

// LogDevice logs every event it receives at debug level.
type LogDevice struct {
	Log *log.Logger
}

func (d LogDevice) PostMotion(x, y int) {
	d.Log.Debug("Pointer motion", "x", x, "y", y)
}

func (d LogDevice) PostKey(keycode uint8, down bool) {
	d.Log.Debug("Key", "keycode", keycode, "down", down)
}

func (d LogDevice) PostButton(button uint8, down bool) {
	d.Log.Debug("Button", "button", button, "down", down)
}
