package nested

import (
	"os"

	"github.com/charmbracelet/log"

	"github.com/bnema/xnested/internal/hostx"
	"github.com/bnema/xnested/internal/logger"
	"github.com/bnema/xnested/internal/shmem"
)

// Params describes the nested screen to create on the host display.
type Params struct {
	// ScreenIndex is the nested screen number, used in the title and logs.
	ScreenIndex int
	// DisplayName is the host display; empty means $DISPLAY.
	DisplayName string
	XauthFile   string
	// NestedDisplay is the display number of the nested server, e.g. "1".
	NestedDisplay string

	Fullscreen    bool
	Width, Height uint16
	X, Y          int16
	Depth         uint8
	BitsPerPixel  uint8

	// Input selects key, button and motion events on the window.
	Input bool
	// DisableShm skips MIT-SHM and always uses private image buffers.
	DisableShm bool
}

// DialFunc opens the host connection.
type DialFunc func(displayName, xauthFile string) (hostx.Conn, error)

type options struct {
	log   *log.Logger
	dial  DialFunc
	alloc shmem.Allocator
	exit  func(code int)
}

// Option customises CreateScreen and CheckDisplay.
type Option func(*options)

// WithLogger sets the diagnostic sink. The default is the global logger
// keyed by screen index.
func WithLogger(l *log.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithDial replaces hostx.Connect.
func WithDial(d DialFunc) Option {
	return func(o *options) { o.dial = d }
}

// WithAllocator sets the shared memory allocator.
func WithAllocator(a shmem.Allocator) Option {
	return func(o *options) { o.alloc = a }
}

// WithExit replaces os.Exit for close requests and connection loss.
func WithExit(exit func(code int)) Option {
	return func(o *options) { o.exit = exit }
}

func dialHost(displayName, xauthFile string) (hostx.Conn, error) {
	c, err := hostx.Connect(displayName, xauthFile)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func buildOptions(screenIndex int, opts []Option) options {
	o := options{
		dial:  dialHost,
		alloc: shmem.SysV{},
		exit:  os.Exit,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logger.ForScreen(screenIndex)
	}
	return o
}
