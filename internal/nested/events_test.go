package nested

import (
	"bytes"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/xnested/internal/hostx"
)

func closeRequest(c *Client) hostx.ClientMessageEvent {
	return hostx.ClientMessageEvent{
		Window: c.Window(),
		Type:   c.wmProtocols,
		Format: 32,
		Data32: [5]uint32{uint32(c.wmDeleteWindow)},
	}
}

func TestCheckEventsDeliveryOrder(t *testing.T) {
	h := newHarness()
	var got []string
	conn := repaintRecorder{Server: h.srv, log: &got}

	c, err := CreateScreen(testParams(), h.options(conn)...)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	c.SetDevice(recordingDevice{log: &got})

	h.srv.Push(
		hostx.ExposeEvent{Window: c.Window(), X: 0, Y: 0, Width: 8, Height: 8},
		hostx.KeyEvent{Window: c.Window(), Keycode: 38, Press: true},
		hostx.ExposeEvent{Window: c.Window(), X: 8, Y: 8, Width: 8, Height: 8},
	)
	c.CheckEvents()

	want := []string{"expose", "key:38:down", "expose"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("dispatch order mismatch (-want +got):\n%s", diff)
	}
	assert.Zero(t, h.srv.Pending())
}

func TestCheckEventsForwardsInput(t *testing.T) {
	h := newHarness()
	c := h.create(t, testParams())
	var got []string
	c.SetDevice(recordingDevice{log: &got})

	h.srv.Push(
		hostx.MotionEvent{Window: c.Window(), X: 3, Y: 4},
		hostx.ButtonEvent{Window: c.Window(), Button: 1, Press: true},
		hostx.ButtonEvent{Window: c.Window(), Button: 1},
		hostx.KeyEvent{Window: c.Window(), Keycode: 50},
		hostx.UnknownEvent{Code: 22},
	)
	c.CheckEvents()

	assert.Equal(t, []string{"motion", "button:1:down", "button:1:up", "key:50:up"}, got)
}

func TestCheckEventsWithoutDevice(t *testing.T) {
	h := newHarness()
	var buf bytes.Buffer
	l := log.New(&buf)
	l.SetLevel(log.DebugLevel)

	opts := append(h.options(h.srv), WithLogger(l))
	c, err := CreateScreen(testParams(), opts...)
	require.NoError(t, err)
	t.Cleanup(c.Close)

	h.srv.Push(hostx.KeyEvent{Window: c.Window(), Keycode: 38, Press: true})
	c.CheckEvents()

	assert.Contains(t, buf.String(), "Input device is not yet initialized")
	assert.Zero(t, h.srv.Pending())
	assert.False(t, c.Closed())
}

func TestCheckEventsCloseRequest(t *testing.T) {
	h := newHarness()
	c := h.create(t, testParams())

	req := closeRequest(c)
	h.srv.Push(req, req, req)
	c.CheckEvents()

	assert.Equal(t, []int{0}, h.exits)
	assert.True(t, c.Closed())
	assert.Equal(t, 1, h.count("Close"))
	assert.Equal(t, 2, h.srv.Pending(), "events after the close request are left queued")
	assert.Zero(t, h.alloc.Live())

	c.CheckEvents()
	assert.Equal(t, []int{0}, h.exits, "a closed client ignores further calls")
}

func TestCheckEventsIgnoresOtherClientMessages(t *testing.T) {
	h := newHarness()
	c := h.create(t, testParams())

	other := closeRequest(c)
	other.Data32[0] = uint32(hostx.AtomWmName)
	wrongType := closeRequest(c)
	wrongType.Type = hostx.AtomString
	wrongFormat := closeRequest(c)
	wrongFormat.Format = 8

	h.srv.Push(other, wrongType, wrongFormat)
	c.CheckEvents()

	assert.Empty(t, h.exits)
	assert.False(t, c.Closed())
	assert.Zero(t, h.srv.Pending())
}

func TestCheckEventsConnectionLost(t *testing.T) {
	h := newHarness()
	var buf bytes.Buffer
	opts := append(h.options(h.srv), WithLogger(log.New(&buf)))
	c, err := CreateScreen(testParams(), opts...)
	require.NoError(t, err)
	require.Equal(t, 1, h.alloc.Live())

	h.srv.Lose(hostx.KindLost)
	c.CheckEvents()

	assert.Equal(t, []int{1}, h.exits)
	assert.True(t, c.Closed())
	assert.True(t, h.srv.Closed)
	assert.Zero(t, h.alloc.Live(), "the local segment is released")
	assert.Equal(t, 1, h.count("ShmDetach"), "only the test segment was detached")
	assert.Zero(t, h.count("DestroyWindow"))
	assert.Contains(t, buf.String(), "connection to host X server lost")
}

func TestCheckEventsProtocolErrorContinues(t *testing.T) {
	h := newHarness()
	c := h.create(t, testParams())
	var got []string
	c.SetDevice(recordingDevice{log: &got})

	h.srv.PushError(&hostx.ProtocolError{Sequence: 7, BadID: 0x400001, Message: "BadWindow"})
	h.srv.Push(hostx.KeyEvent{Window: c.Window(), Keycode: 24, Press: true})
	c.CheckEvents()

	assert.Equal(t, []string{"key:24:down"}, got)
	assert.Empty(t, h.exits)
	assert.False(t, c.Closed())
}

func TestCheckEventsFlushes(t *testing.T) {
	h := newHarness()
	c := h.create(t, testParams())

	before := h.srv.Flushes
	c.CheckEvents()
	assert.Equal(t, before+1, h.srv.Flushes)
}

func TestReadySignalled(t *testing.T) {
	h := newHarness()
	c := h.create(t, testParams())

	h.srv.Push(hostx.ExposeEvent{Window: c.Window(), Width: 1, Height: 1})
	select {
	case <-c.Ready():
	default:
		t.Fatal("Ready was not signalled after an event arrived")
	}
	c.CheckEvents()
	assert.Zero(t, h.srv.Pending())
}
