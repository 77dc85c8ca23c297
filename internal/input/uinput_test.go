package input

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/xnested/internal/logger"
)

// fakeMouse and fakeKeyboard record calls as strings.
type fakeMouse struct {
	calls *[]string
	err   error
}

func (m fakeMouse) rec(s string) error {
	*m.calls = append(*m.calls, s)
	return m.err
}

func (m fakeMouse) Move(x, y int32) error { return m.rec(fmt.Sprintf("move %d,%d", x, y)) }
func (m fakeMouse) LeftPress() error      { return m.rec("left down") }
func (m fakeMouse) LeftRelease() error    { return m.rec("left up") }
func (m fakeMouse) RightPress() error     { return m.rec("right down") }
func (m fakeMouse) RightRelease() error   { return m.rec("right up") }
func (m fakeMouse) MiddlePress() error    { return m.rec("middle down") }
func (m fakeMouse) MiddleRelease() error  { return m.rec("middle up") }
func (m fakeMouse) Wheel(horizontal bool, delta int32) error {
	return m.rec(fmt.Sprintf("wheel %v %d", horizontal, delta))
}
func (m fakeMouse) Close() error { return m.rec("mouse close") }

type fakeKeyboard struct {
	calls *[]string
}

func (k fakeKeyboard) KeyDown(key int) error {
	*k.calls = append(*k.calls, fmt.Sprintf("key %d down", key))
	return nil
}

func (k fakeKeyboard) KeyUp(key int) error {
	*k.calls = append(*k.calls, fmt.Sprintf("key %d up", key))
	return nil
}

func (k fakeKeyboard) Close() error {
	*k.calls = append(*k.calls, "keyboard close")
	return nil
}

func newFakeDevice() (*UinputDevice, *[]string) {
	var calls []string
	return NewDevice(fakeMouse{calls: &calls}, fakeKeyboard{calls: &calls}, logger.Discard()), &calls
}

func TestPostMotionIsRelative(t *testing.T) {
	d, calls := newFakeDevice()

	d.PostMotion(100, 100)
	d.PostMotion(110, 95)
	d.PostMotion(110, 95)
	d.PostMotion(0, 0)

	assert.Equal(t, []string{"move 10,-5", "move -110,-95"}, *calls)
}

func TestPostKeyTranslatesKeycodes(t *testing.T) {
	d, calls := newFakeDevice()

	d.PostKey(38, true) // KEY_A
	d.PostKey(38, false)
	d.PostKey(9, true) // KEY_ESC
	d.PostKey(3, true)

	assert.Equal(t, []string{"key 30 down", "key 30 up", "key 1 down"}, *calls)
}

func TestPostButton(t *testing.T) {
	tests := []struct {
		button uint8
		down   bool
		want   []string
	}{
		{1, true, []string{"left down"}},
		{1, false, []string{"left up"}},
		{2, true, []string{"middle down"}},
		{3, false, []string{"right up"}},
		{4, true, []string{"wheel false 1"}},
		{5, true, []string{"wheel false -1"}},
		{6, true, []string{"wheel true -1"}},
		{7, true, []string{"wheel true 1"}},
		{4, false, nil},
		{8, true, nil},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("button %d down=%v", tt.button, tt.down), func(t *testing.T) {
			d, calls := newFakeDevice()
			d.PostButton(tt.button, tt.down)
			assert.Equal(t, tt.want, *calls)
		})
	}
}

func TestInjectionErrorsAreLogged(t *testing.T) {
	var calls []string
	var buf bytes.Buffer
	d := NewDevice(fakeMouse{calls: &calls, err: errors.New("EIO")}, fakeKeyboard{calls: &calls}, log.New(&buf))

	d.PostButton(1, true)
	assert.Contains(t, buf.String(), "Failed to inject input")
	assert.Contains(t, buf.String(), "EIO")
}

func TestCloseIsIdempotent(t *testing.T) {
	d, calls := newFakeDevice()

	require.NoError(t, d.Close())
	require.NoError(t, d.Close())
	assert.Equal(t, []string{"mouse close", "keyboard close"}, *calls)

	d.PostKey(38, true)
	d.PostMotion(1, 1)
	d.PostButton(1, true)
	assert.Len(t, *calls, 2, "a closed device drops input")
}

func TestLogDevice(t *testing.T) {
	var buf bytes.Buffer
	l := log.New(&buf)
	l.SetLevel(log.DebugLevel)
	d := LogDevice{Log: l}

	d.PostMotion(3, 4)
	d.PostKey(38, true)
	d.PostButton(2, false)

	out := buf.String()
	assert.Contains(t, out, "Pointer motion")
	assert.Contains(t, out, "keycode=38")
	assert.Contains(t, out, "button=2")
}

// TestUinputDeviceIntegration creates real virtual devices if permissions
// allow.
func TestUinputDeviceIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	if _, err := os.Stat(DefaultPath); os.IsNotExist(err) {
		t.Skip("/dev/uinput does not exist - uinput module not loaded")
	}

	d, err := NewUinputDevice("", logger.Discard())
	if err != nil {
		t.Skipf("Cannot create uinput device: %v", err)
	}
	defer func() { _ = d.Close() }()

	d.PostMotion(10, 10)
	d.PostMotion(20, 20)
	d.PostButton(4, true)
}
