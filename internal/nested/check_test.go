package nested

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/xnested/internal/display"
	"github.com/bnema/xnested/internal/hostx"
	"github.com/bnema/xnested/internal/hostx/hostxtest"
)

// dualHead adds HDMI-1 at 0,0 and a disabled DP-1 to the fake host.
func dualHead(s *hostxtest.Server) {
	full := s.AddMode(1920, 1080)
	sxga := s.AddMode(1280, 1024)
	c1, c2 := s.AddCrtc(), s.AddCrtc()
	a := s.AddOutput("HDMI-1", []hostx.Crtc{c1, c2}, []hostx.Mode{full})
	s.Activate(a, c1, 0, 0, full)
	s.AddOutput("DP-1", []hostx.Crtc{c1, c2}, []hostx.Mode{sxga})
}

func TestCheckDisplayWholeScreen(t *testing.T) {
	h := newHarness()

	out, err := CheckDisplay(CheckParams{DisplayName: ":0"}, h.options(h.srv)...)
	require.NoError(t, err)
	assert.Equal(t, display.Output{Width: 1920, Height: 1080, Enabled: true, Connected: true}, out)
	assert.True(t, h.srv.Closed, "the check connection is closed")
}

func TestCheckDisplayOutput(t *testing.T) {
	h := newHarness()
	dualHead(h.srv)

	out, err := CheckDisplay(CheckParams{DisplayName: ":0", Output: "HDMI-1"}, h.options(h.srv)...)
	require.NoError(t, err)
	assert.Equal(t, "HDMI-1", out.Name)
	assert.Equal(t, uint32(1920), out.Width)
	assert.True(t, h.srv.Closed)
}

func TestCheckDisplayEnablesOutput(t *testing.T) {
	h := newHarness()
	dualHead(h.srv)

	p := CheckParams{
		DisplayName: ":0",
		Output:      "DP-1",
		Enable:      true,
		RelativeTo:  "HDMI-1",
		Relation:    display.RightOf,
	}
	out, err := CheckDisplay(p, h.options(h.srv)...)
	require.NoError(t, err)
	assert.Equal(t, int32(1920), out.X)
	assert.Equal(t, uint32(1280), out.Width)
	assert.Equal(t, uint16(3200), h.srv.Screen().WidthPx)
	assert.True(t, h.srv.Closed)
}

func TestCheckDisplayDisabledOutput(t *testing.T) {
	h := newHarness()
	dualHead(h.srv)

	_, err := CheckDisplay(CheckParams{DisplayName: ":0", Output: "DP-1"}, h.options(h.srv)...)
	assert.ErrorIs(t, err, display.ErrOutputDisabled)
	assert.True(t, h.srv.Closed, "the connection is closed on failure too")
}

func TestCheckDisplayDialFailure(t *testing.T) {
	h := newHarness()
	dialErr := &hostx.ConnectionError{Kind: hostx.KindConnect, Display: ":9", Err: errors.New("connection refused")}
	opts := append(h.options(h.srv), WithDial(func(string, string) (hostx.Conn, error) { return nil, dialErr }))

	_, err := CheckDisplay(CheckParams{DisplayName: ":9"}, opts...)
	assert.ErrorIs(t, err, hostx.ErrConnect)
	assert.False(t, h.srv.Closed)
}
