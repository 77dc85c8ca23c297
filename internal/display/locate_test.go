package display

import (
	"bytes"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/xnested/internal/hostx"
	"github.com/bnema/xnested/internal/hostx/hostxtest"
	"github.com/bnema/xnested/internal/logger"
)

type fixture struct {
	srv        *hostxtest.Server
	anchor     *hostxtest.OutputState
	target     *hostxtest.OutputState
	anchorCrtc hostx.Crtc
	freeCrtc   hostx.Crtc
}

// newFixture builds a host with HDMI-1 active at 0,0 in 1920x1080 and DP-1
// connected but off, preferring 1280x1024.
func newFixture() *fixture {
	s := hostxtest.NewServer()
	full := s.AddMode(1920, 1080)
	sxga := s.AddMode(1280, 1024)
	c1 := s.AddCrtc()
	c2 := s.AddCrtc()
	a := s.AddOutput("HDMI-1", []hostx.Crtc{c1, c2}, []hostx.Mode{full})
	s.Activate(a, c1, 0, 0, full)
	b := s.AddOutput("DP-1", []hostx.Crtc{c1, c2}, []hostx.Mode{sxga, full})
	return &fixture{srv: s, anchor: a, target: b, anchorCrtc: c1, freeCrtc: c2}
}

func TestLocateActiveOutput(t *testing.T) {
	f := newFixture()
	f.srv.Activate(f.target, f.freeCrtc, 1920, 56, f.target.Modes[0])

	out, err := Locate(f.srv, logger.Discard(), LocateParams{Name: "DP-1"})
	require.NoError(t, err)
	assert.Equal(t, Output{Name: "DP-1", X: 1920, Y: 56, Width: 1280, Height: 1024, Enabled: true, Connected: true}, out)
	assert.Empty(t, f.srv.ScreenSizes, "an active output is never reconfigured")
}

func TestLocateEnablePlacement(t *testing.T) {
	tests := []struct {
		name       string
		relation   Relation
		wantX      int32
		wantY      int32
		wantScreen hostxtest.ScreenSize
		warns      bool
	}{
		{
			name:       "right of",
			relation:   RightOf,
			wantX:      1920,
			wantY:      0,
			wantScreen: hostxtest.ScreenSize{Width: 3200, Height: 1080, MMWidth: 846, MMHeight: 286},
		},
		{
			name:       "below",
			relation:   Below,
			wantX:      0,
			wantY:      1080,
			wantScreen: hostxtest.ScreenSize{Width: 1920, Height: 2104, MMWidth: 508, MMHeight: 557},
		},
		{
			name:       "left of falls back to right of",
			relation:   LeftOf,
			wantX:      1920,
			wantY:      0,
			wantScreen: hostxtest.ScreenSize{Width: 3200, Height: 1080, MMWidth: 846, MMHeight: 286},
			warns:      true,
		},
		{
			name:       "above falls back to below",
			relation:   Above,
			wantX:      0,
			wantY:      1080,
			wantScreen: hostxtest.ScreenSize{Width: 1920, Height: 2104, MMWidth: 508, MMHeight: 557},
			warns:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			var buf bytes.Buffer
			l := log.New(&buf)

			out, err := Locate(f.srv, l, LocateParams{
				Name:       "DP-1",
				Enable:     true,
				RelativeTo: "HDMI-1",
				Relation:   tt.relation,
			})
			require.NoError(t, err)

			assert.Equal(t, tt.wantX, out.X)
			assert.Equal(t, tt.wantY, out.Y)
			assert.Equal(t, uint32(1280), out.Width)
			assert.Equal(t, uint32(1024), out.Height)
			assert.True(t, out.Enabled)

			require.Len(t, f.srv.ScreenSizes, 1)
			assert.Equal(t, tt.wantScreen, f.srv.ScreenSizes[0])

			// The new output abuts the anchor and the screen is their bounding box.
			anchor := Output{Width: 1920, Height: 1080}
			_, _, ax2, ay2 := anchor.Bounds()
			_, _, ox2, oy2 := out.Bounds()
			assert.Equal(t, int32(tt.wantScreen.Width), max(ax2, ox2))
			assert.Equal(t, int32(tt.wantScreen.Height), max(ay2, oy2))

			crtc := f.srv.Crtc(f.freeCrtc)
			assert.Equal(t, int16(tt.wantX), crtc.X)
			assert.Equal(t, int16(tt.wantY), crtc.Y)
			assert.Equal(t, []hostx.Output{f.target.ID}, crtc.Outputs)
			assert.Equal(t, f.freeCrtc, f.target.Crtc)
			assert.Zero(t, f.srv.GrabDepth)

			if tt.warns {
				assert.Contains(t, buf.String(), "not supported")
			} else {
				assert.NotContains(t, buf.String(), "not supported")
			}
		})
	}
}

func TestLocateFallbackMatchesSupportedRelation(t *testing.T) {
	pairs := map[Relation]Relation{LeftOf: RightOf, Above: Below}
	for fallback, supported := range pairs {
		t.Run(fallback.String(), func(t *testing.T) {
			f1, f2 := newFixture(), newFixture()
			p := LocateParams{Name: "DP-1", Enable: true, RelativeTo: "HDMI-1"}

			p.Relation = fallback
			got, err := Locate(f1.srv, logger.Discard(), p)
			require.NoError(t, err)

			p.Relation = supported
			want, err := Locate(f2.srv, logger.Discard(), p)
			require.NoError(t, err)

			assert.Equal(t, want, got)
			assert.Equal(t, f2.srv.ScreenSizes, f1.srv.ScreenSizes)
		})
	}
}

func TestLocateFailures(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(f *fixture)
		params  LocateParams
		wantErr error
	}{
		{
			name:    "unknown output",
			params:  LocateParams{Name: "VGA-9"},
			wantErr: ErrOutputNotFound,
		},
		{
			name:    "disabled without enable",
			params:  LocateParams{Name: "DP-1"},
			wantErr: ErrOutputDisabled,
		},
		{
			name:    "enable without anchor",
			params:  LocateParams{Name: "DP-1", Enable: true},
			wantErr: ErrNoAnchor,
		},
		{
			name:    "unknown anchor",
			params:  LocateParams{Name: "DP-1", Enable: true, RelativeTo: "eDP-1"},
			wantErr: ErrOutputNotFound,
		},
		{
			name: "disabled anchor",
			mutate: func(f *fixture) {
				f.srv.AddOutput("HDMI-2", nil, nil)
			},
			params:  LocateParams{Name: "DP-1", Enable: true, RelativeTo: "HDMI-2"},
			wantErr: ErrOutputDisabled,
		},
		{
			name:    "no modes",
			mutate:  func(f *fixture) { f.target.Modes = nil },
			params:  LocateParams{Name: "DP-1", Enable: true, RelativeTo: "HDMI-1"},
			wantErr: ErrNoModes,
		},
		{
			name:    "no free crtc",
			mutate:  func(f *fixture) { f.target.Crtcs = []hostx.Crtc{f.anchorCrtc} },
			params:  LocateParams{Name: "DP-1", Enable: true, RelativeTo: "HDMI-1"},
			wantErr: ErrNoCrtc,
		},
		{
			name:    "screen size rejected",
			mutate:  func(f *fixture) { f.srv.SetScreenErr = hostxtest.ErrBadAccess },
			params:  LocateParams{Name: "DP-1", Enable: true, RelativeTo: "HDMI-1"},
			wantErr: ErrReconfigure,
		},
		{
			name:    "crtc config rejected",
			mutate:  func(f *fixture) { f.srv.SetCrtcErr = hostxtest.ErrBadAccess },
			params:  LocateParams{Name: "DP-1", Enable: true, RelativeTo: "HDMI-1"},
			wantErr: ErrReconfigure,
		},
		{
			name:    "randr missing",
			mutate:  func(f *fixture) { delete(f.srv.Extensions, hostx.ExtRandr) },
			params:  LocateParams{Name: "HDMI-1"},
			wantErr: ErrRandrUnavailable,
		},
		{
			name:    "randr too old",
			mutate:  func(f *fixture) { f.srv.RandrVersion = hostx.Version{Major: 1, Minor: 1} },
			params:  LocateParams{Name: "HDMI-1"},
			wantErr: ErrRandrVersion,
		},
		{
			name:    "randr query fails",
			mutate:  func(f *fixture) { f.srv.RandrVersionErr = hostxtest.ErrBadAccess },
			params:  LocateParams{Name: "HDMI-1"},
			wantErr: ErrRandrUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			if tt.mutate != nil {
				tt.mutate(f)
			}
			_, err := Locate(f.srv, logger.Discard(), tt.params)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Zero(t, f.srv.GrabDepth)
			assert.Nil(t, f.srv.Crtc(f.freeCrtc).Outputs, "nothing may be enabled on failure")
		})
	}
}

func TestLocateErrorNamesOutput(t *testing.T) {
	f := newFixture()
	_, err := Locate(f.srv, logger.Discard(), LocateParams{Name: "VGA-9"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "VGA-9")

	_, err = Locate(f.srv, logger.Discard(), LocateParams{Name: "DP-1", Enable: true, RelativeTo: "eDP-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "eDP-1")
}

func TestLocateFirstMatchWins(t *testing.T) {
	f := newFixture()
	dup := f.srv.AddOutput("HDMI-1", nil, nil)
	require.NotNil(t, dup)

	out, err := Locate(f.srv, logger.Discard(), LocateParams{Name: "HDMI-1"})
	require.NoError(t, err)
	assert.True(t, out.Enabled)
	assert.Equal(t, uint32(1920), out.Width)
}

func TestList(t *testing.T) {
	f := newFixture()
	f.target.Connection = hostx.ConnectionDisconnected

	outputs, err := List(f.srv)
	require.NoError(t, err)
	require.Len(t, outputs, 2)

	assert.Equal(t, Output{Name: "HDMI-1", Width: 1920, Height: 1080, Enabled: true, Connected: true}, outputs[0])
	assert.Equal(t, Output{Name: "DP-1"}, outputs[1])
}

func TestListWithoutRandr(t *testing.T) {
	f := newFixture()
	delete(f.srv.Extensions, hostx.ExtRandr)
	_, err := List(f.srv)
	assert.ErrorIs(t, err, ErrRandrUnavailable)
}

func TestPhysicalSize(t *testing.T) {
	s := hostx.Screen{WidthPx: 1920, HeightPx: 1080, WidthMM: 508, HeightMM: 286}
	w, h := physicalSize(s, 3840, 1080)
	assert.Equal(t, uint32(1016), w)
	assert.Equal(t, uint32(286), h)

	w, h = physicalSize(hostx.Screen{}, 960, 96)
	assert.Equal(t, uint32(254), w)
	assert.Equal(t, uint32(25), h)
}
