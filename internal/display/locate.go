package display

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/bnema/xnested/internal/hostx"
)

// Failures reported by List and Locate. They are wrapped with the output
// name involved.
var (
	ErrRandrUnavailable = errors.New("failed to get RandR version supported by host X server")
	ErrRandrVersion     = errors.New("host X server doesn't support RandR 1.2, needed for output selection")
	ErrOutputNotFound   = errors.New("output not available in host X server")
	ErrOutputDisabled   = errors.New("output is currently disabled (or not connected)")
	ErrNoAnchor         = errors.New("cannot enable a disabled output without an output to place it next to")
	ErrNoModes          = errors.New("output advertises no modes")
	ErrNoCrtc           = errors.New("no free CRTC can drive output")
	ErrReconfigure      = errors.New("failed to reconfigure host screen")
)

// Conn is the part of the host connection the locator needs.
type Conn interface {
	Screen() hostx.Screen
	HasExtension(name string) bool
	GrabServer()
	UngrabServer()
	hostx.Randr
}

// LocateParams selects an output and, when Enable is set, where to place it
// if it is not active.
type LocateParams struct {
	Name       string
	Enable     bool
	RelativeTo string
	Relation   Relation
}

type entry struct {
	id   hostx.Output
	info *hostx.OutputInfo
	crtc *hostx.CrtcInfo
}

func (e *entry) output() Output {
	o := Output{
		Name:      e.info.Name,
		Connected: e.info.Connection == hostx.ConnectionConnected,
	}
	if e.crtc != nil {
		o.Enabled = true
		o.X, o.Y = int32(e.crtc.X), int32(e.crtc.Y)
		o.Width, o.Height = uint32(e.crtc.Width), uint32(e.crtc.Height)
	}
	return o
}

type topology struct {
	res     *hostx.ScreenResources
	entries []*entry
}

// find returns the first output named name.
func (t *topology) find(name string) *entry {
	for _, e := range t.entries {
		if e.info.Name == name {
			return e
		}
	}
	return nil
}

func checkRandr(conn Conn) error {
	if !conn.HasExtension(hostx.ExtRandr) {
		return fmt.Errorf("%w: %s extension missing", ErrRandrUnavailable, hostx.ExtRandr)
	}
	v, err := conn.RandrQueryVersion(1, 2)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRandrUnavailable, err)
	}
	if !v.AtLeast(1, 2) {
		return fmt.Errorf("%w (host has %d.%d)", ErrRandrVersion, v.Major, v.Minor)
	}
	return nil
}

func scan(conn Conn) (*topology, error) {
	res, err := conn.RandrScreenResources(conn.Screen().Root)
	if err != nil {
		return nil, err
	}
	t := &topology{res: res}
	for _, id := range res.Outputs {
		info, err := conn.RandrOutputInfo(id, res.ConfigTimestamp)
		if err != nil {
			return nil, err
		}
		e := &entry{id: id, info: info}
		if info.Crtc != 0 {
			if e.crtc, err = conn.RandrCrtcInfo(info.Crtc, res.ConfigTimestamp); err != nil {
				return nil, err
			}
		}
		t.entries = append(t.entries, e)
	}
	return t, nil
}

// List returns every output of the connection's screen in server order.
func List(conn Conn) ([]Output, error) {
	if err := checkRandr(conn); err != nil {
		return nil, err
	}
	t, err := scan(conn)
	if err != nil {
		return nil, err
	}
	outputs := make([]Output, 0, len(t.entries))
	for _, e := range t.entries {
		outputs = append(outputs, e.output())
	}
	return outputs, nil
}

// Locate returns the geometry of the output named p.Name. An inactive
// output is enabled next to p.RelativeTo when p.Enable is set.
func Locate(conn Conn, l *log.Logger, p LocateParams) (Output, error) {
	if err := checkRandr(conn); err != nil {
		return Output{}, err
	}
	t, err := scan(conn)
	if err != nil {
		return Output{}, err
	}

	target := t.find(p.Name)
	if target == nil {
		return Output{}, fmt.Errorf("%s: %w", p.Name, ErrOutputNotFound)
	}
	if target.crtc != nil {
		o := target.output()
		l.Debug("Found output", "output", o.Name, "geometry", o)
		return o, nil
	}
	if !p.Enable {
		return Output{}, fmt.Errorf("%s: %w", p.Name, ErrOutputDisabled)
	}
	return enable(conn, l, t, target, p)
}

func enable(conn Conn, l *log.Logger, t *topology, target *entry, p LocateParams) (Output, error) {
	if p.RelativeTo == "" {
		return Output{}, fmt.Errorf("%s: %w", p.Name, ErrNoAnchor)
	}
	anchor := t.find(p.RelativeTo)
	if anchor == nil {
		return Output{}, fmt.Errorf("%s: %w", p.RelativeTo, ErrOutputNotFound)
	}
	if anchor.crtc == nil {
		return Output{}, fmt.Errorf("%s: %w", p.RelativeTo, ErrOutputDisabled)
	}

	if len(target.info.Modes) == 0 {
		return Output{}, fmt.Errorf("%s: %w", p.Name, ErrNoModes)
	}
	mode, ok := t.res.Mode(target.info.Modes[0])
	if !ok {
		return Output{}, fmt.Errorf("%s: mode 0x%x: %w", p.Name, uint32(target.info.Modes[0]), ErrNoModes)
	}

	relation := p.Relation
	switch relation {
	case LeftOf:
		l.Warn("Placing an output left of another is not supported, using right", "output", p.Name, "relative_to", p.RelativeTo)
		relation = RightOf
	case Above:
		l.Warn("Placing an output above another is not supported, using below", "output", p.Name, "relative_to", p.RelativeTo)
		relation = Below
	}

	a := anchor.output()
	var x, y int32
	if relation == Below {
		x, y = a.X, a.Y+int32(a.Height)
	} else {
		x, y = a.X+int32(a.Width), a.Y
	}

	_, _, ax2, ay2 := a.Bounds()
	width := max(ax2, x+int32(mode.Width))
	height := max(ay2, y+int32(mode.Height))
	if width > 0x7fff || height > 0x7fff {
		return Output{}, fmt.Errorf("%s: screen of %dx%d: %w", p.Name, width, height, ErrReconfigure)
	}
	mmWidth, mmHeight := physicalSize(conn.Screen(), uint32(width), uint32(height))

	crtc, err := freeCrtc(conn, t, target)
	if err != nil {
		return Output{}, err
	}
	if crtc == 0 {
		return Output{}, fmt.Errorf("%s: %w", p.Name, ErrNoCrtc)
	}

	l.Info("Enabling output",
		"output", p.Name, "mode", fmt.Sprintf("%dx%d", mode.Width, mode.Height),
		"relation", relation, "relative_to", p.RelativeTo, "x", x, "y", y,
		"screen", fmt.Sprintf("%dx%d", width, height))

	conn.GrabServer()
	defer conn.UngrabServer()

	if err := conn.RandrSetScreenSize(conn.Screen().Root, uint16(width), uint16(height), mmWidth, mmHeight); err != nil {
		return Output{}, fmt.Errorf("%s: %w: %w", p.Name, ErrReconfigure, err)
	}
	if err := conn.RandrSetCrtcConfig(crtc, t.res.Timestamp, t.res.ConfigTimestamp,
		int16(x), int16(y), mode.ID, []hostx.Output{target.id}); err != nil {
		return Output{}, fmt.Errorf("%s: %w: %w", p.Name, ErrReconfigure, err)
	}

	return Output{
		Name:      target.info.Name,
		X:         x,
		Y:         y,
		Width:     uint32(mode.Width),
		Height:    uint32(mode.Height),
		Enabled:   true,
		Connected: target.info.Connection == hostx.ConnectionConnected,
	}, nil
}

// freeCrtc returns the first CRTC the output can use that drives nothing,
// 0 if there is none.
func freeCrtc(conn Conn, t *topology, target *entry) (hostx.Crtc, error) {
	for _, c := range target.info.Crtcs {
		info, err := conn.RandrCrtcInfo(c, t.res.ConfigTimestamp)
		if err != nil {
			return 0, err
		}
		if len(info.Outputs) == 0 {
			return c, nil
		}
	}
	return 0, nil
}

// physicalSize scales the screen's millimetre size to a new pixel size,
// keeping its density. A screen reporting no size is assumed to be 96 dpi.
func physicalSize(s hostx.Screen, width, height uint32) (mmWidth, mmHeight uint32) {
	scale := func(px uint32, curPx, curMM uint16) uint32 {
		if curPx == 0 || curMM == 0 {
			return uint32(float64(px) * 25.4 / 96)
		}
		return uint32(float64(px) * float64(curMM) / float64(curPx))
	}
	return scale(width, s.WidthPx, s.WidthMM), scale(height, s.HeightPx, s.HeightMM)
}
