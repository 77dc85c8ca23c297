package nested

import (
	"github.com/bnema/xnested/internal/display"
	"github.com/bnema/xnested/internal/hostx"
)

// CheckParams selects the host display and, optionally, an output whose
// geometry the nested screen should take.
type CheckParams struct {
	ScreenIndex int
	DisplayName string
	XauthFile   string

	Output     string
	Enable     bool
	RelativeTo string
	Relation   display.Relation
}

// CheckDisplay inspects the host display before the screen is created. Without
// an output it returns the whole host screen; with one it returns that
// output's extent. The connection is always closed before returning.
func CheckDisplay(p CheckParams, opts ...Option) (display.Output, error) {
	o := buildOptions(p.ScreenIndex, opts)

	conn, err := o.dial(p.DisplayName, p.XauthFile)
	if err != nil {
		if !hostx.LogError(o.log, err) {
			o.log.Error("Failed to connect to host X server", "display", p.DisplayName, "err", err)
		}
		return display.Output{}, err
	}
	defer conn.Close()

	if p.Output == "" {
		s := conn.Screen()
		return display.Output{
			Width:     uint32(s.WidthPx),
			Height:    uint32(s.HeightPx),
			Enabled:   true,
			Connected: true,
		}, nil
	}

	out, err := display.Locate(conn, o.log, display.LocateParams{
		Name:       p.Output,
		Enable:     p.Enable,
		RelativeTo: p.RelativeTo,
		Relation:   p.Relation,
	})
	if err != nil {
		o.log.Error("Failed to locate host output", "output", p.Output, "err", err)
		return display.Output{}, err
	}
	return out, nil
}
