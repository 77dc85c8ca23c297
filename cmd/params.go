package cmd

import (
	"github.com/bnema/xnested/internal/config"
	"github.com/bnema/xnested/internal/display"
	"github.com/bnema/xnested/internal/nested"
)

func checkParams(c *config.Config) nested.CheckParams {
	return nested.CheckParams{
		DisplayName: c.Host.Display,
		XauthFile:   c.Host.XauthFile,
		Output:      c.Output.Name,
		Enable:      c.Output.Enable,
		RelativeTo:  c.Output.RelativeTo,
		Relation:    c.Relation(),
	}
}

func screenParams(c *config.Config) nested.Params {
	s := c.Screen
	return nested.Params{
		DisplayName:   c.Host.Display,
		XauthFile:     c.Host.XauthFile,
		NestedDisplay: s.NestedDisplay,
		Fullscreen:    s.Fullscreen,
		Width:         uint16(s.Width),
		Height:        uint16(s.Height),
		X:             int16(s.X),
		Y:             int16(s.Y),
		Depth:         uint8(s.Depth),
		BitsPerPixel:  uint8(s.BitsPerPixel),
		Input:         s.Input,
		DisableShm:    s.DisableShm,
	}
}

// fitOutput places the screen on a located output.
func fitOutput(p *nested.Params, out display.Output) {
	if out.Width == 0 || out.Height == 0 {
		return
	}
	p.X, p.Y = int16(out.X), int16(out.Y)
	p.Width, p.Height = uint16(out.Width), uint16(out.Height)
}
