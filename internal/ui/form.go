package ui

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/huh"

	"github.com/bnema/xnested/internal/config"
)

// configValues holds the form fields as text while the form runs.
type configValues struct {
	display    string
	width      string
	height     string
	output     string
	relation   string
	fullscreen bool
	shm        bool
}

func newConfigValues(c *config.Config) *configValues {
	return &configValues{
		display:    c.Host.Display,
		width:      strconv.Itoa(c.Screen.Width),
		height:     strconv.Itoa(c.Screen.Height),
		output:     c.Output.Name,
		relation:   c.Relation().String(),
		fullscreen: c.Screen.Fullscreen,
		shm:        !c.Screen.DisableShm,
	}
}

// apply copies the form values into c.
func (v *configValues) apply(c *config.Config) error {
	w, err := strconv.Atoi(v.width)
	if err != nil {
		return fmt.Errorf("invalid width %q: %w", v.width, err)
	}
	h, err := strconv.Atoi(v.height)
	if err != nil {
		return fmt.Errorf("invalid height %q: %w", v.height, err)
	}
	c.Host.Display = v.display
	c.Screen.Width, c.Screen.Height = w, h
	c.Output.Name = v.output
	c.Output.Relation = v.relation
	c.Screen.Fullscreen = v.fullscreen
	c.Screen.DisableShm = !v.shm
	return nil
}

func validateSize(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("not a number")
	}
	if n < 1 || n > 0x7fff {
		return fmt.Errorf("must be between 1 and 32767")
	}
	return nil
}

func (v *configValues) form() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Host display").
				Description("Leave empty to use $DISPLAY").
				Value(&v.display),
			huh.NewInput().
				Title("Width").
				Validate(validateSize).
				Value(&v.width),
			huh.NewInput().
				Title("Height").
				Validate(validateSize).
				Value(&v.height),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Host output").
				Description("Take the geometry of this output; empty for none").
				Value(&v.output),
			huh.NewSelect[string]().
				Title("Placement when enabling the output").
				Options(
					huh.NewOption("Right of anchor", "right"),
					huh.NewOption("Left of anchor", "left"),
					huh.NewOption("Above anchor", "above"),
					huh.NewOption("Below anchor", "below"),
				).
				Value(&v.relation),
			huh.NewConfirm().
				Title("Fullscreen").
				Value(&v.fullscreen),
			huh.NewConfirm().
				Title("Use MIT-SHM when available").
				Value(&v.shm),
		),
	)
}

// RunConfigForm asks for the main settings and writes them into c.
func RunConfigForm(c *config.Config) error {
	v := newConfigValues(c)
	if err := v.form().Run(); err != nil {
		return fmt.Errorf("configuration cancelled: %w", err)
	}
	return v.apply(c)
}
