package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bnema/xnested/internal/config"
	"github.com/bnema/xnested/internal/hostx"
	"github.com/bnema/xnested/internal/nested"
	"github.com/bnema/xnested/internal/ui"
)

var keymapAll bool

var keymapCmd = &cobra.Command{
	Use:   "keymap",
	Short: "Show the host keyboard mapping a nested keyboard would copy",
	RunE:  runKeymap,
}

func init() {
	keymapCmd.Flags().BoolVar(&keymapAll, "all", false, "list keycodes without keysyms too")
	rootCmd.AddCommand(keymapCmd)
}

func runKeymap(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	conn, err := hostx.Connect(cfg.Host.Display, cfg.Host.XauthFile)
	if err != nil {
		return err
	}
	defer conn.Close()

	m, err := nested.ReadKeyboard(conn)
	if m == nil {
		return err
	}
	if err != nil {
		fmt.Fprintln(cmd.OutOrStdout(), ui.FormatCheckResult(ui.CheckWarn, "XKB", err.Error()))
	}
	writeKeymap(cmd.OutOrStdout(), m, keymapAll)
	return nil
}

var modifierNames = []string{"Shift", "Lock", "Control", "Mod1", "Mod2", "Mod3", "Mod4", "Mod5"}

func modifierString(bits uint8) string {
	var names []string
	for i, name := range modifierNames {
		if bits&(1<<i) != 0 {
			names = append(names, name)
		}
	}
	return strings.Join(names, "|")
}

func writeKeymap(w io.Writer, m *nested.KeyboardMapping, all bool) {
	ks := m.KeySyms
	fmt.Fprintf(w, "keycodes %d-%d, %d keysyms per keycode\n", ks.MinKeyCode, ks.MaxKeyCode, ks.MapWidth)
	fmt.Fprintf(w, "xkb controls 0x%08x\n", m.Controls.EnabledControls)

	for kc := int(ks.MinKeyCode); kc <= int(ks.MaxKeyCode); kc++ {
		off := (kc - int(ks.MinKeyCode)) * ks.MapWidth
		if off+ks.MapWidth > len(ks.Map) {
			break
		}
		syms := ks.Map[off : off+ks.MapWidth]
		var cols []string
		for _, s := range syms {
			if s != 0 {
				cols = append(cols, fmt.Sprintf("0x%04x", s))
			}
		}
		if len(cols) == 0 && !all {
			continue
		}
		line := fmt.Sprintf("%3d  %s", kc, strings.Join(cols, " "))
		if mods := modifierString(m.ModMap[kc]); mods != "" {
			line += "  " + ui.SubtleStyle.Render(mods)
		}
		fmt.Fprintln(w, line)
	}
}
