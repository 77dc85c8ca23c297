package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/bnema/xnested/internal/config"
	"github.com/bnema/xnested/internal/display"
	"github.com/bnema/xnested/internal/hostx"
	"github.com/bnema/xnested/internal/input"
	"github.com/bnema/xnested/internal/logger"
	"github.com/bnema/xnested/internal/nested"
	"github.com/bnema/xnested/internal/shmem"
	"github.com/bnema/xnested/internal/ui"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Report what the host display and system support",
	Long: `Connect to the host display and report the features a nested screen
relies on: RandR for output placement, MIT-SHM for fast image transfer, XKB
for keyboard controls, and /dev/uinput for injecting nested input.`,
	RunE: runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

// setupConn is what the capability report needs from the host connection.
type setupConn interface {
	display.Conn
	nested.ShmConn
	Setup() hostx.Setup
}

func runSetup(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	w := cmd.OutOrStdout()
	fmt.Fprintln(w, ui.FormatCheckHeader("xnested setup"))

	conn, err := hostx.Connect(cfg.Host.Display, cfg.Host.XauthFile)
	if err != nil {
		fmt.Fprintln(w, ui.FormatCheckResult(ui.CheckFail, "host display", err.Error()))
		return err
	}
	defer conn.Close()

	fails := reportHost(w, conn, shmem.SysV{})
	reportUinput(w, cfg.Input.UinputPath)

	fmt.Fprintln(w)
	if fails > 0 {
		return fmt.Errorf("%d required checks failed", fails)
	}
	fmt.Fprintln(w, ui.SuccessStyle.Render("Host is ready for nested screens"))
	return nil
}

// reportHost prints one line per host capability and returns the number of
// failed required checks.
func reportHost(w io.Writer, conn setupConn, alloc shmem.Allocator) int {
	fails := 0
	s := conn.Screen()
	fmt.Fprintln(w, ui.FormatCheckResult(ui.CheckOK, "host display",
		fmt.Sprintf("screen %dx%d, depth %d", s.WidthPx, s.HeightPx, s.RootDepth)))

	if _, ok := conn.Setup().Format(s.RootDepth); !ok {
		fmt.Fprintln(w, ui.FormatCheckResult(ui.CheckFail, "pixmap format",
			fmt.Sprintf("no format for root depth %d", s.RootDepth)))
		fails++
	}

	if outs, err := display.List(conn); err != nil {
		fmt.Fprintln(w, ui.FormatCheckResult(ui.CheckWarn, "RandR", err.Error()))
	} else {
		fmt.Fprintln(w, ui.FormatCheckResult(ui.CheckOK, "RandR", fmt.Sprintf("%d outputs", len(outs))))
	}

	if nested.NegotiateShm(conn, alloc, logger.Discard()) {
		fmt.Fprintln(w, ui.FormatCheckResult(ui.CheckOK, "MIT-SHM", "shared memory images"))
	} else {
		fmt.Fprintln(w, ui.FormatCheckResult(ui.CheckWarn, "MIT-SHM", "unavailable, private images will be used"))
	}

	if conn.HasExtension(hostx.ExtXkb) {
		fmt.Fprintln(w, ui.FormatCheckResult(ui.CheckOK, "XKB", "keyboard controls copied"))
	} else {
		fmt.Fprintln(w, ui.FormatCheckResult(ui.CheckWarn, "XKB", "missing, nested keyboard uses defaults"))
	}

	fmt.Fprintln(w, ui.FormatCheckResult(ui.CheckOK, "max request",
		fmt.Sprintf("%d bytes", conn.Setup().MaxRequestBytes)))
	return fails
}

// reportUinput only warns; nested input can fall back to logging.
func reportUinput(w io.Writer, path string) {
	if path == "" {
		path = input.DefaultPath
	}
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	switch {
	case err == nil:
		f.Close()
		fmt.Fprintln(w, ui.FormatCheckResult(ui.CheckOK, "uinput", path+" is writable"))
	case errors.Is(err, os.ErrNotExist):
		fmt.Fprintln(w, ui.FormatCheckResult(ui.CheckWarn, "uinput", path+" not found, load the uinput module"))
	case errors.Is(err, os.ErrPermission):
		fmt.Fprintln(w, ui.FormatCheckResult(ui.CheckWarn, "uinput", path+" not writable, add yourself to the input group"))
	default:
		fmt.Fprintln(w, ui.FormatCheckResult(ui.CheckWarn, "uinput", err.Error()))
	}
}
