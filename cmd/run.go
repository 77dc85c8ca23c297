package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/bnema/xnested/internal/config"
	"github.com/bnema/xnested/internal/input"
	"github.com/bnema/xnested/internal/logger"
	"github.com/bnema/xnested/internal/nested"
	"github.com/bnema/xnested/internal/ui"
)

var (
	runLogFile  string
	runHeadless bool
	runFPS      int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Open a nested screen window on the host display",
	Long: `Create a nested screen on the host display and drive it: host events are
pumped into the nested input device and a test pattern is painted into the
frame buffer. Closing the host window or losing the host connection ends the
run.`,
	RunE: runRun,
}

func init() {
	flags := runCmd.Flags()
	flags.String("output", "", "host output whose geometry the screen takes")
	flags.Bool("enable", false, "enable the output if it is off")
	flags.String("relative-to", "", "anchor output for --enable")
	flags.String("relation", "", "placement next to the anchor: right, left, above or below")
	flags.String("nested-display", "", "display number of the nested server")
	flags.Int("width", 0, "screen width")
	flags.Int("height", 0, "screen height")
	flags.Int("depth", 0, "screen depth, 0 for the host root depth")
	flags.Bool("fullscreen", false, "ask the window manager for a fullscreen window")
	flags.Bool("no-shm", false, "never use MIT-SHM images")
	flags.Bool("uinput", false, "inject nested input through uinput")
	flags.StringVar(&runLogFile, "log-file", "", "write logs to this file instead of the terminal")
	flags.BoolVar(&runHeadless, "headless", false, "run without the status view")
	flags.IntVar(&runFPS, "fps", 10, "test pattern frames per second")

	for key, flag := range map[string]string{
		"output.name":           "output",
		"output.enable":         "enable",
		"output.relative_to":    "relative-to",
		"output.relation":       "relation",
		"screen.nested_display": "nested-display",
		"screen.width":          "width",
		"screen.height":         "height",
		"screen.depth":          "depth",
		"screen.fullscreen":     "fullscreen",
		"screen.disable_shm":    "no-shm",
		"input.uinput":          "uinput",
	} {
		bindCommandFlag(runCmd, key, flag)
	}
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	if runFPS <= 0 {
		return fmt.Errorf("invalid --fps %d", runFPS)
	}
	if runLogFile != "" {
		f, err := os.OpenFile(runLogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer f.Close()
		logger.SetOutput(f)
	}

	cfg := config.Get()
	if err := cfg.Validate(); err != nil {
		return err
	}
	l := logger.ForScreen(0)

	p := screenParams(cfg)
	if cfg.Output.Name != "" {
		out, err := nested.CheckDisplay(checkParams(cfg), nested.WithLogger(l))
		if err != nil {
			return err
		}
		fitOutput(&p, out)
		l.Info("Using host output", "output", out.String())
	}

	exitCode := -1
	client, err := nested.CreateScreen(p,
		nested.WithLogger(l),
		nested.WithExit(func(code int) { exitCode = code }),
	)
	if err != nil {
		return err
	}

	sess := newSession(client, openDevice(cfg, l), int(p.Width), int(p.Height))
	defer sess.Close()

	interval := time.Second / time.Duration(runFPS)
	if runHeadless {
		err = runHeadlessLoop(cmd.Context(), sess, interval)
	} else {
		m := ui.NewPreviewModel(sess, sess.status(), interval)
		_, err = tea.NewProgram(m, tea.WithContext(cmd.Context())).Run()
	}
	if err != nil {
		return err
	}
	if exitCode > 0 {
		return fmt.Errorf("nested screen ended with exit code %d", exitCode)
	}
	return nil
}

// openDevice returns the uinput device when enabled and available, and a
// logging device otherwise.
func openDevice(cfg *config.Config, l *log.Logger) inputDevice {
	if !cfg.Input.Uinput {
		return nopCloser{input.LogDevice{Log: l}}
	}
	dev, err := input.NewUinputDevice(cfg.Input.UinputPath, l)
	if err != nil {
		l.Warn("uinput unavailable, logging input instead", "path", cfg.Input.UinputPath, "err", err)
		return nopCloser{input.LogDevice{Log: l}}
	}
	return dev
}

func runHeadlessLoop(ctx context.Context, sess *session, interval time.Duration) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-sess.Ready():
			if st := sess.Pump(); st.Closed {
				return nil
			}
		case <-ticker.C:
			if st := sess.Frame(); st.Closed {
				return nil
			}
		}
	}
}
