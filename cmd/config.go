package cmd

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/bnema/xnested/internal/config"
	"github.com/bnema/xnested/internal/logger"
	"github.com/bnema/xnested/internal/ui"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage xnested configuration",
	Long:  `Show, edit and save the xnested configuration file.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintf(cmd.OutOrStdout(), "Config file: %s\n\n", config.GetConfigPath())
		return writeConfig(cmd.OutOrStdout(), config.Get())
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Edit the configuration interactively and save it",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := *config.Get()
		if err := ui.RunConfigForm(&c); err != nil {
			return err
		}
		if err := config.Update(&c); err != nil {
			return err
		}
		logger.Infof("Configuration saved to: %s", config.GetConfigPath())
		return nil
	},
}

var configSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Save current configuration to file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Save(); err != nil {
			return err
		}
		logger.Infof("Configuration saved to: %s", config.GetConfigPath())
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show configuration file path",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), config.GetConfigPath())
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configSaveCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func writeConfig(out io.Writer, c *config.Config) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	section := func(name string) { fmt.Fprintf(w, "[%s]\n", name) }
	field := func(name string, v any) { fmt.Fprintf(w, "  %s\t%v\n", name, v) }

	section("host")
	field("display", orDefault(c.Host.Display, "$DISPLAY"))
	field("xauth_file", orDefault(c.Host.XauthFile, "$XAUTHORITY"))

	section("output")
	field("name", orDefault(c.Output.Name, "(whole screen)"))
	field("enable", c.Output.Enable)
	field("relative_to", c.Output.RelativeTo)
	field("relation", c.Output.Relation)

	section("screen")
	field("nested_display", c.Screen.NestedDisplay)
	field("size", fmt.Sprintf("%dx%d+%d+%d", c.Screen.Width, c.Screen.Height, c.Screen.X, c.Screen.Y))
	field("depth", c.Screen.Depth)
	field("bpp", c.Screen.BitsPerPixel)
	field("fullscreen", c.Screen.Fullscreen)
	field("input", c.Screen.Input)
	field("disable_shm", c.Screen.DisableShm)

	section("input")
	field("uinput", c.Input.Uinput)
	field("uinput_path", c.Input.UinputPath)

	section("logging")
	field("log_level", orDefault(c.Logging.LogLevel, orDefault(os.Getenv("LOG_LEVEL"), "info")))

	return w.Flush()
}
