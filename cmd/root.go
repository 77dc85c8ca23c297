package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bnema/xnested/internal/config"
	"github.com/bnema/xnested/internal/logger"
)

var (
	configFile string

	rootCmd = &cobra.Command{
		Use:   "xnested",
		Short: "xnested - host display client for nested X screens",
		Long: `xnested drives the host side of a nested X screen: it finds the host
output to use through RandR, creates the window and shared memory image the
nested screen renders into, and turns host window events into nested input.`,
		SilenceUsage:      true,
		PersistentPreRunE: initConfig,
	}
)

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s\n" .Version}}`)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "config file (default searches /etc/xnested, ~/.config/xnested and .)")
	flags.String("display", "", "host X display (default $DISPLAY)")
	flags.String("xauth", "", "Xauthority file for the host display")
	flags.String("log-level", "", "log level: debug, info, warn or error")

	bindFlag("host.display", "display")
	bindFlag("host.xauth_file", "xauth")
	bindFlag("logging.log_level", "log-level")
}

// bindFlag makes a persistent flag override a config key.
func bindFlag(key, flag string) {
	if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(fmt.Sprintf("binding flag %s: %v", flag, err))
	}
}

func initConfig(cmd *cobra.Command, args []string) error {
	if configFile != "" {
		config.SetConfigPath(configFile)
	}
	if err := bindCommandFlags(cmd); err != nil {
		return err
	}
	if err := config.Init(); err != nil {
		return err
	}
	if lvl := config.Get().Logging.LogLevel; lvl != "" {
		logger.SetLevel(lvl)
	}
	logger.Debugf("Using config file %s", config.GetConfigPath())
	return nil
}
