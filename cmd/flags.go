package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// commandFlags maps config keys to the local flags overriding them, per
// command. Several commands share keys and viper holds one binding per key,
// so only the running command's flags are bound, before the config loads.
var commandFlags = map[*cobra.Command]map[string]string{}

func bindCommandFlag(cmd *cobra.Command, key, flag string) {
	if commandFlags[cmd] == nil {
		commandFlags[cmd] = map[string]string{}
	}
	commandFlags[cmd][key] = flag
}

func bindCommandFlags(cmd *cobra.Command) error {
	for key, flag := range commandFlags[cmd] {
		if err := viper.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return fmt.Errorf("binding flag %s: %w", flag, err)
		}
	}
	return nil
}
