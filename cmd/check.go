package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bnema/xnested/internal/config"
	"github.com/bnema/xnested/internal/logger"
	"github.com/bnema/xnested/internal/nested"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check the host display and locate the output to use",
	Long: `Connect to the host display and report the area the nested screen would
take: the whole host screen, or the extent of the output given with --output.
With --enable a disabled output is switched on next to --relative-to.`,
	RunE: runCheck,
}

func init() {
	flags := checkCmd.Flags()
	flags.String("output", "", "host output to use, e.g. DP-1")
	flags.Bool("enable", false, "enable the output if it is off")
	flags.String("relative-to", "", "anchor output for --enable")
	flags.String("relation", "", "placement next to the anchor: right, left, above or below")

	for key, flag := range map[string]string{
		"output.name":        "output",
		"output.enable":      "enable",
		"output.relative_to": "relative-to",
		"output.relation":    "relation",
	} {
		bindCommandFlag(checkCmd, key, flag)
	}
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	if err := cfg.Validate(); err != nil {
		return err
	}

	out, err := nested.CheckDisplay(checkParams(cfg), nested.WithLogger(logger.Logger))
	if err != nil {
		return err
	}

	if out.Name == "" {
		fmt.Fprintf(cmd.OutOrStdout(), "host screen %dx%d\n", out.Width, out.Height)
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), out.String())
	return nil
}
