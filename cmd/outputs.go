package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/bnema/xnested/internal/config"
	"github.com/bnema/xnested/internal/display"
	"github.com/bnema/xnested/internal/hostx"
	"github.com/bnema/xnested/internal/ui"
)

var outputsJSON bool

var outputsCmd = &cobra.Command{
	Use:     "outputs",
	Aliases: []string{"list"},
	Short:   "List the outputs of the host display",
	RunE:    runOutputs,
}

func init() {
	outputsCmd.Flags().BoolVar(&outputsJSON, "json", false, "print outputs as JSON")
	rootCmd.AddCommand(outputsCmd)
}

type outputJSON struct {
	Name      string `json:"name"`
	X         int32  `json:"x"`
	Y         int32  `json:"y"`
	Width     uint32 `json:"width"`
	Height    uint32 `json:"height"`
	Enabled   bool   `json:"enabled"`
	Connected bool   `json:"connected"`
}

func runOutputs(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	conn, err := hostx.Connect(cfg.Host.Display, cfg.Host.XauthFile)
	if err != nil {
		return err
	}
	defer conn.Close()

	outs, err := display.List(conn)
	if err != nil {
		return err
	}
	if outputsJSON {
		return writeOutputsJSON(cmd.OutOrStdout(), outs)
	}
	fmt.Fprintln(cmd.OutOrStdout(), ui.OutputTable(outs))
	return nil
}

func writeOutputsJSON(w io.Writer, outs []display.Output) error {
	list := make([]outputJSON, 0, len(outs))
	for _, o := range outs {
		list = append(list, outputJSON(o))
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(list)
}
