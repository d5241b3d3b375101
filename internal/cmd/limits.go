package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	appconfig "github.com/DataDrivenAngel/luma-mcp/internal/config"
	"github.com/DataDrivenAngel/luma-mcp/internal/output"
)

var limitsListOutput string

var limitsCmd = &cobra.Command{
	Use:   "limits",
	Short: "Inspect the configured upstream rate limit tiers",
}

var limitsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List rate limit tiers",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := output.ParseFormat(limitsListOutput)
		if err != nil {
			return err
		}

		rows := tierRows(appCfg)
		if format == output.FormatJSON {
			rendered, err := output.RenderJSON(rows)
			if err != nil {
				return err
			}
			fmt.Println(rendered)
			return nil
		}

		fmt.Print(output.TierTable(rows))
		return nil
	},
}

func tierRows(cfg *appconfig.Config) []output.TierRow {
	return []output.TierRow{
		{
			Tier:          "read",
			MaxRequests:   cfg.Luma.ReadLimit.MaxRequests,
			Window:        cfg.Luma.ReadLimit.Window,
			BlockDuration: cfg.Luma.ReadLimit.BlockDuration,
		},
		{
			Tier:          "write",
			MaxRequests:   cfg.Luma.WriteLimit.MaxRequests,
			Window:        cfg.Luma.WriteLimit.Window,
			BlockDuration: cfg.Luma.WriteLimit.BlockDuration,
		},
	}
}

func init() {
	limitsListCmd.Flags().StringVar(&limitsListOutput, "output-format", string(output.FormatTable), "Output format: table|json")

	limitsCmd.AddCommand(limitsListCmd)
	rootCmd.AddCommand(limitsCmd)
}
