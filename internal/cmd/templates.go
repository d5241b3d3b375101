package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/DataDrivenAngel/luma-mcp/internal/core"
	"github.com/DataDrivenAngel/luma-mcp/internal/output"
)

var templatesListOutput string

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "Inspect the built-in event templates",
}

var templatesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available event templates",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := output.ParseFormat(templatesListOutput)
		if err != nil {
			return err
		}

		templates := core.Templates()
		if format == output.FormatJSON {
			rendered, err := output.RenderJSON(templates)
			if err != nil {
				return err
			}
			fmt.Println(rendered)
			return nil
		}

		fmt.Print(output.TemplateTable(templates))
		return nil
	},
}

var templatesGetCmd = &cobra.Command{
	Use:   "get <type>",
	Short: "Show one event template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tpl, ok := core.TemplateByType(args[0])
		if !ok {
			return fmt.Errorf("unknown template type: %s", args[0])
		}

		rendered, err := output.RenderJSON(tpl)
		if err != nil {
			return err
		}
		fmt.Println(rendered)
		return nil
	},
}

func init() {
	templatesListCmd.Flags().StringVar(&templatesListOutput, "output-format", string(output.FormatTable), "Output format: table|json")

	templatesCmd.AddCommand(templatesListCmd)
	templatesCmd.AddCommand(templatesGetCmd)
	rootCmd.AddCommand(templatesCmd)
}
