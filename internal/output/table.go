package output

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/DataDrivenAngel/luma-mcp/internal/core"
)

// TemplateTable renders the template catalog as an ASCII table.
func TemplateTable(templates []core.Template) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Type", "Name", "Duration", "Approval", "Virtual"})

	for _, tpl := range templates {
		t.AppendRow(table.Row{
			tpl.Type,
			tpl.Name,
			fmt.Sprintf("%dh", tpl.DefaultDurationHours),
			yesNo(tpl.RequireRSVPApproval),
			yesNo(tpl.IsVirtual),
		})
	}

	return t.Render()
}

// TierRow is one traffic tier's quota for display.
type TierRow struct {
	Tier          string        `json:"tier"`
	MaxRequests   int           `json:"max_requests"`
	Window        time.Duration `json:"window"`
	BlockDuration time.Duration `json:"block_duration"`
}

// TierTable renders the configured rate limit tiers as an ASCII table.
func TierTable(rows []TierRow) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Tier", "Max Requests", "Window", "Block"})

	for _, row := range rows {
		t.AppendRow(table.Row{
			row.Tier,
			row.MaxRequests,
			row.Window.String(),
			row.BlockDuration.String(),
		})
	}

	return t.Render()
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
