package cli

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/axellelanca/redirector/cmd"
	"github.com/axellelanca/redirector/internal/monitor"
)

// CheckCmd runs one pass of the destination monitor and prints the results.
var CheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check once whether every link destination is reachable",
	RunE: func(c *cobra.Command, _ []string) error {
		app, err := cmd.NewApp()
		if err != nil {
			return err
		}
		defer app.Close()

		m := monitor.NewURLMonitor(app.Links, app.Cfg.MonitorInterval(), app.Log,
			monitor.WithWorkers(app.Cfg.Monitor.Workers))
		results := m.CheckAll(c.Context())

		t := newTable("Destinations")
		t.AppendHeader(table.Row{"ID", "URL", "Status", "Reason"})
		down := 0
		for _, r := range results {
			status := "up"
			if !r.Accessible {
				status = "DOWN"
				down++
			}
			t.AppendRow(table.Row{r.LinkID, r.URL, status, r.Reason})
		}
		t.AppendFooter(table.Row{"", "Unreachable", down, ""})
		t.Render()
		return nil
	},
}

func init() {
	cmd.RootCmd.AddCommand(CheckCmd)
}
