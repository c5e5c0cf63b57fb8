package cli

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/axellelanca/redirector/cmd"
	"github.com/axellelanca/redirector/internal/models"
)

var (
	statsOwner     string
	dashboardOwner string
)

// StatsCmd prints the detail view of one link.
var StatsCmd = &cobra.Command{
	Use:   "stats <id>",
	Short: "Show click statistics for one of the owner's links",
	Args:  cobra.ExactArgs(1),
	RunE: func(c *cobra.Command, args []string) error {
		app, err := cmd.NewApp()
		if err != nil {
			return err
		}
		defer app.Close()

		stats, err := analyticsService(app).GetLinkStats(c.Context(), statsOwner, args[0])
		if err != nil {
			return explain(err)
		}

		fmt.Printf("Statistics for %s -> %s\n", stats.Link.ID, stats.Link.DestinationURL)
		fmt.Printf("Created: %s\n", stats.Link.CreatedAt.Format(timeLayout))

		t := newTable("Totals")
		t.AppendHeader(table.Row{"All time", "Last 24h", "Last 7 days"})
		t.AppendRow(table.Row{stats.Totals.Clicks, stats.Totals.Last24h, stats.Totals.Last7d})
		t.Render()

		renderSeries(stats.ClicksLast7Days)
		renderSources(stats.TrafficSources)

		t = newTable("Top referrers")
		t.AppendHeader(table.Row{"Host", "Clicks"})
		for _, r := range stats.TopReferrers {
			t.AppendRow(table.Row{r.ReferrerHost, r.Clicks})
		}
		t.Render()
		return nil
	},
}

// DashboardCmd prints the account summary of an owner.
var DashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show the account dashboard of an owner",
	RunE: func(c *cobra.Command, _ []string) error {
		app, err := cmd.NewApp()
		if err != nil {
			return err
		}
		defer app.Close()

		stats := analyticsService(app).GetAccountStats(c.Context(), dashboardOwner)

		t := newTable("Account")
		t.AppendHeader(table.Row{"Links", "Clicks", "Active", "Avg/link", "Best link", "Best clicks"})
		t.AppendRow(table.Row{
			stats.Totals.Links,
			stats.Totals.TotalClicks,
			stats.Totals.ActiveLinks,
			fmt.Sprintf("%.1f", stats.Totals.AvgClicksPerLink),
			deref(stats.Totals.BestLinkID),
			stats.Totals.BestLinkClicks,
		})
		t.Render()

		renderSeries(stats.ClicksLast7Days)

		t = newTable("Top links")
		t.AppendHeader(table.Row{"ID", "Destination", "Clicks", "Created"})
		for _, l := range stats.TopLinks {
			t.AppendRow(table.Row{l.ID, l.DestinationURL, l.Clicks, l.CreatedAt.Format(timeLayout)})
		}
		t.Render()

		t = newTable("Recent clicks")
		t.AppendHeader(table.Row{"Link", "When", "Source", "Referrer"})
		for _, rc := range stats.RecentClicks {
			t.AppendRow(table.Row{rc.LinkID, rc.ClickedAt.Format(timeLayout), rc.SourceType, deref(rc.ReferrerHost)})
		}
		t.Render()

		renderSources(stats.TrafficSources)
		return nil
	},
}

func renderSeries(days []models.DailyClicks) {
	t := newTable("Last 7 days")
	t.AppendHeader(table.Row{"Date", "Clicks"})
	for _, d := range days {
		t.AppendRow(table.Row{d.Date, d.Clicks})
	}
	t.Render()
}

func renderSources(sources []models.SourceCount) {
	t := newTable("Traffic sources")
	t.AppendHeader(table.Row{"Source", "Clicks"})
	for _, s := range sources {
		t.AppendRow(table.Row{s.SourceType, s.Clicks})
	}
	t.Render()
}

func init() {
	StatsCmd.Flags().StringVar(&statsOwner, "owner", "", "owner id of the link")
	_ = StatsCmd.MarkFlagRequired("owner")

	DashboardCmd.Flags().StringVar(&dashboardOwner, "owner", "", "owner id")
	_ = DashboardCmd.MarkFlagRequired("owner")

	cmd.RootCmd.AddCommand(StatsCmd, DashboardCmd)
}
