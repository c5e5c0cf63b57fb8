package cli

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/axellelanca/redirector/cmd"
	"github.com/axellelanca/redirector/internal/auth"
)

var (
	listIdentity   auth.Identity
	updateURL      string
	updateIdentity auth.Identity
	deleteIdentity auth.Identity
)

// ListCmd lists links, newest first.
var ListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the links of an owner, or every link with --admin",
	RunE: func(c *cobra.Command, _ []string) error {
		app, err := cmd.NewApp()
		if err != nil {
			return err
		}
		defer app.Close()

		links, err := linkService(app).ListLinks(c.Context(), listIdentity)
		if err != nil {
			return explain(err)
		}
		if len(links) == 0 {
			fmt.Println("No links.")
			return nil
		}

		t := newTable("Links")
		t.AppendHeader(table.Row{"ID", "Destination", "Owner", "Clicks", "Created"})
		for _, l := range links {
			t.AppendRow(table.Row{l.ID, l.DestinationURL, deref(l.OwnerID), l.ClickCount, l.CreatedAt.Format(timeLayout)})
		}
		t.AppendFooter(table.Row{"", "", "Total", len(links), ""})
		t.Render()
		return nil
	},
}

// UpdateCmd points a link at a new destination.
var UpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Change the destination of one of the owner's links",
	Args:  cobra.ExactArgs(1),
	RunE: func(c *cobra.Command, args []string) error {
		app, err := cmd.NewApp()
		if err != nil {
			return err
		}
		defer app.Close()

		link, err := linkService(app).UpdateDestination(c.Context(), updateIdentity, args[0], updateURL)
		if err != nil {
			return explain(err)
		}
		fmt.Printf("Link %s now points to %s\n", link.ID, link.DestinationURL)
		return nil
	},
}

// DeleteCmd removes a link and its click history.
var DeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a link and its click events",
	Args:  cobra.ExactArgs(1),
	RunE: func(c *cobra.Command, args []string) error {
		app, err := cmd.NewApp()
		if err != nil {
			return err
		}
		defer app.Close()

		if err := linkService(app).DeleteLink(c.Context(), deleteIdentity, args[0]); err != nil {
			return explain(err)
		}
		fmt.Printf("Link %s deleted.\n", args[0])
		return nil
	},
}

func init() {
	identityFlags(ListCmd, &listIdentity, true)

	UpdateCmd.Flags().StringVar(&updateURL, "url", "", "new destination URL")
	identityFlags(UpdateCmd, &updateIdentity, false)
	_ = UpdateCmd.MarkFlagRequired("url")
	_ = UpdateCmd.MarkFlagRequired("owner")

	identityFlags(DeleteCmd, &deleteIdentity, true)

	cmd.RootCmd.AddCommand(ListCmd, UpdateCmd, DeleteCmd)
}
