package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/axellelanca/redirector/cmd"
	"github.com/axellelanca/redirector/internal/auth"
)

var (
	createURL      string
	createCustomID string
	createIdentity auth.Identity
)

// CreateCmd creates a short link.
var CreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a short link for a destination URL",
	Long: `Creates a link owned by --owner. Without --id a random 6 character code
is generated.

Example:
  redirector create --owner alice --url "https://example.com/landing" --id promo`,
	RunE: func(c *cobra.Command, _ []string) error {
		app, err := cmd.NewApp()
		if err != nil {
			return err
		}
		defer app.Close()

		link, err := linkService(app).CreateLink(c.Context(), createIdentity, createURL, createCustomID)
		if err != nil {
			return explain(err)
		}

		fmt.Println("Short link created:")
		fmt.Printf("Code: %s\n", link.ID)
		fmt.Printf("Short URL: %s/%s\n", strings.TrimRight(app.Cfg.Server.BaseURL, "/"), link.ID)
		fmt.Printf("Destination: %s\n", link.DestinationURL)
		return nil
	},
}

func init() {
	CreateCmd.Flags().StringVar(&createURL, "url", "", "destination URL")
	CreateCmd.Flags().StringVar(&createCustomID, "id", "", "custom identifier")
	identityFlags(CreateCmd, &createIdentity, false)
	_ = CreateCmd.MarkFlagRequired("url")
	_ = CreateCmd.MarkFlagRequired("owner")

	cmd.RootCmd.AddCommand(CreateCmd)
}
