// Package cli holds the operator commands. Each command opens its own
// database handle through cmd.NewApp and acts on behalf of --owner.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/axellelanca/redirector/cmd"
	"github.com/axellelanca/redirector/internal/auth"
	customerrors "github.com/axellelanca/redirector/internal/errors"
	"github.com/axellelanca/redirector/internal/services"
)

const timeLayout = "2006-01-02 15:04:05"

// identityFlags adds --owner and, when allowAdmin is set, --admin to c.
func identityFlags(c *cobra.Command, id *auth.Identity, allowAdmin bool) {
	c.Flags().StringVar(&id.OwnerID, "owner", "", "owner id the command acts for")
	if allowAdmin {
		c.Flags().BoolVar(&id.Admin, "admin", false, "act as an administrator")
	}
}

// linkService writes through the server's destination cache when it is enabled.
func linkService(app *cmd.App) *services.LinkService {
	opts := []services.LinkOption{services.WithLinkSchema(app.Schema)}
	if destCache := app.DestinationCache(); destCache != nil {
		opts = append(opts, services.WithLinkCache(destCache))
	}
	return services.NewLinkService(app.Links, app.Log, opts...)
}

func analyticsService(app *cmd.App) *services.AnalyticsService {
	return services.NewAnalyticsService(app.Links, app.Clicks, app.Log,
		services.WithAnalyticsSchema(app.Schema))
}

func newTable(title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	if title != "" {
		t.SetTitle(title)
	}
	return t
}

// explain turns a service error into an operator-facing message.
func explain(err error) error {
	switch {
	case errors.Is(err, customerrors.ErrUnauthorized):
		return errors.New("--owner is required")
	case errors.Is(err, customerrors.ErrNotFound):
		return errors.New("link not found")
	case errors.Is(err, customerrors.ErrConflict):
		return errors.New("identifier already taken")
	case errors.Is(err, customerrors.ErrInvalidURL):
		return errors.New("destination must be an absolute http(s) URL")
	case errors.Is(err, customerrors.ErrInvalidSlug):
		return errors.New("identifier must be 1-64 letters, digits, '-' or '_' and not reserved")
	default:
		return fmt.Errorf("operation failed: %w", err)
	}
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}
