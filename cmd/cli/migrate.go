package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/axellelanca/redirector/cmd"
	"github.com/axellelanca/redirector/internal/database"
	"github.com/axellelanca/redirector/internal/migrations"
)

var migrateDown bool

// MigrateCmd creates or updates the links and click_events tables.
var MigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	Long: `For postgres this applies the embedded SQL migrations with golang-migrate.
For sqlite and libsql it runs gorm AutoMigrate on the models.`,
	RunE: func(c *cobra.Command, _ []string) error {
		app, err := cmd.NewApp()
		if err != nil {
			return err
		}
		defer app.Close()

		if app.Cfg.Database.Driver != database.DriverPostgres {
			if migrateDown {
				return errors.New("--down is only supported for postgres")
			}
			if err := database.AutoMigrate(c.Context(), app.DB); err != nil {
				return err
			}
			fmt.Println("Database migrations executed successfully.")
			return nil
		}

		mg, err := migrations.New(app.Cfg.Database.DSN, app.Log)
		if err != nil {
			return err
		}
		defer func() {
			if err := mg.Close(); err != nil {
				fmt.Printf("Warning: closing migrator: %v\n", err)
			}
		}()

		if migrateDown {
			if err := mg.Down(); err != nil {
				return err
			}
			fmt.Println("Rolled back the last migration.")
			return nil
		}
		if err := mg.Up(); err != nil {
			return err
		}
		fmt.Println("Database migrations executed successfully.")
		return nil
	},
}

func init() {
	MigrateCmd.Flags().BoolVar(&migrateDown, "down", false, "roll back the last migration (postgres only)")
	cmd.RootCmd.AddCommand(MigrateCmd)
}
