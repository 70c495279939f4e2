package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE:  runMigrate,
}

var migrateStatus bool

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.Flags().BoolVar(&migrateStatus, "status", false, "Show migration status without applying")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	app, err := bootstrap(cmd, false)
	if err != nil {
		return err
	}
	defer app.Close()

	if migrateStatus {
		applied, pending, err := app.DB.MigrationStatus()
		if err != nil {
			return err
		}
		fmt.Printf("Applied: %d\n", len(applied))
		for _, m := range applied {
			fmt.Printf("  %s\n", m)
		}
		fmt.Printf("Pending: %d\n", len(pending))
		for _, m := range pending {
			fmt.Printf("  %s\n", m)
		}
		return nil
	}

	applied, err := app.DB.Migrate()
	if err != nil {
		return err
	}
	if len(applied) == 0 {
		fmt.Println("Database is up to date")
		return nil
	}
	for _, m := range applied {
		fmt.Printf("Applied %s\n", m)
	}
	return nil
}
