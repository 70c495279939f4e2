package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "kollator",
	Short: "Reconciliation engine for legislative records",
	Long: `kollator collates legislative records from independent collectors into a
single SQLite database. Incoming processes, sessions, and documents are
matched against stored entities and merged additively; ambiguous matches
are rejected and recorded for manual review.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to database file (overrides KOLLATOR_DB_PATH)")
	rootCmd.PersistentFlags().String("output", "", "Output format: yaml or json (overrides KOLLATOR_OUTPUT)")
}
