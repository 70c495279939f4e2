package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/openparl/kollator/internal/merge"
	"github.com/openparl/kollator/internal/metrics"
	"github.com/openparl/kollator/internal/notify"
	"github.com/openparl/kollator/internal/parse"
)

var importCmd = &cobra.Command{
	Use:   "import <file>...",
	Short: "Integrate collector record files into the database",
	Long: `Reads one or more YAML record files and integrates every process, session,
and document they contain. Each record is matched against stored entities
and either merged or created in its own transaction. Records that fail
(ambiguous match, conflicting resubmission, missing reference) are
reported and skipped; the rest of the file is still integrated.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runImport,
}

var importMetrics bool

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().BoolVar(&importMetrics, "metrics", false, "Print integration counters after the run")
}

func runImport(cmd *cobra.Command, args []string) error {
	app, err := bootstrap(cmd, true)
	if err != nil {
		return err
	}
	defer app.Close()

	collector := metrics.NewPromCollector()
	// Notifications are written on the raw handle so they survive the
	// rollback of the integration transaction that produced them.
	integrator := merge.New(app.DB, notify.NewWriter(app.DB.DB), collector)

	ctx := context.Background()
	var created, merged, failed int

	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		file, err := parse.Records(data)
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}

		for i := range file.Processes {
			outcome, err := integrator.RunProcess(ctx, &file.Processes[i])
			tally(outcome, err, &created, &merged, &failed)
		}
		for i := range file.Sessions {
			outcome, err := integrator.RunSession(ctx, &file.Sessions[i])
			tally(outcome, err, &created, &merged, &failed)
		}
		for i := range file.Documents {
			outcome, err := integrator.RunDocument(ctx, &file.Documents[i])
			tally(outcome, err, &created, &merged, &failed)
		}
	}

	fmt.Printf("created %d, merged %d, failed %d\n", created, merged, failed)
	if importMetrics {
		summary, err := collector.Summary()
		if err != nil {
			return err
		}
		fmt.Print(summary)
	}
	if failed > 0 {
		return fmt.Errorf("%d record(s) not integrated", failed)
	}
	return nil
}

func tally(outcome merge.Outcome, err error, created, merged, failed *int) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		*failed++
		return
	}
	switch outcome {
	case merge.OutcomeCreated:
		*created++
	case merge.OutcomeMerged:
		*merged++
	}
}
