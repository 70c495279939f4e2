package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openparl/kollator/internal/store"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Dump stored entities",
}

var inspectProcessCmd = &cobra.Command{
	Use:   "process <external-id>",
	Short: "Dump a stored process with its full stage and document graph",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspectProcess,
}

var inspectSessionCmd = &cobra.Command{
	Use:   "session <external-id>",
	Short: "Dump a stored session with its agenda",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspectSession,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.AddCommand(inspectProcessCmd)
	inspectCmd.AddCommand(inspectSessionCmd)
}

func runInspectProcess(cmd *cobra.Command, args []string) error {
	app, err := bootstrap(cmd, true)
	if err != nil {
		return err
	}
	defer app.Close()

	process, err := store.GetProcessByExternalID(app.DB, args[0])
	if err != nil {
		return err
	}
	return app.renderer().Render(process)
}

func runInspectSession(cmd *cobra.Command, args []string) error {
	app, err := bootstrap(cmd, true)
	if err != nil {
		return err
	}
	defer app.Close()

	sessionUUID, _, _, err := store.FindSessionByExternalID(app.DB, args[0])
	if err != nil {
		return err
	}
	if sessionUUID == "" {
		return fmt.Errorf("session not found: %s", args[0])
	}
	session, err := store.GetSessionByUUID(app.DB, sessionUUID)
	if err != nil {
		return err
	}
	return app.renderer().Render(session)
}
