package cli

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/openparl/kollator/internal/domain"
	"github.com/openparl/kollator/internal/render"
	"github.com/openparl/kollator/internal/store"
)

var notificationsCmd = &cobra.Command{
	Use:   "notifications",
	Short: "List review notifications",
	Long: `Lists notifications written by the merge engine: ambiguous matches,
near-miss committee names, and unknown categorical values. Ambiguity
notifications survive the rollback of the integration that produced
them, so this is the queue for manual review.`,
	RunE: runNotifications,
}

var (
	notificationsKind  string
	notificationsLimit int
)

var notificationsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one notification, diffing an ambiguous record against its candidates",
	Args:  cobra.ExactArgs(1),
	RunE:  runNotificationsShow,
}

func init() {
	rootCmd.AddCommand(notificationsCmd)
	notificationsCmd.AddCommand(notificationsShowCmd)
	notificationsCmd.Flags().StringVar(&notificationsKind, "kind", "", "Filter by kind (ambiguous_match, new_enum_entry, unknown_category)")
	notificationsCmd.Flags().IntVar(&notificationsLimit, "limit", 50, "Maximum number of notifications to show")
}

type notificationRow struct {
	ID         int64
	Kind       string
	Operation  sql.NullString
	EntityID   sql.NullString
	Field      sql.NullString
	Value      sql.NullString
	Candidates sql.NullString
	Similar    sql.NullString
	CreatedAt  string
}

func runNotifications(cmd *cobra.Command, args []string) error {
	app, err := bootstrap(cmd, true)
	if err != nil {
		return err
	}
	defer app.Close()

	query := `
		SELECT id, kind, operation, entity_id, field, value, candidates, similar, created_at
		FROM notifications
	`
	var queryArgs []any
	if notificationsKind != "" {
		query += " WHERE kind = ?"
		queryArgs = append(queryArgs, notificationsKind)
	}
	query += " ORDER BY id DESC LIMIT ?"
	queryArgs = append(queryArgs, notificationsLimit)

	rows, err := app.DB.Query(query, queryArgs...)
	if err != nil {
		return fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tKIND\tCREATED\tDETAIL")
	for rows.Next() {
		var n notificationRow
		if err := rows.Scan(&n.ID, &n.Kind, &n.Operation, &n.EntityID, &n.Field, &n.Value, &n.Candidates, &n.Similar, &n.CreatedAt); err != nil {
			return fmt.Errorf("failed to scan notification: %w", err)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", n.ID, n.Kind, n.CreatedAt, detail(&n))
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating notifications: %w", err)
	}
	return w.Flush()
}

func runNotificationsShow(cmd *cobra.Command, args []string) error {
	app, err := bootstrap(cmd, true)
	if err != nil {
		return err
	}
	defer app.Close()

	var n notificationRow
	var payload sql.NullString
	err = app.DB.QueryRow(`
		SELECT id, kind, operation, entity_id, field, value, candidates, similar, payload, created_at
		FROM notifications WHERE id = ?
	`, args[0]).Scan(&n.ID, &n.Kind, &n.Operation, &n.EntityID, &n.Field, &n.Value, &n.Candidates, &n.Similar, &payload, &n.CreatedAt)
	if err == sql.ErrNoRows {
		return fmt.Errorf("notification not found: %s", args[0])
	}
	if err != nil {
		return fmt.Errorf("failed to load notification: %w", err)
	}

	fmt.Printf("#%d %s (%s)\n", n.ID, n.Kind, n.CreatedAt)
	if n.Kind != "ambiguous_match" || !payload.Valid {
		fmt.Println(detail(&n))
		return nil
	}

	incoming, err := decodeIncoming(n.Operation.String, payload.String)
	if err != nil {
		return err
	}

	for _, candidateUUID := range strings.Split(n.Candidates.String, ",") {
		candidate, err := loadCandidate(app, n.Operation.String, candidateUUID)
		if err != nil {
			// Candidates can disappear between the notification and the
			// review; report and keep going.
			fmt.Printf("candidate %s: %v\n", candidateUUID, err)
			continue
		}
		if candidate == nil {
			fmt.Printf("candidate %s: not renderable for this operation\n", candidateUUID)
			continue
		}
		diff, err := render.CandidateDiff(incoming, candidate, candidateUUID)
		if err != nil {
			return err
		}
		fmt.Print(diff)
	}
	return nil
}

// decodeIncoming rehydrates the recorded payload into its domain type so the
// diff lines up field-for-field with the stored candidate.
func decodeIncoming(operation, payload string) (any, error) {
	// Document operations include the nested ones ("stage document
	// integration" etc.), so they are checked first.
	var target any
	switch {
	case strings.Contains(operation, "document"):
		target = &domain.Document{}
	case strings.HasPrefix(operation, "process"):
		target = &domain.Process{}
	case strings.HasPrefix(operation, "session"):
		target = &domain.Session{}
	default:
		target = &domain.Stage{}
	}
	if err := json.Unmarshal([]byte(payload), target); err != nil {
		return nil, fmt.Errorf("failed to decode recorded payload: %w", err)
	}
	return target, nil
}

func loadCandidate(app *App, operation, candidateUUID string) (any, error) {
	switch {
	case strings.Contains(operation, "document"):
		return store.GetDocumentByUUID(app.DB, candidateUUID)
	case strings.HasPrefix(operation, "process"):
		return store.GetProcessByUUID(app.DB, candidateUUID)
	case strings.HasPrefix(operation, "session"):
		return store.GetSessionByUUID(app.DB, candidateUUID)
	default:
		// Stages are only reachable through their process; show nothing
		// rather than a misleading partial row.
		return nil, nil
	}
}

func detail(n *notificationRow) string {
	switch n.Kind {
	case "ambiguous_match":
		return fmt.Sprintf("%s candidates=%s", n.Operation.String, n.Candidates.String)
	case "new_enum_entry":
		return fmt.Sprintf("%q similar to %s", n.Value.String, n.Similar.String)
	case "unknown_category":
		return fmt.Sprintf("%s=%q entity=%s", n.Field.String, n.Value.String, n.EntityID.String)
	default:
		return ""
	}
}
