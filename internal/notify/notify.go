// Package notify carries "human attention needed" events out of the merge
// engine: ambiguous matches, near-miss committee names, and categorical
// values that fell into the catch-all bucket.
//
// Notification is best-effort and decoupled from the data-integrity
// guarantees of a merge: a failed notification never fails the operation,
// and the log writer runs on the raw database handle so ambiguity reports
// survive the rollback of the transaction that produced them.
package notify

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"strings"
)

// Notifier receives structured events the merge engine cannot act on by
// itself. Implementations must treat every call as fire-and-forget.
type Notifier interface {
	// AmbiguousMatch reports that the operation found two or more stored
	// candidates for the incoming record.
	AmbiguousMatch(ctx context.Context, operation string, incoming any, candidateUUIDs []string)
	// NewEnumEntry reports that an enumerated value (a committee name) is
	// about to be created although similar entries already exist.
	NewEnumEntry(ctx context.Context, value string, similar []string)
	// UnknownCategory reports a categorical field that mapped to the
	// catch-all bucket.
	UnknownCategory(ctx context.Context, entityID, field, value string)
}

// Writer appends notifications to the notifications table. It is bound to
// the raw *sql.DB, never to a transaction, so rows survive a rolled-back
// integration.
type Writer struct {
	db *sql.DB
}

// NewWriter creates a notification writer on the given database handle.
func NewWriter(db *sql.DB) *Writer {
	return &Writer{db: db}
}

func (w *Writer) AmbiguousMatch(ctx context.Context, operation string, incoming any, candidateUUIDs []string) {
	payload, err := json.Marshal(incoming)
	if err != nil {
		log.Printf("notify: failed to marshal incoming record: %v", err)
		payload = nil
	}
	w.insert(ctx, "ambiguous_match", map[string]any{
		"operation":  operation,
		"candidates": strings.Join(candidateUUIDs, ","),
		"payload":    nullable(string(payload)),
	})
}

func (w *Writer) NewEnumEntry(ctx context.Context, value string, similar []string) {
	w.insert(ctx, "new_enum_entry", map[string]any{
		"value":   value,
		"similar": strings.Join(similar, ","),
	})
}

func (w *Writer) UnknownCategory(ctx context.Context, entityID, field, value string) {
	w.insert(ctx, "unknown_category", map[string]any{
		"entity_id": entityID,
		"field":     field,
		"value":     value,
	})
}

func (w *Writer) insert(ctx context.Context, kind string, cols map[string]any) {
	names := []string{"kind"}
	args := []any{kind}
	placeholders := []string{"?"}
	for _, name := range []string{"operation", "entity_id", "field", "value", "candidates", "similar", "payload"} {
		if v, ok := cols[name]; ok {
			names = append(names, name)
			args = append(args, v)
			placeholders = append(placeholders, "?")
		}
	}

	query := "INSERT INTO notifications (" + strings.Join(names, ", ") + ") VALUES (" + strings.Join(placeholders, ", ") + ")"
	if _, err := w.db.ExecContext(ctx, query, args...); err != nil {
		// Best-effort: a failed notification must not fail the merge.
		log.Printf("notify: failed to write %s notification: %v", kind, err)
	}
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
