// Package merge implements the reconciliation engine: the arbiter that
// classifies matcher results, the upserter that creates or merges entity
// graphs, and the all-or-nothing transaction envelope around both.
//
// One top-level integration call opens one transaction, runs the full
// recursive match/merge cascade inside it, and commits only if every step
// succeeds. Any error at any depth rolls the whole submission back: it
// either fully lands or leaves no trace. Ambiguity is never auto-resolved;
// it aborts the transaction and is reported to the notifier.
package merge

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/openparl/kollator/internal/db"
	"github.com/openparl/kollator/internal/domain"
	"github.com/openparl/kollator/internal/match"
	"github.com/openparl/kollator/internal/metrics"
	"github.com/openparl/kollator/internal/notify"
)

// Outcome tells the caller whether the submission created a new entity or
// merged into an existing one. Nothing else about it needs branching.
type Outcome int

const (
	OutcomeCreated Outcome = iota + 1
	OutcomeMerged
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCreated:
		return "created"
	case OutcomeMerged:
		return "merged"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Integrator runs integrations. It performs no internal parallelism; each
// call owns its transaction for the full cascade. Concurrency across calls
// is the caller's business.
type Integrator struct {
	db       *db.DB
	notifier notify.Notifier
	metrics  metrics.Collector
}

// New creates an Integrator. A nil notifier discards events; a nil
// collector discards measurements.
func New(database *db.DB, n notify.Notifier, m metrics.Collector) *Integrator {
	if n == nil {
		n = notify.Noop{}
	}
	if m == nil {
		m = metrics.NewNoopCollector()
	}
	return &Integrator{db: database, notifier: n, metrics: m}
}

// run is the transaction envelope shared by the top-level integrations.
func (it *Integrator) run(ctx context.Context, entity string, fn func(tx *sql.Tx) (Outcome, error)) (Outcome, error) {
	start := time.Now()

	tx, err := it.db.BeginTx()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}

	outcome, err := fn(tx)
	if err != nil {
		tx.Rollback()
		// The rollback stands regardless of notification outcome.
		it.report(ctx, entity, err)
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		it.metrics.RecordError(ctx, entity, "store_failure")
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	it.metrics.RecordIntegration(ctx, entity, outcome.String(), time.Since(start).Milliseconds())
	return outcome, nil
}

// report classifies a failed integration for metrics and fires the
// ambiguity notification. Duplicate external ids are a client error and
// deliberately not reported to the notifier.
func (it *Integrator) report(ctx context.Context, entity string, err error) {
	var ambiguous *domain.AmbiguousMatchError
	if errors.As(err, &ambiguous) {
		it.notifier.AmbiguousMatch(ctx, ambiguous.Operation, ambiguous.Incoming, ambiguous.Candidates)
		it.metrics.RecordError(ctx, entity, "ambiguous_match")
		return
	}

	var duplicate *domain.DuplicateIDError
	if errors.As(err, &duplicate) {
		it.metrics.RecordError(ctx, entity, "duplicate_id")
		return
	}

	var missing *domain.MissingReferenceError
	if errors.As(err, &missing) {
		it.metrics.RecordError(ctx, entity, "missing_reference")
		return
	}

	it.metrics.RecordError(ctx, entity, "store_failure")
}

// arbitrate converts a matcher result into the two error dispatches. The
// create/merge dispatches stay with the caller.
func arbitrate(res match.Result, entityType, operation, externalID string, incoming any) error {
	switch res.Outcome {
	case match.ExactDuplicate:
		return &domain.DuplicateIDError{EntityType: entityType, ExternalID: externalID, Conflict: res.Conflict}
	case match.Ambiguous:
		return &domain.AmbiguousMatchError{
			EntityType: entityType,
			Operation:  operation,
			Candidates: res.UUIDs(),
			Incoming:   incoming,
		}
	}
	return nil
}

func strDeref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
