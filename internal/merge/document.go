package merge

import (
	"context"
	"database/sql"

	"github.com/openparl/kollator/internal/domain"
	"github.com/openparl/kollator/internal/match"
	"github.com/openparl/kollator/internal/store"
)

// RunDocument integrates one top-level document record.
func (it *Integrator) RunDocument(ctx context.Context, rec *domain.Document) (Outcome, error) {
	if err := domain.ValidateDocument(rec); err != nil {
		it.metrics.RecordError(ctx, "document", "validation")
		return 0, err
	}

	return it.run(ctx, "document", func(tx *sql.Tx) (Outcome, error) {
		if rec.IsReference() {
			documentUUID, err := store.GetDocumentUUIDByExternalID(tx, *rec.ExternalID)
			if err != nil {
				return 0, err
			}
			if documentUUID == "" {
				return 0, &domain.MissingReferenceError{EntityType: "document", Reference: *rec.ExternalID}
			}
			rec.UUID = documentUUID
			return OutcomeMerged, nil
		}

		it.guardDocument(ctx, rec)

		res, err := match.FindDocument(tx, rec)
		if err != nil {
			return 0, err
		}
		if err := arbitrate(res, "document", "document integration", strDeref(rec.ExternalID), rec); err != nil {
			return 0, err
		}

		if res.Outcome == match.OneMatch {
			rec.UUID = res.UUID
			return OutcomeMerged, store.UpdateDocument(tx, res.UUID, rec)
		}
		return OutcomeCreated, store.InsertDocument(tx, rec)
	})
}

// upsertDocument persists a document encountered while merging a parent,
// reusing any stored row the match keys (hash first) already name. A pure
// external-id reference must already be stored.
func (it *Integrator) upsertDocument(ctx context.Context, tx *sql.Tx, d *domain.Document, operation string) (string, error) {
	if d.IsReference() {
		documentUUID, err := store.GetDocumentUUIDByExternalID(tx, *d.ExternalID)
		if err != nil {
			return "", err
		}
		if documentUUID == "" {
			return "", &domain.MissingReferenceError{EntityType: "document", Reference: *d.ExternalID}
		}
		d.UUID = documentUUID
		return documentUUID, nil
	}

	it.guardDocument(ctx, d)

	res, err := match.FindDocument(tx, d)
	if err != nil {
		return "", err
	}
	if err := arbitrate(res, "document", operation, strDeref(d.ExternalID), d); err != nil {
		return "", err
	}

	if res.Outcome == match.OneMatch {
		d.UUID = res.UUID
		return res.UUID, store.UpdateDocument(tx, res.UUID, d)
	}

	if err := store.InsertDocument(tx, d); err != nil {
		return "", err
	}
	return d.UUID, nil
}

func (it *Integrator) guardDocument(ctx context.Context, d *domain.Document) {
	domain.GuardCategory(ctx, it.notifier, strDeref(d.ExternalID), "document.type", d.Type)
}
