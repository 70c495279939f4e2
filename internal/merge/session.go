package merge

import (
	"context"
	"database/sql"

	"github.com/openparl/kollator/internal/domain"
	"github.com/openparl/kollator/internal/match"
	"github.com/openparl/kollator/internal/store"
)

// RunSession integrates one incoming committee session record.
func (it *Integrator) RunSession(ctx context.Context, rec *domain.Session) (Outcome, error) {
	if err := domain.ValidateSession(rec); err != nil {
		it.metrics.RecordError(ctx, "session", "validation")
		return 0, err
	}

	return it.run(ctx, "session", func(tx *sql.Tx) (Outcome, error) {
		res, err := match.FindSession(tx, rec)
		if err != nil {
			return 0, err
		}
		if err := arbitrate(res, "session", "session integration", strDeref(rec.ExternalID), rec); err != nil {
			return 0, err
		}

		if res.Outcome == match.OneMatch {
			return OutcomeMerged, it.mergeSession(ctx, tx, res.UUID, rec)
		}
		return OutcomeCreated, it.createSession(ctx, tx, rec)
	})
}

func (it *Integrator) createSession(ctx context.Context, tx *sql.Tx, rec *domain.Session) error {
	it.guardSession(ctx, rec)

	committeeUUID, err := match.ResolveCommittee(ctx, tx, it.notifier, &rec.Committee)
	if err != nil {
		return err
	}

	if err := store.InsertSession(tx, committeeUUID, rec); err != nil {
		return err
	}

	for i := range rec.AgendaItems {
		if err := it.createAgendaItem(ctx, tx, rec.UUID, &rec.AgendaItems[i]); err != nil {
			return err
		}
	}
	return nil
}

func (it *Integrator) mergeSession(ctx context.Context, tx *sql.Tx, sessionUUID string, rec *domain.Session) error {
	it.guardSession(ctx, rec)

	if err := store.UpdateSession(tx, sessionUUID, rec); err != nil {
		return err
	}

	// Agenda items are the one replace-wholesale exception to the union
	// policy: a non-empty incoming list supersedes everything stored, an
	// empty one leaves the stored items untouched.
	if len(rec.AgendaItems) == 0 {
		return nil
	}
	if err := store.DeleteAgendaItems(tx, sessionUUID); err != nil {
		return err
	}
	for i := range rec.AgendaItems {
		if err := it.createAgendaItem(ctx, tx, sessionUUID, &rec.AgendaItems[i]); err != nil {
			return err
		}
	}
	return nil
}

func (it *Integrator) createAgendaItem(ctx context.Context, tx *sql.Tx, sessionUUID string, item *domain.AgendaItem) error {
	if err := store.InsertAgendaItem(tx, sessionUUID, item); err != nil {
		return err
	}
	for i := range item.Documents {
		documentUUID, err := it.upsertDocument(ctx, tx, &item.Documents[i], "agenda item document integration")
		if err != nil {
			return err
		}
		if err := store.AssociateAgendaItemDocument(tx, item.UUID, documentUUID); err != nil {
			return err
		}
	}
	return nil
}

func (it *Integrator) guardSession(ctx context.Context, rec *domain.Session) {
	domain.GuardCategory(ctx, it.notifier, strDeref(rec.ExternalID), "committee.parliament", rec.Committee.Parliament)
}
