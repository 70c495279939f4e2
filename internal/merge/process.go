package merge

import (
	"context"
	"database/sql"

	"github.com/openparl/kollator/internal/domain"
	"github.com/openparl/kollator/internal/match"
	"github.com/openparl/kollator/internal/store"
)

// RunProcess integrates one incoming process record: match, arbitrate,
// then create a new process graph or merge into the stored one, all inside
// a single transaction.
func (it *Integrator) RunProcess(ctx context.Context, rec *domain.Process) (Outcome, error) {
	if err := domain.ValidateProcess(rec); err != nil {
		it.metrics.RecordError(ctx, "process", "validation")
		return 0, err
	}

	return it.run(ctx, "process", func(tx *sql.Tx) (Outcome, error) {
		res, err := match.FindProcess(tx, rec)
		if err != nil {
			return 0, err
		}
		if err := arbitrate(res, "process", "process integration", rec.ExternalID, rec); err != nil {
			return 0, err
		}

		if res.Outcome == match.OneMatch {
			return OutcomeMerged, it.mergeProcess(ctx, tx, res.UUID, rec)
		}
		return OutcomeCreated, it.createProcess(ctx, tx, rec)
	})
}

func (it *Integrator) createProcess(ctx context.Context, tx *sql.Tx, rec *domain.Process) error {
	it.guardProcess(ctx, rec)

	if err := store.InsertProcess(tx, rec); err != nil {
		return err
	}

	// Owned stages still run through full matching: a nested document may
	// already be stored even though its parent stage is new.
	for i := range rec.Stages {
		if err := it.upsertStage(ctx, tx, rec.UUID, &rec.Stages[i]); err != nil {
			return err
		}
	}
	return nil
}

func (it *Integrator) mergeProcess(ctx context.Context, tx *sql.Tx, processUUID string, rec *domain.Process) error {
	it.guardProcess(ctx, rec)

	if err := store.UpdateProcess(tx, processUUID, rec); err != nil {
		return err
	}
	if err := store.AddProcessIdentifiers(tx, processUUID, rec.Identifiers); err != nil {
		return err
	}
	if err := store.AddProcessInitiators(tx, processUUID, rec.Initiators); err != nil {
		return err
	}
	if err := store.AddProcessLinks(tx, processUUID, rec.Links); err != nil {
		return err
	}

	// Append/merge-only: stages absent from the submission stay untouched.
	for i := range rec.Stages {
		if err := it.upsertStage(ctx, tx, processUUID, &rec.Stages[i]); err != nil {
			return err
		}
	}
	return nil
}

func (it *Integrator) upsertStage(ctx context.Context, tx *sql.Tx, processUUID string, s *domain.Stage) error {
	res, err := match.FindStage(tx, processUUID, s)
	if err != nil {
		return err
	}
	if err := arbitrate(res, "stage", "stage integration", strDeref(s.ExternalID), s); err != nil {
		return err
	}

	if res.Outcome == match.OneMatch {
		return it.mergeStage(ctx, tx, res.UUID, s)
	}
	return it.createStage(ctx, tx, processUUID, s)
}

func (it *Integrator) createStage(ctx context.Context, tx *sql.Tx, processUUID string, s *domain.Stage) error {
	it.guardStage(ctx, s)

	var committeeUUID *string
	if s.Committee != nil {
		u, err := match.ResolveCommittee(ctx, tx, it.notifier, s.Committee)
		if err != nil {
			return err
		}
		committeeUUID = &u
	}

	if err := store.InsertStage(tx, processUUID, committeeUUID, s); err != nil {
		return err
	}

	for i := range s.Documents {
		if err := it.upsertStageDocument(ctx, tx, s.UUID, &s.Documents[i]); err != nil {
			return err
		}
	}
	for i := range s.Opinions {
		if err := it.upsertOpinion(ctx, tx, s.UUID, &s.Opinions[i]); err != nil {
			return err
		}
	}
	return nil
}

func (it *Integrator) mergeStage(ctx context.Context, tx *sql.Tx, stageUUID string, s *domain.Stage) error {
	it.guardStage(ctx, s)

	var committeeUUID *string
	if s.Committee != nil {
		u, err := match.ResolveCommittee(ctx, tx, it.notifier, s.Committee)
		if err != nil {
			return err
		}
		committeeUUID = &u
	}

	if err := store.UpdateStage(tx, stageUUID, committeeUUID, s); err != nil {
		return err
	}
	if err := store.AddStageKeywords(tx, stageUUID, s.Keywords); err != nil {
		return err
	}

	for i := range s.Documents {
		if err := it.upsertStageDocument(ctx, tx, stageUUID, &s.Documents[i]); err != nil {
			return err
		}
	}
	for i := range s.Opinions {
		if err := it.upsertOpinion(ctx, tx, stageUUID, &s.Opinions[i]); err != nil {
			return err
		}
	}
	return nil
}

func (it *Integrator) upsertStageDocument(ctx context.Context, tx *sql.Tx, stageUUID string, d *domain.Document) error {
	documentUUID, err := it.upsertDocument(ctx, tx, d, "stage document integration")
	if err != nil {
		return err
	}
	return store.AssociateStageDocument(tx, stageUUID, documentUUID)
}

func (it *Integrator) upsertOpinion(ctx context.Context, tx *sql.Tx, stageUUID string, o *domain.Opinion) error {
	documentUUID, err := it.upsertDocument(ctx, tx, &o.Document, "opinion document integration")
	if err != nil {
		return err
	}

	existing, err := store.GetOpinion(tx, stageUUID, documentUUID)
	if err != nil {
		return err
	}
	if existing != "" {
		return store.UpdateOpinion(tx, existing, o)
	}
	return store.InsertOpinion(tx, stageUUID, documentUUID, o)
}

func (it *Integrator) guardProcess(ctx context.Context, rec *domain.Process) {
	domain.GuardCategory(ctx, it.notifier, rec.ExternalID, "process.type", rec.Type)
	for _, id := range rec.Identifiers {
		domain.GuardCategory(ctx, it.notifier, rec.ExternalID, "process.identifier.kind", id.Kind)
	}
}

func (it *Integrator) guardStage(ctx context.Context, s *domain.Stage) {
	domain.GuardCategory(ctx, it.notifier, strDeref(s.ExternalID), "stage.type", s.Type)
	if s.Committee != nil {
		domain.GuardCategory(ctx, it.notifier, s.Committee.Name, "committee.parliament", s.Committee.Parliament)
	}
}
