package merge_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/openparl/kollator/internal/db"
	"github.com/openparl/kollator/internal/domain"
	"github.com/openparl/kollator/internal/merge"
	"github.com/openparl/kollator/internal/notify"
	"github.com/openparl/kollator/internal/store"
	"github.com/openparl/kollator/internal/testutil"
)

func strPtr(s string) *string { return &s }

func count(t *testing.T, database *db.DB, table string) int {
	t.Helper()
	var n int
	if err := database.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
		t.Fatalf("failed to count %s: %v", table, err)
	}
	return n
}

func sampleProcess() *domain.Process {
	foreword := "Der Bundestag hat das folgende Gesetz beschlossen"
	return &domain.Process{
		ExternalID:        "P-2024-001",
		Title:             "Gesetz zur Änderung des Beispielgesetzes",
		LegislativePeriod: 20,
		Type:              domain.ProcessTypeConsentBill,
		Identifiers: []domain.Identifier{
			{Kind: domain.IdentifierInitiativePrint, Value: "20/1234"},
		},
		Initiators: []string{"Bundesregierung"},
		Stages: []domain.Stage{{
			ExternalID: strPtr("S-1"),
			Type:       domain.StageParlInitiative,
			StartedAt:  time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
			Keywords:   []string{"beispiel"},
			Documents: []domain.Document{{
				Type:     domain.DocumentTypeDraft,
				Title:    "Gesetzentwurf",
				Hash:     "hash-entwurf-1",
				Foreword: &foreword,
			}},
		}},
	}
}

func TestProcessCreateThenIdempotentMerge(t *testing.T) {
	database := testutil.TempDB(t)
	it := merge.New(database, nil, nil)
	ctx := context.Background()

	outcome, err := it.RunProcess(ctx, sampleProcess())
	if err != nil {
		t.Fatalf("first RunProcess failed: %v", err)
	}
	if outcome != merge.OutcomeCreated {
		t.Errorf("first run = %v, want created", outcome)
	}

	// Same submission again: merges into the stored graph without growth.
	outcome, err = it.RunProcess(ctx, sampleProcess())
	if err != nil {
		t.Fatalf("second RunProcess failed: %v", err)
	}
	if outcome != merge.OutcomeMerged {
		t.Errorf("second run = %v, want merged", outcome)
	}

	if n := count(t, database, "processes"); n != 1 {
		t.Errorf("processes = %d, want 1", n)
	}
	if n := count(t, database, "stages"); n != 1 {
		t.Errorf("stages = %d, want 1", n)
	}
	if n := count(t, database, "documents"); n != 1 {
		t.Errorf("documents = %d, want 1", n)
	}

	got, err := store.GetProcessByExternalID(database, "P-2024-001")
	if err != nil {
		t.Fatalf("GetProcessByExternalID failed: %v", err)
	}
	if len(got.Identifiers) != 1 || len(got.Stages) != 1 || len(got.Stages[0].Documents) != 1 {
		t.Errorf("graph grew on idempotent resubmission: %+v", got)
	}
}

func TestProcessMergeGrowsSetsMonotonically(t *testing.T) {
	database := testutil.TempDB(t)
	it := merge.New(database, nil, nil)
	ctx := context.Background()

	if _, err := it.RunProcess(ctx, sampleProcess()); err != nil {
		t.Fatalf("RunProcess failed: %v", err)
	}

	// A second collector knows the process under another external id but
	// shares a typed identifier; its additions merge into the stored row.
	second := sampleProcess()
	second.ExternalID = "BT-XY-99"
	second.ShortTitle = strPtr("Beispieländerung")
	second.Identifiers = append(second.Identifiers, domain.Identifier{
		Kind: domain.IdentifierProcessNumber, Value: "V-777",
	})
	second.Initiators = []string{"Bundesrat"}

	outcome, err := it.RunProcess(ctx, second)
	if err != nil {
		t.Fatalf("RunProcess failed: %v", err)
	}
	if outcome != merge.OutcomeMerged {
		t.Fatalf("outcome = %v, want merged", outcome)
	}
	if n := count(t, database, "processes"); n != 1 {
		t.Fatalf("processes = %d, want 1", n)
	}

	got, err := store.GetProcessByExternalID(database, "P-2024-001")
	if err != nil {
		t.Fatalf("GetProcessByExternalID failed: %v", err)
	}
	if len(got.Identifiers) != 2 {
		t.Errorf("identifiers = %v, want union of both submissions", got.Identifiers)
	}
	if len(got.Initiators) != 2 {
		t.Errorf("initiators = %v, want union of both submissions", got.Initiators)
	}
	if got.ShortTitle == nil || *got.ShortTitle != "Beispieländerung" {
		t.Errorf("short title = %v, want coalesced in", got.ShortTitle)
	}
}

func TestProcessResubmissionGrowsIdentifierSet(t *testing.T) {
	database := testutil.TempDB(t)
	it := merge.New(database, nil, nil)
	ctx := context.Background()

	if _, err := it.RunProcess(ctx, sampleProcess()); err != nil {
		t.Fatalf("RunProcess failed: %v", err)
	}

	// Same external id, one previously unseen identifier, nothing else new.
	resubmission := sampleProcess()
	resubmission.Identifiers = append(resubmission.Identifiers, domain.Identifier{
		Kind: domain.IdentifierAPI, Value: "api-0042",
	})
	outcome, err := it.RunProcess(ctx, resubmission)
	if err != nil {
		t.Fatalf("RunProcess failed: %v", err)
	}
	if outcome != merge.OutcomeMerged {
		t.Fatalf("outcome = %v, want merged", outcome)
	}

	got, err := store.GetProcessByExternalID(database, "P-2024-001")
	if err != nil {
		t.Fatalf("GetProcessByExternalID failed: %v", err)
	}
	if len(got.Identifiers) != 2 {
		t.Errorf("identifiers = %v, want grown by one", got.Identifiers)
	}
	if got.Title != sampleProcess().Title || len(got.Stages) != 1 {
		t.Errorf("resubmission changed unrelated fields: %+v", got)
	}
}

func TestProcessForewordMatchUnionsStageKeywords(t *testing.T) {
	database := testutil.TempDB(t)
	it := merge.New(database, nil, nil)
	ctx := context.Background()

	if _, err := it.RunProcess(ctx, sampleProcess()); err != nil {
		t.Fatalf("RunProcess failed: %v", err)
	}

	// A collector that knows neither the external id nor the identifiers:
	// the near-identical draft foreword is what ties the submissions
	// together. The incoming stage merges by document-hash overlap and its
	// keywords union into the stored set.
	foreword := "Der Bundestag hat das folgende Gesetz beschlossen."
	second := &domain.Process{
		ExternalID:        "LAND-P-77",
		Title:             "Gesetz zur Änderung des Beispielgesetzes",
		LegislativePeriod: 20,
		Type:              domain.ProcessTypeConsentBill,
		Stages: []domain.Stage{{
			Type:      domain.StageParlInitiative,
			StartedAt: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
			Keywords:  []string{"änderung"},
			Documents: []domain.Document{{
				Type:     domain.DocumentTypeDraft,
				Title:    "Gesetzentwurf",
				Hash:     "hash-entwurf-1",
				Foreword: &foreword,
			}},
		}},
	}
	outcome, err := it.RunProcess(ctx, second)
	if err != nil {
		t.Fatalf("RunProcess failed: %v", err)
	}
	if outcome != merge.OutcomeMerged {
		t.Fatalf("outcome = %v, want merged via foreword similarity", outcome)
	}
	if n := count(t, database, "processes"); n != 1 {
		t.Fatalf("processes = %d, want 1", n)
	}

	got, err := store.GetProcessByExternalID(database, "P-2024-001")
	if err != nil {
		t.Fatalf("GetProcessByExternalID failed: %v", err)
	}
	if len(got.Stages) != 1 {
		t.Fatalf("stages = %d, want the incoming stage merged, not appended", len(got.Stages))
	}
	keywords := got.Stages[0].Keywords
	if len(keywords) != 2 {
		t.Errorf("stage keywords = %v, want union of both submissions", keywords)
	}
}

func TestProcessDuplicateExternalID(t *testing.T) {
	database := testutil.TempDB(t)
	recorder := &notify.Recorder{}
	it := merge.New(database, recorder, nil)
	ctx := context.Background()

	if _, err := it.RunProcess(ctx, sampleProcess()); err != nil {
		t.Fatalf("RunProcess failed: %v", err)
	}

	// Same external id, conflicting legislative period.
	conflicting := sampleProcess()
	conflicting.LegislativePeriod = 19

	_, err := it.RunProcess(ctx, conflicting)
	var dup *domain.DuplicateIDError
	if !errors.As(err, &dup) {
		t.Fatalf("got %v, want DuplicateIDError", err)
	}
	if dup.ExternalID != "P-2024-001" {
		t.Errorf("error names %q, want the submitted external id", dup.ExternalID)
	}

	// A duplicate id is a client error, not a review case.
	if events := recorder.Events(); len(events) != 0 {
		t.Errorf("recorded %d notifications, want none", len(events))
	}

	got, err := store.GetProcessByExternalID(database, "P-2024-001")
	if err != nil {
		t.Fatalf("GetProcessByExternalID failed: %v", err)
	}
	if got.LegislativePeriod != 20 {
		t.Errorf("stored process was modified by the rejected submission")
	}
}

func TestAmbiguityRollsBackAndNotifiesOnce(t *testing.T) {
	database := testutil.TempDB(t)
	recorder := &notify.Recorder{}
	it := merge.New(database, recorder, nil)
	ctx := context.Background()

	// Two stored processes share the typed identifier.
	id := domain.Identifier{Kind: domain.IdentifierInitiativePrint, Value: "20/1234"}
	for _, ext := range []string{"P-1", "P-2"} {
		p := &domain.Process{ExternalID: ext, Title: "T " + ext, LegislativePeriod: 20,
			Type: domain.ProcessTypeConsentBill, Identifiers: []domain.Identifier{id}}
		if err := store.InsertProcess(database, p); err != nil {
			t.Fatalf("InsertProcess failed: %v", err)
		}
	}

	incoming := &domain.Process{
		ExternalID: "P-3", Title: "T3", LegislativePeriod: 20,
		Type: domain.ProcessTypeConsentBill, Identifiers: []domain.Identifier{id},
		Initiators: []string{"Fraktion"},
	}
	_, err := it.RunProcess(ctx, incoming)
	var ambiguous *domain.AmbiguousMatchError
	if !errors.As(err, &ambiguous) {
		t.Fatalf("got %v, want AmbiguousMatchError", err)
	}
	if len(ambiguous.Candidates) != 2 {
		t.Errorf("candidates = %v, want 2", ambiguous.Candidates)
	}

	// Fully rolled back: no third process, no initiator rows.
	if n := count(t, database, "processes"); n != 2 {
		t.Errorf("processes = %d, want 2", n)
	}
	if n := count(t, database, "process_initiators"); n != 0 {
		t.Errorf("process_initiators = %d, want 0", n)
	}

	events := recorder.ByKind("ambiguous_match")
	if len(events) != 1 {
		t.Fatalf("recorded %d ambiguity notifications, want exactly 1", len(events))
	}
	if len(events[0].Candidates) != 2 || events[0].Operation != "process integration" {
		t.Errorf("notification = %+v", events[0])
	}
}

func TestAmbiguityNotificationSurvivesRollback(t *testing.T) {
	database := testutil.TempDB(t)
	// The writer runs on the raw handle, outside the integration tx.
	it := merge.New(database, notify.NewWriter(database.DB), nil)
	ctx := context.Background()

	id := domain.Identifier{Kind: domain.IdentifierInitiativePrint, Value: "20/1234"}
	for _, ext := range []string{"P-1", "P-2"} {
		p := &domain.Process{ExternalID: ext, Title: "T", LegislativePeriod: 20,
			Type: domain.ProcessTypeConsentBill, Identifiers: []domain.Identifier{id}}
		if err := store.InsertProcess(database, p); err != nil {
			t.Fatalf("InsertProcess failed: %v", err)
		}
	}

	_, err := it.RunProcess(ctx, &domain.Process{
		ExternalID: "P-3", Title: "T3", LegislativePeriod: 20,
		Type: domain.ProcessTypeConsentBill, Identifiers: []domain.Identifier{id},
	})
	if err == nil {
		t.Fatal("expected ambiguity error")
	}

	var kind string
	if err := database.QueryRow("SELECT kind FROM notifications").Scan(&kind); err != nil {
		t.Fatalf("no notification row after rollback: %v", err)
	}
	if kind != "ambiguous_match" {
		t.Errorf("kind = %q, want ambiguous_match", kind)
	}
}

func TestDocumentHashIdentity(t *testing.T) {
	database := testutil.TempDB(t)
	it := merge.New(database, nil, nil)
	ctx := context.Background()

	first := &domain.Document{Type: domain.DocumentTypeDraft, Title: "Entwurf", Hash: "h1"}
	outcome, err := it.RunDocument(ctx, first)
	if err != nil {
		t.Fatalf("RunDocument failed: %v", err)
	}
	if outcome != merge.OutcomeCreated {
		t.Errorf("first run = %v, want created", outcome)
	}

	// Same content under a new external id: the hash wins, the id coalesces in.
	second := &domain.Document{
		ExternalID: strPtr("D-1"), Type: domain.DocumentTypeDraft,
		Title: "Entwurf", Hash: "h1", Keywords: []string{"steuer"},
	}
	outcome, err = it.RunDocument(ctx, second)
	if err != nil {
		t.Fatalf("RunDocument failed: %v", err)
	}
	if outcome != merge.OutcomeMerged {
		t.Errorf("second run = %v, want merged", outcome)
	}
	if n := count(t, database, "documents"); n != 1 {
		t.Fatalf("documents = %d, want 1", n)
	}

	got, err := store.GetDocumentByUUID(database, first.UUID)
	if err != nil {
		t.Fatalf("GetDocumentByUUID failed: %v", err)
	}
	if got.ExternalID == nil || *got.ExternalID != "D-1" {
		t.Errorf("external id = %v, want coalesced in", got.ExternalID)
	}
	if len(got.Keywords) != 1 {
		t.Errorf("keywords = %v, want unioned", got.Keywords)
	}
}

func TestDocumentMissingReference(t *testing.T) {
	database := testutil.TempDB(t)
	it := merge.New(database, nil, nil)
	ctx := context.Background()

	_, err := it.RunDocument(ctx, &domain.Document{ExternalID: strPtr("D-404")})
	var missing *domain.MissingReferenceError
	if !errors.As(err, &missing) {
		t.Fatalf("got %v, want MissingReferenceError", err)
	}
	if missing.Reference != "D-404" {
		t.Errorf("error names %q, want the dangling reference", missing.Reference)
	}
}

func TestDocumentReferenceResolves(t *testing.T) {
	database := testutil.TempDB(t)
	it := merge.New(database, nil, nil)
	ctx := context.Background()

	full := &domain.Document{ExternalID: strPtr("D-1"), Type: domain.DocumentTypeDraft, Title: "A", Hash: "h1"}
	if _, err := it.RunDocument(ctx, full); err != nil {
		t.Fatalf("RunDocument failed: %v", err)
	}

	ref := &domain.Document{ExternalID: strPtr("D-1")}
	outcome, err := it.RunDocument(ctx, ref)
	if err != nil {
		t.Fatalf("RunDocument failed: %v", err)
	}
	if outcome != merge.OutcomeMerged {
		t.Errorf("outcome = %v, want merged", outcome)
	}
	if ref.UUID != full.UUID {
		t.Errorf("reference resolved to %q, want %q", ref.UUID, full.UUID)
	}
}

func TestNestedDocumentSharedAcrossStages(t *testing.T) {
	database := testutil.TempDB(t)
	it := merge.New(database, nil, nil)
	ctx := context.Background()

	if _, err := it.RunProcess(ctx, sampleProcess()); err != nil {
		t.Fatalf("RunProcess failed: %v", err)
	}

	// A later stage of the same process carries the same document.
	second := sampleProcess()
	second.Stages = append(second.Stages, domain.Stage{
		ExternalID: strPtr("S-2"),
		Type:       domain.StagePlenaryReading,
		StartedAt:  time.Date(2024, 4, 10, 9, 0, 0, 0, time.UTC),
		Documents: []domain.Document{{
			Type: domain.DocumentTypeDraft, Title: "Gesetzentwurf", Hash: "hash-entwurf-1",
		}},
	})
	if _, err := it.RunProcess(ctx, second); err != nil {
		t.Fatalf("RunProcess failed: %v", err)
	}

	if n := count(t, database, "documents"); n != 1 {
		t.Errorf("documents = %d, want the row shared across stages", n)
	}
	if n := count(t, database, "stage_documents"); n != 2 {
		t.Errorf("stage_documents = %d, want 2 associations", n)
	}
	if n := count(t, database, "stages"); n != 2 {
		t.Errorf("stages = %d, want 2", n)
	}
}

func TestOpinionUpsert(t *testing.T) {
	database := testutil.TempDB(t)
	it := merge.New(database, nil, nil)
	ctx := context.Background()

	p := sampleProcess()
	p.Stages[0].Opinions = []domain.Opinion{{
		Valence:  -1,
		Document: domain.Document{Type: domain.DocumentTypeStatement, Title: "Stellungnahme", Hash: "h-stn"},
	}}
	if _, err := it.RunProcess(ctx, p); err != nil {
		t.Fatalf("RunProcess failed: %v", err)
	}

	// Resubmission updates the stance instead of duplicating it.
	p2 := sampleProcess()
	p2.Stages[0].Opinions = []domain.Opinion{{
		Valence:      1,
		RegisterLink: strPtr("https://example.org/register/1"),
		Document:     domain.Document{Type: domain.DocumentTypeStatement, Title: "Stellungnahme", Hash: "h-stn"},
	}}
	if _, err := it.RunProcess(ctx, p2); err != nil {
		t.Fatalf("RunProcess failed: %v", err)
	}

	if n := count(t, database, "opinions"); n != 1 {
		t.Fatalf("opinions = %d, want 1", n)
	}

	got, err := store.GetProcessByExternalID(database, "P-2024-001")
	if err != nil {
		t.Fatalf("GetProcessByExternalID failed: %v", err)
	}
	ops := got.Stages[0].Opinions
	if len(ops) != 1 || ops[0].Valence != 1 {
		t.Errorf("opinions = %+v, want updated valence", ops)
	}
	if ops[0].RegisterLink == nil || *ops[0].RegisterLink != "https://example.org/register/1" {
		t.Errorf("register link = %v, want coalesced in", ops[0].RegisterLink)
	}
}

func sampleSession() *domain.Session {
	return &domain.Session{
		ExternalID:  strPtr("AS-1"),
		ScheduledAt: time.Date(2024, 5, 13, 9, 30, 0, 0, time.UTC),
		Number:      12,
		Committee: domain.Committee{
			Name:              "Innenausschuss",
			Parliament:        domain.ParliamentNW,
			LegislativePeriod: 18,
		},
		AgendaItems: []domain.AgendaItem{
			{Number: 1, Title: "Beratung Entwurf", Documents: []domain.Document{{
				Type: domain.DocumentTypeDraft, Title: "Entwurf", Hash: "h-top-1",
			}}},
			{Number: 2, Title: "Verschiedenes"},
		},
	}
}

func TestSessionAgendaReplacement(t *testing.T) {
	database := testutil.TempDB(t)
	it := merge.New(database, nil, nil)
	ctx := context.Background()

	outcome, err := it.RunSession(ctx, sampleSession())
	if err != nil {
		t.Fatalf("RunSession failed: %v", err)
	}
	if outcome != merge.OutcomeCreated {
		t.Errorf("first run = %v, want created", outcome)
	}
	if n := count(t, database, "agenda_items"); n != 2 {
		t.Fatalf("agenda_items = %d, want 2", n)
	}

	// A non-empty incoming agenda replaces the stored one wholesale.
	update := sampleSession()
	update.AgendaItems = []domain.AgendaItem{{Number: 1, Title: "Einziger Punkt"}}
	outcome, err = it.RunSession(ctx, update)
	if err != nil {
		t.Fatalf("RunSession failed: %v", err)
	}
	if outcome != merge.OutcomeMerged {
		t.Errorf("second run = %v, want merged", outcome)
	}
	if n := count(t, database, "agenda_items"); n != 1 {
		t.Errorf("agenda_items = %d, want replaced wholesale", n)
	}

	// An empty incoming agenda leaves the stored one untouched.
	empty := sampleSession()
	empty.AgendaItems = nil
	if _, err := it.RunSession(ctx, empty); err != nil {
		t.Fatalf("RunSession failed: %v", err)
	}
	if n := count(t, database, "agenda_items"); n != 1 {
		t.Errorf("agenda_items = %d, want preserved on empty agenda", n)
	}
	if n := count(t, database, "sessions"); n != 1 {
		t.Errorf("sessions = %d, want 1", n)
	}
}

func TestSessionMatchesByCommitteeAndTime(t *testing.T) {
	database := testutil.TempDB(t)
	it := merge.New(database, nil, nil)
	ctx := context.Background()

	if _, err := it.RunSession(ctx, sampleSession()); err != nil {
		t.Fatalf("RunSession failed: %v", err)
	}

	// A second collector reports the same meeting without an external id.
	second := sampleSession()
	second.ExternalID = nil
	second.Title = strPtr("12. Sitzung")
	second.AgendaItems = nil

	outcome, err := it.RunSession(ctx, second)
	if err != nil {
		t.Fatalf("RunSession failed: %v", err)
	}
	if outcome != merge.OutcomeMerged {
		t.Errorf("outcome = %v, want merged", outcome)
	}
	if n := count(t, database, "sessions"); n != 1 {
		t.Errorf("sessions = %d, want 1", n)
	}
	if n := count(t, database, "committees"); n != 1 {
		t.Errorf("committees = %d, want 1", n)
	}
}

func TestUnknownCategoryNotification(t *testing.T) {
	database := testutil.TempDB(t)
	recorder := &notify.Recorder{}
	it := merge.New(database, recorder, nil)
	ctx := context.Background()

	p := sampleProcess()
	p.Type = domain.ProcessTypeOther

	// The catch-all value integrates fine; it is flagged, not rejected.
	if _, err := it.RunProcess(ctx, p); err != nil {
		t.Fatalf("RunProcess failed: %v", err)
	}

	events := recorder.ByKind("unknown_category")
	if len(events) != 1 {
		t.Fatalf("recorded %d unknown_category notifications, want 1", len(events))
	}
	if events[0].Field != "process.type" || events[0].Value != "sonstig" {
		t.Errorf("notification = %+v", events[0])
	}
}

func TestNewCommitteeNearMatchNotification(t *testing.T) {
	database := testutil.TempDB(t)
	recorder := &notify.Recorder{}
	it := merge.New(database, recorder, nil)
	ctx := context.Background()

	if _, err := it.RunSession(ctx, sampleSession()); err != nil {
		t.Fatalf("RunSession failed: %v", err)
	}

	// A near-identical committee name in another period cannot resolve to
	// the stored row; the new row is created but flagged for review.
	other := sampleSession()
	other.ExternalID = strPtr("AS-2")
	other.Committee.Name = "Innenausschuß"
	other.Committee.LegislativePeriod = 17
	other.AgendaItems = nil

	if _, err := it.RunSession(ctx, other); err != nil {
		t.Fatalf("RunSession failed: %v", err)
	}
	if n := count(t, database, "committees"); n != 2 {
		t.Errorf("committees = %d, want 2", n)
	}

	events := recorder.ByKind("new_enum_entry")
	if len(events) != 1 {
		t.Fatalf("recorded %d new_enum_entry notifications, want 1", len(events))
	}
	if events[0].Value != "Innenausschuß" || len(events[0].Similar) != 1 {
		t.Errorf("notification = %+v", events[0])
	}
}
