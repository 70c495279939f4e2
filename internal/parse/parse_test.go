package parse

import (
	"testing"

	"github.com/openparl/kollator/internal/domain"
)

func TestRecordsDecodesAndNormalizes(t *testing.T) {
	data := []byte(`
processes:
  - external_id: P-1
    title: Gesetz zur Änderung des Beispielgesetzes
    legislative_period: 20
    type: gg-zustimmung
    identifiers:
      - kind: initdrucks
        value: 20/1234
      - kind: drucksache
        value: "xyz"
    stages:
      - type: parl-initiativ
        started_at: 2024-03-01T10:00:00Z
        committee:
          name: Innenausschuss
          parliament: EU-Parlament
          legislative_period: 20
        documents:
          - type: entwurf
            title: Gesetzentwurf
            hash: h1
sessions:
  - external_id: AS-1
    scheduled_at: 2024-05-13T09:30:00Z
    number: 12
    committee:
      name: Innenausschuss
      parliament: NW
      legislative_period: 18
    agenda_items:
      - number: 1
        title: Beratung
        documents:
          - external_id: D-1
documents:
  - type: tagesordnung
    title: Tagesordnung
    hash: h2
`)

	f, err := Records(data)
	if err != nil {
		t.Fatalf("Records failed: %v", err)
	}

	if len(f.Processes) != 1 || len(f.Sessions) != 1 || len(f.Documents) != 1 {
		t.Fatalf("got %d/%d/%d records", len(f.Processes), len(f.Sessions), len(f.Documents))
	}

	p := f.Processes[0]
	if p.Type != domain.ProcessTypeConsentBill {
		t.Errorf("process type = %v", p.Type)
	}
	if p.Identifiers[0].Kind != domain.IdentifierInitiativePrint {
		t.Errorf("identifier kind = %v", p.Identifiers[0].Kind)
	}
	// Unknown categorical values land in the catch-all bucket.
	if p.Identifiers[1].Kind != domain.IdentifierOther {
		t.Errorf("unknown identifier kind = %v, want catch-all", p.Identifiers[1].Kind)
	}
	if p.Stages[0].Committee.Parliament != domain.ParliamentOther {
		t.Errorf("unknown parliament = %v, want catch-all", p.Stages[0].Committee.Parliament)
	}
	if p.Stages[0].Documents[0].Type != domain.DocumentTypeDraft {
		t.Errorf("document type = %v", p.Stages[0].Documents[0].Type)
	}
	if p.Stages[0].StartedAt.IsZero() {
		t.Error("started_at not decoded")
	}

	s := f.Sessions[0]
	if s.Committee.Parliament != domain.ParliamentNW {
		t.Errorf("session parliament = %v", s.Committee.Parliament)
	}
	// A pure reference keeps its empty type; normalization must not turn it
	// into a full payload with a catch-all type.
	ref := s.AgendaItems[0].Documents[0]
	if !ref.IsReference() {
		t.Errorf("agenda document should remain a reference: %+v", ref)
	}
	if ref.Type != "" {
		t.Errorf("reference type = %q, want untouched", ref.Type)
	}

	if f.Documents[0].Type != domain.DocumentTypeOther {
		t.Errorf("top-level document type = %v, want catch-all", f.Documents[0].Type)
	}
}

func TestRecordsRejectsMalformedInput(t *testing.T) {
	if _, err := Records([]byte("processes: {not: [a, list")); err == nil {
		t.Error("expected decode error")
	}
}

func TestRecordsEmptyFile(t *testing.T) {
	f, err := Records([]byte(""))
	if err != nil {
		t.Fatalf("Records failed: %v", err)
	}
	if len(f.Processes)+len(f.Sessions)+len(f.Documents) != 0 {
		t.Errorf("empty file produced records: %+v", f)
	}
}
