// Package match implements the candidate matcher: for an incoming record
// it finds the stored entities that plausibly denote the same real-world
// object. All queries are read-only and run inside the caller's
// transaction.
//
// Cardinality policy: zero candidates is NoMatch, exactly one is OneMatch,
// two or more is Ambiguous. An external-id hit with conflicting
// identity-bearing fields is ExactDuplicate; a consistent external-id hit
// is OneMatch so that re-submission flows into the idempotent merge path.
package match

import (
	"database/sql"
	"fmt"
	"sort"

	"github.com/openparl/kollator/internal/domain"
	"github.com/openparl/kollator/internal/similarity"
	"github.com/openparl/kollator/internal/store"
)

// Outcome classifies a matcher result.
type Outcome int

const (
	NoMatch Outcome = iota
	OneMatch
	Ambiguous
	ExactDuplicate
)

func (o Outcome) String() string {
	switch o {
	case NoMatch:
		return "no_match"
	case OneMatch:
		return "one_match"
	case Ambiguous:
		return "ambiguous"
	case ExactDuplicate:
		return "exact_duplicate"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Candidate is one stored entity satisfying the match predicate, with the
// similarity score that admitted it (1 for exact-key matches).
type Candidate struct {
	UUID  string
	Score float64
}

// Result is the matcher's answer for one incoming record.
type Result struct {
	Outcome    Outcome
	UUID       string      // set for OneMatch and ExactDuplicate
	Candidates []Candidate // set for Ambiguous
	Conflict   string      // set for ExactDuplicate
}

func classify(candidates []Candidate) Result {
	switch len(candidates) {
	case 0:
		return Result{Outcome: NoMatch}
	case 1:
		return Result{Outcome: OneMatch, UUID: candidates[0].UUID}
	default:
		sort.Slice(candidates, func(i, j int) bool { return candidates[i].UUID < candidates[j].UUID })
		return Result{Outcome: Ambiguous, Candidates: candidates}
	}
}

// UUIDs returns the candidate UUIDs of an Ambiguous result.
func (r Result) UUIDs() []string {
	out := make([]string, len(r.Candidates))
	for i, c := range r.Candidates {
		out[i] = c.UUID
	}
	return out
}

// FindProcess applies the process match rules: an external-id hit is
// decided immediately; otherwise candidates share legislative period and
// type, and either overlap in one typed cross-reference identifier or have
// a draft-document foreword scoring above the content threshold against an
// incoming draft foreword.
func FindProcess(q store.Queryer, p *domain.Process) (Result, error) {
	var storedUUID, storedType string
	var storedPeriod int
	err := q.QueryRow(`
		SELECT uuid, legislative_period, type FROM processes WHERE external_id = ?
	`, p.ExternalID).Scan(&storedUUID, &storedPeriod, &storedType)
	if err != nil && err != sql.ErrNoRows {
		return Result{}, fmt.Errorf("failed to look up process by external id: %w", err)
	}
	if err == nil {
		if storedPeriod != p.LegislativePeriod || storedType != string(p.Type) {
			return Result{
				Outcome: ExactDuplicate,
				UUID:    storedUUID,
				Conflict: fmt.Sprintf("stored period/type %d/%s, submitted %d/%s",
					storedPeriod, storedType, p.LegislativePeriod, p.Type),
			}, nil
		}
		return Result{Outcome: OneMatch, UUID: storedUUID}, nil
	}

	uuids, err := collectUUIDs(q, `
		SELECT uuid FROM processes WHERE legislative_period = ? AND type = ?
	`, p.LegislativePeriod, string(p.Type))
	if err != nil {
		return Result{}, err
	}

	incomingIDs := identifierSet(p.Identifiers)
	incomingForewords := draftForewords(p)

	var candidates []Candidate
	for _, candidateUUID := range uuids {
		shared, err := sharesIdentifier(q, candidateUUID, incomingIDs)
		if err != nil {
			return Result{}, err
		}
		if shared {
			candidates = append(candidates, Candidate{UUID: candidateUUID, Score: 1})
			continue
		}

		score, err := maxForewordScore(q, candidateUUID, incomingForewords)
		if err != nil {
			return Result{}, err
		}
		if score > similarity.ContentThreshold {
			candidates = append(candidates, Candidate{UUID: candidateUUID, Score: score})
		}
	}

	return classify(candidates), nil
}

func identifierSet(ids []domain.Identifier) map[domain.Identifier]bool {
	set := make(map[domain.Identifier]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

func sharesIdentifier(q store.Queryer, processUUID string, incoming map[domain.Identifier]bool) (bool, error) {
	if len(incoming) == 0 {
		return false, nil
	}
	rows, err := q.Query("SELECT kind, value FROM process_identifiers WHERE process_uuid = ?", processUUID)
	if err != nil {
		return false, fmt.Errorf("failed to load candidate identifiers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var kind, value string
		if err := rows.Scan(&kind, &value); err != nil {
			return false, fmt.Errorf("failed to scan candidate identifier: %w", err)
		}
		if incoming[domain.Identifier{Kind: domain.IdentifierKind(kind), Value: value}] {
			rows.Close()
			return true, nil
		}
	}
	return false, rows.Err()
}

// draftForewords collects the forewords of the incoming submission's draft
// documents across all its stages.
func draftForewords(p *domain.Process) []string {
	var out []string
	for i := range p.Stages {
		for j := range p.Stages[i].Documents {
			d := &p.Stages[i].Documents[j]
			if d.Type == domain.DocumentTypeDraft && d.Foreword != nil && *d.Foreword != "" {
				out = append(out, *d.Foreword)
			}
		}
	}
	return out
}

func maxForewordScore(q store.Queryer, processUUID string, incoming []string) (float64, error) {
	if len(incoming) == 0 {
		return 0, nil
	}
	stored, err := collectUUIDs(q, `
		SELECT d.foreword FROM documents d
		JOIN stage_documents sd ON sd.document_uuid = d.uuid
		JOIN stages st ON st.uuid = sd.stage_uuid
		WHERE st.process_uuid = ? AND d.type = ? AND d.foreword IS NOT NULL AND d.foreword != ''
	`, processUUID, string(domain.DocumentTypeDraft))
	if err != nil {
		return 0, err
	}

	best := 0.0
	for _, sf := range stored {
		for _, inf := range incoming {
			if score := similarity.Score(sf, inf); score > best {
				best = score
			}
		}
	}
	return best, nil
}

// FindStage applies the stage match rules within one parent process: an
// external-id hit is decided immediately; otherwise candidates share the
// stage type, agree on the committee (or both leave it unspecified), and
// overlap in at least one associated document content hash.
func FindStage(q store.Queryer, processUUID string, s *domain.Stage) (Result, error) {
	if s.ExternalID != nil && *s.ExternalID != "" {
		var storedUUID, storedProcess, storedType string
		err := q.QueryRow(`
			SELECT uuid, process_uuid, type FROM stages WHERE external_id = ?
		`, *s.ExternalID).Scan(&storedUUID, &storedProcess, &storedType)
		if err != nil && err != sql.ErrNoRows {
			return Result{}, fmt.Errorf("failed to look up stage by external id: %w", err)
		}
		if err == nil {
			if storedProcess != processUUID || storedType != string(s.Type) {
				return Result{
					Outcome:  ExactDuplicate,
					UUID:     storedUUID,
					Conflict: "external id already names a stage of a different process or type",
				}, nil
			}
			return Result{Outcome: OneMatch, UUID: storedUUID}, nil
		}
	}

	rows, err := q.Query(`
		SELECT uuid, committee_uuid FROM stages WHERE process_uuid = ? AND type = ?
	`, processUUID, string(s.Type))
	if err != nil {
		return Result{}, fmt.Errorf("failed to query candidate stages: %w", err)
	}
	defer rows.Close()

	type stageRow struct {
		uuid          string
		committeeUUID *string
	}
	var stageRows []stageRow
	for rows.Next() {
		var r stageRow
		if err := rows.Scan(&r.uuid, &r.committeeUUID); err != nil {
			return Result{}, fmt.Errorf("failed to scan candidate stage: %w", err)
		}
		stageRows = append(stageRows, r)
	}
	if err := rows.Err(); err != nil {
		return Result{}, fmt.Errorf("error iterating candidate stages: %w", err)
	}
	rows.Close()

	incomingHashes := make(map[string]bool)
	for i := range s.Documents {
		if s.Documents[i].Hash != "" {
			incomingHashes[s.Documents[i].Hash] = true
		}
	}

	var candidates []Candidate
	for _, r := range stageRows {
		ok, err := committeeAgrees(q, r.committeeUUID, s.Committee)
		if err != nil {
			return Result{}, err
		}
		if !ok {
			continue
		}

		if len(incomingHashes) == 0 {
			continue
		}
		hashes, err := store.StageDocumentHashes(q, r.uuid)
		if err != nil {
			return Result{}, err
		}
		for _, h := range hashes {
			if incomingHashes[h] {
				candidates = append(candidates, Candidate{UUID: r.uuid, Score: 1})
				break
			}
		}
	}

	return classify(candidates), nil
}

// committeeAgrees checks the stage predicate's committee legs: name,
// parliament and committee legislative period each match, or both sides
// leave the committee unspecified.
func committeeAgrees(q store.Queryer, storedCommitteeUUID *string, incoming *domain.Committee) (bool, error) {
	if storedCommitteeUUID == nil && incoming == nil {
		return true, nil
	}
	if storedCommitteeUUID == nil || incoming == nil {
		return false, nil
	}
	stored, err := store.GetCommitteeByUUID(q, *storedCommitteeUUID)
	if err != nil {
		return false, err
	}
	return stored.Name == incoming.Name &&
		stored.Parliament == incoming.Parliament &&
		stored.LegislativePeriod == incoming.LegislativePeriod, nil
}

// FindDocument applies the document match rule: equality on external id,
// content hash, or official reference number is itself the match; there is
// no fuzzy step and no ExactDuplicate outcome.
func FindDocument(q store.Queryer, d *domain.Document) (Result, error) {
	uuids, err := store.FindDocumentUUIDs(q, d.ExternalID, d.Hash, d.ReferenceNumber)
	if err != nil {
		return Result{}, err
	}
	candidates := make([]Candidate, 0, len(uuids))
	for _, u := range uuids {
		candidates = append(candidates, Candidate{UUID: u, Score: 1})
	}
	return classify(candidates), nil
}

// FindSession applies the session match rules: an external-id hit is
// decided immediately; otherwise candidates belong to the same committee
// (by fuzzy committee resolution), the same legislative period, and the
// same scheduled date/time.
func FindSession(q store.Queryer, s *domain.Session) (Result, error) {
	if s.ExternalID != nil && *s.ExternalID != "" {
		sessionUUID, committeeUUID, period, err := store.FindSessionByExternalID(q, *s.ExternalID)
		if err != nil {
			return Result{}, err
		}
		if sessionUUID != "" {
			stored, err := store.GetCommitteeByUUID(q, committeeUUID)
			if err != nil {
				return Result{}, err
			}
			if period != s.Committee.LegislativePeriod || stored.Parliament != s.Committee.Parliament || stored.Name != s.Committee.Name {
				return Result{
					Outcome:  ExactDuplicate,
					UUID:     sessionUUID,
					Conflict: "external id already names a session of a different committee or period",
				}, nil
			}
			return Result{Outcome: OneMatch, UUID: sessionUUID}, nil
		}
	}

	committeeUUID, _, err := LookupCommittee(q, &s.Committee)
	if err != nil {
		return Result{}, err
	}
	if committeeUUID == "" {
		// Unknown committee: nothing stored can be the same session.
		return Result{Outcome: NoMatch}, nil
	}

	uuids, err := store.FindSessionsByCommitteeAndTime(q, committeeUUID, s.ScheduledAt)
	if err != nil {
		return Result{}, err
	}
	candidates := make([]Candidate, 0, len(uuids))
	for _, u := range uuids {
		candidates = append(candidates, Candidate{UUID: u, Score: 1})
	}
	return classify(candidates), nil
}

func collectUUIDs(q store.Queryer, query string, args ...any) ([]string, error) {
	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query candidates: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
