package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/openparl/kollator/internal/domain"
)

// InsertProcess inserts the process row and its set-valued relations.
// Stages are the merge engine's business and are not touched here.
// Sets p.UUID.
func InsertProcess(q Queryer, p *domain.Process) error {
	p.UUID = uuid.NewString()

	_, err := q.Exec(`
		INSERT INTO processes (uuid, external_id, title, short_title, constitutional_change, legislative_period, type)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, p.UUID, p.ExternalID, p.Title, p.ShortTitle, boolPtrInt(p.ConstitutionalChange, false), p.LegislativePeriod, string(p.Type))
	if err != nil {
		return fmt.Errorf("failed to insert process: %w", err)
	}

	if err := AddProcessIdentifiers(q, p.UUID, p.Identifiers); err != nil {
		return err
	}
	if err := AddProcessInitiators(q, p.UUID, p.Initiators); err != nil {
		return err
	}
	return AddProcessLinks(q, p.UUID, p.Links)
}

// UpdateProcess applies the coalescing scalar merge: present incoming
// values replace stored ones, absent values preserve them. Legislative
// period and type are identity-bearing and never change here.
func UpdateProcess(q Queryer, processUUID string, p *domain.Process) error {
	setClauses := []string{"updated_at = strftime('%Y-%m-%dT%H:%M:%SZ','now')"}
	var args []any

	if p.Title != "" {
		setClauses = append(setClauses, "title = ?")
		args = append(args, p.Title)
	}
	if p.ShortTitle != nil {
		setClauses = append(setClauses, "short_title = ?")
		args = append(args, *p.ShortTitle)
	}
	if p.ConstitutionalChange != nil {
		setClauses = append(setClauses, "constitutional_change = ?")
		args = append(args, boolPtrInt(p.ConstitutionalChange, false))
	}

	args = append(args, processUUID)
	query := "UPDATE processes SET " + strings.Join(setClauses, ", ") + " WHERE uuid = ?"
	if _, err := q.Exec(query, args...); err != nil {
		return fmt.Errorf("failed to update process: %w", err)
	}
	return nil
}

// AddProcessIdentifiers unions the given identifiers into the stored set.
func AddProcessIdentifiers(q Queryer, processUUID string, ids []domain.Identifier) error {
	for _, id := range ids {
		_, err := q.Exec(`
			INSERT OR IGNORE INTO process_identifiers (process_uuid, kind, value) VALUES (?, ?, ?)
		`, processUUID, string(id.Kind), id.Value)
		if err != nil {
			return fmt.Errorf("failed to add process identifier: %w", err)
		}
	}
	return nil
}

// AddProcessInitiators unions the given initiators into the stored set.
func AddProcessInitiators(q Queryer, processUUID string, initiators []string) error {
	for _, in := range initiators {
		_, err := q.Exec(`
			INSERT OR IGNORE INTO process_initiators (process_uuid, initiator) VALUES (?, ?)
		`, processUUID, in)
		if err != nil {
			return fmt.Errorf("failed to add process initiator: %w", err)
		}
	}
	return nil
}

// AddProcessLinks unions the given links into the stored set.
func AddProcessLinks(q Queryer, processUUID string, links []string) error {
	for _, l := range links {
		_, err := q.Exec(`
			INSERT OR IGNORE INTO process_links (process_uuid, link) VALUES (?, ?)
		`, processUUID, l)
		if err != nil {
			return fmt.Errorf("failed to add process link: %w", err)
		}
	}
	return nil
}

// GetProcessByUUID loads the full process graph: scalars, sets and stages
// with their documents and opinions.
func GetProcessByUUID(q Queryer, processUUID string) (*domain.Process, error) {
	return getProcess(q, "uuid = ?", processUUID)
}

// GetProcessByExternalID loads the full process graph by external id.
func GetProcessByExternalID(q Queryer, externalID string) (*domain.Process, error) {
	return getProcess(q, "external_id = ?", externalID)
}

func getProcess(q Queryer, where string, arg any) (*domain.Process, error) {
	p := &domain.Process{}
	var shortTitle *string
	var constChange int
	var typ string

	err := q.QueryRow(`
		SELECT uuid, external_id, title, short_title, constitutional_change, legislative_period, type
		FROM processes WHERE `+where, arg).Scan(
		&p.UUID, &p.ExternalID, &p.Title, &shortTitle, &constChange, &p.LegislativePeriod, &typ,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("process not found: %v", arg)
		}
		return nil, fmt.Errorf("failed to get process: %w", err)
	}

	p.ShortTitle = shortTitle
	p.ConstitutionalChange = intBoolPtr(constChange)
	p.Type = domain.ProcessType(typ)

	ids, err := getProcessIdentifiers(q, p.UUID)
	if err != nil {
		return nil, err
	}
	p.Identifiers = ids

	p.Initiators, err = collectStrings(q.Query(
		"SELECT initiator FROM process_initiators WHERE process_uuid = ? ORDER BY initiator", p.UUID))
	if err != nil {
		return nil, fmt.Errorf("failed to load process initiators: %w", err)
	}

	p.Links, err = collectStrings(q.Query(
		"SELECT link FROM process_links WHERE process_uuid = ? ORDER BY link", p.UUID))
	if err != nil {
		return nil, fmt.Errorf("failed to load process links: %w", err)
	}

	p.Stages, err = GetStagesByProcess(q, p.UUID)
	if err != nil {
		return nil, err
	}

	return p, nil
}

func getProcessIdentifiers(q Queryer, processUUID string) ([]domain.Identifier, error) {
	rows, err := q.Query(
		"SELECT kind, value FROM process_identifiers WHERE process_uuid = ? ORDER BY kind, value", processUUID)
	if err != nil {
		return nil, fmt.Errorf("failed to load process identifiers: %w", err)
	}
	defer rows.Close()

	var ids []domain.Identifier
	for rows.Next() {
		var kind, value string
		if err := rows.Scan(&kind, &value); err != nil {
			return nil, fmt.Errorf("failed to scan process identifier: %w", err)
		}
		ids = append(ids, domain.Identifier{Kind: domain.IdentifierKind(kind), Value: value})
	}
	return ids, rows.Err()
}
