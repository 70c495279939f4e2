package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/openparl/kollator/internal/domain"
)

// CommitteeRef is a committee row as seen by the fuzzy resolver.
type CommitteeRef struct {
	UUID              string
	Name              string
	LegislativePeriod int
}

// FindCommitteeExact returns the UUID of the committee matching name,
// parliament and legislative period exactly, or "" if none is stored.
func FindCommitteeExact(q Queryer, c *domain.Committee) (string, error) {
	var committeeUUID string
	err := q.QueryRow(`
		SELECT uuid FROM committees WHERE name = ? AND parliament = ? AND legislative_period = ?
	`, c.Name, string(c.Parliament), c.LegislativePeriod).Scan(&committeeUUID)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up committee: %w", err)
	}
	return committeeUUID, nil
}

// ListCommitteesByParliament returns every committee of the parliament for
// name-similarity scanning.
func ListCommitteesByParliament(q Queryer, parliament domain.Parliament) ([]CommitteeRef, error) {
	rows, err := q.Query(`
		SELECT uuid, name, legislative_period FROM committees WHERE parliament = ? ORDER BY name
	`, string(parliament))
	if err != nil {
		return nil, fmt.Errorf("failed to list committees: %w", err)
	}
	defer rows.Close()

	var refs []CommitteeRef
	for rows.Next() {
		var r CommitteeRef
		if err := rows.Scan(&r.UUID, &r.Name, &r.LegislativePeriod); err != nil {
			return nil, fmt.Errorf("failed to scan committee: %w", err)
		}
		refs = append(refs, r)
	}
	return refs, rows.Err()
}

// InsertCommittee inserts a new committee row and returns its UUID.
func InsertCommittee(q Queryer, c *domain.Committee) (string, error) {
	committeeUUID := uuid.NewString()
	_, err := q.Exec(`
		INSERT INTO committees (uuid, name, parliament, legislative_period, link, calendar_link)
		VALUES (?, ?, ?, ?, ?, ?)
	`, committeeUUID, c.Name, string(c.Parliament), c.LegislativePeriod, c.Link, c.CalendarLink)
	if err != nil {
		return "", fmt.Errorf("failed to insert committee: %w", err)
	}
	return committeeUUID, nil
}

// UpdateCommittee applies the coalescing merge to the committee's links.
func UpdateCommittee(q Queryer, committeeUUID string, c *domain.Committee) error {
	if c.Link != nil {
		if _, err := q.Exec("UPDATE committees SET link = ? WHERE uuid = ?", *c.Link, committeeUUID); err != nil {
			return fmt.Errorf("failed to update committee link: %w", err)
		}
	}
	if c.CalendarLink != nil {
		if _, err := q.Exec("UPDATE committees SET calendar_link = ? WHERE uuid = ?", *c.CalendarLink, committeeUUID); err != nil {
			return fmt.Errorf("failed to update committee calendar link: %w", err)
		}
	}
	return nil
}

// GetCommitteeByUUID loads a committee.
func GetCommitteeByUUID(q Queryer, committeeUUID string) (*domain.Committee, error) {
	c := &domain.Committee{}
	var parliament string
	err := q.QueryRow(`
		SELECT name, parliament, legislative_period, link, calendar_link FROM committees WHERE uuid = ?
	`, committeeUUID).Scan(&c.Name, &parliament, &c.LegislativePeriod, &c.Link, &c.CalendarLink)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("committee not found: %s", committeeUUID)
		}
		return nil, fmt.Errorf("failed to get committee: %w", err)
	}
	c.Parliament = domain.Parliament(parliament)
	return c, nil
}
