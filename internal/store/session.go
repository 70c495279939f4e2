package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/openparl/kollator/internal/domain"
)

// InsertSession inserts the session row. Agenda items are inserted by the
// merge engine so their documents run through matching. Sets s.UUID.
func InsertSession(q Queryer, committeeUUID string, s *domain.Session) error {
	s.UUID = uuid.NewString()

	_, err := q.Exec(`
		INSERT INTO sessions (uuid, external_id, scheduled_at, public, committee_uuid, link, number, title)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, s.UUID, s.ExternalID, fmtTime(s.ScheduledAt), boolPtrInt(s.Public, true), committeeUUID,
		s.Link, s.Number, s.Title)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

// UpdateSession applies the coalescing scalar merge to a session. The
// committee is identity-bearing and never changes here.
func UpdateSession(q Queryer, sessionUUID string, s *domain.Session) error {
	setClauses := []string{"updated_at = strftime('%Y-%m-%dT%H:%M:%SZ','now')"}
	var args []any

	if s.ExternalID != nil {
		setClauses = append(setClauses, "external_id = ?")
		args = append(args, *s.ExternalID)
	}
	if !s.ScheduledAt.IsZero() {
		setClauses = append(setClauses, "scheduled_at = ?")
		args = append(args, fmtTime(s.ScheduledAt))
	}
	if s.Public != nil {
		setClauses = append(setClauses, "public = ?")
		args = append(args, boolPtrInt(s.Public, true))
	}
	if s.Link != nil {
		setClauses = append(setClauses, "link = ?")
		args = append(args, *s.Link)
	}
	if s.Number != 0 {
		setClauses = append(setClauses, "number = ?")
		args = append(args, s.Number)
	}
	if s.Title != nil {
		setClauses = append(setClauses, "title = ?")
		args = append(args, *s.Title)
	}

	args = append(args, sessionUUID)
	query := "UPDATE sessions SET " + strings.Join(setClauses, ", ") + " WHERE uuid = ?"
	if _, err := q.Exec(query, args...); err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	return nil
}

// DeleteAgendaItems removes every agenda item of the session. Association
// rows cascade. Used only by the replace-wholesale agenda merge.
func DeleteAgendaItems(q Queryer, sessionUUID string) error {
	if _, err := q.Exec("DELETE FROM agenda_items WHERE session_uuid = ?", sessionUUID); err != nil {
		return fmt.Errorf("failed to delete agenda items: %w", err)
	}
	return nil
}

// InsertAgendaItem inserts one agenda item. Document associations are the
// merge engine's business. Sets item.UUID.
func InsertAgendaItem(q Queryer, sessionUUID string, item *domain.AgendaItem) error {
	item.UUID = uuid.NewString()
	_, err := q.Exec(`
		INSERT INTO agenda_items (uuid, session_uuid, number, title) VALUES (?, ?, ?, ?)
	`, item.UUID, sessionUUID, item.Number, item.Title)
	if err != nil {
		return fmt.Errorf("failed to insert agenda item: %w", err)
	}
	return nil
}

// AssociateAgendaItemDocument links a document to an agenda item. Idempotent.
func AssociateAgendaItemDocument(q Queryer, agendaItemUUID, documentUUID string) error {
	_, err := q.Exec(`
		INSERT OR IGNORE INTO agenda_item_documents (agenda_item_uuid, document_uuid) VALUES (?, ?)
	`, agendaItemUUID, documentUUID)
	if err != nil {
		return fmt.Errorf("failed to associate agenda item document: %w", err)
	}
	return nil
}

// GetSessionByUUID loads the full session graph: committee, agenda items
// and their documents.
func GetSessionByUUID(q Queryer, sessionUUID string) (*domain.Session, error) {
	s := &domain.Session{}
	var scheduledAt string
	var public int
	var committeeUUID string

	err := q.QueryRow(`
		SELECT uuid, external_id, scheduled_at, public, committee_uuid, link, number, title
		FROM sessions WHERE uuid = ?
	`, sessionUUID).Scan(&s.UUID, &s.ExternalID, &scheduledAt, &public, &committeeUUID,
		&s.Link, &s.Number, &s.Title)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("session not found: %s", sessionUUID)
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	s.Public = intBoolPtr(public)
	if s.ScheduledAt, err = parseTime(scheduledAt); err != nil {
		return nil, fmt.Errorf("failed to parse session scheduled_at: %w", err)
	}

	c, err := GetCommitteeByUUID(q, committeeUUID)
	if err != nil {
		return nil, err
	}
	s.Committee = *c

	s.AgendaItems, err = getAgendaItems(q, s.UUID)
	if err != nil {
		return nil, err
	}

	return s, nil
}

func getAgendaItems(q Queryer, sessionUUID string) ([]domain.AgendaItem, error) {
	rows, err := q.Query(`
		SELECT uuid, number, title FROM agenda_items WHERE session_uuid = ? ORDER BY number, rowid
	`, sessionUUID)
	if err != nil {
		return nil, fmt.Errorf("failed to query agenda items: %w", err)
	}
	defer rows.Close()

	var items []domain.AgendaItem
	for rows.Next() {
		var item domain.AgendaItem
		if err := rows.Scan(&item.UUID, &item.Number, &item.Title); err != nil {
			return nil, fmt.Errorf("failed to scan agenda item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating agenda items: %w", err)
	}
	rows.Close()

	for i := range items {
		uuids, err := collectStrings(q.Query(
			"SELECT document_uuid FROM agenda_item_documents WHERE agenda_item_uuid = ? ORDER BY rowid", items[i].UUID))
		if err != nil {
			return nil, fmt.Errorf("failed to load agenda item document refs: %w", err)
		}
		for _, du := range uuids {
			d, err := GetDocumentByUUID(q, du)
			if err != nil {
				return nil, err
			}
			items[i].Documents = append(items[i].Documents, *d)
		}
	}

	return items, nil
}

// FindSessionByExternalID returns the UUID, committee UUID and period of
// the session with the given external id, or "" if none is stored.
func FindSessionByExternalID(q Queryer, externalID string) (sessionUUID, committeeUUID string, period int, err error) {
	err = q.QueryRow(`
		SELECT s.uuid, s.committee_uuid, c.legislative_period
		FROM sessions s JOIN committees c ON c.uuid = s.committee_uuid
		WHERE s.external_id = ?
	`, externalID).Scan(&sessionUUID, &committeeUUID, &period)
	if err == sql.ErrNoRows {
		return "", "", 0, nil
	}
	if err != nil {
		return "", "", 0, fmt.Errorf("failed to look up session by external id: %w", err)
	}
	return sessionUUID, committeeUUID, period, nil
}

// FindSessionsByCommitteeAndTime returns the UUIDs of sessions of the given
// committee scheduled at exactly the given time.
func FindSessionsByCommitteeAndTime(q Queryer, committeeUUID string, scheduledAt time.Time) ([]string, error) {
	uuids, err := collectStrings(q.Query(
		"SELECT uuid FROM sessions WHERE committee_uuid = ? AND scheduled_at = ? ORDER BY uuid",
		committeeUUID, fmtTime(scheduledAt)))
	if err != nil {
		return nil, fmt.Errorf("failed to find sessions: %w", err)
	}
	return uuids, nil
}
