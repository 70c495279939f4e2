package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/openparl/kollator/internal/domain"
)

// InsertDocument inserts the document row, its keywords and authors.
// Sets d.UUID.
func InsertDocument(q Queryer, d *domain.Document) error {
	d.UUID = uuid.NewString()

	_, err := q.Exec(`
		INSERT INTO documents (uuid, external_id, reference_number, type, title, short_title, foreword, full_text, summary, hash, link, last_modified)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, d.UUID, d.ExternalID, d.ReferenceNumber, string(d.Type), d.Title, d.ShortTitle,
		d.Foreword, d.FullText, d.Summary, d.Hash, d.Link, fmtTimePtr(d.LastModified))
	if err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}

	if err := AddDocumentKeywords(q, d.UUID, d.Keywords); err != nil {
		return err
	}
	return AddDocumentAuthors(q, d.UUID, d.Authors)
}

// UpdateDocument applies the coalescing scalar merge to a document.
func UpdateDocument(q Queryer, documentUUID string, d *domain.Document) error {
	var setClauses []string
	var args []any

	if d.ExternalID != nil {
		setClauses = append(setClauses, "external_id = ?")
		args = append(args, *d.ExternalID)
	}
	if d.ReferenceNumber != nil {
		setClauses = append(setClauses, "reference_number = ?")
		args = append(args, *d.ReferenceNumber)
	}
	if d.Type != "" {
		setClauses = append(setClauses, "type = ?")
		args = append(args, string(d.Type))
	}
	if d.Title != "" {
		setClauses = append(setClauses, "title = ?")
		args = append(args, d.Title)
	}
	if d.ShortTitle != nil {
		setClauses = append(setClauses, "short_title = ?")
		args = append(args, *d.ShortTitle)
	}
	if d.Foreword != nil {
		setClauses = append(setClauses, "foreword = ?")
		args = append(args, *d.Foreword)
	}
	if d.FullText != nil {
		setClauses = append(setClauses, "full_text = ?")
		args = append(args, *d.FullText)
	}
	if d.Summary != nil {
		setClauses = append(setClauses, "summary = ?")
		args = append(args, *d.Summary)
	}
	if d.Hash != "" {
		setClauses = append(setClauses, "hash = ?")
		args = append(args, d.Hash)
	}
	if d.Link != nil {
		setClauses = append(setClauses, "link = ?")
		args = append(args, *d.Link)
	}
	if d.LastModified != nil {
		setClauses = append(setClauses, "last_modified = ?")
		args = append(args, fmtTime(*d.LastModified))
	}

	if len(setClauses) > 0 {
		args = append(args, documentUUID)
		query := "UPDATE documents SET " + strings.Join(setClauses, ", ") + " WHERE uuid = ?"
		if _, err := q.Exec(query, args...); err != nil {
			return fmt.Errorf("failed to update document: %w", err)
		}
	}

	if err := AddDocumentKeywords(q, documentUUID, d.Keywords); err != nil {
		return err
	}
	return AddDocumentAuthors(q, documentUUID, d.Authors)
}

// AddDocumentKeywords unions the given keywords into the stored set.
func AddDocumentKeywords(q Queryer, documentUUID string, keywords []string) error {
	for _, kw := range keywords {
		_, err := q.Exec(`
			INSERT OR IGNORE INTO document_keywords (document_uuid, keyword) VALUES (?, ?)
		`, documentUUID, kw)
		if err != nil {
			return fmt.Errorf("failed to add document keyword: %w", err)
		}
	}
	return nil
}

// AddDocumentAuthors unions the given authors into the stored set.
func AddDocumentAuthors(q Queryer, documentUUID string, authors []domain.Author) error {
	for _, a := range authors {
		_, err := q.Exec(`
			INSERT OR IGNORE INTO document_authors (document_uuid, person, organization) VALUES (?, ?, ?)
		`, documentUUID, a.Person, a.Organization)
		if err != nil {
			return fmt.Errorf("failed to add document author: %w", err)
		}
	}
	return nil
}

// GetDocumentByUUID loads a document with its keywords and authors.
func GetDocumentByUUID(q Queryer, documentUUID string) (*domain.Document, error) {
	d := &domain.Document{}
	var typ string
	var lastModified *string

	err := q.QueryRow(`
		SELECT uuid, external_id, reference_number, type, title, short_title, foreword, full_text, summary, hash, link, last_modified
		FROM documents WHERE uuid = ?
	`, documentUUID).Scan(
		&d.UUID, &d.ExternalID, &d.ReferenceNumber, &typ, &d.Title, &d.ShortTitle,
		&d.Foreword, &d.FullText, &d.Summary, &d.Hash, &d.Link, &lastModified,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("document not found: %s", documentUUID)
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	d.Type = domain.DocumentType(typ)
	if d.LastModified, err = parseTimePtr(lastModified); err != nil {
		return nil, fmt.Errorf("failed to parse document last_modified: %w", err)
	}

	d.Keywords, err = collectStrings(q.Query(
		"SELECT keyword FROM document_keywords WHERE document_uuid = ? ORDER BY keyword", d.UUID))
	if err != nil {
		return nil, fmt.Errorf("failed to load document keywords: %w", err)
	}

	rows, err := q.Query(
		"SELECT person, organization FROM document_authors WHERE document_uuid = ? ORDER BY organization, person", d.UUID)
	if err != nil {
		return nil, fmt.Errorf("failed to load document authors: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var a domain.Author
		if err := rows.Scan(&a.Person, &a.Organization); err != nil {
			return nil, fmt.Errorf("failed to scan document author: %w", err)
		}
		d.Authors = append(d.Authors, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating document authors: %w", err)
	}

	return d, nil
}

// FindDocumentUUIDs returns the distinct UUIDs of stored documents whose
// external id, content hash, or official reference number equals the
// corresponding incoming field. Nil/empty fields do not participate.
func FindDocumentUUIDs(q Queryer, externalID *string, hash string, referenceNumber *string) ([]string, error) {
	var conds []string
	var args []any

	if externalID != nil && *externalID != "" {
		conds = append(conds, "external_id = ?")
		args = append(args, *externalID)
	}
	if hash != "" {
		conds = append(conds, "hash = ?")
		args = append(args, hash)
	}
	if referenceNumber != nil && *referenceNumber != "" {
		conds = append(conds, "reference_number = ?")
		args = append(args, *referenceNumber)
	}
	if len(conds) == 0 {
		return nil, nil
	}

	uuids, err := collectStrings(q.Query(
		"SELECT DISTINCT uuid FROM documents WHERE "+strings.Join(conds, " OR ")+" ORDER BY uuid", args...))
	if err != nil {
		return nil, fmt.Errorf("failed to find documents: %w", err)
	}
	return uuids, nil
}

// GetDocumentUUIDByHash returns the UUID of the document with the given
// content hash, or "" if none is stored.
func GetDocumentUUIDByHash(q Queryer, hash string) (string, error) {
	var documentUUID string
	err := q.QueryRow("SELECT uuid FROM documents WHERE hash = ?", hash).Scan(&documentUUID)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up document by hash: %w", err)
	}
	return documentUUID, nil
}

// GetDocumentUUIDByExternalID returns the UUID of the document with the
// given external id, or "" if none is stored.
func GetDocumentUUIDByExternalID(q Queryer, externalID string) (string, error) {
	var documentUUID string
	err := q.QueryRow("SELECT uuid FROM documents WHERE external_id = ?", externalID).Scan(&documentUUID)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up document by external id: %w", err)
	}
	return documentUUID, nil
}
