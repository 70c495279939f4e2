package store

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/openparl/kollator/internal/domain"
)

// InsertStage inserts the stage row and its keywords. Document and opinion
// wiring is the merge engine's business. Sets s.UUID.
func InsertStage(q Queryer, processUUID string, committeeUUID *string, s *domain.Stage) error {
	s.UUID = uuid.NewString()

	_, err := q.Exec(`
		INSERT INTO stages (uuid, external_id, process_uuid, type, committee_uuid, title, started_at, last_modified, danger_flag, link)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, s.UUID, s.ExternalID, processUUID, string(s.Type), committeeUUID, s.Title,
		fmtTime(s.StartedAt), fmtTimePtr(s.LastModified), boolPtrInt(s.DangerFlag, false), s.Link)
	if err != nil {
		return fmt.Errorf("failed to insert stage: %w", err)
	}

	return AddStageKeywords(q, s.UUID, s.Keywords)
}

// UpdateStage applies the coalescing scalar merge to a stage. The stage
// type and owning process are identity-bearing and never change here.
func UpdateStage(q Queryer, stageUUID string, committeeUUID *string, s *domain.Stage) error {
	var setClauses []string
	var args []any

	if s.ExternalID != nil {
		setClauses = append(setClauses, "external_id = ?")
		args = append(args, *s.ExternalID)
	}
	if committeeUUID != nil {
		setClauses = append(setClauses, "committee_uuid = ?")
		args = append(args, *committeeUUID)
	}
	if s.Title != nil {
		setClauses = append(setClauses, "title = ?")
		args = append(args, *s.Title)
	}
	if !s.StartedAt.IsZero() {
		setClauses = append(setClauses, "started_at = ?")
		args = append(args, fmtTime(s.StartedAt))
	}
	if s.LastModified != nil {
		setClauses = append(setClauses, "last_modified = ?")
		args = append(args, fmtTime(*s.LastModified))
	}
	if s.DangerFlag != nil {
		setClauses = append(setClauses, "danger_flag = ?")
		args = append(args, boolPtrInt(s.DangerFlag, false))
	}
	if s.Link != nil {
		setClauses = append(setClauses, "link = ?")
		args = append(args, *s.Link)
	}

	if len(setClauses) == 0 {
		return nil
	}

	args = append(args, stageUUID)
	query := "UPDATE stages SET " + strings.Join(setClauses, ", ") + " WHERE uuid = ?"
	if _, err := q.Exec(query, args...); err != nil {
		return fmt.Errorf("failed to update stage: %w", err)
	}
	return nil
}

// AddStageKeywords unions the given keywords into the stored set.
func AddStageKeywords(q Queryer, stageUUID string, keywords []string) error {
	for _, kw := range keywords {
		_, err := q.Exec(`
			INSERT OR IGNORE INTO stage_keywords (stage_uuid, keyword) VALUES (?, ?)
		`, stageUUID, kw)
		if err != nil {
			return fmt.Errorf("failed to add stage keyword: %w", err)
		}
	}
	return nil
}

// AssociateStageDocument records the many-to-many association between a
// stage and a document. Idempotent.
func AssociateStageDocument(q Queryer, stageUUID, documentUUID string) error {
	_, err := q.Exec(`
		INSERT OR IGNORE INTO stage_documents (stage_uuid, document_uuid) VALUES (?, ?)
	`, stageUUID, documentUUID)
	if err != nil {
		return fmt.Errorf("failed to associate stage document: %w", err)
	}
	return nil
}

// StageDocumentHashes returns the content hashes of every document
// associated with the stage.
func StageDocumentHashes(q Queryer, stageUUID string) ([]string, error) {
	hashes, err := collectStrings(q.Query(`
		SELECT d.hash FROM documents d
		JOIN stage_documents sd ON sd.document_uuid = d.uuid
		WHERE sd.stage_uuid = ?
	`, stageUUID))
	if err != nil {
		return nil, fmt.Errorf("failed to load stage document hashes: %w", err)
	}
	return hashes, nil
}

// GetStagesByProcess loads the process's stages in creation order, each
// with its committee, keywords, documents and opinions.
func GetStagesByProcess(q Queryer, processUUID string) ([]domain.Stage, error) {
	rows, err := q.Query(`
		SELECT uuid, external_id, type, committee_uuid, title, started_at, last_modified, danger_flag, link
		FROM stages WHERE process_uuid = ? ORDER BY rowid
	`, processUUID)
	if err != nil {
		return nil, fmt.Errorf("failed to query stages: %w", err)
	}
	defer rows.Close()

	// Scan everything before issuing follow-up queries: a transaction's
	// connection cannot serve new queries while a result set is open.
	var stages []domain.Stage
	var committeeUUIDs []*string
	for rows.Next() {
		var s domain.Stage
		var typ, startedAt string
		var committeeUUID, lastModified *string
		var danger int

		if err := rows.Scan(&s.UUID, &s.ExternalID, &typ, &committeeUUID, &s.Title,
			&startedAt, &lastModified, &danger, &s.Link); err != nil {
			return nil, fmt.Errorf("failed to scan stage: %w", err)
		}

		s.Type = domain.StageType(typ)
		s.DangerFlag = intBoolPtr(danger)
		if s.StartedAt, err = parseTime(startedAt); err != nil {
			return nil, fmt.Errorf("failed to parse stage started_at: %w", err)
		}
		if s.LastModified, err = parseTimePtr(lastModified); err != nil {
			return nil, fmt.Errorf("failed to parse stage last_modified: %w", err)
		}

		stages = append(stages, s)
		committeeUUIDs = append(committeeUUIDs, committeeUUID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stages: %w", err)
	}
	rows.Close()

	for i := range stages {
		s := &stages[i]

		if committeeUUIDs[i] != nil {
			c, err := GetCommitteeByUUID(q, *committeeUUIDs[i])
			if err != nil {
				return nil, err
			}
			s.Committee = c
		}

		s.Keywords, err = collectStrings(q.Query(
			"SELECT keyword FROM stage_keywords WHERE stage_uuid = ? ORDER BY keyword", s.UUID))
		if err != nil {
			return nil, fmt.Errorf("failed to load stage keywords: %w", err)
		}

		s.Documents, err = getStageDocuments(q, s.UUID)
		if err != nil {
			return nil, err
		}

		s.Opinions, err = getStageOpinions(q, s.UUID)
		if err != nil {
			return nil, err
		}
	}

	return stages, nil
}

func getStageDocuments(q Queryer, stageUUID string) ([]domain.Document, error) {
	uuids, err := collectStrings(q.Query(`
		SELECT document_uuid FROM stage_documents WHERE stage_uuid = ? ORDER BY rowid
	`, stageUUID))
	if err != nil {
		return nil, fmt.Errorf("failed to load stage document refs: %w", err)
	}

	var docs []domain.Document
	for _, du := range uuids {
		d, err := GetDocumentByUUID(q, du)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *d)
	}
	return docs, nil
}

func getStageOpinions(q Queryer, stageUUID string) ([]domain.Opinion, error) {
	rows, err := q.Query(`
		SELECT uuid, document_uuid, valence, register_link FROM opinions
		WHERE stage_uuid = ? ORDER BY rowid
	`, stageUUID)
	if err != nil {
		return nil, fmt.Errorf("failed to query opinions: %w", err)
	}
	defer rows.Close()

	type opinionRow struct {
		op      domain.Opinion
		docUUID string
	}
	var opRows []opinionRow
	for rows.Next() {
		var r opinionRow
		if err := rows.Scan(&r.op.UUID, &r.docUUID, &r.op.Valence, &r.op.RegisterLink); err != nil {
			return nil, fmt.Errorf("failed to scan opinion: %w", err)
		}
		opRows = append(opRows, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating opinions: %w", err)
	}

	var opinions []domain.Opinion
	for _, r := range opRows {
		d, err := GetDocumentByUUID(q, r.docUUID)
		if err != nil {
			return nil, err
		}
		r.op.Document = *d
		opinions = append(opinions, r.op)
	}
	return opinions, nil
}

// GetOpinion returns the UUID of the opinion tying the stage to the given
// document, or "" if none exists.
func GetOpinion(q Queryer, stageUUID, documentUUID string) (string, error) {
	uuids, err := collectStrings(q.Query(
		"SELECT uuid FROM opinions WHERE stage_uuid = ? AND document_uuid = ?", stageUUID, documentUUID))
	if err != nil {
		return "", fmt.Errorf("failed to query opinion: %w", err)
	}
	if len(uuids) == 0 {
		return "", nil
	}
	return uuids[0], nil
}

// InsertOpinion inserts the opinion row. The document must already be
// stored. Sets o.UUID.
func InsertOpinion(q Queryer, stageUUID, documentUUID string, o *domain.Opinion) error {
	o.UUID = uuid.NewString()
	_, err := q.Exec(`
		INSERT INTO opinions (uuid, stage_uuid, document_uuid, valence, register_link)
		VALUES (?, ?, ?, ?, ?)
	`, o.UUID, stageUUID, documentUUID, o.Valence, o.RegisterLink)
	if err != nil {
		return fmt.Errorf("failed to insert opinion: %w", err)
	}
	return nil
}

// UpdateOpinion applies the coalescing merge to an existing opinion.
func UpdateOpinion(q Queryer, opinionUUID string, o *domain.Opinion) error {
	var setClauses []string
	var args []any

	if o.Valence != 0 {
		setClauses = append(setClauses, "valence = ?")
		args = append(args, o.Valence)
	}
	if o.RegisterLink != nil {
		setClauses = append(setClauses, "register_link = ?")
		args = append(args, *o.RegisterLink)
	}
	if len(setClauses) == 0 {
		return nil
	}

	args = append(args, opinionUUID)
	query := "UPDATE opinions SET " + strings.Join(setClauses, ", ") + " WHERE uuid = ?"
	if _, err := q.Exec(query, args...); err != nil {
		return fmt.Errorf("failed to update opinion: %w", err)
	}
	return nil
}
