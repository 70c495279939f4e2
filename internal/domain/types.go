// Package domain defines the legislative entity graph and the closed
// categorical enumerations used throughout the merge engine.
package domain

import "time"

// Process is a legislative undertaking (source term "Vorgang"). It is the
// top-level mergeable entity and owns its Stages.
type Process struct {
	UUID                 string       `json:"uuid,omitempty" yaml:"uuid,omitempty"`
	ExternalID           string       `json:"external_id" yaml:"external_id"`
	Title                string       `json:"title" yaml:"title"`
	ShortTitle           *string      `json:"short_title,omitempty" yaml:"short_title,omitempty"`
	ConstitutionalChange *bool        `json:"constitutional_change,omitempty" yaml:"constitutional_change,omitempty"`
	LegislativePeriod    int          `json:"legislative_period" yaml:"legislative_period"`
	Type                 ProcessType  `json:"type" yaml:"type"`
	Identifiers          []Identifier `json:"identifiers,omitempty" yaml:"identifiers,omitempty"`
	Initiators           []string     `json:"initiators,omitempty" yaml:"initiators,omitempty"`
	Links                []string     `json:"links,omitempty" yaml:"links,omitempty"`
	Stages               []Stage      `json:"stages,omitempty" yaml:"stages,omitempty"`
}

// Identifier is a typed cross-reference identifier attached to a Process.
type Identifier struct {
	Kind  IdentifierKind `json:"kind" yaml:"kind"`
	Value string         `json:"value" yaml:"value"`
}

// Stage is one step of a Process through a parliamentary body (source term
// "Station"). Owned by exactly one Process; shares Documents with other
// Stages and owns its Opinions.
type Stage struct {
	UUID         string     `json:"uuid,omitempty" yaml:"uuid,omitempty"`
	ExternalID   *string    `json:"external_id,omitempty" yaml:"external_id,omitempty"`
	Type         StageType  `json:"type" yaml:"type"`
	Committee    *Committee `json:"committee,omitempty" yaml:"committee,omitempty"`
	Title        *string    `json:"title,omitempty" yaml:"title,omitempty"`
	StartedAt    time.Time  `json:"started_at" yaml:"started_at"`
	LastModified *time.Time `json:"last_modified,omitempty" yaml:"last_modified,omitempty"`
	DangerFlag   *bool      `json:"danger_flag,omitempty" yaml:"danger_flag,omitempty"`
	Link         *string    `json:"link,omitempty" yaml:"link,omitempty"`
	Keywords     []string   `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	Documents    []Document `json:"documents,omitempty" yaml:"documents,omitempty"`
	Opinions     []Opinion  `json:"opinions,omitempty" yaml:"opinions,omitempty"`
}

// Document is a content-addressed artifact. Identity is established by
// content hash first, external id or official reference number second,
// never by parentage: the same row may be shared by many Stages, Opinions
// and AgendaItems.
type Document struct {
	UUID            string       `json:"uuid,omitempty" yaml:"uuid,omitempty"`
	ExternalID      *string      `json:"external_id,omitempty" yaml:"external_id,omitempty"`
	ReferenceNumber *string      `json:"reference_number,omitempty" yaml:"reference_number,omitempty"`
	Type            DocumentType `json:"type" yaml:"type"`
	Title           string       `json:"title" yaml:"title"`
	ShortTitle      *string      `json:"short_title,omitempty" yaml:"short_title,omitempty"`
	Foreword        *string      `json:"foreword,omitempty" yaml:"foreword,omitempty"`
	FullText        *string      `json:"full_text,omitempty" yaml:"full_text,omitempty"`
	Summary         *string      `json:"summary,omitempty" yaml:"summary,omitempty"`
	Hash            string       `json:"hash" yaml:"hash"`
	Link            *string      `json:"link,omitempty" yaml:"link,omitempty"`
	LastModified    *time.Time   `json:"last_modified,omitempty" yaml:"last_modified,omitempty"`
	Keywords        []string     `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	Authors         []Author     `json:"authors,omitempty" yaml:"authors,omitempty"`
}

// IsReference reports whether the document is submitted as a pure
// external-id reference rather than a full payload.
func (d *Document) IsReference() bool {
	return d.Hash == "" && d.ExternalID != nil && *d.ExternalID != ""
}

// Author of a Document. Person is empty for purely institutional authorship.
type Author struct {
	Person       string `json:"person,omitempty" yaml:"person,omitempty"`
	Organization string `json:"organization" yaml:"organization"`
}

// Opinion is a stance wrapping exactly one Document (source term
// "Stellungnahme"). Owned by a Stage.
type Opinion struct {
	UUID         string   `json:"uuid,omitempty" yaml:"uuid,omitempty"`
	Valence      int      `json:"valence" yaml:"valence"`
	RegisterLink *string  `json:"register_link,omitempty" yaml:"register_link,omitempty"`
	Document     Document `json:"document" yaml:"document"`
}

// Session is a scheduled meeting of a parliamentary committee (source term
// "Ausschusssitzung"). Owns its ordered AgendaItems.
type Session struct {
	UUID        string       `json:"uuid,omitempty" yaml:"uuid,omitempty"`
	ExternalID  *string      `json:"external_id,omitempty" yaml:"external_id,omitempty"`
	ScheduledAt time.Time    `json:"scheduled_at" yaml:"scheduled_at"`
	Public      *bool        `json:"public,omitempty" yaml:"public,omitempty"`
	Committee   Committee    `json:"committee" yaml:"committee"`
	Link        *string      `json:"link,omitempty" yaml:"link,omitempty"`
	Number      int          `json:"number" yaml:"number"`
	Title       *string      `json:"title,omitempty" yaml:"title,omitempty"`
	AgendaItems []AgendaItem `json:"agenda_items,omitempty" yaml:"agenda_items,omitempty"`
}

// AgendaItem is one item on a Session's agenda (source term "Top").
type AgendaItem struct {
	UUID      string     `json:"uuid,omitempty" yaml:"uuid,omitempty"`
	Number    int        `json:"number" yaml:"number"`
	Title     string     `json:"title" yaml:"title"`
	Documents []Document `json:"documents,omitempty" yaml:"documents,omitempty"`
}

// Committee is a standing or ad-hoc parliamentary body (source term
// "Gremium"). Committees carry no collector-assigned external id; they are
// resolved or created via fuzzy name matching.
type Committee struct {
	Name              string     `json:"name" yaml:"name"`
	Parliament        Parliament `json:"parliament" yaml:"parliament"`
	LegislativePeriod int        `json:"legislative_period" yaml:"legislative_period"`
	Link              *string    `json:"link,omitempty" yaml:"link,omitempty"`
	CalendarLink      *string    `json:"calendar_link,omitempty" yaml:"calendar_link,omitempty"`
}
