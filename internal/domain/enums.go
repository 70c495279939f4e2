package domain

import "context"

// ProcessType categorizes a legislative process.
type ProcessType string

const (
	ProcessTypeObjectionBill   ProcessType = "gg-einspruch"
	ProcessTypeConsentBill     ProcessType = "gg-zustimmung"
	ProcessTypeStateBill       ProcessType = "gg-land-parl"
	ProcessTypeStateReferendum ProcessType = "gg-land-volk"
	ProcessTypeDeployment      ProcessType = "bw-einsatz"
	ProcessTypeOther           ProcessType = "sonstig"
)

func (t ProcessType) String() string { return string(t) }

// Known reports whether the value is a member of the closed enumeration
// rather than the catch-all bucket.
func (t ProcessType) Known() bool {
	switch t {
	case ProcessTypeObjectionBill, ProcessTypeConsentBill, ProcessTypeStateBill,
		ProcessTypeStateReferendum, ProcessTypeDeployment:
		return true
	}
	return false
}

// ParseProcessType maps a collector-supplied value onto the enumeration,
// falling back to ProcessTypeOther.
func ParseProcessType(s string) ProcessType {
	t := ProcessType(s)
	if t.Known() {
		return t
	}
	return ProcessTypeOther
}

// StageType categorizes one step of a process through a parliamentary body.
type StageType string

const (
	StagePreparlDraft          StageType = "preparl-entwurf"
	StageParlInitiative        StageType = "parl-initiativ"
	StageCommitteeDeliberation StageType = "parl-ausschber"
	StagePlenaryReading        StageType = "parl-vollvlsgn"
	StageAccepted              StageType = "parl-akzeptanz"
	StageRejected              StageType = "parl-ablehnung"
	StagePostparlPublication   StageType = "postparl-gsblt"
	StageOther                 StageType = "sonstig"
)

func (t StageType) String() string { return string(t) }

func (t StageType) Known() bool {
	switch t {
	case StagePreparlDraft, StageParlInitiative, StageCommitteeDeliberation,
		StagePlenaryReading, StageAccepted, StageRejected, StagePostparlPublication:
		return true
	}
	return false
}

func ParseStageType(s string) StageType {
	t := StageType(s)
	if t.Known() {
		return t
	}
	return StageOther
}

// DocumentType categorizes a document.
type DocumentType string

const (
	DocumentTypeDraft     DocumentType = "entwurf"
	DocumentTypeMotion    DocumentType = "antrag"
	DocumentTypeProtocol  DocumentType = "protokoll"
	DocumentTypeReport    DocumentType = "bericht"
	DocumentTypeStatement DocumentType = "stellungnahme"
	DocumentTypeOther     DocumentType = "sonstig"
)

func (t DocumentType) String() string { return string(t) }

func (t DocumentType) Known() bool {
	switch t {
	case DocumentTypeDraft, DocumentTypeMotion, DocumentTypeProtocol,
		DocumentTypeReport, DocumentTypeStatement:
		return true
	}
	return false
}

func ParseDocumentType(s string) DocumentType {
	t := DocumentType(s)
	if t.Known() {
		return t
	}
	return DocumentTypeOther
}

// IdentifierKind categorizes a cross-reference identifier on a Process.
type IdentifierKind string

const (
	IdentifierInitiativePrint IdentifierKind = "initdrucks"
	IdentifierProcessNumber   IdentifierKind = "vorgnr"
	IdentifierAPI             IdentifierKind = "api-id"
	IdentifierOther           IdentifierKind = "sonstig"
)

func (k IdentifierKind) String() string { return string(k) }

func (k IdentifierKind) Known() bool {
	switch k {
	case IdentifierInitiativePrint, IdentifierProcessNumber, IdentifierAPI:
		return true
	}
	return false
}

func ParseIdentifierKind(s string) IdentifierKind {
	k := IdentifierKind(s)
	if k.Known() {
		return k
	}
	return IdentifierOther
}

// Parliament identifies the parliament a committee belongs to.
type Parliament string

const (
	ParliamentBT    Parliament = "BT" // Bundestag
	ParliamentBR    Parliament = "BR" // Bundesrat
	ParliamentBV    Parliament = "BV" // Bundesversammlung
	ParliamentBY    Parliament = "BY"
	ParliamentBW    Parliament = "BW"
	ParliamentNW    Parliament = "NW"
	ParliamentHE    Parliament = "HE"
	ParliamentSN    Parliament = "SN"
	ParliamentTH    Parliament = "TH"
	ParliamentOther Parliament = "sonstig"
)

func (p Parliament) String() string { return string(p) }

func (p Parliament) Known() bool {
	switch p {
	case ParliamentBT, ParliamentBR, ParliamentBV, ParliamentBY, ParliamentBW,
		ParliamentNW, ParliamentHE, ParliamentSN, ParliamentTH:
		return true
	}
	return false
}

func ParseParliament(s string) Parliament {
	p := Parliament(s)
	if p.Known() {
		return p
	}
	return ParliamentOther
}

// Categorical is implemented by every closed enumeration with a catch-all
// bucket.
type Categorical interface {
	String() string
	Known() bool
}

// CategoryNotifier is the slice of the notifier GuardCategory needs.
type CategoryNotifier interface {
	UnknownCategory(ctx context.Context, entityID, field, value string)
}

// GuardCategory serializes a categorical value for storage. Values in the
// catch-all bucket trigger an unknown-category notification before being
// returned; the operation itself proceeds with the fallback value.
func GuardCategory(ctx context.Context, n CategoryNotifier, entityID, field string, c Categorical) string {
	if !c.Known() && n != nil {
		n.UnknownCategory(ctx, entityID, field, c.String())
	}
	return c.String()
}
