package model

import "time"

// Envelope is a lightweight, read-only snapshot of a message's identifying
// fields. Handle is a non-owning back-reference to the live store message;
// the engine never closes the underlying store through it.
type Envelope struct {
	ID         string
	Subject    string
	Sender     string
	ReceivedAt time.Time
	Body       string
	Handle     any
}

// EvidenceRow is one row extracted from a tabular document. The schema is
// interpreted downstream; this layer only carries the ordered cell values.
type EvidenceRow []any

// Context is the read-only input to a resolution call. PersonnelID and
// PersonName are already token-normalized. CompanyIsSpecialCase toggles
// name-before-id attachment matching for companies known to submit
// name-keyed sheets.
type Context struct {
	Anchor               time.Time
	PersonnelID          string
	PersonName           string
	CompanyIsSpecialCase bool
}

// EvidenceSource records which tier produced the evidence row.
type EvidenceSource string

const (
	SourceExternalDocument EvidenceSource = "external_document"
	SourceAttachment       EvidenceSource = "attachment"
)

// Evidence is the single commit target of a resolution. It is written once,
// when a tier succeeds; failed attempts never touch it.
type Evidence struct {
	Row       EvidenceRow
	RowIndex  int
	SheetName string
	Source    EvidenceSource

	Selected  Envelope
	Sender    string
	CC        []string
	BCC       []string
	ReplyBody string
}
