package domain

import (
	"time"

	"github.com/google/uuid"
)

type ReportStatus string

const (
	StatusOpen   ReportStatus = "open"
	StatusClosed ReportStatus = "closed"
)

// Report is an append-only incident record. Context holds a snapshot of
// the reported account's recent messages frozen at creation time; it is
// never recomputed.
type Report struct {
	ID           uuid.UUID
	ReporterID   string
	ReporterName string
	ReportedID   string
	ReportedName string
	Room         string
	Reason       string
	Context      []Message
	Status       ReportStatus
	At           time.Time
}

// Ticket is an appeal filed over HTTP by a banned account.
// At most one open ticket may exist per account.
type Ticket struct {
	ID        uuid.UUID
	AccountID string
	Username  string
	Message   string
	Status    ReportStatus
	At        time.Time
}
