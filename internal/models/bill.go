// Package models contains the bill records and the listing contract shared by
// the database, web and cli layers.
package models

import (
	"errors"
	"net/url"
	"strconv"
	"time"
)

var (
	// ErrNotFound means no bill (or no document of a bill) matched.
	ErrNotFound = errors.New("not found")
	// ErrMalformedRequest marks request parameters that failed to parse.
	ErrMalformedRequest = errors.New("malformed request")
	// ErrDataIntegrity marks storage states that should be impossible,
	// e.g. two bills sharing one id.
	ErrDataIntegrity = errors.New("data integrity fault")
)

// DateLayout is the ISO-8601 calendar date used for proposed dates.
const DateLayout = "2006-01-02"

// Bill represents a legislative proposal record
type Bill struct {
	ID               string    `json:"id"`
	ProposedDate     time.Time `json:"proposed_date"`
	Name             string    `json:"name"`
	Summary          string    `json:"summary"`
	Sponsor          string    `json:"sponsor"`
	StatusID         int64     `json:"status_id"`
	Status           string    `json:"status"` // joined BillStatus.Name
	AssemblyID       int64     `json:"assembly_id"`
	LinkID           string    `json:"link_id"`
	DocumentPDFPath  string    `json:"document_pdf_path,omitempty"`
	DocumentTextPath string    `json:"document_text_path,omitempty"`
}

// HasPDF reports whether a pdf document path is recorded
func (b *Bill) HasPDF() bool {
	return b != nil && b.DocumentPDFPath != ""
}

// HasText reports whether a text document path is recorded
func (b *Bill) HasText() bool {
	return b != nil && b.DocumentTextPath != ""
}

// ProposedDateISO formats the proposed date as YYYY-MM-DD, empty when unset
func (b *Bill) ProposedDateISO() string {
	if b == nil || b.ProposedDate.IsZero() {
		return ""
	}
	return b.ProposedDate.Format(DateLayout)
}

// BillStatus is static reference data, e.g. "proposed", "passed"
type BillStatus struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Assembly is a legislative term scoping bills
type Assembly struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	IsCurrent bool   `json:"is_current"`
}

// StatusCount is one entry of the status summary
type StatusCount struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Value int64  `json:"value"`
	URL   string `json:"url"`
}

// StatusListURL links a status summary entry to the listing view filtered by
// assembly and status.
func StatusListURL(assemblyID, statusID int64) string {
	q := url.Values{}
	q.Set("assembly_id", strconv.FormatInt(assemblyID, 10))
	q.Set("status_id", strconv.FormatInt(statusID, 10))
	return "/bill/?" + q.Encode()
}
