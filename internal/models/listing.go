package models

import (
	"fmt"
	"html"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

const (
	SummaryLimit = 140
	Ellipsis     = "..."
	RowClass     = "clickable"
)

// SortColumn is the closed set of grid columns a listing can be ordered by.
// The numeric value is the grid column index.
type SortColumn int

const (
	SortProposedDate SortColumn = iota
	SortName
	SortSponsor
	SortStatus
)

var sortColumnKeys = [...]string{
	SortProposedDate: "proposed_date",
	SortName:         "name",
	SortSponsor:      "sponsor",
	SortStatus:       "status",
}

func (c SortColumn) String() string {
	if c < 0 || int(c) >= len(sortColumnKeys) {
		return fmt.Sprintf("SortColumn(%d)", int(c))
	}
	return sortColumnKeys[c]
}

// Valid reports whether c is one of the allowed columns
func (c SortColumn) Valid() bool {
	return c >= 0 && int(c) < len(sortColumnKeys)
}

// ParseSortColumn maps the grid's order[0][column] index to a column.
func ParseSortColumn(raw string) (SortColumn, error) {
	idx, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%w: order column %q is not an integer", ErrMalformedRequest, raw)
	}
	col := SortColumn(idx)
	if !col.Valid() {
		return 0, fmt.Errorf("%w: order column %d out of range", ErrMalformedRequest, idx)
	}
	return col, nil
}

// SortColumnByName maps "proposed_date", "name", "sponsor" or "status".
func SortColumnByName(name string) (SortColumn, error) {
	for i, key := range sortColumnKeys {
		if strings.EqualFold(key, strings.TrimSpace(name)) {
			return SortColumn(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown sort column %q", ErrMalformedRequest, name)
}

type SortDirection int

const (
	SortAsc SortDirection = iota
	SortDesc
)

func (d SortDirection) String() string {
	if d == SortDesc {
		return "desc"
	}
	return "asc"
}

// ParseSortDirection treats a missing value and "asc" as ascending; any other
// value is descending.
func ParseSortDirection(raw string) SortDirection {
	if raw == "" || raw == "asc" {
		return SortAsc
	}
	return SortDesc
}

// SortSpec is a validated ordering. Ties are always broken by id descending.
type SortSpec struct {
	Column    SortColumn
	Direction SortDirection
}

// DefaultSort orders newest proposals first
var DefaultSort = SortSpec{Column: SortProposedDate, Direction: SortDesc}

func (s SortSpec) String() string {
	return s.Column.String() + " " + s.Direction.String()
}

// BillQuery selects one page of bills of an assembly.
// StatusID 0 means no status filter.
type BillQuery struct {
	AssemblyID int64
	StatusID   int64
	Sort       SortSpec
	Offset     int
	Limit      int
}

// ListRow is one grid row. Name is pre-rendered markup the grid inserts as is.
type ListRow struct {
	RowID        string `json:"DT_RowId"`
	RowClass     string `json:"DT_RowClass"`
	ProposedDate string `json:"proposed_date"`
	Name         string `json:"name"`
	Sponsor      string `json:"sponsor"`
	Status       string `json:"status"`
}

// ListResponse is the envelope the grid front-end expects
type ListResponse struct {
	Draw            int       `json:"draw"`
	Data            []ListRow `json:"data"`
	RecordsTotal    int64     `json:"recordsTotal"`
	RecordsFiltered int64     `json:"recordsFiltered"`
}

// NewListRow serializes a bill for the grid
func NewListRow(b *Bill) ListRow {
	return ListRow{
		RowID:        b.ID,
		RowClass:     RowClass,
		ProposedDate: b.ProposedDateISO(),
		Name:         NameCell(b),
		Sponsor:      b.Sponsor,
		Status:       b.Status,
	}
}

// NewListResponse builds the envelope; data is [] rather than null when empty.
func NewListResponse(draw int, bills []*Bill, total, filtered int64) ListResponse {
	rows := make([]ListRow, 0, len(bills))
	for _, b := range bills {
		rows = append(rows, NewListRow(b))
	}
	return ListResponse{
		Draw:            draw,
		Data:            rows,
		RecordsTotal:    total,
		RecordsFiltered: filtered,
	}
}

// NameCell renders name, id and the truncated summary. Values are escaped
// after truncation so an entity is never cut in half.
func NameCell(b *Bill) string {
	return fmt.Sprintf("<b>%s</b>&nbsp;<small>(%s)</small><br><small>%s</small>",
		html.EscapeString(b.Name),
		html.EscapeString(b.ID),
		html.EscapeString(TruncateSummary(b.Summary)))
}

// TruncateSummary cuts summaries longer than SummaryLimit characters
func TruncateSummary(s string) string {
	return Truncate(s, SummaryLimit)
}

// Truncate keeps at most limit characters and appends Ellipsis when it cut.
// Text within the limit is returned untouched; longer text is NFC normalized
// first so decomposed Hangul counts as one character per syllable.
func Truncate(s string, limit int) string {
	if limit < 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	s = norm.NFC.String(s)
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit]) + Ellipsis
}
