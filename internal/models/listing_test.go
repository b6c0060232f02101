package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTruncateSummary(t *testing.T) {
	exact := strings.Repeat("\uac00", SummaryLimit)
	require.Equal(t, exact, TruncateSummary(exact))

	long := strings.Repeat("a", SummaryLimit+1)
	got := TruncateSummary(long)
	require.Equal(t, strings.Repeat("a", SummaryLimit)+Ellipsis, got)

	require.Equal(t, "", TruncateSummary(""))
	require.Equal(t, "short", TruncateSummary("short"))
}

func TestTruncateCountsComposedHangul(t *testing.T) {
	// U+1100 U+1161 composes to U+AC00 under NFC.
	decomposed := strings.Repeat("\u1100\u1161", SummaryLimit)
	require.Equal(t, strings.Repeat("\uac00", SummaryLimit), Truncate(decomposed, SummaryLimit))

	tooLong := strings.Repeat("\u1100\u1161", SummaryLimit+2)
	require.Equal(t, strings.Repeat("\uac00", SummaryLimit)+Ellipsis, Truncate(tooLong, SummaryLimit))
}

func TestParseSortColumn(t *testing.T) {
	for raw, want := range map[string]SortColumn{
		"0": SortProposedDate, "1": SortName, "2": SortSponsor, "3": SortStatus,
	} {
		col, err := ParseSortColumn(raw)
		require.NoError(t, err)
		require.Equal(t, want, col)
	}
	for _, raw := range []string{"4", "-1", "x", ""} {
		_, err := ParseSortColumn(raw)
		require.ErrorIs(t, err, ErrMalformedRequest, raw)
	}

	col, err := SortColumnByName("Sponsor")
	require.NoError(t, err)
	require.Equal(t, SortSponsor, col)
	_, err = SortColumnByName("summary")
	require.ErrorIs(t, err, ErrMalformedRequest)
}

func TestParseSortDirection(t *testing.T) {
	require.Equal(t, SortAsc, ParseSortDirection(""))
	require.Equal(t, SortAsc, ParseSortDirection("asc"))
	require.Equal(t, SortDesc, ParseSortDirection("desc"))
	require.Equal(t, SortDesc, ParseSortDirection("ASC"))
	require.Equal(t, "proposed_date desc", DefaultSort.String())
}

func TestNewListRow(t *testing.T) {
	b := &Bill{
		ID:           "1901234",
		ProposedDate: time.Date(2014, 5, 2, 0, 0, 0, 0, time.UTC),
		Name:         "Act <amendment>",
		Summary:      strings.Repeat("s", SummaryLimit+10),
		Sponsor:      "Kim",
		Status:       "passed",
	}
	row := NewListRow(b)
	require.Equal(t, "1901234", row.RowID)
	require.Equal(t, RowClass, row.RowClass)
	require.Equal(t, "2014-05-02", row.ProposedDate)
	require.Equal(t, "<b>Act &lt;amendment&gt;</b>&nbsp;<small>(1901234)</small><br><small>"+
		strings.Repeat("s", SummaryLimit)+"...</small>", row.Name)
	require.Equal(t, "Kim", row.Sponsor)
	require.Equal(t, "passed", row.Status)
}

func TestListResponseJSON(t *testing.T) {
	raw, err := json.Marshal(NewListResponse(7, nil, 0, 0))
	require.NoError(t, err)
	require.JSONEq(t, `{"draw":7,"data":[],"recordsTotal":0,"recordsFiltered":0}`, string(raw))

	raw, err = json.Marshal(NewListRow(&Bill{ID: "1"}))
	require.NoError(t, err)
	require.Contains(t, string(raw), `"DT_RowId":"1"`)
	require.Contains(t, string(raw), `"DT_RowClass":"clickable"`)
}
