package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"

	"golang.org/x/term"

	"github.com/go-while/go-pokr/internal/database"
	"github.com/go-while/go-pokr/internal/models"
)

// isTerminal reports whether w is an interactive terminal
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// terminalWidth falls back to 120 columns when the size is unknown
func terminalWidth(w io.Writer) int {
	if f, ok := w.(*os.File); ok {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
			return width
		}
	}
	return 120
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printListing(w io.Writer, forceJSON bool, q models.BillQuery, l *database.Listing) error {
	if forceJSON || !isTerminal(w) {
		return writeJSON(w, struct {
			AssemblyID int64          `json:"assembly_id"`
			Order      string         `json:"order"`
			Total      int64          `json:"total"`
			Filtered   int64          `json:"filtered"`
			Bills      []*models.Bill `json:"bills"`
		}{q.AssemblyID, q.Sort.String(), l.Total, l.Filtered, l.Bills})
	}

	nameWidth := max(terminalWidth(w)-50, 20)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "ID\tPROPOSED\tNAME\tSPONSOR\tSTATUS\n")
	for _, b := range l.Bills {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", b.ID, b.ProposedDateISO(), models.Truncate(b.Name, nameWidth), b.Sponsor, b.Status)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\nassembly %d, rows %d-%d of %d (%d matching), order %s\n",
		q.AssemblyID, q.Offset+1, q.Offset+len(l.Bills), l.Total, l.Filtered, q.Sort)
	return err
}

func printSummary(w io.Writer, forceJSON bool, assemblyID int64, counts []models.StatusCount) error {
	if forceJSON || !isTerminal(w) {
		return writeJSON(w, struct {
			AssemblyID   int64                `json:"assembly_id"`
			StatusCounts []models.StatusCount `json:"status_counts"`
		}{assemblyID, counts})
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "STATUS\tBILLS\tURL\n")
	for _, c := range counts {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", c.Name, c.Value, c.URL)
	}
	return tw.Flush()
}

func printMigrations(w io.Writer, applied map[string]bool) error {
	names := make([]string, 0, len(applied))
	for name := range applied {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, err := fmt.Fprintln(w, name); err != nil {
			return err
		}
	}
	return nil
}
