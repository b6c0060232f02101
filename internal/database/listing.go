package database

import (
	"context"

	"github.com/go-while/go-pokr/internal/models"
)

// StatusSummary counts the bills of an assembly per status, in status id
// order. Statuses without bills are left out.
func StatusSummary(ctx context.Context, repo BillRepository, assemblyID int64) ([]models.StatusCount, error) {
	statuses, err := repo.ListBillStatuses(ctx)
	if err != nil {
		return nil, err
	}
	counts := make([]models.StatusCount, 0, len(statuses))
	for _, s := range statuses {
		n, err := repo.CountBillsByAssemblyAndStatus(ctx, assemblyID, s.ID)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			continue
		}
		counts = append(counts, models.StatusCount{
			ID:    s.ID,
			Name:  s.Name,
			Value: n,
			URL:   models.StatusListURL(assemblyID, s.ID),
		})
	}
	return counts, nil
}

// Listing is one page plus the totals the grid needs
type Listing struct {
	Bills    []*models.Bill
	Total    int64 // bills in the assembly
	Filtered int64 // bills matching the status filter, Total without one
}

// PageListing runs the counts and the page query for q
func PageListing(ctx context.Context, repo BillRepository, q models.BillQuery) (*Listing, error) {
	total, err := repo.CountBillsByAssembly(ctx, q.AssemblyID)
	if err != nil {
		return nil, err
	}
	filtered := total
	if q.StatusID != 0 {
		if filtered, err = repo.CountBillsByAssemblyAndStatus(ctx, q.AssemblyID, q.StatusID); err != nil {
			return nil, err
		}
	}
	bills, err := repo.PageBillsByAssembly(ctx, q)
	if err != nil {
		return nil, err
	}
	return &Listing{Bills: bills, Total: total, Filtered: filtered}, nil
}
