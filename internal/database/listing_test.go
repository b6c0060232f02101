package database_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/go-while/go-pokr/internal/database"
	"github.com/go-while/go-pokr/internal/models"
)

func TestStatusSummarySkipsEmptyStatuses(t *testing.T) {
	db := openTestDB(t)
	seed(t, db)

	counts, err := database.StatusSummary(context.Background(), db, 20)
	require.NoError(t, err)
	require.Equal(t, []models.StatusCount{
		{ID: 1, Name: "proposed", Value: 3, URL: "/bill/?assembly_id=20&status_id=1"},
		{ID: 2, Name: "passed", Value: 2, URL: "/bill/?assembly_id=20&status_id=2"},
	}, counts)

	counts, err = database.StatusSummary(context.Background(), db, 19)
	require.NoError(t, err)
	require.Empty(t, counts)
}

func TestPageListingTotals(t *testing.T) {
	db := openTestDB(t)
	seed(t, db)
	ctx := context.Background()

	l, err := database.PageListing(ctx, db, models.BillQuery{AssemblyID: 20, Sort: models.DefaultSort, Limit: 2})
	require.NoError(t, err)
	require.EqualValues(t, 5, l.Total)
	require.EqualValues(t, 5, l.Filtered)
	require.Len(t, l.Bills, 2)

	l, err = database.PageListing(ctx, db, models.BillQuery{AssemblyID: 20, StatusID: 1, Sort: models.DefaultSort, Limit: 10})
	require.NoError(t, err)
	require.EqualValues(t, 5, l.Total)
	require.EqualValues(t, 3, l.Filtered)
	require.Len(t, l.Bills, 3)

	l, err = database.PageListing(ctx, db, models.BillQuery{AssemblyID: 19, Sort: models.DefaultSort, Limit: 10})
	require.NoError(t, err)
	require.Zero(t, l.Total)
	require.Empty(t, l.Bills)
}
