package database_test

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/go-while/go-pokr/internal/database"
	"github.com/go-while/go-pokr/internal/models"
)

func openTestDB(t *testing.T) *database.Database {
	t.Helper()
	cfg := database.DefaultDBConfig()
	cfg.Path = filepath.Join(t.TempDir(), "pokr.sq3")
	cfg.FallbackAssembly = 7
	db, err := database.OpenDatabase(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, db.Close()) })
	return db
}

func day(s string) time.Time {
	d, err := time.Parse(models.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return d
}

// seed writes assembly 20 with five bills, two of them sharing a date, and an
// empty assembly 19.
func seed(t *testing.T, db *database.Database) {
	t.Helper()
	_, err := db.Import(context.Background(), &database.ImportBatch{
		Assemblies: []*models.Assembly{
			{ID: 19, Name: "19th"},
			{ID: 20, Name: "20th", IsCurrent: true},
		},
		Statuses: []*models.BillStatus{
			{ID: 1, Name: "proposed"},
			{ID: 2, Name: "passed"},
			{ID: 3, Name: "rejected"},
		},
		Bills: []*models.Bill{
			{ID: "2000001", ProposedDate: day("2016-06-01"), Name: "Budget Act", Sponsor: "Kim", StatusID: 1, AssemblyID: 20, LinkID: "PRC_A"},
			{ID: "2000002", ProposedDate: day("2016-06-03"), Name: "Alpha Act", Sponsor: "Park", StatusID: 2, AssemblyID: 20, LinkID: "PRC_B"},
			{ID: "2000003", ProposedDate: day("2016-06-03"), Name: "Zeta Act", Sponsor: "Lee", StatusID: 1, AssemblyID: 20, LinkID: "PRC_C", DocumentPDFPath: "pdf/2000003.pdf"},
			{ID: "2000004", ProposedDate: day("2016-05-30"), Name: "Civil Act", Sponsor: "Kim", StatusID: 2, AssemblyID: 20, LinkID: "PRC_D"},
			{ID: "2000005", ProposedDate: day("2016-06-10"), Name: "Beta Act", Sponsor: "Choi", StatusID: 1, AssemblyID: 20, LinkID: "PRC_E", DocumentTextPath: "txt/2000005.txt"},
		},
	})
	require.NoError(t, err)
}

func ids(bills []*models.Bill) []string {
	out := make([]string, 0, len(bills))
	for _, b := range bills {
		out = append(out, b.ID)
	}
	return out
}

func TestMigrationsRecorded(t *testing.T) {
	db := openTestDB(t)
	applied, err := db.AppliedMigrations(context.Background())
	require.NoError(t, err)
	require.True(t, applied["0001_main_bills.sql"])
	require.True(t, applied["0002_main_bills_sort_indexes.sql"])
}

func TestMigrateIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pokr.sq3")
	for i := 0; i < 2; i++ {
		cfg := database.DefaultDBConfig()
		cfg.Path = path
		db, err := database.OpenDatabase(context.Background(), cfg)
		require.NoError(t, err)
		require.NoError(t, db.Close())
	}
}

func TestFindBillByID(t *testing.T) {
	db := openTestDB(t)
	seed(t, db)
	ctx := context.Background()

	b, err := db.FindBillByID(ctx, "2000003")
	require.NoError(t, err)
	require.Equal(t, "Zeta Act", b.Name)
	require.Equal(t, "proposed", b.Status)
	require.Equal(t, "2016-06-03", b.ProposedDateISO())
	require.Equal(t, "pdf/2000003.pdf", b.DocumentPDFPath)
	require.Empty(t, b.DocumentTextPath)
	require.True(t, b.HasPDF())

	_, err = db.FindBillByID(ctx, "9999999")
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestEmptyAssembly(t *testing.T) {
	db := openTestDB(t)
	seed(t, db)
	ctx := context.Background()

	n, err := db.CountBillsByAssembly(ctx, 19)
	require.NoError(t, err)
	require.Zero(t, n)

	bills, err := db.PageBillsByAssembly(ctx, models.BillQuery{AssemblyID: 19, Sort: models.DefaultSort, Limit: 10})
	require.NoError(t, err)
	require.NotNil(t, bills)
	require.Empty(t, bills)
}

func TestCounts(t *testing.T) {
	db := openTestDB(t)
	seed(t, db)
	ctx := context.Background()

	n, err := db.CountBillsByAssembly(ctx, 20)
	require.NoError(t, err)
	require.EqualValues(t, 5, n)

	for status, want := range map[int64]int64{1: 3, 2: 2, 3: 0} {
		got, err := db.CountBillsByAssemblyAndStatus(ctx, 20, status)
		require.NoError(t, err)
		require.Equal(t, want, got, "status %d", status)
	}
}

func TestPageDefaultSort(t *testing.T) {
	db := openTestDB(t)
	seed(t, db)

	bills, err := db.PageBillsByAssembly(context.Background(), models.BillQuery{AssemblyID: 20, Sort: models.DefaultSort, Limit: 10})
	require.NoError(t, err)
	// equal dates fall back to id descending
	require.Equal(t, []string{"2000005", "2000003", "2000002", "2000001", "2000004"}, ids(bills))
}

func TestPageSortEveryColumn(t *testing.T) {
	db := openTestDB(t)
	seed(t, db)
	ctx := context.Background()

	all, err := db.PageBillsByAssembly(ctx, models.BillQuery{AssemblyID: 20, Sort: models.DefaultSort, Limit: 100})
	require.NoError(t, err)

	key := map[models.SortColumn]func(b *models.Bill) string{
		models.SortProposedDate: func(b *models.Bill) string { return b.ProposedDateISO() },
		models.SortName:         func(b *models.Bill) string { return b.Name },
		models.SortSponsor:      func(b *models.Bill) string { return b.Sponsor },
		models.SortStatus:       func(b *models.Bill) string { return b.Status },
	}

	for col, k := range key {
		for _, dir := range []models.SortDirection{models.SortAsc, models.SortDesc} {
			name := fmt.Sprintf("%s %s", col, dir)
			want := append([]*models.Bill(nil), all...)
			sort.SliceStable(want, func(i, j int) bool {
				ki, kj := k(want[i]), k(want[j])
				if ki != kj {
					if dir == models.SortAsc {
						return ki < kj
					}
					return ki > kj
				}
				return want[i].ID > want[j].ID
			})

			got, err := db.PageBillsByAssembly(ctx, models.BillQuery{
				AssemblyID: 20,
				Sort:       models.SortSpec{Column: col, Direction: dir},
				Limit:      100,
			})
			require.NoError(t, err, name)
			require.Equal(t, ids(want), ids(got), name)
		}
	}
}

func TestPageWindow(t *testing.T) {
	db := openTestDB(t)
	seed(t, db)
	ctx := context.Background()

	all, err := db.PageBillsByAssembly(ctx, models.BillQuery{AssemblyID: 20, Sort: models.DefaultSort, Limit: 100})
	require.NoError(t, err)

	for start := 0; start <= len(all); start++ {
		for length := 1; length <= 3; length++ {
			page, err := db.PageBillsByAssembly(ctx, models.BillQuery{AssemblyID: 20, Sort: models.DefaultSort, Offset: start, Limit: length})
			require.NoError(t, err)
			end := min(start+length, len(all))
			require.LessOrEqual(t, len(page), length)
			require.Equal(t, ids(all[start:end]), ids(page), "start=%d length=%d", start, length)
		}
	}
}

func TestPageStatusFilter(t *testing.T) {
	db := openTestDB(t)
	seed(t, db)

	bills, err := db.PageBillsByAssembly(context.Background(), models.BillQuery{AssemblyID: 20, StatusID: 2, Sort: models.DefaultSort, Limit: 10})
	require.NoError(t, err)
	require.Equal(t, []string{"2000002", "2000004"}, ids(bills))
}

func TestPageRejectsBadWindow(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := db.PageBillsByAssembly(ctx, models.BillQuery{AssemblyID: 20, Sort: models.DefaultSort, Offset: -1, Limit: 10})
	require.ErrorIs(t, err, models.ErrMalformedRequest)
	_, err = db.PageBillsByAssembly(ctx, models.BillQuery{AssemblyID: 20, Sort: models.DefaultSort, Limit: 0})
	require.ErrorIs(t, err, models.ErrMalformedRequest)
	_, err = db.PageBillsByAssembly(ctx, models.BillQuery{AssemblyID: 20, Sort: models.SortSpec{Column: 9}, Limit: 10})
	require.ErrorIs(t, err, models.ErrMalformedRequest)
}

func TestReferenceData(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	id, err := db.CurrentAssemblyID(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 7, id, "fallback without rows")

	seed(t, db)
	id, err = db.CurrentAssemblyID(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 20, id)

	// flag moves to the older assembly
	require.NoError(t, db.UpsertAssembly(ctx, &models.Assembly{ID: 20, Name: "20th"}))
	require.NoError(t, db.UpsertAssembly(ctx, &models.Assembly{ID: 19, Name: "19th", IsCurrent: true}))
	id, err = db.CurrentAssemblyID(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 19, id)

	statuses, err := db.ListBillStatuses(ctx)
	require.NoError(t, err)
	require.Len(t, statuses, 3)
	require.Equal(t, "proposed", statuses[0].Name)

	assemblies, err := db.ListAssemblies(ctx)
	require.NoError(t, err)
	require.Len(t, assemblies, 2)
	require.EqualValues(t, 20, assemblies[0].ID)
	require.True(t, assemblies[1].IsCurrent)
}

func TestUpsertBillUpdates(t *testing.T) {
	db := openTestDB(t)
	seed(t, db)
	ctx := context.Background()

	b, err := db.FindBillByID(ctx, "2000001")
	require.NoError(t, err)
	b.StatusID = 2
	b.DocumentTextPath = "txt/2000001.txt"
	require.NoError(t, db.UpsertBill(ctx, b))

	got, err := db.FindBillByID(ctx, "2000001")
	require.NoError(t, err)
	require.Equal(t, "passed", got.Status)
	require.Equal(t, "txt/2000001.txt", got.DocumentTextPath)

	n, err := db.CountBillsByAssembly(ctx, 20)
	require.NoError(t, err)
	require.EqualValues(t, 5, n)
}

func TestImportRollsBackOnFailure(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := db.Import(ctx, &database.ImportBatch{
		Assemblies: []*models.Assembly{{ID: 20, Name: "20th"}},
		Statuses:   []*models.BillStatus{{ID: 1, Name: "proposed"}},
		Bills: []*models.Bill{
			{ID: "1", StatusID: 1, AssemblyID: 20},
			{ID: "2", StatusID: 99, AssemblyID: 20}, // unknown status
		},
	})
	require.Error(t, err)

	n, err := db.CountBillsByAssembly(ctx, 20)
	require.NoError(t, err)
	require.Zero(t, n)
	assemblies, err := db.ListAssemblies(ctx)
	require.NoError(t, err)
	require.Empty(t, assemblies)
}
