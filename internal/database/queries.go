// Package database provides the sqlite backed bill repository for go-pokr
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-while/go-pokr/internal/models"
)

var dateLayouts = []string{
	models.DateLayout,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z",
}

// parseDateString accepts the stored ISO date plus the timestamp forms an
// importer may have written; unparsable values yield the zero time.
func parseDateString(dateStr string) time.Time {
	dateStr = strings.TrimSpace(dateStr)
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, dateStr); err == nil {
			return parsed
		}
	}
	return time.Time{}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// sortExpressions maps every allowed column to its SQL expression. Only these
// strings are ever spliced into ORDER BY.
var sortExpressions = map[models.SortColumn]string{
	models.SortProposedDate: "b.proposed_date",
	models.SortName:         "b.name",
	models.SortSponsor:      "b.sponsor",
	models.SortStatus:       "COALESCE(s.name, '')",
}

func orderClause(spec models.SortSpec) (string, error) {
	expr, ok := sortExpressions[spec.Column]
	if !ok {
		return "", fmt.Errorf("%w: sort column %s", models.ErrMalformedRequest, spec.Column)
	}
	dir := "ASC"
	if spec.Direction == models.SortDesc {
		dir = "DESC"
	}
	return fmt.Sprintf("ORDER BY %s %s, b.id DESC", expr, dir), nil
}

// --- Bills ---

const query_billColumns = `b.id, b.proposed_date, b.name, b.summary, b.sponsor,
	b.status_id, COALESCE(s.name, ''), b.assembly_id, b.link_id,
	b.document_pdf_path, b.document_text_path
	FROM bills b LEFT JOIN bill_statuses s ON s.id = b.status_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBill(row rowScanner) (*models.Bill, error) {
	var (
		b            models.Bill
		proposedDate string
		pdfPath      sql.NullString
		textPath     sql.NullString
	)
	if err := row.Scan(&b.ID, &proposedDate, &b.Name, &b.Summary, &b.Sponsor,
		&b.StatusID, &b.Status, &b.AssemblyID, &b.LinkID, &pdfPath, &textPath); err != nil {
		return nil, err
	}
	b.ProposedDate = parseDateString(proposedDate)
	b.DocumentPDFPath = pdfPath.String
	b.DocumentTextPath = textPath.String
	return &b, nil
}

// LIMIT 2 so a duplicated id is detected instead of silently picking one row
const query_FindBillByID = `SELECT ` + query_billColumns + ` WHERE b.id = ? LIMIT 2`

// FindBillByID returns the single bill with id
func (db *Database) FindBillByID(ctx context.Context, id string) (*models.Bill, error) {
	rows, err := db.mainDB.QueryContext(ctx, query_FindBillByID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query bill %s: %w", id, err)
	}
	defer rows.Close()

	var found []*models.Bill
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bill %s: %w", id, err)
		}
		found = append(found, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bill %s: %w", id, err)
	}

	switch len(found) {
	case 0:
		return nil, fmt.Errorf("bill %s: %w", id, models.ErrNotFound)
	case 1:
		return found[0], nil
	default:
		return nil, fmt.Errorf("bill %s matched %d rows: %w", id, len(found), models.ErrDataIntegrity)
	}
}

const query_CountBillsByAssembly = `SELECT COUNT(*) FROM bills WHERE assembly_id = ?`

// CountBillsByAssembly counts all bills of an assembly
func (db *Database) CountBillsByAssembly(ctx context.Context, assemblyID int64) (int64, error) {
	var n int64
	if err := db.mainDB.QueryRowContext(ctx, query_CountBillsByAssembly, assemblyID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count bills of assembly %d: %w", assemblyID, err)
	}
	return n, nil
}

const query_CountBillsByAssemblyAndStatus = `SELECT COUNT(*) FROM bills WHERE assembly_id = ? AND status_id = ?`

// CountBillsByAssemblyAndStatus counts bills of an assembly in one status
func (db *Database) CountBillsByAssemblyAndStatus(ctx context.Context, assemblyID, statusID int64) (int64, error) {
	var n int64
	if err := db.mainDB.QueryRowContext(ctx, query_CountBillsByAssemblyAndStatus, assemblyID, statusID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count bills of assembly %d status %d: %w", assemblyID, statusID, err)
	}
	return n, nil
}

// PageBillsByAssembly returns one ordered page of an assembly's bills,
// optionally restricted to q.StatusID.
func (db *Database) PageBillsByAssembly(ctx context.Context, q models.BillQuery) ([]*models.Bill, error) {
	if q.Offset < 0 || q.Limit <= 0 {
		return nil, fmt.Errorf("%w: offset %d limit %d", models.ErrMalformedRequest, q.Offset, q.Limit)
	}
	order, err := orderClause(q.Sort)
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	sb.WriteString(`SELECT `)
	sb.WriteString(query_billColumns)
	sb.WriteString(` WHERE b.assembly_id = ?`)
	args := []any{q.AssemblyID}
	if q.StatusID != 0 {
		sb.WriteString(` AND b.status_id = ?`)
		args = append(args, q.StatusID)
	}
	sb.WriteString(` `)
	sb.WriteString(order)
	sb.WriteString(` LIMIT ? OFFSET ?`)
	args = append(args, q.Limit, q.Offset)

	rows, err := db.mainDB.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to page bills of assembly %d: %w", q.AssemblyID, err)
	}
	defer rows.Close()

	bills := make([]*models.Bill, 0, q.Limit)
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bill row: %w", err)
		}
		bills = append(bills, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bill rows: %w", err)
	}
	return bills, nil
}

// --- Reference data ---

const query_ListBillStatuses = `SELECT id, name FROM bill_statuses ORDER BY id`

// ListBillStatuses returns every status ordered by id
func (db *Database) ListBillStatuses(ctx context.Context) ([]*models.BillStatus, error) {
	rows, err := db.mainDB.QueryContext(ctx, query_ListBillStatuses)
	if err != nil {
		return nil, fmt.Errorf("failed to query bill statuses: %w", err)
	}
	defer rows.Close()

	var statuses []*models.BillStatus
	for rows.Next() {
		var s models.BillStatus
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			return nil, fmt.Errorf("failed to scan bill status: %w", err)
		}
		statuses = append(statuses, &s)
	}
	return statuses, rows.Err()
}

const query_ListAssemblies = `SELECT id, name, is_current FROM assemblies ORDER BY id DESC`

// ListAssemblies returns every assembly, newest first
func (db *Database) ListAssemblies(ctx context.Context) ([]*models.Assembly, error) {
	rows, err := db.mainDB.QueryContext(ctx, query_ListAssemblies)
	if err != nil {
		return nil, fmt.Errorf("failed to query assemblies: %w", err)
	}
	defer rows.Close()

	var out []*models.Assembly
	for rows.Next() {
		var a models.Assembly
		if err := rows.Scan(&a.ID, &a.Name, &a.IsCurrent); err != nil {
			return nil, fmt.Errorf("failed to scan assembly: %w", err)
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}

const query_CurrentAssemblyID = `SELECT id FROM assemblies ORDER BY is_current DESC, id DESC LIMIT 1`

// CurrentAssemblyID returns the flagged assembly, else the highest id, else
// the configured fallback.
func (db *Database) CurrentAssemblyID(ctx context.Context) (int64, error) {
	var id int64
	err := db.mainDB.QueryRowContext(ctx, query_CurrentAssemblyID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return db.dbconfig.FallbackAssembly, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to query current assembly: %w", err)
	}
	return id, nil
}

// --- Write side, used by billmgr import ---

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

const query_UpsertAssembly = `INSERT INTO assemblies (id, name, is_current) VALUES (?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET name = excluded.name, is_current = excluded.is_current`

// UpsertAssembly inserts or updates an assembly
func (db *Database) UpsertAssembly(ctx context.Context, a *models.Assembly) error {
	return upsertAssembly(ctx, db.mainDB, a)
}

func upsertAssembly(ctx context.Context, ex execer, a *models.Assembly) error {
	if _, err := ex.ExecContext(ctx, query_UpsertAssembly, a.ID, a.Name, a.IsCurrent); err != nil {
		return fmt.Errorf("failed to upsert assembly %d: %w", a.ID, err)
	}
	return nil
}

const query_UpsertBillStatus = `INSERT INTO bill_statuses (id, name) VALUES (?, ?)
	ON CONFLICT(id) DO UPDATE SET name = excluded.name`

// UpsertBillStatus inserts or updates a status
func (db *Database) UpsertBillStatus(ctx context.Context, s *models.BillStatus) error {
	return upsertBillStatus(ctx, db.mainDB, s)
}

func upsertBillStatus(ctx context.Context, ex execer, s *models.BillStatus) error {
	if _, err := ex.ExecContext(ctx, query_UpsertBillStatus, s.ID, s.Name); err != nil {
		return fmt.Errorf("failed to upsert bill status %d: %w", s.ID, err)
	}
	return nil
}

const query_UpsertBill = `INSERT INTO bills (id, proposed_date, name, summary, sponsor, status_id,
	assembly_id, link_id, document_pdf_path, document_text_path)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		proposed_date = excluded.proposed_date,
		name = excluded.name,
		summary = excluded.summary,
		sponsor = excluded.sponsor,
		status_id = excluded.status_id,
		assembly_id = excluded.assembly_id,
		link_id = excluded.link_id,
		document_pdf_path = excluded.document_pdf_path,
		document_text_path = excluded.document_text_path`

// UpsertBill inserts or updates a bill
func (db *Database) UpsertBill(ctx context.Context, b *models.Bill) error {
	return upsertBill(ctx, db.mainDB, b)
}

func upsertBill(ctx context.Context, ex execer, b *models.Bill) error {
	if strings.TrimSpace(b.ID) == "" {
		return fmt.Errorf("%w: bill without id", models.ErrMalformedRequest)
	}
	_, err := ex.ExecContext(ctx, query_UpsertBill,
		b.ID, b.ProposedDateISO(), b.Name, b.Summary, b.Sponsor, b.StatusID,
		b.AssemblyID, b.LinkID, nullString(b.DocumentPDFPath), nullString(b.DocumentTextPath))
	if err != nil {
		return fmt.Errorf("failed to upsert bill %s: %w", b.ID, err)
	}
	return nil
}

// ImportBatch is one ingestion run
type ImportBatch struct {
	Assemblies []*models.Assembly
	Statuses   []*models.BillStatus
	Bills      []*models.Bill
}

// ImportResult counts the rows written by Import
type ImportResult struct {
	Assemblies int
	Statuses   int
	Bills      int
}

// Import upserts a batch in one transaction, reference data first so the
// bills' foreign keys resolve.
func (db *Database) Import(ctx context.Context, batch *ImportBatch) (ImportResult, error) {
	var res ImportResult
	if batch == nil {
		return res, nil
	}
	err := retryableWrite(ctx, "import", func() error {
		var err error
		res, err = db.importOnce(ctx, batch)
		return err
	})
	return res, err
}

func (db *Database) importOnce(ctx context.Context, batch *ImportBatch) (ImportResult, error) {
	var res ImportResult
	tx, err := db.mainDB.BeginTx(ctx, nil)
	if err != nil {
		return res, fmt.Errorf("failed to begin import: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, a := range batch.Assemblies {
		if err := upsertAssembly(ctx, tx, a); err != nil {
			return ImportResult{}, err
		}
		res.Assemblies++
	}
	for _, s := range batch.Statuses {
		if err := upsertBillStatus(ctx, tx, s); err != nil {
			return ImportResult{}, err
		}
		res.Statuses++
	}
	for _, b := range batch.Bills {
		if err := upsertBill(ctx, tx, b); err != nil {
			return ImportResult{}, err
		}
		res.Bills++
	}

	if err := tx.Commit(); err != nil {
		return ImportResult{}, fmt.Errorf("failed to commit import: %w", err)
	}
	return res, nil
}
