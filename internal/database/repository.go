package database

import (
	"context"

	"github.com/go-while/go-pokr/internal/models"
)

// BillRepository is the read side used by the web handlers.
// Implementations return models.ErrNotFound for unknown bills and
// models.ErrDataIntegrity when an id matches more than one row.
type BillRepository interface {
	FindBillByID(ctx context.Context, id string) (*models.Bill, error)
	CountBillsByAssembly(ctx context.Context, assemblyID int64) (int64, error)
	CountBillsByAssemblyAndStatus(ctx context.Context, assemblyID, statusID int64) (int64, error)
	PageBillsByAssembly(ctx context.Context, q models.BillQuery) ([]*models.Bill, error)
	ListBillStatuses(ctx context.Context) ([]*models.BillStatus, error)
	CurrentAssemblyID(ctx context.Context) (int64, error)
}

var _ BillRepository = (*Database)(nil)
