package repository

import (
	"context"
	"errors"

	"github.com/andresuchdata/restock/internal/domain"
)

var (
	ErrNotFound = errors.New("record not found")
	// ErrConflict marks a write that lost a race with a concurrent writer.
	ErrConflict = errors.New("concurrent write conflict")
)

type ProductRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	GetByIDs(ctx context.Context, ids []int64) (map[int64]*domain.Product, error)
	GetByCodes(ctx context.Context, codes []string) (map[string]*domain.Product, error)
	List(ctx context.Context) ([]*domain.Product, error)
	// UpdateStock sets current_stock per product id and returns the number
	// of products updated.
	UpdateStock(ctx context.Context, stock map[int64]float64) (int, error)
}

type SalesRepository interface {
	// ListByProduct returns the product's observations ordered by date.
	ListByProduct(ctx context.Context, productID int64) ([]domain.SalesObservation, error)
	// ListRecords returns observations joined with their product code.
	ListRecords(ctx context.Context, filter domain.SalesFilter) ([]SalesRecord, error)
	// Upsert replaces the quantity for each (product, date) pair.
	Upsert(ctx context.Context, obs []domain.SalesObservation) (int, error)
}

// SalesRecord is a sales observation joined with its product code.
type SalesRecord struct {
	domain.SalesObservation
	ProductCode string `db:"product_code"`
}

type ArrivalRepository interface {
	ListByProduct(ctx context.Context, productID int64) ([]domain.ArrivalRecord, error)
	List(ctx context.Context, filter domain.ArrivalFilter) ([]domain.ArrivalRecord, error)
	GetByID(ctx context.Context, id int64) (*domain.ArrivalRecord, error)
	// FindPending returns the pending record for (product, order date), or
	// ErrNotFound.
	FindPending(ctx context.Context, productID int64, orderDate domain.Date) (*domain.ArrivalRecord, error)
	// UpsertPending writes the pending record keyed by (product, order date):
	// a conflicting pending row gets the new quantity and expected date.
	// created reports whether a new row was inserted.
	UpsertPending(ctx context.Context, rec domain.ArrivalRecord) (stored *domain.ArrivalRecord, created bool, err error)
	// AccumulatePending adds to the pending record keyed by (product, order
	// date), creating it when absent.
	AccumulatePending(ctx context.Context, recs []domain.ArrivalRecord) (int, error)
	Update(ctx context.Context, rec domain.ArrivalRecord) (*domain.ArrivalRecord, error)
	Delete(ctx context.Context, id int64) error
	DeleteMany(ctx context.Context, ids []int64) (int64, error)
}
