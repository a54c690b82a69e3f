package postgres

import (
	"context"
	"maps"
	"slices"

	"github.com/andresuchdata/restock/internal/domain"
	"github.com/andresuchdata/restock/internal/repository"
	"github.com/jmoiron/sqlx"
)

const productColumns = `
	id, code, name, unit, specification, description,
	reference_days, current_stock, created_at, updated_at`

type productRepository struct {
	db *DB
}

func NewProductRepository(db *DB) repository.ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	var p domain.Product
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	if err := sqlx.GetContext(ctx, r.db, &p, query, id); err != nil {
		return nil, wrap(err, "failed to get product")
	}
	return &p, nil
}

func (r *productRepository) GetByIDs(ctx context.Context, ids []int64) (map[int64]*domain.Product, error) {
	out := make(map[int64]*domain.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	query, args, err := sqlx.In(`SELECT `+productColumns+` FROM products WHERE id IN (?)`, ids)
	if err != nil {
		return nil, wrap(err, "failed to build product query")
	}

	var products []*domain.Product
	if err := sqlx.SelectContext(ctx, r.db, &products, r.db.Rebind(query), args...); err != nil {
		return nil, wrap(err, "failed to get products")
	}
	for _, p := range products {
		out[p.ID] = p
	}
	return out, nil
}

func (r *productRepository) GetByCodes(ctx context.Context, codes []string) (map[string]*domain.Product, error) {
	out := make(map[string]*domain.Product, len(codes))
	if len(codes) == 0 {
		return out, nil
	}

	query, args, err := sqlx.In(`SELECT `+productColumns+` FROM products WHERE code IN (?)`, codes)
	if err != nil {
		return nil, wrap(err, "failed to build product query")
	}

	var products []*domain.Product
	if err := sqlx.SelectContext(ctx, r.db, &products, r.db.Rebind(query), args...); err != nil {
		return nil, wrap(err, "failed to get products by code")
	}
	for _, p := range products {
		out[p.Code] = p
	}
	return out, nil
}

func (r *productRepository) List(ctx context.Context) ([]*domain.Product, error) {
	var products []*domain.Product
	query := `SELECT ` + productColumns + ` FROM products ORDER BY code`
	if err := sqlx.SelectContext(ctx, r.db, &products, query); err != nil {
		return nil, wrap(err, "failed to list products")
	}
	return products, nil
}

// UpdateStock writes all levels in one transaction, in id order so
// concurrent stock imports lock rows consistently.
func (r *productRepository) UpdateStock(ctx context.Context, stock map[int64]float64) (int, error) {
	if len(stock) == 0 {
		return 0, nil
	}

	updated := 0
	err := r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			UPDATE products SET current_stock = $2, updated_at = NOW()
			WHERE id = $1
		`)
		if err != nil {
			return wrap(err, "failed to prepare stock update")
		}
		defer stmt.Close()

		for _, id := range slices.Sorted(maps.Keys(stock)) {
			res, err := stmt.ExecContext(ctx, id, stock[id])
			if err != nil {
				return wrap(err, "failed to update stock")
			}
			if n, _ := res.RowsAffected(); n > 0 {
				updated++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return updated, nil
}
