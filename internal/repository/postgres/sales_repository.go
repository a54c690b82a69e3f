package postgres

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"github.com/andresuchdata/restock/internal/domain"
	"github.com/andresuchdata/restock/internal/repository"
	"github.com/jmoiron/sqlx"
)

type salesRepository struct {
	db *DB
}

func NewSalesRepository(db *DB) repository.SalesRepository {
	return &salesRepository{db: db}
}

func (r *salesRepository) ListByProduct(ctx context.Context, productID int64) ([]domain.SalesObservation, error) {
	query := `
		SELECT id, product_id, sale_date, quantity
		FROM sales
		WHERE product_id = $1
		ORDER BY sale_date, id
	`

	var obs []domain.SalesObservation
	if err := sqlx.SelectContext(ctx, r.db, &obs, query, productID); err != nil {
		return nil, wrap(err, "failed to list sales")
	}
	return obs, nil
}

func (r *salesRepository) ListRecords(ctx context.Context, filter domain.SalesFilter) ([]repository.SalesRecord, error) {
	var (
		where []string
		args  []interface{}
	)
	if len(filter.ProductIDs) > 0 {
		where = append(where, "s.product_id IN (?)")
		args = append(args, filter.ProductIDs)
	}
	if !filter.From.IsZero() {
		where = append(where, "s.sale_date >= ?")
		args = append(args, filter.From)
	}
	if !filter.To.IsZero() {
		where = append(where, "s.sale_date <= ?")
		args = append(args, filter.To)
	}

	query := `
		SELECT s.id, s.product_id, s.sale_date, s.quantity, p.code AS product_code
		FROM sales s
		JOIN products p ON p.id = s.product_id
	`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY p.code, s.sale_date, s.id"

	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return nil, wrap(err, "failed to build sales query")
	}

	var records []repository.SalesRecord
	if err := sqlx.SelectContext(ctx, r.db, &records, r.db.Rebind(query), args...); err != nil {
		return nil, wrap(err, "failed to list sales records")
	}
	return records, nil
}

// Upsert replaces the quantity of existing (product, date) rows and inserts
// the rest, all in one transaction. The table has no unique key on the pair,
// so each pair is guarded by a transaction-scoped advisory lock; pairs are
// locked in sorted order so concurrent imports cannot deadlock each other.
func (r *salesRepository) Upsert(ctx context.Context, obs []domain.SalesObservation) (int, error) {
	if len(obs) == 0 {
		return 0, nil
	}
	obs = sortedByKey(obs)

	written := 0
	err := r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		update, err := tx.PrepareContext(ctx, `
			UPDATE sales SET quantity = $3, updated_at = NOW()
			WHERE product_id = $1 AND sale_date = $2
		`)
		if err != nil {
			return wrap(err, "failed to prepare sales update")
		}
		defer update.Close()

		insert, err := tx.PrepareContext(ctx, `
			INSERT INTO sales (product_id, sale_date, quantity, created_at, updated_at)
			VALUES ($1, $2, $3, NOW(), NOW())
		`)
		if err != nil {
			return wrap(err, "failed to prepare sales insert")
		}
		defer insert.Close()

		for _, o := range obs {
			key1, key2 := salesLockKey(o)
			if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1::int4, $2::int4)`, key1, key2); err != nil {
				return wrap(err, "failed to lock sales row")
			}
			res, err := update.ExecContext(ctx, o.ProductID, o.Date, o.Quantity)
			if err != nil {
				return wrap(err, "failed to update sales")
			}
			if n, _ := res.RowsAffected(); n == 0 {
				if _, err := insert.ExecContext(ctx, o.ProductID, o.Date, o.Quantity); err != nil {
					return wrap(err, "failed to insert sales")
				}
			}
			written++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return written, nil
}

func sortedByKey(obs []domain.SalesObservation) []domain.SalesObservation {
	sorted := slices.Clone(obs)
	slices.SortStableFunc(sorted, func(a, b domain.SalesObservation) int {
		if c := cmp.Compare(a.ProductID, b.ProductID); c != 0 {
			return c
		}
		return a.Date.Compare(b.Date.Time)
	})
	return sorted
}

// salesLockKey maps (product, day) onto the two int4 advisory lock keys.
// Collisions only serialize unrelated pairs.
func salesLockKey(o domain.SalesObservation) (int32, int32) {
	return int32(o.ProductID), int32(o.Date.Unix() / 86400)
}
