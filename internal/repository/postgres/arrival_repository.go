package postgres

import (
	"context"
	"strings"

	"github.com/andresuchdata/restock/internal/domain"
	"github.com/andresuchdata/restock/internal/repository"
	"github.com/jmoiron/sqlx"
)

const arrivalColumns = `
	id, product_id, product_code, product_name, quantity,
	order_date, expected_date, status, created_at, updated_at`

type arrivalRepository struct {
	db *DB
}

func NewArrivalRepository(db *DB) repository.ArrivalRepository {
	return &arrivalRepository{db: db}
}

func (r *arrivalRepository) ListByProduct(ctx context.Context, productID int64) ([]domain.ArrivalRecord, error) {
	query := `SELECT ` + arrivalColumns + `
		FROM arrivals
		WHERE product_id = $1
		ORDER BY order_date, id`

	var recs []domain.ArrivalRecord
	if err := sqlx.SelectContext(ctx, r.db, &recs, query, productID); err != nil {
		return nil, wrap(err, "failed to list arrivals for product")
	}
	return recs, nil
}

func (r *arrivalRepository) List(ctx context.Context, filter domain.ArrivalFilter) ([]domain.ArrivalRecord, error) {
	var (
		where []string
		args  []interface{}
	)
	if len(filter.ProductIDs) > 0 {
		where = append(where, "product_id IN (?)")
		args = append(args, filter.ProductIDs)
	}
	if filter.ProductCode != "" {
		where = append(where, "product_code ILIKE ?")
		args = append(args, "%"+filter.ProductCode+"%")
	}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}
	for _, b := range []struct {
		clause string
		value  domain.Date
	}{
		{"order_date >= ?", filter.OrderFrom},
		{"order_date <= ?", filter.OrderTo},
		{"expected_date >= ?", filter.ExpectedFrom},
		{"expected_date <= ?", filter.ExpectedTo},
	} {
		if !b.value.IsZero() {
			where = append(where, b.clause)
			args = append(args, b.value)
		}
	}

	query := `SELECT ` + arrivalColumns + ` FROM arrivals`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY expected_date DESC, product_code, id"

	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return nil, wrap(err, "failed to build arrivals query")
	}

	var recs []domain.ArrivalRecord
	if err := sqlx.SelectContext(ctx, r.db, &recs, r.db.Rebind(query), args...); err != nil {
		return nil, wrap(err, "failed to list arrivals")
	}
	return recs, nil
}

func (r *arrivalRepository) GetByID(ctx context.Context, id int64) (*domain.ArrivalRecord, error) {
	var rec domain.ArrivalRecord
	query := `SELECT ` + arrivalColumns + ` FROM arrivals WHERE id = $1`
	if err := sqlx.GetContext(ctx, r.db, &rec, query, id); err != nil {
		return nil, wrap(err, "failed to get arrival")
	}
	return &rec, nil
}

func (r *arrivalRepository) FindPending(ctx context.Context, productID int64, orderDate domain.Date) (*domain.ArrivalRecord, error) {
	var rec domain.ArrivalRecord
	query := `SELECT ` + arrivalColumns + ` FROM arrivals
		WHERE product_id = $1 AND order_date = $2 AND status = 'pending'`
	if err := sqlx.GetContext(ctx, r.db, &rec, query, productID, orderDate); err != nil {
		return nil, wrap(err, "failed to find pending arrival")
	}
	return &rec, nil
}

// UpsertPending is a single conditional write against the partial unique
// index on pending (product_id, order_date).
func (r *arrivalRepository) UpsertPending(ctx context.Context, rec domain.ArrivalRecord) (*domain.ArrivalRecord, bool, error) {
	query := `
		INSERT INTO arrivals (
			product_id, product_code, product_name, quantity,
			order_date, expected_date, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, 'pending', NOW(), NOW())
		ON CONFLICT (product_id, order_date) WHERE status = 'pending'
		DO UPDATE SET
			quantity = EXCLUDED.quantity,
			expected_date = EXCLUDED.expected_date,
			product_code = EXCLUDED.product_code,
			product_name = EXCLUDED.product_name,
			updated_at = NOW()
		RETURNING ` + arrivalColumns + `, (xmax = 0) AS inserted`

	var row struct {
		domain.ArrivalRecord
		Inserted bool `db:"inserted"`
	}

	err := r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		return tx.GetContext(ctx, &row, query,
			rec.ProductID, rec.ProductCode, rec.ProductName, rec.Quantity,
			rec.OrderDate, rec.ExpectedDate,
		)
	})
	if err != nil {
		return nil, false, wrap(err, "failed to upsert pending arrival")
	}

	stored := row.ArrivalRecord
	return &stored, row.Inserted, nil
}

func (r *arrivalRepository) AccumulatePending(ctx context.Context, recs []domain.ArrivalRecord) (int, error) {
	if len(recs) == 0 {
		return 0, nil
	}

	query := `
		INSERT INTO arrivals (
			product_id, product_code, product_name, quantity,
			order_date, expected_date, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, 'pending', NOW(), NOW())
		ON CONFLICT (product_id, order_date) WHERE status = 'pending'
		DO UPDATE SET
			quantity = arrivals.quantity + EXCLUDED.quantity,
			expected_date = GREATEST(arrivals.expected_date, EXCLUDED.expected_date),
			updated_at = NOW()
	`

	written := 0
	err := r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return wrap(err, "failed to prepare arrival upsert")
		}
		defer stmt.Close()

		for _, rec := range recs {
			if _, err := stmt.ExecContext(ctx,
				rec.ProductID, rec.ProductCode, rec.ProductName, rec.Quantity,
				rec.OrderDate, rec.ExpectedDate,
			); err != nil {
				return wrap(err, "failed to accumulate arrival")
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

func (r *arrivalRepository) Update(ctx context.Context, rec domain.ArrivalRecord) (*domain.ArrivalRecord, error) {
	query := `
		UPDATE arrivals SET
			quantity = $2,
			expected_date = $3,
			status = $4,
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + arrivalColumns

	var out domain.ArrivalRecord
	if err := sqlx.GetContext(ctx, r.db, &out, query,
		rec.ID, rec.Quantity, rec.ExpectedDate, string(rec.Status),
	); err != nil {
		return nil, wrap(err, "failed to update arrival")
	}
	return &out, nil
}

func (r *arrivalRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM arrivals WHERE id = $1`, id)
	if err != nil {
		return wrap(err, "failed to delete arrival")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return wrap(repository.ErrNotFound, "failed to delete arrival")
	}
	return nil
}

func (r *arrivalRepository) DeleteMany(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	query, args, err := sqlx.In(`DELETE FROM arrivals WHERE id IN (?)`, ids)
	if err != nil {
		return 0, wrap(err, "failed to build arrival delete")
	}

	res, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return 0, wrap(err, "failed to delete arrivals")
	}
	n, _ := res.RowsAffected()
	return n, nil
}
