package domain

import (
	"fmt"
	"math"
	"time"
)

// ArrivalRecord is an order placed with a supplier that has not necessarily
// been received yet.
type ArrivalRecord struct {
	ID           int64         `json:"id" db:"id"`
	ProductID    int64         `json:"product_id" db:"product_id"`
	ProductCode  string        `json:"product_code" db:"product_code"`
	ProductName  string        `json:"product_name" db:"product_name"`
	Quantity     float64       `json:"quantity" db:"quantity"`
	OrderDate    Date          `json:"order_date" db:"order_date"`
	ExpectedDate Date          `json:"expected_date" db:"expected_date"`
	Status       ArrivalStatus `json:"status" db:"status"`
	CreatedAt    time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at" db:"updated_at"`
}

// InTransitOn reports whether the record counts as stock en route on asOf:
// pending, already ordered, and not yet past its expected date.
func (a ArrivalRecord) InTransitOn(asOf Date) bool {
	return a.Status == ArrivalPending &&
		!a.OrderDate.After(asOf) &&
		!a.ExpectedDate.Before(asOf)
}

// CommitArrivalRequest turns a recommendation into an actual pending arrival.
type CommitArrivalRequest struct {
	ProductID    int64   `json:"product_id"`
	ProductCode  string  `json:"product_code"`
	ProductName  string  `json:"product_name"`
	Quantity     float64 `json:"quantity"`
	OrderDate    Date    `json:"order_date"`
	ExpectedDate Date    `json:"expected_date"`
}

func (r CommitArrivalRequest) Validate() error {
	if r.ProductID <= 0 {
		return ErrMissingProduct
	}
	if err := validateQuantity(r.Quantity); err != nil {
		return err
	}
	if r.OrderDate.IsZero() {
		return fmt.Errorf("%w: order date is required", ErrInvalidDate)
	}
	if r.ExpectedDate.IsZero() {
		return fmt.Errorf("%w: expected date is required", ErrInvalidDate)
	}
	if r.ExpectedDate.Before(r.OrderDate) {
		return ErrInvalidDateRange
	}
	return nil
}

// ArrivalFilter narrows ledger listings; zero values mean "no bound".
type ArrivalFilter struct {
	ProductIDs   []int64
	ProductCode  string
	Status       ArrivalStatus
	OrderFrom    Date
	OrderTo      Date
	ExpectedFrom Date
	ExpectedTo   Date
}

// ArrivalUpdate carries the editable fields of a ledger record; nil fields are left unchanged.
type ArrivalUpdate struct {
	Status       *ArrivalStatus `json:"status,omitempty"`
	Quantity     *float64       `json:"quantity,omitempty"`
	ExpectedDate *Date          `json:"expected_date,omitempty"`
}

// Apply validates the update against the current record and returns the edited copy.
func (u ArrivalUpdate) Apply(current ArrivalRecord) (ArrivalRecord, error) {
	next := current
	if u.Status != nil {
		if !u.Status.Valid() {
			return current, fmt.Errorf("%w: %q", ErrInvalidStatus, *u.Status)
		}
		next.Status = *u.Status
	}
	if u.Quantity != nil {
		if err := validateQuantity(*u.Quantity); err != nil {
			return current, err
		}
		next.Quantity = *u.Quantity
	}
	if u.ExpectedDate != nil {
		next.ExpectedDate = *u.ExpectedDate
	}
	if next.ExpectedDate.Before(next.OrderDate) {
		return current, ErrInvalidDateRange
	}
	return next, nil
}

func validateQuantity(q float64) error {
	if q < 0 || math.IsNaN(q) || math.IsInf(q, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidQuantity, q)
	}
	return nil
}
