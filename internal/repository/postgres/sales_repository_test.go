package postgres

import (
	"testing"
	"time"

	"github.com/andresuchdata/restock/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestSortedByKey(t *testing.T) {
	jun1 := domain.NewDate(2024, time.June, 1)
	jun2 := domain.NewDate(2024, time.June, 2)
	obs := []domain.SalesObservation{
		{ProductID: 2, Date: jun1, Quantity: 1},
		{ProductID: 1, Date: jun2, Quantity: 2},
		{ProductID: 1, Date: jun1, Quantity: 3},
	}

	got := sortedByKey(obs)

	assert.Equal(t, []float64{3, 2, 1}, []float64{got[0].Quantity, got[1].Quantity, got[2].Quantity})
	assert.Equal(t, int64(2), obs[0].ProductID, "input order is left alone")
}

func TestSalesLockKey(t *testing.T) {
	day := domain.NewDate(2024, time.June, 1)

	k1, k2 := salesLockKey(domain.SalesObservation{ProductID: 7, Date: day})
	assert.Equal(t, int32(7), k1)
	assert.Equal(t, int32(19875), k2)

	_, next := salesLockKey(domain.SalesObservation{ProductID: 7, Date: day.AddDays(1)})
	assert.Equal(t, k2+1, next)
}
