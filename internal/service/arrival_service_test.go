package service

import (
	"context"
	"testing"
	"time"

	"github.com/andresuchdata/restock/internal/domain"
	"github.com/andresuchdata/restock/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupArrivals(t *testing.T) (*ArrivalService, *mockArrivalRepository) {
	t.Helper()
	order := domain.NewDate(2024, time.June, 10)
	repo := &mockArrivalRepository{
		nextID: 2,
		store: []domain.ArrivalRecord{
			{ID: 1, ProductID: 1, Quantity: 10, OrderDate: order, ExpectedDate: order.AddDays(2), Status: domain.ArrivalPending},
			{ID: 2, ProductID: 2, Quantity: 5, OrderDate: order, ExpectedDate: order.AddDays(1), Status: domain.ArrivalArrived},
		},
	}
	return NewArrivalService(repo), repo
}

func TestArrivalServiceList(t *testing.T) {
	svc, _ := setupArrivals(t)

	recs, err := svc.List(context.Background(), domain.ArrivalFilter{Status: domain.ArrivalPending})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, int64(1), recs[0].ID)

	recs, err = svc.List(context.Background(), domain.ArrivalFilter{Status: domain.ArrivalCancelled})
	require.NoError(t, err)
	assert.NotNil(t, recs)
	assert.Empty(t, recs)

	_, err = svc.List(context.Background(), domain.ArrivalFilter{Status: "lost"})
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)
}

func TestArrivalServiceUpdate(t *testing.T) {
	svc, repo := setupArrivals(t)

	arrived := domain.ArrivalArrived
	qty := 12.0
	rec, err := svc.Update(context.Background(), 1, domain.ArrivalUpdate{Status: &arrived, Quantity: &qty})
	require.NoError(t, err)
	assert.Equal(t, domain.ArrivalArrived, rec.Status)
	assert.Equal(t, 12.0, repo.store[0].Quantity)

	early := domain.NewDate(2024, time.June, 1)
	_, err = svc.Update(context.Background(), 1, domain.ArrivalUpdate{ExpectedDate: &early})
	assert.ErrorIs(t, err, domain.ErrInvalidDateRange)

	negative := -3.0
	_, err = svc.Update(context.Background(), 1, domain.ArrivalUpdate{Quantity: &negative})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	_, err = svc.Update(context.Background(), 99, domain.ArrivalUpdate{Quantity: &qty})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestArrivalServiceDelete(t *testing.T) {
	svc, repo := setupArrivals(t)

	require.NoError(t, svc.Delete(context.Background(), 2))
	assert.ErrorIs(t, svc.Delete(context.Background(), 2), repository.ErrNotFound)

	n, err := svc.DeleteMany(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = svc.DeleteMany(context.Background(), []int64{1, 42})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Empty(t, repo.store)
}

func TestArrivalServiceFindPending(t *testing.T) {
	svc, _ := setupArrivals(t)
	ctx := context.Background()
	order := domain.NewDate(2024, time.June, 10)

	t.Run("pending record exists", func(t *testing.T) {
		rec, found, err := svc.FindPending(ctx, 1, order)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, int64(1), rec.ID)
	})

	t.Run("only non-pending record", func(t *testing.T) {
		rec, found, err := svc.FindPending(ctx, 2, order)
		require.NoError(t, err)
		assert.False(t, found)
		assert.Nil(t, rec)
	})

	t.Run("validation", func(t *testing.T) {
		_, _, err := svc.FindPending(ctx, 0, order)
		assert.ErrorIs(t, err, domain.ErrMissingProduct)

		_, _, err = svc.FindPending(ctx, 1, domain.Date{})
		assert.ErrorIs(t, err, domain.ErrInvalidDate)
	})
}
