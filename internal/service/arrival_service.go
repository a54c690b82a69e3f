package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/andresuchdata/restock/internal/domain"
	"github.com/andresuchdata/restock/internal/repository"
	"github.com/rs/zerolog/log"
)

// ArrivalService maintains the arrival ledger outside of commits.
type ArrivalService struct {
	repo repository.ArrivalRepository
}

func NewArrivalService(repo repository.ArrivalRepository) *ArrivalService {
	return &ArrivalService{repo: repo}
}

func (s *ArrivalService) List(ctx context.Context, filter domain.ArrivalFilter) ([]domain.ArrivalRecord, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidStatus, filter.Status)
	}
	recs, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if recs == nil {
		recs = make([]domain.ArrivalRecord, 0)
	}
	return recs, nil
}

func (s *ArrivalService) Get(ctx context.Context, id int64) (*domain.ArrivalRecord, error) {
	return s.repo.GetByID(ctx, id)
}

// FindPending looks up the pending arrival a commit for (product, order
// date) would update. found is false when a commit would create one.
func (s *ArrivalService) FindPending(ctx context.Context, productID int64, orderDate domain.Date) (rec *domain.ArrivalRecord, found bool, err error) {
	if productID <= 0 {
		return nil, false, domain.ErrMissingProduct
	}
	if orderDate.IsZero() {
		return nil, false, fmt.Errorf("%w: order date is required", domain.ErrInvalidDate)
	}

	rec, err = s.repo.FindPending(ctx, productID, orderDate)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return rec, true, nil
}

// Update edits status, quantity or expected date of a ledger record.
func (s *ArrivalService) Update(ctx context.Context, id int64, upd domain.ArrivalUpdate) (*domain.ArrivalRecord, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	next, err := upd.Apply(*current)
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, next)
	if err != nil {
		return nil, err
	}

	if current.Status != updated.Status {
		log.Info().
			Int64("arrival_id", id).
			Str("from", string(current.Status)).
			Str("to", string(updated.Status)).
			Msg("arrival status changed")
	}
	return updated, nil
}

func (s *ArrivalService) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

func (s *ArrivalService) DeleteMany(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	return s.repo.DeleteMany(ctx, ids)
}
