package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/andresuchdata/restock/internal/cache"
	"github.com/andresuchdata/restock/internal/config"
	"github.com/andresuchdata/restock/internal/domain"
	"github.com/andresuchdata/restock/internal/replenishment"
	"github.com/andresuchdata/restock/internal/repository"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// ErrCommitConflict is returned when a commit kept colliding with concurrent
// writers for the same (product, order date) after all retries.
var ErrCommitConflict = errors.New("arrival commit conflicted with a concurrent write, retry later")

const commitRetryBackoff = 25 * time.Millisecond

type ReplenishmentService struct {
	products repository.ProductRepository
	sales    repository.SalesRepository
	arrivals repository.ArrivalRepository
	locker   cache.KeyLocker
	cfg      config.CalcConfig
	now      func() time.Time
}

func NewReplenishmentService(
	products repository.ProductRepository,
	sales repository.SalesRepository,
	arrivals repository.ArrivalRepository,
	locker cache.KeyLocker,
	cfg config.CalcConfig,
) *ReplenishmentService {
	if locker == nil {
		locker = cache.NewLocalKeyLocker()
	}
	return &ReplenishmentService{
		products: products,
		sales:    sales,
		arrivals: arrivals,
		locker:   locker,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Today is the default as-of date in the configured timezone.
func (s *ReplenishmentService) Today() domain.Date {
	return domain.DateOf(s.now().In(s.cfg.Location()))
}

// Calculate returns one result per item, in request order. Items that fail
// validation or whose data cannot be loaded come back as zero-demand results
// with Error set; the batch itself never fails.
func (s *ReplenishmentService) Calculate(ctx context.Context, req domain.CalculateOrdersRequest) []domain.OrderCalculationResult {
	results := make([]domain.OrderCalculationResult, len(req.Items))
	if len(req.Items) == 0 {
		return results
	}

	asOf := req.AsOfDate
	if asOf.IsZero() {
		asOf = s.Today()
	}

	ids := make([]int64, 0, len(req.Items))
	for _, item := range req.Items {
		ids = append(ids, item.ProductID)
	}
	products, lookupErr := s.products.GetByIDs(ctx, ids)
	if lookupErr != nil {
		log.Warn().Err(lookupErr).Int("items", len(req.Items)).Msg("replenishment: product lookup failed, degrading batch")
		lookupErr = fmt.Errorf("load products: %w", lookupErr)
		products = map[int64]*domain.Product{}
	}

	workers := s.cfg.Workers
	if workers <= 0 {
		workers = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, item := range req.Items {
		if item.AsOfDate.IsZero() {
			item.AsOfDate = asOf
		}
		g.Go(func() error {
			results[i] = s.calculateOne(gctx, item, products[item.ProductID], lookupErr)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// lookupErr is the batch product lookup failure, if any. It is reported
// instead of "not found" so an outage is not mistaken for a missing product.
func (s *ReplenishmentService) calculateOne(ctx context.Context, item domain.OrderCalculationRequest, product *domain.Product, lookupErr error) domain.OrderCalculationResult {
	if err := validateItem(item); err != nil {
		res := replenishment.Unavailable(item)
		res.Error = err.Error()
		return res
	}
	if product == nil {
		res := replenishment.Unavailable(replenishment.Resolve(item, domain.Product{}, s.cfg.DefaultReferenceDays))
		res.Error = repository.ErrNotFound.Error()
		if lookupErr != nil {
			res.Error = lookupErr.Error()
		}
		return res
	}

	req := replenishment.Resolve(item, *product, s.cfg.DefaultReferenceDays)

	inputs, err := s.loadInputs(ctx, *product, req)
	if err != nil {
		log.Warn().Err(err).Int64("product_id", product.ID).Msg("replenishment: falling back to zero demand")
		res := replenishment.Unavailable(req)
		res.ProductCode = product.Code
		res.ProductName = product.Name
		res.Error = err.Error()
		return res
	}

	return replenishment.Calculate(req, inputs)
}

func (s *ReplenishmentService) loadInputs(ctx context.Context, product domain.Product, req domain.OrderCalculationRequest) (replenishment.Inputs, error) {
	history, err := s.sales.ListByProduct(ctx, product.ID)
	if err != nil {
		return replenishment.Inputs{}, fmt.Errorf("load sales history: %w", err)
	}
	if s.cfg.HistoryWindow != config.HistoryWindowFull {
		history = replenishment.TrailingWindow(history, req.AsOfDate, req.ReferenceDays)
	}

	arrivals, err := s.arrivals.ListByProduct(ctx, product.ID)
	if err != nil {
		return replenishment.Inputs{}, fmt.Errorf("load arrivals: %w", err)
	}

	return replenishment.Inputs{Product: product, History: history, Arrivals: arrivals}, nil
}

func validateItem(item domain.OrderCalculationRequest) error {
	if item.ProductID <= 0 {
		return domain.ErrMissingProduct
	}
	if item.CurrentStock != nil && *item.CurrentStock < 0 {
		return fmt.Errorf("%w: current stock %v", domain.ErrInvalidQuantity, *item.CurrentStock)
	}
	if item.ReferenceDays < 0 {
		return fmt.Errorf("%w: reference days %d", domain.ErrInvalidQuantity, item.ReferenceDays)
	}
	return nil
}

// CommitArrival upserts the pending arrival for (product, order date).
// created reports whether a new record was inserted rather than corrected.
func (s *ReplenishmentService) CommitArrival(ctx context.Context, req domain.CommitArrivalRequest) (*domain.ArrivalRecord, bool, error) {
	if err := req.Validate(); err != nil {
		return nil, false, err
	}

	product, err := s.products.GetByID(ctx, req.ProductID)
	if err != nil {
		return nil, false, fmt.Errorf("commit arrival: %w", err)
	}

	rec := domain.ArrivalRecord{
		ProductID:    product.ID,
		ProductCode:  product.Code,
		ProductName:  product.Name,
		Quantity:     req.Quantity,
		OrderDate:    req.OrderDate,
		ExpectedDate: req.ExpectedDate,
		Status:       domain.ArrivalPending,
	}
	if req.ProductName != "" {
		rec.ProductName = req.ProductName
	}

	lockCtx, cancel := context.WithTimeout(ctx, s.cfg.CommitLockTTL())
	defer cancel()
	unlock, err := s.locker.Lock(lockCtx, commitKey(rec.ProductID, rec.OrderDate))
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		return nil, false, fmt.Errorf("%w: %v", ErrCommitConflict, err)
	}
	defer unlock()

	attempts := s.cfg.CommitRetryAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		stored, created, err := s.arrivals.UpsertPending(ctx, rec)
		if err == nil {
			log.Info().
				Int64("arrival_id", stored.ID).
				Int64("product_id", stored.ProductID).
				Str("order_date", stored.OrderDate.String()).
				Bool("created", created).
				Msg("arrival committed")
			return stored, created, nil
		}
		if !errors.Is(err, repository.ErrConflict) {
			return nil, false, fmt.Errorf("commit arrival: %w", err)
		}

		lastErr = err
		log.Warn().Err(err).Int("attempt", attempt).Msg("arrival commit conflicted, retrying")
		select {
		case <-ctx.Done():
			return nil, false, ctx.Err()
		case <-time.After(time.Duration(attempt) * commitRetryBackoff):
		}
	}

	return nil, false, fmt.Errorf("%w: %v", ErrCommitConflict, lastErr)
}

func commitKey(productID int64, orderDate domain.Date) string {
	return fmt.Sprintf("arrival:%d:%s", productID, orderDate)
}
