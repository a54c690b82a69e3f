package service

import (
	"context"
	"sort"
	"sync"

	"github.com/andresuchdata/restock/internal/domain"
	"github.com/andresuchdata/restock/internal/repository"
	"github.com/andresuchdata/restock/internal/storage"
)

type mockProductRepository struct {
	store map[int64]*domain.Product
	err   error
}

func newMockProductRepository(products ...domain.Product) *mockProductRepository {
	repo := &mockProductRepository{store: make(map[int64]*domain.Product)}
	for i := range products {
		p := products[i]
		repo.store[p.ID] = &p
	}
	return repo
}

func (m *mockProductRepository) GetByID(_ context.Context, id int64) (*domain.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.store[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return p, nil
}

func (m *mockProductRepository) GetByIDs(_ context.Context, ids []int64) (map[int64]*domain.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make(map[int64]*domain.Product)
	for _, id := range ids {
		if p, ok := m.store[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (m *mockProductRepository) GetByCodes(_ context.Context, codes []string) (map[string]*domain.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make(map[string]*domain.Product)
	for _, code := range codes {
		for _, p := range m.store {
			if p.Code == code {
				out[code] = p
			}
		}
	}
	return out, nil
}

func (m *mockProductRepository) List(_ context.Context) ([]*domain.Product, error) {
	out := make([]*domain.Product, 0, len(m.store))
	for _, p := range m.store {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (m *mockProductRepository) UpdateStock(_ context.Context, stock map[int64]float64) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	updated := 0
	for id, qty := range stock {
		if p, ok := m.store[id]; ok {
			p.CurrentStock = qty
			updated++
		}
	}
	return updated, nil
}

type mockSalesRepository struct {
	mu      sync.Mutex
	store   []domain.SalesObservation
	codes   map[int64]string
	failFor map[int64]error
}

func (m *mockSalesRepository) ListByProduct(_ context.Context, productID int64) ([]domain.SalesObservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failFor[productID]; err != nil {
		return nil, err
	}
	var out []domain.SalesObservation
	for _, o := range m.store {
		if o.ProductID == productID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *mockSalesRepository) ListRecords(_ context.Context, filter domain.SalesFilter) ([]repository.SalesRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []repository.SalesRecord
	for _, o := range m.store {
		if !filter.From.IsZero() && o.Date.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && o.Date.After(filter.To) {
			continue
		}
		out = append(out, repository.SalesRecord{SalesObservation: o, ProductCode: m.codes[o.ProductID]})
	}
	return out, nil
}

func (m *mockSalesRepository) Upsert(_ context.Context, obs []domain.SalesObservation) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range obs {
		replaced := false
		for i := range m.store {
			if m.store[i].ProductID == o.ProductID && m.store[i].Date.Equal(o.Date) {
				m.store[i].Quantity = o.Quantity
				replaced = true
			}
		}
		if !replaced {
			o.ID = int64(len(m.store) + 1)
			m.store = append(m.store, o)
		}
	}
	return len(obs), nil
}

type mockArrivalRepository struct {
	mu        sync.Mutex
	store     []domain.ArrivalRecord
	nextID    int64
	conflicts int
	failFor   map[int64]error
	upserts   int
}

func (m *mockArrivalRepository) ListByProduct(_ context.Context, productID int64) ([]domain.ArrivalRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failFor[productID]; err != nil {
		return nil, err
	}
	var out []domain.ArrivalRecord
	for _, a := range m.store {
		if a.ProductID == productID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockArrivalRepository) List(_ context.Context, filter domain.ArrivalFilter) ([]domain.ArrivalRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.ArrivalRecord
	for _, a := range m.store {
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (m *mockArrivalRepository) GetByID(_ context.Context, id int64) (*domain.ArrivalRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.store {
		if a.ID == id {
			rec := a
			return &rec, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *mockArrivalRepository) FindPending(_ context.Context, productID int64, orderDate domain.Date) (*domain.ArrivalRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i := m.pendingIndex(productID, orderDate); i >= 0 {
		rec := m.store[i]
		return &rec, nil
	}
	return nil, repository.ErrNotFound
}

func (m *mockArrivalRepository) pendingIndex(productID int64, orderDate domain.Date) int {
	for i, a := range m.store {
		if a.ProductID == productID && a.OrderDate.Equal(orderDate) && a.Status == domain.ArrivalPending {
			return i
		}
	}
	return -1
}

func (m *mockArrivalRepository) UpsertPending(_ context.Context, rec domain.ArrivalRecord) (*domain.ArrivalRecord, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upserts++
	if m.conflicts > 0 {
		m.conflicts--
		return nil, false, repository.ErrConflict
	}

	if i := m.pendingIndex(rec.ProductID, rec.OrderDate); i >= 0 {
		m.store[i].Quantity = rec.Quantity
		m.store[i].ExpectedDate = rec.ExpectedDate
		out := m.store[i]
		return &out, false, nil
	}

	m.nextID++
	rec.ID = m.nextID
	rec.Status = domain.ArrivalPending
	m.store = append(m.store, rec)
	return &rec, true, nil
}

func (m *mockArrivalRepository) AccumulatePending(_ context.Context, recs []domain.ArrivalRecord) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range recs {
		if i := m.pendingIndex(rec.ProductID, rec.OrderDate); i >= 0 {
			m.store[i].Quantity += rec.Quantity
			continue
		}
		m.nextID++
		rec.ID = m.nextID
		m.store = append(m.store, rec)
	}
	return len(recs), nil
}

func (m *mockArrivalRepository) Update(_ context.Context, rec domain.ArrivalRecord) (*domain.ArrivalRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.store {
		if m.store[i].ID == rec.ID {
			m.store[i] = rec
			out := rec
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *mockArrivalRepository) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.store {
		if m.store[i].ID == id {
			m.store = append(m.store[:i], m.store[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *mockArrivalRepository) DeleteMany(ctx context.Context, ids []int64) (int64, error) {
	var n int64
	for _, id := range ids {
		if err := m.Delete(ctx, id); err == nil {
			n++
		}
	}
	return n, nil
}

type mockObjectStorage struct {
	uploads map[string][]byte
}

func (m *mockObjectStorage) ListObjects(context.Context, string) ([]storage.ObjectInfo, error) {
	var out []storage.ObjectInfo
	for k, v := range m.uploads {
		out = append(out, storage.ObjectInfo{Key: k, Size: int64(len(v))})
	}
	return out, nil
}

func (m *mockObjectStorage) DownloadObject(context.Context, string, string) error { return nil }

func (m *mockObjectStorage) UploadObject(_ context.Context, key string, data []byte, _ string) error {
	if m.uploads == nil {
		m.uploads = make(map[string][]byte)
	}
	m.uploads[key] = data
	return nil
}

func (m *mockObjectStorage) Enabled() bool { return true }
