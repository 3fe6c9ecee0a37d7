package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/mercato/storefront/internal/checkout/domain"
	"github.com/mercato/storefront/internal/checkout/ports"
)

// Repository provides an in-memory order store useful for local development
// and tests.
type Repository struct {
	mu     sync.RWMutex
	orders map[string]domain.Order
}

// NewRepository constructs a new in-memory repository.
func NewRepository() *Repository {
	return &Repository{orders: make(map[string]domain.Order)}
}

// Create stores a new order instance.
func (r *Repository) Create(_ context.Context, order domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[order.ID] = cloneOrder(order)
	return nil
}

// GetByID fetches a single order by identifier.
func (r *Repository) GetByID(_ context.Context, id string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	order, ok := r.orders[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	copy := cloneOrder(order)
	return &copy, nil
}

// List returns orders respecting the provided filter. Pagination is 1-based.
func (r *Repository) List(_ context.Context, filter ports.ListFilter) ([]domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []domain.Order
	for _, order := range r.orders {
		if filter.Status != nil && order.Status != *filter.Status {
			continue
		}
		result = append(result, cloneOrder(order))
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})

	page := filter.Page
	if page <= 0 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	start := (page - 1) * pageSize
	if start >= len(result) {
		return []domain.Order{}, nil
	}

	end := start + pageSize
	if end > len(result) {
		end = len(result)
	}

	return result[start:end], nil
}

// Update replaces the stored order, carrying the new status and history.
func (r *Repository) Update(_ context.Context, order domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.orders[order.ID]; !ok {
		return ports.ErrNotFound
	}
	r.orders[order.ID] = cloneOrder(order)
	return nil
}

// cloneOrder copies the order including its slices, so callers cannot mutate
// stored state through shared backing arrays.
func cloneOrder(order domain.Order) domain.Order {
	clone := order
	clone.Items = append([]domain.Item(nil), order.Items...)
	clone.StatusHistory = append([]domain.StatusHistoryEntry(nil), order.StatusHistory...)
	return clone
}
