package memory

import (
	"context"
	"sync"

	"github.com/mercato/storefront/internal/checkout/domain"
)

// CartStore holds a single session's cart in memory. One checkout flow runs
// per session at a time; the mutex guards against accidental concurrent use.
type CartStore struct {
	mu    sync.Mutex
	items []domain.Item
}

// NewCartStore constructs a cart seeded with the given items.
func NewCartStore(items ...domain.Item) *CartStore {
	return &CartStore{items: append([]domain.Item(nil), items...)}
}

// Items returns the current cart contents.
func (c *CartStore) Items(_ context.Context) ([]domain.Item, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.Item(nil), c.items...), nil
}

// Add puts an item into the cart.
func (c *CartStore) Add(item domain.Item) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(c.items, item)
}

// Clear empties the cart.
func (c *CartStore) Clear(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
	return nil
}
