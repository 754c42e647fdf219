package store

import (
	"github.com/efreitasn/allocdash/internal/domain"
)

// OrderStore is an in-memory store for orders, keeping their generation
// order and a secondary index by order number. It is filled once by
// NewOrderStore and read-only afterwards, so it is safe for concurrent use
// without locking.
type OrderStore struct {
	orders   []*domain.Order
	byNumber map[string]*domain.Order
}

// NewOrderStore creates a store holding orders in the given sequence.
func NewOrderStore(orders []*domain.Order) *OrderStore {
	s := &OrderStore{
		orders:   make([]*domain.Order, 0, len(orders)),
		byNumber: make(map[string]*domain.Order, len(orders)),
	}
	for _, o := range orders {
		s.orders = append(s.orders, o)
		s.byNumber[o.OrderNumber] = o
	}
	return s
}

// Get retrieves an order by its number. It returns
// domain.ErrOrderNotFound if the order does not exist.
func (s *OrderStore) Get(orderNumber string) (*domain.Order, error) {
	o, ok := s.byNumber[orderNumber]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return o, nil
}

// All returns every order in generation order. The returned slice is a
// copy; the orders themselves are shared and must not be modified.
func (s *OrderStore) All() []*domain.Order {
	out := make([]*domain.Order, len(s.orders))
	copy(out, s.orders)
	return out
}
