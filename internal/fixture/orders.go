package fixture

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/efreitasn/allocdash/internal/domain"
)

// DefaultOrderCount is the number of orders generated at start-up.
const DefaultOrderCount = 25

const (
	maxLinesPerOrder = 4
	maxLineQuantity  = 5
	orderDateSpread  = 30 // days back from today
)

// OrderNumber formats the stable display code for the i-th generated order.
func OrderNumber(i int) string {
	return fmt.Sprintf("ORD-%06d", i+1000)
}

// GenerateOrders builds n random orders dated within the 30 days up to and
// including today. The same rng state always yields the same orders.
// Only Processed orders carry an allocated warehouse.
func (f *Fixtures) GenerateOrders(rng *rand.Rand, today time.Time, n int) []*domain.Order {
	today = domain.Day(today)
	warehouses := WarehouseNames(f.Warehouses)

	orders := make([]*domain.Order, 0, n)
	for i := 0; i < n; i++ {
		lines := f.randomLines(rng)
		status := pick(rng, domain.OrderStatuses)

		var warehouse string
		if status == domain.OrderStatusProcessed && len(warehouses) > 0 {
			warehouse = pick(rng, warehouses)
		}

		orders = append(orders, &domain.Order{
			ID:                 fmt.Sprintf("order-%d", i+1),
			OrderNumber:        OrderNumber(i),
			CustomerName:       pick(rng, f.FirstNames) + " " + pick(rng, f.LastNames),
			OrderDate:          today.AddDate(0, 0, -rng.IntN(orderDateSpread)),
			Country:            pick(rng, f.Countries),
			AllocatedWarehouse: warehouse,
			Status:             status,
			Lines:              lines,
		})
	}
	return orders
}

// randomLines draws 1..4 distinct catalog entries with quantities 1..5.
func (f *Fixtures) randomLines(rng *rand.Rand) []domain.LineItem {
	count := rng.IntN(maxLinesPerOrder) + 1
	if count > len(f.Catalog) {
		count = len(f.Catalog)
	}
	perm := rng.Perm(len(f.Catalog))

	lines := make([]domain.LineItem, count)
	for i := 0; i < count; i++ {
		s := f.Catalog[perm[i]]
		lines[i] = domain.LineItem{
			SKUCode:     s.Code,
			ProductName: s.ProductName,
			Quantity:    rng.IntN(maxLineQuantity) + 1,
			UnitPrice:   s.UnitPrice,
		}
	}
	return lines
}

func pick[T any](rng *rand.Rand, items []T) T {
	return items[rng.IntN(len(items))]
}

// New returns the static tables together with n generated orders.
func New(rng *rand.Rand, today time.Time, n int) *Fixtures {
	f := Static()
	f.Orders = f.GenerateOrders(rng, today, n)
	return f
}
