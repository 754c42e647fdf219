package engine

import (
	"io"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/efreitasn/allocdash/internal/domain"
	"github.com/efreitasn/allocdash/internal/fixture"
)

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// recordingPublisher records every snapshot it receives.
type recordingPublisher struct {
	mu    sync.Mutex
	snaps []Snapshot
}

func (p *recordingPublisher) PublishSnapshot(s Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snaps = append(p.snaps, s)
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.snaps)
}

// newTestEngine builds an engine over the static fixtures with a fixed
// clock and a seeded random source.
func newTestEngine(seed uint64, cfg FeedConfig, pub Publisher) *FeedEngine {
	f := fixture.Static()
	orders := f.GenerateOrders(rand.New(rand.NewPCG(seed, 1)), testNow, fixture.DefaultOrderCount)
	e := NewFeedEngine(cfg, orders, f.Catalog, f.Warehouses, rand.New(rand.NewPCG(seed, 2)), pub, discardLogger())
	e.now = func() time.Time { return testNow }
	return e
}

func newOrder(number, customer string, date time.Time, country, warehouse string, status domain.OrderStatus) *domain.Order {
	return &domain.Order{
		ID:                 "id-" + number,
		OrderNumber:        number,
		CustomerName:       customer,
		OrderDate:          domain.Day(date),
		Country:            country,
		AllocatedWarehouse: warehouse,
		Status:             status,
		Lines:              []domain.LineItem{{SKUCode: "ON-001", Quantity: 1}},
	}
}

func ptr[T any](v T) *T {
	return &v
}
