package store

import (
	"sync"
	"time"

	"github.com/efreitasn/allocdash/internal/domain"
	"github.com/google/btree"
)

const degree = 16

// holidayLess orders holidays by calendar day, breaking ties by ID.
func holidayLess(a, b domain.HolidayDate) bool {
	if !a.Date.Equal(b.Date) {
		return a.Date.Before(b.Date)
	}
	return a.ID < b.ID
}

// RulesStore is a thread-safe in-memory store for the allocation rules
// configuration. Holidays are indexed by date in a B-tree; every other
// section is a small slice kept in display order.
type RulesStore struct {
	mu         sync.RWMutex
	warehouses []domain.Warehouse
	cutoffs    []domain.CountryCutoff
	rules      []domain.AllocationRule
	shipping   []domain.ShippingPreference
	thresholds domain.StockThresholds
	holidays   *btree.BTreeG[domain.HolidayDate]
	holidayIDs map[string]domain.HolidayDate
}

// RulesSeed is the initial content of a RulesStore.
type RulesSeed struct {
	Warehouses []domain.Warehouse
	Cutoffs    []domain.CountryCutoff
	Rules      []domain.AllocationRule
	Shipping   []domain.ShippingPreference
	Holidays   []domain.HolidayDate
	Thresholds domain.StockThresholds
}

// NewRulesStore creates a store seeded with copies of the given sections.
func NewRulesStore(seed RulesSeed) *RulesStore {
	s := &RulesStore{
		warehouses: clone(seed.Warehouses),
		cutoffs:    clone(seed.Cutoffs),
		rules:      clone(seed.Rules),
		shipping:   clone(seed.Shipping),
		thresholds: seed.Thresholds,
		holidays:   btree.NewG[domain.HolidayDate](degree, holidayLess),
		holidayIDs: make(map[string]domain.HolidayDate),
	}
	for _, h := range seed.Holidays {
		s.putHoliday(h)
	}
	return s
}

func clone[T any](in []T) []T {
	out := make([]T, len(in))
	copy(out, in)
	return out
}

// indexOf returns the position of the element whose ID matches, or -1.
func indexOf[T any](items []T, id string, idOf func(T) string) int {
	for i := range items {
		if idOf(items[i]) == id {
			return i
		}
	}
	return -1
}

// Warehouses returns a copy of the warehouse list.
func (s *RulesStore) Warehouses() []domain.Warehouse {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.warehouses)
}

// UpdateWarehouse applies fn to the warehouse with the given ID and returns
// the updated value. It returns domain.ErrWarehouseNotFound if no such
// warehouse exists.
func (s *RulesStore) UpdateWarehouse(id string, fn func(*domain.Warehouse)) (domain.Warehouse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.warehouses, id, func(w domain.Warehouse) string { return w.ID })
	if i < 0 {
		return domain.Warehouse{}, domain.ErrWarehouseNotFound
	}
	fn(&s.warehouses[i])
	return s.warehouses[i], nil
}

// Cutoffs returns a copy of the country cutoff list.
func (s *RulesStore) Cutoffs() []domain.CountryCutoff {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.cutoffs)
}

// PutCutoff replaces the cutoff with the same ID, or appends it when the ID
// is new. It reports whether the cutoff was appended.
func (s *RulesStore) PutCutoff(c domain.CountryCutoff) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := indexOf(s.cutoffs, c.ID, func(c domain.CountryCutoff) string { return c.ID }); i >= 0 {
		s.cutoffs[i] = c
		return false
	}
	s.cutoffs = append(s.cutoffs, c)
	return true
}

// UpdateCutoff applies fn to the cutoff with the given ID.
func (s *RulesStore) UpdateCutoff(id string, fn func(*domain.CountryCutoff)) (domain.CountryCutoff, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.cutoffs, id, func(c domain.CountryCutoff) string { return c.ID })
	if i < 0 {
		return domain.CountryCutoff{}, domain.ErrCutoffNotFound
	}
	fn(&s.cutoffs[i])
	return s.cutoffs[i], nil
}

// DeleteCutoff removes the cutoff with the given ID.
func (s *RulesStore) DeleteCutoff(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.cutoffs, id, func(c domain.CountryCutoff) string { return c.ID })
	if i < 0 {
		return domain.ErrCutoffNotFound
	}
	s.cutoffs = append(s.cutoffs[:i:i], s.cutoffs[i+1:]...)
	return nil
}

// Rules returns a copy of the allocation priority list.
func (s *RulesStore) Rules() []domain.AllocationRule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.rules)
}

// UpdateRules hands fn a copy of the allocation priority list under the
// write lock and stores the list fn returns when it reports a change. It
// returns the resulting list and whether it was replaced.
func (s *RulesStore) UpdateRules(fn func([]domain.AllocationRule) ([]domain.AllocationRule, bool)) ([]domain.AllocationRule, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, ok := fn(clone(s.rules))
	if !ok {
		return clone(s.rules), false
	}
	s.rules = clone(next)
	return clone(s.rules), true
}

// Thresholds returns the stock alert thresholds.
func (s *RulesStore) Thresholds() domain.StockThresholds {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.thresholds
}

// UpdateThresholds applies fn to the thresholds and returns the result.
func (s *RulesStore) UpdateThresholds(fn func(*domain.StockThresholds)) domain.StockThresholds {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.thresholds)
	return s.thresholds
}

// Shipping returns a copy of the shipping preference list.
func (s *RulesStore) Shipping() []domain.ShippingPreference {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.shipping)
}

// PutShipping replaces the preference with the same ID, or appends it. It
// reports whether the preference was appended.
func (s *RulesStore) PutShipping(p domain.ShippingPreference) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := indexOf(s.shipping, p.ID, func(p domain.ShippingPreference) string { return p.ID }); i >= 0 {
		s.shipping[i] = p
		return false
	}
	s.shipping = append(s.shipping, p)
	return true
}

// UpdateShipping applies fn to the preference with the given ID.
func (s *RulesStore) UpdateShipping(id string, fn func(*domain.ShippingPreference)) (domain.ShippingPreference, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.shipping, id, func(p domain.ShippingPreference) string { return p.ID })
	if i < 0 {
		return domain.ShippingPreference{}, domain.ErrShippingPrefNotFound
	}
	fn(&s.shipping[i])
	return s.shipping[i], nil
}

// DeleteShipping removes the preference with the given ID.
func (s *RulesStore) DeleteShipping(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.shipping, id, func(p domain.ShippingPreference) string { return p.ID })
	if i < 0 {
		return domain.ErrShippingPrefNotFound
	}
	s.shipping = append(s.shipping[:i:i], s.shipping[i+1:]...)
	return nil
}

func (s *RulesStore) putHoliday(h domain.HolidayDate) {
	h.Date = domain.Day(h.Date)
	if old, ok := s.holidayIDs[h.ID]; ok {
		s.holidays.Delete(old)
	}
	s.holidays.ReplaceOrInsert(h)
	s.holidayIDs[h.ID] = h
}

// Holidays returns every holiday in ascending date order.
func (s *RulesStore) Holidays() []domain.HolidayDate {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.HolidayDate, 0, s.holidays.Len())
	s.holidays.Ascend(func(h domain.HolidayDate) bool {
		out = append(out, h)
		return true
	})
	return out
}

// AddHoliday inserts a holiday, replacing any holiday with the same ID.
// The date is truncated to its calendar day.
func (s *RulesStore) AddHoliday(h domain.HolidayDate) domain.HolidayDate {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.putHoliday(h)
	return s.holidayIDs[h.ID]
}

// DeleteHoliday removes the holiday with the given ID.
func (s *RulesStore) DeleteHoliday(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.holidayIDs[id]
	if !ok {
		return domain.ErrHolidayNotFound
	}
	s.holidays.Delete(h)
	delete(s.holidayIDs, id)
	return nil
}

// HolidaysOn returns the holidays falling on the calendar day of t.
func (s *RulesStore) HolidaysOn(t time.Time) []domain.HolidayDate {
	s.mu.RLock()
	defer s.mu.RUnlock()

	from := domain.Day(t)
	to := from.AddDate(0, 0, 1)
	var out []domain.HolidayDate
	s.holidays.AscendRange(domain.HolidayDate{Date: from}, domain.HolidayDate{Date: to}, func(h domain.HolidayDate) bool {
		out = append(out, h)
		return true
	})
	return out
}
