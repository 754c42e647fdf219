package engine

import (
	"strings"
	"time"

	"github.com/efreitasn/allocdash/internal/domain"
)

// Selection restricts a field to a set of accepted values.
//
// The zero Selection accepts every value. Only builds a restricting
// selection, and None builds one that accepts nothing, so "no filter" and
// "nothing selected" stay distinguishable.
type Selection[T comparable] struct {
	values map[T]struct{}
	active bool
}

// Only returns a selection accepting exactly the given values.
func Only[T comparable](values ...T) Selection[T] {
	s := Selection[T]{
		values: make(map[T]struct{}, len(values)),
		active: true,
	}
	for _, v := range values {
		s.values[v] = struct{}{}
	}
	return s
}

// None returns a selection that accepts no value.
func None[T comparable]() Selection[T] {
	return Selection[T]{active: true}
}

// Active reports whether the selection constrains anything.
func (s Selection[T]) Active() bool {
	return s.active
}

// Accepts reports whether v passes the selection.
func (s Selection[T]) Accepts(v T) bool {
	if !s.active {
		return true
	}
	_, ok := s.values[v]
	return ok
}

// Len returns the number of accepted values of an active selection.
func (s Selection[T]) Len() int {
	return len(s.values)
}

// DateRange bounds an order date. Either end may be nil (open); both ends
// are inclusive and compared on the calendar day.
type DateRange struct {
	From *time.Time
	To   *time.Time
}

// Contains reports whether the calendar day of t lies within the range.
func (r DateRange) Contains(t time.Time) bool {
	d := domain.Day(t)
	if r.From != nil && d.Before(domain.Day(*r.From)) {
		return false
	}
	if r.To != nil && d.After(domain.Day(*r.To)) {
		return false
	}
	return true
}

// FilterCriteria is the set of predicates applied to the order list.
// The zero value matches every order.
type FilterCriteria struct {
	Query      string
	Dates      DateRange
	Countries  Selection[string]
	Warehouses Selection[string]
	Statuses   Selection[domain.OrderStatus]
}

// Matches reports whether the order satisfies every active predicate.
func (c FilterCriteria) Matches(o *domain.Order) bool {
	return c.matches(o, strings.ToLower(c.Query))
}

func (c FilterCriteria) matches(o *domain.Order, query string) bool {
	return matchesQuery(o, query) &&
		c.Dates.Contains(o.OrderDate) &&
		c.Countries.Accepts(o.Country) &&
		c.Warehouses.Accepts(o.AllocatedWarehouse) &&
		c.Statuses.Accepts(o.Status)
}

// matchesQuery expects an already lower-cased query.
func matchesQuery(o *domain.Order, query string) bool {
	if query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(o.OrderNumber), query) ||
		strings.Contains(strings.ToLower(o.CustomerName), query)
}

// FilterOrders returns, in input order, the orders matching all criteria.
// The input slice and its orders are never modified.
func FilterOrders(orders []*domain.Order, c FilterCriteria) []*domain.Order {
	query := strings.ToLower(c.Query)
	result := make([]*domain.Order, 0, len(orders))
	for _, o := range orders {
		if c.matches(o, query) {
			result = append(result, o)
		}
	}
	return result
}

// Paginate returns the 1-based page of items of the given size. Pages out
// of range, including page < 1 or size < 1, are empty.
func Paginate[T any](items []T, page, pageSize int) []T {
	if page < 1 || pageSize < 1 || page-1 > len(items)/pageSize {
		return []T{}
	}
	start := (page - 1) * pageSize
	if start >= len(items) {
		return []T{}
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end:end]
}

// TotalPages returns ceil(total/pageSize), never less than 1.
func TotalPages(total, pageSize int) int {
	if pageSize < 1 || total <= 0 {
		return 1
	}
	return (total + pageSize - 1) / pageSize
}

// Summary holds the dashboard headline counts.
type Summary struct {
	Today     int
	Pending   int
	OnHold    int
	Processed int
	Total     int
}

// Summarize counts statuses over the full, unfiltered order list. Today is
// the number of orders dated on today's calendar day; when there are none
// it falls back to the total order count.
func Summarize(orders []*domain.Order, today time.Time) Summary {
	day := domain.Day(today)
	s := Summary{Total: len(orders)}
	for _, o := range orders {
		switch o.Status {
		case domain.OrderStatusPending:
			s.Pending++
		case domain.OrderStatusOnHold:
			s.OnHold++
		case domain.OrderStatusProcessed:
			s.Processed++
		}
		if domain.Day(o.OrderDate).Equal(day) {
			s.Today++
		}
	}
	if s.Today == 0 {
		s.Today = s.Total
	}
	return s
}
