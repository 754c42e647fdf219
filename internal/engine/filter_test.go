package engine

import (
	"fmt"
	"testing"
	"time"

	"github.com/efreitasn/allocdash/internal/domain"
)

func sampleOrders() []*domain.Order {
	yesterday := testNow.AddDate(0, 0, -1)
	return []*domain.Order{
		newOrder("ORD-001000", "John Smith", yesterday, "Germany", "", domain.OrderStatusPending),
		newOrder("ORD-001001", "Emma Brown", yesterday, "Germany", "", domain.OrderStatusOnHold),
		newOrder("ORD-001002", "Lisa Moore", yesterday, "Germany", "Beringen", domain.OrderStatusProcessed),
		newOrder("ORD-001003", "David Lee", testNow.AddDate(0, 0, -5), "France", "Luxembourg", domain.OrderStatusProcessed),
		newOrder("ORD-001004", "Maria Garcia", testNow, "Belgium", "", domain.OrderStatusPending),
	}
}

func orderNumbers(orders []*domain.Order) []string {
	out := make([]string, len(orders))
	for i, o := range orders {
		out[i] = o.OrderNumber
	}
	return out
}

func TestFilterOrders_GermanyProcessedScenario(t *testing.T) {
	yesterday := testNow.AddDate(0, 0, -1)
	orders := []*domain.Order{
		newOrder("A", "One", yesterday, "Germany", "", domain.OrderStatusPending),
		newOrder("B", "Two", yesterday, "Germany", "", domain.OrderStatusOnHold),
		newOrder("C", "Three", yesterday, "Germany", "Tessenderlo", domain.OrderStatusProcessed),
	}

	got := FilterOrders(orders, FilterCriteria{
		Countries: Only("Germany"),
		Statuses:  Only(domain.OrderStatusProcessed),
	})

	if len(got) != 1 || got[0].OrderNumber != "C" {
		t.Fatalf("expected only order C, got %v", orderNumbers(got))
	}
}

func TestFilterOrders_ZeroCriteriaIsIdentity(t *testing.T) {
	orders := sampleOrders()
	got := FilterOrders(orders, FilterCriteria{})
	if len(got) != len(orders) {
		t.Fatalf("expected %d orders, got %d", len(orders), len(got))
	}
	for i := range orders {
		if got[i] != orders[i] {
			t.Fatalf("order %d changed position", i)
		}
	}
}

func TestFilterOrders_Query(t *testing.T) {
	cases := []struct {
		query string
		want  []string
	}{
		{"", []string{"ORD-001000", "ORD-001001", "ORD-001002", "ORD-001003", "ORD-001004"}},
		{"ord-001003", []string{"ORD-001003"}},
		{"SMITH", []string{"ORD-001000"}},
		{"mo", []string{"ORD-001002"}},
		{"00100", []string{"ORD-001000", "ORD-001001", "ORD-001002", "ORD-001003", "ORD-001004"}},
		{"nobody", []string{}},
	}
	for _, c := range cases {
		t.Run(c.query, func(t *testing.T) {
			got := orderNumbers(FilterOrders(sampleOrders(), FilterCriteria{Query: c.query}))
			if fmt.Sprint(got) != fmt.Sprint(c.want) {
				t.Errorf("query %q = %v, want %v", c.query, got, c.want)
			}
		})
	}
}

func TestFilterOrders_DateRangeInclusive(t *testing.T) {
	from := testNow.AddDate(0, 0, -5)
	to := testNow.AddDate(0, 0, -1)

	got := orderNumbers(FilterOrders(sampleOrders(), FilterCriteria{
		Dates: DateRange{From: &from, To: &to},
	}))
	want := []string{"ORD-001000", "ORD-001001", "ORD-001002", "ORD-001003"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestFilterOrders_DateRangeOpenEnds(t *testing.T) {
	from := testNow
	got := FilterOrders(sampleOrders(), FilterCriteria{Dates: DateRange{From: &from}})
	if len(got) != 1 || got[0].OrderNumber != "ORD-001004" {
		t.Errorf("open upper bound: got %v", orderNumbers(got))
	}

	to := testNow.AddDate(0, 0, -2)
	got = FilterOrders(sampleOrders(), FilterCriteria{Dates: DateRange{To: &to}})
	if len(got) != 1 || got[0].OrderNumber != "ORD-001003" {
		t.Errorf("open lower bound: got %v", orderNumbers(got))
	}
}

func TestFilterOrders_DateRangeIgnoresTimeOfDay(t *testing.T) {
	// A bound late in the day still includes orders on that day.
	to := testNow.AddDate(0, 0, -1).Add(-11 * time.Hour)
	got := FilterOrders(sampleOrders(), FilterCriteria{Dates: DateRange{From: &to, To: &to}})
	if len(got) != 3 {
		t.Errorf("expected 3 orders dated yesterday, got %v", orderNumbers(got))
	}
}

func TestFilterOrders_WarehouseSelectionMatchesUnallocated(t *testing.T) {
	got := FilterOrders(sampleOrders(), FilterCriteria{Warehouses: Only("")})
	if len(got) != 3 {
		t.Errorf("expected 3 unallocated orders, got %v", orderNumbers(got))
	}
}

func TestFilterOrders_NoneSelectsNothing(t *testing.T) {
	got := FilterOrders(sampleOrders(), FilterCriteria{Countries: None[string]()})
	if len(got) != 0 {
		t.Errorf("None() should match nothing, got %v", orderNumbers(got))
	}
}

func TestFilterOrders_DoesNotModifyInput(t *testing.T) {
	orders := sampleOrders()
	before := orderNumbers(orders)
	FilterOrders(orders, FilterCriteria{Statuses: Only(domain.OrderStatusPending)})
	if fmt.Sprint(orderNumbers(orders)) != fmt.Sprint(before) {
		t.Fatal("input slice was modified")
	}
}

func TestSelection(t *testing.T) {
	var zero Selection[string]
	if zero.Active() || !zero.Accepts("anything") {
		t.Error("zero selection should accept everything")
	}
	s := Only("a", "b", "a")
	if !s.Active() || s.Len() != 2 {
		t.Errorf("Only(a,b,a): active=%v len=%d", s.Active(), s.Len())
	}
	if !s.Accepts("a") || s.Accepts("c") {
		t.Error("Only(a,b) membership wrong")
	}
	if None[string]().Accepts("") {
		t.Error("None should accept nothing")
	}
}

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
	cases := []struct {
		name       string
		page, size int
		want       []int
	}{
		{"first page", 1, 5, []int{1, 2, 3, 4, 5}},
		{"last partial page", 3, 5, []int{11, 12}},
		{"past end", 4, 5, []int{}},
		{"far past end", 1 << 40, 5, []int{}},
		{"page zero", 0, 5, []int{}},
		{"negative page", -1, 5, []int{}},
		{"zero size", 1, 0, []int{}},
		{"exact fit", 2, 6, []int{7, 8, 9, 10, 11, 12}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := Paginate(items, c.page, c.size)
			if fmt.Sprint(got) != fmt.Sprint(c.want) {
				t.Errorf("Paginate(%d, %d) = %v, want %v", c.page, c.size, got, c.want)
			}
		})
	}
}

func TestPaginate_EmptyInput(t *testing.T) {
	if got := Paginate([]int{}, 1, 10); len(got) != 0 {
		t.Fatalf("expected empty page, got %v", got)
	}
}

func TestPaginate_AppendDoesNotClobberSource(t *testing.T) {
	items := []int{1, 2, 3, 4}
	page := Paginate(items, 1, 2)
	_ = append(page, 99)
	if items[2] != 3 {
		t.Fatal("appending to a page overwrote the source slice")
	}
}

func TestTotalPages(t *testing.T) {
	cases := []struct{ total, size, want int }{
		{0, 10, 1},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{25, 10, 3},
		{5, 0, 1},
	}
	for _, c := range cases {
		if got := TotalPages(c.total, c.size); got != c.want {
			t.Errorf("TotalPages(%d, %d) = %d, want %d", c.total, c.size, got, c.want)
		}
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(sampleOrders(), testNow)
	if s.Pending != 2 || s.OnHold != 1 || s.Processed != 2 {
		t.Errorf("status counts = %+v", s)
	}
	if s.Today != 1 {
		t.Errorf("Today = %d, want 1", s.Today)
	}
	if s.Total != 5 {
		t.Errorf("Total = %d, want 5", s.Total)
	}
}

func TestSummarize_TodayFallsBackToTotal(t *testing.T) {
	s := Summarize(sampleOrders(), testNow.AddDate(0, 0, 10))
	if s.Today != 5 {
		t.Errorf("Today = %d, want fallback of 5", s.Today)
	}
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil, testNow)
	if s != (Summary{}) {
		t.Errorf("expected zero summary, got %+v", s)
	}
}
