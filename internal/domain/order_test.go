package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestOrder_TotalItems(t *testing.T) {
	o := &Order{
		Lines: []LineItem{
			{SKUCode: "ON-001", Quantity: 2, UnitPrice: decimal.RequireFromString("149.99")},
			{SKUCode: "ON-002", Quantity: 3, UnitPrice: decimal.RequireFromString("169.99")},
		},
	}
	if got := o.TotalItems(); got != 5 {
		t.Errorf("TotalItems() = %d, want 5", got)
	}
}

func TestOrder_TotalItems_NoLines(t *testing.T) {
	o := &Order{}
	if got := o.TotalItems(); got != 0 {
		t.Errorf("TotalItems() = %d, want 0", got)
	}
}

func TestOrder_Value(t *testing.T) {
	// 2 × 149.99 + 1 × 169.99 = 469.97
	o := &Order{
		Lines: []LineItem{
			{Quantity: 2, UnitPrice: decimal.RequireFromString("149.99")},
			{Quantity: 1, UnitPrice: decimal.RequireFromString("169.99")},
		},
	}
	want := decimal.RequireFromString("469.97")
	if !o.Value().Equal(want) {
		t.Errorf("Value() = %s, want %s", o.Value(), want)
	}
}

func TestOrder_Allocated(t *testing.T) {
	if (&Order{}).Allocated() {
		t.Error("order without warehouse should not be allocated")
	}
	if !(&Order{AllocatedWarehouse: "Beringen"}).Allocated() {
		t.Error("order with warehouse should be allocated")
	}
}

func TestOrderStatus_Valid(t *testing.T) {
	for _, s := range OrderStatuses {
		if !s.Valid() {
			t.Errorf("%q should be valid", s)
		}
	}
	if OrderStatus("Shipped").Valid() {
		t.Error("Shipped should not be valid")
	}
}

func TestDay_TruncatesToCalendarDay(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	ts := time.Date(2025, 3, 9, 23, 30, 0, 0, loc)
	got := Day(ts)
	want := time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Day() = %v, want %v", got, want)
	}
}

func TestParseDate_RoundTrip(t *testing.T) {
	d, err := ParseDate("2025-12-25")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if FormatDate(d) != "2025-12-25" {
		t.Errorf("FormatDate() = %q, want 2025-12-25", FormatDate(d))
	}
	if _, err := ParseDate("25/12/2025"); err == nil {
		t.Error("expected error for non-ISO date")
	}
}

func TestLevelFor(t *testing.T) {
	cases := []struct {
		load float64
		want LoadLevel
	}{
		{0, LoadNormal},
		{69.9, LoadNormal},
		{70, LoadHigh},
		{89.99, LoadHigh},
		{90, LoadCritical},
		{100, LoadCritical},
	}
	for _, c := range cases {
		if got := (WarehouseLoad{Load: c.load}).Level(); got != c.want {
			t.Errorf("Level(%v) = %s, want %s", c.load, got, c.want)
		}
	}
}

func TestHolidayDate_AppliesTo(t *testing.T) {
	all := HolidayDate{Warehouse: AllWarehouses}
	if !all.AppliesTo("Beringen") {
		t.Error("All holiday should apply to Beringen")
	}
	ber := HolidayDate{Warehouse: "Beringen"}
	if !ber.AppliesTo("Beringen") {
		t.Error("Beringen holiday should apply to Beringen")
	}
	if ber.AppliesTo("Luxembourg") {
		t.Error("Beringen holiday should not apply to Luxembourg")
	}
}
