package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus represents the allocation state shown for an order.
type OrderStatus string

const (
	OrderStatusProcessed OrderStatus = "Processed"
	OrderStatusOnHold    OrderStatus = "On Hold"
	OrderStatusPending   OrderStatus = "Pending"
)

// OrderStatuses lists every valid order status in display order.
var OrderStatuses = []OrderStatus{
	OrderStatusProcessed,
	OrderStatusOnHold,
	OrderStatusPending,
}

// Valid reports whether s is one of the known order statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusProcessed, OrderStatusOnHold, OrderStatusPending:
		return true
	}
	return false
}

// LineItem is a single SKU line on an order.
type LineItem struct {
	SKUCode     string
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
}

// Total returns quantity × unit price for the line.
func (l LineItem) Total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Order is a customer purchase routed (or waiting to be routed) to a
// warehouse. Orders are generated once and never mutated afterwards.
type Order struct {
	ID                 string
	OrderNumber        string
	CustomerName       string
	OrderDate          time.Time // calendar day, UTC midnight
	Country            string
	AllocatedWarehouse string // empty when unallocated
	Status             OrderStatus
	Lines              []LineItem
}

// TotalItems is the sum of all line quantities.
func (o *Order) TotalItems() int {
	total := 0
	for _, l := range o.Lines {
		total += l.Quantity
	}
	return total
}

// Value is the sum of all line totals.
func (o *Order) Value() decimal.Decimal {
	total := decimal.Zero
	for _, l := range o.Lines {
		total = total.Add(l.Total())
	}
	return total
}

// Allocated reports whether a warehouse has been assigned.
func (o *Order) Allocated() bool {
	return o.AllocatedWarehouse != ""
}
