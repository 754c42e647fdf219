package domain

import "github.com/shopspring/decimal"

// SKU is a product catalog entry.
type SKU struct {
	Code        string
	ProductName string
	UnitPrice   decimal.Decimal
}
