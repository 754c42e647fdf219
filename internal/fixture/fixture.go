// Package fixture provides the mock data the dashboard runs on: static
// configuration tables and a seeded order generator.
package fixture

import (
	"time"

	"github.com/efreitasn/allocdash/internal/domain"
	"github.com/shopspring/decimal"
)

// Fixtures is the full data set handed to the stores and the feed engine
// at start-up.
type Fixtures struct {
	Catalog    []domain.SKU
	Orders     []*domain.Order
	Warehouses []domain.Warehouse
	Cutoffs    []domain.CountryCutoff
	Rules      []domain.AllocationRule
	Shipping   []domain.ShippingPreference
	Holidays   []domain.HolidayDate
	Thresholds domain.StockThresholds
	Countries  []string
	FirstNames []string
	LastNames  []string
}

// Static returns the static configuration tables with no orders.
// Every call returns fresh slices.
func Static() *Fixtures {
	return &Fixtures{
		Catalog:    Catalog(),
		Warehouses: Warehouses(),
		Cutoffs:    Cutoffs(),
		Rules:      Rules(),
		Shipping:   Shipping(),
		Holidays:   Holidays(),
		Thresholds: Thresholds(),
		Countries:  []string{"Belgium", "Netherlands", "France", "Germany", "Luxembourg"},
		FirstNames: firstNames(),
		LastNames:  lastNames(),
	}
}

// WarehouseNames returns the names of the given warehouses in order.
func WarehouseNames(ws []domain.Warehouse) []string {
	names := make([]string, len(ws))
	for i, w := range ws {
		names[i] = w.Name
	}
	return names
}

func sku(code, name, price string) domain.SKU {
	return domain.SKU{Code: code, ProductName: name, UnitPrice: decimal.RequireFromString(price)}
}

// Catalog returns the 20-entry shoe catalog.
func Catalog() []domain.SKU {
	return []domain.SKU{
		sku("ON-001", "ON Cloud X 3", "149.99"),
		sku("ON-002", "ON Cloudmonster", "169.99"),
		sku("ON-003", "ON Cloudrunner", "139.99"),
		sku("ON-004", "ON Cloudswift", "159.99"),
		sku("ON-005", "ON Cloudflow", "139.99"),
		sku("ON-006", "ON Cloudventure", "169.99"),
		sku("ON-007", "ON Cloudsurfer", "149.99"),
		sku("ON-008", "ON Cloud 5", "129.99"),
		sku("ON-009", "ON Cloudace", "179.99"),
		sku("ON-010", "ON Cloudflyer", "159.99"),
		sku("ON-011", "ON Cloudtrax", "159.99"),
		sku("ON-012", "ON Cloudultra", "179.99"),
		sku("ON-013", "ON Cloudnova", "149.99"),
		sku("ON-014", "ON Cloud Terry", "139.99"),
		sku("ON-015", "ON Cloud Dip", "139.99"),
		sku("ON-016", "ON Cloud Waterproof", "149.99"),
		sku("ON-017", "ON Cloud Hi", "159.99"),
		sku("ON-018", "ON Cloudrock", "199.99"),
		sku("ON-019", "ON Cloudventure Peak", "179.99"),
		sku("ON-020", "ON Cloud Edge", "149.99"),
	}
}

// Warehouses returns the three distribution centers.
func Warehouses() []domain.Warehouse {
	return []domain.Warehouse{
		{ID: "wh-1", Name: "Luxembourg", Code: "LUX", MaxDailyOrders: 300, CurrentLoad: 72, PriorityScore: 9, OperatingHours: "07:00 - 21:00 CET", Enabled: true},
		{ID: "wh-2", Name: "Beringen", Code: "BER", MaxDailyOrders: 250, CurrentLoad: 58, PriorityScore: 8, OperatingHours: "07:00 - 21:00 CET", Enabled: true},
		{ID: "wh-3", Name: "Tessenderlo", Code: "TES", MaxDailyOrders: 200, CurrentLoad: 45, PriorityScore: 7, OperatingHours: "07:00 - 21:00 CET", Enabled: true},
	}
}

// Cutoffs returns the per-country same-day cutoff times.
func Cutoffs() []domain.CountryCutoff {
	return []domain.CountryCutoff{
		{ID: "cc-1", Country: "Belgium", CountryCode: "BE", CutoffTime: "17:00", Timezone: "CET", Priority: 1, Enabled: true},
		{ID: "cc-2", Country: "Netherlands", CountryCode: "NL", CutoffTime: "17:00", Timezone: "CET", Priority: 2, Enabled: true},
		{ID: "cc-3", Country: "France", CountryCode: "FR", CutoffTime: "16:00", Timezone: "CET", Priority: 3, Enabled: true},
		{ID: "cc-4", Country: "Germany", CountryCode: "DE", CutoffTime: "16:00", Timezone: "CET", Priority: 4, Enabled: true},
		{ID: "cc-5", Country: "Luxembourg", CountryCode: "LU", CutoffTime: "17:00", Timezone: "CET", Priority: 5, Enabled: true},
	}
}

// Rules returns the allocation priority list in its initial order.
func Rules() []domain.AllocationRule {
	return []domain.AllocationRule{
		{ID: "ar-1", Name: "Geographic Proximity", Description: "Prioritize warehouses closest to delivery address", Order: 1},
		{ID: "ar-2", Name: "Stock Availability", Description: "Ensure all items are in stock at selected warehouse", Order: 2},
		{ID: "ar-3", Name: "Cost Efficiency", Description: "Minimize shipping and handling costs", Order: 3},
		{ID: "ar-4", Name: "Delivery Speed", Description: "Optimize for fastest possible delivery", Order: 4},
		{ID: "ar-5", Name: "Customer Priority Level", Description: "Give preference based on customer tier", Order: 5},
	}
}

// Shipping returns the default carrier per country.
func Shipping() []domain.ShippingPreference {
	return []domain.ShippingPreference{
		{ID: "sp-1", Country: "Belgium", Carrier: "bpost", CostTier: domain.CostTierStandard, Enabled: true},
		{ID: "sp-2", Country: "Netherlands", Carrier: "PostNL", CostTier: domain.CostTierStandard, Enabled: true},
		{ID: "sp-3", Country: "France", Carrier: "La Poste", CostTier: domain.CostTierStandard, Enabled: true},
		{ID: "sp-4", Country: "Germany", Carrier: "DHL", CostTier: domain.CostTierStandard, Enabled: true},
		{ID: "sp-5", Country: "Luxembourg", Carrier: "Post Luxembourg", CostTier: domain.CostTierStandard, Enabled: true},
	}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Holidays returns the holiday calendar.
func Holidays() []domain.HolidayDate {
	return []domain.HolidayDate{
		{ID: "hd-1", Date: day(2025, time.December, 25), Warehouse: domain.AllWarehouses, Type: domain.HolidayClosed, Description: "Christmas Day"},
		{ID: "hd-2", Date: day(2025, time.January, 1), Warehouse: domain.AllWarehouses, Type: domain.HolidayClosed, Description: "New Year's Day"},
		{ID: "hd-3", Date: day(2025, time.May, 1), Warehouse: domain.AllWarehouses, Type: domain.HolidayClosed, Description: "Labour Day"},
		{ID: "hd-4", Date: day(2025, time.July, 21), Warehouse: "Beringen", Type: domain.HolidayClosed, Description: "Belgian National Day"},
		{ID: "hd-5", Date: day(2025, time.June, 23), Warehouse: "Luxembourg", Type: domain.HolidayClosed, Description: "Luxembourg National Day"},
	}
}

// Thresholds returns the default stock alert thresholds.
func Thresholds() domain.StockThresholds {
	return domain.StockThresholds{
		MinimumStockLevel:     50,
		ReorderPoint:          100,
		SafetyStockPercentage: 15,
		BufferDays:            7,
	}
}

func firstNames() []string {
	return []string{
		"John", "Emma", "Michael", "Sarah", "David", "Lisa", "James", "Maria",
		"Robert", "Jennifer", "William", "Amanda", "Christopher", "Ashley",
		"Matthew", "Stephanie", "Daniel", "Nicole", "Andrew", "Jessica",
	}
}

func lastNames() []string {
	return []string{
		"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Miller",
		"Davis", "Rodriguez", "Martinez", "Wilson", "Anderson", "Taylor",
		"Thomas", "Moore", "Jackson", "Martin", "Lee", "Thompson", "White",
	}
}
