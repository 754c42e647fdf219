package domain

import "time"

// Warehouse is a distribution center and its capacity settings.
type Warehouse struct {
	ID             string
	Name           string
	Code           string
	MaxDailyOrders int
	CurrentLoad    float64
	PriorityScore  int // 1..10
	OperatingHours string
	Enabled        bool
}

// Priority score bounds accepted by the capacity slider.
const (
	MinPriorityScore = 1
	MaxPriorityScore = 10
)

// CountryCutoff is the latest time an order can be received in a country
// for same-day processing.
type CountryCutoff struct {
	ID          string `validate:"-"`
	Country     string `validate:"required"`
	CountryCode string `validate:"required,len=2,alpha"`
	CutoffTime  string `validate:"required,datetime=15:04"`
	Timezone    string `validate:"required"`
	Priority    int    `validate:"gte=1"`
	Enabled     bool
}

// AllocationRule is one entry in the ordered allocation priority list.
// Order is 1-based and contiguous across the list.
type AllocationRule struct {
	ID          string
	Name        string
	Description string
	Order       int
}

// CostTier classifies a carrier service level.
type CostTier string

const (
	CostTierEconomy  CostTier = "Economy"
	CostTierStandard CostTier = "Standard"
	CostTierExpress  CostTier = "Express"
	CostTierPremium  CostTier = "Premium"
)

// ShippingPreference maps a country to a carrier and cost tier.
type ShippingPreference struct {
	ID       string   `validate:"-"`
	Country  string   `validate:"required"`
	Carrier  string   `validate:"required"`
	CostTier CostTier `validate:"required,oneof=Economy Standard Express Premium"`
	Enabled  bool
}

// HolidayType says whether a warehouse is shut or on reduced hours.
type HolidayType string

const (
	HolidayClosed  HolidayType = "Closed"
	HolidayReduced HolidayType = "Reduced"
)

// AllWarehouses is the holiday scope that applies to every warehouse.
const AllWarehouses = "All"

// HolidayDate is a calendar day on which one or all warehouses close.
type HolidayDate struct {
	ID          string      `validate:"-"`
	Date        time.Time   `validate:"-"`
	Warehouse   string      `validate:"required"`
	Type        HolidayType `validate:"required,oneof=Closed Reduced"`
	Description string      `validate:"required"`
}

// AppliesTo reports whether the holiday covers the named warehouse.
func (h HolidayDate) AppliesTo(warehouse string) bool {
	return h.Warehouse == AllWarehouses || h.Warehouse == warehouse
}

// StockThresholds are the replenishment alert settings.
type StockThresholds struct {
	MinimumStockLevel     int
	ReorderPoint          int
	SafetyStockPercentage int
	BufferDays            int
}

// Notification is the confirmation shown to the operator after an action.
type Notification struct {
	Title       string
	Description string
}
