package domain

import "time"

// EventStatus is the label carried by a simulated processing event. It is
// independent of the referenced order's own status.
type EventStatus string

const (
	EventStatusValidated  EventStatus = "Validated"
	EventStatusProcessing EventStatus = "Processing"
	EventStatusAllocated  EventStatus = "Allocated"
	EventStatusComplete   EventStatus = "Complete"
)

// EventStatuses is the fixed label set events are drawn from.
var EventStatuses = []EventStatus{
	EventStatusValidated,
	EventStatusProcessing,
	EventStatusAllocated,
	EventStatusComplete,
}

// ProcessingEvent is a synthetic entry in the order processing feed.
type ProcessingEvent struct {
	ID          string
	OrderNumber string
	Status      EventStatus
	Timestamp   time.Time
	Warehouse   string
}

// MovementType classifies a stock movement.
type MovementType string

const (
	MovementInbound  MovementType = "Inbound"
	MovementOutbound MovementType = "Outbound"
	MovementTransfer MovementType = "Transfer"
)

// MovementTypes is the fixed set movements are drawn from.
var MovementTypes = []MovementType{
	MovementInbound,
	MovementOutbound,
	MovementTransfer,
}

// Source and destination locations for simulated stock movements.
var (
	MovementSources      = []string{"Receiving", "Luxembourg", "Beringen", "Tessenderlo", "Vendor"}
	MovementDestinations = []string{"Luxembourg", "Beringen", "Tessenderlo", "Shipping", "Returns"}
)

// StockMovement is a synthetic entry in the stock movements feed.
type StockMovement struct {
	ID          string
	SKU         string
	ProductName string
	Type        MovementType
	Quantity    int
	From        string
	To          string
	Timestamp   time.Time
}

// LoadLevel buckets a warehouse load for display.
type LoadLevel string

const (
	LoadNormal   LoadLevel = "normal"
	LoadHigh     LoadLevel = "high"
	LoadCritical LoadLevel = "critical"
)

// WarehouseLoad is the simulated utilization gauge of a warehouse.
type WarehouseLoad struct {
	Code string
	Name string
	Load float64 // percent, 0..100
}

// Level returns critical at 90 and above, high at 70 and above,
// normal otherwise.
func (w WarehouseLoad) Level() LoadLevel {
	return LevelFor(w.Load)
}

// LevelFor classifies a load percentage.
func LevelFor(load float64) LoadLevel {
	switch {
	case load >= 90:
		return LoadCritical
	case load >= 70:
		return LoadHigh
	default:
		return LoadNormal
	}
}

// HealthStatus is the reported state of a monitored subsystem.
type HealthStatus string

const (
	HealthHealthy HealthStatus = "healthy"
	HealthWarning HealthStatus = "warning"
	HealthError   HealthStatus = "error"
)

// Health is the status bar shown above the processing monitor.
type Health struct {
	API      HealthStatus
	Database HealthStatus
	Queue    HealthStatus
	LastSync time.Time
}
