package service

import (
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/efreitasn/allocdash/internal/domain"
	"github.com/efreitasn/allocdash/internal/store"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Threshold field names accepted by SetThreshold.
const (
	ThresholdMinimumStockLevel     = "minimum_stock_level"
	ThresholdReorderPoint          = "reorder_point"
	ThresholdSafetyStockPercentage = "safety_stock_percentage"
	ThresholdBufferDays            = "buffer_days"
)

// Notifications returned by Save and Reset.
var (
	SavedNotification = domain.Notification{
		Title:       "Settings saved",
		Description: "All allocation rules have been updated successfully.",
	}
	ResetNotification = domain.Notification{
		Title:       "Settings reset",
		Description: "All changes have been discarded.",
	}
)

// CutoffInput is an upsert request for a country cutoff. Priority is raw
// form text; an empty or non-numeric value falls back to 1.
type CutoffInput struct {
	ID          string
	Country     string
	CountryCode string
	CutoffTime  string
	Timezone    string
	Priority    string
	Enabled     bool
}

// HolidayInput is a request to add a holiday. Warehouse defaults to "All"
// and Type to Closed.
type HolidayInput struct {
	Date        string
	Warehouse   string
	Type        domain.HolidayType
	Description string
}

// RulesView is the whole configuration surface at one instant.
type RulesView struct {
	Warehouses []domain.Warehouse
	Cutoffs    []domain.CountryCutoff
	Rules      []domain.AllocationRule
	Thresholds domain.StockThresholds
	Shipping   []domain.ShippingPreference
	Holidays   []domain.HolidayDate
	Dirty      bool
}

// RulesService edits the allocation rules configuration. Every successful
// mutation raises the unsaved-changes flag and invokes the change callback.
// Nothing is persisted: Save and Reset only clear the flag.
type RulesService struct {
	store    *store.RulesStore
	validate *validator.Validate
	onChange func()
	logger   *slog.Logger

	mu    sync.Mutex
	dirty bool
}

// NewRulesService creates a RulesService. onChange may be nil.
func NewRulesService(rs *store.RulesStore, onChange func(), logger *slog.Logger) *RulesService {
	if logger == nil {
		logger = slog.Default()
	}
	return &RulesService{
		store:    rs,
		validate: newValidator(),
		onChange: onChange,
		logger:   logger,
	}
}

func (s *RulesService) changed() {
	s.mu.Lock()
	s.dirty = true
	s.mu.Unlock()
	if s.onChange != nil {
		s.onChange()
	}
}

// Dirty reports whether unsaved changes exist.
func (s *RulesService) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// View returns every section together with the unsaved-changes flag.
func (s *RulesService) View() RulesView {
	return RulesView{
		Warehouses: s.store.Warehouses(),
		Cutoffs:    s.store.Cutoffs(),
		Rules:      s.store.Rules(),
		Thresholds: s.store.Thresholds(),
		Shipping:   s.store.Shipping(),
		Holidays:   s.store.Holidays(),
		Dirty:      s.Dirty(),
	}
}

// Save clears the unsaved-changes flag. Without confirmation it returns
// domain.ErrConfirmationRequired and changes nothing.
func (s *RulesService) Save(confirm bool) (domain.Notification, error) {
	return s.settle(confirm, "save", SavedNotification)
}

// Reset clears the unsaved-changes flag. Edits already applied are kept.
// Without confirmation it returns domain.ErrConfirmationRequired.
func (s *RulesService) Reset(confirm bool) (domain.Notification, error) {
	return s.settle(confirm, "reset", ResetNotification)
}

func (s *RulesService) settle(confirm bool, action string, n domain.Notification) (domain.Notification, error) {
	if !confirm {
		return domain.Notification{}, domain.ErrConfirmationRequired
	}
	s.mu.Lock()
	s.dirty = false
	s.mu.Unlock()
	s.logger.Info("rules "+action+" confirmed")
	return n, nil
}

// Cutoffs returns the country cutoff list.
func (s *RulesService) Cutoffs() []domain.CountryCutoff {
	return s.store.Cutoffs()
}

// UpsertCutoff creates a cutoff when in.ID is empty or unknown, otherwise
// replaces it. It reports whether a new cutoff was created.
func (s *RulesService) UpsertCutoff(in CutoffInput) (domain.CountryCutoff, bool, error) {
	c := domain.CountryCutoff{
		ID:          in.ID,
		Country:     strings.TrimSpace(in.Country),
		CountryCode: strings.ToUpper(strings.TrimSpace(in.CountryCode)),
		CutoffTime:  strings.TrimSpace(in.CutoffTime),
		Timezone:    strings.TrimSpace(in.Timezone),
		Priority:    CoerceInt(in.Priority, 1),
		Enabled:     in.Enabled,
	}
	if c.Priority < 1 {
		c.Priority = 1
	}
	if err := s.validate.Struct(c); err != nil {
		return domain.CountryCutoff{}, false, validationError(err)
	}
	if c.ID == "" {
		c.ID = newID("cc")
	}

	created := s.store.PutCutoff(c)
	s.changed()
	return c, created, nil
}

// ToggleCutoff flips the enabled flag of a cutoff.
func (s *RulesService) ToggleCutoff(id string) (domain.CountryCutoff, error) {
	c, err := s.store.UpdateCutoff(id, func(c *domain.CountryCutoff) { c.Enabled = !c.Enabled })
	if err != nil {
		return domain.CountryCutoff{}, err
	}
	s.changed()
	return c, nil
}

// DeleteCutoff removes a cutoff.
func (s *RulesService) DeleteCutoff(id string) error {
	if err := s.store.DeleteCutoff(id); err != nil {
		return err
	}
	s.changed()
	return nil
}

// Warehouses returns the warehouse capacity settings.
func (s *RulesService) Warehouses() []domain.Warehouse {
	return s.store.Warehouses()
}

// ToggleWarehouse flips whether a warehouse takes allocations.
func (s *RulesService) ToggleWarehouse(id string) (domain.Warehouse, error) {
	w, err := s.store.UpdateWarehouse(id, func(w *domain.Warehouse) { w.Enabled = !w.Enabled })
	if err != nil {
		return domain.Warehouse{}, err
	}
	s.changed()
	return w, nil
}

// SetPriorityScore sets a warehouse priority score, clamped to 1..10.
func (s *RulesService) SetPriorityScore(id string, score int) (domain.Warehouse, error) {
	score = min(max(score, domain.MinPriorityScore), domain.MaxPriorityScore)
	w, err := s.store.UpdateWarehouse(id, func(w *domain.Warehouse) { w.PriorityScore = score })
	if err != nil {
		return domain.Warehouse{}, err
	}
	s.changed()
	return w, nil
}

// SetMaxDailyOrders sets a warehouse's daily order cap from form text.
// Invalid text and negative values become 0.
func (s *RulesService) SetMaxDailyOrders(id, text string) (domain.Warehouse, error) {
	n := max(CoerceInt(text, 0), 0)
	w, err := s.store.UpdateWarehouse(id, func(w *domain.Warehouse) { w.MaxDailyOrders = n })
	if err != nil {
		return domain.Warehouse{}, err
	}
	s.changed()
	return w, nil
}

// Rules returns the allocation priority list.
func (s *RulesService) Rules() []domain.AllocationRule {
	return s.store.Rules()
}

// MoveRule moves the dragged rule into the target rule's position and
// renumbers the list 1..n. Moving a rule onto itself, or naming an unknown
// rule, leaves the list untouched.
func (s *RulesService) MoveRule(draggedID, targetID string) []domain.AllocationRule {
	rules, moved := s.store.UpdateRules(func(rs []domain.AllocationRule) ([]domain.AllocationRule, bool) {
		return Reorder(rs, draggedID, targetID)
	})
	if moved {
		s.changed()
	}
	return rules
}

// Reorder removes the dragged rule and reinserts it at the target's index,
// then renumbers Order 1..n. It returns false, and the input unchanged, when
// the IDs are equal or either is missing. The input slice is not modified.
func Reorder(rules []domain.AllocationRule, draggedID, targetID string) ([]domain.AllocationRule, bool) {
	if draggedID == targetID {
		return rules, false
	}
	from, to := -1, -1
	for i, r := range rules {
		switch r.ID {
		case draggedID:
			from = i
		case targetID:
			to = i
		}
	}
	if from < 0 || to < 0 {
		return rules, false
	}

	out := make([]domain.AllocationRule, 0, len(rules))
	out = append(out, rules[:from]...)
	out = append(out, rules[from+1:]...)
	dragged := rules[from]
	out = append(out[:to], append([]domain.AllocationRule{dragged}, out[to:]...)...)
	for i := range out {
		out[i].Order = i + 1
	}
	return out, true
}

// Thresholds returns the stock alert thresholds.
func (s *RulesService) Thresholds() domain.StockThresholds {
	return s.store.Thresholds()
}

// SetThreshold sets one threshold from form text. Invalid or empty text
// becomes 0.
func (s *RulesService) SetThreshold(field, text string) (domain.StockThresholds, error) {
	var set func(*domain.StockThresholds, int)
	switch field {
	case ThresholdMinimumStockLevel:
		set = func(t *domain.StockThresholds, v int) { t.MinimumStockLevel = v }
	case ThresholdReorderPoint:
		set = func(t *domain.StockThresholds, v int) { t.ReorderPoint = v }
	case ThresholdSafetyStockPercentage:
		set = func(t *domain.StockThresholds, v int) { t.SafetyStockPercentage = v }
	case ThresholdBufferDays:
		set = func(t *domain.StockThresholds, v int) { t.BufferDays = v }
	default:
		return domain.StockThresholds{}, fmt.Errorf("%w: %s", domain.ErrUnknownThreshold, field)
	}

	v := CoerceInt(text, 0)
	t := s.store.UpdateThresholds(func(t *domain.StockThresholds) { set(t, v) })
	s.changed()
	return t, nil
}

// Shipping returns the shipping preference list.
func (s *RulesService) Shipping() []domain.ShippingPreference {
	return s.store.Shipping()
}

// UpsertShipping validates and stores a shipping preference, creating it
// when p.ID is empty or unknown.
func (s *RulesService) UpsertShipping(p domain.ShippingPreference) (domain.ShippingPreference, bool, error) {
	p.Country = strings.TrimSpace(p.Country)
	p.Carrier = strings.TrimSpace(p.Carrier)
	if err := s.validate.Struct(p); err != nil {
		return domain.ShippingPreference{}, false, validationError(err)
	}
	if p.ID == "" {
		p.ID = newID("sp")
	}

	created := s.store.PutShipping(p)
	s.changed()
	return p, created, nil
}

// ToggleShipping flips the enabled flag of a shipping preference.
func (s *RulesService) ToggleShipping(id string) (domain.ShippingPreference, error) {
	p, err := s.store.UpdateShipping(id, func(p *domain.ShippingPreference) { p.Enabled = !p.Enabled })
	if err != nil {
		return domain.ShippingPreference{}, err
	}
	s.changed()
	return p, nil
}

// DeleteShipping removes a shipping preference.
func (s *RulesService) DeleteShipping(id string) error {
	if err := s.store.DeleteShipping(id); err != nil {
		return err
	}
	s.changed()
	return nil
}

// Holidays returns the holiday calendar in ascending date order.
func (s *RulesService) Holidays() []domain.HolidayDate {
	return s.store.Holidays()
}

// AddHoliday validates and stores a new holiday. Date and description are
// required; the warehouse must be "All" or a known warehouse name.
func (s *RulesService) AddHoliday(in HolidayInput) (domain.HolidayDate, error) {
	if strings.TrimSpace(in.Date) == "" {
		return domain.HolidayDate{}, &domain.ValidationError{Message: "date is required"}
	}
	date, err := domain.ParseDate(strings.TrimSpace(in.Date))
	if err != nil {
		return domain.HolidayDate{}, &domain.ValidationError{Message: "date must be in YYYY-MM-DD format"}
	}

	h := domain.HolidayDate{
		ID:          newID("hd"),
		Date:        date,
		Warehouse:   strings.TrimSpace(in.Warehouse),
		Type:        in.Type,
		Description: strings.TrimSpace(in.Description),
	}
	if h.Warehouse == "" {
		h.Warehouse = domain.AllWarehouses
	}
	if h.Type == "" {
		h.Type = domain.HolidayClosed
	}
	if err := s.validate.Struct(h); err != nil {
		return domain.HolidayDate{}, validationError(err)
	}
	if h.Warehouse != domain.AllWarehouses && !s.knownWarehouse(h.Warehouse) {
		return domain.HolidayDate{}, &domain.ValidationError{
			Message: fmt.Sprintf("warehouse %q is not a known warehouse", h.Warehouse),
		}
	}

	h = s.store.AddHoliday(h)
	s.changed()
	return h, nil
}

func (s *RulesService) knownWarehouse(name string) bool {
	for _, w := range s.store.Warehouses() {
		if w.Name == name {
			return true
		}
	}
	return false
}

// DeleteHoliday removes a holiday.
func (s *RulesService) DeleteHoliday(id string) error {
	if err := s.store.DeleteHoliday(id); err != nil {
		return err
	}
	s.changed()
	return nil
}

// ClosedOn reports whether the named warehouse is fully closed on the
// calendar day of t. Reduced-hours holidays do not count.
func (s *RulesService) ClosedOn(warehouse string, t time.Time) bool {
	for _, h := range s.store.HolidaysOn(t) {
		if h.Type == domain.HolidayClosed && h.AppliesTo(warehouse) {
			return true
		}
	}
	return false
}

// CoerceInt parses the leading integer of form text the way a browser
// number field does, returning fallback when no digits lead the text or
// the value does not fit in an int.
func CoerceInt(text string, fallback int) int {
	s := strings.TrimSpace(text)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return fallback
	}
	n, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil || n > math.MaxInt || n < math.MinInt {
		return fallback
	}
	return int(n)
}

func newID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}
