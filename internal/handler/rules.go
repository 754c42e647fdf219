package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/efreitasn/allocdash/internal/domain"
	"github.com/efreitasn/allocdash/internal/service"
	"github.com/go-chi/chi/v5"
)

// RulesHandler handles HTTP requests for the allocation rules settings.
type RulesHandler struct {
	rulesSvc *service.RulesService
}

// NewRulesHandler creates a new RulesHandler.
func NewRulesHandler(rulesSvc *service.RulesService) *RulesHandler {
	return &RulesHandler{rulesSvc: rulesSvc}
}

// formText accepts a JSON string or number and keeps its text, so numeric
// form fields can be coerced the way the settings forms do.
type formText string

func (f *formText) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = formText(s)
		return nil
	}
	if string(b) == "null" {
		*f = ""
		return nil
	}
	*f = formText(strings.TrimSpace(string(b)))
	return nil
}

type warehouseResponse struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Code           string  `json:"code"`
	MaxDailyOrders int     `json:"max_daily_orders"`
	CurrentLoad    float64 `json:"current_load"`
	PriorityScore  int     `json:"priority_score"`
	OperatingHours string  `json:"operating_hours"`
	Enabled        bool    `json:"enabled"`
}

type cutoffResponse struct {
	ID          string `json:"id"`
	Country     string `json:"country"`
	CountryCode string `json:"country_code"`
	CutoffTime  string `json:"cutoff_time"`
	Timezone    string `json:"timezone"`
	Priority    int    `json:"priority"`
	Enabled     bool   `json:"enabled"`
}

type ruleResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Order       int    `json:"order"`
}

type thresholdsResponse struct {
	MinimumStockLevel     int `json:"minimum_stock_level"`
	ReorderPoint          int `json:"reorder_point"`
	SafetyStockPercentage int `json:"safety_stock_percentage"`
	BufferDays            int `json:"buffer_days"`
}

type shippingResponse struct {
	ID       string `json:"id"`
	Country  string `json:"country"`
	Carrier  string `json:"carrier"`
	CostTier string `json:"cost_tier"`
	Enabled  bool   `json:"enabled"`
}

type holidayResponse struct {
	ID          string `json:"id"`
	Date        string `json:"date"`
	Warehouse   string `json:"warehouse"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

type rulesViewResponse struct {
	Warehouses []warehouseResponse `json:"warehouses"`
	Cutoffs    []cutoffResponse    `json:"cutoffs"`
	Priority   []ruleResponse      `json:"priority"`
	Thresholds thresholdsResponse  `json:"thresholds"`
	Shipping   []shippingResponse  `json:"shipping"`
	Holidays   []holidayResponse   `json:"holidays"`
	Dirty      bool                `json:"dirty"`
}

type notificationResponse struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Dirty       bool   `json:"dirty"`
}

type cutoffRequest struct {
	Country     string   `json:"country"`
	CountryCode string   `json:"country_code"`
	CutoffTime  string   `json:"cutoff_time"`
	Timezone    string   `json:"timezone"`
	Priority    formText `json:"priority"`
	Enabled     *bool    `json:"enabled"`
}

type shippingRequest struct {
	Country  string `json:"country"`
	Carrier  string `json:"carrier"`
	CostTier string `json:"cost_tier"`
	Enabled  *bool  `json:"enabled"`
}

type holidayRequest struct {
	Date        string `json:"date"`
	Warehouse   string `json:"warehouse"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

type priorityScoreRequest struct {
	PriorityScore int `json:"priority_score"`
}

type maxDailyOrdersRequest struct {
	MaxDailyOrders formText `json:"max_daily_orders"`
}

type moveRequest struct {
	DraggedID string `json:"dragged_id"`
	TargetID  string `json:"target_id"`
}

type thresholdRequest struct {
	Value formText `json:"value"`
}

type confirmRequest struct {
	Confirm bool `json:"confirm"`
}

func toWarehouse(w domain.Warehouse) warehouseResponse {
	return warehouseResponse{
		ID:             w.ID,
		Name:           w.Name,
		Code:           w.Code,
		MaxDailyOrders: w.MaxDailyOrders,
		CurrentLoad:    w.CurrentLoad,
		PriorityScore:  w.PriorityScore,
		OperatingHours: w.OperatingHours,
		Enabled:        w.Enabled,
	}
}

func toCutoff(c domain.CountryCutoff) cutoffResponse {
	return cutoffResponse{
		ID:          c.ID,
		Country:     c.Country,
		CountryCode: c.CountryCode,
		CutoffTime:  c.CutoffTime,
		Timezone:    c.Timezone,
		Priority:    c.Priority,
		Enabled:     c.Enabled,
	}
}

func toRule(r domain.AllocationRule) ruleResponse {
	return ruleResponse{ID: r.ID, Name: r.Name, Description: r.Description, Order: r.Order}
}

func toThresholds(t domain.StockThresholds) thresholdsResponse {
	return thresholdsResponse{
		MinimumStockLevel:     t.MinimumStockLevel,
		ReorderPoint:          t.ReorderPoint,
		SafetyStockPercentage: t.SafetyStockPercentage,
		BufferDays:            t.BufferDays,
	}
}

func toShipping(p domain.ShippingPreference) shippingResponse {
	return shippingResponse{ID: p.ID, Country: p.Country, Carrier: p.Carrier, CostTier: string(p.CostTier), Enabled: p.Enabled}
}

func toHoliday(h domain.HolidayDate) holidayResponse {
	return holidayResponse{
		ID:          h.ID,
		Date:        domain.FormatDate(h.Date),
		Warehouse:   h.Warehouse,
		Type:        string(h.Type),
		Description: h.Description,
	}
}

func mapSlice[T, R any](in []T, fn func(T) R) []R {
	out := make([]R, len(in))
	for i, v := range in {
		out[i] = fn(v)
	}
	return out
}

// View handles GET /rules.
func (h *RulesHandler) View(w http.ResponseWriter, r *http.Request) {
	v := h.rulesSvc.View()
	WriteJSON(w, http.StatusOK, rulesViewResponse{
		Warehouses: mapSlice(v.Warehouses, toWarehouse),
		Cutoffs:    mapSlice(v.Cutoffs, toCutoff),
		Priority:   mapSlice(v.Rules, toRule),
		Thresholds: toThresholds(v.Thresholds),
		Shipping:   mapSlice(v.Shipping, toShipping),
		Holidays:   mapSlice(v.Holidays, toHoliday),
		Dirty:      v.Dirty,
	})
}

// Save handles POST /rules/save.
func (h *RulesHandler) Save(w http.ResponseWriter, r *http.Request) {
	h.settle(w, r, h.rulesSvc.Save)
}

// Reset handles POST /rules/reset.
func (h *RulesHandler) Reset(w http.ResponseWriter, r *http.Request) {
	h.settle(w, r, h.rulesSvc.Reset)
}

func (h *RulesHandler) settle(w http.ResponseWriter, r *http.Request, action func(bool) (domain.Notification, error)) {
	var req confirmRequest
	if r.ContentLength != 0 {
		if err := ParseJSON(r, &req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}
	}

	n, err := action(req.Confirm)
	if err != nil {
		mapRulesError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, notificationResponse{Title: n.Title, Description: n.Description, Dirty: h.rulesSvc.Dirty()})
}

// ListCutoffs handles GET /rules/cutoffs.
func (h *RulesHandler) ListCutoffs(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, mapSlice(h.rulesSvc.Cutoffs(), toCutoff))
}

// UpsertCutoff handles POST /rules/cutoffs and PUT /rules/cutoffs/{cutoff_id}.
func (h *RulesHandler) UpsertCutoff(w http.ResponseWriter, r *http.Request) {
	var req cutoffRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}
	c, created, err := h.rulesSvc.UpsertCutoff(service.CutoffInput{
		ID:          chi.URLParam(r, "cutoff_id"),
		Country:     req.Country,
		CountryCode: req.CountryCode,
		CutoffTime:  req.CutoffTime,
		Timezone:    req.Timezone,
		Priority:    string(req.Priority),
		Enabled:     enabled,
	})
	if err != nil {
		mapRulesError(w, err)
		return
	}
	WriteJSON(w, createdOrOK(created), toCutoff(c))
}

// ToggleCutoff handles POST /rules/cutoffs/{cutoff_id}/toggle.
func (h *RulesHandler) ToggleCutoff(w http.ResponseWriter, r *http.Request) {
	c, err := h.rulesSvc.ToggleCutoff(chi.URLParam(r, "cutoff_id"))
	if err != nil {
		mapRulesError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, toCutoff(c))
}

// DeleteCutoff handles DELETE /rules/cutoffs/{cutoff_id}.
func (h *RulesHandler) DeleteCutoff(w http.ResponseWriter, r *http.Request) {
	if err := h.rulesSvc.DeleteCutoff(chi.URLParam(r, "cutoff_id")); err != nil {
		mapRulesError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListWarehouses handles GET /rules/warehouses.
func (h *RulesHandler) ListWarehouses(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, mapSlice(h.rulesSvc.Warehouses(), toWarehouse))
}

// ToggleWarehouse handles POST /rules/warehouses/{warehouse_id}/toggle.
func (h *RulesHandler) ToggleWarehouse(w http.ResponseWriter, r *http.Request) {
	wh, err := h.rulesSvc.ToggleWarehouse(chi.URLParam(r, "warehouse_id"))
	if err != nil {
		mapRulesError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, toWarehouse(wh))
}

// SetPriorityScore handles PUT /rules/warehouses/{warehouse_id}/priority.
func (h *RulesHandler) SetPriorityScore(w http.ResponseWriter, r *http.Request) {
	var req priorityScoreRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	wh, err := h.rulesSvc.SetPriorityScore(chi.URLParam(r, "warehouse_id"), req.PriorityScore)
	if err != nil {
		mapRulesError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, toWarehouse(wh))
}

// SetMaxDailyOrders handles PUT /rules/warehouses/{warehouse_id}/max-daily-orders.
func (h *RulesHandler) SetMaxDailyOrders(w http.ResponseWriter, r *http.Request) {
	var req maxDailyOrdersRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	wh, err := h.rulesSvc.SetMaxDailyOrders(chi.URLParam(r, "warehouse_id"), string(req.MaxDailyOrders))
	if err != nil {
		mapRulesError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, toWarehouse(wh))
}

// ListPriority handles GET /rules/priority.
func (h *RulesHandler) ListPriority(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, mapSlice(h.rulesSvc.Rules(), toRule))
}

// MovePriority handles POST /rules/priority/move.
func (h *RulesHandler) MovePriority(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, mapSlice(h.rulesSvc.MoveRule(req.DraggedID, req.TargetID), toRule))
}

// GetThresholds handles GET /rules/thresholds.
func (h *RulesHandler) GetThresholds(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, toThresholds(h.rulesSvc.Thresholds()))
}

// SetThreshold handles PUT /rules/thresholds/{field}.
func (h *RulesHandler) SetThreshold(w http.ResponseWriter, r *http.Request) {
	var req thresholdRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	t, err := h.rulesSvc.SetThreshold(chi.URLParam(r, "field"), string(req.Value))
	if err != nil {
		mapRulesError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, toThresholds(t))
}

// ListShipping handles GET /rules/shipping.
func (h *RulesHandler) ListShipping(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, mapSlice(h.rulesSvc.Shipping(), toShipping))
}

// UpsertShipping handles POST /rules/shipping and PUT /rules/shipping/{preference_id}.
func (h *RulesHandler) UpsertShipping(w http.ResponseWriter, r *http.Request) {
	var req shippingRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}
	p, created, err := h.rulesSvc.UpsertShipping(domain.ShippingPreference{
		ID:       chi.URLParam(r, "preference_id"),
		Country:  req.Country,
		Carrier:  req.Carrier,
		CostTier: domain.CostTier(req.CostTier),
		Enabled:  enabled,
	})
	if err != nil {
		mapRulesError(w, err)
		return
	}
	WriteJSON(w, createdOrOK(created), toShipping(p))
}

// ToggleShipping handles POST /rules/shipping/{preference_id}/toggle.
func (h *RulesHandler) ToggleShipping(w http.ResponseWriter, r *http.Request) {
	p, err := h.rulesSvc.ToggleShipping(chi.URLParam(r, "preference_id"))
	if err != nil {
		mapRulesError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, toShipping(p))
}

// DeleteShipping handles DELETE /rules/shipping/{preference_id}.
func (h *RulesHandler) DeleteShipping(w http.ResponseWriter, r *http.Request) {
	if err := h.rulesSvc.DeleteShipping(chi.URLParam(r, "preference_id")); err != nil {
		mapRulesError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListHolidays handles GET /rules/holidays.
func (h *RulesHandler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, mapSlice(h.rulesSvc.Holidays(), toHoliday))
}

// AddHoliday handles POST /rules/holidays.
func (h *RulesHandler) AddHoliday(w http.ResponseWriter, r *http.Request) {
	var req holidayRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	hd, err := h.rulesSvc.AddHoliday(service.HolidayInput{
		Date:        req.Date,
		Warehouse:   req.Warehouse,
		Type:        domain.HolidayType(req.Type),
		Description: req.Description,
	})
	if err != nil {
		mapRulesError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, toHoliday(hd))
}

// DeleteHoliday handles DELETE /rules/holidays/{holiday_id}.
func (h *RulesHandler) DeleteHoliday(w http.ResponseWriter, r *http.Request) {
	if err := h.rulesSvc.DeleteHoliday(chi.URLParam(r, "holiday_id")); err != nil {
		mapRulesError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ClosedOn handles GET /rules/holidays/closed?warehouse=...&date=YYYY-MM-DD.
func (h *RulesHandler) ClosedOn(w http.ResponseWriter, r *http.Request) {
	warehouse := r.URL.Query().Get("warehouse")
	if warehouse == "" {
		WriteError(w, http.StatusBadRequest, "validation_error", "warehouse is required")
		return
	}
	date, err := domain.ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "validation_error", "date must be a date in YYYY-MM-DD format")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"warehouse": warehouse,
		"date":      domain.FormatDate(date),
		"closed":    h.rulesSvc.ClosedOn(warehouse, date),
	})
}

func createdOrOK(created bool) int {
	if created {
		return http.StatusCreated
	}
	return http.StatusOK
}

// mapRulesError maps domain errors to HTTP responses for rules endpoints.
func mapRulesError(w http.ResponseWriter, err error) {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		WriteError(w, http.StatusBadRequest, "validation_error", validationErr.Message)
		return
	}

	switch {
	case errors.Is(err, domain.ErrWarehouseNotFound):
		WriteError(w, http.StatusNotFound, "warehouse_not_found", err.Error())
	case errors.Is(err, domain.ErrCutoffNotFound):
		WriteError(w, http.StatusNotFound, "cutoff_not_found", err.Error())
	case errors.Is(err, domain.ErrShippingPrefNotFound):
		WriteError(w, http.StatusNotFound, "shipping_preference_not_found", err.Error())
	case errors.Is(err, domain.ErrHolidayNotFound):
		WriteError(w, http.StatusNotFound, "holiday_not_found", err.Error())
	case errors.Is(err, domain.ErrUnknownThreshold):
		WriteError(w, http.StatusNotFound, "unknown_threshold", err.Error())
	case errors.Is(err, domain.ErrConfirmationRequired):
		WriteError(w, http.StatusPreconditionRequired, "confirmation_required", "Set confirm to true to apply this action")
	default:
		WriteError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}
