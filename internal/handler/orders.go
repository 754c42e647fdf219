package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/efreitasn/allocdash/internal/domain"
	"github.com/efreitasn/allocdash/internal/engine"
	"github.com/efreitasn/allocdash/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

// OrderHandler handles HTTP requests for order endpoints.
type OrderHandler struct {
	orderSvc *service.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(orderSvc *service.OrderService) *OrderHandler {
	return &OrderHandler{orderSvc: orderSvc}
}

// orderResponse is the JSON representation of an order.
// allocated_warehouse is null while the order is unallocated.
type orderResponse struct {
	ID                 string          `json:"id"`
	OrderNumber        string          `json:"order_number"`
	CustomerName       string          `json:"customer_name"`
	OrderDate          string          `json:"order_date"`
	Country            string          `json:"country"`
	AllocatedWarehouse *string         `json:"allocated_warehouse"`
	Status             string          `json:"status"`
	TotalItems         int             `json:"total_items"`
	Value              decimal.Decimal `json:"value"`
	Lines              []lineResponse  `json:"lines"`
}

type lineResponse struct {
	SKUCode     string          `json:"sku_code"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Total       decimal.Decimal `json:"total"`
}

type listOrdersResponse struct {
	Orders     []orderResponse `json:"orders"`
	Total      int             `json:"total"`
	Page       int             `json:"page"`
	Limit      int             `json:"limit"`
	TotalPages int             `json:"total_pages"`
}

type summaryResponse struct {
	Today     int `json:"today"`
	Pending   int `json:"pending"`
	OnHold    int `json:"on_hold"`
	Processed int `json:"processed"`
	Total     int `json:"total"`
}

// List handles GET /orders.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	criteria, err := parseCriteria(r.URL.Query())
	if err != nil {
		mapOrderError(w, err)
		return
	}

	page, err := queryInt(r.URL.Query(), "page")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "validation_error", "page must be a valid integer")
		return
	}
	limit, err := queryInt(r.URL.Query(), "limit")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "validation_error", "limit must be a valid integer")
		return
	}

	result, err := h.orderSvc.List(service.ListOrdersRequest{Criteria: criteria, Page: page, Limit: limit})
	if err != nil {
		mapOrderError(w, err)
		return
	}

	orders := make([]orderResponse, len(result.Orders))
	for i, o := range result.Orders {
		orders[i] = buildOrderResponse(o)
	}
	WriteJSON(w, http.StatusOK, listOrdersResponse{
		Orders:     orders,
		Total:      result.Total,
		Page:       result.Page,
		Limit:      result.Limit,
		TotalPages: result.TotalPages,
	})
}

// Summary handles GET /orders/summary.
func (h *OrderHandler) Summary(w http.ResponseWriter, r *http.Request) {
	s := h.orderSvc.Summary()
	WriteJSON(w, http.StatusOK, summaryResponse{
		Today:     s.Today,
		Pending:   s.Pending,
		OnHold:    s.OnHold,
		Processed: s.Processed,
		Total:     s.Total,
	})
}

// Export handles GET /orders/export.
func (h *OrderHandler) Export(w http.ResponseWriter, r *http.Request) {
	criteria, err := parseCriteria(r.URL.Query())
	if err != nil {
		mapOrderError(w, err)
		return
	}

	exp, err := h.orderSvc.Export(criteria)
	if err != nil {
		mapOrderError(w, err)
		return
	}

	w.Header().Set("X-Total-Count", strconv.Itoa(exp.Rows))
	WriteAttachment(w, "text/csv; charset=utf-8", exp.Filename, exp.Data)
}

// Get handles GET /orders/{order_number}.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	order, err := h.orderSvc.Get(chi.URLParam(r, "order_number"))
	if err != nil {
		mapOrderError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, buildOrderResponse(order))
}

func buildOrderResponse(o *domain.Order) orderResponse {
	resp := orderResponse{
		ID:           o.ID,
		OrderNumber:  o.OrderNumber,
		CustomerName: o.CustomerName,
		OrderDate:    domain.FormatDate(o.OrderDate),
		Country:      o.Country,
		Status:       string(o.Status),
		TotalItems:   o.TotalItems(),
		Value:        o.Value(),
		Lines:        make([]lineResponse, len(o.Lines)),
	}
	if o.Allocated() {
		wh := o.AllocatedWarehouse
		resp.AllocatedWarehouse = &wh
	}
	for i, l := range o.Lines {
		resp.Lines[i] = lineResponse{
			SKUCode:     l.SKUCode,
			ProductName: l.ProductName,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			Total:       l.Total(),
		}
	}
	return resp
}

// parseCriteria reads the filter query parameters. A multi-valued filter
// given only as an empty value (e.g. "status=") selects nothing.
func parseCriteria(q url.Values) (engine.FilterCriteria, error) {
	c := engine.FilterCriteria{
		Query:      q.Get("q"),
		Countries:  selection(q, "country"),
		Warehouses: selection(q, "warehouse"),
	}

	var err error
	if c.Dates.From, err = queryDate(q, "from"); err != nil {
		return c, err
	}
	if c.Dates.To, err = queryDate(q, "to"); err != nil {
		return c, err
	}

	statuses := selection(q, "status")
	if statuses.Active() {
		var valid []domain.OrderStatus
		for _, raw := range nonEmpty(q["status"]) {
			st := domain.OrderStatus(raw)
			if !st.Valid() {
				return c, &domain.ValidationError{Message: "unknown status: " + raw}
			}
			valid = append(valid, st)
		}
		c.Statuses = engine.Only(valid...)
		if len(valid) == 0 {
			c.Statuses = engine.None[domain.OrderStatus]()
		}
	}
	return c, nil
}

func selection(q url.Values, key string) engine.Selection[string] {
	raw, ok := q[key]
	if !ok {
		return engine.Selection[string]{}
	}
	values := nonEmpty(raw)
	if len(values) == 0 {
		return engine.None[string]()
	}
	return engine.Only(values...)
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func queryDate(q url.Values, key string) (*time.Time, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return nil, nil
	}
	d, err := domain.ParseDate(raw)
	if err != nil {
		return nil, &domain.ValidationError{Message: key + " must be a date in YYYY-MM-DD format"}
	}
	return &d, nil
}

// queryInt returns 0 when the parameter is absent.
func queryInt(q url.Values, key string) (int, error) {
	raw := q.Get(key)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

// mapOrderError maps domain errors to HTTP responses for order endpoints.
func mapOrderError(w http.ResponseWriter, err error) {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		WriteError(w, http.StatusBadRequest, "validation_error", validationErr.Message)
		return
	}

	switch {
	case errors.Is(err, domain.ErrOrderNotFound):
		WriteError(w, http.StatusNotFound, "order_not_found", err.Error())
	default:
		WriteError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}
