package service

import (
	"fmt"
	"time"

	"github.com/efreitasn/allocdash/internal/domain"
	"github.com/efreitasn/allocdash/internal/engine"
	"github.com/efreitasn/allocdash/internal/store"
)

// MaxPageSize bounds the limit a caller may request.
const MaxPageSize = 100

// ListOrdersRequest is the input for a filtered, paginated order listing.
type ListOrdersRequest struct {
	Criteria engine.FilterCriteria
	Page     int // 1-based; 0 means the first page
	Limit    int // 0 means the default page size
}

// OrderPage is one page of a filtered order listing.
type OrderPage struct {
	Orders     []*domain.Order
	Total      int
	Page       int
	Limit      int
	TotalPages int
}

// OrderService answers order list, summary, lookup and export queries.
type OrderService struct {
	orders   *store.OrderStore
	pageSize int
	now      func() time.Time
}

// NewOrderService creates an OrderService. pageSize is the default limit
// for listings.
func NewOrderService(orders *store.OrderStore, pageSize int, now func() time.Time) *OrderService {
	if pageSize < 1 {
		pageSize = 10
	}
	if now == nil {
		now = time.Now
	}
	return &OrderService{orders: orders, pageSize: pageSize, now: now}
}

// PageSize returns the default listing limit.
func (s *OrderService) PageSize() int {
	return s.pageSize
}

// List filters every order by the request criteria and returns the
// requested page. A page past the end yields an empty page, not an error.
func (s *OrderService) List(req ListOrdersRequest) (*OrderPage, error) {
	page := req.Page
	if page == 0 {
		page = 1
	}
	if page < 1 {
		return nil, &domain.ValidationError{Message: fmt.Sprintf("page must be at least 1, got %d", page)}
	}

	limit := req.Limit
	if limit == 0 {
		limit = s.pageSize
	}
	if limit < 1 || limit > MaxPageSize {
		return nil, &domain.ValidationError{Message: fmt.Sprintf("limit must be between 1 and %d, got %d", MaxPageSize, limit)}
	}

	if err := validateDateRange(req.Criteria.Dates); err != nil {
		return nil, err
	}

	filtered := engine.FilterOrders(s.orders.All(), req.Criteria)
	return &OrderPage{
		Orders:     engine.Paginate(filtered, page, limit),
		Total:      len(filtered),
		Page:       page,
		Limit:      limit,
		TotalPages: engine.TotalPages(len(filtered), limit),
	}, nil
}

// Summary counts orders by status over the unfiltered set.
func (s *OrderService) Summary() engine.Summary {
	return engine.Summarize(s.orders.All(), s.now())
}

// Get retrieves an order by its number.
func (s *OrderService) Get(orderNumber string) (*domain.Order, error) {
	return s.orders.Get(orderNumber)
}

// Export renders every order matching criteria as CSV.
func (s *OrderService) Export(criteria engine.FilterCriteria) (*CSVExport, error) {
	if err := validateDateRange(criteria.Dates); err != nil {
		return nil, err
	}

	filtered := engine.FilterOrders(s.orders.All(), criteria)
	data, err := EncodeOrdersCSV(filtered)
	if err != nil {
		return nil, fmt.Errorf("encode orders csv: %w", err)
	}
	return &CSVExport{
		Filename: ExportFilename(s.now()),
		Rows:     len(filtered),
		Data:     data,
	}, nil
}

func validateDateRange(r engine.DateRange) error {
	if r.From != nil && r.To != nil && domain.Day(*r.From).After(domain.Day(*r.To)) {
		return &domain.ValidationError{Message: "from must not be after to"}
	}
	return nil
}
