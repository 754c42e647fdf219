package handler

import (
	"bufio"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/efreitasn/allocdash/internal/service"
	"github.com/efreitasn/allocdash/internal/stream"
	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with all routes registered, request logging,
// and Content-Type validation middleware.
func NewRouter(
	orderSvc *service.OrderService,
	rulesSvc *service.RulesService,
	feed Monitor,
	hub *stream.Hub,
	logger *slog.Logger,
) chi.Router {
	r := chi.NewRouter()

	// Global middleware.
	r.Use(requestLogging(logger))
	r.Use(contentTypeJSON)

	// Create handlers.
	orderH := NewOrderHandler(orderSvc)
	monitorH := NewMonitorHandler(feed, hub, logger)
	rulesH := NewRulesHandler(rulesSvc)

	// Health check.
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Order routes.
	r.Get("/orders", orderH.List)
	r.Get("/orders/summary", orderH.Summary)
	r.Get("/orders/export", orderH.Export)
	r.Get("/orders/{order_number}", orderH.Get)

	// Monitor routes.
	r.Get("/monitor", monitorH.Get)
	r.Post("/monitor/pause", monitorH.Pause)
	r.Post("/monitor/resume", monitorH.Resume)
	r.Post("/monitor/toggle", monitorH.Toggle)
	r.Post("/monitor/clear", monitorH.Clear)
	r.Get("/monitor/stream", monitorH.Stream)

	// Rules routes.
	r.Route("/rules", func(r chi.Router) {
		r.Get("/", rulesH.View)
		r.Post("/save", rulesH.Save)
		r.Post("/reset", rulesH.Reset)

		r.Get("/cutoffs", rulesH.ListCutoffs)
		r.Post("/cutoffs", rulesH.UpsertCutoff)
		r.Put("/cutoffs/{cutoff_id}", rulesH.UpsertCutoff)
		r.Post("/cutoffs/{cutoff_id}/toggle", rulesH.ToggleCutoff)
		r.Delete("/cutoffs/{cutoff_id}", rulesH.DeleteCutoff)

		r.Get("/warehouses", rulesH.ListWarehouses)
		r.Post("/warehouses/{warehouse_id}/toggle", rulesH.ToggleWarehouse)
		r.Put("/warehouses/{warehouse_id}/priority", rulesH.SetPriorityScore)
		r.Put("/warehouses/{warehouse_id}/max-daily-orders", rulesH.SetMaxDailyOrders)

		r.Get("/priority", rulesH.ListPriority)
		r.Post("/priority/move", rulesH.MovePriority)

		r.Get("/thresholds", rulesH.GetThresholds)
		r.Put("/thresholds/{field}", rulesH.SetThreshold)

		r.Get("/shipping", rulesH.ListShipping)
		r.Post("/shipping", rulesH.UpsertShipping)
		r.Put("/shipping/{preference_id}", rulesH.UpsertShipping)
		r.Post("/shipping/{preference_id}/toggle", rulesH.ToggleShipping)
		r.Delete("/shipping/{preference_id}", rulesH.DeleteShipping)

		r.Get("/holidays", rulesH.ListHolidays)
		r.Post("/holidays", rulesH.AddHoliday)
		r.Get("/holidays/closed", rulesH.ClosedOn)
		r.Delete("/holidays/{holiday_id}", rulesH.DeleteHoliday)
	})

	return r
}

// requestLogging returns middleware that logs each request's method, path,
// status code, and duration using slog.
func requestLogging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			logger.Info("request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

// Hijack lets the websocket upgrader take over the connection.
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	w.status = http.StatusSwitchingProtocols
	w.wroteHeader = true
	return h.Hijack()
}

// contentTypeJSON is middleware that validates Content-Type for POST, PUT, and
// PATCH requests that carry a body. If the Content-Type header doesn't start
// with "application/json", it returns 400 Bad Request before the handler runs.
// Bodyless action requests such as POST /monitor/pause pass through.
func contentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hasBody := r.ContentLength != 0
		if hasBody && (r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch) {
			ct := r.Header.Get("Content-Type")
			if ct == "" || !strings.HasPrefix(ct, "application/json") {
				WriteError(w, http.StatusBadRequest, "invalid_request",
					"Content-Type must be application/json")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
