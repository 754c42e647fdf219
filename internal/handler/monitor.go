package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/efreitasn/allocdash/internal/domain"
	"github.com/efreitasn/allocdash/internal/engine"
	"github.com/efreitasn/allocdash/internal/stream"
	"github.com/gorilla/websocket"
)

// Monitor is the live feed the monitor endpoints drive.
type Monitor interface {
	Snapshot() engine.Snapshot
	Pause() bool
	Resume() bool
	Toggle() (engine.FeedState, bool)
	Clear()
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// MonitorHandler handles HTTP requests for the processing monitor.
type MonitorHandler struct {
	feed   Monitor
	hub    *stream.Hub
	logger *slog.Logger
}

// NewMonitorHandler creates a new MonitorHandler. hub may be nil, in which
// case the stream endpoint is unavailable.
func NewMonitorHandler(feed Monitor, hub *stream.Hub, logger *slog.Logger) *MonitorHandler {
	return &MonitorHandler{feed: feed, hub: hub, logger: logger}
}

type eventResponse struct {
	ID          string `json:"id"`
	OrderNumber string `json:"order_number"`
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp"`
	Warehouse   string `json:"warehouse"`
}

type movementResponse struct {
	ID          string `json:"id"`
	SKU         string `json:"sku"`
	ProductName string `json:"product_name"`
	Type        string `json:"type"`
	Quantity    int    `json:"quantity"`
	From        string `json:"from"`
	To          string `json:"to"`
	Timestamp   string `json:"timestamp"`
}

type loadResponse struct {
	Code  string  `json:"code"`
	Name  string  `json:"name"`
	Load  float64 `json:"load"`
	Level string  `json:"level"`
}

type batchResponse struct {
	ID                  string  `json:"id"`
	Progress            float64 `json:"progress"`
	StartedAt           string  `json:"started_at"`
	EstimatedCompletion *string `json:"estimated_completion"`
}

type healthResponse struct {
	API      string `json:"api"`
	Database string `json:"database"`
	Queue    string `json:"queue"`
	LastSync string `json:"last_sync"`
}

type snapshotResponse struct {
	State      string             `json:"state"`
	Events     []eventResponse    `json:"events"`
	Movements  []movementResponse `json:"movements"`
	QueueDepth int                `json:"queue_depth"`
	Loads      []loadResponse     `json:"warehouse_loads"`
	Batch      batchResponse      `json:"batch"`
	Health     healthResponse     `json:"health"`
	TakenAt    string             `json:"taken_at"`
}

type stateResponse struct {
	State   string `json:"state"`
	Changed bool   `json:"changed"`
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func buildSnapshotResponse(s engine.Snapshot) snapshotResponse {
	resp := snapshotResponse{
		State:      string(s.State),
		Events:     make([]eventResponse, len(s.Events)),
		Movements:  make([]movementResponse, len(s.Movements)),
		QueueDepth: s.QueueDepth,
		Loads:      make([]loadResponse, len(s.Loads)),
		Batch: batchResponse{
			ID:        s.Batch.ID,
			Progress:  s.Batch.Progress,
			StartedAt: formatTime(s.Batch.StartedAt),
		},
		Health: healthResponse{
			API:      string(s.Health.API),
			Database: string(s.Health.Database),
			Queue:    string(s.Health.Queue),
			LastSync: formatTime(s.Health.LastSync),
		},
		TakenAt: formatTime(s.TakenAt),
	}
	if s.EstimatedCompletion != nil {
		eta := formatTime(*s.EstimatedCompletion)
		resp.Batch.EstimatedCompletion = &eta
	}
	for i, e := range s.Events {
		resp.Events[i] = eventResponse{
			ID:          e.ID,
			OrderNumber: e.OrderNumber,
			Status:      string(e.Status),
			Timestamp:   formatTime(e.Timestamp),
			Warehouse:   e.Warehouse,
		}
	}
	for i, m := range s.Movements {
		resp.Movements[i] = movementResponse{
			ID:          m.ID,
			SKU:         m.SKU,
			ProductName: m.ProductName,
			Type:        string(m.Type),
			Quantity:    m.Quantity,
			From:        m.From,
			To:          m.To,
			Timestamp:   formatTime(m.Timestamp),
		}
	}
	for i, l := range s.Loads {
		resp.Loads[i] = loadResponse{
			Code:  l.Code,
			Name:  l.Name,
			Load:  l.Load,
			Level: string(domain.LevelFor(l.Load)),
		}
	}
	return resp
}

// EncodeSnapshot renders a snapshot as the JSON frame sent to stream
// subscribers. It has the same shape as GET /monitor.
func EncodeSnapshot(s engine.Snapshot) ([]byte, error) {
	return json.Marshal(buildSnapshotResponse(s))
}

// Get handles GET /monitor.
func (h *MonitorHandler) Get(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, buildSnapshotResponse(h.feed.Snapshot()))
}

// Pause handles POST /monitor/pause.
func (h *MonitorHandler) Pause(w http.ResponseWriter, r *http.Request) {
	changed := h.feed.Pause()
	WriteJSON(w, http.StatusOK, stateResponse{State: string(h.feed.Snapshot().State), Changed: changed})
}

// Resume handles POST /monitor/resume.
func (h *MonitorHandler) Resume(w http.ResponseWriter, r *http.Request) {
	changed := h.feed.Resume()
	WriteJSON(w, http.StatusOK, stateResponse{State: string(h.feed.Snapshot().State), Changed: changed})
}

// Toggle handles POST /monitor/toggle.
func (h *MonitorHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	state, changed := h.feed.Toggle()
	WriteJSON(w, http.StatusOK, stateResponse{State: string(state), Changed: changed})
}

// Clear handles POST /monitor/clear.
func (h *MonitorHandler) Clear(w http.ResponseWriter, r *http.Request) {
	h.feed.Clear()
	WriteJSON(w, http.StatusOK, buildSnapshotResponse(h.feed.Snapshot()))
}

// Stream handles GET /monitor/stream. The first frame is the current
// snapshot; every later change is pushed as it happens.
func (h *MonitorHandler) Stream(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		WriteError(w, http.StatusServiceUnavailable, "stream_unavailable", "Live stream is not enabled")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}
	h.hub.Serve(conn, h.feed.Snapshot)
}
