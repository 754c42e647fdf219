package engine

import (
	"context"
	"encoding/binary"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/efreitasn/allocdash/internal/domain"
	"github.com/google/uuid"
)

// FeedState is the run state of the simulated feed.
type FeedState string

const (
	FeedRunning FeedState = "running"
	FeedPaused  FeedState = "paused"
)

// Simulation bounds.
const (
	MinQueueDepth = 0
	MaxQueueDepth = 100
	MinLoad       = 10.0
	MaxLoad       = 100.0
	MaxProgress   = 100.0

	maxLoadStep     = 5.0
	maxProgressStep = 3.0
	maxQueueStep    = 2
	maxMovementQty  = 50
	movementChance  = 0.5
)

// FeedConfig holds the timing and sizing of the simulation.
type FeedConfig struct {
	FeedInterval      time.Duration
	LoadInterval      time.Duration
	BatchInterval     time.Duration
	Capacity          int
	InitialQueueDepth int
	InitialProgress   float64
}

// DefaultFeedConfig returns the monitor's stock settings.
func DefaultFeedConfig() FeedConfig {
	return FeedConfig{
		FeedInterval:      2 * time.Second,
		LoadInterval:      3 * time.Second,
		BatchInterval:     1500 * time.Millisecond,
		Capacity:          20,
		InitialQueueDepth: 47,
		InitialProgress:   34,
	}
}

// Publisher receives a snapshot after every change to the monitor state.
// It is called outside the engine lock.
type Publisher interface {
	PublishSnapshot(s Snapshot)
}

// Snapshot is a point-in-time copy of the monitor state. The slices it
// holds are never mutated by the engine after the snapshot is taken.
type Snapshot struct {
	Version             uint64 // increases with every change
	State               FeedState
	Events              []domain.ProcessingEvent
	Movements           []domain.StockMovement
	QueueDepth          int
	Loads               []domain.WarehouseLoad
	Batch               Batch
	EstimatedCompletion *time.Time // nil while progress is 0
	Health              domain.Health
	TakenAt             time.Time
}

// FeedEngine generates synthetic processing events, stock movements,
// queue depth, warehouse load and batch progress on fixed tickers.
//
// All three tickers are driven by a single goroutine, so tick callbacks
// never run concurrently with one another. State is only ever replaced
// with freshly built values while holding mu.
type FeedEngine struct {
	cfg       FeedConfig
	orders    []*domain.Order
	catalog   []domain.SKU
	publisher Publisher
	logger    *slog.Logger

	mu         sync.Mutex // protects the fields below
	rng        *rand.Rand
	now        func() time.Time
	state      FeedState
	events     []domain.ProcessingEvent
	movements  []domain.StockMovement
	queueDepth int
	loads      []domain.WarehouseLoad
	batch      Batch
	health     domain.Health
	version    uint64

	lifecycle sync.Mutex // serialises Start, Pause, Resume and Stop
	parent    context.Context
	cancel    context.CancelFunc
	done      chan struct{}
	stopped   bool
}

// NewFeedEngine creates an engine in the Running state. Nothing ticks
// until Start is called. rng is the only source of randomness, so a
// seeded generator yields a reproducible feed.
func NewFeedEngine(
	cfg FeedConfig,
	orders []*domain.Order,
	catalog []domain.SKU,
	warehouses []domain.Warehouse,
	rng *rand.Rand,
	publisher Publisher,
	logger *slog.Logger,
) *FeedEngine {
	if logger == nil {
		logger = slog.Default()
	}

	loads := make([]domain.WarehouseLoad, len(warehouses))
	for i, w := range warehouses {
		loads[i] = domain.WarehouseLoad{Code: w.Code, Name: w.Name, Load: w.CurrentLoad}
	}

	e := &FeedEngine{
		cfg:        cfg,
		orders:     orders,
		catalog:    catalog,
		publisher:  publisher,
		logger:     logger,
		rng:        rng,
		now:        time.Now,
		state:      FeedRunning,
		queueDepth: clampInt(cfg.InitialQueueDepth, MinQueueDepth, MaxQueueDepth),
		loads:      loads,
	}
	e.resetBatch(e.now())
	e.health = domain.Health{
		API:      domain.HealthHealthy,
		Database: domain.HealthHealthy,
		Queue:    domain.HealthHealthy,
		LastSync: e.now(),
	}
	return e
}

// Start binds the engine to ctx and begins ticking. Cancelling ctx has the
// same effect as Stop on the timers. Calling Start on a started or stopped
// engine does nothing.
func (e *FeedEngine) Start(ctx context.Context) {
	e.lifecycle.Lock()
	defer e.lifecycle.Unlock()

	if e.stopped || e.parent != nil {
		return
	}
	e.parent = ctx

	e.mu.Lock()
	running := e.state == FeedRunning
	e.mu.Unlock()

	if running {
		e.launch()
	}
	e.logger.Info("feed engine started",
		slog.Duration("feed_interval", e.cfg.FeedInterval),
		slog.Int("capacity", e.cfg.Capacity),
	)
}

// Pause stops all tickers. It returns false if the feed was not running.
func (e *FeedEngine) Pause() bool {
	e.lifecycle.Lock()
	defer e.lifecycle.Unlock()
	return e.pauseLocked()
}

// Resume restarts the tickers from zero elapsed time; missed ticks are not
// replayed. It returns false if the feed was not paused.
func (e *FeedEngine) Resume() bool {
	e.lifecycle.Lock()
	defer e.lifecycle.Unlock()
	return e.resumeLocked()
}

// Toggle pauses a running feed or resumes a paused one. It returns the
// resulting state and whether a transition happened; a stopped engine
// cannot be resumed.
func (e *FeedEngine) Toggle() (FeedState, bool) {
	e.lifecycle.Lock()
	defer e.lifecycle.Unlock()

	var changed bool
	if e.State() == FeedPaused {
		changed = e.resumeLocked()
	} else {
		changed = e.pauseLocked()
	}
	return e.State(), changed
}

// pauseLocked does the work of Pause. Caller holds lifecycle.
func (e *FeedEngine) pauseLocked() bool {
	e.mu.Lock()
	if e.state != FeedRunning {
		e.mu.Unlock()
		return false
	}
	e.state = FeedPaused
	snap := e.changedLocked()
	e.mu.Unlock()

	e.halt()
	e.logger.Info("feed paused")
	e.publish(snap)
	return true
}

// resumeLocked does the work of Resume. Caller holds lifecycle.
func (e *FeedEngine) resumeLocked() bool {
	if e.stopped {
		return false
	}

	e.mu.Lock()
	if e.state != FeedPaused {
		e.mu.Unlock()
		return false
	}
	e.state = FeedRunning
	snap := e.changedLocked()
	e.mu.Unlock()

	if e.parent != nil {
		e.launch()
	}
	e.logger.Info("feed resumed")
	e.publish(snap)
	return true
}

// Stop cancels every timer and waits for the ticking goroutine to exit.
// A stopped engine cannot be restarted.
func (e *FeedEngine) Stop() {
	e.lifecycle.Lock()
	defer e.lifecycle.Unlock()

	if e.stopped {
		return
	}
	e.stopped = true
	e.halt()
	e.logger.Info("feed engine stopped")
}

// State returns the current run state.
func (e *FeedEngine) State() FeedState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Ticking reports whether the timer goroutine is currently live.
func (e *FeedEngine) Ticking() bool {
	e.lifecycle.Lock()
	defer e.lifecycle.Unlock()
	if e.done == nil {
		return false
	}
	select {
	case <-e.done:
		return false
	default:
		return true
	}
}

// launch starts the timer goroutine. Caller holds lifecycle and has
// ensured no loop is running.
func (e *FeedEngine) launch() {
	if e.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(e.parent)
	done := make(chan struct{})
	e.cancel = cancel
	e.done = done
	go e.run(ctx, done)
}

// halt stops the timer goroutine and waits for it. Caller holds lifecycle.
func (e *FeedEngine) halt() {
	if e.cancel == nil {
		return
	}
	e.cancel()
	<-e.done
	e.cancel = nil
	e.done = nil
}

func (e *FeedEngine) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	feed := time.NewTicker(e.cfg.FeedInterval)
	defer feed.Stop()
	loads := time.NewTicker(e.cfg.LoadInterval)
	defer loads.Stop()
	batch := time.NewTicker(e.cfg.BatchInterval)
	defer batch.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-feed.C:
			e.tick()
		case <-loads.C:
			e.tickLoads()
		case <-batch.C:
			e.tickBatch()
		}
	}
}

// tick appends one processing event, maybe one stock movement, and walks
// the queue depth. It does nothing while paused and reports whether it
// changed anything.
func (e *FeedEngine) tick() bool {
	e.mu.Lock()
	if e.state != FeedRunning {
		e.mu.Unlock()
		return false
	}
	now := e.now()
	if ev, ok := e.newEvent(now); ok {
		e.events = prependBounded(e.events, ev, e.cfg.Capacity)
	}
	if e.rng.Float64() < movementChance {
		if mv, ok := e.newMovement(now); ok {
			e.movements = prependBounded(e.movements, mv, e.cfg.Capacity)
		}
	}
	delta := e.rng.IntN(2*maxQueueStep+1) - maxQueueStep
	e.queueDepth = clampInt(e.queueDepth+delta, MinQueueDepth, MaxQueueDepth)
	snap := e.changedLocked()
	e.mu.Unlock()

	e.publish(snap)
	return true
}

// tickLoads applies a bounded random walk to every warehouse gauge.
func (e *FeedEngine) tickLoads() bool {
	e.mu.Lock()
	if e.state != FeedRunning {
		e.mu.Unlock()
		return false
	}
	next := make([]domain.WarehouseLoad, len(e.loads))
	for i, l := range e.loads {
		delta := e.rng.Float64()*2*maxLoadStep - maxLoadStep
		l.Load = clampFloat(l.Load+delta, MinLoad, MaxLoad)
		next[i] = l
	}
	e.loads = next
	snap := e.changedLocked()
	e.mu.Unlock()

	e.publish(snap)
	return true
}

// tickBatch advances the current batch until it reaches 100%.
func (e *FeedEngine) tickBatch() bool {
	e.mu.Lock()
	if e.state != FeedRunning || e.batch.Progress >= MaxProgress {
		e.mu.Unlock()
		return false
	}
	e.batch.Progress = clampFloat(e.batch.Progress+e.rng.Float64()*maxProgressStep, 0, MaxProgress)
	snap := e.changedLocked()
	e.mu.Unlock()

	e.publish(snap)
	return true
}

// Backfill seeds both feeds with n generated entries, regardless of state.
func (e *FeedEngine) Backfill(n int) {
	e.mu.Lock()
	now := e.now()
	for i := 0; i < n; i++ {
		if ev, ok := e.newEvent(now); ok {
			e.events = prependBounded(e.events, ev, e.cfg.Capacity)
		}
		if mv, ok := e.newMovement(now); ok {
			e.movements = prependBounded(e.movements, mv, e.cfg.Capacity)
		}
	}
	snap := e.changedLocked()
	e.mu.Unlock()

	e.publish(snap)
}

// Clear empties both feeds.
func (e *FeedEngine) Clear() {
	e.mu.Lock()
	e.events = nil
	e.movements = nil
	snap := e.changedLocked()
	e.mu.Unlock()

	e.logger.Info("feed cleared")
	e.publish(snap)
}

// Snapshot returns a copy of the current monitor state.
func (e *FeedEngine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// changedLocked records a state change and returns the resulting
// snapshot. Caller holds mu.
func (e *FeedEngine) changedLocked() Snapshot {
	e.version++
	return e.snapshotLocked()
}

func (e *FeedEngine) snapshotLocked() Snapshot {
	now := e.now()
	s := Snapshot{
		Version:    e.version,
		State:      e.state,
		Events:     e.events,
		Movements:  e.movements,
		QueueDepth: e.queueDepth,
		Loads:      e.loads,
		Batch:      e.batch,
		Health:     e.health,
		TakenAt:    now,
	}
	if eta, ok := e.batch.EstimatedCompletion(now); ok {
		s.EstimatedCompletion = &eta
	}
	return s
}

func (e *FeedEngine) publish(s Snapshot) {
	if e.publisher != nil {
		e.publisher.PublishSnapshot(s)
	}
}

func (e *FeedEngine) resetBatch(now time.Time) {
	e.batch = Batch{
		ID:        "BATCH-" + strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 36)),
		Progress:  clampFloat(e.cfg.InitialProgress, 0, MaxProgress),
		StartedAt: now,
	}
}

// newEvent picks a random order and status. Caller holds mu.
func (e *FeedEngine) newEvent(now time.Time) (domain.ProcessingEvent, bool) {
	if len(e.orders) == 0 {
		return domain.ProcessingEvent{}, false
	}
	order := e.orders[e.rng.IntN(len(e.orders))]
	return domain.ProcessingEvent{
		ID:          "evt-" + e.newID(),
		OrderNumber: order.OrderNumber,
		Status:      domain.EventStatuses[e.rng.IntN(len(domain.EventStatuses))],
		Timestamp:   now,
		Warehouse:   order.AllocatedWarehouse,
	}, true
}

// newMovement picks a random SKU, type and route. Caller holds mu.
func (e *FeedEngine) newMovement(now time.Time) (domain.StockMovement, bool) {
	if len(e.catalog) == 0 {
		return domain.StockMovement{}, false
	}
	sku := e.catalog[e.rng.IntN(len(e.catalog))]
	return domain.StockMovement{
		ID:          "stk-" + e.newID(),
		SKU:         sku.Code,
		ProductName: sku.ProductName,
		Type:        domain.MovementTypes[e.rng.IntN(len(domain.MovementTypes))],
		Quantity:    e.rng.IntN(maxMovementQty) + 1,
		From:        domain.MovementSources[e.rng.IntN(len(domain.MovementSources))],
		To:          domain.MovementDestinations[e.rng.IntN(len(domain.MovementDestinations))],
		Timestamp:   now,
	}, true
}

// newID draws a v4 UUID from the engine's random source. Caller holds mu.
func (e *FeedEngine) newID() string {
	id, err := uuid.NewRandomFromReader(rngReader{e.rng})
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// rngReader adapts a math/rand generator to io.Reader.
type rngReader struct {
	rng *rand.Rand
}

func (r rngReader) Read(p []byte) (int, error) {
	var buf [8]byte
	for i := 0; i < len(p); i += 8 {
		binary.LittleEndian.PutUint64(buf[:], r.rng.Uint64())
		copy(p[i:], buf[:])
	}
	return len(p), nil
}

// prependBounded returns a new slice with item first followed by at most
// limit-1 entries of list. list itself is left untouched.
func prependBounded[T any](list []T, item T, limit int) []T {
	if limit < 1 {
		return nil
	}
	keep := len(list)
	if keep > limit-1 {
		keep = limit - 1
	}
	out := make([]T, 0, keep+1)
	out = append(out, item)
	return append(out, list[:keep]...)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
