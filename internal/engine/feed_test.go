package engine

import (
	"context"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/efreitasn/allocdash/internal/domain"
	"github.com/efreitasn/allocdash/internal/fixture"
)

func TestFeedEngine_InitialState(t *testing.T) {
	e := newTestEngine(1, DefaultFeedConfig(), nil)
	s := e.Snapshot()

	if s.State != FeedRunning {
		t.Errorf("State = %s, want running", s.State)
	}
	if s.QueueDepth != 47 {
		t.Errorf("QueueDepth = %d, want 47", s.QueueDepth)
	}
	if len(s.Events) != 0 || len(s.Movements) != 0 {
		t.Errorf("expected empty feeds, got %d events, %d movements", len(s.Events), len(s.Movements))
	}
	if len(s.Loads) != 3 || s.Loads[0].Code != "LUX" || s.Loads[0].Load != 72 {
		t.Errorf("unexpected loads %+v", s.Loads)
	}
	if s.Batch.Progress != 34 {
		t.Errorf("batch progress = %v, want 34", s.Batch.Progress)
	}
	if s.Health.API != domain.HealthHealthy || s.Health.Queue != domain.HealthHealthy {
		t.Errorf("unexpected health %+v", s.Health)
	}
}

func TestFeedEngine_TickGrowsThenCaps(t *testing.T) {
	e := newTestEngine(2, DefaultFeedConfig(), nil)

	for n := 1; n <= 30; n++ {
		if !e.tick() {
			t.Fatalf("tick %d reported no change while running", n)
		}
		want := n
		if want > 20 {
			want = 20
		}
		if got := len(e.Snapshot().Events); got != want {
			t.Fatalf("after %d ticks: %d events, want %d", n, got, want)
		}
	}
	if got := len(e.Snapshot().Movements); got > 20 {
		t.Fatalf("movements exceeded capacity: %d", got)
	}
}

func TestFeedEngine_NewestFirst(t *testing.T) {
	e := newTestEngine(3, DefaultFeedConfig(), nil)
	clock := testNow
	e.now = func() time.Time { return clock }

	for i := 0; i < 25; i++ {
		clock = clock.Add(time.Second)
		e.tick()
	}

	events := e.Snapshot().Events
	for i := 1; i < len(events); i++ {
		if !events[i-1].Timestamp.After(events[i].Timestamp) {
			t.Fatalf("events not newest-first at %d", i)
		}
	}
	if !events[0].Timestamp.Equal(clock) {
		t.Errorf("head timestamp = %v, want %v", events[0].Timestamp, clock)
	}
}

func TestFeedEngine_EventsReferenceOrders(t *testing.T) {
	e := newTestEngine(4, DefaultFeedConfig(), nil)
	byNumber := make(map[string]*domain.Order)
	for _, o := range e.orders {
		byNumber[o.OrderNumber] = o
	}

	for i := 0; i < 20; i++ {
		e.tick()
	}
	for _, ev := range e.Snapshot().Events {
		o, ok := byNumber[ev.OrderNumber]
		if !ok {
			t.Fatalf("event references unknown order %s", ev.OrderNumber)
		}
		if ev.Warehouse != o.AllocatedWarehouse {
			t.Errorf("event warehouse %q, order warehouse %q", ev.Warehouse, o.AllocatedWarehouse)
		}
		if len(ev.ID) < 5 || ev.ID[:4] != "evt-" {
			t.Errorf("unexpected event id %q", ev.ID)
		}
	}
}

func TestFeedEngine_MovementsWellFormed(t *testing.T) {
	e := newTestEngine(5, DefaultFeedConfig(), nil)
	for i := 0; i < 200; i++ {
		e.tick()
	}
	movements := e.Snapshot().Movements
	if len(movements) == 0 {
		t.Fatal("expected some stock movements after 200 ticks")
	}
	for _, m := range movements {
		if m.Quantity < 1 || m.Quantity > 50 {
			t.Errorf("quantity %d out of range", m.Quantity)
		}
		if m.SKU == "" || m.ProductName == "" {
			t.Errorf("movement missing SKU: %+v", m)
		}
	}
}

func TestFeedEngine_PausedTickChangesNothing(t *testing.T) {
	e := newTestEngine(6, DefaultFeedConfig(), nil)
	for i := 0; i < 5; i++ {
		e.tick()
	}
	if !e.Pause() {
		t.Fatal("Pause() on a running feed returned false")
	}

	before := e.Snapshot()
	if e.tick() || e.tickLoads() || e.tickBatch() {
		t.Fatal("tick reported a change while paused")
	}
	after := e.Snapshot()

	if len(after.Events) != len(before.Events) || len(after.Movements) != len(before.Movements) {
		t.Error("feed lengths changed while paused")
	}
	if after.QueueDepth != before.QueueDepth {
		t.Error("queue depth changed while paused")
	}
	if after.Batch.Progress != before.Batch.Progress {
		t.Error("batch progress changed while paused")
	}
	for i := range after.Loads {
		if after.Loads[i] != before.Loads[i] {
			t.Error("warehouse load changed while paused")
		}
	}
}

func TestFeedEngine_PauseResumeIdempotent(t *testing.T) {
	e := newTestEngine(7, DefaultFeedConfig(), nil)

	if e.Resume() {
		t.Error("Resume() on a running feed should return false")
	}
	if !e.Pause() {
		t.Error("first Pause() should return true")
	}
	if e.Pause() {
		t.Error("second Pause() should return false")
	}
	if !e.Resume() {
		t.Error("Resume() on a paused feed should return true")
	}
	if e.State() != FeedRunning {
		t.Errorf("State = %s, want running", e.State())
	}
}

func TestFeedEngine_Toggle(t *testing.T) {
	e := newTestEngine(8, DefaultFeedConfig(), nil)
	if got, changed := e.Toggle(); got != FeedPaused || !changed {
		t.Errorf("first toggle = %s (changed %v), want paused", got, changed)
	}
	if got, changed := e.Toggle(); got != FeedRunning || !changed {
		t.Errorf("second toggle = %s (changed %v), want running", got, changed)
	}
}

func TestFeedEngine_ToggleAfterStop(t *testing.T) {
	e := newTestEngine(8, DefaultFeedConfig(), nil)
	e.Pause()
	e.Stop()
	if got, changed := e.Toggle(); got != FeedPaused || changed {
		t.Errorf("toggle after Stop = %s (changed %v), want paused and unchanged", got, changed)
	}
}

func TestFeedEngine_ConcurrentTogglesPair(t *testing.T) {
	e := newTestEngine(8, fastConfig(), nil)
	e.Start(context.Background())
	defer e.Stop()

	const toggles = 50
	var wg sync.WaitGroup
	var transitions atomic.Int32
	for i := 0; i < toggles; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, changed := e.Toggle(); changed {
				transitions.Add(1)
			}
		}()
	}
	wg.Wait()

	if transitions.Load() != toggles {
		t.Errorf("%d of %d toggles changed the state", transitions.Load(), toggles)
	}
	if e.State() != FeedRunning {
		t.Fatalf("State = %s after an even number of toggles, want running", e.State())
	}
	waitFor(t, e.Ticking)
}

func TestFeedEngine_VersionAdvancesOnChange(t *testing.T) {
	e := newTestEngine(8, DefaultFeedConfig(), nil)
	v0 := e.Snapshot().Version
	if e.Snapshot().Version != v0 {
		t.Fatal("reading a snapshot changed the version")
	}

	e.tick()
	v1 := e.Snapshot().Version
	if v1 <= v0 {
		t.Fatalf("version after tick = %d, want > %d", v1, v0)
	}

	e.Pause()
	v2 := e.Snapshot().Version
	e.tick()
	e.tickLoads()
	e.tickBatch()
	if got := e.Snapshot().Version; got != v2 || v2 <= v1 {
		t.Fatalf("versions: pause %d, paused ticks %d, before %d", v2, got, v1)
	}
}

func TestFeedEngine_QueueDepthClamped(t *testing.T) {
	cfg := DefaultFeedConfig()
	cfg.InitialQueueDepth = 0
	e := newTestEngine(9, cfg, nil)
	for i := 0; i < 1000; i++ {
		e.tick()
		d := e.Snapshot().QueueDepth
		if d < MinQueueDepth || d > MaxQueueDepth {
			t.Fatalf("queue depth %d out of bounds after %d ticks", d, i+1)
		}
	}
}

func TestFeedEngine_InitialQueueDepthClamped(t *testing.T) {
	cfg := DefaultFeedConfig()
	cfg.InitialQueueDepth = 500
	e := newTestEngine(9, cfg, nil)
	if d := e.Snapshot().QueueDepth; d != MaxQueueDepth {
		t.Errorf("QueueDepth = %d, want %d", d, MaxQueueDepth)
	}
}

func TestFeedEngine_LoadsClamped(t *testing.T) {
	e := newTestEngine(10, DefaultFeedConfig(), nil)
	for i := 0; i < 1000; i++ {
		e.tickLoads()
		for _, l := range e.Snapshot().Loads {
			if l.Load < MinLoad || l.Load > MaxLoad {
				t.Fatalf("load %v out of bounds", l.Load)
			}
		}
	}
}

func TestFeedEngine_LoadTickReplacesSlice(t *testing.T) {
	e := newTestEngine(11, DefaultFeedConfig(), nil)
	before := e.Snapshot()
	first := before.Loads[0].Load
	e.tickLoads()
	if before.Loads[0].Load != first {
		t.Fatal("earlier snapshot was mutated by a later tick")
	}
}

func TestFeedEngine_BatchProgressCapsAt100(t *testing.T) {
	e := newTestEngine(12, DefaultFeedConfig(), nil)
	prev := e.Snapshot().Batch.Progress
	for i := 0; i < 500; i++ {
		e.tickBatch()
		p := e.Snapshot().Batch.Progress
		if p < prev {
			t.Fatalf("progress went backwards: %v -> %v", prev, p)
		}
		if p-prev > 3 {
			t.Fatalf("progress step %v exceeds 3", p-prev)
		}
		prev = p
	}
	if prev != MaxProgress {
		t.Fatalf("progress = %v after 500 ticks, want 100", prev)
	}
	if e.tickBatch() {
		t.Error("tickBatch should report no change once complete")
	}
}

func TestFeedEngine_BackfillAndClear(t *testing.T) {
	e := newTestEngine(13, DefaultFeedConfig(), nil)
	e.Backfill(8)

	s := e.Snapshot()
	if len(s.Events) != 8 || len(s.Movements) != 8 {
		t.Fatalf("after backfill: %d events, %d movements, want 8 each", len(s.Events), len(s.Movements))
	}

	e.Clear()
	s = e.Snapshot()
	if len(s.Events) != 0 || len(s.Movements) != 0 {
		t.Fatalf("after clear: %d events, %d movements", len(s.Events), len(s.Movements))
	}
}

func TestFeedEngine_BackfillRespectsCapacity(t *testing.T) {
	e := newTestEngine(14, DefaultFeedConfig(), nil)
	e.Backfill(50)
	if got := len(e.Snapshot().Events); got != 20 {
		t.Fatalf("events = %d, want 20", got)
	}
}

func TestFeedEngine_NoOrdersStillTicks(t *testing.T) {
	f := fixture.Static()
	e := NewFeedEngine(DefaultFeedConfig(), nil, f.Catalog, f.Warehouses, rand.New(rand.NewPCG(1, 1)), nil, discardLogger())
	if !e.tick() {
		t.Fatal("tick should still walk the queue depth without orders")
	}
	if got := len(e.Snapshot().Events); got != 0 {
		t.Fatalf("events = %d, want 0 without orders", got)
	}
}

func TestFeedEngine_SameSeedSameFeed(t *testing.T) {
	a := newTestEngine(42, DefaultFeedConfig(), nil)
	b := newTestEngine(42, DefaultFeedConfig(), nil)
	for i := 0; i < 30; i++ {
		a.tick()
		b.tick()
		a.tickLoads()
		b.tickLoads()
	}
	sa, sb := a.Snapshot(), b.Snapshot()
	if len(sa.Events) != len(sb.Events) {
		t.Fatal("event counts differ")
	}
	for i := range sa.Events {
		if sa.Events[i] != sb.Events[i] {
			t.Fatalf("event %d differs: %+v vs %+v", i, sa.Events[i], sb.Events[i])
		}
	}
	if sa.QueueDepth != sb.QueueDepth {
		t.Error("queue depths differ")
	}
	for i := range sa.Loads {
		if sa.Loads[i] != sb.Loads[i] {
			t.Error("loads differ")
		}
	}
}

func TestFeedEngine_PublishesOnChange(t *testing.T) {
	pub := &recordingPublisher{}
	e := newTestEngine(15, DefaultFeedConfig(), pub)

	e.tick()
	e.tickLoads()
	e.tickBatch()
	e.Pause()
	e.tick() // paused: no publish
	e.Resume()
	e.Clear()

	if got := pub.count(); got != 6 {
		t.Fatalf("published %d snapshots, want 6", got)
	}
}

func fastConfig() FeedConfig {
	cfg := DefaultFeedConfig()
	cfg.FeedInterval = time.Millisecond
	cfg.LoadInterval = time.Millisecond
	cfg.BatchInterval = time.Millisecond
	return cfg
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not met within 2s")
}

func TestFeedEngine_StartTicks(t *testing.T) {
	e := newTestEngine(16, fastConfig(), nil)
	e.Start(context.Background())
	defer e.Stop()

	waitFor(t, func() bool { return len(e.Snapshot().Events) > 0 })
	if !e.Ticking() {
		t.Error("expected timer goroutine to be live")
	}
}

func TestFeedEngine_PauseStopsTimers(t *testing.T) {
	e := newTestEngine(17, fastConfig(), nil)
	e.Start(context.Background())
	defer e.Stop()

	waitFor(t, func() bool { return len(e.Snapshot().Events) > 0 })
	e.Pause()
	if e.Ticking() {
		t.Fatal("timer goroutine still live after Pause")
	}

	before := e.Snapshot()
	time.Sleep(20 * time.Millisecond)
	after := e.Snapshot()
	if len(after.Events) != len(before.Events) || after.QueueDepth != before.QueueDepth {
		t.Fatal("state changed while paused")
	}

	e.Resume()
	if !e.Ticking() {
		t.Fatal("timer goroutine not restarted by Resume")
	}
}

func TestFeedEngine_StopIsFinal(t *testing.T) {
	e := newTestEngine(18, fastConfig(), nil)
	e.Start(context.Background())
	e.Stop()

	if e.Ticking() {
		t.Fatal("timer goroutine still live after Stop")
	}
	e.Stop() // idempotent
	e.Start(context.Background())
	if e.Ticking() {
		t.Fatal("Start after Stop should not restart timers")
	}
	e.Pause()
	if e.Resume() {
		t.Fatal("Resume after Stop should return false")
	}
}

func TestFeedEngine_StartTwiceSingleLoop(t *testing.T) {
	e := newTestEngine(19, fastConfig(), nil)
	ctx := context.Background()
	e.Start(ctx)
	first := e.done
	e.Start(ctx)
	if e.done != first {
		t.Fatal("second Start launched another loop")
	}
	e.Stop()
}

func TestFeedEngine_ContextCancelEndsLoop(t *testing.T) {
	e := newTestEngine(20, fastConfig(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	e.Start(ctx)
	cancel()

	waitFor(t, func() bool { return !e.Ticking() })
	e.Stop()
}

func TestBatch_EstimatedCompletion(t *testing.T) {
	start := testNow
	b := Batch{Progress: 50, StartedAt: start}

	eta, ok := b.EstimatedCompletion(start.Add(10 * time.Minute))
	if !ok {
		t.Fatal("expected an estimate at 50%")
	}
	if want := start.Add(20 * time.Minute); !eta.Equal(want) {
		t.Errorf("eta = %v, want %v", eta, want)
	}
}

func TestBatch_EstimatedCompletion_ZeroProgress(t *testing.T) {
	b := Batch{Progress: 0, StartedAt: testNow}
	if _, ok := b.EstimatedCompletion(testNow.Add(time.Minute)); ok {
		t.Fatal("expected unknown estimate at 0%")
	}
}

func TestSnapshot_EstimateNilAtZeroProgress(t *testing.T) {
	cfg := DefaultFeedConfig()
	cfg.InitialProgress = 0
	e := newTestEngine(21, cfg, nil)
	if e.Snapshot().EstimatedCompletion != nil {
		t.Fatal("expected nil estimate at 0% progress")
	}
}

func TestPrependBounded(t *testing.T) {
	list := []int{3, 2, 1}
	got := prependBounded(list, 4, 3)
	if len(got) != 3 || got[0] != 4 || got[1] != 3 || got[2] != 2 {
		t.Fatalf("got %v, want [4 3 2]", got)
	}
	if list[0] != 3 || len(list) != 3 {
		t.Fatal("source list was modified")
	}
	if got := prependBounded([]int(nil), 1, 20); len(got) != 1 {
		t.Fatalf("prepend to nil: %v", got)
	}
}
