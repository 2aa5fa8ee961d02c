package engine_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	ecomentor "github.com/nicholidev/eco-mentor"
	"github.com/nicholidev/eco-mentor/catalog"
	"github.com/nicholidev/eco-mentor/engine"
	"github.com/nicholidev/eco-mentor/job"
	"github.com/nicholidev/eco-mentor/middleware"
	"github.com/nicholidev/eco-mentor/search"
	"github.com/nicholidev/eco-mentor/store/memory"
)

// ──────────────────────────────────────────────────
// Fakes
// ──────────────────────────────────────────────────

// recordingIndexer implements index.Indexer and index.CollectionUpdater,
// logging every call in order.
type recordingIndexer struct {
	mu       sync.Mutex
	calls    []string
	products []string
	variants []string
	channels []string
}

func (r *recordingIndexer) record(ctx context.Context, call string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call)
	r.channels = append(r.channels, middleware.ChannelFromContext(ctx))
}

func (r *recordingIndexer) UpdateProducts(ctx context.Context, ids []string) error {
	r.record(ctx, "update-products")
	r.mu.Lock()
	r.products = append(r.products, ids...)
	r.mu.Unlock()
	return nil
}

func (r *recordingIndexer) UpdateVariants(ctx context.Context, ids []string) error {
	r.record(ctx, "update-variants")
	r.mu.Lock()
	r.variants = append(r.variants, ids...)
	r.mu.Unlock()
	return nil
}

func (r *recordingIndexer) DeleteProduct(ctx context.Context, _ []string) error {
	r.record(ctx, "delete-product")
	return nil
}

func (r *recordingIndexer) Reindex(ctx context.Context) error {
	r.record(ctx, "reindex")
	return nil
}

func (r *recordingIndexer) ApplyFilters(ctx context.Context, _ []string) error {
	r.record(ctx, "apply-filters")
	return nil
}

func (r *recordingIndexer) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.calls))
	copy(out, r.calls)
	return out
}

type fakeAncestry struct{ depths map[string]int }

func (f fakeAncestry) Depth(_ context.Context, collectionID string) (int, error) {
	return f.depths[collectionID], nil
}

type fakeChannels struct{ zones map[string]string }

func (f fakeChannels) DefaultTaxZoneID(_ context.Context, channelID string) (string, error) {
	return f.zones[channelID], nil
}

func testConfig() ecomentor.Config {
	cfg := ecomentor.DefaultConfig()
	cfg.PollInterval = 20 * time.Millisecond
	cfg.WaitTimeout = 5 * time.Second
	cfg.PollJobsInterval = 20 * time.Millisecond
	cfg.Concurrency = 2
	cfg.ShutdownTimeout = 3 * time.Second
	return cfg
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for !cond() {
		select {
		case <-deadline:
			t.Fatal(msg)
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
}

// ──────────────────────────────────────────────────
// Build
// ──────────────────────────────────────────────────

func TestBuild_NilStore(t *testing.T) {
	t.Parallel()

	_, err := engine.Build(nil)
	if !errors.Is(err, ecomentor.ErrNoStore) {
		t.Fatalf("expected ErrNoStore, got: %v", err)
	}
}

// ──────────────────────────────────────────────────
// End-to-end: event → buffer → flush → worker → indexer
// ──────────────────────────────────────────────────

func TestEngine_EndToEnd_ProductEventToIndex(t *testing.T) {
	s := memory.New()
	idx := &recordingIndexer{}

	eng, err := engine.Build(s,
		engine.WithConfig(testConfig()),
		engine.WithIndexer(idx),
		engine.WithCollectionUpdater(idx),
		engine.WithChannelService(fakeChannels{}),
	)
	if err != nil {
		t.Fatalf("engine.Build: %v", err)
	}

	ctx := context.Background()
	eng.Publish(ctx, catalog.ProductEvent{
		ProductID:    "prod-1",
		Op:           catalog.OpUpdated,
		ChannelID:    "storefront-eu",
		LanguageCode: "en",
	})

	// Buffered, not yet enqueued.
	pending, err := eng.SearchService().PendingUpdates(ctx)
	if err != nil {
		t.Fatalf("PendingUpdates: %v", err)
	}
	if pending != 1 {
		t.Fatalf("pending = %d, want 1", pending)
	}
	count, err := s.CountJobs(ctx, job.CountOpts{})
	if err != nil {
		t.Fatalf("CountJobs: %v", err)
	}
	if count != 0 {
		t.Fatalf("store has %d jobs before flush, want 0", count)
	}

	if err := eng.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer func() {
		if stopErr := eng.Stop(context.Background()); stopErr != nil {
			t.Errorf("Stop: %v", stopErr)
		}
	}()

	if err := eng.SearchService().RunPendingUpdates(ctx); err != nil {
		t.Fatalf("RunPendingUpdates: %v", err)
	}

	waitFor(t, func() bool {
		return len(idx.snapshot()) > 0
	}, "timed out waiting for indexer call")

	idx.mu.Lock()
	defer idx.mu.Unlock()
	if len(idx.products) != 1 || idx.products[0] != "prod-1" {
		t.Fatalf("products = %v, want [prod-1]", idx.products)
	}
	if idx.channels[0] != "storefront-eu" {
		t.Fatalf("handler channel scope = %q, want storefront-eu", idx.channels[0])
	}
}

func TestEngine_EndToEnd_CollectionFiltersBeforeIndexUpdates(t *testing.T) {
	s := memory.New()
	idx := &recordingIndexer{}

	eng, err := engine.Build(s,
		engine.WithConfig(testConfig()),
		engine.WithIndexer(idx),
		engine.WithCollectionUpdater(idx),
		engine.WithChannelService(fakeChannels{}),
		engine.WithAncestry(fakeAncestry{depths: map[string]int{"col-1": 0}}),
	)
	if err != nil {
		t.Fatalf("engine.Build: %v", err)
	}

	ctx := context.Background()
	if err := eng.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer func() {
		if stopErr := eng.Stop(context.Background()); stopErr != nil {
			t.Errorf("Stop: %v", stopErr)
		}
	}()

	eng.Publish(ctx, catalog.CollectionModificationEvent{
		CollectionID: "col-1",
		VariantIDs:   []string{"var-1", "var-2"},
		ChannelID:    "storefront-eu",
		LanguageCode: "en",
	})

	if err := eng.SearchService().RunPendingUpdates(ctx); err != nil {
		t.Fatalf("RunPendingUpdates: %v", err)
	}

	waitFor(t, func() bool {
		return len(idx.snapshot()) >= 2
	}, "timed out waiting for both jobs")

	calls := idx.snapshot()
	if calls[0] != "apply-filters" {
		t.Fatalf("calls = %v, want apply-filters first", calls)
	}
	if calls[1] != "update-variants" {
		t.Fatalf("calls = %v, want update-variants after apply-filters", calls)
	}
}

func TestEngine_UnbufferedSubmitsImmediately(t *testing.T) {
	s := memory.New()

	cfg := testConfig()
	cfg.BufferUpdates = false

	eng, err := engine.Build(s,
		engine.WithConfig(cfg),
		engine.WithChannelService(fakeChannels{}),
	)
	if err != nil {
		t.Fatalf("engine.Build: %v", err)
	}

	ctx := context.Background()
	eng.Publish(ctx, catalog.ProductEvent{
		ProductID: "prod-1",
		Op:        catalog.OpUpdated,
		ChannelID: "storefront-eu",
	})

	count, err := s.CountJobs(ctx, job.CountOpts{Queue: ecomentor.QueueSearchIndex})
	if err != nil {
		t.Fatalf("CountJobs: %v", err)
	}
	if count != 1 {
		t.Fatalf("store has %d jobs, want 1 (unbuffered submit)", count)
	}

	pending, err := eng.SearchService().PendingUpdates(ctx)
	if err != nil {
		t.Fatalf("PendingUpdates: %v", err)
	}
	if pending != 0 {
		t.Fatalf("pending = %d, want 0 with buffering off", pending)
	}
}

// ──────────────────────────────────────────────────
// Direct enqueue
// ──────────────────────────────────────────────────

func TestEngine_EnqueueRaw_CapturesContextScope(t *testing.T) {
	s := memory.New()
	eng, err := engine.Build(s, engine.WithConfig(testConfig()))
	if err != nil {
		t.Fatalf("engine.Build: %v", err)
	}

	ctx := middleware.ContextWithChannel(context.Background(), "storefront-us", "en")
	j, err := eng.EnqueueRaw(ctx, "nightly-report", []byte(`{}`))
	if err != nil {
		t.Fatalf("EnqueueRaw: %v", err)
	}
	if j.ChannelID != "storefront-us" || j.LanguageCode != "en" {
		t.Fatalf("scope = %q/%q, want storefront-us/en", j.ChannelID, j.LanguageCode)
	}
	if j.Queue != ecomentor.QueueDefault {
		t.Fatalf("queue = %q, want %q", j.Queue, ecomentor.QueueDefault)
	}
	if j.State != job.StatePending {
		t.Fatalf("state = %q, want pending", j.State)
	}
}

func TestEngine_Enqueue_TypedPayloadProcessed(t *testing.T) {
	s := memory.New()
	eng, err := engine.Build(s, engine.WithConfig(testConfig()))
	if err != nil {
		t.Fatalf("engine.Build: %v", err)
	}

	type reportPayload struct {
		Day string `json:"day"`
	}

	var processed atomic.Bool
	var got reportPayload
	engine.Register(eng, job.NewDefinition("nightly-report", func(_ context.Context, p reportPayload) error {
		got = p
		processed.Store(true)
		return nil
	}))

	ctx := context.Background()
	if _, err := engine.Enqueue(ctx, eng, "nightly-report", reportPayload{Day: "2026-08-31"}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	if err := eng.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer func() {
		if stopErr := eng.Stop(context.Background()); stopErr != nil {
			t.Errorf("Stop: %v", stopErr)
		}
	}()

	waitFor(t, processed.Load, "timed out waiting for job")
	if got.Day != "2026-08-31" {
		t.Fatalf("payload day = %q", got.Day)
	}
}

// ──────────────────────────────────────────────────
// Shutdown
// ──────────────────────────────────────────────────

type shutdownExt struct {
	fired atomic.Bool
}

func (s *shutdownExt) Name() string { return "shutdown-probe" }

func (s *shutdownExt) OnShutdown(_ context.Context) error {
	s.fired.Store(true)
	return nil
}

func TestEngine_StopEmitsShutdown(t *testing.T) {
	s := memory.New()
	probe := &shutdownExt{}

	eng, err := engine.Build(s,
		engine.WithConfig(testConfig()),
		engine.WithExtension(probe),
	)
	if err != nil {
		t.Fatalf("engine.Build: %v", err)
	}

	ctx := context.Background()
	if err := eng.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := eng.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if !probe.fired.Load() {
		t.Fatal("shutdown hook not fired")
	}
}

// Keep the search package import honest: flushing by hand through the
// service must drain the same buffers the subscriber fills.
func TestEngine_PendingAcrossBothBuffers(t *testing.T) {
	s := memory.New()
	eng, err := engine.Build(s,
		engine.WithConfig(testConfig()),
		engine.WithChannelService(fakeChannels{}),
	)
	if err != nil {
		t.Fatalf("engine.Build: %v", err)
	}

	ctx := context.Background()
	eng.Publish(ctx, catalog.CollectionModificationEvent{
		CollectionID: "col-1",
		VariantIDs:   []string{"var-1"},
		ChannelID:    "storefront-eu",
		LanguageCode: "en",
	})

	pending, err := eng.SearchService().PendingUpdates(ctx)
	if err != nil {
		t.Fatalf("PendingUpdates: %v", err)
	}
	// One buffered collection filter job plus one buffered variant update.
	if pending != 2 {
		t.Fatalf("pending = %d, want 2", pending)
	}

	sizes := eng.Buffers().Sizes(search.BufferCollectionFilters, search.BufferIndexUpdates)
	if sizes[search.BufferCollectionFilters] != 1 || sizes[search.BufferIndexUpdates] != 1 {
		t.Fatalf("sizes = %v", sizes)
	}
}
