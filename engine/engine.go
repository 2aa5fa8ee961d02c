package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	ecomentor "github.com/nicholidev/eco-mentor"
	"github.com/nicholidev/eco-mentor/backoff"
	"github.com/nicholidev/eco-mentor/buffer"
	"github.com/nicholidev/eco-mentor/catalog"
	"github.com/nicholidev/eco-mentor/event"
	"github.com/nicholidev/eco-mentor/ext"
	"github.com/nicholidev/eco-mentor/id"
	"github.com/nicholidev/eco-mentor/index"
	"github.com/nicholidev/eco-mentor/job"
	mw "github.com/nicholidev/eco-mentor/middleware"
	"github.com/nicholidev/eco-mentor/observability"
	"github.com/nicholidev/eco-mentor/queue"
	"github.com/nicholidev/eco-mentor/schedule"
	"github.com/nicholidev/eco-mentor/search"
	"github.com/nicholidev/eco-mentor/store"
	"github.com/nicholidev/eco-mentor/worker"
)

const instrumentationName = "github.com/nicholidev/eco-mentor"

// Engine is the assembled runtime: one worker pool, one buffer registry,
// one event bus, all sharing a job store.
type Engine struct {
	cfg        ecomentor.Config
	store      store.Store
	extensions *ext.Registry
	registry   *job.Registry
	bo         backoff.Strategy
	pool       *worker.Pool
	logger     *slog.Logger

	// Collected by options, applied during Build.
	pendingExts []ext.Extension
	mws         []mw.Middleware

	// Queue subsystem.
	queueConfigs []queue.Config
	queueManager *queue.Manager
	storeQueue   *queue.StoreQueue

	// Search subsystem.
	buffers       *buffer.Registry
	searchService *search.Service
	bus           *event.Bus
	subscriber    *search.Subscriber
	ancestry      search.Ancestry
	channels      catalog.ChannelService
	indexer       index.Indexer
	collections   index.CollectionUpdater

	// Recurring reindex entries, started and stopped with the pool.
	schedules []scheduleEntry
	scheduler *schedule.Scheduler

	// OpenTelemetry providers (optional; nil means use global).
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine's logger.
func WithLogger(l *slog.Logger) Option {
	return func(eng *Engine) {
		if l != nil {
			eng.logger = l
		}
	}
}

// WithConfig replaces the default configuration.
func WithConfig(cfg ecomentor.Config) Option {
	return func(eng *Engine) {
		eng.cfg = cfg
	}
}

// WithExtension registers an extension with the engine.
func WithExtension(e ext.Extension) Option {
	return func(eng *Engine) {
		eng.pendingExts = append(eng.pendingExts, e)
	}
}

// WithMiddleware adds middleware to the end of the engine's chain.
func WithMiddleware(m mw.Middleware) Option {
	return func(eng *Engine) {
		eng.mws = append(eng.mws, m)
	}
}

// WithBackoff sets the retry backoff strategy for the engine.
// If not set, backoff.DefaultStrategy() (exponential with jitter) is used.
func WithBackoff(b backoff.Strategy) Option {
	return func(eng *Engine) {
		eng.bo = b
	}
}

// WithQueueConfig registers queue-level rate limiting and concurrency
// configurations. Queues not listed have no limits.
func WithQueueConfig(configs ...queue.Config) Option {
	return func(eng *Engine) {
		eng.queueConfigs = append(eng.queueConfigs, configs...)
	}
}

// WithAncestry provides the collection ancestry resolver used to order
// buffered collection filter jobs parents-first. Without it, buffered
// collection jobs keep arrival order.
func WithAncestry(a search.Ancestry) Option {
	return func(eng *Engine) {
		eng.ancestry = a
	}
}

// WithChannelService provides channel metadata for tax-rate event
// handling. Without it, tax-rate events are ignored.
func WithChannelService(cs catalog.ChannelService) Option {
	return func(eng *Engine) {
		eng.channels = cs
	}
}

// WithIndexer registers the search-index job handlers bound to idx.
// Without it, the engine can accept and buffer index jobs but no worker
// will be able to execute them.
func WithIndexer(idx index.Indexer) Option {
	return func(eng *Engine) {
		eng.indexer = idx
	}
}

// WithCollectionUpdater provides the collection membership recomputer
// executed by apply-collection-filters jobs.
func WithCollectionUpdater(cu index.CollectionUpdater) Option {
	return func(eng *Engine) {
		eng.collections = cu
	}
}

// WithTracerProvider sets a custom OTel TracerProvider for the engine.
// If not set, the global otel.GetTracerProvider() is used.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(eng *Engine) {
		eng.tracerProvider = tp
	}
}

// WithMeterProvider sets a custom OTel MeterProvider for the engine.
// If not set, the global otel.GetMeterProvider() is used.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(eng *Engine) {
		eng.meterProvider = mp
	}
}

type scheduleEntry struct {
	name         string
	spec         string
	channelID    string
	languageCode string
}

// WithReindexSchedule adds a recurring full reindex of the given channel on
// the cron expression spec. An empty language code covers every language on
// the channel. The schedule starts with Start and stops with Stop.
func WithReindexSchedule(name, spec, channelID, languageCode string) Option {
	return func(eng *Engine) {
		eng.schedules = append(eng.schedules, scheduleEntry{
			name:         name,
			spec:         spec,
			channelID:    channelID,
			languageCode: languageCode,
		})
	}
}

// Build assembles an Engine on top of a store.
func Build(st store.Store, opts ...Option) (*Engine, error) {
	if st == nil {
		return nil, ecomentor.ErrNoStore
	}

	eng := &Engine{
		cfg:    ecomentor.DefaultConfig(),
		store:  st,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.bo == nil {
		eng.bo = backoff.DefaultStrategy()
	}

	eng.extensions = ext.NewRegistry(eng.logger)
	if eng.meterProvider != nil {
		eng.extensions.Register(observability.NewMetricsExtensionWithMeter(
			eng.meterProvider.Meter(instrumentationName)))
	} else {
		eng.extensions.Register(observability.NewMetricsExtension())
	}
	for _, e := range eng.pendingExts {
		eng.extensions.Register(e)
	}
	eng.pendingExts = nil

	eng.registry = job.NewRegistry()
	if eng.indexer != nil {
		index.RegisterHandlers(eng.registry, eng.indexer, eng.collections)
	}

	// Queue: submissions go straight to the store; WatchJob gives the
	// search service its completion waits.
	eng.storeQueue = queue.NewStoreQueue(st, eng.extensions, eng.logger)

	if len(eng.schedules) > 0 {
		eng.scheduler = schedule.NewScheduler(eng.storeQueue, schedule.WithLogger(eng.logger))
		for _, se := range eng.schedules {
			err := eng.scheduler.Add(se.name, se.spec, schedule.ReindexEntry(se.channelID, se.languageCode))
			if err != nil {
				return nil, fmt.Errorf("engine: %w", err)
			}
		}
	}

	// Search: buffers intercept index job submissions when buffering is
	// on; the subscriber translates catalog events into submissions.
	eng.buffers = buffer.NewRegistry(eng.storeQueue, eng.logger, buffer.WithObserver(eng.extensions))
	eng.searchService = search.NewService(eng.cfg, eng.buffers, eng.storeQueue, eng.ancestry, eng.logger)
	eng.bus = event.NewBus(eng.logger)
	eng.subscriber = search.NewSubscriber(eng.buffers, eng.channels, eng.logger)
	eng.subscriber.Attach(eng.bus)

	// Build tracing middleware (custom provider or global).
	var tracingMw mw.Middleware
	if eng.tracerProvider != nil {
		tracingMw = mw.TracingWithTracer(eng.tracerProvider.Tracer(instrumentationName))
	} else {
		tracingMw = mw.Tracing()
	}

	// Build metrics middleware (custom provider or global).
	var metricsMw mw.Middleware
	if eng.meterProvider != nil {
		metricsMw = mw.MetricsWithMeter(eng.meterProvider.Meter(instrumentationName))
	} else {
		metricsMw = mw.Metrics()
	}

	// Default stack: recover → tracing → metrics → logging → channel → timeout.
	defaultMws := []mw.Middleware{
		mw.Recover(eng.logger),
		tracingMw,
		metricsMw,
		mw.Logging(eng.logger),
		mw.Channel(),
		mw.Timeout(),
	}
	allMws := make([]mw.Middleware, 0, len(defaultMws)+len(eng.mws))
	allMws = append(allMws, defaultMws...)
	allMws = append(allMws, eng.mws...)

	executor := worker.NewExecutor(eng.registry, eng.extensions, st, eng.bo, eng.logger, allMws...)

	poolOpts := []worker.PoolOption{
		worker.WithPoolConcurrency(eng.cfg.Concurrency),
		worker.WithPoolQueues(eng.cfg.Queues),
		worker.WithPollInterval(eng.cfg.PollJobsInterval),
	}
	if len(eng.queueConfigs) > 0 {
		eng.queueManager = queue.NewManager(eng.queueConfigs...)
		poolOpts = append(poolOpts, worker.WithQueueManager(eng.queueManager))
	}

	eng.pool = worker.NewPool(st, executor, eng.extensions, eng.logger, poolOpts...)

	return eng, nil
}

// Start begins job processing.
func (eng *Engine) Start(ctx context.Context) error {
	if err := eng.store.Ping(ctx); err != nil {
		return fmt.Errorf("engine start: %w", err)
	}
	if eng.scheduler != nil {
		eng.scheduler.Start()
	}
	return eng.pool.Start(ctx)
}

// Stop gracefully shuts down the engine: the worker pool drains within
// the configured shutdown timeout, then extensions observe Shutdown.
func (eng *Engine) Stop(ctx context.Context) error {
	if _, ok := ctx.Deadline(); !ok && eng.cfg.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, eng.cfg.ShutdownTimeout)
		defer cancel()
	}

	// Stop the scheduler first so shutdown does not race new submissions.
	if eng.scheduler != nil {
		_ = eng.scheduler.Stop(ctx) //nolint:errcheck
	}
	err := eng.pool.Stop(ctx)
	eng.extensions.EmitShutdown(ctx)
	return err
}

// Publish delivers a catalog event to all subscribers synchronously.
func (eng *Engine) Publish(ctx context.Context, evt event.Event) {
	eng.bus.Publish(ctx, evt)
}

// Register registers a typed job definition with the engine.
func Register[T any](eng *Engine, def *job.Definition[T]) {
	job.RegisterDefinition(eng.registry, def)
}

// Enqueue creates and enqueues a job, bypassing any buffers.
func Enqueue[T any](ctx context.Context, eng *Engine, name string, payload T, opts ...job.Option) (*job.Job, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload for job %q: %w", name, err)
	}
	return eng.EnqueueRaw(ctx, name, data, opts...)
}

// EnqueueRaw enqueues a job with a pre-serialized payload, bypassing any
// buffers. The job's channel scope comes from the options, falling back
// to whatever scope the context carries.
func (eng *Engine) EnqueueRaw(ctx context.Context, name string, payload []byte, opts ...job.Option) (*job.Job, error) {
	jobOpts := job.DefaultOptions()
	for _, opt := range opts {
		opt(&jobOpts)
	}
	if jobOpts.ChannelID == "" {
		jobOpts.ChannelID = mw.ChannelFromContext(ctx)
	}
	if jobOpts.LanguageCode == "" {
		jobOpts.LanguageCode = mw.LanguageFromContext(ctx)
	}

	j := &job.Job{
		Entity:       ecomentor.NewEntity(),
		ID:           id.NewJobID(),
		Name:         name,
		Payload:      payload,
		State:        job.StatePending,
		Queue:        jobOpts.Queue,
		Priority:     jobOpts.Priority,
		MaxRetries:   jobOpts.MaxRetries,
		Timeout:      jobOpts.Timeout,
		ChannelID:    jobOpts.ChannelID,
		LanguageCode: jobOpts.LanguageCode,
		RunAt:        time.Now().UTC(),
	}
	if !jobOpts.RunAt.IsZero() {
		j.RunAt = jobOpts.RunAt
	}

	return eng.storeQueue.Submit(ctx, j)
}

// Extensions returns the extension registry.
func (eng *Engine) Extensions() *ext.Registry { return eng.extensions }

// Registry returns the job registry.
func (eng *Engine) Registry() *job.Registry { return eng.registry }

// Store returns the backing store.
func (eng *Engine) Store() store.Store { return eng.store }

// Queue returns the store-backed execution queue.
func (eng *Engine) Queue() *queue.StoreQueue { return eng.storeQueue }

// Buffers returns the buffer registry.
func (eng *Engine) Buffers() *buffer.Registry { return eng.buffers }

// SearchService returns the buffered search update orchestrator.
func (eng *Engine) SearchService() *search.Service { return eng.searchService }

// EventBus returns the catalog event bus.
func (eng *Engine) EventBus() *event.Bus { return eng.bus }

// QueueManager returns the queue manager, or nil if no queue configs
// were provided.
func (eng *Engine) QueueManager() *queue.Manager { return eng.queueManager }
