package search

import (
	"context"
	"log/slog"

	"github.com/nicholidev/eco-mentor/buffer"
	"github.com/nicholidev/eco-mentor/catalog"
	"github.com/nicholidev/eco-mentor/event"
)

// Subscriber translates catalog domain events into search-index jobs. It is
// the only producer of the jobs the buffers see: every submission goes
// through the buffer registry, so jobs are transparently buffered or
// executed immediately depending on configuration.
type Subscriber struct {
	registry *buffer.Registry
	channels catalog.ChannelService
	logger   *slog.Logger
}

// NewSubscriber creates the event-to-job translator. channels may be nil,
// in which case tax rate events are ignored entirely.
func NewSubscriber(registry *buffer.Registry, channels catalog.ChannelService, logger *slog.Logger) *Subscriber {
	if logger == nil {
		logger = slog.Default()
	}
	return &Subscriber{
		registry: registry,
		channels: channels,
		logger:   logger,
	}
}

// Attach subscribes the translator to the relevant event kinds on the bus.
func (s *Subscriber) Attach(bus *event.Bus) {
	bus.Subscribe(catalog.KindProductModified, s.onProduct)
	bus.Subscribe(catalog.KindVariantModified, s.onVariant)
	bus.Subscribe(catalog.KindCollectionModified, s.onCollection)
	bus.Subscribe(catalog.KindTaxRateModified, s.onTaxRate)
}

func (s *Subscriber) onProduct(ctx context.Context, evt event.Event) {
	e, ok := evt.(catalog.ProductEvent)
	if !ok {
		return
	}
	op := OpUpdateProduct
	if e.Op == catalog.OpDeleted {
		op = OpDeleteProduct
	}
	s.submit(ctx, op, Payload{ProductIDs: []string{e.ProductID}}, e.ChannelID, e.LanguageCode)
}

func (s *Subscriber) onVariant(ctx context.Context, evt event.Event) {
	e, ok := evt.(catalog.VariantEvent)
	if !ok {
		return
	}
	s.submit(ctx, OpUpdateVariants, Payload{VariantIDs: []string{e.VariantID}}, e.ChannelID, e.LanguageCode)
}

func (s *Subscriber) onCollection(ctx context.Context, evt event.Event) {
	e, ok := evt.(catalog.CollectionModificationEvent)
	if !ok {
		return
	}
	// Membership changed: reindex the affected variants and recompute the
	// collection's filters.
	if len(e.VariantIDs) > 0 {
		s.submit(ctx, OpUpdateVariantsByID, Payload{VariantIDs: e.VariantIDs}, e.ChannelID, e.LanguageCode)
	}
	s.submit(ctx, OpApplyCollectionFilters, Payload{CollectionIDs: []string{e.CollectionID}}, e.ChannelID, e.LanguageCode)
}

// onTaxRate triggers a full reindex only when the changed rate belongs to
// the channel's default tax zone. Tax changes there can alter tax-inclusive
// prices across the whole catalog; rates outside the active zone cannot
// affect currently served prices and are ignored.
func (s *Subscriber) onTaxRate(ctx context.Context, evt event.Event) {
	e, ok := evt.(catalog.TaxRateModificationEvent)
	if !ok || s.channels == nil {
		return
	}
	defaultZone, err := s.channels.DefaultTaxZoneID(ctx, e.ChannelID)
	if err != nil {
		s.logger.Error("failed to resolve default tax zone",
			slog.String("channel_id", e.ChannelID),
			slog.String("error", err.Error()),
		)
		return
	}
	if defaultZone == "" || defaultZone != e.ZoneID {
		return
	}
	s.submit(ctx, OpReindex, Payload{}, e.ChannelID, "")
}

func (s *Subscriber) submit(ctx context.Context, op string, p Payload, channelID, languageCode string) {
	j, err := NewJob(op, p, channelID, languageCode)
	if err != nil {
		s.logger.Error("failed to build search index job",
			slog.String("op", op),
			slog.String("error", err.Error()),
		)
		return
	}
	if _, _, err := s.registry.Submit(ctx, j); err != nil {
		s.logger.Error("failed to submit search index job",
			slog.String("op", op),
			slog.String("job_name", j.Name),
			slog.String("error", err.Error()),
		)
	}
}
