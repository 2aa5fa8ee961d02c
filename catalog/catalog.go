// Package catalog defines the domain modification events that drive search
// index synchronization, plus the collaborator interfaces the search
// subsystem needs to interpret them.
package catalog

import "context"

// Event kinds published on the bus.
const (
	KindProductModified    = "catalog.product.modified"
	KindVariantModified    = "catalog.variant.modified"
	KindCollectionModified = "catalog.collection.modified"
	KindTaxRateModified    = "catalog.tax_rate.modified"
)

// Op describes what happened to the entity an event refers to.
type Op string

const (
	OpCreated Op = "created"
	OpUpdated Op = "updated"
	OpDeleted Op = "deleted"
)

// ProductEvent is published when a product is created, updated or deleted.
type ProductEvent struct {
	ProductID    string
	Op           Op
	ChannelID    string
	LanguageCode string
}

func (ProductEvent) Kind() string { return KindProductModified }

// VariantEvent is published when a product variant is created, updated or
// deleted.
type VariantEvent struct {
	VariantID    string
	Op           Op
	ChannelID    string
	LanguageCode string
}

func (VariantEvent) Kind() string { return KindVariantModified }

// CollectionModificationEvent is published when a collection's filters or
// membership change. VariantIDs carries the variants whose membership was
// affected by the change.
type CollectionModificationEvent struct {
	CollectionID string
	VariantIDs   []string
	ChannelID    string
	LanguageCode string
}

func (CollectionModificationEvent) Kind() string { return KindCollectionModified }

// TaxRateModificationEvent is published when a tax rate is created, updated
// or deleted. ZoneID identifies the tax zone the rate belongs to.
type TaxRateModificationEvent struct {
	TaxRateID string
	ZoneID    string
	ChannelID string
}

func (TaxRateModificationEvent) Kind() string { return KindTaxRateModified }

// ChannelService resolves per-channel configuration. The search subsystem
// uses it to decide whether a tax rate change can affect served prices: only
// rates in the channel's default tax zone trigger a full reindex.
type ChannelService interface {
	// DefaultTaxZoneID returns the default tax zone for the given sales
	// channel. An empty channel id refers to the default channel.
	DefaultTaxZoneID(ctx context.Context, channelID string) (string, error)
}
