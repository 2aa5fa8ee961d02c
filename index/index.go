package index

import "context"

// Scope identifies the slice of the index a write targets: one sales
// channel in one content language.
type Scope struct {
	ChannelID    string
	LanguageCode string
}

// Document is a single searchable record. ID is the entity's identifier
// within its scope; the storage key also encodes the scope so the same
// entity can carry different content per channel and language.
type Document struct {
	ID   string
	Body any
}

// Source loads the documents to be written. Implementations typically
// hydrate products and variants from the catalog database, already
// priced and translated for the requested scope.
type Source interface {
	// ProductDocuments returns the documents for the given products.
	ProductDocuments(ctx context.Context, productIDs []string, sc Scope) ([]Document, error)

	// VariantDocuments returns the documents for the given variants.
	VariantDocuments(ctx context.Context, variantIDs []string, sc Scope) ([]Document, error)

	// AllDocuments returns every document for the scope. Used by full
	// reindex; implementations should page internally if needed.
	AllDocuments(ctx context.Context, sc Scope) ([]Document, error)
}

// Indexer is the write surface of the search index. The scope of each
// call is carried in the context by the channel middleware, restored
// from the job that triggered it.
type Indexer interface {
	// UpdateProducts writes fresh documents for the given products.
	UpdateProducts(ctx context.Context, productIDs []string) error

	// UpdateVariants writes fresh documents for the given variants.
	UpdateVariants(ctx context.Context, variantIDs []string) error

	// DeleteProduct removes the given products' documents.
	DeleteProduct(ctx context.Context, productIDs []string) error

	// Reindex rebuilds the scope's slice of the index from scratch.
	Reindex(ctx context.Context) error
}

// CollectionUpdater recomputes collection membership. ApplyFilters is
// called once per collection, parents before children, so that a child
// evaluating an inherit-from-parent filter sees fresh parent membership.
type CollectionUpdater interface {
	ApplyFilters(ctx context.Context, collectionIDs []string) error
}
