package index

import (
	"context"

	ecomentor "github.com/nicholidev/eco-mentor"
	"github.com/nicholidev/eco-mentor/job"
	"github.com/nicholidev/eco-mentor/search"
)

// RegisterHandlers binds the search-index job names to an Indexer and,
// when one is provided, a CollectionUpdater. Workers resolve these
// handlers by job name; the channel middleware restores each job's
// channel and language into the context before the handler runs.
//
// A nil updater leaves apply-collection-filters unregistered, which is
// only safe when no collection events reach the system.
func RegisterHandlers(reg *job.Registry, idx Indexer, updater CollectionUpdater) {
	job.RegisterDefinition(reg, job.NewDefinition(search.OpUpdateProduct,
		func(ctx context.Context, p search.Payload) error {
			return idx.UpdateProducts(ctx, p.ProductIDs)
		},
		job.WithQueue(ecomentor.QueueSearchIndex),
	))

	job.RegisterDefinition(reg, job.NewDefinition(search.OpUpdateVariants,
		func(ctx context.Context, p search.Payload) error {
			return idx.UpdateVariants(ctx, p.VariantIDs)
		},
		job.WithQueue(ecomentor.QueueSearchIndex),
	))

	job.RegisterDefinition(reg, job.NewDefinition(search.OpUpdateVariantsByID,
		func(ctx context.Context, p search.Payload) error {
			return idx.UpdateVariants(ctx, p.VariantIDs)
		},
		job.WithQueue(ecomentor.QueueSearchIndex),
	))

	job.RegisterDefinition(reg, job.NewDefinition(search.OpDeleteProduct,
		func(ctx context.Context, p search.Payload) error {
			return idx.DeleteProduct(ctx, p.ProductIDs)
		},
		job.WithQueue(ecomentor.QueueSearchIndex),
	))

	job.RegisterDefinition(reg, job.NewDefinition(search.OpReindex,
		func(ctx context.Context, _ search.Payload) error {
			return idx.Reindex(ctx)
		},
		job.WithQueue(ecomentor.QueueSearchIndex),
	))

	if updater != nil {
		job.RegisterDefinition(reg, job.NewDefinition(search.OpApplyCollectionFilters,
			func(ctx context.Context, p search.Payload) error {
				return updater.ApplyFilters(ctx, p.CollectionIDs)
			},
			job.WithQueue(ecomentor.QueueSearchIndex),
		))
	}
}
