package search

import (
	"context"
	"fmt"
	"sort"

	ecomentor "github.com/nicholidev/eco-mentor"
	"github.com/nicholidev/eco-mentor/buffer"
	"github.com/nicholidev/eco-mentor/job"
)

// Compile-time interface checks.
var (
	_ buffer.Buffer = (*UpdateIndexBuffer)(nil)
	_ buffer.Buffer = (*CollectionFilterBuffer)(nil)
)

// scope partitions index work: jobs for different channels or languages
// touch disjoint documents and are never merged.
type scope struct {
	channel  string
	language string
}

// UpdateIndexBuffer intercepts entity-scoped index update jobs. Its Collect
// collapses per-entity updates into one job per (op, channel, language),
// deduplicating entity ids while preserving first-arrival order. A reindex
// job supersedes every narrower op in its scope; a reindex with an empty
// language code covers the whole channel.
type UpdateIndexBuffer struct {
	buffer.Batch
}

// NewUpdateIndexBuffer creates the index update buffer.
func NewUpdateIndexBuffer() *UpdateIndexBuffer {
	return &UpdateIndexBuffer{}
}

func (b *UpdateIndexBuffer) ID() string { return BufferIndexUpdates }

// Accepts claims every search-index job except collection filter
// recomputation, which belongs to CollectionFilterBuffer.
func (b *UpdateIndexBuffer) Accepts(j *job.Job) bool {
	if j.Queue != ecomentor.QueueSearchIndex {
		return false
	}
	switch j.Name {
	case OpUpdateProduct, OpUpdateVariants, OpUpdateVariantsByID, OpDeleteProduct, OpReindex:
		return true
	}
	return false
}

// group accumulates deduplicated entity ids for one (op, scope) pair.
type group struct {
	productIDs   []string
	variantIDs   []string
	seenProducts map[string]bool
	seenVariants map[string]bool
}

func (g *group) addProducts(ids []string) {
	for _, pid := range ids {
		if !g.seenProducts[pid] {
			g.seenProducts[pid] = true
			g.productIDs = append(g.productIDs, pid)
		}
	}
}

func (g *group) addVariants(ids []string) {
	for _, vid := range ids {
		if !g.seenVariants[vid] {
			g.seenVariants[vid] = true
			g.variantIDs = append(g.variantIDs, vid)
		}
	}
}

// Collect is a pure reduction of the drained batch: the same input always
// collapses to an equivalent job set. The input jobs are not mutated.
func (b *UpdateIndexBuffer) Collect(_ context.Context, batch []*job.Job) ([]*job.Job, error) {
	// A reindex rebuilds the whole index for its scope, so nothing narrower
	// in the same scope needs to survive the reduction. A reindex with an
	// empty language code rebuilds every language on the channel and covers
	// language-scoped jobs, reindexes included.
	reindexed := make(map[scope]bool)
	channelReindexed := make(map[string]bool)
	for _, j := range batch {
		if j.Name == OpReindex {
			reindexed[scope{j.ChannelID, j.LanguageCode}] = true
			if j.LanguageCode == "" {
				channelReindexed[j.ChannelID] = true
			}
		}
	}
	superseded := func(j *job.Job) bool {
		if j.Name == OpReindex {
			return j.LanguageCode != "" && channelReindexed[j.ChannelID]
		}
		return reindexed[scope{j.ChannelID, j.LanguageCode}] || channelReindexed[j.ChannelID]
	}

	type key struct {
		op string
		sc scope
	}
	groups := make(map[key]*group)
	var order []key

	for _, j := range batch {
		sc := scope{j.ChannelID, j.LanguageCode}
		if superseded(j) {
			continue
		}

		k := key{j.Name, sc}
		g, ok := groups[k]
		if !ok {
			g = &group{
				seenProducts: make(map[string]bool),
				seenVariants: make(map[string]bool),
			}
			groups[k] = g
			order = append(order, k)
		}

		if j.Name == OpReindex {
			continue // one reindex per scope, no ids to merge
		}

		p, err := DecodePayload(j)
		if err != nil {
			return nil, err
		}
		switch j.Name {
		case OpUpdateProduct, OpDeleteProduct:
			g.addProducts(p.ProductIDs)
		case OpUpdateVariants, OpUpdateVariantsByID:
			g.addVariants(p.VariantIDs)
		}
	}

	collected := make([]*job.Job, 0, len(order))
	for _, k := range order {
		g := groups[k]
		out, err := NewJob(k.op, Payload{
			ProductIDs: g.productIDs,
			VariantIDs: g.variantIDs,
		}, k.sc.channel, k.sc.language)
		if err != nil {
			return nil, err
		}
		collected = append(collected, out)
	}
	return collected, nil
}

// Ancestry resolves a collection's depth in the collection tree. Depth 0 is
// a root collection.
type Ancestry interface {
	Depth(ctx context.Context, collectionID string) (int, error)
}

// CollectionFilterBuffer intercepts collection filter recomputation jobs.
// Its Collect emits one job per distinct collection id, ordered
// shallowest-first: a child collection's membership depends on its parent's
// recomputation having completed, so parents must run before children.
type CollectionFilterBuffer struct {
	buffer.Batch

	ancestry Ancestry
}

// NewCollectionFilterBuffer creates the collection filter buffer. ancestry
// may be nil, in which case emitted jobs keep arrival order.
func NewCollectionFilterBuffer(ancestry Ancestry) *CollectionFilterBuffer {
	return &CollectionFilterBuffer{ancestry: ancestry}
}

func (b *CollectionFilterBuffer) ID() string { return BufferCollectionFilters }

func (b *CollectionFilterBuffer) Accepts(j *job.Job) bool {
	return j.Queue == ecomentor.QueueSearchIndex && j.Name == OpApplyCollectionFilters
}

func (b *CollectionFilterBuffer) Collect(ctx context.Context, batch []*job.Job) ([]*job.Job, error) {
	type entry struct {
		collectionID string
		sc           scope
		depth        int
	}
	seen := make(map[string]bool)
	var entries []*entry

	for _, j := range batch {
		p, err := DecodePayload(j)
		if err != nil {
			return nil, err
		}
		for _, cid := range p.CollectionIDs {
			if seen[cid] {
				continue
			}
			seen[cid] = true
			entries = append(entries, &entry{
				collectionID: cid,
				sc:           scope{j.ChannelID, j.LanguageCode},
			})
		}
	}

	if b.ancestry != nil {
		for _, e := range entries {
			depth, err := b.ancestry.Depth(ctx, e.collectionID)
			if err != nil {
				return nil, fmt.Errorf("resolve depth of collection %q: %w", e.collectionID, err)
			}
			e.depth = depth
		}
		// Shallowest first; ties keep arrival order.
		sort.SliceStable(entries, func(i, k int) bool {
			return entries[i].depth < entries[k].depth
		})
	}

	collected := make([]*job.Job, 0, len(entries))
	for _, e := range entries {
		out, err := NewJob(OpApplyCollectionFilters, Payload{
			CollectionIDs: []string{e.collectionID},
		}, e.sc.channel, e.sc.language)
		if err != nil {
			return nil, err
		}
		collected = append(collected, out)
	}
	return collected, nil
}
