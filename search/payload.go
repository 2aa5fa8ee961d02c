package search

import (
	"encoding/json"
	"fmt"

	ecomentor "github.com/nicholidev/eco-mentor"
	"github.com/nicholidev/eco-mentor/job"
)

// Buffer identities.
const (
	BufferIndexUpdates      = "search-index-updates"
	BufferCollectionFilters = "search-collection-filters"
)

// Job names on the search-index queue.
const (
	OpUpdateProduct          = "update-product"
	OpUpdateVariants         = "update-variants"
	OpUpdateVariantsByID     = "update-variants-by-id"
	OpDeleteProduct          = "delete-product"
	OpReindex                = "reindex"
	OpApplyCollectionFilters = "apply-collection-filters"
)

// Payload is the JSON body shared by all search-index jobs. Which fields are
// set depends on the job name: product ops carry ProductIDs, variant ops
// VariantIDs, collection filter ops CollectionIDs, and reindex carries none.
type Payload struct {
	ProductIDs    []string `json:"product_ids,omitempty"`
	VariantIDs    []string `json:"variant_ids,omitempty"`
	CollectionIDs []string `json:"collection_ids,omitempty"`
}

// NewJob builds a search-index job descriptor for the given op, scoped to a
// sales channel and content language.
func NewJob(op string, p Payload, channelID, languageCode string) (*job.Job, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal payload for %q: %w", op, err)
	}
	return &job.Job{
		Name:         op,
		Queue:        ecomentor.QueueSearchIndex,
		Payload:      data,
		ChannelID:    channelID,
		LanguageCode: languageCode,
	}, nil
}

// DecodePayload unmarshals a search-index job's payload.
func DecodePayload(j *job.Job) (Payload, error) {
	var p Payload
	if len(j.Payload) == 0 {
		return p, nil
	}
	if err := json.Unmarshal(j.Payload, &p); err != nil {
		return p, fmt.Errorf("decode payload for job %q: %w", j.Name, err)
	}
	return p, nil
}
