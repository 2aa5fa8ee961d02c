package index

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	elasticsearch "github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esutil"

	"github.com/nicholidev/eco-mentor/middleware"
)

const defaultIndexName = "ecomentor-products"

var _ Indexer = (*Elastic)(nil)

// Elastic implements Indexer on Elasticsearch using the bulk API.
// Each document is stored under an ID that encodes the entity ID,
// channel, and language, so the same product carries independent
// content per scope.
type Elastic struct {
	client    *elasticsearch.Client
	source    Source
	indexName string
	logger    *slog.Logger
}

// ElasticOption configures Elastic.
type ElasticOption func(*Elastic)

// WithIndexName sets the Elasticsearch index name.
func WithIndexName(name string) ElasticOption {
	return func(e *Elastic) {
		if name != "" {
			e.indexName = name
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) ElasticOption {
	return func(e *Elastic) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewElastic creates an Elasticsearch-backed Indexer reading documents
// from source.
func NewElastic(client *elasticsearch.Client, source Source, opts ...ElasticOption) *Elastic {
	e := &Elastic{
		client:    client,
		source:    source,
		indexName: defaultIndexName,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// envelope wraps a source document with its scope so scoped queries and
// scoped deletes can filter on channel and language.
type envelope struct {
	ChannelID    string `json:"channel_id"`
	LanguageCode string `json:"language_code"`
	Doc          any    `json:"doc"`
}

// docID builds the storage key for an entity within a scope.
func docID(entityID string, sc Scope) string {
	return entityID + "_" + sc.ChannelID + "_" + sc.LanguageCode
}

// scopeOf reads the call's scope from the context, as restored by the
// channel middleware from the triggering job.
func scopeOf(ctx context.Context) Scope {
	return Scope{
		ChannelID:    middleware.ChannelFromContext(ctx),
		LanguageCode: middleware.LanguageFromContext(ctx),
	}
}

// UpdateProducts writes fresh documents for the given products.
func (e *Elastic) UpdateProducts(ctx context.Context, productIDs []string) error {
	sc := scopeOf(ctx)
	docs, err := e.source.ProductDocuments(ctx, productIDs, sc)
	if err != nil {
		return fmt.Errorf("load product documents: %w", err)
	}
	return e.bulkIndex(ctx, docs, sc)
}

// UpdateVariants writes fresh documents for the given variants.
func (e *Elastic) UpdateVariants(ctx context.Context, variantIDs []string) error {
	sc := scopeOf(ctx)
	docs, err := e.source.VariantDocuments(ctx, variantIDs, sc)
	if err != nil {
		return fmt.Errorf("load variant documents: %w", err)
	}
	return e.bulkIndex(ctx, docs, sc)
}

// DeleteProduct removes the given products' documents from the scope.
func (e *Elastic) DeleteProduct(ctx context.Context, productIDs []string) error {
	sc := scopeOf(ctx)

	bi, err := e.newBulkIndexer()
	if err != nil {
		return err
	}
	for _, pid := range productIDs {
		item := esutil.BulkIndexerItem{
			Action:     "delete",
			DocumentID: docID(pid, sc),
			OnFailure:  e.onItemFailure,
		}
		if addErr := bi.Add(ctx, item); addErr != nil {
			_ = bi.Close(ctx)
			return fmt.Errorf("bulk delete add: %w", addErr)
		}
	}
	return e.closeBulk(ctx, bi)
}

// Reindex drops the scope's slice of the index and rebuilds it from the
// source.
func (e *Elastic) Reindex(ctx context.Context) error {
	sc := scopeOf(ctx)

	if err := e.deleteScope(ctx, sc); err != nil {
		return err
	}

	docs, err := e.source.AllDocuments(ctx, sc)
	if err != nil {
		return fmt.Errorf("load all documents: %w", err)
	}
	return e.bulkIndex(ctx, docs, sc)
}

func (e *Elastic) bulkIndex(ctx context.Context, docs []Document, sc Scope) error {
	if len(docs) == 0 {
		return nil
	}

	bi, err := e.newBulkIndexer()
	if err != nil {
		return err
	}
	for _, doc := range docs {
		env := envelope{
			ChannelID:    sc.ChannelID,
			LanguageCode: sc.LanguageCode,
			Doc:          doc.Body,
		}
		body, marshalErr := json.Marshal(env)
		if marshalErr != nil {
			_ = bi.Close(ctx)
			return fmt.Errorf("bulk index encode: %w", marshalErr)
		}
		item := esutil.BulkIndexerItem{
			Action:     "index",
			DocumentID: docID(doc.ID, sc),
			Body:       bytes.NewReader(body),
			OnFailure:  e.onItemFailure,
		}
		if addErr := bi.Add(ctx, item); addErr != nil {
			_ = bi.Close(ctx)
			return fmt.Errorf("bulk index add: %w", addErr)
		}
	}
	return e.closeBulk(ctx, bi)
}

// deleteScope removes every document belonging to the scope. An empty
// language matches all languages of the channel.
func (e *Elastic) deleteScope(ctx context.Context, sc Scope) error {
	var query string
	if sc.LanguageCode == "" {
		query = fmt.Sprintf(`{"query":{"term":{"channel_id":%q}}}`, sc.ChannelID)
	} else {
		query = fmt.Sprintf(
			`{"query":{"bool":{"filter":[{"term":{"channel_id":%q}},{"term":{"language_code":%q}}]}}}`,
			sc.ChannelID, sc.LanguageCode,
		)
	}

	res, err := e.client.DeleteByQuery(
		[]string{e.indexName},
		strings.NewReader(query),
		e.client.DeleteByQuery.WithContext(ctx),
		e.client.DeleteByQuery.WithRefresh(true),
	)
	if err != nil {
		return fmt.Errorf("delete scope %s/%s: %w", sc.ChannelID, sc.LanguageCode, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		body, _ := io.ReadAll(res.Body) //nolint:errcheck
		return fmt.Errorf("delete scope %s/%s: %s: %s", sc.ChannelID, sc.LanguageCode, res.Status(), body)
	}
	return nil
}

func (e *Elastic) newBulkIndexer() (esutil.BulkIndexer, error) {
	bi, err := esutil.NewBulkIndexer(esutil.BulkIndexerConfig{
		Client: e.client,
		Index:  e.indexName,
	})
	if err != nil {
		return nil, fmt.Errorf("create bulk indexer: %w", err)
	}
	return bi, nil
}

func (e *Elastic) closeBulk(ctx context.Context, bi esutil.BulkIndexer) error {
	if err := bi.Close(ctx); err != nil {
		return fmt.Errorf("flush bulk indexer: %w", err)
	}
	if stats := bi.Stats(); stats.NumFailed > 0 {
		return fmt.Errorf("bulk write: %d of %d items failed", stats.NumFailed, stats.NumAdded)
	}
	return nil
}

func (e *Elastic) onItemFailure(_ context.Context, item esutil.BulkIndexerItem, resp esutil.BulkIndexerResponseItem, err error) {
	if err != nil {
		e.logger.Error("bulk item failed", "doc_id", item.DocumentID, "error", err)
		return
	}
	e.logger.Error("bulk item rejected", "doc_id", item.DocumentID, "type", resp.Error.Type, "reason", resp.Error.Reason)
}
