// Package index executes search-index update jobs against a backing
// search engine.
//
// The Indexer and CollectionUpdater interfaces are the write surface of
// the search index; Elastic implements Indexer on Elasticsearch using
// the bulk API. RegisterHandlers binds both to the job registry so a
// worker pool can execute the jobs the search service emits.
package index
