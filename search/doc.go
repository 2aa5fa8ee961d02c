// Package search keeps the product search index consistent with catalog
// mutations. Domain events are translated into index jobs on the
// search-index queue; when buffering is enabled the jobs are intercepted by
// two buffers and collapsed into a minimal job set at flush time.
//
// The Service orchestrator registers the buffers, reports the pending
// update count, and runs pending updates in dependency order: collection
// filter recomputation completes before index updates that read collection
// membership.
package search
