// Package ecomentor provides the background-processing core of the
// eco-mentor commerce platform: a job queue with pluggable stores, an
// in-process domain event bus, and a buffered search-index sync pipeline
// that keeps the product search index consistent with catalog, collection,
// and tax-rate mutations.
//
// The central idea is the job buffer: instead of enqueueing one index
// update per catalog write, submissions are intercepted by named buffers,
// held in memory, and periodically collapsed into a minimal set of batch
// jobs before they reach the execution queue.
//
// # Quick Start
//
//	eng, err := engine.Build(memory.New(),
//	    engine.WithConfig(ecomentor.DefaultConfig()),
//	    engine.WithIndexer(es),
//	)
//	err = eng.Start(ctx)
//
// # Architecture
//
// ecomentor follows a composable store pattern: the job subsystem defines
// its own store interface and a single backend (memory, redis, bun/postgres)
// implements it together with the lifecycle operations. The engine package
// sits above all subsystem packages and wires them together.
//
// All entity IDs use TypeID — type-prefixed, K-sortable, UUIDv7-based,
// compile-time safe identifiers.
package ecomentor
