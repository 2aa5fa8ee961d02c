// Package engine wires all subsystems together: the extension registry,
// job registry, middleware chain, buffer registry, search service, event
// bus, and worker pool.
//
// This package exists to break the import cycle: the root ecomentor
// package defines Entity and Config (imported by job, search, and the
// stores) and so cannot import those packages back. The engine package
// sits above all subsystem packages and below the application layer.
//
// Typical setup:
//
//	st := memory.New()
//	eng, err := engine.Build(st,
//	    engine.WithAncestry(collections),
//	    engine.WithChannelService(channels),
//	    engine.WithIndexer(idx),
//	)
//	if err != nil { ... }
//	eng.Start(ctx)
//	defer eng.Stop(context.Background())
//
//	eng.Publish(ctx, catalog.ProductEvent{ProductID: "prod-1", Op: catalog.OpUpdated})
package engine
