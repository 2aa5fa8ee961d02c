// Package audithook bridges job and buffer lifecycle events to an audit
// trail backend. Each ext hook becomes a structured audit event emitted
// through a caller-provided Recorder, so deployments can persist a
// record of every index update without coupling this module to a
// specific audit store.
//
//	eng, _ := engine.Build(st,
//	    engine.WithExtension(audithook.New(recorder,
//	        audithook.WithActions(audithook.ActionJobFailed, audithook.ActionBufferFlushed),
//	    )),
//	)
package audithook
