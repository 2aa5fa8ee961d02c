// Package replay recovers jobs whose retry budget ran out.
//
// Failed jobs stay in the store so the final error, scope, and payload can
// be inspected. A [Service] lists them, re-enqueues one or all of them as
// fresh pending jobs, and purges old ones. Replayed jobs keep the original
// payload and channel scope but get a new ID and a zero retry count; the
// failed original is removed once its replacement is enqueued.
//
//	svc := replay.NewService(st, replay.WithLogger(logger))
//	failed, _ := svc.ListFailed(ctx, job.ListOpts{Limit: 50})
//	replayed, err := svc.Replay(ctx, failed[0].ID)
package replay
