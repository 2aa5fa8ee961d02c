// Package schedule runs recurring jobs on cron expressions.
//
// A [Scheduler] holds named entries, each pairing a cron spec with a
// builder that produces a fresh job descriptor on every tick. Fired jobs
// go through a [queue.Submitter], so they pass the same enqueue path as
// event-driven jobs and show up in extension hooks.
//
// The canonical use is a nightly full reindex per sales channel:
//
//	s := schedule.NewScheduler(q, schedule.WithLogger(logger))
//	err := s.Add("nightly-reindex-eu", "0 3 * * *",
//		schedule.ReindexEntry("storefront-eu", ""))
//	s.Start()
//	defer s.Stop(ctx)
//
// Specs support the standard 5-field cron format and descriptors such as
// "@every 30m". The scheduler is in-process: when running multiple
// replicas, enable it on one.
package schedule
