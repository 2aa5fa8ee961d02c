// Package redis provides a Redis-backed job store.
//
// Jobs are stored as hashes keyed by job ID, with one sorted set per
// queue ordering runnable jobs by priority and run-at time. The store
// works against a single node or a cluster client; anything that
// satisfies redis.Cmdable will do.
//
// Usage:
//
//	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	st := redisstore.New(client)
//	eng, err := engine.Build(st)
package redis
