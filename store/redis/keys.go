package redis

const keyPrefix = "ecomentor:"

// jobKey is the hash holding a single job's fields.
func jobKey(id string) string {
	return keyPrefix + "job:" + id
}

// queueKey is the sorted set of runnable job IDs for a queue, scored by
// priority and run-at time.
func queueKey(queue string) string {
	return keyPrefix + "queue:" + queue
}

// jobIDsKey is the set of all known job IDs, used for listing.
func jobIDsKey() string {
	return keyPrefix + "jobs"
}
