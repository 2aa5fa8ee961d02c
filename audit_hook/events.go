package audithook

// Audit event actions. Each constant corresponds to one ext lifecycle hook
// and becomes the Action field of the audit event.
const (
	ActionJobEnqueued   = "job.enqueued"
	ActionJobStarted    = "job.started"
	ActionJobCompleted  = "job.completed"
	ActionJobFailed     = "job.failed"
	ActionJobRetrying   = "job.retrying"
	ActionBufferFlushed = "buffer.flushed"
)

// Audit event categories group related actions.
const (
	CategoryJob    = "ecomentor.job"
	CategoryBuffer = "ecomentor.buffer"
)

// Resource types used as the Resource field in audit events.
const (
	ResourceJob    = "job"
	ResourceBuffer = "buffer"
)

// AllActions returns every action this extension can emit.
func AllActions() []string {
	return []string{
		ActionJobEnqueued,
		ActionJobStarted,
		ActionJobCompleted,
		ActionJobFailed,
		ActionJobRetrying,
		ActionBufferFlushed,
	}
}
