package redis

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	ecomentor "github.com/nicholidev/eco-mentor"
	"github.com/nicholidev/eco-mentor/id"
	"github.com/nicholidev/eco-mentor/job"
)

// jobScore orders a queue's sorted set: higher priority pops first, and
// within a priority earlier run-at times pop first. The run-at component
// is scaled down so it never outweighs a priority step.
func jobScore(priority int, runAt time.Time) float64 {
	return float64(-priority) + float64(runAt.UnixMilli())/1e15
}

// EnqueueJob persists a new job and makes it visible to dequeuers.
func (s *Store) EnqueueJob(ctx context.Context, j *job.Job) error {
	key := jobKey(j.ID.String())

	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("ecomentor/redis: check job exists: %w", err)
	}
	if exists > 0 {
		return fmt.Errorf("ecomentor/redis: job %s: %w", j.ID, ecomentor.ErrJobAlreadyExists)
	}

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, jobToMap(j))
	pipe.SAdd(ctx, jobIDsKey(), j.ID.String())
	pipe.ZAdd(ctx, queueKey(j.Queue), goredis.Z{
		Score:  jobScore(j.Priority, j.RunAt),
		Member: j.ID.String(),
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("ecomentor/redis: enqueue job %s: %w", j.ID, err)
	}
	return nil
}

// DequeueJobs claims up to limit runnable jobs from the given queues.
// Jobs whose run-at time has not arrived are pushed back untouched.
func (s *Store) DequeueJobs(ctx context.Context, queues []string, limit int) ([]*job.Job, error) {
	if limit <= 0 {
		return nil, nil
	}

	now := time.Now().UTC()
	var claimed []*job.Job

	for _, queue := range queues {
		if len(claimed) >= limit {
			break
		}
		remaining := limit - len(claimed)

		members, err := s.client.ZPopMin(ctx, queueKey(queue), int64(remaining)).Result()
		if err != nil {
			return nil, fmt.Errorf("ecomentor/redis: pop queue %s: %w", queue, err)
		}

		for _, z := range members {
			jobID, _ := z.Member.(string)
			j, err := s.loadJob(ctx, jobID)
			if err != nil {
				s.logger.Warn("dropping unreadable queue member", "queue", queue, "job_id", jobID, "error", err)
				continue
			}

			if j.RunAt.After(now) {
				// Not due yet; push it back with its original score.
				if err := s.client.ZAdd(ctx, queueKey(queue), z).Err(); err != nil {
					return nil, fmt.Errorf("ecomentor/redis: requeue job %s: %w", j.ID, err)
				}
				continue
			}

			started := now
			j.State = job.StateRunning
			j.StartedAt = &started
			j.UpdatedAt = now
			if err := s.client.HSet(ctx, jobKey(jobID), jobToMap(j)).Err(); err != nil {
				return nil, fmt.Errorf("ecomentor/redis: claim job %s: %w", j.ID, err)
			}
			claimed = append(claimed, j)
		}
	}

	return claimed, nil
}

// GetJob retrieves a job by ID.
func (s *Store) GetJob(ctx context.Context, jobID id.JobID) (*job.Job, error) {
	return s.loadJob(ctx, jobID.String())
}

// UpdateJob persists changes to an existing job. When the job is in a
// runnable state (pending or retrying) it is re-added to its queue's
// sorted set so a later dequeue can claim it; otherwise it is removed.
func (s *Store) UpdateJob(ctx context.Context, j *job.Job) error {
	key := jobKey(j.ID.String())

	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("ecomentor/redis: check job exists: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("ecomentor/redis: job %s: %w", j.ID, ecomentor.ErrJobNotFound)
	}

	j.UpdatedAt = time.Now().UTC()

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, jobToMap(j))
	switch j.State {
	case job.StatePending, job.StateRetrying:
		pipe.ZAdd(ctx, queueKey(j.Queue), goredis.Z{
			Score:  jobScore(j.Priority, j.RunAt),
			Member: j.ID.String(),
		})
	default:
		pipe.ZRem(ctx, queueKey(j.Queue), j.ID.String())
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("ecomentor/redis: update job %s: %w", j.ID, err)
	}
	return nil
}

// DeleteJob removes a job and all its queue bookkeeping.
func (s *Store) DeleteJob(ctx context.Context, jobID id.JobID) error {
	j, err := s.loadJob(ctx, jobID.String())
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, jobKey(jobID.String()))
	pipe.SRem(ctx, jobIDsKey(), jobID.String())
	pipe.ZRem(ctx, queueKey(j.Queue), jobID.String())
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("ecomentor/redis: delete job %s: %w", jobID, err)
	}
	return nil
}

// ListJobsByState returns jobs matching the given state, ordered by
// creation time.
func (s *Store) ListJobsByState(ctx context.Context, state job.State, opts job.ListOpts) ([]*job.Job, error) {
	jobs, err := s.scanJobs(ctx, func(j *job.Job) bool {
		if j.State != state {
			return false
		}
		if opts.Queue != "" && j.Queue != opts.Queue {
			return false
		}
		return true
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(jobs, func(i, k int) bool {
		return jobs[i].CreatedAt.Before(jobs[k].CreatedAt)
	})

	if opts.Offset > 0 {
		if opts.Offset >= len(jobs) {
			return nil, nil
		}
		jobs = jobs[opts.Offset:]
	}
	if opts.Limit > 0 && len(jobs) > opts.Limit {
		jobs = jobs[:opts.Limit]
	}
	return jobs, nil
}

// CountJobs returns the number of jobs matching the given options.
func (s *Store) CountJobs(ctx context.Context, opts job.CountOpts) (int64, error) {
	jobs, err := s.scanJobs(ctx, func(j *job.Job) bool {
		if opts.Queue != "" && j.Queue != opts.Queue {
			return false
		}
		if opts.State != "" && j.State != opts.State {
			return false
		}
		return true
	})
	if err != nil {
		return 0, err
	}
	return int64(len(jobs)), nil
}

func (s *Store) loadJob(ctx context.Context, jobID string) (*job.Job, error) {
	fields, err := s.client.HGetAll(ctx, jobKey(jobID)).Result()
	if err != nil {
		return nil, fmt.Errorf("ecomentor/redis: get job %s: %w", jobID, err)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("ecomentor/redis: job %s: %w", jobID, ecomentor.ErrJobNotFound)
	}
	return mapToJob(fields)
}

// scanJobs walks the full job ID set and returns jobs that pass the
// filter. Fine for admin queries; the hot path never calls it.
func (s *Store) scanJobs(ctx context.Context, keep func(*job.Job) bool) ([]*job.Job, error) {
	ids, err := s.client.SMembers(ctx, jobIDsKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("ecomentor/redis: list job ids: %w", err)
	}

	var jobs []*job.Job
	for _, jobID := range ids {
		j, err := s.loadJob(ctx, jobID)
		if err != nil {
			continue
		}
		if keep(j) {
			jobs = append(jobs, j)
		}
	}
	return jobs, nil
}

func jobToMap(j *job.Job) map[string]any {
	m := map[string]any{
		"id":            j.ID.String(),
		"name":          j.Name,
		"queue":         j.Queue,
		"payload":       string(j.Payload),
		"state":         string(j.State),
		"priority":      strconv.Itoa(j.Priority),
		"max_retries":   strconv.Itoa(j.MaxRetries),
		"retry_count":   strconv.Itoa(j.RetryCount),
		"last_error":    j.LastError,
		"channel_id":    j.ChannelID,
		"language_code": j.LanguageCode,
		"run_at":        j.RunAt.UTC().Format(time.RFC3339Nano),
		"timeout":       j.Timeout.String(),
		"created_at":    j.CreatedAt.UTC().Format(time.RFC3339Nano),
		"updated_at":    j.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
	if j.StartedAt != nil {
		m["started_at"] = j.StartedAt.UTC().Format(time.RFC3339Nano)
	}
	if j.CompletedAt != nil {
		m["completed_at"] = j.CompletedAt.UTC().Format(time.RFC3339Nano)
	}
	return m
}

func mapToJob(fields map[string]string) (*job.Job, error) {
	jobID, err := id.ParseJobID(fields["id"])
	if err != nil {
		return nil, fmt.Errorf("ecomentor/redis: parse job id %q: %w", fields["id"], err)
	}

	j := &job.Job{
		ID:           jobID,
		Name:         fields["name"],
		Queue:        fields["queue"],
		Payload:      []byte(fields["payload"]),
		State:        job.State(fields["state"]),
		LastError:    fields["last_error"],
		ChannelID:    fields["channel_id"],
		LanguageCode: fields["language_code"],
	}

	// Numeric and time fields are best-effort: a missing or garbled
	// field yields the zero value rather than a lost job.
	j.Priority, _ = strconv.Atoi(fields["priority"])                    //nolint:errcheck
	j.MaxRetries, _ = strconv.Atoi(fields["max_retries"])               //nolint:errcheck
	j.RetryCount, _ = strconv.Atoi(fields["retry_count"])               //nolint:errcheck
	j.Timeout, _ = time.ParseDuration(fields["timeout"])                //nolint:errcheck
	j.RunAt, _ = time.Parse(time.RFC3339Nano, fields["run_at"])         //nolint:errcheck
	j.CreatedAt, _ = time.Parse(time.RFC3339Nano, fields["created_at"]) //nolint:errcheck
	j.UpdatedAt, _ = time.Parse(time.RFC3339Nano, fields["updated_at"]) //nolint:errcheck

	if v, ok := fields["started_at"]; ok && v != "" {
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			j.StartedAt = &t
		}
	}
	if v, ok := fields["completed_at"]; ok && v != "" {
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			j.CompletedAt = &t
		}
	}
	return j, nil
}
