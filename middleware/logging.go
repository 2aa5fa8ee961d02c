package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/nicholidev/eco-mentor/job"
)

// Logging returns middleware that logs job start and outcome. Scoped jobs
// carry their sales channel and language on every line, so per-channel
// index traffic can be filtered in the log stream.
func Logging(logger *slog.Logger) Middleware {
	return func(ctx context.Context, j *job.Job, next Handler) error {
		attrs := []any{
			slog.String("job_name", j.Name),
			slog.String("job_id", j.ID.String()),
			slog.String("queue", j.Queue),
		}
		if j.ChannelID != "" {
			attrs = append(attrs, slog.String("channel_id", j.ChannelID))
		}
		if j.LanguageCode != "" {
			attrs = append(attrs, slog.String("language_code", j.LanguageCode))
		}
		logger.Info("job started", attrs...)

		start := time.Now()
		err := next(ctx)
		attrs = append(attrs, slog.Duration("elapsed", time.Since(start)))

		if err != nil {
			logger.Error("job failed", append(attrs, slog.String("error", err.Error()))...)
			return err
		}
		logger.Info("job completed", attrs...)
		return nil
	}
}
