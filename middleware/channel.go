package middleware

import (
	"context"

	"github.com/nicholidev/eco-mentor/job"
)

type ctxKey int

const (
	channelKey ctxKey = iota
	languageKey
)

// Channel returns middleware that restores the job's sales channel and
// content language into the context, so handlers see the same scope as the
// original enqueue caller (index documents are keyed per channel/language).
func Channel() Middleware {
	return func(ctx context.Context, j *job.Job, next Handler) error {
		return next(ContextWithChannel(ctx, j.ChannelID, j.LanguageCode))
	}
}

// ContextWithChannel returns a context scoped to the given sales channel
// and content language. Empty values are left unset.
func ContextWithChannel(ctx context.Context, channelID, languageCode string) context.Context {
	if channelID != "" {
		ctx = context.WithValue(ctx, channelKey, channelID)
	}
	if languageCode != "" {
		ctx = context.WithValue(ctx, languageKey, languageCode)
	}
	return ctx
}

// ChannelFromContext returns the sales channel id restored by Channel,
// or "" for the default channel.
func ChannelFromContext(ctx context.Context) string {
	v, _ := ctx.Value(channelKey).(string)
	return v
}

// LanguageFromContext returns the content language restored by Channel,
// or "" for the default language.
func LanguageFromContext(ctx context.Context) string {
	v, _ := ctx.Value(languageKey).(string)
	return v
}
