package queue

import (
	"fmt"

	"golang.org/x/time/rate"
)

// ChannelConfig defines rate limits and concurrency for a specific sales
// channel on a specific queue, identified by the job's ChannelID. This
// keeps one busy storefront from starving index updates for the others.
type ChannelConfig struct {
	// QueueName is the queue this config applies to.
	QueueName string

	// ChannelID is the sales channel identifier (job.ChannelID).
	ChannelID string

	// RateLimit is the sustained jobs per second for this channel.
	RateLimit float64

	// RateBurst is the burst size for the channel's rate limiter.
	RateBurst int

	// MaxConcurrency limits simultaneous jobs for this channel on this
	// queue. Zero means no channel-specific concurrency limit.
	MaxConcurrency int
}

// channelState tracks runtime state for a single queue+channel pair.
type channelState struct {
	limiter        *rate.Limiter
	maxConcurrency int
	active         int
}

// channelKey builds the map key for a queue+channel pair.
func channelKey(queue, channelID string) string {
	return fmt.Sprintf("%s:%s", queue, channelID)
}

// SetChannelConfig configures rate limits and concurrency for a specific
// channel on a specific queue. Calling this multiple times for the same
// queue+channel replaces the previous configuration.
func (m *Manager) SetChannelConfig(cfg ChannelConfig) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := channelKey(cfg.QueueName, cfg.ChannelID)
	existing := m.channels[key]

	cs := &channelState{
		maxConcurrency: cfg.MaxConcurrency,
	}
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		cs.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	// Preserve current active count if reconfiguring.
	if existing != nil {
		cs.active = existing.active
	}
	m.channels[key] = cs
}

// ChannelActiveCount returns the current number of active jobs for a
// queue+channel pair.
func (m *Manager) ChannelActiveCount(queue, channelID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cs := m.channels[channelKey(queue, channelID)]; cs != nil {
		return cs.active
	}
	return 0
}
