package metrics

import (
	"sync/atomic"
	"time"
)

// Collector keeps process-local counters exposed on /metrics.
type Collector struct {
	totalRequests   atomic.Uint64
	errorRequests   atomic.Uint64
	rateLimited     atomic.Uint64
	totalDurationMs atomic.Uint64

	notificationsQueued    atomic.Uint64
	notificationsInline    atomic.Uint64
	notificationsDelivered atomic.Uint64
	notificationsFailed    atomic.Uint64
	remindersSent          atomic.Uint64
	remindersSkipped       atomic.Uint64
}

func New() *Collector {
	return &Collector{}
}

func (c *Collector) Record(status int, duration time.Duration) {
	if c == nil {
		return
	}
	c.totalRequests.Add(1)
	if status >= 500 {
		c.errorRequests.Add(1)
	}
	if status == 429 {
		c.rateLimited.Add(1)
	}
	c.totalDurationMs.Add(uint64(duration.Milliseconds()))
}

func (c *Collector) NotificationQueued() {
	if c != nil {
		c.notificationsQueued.Add(1)
	}
}

func (c *Collector) NotificationInline() {
	if c != nil {
		c.notificationsInline.Add(1)
	}
}

func (c *Collector) NotificationDelivered() {
	if c != nil {
		c.notificationsDelivered.Add(1)
	}
}

func (c *Collector) NotificationFailed() {
	if c != nil {
		c.notificationsFailed.Add(1)
	}
}

func (c *Collector) Reminders(sent, skipped int) {
	if c == nil {
		return
	}
	c.remindersSent.Add(uint64(sent))
	c.remindersSkipped.Add(uint64(skipped))
}

func (c *Collector) Snapshot() map[string]any {
	total := c.totalRequests.Load()
	totalMs := c.totalDurationMs.Load()
	avg := float64(0)
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}
	return map[string]any{
		"requestsTotal":          total,
		"errorsTotal":            c.errorRequests.Load(),
		"rateLimitedTotal":       c.rateLimited.Load(),
		"avgDurationMs":          avg,
		"totalDurationMs":        totalMs,
		"notificationsQueued":    c.notificationsQueued.Load(),
		"notificationsInline":    c.notificationsInline.Load(),
		"notificationsDelivered": c.notificationsDelivered.Load(),
		"notificationsFailed":    c.notificationsFailed.Load(),
		"remindersSent":          c.remindersSent.Load(),
		"remindersSkipped":       c.remindersSkipped.Load(),
	}
}
