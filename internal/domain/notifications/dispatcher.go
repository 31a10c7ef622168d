package notifications

import (
	"context"
	"log/slog"
	"time"

	"perfcycle/internal/platform/jobs"
	"perfcycle/internal/platform/metrics"
)

type Queue interface {
	Enqueue(jobType string, run jobs.RunFunc) bool
	RunNow(ctx context.Context, jobType string, run jobs.RunFunc) (any, error)
}

// Dispatcher hands events to the background worker and falls back to
// inline delivery when the queue refuses them. Each delivery is bounded by
// Timeout when it is set.
type Dispatcher struct {
	service *Service
	queue   Queue
	metrics *metrics.Collector
	Timeout time.Duration
}

func NewDispatcher(service *Service, queue Queue, collector *metrics.Collector) *Dispatcher {
	return &Dispatcher{service: service, queue: queue, metrics: collector}
}

func (d *Dispatcher) Emit(ctx context.Context, n Notification) {
	run := func(ctx context.Context) (any, error) {
		if d.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, d.Timeout)
			defer cancel()
		}
		created, err := d.service.Deliver(ctx, n)
		if err != nil {
			d.metrics.NotificationFailed()
			return nil, err
		}
		d.metrics.NotificationDelivered()
		return map[string]string{"notificationId": created.ID}, nil
	}

	var err error
	switch {
	case d.queue == nil:
		d.metrics.NotificationInline()
		_, err = run(context.WithoutCancel(ctx))
	case d.queue.Enqueue(jobs.JobNotificationDelivery, run):
		d.metrics.NotificationQueued()
		return
	default:
		d.metrics.NotificationInline()
		_, err = d.queue.RunNow(context.WithoutCancel(ctx), jobs.JobNotificationDelivery, run)
	}
	if err != nil {
		slog.Warn("notification delivery failed", "type", n.Type, "recipient", n.RecipientID, "err", err)
	}
}
