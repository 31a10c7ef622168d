package reviews

import (
	"context"
	"time"

	"perfcycle/internal/apperror"
	"perfcycle/internal/domain/auth"
	"perfcycle/internal/domain/notifications"
	"perfcycle/internal/platform/metrics"
)

type Service struct {
	store     StoreAPI
	dir       Directory
	events    notifications.Emitter
	reminders ReminderSink
	metrics   *metrics.Collector
	now       func() time.Time
}

func NewService(store StoreAPI, dir Directory, events notifications.Emitter, reminders ReminderSink) *Service {
	return &Service{store: store, dir: dir, events: events, reminders: reminders, now: time.Now}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) WithMetrics(collector *metrics.Collector) *Service {
	s.metrics = collector
	return s
}

func (s *Service) emit(ctx context.Context, n notifications.Notification) {
	if s.events == nil {
		return
	}
	s.events.Emit(ctx, n)
}

// checkUserRole loads id and requires role; entity names the reference in
// error messages.
func (s *Service) checkUserRole(ctx context.Context, id, role, entity string) error {
	user, err := s.dir.User(ctx, id)
	if err != nil {
		if apperror.IsNotFound(err) {
			return apperror.NotFound(entity)
		}
		return err
	}
	if user.Role != role {
		return apperror.Validationf("%sId must reference a user with the %s role", entity, role)
	}
	return nil
}

func requireCaller(caller auth.UserContext) error {
	if caller.UserID == "" {
		return apperror.ErrUnauthenticated
	}
	return nil
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
