package memstore

import (
	"context"
	"sort"

	"perfcycle/internal/apperror"
	"perfcycle/internal/domain/audit"
	"perfcycle/internal/domain/notifications"
	"perfcycle/internal/platform/jobs"
)

func (s *Store) CreateNotification(_ context.Context, n notifications.Notification) (notifications.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertNotification(n)
}

func (s *Store) insertNotification(n notifications.Notification) (notifications.Notification, error) {
	if _, ok := s.users[n.RecipientID]; !ok {
		return notifications.Notification{}, apperror.Validation("notification references a record that does not exist")
	}
	if n.DedupeKey != "" && s.hasDedupeKey(n.DedupeKey) {
		return notifications.Notification{}, apperror.Conflict("notification", "notification already exists")
	}
	n.ID = newID()
	n.IsRead = false
	n.CreatedAt = s.stamp()
	s.notifications[n.ID] = row[notifications.Notification]{seq: s.next(), item: n}
	return n, nil
}

func (s *Store) hasDedupeKey(key string) bool {
	return anyMatch(s.notifications, func(n notifications.Notification) bool { return n.DedupeKey == key })
}

func (s *Store) CreateNotificationOnce(_ context.Context, n notifications.Notification) (notifications.Notification, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n.DedupeKey != "" && s.hasDedupeKey(n.DedupeKey) {
		return notifications.Notification{}, false, nil
	}
	created, err := s.insertNotification(n)
	if err != nil {
		return notifications.Notification{}, false, err
	}
	return created, true, nil
}

func (s *Store) GetNotification(_ context.Context, id string) (notifications.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.notifications[id]
	if !ok {
		return notifications.Notification{}, apperror.NotFound("notification")
	}
	return r.item, nil
}

func (s *Store) ListNotifications(_ context.Context, recipientID string, limit, offset int) ([]notifications.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := collect(s.notifications, func(n notifications.Notification) bool { return n.RecipientID == recipientID }, true)
	return page(all, limit, offset), nil
}

func (s *Store) CountUnread(_ context.Context, recipientID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, r := range s.notifications {
		if r.item.RecipientID == recipientID && !r.item.IsRead {
			count++
		}
	}
	return count, nil
}

func (s *Store) MarkRead(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.notifications[id]
	if !ok {
		return apperror.NotFound("notification")
	}
	r.item.IsRead = true
	s.notifications[id] = r
	return nil
}

func (s *Store) MarkAllRead(_ context.Context, recipientID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for id, r := range s.notifications {
		if r.item.RecipientID == recipientID && !r.item.IsRead {
			r.item.IsRead = true
			s.notifications[id] = r
			count++
		}
	}
	return count, nil
}

func (s *Store) DeleteNotification(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.notifications[id]; !ok {
		return apperror.NotFound("notification")
	}
	delete(s.notifications, id)
	return nil
}

func (s *Store) UserEmail(_ context.Context, userID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.users[userID]
	if !ok {
		return "", apperror.NotFound("user")
	}
	return r.item.Email, nil
}

func (s *Store) InsertEvent(_ context.Context, evt audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	evt.ID = newID()
	evt.CreatedAt = s.stamp()
	s.auditEvents = append(s.auditEvents, evt)
	return nil
}

func (s *Store) matchingEvents(filter audit.Filter) []audit.Event {
	out := []audit.Event{}
	for i := len(s.auditEvents) - 1; i >= 0; i-- {
		evt := s.auditEvents[i]
		if (filter.Action == "" || evt.Action == filter.Action) &&
			(filter.EntityType == "" || evt.EntityType == filter.EntityType) &&
			(filter.ActorUser == "" || evt.ActorID == filter.ActorUser) {
			out = append(out, evt)
		}
	}
	return out
}

func (s *Store) CountEvents(_ context.Context, filter audit.Filter) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.matchingEvents(filter)), nil
}

func (s *Store) ListEvents(_ context.Context, filter audit.Filter, limit, offset int) ([]audit.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return page(s.matchingEvents(filter), limit, offset), nil
}

func (s *Store) StartRun(_ context.Context, jobType string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	run := jobs.Run{ID: newID(), JobType: jobType, Status: jobs.StatusRunning, StartedAt: s.stamp()}
	s.jobRuns[run.ID] = row[jobs.Run]{seq: s.next(), item: run}
	return run.ID, nil
}

func (s *Store) FinishRun(_ context.Context, runID, status string, details []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.jobRuns[runID]
	if !ok {
		return apperror.NotFound("job run")
	}
	completed := s.stamp()
	r.item.Status = status
	r.item.Details = append([]byte(nil), details...)
	r.item.CompletedAt = &completed
	s.jobRuns[runID] = r
	return nil
}

func (s *Store) ListRuns(_ context.Context, jobType string, limit int) ([]jobs.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	runs := collect(s.jobRuns, func(r jobs.Run) bool { return jobType == "" || r.JobType == jobType }, true)
	sort.SliceStable(runs, func(i, j int) bool { return runs[i].StartedAt.After(runs[j].StartedAt) })
	return page(runs, limit, 0), nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
