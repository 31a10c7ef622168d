package notifications

import (
	"context"
	"log/slog"

	"perfcycle/internal/apperror"
	"perfcycle/internal/domain/auth"
)

type Mailer interface {
	Send(ctx context.Context, from, to, subject, body string) error
}

// Emitter accepts workflow events. Callers never wait on the outcome.
type Emitter interface {
	Emit(ctx context.Context, n Notification)
}

type Service struct {
	store       StoreAPI
	Mailer      Mailer
	DefaultFrom string
}

func New(store StoreAPI, mailer Mailer) *Service {
	return &Service{store: store, Mailer: mailer, DefaultFrom: "no-reply@example.com"}
}

// Deliver stores the notification and then tries to email the recipient.
// Mail failures are logged only.
func (s *Service) Deliver(ctx context.Context, n Notification) (Notification, error) {
	created, err := s.store.CreateNotification(ctx, n)
	if err != nil {
		return Notification{}, err
	}
	s.mail(ctx, created)
	return created, nil
}

// Emit delivers synchronously and swallows errors.
func (s *Service) Emit(ctx context.Context, n Notification) {
	if _, err := s.Deliver(ctx, n); err != nil {
		slog.Warn("notification delivery failed", "type", n.Type, "recipient", n.RecipientID, "err", err)
	}
}

// CreateOnce delivers n only if nothing with its dedupe key was sent before.
func (s *Service) CreateOnce(ctx context.Context, n Notification) (bool, error) {
	if n.DedupeKey == "" {
		_, err := s.Deliver(ctx, n)
		return err == nil, err
	}
	created, ok, err := s.store.CreateNotificationOnce(ctx, n)
	if err != nil || !ok {
		return false, err
	}
	s.mail(ctx, created)
	return true, nil
}

func (s *Service) mail(ctx context.Context, n Notification) {
	if s.Mailer == nil {
		return
	}
	email, err := s.store.UserEmail(ctx, n.RecipientID)
	if err != nil {
		slog.Warn("notification email lookup failed", "err", err)
		return
	}
	if email == "" {
		return
	}
	if err := s.Mailer.Send(ctx, s.DefaultFrom, email, n.Title, n.Message); err != nil {
		slog.Warn("notification email send failed", "err", err)
	}
}

func (s *Service) List(ctx context.Context, caller auth.UserContext, limit, offset int) ([]Notification, error) {
	if caller.UserID == "" {
		return nil, apperror.ErrUnauthenticated
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	return s.store.ListNotifications(ctx, caller.UserID, limit, offset)
}

func (s *Service) UnreadCount(ctx context.Context, caller auth.UserContext) (int, error) {
	if caller.UserID == "" {
		return 0, apperror.ErrUnauthenticated
	}
	return s.store.CountUnread(ctx, caller.UserID)
}

func (s *Service) MarkRead(ctx context.Context, caller auth.UserContext, id string) (Notification, error) {
	n, err := s.owned(ctx, caller, id)
	if err != nil {
		return Notification{}, err
	}
	if n.IsRead {
		return n, nil
	}
	if err := s.store.MarkRead(ctx, id); err != nil {
		return Notification{}, err
	}
	n.IsRead = true
	return n, nil
}

func (s *Service) MarkAllRead(ctx context.Context, caller auth.UserContext) (int, error) {
	if caller.UserID == "" {
		return 0, apperror.ErrUnauthenticated
	}
	return s.store.MarkAllRead(ctx, caller.UserID)
}

func (s *Service) Delete(ctx context.Context, caller auth.UserContext, id string) error {
	if _, err := s.owned(ctx, caller, id); err != nil {
		return err
	}
	return s.store.DeleteNotification(ctx, id)
}

func (s *Service) owned(ctx context.Context, caller auth.UserContext, id string) (Notification, error) {
	if caller.UserID == "" {
		return Notification{}, apperror.ErrUnauthenticated
	}
	n, err := s.store.GetNotification(ctx, id)
	if err != nil {
		return Notification{}, err
	}
	if err := auth.Authorize(auth.ActionNotificationManage, caller, auth.Resource{AssigneeID: n.RecipientID}); err != nil {
		return Notification{}, err
	}
	return n, nil
}
