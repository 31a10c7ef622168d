package notifications

import "context"

type StoreAPI interface {
	CreateNotification(ctx context.Context, n Notification) (Notification, error)
	// CreateNotificationOnce inserts n unless a row with the same DedupeKey
	// exists, reporting whether a row was written.
	CreateNotificationOnce(ctx context.Context, n Notification) (Notification, bool, error)
	GetNotification(ctx context.Context, id string) (Notification, error)
	ListNotifications(ctx context.Context, recipientID string, limit, offset int) ([]Notification, error)
	CountUnread(ctx context.Context, recipientID string) (int, error)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context, recipientID string) (int, error)
	DeleteNotification(ctx context.Context, id string) error
	UserEmail(ctx context.Context, userID string) (string, error)
}
