package notifications

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"perfcycle/internal/platform/db"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{DB: pool}
}

const notificationColumns = `id, recipient_id, COALESCE(sender_id::text, ''), type, title, message, link,
      COALESCE(related_entity_id::text, ''), COALESCE(entity_type, ''), is_read, COALESCE(dedupe_key, ''), created_at`

func scanNotification(row pgx.Row) (Notification, error) {
	var n Notification
	err := row.Scan(&n.ID, &n.RecipientID, &n.SenderID, &n.Type, &n.Title, &n.Message, &n.Link,
		&n.RelatedEntityID, &n.EntityType, &n.IsRead, &n.DedupeKey, &n.CreatedAt)
	return n, err
}

func insertArgs(n Notification) []any {
	return []any{
		n.RecipientID, db.NullString(n.SenderID), n.Type, n.Title, n.Message, n.Link,
		db.NullString(n.RelatedEntityID), db.NullString(n.EntityType), db.NullString(n.DedupeKey),
	}
}

func (s *Store) CreateNotification(ctx context.Context, n Notification) (Notification, error) {
	created, err := scanNotification(s.DB.QueryRow(ctx, `
    INSERT INTO notifications (recipient_id, sender_id, type, title, message, link, related_entity_id, entity_type, dedupe_key)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    RETURNING `+notificationColumns, insertArgs(n)...))
	return created, db.MapError(err, "notification")
}

func (s *Store) CreateNotificationOnce(ctx context.Context, n Notification) (Notification, bool, error) {
	created, err := scanNotification(s.DB.QueryRow(ctx, `
    INSERT INTO notifications (recipient_id, sender_id, type, title, message, link, related_entity_id, entity_type, dedupe_key)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    ON CONFLICT (dedupe_key) DO NOTHING
    RETURNING `+notificationColumns, insertArgs(n)...))
	if errors.Is(err, pgx.ErrNoRows) {
		return Notification{}, false, nil
	}
	if err != nil {
		return Notification{}, false, db.MapError(err, "notification")
	}
	return created, true, nil
}

func (s *Store) GetNotification(ctx context.Context, id string) (Notification, error) {
	n, err := scanNotification(s.DB.QueryRow(ctx, "SELECT "+notificationColumns+" FROM notifications WHERE id = $1", id))
	return n, db.MapError(err, "notification")
}

func (s *Store) ListNotifications(ctx context.Context, recipientID string, limit, offset int) ([]Notification, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+notificationColumns+`
    FROM notifications
    WHERE recipient_id = $1
    ORDER BY created_at DESC
    LIMIT $2 OFFSET $3
  `, recipientID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	out := []Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *Store) CountUnread(ctx context.Context, recipientID string) (int, error) {
	var count int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM notifications WHERE recipient_id = $1 AND NOT is_read", recipientID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (s *Store) MarkRead(ctx context.Context, id string) error {
	tag, err := s.DB.Exec(ctx, "UPDATE notifications SET is_read = true WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return db.MapError(pgx.ErrNoRows, "notification")
	}
	return nil
}

func (s *Store) MarkAllRead(ctx context.Context, recipientID string) (int, error) {
	tag, err := s.DB.Exec(ctx, "UPDATE notifications SET is_read = true WHERE recipient_id = $1 AND NOT is_read", recipientID)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (s *Store) DeleteNotification(ctx context.Context, id string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM notifications WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return db.MapError(pgx.ErrNoRows, "notification")
	}
	return nil
}

func (s *Store) UserEmail(ctx context.Context, userID string) (string, error) {
	var email string
	if err := s.DB.QueryRow(ctx, "SELECT email FROM users WHERE id = $1", userID).Scan(&email); err != nil {
		return "", db.MapError(err, "user")
	}
	return email, nil
}
