package notifications

import (
	"fmt"
	"time"
)

const (
	TypeGoalReviewCreated   = "GoalReviewCreated"
	TypeTaskReviewCreated   = "TaskReviewCreated"
	TypeGoalReviewSubmitted = "GoalReviewSubmitted"
	TypeTaskReviewSubmitted = "TaskReviewSubmitted"
	TypeReminder            = "Reminder"

	EntityGoalReview = "GoalReview"
	EntityTaskReview = "TaskReview"
)

const DefaultListLimit = 50

type Notification struct {
	ID              string    `json:"id"`
	RecipientID     string    `json:"recipientId"`
	SenderID        string    `json:"senderId,omitempty"`
	Type            string    `json:"type"`
	Title           string    `json:"title"`
	Message         string    `json:"message"`
	Link            string    `json:"link,omitempty"`
	RelatedEntityID string    `json:"relatedEntityId,omitempty"`
	EntityType      string    `json:"entityType,omitempty"`
	IsRead          bool      `json:"isRead"`
	DedupeKey       string    `json:"-"`
	CreatedAt       time.Time `json:"createdAt"`
}

// ReminderKey identifies the single reminder a recipient may receive for an
// entity on a given day.
func ReminderKey(recipientID, entityID string, day time.Time) string {
	return fmt.Sprintf("reminder:%s:%s:%s", recipientID, entityID, day.UTC().Format("2006-01-02"))
}

// EntityLink is the client route for a review record.
func EntityLink(entityType, id string) string {
	return "/" + entityType + "/" + id
}
