package assessments

import "time"

const (
	StatusSubmitted = "submitted"
	StatusCompleted = "completed"

	FeedbackSubmitted = "submitted"
	FeedbackUpdated   = "updated"
)

// SelfAssessment carries a FeedbackID exactly when its status is completed.
type SelfAssessment struct {
	ID         string    `json:"id"`
	EmployeeID string    `json:"employeeId"`
	ManagerID  string    `json:"managerId"`
	TaskID     string    `json:"taskId"`
	FeedbackID string    `json:"feedbackId,omitempty"`
	Comments   string    `json:"comments"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type Feedback struct {
	ID               string    `json:"id"`
	SelfAssessmentID string    `json:"selfAssessmentId"`
	ManagerID        string    `json:"managerId"`
	FeedbackText     string    `json:"feedbackText"`
	Status           string    `json:"status"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

type SelfAssessmentInput struct {
	TaskID   string
	Comments string
}

type FeedbackInput struct {
	SelfAssessmentID string
	FeedbackText     string
}

type Filter struct {
	EmployeeID string
	ManagerID  string
}
