package reviews

import "time"

const (
	StatusPending   = "Pending"
	StatusCompleted = "Completed"
)

type GoalReview struct {
	ID             string     `json:"id"`
	GoalID         string     `json:"goalId"`
	ManagerID      string     `json:"managerId"`
	HRAdminID      string     `json:"hrAdminId"`
	TeamID         string     `json:"teamId,omitempty"`
	Description    string     `json:"description"`
	DueDate        time.Time  `json:"dueDate"`
	Status         string     `json:"status"`
	ManagerReview  string     `json:"managerReview,omitempty"`
	SubmissionDate *time.Time `json:"submissionDate,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

type TaskReview struct {
	ID             string     `json:"id"`
	TaskID         string     `json:"taskId"`
	DepartmentID   string     `json:"departmentId"`
	TeamID         string     `json:"teamId"`
	ProjectID      string     `json:"projectId"`
	EmployeeID     string     `json:"employeeId"`
	HRAdminID      string     `json:"hrAdminId"`
	Description    string     `json:"description"`
	DueDate        time.Time  `json:"dueDate"`
	TaskDueDate    *time.Time `json:"taskDueDate,omitempty"`
	Status         string     `json:"status"`
	EmployeeReview string     `json:"employeeReview,omitempty"`
	SubmissionDate *time.Time `json:"submissionDate,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

type GoalReviewInput struct {
	GoalID      string
	ManagerID   string
	TeamID      string
	Description string
	DueDate     *time.Time
}

type GoalReviewPatch struct {
	GoalID      *string
	ManagerID   *string
	TeamID      *string
	Description *string
	DueDate     *time.Time
}

type TaskReviewInput struct {
	TaskID       string
	DepartmentID string
	TeamID       string
	ProjectID    string
	EmployeeID   string
	Description  string
	DueDate      *time.Time
}

type TaskReviewPatch struct {
	TaskID       *string
	DepartmentID *string
	TeamID       *string
	ProjectID    *string
	EmployeeID   *string
	Description  *string
	DueDate      *time.Time
}

// Filter narrows review listings. DueOn matches the calendar day only.
type Filter struct {
	AssigneeID string
	CreatorID  string
	Status     string
	DueOn      *time.Time
}

type ReminderResult struct {
	Day         string `json:"day"`
	GoalReviews int    `json:"goalReviews"`
	TaskReviews int    `json:"taskReviews"`
	Sent        int    `json:"sent"`
	Skipped     int    `json:"skipped"`
	Failed      int    `json:"failed"`
}
