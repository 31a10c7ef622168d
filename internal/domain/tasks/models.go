package tasks

import "time"

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

var Priorities = []string{PriorityLow, PriorityMedium, PriorityHigh}

type Task struct {
	ID          string     `json:"id"`
	ProjectID   string     `json:"projectId"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	StartDate   *time.Time `json:"startDate,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	EmployeeID  string     `json:"employeeId"`
	ManagerID   string     `json:"managerId"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

type TaskInput struct {
	ProjectID   string
	Title       string
	Description string
	StartDate   *time.Time
	DueDate     *time.Time
	Priority    string
	EmployeeID  string
}

type TaskPatch struct {
	ProjectID   *string
	Title       *string
	Description *string
	StartDate   *time.Time
	DueDate     *time.Time
	Status      *string
	Priority    *string
	EmployeeID  *string
}

func (p TaskPatch) statusOnly() bool {
	return p.ProjectID == nil && p.Title == nil && p.Description == nil && p.StartDate == nil &&
		p.DueDate == nil && p.Priority == nil && p.EmployeeID == nil
}

// Filter narrows ListTasks; zero values are ignored.
type Filter struct {
	ManagerID  string
	EmployeeID string
	ProjectID  string
}
