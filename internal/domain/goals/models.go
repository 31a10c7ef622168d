package goals

import "time"

const (
	StatusScheduled  = "scheduled"
	StatusInProgress = "in-progress"
	StatusCompleted  = "completed"
)

var Statuses = []string{StatusScheduled, StatusInProgress, StatusCompleted}

type Goal struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	StartDate    *time.Time `json:"startDate,omitempty"`
	DueDate      *time.Time `json:"dueDate,omitempty"`
	Status       string     `json:"status"`
	ManagerID    string     `json:"managerId"`
	TeamID       string     `json:"teamId"`
	DepartmentID string     `json:"departmentId,omitempty"`
	HRID         string     `json:"hrId,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

type GoalInput struct {
	Title        string
	Description  string
	StartDate    *time.Time
	DueDate      *time.Time
	ManagerID    string
	TeamID       string
	DepartmentID string
}

// GoalPatch holds optional changes; nil fields are left alone.
type GoalPatch struct {
	Title        *string
	Description  *string
	StartDate    *time.Time
	DueDate      *time.Time
	Status       *string
	TeamID       *string
	DepartmentID *string
}

func (p GoalPatch) onlyDepartment() bool {
	return p.Title == nil && p.Description == nil && p.StartDate == nil && p.DueDate == nil &&
		p.Status == nil && p.TeamID == nil
}

// Filter narrows ListGoals. An empty filter returns every goal.
type Filter struct {
	ManagerID string
	TeamIDs   []string
}
