package org

import "time"

type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type Department struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedBy   string    `json:"createdBy"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Team struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	DepartmentID string    `json:"departmentId,omitempty"`
	Members      []string  `json:"members"`
	CreatedBy    string    `json:"createdBy"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (t Team) HasMember(userID string) bool {
	for _, member := range t.Members {
		if member == userID {
			return true
		}
	}
	return false
}

type UserInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type UserPatch struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
	Role     *string `json:"role"`
}

type DepartmentInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type DepartmentPatch struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

type TeamInput struct {
	Name         string   `json:"name"`
	DepartmentID string   `json:"departmentId"`
	Members      []string `json:"members"`
}

type TeamPatch struct {
	Name         *string   `json:"name"`
	DepartmentID *string   `json:"departmentId"`
	Members      *[]string `json:"members"`
}
