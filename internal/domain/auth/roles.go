package auth

const (
	RoleHR       = "hr"
	RoleManager  = "manager"
	RoleEmployee = "employee"
)

var Roles = []string{RoleHR, RoleManager, RoleEmployee}

func ValidRole(role string) bool {
	for _, candidate := range Roles {
		if role == candidate {
			return true
		}
	}
	return false
}

// UserContext is the authenticated caller attached to a request.
type UserContext struct {
	UserID   string
	RoleName string
}

func (u UserContext) IsHR() bool       { return u.RoleName == RoleHR }
func (u UserContext) IsManager() bool  { return u.RoleName == RoleManager }
func (u UserContext) IsEmployee() bool { return u.RoleName == RoleEmployee }
