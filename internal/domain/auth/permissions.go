package auth

import "context"

const (
	PermOrgRead           = "org.read"
	PermOrgWrite          = "org.write"
	PermUsersRead         = "users.read"
	PermUsersWrite        = "users.write"
	PermGoalsRead         = "goals.read"
	PermGoalsWrite        = "goals.write"
	PermTasksRead         = "tasks.read"
	PermTasksWrite        = "tasks.write"
	PermReviewsRead       = "reviews.read"
	PermReviewsManage     = "reviews.manage"
	PermReviewsSubmit     = "reviews.submit"
	PermAssessmentsRead   = "assessments.read"
	PermAssessmentsWrite  = "assessments.write"
	PermFeedbackWrite     = "feedback.write"
	PermNotificationsRead = "notifications.read"
	PermReportsRead       = "reports.read"
	PermAuditRead         = "audit.read"
	PermJobsRun           = "jobs.run"
)

var DefaultPermissions = []string{
	PermOrgRead,
	PermOrgWrite,
	PermUsersRead,
	PermUsersWrite,
	PermGoalsRead,
	PermGoalsWrite,
	PermTasksRead,
	PermTasksWrite,
	PermReviewsRead,
	PermReviewsManage,
	PermReviewsSubmit,
	PermAssessmentsRead,
	PermAssessmentsWrite,
	PermFeedbackWrite,
	PermNotificationsRead,
	PermReportsRead,
	PermAuditRead,
	PermJobsRun,
}

var RolePermissions = map[string][]string{
	RoleEmployee: {
		PermOrgRead,
		PermGoalsRead,
		PermTasksRead,
		PermTasksWrite,
		PermReviewsRead,
		PermReviewsSubmit,
		PermAssessmentsRead,
		PermAssessmentsWrite,
		PermNotificationsRead,
	},
	RoleManager: {
		PermOrgRead,
		PermUsersRead,
		PermGoalsRead,
		PermGoalsWrite,
		PermTasksRead,
		PermTasksWrite,
		PermReviewsRead,
		PermReviewsSubmit,
		PermAssessmentsRead,
		PermFeedbackWrite,
		PermNotificationsRead,
		PermReportsRead,
	},
	RoleHR: {
		PermOrgRead,
		PermOrgWrite,
		PermUsersRead,
		PermUsersWrite,
		PermGoalsRead,
		PermGoalsWrite,
		PermTasksRead,
		PermReviewsRead,
		PermReviewsManage,
		PermAssessmentsRead,
		PermFeedbackWrite,
		PermNotificationsRead,
		PermReportsRead,
		PermAuditRead,
		PermJobsRun,
	},
}

// PermissionTable answers route-level permission checks from the static role
// table. Record-level decisions go through Authorize.
type PermissionTable map[string][]string

func DefaultPermissionTable() PermissionTable {
	return PermissionTable(RolePermissions)
}

func (t PermissionTable) HasPermission(_ context.Context, role, permission string) (bool, error) {
	for _, perm := range t[role] {
		if perm == permission {
			return true, nil
		}
	}
	return false, nil
}
