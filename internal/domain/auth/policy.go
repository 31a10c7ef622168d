package auth

import (
	"slices"

	"perfcycle/internal/apperror"
)

type Action string

const (
	ActionDirectoryWrite Action = "directory.write"

	ActionGoalCreate           Action = "goal.create"
	ActionGoalRead             Action = "goal.read"
	ActionGoalUpdate           Action = "goal.update"
	ActionGoalAssignDepartment Action = "goal.assign_department"
	ActionGoalDelete           Action = "goal.delete"

	ActionTaskCreate       Action = "task.create"
	ActionTaskRead         Action = "task.read"
	ActionTaskUpdate       Action = "task.update"
	ActionTaskUpdateStatus Action = "task.update_status"
	ActionTaskDelete       Action = "task.delete"

	ActionReviewCreate Action = "review.create"
	ActionReviewRead   Action = "review.read"
	ActionReviewUpdate Action = "review.update"
	ActionReviewSubmit Action = "review.submit"
	ActionReviewDelete Action = "review.delete"
	ActionReviewReopen Action = "review.reopen"
	ActionReviewSweep  Action = "review.sweep"

	ActionAssessmentSubmit Action = "assessment.submit"
	ActionAssessmentRead   Action = "assessment.read"
	ActionAssessmentEdit   Action = "assessment.edit"
	ActionAssessmentDelete Action = "assessment.delete"

	ActionFeedbackSubmit Action = "feedback.submit"
	ActionFeedbackEdit   Action = "feedback.edit"
	ActionFeedbackDelete Action = "feedback.delete"

	ActionNotificationManage Action = "notification.manage"
	ActionReportExport       Action = "report.export"
)

// Resource carries the ownership facts of the record an action targets.
//
//	Owner    the manager who owns the record (goal, task, assessment) or the feedback author
//	Assignee the user expected to act on it (task employee, review assignee, notification recipient)
//	Creator  the HR user who opened a review cycle
//	Subject  the employee a self-assessment belongs to
//	Members  users allowed to read because of team membership
type Resource struct {
	OwnerID    string
	AssigneeID string
	CreatorID  string
	SubjectID  string
	MemberIDs  []string
}

type Rule func(caller UserContext, res Resource) bool

func hasRole(roles ...string) Rule {
	return func(caller UserContext, _ Resource) bool {
		return slices.Contains(roles, caller.RoleName)
	}
}

func isOwner(caller UserContext, res Resource) bool {
	return res.OwnerID != "" && caller.UserID == res.OwnerID
}

func isAssignee(caller UserContext, res Resource) bool {
	return res.AssigneeID != "" && caller.UserID == res.AssigneeID
}

func isCreator(caller UserContext, res Resource) bool {
	return res.CreatorID != "" && caller.UserID == res.CreatorID
}

func isSubject(caller UserContext, res Resource) bool {
	return res.SubjectID != "" && caller.UserID == res.SubjectID
}

func isMember(caller UserContext, res Resource) bool {
	return slices.Contains(res.MemberIDs, caller.UserID)
}

func anyOf(rules ...Rule) Rule {
	return func(caller UserContext, res Resource) bool {
		for _, rule := range rules {
			if rule(caller, res) {
				return true
			}
		}
		return false
	}
}

func allOf(rules ...Rule) Rule {
	return func(caller UserContext, res Resource) bool {
		for _, rule := range rules {
			if !rule(caller, res) {
				return false
			}
		}
		return true
	}
}

type policyEntry struct {
	rule    Rule
	message string
}

var isHR = hasRole(RoleHR)

var policies = map[Action]policyEntry{
	ActionDirectoryWrite: {isHR, "only HR can manage the organisation directory"},

	ActionGoalCreate:           {hasRole(RoleHR, RoleManager), "only HR or managers can create goals"},
	ActionGoalRead:             {anyOf(isHR, isOwner, isMember), "not allowed to view this goal"},
	ActionGoalUpdate:           {allOf(hasRole(RoleManager), isOwner), "only the owning manager can update this goal"},
	ActionGoalAssignDepartment: {anyOf(isHR, allOf(hasRole(RoleManager), isOwner)), "only HR or the owning manager can reassign the department"},
	ActionGoalDelete:           {allOf(hasRole(RoleManager), isOwner), "only the owning manager can delete this goal"},

	ActionTaskCreate:       {hasRole(RoleManager), "only managers can create tasks"},
	ActionTaskRead:         {anyOf(isHR, isOwner, isAssignee), "not allowed to view this task"},
	ActionTaskUpdate:       {allOf(hasRole(RoleManager), isOwner), "only the owning manager can update this task"},
	ActionTaskUpdateStatus: {anyOf(allOf(hasRole(RoleManager), isOwner), allOf(hasRole(RoleEmployee), isAssignee)), "not allowed to change the status of this task"},
	ActionTaskDelete:       {allOf(hasRole(RoleManager), isOwner), "only the owning manager can delete this task"},

	ActionReviewCreate: {isHR, "HR admin access required"},
	ActionReviewRead:   {anyOf(isHR, isAssignee), "not allowed to view this review"},
	ActionReviewUpdate: {isHR, "HR admin access required"},
	ActionReviewSubmit: {isAssignee, "not assigned to this review"},
	ActionReviewDelete: {allOf(isHR, isCreator), "only the HR admin who created this review can delete it"},
	ActionReviewReopen: {allOf(isHR, isCreator), "only the HR admin who created this review can reopen it"},
	ActionReviewSweep:  {isHR, "HR admin access required"},

	ActionAssessmentSubmit: {hasRole(RoleEmployee), "only employees can submit self-assessments"},
	ActionAssessmentRead:   {anyOf(isHR, isSubject, isOwner), "not allowed to view this self-assessment"},
	ActionAssessmentEdit:   {isSubject, "only the employee who wrote this self-assessment can change it"},
	ActionAssessmentDelete: {isSubject, "only the employee who wrote this self-assessment can delete it"},

	ActionFeedbackSubmit: {anyOf(isHR, allOf(hasRole(RoleManager), isOwner)), "only the assigned manager or HR can give feedback"},
	ActionFeedbackEdit:   {anyOf(isHR, isOwner), "only the feedback author or HR can edit feedback"},
	ActionFeedbackDelete: {anyOf(isHR, isOwner), "only the feedback author or HR can delete feedback"},

	ActionNotificationManage: {isAssignee, "notification belongs to another user"},
	ActionReportExport:       {isHR, "HR admin access required"},
}

// Allowed evaluates the rule registered for action. Unknown actions are denied.
func Allowed(action Action, caller UserContext, res Resource) bool {
	entry, ok := policies[action]
	if !ok {
		return false
	}
	return entry.rule(caller, res)
}

// Authorize returns a forbidden error when caller may not perform action on res.
func Authorize(action Action, caller UserContext, res Resource) error {
	if caller.UserID == "" {
		return apperror.ErrUnauthenticated
	}
	entry, ok := policies[action]
	if !ok || !entry.rule(caller, res) {
		message := "forbidden"
		if ok {
			message = entry.message
		}
		return apperror.Forbidden(message)
	}
	return nil
}
