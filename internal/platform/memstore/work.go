package memstore

import (
	"context"
	"slices"

	"perfcycle/internal/apperror"
	"perfcycle/internal/domain/assessments"
	"perfcycle/internal/domain/goals"
	"perfcycle/internal/domain/reviews"
	"perfcycle/internal/domain/tasks"
)

func (s *Store) checkGoalRefs(goal goals.Goal) error {
	_, managerOK := s.users[goal.ManagerID]
	_, teamOK := s.teams[goal.TeamID]
	ok := managerOK && teamOK
	if goal.DepartmentID != "" {
		_, deptOK := s.departments[goal.DepartmentID]
		ok = ok && deptOK
	}
	if goal.HRID != "" {
		_, hrOK := s.users[goal.HRID]
		ok = ok && hrOK
	}
	if !ok {
		return apperror.Validation("goal references a record that does not exist")
	}
	return nil
}

func (s *Store) CreateGoal(_ context.Context, goal goals.Goal) (goals.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkGoalRefs(goal); err != nil {
		return goals.Goal{}, err
	}
	now := s.stamp()
	goal.ID = newID()
	goal.CreatedAt, goal.UpdatedAt = now, now
	s.goals[goal.ID] = row[goals.Goal]{seq: s.next(), item: goal}
	return goal, nil
}

func (s *Store) GetGoal(_ context.Context, id string) (goals.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.goals[id]
	if !ok {
		return goals.Goal{}, apperror.NotFound("goal")
	}
	return r.item, nil
}

func (s *Store) ListGoals(_ context.Context, filter goals.Filter) ([]goals.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return collect(s.goals, func(g goals.Goal) bool {
		if filter.ManagerID != "" && g.ManagerID != filter.ManagerID {
			return false
		}
		if len(filter.TeamIDs) > 0 && !slices.Contains(filter.TeamIDs, g.TeamID) {
			return false
		}
		return true
	}, true), nil
}

func (s *Store) UpdateGoal(_ context.Context, goal goals.Goal) (goals.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.goals[goal.ID]
	if !ok {
		return goals.Goal{}, apperror.NotFound("goal")
	}
	if err := s.checkGoalRefs(goal); err != nil {
		return goals.Goal{}, err
	}
	goal.ManagerID, goal.HRID = r.item.ManagerID, r.item.HRID
	goal.CreatedAt = r.item.CreatedAt
	goal.UpdatedAt = s.stamp()
	r.item = goal
	s.goals[goal.ID] = r
	return goal, nil
}

func (s *Store) DeleteGoal(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.goals[id]; !ok {
		return apperror.NotFound("goal")
	}
	if anyMatch(s.tasks, func(t tasks.Task) bool { return t.ProjectID == id }) ||
		anyMatch(s.goalReviews, func(r reviews.GoalReview) bool { return r.GoalID == id }) ||
		anyMatch(s.taskReviews, func(r reviews.TaskReview) bool { return r.ProjectID == id }) {
		return apperror.Conflict("goal", "goal is still referenced by other records")
	}
	delete(s.goals, id)
	return nil
}

func (s *Store) checkTaskRefs(task tasks.Task) error {
	_, goalOK := s.goals[task.ProjectID]
	_, employeeOK := s.users[task.EmployeeID]
	_, managerOK := s.users[task.ManagerID]
	if !goalOK || !employeeOK || !managerOK {
		return apperror.Validation("task references a record that does not exist")
	}
	return nil
}

func (s *Store) CreateTask(_ context.Context, task tasks.Task) (tasks.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkTaskRefs(task); err != nil {
		return tasks.Task{}, err
	}
	now := s.stamp()
	task.ID = newID()
	task.CreatedAt, task.UpdatedAt = now, now
	s.tasks[task.ID] = row[tasks.Task]{seq: s.next(), item: task}
	return task, nil
}

func (s *Store) GetTask(_ context.Context, id string) (tasks.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.tasks[id]
	if !ok {
		return tasks.Task{}, apperror.NotFound("task")
	}
	return r.item, nil
}

func (s *Store) ListTasks(_ context.Context, filter tasks.Filter) ([]tasks.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return collect(s.tasks, func(t tasks.Task) bool {
		return (filter.ManagerID == "" || t.ManagerID == filter.ManagerID) &&
			(filter.EmployeeID == "" || t.EmployeeID == filter.EmployeeID) &&
			(filter.ProjectID == "" || t.ProjectID == filter.ProjectID)
	}, true), nil
}

// UpdateTask keeps the first completedAt ever written.
func (s *Store) UpdateTask(_ context.Context, task tasks.Task) (tasks.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.tasks[task.ID]
	if !ok {
		return tasks.Task{}, apperror.NotFound("task")
	}
	if err := s.checkTaskRefs(task); err != nil {
		return tasks.Task{}, err
	}
	if r.item.CompletedAt != nil {
		task.CompletedAt = r.item.CompletedAt
	}
	task.ManagerID = r.item.ManagerID
	task.CreatedAt = r.item.CreatedAt
	task.UpdatedAt = s.stamp()
	r.item = task
	s.tasks[task.ID] = r
	return task, nil
}

func (s *Store) DeleteTask(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[id]; !ok {
		return apperror.NotFound("task")
	}
	if anyMatch(s.taskReviews, func(r reviews.TaskReview) bool { return r.TaskID == id }) ||
		anyMatch(s.assessments, func(a assessments.SelfAssessment) bool { return a.TaskID == id }) {
		return apperror.Conflict("task", "task is still referenced by other records")
	}
	delete(s.tasks, id)
	return nil
}
