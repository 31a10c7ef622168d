package memstore

import (
	"context"
	"slices"
	"sort"

	"perfcycle/internal/apperror"
	"perfcycle/internal/domain/assessments"
	"perfcycle/internal/domain/goals"
	"perfcycle/internal/domain/org"
	"perfcycle/internal/domain/reviews"
	"perfcycle/internal/domain/tasks"
)

func (s *Store) userConflict(user org.User) error {
	for id, r := range s.users {
		if id == user.ID {
			continue
		}
		if r.item.Username == user.Username || r.item.Email == user.Email {
			return apperror.Conflict("user", "user already exists")
		}
	}
	return nil
}

func (s *Store) CreateUser(_ context.Context, user org.User) (org.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.userConflict(user); err != nil {
		return org.User{}, err
	}
	now := s.stamp()
	user.ID = newID()
	user.CreatedAt, user.UpdatedAt = now, now
	s.users[user.ID] = row[org.User]{seq: s.next(), item: user}
	return user, nil
}

func (s *Store) GetUser(_ context.Context, id string) (org.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.users[id]
	if !ok {
		return org.User{}, apperror.NotFound("user")
	}
	return r.item, nil
}

func (s *Store) UserByLogin(_ context.Context, login string) (org.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.users {
		if r.item.Email == login || r.item.Username == login {
			return r.item, nil
		}
	}
	return org.User{}, apperror.NotFound("user")
}

func (s *Store) ListUsers(_ context.Context, role string) ([]org.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := collect(s.users, func(u org.User) bool { return role == "" || u.Role == role }, false)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (s *Store) UpdateUser(_ context.Context, user org.User) (org.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.users[user.ID]
	if !ok {
		return org.User{}, apperror.NotFound("user")
	}
	if err := s.userConflict(user); err != nil {
		return org.User{}, err
	}
	user.CreatedAt = r.item.CreatedAt
	user.UpdatedAt = s.stamp()
	r.item = user
	s.users[user.ID] = r
	return user, nil
}

// DeleteUser drops team memberships and the user's notifications, and
// refuses while any workflow record still points at the user.
func (s *Store) DeleteUser(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return apperror.NotFound("user")
	}
	if s.userReferenced(id) {
		return apperror.Conflict("user", "user is still referenced by other records")
	}
	delete(s.users, id)
	for teamID, r := range s.teams {
		if r.item.HasMember(id) {
			r.item.Members = slices.DeleteFunc(slices.Clone(r.item.Members), func(m string) bool { return m == id })
			s.teams[teamID] = r
		}
	}
	for nid, r := range s.notifications {
		switch {
		case r.item.RecipientID == id:
			delete(s.notifications, nid)
		case r.item.SenderID == id:
			r.item.SenderID = ""
			s.notifications[nid] = r
		}
	}
	return nil
}

func (s *Store) userReferenced(id string) bool {
	return anyMatch(s.departments, func(d org.Department) bool { return d.CreatedBy == id }) ||
		anyMatch(s.teams, func(t org.Team) bool { return t.CreatedBy == id }) ||
		anyMatch(s.goals, func(g goals.Goal) bool { return g.ManagerID == id || g.HRID == id }) ||
		anyMatch(s.tasks, func(t tasks.Task) bool { return t.EmployeeID == id || t.ManagerID == id }) ||
		anyMatch(s.goalReviews, func(r reviews.GoalReview) bool { return r.ManagerID == id || r.HRAdminID == id }) ||
		anyMatch(s.taskReviews, func(r reviews.TaskReview) bool { return r.EmployeeID == id || r.HRAdminID == id }) ||
		anyMatch(s.assessments, func(a assessments.SelfAssessment) bool { return a.EmployeeID == id || a.ManagerID == id }) ||
		anyMatch(s.feedback, func(f assessments.Feedback) bool { return f.ManagerID == id })
}

func (s *Store) CreateDepartment(_ context.Context, dept org.Department) (org.Department, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[dept.CreatedBy]; !ok {
		return org.Department{}, apperror.Validation("department references a record that does not exist")
	}
	now := s.stamp()
	dept.ID = newID()
	dept.CreatedAt, dept.UpdatedAt = now, now
	s.departments[dept.ID] = row[org.Department]{seq: s.next(), item: dept}
	return dept, nil
}

func (s *Store) GetDepartment(_ context.Context, id string) (org.Department, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.departments[id]
	if !ok {
		return org.Department{}, apperror.NotFound("department")
	}
	return r.item, nil
}

func (s *Store) ListDepartments(_ context.Context) ([]org.Department, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := collect(s.departments, nil, false)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) UpdateDepartment(_ context.Context, dept org.Department) (org.Department, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.departments[dept.ID]
	if !ok {
		return org.Department{}, apperror.NotFound("department")
	}
	r.item.Name = dept.Name
	r.item.Description = dept.Description
	r.item.UpdatedAt = s.stamp()
	s.departments[dept.ID] = r
	return r.item, nil
}

func (s *Store) DeleteDepartment(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.departments[id]; !ok {
		return apperror.NotFound("department")
	}
	if anyMatch(s.teams, func(t org.Team) bool { return t.DepartmentID == id }) ||
		anyMatch(s.goals, func(g goals.Goal) bool { return g.DepartmentID == id }) ||
		anyMatch(s.taskReviews, func(r reviews.TaskReview) bool { return r.DepartmentID == id }) {
		return apperror.Conflict("department", "department is still referenced by other records")
	}
	delete(s.departments, id)
	return nil
}

func (s *Store) checkTeamRefs(team org.Team) error {
	if team.DepartmentID != "" {
		if _, ok := s.departments[team.DepartmentID]; !ok {
			return apperror.Validation("team references a record that does not exist")
		}
	}
	for _, member := range team.Members {
		if _, ok := s.users[member]; !ok {
			return apperror.Validation("team references a record that does not exist")
		}
	}
	return nil
}

func (s *Store) CreateTeam(_ context.Context, team org.Team) (org.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkTeamRefs(team); err != nil {
		return org.Team{}, err
	}
	now := s.stamp()
	team.ID = newID()
	team.Members = sortedMembers(team.Members)
	team.CreatedAt, team.UpdatedAt = now, now
	s.teams[team.ID] = row[org.Team]{seq: s.next(), item: team}
	return cloneTeam(team), nil
}

func (s *Store) GetTeam(_ context.Context, id string) (org.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.teams[id]
	if !ok {
		return org.Team{}, apperror.NotFound("team")
	}
	return cloneTeam(r.item), nil
}

func (s *Store) ListTeams(_ context.Context, memberID string) ([]org.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := collect(s.teams, func(t org.Team) bool { return memberID == "" || t.HasMember(memberID) }, false)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	for i := range out {
		out[i] = cloneTeam(out[i])
	}
	return out, nil
}

func (s *Store) UpdateTeam(_ context.Context, team org.Team) (org.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.teams[team.ID]
	if !ok {
		return org.Team{}, apperror.NotFound("team")
	}
	if err := s.checkTeamRefs(team); err != nil {
		return org.Team{}, err
	}
	r.item.Name = team.Name
	r.item.DepartmentID = team.DepartmentID
	r.item.Members = sortedMembers(team.Members)
	r.item.UpdatedAt = s.stamp()
	s.teams[team.ID] = r
	return cloneTeam(r.item), nil
}

func (s *Store) DeleteTeam(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.teams[id]; !ok {
		return apperror.NotFound("team")
	}
	if anyMatch(s.goals, func(g goals.Goal) bool { return g.TeamID == id }) ||
		anyMatch(s.goalReviews, func(r reviews.GoalReview) bool { return r.TeamID == id }) ||
		anyMatch(s.taskReviews, func(r reviews.TaskReview) bool { return r.TeamID == id }) {
		return apperror.Conflict("team", "team is still referenced by other records")
	}
	delete(s.teams, id)
	return nil
}

func sortedMembers(members []string) []string {
	out := slices.Clone(members)
	if out == nil {
		out = []string{}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

func cloneTeam(team org.Team) org.Team {
	team.Members = slices.Clone(team.Members)
	if team.Members == nil {
		team.Members = []string{}
	}
	return team
}
