package goals

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"perfcycle/internal/platform/db"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{DB: pool}
}

const goalColumns = `id, title, description, start_date, due_date, status, manager_id, team_id,
      COALESCE(department_id::text, ''), COALESCE(hr_id::text, ''), created_at, updated_at`

func scanGoal(row pgx.Row) (Goal, error) {
	var g Goal
	err := row.Scan(&g.ID, &g.Title, &g.Description, &g.StartDate, &g.DueDate, &g.Status, &g.ManagerID, &g.TeamID,
		&g.DepartmentID, &g.HRID, &g.CreatedAt, &g.UpdatedAt)
	return g, err
}

func (s *Store) CreateGoal(ctx context.Context, goal Goal) (Goal, error) {
	created, err := scanGoal(s.DB.QueryRow(ctx, `
    INSERT INTO goals (title, description, start_date, due_date, status, manager_id, team_id, department_id, hr_id)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    RETURNING `+goalColumns,
		goal.Title, goal.Description, goal.StartDate, goal.DueDate, goal.Status, goal.ManagerID, goal.TeamID,
		db.NullString(goal.DepartmentID), db.NullString(goal.HRID)))
	return created, db.MapError(err, "goal")
}

func (s *Store) GetGoal(ctx context.Context, id string) (Goal, error) {
	goal, err := scanGoal(s.DB.QueryRow(ctx, "SELECT "+goalColumns+" FROM goals WHERE id = $1", id))
	return goal, db.MapError(err, "goal")
}

func (s *Store) ListGoals(ctx context.Context, filter Filter) ([]Goal, error) {
	query := "SELECT " + goalColumns + " FROM goals WHERE 1=1"
	args := []any{}
	if filter.ManagerID != "" {
		args = append(args, filter.ManagerID)
		query += fmt.Sprintf(" AND manager_id = $%d", len(args))
	}
	if len(filter.TeamIDs) > 0 {
		args = append(args, filter.TeamIDs)
		query += fmt.Sprintf(" AND team_id::text = ANY($%d)", len(args))
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	out := []Goal{}
	for rows.Next() {
		goal, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, goal)
	}
	return out, rows.Err()
}

func (s *Store) UpdateGoal(ctx context.Context, goal Goal) (Goal, error) {
	updated, err := scanGoal(s.DB.QueryRow(ctx, `
    UPDATE goals
    SET title = $2, description = $3, start_date = $4, due_date = $5, status = $6, team_id = $7,
        department_id = $8, updated_at = now()
    WHERE id = $1
    RETURNING `+goalColumns,
		goal.ID, goal.Title, goal.Description, goal.StartDate, goal.DueDate, goal.Status, goal.TeamID,
		db.NullString(goal.DepartmentID)))
	return updated, db.MapError(err, "goal")
}

func (s *Store) DeleteGoal(ctx context.Context, id string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM goals WHERE id = $1", id)
	if err != nil {
		return db.MapDeleteError(err, "goal")
	}
	if tag.RowsAffected() == 0 {
		return db.MapError(pgx.ErrNoRows, "goal")
	}
	return nil
}
