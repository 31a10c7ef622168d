package tasks

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

const taskColumns = `id, project_id, title, description, start_date, due_date, status, priority,
      employee_id, manager_id, completed_at, created_at, updated_at`

func scanTask(row pgx.Row) (Task, error) {
	var t Task
	err := row.Scan(&t.ID, &t.ProjectID, &t.Title, &t.Description, &t.StartDate, &t.DueDate, &t.Status, &t.Priority,
		&t.EmployeeID, &t.ManagerID, &t.CompletedAt, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

func (s *Store) CreateTask(ctx context.Context, task Task) (Task, error) {
	created, err := scanTask(s.DB.QueryRow(ctx, `
    INSERT INTO tasks (project_id, title, description, start_date, due_date, status, priority, employee_id, manager_id)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    RETURNING `+taskColumns,
		task.ProjectID, task.Title, task.Description, task.StartDate, task.DueDate, task.Status, task.Priority,
		task.EmployeeID, task.ManagerID))
	return created, db.MapError(err, "task")
}

func (s *Store) GetTask(ctx context.Context, id string) (Task, error) {
	task, err := scanTask(s.DB.QueryRow(ctx, "SELECT "+taskColumns+" FROM tasks WHERE id = $1", id))
	return task, db.MapError(err, "task")
}

func (s *Store) ListTasks(ctx context.Context, filter Filter) ([]Task, error) {
	query := "SELECT " + taskColumns + " FROM tasks WHERE 1=1"
	args := []any{}
	if filter.ManagerID != "" {
		args = append(args, filter.ManagerID)
		query += fmt.Sprintf(" AND manager_id = $%d", len(args))
	}
	if filter.EmployeeID != "" {
		args = append(args, filter.EmployeeID)
		query += fmt.Sprintf(" AND employee_id = $%d", len(args))
	}
	if filter.ProjectID != "" {
		args = append(args, filter.ProjectID)
		query += fmt.Sprintf(" AND project_id = $%d", len(args))
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	out := []Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, task)
	}
	return out, rows.Err()
}

// UpdateTask never clears completed_at once it has been set.
func (s *Store) UpdateTask(ctx context.Context, task Task) (Task, error) {
	updated, err := scanTask(s.DB.QueryRow(ctx, `
    UPDATE tasks
    SET project_id = $2, title = $3, description = $4, start_date = $5, due_date = $6, status = $7,
        priority = $8, employee_id = $9, completed_at = COALESCE(completed_at, $10), updated_at = now()
    WHERE id = $1
    RETURNING `+taskColumns,
		task.ID, task.ProjectID, task.Title, task.Description, task.StartDate, task.DueDate, task.Status,
		task.Priority, task.EmployeeID, task.CompletedAt))
	return updated, db.MapError(err, "task")
}

func (s *Store) DeleteTask(ctx context.Context, id string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM tasks WHERE id = $1", id)
	if err != nil {
		return db.MapDeleteError(err, "task")
	}
	if tag.RowsAffected() == 0 {
		return db.MapError(pgx.ErrNoRows, "task")
	}
	return nil
}
