package reviews

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"perfcycle/internal/apperror"
	"perfcycle/internal/platform/db"
)

const taskReviewColumns = `id, task_id, department_id, team_id, project_id, employee_id, hr_admin_id, description,
      due_date, task_due_date, status, employee_review, submission_date, created_at, updated_at`

func (s *Store) scanTaskReview(row pgx.Row) (TaskReview, error) {
	var (
		r      TaskReview
		sealed []byte
	)
	if err := row.Scan(&r.ID, &r.TaskID, &r.DepartmentID, &r.TeamID, &r.ProjectID, &r.EmployeeID, &r.HRAdminID,
		&r.Description, &r.DueDate, &r.TaskDueDate, &r.Status, &sealed, &r.SubmissionDate, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return TaskReview{}, err
	}
	text, err := s.Cipher.OpenString(sealed)
	if err != nil {
		return TaskReview{}, fmt.Errorf("open task review %s: %w", r.ID, err)
	}
	r.EmployeeReview = text
	return r, nil
}

func (s *Store) CreateTaskReview(ctx context.Context, review TaskReview) (TaskReview, error) {
	created, err := s.scanTaskReview(s.DB.QueryRow(ctx, `
    INSERT INTO task_reviews (task_id, department_id, team_id, project_id, employee_id, hr_admin_id, description,
                              due_date, task_due_date, status)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
    RETURNING `+taskReviewColumns,
		review.TaskID, review.DepartmentID, review.TeamID, review.ProjectID, review.EmployeeID, review.HRAdminID,
		review.Description, review.DueDate, review.TaskDueDate, review.Status))
	if db.IsUniqueViolation(err) {
		return TaskReview{}, apperror.Conflict("task review", "task already has a review cycle")
	}
	return created, db.MapError(err, "task review")
}

func (s *Store) GetTaskReview(ctx context.Context, id string) (TaskReview, error) {
	review, err := s.scanTaskReview(s.DB.QueryRow(ctx, "SELECT "+taskReviewColumns+" FROM task_reviews WHERE id = $1", id))
	return review, db.MapError(err, "task review")
}

func (s *Store) ListTaskReviews(ctx context.Context, filter Filter) ([]TaskReview, error) {
	query, args := filterQuery("SELECT "+taskReviewColumns+" FROM task_reviews", "employee_id", filter)
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list task reviews: %w", err)
	}
	defer rows.Close()

	out := []TaskReview{}
	for rows.Next() {
		review, err := s.scanTaskReview(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, review)
	}
	return out, rows.Err()
}

func (s *Store) UpdateTaskReview(ctx context.Context, review TaskReview) (TaskReview, error) {
	updated, err := s.scanTaskReview(s.DB.QueryRow(ctx, `
    UPDATE task_reviews
    SET task_id = $2, department_id = $3, team_id = $4, project_id = $5, employee_id = $6, description = $7,
        due_date = $8, task_due_date = $9, updated_at = now()
    WHERE id = $1
    RETURNING `+taskReviewColumns,
		review.ID, review.TaskID, review.DepartmentID, review.TeamID, review.ProjectID, review.EmployeeID,
		review.Description, review.DueDate, review.TaskDueDate))
	if db.IsUniqueViolation(err) {
		return TaskReview{}, apperror.Conflict("task review", "task already has a review cycle")
	}
	return updated, db.MapError(err, "task review")
}

func (s *Store) SubmitTaskReview(ctx context.Context, id, text string, at time.Time) (TaskReview, error) {
	sealed, err := s.Cipher.SealString(text)
	if err != nil {
		return TaskReview{}, err
	}
	review, err := s.scanTaskReview(s.DB.QueryRow(ctx, `
    UPDATE task_reviews
    SET status = 'Completed', employee_review = $2, submission_date = $3, updated_at = now()
    WHERE id = $1 AND status = 'Pending'
    RETURNING `+taskReviewColumns, id, sealed, at))
	if errors.Is(err, pgx.ErrNoRows) {
		return TaskReview{}, s.staleTaskReview(ctx, id, "review has already been submitted")
	}
	return review, db.MapError(err, "task review")
}

func (s *Store) ReopenTaskReview(ctx context.Context, id string) (TaskReview, error) {
	review, err := s.scanTaskReview(s.DB.QueryRow(ctx, `
    UPDATE task_reviews
    SET status = 'Pending', submission_date = NULL, updated_at = now()
    WHERE id = $1 AND status = 'Completed'
    RETURNING `+taskReviewColumns, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return TaskReview{}, s.staleTaskReview(ctx, id, "review is not completed")
	}
	return review, db.MapError(err, "task review")
}

func (s *Store) staleTaskReview(ctx context.Context, id, message string) error {
	if _, err := s.GetTaskReview(ctx, id); err != nil {
		return err
	}
	return apperror.Conflict("task review", message)
}

func (s *Store) DeleteTaskReview(ctx context.Context, id string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM task_reviews WHERE id = $1", id)
	if err != nil {
		return db.MapDeleteError(err, "task review")
	}
	if tag.RowsAffected() == 0 {
		return db.MapError(pgx.ErrNoRows, "task review")
	}
	return nil
}
