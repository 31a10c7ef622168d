package reviews

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"perfcycle/internal/apperror"
	"perfcycle/internal/platform/crypto"
	"perfcycle/internal/platform/db"
)

// Store persists review cycles. Review narratives are sealed with Cipher.
type Store struct {
	DB     *pgxpool.Pool
	Cipher *crypto.Cipher
}

func NewStore(pool *pgxpool.Pool, cipher *crypto.Cipher) *Store {
	return &Store{DB: pool, Cipher: cipher}
}

const goalReviewColumns = `id, goal_id, manager_id, hr_admin_id, COALESCE(team_id::text, ''), description, due_date,
      status, manager_review, submission_date, created_at, updated_at`

func (s *Store) scanGoalReview(row pgx.Row) (GoalReview, error) {
	var (
		r      GoalReview
		sealed []byte
	)
	if err := row.Scan(&r.ID, &r.GoalID, &r.ManagerID, &r.HRAdminID, &r.TeamID, &r.Description, &r.DueDate,
		&r.Status, &sealed, &r.SubmissionDate, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return GoalReview{}, err
	}
	text, err := s.Cipher.OpenString(sealed)
	if err != nil {
		return GoalReview{}, fmt.Errorf("open goal review %s: %w", r.ID, err)
	}
	r.ManagerReview = text
	return r, nil
}

func (s *Store) CreateGoalReview(ctx context.Context, review GoalReview) (GoalReview, error) {
	created, err := s.scanGoalReview(s.DB.QueryRow(ctx, `
    INSERT INTO goal_reviews (goal_id, manager_id, hr_admin_id, team_id, description, due_date, status)
    VALUES ($1, $2, $3, $4, $5, $6, $7)
    RETURNING `+goalReviewColumns,
		review.GoalID, review.ManagerID, review.HRAdminID, db.NullString(review.TeamID), review.Description,
		review.DueDate, review.Status))
	if db.IsUniqueViolation(err) {
		return GoalReview{}, apperror.Conflict("goal review", "goal already has a review cycle")
	}
	return created, db.MapError(err, "goal review")
}

func (s *Store) GetGoalReview(ctx context.Context, id string) (GoalReview, error) {
	review, err := s.scanGoalReview(s.DB.QueryRow(ctx, "SELECT "+goalReviewColumns+" FROM goal_reviews WHERE id = $1", id))
	return review, db.MapError(err, "goal review")
}

func (s *Store) ListGoalReviews(ctx context.Context, filter Filter) ([]GoalReview, error) {
	query, args := filterQuery("SELECT "+goalReviewColumns+" FROM goal_reviews", "manager_id", filter)
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list goal reviews: %w", err)
	}
	defer rows.Close()

	out := []GoalReview{}
	for rows.Next() {
		review, err := s.scanGoalReview(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, review)
	}
	return out, rows.Err()
}

func (s *Store) UpdateGoalReview(ctx context.Context, review GoalReview) (GoalReview, error) {
	updated, err := s.scanGoalReview(s.DB.QueryRow(ctx, `
    UPDATE goal_reviews
    SET goal_id = $2, manager_id = $3, team_id = $4, description = $5, due_date = $6, updated_at = now()
    WHERE id = $1
    RETURNING `+goalReviewColumns,
		review.ID, review.GoalID, review.ManagerID, db.NullString(review.TeamID), review.Description, review.DueDate))
	if db.IsUniqueViolation(err) {
		return GoalReview{}, apperror.Conflict("goal review", "goal already has a review cycle")
	}
	return updated, db.MapError(err, "goal review")
}

func (s *Store) SubmitGoalReview(ctx context.Context, id, text string, at time.Time) (GoalReview, error) {
	sealed, err := s.Cipher.SealString(text)
	if err != nil {
		return GoalReview{}, err
	}
	review, err := s.scanGoalReview(s.DB.QueryRow(ctx, `
    UPDATE goal_reviews
    SET status = 'Completed', manager_review = $2, submission_date = $3, updated_at = now()
    WHERE id = $1 AND status = 'Pending'
    RETURNING `+goalReviewColumns, id, sealed, at))
	if errors.Is(err, pgx.ErrNoRows) {
		return GoalReview{}, s.staleGoalReview(ctx, id, "review has already been submitted")
	}
	return review, db.MapError(err, "goal review")
}

func (s *Store) ReopenGoalReview(ctx context.Context, id string) (GoalReview, error) {
	review, err := s.scanGoalReview(s.DB.QueryRow(ctx, `
    UPDATE goal_reviews
    SET status = 'Pending', submission_date = NULL, updated_at = now()
    WHERE id = $1 AND status = 'Completed'
    RETURNING `+goalReviewColumns, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return GoalReview{}, s.staleGoalReview(ctx, id, "review is not completed")
	}
	return review, db.MapError(err, "goal review")
}

// staleGoalReview tells a missing row apart from one in the wrong state.
func (s *Store) staleGoalReview(ctx context.Context, id, message string) error {
	if _, err := s.GetGoalReview(ctx, id); err != nil {
		return err
	}
	return apperror.Conflict("goal review", message)
}

func (s *Store) DeleteGoalReview(ctx context.Context, id string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM goal_reviews WHERE id = $1", id)
	if err != nil {
		return db.MapDeleteError(err, "goal review")
	}
	if tag.RowsAffected() == 0 {
		return db.MapError(pgx.ErrNoRows, "goal review")
	}
	return nil
}

func filterQuery(base, assigneeColumn string, filter Filter) (string, []any) {
	query := base + " WHERE 1=1"
	args := []any{}
	if filter.AssigneeID != "" {
		args = append(args, filter.AssigneeID)
		query += fmt.Sprintf(" AND %s = $%d", assigneeColumn, len(args))
	}
	if filter.CreatorID != "" {
		args = append(args, filter.CreatorID)
		query += fmt.Sprintf(" AND hr_admin_id = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.DueOn != nil {
		args = append(args, db.DateOnly(*filter.DueOn))
		query += fmt.Sprintf(" AND due_date = $%d::date", len(args))
	}
	return query + " ORDER BY due_date, created_at", args
}
