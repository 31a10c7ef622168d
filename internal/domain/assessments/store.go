package assessments

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"perfcycle/internal/apperror"
	"perfcycle/internal/platform/crypto"
	"perfcycle/internal/platform/db"
	"perfcycle/internal/platform/querier"
)

type Store struct {
	DB     *pgxpool.Pool
	Cipher *crypto.Cipher
}

func NewStore(pool *pgxpool.Pool, cipher *crypto.Cipher) *Store {
	return &Store{DB: pool, Cipher: cipher}
}

const selfAssessmentColumns = `sa.id, sa.employee_id, sa.manager_id, sa.task_id, COALESCE(sa.feedback_id::text, ''),
      sa.comments, sa.status, sa.created_at, sa.updated_at`

func (s *Store) scanSelfAssessment(row pgx.Row) (SelfAssessment, error) {
	var (
		sa     SelfAssessment
		sealed []byte
	)
	if err := row.Scan(&sa.ID, &sa.EmployeeID, &sa.ManagerID, &sa.TaskID, &sa.FeedbackID,
		&sealed, &sa.Status, &sa.CreatedAt, &sa.UpdatedAt); err != nil {
		return SelfAssessment{}, err
	}
	comments, err := s.Cipher.OpenString(sealed)
	if err != nil {
		return SelfAssessment{}, fmt.Errorf("open self-assessment %s: %w", sa.ID, err)
	}
	sa.Comments = comments
	return sa, nil
}

func (s *Store) CreateSelfAssessment(ctx context.Context, sa SelfAssessment) (SelfAssessment, error) {
	sealed, err := s.Cipher.SealString(sa.Comments)
	if err != nil {
		return SelfAssessment{}, err
	}
	created, err := s.scanSelfAssessment(s.DB.QueryRow(ctx, `
    INSERT INTO self_assessments AS sa (employee_id, manager_id, task_id, comments, status)
    VALUES ($1, $2, $3, $4, $5)
    RETURNING `+selfAssessmentColumns, sa.EmployeeID, sa.ManagerID, sa.TaskID, sealed, sa.Status))
	if db.IsUniqueViolation(err) {
		return SelfAssessment{}, apperror.Conflict("self-assessment", "a self-assessment already exists for this task")
	}
	return created, db.MapError(err, "self-assessment")
}

func (s *Store) GetSelfAssessment(ctx context.Context, id string) (SelfAssessment, error) {
	sa, err := s.scanSelfAssessment(s.DB.QueryRow(ctx, "SELECT "+selfAssessmentColumns+" FROM self_assessments sa WHERE sa.id = $1", id))
	return sa, db.MapError(err, "self-assessment")
}

func (s *Store) ListSelfAssessments(ctx context.Context, filter Filter) ([]SelfAssessment, error) {
	query := "SELECT " + selfAssessmentColumns + " FROM self_assessments sa WHERE 1=1"
	args := []any{}
	if filter.EmployeeID != "" {
		args = append(args, filter.EmployeeID)
		query += fmt.Sprintf(" AND sa.employee_id = $%d", len(args))
	}
	if filter.ManagerID != "" {
		args = append(args, filter.ManagerID)
		query += fmt.Sprintf(" AND sa.manager_id = $%d", len(args))
	}
	query += " ORDER BY sa.created_at DESC"

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list self-assessments: %w", err)
	}
	defer rows.Close()

	out := []SelfAssessment{}
	for rows.Next() {
		sa, err := s.scanSelfAssessment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sa)
	}
	return out, rows.Err()
}

func (s *Store) UpdateSelfAssessmentComments(ctx context.Context, id, comments string) (SelfAssessment, error) {
	sealed, err := s.Cipher.SealString(comments)
	if err != nil {
		return SelfAssessment{}, err
	}
	sa, err := s.scanSelfAssessment(s.DB.QueryRow(ctx, `
    UPDATE self_assessments AS sa SET comments = $2, updated_at = now()
    WHERE sa.id = $1
    RETURNING `+selfAssessmentColumns, id, sealed))
	return sa, db.MapError(err, "self-assessment")
}

func (s *Store) DeleteSelfAssessment(ctx context.Context, id string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM self_assessments WHERE id = $1 AND feedback_id IS NULL", id)
	if err != nil {
		return db.MapDeleteError(err, "self-assessment")
	}
	if tag.RowsAffected() == 0 {
		if _, err := s.GetSelfAssessment(ctx, id); err != nil {
			return err
		}
		return apperror.Conflict("self-assessment", "self-assessment has feedback attached")
	}
	return nil
}

const feedbackColumns = "f.id, f.self_assessment_id, f.manager_id, f.feedback_text, f.status, f.created_at, f.updated_at"

func (s *Store) scanFeedback(row pgx.Row) (Feedback, error) {
	var (
		fb     Feedback
		sealed []byte
	)
	if err := row.Scan(&fb.ID, &fb.SelfAssessmentID, &fb.ManagerID, &sealed, &fb.Status, &fb.CreatedAt, &fb.UpdatedAt); err != nil {
		return Feedback{}, err
	}
	text, err := s.Cipher.OpenString(sealed)
	if err != nil {
		return Feedback{}, fmt.Errorf("open feedback %s: %w", fb.ID, err)
	}
	fb.FeedbackText = text
	return fb, nil
}

func (s *Store) CreateFeedback(ctx context.Context, fb Feedback) (Feedback, error) {
	sealed, err := s.Cipher.SealString(fb.FeedbackText)
	if err != nil {
		return Feedback{}, err
	}
	var created Feedback
	err = db.WithTx(ctx, s.DB, func(tx pgx.Tx) error {
		inserted, err := s.scanFeedback(tx.QueryRow(ctx, `
      INSERT INTO feedback AS f (self_assessment_id, manager_id, feedback_text, status)
      VALUES ($1, $2, $3, $4)
      RETURNING `+feedbackColumns, fb.SelfAssessmentID, fb.ManagerID, sealed, fb.Status))
		if err != nil {
			return err
		}
		if err := attachFeedback(ctx, tx, fb.SelfAssessmentID, inserted.ID); err != nil {
			return err
		}
		created = inserted
		return nil
	})
	if db.IsUniqueViolation(err) {
		return Feedback{}, apperror.Conflict("feedback", "feedback already submitted for this self-assessment")
	}
	if err != nil {
		return Feedback{}, db.MapError(err, "feedback")
	}
	return created, nil
}

func (s *Store) GetFeedback(ctx context.Context, id string) (Feedback, error) {
	fb, err := s.scanFeedback(s.DB.QueryRow(ctx, "SELECT "+feedbackColumns+" FROM feedback f WHERE f.id = $1", id))
	return fb, db.MapError(err, "feedback")
}

func (s *Store) FeedbackBySelfAssessment(ctx context.Context, selfAssessmentID string) (Feedback, error) {
	fb, err := s.scanFeedback(s.DB.QueryRow(ctx, "SELECT "+feedbackColumns+" FROM feedback f WHERE f.self_assessment_id = $1", selfAssessmentID))
	return fb, db.MapError(err, "feedback")
}

// ListFeedback scopes managers to feedback they wrote or feedback on
// assessments they manage.
func (s *Store) ListFeedback(ctx context.Context, filter Filter) ([]Feedback, error) {
	query := "SELECT " + feedbackColumns + " FROM feedback f JOIN self_assessments sa ON sa.id = f.self_assessment_id WHERE 1=1"
	args := []any{}
	if filter.EmployeeID != "" {
		args = append(args, filter.EmployeeID)
		query += fmt.Sprintf(" AND sa.employee_id = $%d", len(args))
	}
	if filter.ManagerID != "" {
		args = append(args, filter.ManagerID)
		query += fmt.Sprintf(" AND (sa.manager_id = $%d OR f.manager_id = $%d)", len(args), len(args))
	}
	query += " ORDER BY f.created_at DESC"

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	defer rows.Close()

	out := []Feedback{}
	for rows.Next() {
		fb, err := s.scanFeedback(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, fb)
	}
	return out, rows.Err()
}

func (s *Store) UpdateFeedbackText(ctx context.Context, id, text string) (Feedback, error) {
	sealed, err := s.Cipher.SealString(text)
	if err != nil {
		return Feedback{}, err
	}
	fb, err := s.scanFeedback(s.DB.QueryRow(ctx, `
    UPDATE feedback AS f SET feedback_text = $2, status = 'updated', updated_at = now()
    WHERE f.id = $1
    RETURNING `+feedbackColumns, id, sealed))
	return fb, db.MapError(err, "feedback")
}

// DeleteFeedback unlinks the assessment before removing the row so the
// feedback/status check on self_assessments holds at every step.
func (s *Store) DeleteFeedback(ctx context.Context, id string) error {
	err := db.WithTx(ctx, s.DB, func(tx pgx.Tx) error {
		if err := detachFeedback(ctx, tx, id); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, "DELETE FROM feedback WHERE id = $1", id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return pgx.ErrNoRows
		}
		return nil
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return apperror.NotFound("feedback")
	}
	return db.MapDeleteError(err, "feedback")
}

// attachFeedback completes the assessment; it fails with Conflict when
// another feedback already won the race.
func attachFeedback(ctx context.Context, q querier.Querier, selfAssessmentID, feedbackID string) error {
	tag, err := q.Exec(ctx, `
    UPDATE self_assessments SET feedback_id = $2, status = 'completed', updated_at = now()
    WHERE id = $1 AND feedback_id IS NULL
  `, selfAssessmentID, feedbackID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperror.Conflict("feedback", "feedback already submitted for this self-assessment")
	}
	return nil
}

func detachFeedback(ctx context.Context, q querier.Querier, feedbackID string) error {
	_, err := q.Exec(ctx, `
    UPDATE self_assessments SET feedback_id = NULL, status = 'submitted', updated_at = now()
    WHERE feedback_id = $1
  `, feedbackID)
	return err
}
