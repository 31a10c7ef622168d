package reports

import (
	"context"
	"encoding/csv"
	"io"
	"time"

	"perfcycle/internal/apperror"
	"perfcycle/internal/domain/auth"
	"perfcycle/internal/domain/reviews"
)

// Table is a rendered report: a title, a header row and string cells.
type Table struct {
	Title  string     `json:"title"`
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}

func (s *Service) Table(ctx context.Context, caller auth.UserContext, kind string) (Table, error) {
	if err := auth.Authorize(auth.ActionReportExport, caller, auth.Resource{}); err != nil {
		return Table{}, err
	}
	return s.table(ctx, kind)
}

func (s *Service) table(ctx context.Context, kind string) (Table, error) {
	switch kind {
	case KindGoalReviews:
		items, err := s.source.ListGoalReviews(ctx, reviews.Filter{})
		if err != nil {
			return Table{}, err
		}
		views, err := s.projector.GoalReviews(ctx, items)
		if err != nil {
			return Table{}, err
		}
		t := Table{
			Title:  "Goal Review Report",
			Header: []string{"Goal", "Manager", "Status", "Due Date", "Submitted", "Review"},
		}
		for _, v := range views {
			t.Rows = append(t.Rows, []string{
				v.Goal.Name, v.Manager.Name, v.Status, formatDate(&v.DueDate), formatDate(v.SubmissionDate), v.ManagerReview,
			})
		}
		return t, nil
	case KindTaskReviews:
		items, err := s.source.ListTaskReviews(ctx, reviews.Filter{})
		if err != nil {
			return Table{}, err
		}
		views, err := s.projector.TaskReviews(ctx, items)
		if err != nil {
			return Table{}, err
		}
		t := Table{
			Title:  "Task Review Report",
			Header: []string{"Task", "Employee", "Team", "Status", "Due Date", "Task Due", "Submitted", "Review"},
		}
		for _, v := range views {
			t.Rows = append(t.Rows, []string{
				v.Task.Name, v.Employee.Name, v.Team.Name, v.Status, formatDate(&v.DueDate), formatDate(v.TaskDueDate),
				formatDate(v.SubmissionDate), v.EmployeeReview,
			})
		}
		return t, nil
	}
	return Table{}, apperror.Validationf("unknown report %q", kind)
}

// Export renders the report in format and writes it to w.
func (s *Service) Export(ctx context.Context, caller auth.UserContext, kind, format string, w io.Writer) error {
	t, err := s.Table(ctx, caller, kind)
	if err != nil {
		return err
	}
	return Render(t, format, s.now(), w)
}

// ExportUnchecked skips the caller check and serves the CLI.
func (s *Service) ExportUnchecked(ctx context.Context, kind, format string, w io.Writer) error {
	t, err := s.table(ctx, kind)
	if err != nil {
		return err
	}
	return Render(t, format, s.now(), w)
}

func Render(t Table, format string, generatedAt time.Time, w io.Writer) error {
	switch format {
	case FormatCSV:
		return WriteCSV(t, w)
	case FormatPDF:
		return WritePDF(t, generatedAt, w)
	}
	return apperror.Validationf("unknown format %q", format)
}

func WriteCSV(t Table, w io.Writer) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(t.Header); err != nil {
		return err
	}
	for _, row := range t.Rows {
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02")
}
