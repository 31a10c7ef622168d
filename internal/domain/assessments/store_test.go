package assessments

import (
	"context"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"perfcycle/internal/apperror"
)

// recordingQuerier answers every Exec with the configured command tag.
type recordingQuerier struct {
	tag  string
	sql  []string
	args [][]any
}

func (q *recordingQuerier) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	q.sql = append(q.sql, sql)
	q.args = append(q.args, args)
	return pgconn.NewCommandTag(q.tag), nil
}

func (q *recordingQuerier) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, pgx.ErrNoRows
}

func (q *recordingQuerier) QueryRow(context.Context, string, ...any) pgx.Row {
	return nil
}

func TestAttachFeedbackGuardsCompletedAssessment(t *testing.T) {
	q := &recordingQuerier{tag: "UPDATE 1"}
	require.NoError(t, attachFeedback(context.Background(), q, "sa-1", "fb-1"))
	require.Len(t, q.sql, 1)
	assert.Contains(t, q.sql[0], "feedback_id IS NULL")
	assert.Equal(t, []any{"sa-1", "fb-1"}, q.args[0])

	q = &recordingQuerier{tag: "UPDATE 0"}
	err := attachFeedback(context.Background(), q, "sa-1", "fb-2")
	assert.True(t, apperror.Is(err, apperror.CodeConflict))
}

func TestDetachFeedbackResetsStatus(t *testing.T) {
	q := &recordingQuerier{tag: "UPDATE 1"}
	require.NoError(t, detachFeedback(context.Background(), q, "fb-1"))
	require.Len(t, q.sql, 1)
	assert.True(t, strings.Contains(q.sql[0], "status = 'submitted'"))
	assert.Equal(t, []any{"fb-1"}, q.args[0])
}
