package notifications_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"perfcycle/internal/apperror"
	"perfcycle/internal/domain/auth"
	"perfcycle/internal/domain/notifications"
	"perfcycle/internal/domain/org"
	"perfcycle/internal/platform/jobs"
	"perfcycle/internal/platform/memstore"
	"perfcycle/internal/platform/metrics"
)

type sentMail struct {
	from, to, subject string
}

type fakeMailer struct {
	sent []sentMail
	err  error
}

func (m *fakeMailer) Send(_ context.Context, from, to, subject, _ string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{from: from, to: to, subject: subject})
	return nil
}

// captureQueue accepts jobs and keeps them for the test to run.
type captureQueue struct {
	accept bool
	jobs   []jobs.RunFunc
	inline int
}

func (q *captureQueue) RunNow(ctx context.Context, _ string, run jobs.RunFunc) (any, error) {
	q.inline++
	return run(ctx)
}

func (q *captureQueue) Enqueue(_ string, run jobs.RunFunc) bool {
	if !q.accept {
		return false
	}
	q.jobs = append(q.jobs, run)
	return true
}

func setup(t *testing.T) (*memstore.Store, auth.UserContext, auth.UserContext) {
	t.Helper()
	store := memstore.New()
	ctx := context.Background()
	a, err := store.CreateUser(ctx, org.User{Username: "ann", Email: "ann@example.com", Role: auth.RoleManager})
	require.NoError(t, err)
	b, err := store.CreateUser(ctx, org.User{Username: "ben", Email: "ben@example.com", Role: auth.RoleHR})
	require.NoError(t, err)
	return store, auth.UserContext{UserID: a.ID, RoleName: a.Role}, auth.UserContext{UserID: b.ID, RoleName: b.Role}
}

func note(recipient, sender string) notifications.Notification {
	return notifications.Notification{
		RecipientID: recipient,
		SenderID:    sender,
		Type:        notifications.TypeGoalReviewCreated,
		Title:       "New Goal Review Assigned",
		Message:     "A goal review is due.",
		EntityType:  notifications.EntityGoalReview,
	}
}

func TestDeliverStoresAndMails(t *testing.T) {
	store, ann, ben := setup(t)
	mailer := &fakeMailer{}
	svc := notifications.New(store, mailer)
	svc.DefaultFrom = "reviews@example.com"

	created, err := svc.Deliver(context.Background(), note(ann.UserID, ben.UserID))
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.IsRead)

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, sentMail{from: "reviews@example.com", to: "ann@example.com", subject: "New Goal Review Assigned"}, mailer.sent[0])
}

func TestMailFailureDoesNotFailDelivery(t *testing.T) {
	store, ann, ben := setup(t)
	svc := notifications.New(store, &fakeMailer{err: errors.New("smtp down")})

	_, err := svc.Deliver(context.Background(), note(ann.UserID, ben.UserID))
	require.NoError(t, err)

	count, err := svc.UnreadCount(context.Background(), ann)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCreateOnceDedupes(t *testing.T) {
	store, ann, ben := setup(t)
	svc := notifications.New(store, nil)
	ctx := context.Background()

	n := note(ann.UserID, ben.UserID)
	n.Type = notifications.TypeReminder
	n.DedupeKey = notifications.ReminderKey(ann.UserID, "review-1", time.Date(2026, 3, 31, 18, 0, 0, 0, time.UTC))
	assert.Equal(t, "reminder:"+ann.UserID+":review-1:2026-03-31", n.DedupeKey)

	sent, err := svc.CreateOnce(ctx, n)
	require.NoError(t, err)
	assert.True(t, sent)
	sent, err = svc.CreateOnce(ctx, n)
	require.NoError(t, err)
	assert.False(t, sent)

	items, err := svc.List(ctx, ann, 0, 0)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestInboxOperations(t *testing.T) {
	store, ann, ben := setup(t)
	svc := notifications.New(store, nil)
	ctx := context.Background()

	first, err := svc.Deliver(ctx, note(ann.UserID, ben.UserID))
	require.NoError(t, err)
	_, err = svc.Deliver(ctx, note(ann.UserID, ben.UserID))
	require.NoError(t, err)

	_, err = svc.MarkRead(ctx, ben, first.ID)
	assert.True(t, apperror.Is(err, apperror.CodeForbidden))

	read, err := svc.MarkRead(ctx, ann, first.ID)
	require.NoError(t, err)
	assert.True(t, read.IsRead)

	count, err := svc.UnreadCount(ctx, ann)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	updated, err := svc.MarkAllRead(ctx, ann)
	require.NoError(t, err)
	assert.Equal(t, 1, updated)

	assert.True(t, apperror.Is(svc.Delete(ctx, ben, first.ID), apperror.CodeForbidden))
	require.NoError(t, svc.Delete(ctx, ann, first.ID))
	items, err := svc.List(ctx, ann, 10, 0)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestDispatcherQueuesAndFallsBack(t *testing.T) {
	store, ann, ben := setup(t)
	svc := notifications.New(store, nil)
	ctx := context.Background()
	collector := metrics.New()

	queue := &captureQueue{accept: true}
	notifications.NewDispatcher(svc, queue, collector).Emit(ctx, note(ann.UserID, ben.UserID))
	require.Len(t, queue.jobs, 1)

	count, err := svc.UnreadCount(ctx, ann)
	require.NoError(t, err)
	assert.Zero(t, count, "nothing is stored until the worker runs")

	_, err = queue.jobs[0](ctx)
	require.NoError(t, err)
	count, err = svc.UnreadCount(ctx, ann)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	full := &captureQueue{accept: false}
	notifications.NewDispatcher(svc, full, collector).Emit(ctx, note(ann.UserID, ben.UserID))
	count, err = svc.UnreadCount(ctx, ann)
	require.NoError(t, err)
	assert.Equal(t, 2, count, "a full queue delivers inline")
	assert.Equal(t, 1, full.inline)

	snap := collector.Snapshot()
	assert.EqualValues(t, 1, snap["notificationsQueued"])
	assert.EqualValues(t, 1, snap["notificationsInline"])
	assert.EqualValues(t, 2, snap["notificationsDelivered"])
}

// stalledMailer blocks until the delivery context gives up.
type stalledMailer struct{}

func (stalledMailer) Send(ctx context.Context, _, _, _, _ string) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestDispatcherBoundsStalledDelivery(t *testing.T) {
	store, ann, ben := setup(t)
	svc := notifications.New(store, stalledMailer{})
	dispatcher := notifications.NewDispatcher(svc, &captureQueue{accept: false}, metrics.New())
	dispatcher.Timeout = 50 * time.Millisecond

	done := make(chan struct{})
	go func() {
		dispatcher.Emit(context.Background(), note(ann.UserID, ben.UserID))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("inline delivery blocked on a stalled mailer")
	}

	count, err := svc.UnreadCount(context.Background(), ann)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "the notification is stored even when mail times out")
}

func TestDispatcherDeliversInlineAfterWorkerStops(t *testing.T) {
	store, ann, ben := setup(t)
	svc := notifications.New(store, nil)
	worker := jobs.New(store, 8)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, worker.Run(ctx))

	collector := metrics.New()
	notifications.NewDispatcher(svc, worker, collector).Emit(context.Background(), note(ann.UserID, ben.UserID))

	count, err := svc.UnreadCount(context.Background(), ann)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.EqualValues(t, 1, collector.Snapshot()["notificationsInline"])

	runs, err := store.ListRuns(context.Background(), jobs.JobNotificationDelivery, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, jobs.StatusCompleted, runs[0].Status)
}
