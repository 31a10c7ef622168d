// Package memstore is an in-process implementation of every domain store.
// All operations run under one mutex, and the unique and restrict
// constraints of the postgres schema are enforced in Go.
package memstore

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"perfcycle/internal/domain/assessments"
	"perfcycle/internal/domain/audit"
	"perfcycle/internal/domain/goals"
	"perfcycle/internal/domain/notifications"
	"perfcycle/internal/domain/org"
	"perfcycle/internal/domain/reviews"
	"perfcycle/internal/domain/tasks"
	"perfcycle/internal/platform/jobs"
)

type Store struct {
	mu  sync.Mutex
	now func() time.Time
	seq uint64

	users         map[string]row[org.User]
	departments   map[string]row[org.Department]
	teams         map[string]row[org.Team]
	goals         map[string]row[goals.Goal]
	tasks         map[string]row[tasks.Task]
	goalReviews   map[string]row[reviews.GoalReview]
	taskReviews   map[string]row[reviews.TaskReview]
	assessments   map[string]row[assessments.SelfAssessment]
	feedback      map[string]row[assessments.Feedback]
	notifications map[string]row[notifications.Notification]
	auditEvents   []audit.Event
	jobRuns       map[string]row[jobs.Run]
}

// row keeps insertion order so listings are stable under a frozen clock.
type row[T any] struct {
	seq  uint64
	item T
}

func New() *Store {
	return &Store{
		now:           time.Now,
		users:         map[string]row[org.User]{},
		departments:   map[string]row[org.Department]{},
		teams:         map[string]row[org.Team]{},
		goals:         map[string]row[goals.Goal]{},
		tasks:         map[string]row[tasks.Task]{},
		goalReviews:   map[string]row[reviews.GoalReview]{},
		taskReviews:   map[string]row[reviews.TaskReview]{},
		assessments:   map[string]row[assessments.SelfAssessment]{},
		feedback:      map[string]row[assessments.Feedback]{},
		notifications: map[string]row[notifications.Notification]{},
		jobRuns:       map[string]row[jobs.Run]{},
	}
}

// WithClock sets the clock used for created and updated timestamps.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
	return s
}

func (s *Store) stamp() time.Time {
	return s.now().UTC()
}

func (s *Store) next() uint64 {
	s.seq++
	return s.seq
}

func newID() string {
	return uuid.NewString()
}

// collect returns the items of m that match keep. newestFirst orders by
// descending insertion, otherwise ascending.
func collect[T any](m map[string]row[T], keep func(T) bool, newestFirst bool) []T {
	rows := make([]row[T], 0, len(m))
	for _, r := range m {
		if keep == nil || keep(r.item) {
			rows = append(rows, r)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if newestFirst {
			return rows[i].seq > rows[j].seq
		}
		return rows[i].seq < rows[j].seq
	})
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.item)
	}
	return out
}

func anyMatch[T any](m map[string]row[T], match func(T) bool) bool {
	for _, r := range m {
		if match(r.item) {
			return true
		}
	}
	return false
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

var (
	_ org.StoreAPI           = (*Store)(nil)
	_ goals.StoreAPI         = (*Store)(nil)
	_ tasks.StoreAPI         = (*Store)(nil)
	_ reviews.StoreAPI       = (*Store)(nil)
	_ assessments.StoreAPI   = (*Store)(nil)
	_ notifications.StoreAPI = (*Store)(nil)
	_ audit.StoreAPI         = (*Store)(nil)
	_ jobs.Recorder          = (*Store)(nil)
	_ jobs.History           = (*Store)(nil)
)
