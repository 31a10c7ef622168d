package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"perfcycle/internal/app/server"
	"perfcycle/internal/platform/config"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type apiClient struct {
	t    *testing.T
	http *http.Client
	base string
}

func testConfig() config.Config {
	cfg := config.Defaults()
	cfg.StorageDriver = config.StorageMemory
	cfg.Environment = "test"
	cfg.JWTSecret = "test-secret"
	cfg.SeedAdminUsername = "admin"
	cfg.SeedAdminEmail = "admin@test.local"
	cfg.SeedAdminPassword = "ChangeMe123"
	cfg.RunSeed = true
	cfg.RateLimitPerMinute = 10000
	return cfg
}

// startApp serves cfg over httptest with the notification worker running.
func startApp(t *testing.T, cfg config.Config) *apiClient {
	t.Helper()
	app, err := server.New(context.Background(), cfg)
	require.NoError(t, err, "failed to start app")

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = app.Jobs.Run(ctx) }()

	ts := httptest.NewServer(app.Router)
	t.Cleanup(func() {
		ts.Close()
		cancel()
		app.Jobs.Wait()
		app.Close()
	})
	return &apiClient{t: t, http: ts.Client(), base: ts.URL + "/api/v1"}
}

func (c *apiClient) do(method, path, token string, body any) (int, envelope) {
	c.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, c.base+path, reader)
	require.NoError(c.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.http.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	var env envelope
	if resp.StatusCode != http.StatusNoContent {
		require.NoError(c.t, json.NewDecoder(resp.Body).Decode(&env), "%s %s", method, path)
	}
	return resp.StatusCode, env
}

// must performs the request, requires want and decodes data into out.
func (c *apiClient) must(want int, method, path, token string, body, out any) {
	c.t.Helper()
	status, env := c.do(method, path, token, body)
	require.Equal(c.t, want, status, "%s %s: %+v", method, path, env.Error)
	if out != nil {
		require.NoError(c.t, json.Unmarshal(env.Data, out))
	}
}

func (c *apiClient) login(login, password string) string {
	c.t.Helper()
	var out struct {
		Token string `json:"token"`
	}
	c.must(http.StatusOK, http.MethodPost, "/auth/login", "", map[string]string{"login": login, "password": password}, &out)
	require.NotEmpty(c.t, out.Token)
	return out.Token
}

type idOnly struct {
	ID string `json:"id"`
}

func (c *apiClient) create(path, token string, body any) string {
	c.t.Helper()
	var out idOnly
	c.must(http.StatusCreated, http.MethodPost, path, token, body, &out)
	require.NotEmpty(c.t, out.ID)
	return out.ID
}

type notification struct {
	ID              string `json:"id"`
	Type            string `json:"type"`
	RelatedEntityID string `json:"relatedEntityId"`
	IsRead          bool   `json:"isRead"`
}

// waitForNotification polls the inbox until the worker has delivered a
// notification of kind for entityID.
func (c *apiClient) waitForNotification(token, kind, entityID string) notification {
	c.t.Helper()
	var found notification
	require.Eventually(c.t, func() bool {
		var items []notification
		c.must(http.StatusOK, http.MethodGet, "/notifications", token, nil, &items)
		for _, n := range items {
			if n.Type == kind && n.RelatedEntityID == entityID {
				found = n
				return true
			}
		}
		return false
	}, 2*time.Second, 20*time.Millisecond, "no %s notification for %s", kind, entityID)
	return found
}

type world struct {
	hr, manager, employee        string
	managerID, employeeID        string
	departmentID, teamID, goalID string
}

func setupWorld(c *apiClient) world {
	c.t.Helper()
	w := world{hr: c.login("admin@test.local", "ChangeMe123")}

	w.managerID = c.create("/users", w.hr, map[string]string{
		"username": "mara", "email": "mara@example.com", "password": "Manager123", "role": "manager",
	})
	w.employeeID = c.create("/users", w.hr, map[string]string{
		"username": "eli", "email": "eli@example.com", "password": "Employee123", "role": "employee",
	})
	w.departmentID = c.create("/departments", w.hr, map[string]string{"name": "Engineering"})
	w.teamID = c.create("/teams", w.hr, map[string]any{
		"name": "Platform", "departmentId": w.departmentID, "members": []string{w.employeeID},
	})
	w.manager = c.login("mara", "Manager123")
	w.employee = c.login("eli@example.com", "Employee123")

	w.goalID = c.create("/goals", w.manager, map[string]string{
		"title": "Launch v2", "teamId": w.teamID, "startDate": "2026-01-01", "dueDate": "2026-03-31",
	})
	return w
}

func TestGoalReviewJourney(t *testing.T) {
	c := startApp(t, testConfig())
	w := setupWorld(c)

	reviewID := c.create("/goal-reviews", w.hr, map[string]string{
		"goalId": w.goalID, "managerId": w.managerID, "dueDate": "2026-03-31", "description": "Q1 review",
	})
	c.waitForNotification(w.manager, "GoalReviewCreated", reviewID)

	status, _ := c.do(http.MethodPost, "/goal-reviews", w.hr, map[string]string{
		"goalId": w.goalID, "managerId": w.managerID, "dueDate": "2026-04-30",
	})
	assert.Equal(t, http.StatusConflict, status, "one review cycle per goal")

	status, _ = c.do(http.MethodPost, "/goal-reviews/"+reviewID+"/submit", w.employee, map[string]string{"review": "not mine"})
	assert.Equal(t, http.StatusForbidden, status)

	var review struct {
		Status         string     `json:"status"`
		ManagerReview  string     `json:"managerReview"`
		SubmissionDate *time.Time `json:"submissionDate"`
	}
	c.must(http.StatusOK, http.MethodPost, "/goal-reviews/"+reviewID+"/submit", w.manager, map[string]string{"review": "Shipped on time"}, &review)
	assert.Equal(t, "Completed", review.Status)
	assert.Equal(t, "Shipped on time", review.ManagerReview)
	assert.NotNil(t, review.SubmissionDate)

	c.waitForNotification(w.hr, "GoalReviewSubmitted", reviewID)

	status, env := c.do(http.MethodPost, "/goal-reviews/"+reviewID+"/submit", w.manager, map[string]string{"review": "again"})
	assert.Equal(t, http.StatusConflict, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "conflict", env.Error.Code)

	c.must(http.StatusOK, http.MethodPost, "/goal-reviews/"+reviewID+"/reopen", w.hr, nil, &review)
	assert.Equal(t, "Pending", review.Status)
}

func TestTaskAssessmentJourney(t *testing.T) {
	c := startApp(t, testConfig())
	w := setupWorld(c)

	taskID := c.create("/tasks", w.manager, map[string]string{
		"projectId": w.goalID, "title": "Write migration guide", "employeeId": w.employeeID,
		"dueDate": "2026-03-15", "priority": "high",
	})

	status, _ := c.do(http.MethodPost, "/self-assessments", w.employee, map[string]string{"taskId": taskID, "comments": "too early"})
	assert.Equal(t, http.StatusBadRequest, status, "task must be completed first")

	var task struct {
		Status      string     `json:"status"`
		CompletedAt *time.Time `json:"completedAt"`
	}
	c.must(http.StatusOK, http.MethodPatch, "/tasks/"+taskID, w.employee, map[string]string{"status": "completed"}, &task)
	assert.Equal(t, "completed", task.Status)
	require.NotNil(t, task.CompletedAt)

	assessmentID := c.create("/self-assessments", w.employee, map[string]string{"taskId": taskID, "comments": "Guide published"})
	status, _ = c.do(http.MethodPost, "/self-assessments", w.employee, map[string]string{"taskId": taskID, "comments": "again"})
	assert.Equal(t, http.StatusConflict, status)

	feedbackID := c.create("/feedback", w.manager, map[string]string{"selfAssessmentId": assessmentID, "feedbackText": "Clear and thorough"})

	var assessment struct {
		Status     string `json:"status"`
		FeedbackID string `json:"feedbackId"`
	}
	c.must(http.StatusOK, http.MethodGet, "/self-assessments/"+assessmentID, w.employee, nil, &assessment)
	assert.Equal(t, "completed", assessment.Status)
	assert.Equal(t, feedbackID, assessment.FeedbackID)

	reviewID := c.create("/task-reviews", w.hr, map[string]string{
		"taskId": taskID, "departmentId": w.departmentID, "teamId": w.teamID, "projectId": w.goalID,
		"employeeId": w.employeeID, "dueDate": "2026-03-31",
	})
	var taskReview struct {
		TaskDueDate string `json:"taskDueDate"`
	}
	c.must(http.StatusOK, http.MethodGet, "/task-reviews/"+reviewID, w.hr, nil, &taskReview)
	assert.Contains(t, taskReview.TaskDueDate, "2026-03-15")

	c.waitForNotification(w.employee, "TaskReviewCreated", reviewID)
	c.must(http.StatusOK, http.MethodPost, "/task-reviews/"+reviewID+"/submit", w.employee, map[string]string{"review": "Proud of this one"}, nil)
	note := c.waitForNotification(w.hr, "TaskReviewSubmitted", reviewID)
	assert.False(t, note.IsRead)

	c.must(http.StatusOK, http.MethodPost, "/notifications/"+note.ID+"/read", w.hr, nil, nil)
	var unread struct {
		Unread int `json:"unread"`
	}
	c.must(http.StatusOK, http.MethodGet, "/notifications/unread-count", w.hr, nil, &unread)
	assert.Zero(t, unread.Unread)
}

func TestPermissionBoundaries(t *testing.T) {
	c := startApp(t, testConfig())
	w := setupWorld(c)

	status, _ := c.do(http.MethodGet, "/goals", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = c.do(http.MethodGet, "/users", w.employee, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = c.do(http.MethodPost, "/goals", w.employee, map[string]string{"title": "x", "teamId": w.teamID})
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = c.do(http.MethodGet, "/reports/summary", w.manager, nil)
	assert.Equal(t, http.StatusForbidden, status)

	var goals []idOnly
	c.must(http.StatusOK, http.MethodGet, "/goals", w.employee, nil, &goals)
	assert.Len(t, goals, 1, "team members see their team's goals")

	status, env := c.do(http.MethodPost, "/goal-reviews", w.hr, map[string]string{"goalId": w.goalID, "managerId": w.managerID})
	assert.Equal(t, http.StatusBadRequest, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "validation_error", env.Error.Code)
}

func TestPostgresJourney(t *testing.T) {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	cfg := testConfig()
	cfg.StorageDriver = config.StoragePostgres
	cfg.DatabaseURL = dbURL
	cfg.RunMigrations = true
	cfg.DataEncryptionKey = "0123456789abcdef0123456789abcdef"

	c := startApp(t, cfg)
	hr := c.login(cfg.SeedAdminEmail, cfg.SeedAdminPassword)
	var summary struct {
		GoalReviews struct {
			Total int `json:"total"`
		} `json:"goalReviews"`
	}
	c.must(http.StatusOK, http.MethodGet, "/reports/summary", hr, nil, &summary)
	assert.GreaterOrEqual(t, summary.GoalReviews.Total, 0)
}
