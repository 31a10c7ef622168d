package authhandler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"perfcycle/internal/domain/auth"
	"perfcycle/internal/domain/org"
	"perfcycle/internal/platform/memstore"
	"perfcycle/internal/transport/http/middleware"
)

const secret = "handler-secret"

func newRouter(t *testing.T) (*chi.Mux, org.User) {
	t.Helper()
	store := memstore.New()
	hash, err := auth.HashPassword("Secret123")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	user, err := store.CreateUser(context.Background(), org.User{Username: "hradmin", Email: "hr@example.com", Role: auth.RoleHR, PasswordHash: hash})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	users := org.NewService(store)
	h := NewHandler(auth.NewService(users, secret, time.Hour), users, nil)

	router := chi.NewRouter()
	router.Use(middleware.RequestID, middleware.Auth(secret))
	h.RegisterPublicRoutes(router)
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireUser)
		h.RegisterRoutes(r)
	})
	return router, user
}

func TestLoginIssuesToken(t *testing.T) {
	router, user := newRouter(t)

	body, _ := json.Marshal(loginRequest{Login: "HR@example.com", Password: "Secret123"})
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Data struct {
			Token string            `json:"token"`
			User  map[string]string `json:"user"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Data.Token == "" || resp.Data.User["id"] != user.ID {
		t.Fatalf("unexpected login response: %s", rec.Body.String())
	}

	me := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	me.Header.Set("Authorization", "Bearer "+resp.Data.Token)
	meRec := httptest.NewRecorder()
	router.ServeHTTP(meRec, me)
	if meRec.Code != http.StatusOK {
		t.Fatalf("expected 200 from /auth/me, got %d", meRec.Code)
	}
}

func TestLoginRejectsBadPassword(t *testing.T) {
	router, _ := newRouter(t)

	tests := []struct {
		name    string
		payload string
		want    int
	}{
		{"wrong password", `{"login":"hradmin","password":"Wrong123"}`, http.StatusUnauthorized},
		{"unknown user", `{"login":"nobody","password":"Secret123"}`, http.StatusUnauthorized},
		{"missing fields", `{"login":""}`, http.StatusBadRequest},
		{"malformed", `{`, http.StatusBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(tc.payload))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, rec.Code)
			}
		})
	}
}

func TestMeRequiresToken(t *testing.T) {
	router, _ := newRouter(t)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/me", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
