package org

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

const userColumns = "id, username, email, role, password_hash, created_at, updated_at"

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Role, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (s *Store) CreateUser(ctx context.Context, user User) (User, error) {
	created, err := scanUser(s.DB.QueryRow(ctx, `
    INSERT INTO users (username, email, role, password_hash)
    VALUES ($1, $2, $3, $4)
    RETURNING `+userColumns, user.Username, user.Email, user.Role, user.PasswordHash))
	return created, db.MapError(err, "user")
}

func (s *Store) GetUser(ctx context.Context, id string) (User, error) {
	user, err := scanUser(s.DB.QueryRow(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1", id))
	return user, db.MapError(err, "user")
}

func (s *Store) UserByLogin(ctx context.Context, login string) (User, error) {
	user, err := scanUser(s.DB.QueryRow(ctx, "SELECT "+userColumns+" FROM users WHERE email = $1 OR username = $1", login))
	return user, db.MapError(err, "user")
}

func (s *Store) ListUsers(ctx context.Context, role string) ([]User, error) {
	query := "SELECT " + userColumns + " FROM users"
	args := []any{}
	if role != "" {
		query += " WHERE role = $1"
		args = append(args, role)
	}
	query += " ORDER BY username"
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	out := []User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, user)
	}
	return out, rows.Err()
}

func (s *Store) UpdateUser(ctx context.Context, user User) (User, error) {
	updated, err := scanUser(s.DB.QueryRow(ctx, `
    UPDATE users SET username = $2, email = $3, role = $4, password_hash = $5, updated_at = now()
    WHERE id = $1
    RETURNING `+userColumns, user.ID, user.Username, user.Email, user.Role, user.PasswordHash))
	return updated, db.MapError(err, "user")
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM users WHERE id = $1", id)
	if err != nil {
		return db.MapDeleteError(err, "user")
	}
	if tag.RowsAffected() == 0 {
		return db.MapError(pgx.ErrNoRows, "user")
	}
	return nil
}

const departmentColumns = "id, name, description, created_by, created_at, updated_at"

func scanDepartment(row pgx.Row) (Department, error) {
	var d Department
	err := row.Scan(&d.ID, &d.Name, &d.Description, &d.CreatedBy, &d.CreatedAt, &d.UpdatedAt)
	return d, err
}

func (s *Store) CreateDepartment(ctx context.Context, dept Department) (Department, error) {
	created, err := scanDepartment(s.DB.QueryRow(ctx, `
    INSERT INTO departments (name, description, created_by)
    VALUES ($1, $2, $3)
    RETURNING `+departmentColumns, dept.Name, dept.Description, dept.CreatedBy))
	return created, db.MapError(err, "department")
}

func (s *Store) GetDepartment(ctx context.Context, id string) (Department, error) {
	dept, err := scanDepartment(s.DB.QueryRow(ctx, "SELECT "+departmentColumns+" FROM departments WHERE id = $1", id))
	return dept, db.MapError(err, "department")
}

func (s *Store) ListDepartments(ctx context.Context) ([]Department, error) {
	rows, err := s.DB.Query(ctx, "SELECT "+departmentColumns+" FROM departments ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	defer rows.Close()

	out := []Department{}
	for rows.Next() {
		dept, err := scanDepartment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, dept)
	}
	return out, rows.Err()
}

func (s *Store) UpdateDepartment(ctx context.Context, dept Department) (Department, error) {
	updated, err := scanDepartment(s.DB.QueryRow(ctx, `
    UPDATE departments SET name = $2, description = $3, updated_at = now()
    WHERE id = $1
    RETURNING `+departmentColumns, dept.ID, dept.Name, dept.Description))
	return updated, db.MapError(err, "department")
}

func (s *Store) DeleteDepartment(ctx context.Context, id string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM departments WHERE id = $1", id)
	if err != nil {
		return db.MapDeleteError(err, "department")
	}
	if tag.RowsAffected() == 0 {
		return db.MapError(pgx.ErrNoRows, "department")
	}
	return nil
}
