package org

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"perfcycle/internal/platform/db"
	"perfcycle/internal/platform/querier"
)

const teamColumns = `t.id, t.name, COALESCE(t.department_id::text, ''), t.created_by, t.created_at, t.updated_at,
      COALESCE((SELECT array_agg(m.user_id::text ORDER BY m.user_id) FROM team_members m WHERE m.team_id = t.id), '{}')`

func scanTeam(row pgx.Row) (Team, error) {
	var t Team
	err := row.Scan(&t.ID, &t.Name, &t.DepartmentID, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt, &t.Members)
	return t, err
}

func (s *Store) CreateTeam(ctx context.Context, team Team) (Team, error) {
	var id string
	err := db.WithTx(ctx, s.DB, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `
      INSERT INTO teams (name, department_id, created_by)
      VALUES ($1, $2, $3)
      RETURNING id
    `, team.Name, db.NullString(team.DepartmentID), team.CreatedBy).Scan(&id); err != nil {
			return err
		}
		return replaceMembers(ctx, tx, id, team.Members)
	})
	if err != nil {
		return Team{}, db.MapError(err, "team")
	}
	return s.GetTeam(ctx, id)
}

func (s *Store) GetTeam(ctx context.Context, id string) (Team, error) {
	team, err := scanTeam(s.DB.QueryRow(ctx, "SELECT "+teamColumns+" FROM teams t WHERE t.id = $1", id))
	return team, db.MapError(err, "team")
}

// ListTeams returns all teams, or only those memberID belongs to when set.
func (s *Store) ListTeams(ctx context.Context, memberID string) ([]Team, error) {
	query := "SELECT " + teamColumns + " FROM teams t"
	args := []any{}
	if memberID != "" {
		query += " WHERE EXISTS (SELECT 1 FROM team_members m WHERE m.team_id = t.id AND m.user_id = $1)"
		args = append(args, memberID)
	}
	query += " ORDER BY t.name"
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	defer rows.Close()

	out := []Team{}
	for rows.Next() {
		team, err := scanTeam(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, team)
	}
	return out, rows.Err()
}

func (s *Store) UpdateTeam(ctx context.Context, team Team) (Team, error) {
	err := db.WithTx(ctx, s.DB, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
      UPDATE teams SET name = $2, department_id = $3, updated_at = now()
      WHERE id = $1
    `, team.ID, team.Name, db.NullString(team.DepartmentID))
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return pgx.ErrNoRows
		}
		return replaceMembers(ctx, tx, team.ID, team.Members)
	})
	if err != nil {
		return Team{}, db.MapError(err, "team")
	}
	return s.GetTeam(ctx, team.ID)
}

func (s *Store) DeleteTeam(ctx context.Context, id string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM teams WHERE id = $1", id)
	if err != nil {
		return db.MapDeleteError(err, "team")
	}
	if tag.RowsAffected() == 0 {
		return db.MapError(pgx.ErrNoRows, "team")
	}
	return nil
}

func replaceMembers(ctx context.Context, q querier.Querier, teamID string, members []string) error {
	if _, err := q.Exec(ctx, "DELETE FROM team_members WHERE team_id = $1", teamID); err != nil {
		return err
	}
	for _, userID := range members {
		if _, err := q.Exec(ctx, "INSERT INTO team_members (team_id, user_id) VALUES ($1, $2)", teamID, userID); err != nil {
			return err
		}
	}
	return nil
}
