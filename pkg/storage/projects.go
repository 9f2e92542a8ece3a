package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// ProjectStatus is the lifecycle state of a project
type ProjectStatus string

const (
	StatusPlanning   ProjectStatus = "planning"
	StatusInProgress ProjectStatus = "in-progress"
	StatusTesting    ProjectStatus = "testing"
	StatusCompleted  ProjectStatus = "completed"
	StatusOnHold     ProjectStatus = "on-hold"
)

// ValidStatus reports whether s is one of the known project statuses
func ValidStatus(s ProjectStatus) bool {
	switch s {
	case StatusPlanning, StatusInProgress, StatusTesting, StatusCompleted, StatusOnHold:
		return true
	}
	return false
}

// Project is a tracked project. CreatedByName is joined from the creator's
// user record for display; CreatedBy itself never changes after creation.
type Project struct {
	ID            int64         `json:"id"`
	Name          string        `json:"name"`
	Description   string        `json:"description,omitempty"`
	Status        ProjectStatus `json:"status"`
	CreatedBy     int64         `json:"created_by"`
	CreatedByName string        `json:"created_by_name"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// ListProjects returns all projects joined with the creator's username,
// most recently updated first.
func (s *Store) ListProjects(ctx context.Context) ([]*Project, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.id, p.name, COALESCE(p.description, ''), p.status,
		       COALESCE(p.created_by, 0), COALESCE(u.username, ''),
		       p.created_at, p.updated_at
		FROM projects p
		LEFT JOIN users u ON p.created_by = u.id
		ORDER BY p.updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	projects := []*Project{}
	for rows.Next() {
		p := &Project{}
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Status,
			&p.CreatedBy, &p.CreatedByName, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate projects: %w", err)
	}

	return projects, nil
}

// CreateProject inserts a new project owned by createdBy and returns its ID.
// An empty status defaults to planning; an unknown status is rejected.
func (s *Store) CreateProject(ctx context.Context, name, description string, status ProjectStatus, createdBy int64) (int64, error) {
	if name == "" {
		return 0, ValidationError("project name is required")
	}
	if status == "" {
		status = StatusPlanning
	}
	if !ValidStatus(status) {
		return 0, ValidationError(fmt.Sprintf("unknown project status %q", status))
	}

	now := s.now().UTC()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO projects (name, description, status, created_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		name, description, status, createdBy, now, now)
	if err != nil {
		return 0, fmt.Errorf("failed to create project: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read project id: %w", err)
	}

	return id, nil
}

// UpdateProject overwrites name, description and status of an existing
// project and advances updated_at, whether or not any field changed.
// Returns ErrNotFound if no project has the given id.
func (s *Store) UpdateProject(ctx context.Context, id int64, name, description string, status ProjectStatus) error {
	if name == "" {
		return ValidationError("project name is required")
	}
	if status == "" {
		status = StatusPlanning
	}
	if !ValidStatus(status) {
		return ValidationError(fmt.Sprintf("unknown project status %q", status))
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE projects SET name = ?, description = ?, status = ?, updated_at = ?
		WHERE id = ?`,
		name, description, status, s.now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

// projectExists reports whether a project with the given id exists
func (s *Store) projectExists(ctx context.Context, id int64) (bool, error) {
	var found int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM projects WHERE id = ?`, id).Scan(&found)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check project: %w", err)
	}
	return true, nil
}
