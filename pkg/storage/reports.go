package storage

import (
	"context"
	"fmt"
	"time"
)

// Report is a daily progress report against a project. Reports are
// immutable once created; there is no update or delete path.
type Report struct {
	ID                 int64     `json:"id"`
	ProjectID          int64     `json:"project_id"`
	UserID             int64     `json:"user_id"`
	Username           string    `json:"username"`
	Date               string    `json:"date"`
	Content            string    `json:"content"`
	ProgressPercentage int       `json:"progress_percentage"`
	CreatedAt          time.Time `json:"created_at"`
}

// ListReportsForProject returns all reports for the project joined with the
// author's username, newest report date first.
func (s *Store) ListReportsForProject(ctx context.Context, projectID int64) ([]*Report, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT dr.id, dr.project_id, dr.user_id, COALESCE(u.username, ''),
		       dr.date, dr.content, dr.progress_percentage, dr.created_at
		FROM daily_reports dr
		LEFT JOIN users u ON dr.user_id = u.id
		WHERE dr.project_id = ?
		ORDER BY dr.date DESC`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	reports := []*Report{}
	for rows.Next() {
		r := &Report{}
		// The driver materializes DATE columns as time.Time; keep the
		// wire form as a plain calendar date.
		var date time.Time
		if err := rows.Scan(&r.ID, &r.ProjectID, &r.UserID, &r.Username,
			&date, &r.Content, &r.ProgressPercentage, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		r.Date = date.Format("2006-01-02")
		reports = append(reports, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reports: %w", err)
	}

	return reports, nil
}

// CreateReport inserts a new daily report authored by userID and returns
// its ID. The project must exist; referential integrity is checked at write
// time rather than left to fail lazily on the join. Progress is clamped to
// the 0-100 range.
func (s *Store) CreateReport(ctx context.Context, projectID, userID int64, date, content string, progress int) (int64, error) {
	if date == "" {
		return 0, ValidationError("report date is required")
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return 0, ValidationError("report date must be YYYY-MM-DD")
	}
	if content == "" {
		return 0, ValidationError("report content is required")
	}

	exists, err := s.projectExists(ctx, projectID)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, ValidationError(fmt.Sprintf("project %d does not exist", projectID))
	}

	if progress < 0 {
		progress = 0
	} else if progress > 100 {
		progress = 100
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO daily_reports (project_id, user_id, date, content, progress_percentage)
		VALUES (?, ?, ?, ?, ?)`,
		projectID, userID, date, content, progress)
	if err != nil {
		return 0, fmt.Errorf("failed to create report: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read report id: %w", err)
	}

	return id, nil
}
